package opportunity

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"trendlens-backend/internal/scrapers/stock"
)

var (
	ErrEmptyBatch     = errors.New("empty keyword batch")
	ErrInvalidKeyword = errors.New("invalid keyword")
)

// DefaultKeywords is analyzed when nothing else is configured.
var DefaultKeywords = []string{
	"AI generated background",
	"sustainable lifestyle",
	"remote work setup",
	"mental health awareness",
	"local travel",
	"3d character",
	"cyber security",
}

// RunConfig holds everything that may change between two runs of the same pipeline.
type RunConfig struct {
	Thresholds Thresholds
	// Primary is the only source competition counts come from.
	Primary stock.SourceID
	// Secondary is tried only when Primary did not fetch, empty disables it.
	Secondary stock.SourceID
	// SkipEmpty drops records that have neither a demand score nor a fetched count.
	SkipEmpty bool
	// GoldenOnly makes Analysis.Output return the golden subset.
	GoldenOnly bool
	// Workers above 1 analyzes keywords concurrently.
	Workers int
}

func DefaultRunConfig() RunConfig {
	return RunConfig{
		Thresholds: DefaultThresholds,
		Primary:    stock.Shutterstock,
		Workers:    1,
	}
}

// ValidateKeywords rejects an empty batch and blank keywords. Keywords are otherwise kept as
// given, duplicates included.
func ValidateKeywords(keywords []string) error {
	if len(keywords) == 0 {
		return ErrEmptyBatch
	}
	for i, kw := range keywords {
		if strings.TrimSpace(kw) == "" {
			return fmt.Errorf("%w: keyword %d is blank", ErrInvalidKeyword, i+1)
		}
		if strings.ContainsAny(kw, "\r\n") {
			return fmt.Errorf("%w: keyword %d spans several lines", ErrInvalidKeyword, i+1)
		}
	}
	return nil
}

// ParseKeywords reads one keyword per line, skipping blank lines and lines starting with '#'.
func ParseKeywords(r io.Reader) ([]string, error) {
	keywords := []string{}
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		keywords = append(keywords, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("read keywords: %w", err)
	}
	return keywords, nil
}
