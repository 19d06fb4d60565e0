package commands

import (
	"strings"
	"testing"

	"trendlens-backend/internal/opportunity"
	"trendlens-backend/internal/scrapers/stock"

	"github.com/stretchr/testify/require"
)

func TestRenderRecords(t *testing.T) {
	records := []opportunity.Record{
		{
			ID:               1,
			Keyword:          "loud keyword",
			DemandScore:      85,
			CompetitionCount: 3_000_000,
			Supply:           stock.SupplySample{Count: 3_000_000, Fetched: true},
		},
		{
			ID:          2,
			Keyword:     "broken page",
			DemandScore: 40,
		},
	}

	out := &strings.Builder{}
	renderRecords(out, records, opportunity.DefaultThresholds)
	text := out.String()
	require.Contains(t, text, "3,000,000")
	require.Contains(t, text, "yes")

	lines := strings.Split(text, "\n")
	for _, line := range lines {
		if strings.Contains(line, "broken page") {
			require.Contains(t, line, " - ")
			require.NotContains(t, line, "yes")
		}
	}

	out.Reset()
	renderRecords(out, nil, opportunity.DefaultThresholds)
	require.Equal(t, "no keywords to show.\n", out.String())
}
