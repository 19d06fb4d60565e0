// Package failure carries per-keyword fetch failures out of the pipeline without
// interrupting it.
package failure

import (
	"context"
	"fmt"
	"sync"

	"trendlens-backend/internal/components/telemetry"
)

type Kind string

const (
	// KindTransport is a network error, a non-2xx status or a browser automation fault.
	KindTransport Kind = "transport"
	// KindExtractionMismatch means the page loaded but no locator found a count.
	KindExtractionMismatch Kind = "extraction_mismatch"
	// KindNoData means the trend provider returned an empty series or no column for the keyword.
	KindNoData Kind = "no_data"
	// KindPanic is a recovered panic inside a single keyword's analysis.
	KindPanic Kind = "panic"
)

type Failure struct {
	Keyword string
	// Source is a supply source id, or "demand" for the trend provider.
	Source string
	Kind   Kind
	Err    error
}

func (f Failure) Error() string {
	if f.Err == nil {
		return fmt.Sprintf("%s: %s (keyword %q)", f.Source, f.Kind, f.Keyword)
	}
	return fmt.Sprintf("%s: %s (keyword %q): %s", f.Source, f.Kind, f.Keyword, f.Err)
}

func (f Failure) Unwrap() error {
	return f.Err
}

// Reporter receives failures. Implementations must be safe for concurrent use.
type Reporter interface {
	Report(ctx context.Context, f Failure)
}

// TelemetryReporter forwards failures to a telemetry.API. Mismatches and missing data are
// warnings (they are expected on hostile sources), everything else is broken.
type TelemetryReporter struct {
	tel telemetry.API
}

func NewTelemetryReporter(tel telemetry.API) TelemetryReporter {
	return TelemetryReporter{tel: tel}
}

func (r TelemetryReporter) Report(_ context.Context, f Failure) {
	id := fmt.Sprintf("%s.%s", f.Source, f.Kind)
	params := []any{f.Keyword}
	if f.Err != nil {
		params = append(params, f.Err)
	}

	switch f.Kind {
	case KindExtractionMismatch, KindNoData:
		r.tel.ReportWarning(id, params...)
	default:
		r.tel.ReportBroken(id, params...)
	}
}

// Collector keeps failures in memory so that a caller can summarize a run.
type Collector struct {
	mu       sync.Mutex
	failures []Failure
}

func (c *Collector) Report(_ context.Context, f Failure) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.failures = append(c.failures, f)
}

func (c *Collector) Failures() []Failure {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Failure, len(c.failures))
	copy(out, c.failures)
	return out
}

// CountByKind groups failures by source and kind.
func (c *Collector) CountByKind() map[string]map[Kind]int {
	out := map[string]map[Kind]int{}
	for _, f := range c.Failures() {
		if out[f.Source] == nil {
			out[f.Source] = map[Kind]int{}
		}
		out[f.Source][f.Kind]++
	}
	return out
}

type collectorKeyType int

var collectorKey collectorKeyType

// WithCollector attaches a collector to ctx, every failure reported through Report under ctx
// is also recorded by it. This is how a single run gathers the failures of components that
// were wired with a long lived reporter.
func WithCollector(ctx context.Context, c *Collector) context.Context {
	return context.WithValue(ctx, collectorKey, c)
}

// Report sends f to r and to the collector attached to ctx, if any.
func Report(ctx context.Context, r Reporter, f Failure) {
	if r != nil {
		r.Report(ctx, f)
	}
	if c, ok := ctx.Value(collectorKey).(*Collector); ok && c != nil {
		c.Report(ctx, f)
	}
}

// Multi fans a failure out to several reporters.
type Multi []Reporter

func (m Multi) Report(ctx context.Context, f Failure) {
	for _, r := range m {
		if r != nil {
			r.Report(ctx, f)
		}
	}
}
