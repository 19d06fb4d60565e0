package opportunity

import (
	"context"
	"errors"
	"fmt"
	"time"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/chrono"
	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/scrapers/gtrends"
)

const (
	report_demand_fetch = "demand.fetch"

	// DemandSource is the failure source of the trend provider.
	DemandSource = "demand"
	// DemandTimeframe is the window the demand score is taken from.
	DemandTimeframe = "today 3-m"
)

var ErrNoDemandData = errors.New("no interest data")

// DemandFetcher never fails, a failure yields a zero score.
//
// note: fault injection point
type DemandFetcher interface {
	FetchDemand(ctx context.Context, keyword string) DemandSample
}

type DemandAdapter struct {
	trends   gtrends.API
	delay    *throttle.Throttler
	timeout  time.Duration
	reporter Reporter
	time     chrono.TimeAPI
	tel      telemetry.API
}

func NewDemandAdapter(
	trends gtrends.API,
	delay *throttle.Throttler,
	timeout time.Duration,
	reporter Reporter,
	clock chrono.TimeAPI,
	tel telemetry.API,
) DemandAdapter {
	assert.NotNil(trends)
	assert.NotNil(reporter)
	assert.NotNil(clock)
	assert.NotNil(tel)
	assert.True(timeout > 0, "demand timeout must be positive")

	return DemandAdapter{
		trends:   trends,
		delay:    delay,
		timeout:  timeout,
		reporter: reporter,
		time:     clock,
		tel:      telemetry.NewScopedAPI("opportunity", tel),
	}
}

func clampScore(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}

// FetchDemand returns the most recent interest value of the keyword over the last three
// months.
func (d DemandAdapter) FetchDemand(ctx context.Context, keyword string) DemandSample {
	d.delay.Wait(ctx)

	sample := DemandSample{
		Keyword:   keyword,
		FetchedAt: d.time.Now(),
	}
	fail := func(kind failure.Kind, err error) DemandSample {
		failure.Report(ctx, d.reporter, failure.Failure{
			Keyword: keyword,
			Source:  DemandSource,
			Kind:    kind,
			Err:     err,
		})
		return sample
	}

	ctx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	series, err := d.trends.InterestOverTime(ctx, gtrends.Query{
		Keywords:  []string{keyword},
		Timeframe: DemandTimeframe,
		Category:  0,
		Geo:       "",
	})
	if err != nil {
		return fail(failure.KindTransport, err)
	}

	column, ok := series.Column(keyword)
	if !ok {
		return fail(failure.KindNoData, fmt.Errorf("%w: keyword missing from reply", ErrNoDemandData))
	}
	if len(column) == 0 {
		return fail(failure.KindNoData, fmt.Errorf("%w: empty series", ErrNoDemandData))
	}

	sample.Score = clampScore(column[len(column)-1])
	d.tel.ReportDebug(report_demand_fetch, keyword, sample.Score)
	return sample
}
