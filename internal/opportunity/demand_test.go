package opportunity

import (
	"context"
	"errors"
	"testing"
	"time"

	"trendlens-backend/internal/components/chrono"
	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/scrapers/gtrends"

	"github.com/stretchr/testify/require"
)

type fakeTrends struct {
	series  map[string]gtrends.Series
	err     error
	queries []gtrends.Query
}

func (f *fakeTrends) InterestOverTime(ctx context.Context, q gtrends.Query) (gtrends.Series, error) {
	f.queries = append(f.queries, q)
	if _, ok := ctx.Deadline(); !ok {
		return gtrends.Series{}, errors.New("no deadline on trends call")
	}
	if f.err != nil {
		return gtrends.Series{}, f.err
	}
	return f.series[q.Keywords[0]], nil
}

func seriesOf(keyword string, values ...int) gtrends.Series {
	s := gtrends.Series{Keywords: []string{keyword}}
	for _, v := range values {
		s.Points = append(s.Points, gtrends.Point{Values: []int{v}})
	}
	return s
}

func TestFetchDemand(t *testing.T) {
	at := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	trends := &fakeTrends{series: map[string]gtrends.Series{
		"remote work setup": seriesOf("remote work setup", 20, 35, 64),
		"over":              seriesOf("over", 50, 130),
		"under":             seriesOf("under", 50, -3),
		"flat":              seriesOf("flat"),
		"renamed":           seriesOf("something else", 80),
	}}

	var slept []time.Duration
	delay := throttle.New(throttle.Seconds(8, 12),
		throttle.WithRandom(constRandom(0.5)),
		throttle.WithSleep(func(_ context.Context, d time.Duration) {
			slept = append(slept, d)
		}),
	)
	collector := &failure.Collector{}
	adapter := NewDemandAdapter(trends, delay, time.Second, collector, chrono.FixedImpl{At: at}, telemetry.NoopAPI{})
	ctx := context.Background()

	sample := adapter.FetchDemand(ctx, "remote work setup")
	require.Equal(t, DemandSample{Keyword: "remote work setup", Score: 64, FetchedAt: at}, sample)
	require.Equal(t, gtrends.Query{
		Keywords:  []string{"remote work setup"},
		Timeframe: "today 3-m",
	}, trends.queries[0])
	require.Equal(t, []time.Duration{10 * time.Second}, slept)

	require.Equal(t, 100, adapter.FetchDemand(ctx, "over").Score)
	require.Equal(t, 0, adapter.FetchDemand(ctx, "under").Score)
	require.Empty(t, collector.Failures())

	require.Zero(t, adapter.FetchDemand(ctx, "flat").Score)
	require.Zero(t, adapter.FetchDemand(ctx, "renamed").Score)
	failures := collector.Failures()
	require.Len(t, failures, 2)
	for _, f := range failures {
		require.Equal(t, failure.KindNoData, f.Kind)
		require.Equal(t, DemandSource, f.Source)
		require.ErrorIs(t, f, ErrNoDemandData)
	}

	trends.err = errors.New("429 Too Many Requests")
	sample = adapter.FetchDemand(ctx, "remote work setup")
	require.Zero(t, sample.Score)
	require.Equal(t, failure.KindTransport, collector.Failures()[2].Kind)
}

type constRandom float64

func (c constRandom) Float64() float64 {
	return float64(c)
}
