package telemetry

import (
	"bytes"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScopedAPI(t *testing.T) {
	rec := &Recorder{}
	scoped := NewScopedAPI("stock", NewScopedAPI("shutterstock", rec))

	scoped.ReportBroken("strategy.extract", "cyber security")
	scoped.ReportCount("pipeline.golden", 3)

	records := rec.Records()
	require.Len(t, records, 2)
	require.Equal(t, "shutterstock: stock: strategy.extract", records[0].ID)
	require.Len(t, rec.Find(LevelBroken, "strategy.extract"), 1)
	require.EqualValues(t, 3, rec.Find(LevelCount, "pipeline.golden")[0].Count)
}

func TestSlogAPI(t *testing.T) {
	previous := slog.Default()
	defer slog.SetDefault(previous)

	buff := &bytes.Buffer{}
	InitSlogWriter(buff, "warn", true)

	api := SlogAPI{}
	api.ReportDebug("dropped")
	api.ReportWarning("demand.no_data", "local travel", errors.New("empty series"))

	out := buff.String()
	require.NotContains(t, out, "dropped")
	require.Contains(t, out, `"id":"demand.no_data"`)
	require.Contains(t, out, `"params.0":"local travel"`)
	require.Contains(t, out, `"err":"empty series"`)
}

func TestParseLevel(t *testing.T) {
	require.Equal(t, slog.LevelDebug, parseLevel(" DEBUG"))
	require.Equal(t, slog.LevelWarn, parseLevel("warning"))
	require.Equal(t, slog.LevelInfo, parseLevel(""))
}
