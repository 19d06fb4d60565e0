package service

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/opportunity"

	"connectrpc.com/connect"
	"github.com/stretchr/testify/require"
)

type fakeAnalyzer struct {
	calls [][]string
}

func (f *fakeAnalyzer) Run(_ context.Context, keywords []string, cfg opportunity.RunConfig) (opportunity.Analysis, error) {
	f.calls = append(f.calls, keywords)
	err := opportunity.ValidateKeywords(keywords)
	if err != nil {
		return opportunity.Analysis{}, err
	}

	records := []opportunity.Record{}
	for i, kw := range keywords {
		records = append(records, opportunity.Record{
			ID:               i + 1,
			Keyword:          kw,
			DemandScore:      70 + i,
			CompetitionCount: int64(1000 * (i + 1)),
		})
	}
	// golden_only is honored through Output in the real pipeline, mimic it here
	if cfg.GoldenOnly {
		records = records[:1]
	}
	return opportunity.Analysis{RunID: "run12345", All: records, Golden: records}, nil
}

func newTestServer(t *testing.T) (*httptest.Server, *fakeAnalyzer) {
	analyzer := &fakeAnalyzer{}
	svc := NewTrendService(analyzer, []string{"local travel", "cyber security"}, opportunity.DefaultRunConfig(), telemetry.NoopAPI{})
	server := httptest.NewServer(svc.Handler())
	t.Cleanup(server.Close)
	return server, analyzer
}

func TestStatus(t *testing.T) {
	server, _ := newTestServer(t)

	res, err := http.Get(server.URL + "/")
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)

	var body map[string]string
	require.NoError(t, json.NewDecoder(res.Body).Decode(&body))
	require.Equal(t, map[string]string{"status": "TrendLens API is running!"}, body)

	res, err = http.Get(server.URL + "/nope")
	require.NoError(t, err)
	res.Body.Close()
	require.Equal(t, http.StatusNotFound, res.StatusCode)
}

func TestRestAnalyze(t *testing.T) {
	server, analyzer := newTestServer(t)

	req, err := http.NewRequest(http.MethodGet, server.URL+AnalyzeRestPath, nil)
	require.NoError(t, err)
	req.Header.Set("origin", "http://localhost:3000")

	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.Equal(t, "*", res.Header.Get("access-control-allow-origin"))

	var records []map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&records))
	require.Len(t, records, 1)
	require.Equal(t, "local travel", records[0]["keyword"])
	require.EqualValues(t, 70, records[0]["demand_score"])
	require.Equal(t, [][]string{{"local travel", "cyber security"}}, analyzer.calls)
}

func TestConnectAnalyze(t *testing.T) {
	server, analyzer := newTestServer(t)
	client := NewClient(server.Client(), server.URL)
	ctx := context.Background()

	res, err := client.CallUnary(ctx, connect.NewRequest(&AnalyzeRequest{
		Keywords: []string{"3d character", "AI generated background", "local travel"},
	}))
	require.NoError(t, err)
	require.Equal(t, "run12345", res.Msg.RunID)
	require.Len(t, res.Msg.Records, 3)
	require.Equal(t, "AI generated background", res.Msg.Records[1].Keyword)
	require.EqualValues(t, 3000, res.Msg.Records[2].CompetitionCount)

	res, err = client.CallUnary(ctx, connect.NewRequest(&AnalyzeRequest{GoldenOnly: true}))
	require.NoError(t, err)
	require.Len(t, res.Msg.Records, 1)
	require.Equal(t, []string{"local travel", "cyber security"}, analyzer.calls[1])

	_, err = client.CallUnary(ctx, connect.NewRequest(&AnalyzeRequest{Keywords: []string{"ok", " "}}))
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))

	tooMany := make([]string, maxKeywordsPerRequest+1)
	for i := range tooMany {
		tooMany[i] = fmt.Sprintf("kw %d", i)
	}
	_, err = client.CallUnary(ctx, connect.NewRequest(&AnalyzeRequest{Keywords: tooMany}))
	require.Equal(t, connect.CodeInvalidArgument, connect.CodeOf(err))
}
