package app

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/opportunity"
	"trendlens-backend/internal/scrapers/stock"

	"github.com/stretchr/testify/require"
)

// newFakeWeb serves a trends api and a shutterstock search on the same host.
func newFakeWeb(t *testing.T, demand map[string]int, supply map[string]string) *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/trends/api/explore", func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			ComparisonItem []struct {
				Keyword string `json:"keyword"`
			} `json:"comparisonItem"`
		}
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("req")), &req))
		widgetReq, _ := json.Marshal(map[string]string{"k": req.ComparisonItem[0].Keyword})
		fmt.Fprintf(w, ")]}'\n"+`{"widgets":[{"id":"TIMESERIES","token":"t","request":%s}]}`, widgetReq)
	})
	mux.HandleFunc("/trends/api/widgetdata/multiline", func(w http.ResponseWriter, r *http.Request) {
		var req map[string]string
		require.NoError(t, json.Unmarshal([]byte(r.URL.Query().Get("req")), &req))
		score, ok := demand[req["k"]]
		if !ok {
			w.Write([]byte(`)]}',` + "\n" + `{"default":{"timelineData":[]}}`))
			return
		}
		fmt.Fprintf(w, ")]}',\n"+`{"default":{"timelineData":[{"time":"1","value":[3]},{"time":"2","value":[%d]}]}}`, score)
	})
	mux.HandleFunc("/search/", func(w http.ResponseWriter, r *http.Request) {
		kw := strings.ReplaceAll(strings.TrimPrefix(r.URL.Path, "/search/"), "+", " ")
		text, ok := supply[kw]
		if !ok {
			w.WriteHeader(http.StatusForbidden)
			return
		}
		fmt.Fprintf(w, `<html><body><span class="MuiTypography-root MuiTypography-body1 x">%s</span></body></html>`, text)
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {})

	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server
}

func testConfig(baseUrl string) Config {
	none := &SecondsRange{}
	cfg := Config{
		Keywords: []string{"remote work setup", "cyber security", "local travel"},
		Delays: DelaysConfig{
			Page:   none,
			Demand: none,
			Render: none,
		},
		Trends:                  TrendsConfig{BaseUrl: baseUrl},
		SourceBaseUrls:          map[string]string{"shutterstock": baseUrl},
		DisableCloudflareBypass: true,
	}
	return cfg.WithDefaults()
}

func TestAppEndToEnd(t *testing.T) {
	server := newFakeWeb(t,
		map[string]int{"remote work setup": 72, "cyber security": 88},
		map[string]string{"remote work setup": "1,204,512 results", "cyber security": "41,877,001 results"},
	)
	cfg := testConfig(server.URL)
	cfg.DumpDir = t.TempDir()
	rec := &telemetry.Recorder{}

	application, err := New(cfg, rec)
	require.NoError(t, err)

	keywords, err := cfg.LoadKeywords()
	require.NoError(t, err)
	runCfg := cfg.RunConfig()
	runCfg.GoldenOnly = true

	analysis, err := application.Pipeline.Run(context.Background(), keywords, runCfg)
	require.NoError(t, err)
	require.Len(t, analysis.All, 3)

	require.Equal(t, []opportunity.Record{analysis.All[0]}, analysis.Output())
	require.EqualValues(t, 1204512, analysis.All[0].CompetitionCount)
	require.Equal(t, 88, analysis.All[1].DemandScore)

	travel := analysis.All[2]
	require.Zero(t, travel.DemandScore)
	require.False(t, travel.Supply.Fetched)
	require.Len(t, analysis.Failures, 2)

	require.NotEmpty(t, rec.Find(telemetry.LevelWarning, "demand.no_data"))
	require.NotEmpty(t, rec.Find(telemetry.LevelBroken, "shutterstock.transport"))

	pages, err := os.ReadDir(filepath.Join(cfg.DumpDir, "pages"))
	require.NoError(t, err)
	require.Len(t, pages, 3)
	trends, err := os.ReadDir(filepath.Join(cfg.DumpDir, "trends"))
	require.NoError(t, err)
	// landing page once, then explore and multiline per keyword
	require.Len(t, trends, 7)
}

func TestAppRejectsUnknownSource(t *testing.T) {
	cfg := testConfig("http://localhost")
	cfg.SecondarySource = "adobe"

	_, err := New(cfg, telemetry.NoopAPI{})
	require.ErrorIs(t, err, stock.ErrUnknownSource)
	require.Contains(t, err.Error(), `did you mean "adobestock"`)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{}.WithDefaults()
	require.NoError(t, cfg.Validate())
	require.Equal(t, "shutterstock", cfg.Source)
	require.Equal(t, opportunity.DefaultThresholds, cfg.Thresholds.Thresholds())
	require.Equal(t, 360, *cfg.Trends.TzOffset)
	require.Equal(t, SecondsRange{Min: 8, Max: 12}, *cfg.Delays.Demand)
	require.Equal(t, 1, cfg.Workers)

	keywords, err := cfg.LoadKeywords()
	require.NoError(t, err)
	require.Equal(t, opportunity.DefaultKeywords, keywords)

	cfg.Delays.Page = &SecondsRange{Min: 5, Max: 1}
	require.Error(t, cfg.Validate())
}

func TestConfigExplicitZeros(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`{
		thresholds: { min_demand: 0 },
		trends: { tz_offset: 0 },
	}`), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, opportunity.Thresholds{MinDemand: 0, MaxCompetition: 5_000_000}, cfg.RunConfig().Thresholds)
	require.Equal(t, 0, *cfg.Trends.TzOffset)
}

func TestLoadConfigLayers(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, ConfigFile)
	require.NoError(t, os.WriteFile(path, []byte(`{
		keywords_file: "keywords.txt",
		thresholds: { min_demand: 50 },
		delays: { page: { min: 0, max: 0 } },
	}`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "trendlens.local.json5"), []byte(`{
		workers: 3,
		source: "depositphotos",
	}`), 0644))
	keywordsPath := filepath.Join(dir, "keywords.txt")
	require.NoError(t, os.WriteFile(keywordsPath, []byte("# niche\nlocal travel\n3d character\n"), 0644))

	cfg, err := LoadConfig(path)
	require.NoError(t, err)
	require.Equal(t, 3, cfg.Workers)
	require.Equal(t, "depositphotos", cfg.Source)
	require.Equal(t, opportunity.Thresholds{MinDemand: 50, MaxCompetition: 5_000_000}, cfg.RunConfig().Thresholds)
	require.True(t, cfg.Delays.Page.Range().IsZero())
	require.Equal(t, SecondsRange{Min: 4, Max: 6}, *cfg.Delays.Render)

	cfg.KeywordsFile = keywordsPath
	keywords, err := cfg.LoadKeywords()
	require.NoError(t, err)
	require.Equal(t, []string{"local travel", "3d character"}, keywords)
}
