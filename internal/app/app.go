// Package app wires the trend client, the marketplaces and the pipeline together from a
// Config.
package app

import (
	"path/filepath"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/chrono"
	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/throttle"
	"trendlens-backend/internal/components/transport"
	"trendlens-backend/internal/components/useragent"
	"trendlens-backend/internal/opportunity"
	"trendlens-backend/internal/scrapers/gtrends"
	"trendlens-backend/internal/scrapers/stock"
	"trendlens-backend/pkg/restyutil"
)

type App struct {
	Config   Config
	Registry *stock.Registry
	Pipeline opportunity.Pipeline
}

type options struct {
	trends  gtrends.API
	fetcher transport.Fetcher
	browser transport.Browser
	clock   chrono.TimeAPI
	rand    throttle.RandomAPI
}

type Option func(o *options)

func WithTrends(api gtrends.API) Option {
	return func(o *options) { o.trends = api }
}

func WithFetcher(f transport.Fetcher) Option {
	return func(o *options) { o.fetcher = f }
}

func WithBrowser(b transport.Browser) Option {
	return func(o *options) { o.browser = b }
}

func WithClock(c chrono.TimeAPI) Option {
	return func(o *options) { o.clock = c }
}

func WithRandom(r throttle.RandomAPI) Option {
	return func(o *options) { o.rand = r }
}

// dumpOutputs returns nil outputs when dumping is disabled.
func dumpOutputs(dir string) (trends, pages restyutil.Output, err error) {
	if dir == "" {
		return nil, nil, nil
	}
	trendsOut, err := restyutil.NewFilesystemOutput(filepath.Join(dir, "trends"))
	if err != nil {
		return nil, nil, err
	}
	pagesOut, err := restyutil.NewFilesystemOutput(filepath.Join(dir, "pages"))
	if err != nil {
		return nil, nil, err
	}
	return trendsOut, pagesOut, nil
}

func userAgents(cfg Config) useragent.Provider {
	if cfg.RandomUserAgents {
		return useragent.NewRandom()
	}
	return useragent.NewPool(cfg.UserAgents)
}

// New builds the pipeline described by cfg. Collaborators not given as options are created
// from cfg.
func New(cfg Config, tel telemetry.API, opts ...Option) (*App, error) {
	assert.NotNil(tel)
	cfg = cfg.WithDefaults()

	o := options{clock: chrono.StandardImpl{}}
	for _, opt := range opts {
		opt(&o)
	}

	throttleOpts := []throttle.Option{}
	if o.rand != nil {
		throttleOpts = append(throttleOpts, throttle.WithRandom(o.rand))
	}

	gate := throttle.NewGate(seconds(cfg.MinIntervalSeconds))
	agents := userAgents(cfg)
	bypass := !cfg.DisableCloudflareBypass
	reporter := failure.NewTelemetryReporter(telemetry.NewScopedAPI("failures", tel))
	trendsDump, pagesDump, err := dumpOutputs(cfg.DumpDir)
	if err != nil {
		return nil, err
	}

	if o.trends == nil {
		o.trends = gtrends.NewClient(gtrends.Options{
			BaseUrl:          cfg.Trends.BaseUrl,
			Language:         cfg.Trends.Language,
			TzOffset:         *cfg.Trends.TzOffset,
			Timeout:          seconds(cfg.Timeouts.DemandSeconds),
			CloudflareBypass: bypass,
			Gate:             gate,
			UserAgents:       agents,
			Dump:             trendsDump,
		}, tel)
	}
	if o.fetcher == nil {
		o.fetcher = transport.NewHTMLFetcher(transport.FetcherOptions{
			Timeout:          seconds(cfg.Timeouts.FetchSeconds),
			CloudflareBypass: bypass,
			Gate:             gate,
			Dump:             pagesDump,
		}, tel)
	}
	if o.browser == nil {
		o.browser = transport.NewRodBrowser(transport.BrowserOptions{
			Timeout:   seconds(cfg.Timeouts.BrowserSeconds),
			Headless:  !cfg.Browser.Headful,
			Bin:       cfg.Browser.Bin,
			NoSandbox: cfg.Browser.NoSandbox,
			Gate:      gate,
		}, tel)
	}

	baseUrls := stock.BaseUrls{}
	for id, u := range cfg.SourceBaseUrls {
		baseUrls[stock.SourceID(id)] = u
	}
	registry, err := stock.NewRegistry(stock.DefaultSources(baseUrls), stock.Deps{
		Fetcher:     o.fetcher,
		Browser:     o.browser,
		UserAgents:  agents,
		PageDelay:   throttle.New(cfg.Delays.Page.Range(), throttleOpts...),
		RenderDelay: throttle.New(cfg.Delays.Render.Range(), throttleOpts...),
		Reporter:    reporter,
	}, tel)
	if err != nil {
		return nil, err
	}
	err = registry.Validate(stock.SourceID(cfg.Source), stock.SourceID(cfg.SecondarySource))
	if err != nil {
		return nil, err
	}

	demand := opportunity.NewDemandAdapter(
		o.trends,
		throttle.New(cfg.Delays.Demand.Range(), throttleOpts...),
		seconds(cfg.Timeouts.DemandSeconds),
		reporter,
		o.clock,
		tel,
	)

	return &App{
		Config:   cfg,
		Registry: registry,
		Pipeline: opportunity.NewPipeline(demand, registry, reporter, tel),
	}, nil
}
