package opportunity

import (
	"context"
	"fmt"

	"trendlens-backend/internal/components/assert"
	"trendlens-backend/internal/components/failure"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/components/transport"
	"trendlens-backend/internal/scrapers/stock"

	"github.com/mazen160/go-random"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/semaphore"
)

const (
	report_pipeline_run     = "pipeline.run"
	report_pipeline_keyword = "pipeline.fetch-panic"
	report_pipeline_golden  = "pipeline.golden"
)

var tracer = telemetry.Tracer("trendlens/opportunity")

// Sources is the subset of the source registry the pipeline needs.
type Sources interface {
	Lookup(id stock.SourceID) (stock.Strategy, transport.Kind, error)
	Validate(ids ...stock.SourceID) error
}

type Pipeline struct {
	demand   DemandFetcher
	sources  Sources
	reporter Reporter
	tel      telemetry.API
}

func NewPipeline(demand DemandFetcher, sources Sources, reporter Reporter, tel telemetry.API) Pipeline {
	assert.NotNil(demand)
	assert.NotNil(sources)
	assert.NotNil(reporter)
	assert.NotNil(tel)

	return Pipeline{
		demand:   demand,
		sources:  sources,
		reporter: reporter,
		tel:      telemetry.NewScopedAPI("opportunity", tel),
	}
}

// Validate checks a run configuration without running anything.
func (p Pipeline) Validate(keywords []string, cfg RunConfig) error {
	err := ValidateKeywords(keywords)
	if err != nil {
		return err
	}
	err = cfg.Thresholds.Validate()
	if err != nil {
		return fmt.Errorf("thresholds: %w", err)
	}
	if cfg.Primary == "" {
		return fmt.Errorf("%w: no primary source", stock.ErrUnknownSource)
	}
	err = p.sources.Validate(cfg.Primary, cfg.Secondary)
	if err != nil {
		return err
	}
	if cfg.Workers < 0 {
		return fmt.Errorf("workers must not be negative, got %d", cfg.Workers)
	}
	return nil
}

// Run analyzes every keyword. It only returns an error when the configuration is invalid,
// fetch failures are reported and end up as zero values in the records. Cancelling ctx
// makes the remaining keywords fail fast, they still get records.
func (p Pipeline) Run(ctx context.Context, keywords []string, cfg RunConfig) (Analysis, error) {
	err := p.Validate(keywords, cfg)
	if err != nil {
		return Analysis{}, err
	}

	runId, err := random.String(8)
	if err != nil {
		return Analysis{}, err
	}

	ctx, span := tracer.Start(ctx, "pipeline:Run")
	defer span.End()
	span.SetAttributes(
		attribute.String("run_id", runId),
		attribute.Int("keywords", len(keywords)),
		attribute.String("primary", string(cfg.Primary)),
	)

	collector := &failure.Collector{}
	ctx = failure.WithCollector(ctx, collector)
	run := run{
		pipeline: p,
		cfg:      cfg,
	}

	slots := make([]Record, len(keywords))
	if cfg.Workers <= 1 {
		for i, kw := range keywords {
			slots[i] = run.analyze(ctx, kw)
		}
	} else {
		sem := semaphore.NewWeighted(int64(cfg.Workers))
		// slots must be filled even when ctx is done, so acquiring ignores cancellation
		acquireCtx := context.WithoutCancel(ctx)
		for i, kw := range keywords {
			err := sem.Acquire(acquireCtx, 1)
			assert.True(err == nil, "acquire without cancellation cannot fail")
			go func(i int, kw string) {
				defer sem.Release(1)
				slots[i] = run.analyze(ctx, kw)
			}(i, kw)
		}
		err := sem.Acquire(acquireCtx, int64(cfg.Workers))
		assert.True(err == nil, "acquire without cancellation cannot fail")
	}

	all := []Record{}
	for _, rec := range slots {
		if cfg.SkipEmpty && rec.empty() {
			continue
		}
		rec.ID = len(all) + 1
		all = append(all, rec)
	}

	analysis := Analysis{
		RunID:      runId,
		All:        all,
		Golden:     Golden(all, cfg.Thresholds),
		Failures:   collector.Failures(),
		goldenOnly: cfg.GoldenOnly,
	}

	p.tel.ReportDebug(report_pipeline_run, runId, len(keywords), len(all), len(analysis.Failures))
	p.tel.ReportCount(report_pipeline_golden, int64(len(analysis.Golden)))

	return analysis, nil
}

type run struct {
	pipeline Pipeline
	cfg      RunConfig
}

// recoverFetch turns a panic in one fetch into a failure of that fetch, the named result of
// the fetching function keeps its zero sample.
func (r run) recoverFetch(ctx context.Context, keyword, source string) {
	p := recover()
	if p == nil {
		return
	}
	err := fmt.Errorf("panic: %v", p)
	trace.SpanFromContext(ctx).RecordError(err)
	failure.Report(ctx, r.pipeline.reporter, failure.Failure{
		Keyword: keyword,
		Source:  source,
		Kind:    failure.KindPanic,
		Err:     err,
	})
	r.pipeline.tel.ReportBroken(report_pipeline_keyword, keyword, source, err)
}

func (r run) demand(ctx context.Context, keyword string) (sample DemandSample) {
	sample = DemandSample{Keyword: keyword}
	defer r.recoverFetch(ctx, keyword, DemandSource)
	return r.pipeline.demand.FetchDemand(ctx, keyword)
}

func (r run) supply(ctx context.Context, id stock.SourceID, keyword string) (sample stock.SupplySample) {
	strategy, _, err := r.pipeline.sources.Lookup(id)
	if err != nil {
		// sources were validated before the run started
		panic(err)
	}
	sample = stock.SupplySample{Keyword: keyword, Source: id}
	defer r.recoverFetch(ctx, keyword, string(id))
	return strategy.Extract(ctx, keyword)
}

// analyze fetches demand and supply independently, a failure of one never
// discards the other.
func (r run) analyze(ctx context.Context, keyword string) Record {
	ctx, span := tracer.Start(ctx, "pipeline:analyze")
	defer span.End()
	span.SetAttributes(attribute.String("keyword", keyword))

	demand := r.demand(ctx, keyword)

	supply := r.supply(ctx, r.cfg.Primary, keyword)
	if !supply.Fetched && r.cfg.Secondary != "" && r.cfg.Secondary != r.cfg.Primary {
		secondary := r.supply(ctx, r.cfg.Secondary, keyword)
		if secondary.Fetched {
			supply = secondary
		}
	}
	if !supply.Fetched {
		supply.Count = 0
	}

	return Record{
		Keyword:          keyword,
		DemandScore:      demand.Score,
		CompetitionCount: supply.Count,
		Demand:           demand,
		Supply:           supply,
	}
}
