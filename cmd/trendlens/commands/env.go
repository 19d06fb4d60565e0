package commands

import (
	"context"

	"trendlens-backend/internal/app"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/pkg/serviceutil"

	"github.com/spf13/cobra"
)

// runFlags are shared by the commands that run the pipeline.
type runFlags struct {
	keywordsFile *string
	source       *string
	secondary    *string
	workers      *int
	skipEmpty    *bool
}

func addRunFlags(cmd *cobra.Command) runFlags {
	return runFlags{
		keywordsFile: cmd.Flags().String("keywords-file", "", "Reads keywords from a file, one per line."),
		source:       cmd.Flags().String("source", "", "The marketplace competition is counted on."),
		secondary:    cmd.Flags().String("secondary", "", "A marketplace to fall back to when the primary one fails."),
		workers:      cmd.Flags().Int("workers", 0, "Analyzes this many keywords at once."),
		skipEmpty:    cmd.Flags().Bool("skip-empty", false, "Drops keywords for which neither demand nor competition could be fetched."),
	}
}

func (f runFlags) apply(cfg *app.Config) {
	if *f.keywordsFile != "" {
		cfg.KeywordsFile = *f.keywordsFile
		cfg.Keywords = nil
	}
	if *f.source != "" {
		cfg.Source = *f.source
	}
	if *f.secondary != "" {
		cfg.SecondarySource = *f.secondary
	}
	if *f.workers > 0 {
		cfg.Workers = *f.workers
	}
	if *f.skipEmpty {
		cfg.SkipEmpty = true
	}
}

type environment struct {
	cfg       app.Config
	app       *app.App
	tel       telemetry.API
	telemetry telemetry.Telemetry
}

func (e environment) Close() {
	err := e.telemetry.Shutdown(context.Background())
	if err != nil {
		e.tel.ReportWarning("telemetry.shutdown", err)
	}
}

// setupEnv loads the configuration, lets `override` adjust it and builds the application.
// Every failure is fatal.
func setupEnv(ctx context.Context, override func(cfg *app.Config)) environment {
	cfg, err := app.LoadConfig(*configPath)
	if err != nil {
		serviceutil.Fatal("failed to read config", err)
	}
	if override != nil {
		override(&cfg)
	}
	if *logLevel != "" {
		cfg.Log.Level = *logLevel
	}
	err = cfg.Validate()
	if err != nil {
		serviceutil.Fatal("invalid config", err)
	}

	telemetry.InitSlog(cfg.Log.Level, cfg.Log.Json)

	t, err := telemetry.Setup(ctx, "trendlens", cfg.Telemetry)
	if err != nil {
		serviceutil.Fatal("failed to setup telemetry", err)
	}
	tel, err := telemetry.NewOtelAPI("trendlens", telemetry.SlogAPI{})
	if err != nil {
		serviceutil.Fatal("failed to create otel reporter", err)
	}

	application, err := app.New(cfg, tel)
	if err != nil {
		serviceutil.Fatal("failed to initialize", err)
	}

	return environment{
		cfg:       cfg,
		app:       application,
		tel:       tel,
		telemetry: t,
	}
}

func loadKeywords(cfg app.Config, args []string) []string {
	if len(args) > 0 {
		return args
	}
	keywords, err := cfg.LoadKeywords()
	if err != nil {
		serviceutil.Fatal("failed to load keywords", err)
	}
	return keywords
}
