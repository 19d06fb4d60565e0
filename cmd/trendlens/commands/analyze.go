package commands

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"trendlens-backend/internal/app"
	"trendlens-backend/internal/opportunity"
	"trendlens-backend/pkg/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var (
	analyzeFlags runFlags
	analyzeAll   *bool
	analyzeJson  *bool
)

func init() {
	analyzeFlags = addRunFlags(analyzeCmd)
	analyzeAll = analyzeCmd.Flags().Bool("all", false, "Prints every keyword instead of only the golden ones.")
	analyzeJson = analyzeCmd.Flags().Bool("json", false, "Prints records as json.")
	rootCmd.AddCommand(analyzeCmd)
}

var analyzeCmd = &cobra.Command{
	Use:   "analyze [keyword...]",
	Short: "Scores keywords and prints the golden ones.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setupEnv(ctx, func(cfg *app.Config) {
			analyzeFlags.apply(cfg)
		})
		defer env.Close()

		keywords := loadKeywords(env.cfg, args)
		runCfg := env.cfg.RunConfig()
		runCfg.GoldenOnly = !*analyzeAll

		slog.Info("analyzing keywords", "count", len(keywords), "source", runCfg.Primary, "workers", runCfg.Workers)
		t1 := time.Now()
		analysis, err := env.app.Pipeline.Run(ctx, keywords, runCfg)
		if err != nil {
			serviceutil.Fatal("invalid run", err)
		}
		slog.Info("analysis done", "run_id", analysis.RunID, "seconds", time.Since(t1).Seconds())

		records := analysis.Output()
		if *analyzeJson {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			err := enc.Encode(records)
			if err != nil {
				serviceutil.Fatal("failed to encode records", err)
			}
			return
		}

		renderRecords(os.Stdout, records, runCfg.Thresholds)
		renderFailures(analysis)
	},
}

func renderRecords(w io.Writer, records []opportunity.Record, thresholds opportunity.Thresholds) {
	if len(records) == 0 {
		fmt.Fprintln(w, "no keywords to show.")
		return
	}

	t := table.NewWriter()
	t.SetOutputMirror(w)
	t.AppendHeader(table.Row{"#", "Keyword", "Demand", "Competition", "Golden"})
	for _, rec := range records {
		competition := humanize.Comma(rec.CompetitionCount)
		if !rec.Supply.Fetched {
			competition = "-"
		}
		golden := ""
		if opportunity.IsGolden(rec, thresholds) {
			golden = "yes"
		}
		t.AppendRow(table.Row{rec.ID, rec.Keyword, rec.DemandScore, competition, golden})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}

func renderFailures(analysis opportunity.Analysis) {
	if len(analysis.Failures) == 0 {
		return
	}

	type key struct {
		source string
		kind   string
	}
	counts := map[key]int{}
	for _, f := range analysis.Failures {
		counts[key{source: f.Source, kind: string(f.Kind)}]++
	}
	keys := make([]key, 0, len(counts))
	for k := range counts {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].source != keys[j].source {
			return keys[i].source < keys[j].source
		}
		return keys[i].kind < keys[j].kind
	})

	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	t.SetTitle("Failures")
	t.AppendHeader(table.Row{"Source", "Kind", "Count"})
	for _, k := range keys {
		t.AppendRow(table.Row{k.source, k.kind, counts[k]})
	}
	t.SetStyle(table.StyleRounded)
	t.Render()
}
