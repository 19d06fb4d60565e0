package commands

import (
	"os"

	"trendlens-backend/internal/app"
	"trendlens-backend/pkg/serviceutil"

	"github.com/dustin/go-humanize"
	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/spf13/cobra"
)

var probeSource *string

func init() {
	probeSource = probeCmd.Flags().String("source", "", "The marketplace to probe.")
	rootCmd.AddCommand(probeCmd)
}

var probeCmd = &cobra.Command{
	Use:   "probe <keyword>...",
	Short: "Prints the raw demand score and competition count of keywords, without classifying them.",
	Args:  cobra.MinimumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setupEnv(ctx, func(cfg *app.Config) {
			if *probeSource != "" {
				cfg.Source = *probeSource
			}
			cfg.Workers = 1
		})
		defer env.Close()

		runCfg := env.cfg.RunConfig()
		runCfg.SkipEmpty = false
		analysis, err := env.app.Pipeline.Run(ctx, args, runCfg)
		if err != nil {
			serviceutil.Fatal("invalid probe", err)
		}

		t := table.NewWriter()
		t.SetOutputMirror(os.Stdout)
		t.AppendHeader(table.Row{"Keyword", "Demand", "Source", "Fetched", "Competition"})
		for _, rec := range analysis.All {
			t.AppendRow(table.Row{
				rec.Keyword,
				rec.DemandScore,
				rec.Supply.Source,
				rec.Supply.Fetched,
				humanize.Comma(rec.CompetitionCount),
			})
		}
		t.SetStyle(table.StyleRounded)
		t.Render()

		renderFailures(analysis)
	},
}
