package commands

import (
	"trendlens-backend/internal/app"
	"trendlens-backend/internal/components/telemetry"
	"trendlens-backend/internal/service"
	"trendlens-backend/pkg/serviceutil"

	"github.com/spf13/cobra"
)

var (
	serveFlags runFlags
	servePort  *int
)

func init() {
	serveFlags = addRunFlags(serveCmd)
	servePort = serveCmd.Flags().Int("port", 0, "Overrides the configured port.")
	rootCmd.AddCommand(serveCmd)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serves the analysis over http.",
	Run: func(cmd *cobra.Command, args []string) {
		ctx := cmd.Context()
		env := setupEnv(ctx, func(cfg *app.Config) {
			serveFlags.apply(cfg)
			if *servePort > 0 {
				cfg.Server.Port = *servePort
			}
		})
		defer env.Close()

		telemetry.InstrumentPerfStats(ctx, env.tel)

		keywords := loadKeywords(env.cfg, nil)
		svc := service.NewTrendService(env.app.Pipeline, keywords, env.cfg.RunConfig(), env.tel)

		err := serviceutil.StartHttpServer(ctx, env.cfg.Server.Host, env.cfg.Server.Port, svc.Handler())
		if err != nil {
			serviceutil.Fatal("http server stopped", err)
		}
	},
}
