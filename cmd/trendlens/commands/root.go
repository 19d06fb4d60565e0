package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "trendlens",
	Short: "trendlens finds keywords with high search demand and little stock media competition.",
}

var (
	configPath *string
	logLevel   *string
)

func init() {
	configPath = rootCmd.PersistentFlags().String("config", "", "Path to trendlens.json5, by default it is searched for from the working directory up.")
	logLevel = rootCmd.PersistentFlags().String("log-level", "", "Overrides the configured log level (debug, info, warn, error).")
}

func ExecuteContext(ctx context.Context) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
