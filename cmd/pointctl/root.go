package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/pointdash/pointdash/internal/logging"
)

var rootCmd = &cobra.Command{
	Use:   "pointctl",
	Short: "pointctl inspects point datasets and replays graph gestures",
	Long: `pointctl works offline against the same engine the dashboard uses: it reports
how a dataset will be scaled, replays recorded gesture scripts, and imports
datasets into a pointdash database.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("log-level", "warn", "Log level (debug, info, warn, error)")
}

func loggerFor(cmd *cobra.Command) *slog.Logger {
	level, _ := cmd.Flags().GetString("log-level")
	return logging.New(logging.ParseLevel(level))
}
