// Package cmd implements the babytrack CLI.
package cmd

import (
	"log/slog"

	"github.com/spf13/cobra"

	"babytrack/internal/log"
)

var debug bool

var rootCmd = &cobra.Command{
	Use:   "babytrack",
	Short: "Infant feeding tracker with guideline-grounded analysis",
	Long: `babytrack records a baby's feedings, weights and diaper changes and
analyzes them against WHO/SFP feeding guidelines retrieved from a local
vector index, producing structured reports or short conversational
answers.`,
	SilenceUsage: true,
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// newLogger builds the process logger honoring the --debug flag.
func newLogger() log.Logger {
	level := slog.LevelInfo
	if debug {
		level = slog.LevelDebug
	}
	return log.New(log.Config{Level: level, JSON: false})
}

func init() {
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")
}
