package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"babytrack/internal/config"
)

// Version information (injected at build time via ldflags).
var (
	Version   = "development"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version and configuration information",
	RunE: func(_ *cobra.Command, _ []string) error {
		return runVersion()
	},
}

func runVersion() error {
	fmt.Printf("babytrack %s\n", Version)
	fmt.Printf("Build Time: %s\n", BuildTime)
	fmt.Printf("Git Commit: %s\n", GitCommit)
	fmt.Println()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	fmt.Println("Configuration:")
	fmt.Printf("  Model: %s\n", cfg.ModelName)
	fmt.Printf("  Embedder: %s\n", cfg.EmbedderModel)
	fmt.Printf("  Temperature: %.2f\n", cfg.Temperature)
	fmt.Printf("  Database: %s\n", cfg.DatabasePath)
	fmt.Printf("  Docs dir: %s\n", cfg.DocsDir)
	fmt.Printf("  Index dir: %s\n", cfg.IndexDir)

	for _, key := range []string{"ANTHROPIC_API_KEY", "GEMINI_API_KEY"} {
		if v := os.Getenv(key); v != "" {
			fmt.Printf("  %s: configured\n", key)
		} else {
			fmt.Printf("  %s: not set\n", key)
		}
	}
	return nil
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
