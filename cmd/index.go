package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"babytrack/internal/chunker"
	"babytrack/internal/config"
	"babytrack/internal/embedder"
	"babytrack/internal/embedder/google"
	"babytrack/internal/knowledge"
)

var forceRebuild bool

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Build the guideline vector index",
	Long: `index chunks and embeds the guideline documents under docs_dir and
persists the vector index under index_dir. Without --force an existing
index is reused.`,
	RunE: func(_ *cobra.Command, _ []string) error {
		return runIndex(forceRebuild)
	},
}

func runIndex(force bool) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if os.Getenv("GEMINI_API_KEY") == "" {
		return fmt.Errorf("%w: GEMINI_API_KEY not set", config.ErrMissingAPIKey)
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := newLogger()

	emb, err := google.New(ctx, embedder.WithModel(cfg.EmbedderModel))
	if err != nil {
		return fmt.Errorf("creating embedder: %w", err)
	}
	defer func() { _ = emb.Close() }()

	builder := knowledge.NewBuilder(cfg.DocsDir, cfg.IndexDir,
		knowledge.NewEmbeddingFunc(emb), chunker.DefaultOptions(), logger)

	index, err := builder.Build(ctx, force)
	if err != nil {
		return fmt.Errorf("building index: %w", err)
	}

	fmt.Printf("Index ready: %d passages in %s\n", index.Count(), cfg.IndexDir)
	return nil
}

func init() {
	indexCmd.Flags().BoolVar(&forceRebuild, "force", false, "rebuild even if an index exists")
	rootCmd.AddCommand(indexCmd)
}
