package app

import (
	"context"
	"path/filepath"
	"testing"

	"babytrack/internal/config"
	"babytrack/internal/log"
)

func TestSetupAndClose(t *testing.T) {
	t.Setenv("GEMINI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	dir := t.TempDir()
	cfg := &config.Config{
		Addr:            "127.0.0.1:0",
		DatabasePath:    filepath.Join(dir, "test.db"),
		DocsDir:         filepath.Join(dir, "docs"),
		IndexDir:        filepath.Join(dir, "index"),
		EmbedderModel:   config.DefaultEmbedderModel,
		RetrievalTopK:   config.DefaultRetrievalTopK,
		ModelName:       config.DefaultModel,
		ReportMaxTokens: config.DefaultReportMaxTokens,
		ChatMaxTokens:   config.DefaultChatMaxTokens,
		Temperature:     config.DefaultTemperature,
	}
	if err := cfg.Validate(); err != nil {
		t.Fatalf("fixture config invalid: %v", err)
	}

	a, err := Setup(context.Background(), cfg, log.NewNop())
	if err != nil {
		t.Fatalf("Setup: %v", err)
	}

	if a.Store == nil || a.Analyzer == nil || a.Builder == nil || a.Cache == nil {
		t.Error("Setup left a component nil")
	}

	// The database must be migrated and usable.
	if _, err := a.Store.ListBabies(context.Background()); err != nil {
		t.Errorf("store not usable after Setup: %v", err)
	}

	if err := a.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
}
