// Package google implements the embedder interface on top of the
// Gemini embedding API.
package google

import (
	"context"
	"fmt"
	"os"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"

	"babytrack/internal/embedder"
)

const defaultModel = "text-embedding-004"

// Embedder embeds text using a Gemini embedding model.
type Embedder struct {
	client *genai.Client
	model  string
}

// New creates a Gemini-backed embedder. The API key falls back to the
// GEMINI_API_KEY environment variable when not set via options.
func New(ctx context.Context, opts ...embedder.Option) (*Embedder, error) {
	options := embedder.NewOptions(opts...)

	apiKey := options.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("GEMINI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("gemini api key not set")
	}

	model := options.Model
	if model == "" {
		model = defaultModel
	}

	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("creating gemini client: %w", err)
	}

	return &Embedder{client: client, model: model}, nil
}

// Embed returns the embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	res, err := e.client.EmbeddingModel(e.model).EmbedContent(ctx, genai.Text(text))
	if err != nil {
		return nil, fmt.Errorf("embedding content: %w", err)
	}
	if res.Embedding == nil || len(res.Embedding.Values) == 0 {
		return nil, fmt.Errorf("embedding model %s returned no values", e.model)
	}
	return res.Embedding.Values, nil
}

// Close releases the underlying client.
func (e *Embedder) Close() error {
	return e.client.Close()
}
