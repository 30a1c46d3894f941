package knowledge

import (
	"context"

	chromem "github.com/philippgille/chromem-go"

	"babytrack/internal/embedder"
)

// NewEmbeddingFunc creates a chromem-go EmbeddingFunc from an Embedder.
//
// Note: chromem-go normalizes vectors itself, so no manual
// normalization is needed.
func NewEmbeddingFunc(e embedder.Embedder) chromem.EmbeddingFunc {
	return func(ctx context.Context, text string) ([]float32, error) {
		return e.Embed(ctx, text)
	}
}
