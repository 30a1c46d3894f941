// Package embedder defines the embedding client used to vectorize
// guideline text and retrieval queries.
package embedder

import "context"

// Embedder computes a vector embedding for a piece of text.
// Implementations live in subpackages (e.g. google).
type Embedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Option configures an Embedder implementation.
type Option func(*Options)

// Options holds common embedder configuration.
type Options struct {
	APIKey string
	Model  string
}

// WithAPIKey sets the provider API key.
func WithAPIKey(apiKey string) Option {
	return func(o *Options) {
		o.APIKey = apiKey
	}
}

// WithModel sets the embedding model identifier.
func WithModel(model string) Option {
	return func(o *Options) {
		o.Model = model
	}
}

// NewOptions applies the given options to a zero Options value.
func NewOptions(opts ...Option) Options {
	var options Options
	for _, opt := range opts {
		opt(&options)
	}
	return options
}
