// Package generator defines the text generation client used to produce
// feeding analyses and chat replies.
package generator

import (
	"context"
	"errors"
)

// ErrQuotaExhausted reports that the provider rejected the request for
// billing or rate reasons. Callers surface it as a retry-later condition
// rather than a hard failure.
var ErrQuotaExhausted = errors.New("generation quota exhausted")

// Request is a single completion request.
type Request struct {
	System      string
	Prompt      string
	MaxTokens   int
	Temperature float64
}

// Generator produces a completion for a request.
type Generator interface {
	Generate(ctx context.Context, req Request) (string, error)
}

// Option configures a Generator implementation.
type Option func(*Options)

// Options holds common generator configuration.
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

// WithModel sets the generation model identifier.
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
