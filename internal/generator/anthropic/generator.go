// Package anthropic implements the generator interface on top of the
// Anthropic Messages API.
package anthropic

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"

	anthropic "github.com/anthropics/anthropic-sdk-go"
	anthropicopt "github.com/anthropics/anthropic-sdk-go/option"

	"babytrack/internal/generator"
)

const defaultModel = "claude-3-5-haiku-latest"

// Generator produces completions using an Anthropic model.
type Generator struct {
	client *anthropic.Client
	model  string
}

// New creates an Anthropic-backed generator. The API key falls back to
// the ANTHROPIC_API_KEY environment variable when not set via options.
func New(opts ...generator.Option) (*Generator, error) {
	options := generator.NewOptions(opts...)

	apiKey := options.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("ANTHROPIC_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("anthropic api key not set")
	}

	model := options.Model
	if model == "" {
		model = defaultModel
	}

	client := anthropic.NewClient(anthropicopt.WithAPIKey(apiKey))

	return &Generator{client: &client, model: model}, nil
}

// Generate runs a single completion. Quota and rate limit rejections
// are reported as generator.ErrQuotaExhausted.
func (g *Generator) Generate(ctx context.Context, req generator.Request) (string, error) {
	params := anthropic.MessageNewParams{
		Model:     anthropic.Model(g.model),
		MaxTokens: int64(req.MaxTokens),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Prompt)),
		},
	}
	if req.System != "" {
		params.System = []anthropic.TextBlockParam{{Text: req.System}}
	}
	if req.Temperature > 0 {
		params.Temperature = anthropic.Float(req.Temperature)
	}

	rsp, err := g.client.Messages.New(ctx, params)
	if err != nil {
		var apierr *anthropic.Error
		if errors.As(err, &apierr) {
			switch apierr.StatusCode {
			case http.StatusPaymentRequired, http.StatusTooManyRequests:
				return "", fmt.Errorf("%w: %v", generator.ErrQuotaExhausted, err)
			}
		}
		return "", fmt.Errorf("generating completion: %w", err)
	}

	var b strings.Builder
	for _, content := range rsp.Content {
		if text, ok := content.AsAny().(anthropic.TextBlock); ok {
			b.WriteString(text.Text)
		}
	}
	result := b.String()
	if result == "" {
		return "", fmt.Errorf("model %s returned no text content", g.model)
	}
	return result, nil
}
