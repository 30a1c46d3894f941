package analysis

import (
	"context"
	"fmt"
	"strings"
	"time"

	"babytrack/internal/generator"
	"babytrack/internal/knowledge"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

// Retriever fetches guideline passages for a query.
type Retriever interface {
	Retrieve(ctx context.Context, query string) ([]knowledge.Passage, error)
}

// Request is one analysis request, fully resolved by the caller: the
// events were already loaded for the window and its baseline.
type Request struct {
	Baby             *store.Baby
	Window           Window
	Now              time.Time
	Events           Events
	BaselineFeedings []store.Feeding
	Question         string
	History          []store.Message
}

// Result is the outcome of an analysis. Sources come from the
// retrieval step, never from the model output. Persistence is the
// caller's responsibility.
type Result struct {
	Text      string
	Sources   []store.Source
	Mode      Mode
	IsPartial bool
}

// Options tunes the orchestrator.
type Options struct {
	ReportMaxTokens int
	ChatMaxTokens   int
	Temperature     float64
}

// Analyzer sequences one analysis: temporal aggregation, retrieval,
// mode classification, prompt assembly and the reasoning call.
type Analyzer struct {
	retriever Retriever
	generator generator.Generator
	opts      Options
	logger    log.Logger
}

// NewAnalyzer creates an Analyzer. Zero option fields fall back to
// sensible budgets.
func NewAnalyzer(retriever Retriever, gen generator.Generator, opts Options, logger log.Logger) *Analyzer {
	if opts.ReportMaxTokens <= 0 {
		opts.ReportMaxTokens = 1024
	}
	if opts.ChatMaxTokens <= 0 {
		opts.ChatMaxTokens = 512
	}
	if opts.Temperature <= 0 {
		opts.Temperature = 0.3
	}
	return &Analyzer{retriever: retriever, generator: gen, opts: opts, logger: logger}
}

// Analyze runs the full pipeline for one request. Retrieval failures
// degrade to an ungrounded prompt; quota errors from the reasoning
// service propagate as generator.ErrQuotaExhausted.
func (a *Analyzer) Analyze(ctx context.Context, req Request) (*Result, error) {
	if err := req.Window.Validate(); err != nil {
		return nil, err
	}

	mode := ClassifyMode(req.Question)
	if req.Events.Empty() && mode == ModeReport {
		return nil, fmt.Errorf("%w: baby %d, window %s to %s", ErrNoData, req.Baby.ID,
			req.Window.Start.Format(time.RFC3339), req.Window.End.Format(time.RFC3339))
	}

	now := req.Now
	if now.IsZero() {
		now = time.Now()
	}

	tc := BuildContext(req.Window, now, req.BaselineFeedings, req.Baby.BirthDate)
	outcome := a.retrieve(ctx, req, mode, now)

	prompt := Assemble(PromptInput{
		Baby:      req.Baby,
		Events:    req.Events,
		Context:   tc,
		Retrieval: outcome,
		Mode:      mode,
		Question:  req.Question,
		History:   req.History,
		Now:       now,
	})

	maxTokens := a.opts.ReportMaxTokens
	if mode == ModeConversational {
		maxTokens = a.opts.ChatMaxTokens
	}

	text, err := a.generator.Generate(ctx, generator.Request{
		System:      systemPrompt,
		Prompt:      prompt,
		MaxTokens:   maxTokens,
		Temperature: a.opts.Temperature,
	})
	if err != nil {
		return nil, err
	}

	a.logger.Info("analysis generated",
		"baby_id", req.Baby.ID,
		"mode", mode.String(),
		"grounded", outcome.IsGrounded(),
		"passages", len(outcome.Passages))

	return &Result{
		Text:      text,
		Sources:   citations(outcome.Passages),
		Mode:      mode,
		IsPartial: tc.IsPartial,
	}, nil
}

// retrieve builds the retrieval query and fetches passages. Any
// failure is downgraded to a degraded outcome.
func (a *Analyzer) retrieve(ctx context.Context, req Request, mode Mode, now time.Time) RetrievalOutcome {
	query := a.buildQuery(req, mode, now)

	passages, err := a.retriever.Retrieve(ctx, query)
	if err != nil {
		a.logger.Warn("guideline retrieval failed, proceeding without context",
			"baby_id", req.Baby.ID, "error", err)
		return Degraded("retrieval failed")
	}
	if len(passages) == 0 {
		return Degraded("index is empty")
	}
	return Grounded(passages)
}

// buildQuery derives the retrieval query from the baby's age and the
// feeding types in the window, plus the raw question in conversational
// mode.
func (a *Analyzer) buildQuery(req Request, mode Mode, now time.Time) string {
	hasBottle := false
	for _, f := range req.Events.Feedings {
		if f.Type == store.FeedingBottle {
			hasBottle = true
			break
		}
	}

	parts := []string{
		"infant feeding volume and frequency recommendations",
		AgeBucket(req.Baby.BirthDate, now),
	}
	if hasBottle || len(req.Events.Feedings) == 0 {
		parts = append(parts, "bottle formula feeding")
	} else {
		parts = append(parts, "breastfeeding")
	}
	if mode == ModeConversational {
		parts = append(parts, req.Question)
	}
	return strings.Join(parts, " ")
}

func citations(passages []knowledge.Passage) []store.Source {
	sources := make([]store.Source, 0, len(passages))
	for _, p := range passages {
		score := p.Score
		sources = append(sources, store.Source{Source: p.Source, Score: &score})
	}
	return sources
}
