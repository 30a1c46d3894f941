// Package analysis turns a baby's logged care events plus retrieved
// guideline passages into a grounded request for the reasoning model.
// It owns the temporal aggregation, the report-vs-conversational mode
// decision, the prompt assembly and the orchestration of a single
// analysis request.
package analysis

import (
	"errors"

	"babytrack/internal/store"
)

var (
	// ErrInvalidWindow reports a window whose end is not strictly
	// after its start.
	ErrInvalidWindow = errors.New("analysis window end must be after start")

	// ErrNoData reports that there is nothing to analyze: no events in
	// the window and no conversational question to answer.
	ErrNoData = errors.New("no events recorded in the analysis window")
)

// Mode is the requested output shape.
type Mode int

const (
	// ModeReport produces a structured four-section report.
	ModeReport Mode = iota
	// ModeConversational produces a short direct answer.
	ModeConversational
)

func (m Mode) String() string {
	if m == ModeConversational {
		return "conversational"
	}
	return "report"
}

// Events are the care events logged inside the analysis window.
type Events struct {
	Feedings []store.Feeding
	Weights  []store.Weight
	Diapers  []store.Diaper
}

// Empty reports whether no events of any kind were logged.
func (e Events) Empty() bool {
	return len(e.Feedings) == 0 && len(e.Weights) == 0 && len(e.Diapers) == 0
}
