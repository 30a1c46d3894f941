package api

import (
	"context"
	"net/http"
	"time"

	"babytrack/internal/analysis"
	"babytrack/internal/log"
	"babytrack/internal/store"
)

// Analyzer runs one analysis request.
type Analyzer interface {
	Analyze(ctx context.Context, req analysis.Request) (*analysis.Result, error)
}

type analysisHandler struct {
	store    *store.Store
	analyzer Analyzer
	logger   log.Logger
	now      func() time.Time
}

type analyzeRequest struct {
	Period   string          `json:"period,omitempty"` // day (default) or week
	Start    string          `json:"start,omitempty"`
	End      string          `json:"end,omitempty"`
	Question string          `json:"question,omitempty"`
	History  []store.Message `json:"history,omitempty"`
	Save     *bool           `json:"save,omitempty"`
}

type analyzeResponse struct {
	Text        string         `json:"text"`
	Sources     []store.Source `json:"sources"`
	IsPartial   bool           `json:"is_partial"`
	WindowLabel string         `json:"window_label"`
	Mode        string         `json:"mode"`
	ReportID    int64          `json:"report_id,omitempty"`
}

// resolveWindow maps the request onto a concrete window and label.
// Explicit RFC3339 bounds win over the day/week period shortcuts.
func resolveWindow(req analyzeRequest, now time.Time) (analysis.Window, string, string, error) {
	if req.Start != "" || req.End != "" {
		start, err := time.Parse(time.RFC3339, req.Start)
		if err != nil {
			return analysis.Window{}, "", "", errInvalidBound("start", err)
		}
		end, err := time.Parse(time.RFC3339, req.End)
		if err != nil {
			return analysis.Window{}, "", "", errInvalidBound("end", err)
		}
		win := analysis.Window{Start: start, End: end}
		label := start.Format("01/02/2006 15:04") + " to " + end.Format("01/02/2006 15:04")
		return win, "custom", label, nil
	}

	if req.Period == "week" {
		win := analysis.Window{Start: now.Add(-7 * 24 * time.Hour), End: now}
		return win, "week", "week ending " + now.Format("01/02/2006"), nil
	}

	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	win := analysis.Window{Start: midnight, End: now}
	return win, "day", "day of " + now.Format("01/02/2006"), nil
}

type boundError struct {
	field string
	err   error
}

func (e boundError) Error() string { return e.field + " must be RFC3339: " + e.err.Error() }

func errInvalidBound(field string, err error) error { return boundError{field: field, err: err} }

func (h *analysisHandler) analyze(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}

	req := analyzeRequest{}
	if r.Body != nil && r.ContentLength != 0 {
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
			return
		}
	}

	baby, err := h.store.GetBaby(r.Context(), babyID)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	now := h.now()
	win, period, label, err := resolveWindow(req, now)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_window", err.Error(), h.logger)
		return
	}
	if err := win.Validate(); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	events, baselineFeedings, err := h.loadEvents(r.Context(), babyID, win)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	result, err := h.analyzer.Analyze(r.Context(), analysis.Request{
		Baby:             baby,
		Window:           win,
		Now:              now,
		Events:           events,
		BaselineFeedings: baselineFeedings,
		Question:         req.Question,
		History:          req.History,
	})
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	resp := analyzeResponse{
		Text:        result.Text,
		Sources:     emptyIfNil(result.Sources),
		IsPartial:   result.IsPartial,
		WindowLabel: label,
		Mode:        result.Mode.String(),
	}

	// Reports are persisted by default; conversational answers are not.
	save := result.Mode == analysis.ModeReport
	if req.Save != nil {
		save = *req.Save && save
	}
	if save {
		report, err := h.store.SaveReport(r.Context(), babyID, period, label,
			win.Start, win.End, result.IsPartial, result.Text, result.Sources)
		if err != nil {
			// The analysis itself succeeded. Log and return it unsaved.
			h.logger.Error("saving report", "baby_id", babyID, "error", err)
		} else {
			resp.ReportID = report.ID
		}
	}

	writeJSON(w, http.StatusOK, resp, h.logger)
}

// loadEvents reads all events in the window plus the baseline feedings.
func (h *analysisHandler) loadEvents(ctx context.Context, babyID int64, win analysis.Window) (analysis.Events, []store.Feeding, error) {
	feedings, err := h.store.FeedingsByRange(ctx, babyID, win.Start, win.End)
	if err != nil {
		return analysis.Events{}, nil, err
	}
	weights, err := h.store.WeightsByRange(ctx, babyID, win.Start, win.End)
	if err != nil {
		return analysis.Events{}, nil, err
	}
	diapers, err := h.store.DiapersByRange(ctx, babyID, win.Start, win.End)
	if err != nil {
		return analysis.Events{}, nil, err
	}

	baseline := win.Baseline()
	baselineFeedings, err := h.store.FeedingsByRange(ctx, babyID, baseline.Start, baseline.End)
	if err != nil {
		return analysis.Events{}, nil, err
	}

	return analysis.Events{Feedings: feedings, Weights: weights, Diapers: diapers}, baselineFeedings, nil
}
