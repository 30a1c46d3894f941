package api

import (
	"fmt"
	"net/http"
	"time"

	"babytrack/internal/log"
	"babytrack/internal/store"
)

// eventHandler serves the feeding, weight and diaper sub-resources of a
// baby.
type eventHandler struct {
	store  *store.Store
	logger log.Logger
	now    func() time.Time
}

// parseRange reads start/end query parameters (RFC3339). Missing bounds
// default to the last 24 hours.
func parseRange(r *http.Request, now time.Time) (time.Time, time.Time, error) {
	start, end := now.Add(-24*time.Hour), now

	if s := r.URL.Query().Get("start"); s != "" {
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return start, end, fmt.Errorf("start must be RFC3339: %w", err)
		}
		start = t
	}
	if e := r.URL.Query().Get("end"); e != "" {
		t, err := time.Parse(time.RFC3339, e)
		if err != nil {
			return start, end, fmt.Errorf("end must be RFC3339: %w", err)
		}
		end = t
	}
	if !end.After(start) {
		return start, end, fmt.Errorf("end must be after start")
	}
	return start, end, nil
}

type feedingRequest struct {
	FedAt      string `json:"fed_at"`
	QuantityML int    `json:"quantity_ml"`
	Type       string `json:"feeding_type"`
	Notes      string `json:"notes,omitempty"`
}

func (h *eventHandler) addFeeding(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req feedingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}
	fedAt, err := time.Parse(time.RFC3339, req.FedAt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_fed_at", "fed_at must be RFC3339", h.logger)
		return
	}
	typ := store.FeedingType(req.Type)
	if !store.ValidFeedingType(typ) {
		writeError(w, http.StatusUnprocessableEntity, "invalid_feeding_type", "feeding_type must be bottle or breastfeeding", h.logger)
		return
	}
	if req.QuantityML < 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_quantity", "quantity_ml must not be negative", h.logger)
		return
	}
	if _, err := h.store.GetBaby(r.Context(), babyID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	feeding, err := h.store.AddFeeding(r.Context(), babyID, fedAt, req.QuantityML, typ, req.Notes)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, feeding, h.logger)
}

func (h *eventHandler) listFeedings(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}

	// ?date=YYYY-MM-DD lists a single calendar day.
	if d := r.URL.Query().Get("date"); d != "" {
		day, err := time.Parse("2006-01-02", d)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_date", "date must be YYYY-MM-DD", h.logger)
			return
		}
		feedings, err := h.store.FeedingsByDay(r.Context(), babyID, day)
		if err != nil {
			writeDomainError(w, err, h.logger)
			return
		}
		writeJSON(w, http.StatusOK, emptyIfNil(feedings), h.logger)
		return
	}

	start, end, err := parseRange(r, h.now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_range", err.Error(), h.logger)
		return
	}
	feedings, err := h.store.FeedingsByRange(r.Context(), babyID, start, end)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(feedings), h.logger)
}

func (h *eventHandler) deleteFeeding(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteFeeding(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type weightRequest struct {
	MeasuredAt string `json:"measured_at"`
	Grams      int    `json:"weight_g"`
	Notes      string `json:"notes,omitempty"`
}

func (h *eventHandler) addWeight(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req weightRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}
	measuredAt, err := time.Parse(time.RFC3339, req.MeasuredAt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_measured_at", "measured_at must be RFC3339", h.logger)
		return
	}
	if req.Grams <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_weight", "weight_g must be positive", h.logger)
		return
	}
	if _, err := h.store.GetBaby(r.Context(), babyID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	weight, err := h.store.AddWeight(r.Context(), babyID, measuredAt, req.Grams, req.Notes)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, weight, h.logger)
}

func (h *eventHandler) listWeights(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	start, end, err := parseRange(r, h.now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_range", err.Error(), h.logger)
		return
	}
	weights, err := h.store.WeightsByRange(r.Context(), babyID, start, end)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(weights), h.logger)
}

func (h *eventHandler) deleteWeight(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteWeight(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type diaperRequest struct {
	ChangedAt string `json:"changed_at"`
	HasPee    bool   `json:"has_pee"`
	HasPoop   bool   `json:"has_poop"`
	Notes     string `json:"notes,omitempty"`
}

func (h *eventHandler) addDiaper(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req diaperRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}
	changedAt, err := time.Parse(time.RFC3339, req.ChangedAt)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_changed_at", "changed_at must be RFC3339", h.logger)
		return
	}
	if _, err := h.store.GetBaby(r.Context(), babyID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	diaper, err := h.store.AddDiaper(r.Context(), babyID, changedAt, req.HasPee, req.HasPoop, req.Notes)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, diaper, h.logger)
}

func (h *eventHandler) listDiapers(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	start, end, err := parseRange(r, h.now())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_range", err.Error(), h.logger)
		return
	}
	diapers, err := h.store.DiapersByRange(r.Context(), babyID, start, end)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(diapers), h.logger)
}

func (h *eventHandler) deleteDiaper(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteDiaper(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// emptyIfNil keeps list responses as [] instead of null.
func emptyIfNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
