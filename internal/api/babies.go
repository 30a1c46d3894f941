package api

import (
	"net/http"
	"strconv"
	"time"

	"babytrack/internal/log"
	"babytrack/internal/store"
)

type babyHandler struct {
	store  *store.Store
	logger log.Logger
}

type babyRequest struct {
	Name             string `json:"name"`
	BirthDate        string `json:"birth_date"`
	BirthWeightGrams int    `json:"birth_weight_grams"`
}

// pathID parses the {id} path segment.
func pathID(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	return id, err == nil && id > 0
}

func (h *babyHandler) create(w http.ResponseWriter, r *http.Request) {
	var req babyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusUnprocessableEntity, "invalid_name", "name is required", h.logger)
		return
	}
	birthDate, err := time.Parse("2006-01-02", req.BirthDate)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid_birth_date", "birth_date must be YYYY-MM-DD", h.logger)
		return
	}
	if req.BirthWeightGrams <= 0 {
		writeError(w, http.StatusUnprocessableEntity, "invalid_birth_weight", "birth_weight_grams must be positive", h.logger)
		return
	}

	baby, err := h.store.CreateBaby(r.Context(), req.Name, birthDate, req.BirthWeightGrams)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, baby, h.logger)
}

func (h *babyHandler) list(w http.ResponseWriter, r *http.Request) {
	babies, err := h.store.ListBabies(r.Context())
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if babies == nil {
		babies = []store.Baby{}
	}
	writeJSON(w, http.StatusOK, babies, h.logger)
}

func (h *babyHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	baby, err := h.store.GetBaby(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, baby, h.logger)
}

func (h *babyHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req babyRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	var birthDate time.Time
	if req.BirthDate != "" {
		var err error
		if birthDate, err = time.Parse("2006-01-02", req.BirthDate); err != nil {
			writeError(w, http.StatusUnprocessableEntity, "invalid_birth_date", "birth_date must be YYYY-MM-DD", h.logger)
			return
		}
	}

	baby, err := h.store.UpdateBaby(r.Context(), id, req.Name, birthDate, req.BirthWeightGrams)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, baby, h.logger)
}

func (h *babyHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteBaby(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
