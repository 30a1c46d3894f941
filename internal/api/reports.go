package api

import (
	"net/http"
	"strconv"

	"babytrack/internal/log"
	"babytrack/internal/store"
)

type reportHandler struct {
	store  *store.Store
	logger log.Logger
}

func (h *reportHandler) list(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	reports, err := h.store.ListReports(r.Context(), babyID, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(reports), h.logger)
}

func (h *reportHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	report, err := h.store.GetReport(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, report, h.logger)
}

func (h *reportHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteReport(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
