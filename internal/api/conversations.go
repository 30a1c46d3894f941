package api

import (
	"net/http"
	"strconv"

	"babytrack/internal/log"
	"babytrack/internal/store"
)

type conversationHandler struct {
	store  *store.Store
	logger log.Logger
}

type conversationRequest struct {
	Title    string          `json:"title,omitempty"`
	Messages []store.Message `json:"messages"`
}

func (h *conversationHandler) create(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}
	if _, err := h.store.GetBaby(r.Context(), babyID); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}

	conversation, err := h.store.SaveConversation(r.Context(), babyID, req.Title, req.Messages)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusCreated, conversation, h.logger)
}

func (h *conversationHandler) list(w http.ResponseWriter, r *http.Request) {
	babyID, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))

	conversations, err := h.store.ListConversations(r.Context(), babyID, limit)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, emptyIfNil(conversations), h.logger)
}

func (h *conversationHandler) get(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	conversation, err := h.store.GetConversation(r.Context(), id)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, conversation, h.logger)
}

func (h *conversationHandler) update(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	var req conversationRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", err.Error(), h.logger)
		return
	}

	conversation, err := h.store.UpdateConversation(r.Context(), id, req.Title, req.Messages)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	writeJSON(w, http.StatusOK, conversation, h.logger)
}

func (h *conversationHandler) delete(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(r)
	if !ok {
		writeError(w, http.StatusBadRequest, "invalid_id", "id must be a positive integer", h.logger)
		return
	}
	if err := h.store.DeleteConversation(r.Context(), id); err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
