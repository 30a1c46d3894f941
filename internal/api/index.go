package api

import (
	"context"
	"net/http"

	"babytrack/internal/knowledge"
	"babytrack/internal/log"
)

// IndexBuilder rebuilds the guideline index.
type IndexBuilder interface {
	Build(ctx context.Context, force bool) (*knowledge.Index, error)
}

// indexHandler serves the administrative rebuild endpoint.
type indexHandler struct {
	builder IndexBuilder
	cache   *knowledge.Cache
	logger  log.Logger
}

func (h *indexHandler) rebuild(w http.ResponseWriter, r *http.Request) {
	if h.builder == nil {
		writeError(w, http.StatusServiceUnavailable, "index_unavailable", "no embedding backend configured", h.logger)
		return
	}

	index, err := h.builder.Build(r.Context(), true)
	if err != nil {
		writeDomainError(w, err, h.logger)
		return
	}
	if h.cache != nil {
		h.cache.Put(index)
	}

	h.logger.Info("guideline index rebuilt", "passages", index.Count())
	writeJSON(w, http.StatusOK, map[string]any{
		"status":   "rebuilt",
		"passages": index.Count(),
	}, h.logger)
}
