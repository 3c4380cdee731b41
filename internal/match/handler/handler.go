// Package handler exposes the matching engine over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpapi "loomline/internal/http"
	"loomline/internal/match/service"
)

type Handler struct {
	matcher *service.Matcher
	logger  *slog.Logger
}

func New(matcher *service.Matcher, logger *slog.Logger) *Handler {
	return &Handler{matcher: matcher, logger: logger}
}

// Register mounts the matching endpoints on the shared /assets subrouter.
func (h *Handler) Register(r chi.Router) {
	r.Get("/{productKey}/candidate-orders", h.candidateOrders)
	r.Post("/{productKey}/match/{orderKey}", h.match)
}

func (h *Handler) candidateOrders(w http.ResponseWriter, r *http.Request) {
	productKey := chi.URLParam(r, "productKey")
	candidates, err := h.matcher.CandidateOrders(r.Context(), productKey)
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, candidates)
}

func (h *Handler) match(w http.ResponseWriter, r *http.Request) {
	productKey := chi.URLParam(r, "productKey")
	orderKey := chi.URLParam(r, "orderKey")
	result, err := h.matcher.Match(r.Context(), productKey, orderKey)
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, result)
}
