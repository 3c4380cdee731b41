// Package handler exposes the read-only query facade over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpapi "loomline/internal/http"
	"loomline/internal/query/service"
	dErrors "loomline/pkg/domain-errors"
)

type Handler struct {
	facade *service.Facade
	logger *slog.Logger
}

func New(facade *service.Facade, logger *slog.Logger) *Handler {
	return &Handler{facade: facade, logger: logger}
}

// Register mounts the query endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Get("/records", h.listByAssetType)
	r.Get("/records/{key}/history", h.historyOf)
}

func (h *Handler) listByAssetType(w http.ResponseWriter, r *http.Request) {
	assetType := r.URL.Query().Get("assetType")
	if assetType == "" {
		httpapi.RespondError(w, r, h.logger,
			dErrors.New(dErrors.CodeBadRequest, "assetType query parameter is required"))
		return
	}
	records, err := h.facade.ListByAssetType(r.Context(), assetType)
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, records)
}

func (h *Handler) historyOf(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	records, err := h.facade.HistoryOf(r.Context(), key)
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusOK, records)
}
