// Package handler exposes the asset lifecycle engine over HTTP. It delegates
// to the service without embedding business logic so transport concerns stay
// isolated.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"loomline/internal/asset/service"
	httpapi "loomline/internal/http"
	"loomline/pkg/requestcontext"
)

type Handler struct {
	engine *service.Engine
	logger *slog.Logger
}

func New(engine *service.Engine, logger *slog.Logger) *Handler {
	return &Handler{engine: engine, logger: logger}
}

// Register mounts the asset endpoints on the shared /assets subrouter.
func (h *Handler) Register(r chi.Router) {
	r.Post("/raw-materials", h.createRawMaterial)
	r.Post("/finished-goods", h.createFinishedGood)
}

type createRawMaterialRequest struct {
	Key        string  `json:"key"`
	Type       string  `json:"type"`
	Quantity   float64 `json:"quantity"`
	Quality    string  `json:"quality"`
	SupplyDate string  `json:"supplyDate"`
	Origin     string  `json:"origin"`
	OwnerName  string  `json:"ownerName"`
}

func (h *Handler) createRawMaterial(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req createRawMaterialRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	err := h.engine.CreateRawMaterial(r.Context(), caller, service.CreateRawMaterialParams{
		Key:        req.Key,
		Type:       req.Type,
		Quantity:   req.Quantity,
		Quality:    req.Quality,
		SupplyDate: req.SupplyDate,
		Origin:     req.Origin,
		OwnerName:  req.OwnerName,
	})
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, map[string]string{"key": req.Key})
}

type createFinishedGoodRequest struct {
	Key            string   `json:"key"`
	Type           string   `json:"type"`
	Quantity       float64  `json:"quantity"`
	RawMaterialIDs []string `json:"rawMaterialIds"`
}

func (h *Handler) createFinishedGood(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req createFinishedGoodRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	err := h.engine.CreateFinishedGood(r.Context(), caller, service.CreateFinishedGoodParams{
		Key:            req.Key,
		Type:           req.Type,
		Quantity:       req.Quantity,
		RawMaterialIDs: req.RawMaterialIDs,
	})
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, map[string]string{"key": req.Key})
}
