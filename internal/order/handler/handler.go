// Package handler exposes order placement over HTTP.
package handler

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	httpapi "loomline/internal/http"
	"loomline/internal/order/service"
	"loomline/pkg/requestcontext"
)

type Handler struct {
	orders *service.Orders
	logger *slog.Logger
}

func New(orders *service.Orders, logger *slog.Logger) *Handler {
	return &Handler{orders: orders, logger: logger}
}

// Register mounts the order endpoints.
func (h *Handler) Register(r chi.Router) {
	r.Post("/orders", h.createOrder)
}

type createOrderRequest struct {
	OrderKey   string  `json:"orderKey"`
	ProductKey string  `json:"productKey"`
	Quantity   float64 `json:"quantity"`
}

type createOrderResponse struct {
	OrderKey     string `json:"orderKey"`
	Confirmation string `json:"confirmation"`
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	caller, ok := requestcontext.Caller(r.Context())
	if !ok {
		w.WriteHeader(http.StatusUnauthorized)
		return
	}
	var req createOrderRequest
	if err := httpapi.DecodeBody(r, &req); err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	confirmation, err := h.orders.Create(r.Context(), caller, service.CreateParams{
		OrderKey:   req.OrderKey,
		ProductKey: req.ProductKey,
		Quantity:   req.Quantity,
	})
	if err != nil {
		httpapi.RespondError(w, r, h.logger, err)
		return
	}
	httpapi.RespondJSON(w, http.StatusCreated, createOrderResponse{
		OrderKey:     req.OrderKey,
		Confirmation: confirmation,
	})
}
