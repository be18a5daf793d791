package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// OrderHandler handles order and invoice read requests.
type OrderHandler struct {
	orders   service.OrderService
	invoices service.InvoiceService
	logger   zerolog.Logger
}

// NewOrderHandler creates a new order handler.
func NewOrderHandler(orders service.OrderService, invoices service.InvoiceService, logger zerolog.Logger) *OrderHandler {
	return &OrderHandler{
		orders:   orders,
		invoices: invoices,
		logger:   logger.With().Str("handler", "order").Logger(),
	}
}

// List handles GET /api/orders requests with pagination.
func (h *OrderHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	orders, err := h.orders.List(r.Context(), uid, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, orders)
}

// Get handles GET /api/orders/{id} requests.
func (h *OrderHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	order, err := h.orders.GetByID(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, order)
}

// UpdateStatus handles PUT /api/orders/{id}/status requests.
func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req struct {
		Status model.OrderStatus `json:"status"`
	}
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.orders.UpdateStatus(r.Context(), id, req.Status); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// GetInvoice handles GET /api/orders/{id}/invoice requests.
func (h *OrderHandler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	id, err := pathUUID(r, "id")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	invoice, err := h.invoices.GetForOrder(r.Context(), uid, id)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, invoice)
}
