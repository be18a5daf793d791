package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CartHandler handles cart HTTP requests. Every operation is scoped to the
// caller's single active cart.
type CartHandler struct {
	service service.CartService
	logger  zerolog.Logger
}

// NewCartHandler creates a new cart handler.
func NewCartHandler(service service.CartService, logger zerolog.Logger) *CartHandler {
	return &CartHandler{
		service: service,
		logger:  logger.With().Str("handler", "cart").Logger(),
	}
}

// Get handles GET /api/cart requests.
func (h *CartHandler) Get(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.GetCart(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// AddItem handles POST /api/cart/items requests.
func (h *CartHandler) AddItem(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.AddItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.AddItem(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// UpdateItem handles PUT /api/cart/items/{productId} requests.
func (h *CartHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.UpdateItemRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.UpdateItem(r.Context(), uid, productID, req.Quantity)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RemoveItem handles DELETE /api/cart/items/{productId} requests.
func (h *CartHandler) RemoveItem(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	productID, err := pathUUID(r, "productId")
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.RemoveItem(r.Context(), uid, productID)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// SetShipping handles PUT /api/cart/shipping requests.
func (h *CartHandler) SetShipping(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.SetShippingRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.SetShipping(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// ApplyCoupon handles POST /api/cart/coupon requests.
func (h *CartHandler) ApplyCoupon(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.ApplyCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.ApplyCoupon(r.Context(), uid, req.Code)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}

// RemoveCoupon handles DELETE /api/cart/coupon requests.
func (h *CartHandler) RemoveCoupon(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	view, err := h.service.RemoveCoupon(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, view)
}
