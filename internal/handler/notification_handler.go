package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// NotificationHandler handles wishlist, preference and history requests.
type NotificationHandler struct {
	service service.NotificationService
	logger  zerolog.Logger
}

// NewNotificationHandler creates a new notification handler.
func NewNotificationHandler(service service.NotificationService, logger zerolog.Logger) *NotificationHandler {
	return &NotificationHandler{
		service: service,
		logger:  logger.With().Str("handler", "notification").Logger(),
	}
}

// GetPreferences handles GET /api/notifications/preferences requests.
func (h *NotificationHandler) GetPreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	prefs, err := h.service.GetPreferences(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// UpdatePreferences handles PUT /api/notifications/preferences requests.
func (h *NotificationHandler) UpdatePreferences(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.UpdatePreferencesRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	prefs, err := h.service.UpdatePreferences(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, prefs)
}

// ListWishlist handles GET /api/wishlist requests.
func (h *NotificationHandler) ListWishlist(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	items, err := h.service.ListWishlist(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, items)
}

// AddToWishlist handles POST /api/wishlist requests.
func (h *NotificationHandler) AddToWishlist(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.AddWishlistRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	if err := h.service.AddToWishlist(r.Context(), uid, req.ProductID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// RemoveFromWishlist handles DELETE /api/wishlist/{productId} requests.
func (h *NotificationHandler) RemoveFromWishlist(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.RemoveFromWishlist(r.Context(), uid, productID); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListHistory handles GET /api/notifications/history requests.
func (h *NotificationHandler) ListHistory(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	limit, offset, ok := pagination(w, r, h.logger)
	if !ok {
		return
	}

	history, err := h.service.ListHistory(r.Context(), uid, limit, offset)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, history)
}
