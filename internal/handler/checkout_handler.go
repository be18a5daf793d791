package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CheckoutHandler handles payment intent creation and confirmation.
type CheckoutHandler struct {
	service service.CheckoutService
	logger  zerolog.Logger
}

// NewCheckoutHandler creates a new checkout handler.
func NewCheckoutHandler(service service.CheckoutService, logger zerolog.Logger) *CheckoutHandler {
	return &CheckoutHandler{
		service: service,
		logger:  logger.With().Str("handler", "checkout").Logger(),
	}
}

// CreateIntent handles POST /api/checkout/intent requests.
func (h *CheckoutHandler) CreateIntent(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.CreatePaymentIntentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	resp, err := h.service.CreatePaymentIntent(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, resp)
}

// Confirm handles POST /api/checkout/confirm requests.
func (h *CheckoutHandler) Confirm(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.ConfirmPaymentRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.IntentID == "" {
		writeServiceError(w, model.NewDomainError(model.ErrCodeMissingField, "paymentIntentId is required"), h.logger)
		return
	}

	resp, err := h.service.ConfirmPayment(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
