package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// CouponHandler handles coupon validation requests.
type CouponHandler struct {
	service service.CouponService
	logger  zerolog.Logger
}

// NewCouponHandler creates a new coupon handler.
func NewCouponHandler(service service.CouponService, logger zerolog.Logger) *CouponHandler {
	return &CouponHandler{
		service: service,
		logger:  logger.With().Str("handler", "coupon").Logger(),
	}
}

// Validate handles POST /api/coupons/validate requests. An ineligible coupon
// is a 200 with valid=false and the reason; only infrastructure failures are
// error statuses.
func (h *CouponHandler) Validate(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.ValidateCouponRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}
	if req.Code == "" {
		writeServiceError(w, model.NewDomainError(model.ErrCodeMissingField, "code is required"), h.logger)
		return
	}

	resp, err := h.service.Validate(r.Context(), uid, req.Code)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, resp)
}
