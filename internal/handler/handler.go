package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// writeJSON writes a JSON response with the given status code.
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Log the error but don't expose it to the client
		return
	}
}

// writeError writes an error response with the given status code and message.
func writeError(w http.ResponseWriter, status int, message string, logger zerolog.Logger) {
	logger.Error().Str("error", message).Int("status", status).Msg("handler error")
	writeJSON(w, status, model.ErrorResponse{Error: message})
}

// writeServiceError maps a service error onto an HTTP response. Domain errors
// carry their stable code; stock conflicts return the structured 422 body;
// everything else is an opaque 500.
func writeServiceError(w http.ResponseWriter, err error, logger zerolog.Logger) {
	var stockErr *model.StockError
	if errors.As(err, &stockErr) {
		logger.Warn().
			Str("product_id", stockErr.ProductID.String()).
			Int("requested", stockErr.Requested).
			Int("available", stockErr.Available).
			Msg("insufficient stock")
		writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
			"error": model.ErrCodeInsufficientStock,
			"stock": stockErr,
		})
		return
	}

	var domainErr *model.DomainError
	if errors.As(err, &domainErr) {
		status := domainStatus(domainErr.Code)
		logger.Warn().Str("code", domainErr.Code).Int("status", status).Msg(domainErr.Message)
		writeJSON(w, status, model.ErrorResponse{Error: domainErr.Code, Message: domainErr.Message})
		return
	}

	logger.Error().Err(err).Msg("unhandled service error")
	writeJSON(w, http.StatusInternalServerError, model.ErrorResponse{
		Error:   model.ErrCodeInternalError,
		Message: "Internal server error",
	})
}

// domainStatus maps stable error codes onto HTTP statuses.
func domainStatus(code string) int {
	switch code {
	case model.ErrCodeProductNotFound,
		model.ErrCodeCategoryNotFound,
		model.ErrCodeCartNotFound,
		model.ErrCodeOrderNotFound,
		model.ErrCodeAddressNotFound,
		model.ErrCodeCouponNotFound,
		model.ErrCodePaymentNotFound,
		model.ErrCodeTemplateNotFound:
		return http.StatusNotFound
	case model.ErrCodeAddressInUse,
		model.ErrCodeDuplicateSKU:
		return http.StatusConflict
	case model.ErrCodePaymentFailed:
		return http.StatusPaymentRequired
	// A duplicate redemption slipping past checkout's own guard is a bug,
	// not a client error.
	case model.ErrCodeNoDefaultTemplate,
		model.ErrCodeDuplicateRedemption:
		return http.StatusInternalServerError
	case model.ErrCodeUnauthorised:
		return http.StatusUnauthorized
	case model.ErrCodeForbidden:
		return http.StatusForbidden
	case model.ErrCodeInternalError:
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}

// decodeJSON decodes a request body into dst, rejecting unknown fields.
func decodeJSON(r *http.Request, dst interface{}) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return model.NewDomainError(model.ErrCodeInvalidJSON, "Invalid JSON body")
	}
	return nil
}

// userID extracts the authenticated user from the X-User-ID header. Identity
// is asserted upstream; the API only needs a stable UUID per caller.
func userID(r *http.Request) (uuid.UUID, error) {
	raw := r.Header.Get("X-User-ID")
	if raw == "" {
		return uuid.Nil, model.NewDomainError(model.ErrCodeUnauthorised, "X-User-ID header is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.ErrCodeUnauthorised, "X-User-ID must be a UUID")
	}
	return id, nil
}

// pathUUID parses a UUID path segment.
func pathUUID(r *http.Request, name string) (uuid.UUID, error) {
	id, err := uuid.Parse(r.PathValue(name))
	if err != nil {
		return uuid.Nil, model.NewDomainError(model.ErrCodeMissingField, name+" must be a UUID")
	}
	return id, nil
}
