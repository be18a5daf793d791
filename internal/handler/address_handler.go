package handler

import (
	"net/http"

	"storefront/internal/model"
	"storefront/internal/service"

	"github.com/rs/zerolog"
)

// AddressHandler handles address book and shipping reference requests.
type AddressHandler struct {
	service service.ProfileService
	logger  zerolog.Logger
}

// NewAddressHandler creates a new address handler.
func NewAddressHandler(service service.ProfileService, logger zerolog.Logger) *AddressHandler {
	return &AddressHandler{
		service: service,
		logger:  logger.With().Str("handler", "address").Logger(),
	}
}

// List handles GET /api/addresses requests.
func (h *AddressHandler) List(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	addresses, err := h.service.ListAddresses(r.Context(), uid)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, addresses)
}

// Create handles POST /api/addresses requests.
func (h *AddressHandler) Create(w http.ResponseWriter, r *http.Request) {
	uid, err := userID(r)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	var req model.CreateAddressRequest
	if err := decodeJSON(r, &req); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	address, err := h.service.CreateAddress(r.Context(), uid, &req)
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusCreated, address)
}

// Delete handles DELETE /api/addresses/{id} requests.
func (h *AddressHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.DeleteAddress(r.Context(), uid, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// SetDefault handles PUT /api/addresses/{id}/default requests.
func (h *AddressHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
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

	if err := h.service.SetDefaultAddress(r.Context(), uid, id); err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListShippingMethods handles GET /api/shipping-methods requests.
func (h *AddressHandler) ListShippingMethods(w http.ResponseWriter, r *http.Request) {
	methods, err := h.service.ListShippingMethods(r.Context())
	if err != nil {
		writeServiceError(w, err, h.logger)
		return
	}

	writeJSON(w, http.StatusOK, methods)
}
