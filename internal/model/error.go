package model

import (
	"fmt"

	"github.com/google/uuid"
)

// ErrorResponse represents a standardised error response.
type ErrorResponse struct {
	Error         string `json:"error"`
	Message       string `json:"message,omitempty"`
	CorrelationID string `json:"correlationId,omitempty"`
}

// Standard error codes for API responses
const (
	ErrCodeInvalidJSON         = "INVALID_JSON"
	ErrCodeMissingField        = "MISSING_FIELD"
	ErrCodeProductNotFound     = "PRODUCT_NOT_FOUND"
	ErrCodeCategoryNotFound    = "CATEGORY_NOT_FOUND"
	ErrCodeCartNotFound        = "CART_NOT_FOUND"
	ErrCodeCartEmpty           = "CART_EMPTY"
	ErrCodeOrderNotFound       = "ORDER_NOT_FOUND"
	ErrCodeAddressNotFound     = "ADDRESS_NOT_FOUND"
	ErrCodeAddressInUse        = "ADDRESS_IN_USE"
	ErrCodeShippingRequired    = "SHIPPING_REQUIRED"
	ErrCodeInvalidQuantity     = "INVALID_QUANTITY"
	ErrCodeInvalidPrice        = "INVALID_PRICE"
	ErrCodeInsufficientStock   = "INSUFFICIENT_STOCK"
	ErrCodeCouponNotFound      = "COUPON_NOT_FOUND"
	ErrCodeCouponNotYetValid   = "COUPON_NOT_YET_VALID"
	ErrCodeCouponExpired       = "COUPON_EXPIRED"
	ErrCodeCouponUsageLimit    = "COUPON_USAGE_LIMIT"
	ErrCodeCouponUserLimit     = "COUPON_USER_LIMIT"
	ErrCodePaymentFailed       = "PAYMENT_FAILED"
	ErrCodePaymentNotFound     = "PAYMENT_NOT_FOUND"
	ErrCodeNoDefaultTemplate   = "NO_DEFAULT_TEMPLATE"
	ErrCodeTemplateNotFound    = "TEMPLATE_NOT_FOUND"
	ErrCodeDuplicateSKU        = "DUPLICATE_SKU"
	ErrCodeDuplicateRedemption = "DUPLICATE_REDEMPTION"
	ErrCodeUnauthorised        = "UNAUTHORIZED"
	ErrCodeForbidden           = "FORBIDDEN"
	ErrCodeInternalError       = "INTERNAL_ERROR"
)

// DomainError carries a stable code alongside a human-readable message so
// handlers can map business failures onto HTTP statuses.
type DomainError struct {
	Code    string
	Message string
}

func (e *DomainError) Error() string {
	return e.Message
}

// NewDomainError creates a new domain error
func NewDomainError(code, message string) *DomainError {
	return &DomainError{
		Code:    code,
		Message: message,
	}
}

// Common domain errors
var (
	ErrProductNotFound      = NewDomainError(ErrCodeProductNotFound, "Product not found")
	ErrCategoryNotFound     = NewDomainError(ErrCodeCategoryNotFound, "Category not found")
	ErrCartNotFound         = NewDomainError(ErrCodeCartNotFound, "Cart not found")
	ErrCartEmpty            = NewDomainError(ErrCodeCartEmpty, "Cart has no items")
	ErrOrderNotFound        = NewDomainError(ErrCodeOrderNotFound, "Order not found")
	ErrAddressNotFound      = NewDomainError(ErrCodeAddressNotFound, "Address not found")
	ErrAddressInUse         = NewDomainError(ErrCodeAddressInUse, "Address is referenced by existing orders")
	ErrShippingRequired     = NewDomainError(ErrCodeShippingRequired, "Shipping address and method are required")
	ErrInvalidQuantity      = NewDomainError(ErrCodeInvalidQuantity, "Quantity must be greater than zero")
	ErrInvalidPrice         = NewDomainError(ErrCodeInvalidPrice, "Sale price must be positive and must not exceed the original price")
	ErrCouponNotFound       = NewDomainError(ErrCodeCouponNotFound, "Coupon not found")
	ErrCouponNotYetValid    = NewDomainError(ErrCodeCouponNotYetValid, "Coupon is not valid yet")
	ErrCouponExpired        = NewDomainError(ErrCodeCouponExpired, "Coupon has expired")
	ErrCouponUsageLimit     = NewDomainError(ErrCodeCouponUsageLimit, "Coupon usage limit exceeded")
	ErrCouponUserLimit      = NewDomainError(ErrCodeCouponUserLimit, "Per-user coupon usage limit exceeded")
	ErrPaymentFailed        = NewDomainError(ErrCodePaymentFailed, "Payment processing failed")
	ErrPaymentNotFound      = NewDomainError(ErrCodePaymentNotFound, "Payment not found")
	ErrNoDefaultTemplate    = NewDomainError(ErrCodeNoDefaultTemplate, "No default invoice template configured")
	ErrTemplateNotFound     = NewDomainError(ErrCodeTemplateNotFound, "Invoice template not found")
	ErrDuplicateSKU         = NewDomainError(ErrCodeDuplicateSKU, "A product with this SKU already exists")
	ErrDuplicateRedemption  = NewDomainError(ErrCodeDuplicateRedemption, "Coupon already redeemed for this order")
	ErrOrderNumberCollision = NewDomainError(ErrCodeInternalError, "Order number collision")
)

// StockError reports an insufficient-stock conflict. It is a distinct error
// class carrying the offending product, the requested quantity and the stock
// actually available so clients can present actionable recovery.
type StockError struct {
	ProductID   uuid.UUID `json:"productId"`
	ProductName string    `json:"productName"`
	Requested   int       `json:"requestedQuantity"`
	Available   int       `json:"availableStock"`
}

func (e *StockError) Error() string {
	return fmt.Sprintf(
		"insufficient stock for product %s: requested %d, available %d",
		e.ProductName, e.Requested, e.Available,
	)
}
