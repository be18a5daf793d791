package router

import (
	"net/http"

	"storefront/internal/handler"
	"storefront/internal/middleware"

	"github.com/rs/zerolog"
)

// Handlers bundles the API's HTTP handlers for route registration.
type Handlers struct {
	Product      *handler.ProductHandler
	Cart         *handler.CartHandler
	Checkout     *handler.CheckoutHandler
	Order        *handler.OrderHandler
	Coupon       *handler.CouponHandler
	Notification *handler.NotificationHandler
	Address      *handler.AddressHandler
	Invoice      *handler.InvoiceHandler
}

// New creates a new HTTP router with all routes and middleware configured.
func New(h Handlers, apiKey string, logger zerolog.Logger) http.Handler {
	mux := http.NewServeMux()

	// Health check endpoint (no authentication required)
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status": "healthy"}`))
	})

	// Catalogue
	mux.HandleFunc("GET /api/products", h.Product.List)
	mux.HandleFunc("POST /api/products", h.Product.Create)
	mux.HandleFunc("GET /api/products/{id}", h.Product.Get)
	mux.HandleFunc("PATCH /api/products/{id}", h.Product.Update)
	mux.HandleFunc("DELETE /api/products/{id}", h.Product.Delete)
	mux.HandleFunc("GET /api/products/{id}/images", h.Product.ListImages)
	mux.HandleFunc("POST /api/products/{id}/images", h.Product.AddImage)
	mux.HandleFunc("PUT /api/products/{id}/images/{imageId}/primary", h.Product.SetPrimaryImage)
	mux.HandleFunc("GET /api/categories", h.Product.ListCategories)
	mux.HandleFunc("POST /api/categories", h.Product.CreateCategory)

	// Cart
	mux.HandleFunc("GET /api/cart", h.Cart.Get)
	mux.HandleFunc("POST /api/cart/items", h.Cart.AddItem)
	mux.HandleFunc("PUT /api/cart/items/{productId}", h.Cart.UpdateItem)
	mux.HandleFunc("DELETE /api/cart/items/{productId}", h.Cart.RemoveItem)
	mux.HandleFunc("PUT /api/cart/shipping", h.Cart.SetShipping)
	mux.HandleFunc("POST /api/cart/coupon", h.Cart.ApplyCoupon)
	mux.HandleFunc("DELETE /api/cart/coupon", h.Cart.RemoveCoupon)

	// Coupons
	mux.HandleFunc("POST /api/coupons/validate", h.Coupon.Validate)

	// Checkout
	mux.HandleFunc("POST /api/checkout/intent", h.Checkout.CreateIntent)
	mux.HandleFunc("POST /api/checkout/confirm", h.Checkout.Confirm)

	// Orders and invoices
	mux.HandleFunc("GET /api/orders", h.Order.List)
	mux.HandleFunc("GET /api/orders/{id}", h.Order.Get)
	mux.HandleFunc("PUT /api/orders/{id}/status", h.Order.UpdateStatus)
	mux.HandleFunc("GET /api/orders/{id}/invoice", h.Order.GetInvoice)
	mux.HandleFunc("GET /api/invoice-templates", h.Invoice.ListTemplates)
	mux.HandleFunc("POST /api/invoice-templates", h.Invoice.CreateTemplate)
	mux.HandleFunc("PUT /api/invoice-templates/{id}/default", h.Invoice.SetDefaultTemplate)

	// Addresses and shipping
	mux.HandleFunc("GET /api/addresses", h.Address.List)
	mux.HandleFunc("POST /api/addresses", h.Address.Create)
	mux.HandleFunc("DELETE /api/addresses/{id}", h.Address.Delete)
	mux.HandleFunc("PUT /api/addresses/{id}/default", h.Address.SetDefault)
	mux.HandleFunc("GET /api/shipping-methods", h.Address.ListShippingMethods)

	// Wishlist and notifications
	mux.HandleFunc("GET /api/wishlist", h.Notification.ListWishlist)
	mux.HandleFunc("POST /api/wishlist", h.Notification.AddToWishlist)
	mux.HandleFunc("DELETE /api/wishlist/{productId}", h.Notification.RemoveFromWishlist)
	mux.HandleFunc("GET /api/notifications/preferences", h.Notification.GetPreferences)
	mux.HandleFunc("PUT /api/notifications/preferences", h.Notification.UpdatePreferences)
	mux.HandleFunc("GET /api/notifications/history", h.Notification.ListHistory)

	// Apply middleware in order: Recovery -> Logging -> CORS -> APIKeyAuth
	var root http.Handler = mux
	root = middleware.APIKeyAuth(apiKey, logger)(root)
	root = middleware.CORS(root)
	root = middleware.Logging(logger)(root)
	root = middleware.Recovery(logger)(root)

	return root
}
