package service

import (
	"context"
	"fmt"
	"html/template"
	"strings"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// invoiceService implements InvoiceService. Invoices are rendered once from
// the default template and stored as immutable HTML snapshots.
type invoiceService struct {
	invoiceRepo repository.InvoiceRepository
	orderRepo   repository.OrderRepository
	productRepo repository.ProductRepository
	profileRepo repository.ProfileRepository
	logger      zerolog.Logger
}

// NewInvoiceService creates a new invoice service.
func NewInvoiceService(
	invoiceRepo repository.InvoiceRepository,
	orderRepo repository.OrderRepository,
	productRepo repository.ProductRepository,
	profileRepo repository.ProfileRepository,
	logger zerolog.Logger,
) InvoiceService {
	return &invoiceService{
		invoiceRepo: invoiceRepo,
		orderRepo:   orderRepo,
		productRepo: productRepo,
		profileRepo: profileRepo,
		logger:      logger.With().Str("service", "invoice").Logger(),
	}
}

// invoiceLine is one rendered order line.
type invoiceLine struct {
	Name       string
	Quantity   int
	UnitPrice  string
	TotalPrice string
}

// invoiceContext is the data an invoice template renders against.
type invoiceContext struct {
	InvoiceNumber  string
	OrderNumber    string
	IssuedAt       string
	CustomerName   string
	CustomerEmail  string
	Lines          []invoiceLine
	Subtotal       string
	ShippingCost   string
	CouponDiscount string
	Total          string
}

// GetForOrder returns the caller's invoice for an order.
func (s *invoiceService) GetForOrder(ctx context.Context, userID, orderID uuid.UUID) (*model.Invoice, error) {
	order, _, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil || order.UserID != userID {
		return nil, model.ErrOrderNotFound
	}

	inv, err := s.invoiceRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, model.NewDomainError(model.ErrCodeOrderNotFound, "No invoice for this order")
	}
	return inv, nil
}

// CreateForOrder renders the default template against the order and stores
// the result. Idempotent: if an invoice already exists it is returned
// untouched, so retries after a partial checkout never duplicate documents.
func (s *invoiceService) CreateForOrder(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	existing, err := s.invoiceRepo.GetByOrderID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return existing, nil
	}

	order, items, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, model.ErrOrderNotFound
	}

	tpl, err := s.invoiceRepo.GetDefaultTemplate(ctx)
	if err != nil {
		return nil, err
	}
	if tpl == nil {
		return nil, model.ErrNoDefaultTemplate
	}

	html, err := s.render(ctx, tpl, order, items)
	if err != nil {
		return nil, err
	}

	inv := &model.Invoice{
		ID:            uuid.New(),
		OrderID:       order.ID,
		InvoiceNumber: "INV-" + order.OrderNumber,
		HTMLContent:   html,
	}

	created, err := s.invoiceRepo.Create(ctx, inv)
	if err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("order_id", order.ID.String()).
		Str("invoice_number", created.InvoiceNumber).
		Msg("invoice created")

	return created, nil
}

func (s *invoiceService) render(ctx context.Context, tpl *model.InvoiceTemplate, order *model.Order, items []model.OrderItem) (string, error) {
	t, err := template.New(tpl.Name).Parse(tpl.Content)
	if err != nil {
		return "", fmt.Errorf("failed to parse invoice template %q: %w", tpl.Name, err)
	}

	productIDs := make([]uuid.UUID, len(items))
	for i, item := range items {
		productIDs[i] = item.ProductID
	}
	products, err := s.productRepo.GetByIDs(ctx, productIDs)
	if err != nil {
		return "", err
	}
	names := make(map[uuid.UUID]string, len(products))
	for _, p := range products {
		names[p.ID] = p.Name
	}

	lines := make([]invoiceLine, len(items))
	for i, item := range items {
		name := names[item.ProductID]
		if name == "" {
			name = item.ProductID.String()
		}
		lines[i] = invoiceLine{
			Name:       name,
			Quantity:   item.Quantity,
			UnitPrice:  item.UnitPrice.StringFixed(2),
			TotalPrice: item.TotalPrice.StringFixed(2),
		}
	}

	data := invoiceContext{
		InvoiceNumber:  "INV-" + order.OrderNumber,
		OrderNumber:    order.OrderNumber,
		IssuedAt:       time.Now().UTC().Format("2006-01-02"),
		Lines:          lines,
		Subtotal:       order.Subtotal.StringFixed(2),
		ShippingCost:   order.ShippingCost.StringFixed(2),
		CouponDiscount: order.CouponDiscount.StringFixed(2),
		Total:          order.Total.StringFixed(2),
	}

	if user, err := s.profileRepo.GetUser(ctx, order.UserID); err == nil && user != nil {
		data.CustomerName = user.Name
		data.CustomerEmail = user.Email
	}

	var b strings.Builder
	if err := t.Execute(&b, data); err != nil {
		return "", fmt.Errorf("failed to render invoice template %q: %w", tpl.Name, err)
	}
	return b.String(), nil
}

// ListTemplates returns all templates.
func (s *invoiceService) ListTemplates(ctx context.Context) ([]model.InvoiceTemplate, error) {
	return s.invoiceRepo.ListTemplates(ctx)
}

// CreateTemplate validates and inserts a template. The content must parse so
// a broken template cannot become the default silently.
func (s *invoiceService) CreateTemplate(ctx context.Context, req *model.CreateTemplateRequest) (*model.InvoiceTemplate, error) {
	if req.Name == "" || req.Content == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Template name and content are required")
	}
	if _, err := template.New(req.Name).Parse(req.Content); err != nil {
		return nil, model.NewDomainError(model.ErrCodeInvalidJSON, fmt.Sprintf("Template does not parse: %v", err))
	}

	t := &model.InvoiceTemplate{
		ID:        uuid.New(),
		Name:      req.Name,
		Content:   req.Content,
		IsDefault: req.IsDefault,
	}
	if err := s.invoiceRepo.CreateTemplate(ctx, t); err != nil {
		return nil, err
	}
	return t, nil
}

// SetDefaultTemplate moves the default flag to the given template.
func (s *invoiceService) SetDefaultTemplate(ctx context.Context, id uuid.UUID) error {
	return s.invoiceRepo.SetDefaultTemplate(ctx, id)
}
