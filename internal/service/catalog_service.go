package service

import (
	"context"
	"fmt"
	"time"

	"storefront/internal/model"
	"storefront/internal/repository"
	"storefront/internal/storage"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// priceDropThreshold is the smallest effective-price decrease that counts as
// a price drop event.
var priceDropThreshold = decimal.NewFromFloat(0.01)

// catalogService implements CatalogService.
type catalogService struct {
	productRepo repository.ProductRepository
	signer      storage.ImageURLSigner
	logger      zerolog.Logger
}

// NewCatalogService creates a new catalogue service.
func NewCatalogService(productRepo repository.ProductRepository, signer storage.ImageURLSigner, logger zerolog.Logger) CatalogService {
	return &catalogService{
		productRepo: productRepo,
		signer:      signer,
		logger:      logger.With().Str("service", "catalog").Logger(),
	}
}

// ListProducts retrieves visible products with pagination.
func (s *catalogService) ListProducts(ctx context.Context, limit, offset int) ([]model.Product, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.productRepo.List(ctx, limit, offset)
}

// GetProduct retrieves a single product by ID.
func (s *catalogService) GetProduct(ctx context.Context, id uuid.UUID) (*model.Product, error) {
	p, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}
	return p, nil
}

// CreateProduct validates and inserts a new product.
func (s *catalogService) CreateProduct(ctx context.Context, req *model.CreateProductRequest) (*model.Product, error) {
	if req.Name == "" || req.SKU == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Name and SKU are required")
	}
	if err := validatePricing(req.Price, req.OriginalPrice); err != nil {
		return nil, err
	}
	if req.StockQuantity < 0 {
		return nil, model.ErrInvalidQuantity
	}
	if err := validateSaleWindow(req.SaleStart, req.SaleEnd); err != nil {
		return nil, err
	}

	p := &model.Product{
		ID:            uuid.New(),
		Name:          req.Name,
		Slug:          slugify(req.Name),
		SKU:           req.SKU,
		Description:   req.Description,
		Price:         req.Price,
		OriginalPrice: req.OriginalPrice,
		StockQuantity: req.StockQuantity,
		CategoryID:    req.CategoryID,
		IsVisible:     req.IsVisible,
		SaleStart:     req.SaleStart,
		SaleEnd:       req.SaleEnd,
	}

	if err := s.productRepo.Create(ctx, p); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("product_id", p.ID.String()).
		Str("sku", p.SKU).
		Msg("product created")

	return p, nil
}

// UpdateProduct applies a partial update and computes the domain events the
// change produced. Events carry a fresh ID each; that ID is the idempotency
// key for every notification the event triggers downstream.
func (s *catalogService) UpdateProduct(ctx context.Context, id uuid.UUID, req *model.UpdateProductRequest) (*model.Product, []model.ProductEvent, error) {
	before, err := s.productRepo.GetByID(ctx, id)
	if err != nil {
		return nil, nil, err
	}
	if before == nil {
		return nil, nil, model.ErrProductNotFound
	}

	after := *before
	if req.Name != nil {
		after.Name = *req.Name
	}
	if req.Description != nil {
		after.Description = *req.Description
	}
	if req.Price != nil {
		after.Price = *req.Price
	}
	if req.OriginalPrice != nil {
		after.OriginalPrice = *req.OriginalPrice
	}
	if req.StockQuantity != nil {
		after.StockQuantity = *req.StockQuantity
	}
	if req.IsVisible != nil {
		after.IsVisible = *req.IsVisible
	}
	if req.SaleStart != nil {
		after.SaleStart = req.SaleStart
	}
	if req.SaleEnd != nil {
		after.SaleEnd = req.SaleEnd
	}

	if err := validatePricing(after.Price, after.OriginalPrice); err != nil {
		return nil, nil, err
	}
	if after.StockQuantity < 0 {
		return nil, nil, model.ErrInvalidQuantity
	}
	if err := validateSaleWindow(after.SaleStart, after.SaleEnd); err != nil {
		return nil, nil, err
	}

	if err := s.productRepo.Update(ctx, &after); err != nil {
		return nil, nil, err
	}

	events := productEvents(before, &after, time.Now().UTC())
	for _, e := range events {
		s.logger.Info().
			Str("product_id", id.String()).
			Str("event_id", e.ID.String()).
			Str("type", string(e.Type)).
			Msg("product event emitted")
	}

	return &after, events, nil
}

// productEvents compares the product before and after an update. A stock
// event fires when a visible product goes from none to some; a price event
// fires when the list price is cut below its previous value and sits at
// least a cent under the original price.
func productEvents(before, after *model.Product, now time.Time) []model.ProductEvent {
	var events []model.ProductEvent

	if after.IsVisible && before.StockQuantity == 0 && after.StockQuantity > 0 {
		events = append(events, model.ProductEvent{
			ID:            uuid.New(),
			Type:          model.ProductEventStockAvailable,
			ProductID:     after.ID,
			ProductName:   after.Name,
			PreviousPrice: before.CurrentPrice(now),
			CurrentPrice:  after.CurrentPrice(now),
			OccurredAt:    now,
		})
	}

	if after.IsVisible &&
		after.Price.LessThan(before.Price) &&
		after.OriginalPrice.Sub(after.Price).GreaterThanOrEqual(priceDropThreshold) {
		events = append(events, model.ProductEvent{
			ID:            uuid.New(),
			Type:          model.ProductEventPriceDrop,
			ProductID:     after.ID,
			ProductName:   after.Name,
			PreviousPrice: before.Price,
			CurrentPrice:  after.Price,
			OccurredAt:    now,
		})
	}

	return events
}

// DeleteProduct removes a product. Products referenced by order items cannot
// be deleted without corrupting order history, so those are hidden instead.
func (s *catalogService) DeleteProduct(ctx context.Context, id uuid.UUID) (*model.DeleteProductResult, error) {
	err := s.productRepo.Delete(ctx, id)
	if err == nil {
		s.logger.Info().Str("product_id", id.String()).Msg("product deleted")
		return &model.DeleteProductResult{Deleted: true}, nil
	}
	if !repository.IsForeignKeyViolation(err) {
		return nil, err
	}

	if err := s.productRepo.SetVisibility(ctx, id, false); err != nil {
		return nil, fmt.Errorf("failed to deactivate product: %w", err)
	}

	s.logger.Info().Str("product_id", id.String()).Msg("product referenced by orders, deactivated instead")
	return &model.DeleteProductResult{Deactivated: true}, nil
}

// ListCategories returns all categories.
func (s *catalogService) ListCategories(ctx context.Context) ([]model.Category, error) {
	return s.productRepo.ListCategories(ctx)
}

// CreateCategory inserts a category.
func (s *catalogService) CreateCategory(ctx context.Context, name, slug string) (*model.Category, error) {
	if name == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Category name is required")
	}
	if slug == "" {
		slug = slugify(name)
	}

	c := &model.Category{ID: uuid.New(), Name: name, Slug: slug}
	if err := s.productRepo.CreateCategory(ctx, c); err != nil {
		return nil, err
	}
	return c, nil
}

// ListImages returns a product's images with signed URLs.
func (s *catalogService) ListImages(ctx context.Context, productID uuid.UUID) ([]model.ProductImage, error) {
	images, err := s.productRepo.ListImages(ctx, productID)
	if err != nil {
		return nil, err
	}

	for i := range images {
		url, err := s.signer.SignURL(ctx, images[i].ObjectKey)
		if err != nil {
			s.logger.Warn().Err(err).
				Str("image_id", images[i].ID.String()).
				Msg("failed to sign image URL")
			continue
		}
		images[i].URL = url
	}

	return images, nil
}

// AddImage registers an uploaded object as a product image.
func (s *catalogService) AddImage(ctx context.Context, productID uuid.UUID, objectKey string, isPrimary bool) (*model.ProductImage, error) {
	if objectKey == "" {
		return nil, model.NewDomainError(model.ErrCodeMissingField, "Object key is required")
	}

	p, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, model.ErrProductNotFound
	}

	img := &model.ProductImage{
		ID:        uuid.New(),
		ProductID: productID,
		ObjectKey: objectKey,
	}
	if err := s.productRepo.CreateImage(ctx, img); err != nil {
		return nil, err
	}

	if isPrimary {
		if err := s.productRepo.SetPrimaryImage(ctx, productID, img.ID); err != nil {
			return nil, err
		}
		img.IsPrimary = true
	}

	return img, nil
}

// SetPrimaryImage moves the primary flag to the given image.
func (s *catalogService) SetPrimaryImage(ctx context.Context, productID, imageID uuid.UUID) error {
	return s.productRepo.SetPrimaryImage(ctx, productID, imageID)
}

// validatePricing enforces the sale-price invariant: positive and never above
// the original price.
func validatePricing(price, originalPrice decimal.Decimal) error {
	if !price.IsPositive() || !originalPrice.IsPositive() {
		return model.ErrInvalidPrice
	}
	if price.GreaterThan(originalPrice) {
		return model.ErrInvalidPrice
	}
	return nil
}

// validateSaleWindow requires both bounds or neither, in order.
func validateSaleWindow(start, end *time.Time) error {
	if (start == nil) != (end == nil) {
		return model.NewDomainError(model.ErrCodeMissingField, "Sale window requires both start and end")
	}
	if start != nil && !end.After(*start) {
		return model.NewDomainError(model.ErrCodeMissingField, "Sale window end must be after start")
	}
	return nil
}
