package service

import (
	"context"
	"testing"
	"time"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func newTestCatalogService(t *testing.T) (CatalogService, *MockProductRepository, *MockSigner) {
	t.Helper()
	productRepo := new(MockProductRepository)
	signer := new(MockSigner)
	return NewCatalogService(productRepo, signer, zerolog.Nop()), productRepo, signer
}

func catalogProduct() model.Product {
	return model.Product{
		ID:            uuid.New(),
		Name:          "Oak Bookcase",
		SKU:           "OAK-100",
		Price:         decimal.RequireFromString("80.00"),
		OriginalPrice: decimal.RequireFromString("80.00"),
		StockQuantity: 0,
		IsVisible:     true,
	}
}

func TestProductEvents_StockBecomesAvailable(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	after := before
	after.StockQuantity = 5

	events := productEvents(&before, &after, now)

	require.Len(t, events, 1)
	assert.Equal(t, model.ProductEventStockAvailable, events[0].Type)
	assert.Equal(t, after.ID, events[0].ProductID)
	assert.Equal(t, after.Name, events[0].ProductName)
	assert.NotEqual(t, uuid.Nil, events[0].ID)
}

func TestProductEvents_NoEventWhenStockStaysPositive(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	before.StockQuantity = 2
	after := before
	after.StockQuantity = 10

	events := productEvents(&before, &after, now)
	assert.Empty(t, events)
}

func TestProductEvents_PriceDrop(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	after := before
	after.Price = decimal.RequireFromString("60.00")

	events := productEvents(&before, &after, now)

	require.Len(t, events, 1)
	assert.Equal(t, model.ProductEventPriceDrop, events[0].Type)
	assert.True(t, events[0].PreviousPrice.Equal(decimal.RequireFromString("80.00")))
	assert.True(t, events[0].CurrentPrice.Equal(decimal.RequireFromString("60.00")))
}

func TestProductEvents_PriceCutOutsideSaleWindow(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	before.Price = decimal.RequireFromString("50.00")
	before.OriginalPrice = decimal.RequireFromString("60.00")
	after := before
	after.Price = decimal.RequireFromString("40.00")

	events := productEvents(&before, &after, now)

	require.Len(t, events, 1)
	assert.Equal(t, model.ProductEventPriceDrop, events[0].Type)
	assert.True(t, events[0].PreviousPrice.Equal(decimal.RequireFromString("50.00")))
	assert.True(t, events[0].CurrentPrice.Equal(decimal.RequireFromString("40.00")))
}

func TestProductEvents_DropBelowThresholdIgnored(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	after := before
	after.Price = decimal.RequireFromString("79.995")

	events := productEvents(&before, &after, now)
	assert.Empty(t, events)
}

func TestProductEvents_HiddenProductEmitsNothing(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	after := before
	after.IsVisible = false
	after.StockQuantity = 5
	after.Price = decimal.RequireFromString("40.00")

	events := productEvents(&before, &after, now)
	assert.Empty(t, events)
}

func TestProductEvents_SaleWindowOpeningAloneIsNotAPriceDrop(t *testing.T) {
	now := time.Now().UTC()
	start := now.Add(-time.Minute)
	end := now.Add(time.Hour)

	before := catalogProduct()
	before.Price = decimal.RequireFromString("60.00")
	after := before
	after.SaleStart = &start
	after.SaleEnd = &end

	// The list price did not move; only the effective price changed.
	events := productEvents(&before, &after, now)
	assert.Empty(t, events)
}

func TestProductEvents_BothEventsAtOnce(t *testing.T) {
	now := time.Now().UTC()
	before := catalogProduct()
	after := before
	after.StockQuantity = 3
	after.Price = decimal.RequireFromString("50.00")

	events := productEvents(&before, &after, now)
	require.Len(t, events, 2)
	assert.Equal(t, model.ProductEventStockAvailable, events[0].Type)
	assert.Equal(t, model.ProductEventPriceDrop, events[1].Type)
}

func TestValidatePricing(t *testing.T) {
	tests := []struct {
		name     string
		price    string
		original string
		wantErr  bool
	}{
		{"sale below original", "50.00", "80.00", false},
		{"equal prices", "80.00", "80.00", false},
		{"sale above original", "90.00", "80.00", true},
		{"zero price", "0", "80.00", true},
		{"negative price", "-1.00", "80.00", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validatePricing(
				decimal.RequireFromString(tt.price),
				decimal.RequireFromString(tt.original),
			)
			if tt.wantErr {
				assert.ErrorIs(t, err, model.ErrInvalidPrice)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestValidateSaleWindow(t *testing.T) {
	start := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)

	assert.NoError(t, validateSaleWindow(nil, nil))
	assert.NoError(t, validateSaleWindow(&start, &end))
	assert.Error(t, validateSaleWindow(&start, nil))
	assert.Error(t, validateSaleWindow(nil, &end))
	assert.Error(t, validateSaleWindow(&end, &start))
	assert.Error(t, validateSaleWindow(&start, &start))
}

func TestCatalogService_CreateProduct_InvalidPricing(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _ := newTestCatalogService(t)

	_, err := svc.CreateProduct(ctx, &model.CreateProductRequest{
		Name:          "Bad Product",
		SKU:           "BAD-1",
		Price:         decimal.RequireFromString("100.00"),
		OriginalPrice: decimal.RequireFromString("50.00"),
	})
	assert.ErrorIs(t, err, model.ErrInvalidPrice)
	productRepo.AssertNotCalled(t, "Create")
}

func TestCatalogService_CreateProduct_GeneratesSlug(t *testing.T) {
	ctx := context.Background()
	svc, productRepo, _ := newTestCatalogService(t)

	var created *model.Product
	productRepo.On("Create", ctx, mock.AnythingOfType("*model.Product")).
		Run(func(args mock.Arguments) {
			created = args.Get(1).(*model.Product)
		}).
		Return(nil)

	_, err := svc.CreateProduct(ctx, &model.CreateProductRequest{
		Name:          "Oak Bookcase (Large)",
		SKU:           "OAK-100",
		Price:         decimal.RequireFromString("80.00"),
		OriginalPrice: decimal.RequireFromString("80.00"),
		StockQuantity: 1,
	})
	require.NoError(t, err)
	require.NotNil(t, created)
	assert.Equal(t, "oak-bookcase-large", created.Slug)
}

func TestCatalogService_DeleteProduct_Deleted(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	svc, productRepo, _ := newTestCatalogService(t)

	productRepo.On("Delete", ctx, id).Return(nil)

	result, err := svc.DeleteProduct(ctx, id)
	require.NoError(t, err)
	assert.True(t, result.Deleted)
	assert.False(t, result.Deactivated)
	productRepo.AssertNotCalled(t, "SetVisibility")
}

func TestCatalogService_DeleteProduct_ReferencedByOrdersDeactivates(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()
	svc, productRepo, _ := newTestCatalogService(t)

	fkErr := &pgconn.PgError{Code: "23503"}
	productRepo.On("Delete", ctx, id).Return(fkErr)
	productRepo.On("SetVisibility", ctx, id, false).Return(nil)

	result, err := svc.DeleteProduct(ctx, id)
	require.NoError(t, err)
	assert.False(t, result.Deleted)
	assert.True(t, result.Deactivated)
	productRepo.AssertExpectations(t)
}

func TestCatalogService_ListImages_SignsURLs(t *testing.T) {
	ctx := context.Background()
	productID := uuid.New()
	svc, productRepo, signer := newTestCatalogService(t)

	images := []model.ProductImage{
		{ID: uuid.New(), ProductID: productID, ObjectKey: "products/a.jpg"},
		{ID: uuid.New(), ProductID: productID, ObjectKey: "products/b.jpg"},
	}
	productRepo.On("ListImages", ctx, productID).Return(images, nil)
	signer.On("SignURL", ctx, "products/a.jpg").Return("https://cdn.example.com/a.jpg?sig=x", nil)
	// A signer failure leaves the URL empty but does not fail the listing.
	signer.On("SignURL", ctx, "products/b.jpg").Return("", assert.AnError)

	got, err := svc.ListImages(ctx, productID)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "https://cdn.example.com/a.jpg?sig=x", got[0].URL)
	assert.Empty(t, got[1].URL)
}

func TestSlugify(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Oak Bookcase", "oak-bookcase"},
		{"Café Table & Chairs", "caf-table-chairs"},
		{"  spaced  out  ", "spaced-out"},
		{"UPPER", "upper"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, slugify(tt.in), "slugify(%q)", tt.in)
	}
}
