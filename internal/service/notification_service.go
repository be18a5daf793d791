package service

import (
	"context"

	"storefront/internal/model"
	"storefront/internal/repository"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// notificationService implements NotificationService.
type notificationService struct {
	notificationRepo repository.NotificationRepository
	productRepo      repository.ProductRepository
	logger           zerolog.Logger
}

// NewNotificationService creates a new notification service.
func NewNotificationService(notificationRepo repository.NotificationRepository, productRepo repository.ProductRepository, logger zerolog.Logger) NotificationService {
	return &notificationService{
		notificationRepo: notificationRepo,
		productRepo:      productRepo,
		logger:           logger.With().Str("service", "notification").Logger(),
	}
}

// GetPreferences returns the user's opt-in flags. A user without a stored
// row gets everything disabled, never an error.
func (s *notificationService) GetPreferences(ctx context.Context, userID uuid.UUID) (*model.NotificationPreference, error) {
	pref, err := s.notificationRepo.GetPreference(ctx, userID)
	if err != nil {
		return nil, err
	}
	if pref == nil {
		return &model.NotificationPreference{UserID: userID}, nil
	}
	return pref, nil
}

// UpdatePreferences stores the user's opt-in flags.
func (s *notificationService) UpdatePreferences(ctx context.Context, userID uuid.UUID, req *model.UpdatePreferencesRequest) (*model.NotificationPreference, error) {
	pref := &model.NotificationPreference{
		UserID:                 userID,
		StockAlertsEnabled:     req.StockAlertsEnabled,
		PriceDropAlertsEnabled: req.PriceDropAlertsEnabled,
	}
	if err := s.notificationRepo.UpsertPreference(ctx, pref); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("user_id", userID.String()).
		Bool("stock_alerts", pref.StockAlertsEnabled).
		Bool("price_drop_alerts", pref.PriceDropAlertsEnabled).
		Msg("notification preferences updated")

	return pref, nil
}

// AddToWishlist puts a product on the user's wishlist. Re-adding is a no-op.
func (s *notificationService) AddToWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	product, err := s.productRepo.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if product == nil {
		return model.ErrProductNotFound
	}

	item := &model.WishlistItem{
		ID:        uuid.New(),
		UserID:    userID,
		ProductID: productID,
	}
	return s.notificationRepo.AddWishlistItem(ctx, item)
}

// RemoveFromWishlist drops a product from the user's wishlist.
func (s *notificationService) RemoveFromWishlist(ctx context.Context, userID, productID uuid.UUID) error {
	return s.notificationRepo.RemoveWishlistItem(ctx, userID, productID)
}

// ListWishlist returns the user's wishlist, newest first.
func (s *notificationService) ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	return s.notificationRepo.ListWishlist(ctx, userID)
}

// ListHistory returns the user's notification history, newest first.
func (s *notificationService) ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.NotificationHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	if offset < 0 {
		offset = 0
	}
	return s.notificationRepo.ListHistory(ctx, userID, limit, offset)
}
