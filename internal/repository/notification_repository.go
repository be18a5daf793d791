package repository

import (
	"context"
	"errors"
	"fmt"

	"storefront/internal/model"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rs/zerolog"
)

// notificationRepository implements the NotificationRepository interface
// using PostgreSQL.
type notificationRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewNotificationRepository creates a new PostgreSQL-backed notification
// repository.
func NewNotificationRepository(pool *pgxpool.Pool, logger zerolog.Logger) NotificationRepository {
	return &notificationRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "notification").Logger(),
	}
}

// AddWishlistItem inserts a wishlist entry. Adding a product that is already
// on the list is a no-op.
func (r *notificationRepository) AddWishlistItem(ctx context.Context, item *model.WishlistItem) error {
	item.CreatedAt = touchTime()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO wishlist_items (id, user_id, product_id, created_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id, product_id) DO NOTHING`,
		item.ID, item.UserID, item.ProductID, item.CreatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrProductNotFound
		}
		return fmt.Errorf("failed to add wishlist item: %w", err)
	}
	return nil
}

// RemoveWishlistItem deletes a wishlist entry. Removing an absent entry is a
// no-op.
func (r *notificationRepository) RemoveWishlistItem(ctx context.Context, userID, productID uuid.UUID) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM wishlist_items WHERE user_id = $1 AND product_id = $2`,
		userID, productID)
	if err != nil {
		return fmt.Errorf("failed to remove wishlist item: %w", err)
	}
	return nil
}

// ListWishlist returns the user's wishlist, newest first.
func (r *notificationRepository) ListWishlist(ctx context.Context, userID uuid.UUID) ([]model.WishlistItem, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, created_at
		 FROM wishlist_items
		 WHERE user_id = $1
		 ORDER BY created_at DESC`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist: %w", err)
	}
	defer rows.Close()

	var items []model.WishlistItem
	for rows.Next() {
		var item model.WishlistItem
		if err := rows.Scan(&item.ID, &item.UserID, &item.ProductID, &item.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist item: %w", err)
		}
		items = append(items, item)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist: %w", err)
	}

	return items, nil
}

// ListWishlistUsers returns the IDs of every user with the product on their
// wishlist.
func (r *notificationRepository) ListWishlistUsers(ctx context.Context, productID uuid.UUID) ([]uuid.UUID, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT user_id FROM wishlist_items WHERE product_id = $1`, productID)
	if err != nil {
		return nil, fmt.Errorf("failed to query wishlist users: %w", err)
	}
	defer rows.Close()

	var userIDs []uuid.UUID
	for rows.Next() {
		var id uuid.UUID
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("failed to scan wishlist user: %w", err)
		}
		userIDs = append(userIDs, id)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating wishlist users: %w", err)
	}

	return userIDs, nil
}

// GetPreference returns the user's preference row or nil when the user never
// opted in.
func (r *notificationRepository) GetPreference(ctx context.Context, userID uuid.UUID) (*model.NotificationPreference, error) {
	var p model.NotificationPreference
	err := r.pool.QueryRow(ctx,
		`SELECT user_id, stock_alerts_enabled, price_drop_alerts_enabled, updated_at
		 FROM notification_preferences
		 WHERE user_id = $1`,
		userID).
		Scan(&p.UserID, &p.StockAlertsEnabled, &p.PriceDropAlertsEnabled, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query preference: %w", err)
	}
	return &p, nil
}

// UpsertPreference creates or updates the user's preference row.
func (r *notificationRepository) UpsertPreference(ctx context.Context, p *model.NotificationPreference) error {
	p.UpdatedAt = touchTime()
	_, err := r.pool.Exec(ctx,
		`INSERT INTO notification_preferences (user_id, stock_alerts_enabled, price_drop_alerts_enabled, updated_at)
		 VALUES ($1, $2, $3, $4)
		 ON CONFLICT (user_id) DO UPDATE SET
		   stock_alerts_enabled = EXCLUDED.stock_alerts_enabled,
		   price_drop_alerts_enabled = EXCLUDED.price_drop_alerts_enabled,
		   updated_at = EXCLUDED.updated_at`,
		p.UserID, p.StockAlertsEnabled, p.PriceDropAlertsEnabled, p.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to upsert preference: %w", err)
	}
	return nil
}

// CreateHistory appends an audit row. Returns false when the same
// (user, product, type, event) was already recorded, which makes duplicate
// deliveries of one product-change event a no-op.
func (r *notificationRepository) CreateHistory(ctx context.Context, h *model.NotificationHistory) (bool, error) {
	h.CreatedAt = touchTime()
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO notification_history (id, user_id, product_id, notification_type, event_id, title, body, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (user_id, product_id, notification_type, event_id) DO NOTHING`,
		h.ID, h.UserID, h.ProductID, h.Type, h.EventID, h.Title, h.Body, h.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("user_id", h.UserID.String()).
			Str("event_id", h.EventID.String()).
			Msg("failed to create notification history")
		return false, fmt.Errorf("failed to create notification history: %w", err)
	}
	return tag.RowsAffected() == 1, nil
}

// ListHistory returns a user's notification history, newest first.
func (r *notificationRepository) ListHistory(ctx context.Context, userID uuid.UUID, limit, offset int) ([]model.NotificationHistory, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, user_id, product_id, notification_type, event_id, title, body, created_at
		 FROM notification_history
		 WHERE user_id = $1
		 ORDER BY created_at DESC
		 LIMIT $2 OFFSET $3`,
		userID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query notification history: %w", err)
	}
	defer rows.Close()

	var history []model.NotificationHistory
	for rows.Next() {
		var h model.NotificationHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.ProductID, &h.Type, &h.EventID, &h.Title, &h.Body, &h.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan notification history: %w", err)
		}
		history = append(history, h)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating notification history: %w", err)
	}

	return history, nil
}
