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
	"github.com/shopspring/decimal"
)

// cartRepository implements the CartRepository interface using PostgreSQL.
type cartRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCartRepository creates a new PostgreSQL-backed cart repository.
func NewCartRepository(pool *pgxpool.Pool, logger zerolog.Logger) CartRepository {
	return &cartRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "cart").Logger(),
	}
}

const cartColumns = `id, user_id, status, shipping_address_id, shipping_method_id,
	coupon_id, coupon_discount, created_at, updated_at`

func scanCart(row pgx.Row) (*model.Cart, error) {
	var c model.Cart
	err := row.Scan(
		&c.ID, &c.UserID, &c.Status, &c.ShippingAddressID, &c.ShippingMethodID,
		&c.CouponID, &c.CouponDiscount, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetOrCreateActive returns the user's active cart, creating one lazily. The
// partial unique index on (user_id) WHERE status = 'active' resolves the race
// between two first-adds: the loser re-reads the winner's row.
func (r *cartRepository) GetOrCreateActive(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	cart, err := r.GetActiveByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	if cart != nil {
		return cart, nil
	}

	now := touchTime()
	newCart := &model.Cart{
		ID:             uuid.New(),
		UserID:         userID,
		Status:         model.CartStatusActive,
		CouponDiscount: decimal.Zero,
		CreatedAt:      now,
		UpdatedAt:      now,
	}

	_, err = r.pool.Exec(ctx,
		`INSERT INTO carts (id, user_id, status, coupon_discount, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $5)`,
		newCart.ID, newCart.UserID, newCart.Status, newCart.CouponDiscount, now,
	)
	if err != nil {
		if isUniqueViolation(err, "active_cart") {
			return r.GetActiveByUser(ctx, userID)
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to create cart")
		return nil, fmt.Errorf("failed to create cart: %w", err)
	}

	r.logger.Debug().
		Str("cart_id", newCart.ID.String()).
		Str("user_id", userID.String()).
		Msg("active cart created")

	return newCart, nil
}

// GetActiveByUser returns the user's active cart or nil.
func (r *cartRepository) GetActiveByUser(ctx context.Context, userID uuid.UUID) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE user_id = $1 AND status = 'active'`

	cart, err := scanCart(r.pool.QueryRow(ctx, query, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		r.logger.Error().Err(err).Str("user_id", userID.String()).Msg("failed to query active cart")
		return nil, fmt.Errorf("failed to query active cart: %w", err)
	}

	return cart, nil
}

// GetByID retrieves a cart by ID.
func (r *cartRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Cart, error) {
	query := `SELECT ` + cartColumns + ` FROM carts WHERE id = $1`

	cart, err := scanCart(r.pool.QueryRow(ctx, query, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cart: %w", err)
	}

	return cart, nil
}

// UpdateShipping sets the cart's shipping address and method.
func (r *cartRepository) UpdateShipping(ctx context.Context, cartID uuid.UUID, addressID, methodID *uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE carts SET shipping_address_id = $2, shipping_method_id = $3, updated_at = $4 WHERE id = $1`,
		cartID, addressID, methodID, touchTime(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cart shipping: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartNotFound
	}

	return nil
}

// UpdateCoupon stores the applied coupon and its clamped discount.
func (r *cartRepository) UpdateCoupon(ctx context.Context, cartID uuid.UUID, couponID *uuid.UUID, discount decimal.Decimal) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE carts SET coupon_id = $2, coupon_discount = $3, updated_at = $4 WHERE id = $1`,
		cartID, couponID, discount, touchTime(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cart coupon: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartNotFound
	}

	return nil
}

// SetStatus transitions the cart lifecycle state within the transaction.
func (r *cartRepository) SetStatus(ctx context.Context, tx pgx.Tx, cartID uuid.UUID, status model.CartStatus) error {
	tag, err := tx.Exec(ctx,
		`UPDATE carts SET status = $2, updated_at = $3 WHERE id = $1`,
		cartID, status, touchTime(),
	)
	if err != nil {
		return fmt.Errorf("failed to set cart status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartNotFound
	}

	return nil
}

// GetItem returns the (cart, product) line or nil.
func (r *cartRepository) GetItem(ctx context.Context, cartID, productID uuid.UUID) (*model.CartItem, error) {
	query := `
		SELECT id, cart_id, product_id, quantity, unit_price, created_at, updated_at
		FROM cart_items
		WHERE cart_id = $1 AND product_id = $2
	`

	var item model.CartItem
	err := r.pool.QueryRow(ctx, query, cartID, productID).Scan(
		&item.ID, &item.CartID, &item.ProductID, &item.Quantity, &item.UnitPrice,
		&item.CreatedAt, &item.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query cart item: %w", err)
	}

	return &item, nil
}

// CreateItem inserts a new cart line with its locked unit price.
func (r *cartRepository) CreateItem(ctx context.Context, item *model.CartItem) error {
	now := touchTime()
	item.CreatedAt = now
	item.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO cart_items (id, cart_id, product_id, quantity, unit_price, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)`,
		item.ID, item.CartID, item.ProductID, item.Quantity, item.UnitPrice, now,
	)
	if err != nil {
		r.logger.Error().Err(err).
			Str("cart_id", item.CartID.String()).
			Str("product_id", item.ProductID.String()).
			Msg("failed to create cart item")
		return fmt.Errorf("failed to create cart item: %w", err)
	}

	return nil
}

// UpdateItemQuantity sets the line quantity. The locked unit price is never
// touched here.
func (r *cartRepository) UpdateItemQuantity(ctx context.Context, itemID uuid.UUID, quantity int) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE cart_items SET quantity = $2, updated_at = $3 WHERE id = $1`,
		itemID, quantity, touchTime(),
	)
	if err != nil {
		return fmt.Errorf("failed to update cart item quantity: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrCartNotFound
	}

	return nil
}

// DeleteItem removes a line.
func (r *cartRepository) DeleteItem(ctx context.Context, itemID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM cart_items WHERE id = $1`, itemID)
	if err != nil {
		return fmt.Errorf("failed to delete cart item: %w", err)
	}
	return nil
}

// ListItems returns the cart's lines joined with their products, oldest line
// first.
func (r *cartRepository) ListItems(ctx context.Context, cartID uuid.UUID) ([]model.CartItemView, error) {
	query := `
		SELECT ci.id, ci.cart_id, ci.product_id, ci.quantity, ci.unit_price,
			ci.created_at, ci.updated_at,
			p.id, p.name, p.slug, p.sku, p.description, p.price, p.original_price,
			p.stock_quantity, p.category_id, p.is_visible, p.sale_start, p.sale_end,
			p.created_at, p.updated_at
		FROM cart_items ci
		JOIN products p ON p.id = ci.product_id
		WHERE ci.cart_id = $1
		ORDER BY ci.created_at
	`

	rows, err := r.pool.Query(ctx, query, cartID)
	if err != nil {
		r.logger.Error().Err(err).Str("cart_id", cartID.String()).Msg("failed to query cart items")
		return nil, fmt.Errorf("failed to query cart items: %w", err)
	}
	defer rows.Close()

	var items []model.CartItemView
	for rows.Next() {
		var v model.CartItemView
		err := rows.Scan(
			&v.ID, &v.CartID, &v.ProductID, &v.Quantity, &v.UnitPrice,
			&v.CreatedAt, &v.UpdatedAt,
			&v.Product.ID, &v.Product.Name, &v.Product.Slug, &v.Product.SKU,
			&v.Product.Description, &v.Product.Price, &v.Product.OriginalPrice,
			&v.Product.StockQuantity, &v.Product.CategoryID, &v.Product.IsVisible,
			&v.Product.SaleStart, &v.Product.SaleEnd,
			&v.Product.CreatedAt, &v.Product.UpdatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cart item: %w", err)
		}
		items = append(items, v)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating cart items: %w", err)
	}

	return items, nil
}

// ClearItems removes every line of the cart within the transaction.
func (r *cartRepository) ClearItems(ctx context.Context, tx pgx.Tx, cartID uuid.UUID) error {
	_, err := tx.Exec(ctx, `DELETE FROM cart_items WHERE cart_id = $1`, cartID)
	if err != nil {
		return fmt.Errorf("failed to clear cart items: %w", err)
	}
	return nil
}
