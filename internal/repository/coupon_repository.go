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

// couponRepository implements the CouponRepository interface using PostgreSQL.
type couponRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewCouponRepository creates a new PostgreSQL-backed coupon repository.
func NewCouponRepository(pool *pgxpool.Pool, logger zerolog.Logger) CouponRepository {
	return &couponRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "coupon").Logger(),
	}
}

const couponColumns = `id, code, name, discount_amount, max_uses, max_uses_per_user,
	valid_from, valid_until, created_at`

func scanCoupon(row pgx.Row) (*model.Coupon, error) {
	var c model.Coupon
	err := row.Scan(
		&c.ID, &c.Code, &c.Name, &c.DiscountAmount, &c.MaxUses, &c.MaxUsesPerUser,
		&c.ValidFrom, &c.ValidUntil, &c.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

// GetByCode retrieves a coupon by its code.
func (r *couponRepository) GetByCode(ctx context.Context, code string) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE code = $1`, code))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			r.logger.Debug().Str("code", code).Msg("coupon not found")
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return c, nil
}

// GetByID retrieves a coupon by ID.
func (r *couponRepository) GetByID(ctx context.Context, id uuid.UUID) (*model.Coupon, error) {
	c, err := scanCoupon(r.pool.QueryRow(ctx,
		`SELECT `+couponColumns+` FROM coupons WHERE id = $1`, id))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query coupon: %w", err)
	}
	return c, nil
}

// CountRedemptions returns total and per-user redemption counts in one round
// trip.
func (r *couponRepository) CountRedemptions(ctx context.Context, couponID, userID uuid.UUID) (model.CouponUsage, error) {
	query := `
		SELECT COUNT(*), COUNT(*) FILTER (WHERE user_id = $2)
		FROM coupon_redemptions
		WHERE coupon_id = $1
	`

	var usage model.CouponUsage
	err := r.pool.QueryRow(ctx, query, couponID, userID).Scan(&usage.Total, &usage.ByUser)
	if err != nil {
		r.logger.Error().Err(err).Str("coupon_id", couponID.String()).Msg("failed to count redemptions")
		return model.CouponUsage{}, fmt.Errorf("failed to count redemptions: %w", err)
	}

	return usage, nil
}

// CreateRedemption inserts the immutable audit row within the transaction.
func (r *couponRepository) CreateRedemption(ctx context.Context, tx pgx.Tx, red *model.CouponRedemption) error {
	red.CreatedAt = touchTime()
	_, err := tx.Exec(ctx,
		`INSERT INTO coupon_redemptions (id, user_id, coupon_id, order_id,
			discount_amount, original_total, final_total, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		red.ID, red.UserID, red.CouponID, red.OrderID,
		red.DiscountAmount, red.OriginalTotal, red.FinalTotal, red.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err, "") {
			return model.ErrDuplicateRedemption
		}
		r.logger.Error().Err(err).
			Str("coupon_id", red.CouponID.String()).
			Str("order_id", red.OrderID.String()).
			Msg("failed to create redemption")
		return fmt.Errorf("failed to create redemption: %w", err)
	}

	return nil
}
