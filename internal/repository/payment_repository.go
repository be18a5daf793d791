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

// paymentRepository implements the PaymentRepository interface using PostgreSQL.
type paymentRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewPaymentRepository creates a new PostgreSQL-backed payment repository.
func NewPaymentRepository(pool *pgxpool.Pool, logger zerolog.Logger) PaymentRepository {
	return &paymentRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "payment").Logger(),
	}
}

// Create inserts a new payment record.
func (r *paymentRepository) Create(ctx context.Context, p *model.Payment) error {
	now := touchTime()
	p.CreatedAt = now
	p.UpdatedAt = now

	_, err := r.pool.Exec(ctx,
		`INSERT INTO payments (id, user_id, amount, status, intent_id, description, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $7)`,
		p.ID, p.UserID, p.Amount, p.Status, p.IntentID, p.Description, now,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("payment_id", p.ID.String()).Msg("failed to create payment")
		return fmt.Errorf("failed to create payment: %w", err)
	}

	return nil
}

// GetByIntentID retrieves the payment tracking a gateway intent.
func (r *paymentRepository) GetByIntentID(ctx context.Context, intentID string) (*model.Payment, error) {
	query := `
		SELECT id, user_id, amount, status, intent_id, description, created_at, updated_at
		FROM payments
		WHERE intent_id = $1
	`

	var p model.Payment
	err := r.pool.QueryRow(ctx, query, intentID).Scan(
		&p.ID, &p.UserID, &p.Amount, &p.Status, &p.IntentID, &p.Description,
		&p.CreatedAt, &p.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query payment: %w", err)
	}

	return &p, nil
}

// UpdateStatus transitions the payment status.
func (r *paymentRepository) UpdateStatus(ctx context.Context, id uuid.UUID, status model.PaymentStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE payments SET status = $2, updated_at = $3 WHERE id = $1`,
		id, status, touchTime(),
	)
	if err != nil {
		return fmt.Errorf("failed to update payment status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrPaymentNotFound
	}

	return nil
}
