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

// profileRepository implements the ProfileRepository interface using PostgreSQL.
type profileRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewProfileRepository creates a new PostgreSQL-backed profile repository.
func NewProfileRepository(pool *pgxpool.Pool, logger zerolog.Logger) ProfileRepository {
	return &profileRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "profile").Logger(),
	}
}

// GetUser returns the user or nil when not found.
func (r *profileRepository) GetUser(ctx context.Context, id uuid.UUID) (*model.User, error) {
	var u model.User
	err := r.pool.QueryRow(ctx,
		`SELECT id, email, name, created_at FROM users WHERE id = $1`, id).
		Scan(&u.ID, &u.Email, &u.Name, &u.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query user: %w", err)
	}
	return &u, nil
}

const addressColumns = `id, user_id, label, line1, line2, city, postcode, country, is_default, created_at, updated_at`

func scanAddress(row pgx.Row) (*model.Address, error) {
	var a model.Address
	err := row.Scan(
		&a.ID, &a.UserID, &a.Label, &a.Line1, &a.Line2, &a.City,
		&a.Postcode, &a.Country, &a.IsDefault, &a.CreatedAt, &a.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &a, nil
}

// ListAddresses returns the user's addresses with the default first.
func (r *profileRepository) ListAddresses(ctx context.Context, userID uuid.UUID) ([]model.Address, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE user_id = $1 ORDER BY is_default DESC, created_at`,
		userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query addresses: %w", err)
	}
	defer rows.Close()

	var addresses []model.Address
	for rows.Next() {
		a, err := scanAddress(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan address: %w", err)
		}
		addresses = append(addresses, *a)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating addresses: %w", err)
	}

	return addresses, nil
}

// GetAddress returns the address or nil when it does not exist or belongs to
// another user.
func (r *profileRepository) GetAddress(ctx context.Context, userID, id uuid.UUID) (*model.Address, error) {
	a, err := scanAddress(r.pool.QueryRow(ctx,
		`SELECT `+addressColumns+` FROM addresses WHERE id = $1 AND user_id = $2`, id, userID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query address: %w", err)
	}
	return a, nil
}

// CreateAddress inserts an address. The user's first address becomes the
// default; marking a later one default clears the previous flag in the same
// transaction.
func (r *profileRepository) CreateAddress(ctx context.Context, a *model.Address) error {
	a.CreatedAt = touchTime()
	a.UpdatedAt = a.CreatedAt

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	var count int
	if err := tx.QueryRow(ctx,
		`SELECT COUNT(*) FROM addresses WHERE user_id = $1`, a.UserID).Scan(&count); err != nil {
		return fmt.Errorf("failed to count addresses: %w", err)
	}
	if count == 0 {
		a.IsDefault = true
	}

	if a.IsDefault {
		if _, err := tx.Exec(ctx,
			`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, a.UserID); err != nil {
			return fmt.Errorf("failed to unset default address: %w", err)
		}
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO addresses (`+addressColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		a.ID, a.UserID, a.Label, a.Line1, a.Line2, a.City,
		a.Postcode, a.Country, a.IsDefault, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("user_id", a.UserID.String()).Msg("failed to create address")
		return fmt.Errorf("failed to create address: %w", err)
	}

	return tx.Commit(ctx)
}

// DeleteAddress removes an address. An address referenced by an order stays
// in place and the call reports ErrAddressInUse.
func (r *profileRepository) DeleteAddress(ctx context.Context, userID, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM addresses WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return model.ErrAddressInUse
		}
		return fmt.Errorf("failed to delete address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAddressNotFound
	}
	return nil
}

// SetDefaultAddress unsets the user's current default and marks the given
// address, in one transaction.
func (r *profileRepository) SetDefaultAddress(ctx context.Context, userID, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = FALSE WHERE user_id = $1 AND is_default`, userID); err != nil {
		return fmt.Errorf("failed to unset default address: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE addresses SET is_default = TRUE, updated_at = $3 WHERE id = $1 AND user_id = $2`,
		id, userID, touchTime())
	if err != nil {
		return fmt.Errorf("failed to set default address: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrAddressNotFound
	}

	return tx.Commit(ctx)
}

// ListShippingMethods returns all shipping methods, cheapest first.
func (r *profileRepository) ListShippingMethods(ctx context.Context) ([]model.ShippingMethod, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, price, courier_id, created_at FROM shipping_methods ORDER BY price, name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query shipping methods: %w", err)
	}
	defer rows.Close()

	var methods []model.ShippingMethod
	for rows.Next() {
		var m model.ShippingMethod
		if err := rows.Scan(&m.ID, &m.Name, &m.Price, &m.CourierID, &m.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan shipping method: %w", err)
		}
		methods = append(methods, m)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating shipping methods: %w", err)
	}

	return methods, nil
}

// GetShippingMethod returns the shipping method or nil.
func (r *profileRepository) GetShippingMethod(ctx context.Context, id uuid.UUID) (*model.ShippingMethod, error) {
	var m model.ShippingMethod
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, price, courier_id, created_at FROM shipping_methods WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Price, &m.CourierID, &m.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query shipping method: %w", err)
	}
	return &m, nil
}
