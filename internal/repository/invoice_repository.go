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

// invoiceRepository implements the InvoiceRepository interface using PostgreSQL.
type invoiceRepository struct {
	pool   *pgxpool.Pool
	logger zerolog.Logger
}

// NewInvoiceRepository creates a new PostgreSQL-backed invoice repository.
func NewInvoiceRepository(pool *pgxpool.Pool, logger zerolog.Logger) InvoiceRepository {
	return &invoiceRepository{
		pool:   pool,
		logger: logger.With().Str("repository", "invoice").Logger(),
	}
}

// GetByOrderID returns the order's invoice or nil.
func (r *invoiceRepository) GetByOrderID(ctx context.Context, orderID uuid.UUID) (*model.Invoice, error) {
	query := `
		SELECT id, order_id, invoice_number, html_content, created_at
		FROM invoices
		WHERE order_id = $1
	`

	var inv model.Invoice
	err := r.pool.QueryRow(ctx, query, orderID).Scan(
		&inv.ID, &inv.OrderID, &inv.InvoiceNumber, &inv.HTMLContent, &inv.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query invoice: %w", err)
	}

	return &inv, nil
}

// Create inserts an invoice. The unique order_id constraint makes creation
// idempotent: when a concurrent or earlier run already inserted one, the
// existing row is returned untouched.
func (r *invoiceRepository) Create(ctx context.Context, inv *model.Invoice) (*model.Invoice, error) {
	inv.CreatedAt = touchTime()
	tag, err := r.pool.Exec(ctx,
		`INSERT INTO invoices (id, order_id, invoice_number, html_content, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 ON CONFLICT (order_id) DO NOTHING`,
		inv.ID, inv.OrderID, inv.InvoiceNumber, inv.HTMLContent, inv.CreatedAt,
	)
	if err != nil {
		r.logger.Error().Err(err).Str("order_id", inv.OrderID.String()).Msg("failed to create invoice")
		return nil, fmt.Errorf("failed to create invoice: %w", err)
	}

	if tag.RowsAffected() == 0 {
		existing, err := r.GetByOrderID(ctx, inv.OrderID)
		if err != nil {
			return nil, err
		}
		r.logger.Debug().Str("order_id", inv.OrderID.String()).Msg("invoice already exists")
		return existing, nil
	}

	return inv, nil
}

// GetDefaultTemplate returns the default template or nil when none is
// configured.
func (r *invoiceRepository) GetDefaultTemplate(ctx context.Context) (*model.InvoiceTemplate, error) {
	query := `
		SELECT id, name, content, is_default, created_at
		FROM invoice_templates
		WHERE is_default
	`

	var t model.InvoiceTemplate
	err := r.pool.QueryRow(ctx, query).Scan(&t.ID, &t.Name, &t.Content, &t.IsDefault, &t.CreatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to query default template: %w", err)
	}

	return &t, nil
}

// ListTemplates returns all templates ordered by name.
func (r *invoiceRepository) ListTemplates(ctx context.Context) ([]model.InvoiceTemplate, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, content, is_default, created_at FROM invoice_templates ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("failed to query templates: %w", err)
	}
	defer rows.Close()

	var templates []model.InvoiceTemplate
	for rows.Next() {
		var t model.InvoiceTemplate
		if err := rows.Scan(&t.ID, &t.Name, &t.Content, &t.IsDefault, &t.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan template: %w", err)
		}
		templates = append(templates, t)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating templates: %w", err)
	}

	return templates, nil
}

// CreateTemplate inserts a template. A template created as default first
// clears the flag elsewhere so the partial unique index cannot reject it.
func (r *invoiceRepository) CreateTemplate(ctx context.Context, t *model.InvoiceTemplate) error {
	t.CreatedAt = touchTime()

	if !t.IsDefault {
		_, err := r.pool.Exec(ctx,
			`INSERT INTO invoice_templates (id, name, content, is_default, created_at)
			 VALUES ($1, $2, $3, FALSE, $4)`,
			t.ID, t.Name, t.Content, t.CreatedAt,
		)
		if err != nil {
			return fmt.Errorf("failed to create template: %w", err)
		}
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE invoice_templates SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("failed to unset default template: %w", err)
	}

	if _, err := tx.Exec(ctx,
		`INSERT INTO invoice_templates (id, name, content, is_default, created_at)
		 VALUES ($1, $2, $3, TRUE, $4)`,
		t.ID, t.Name, t.Content, t.CreatedAt,
	); err != nil {
		return fmt.Errorf("failed to create template: %w", err)
	}

	return tx.Commit(ctx)
}

// SetDefaultTemplate unsets the current default and marks the given template,
// in one transaction.
func (r *invoiceRepository) SetDefaultTemplate(ctx context.Context, id uuid.UUID) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`UPDATE invoice_templates SET is_default = FALSE WHERE is_default`); err != nil {
		return fmt.Errorf("failed to unset default template: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE invoice_templates SET is_default = TRUE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to set default template: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return model.ErrTemplateNotFound
	}

	return tx.Commit(ctx)
}
