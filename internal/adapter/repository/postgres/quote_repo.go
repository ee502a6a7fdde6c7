package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/bondcurve-backend/internal/domain"
)

// quoteRepository implements domain.QuoteRepository
type quoteRepository struct {
	db *DB
}

// NewQuoteRepository creates a new quote repository
func NewQuoteRepository(db *DB) domain.QuoteRepository {
	return &quoteRepository{db: db}
}

// Add stores a new quote
func (r *quoteRepository) Add(ctx context.Context, quote *domain.Quote) error {
	query := `
		INSERT INTO quotes (id, certificate_id, kind, valuation, start_offset, size, cost, new_valuation, shares, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		quote.ID,
		quote.CertificateID,
		string(quote.Kind),
		quote.Valuation.String(),
		quote.Offset.String(),
		quote.Size.String(),
		quote.Cost.String(),
		quote.NewValuation.String(),
		quote.Shares.String(),
		quote.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to insert quote: %w", err)
	}

	return nil
}

// ListByCertificate retrieves the most recent quotes for a certificate
func (r *quoteRepository) ListByCertificate(ctx context.Context, certificateID uuid.UUID, limit int) ([]*domain.Quote, error) {
	query := `
		SELECT id, certificate_id, kind, valuation, start_offset, size, cost, new_valuation, shares, created_at
		FROM quotes
		WHERE certificate_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.db.QueryContext(ctx, query, certificateID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list quotes: %w", err)
	}
	defer rows.Close()

	quotes := make([]*domain.Quote, 0)
	for rows.Next() {
		var quote domain.Quote
		var valuation, offset, size, cost, newValuation, shares string

		if err := rows.Scan(
			&quote.ID,
			&quote.CertificateID,
			&quote.Kind,
			&valuation,
			&offset,
			&size,
			&cost,
			&newValuation,
			&shares,
			&quote.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan quote: %w", err)
		}

		// Parse NUMERIC columns
		targets := []struct {
			name string
			raw  string
			dst  *decimal.Decimal
		}{
			{"valuation", valuation, &quote.Valuation},
			{"start_offset", offset, &quote.Offset},
			{"size", size, &quote.Size},
			{"cost", cost, &quote.Cost},
			{"new_valuation", newValuation, &quote.NewValuation},
			{"shares", shares, &quote.Shares},
		}
		for _, col := range targets {
			d, err := domain.ParseDecimal(col.name, col.raw)
			if err != nil {
				return nil, fmt.Errorf("failed to parse %s: %w", col.name, err)
			}
			*col.dst = d
		}

		quotes = append(quotes, &quote)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate quotes: %w", err)
	}

	return quotes, nil
}
