package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/simaogato/bondcurve-backend/internal/domain"
)

// certificateRepository implements domain.CertificateRepository
type certificateRepository struct {
	db *DB
}

// NewCertificateRepository creates a new certificate repository
func NewCertificateRepository(db *DB) domain.CertificateRepository {
	return &certificateRepository{db: db}
}

// GetByID retrieves a certificate by its ID
func (r *certificateRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	query := `
		SELECT id, title, target, valuation, created_at
		FROM certificates
		WHERE id = $1
	`

	certificate, err := scanCertificate(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("certificate %s: %w", id, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("failed to get certificate by ID: %w", err)
	}

	return certificate, nil
}

// Create creates a new certificate
func (r *certificateRepository) Create(ctx context.Context, certificate *domain.Certificate) error {
	query := `
		INSERT INTO certificates (id, title, target, valuation, created_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		certificate.ID,
		certificate.Title,
		certificate.Target.String(),
		certificate.Valuation.String(),
		certificate.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create certificate: %w", err)
	}

	return nil
}

// List retrieves certificates ordered by creation date, newest first
func (r *certificateRepository) List(ctx context.Context, limit, offset int) ([]*domain.Certificate, error) {
	query := `
		SELECT id, title, target, valuation, created_at
		FROM certificates
		ORDER BY created_at DESC
		LIMIT $1 OFFSET $2
	`

	rows, err := r.db.QueryContext(ctx, query, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to list certificates: %w", err)
	}
	defer rows.Close()

	certificates := make([]*domain.Certificate, 0)
	for rows.Next() {
		certificate, err := scanCertificate(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan certificate: %w", err)
		}
		certificates = append(certificates, certificate)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate certificates: %w", err)
	}

	return certificates, nil
}

func scanCertificate(row rowScanner) (*domain.Certificate, error) {
	var certificate domain.Certificate
	var targetStr, valuationStr string

	if err := row.Scan(
		&certificate.ID,
		&certificate.Title,
		&targetStr,
		&valuationStr,
		&certificate.CreatedAt,
	); err != nil {
		return nil, err
	}

	// Parse target and valuation (NUMERIC)
	var err error
	if certificate.Target, err = domain.ParseDecimal("target", targetStr); err != nil {
		return nil, fmt.Errorf("failed to parse target: %w", err)
	}
	if certificate.Valuation, err = domain.ParseDecimal("valuation", valuationStr); err != nil {
		return nil, fmt.Errorf("failed to parse valuation: %w", err)
	}

	return &certificate, nil
}
