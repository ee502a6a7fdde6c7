package domain

import (
	"context"

	"github.com/google/uuid"
)

// CertificateRepository defines the interface for certificate persistence operations
type CertificateRepository interface {
	// GetByID retrieves a certificate by its ID
	// Returns an error wrapping ErrNotFound if it does not exist
	GetByID(ctx context.Context, id uuid.UUID) (*Certificate, error)

	// Create creates a new certificate
	Create(ctx context.Context, certificate *Certificate) error

	// List retrieves certificates ordered by creation date, newest first
	List(ctx context.Context, limit, offset int) ([]*Certificate, error)
}

// QuoteRepository defines the interface for quote history persistence operations
type QuoteRepository interface {
	// Add stores a new quote
	Add(ctx context.Context, quote *Quote) error

	// ListByCertificate retrieves the most recent quotes for a certificate
	ListByCertificate(ctx context.Context, certificateID uuid.UUID, limit int) ([]*Quote, error)
}
