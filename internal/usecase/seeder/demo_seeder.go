package seeder

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/simaogato/bondcurve-backend/internal/domain"
)

// Fixed UUIDs for the demo certificates so that reseeding is idempotent
var (
	DEMO_UNSOLD    = uuid.MustParse("00000000-0000-0000-0000-000000000001")
	DEMO_HALF_SOLD = uuid.MustParse("00000000-0000-0000-0000-000000000002")
)

// DemoCertificate defines a certificate to be seeded
type DemoCertificate struct {
	ID        uuid.UUID
	Title     string
	Target    decimal.Decimal
	Valuation decimal.Decimal
}

// DemoCertificates are the certificates created by DemoSeeder
var DemoCertificates = []DemoCertificate{
	{
		ID:        DEMO_UNSOLD,
		Title:     "Demo: nothing sold yet",
		Target:    domain.DefaultTarget,
		Valuation: decimal.Zero,
	},
	{
		// k = 3000, so a valuation of 750 sits at 50% sold
		ID:        DEMO_HALF_SOLD,
		Title:     "Demo: half sold",
		Target:    decimal.NewFromInt(729),
		Valuation: decimal.NewFromInt(750),
	},
}

// DemoSeeder handles seeding of demo certificates for local development
type DemoSeeder struct {
	repo domain.CertificateRepository
	now  func() time.Time
}

// NewDemoSeeder creates a new DemoSeeder instance
func NewDemoSeeder(repo domain.CertificateRepository) *DemoSeeder {
	return &DemoSeeder{
		repo: repo,
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Seed ensures every demo certificate exists. Existing certificates are
// left untouched. It returns how many certificates were created.
func (s *DemoSeeder) Seed(ctx context.Context) (int, error) {
	created := 0

	for _, demo := range DemoCertificates {
		_, err := s.repo.GetByID(ctx, demo.ID)
		if err == nil {
			continue
		}
		if !errors.Is(err, domain.ErrNotFound) {
			return created, err
		}

		certificate := &domain.Certificate{
			ID:        demo.ID,
			Title:     demo.Title,
			Target:    demo.Target,
			Valuation: demo.Valuation,
			CreatedAt: s.now(),
		}

		// Validate before creating
		if err := certificate.Validate(); err != nil {
			return created, err
		}

		if err := s.repo.Create(ctx, certificate); err != nil {
			return created, err
		}
		created++
	}

	return created, nil
}
