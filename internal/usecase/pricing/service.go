package pricing

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"github.com/simaogato/bondcurve-backend/internal/domain"
)

// MaxQuoteListLimit caps how many quotes ListQuotes returns
const MaxQuoteListLimit = 100

var fullSupply = decimal.NewFromInt(1)

// PreviewInput represents the seller's form values for a curve preview.
// Nil Target or Valuation fall back to domain.DefaultTarget and
// domain.DefaultValuation.
type PreviewInput struct {
	Target    *decimal.Decimal
	Valuation *decimal.Decimal
	Size      decimal.Decimal // Optional purchase to price from Valuation
}

// PreviewResult is what a curve looks like for the given form values
type PreviewResult struct {
	Target       decimal.Decimal
	Valuation    decimal.Decimal
	MaxValuation decimal.Decimal // Marginal valuation once 100% of the shares are sold
	MaxFundraise decimal.Decimal // Total USD raised once 100% of the shares are sold
	Size         decimal.Decimal
	Cost         decimal.Decimal
	NewValuation decimal.Decimal
	Shares       decimal.Decimal
}

// QuotePurchaseInput represents a request to price a fixed share size
type QuotePurchaseInput struct {
	CertificateID uuid.UUID
	Size          decimal.Decimal // Fraction of the certificate to buy
	Offset        decimal.Decimal // Fraction already committed ahead of this purchase
}

// QuoteBudgetInput represents a request to price a fixed USD budget
type QuoteBudgetInput struct {
	CertificateID uuid.UUID
	Budget        decimal.Decimal
	Offset        decimal.Decimal
}

// CreateCertificateInput represents the input for registering a certificate
type CreateCertificateInput struct {
	Title     string
	Target    decimal.Decimal
	Valuation decimal.Decimal
}

// PricingService prices certificate shares along their bonding curves
type PricingService struct {
	CertificateRepo domain.CertificateRepository
	QuoteRepo       domain.QuoteRepository

	logger *zerolog.Logger
	now    func() time.Time
}

// NewPricingService creates a new PricingService instance
func NewPricingService(
	certificateRepo domain.CertificateRepository,
	quoteRepo domain.QuoteRepository,
	logger *zerolog.Logger,
) *PricingService {
	return &PricingService{
		CertificateRepo: certificateRepo,
		QuoteRepo:       quoteRepo,
		logger:          logger,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

// Preview computes the form preview for a prospective certificate.
// It touches no repository.
func (s *PricingService) Preview(input PreviewInput) (*PreviewResult, error) {
	target := domain.DefaultTarget
	if input.Target != nil {
		target = *input.Target
	}
	valuation := domain.DefaultValuation
	if input.Valuation != nil {
		valuation = *input.Valuation
	}

	curve, err := domain.NewBondingCurve(target)
	if err != nil {
		return nil, err
	}

	maxValuation, err := curve.ValuationAtFraction(fullSupply)
	if err != nil {
		return nil, err
	}
	maxFundraise, err := curve.CostAtFraction(fullSupply)
	if err != nil {
		return nil, err
	}

	result := &PreviewResult{
		Target:       target,
		Valuation:    valuation,
		MaxValuation: maxValuation,
		MaxFundraise: maxFundraise,
		Size:         input.Size,
		Cost:         decimal.Zero,
		NewValuation: valuation,
		Shares:       domain.FractionToShares(input.Size),
	}

	if valuation.IsNegative() {
		return nil, fmt.Errorf("%w: preview valuation %s", domain.ErrNegativeInput, valuation)
	}
	if input.Size.IsNegative() {
		return nil, fmt.Errorf("%w: preview size %s", domain.ErrNegativeInput, input.Size)
	}

	// Without a purchase there is no position to check against the supply
	if input.Size.IsZero() {
		return result, nil
	}
	if err := checkSupply(curve, valuation, decimal.Zero, input.Size); err != nil {
		return nil, err
	}

	if result.Cost, err = curve.CostOfSize(valuation, input.Size); err != nil {
		return nil, err
	}
	if result.NewValuation, err = curve.ValuationOfSize(valuation, input.Size); err != nil {
		return nil, err
	}

	return result, nil
}

// QuotePurchase prices buying input.Size of a certificate from its current
// valuation and records the quote
func (s *PricingService) QuotePurchase(ctx context.Context, input QuotePurchaseInput) (*domain.Quote, error) {
	// Validate input
	if input.Size.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: purchase size must be positive", domain.ErrInvalidInput)
	}
	if input.Offset.IsNegative() {
		return nil, fmt.Errorf("%w: offset %s", domain.ErrNegativeInput, input.Offset)
	}

	certificate, curve, err := s.loadCurve(ctx, input.CertificateID)
	if err != nil {
		return nil, err
	}

	if err := checkSupply(curve, certificate.Valuation, input.Offset, input.Size); err != nil {
		return nil, err
	}

	cost, err := curve.CostOfSizeWithOffset(certificate.Valuation, input.Size, input.Offset)
	if err != nil {
		return nil, err
	}

	return s.record(ctx, certificate, curve, domain.QuoteKindPurchase, input.Offset, input.Size, cost)
}

// QuoteBudget prices how much of a certificate input.Budget buys from its
// current valuation and records the quote
func (s *PricingService) QuoteBudget(ctx context.Context, input QuoteBudgetInput) (*domain.Quote, error) {
	// Validate input
	if input.Budget.LessThanOrEqual(decimal.Zero) {
		return nil, fmt.Errorf("%w: budget must be positive", domain.ErrInvalidInput)
	}
	if input.Offset.IsNegative() {
		return nil, fmt.Errorf("%w: offset %s", domain.ErrNegativeInput, input.Offset)
	}

	certificate, curve, err := s.loadCurve(ctx, input.CertificateID)
	if err != nil {
		return nil, err
	}

	size, err := curve.SizeOfCostWithOffset(certificate.Valuation, input.Budget, input.Offset)
	if err != nil {
		return nil, err
	}

	if err := checkSupply(curve, certificate.Valuation, input.Offset, size); err != nil {
		return nil, err
	}

	return s.record(ctx, certificate, curve, domain.QuoteKindBudget, input.Offset, size, input.Budget)
}

// CreateCertificate registers a certificate with its fundraising target
func (s *PricingService) CreateCertificate(ctx context.Context, input CreateCertificateInput) (*domain.Certificate, error) {
	certificate := &domain.Certificate{
		ID:        uuid.New(),
		Title:     input.Title,
		Target:    input.Target,
		Valuation: input.Valuation,
		CreatedAt: s.now(),
	}

	if err := certificate.Validate(); err != nil {
		return nil, err
	}

	if err := s.CertificateRepo.Create(ctx, certificate); err != nil {
		return nil, err
	}

	s.logger.Info().
		Str("certificate_id", certificate.ID.String()).
		Str("target", certificate.Target.String()).
		Msg("certificate created")

	return certificate, nil
}

// GetCertificate retrieves a certificate by its ID
func (s *PricingService) GetCertificate(ctx context.Context, id uuid.UUID) (*domain.Certificate, error) {
	return s.CertificateRepo.GetByID(ctx, id)
}

// ListQuotes returns the most recent quotes for a certificate
func (s *PricingService) ListQuotes(ctx context.Context, certificateID uuid.UUID, limit int) ([]*domain.Quote, error) {
	if limit <= 0 || limit > MaxQuoteListLimit {
		return nil, fmt.Errorf("%w: limit must be between 1 and %d", domain.ErrInvalidInput, MaxQuoteListLimit)
	}

	// Verify certificate exists so unknown IDs surface as not found
	if _, err := s.CertificateRepo.GetByID(ctx, certificateID); err != nil {
		return nil, err
	}

	return s.QuoteRepo.ListByCertificate(ctx, certificateID, limit)
}

func (s *PricingService) loadCurve(ctx context.Context, id uuid.UUID) (*domain.Certificate, domain.BondingCurve, error) {
	certificate, err := s.CertificateRepo.GetByID(ctx, id)
	if err != nil {
		return nil, domain.BondingCurve{}, err
	}

	curve, err := certificate.Curve()
	if err != nil {
		return nil, domain.BondingCurve{}, fmt.Errorf("certificate %s: %w", id, err)
	}

	return certificate, curve, nil
}

// record builds, validates and stores a quote
func (s *PricingService) record(
	ctx context.Context,
	certificate *domain.Certificate,
	curve domain.BondingCurve,
	kind domain.QuoteKind,
	offset, size, cost decimal.Decimal,
) (*domain.Quote, error) {
	newValuation, err := curve.ValuationOfSize(certificate.Valuation, offset.Add(size))
	if err != nil {
		return nil, err
	}

	quote := &domain.Quote{
		ID:            uuid.New(),
		CertificateID: certificate.ID,
		Kind:          kind,
		Valuation:     certificate.Valuation,
		Offset:        offset,
		Size:          size,
		Cost:          cost,
		NewValuation:  newValuation,
		Shares:        domain.FractionToShares(size),
		CreatedAt:     s.now(),
	}

	if err := quote.Validate(); err != nil {
		return nil, err
	}

	if err := s.QuoteRepo.Add(ctx, quote); err != nil {
		return nil, err
	}

	s.logger.Debug().
		Str("certificate_id", certificate.ID.String()).
		Str("kind", string(kind)).
		Str("size", size.String()).
		Str("cost", cost.String()).
		Msg("quote priced")

	return quote, nil
}

// checkSupply rejects purchases that would end past 100% of the shares
func checkSupply(curve domain.BondingCurve, valuation, offset, size decimal.Decimal) error {
	start, err := curve.FractionAtValuation(valuation)
	if err != nil {
		return err
	}

	end := start.Add(offset).Add(size)
	if end.GreaterThan(fullSupply) {
		remaining := decimal.Max(decimal.Zero, fullSupply.Sub(start).Sub(offset))
		return fmt.Errorf("%w: purchase ends at fraction %s, only %s remains",
			domain.ErrExceedsSupply, end.StringFixed(4), remaining.StringFixed(4))
	}

	return nil
}
