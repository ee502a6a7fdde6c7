package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// QuoteKind represents what the buyer fixed when asking for a quote
type QuoteKind string

const (
	QuoteKindPurchase QuoteKind = "PURCHASE" // Size fixed, cost computed
	QuoteKindBudget   QuoteKind = "BUDGET"   // Cost fixed, size computed
)

// Quote is a priced share purchase on a certificate's curve.
// Quotes are informational: they do not reserve shares or move money.
type Quote struct {
	ID            uuid.UUID
	CertificateID uuid.UUID
	Kind          QuoteKind
	Valuation     decimal.Decimal // Marginal valuation the purchase starts from
	Offset        decimal.Decimal // Extra fraction skipped before the purchase starts
	Size          decimal.Decimal // Fraction of the certificate bought
	Cost          decimal.Decimal // USD paid for Size
	NewValuation  decimal.Decimal // Marginal valuation after the purchase
	Shares        decimal.Decimal // Size expressed in shares, for display
	CreatedAt     time.Time
}

// Validate ensures the quote adheres to domain rules
func (q *Quote) Validate() error {
	if q.CertificateID == uuid.Nil {
		return fmt.Errorf("%w: quote must reference a certificate", ErrInvalidInput)
	}

	if q.Kind != QuoteKindPurchase && q.Kind != QuoteKindBudget {
		return fmt.Errorf("%w: quote kind must be PURCHASE or BUDGET", ErrInvalidInput)
	}

	for name, v := range map[string]decimal.Decimal{
		"valuation":     q.Valuation,
		"size":          q.Size,
		"cost":          q.Cost,
		"new valuation": q.NewValuation,
		"shares":        q.Shares,
	} {
		if v.IsNegative() {
			return fmt.Errorf("%w: quote %s %s", ErrNegativeInput, name, v)
		}
	}

	if q.NewValuation.LessThan(q.Valuation) {
		return fmt.Errorf("%w: quote new valuation %s is below starting valuation %s",
			ErrInvalidInput, q.NewValuation, q.Valuation)
	}

	return nil
}
