package domain

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Certificate is an impact certificate whose shares are sold along a
// bonding curve calibrated by its fundraising target.
type Certificate struct {
	ID        uuid.UUID
	Title     string
	Target    decimal.Decimal // USD raised once TargetFraction of the shares are sold
	Valuation decimal.Decimal // Current marginal valuation; zero before the first sale
	CreatedAt time.Time
}

// Validate ensures the certificate adheres to domain rules
func (c *Certificate) Validate() error {
	if strings.TrimSpace(c.Title) == "" {
		return fmt.Errorf("%w: certificate title cannot be empty", ErrInvalidInput)
	}

	curve, err := c.Curve()
	if err != nil {
		return err
	}

	if c.Valuation.IsNegative() {
		return fmt.Errorf("%w: certificate valuation %s", ErrNegativeInput, c.Valuation)
	}

	// A valuation above the curve's value at 100% sold has no reachable position
	maxValuation, err := curve.ValuationAtFraction(one)
	if err != nil {
		return err
	}
	if c.Valuation.GreaterThan(maxValuation) {
		return fmt.Errorf("%w: certificate valuation %s exceeds maximum %s",
			ErrInvalidInput, c.Valuation, maxValuation.StringFixed(2))
	}

	return nil
}

// Curve returns the bonding curve calibrated by the certificate's target
func (c *Certificate) Curve() (BondingCurve, error) {
	return NewBondingCurve(c.Target)
}

// SoldFraction returns the fraction of shares already sold, derived from
// the current valuation
func (c *Certificate) SoldFraction() (decimal.Decimal, error) {
	curve, err := c.Curve()
	if err != nil {
		return decimal.Zero, err
	}
	return curve.FractionAtValuation(c.Valuation)
}

// FractionToShares converts a fraction of the certificate into a share count
func FractionToShares(fraction decimal.Decimal) decimal.Decimal {
	return fraction.Mul(TotalShares)
}
