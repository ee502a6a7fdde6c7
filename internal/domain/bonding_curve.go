package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Precision is the number of significant digits kept by every curve result
// and by every intermediate division or root. Values of one or more keep
// Precision fractional digits; smaller values keep Precision digits after
// their leading zeros, so tiny positive results never round to zero.
const Precision int32 = 32

var (
	// TargetFraction is the fraction of shares considered fully sold when
	// calibrating a curve: selling this fraction raises exactly the target.
	TargetFraction = decimal.New(9, -1)

	// DefaultTarget is the fundraising goal (USD) used for previews before
	// the seller has entered one.
	DefaultTarget = decimal.NewFromInt(10000)

	// DefaultValuation is the starting valuation (USD) used for previews
	// before a certificate has one.
	DefaultValuation = decimal.NewFromInt(1000)

	// TotalShares is the fixed number of shares a certificate is split into.
	TotalShares = decimal.NewFromInt(1000)

	targetCube = TargetFraction.Mul(TargetFraction).Mul(TargetFraction)

	one   = decimal.NewFromInt(1)
	two   = decimal.NewFromInt(2)
	three = decimal.NewFromInt(3)
)

// ParseDecimal parses a caller-supplied decimal string.
// field names the value in the returned error.
func ParseDecimal(field, s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, fmt.Errorf("%s %q: %w", field, s, ErrNumericFormat)
	}
	return d, nil
}

// BondingCurve prices fractional certificate shares.
//
// The marginal valuation grows quadratically with the cumulative fraction
// sold, valuation(f) = k·f², so the cost of reaching f from zero is
// cost(f) = (k/3)·f³. The scale factor k is chosen so that selling
// TargetFraction of the shares costs exactly the target.
//
// A BondingCurve is immutable and safe for concurrent use.
type BondingCurve struct {
	target decimal.Decimal
	k      decimal.Decimal
}

// NewBondingCurve builds the curve for a fundraising target in USD.
// A zero or negative target has no meaningful curve and is rejected.
func NewBondingCurve(target decimal.Decimal) (BondingCurve, error) {
	if target.Sign() <= 0 {
		return BondingCurve{}, fmt.Errorf("%w: got %s", ErrInvalidTarget, target)
	}

	k := target.Mul(three).DivRound(targetCube, Precision)

	return BondingCurve{target: target, k: k}, nil
}

// Target returns the fundraising goal the curve was calibrated with.
func (c BondingCurve) Target() decimal.Decimal {
	return c.target
}

// ScaleFactor returns k = target·3 / TargetFraction³.
func (c BondingCurve) ScaleFactor() decimal.Decimal {
	return c.k
}

// ValuationAtFraction returns the marginal valuation k·f².
func (c BondingCurve) ValuationAtFraction(fraction decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("fraction", fraction); err != nil {
		return decimal.Zero, err
	}
	if fraction.IsZero() {
		return decimal.Zero, nil
	}

	return roundSignificant(c.k.Mul(fraction.Mul(fraction))), nil
}

// FractionAtValuation returns sqrt(valuation / k), the inverse of
// ValuationAtFraction.
func (c BondingCurve) FractionAtValuation(valuation decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("valuation", valuation); err != nil {
		return decimal.Zero, err
	}
	if valuation.IsZero() {
		return decimal.Zero, nil
	}

	fraction, err := root(divSignificant(valuation, c.k), two)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fraction at valuation %s: %w", valuation, err)
	}

	return roundSignificant(fraction), nil
}

// CostAtFraction returns (k/3)·f³, the USD spent to move from zero to
// fraction. It is evaluated as target·f³/TargetFraction³, which is the same
// polynomial but lands exactly on target at TargetFraction.
func (c BondingCurve) CostAtFraction(fraction decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("fraction", fraction); err != nil {
		return decimal.Zero, err
	}
	if fraction.IsZero() {
		return decimal.Zero, nil
	}

	cube := fraction.Mul(fraction).Mul(fraction)

	return divSignificant(c.target.Mul(cube), targetCube), nil
}

// FractionAtCost returns cbrt(3·cost / k), the inverse of CostAtFraction.
func (c BondingCurve) FractionAtCost(cost decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("cost", cost); err != nil {
		return decimal.Zero, err
	}
	if cost.IsZero() {
		return decimal.Zero, nil
	}

	ratio, err := root(divSignificant(cost, c.target), three)
	if err != nil {
		return decimal.Zero, fmt.Errorf("fraction at cost %s: %w", cost, err)
	}

	return roundSignificant(TargetFraction.Mul(ratio)), nil
}

// CostBetweenFractions returns the definite integral of the valuation
// between two fractions.
func (c BondingCurve) CostBetweenFractions(low, high decimal.Decimal) (decimal.Decimal, error) {
	if low.GreaterThan(high) {
		return decimal.Zero, fmt.Errorf("fractions [%s, %s]: %w", low, high, ErrInvertedRange)
	}

	costLow, err := c.CostAtFraction(low)
	if err != nil {
		return decimal.Zero, err
	}
	costHigh, err := c.CostAtFraction(high)
	if err != nil {
		return decimal.Zero, err
	}

	return costHigh.Sub(costLow), nil
}

// SizeBetweenCosts returns how much fraction separates two absolute costs.
func (c BondingCurve) SizeBetweenCosts(costLow, costHigh decimal.Decimal) (decimal.Decimal, error) {
	if costLow.GreaterThan(costHigh) {
		return decimal.Zero, fmt.Errorf("costs [%s, %s]: %w", costLow, costHigh, ErrInvertedRange)
	}

	low, err := c.FractionAtCost(costLow)
	if err != nil {
		return decimal.Zero, err
	}
	high, err := c.FractionAtCost(costHigh)
	if err != nil {
		return decimal.Zero, err
	}

	return high.Sub(low), nil
}

// ValuationOfSize returns the marginal valuation reached after buying size
// more of the shares, starting from the position of valuation.
func (c BondingCurve) ValuationOfSize(valuation, size decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("size", size); err != nil {
		return decimal.Zero, err
	}

	fraction, err := c.FractionAtValuation(valuation)
	if err != nil {
		return decimal.Zero, err
	}

	return c.ValuationAtFraction(fraction.Add(size))
}

// CostOfSize returns what buying size more of the shares costs, starting
// from the position of valuation.
func (c BondingCurve) CostOfSize(valuation, size decimal.Decimal) (decimal.Decimal, error) {
	return c.CostOfSizeWithOffset(valuation, size, decimal.Zero)
}

// CostOfSizeWithOffset is CostOfSize with the starting position shifted
// by offset, for pricing a purchase that follows another one.
func (c BondingCurve) CostOfSizeWithOffset(valuation, size, offset decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("size", size); err != nil {
		return decimal.Zero, err
	}

	position, err := c.position(valuation, offset)
	if err != nil {
		return decimal.Zero, err
	}

	return c.CostBetweenFractions(position, position.Add(size))
}

// SizeOfCost returns the fraction of shares a cost budget buys, starting
// from the position of valuation. It inverts CostOfSize.
func (c BondingCurve) SizeOfCost(valuation, cost decimal.Decimal) (decimal.Decimal, error) {
	return c.SizeOfCostWithOffset(valuation, cost, decimal.Zero)
}

// SizeOfCostWithOffset is SizeOfCost with the starting position shifted
// by offset.
func (c BondingCurve) SizeOfCostWithOffset(valuation, cost, offset decimal.Decimal) (decimal.Decimal, error) {
	if err := nonNegative("cost", cost); err != nil {
		return decimal.Zero, err
	}

	position, err := c.position(valuation, offset)
	if err != nil {
		return decimal.Zero, err
	}
	if cost.IsZero() {
		return decimal.Zero, nil
	}

	startCost, err := c.CostAtFraction(position)
	if err != nil {
		return decimal.Zero, err
	}
	end, err := c.FractionAtCost(startCost.Add(cost))
	if err != nil {
		return decimal.Zero, err
	}

	return end.Sub(position), nil
}

// position converts a valuation to its fraction and shifts it by offset.
func (c BondingCurve) position(valuation, offset decimal.Decimal) (decimal.Decimal, error) {
	fraction, err := c.FractionAtValuation(valuation)
	if err != nil {
		return decimal.Zero, err
	}

	position := fraction.Add(offset)
	if position.IsNegative() {
		return decimal.Zero, fmt.Errorf("position %s (offset %s): %w", position, offset, ErrNegativeInput)
	}

	return position, nil
}

// root returns the n-th root of a non-negative decimal using the decimal
// library's fractional power.
func root(d, n decimal.Decimal) (decimal.Decimal, error) {
	switch {
	case d.IsNegative():
		return decimal.Zero, fmt.Errorf("root of %s: %w", d, ErrNegativeInput)
	case d.IsZero():
		return decimal.Zero, nil
	case d.Equal(one):
		return one, nil
	}

	exponent := one.DivRound(n, Precision)
	d = roundSignificant(d)
	r, err := d.PowWithPrecision(exponent, decimalPlaces(d))
	if err != nil {
		return decimal.Zero, fmt.Errorf("root of %s: %w", d, err)
	}

	return r, nil
}

// magnitude returns the position of the leading digit relative to the
// decimal point: 3 for 123.4, 0 for 0.5, -2 for 0.00123.
func magnitude(d decimal.Decimal) int32 {
	return int32(d.NumDigits()) + d.Exponent()
}

// decimalPlaces returns how many fractional digits keep Precision
// significant digits of d.
func decimalPlaces(d decimal.Decimal) int32 {
	if m := magnitude(d); m < 0 {
		return Precision - m
	}
	return Precision
}

func roundSignificant(d decimal.Decimal) decimal.Decimal {
	return d.Round(decimalPlaces(d))
}

// divSignificant divides n by d keeping Precision significant digits of a
// quotient below one.
func divSignificant(n, d decimal.Decimal) decimal.Decimal {
	places := Precision
	if m := magnitude(n) - magnitude(d) - 1; m < 0 {
		places -= m
	}
	return n.DivRound(d, places)
}

func nonNegative(field string, d decimal.Decimal) error {
	if d.IsNegative() {
		return fmt.Errorf("%s %s: %w", field, d, ErrNegativeInput)
	}
	return nil
}
