package domain

import "errors"

var (
	// ErrInvalidInput is the parent of every caller-side validation failure.
	ErrInvalidInput = errors.New("invalid input")

	// ErrNumericFormat is returned when a value cannot be parsed as a decimal.
	ErrNumericFormat = errors.New("invalid decimal format")

	// ErrInvalidTarget is returned when a curve is built from a non-positive target.
	ErrInvalidTarget = errors.New("target must be positive")

	// ErrNegativeInput is returned for negative fractions, valuations, costs or sizes.
	ErrNegativeInput = errors.New("value must not be negative")

	// ErrInvertedRange is returned when a range has its low bound above its high bound.
	ErrInvertedRange = errors.New("range low bound exceeds high bound")

	// ErrExceedsSupply is returned when a quote would sell past 100% of the shares.
	ErrExceedsSupply = errors.New("quote exceeds remaining share supply")

	// ErrNotFound is returned by repositories when a row does not exist.
	ErrNotFound = errors.New("not found")
)

// IsInvalidInput reports whether err is a caller-side validation failure.
func IsInvalidInput(err error) bool {
	return errors.Is(err, ErrInvalidInput) ||
		errors.Is(err, ErrNumericFormat) ||
		errors.Is(err, ErrInvalidTarget) ||
		errors.Is(err, ErrNegativeInput) ||
		errors.Is(err, ErrInvertedRange)
}
