package domain

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCertificate_Validate(t *testing.T) {
	tests := []struct {
		name        string
		certificate Certificate
		wantErr     error
		errMsg      string
	}{
		{
			name: "Fresh certificate with zero valuation should pass",
			certificate: Certificate{
				ID:        uuid.New(),
				Title:     "Malaria nets distribution 2024",
				Target:    decimal.NewFromInt(1000),
				Valuation: decimal.Zero,
				CreatedAt: time.Now(),
			},
		},
		{
			name: "Certificate with valuation at the maximum should pass",
			certificate: Certificate{
				ID:    uuid.New(),
				Title: "Open source audit",
				// k = 729 * 3 / 0.729 = 3000, so valuation at fraction 1.0 is 3000
				Target:    decimal.NewFromInt(729),
				Valuation: decimal.NewFromInt(3000),
			},
		},
		{
			name: "Empty title should fail",
			certificate: Certificate{
				ID:     uuid.New(),
				Title:  "   ",
				Target: decimal.NewFromInt(1000),
			},
			wantErr: ErrInvalidInput,
			errMsg:  "certificate title cannot be empty",
		},
		{
			name: "Zero target should fail",
			certificate: Certificate{
				ID:     uuid.New(),
				Title:  "Degenerate",
				Target: decimal.Zero,
			},
			wantErr: ErrInvalidTarget,
			errMsg:  "target must be positive",
		},
		{
			name: "Negative valuation should fail",
			certificate: Certificate{
				ID:        uuid.New(),
				Title:     "Negative",
				Target:    decimal.NewFromInt(1000),
				Valuation: decimal.NewFromInt(-5),
			},
			wantErr: ErrNegativeInput,
			errMsg:  "certificate valuation -5",
		},
		{
			name: "Valuation above the maximum should fail",
			certificate: Certificate{
				ID:        uuid.New(),
				Title:     "Overvalued",
				Target:    decimal.NewFromInt(729),
				Valuation: decimal.RequireFromString("3000.01"),
			},
			wantErr: ErrInvalidInput,
			errMsg:  "exceeds maximum 3000.00",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.certificate.Validate()
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), tt.errMsg)
				assert.True(t, IsInvalidInput(err))
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCertificate_SoldFraction(t *testing.T) {
	// k = 3000, valuation 750 = 3000 * 0.5^2
	certificate := Certificate{
		Title:     "Half sold",
		Target:    decimal.NewFromInt(729),
		Valuation: decimal.NewFromInt(750),
	}

	fraction, err := certificate.SoldFraction()
	require.NoError(t, err)
	assertClose(t, decimal.RequireFromString("0.5"), fraction)

	unsold := Certificate{Title: "Unsold", Target: decimal.NewFromInt(729)}
	fraction, err = unsold.SoldFraction()
	require.NoError(t, err)
	assert.True(t, fraction.IsZero())
}

func TestFractionToShares(t *testing.T) {
	assert.True(t, FractionToShares(decimal.RequireFromString("0.35")).Equal(decimal.NewFromInt(350)))
	assert.True(t, FractionToShares(decimal.Zero).IsZero())
}
