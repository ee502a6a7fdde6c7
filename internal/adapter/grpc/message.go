package grpc

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bondcurve-backend/internal/domain"
)

// optionalDecimal reads a decimal field. Missing, null or blank fields
// yield nil. Numbers are accepted alongside strings for hand-written
// clients.
func optionalDecimal(req *structpb.Struct, field string) (*decimal.Decimal, error) {
	v, ok := req.GetFields()[field]
	if !ok {
		return nil, nil
	}

	switch kind := v.GetKind().(type) {
	case *structpb.Value_NullValue:
		return nil, nil
	case *structpb.Value_StringValue:
		if strings.TrimSpace(kind.StringValue) == "" {
			return nil, nil
		}
		d, err := domain.ParseDecimal(field, kind.StringValue)
		if err != nil {
			return nil, err
		}
		return &d, nil
	case *structpb.Value_NumberValue:
		if math.IsNaN(kind.NumberValue) || math.IsInf(kind.NumberValue, 0) {
			return nil, fmt.Errorf("%s %v: %w", field, kind.NumberValue, domain.ErrNumericFormat)
		}
		d := decimal.NewFromFloat(kind.NumberValue)
		return &d, nil
	default:
		return nil, fmt.Errorf("%s must be a decimal string: %w", field, domain.ErrNumericFormat)
	}
}

// decimalField reads a decimal field that defaults to zero
func decimalField(req *structpb.Struct, field string) (decimal.Decimal, error) {
	d, err := optionalDecimal(req, field)
	if err != nil || d == nil {
		return decimal.Zero, err
	}
	return *d, nil
}

// requiredDecimal reads a decimal field that must be present
func requiredDecimal(req *structpb.Struct, field string) (decimal.Decimal, error) {
	d, err := optionalDecimal(req, field)
	if err != nil {
		return decimal.Zero, err
	}
	if d == nil {
		return decimal.Zero, fmt.Errorf("%w: %s is required", domain.ErrInvalidInput, field)
	}
	return *d, nil
}

func uuidField(req *structpb.Struct, field string) (uuid.UUID, error) {
	raw := req.GetFields()[field].GetStringValue()
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: invalid %s format: %v", domain.ErrInvalidInput, field, err)
	}
	return id, nil
}

func stringField(req *structpb.Struct, field string) string {
	return req.GetFields()[field].GetStringValue()
}

// intField reads a whole number field, returning def when it is absent
func intField(req *structpb.Struct, field string, def int) (int, error) {
	v, ok := req.GetFields()[field]
	if !ok {
		return def, nil
	}
	if _, isNull := v.GetKind().(*structpb.Value_NullValue); isNull {
		return def, nil
	}

	n, isNumber := v.GetKind().(*structpb.Value_NumberValue)
	if !isNumber || n.NumberValue != math.Trunc(n.NumberValue) || math.Abs(n.NumberValue) > math.MaxInt32 {
		return 0, fmt.Errorf("%w: %s must be a whole number", domain.ErrInvalidInput, field)
	}
	return int(n.NumberValue), nil
}

func formatTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}

// certificateFields converts a domain Certificate to response fields
func certificateFields(c *domain.Certificate) (map[string]any, error) {
	curve, err := c.Curve()
	if err != nil {
		return nil, err
	}
	sold, err := curve.FractionAtValuation(c.Valuation)
	if err != nil {
		return nil, err
	}
	maxValuation, err := curve.ValuationAtFraction(decimal.NewFromInt(1))
	if err != nil {
		return nil, err
	}

	return map[string]any{
		"id":            c.ID.String(),
		"title":         c.Title,
		"target":        c.Target.String(),
		"valuation":     c.Valuation.String(),
		"sold_fraction": sold.String(),
		"shares_sold":   domain.FractionToShares(sold).String(),
		"max_valuation": maxValuation.String(),
		"created_at":    formatTime(c.CreatedAt),
	}, nil
}

// quoteFields converts a domain Quote to response fields
func quoteFields(q *domain.Quote) map[string]any {
	return map[string]any{
		"id":             q.ID.String(),
		"certificate_id": q.CertificateID.String(),
		"kind":           string(q.Kind),
		"valuation":      q.Valuation.String(),
		"offset":         q.Offset.String(),
		"size":           q.Size.String(),
		"cost":           q.Cost.String(),
		"new_valuation":  q.NewValuation.String(),
		"shares":         q.Shares.String(),
		"created_at":     formatTime(q.CreatedAt),
	}
}
