package grpc

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
	"google.golang.org/protobuf/types/known/structpb"

	"github.com/simaogato/bondcurve-backend/internal/domain"
	"github.com/simaogato/bondcurve-backend/internal/metrics"
	"github.com/simaogato/bondcurve-backend/internal/ratelimit"
	"github.com/simaogato/bondcurve-backend/internal/usecase/pricing"
)

// Server implements the PricingService gRPC server
type Server struct {
	PricingService *pricing.PricingService

	metrics *metrics.Registry
}

var _ PricingServiceServer = (*Server)(nil)

// NewServer creates a new gRPC server instance. registry may be nil.
func NewServer(pricingService *pricing.PricingService, registry *metrics.Registry) *Server {
	return &Server{
		PricingService: pricingService,
		metrics:        registry,
	}
}

// NewGRPCServer builds a grpc.Server with the interceptor chain and the
// pricing service registered. registry may be nil.
func NewGRPCServer(
	cfg Config,
	srv *Server,
	limiter *ratelimit.Limiter,
	registry *metrics.Registry,
	logger *zerolog.Logger,
	opts ...grpc.ServerOption,
) *grpc.Server {
	interceptors := []grpc.UnaryServerInterceptor{}
	if registry != nil {
		interceptors = append(interceptors, MetricsInterceptor(registry))
	}
	interceptors = append(interceptors,
		LoggingInterceptor(logger),
		RecoveryInterceptor(logger),
		RateLimitInterceptor(limiter),
		AuthInterceptor(cfg.APIToken),
	)

	opts = append(opts, grpc.ChainUnaryInterceptor(interceptors...))
	grpcServer := grpc.NewServer(opts...)
	RegisterPricingServiceServer(grpcServer, srv)

	return grpcServer
}

// Preview handles the Preview RPC
func (s *Server) Preview(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := optionalDecimal(req, "target")
	if err != nil {
		return nil, mapError(err)
	}
	valuation, err := optionalDecimal(req, "valuation")
	if err != nil {
		return nil, mapError(err)
	}
	size, err := decimalField(req, "size")
	if err != nil {
		return nil, mapError(err)
	}

	result, err := s.PricingService.Preview(pricing.PreviewInput{
		Target:    target,
		Valuation: valuation,
		Size:      size,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return newResponse(map[string]any{
		"target":        result.Target.String(),
		"valuation":     result.Valuation.String(),
		"max_valuation": result.MaxValuation.String(),
		"max_fundraise": result.MaxFundraise.String(),
		"size":          result.Size.String(),
		"cost":          result.Cost.String(),
		"new_valuation": result.NewValuation.String(),
		"shares":        result.Shares.String(),
	})
}

// QuotePurchase handles the QuotePurchase RPC
func (s *Server) QuotePurchase(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	certificateID, err := uuidField(req, "certificate_id")
	if err != nil {
		return nil, mapError(err)
	}
	size, err := requiredDecimal(req, "size")
	if err != nil {
		return nil, mapError(err)
	}
	offset, err := decimalField(req, "offset")
	if err != nil {
		return nil, mapError(err)
	}

	quote, err := s.PricingService.QuotePurchase(ctx, pricing.QuotePurchaseInput{
		CertificateID: certificateID,
		Size:          size,
		Offset:        offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.observeQuote(quote)
	return newResponse(quoteFields(quote))
}

// QuoteBudget handles the QuoteBudget RPC
func (s *Server) QuoteBudget(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	certificateID, err := uuidField(req, "certificate_id")
	if err != nil {
		return nil, mapError(err)
	}
	budget, err := requiredDecimal(req, "budget")
	if err != nil {
		return nil, mapError(err)
	}
	offset, err := decimalField(req, "offset")
	if err != nil {
		return nil, mapError(err)
	}

	quote, err := s.PricingService.QuoteBudget(ctx, pricing.QuoteBudgetInput{
		CertificateID: certificateID,
		Budget:        budget,
		Offset:        offset,
	})
	if err != nil {
		return nil, mapError(err)
	}

	s.observeQuote(quote)
	return newResponse(quoteFields(quote))
}

// CreateCertificate handles the CreateCertificate RPC
func (s *Server) CreateCertificate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	target, err := requiredDecimal(req, "target")
	if err != nil {
		return nil, mapError(err)
	}
	valuation, err := decimalField(req, "valuation")
	if err != nil {
		return nil, mapError(err)
	}

	certificate, err := s.PricingService.CreateCertificate(ctx, pricing.CreateCertificateInput{
		Title:     stringField(req, "title"),
		Target:    target,
		Valuation: valuation,
	})
	if err != nil {
		return nil, mapError(err)
	}

	return certificateResponse(certificate)
}

// GetCertificate handles the GetCertificate RPC
func (s *Server) GetCertificate(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	certificateID, err := uuidField(req, "certificate_id")
	if err != nil {
		return nil, mapError(err)
	}

	certificate, err := s.PricingService.GetCertificate(ctx, certificateID)
	if err != nil {
		return nil, mapError(err)
	}

	return certificateResponse(certificate)
}

// ListQuotes handles the ListQuotes RPC
func (s *Server) ListQuotes(ctx context.Context, req *structpb.Struct) (*structpb.Struct, error) {
	certificateID, err := uuidField(req, "certificate_id")
	if err != nil {
		return nil, mapError(err)
	}
	limit, err := intField(req, "limit", 20)
	if err != nil {
		return nil, mapError(err)
	}

	quotes, err := s.PricingService.ListQuotes(ctx, certificateID, limit)
	if err != nil {
		return nil, mapError(err)
	}

	items := make([]any, 0, len(quotes))
	for _, q := range quotes {
		items = append(items, quoteFields(q))
	}

	return newResponse(map[string]any{
		"certificate_id": certificateID.String(),
		"quotes":         items,
	})
}

func (s *Server) observeQuote(q *domain.Quote) {
	if s.metrics != nil {
		s.metrics.ObserveQuote(string(q.Kind))
	}
}

func certificateResponse(c *domain.Certificate) (*structpb.Struct, error) {
	fields, err := certificateFields(c)
	if err != nil {
		return nil, mapError(err)
	}
	return newResponse(fields)
}

func newResponse(fields map[string]any) (*structpb.Struct, error) {
	resp, err := structpb.NewStruct(fields)
	if err != nil {
		return nil, status.Errorf(codes.Internal, "encode response: %v", err)
	}
	return resp, nil
}

// mapError converts domain errors to gRPC status errors
func mapError(err error) error {
	if err == nil {
		return nil
	}

	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return status.FromContextError(err).Err()
	case errors.Is(err, domain.ErrNotFound):
		return status.Error(codes.NotFound, err.Error())
	case errors.Is(err, domain.ErrExceedsSupply):
		return status.Error(codes.FailedPrecondition, err.Error())
	case domain.IsInvalidInput(err):
		return status.Error(codes.InvalidArgument, err.Error())
	default:
		return status.Error(codes.Internal, err.Error())
	}
}
