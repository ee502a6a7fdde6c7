package grpc

import (
	"context"

	"google.golang.org/grpc"
	"google.golang.org/protobuf/types/known/structpb"
)

// ServiceName is the fully qualified name of the pricing service
const ServiceName = "bondcurve.v1.PricingService"

// Full method names, as seen by interceptors and clients
const (
	PreviewMethod           = "/" + ServiceName + "/Preview"
	QuotePurchaseMethod     = "/" + ServiceName + "/QuotePurchase"
	QuoteBudgetMethod       = "/" + ServiceName + "/QuoteBudget"
	CreateCertificateMethod = "/" + ServiceName + "/CreateCertificate"
	GetCertificateMethod    = "/" + ServiceName + "/GetCertificate"
	ListQuotesMethod        = "/" + ServiceName + "/ListQuotes"
)

// PricingServiceServer is the server API for the pricing service.
// Requests and responses are google.protobuf.Struct messages whose decimal
// fields are carried as strings.
type PricingServiceServer interface {
	Preview(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QuotePurchase(context.Context, *structpb.Struct) (*structpb.Struct, error)
	QuoteBudget(context.Context, *structpb.Struct) (*structpb.Struct, error)
	CreateCertificate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	GetCertificate(context.Context, *structpb.Struct) (*structpb.Struct, error)
	ListQuotes(context.Context, *structpb.Struct) (*structpb.Struct, error)
}

// PricingServiceDesc describes the pricing service to grpc.Server.
// No .proto file backs it, so Metadata names no descriptor and the server
// does not register reflection.
var PricingServiceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*PricingServiceServer)(nil),
	Methods: []grpc.MethodDesc{
		{MethodName: "Preview", Handler: unaryHandler(PreviewMethod, PricingServiceServer.Preview)},
		{MethodName: "QuotePurchase", Handler: unaryHandler(QuotePurchaseMethod, PricingServiceServer.QuotePurchase)},
		{MethodName: "QuoteBudget", Handler: unaryHandler(QuoteBudgetMethod, PricingServiceServer.QuoteBudget)},
		{MethodName: "CreateCertificate", Handler: unaryHandler(CreateCertificateMethod, PricingServiceServer.CreateCertificate)},
		{MethodName: "GetCertificate", Handler: unaryHandler(GetCertificateMethod, PricingServiceServer.GetCertificate)},
		{MethodName: "ListQuotes", Handler: unaryHandler(ListQuotesMethod, PricingServiceServer.ListQuotes)},
	},
	Streams: []grpc.StreamDesc{},
}

// RegisterPricingServiceServer registers srv on s
func RegisterPricingServiceServer(s grpc.ServiceRegistrar, srv PricingServiceServer) {
	s.RegisterService(&PricingServiceDesc, srv)
}

type unaryMethod func(PricingServiceServer, context.Context, *structpb.Struct) (*structpb.Struct, error)

func unaryHandler(fullMethod string, call unaryMethod) func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
	return func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
		in := new(structpb.Struct)
		if err := dec(in); err != nil {
			return nil, err
		}
		if interceptor == nil {
			return call(srv.(PricingServiceServer), ctx, in)
		}

		info := &grpc.UnaryServerInfo{
			Server:     srv,
			FullMethod: fullMethod,
		}
		handler := func(ctx context.Context, req any) (any, error) {
			return call(srv.(PricingServiceServer), ctx, req.(*structpb.Struct))
		}
		return interceptor(ctx, in, info, handler)
	}
}
