package api

import (
	"context"
	"path"
	"time"

	"commerce-service-go/internal/observability"

	"go.opentelemetry.io/contrib/instrumentation/google.golang.org/grpc/otelgrpc"
	"google.golang.org/grpc"
	"google.golang.org/grpc/status"
)

// ServiceName is the fully qualified RPC service name
const ServiceName = "commerce.v1.CommerceService"

// CommerceServer is the server API for the commerce RPC service
type CommerceServer interface {
	HealthCheck(context.Context, *HealthCheckRequest) (*HealthCheckResponse, error)
	CreateWishlist(context.Context, *CreateWishlistRequest) (*WishlistResponse, error)
	GetWishlist(context.Context, *GetWishlistRequest) (*WishlistResponse, error)
	ListWishlists(context.Context, *ListWishlistsRequest) (*ListWishlistsResponse, error)
	AddWishlistItem(context.Context, *AddWishlistItemRequest) (*WishlistResponse, error)
	ShareWishlist(context.Context, *ShareWishlistRequest) (*WishlistResponse, error)
	UpdateWishlist(context.Context, *UpdateWishlistRequest) (*WishlistResponse, error)
	DeleteWishlist(context.Context, *DeleteWishlistRequest) (*DeleteWishlistResponse, error)
	CreatePaymentIntent(context.Context, *CreatePaymentIntentRequest) (*PaymentIntentResponse, error)
	GetPaymentStatus(context.Context, *GetPaymentStatusRequest) (*PaymentStatusResponse, error)
	RefundPayment(context.Context, *RefundPaymentRequest) (*PurchaseResponse, error)
}

func fullMethod(method string) string {
	return "/" + ServiceName + "/" + method
}

func unaryMethod[Req, Resp any](name string, call func(CommerceServer, context.Context, *Req) (*Resp, error)) grpc.MethodDesc {
	return grpc.MethodDesc{
		MethodName: name,
		Handler: func(srv any, ctx context.Context, dec func(any) error, interceptor grpc.UnaryServerInterceptor) (any, error) {
			in := new(Req)
			if err := dec(in); err != nil {
				return nil, err
			}
			handler := func(ctx context.Context, req any) (any, error) {
				return call(srv.(CommerceServer), ctx, req.(*Req))
			}
			if interceptor == nil {
				return handler(ctx, in)
			}
			info := &grpc.UnaryServerInfo{Server: srv, FullMethod: fullMethod(name)}
			return interceptor(ctx, in, info, handler)
		},
	}
}

var serviceDesc = grpc.ServiceDesc{
	ServiceName: ServiceName,
	HandlerType: (*CommerceServer)(nil),
	Methods: []grpc.MethodDesc{
		unaryMethod("HealthCheck", CommerceServer.HealthCheck),
		unaryMethod("CreateWishlist", CommerceServer.CreateWishlist),
		unaryMethod("GetWishlist", CommerceServer.GetWishlist),
		unaryMethod("ListWishlists", CommerceServer.ListWishlists),
		unaryMethod("AddWishlistItem", CommerceServer.AddWishlistItem),
		unaryMethod("ShareWishlist", CommerceServer.ShareWishlist),
		unaryMethod("UpdateWishlist", CommerceServer.UpdateWishlist),
		unaryMethod("DeleteWishlist", CommerceServer.DeleteWishlist),
		unaryMethod("CreatePaymentIntent", CommerceServer.CreatePaymentIntent),
		unaryMethod("GetPaymentStatus", CommerceServer.GetPaymentStatus),
		unaryMethod("RefundPayment", CommerceServer.RefundPayment),
	},
	Streams:  []grpc.StreamDesc{},
	Metadata: "commerce/v1/commerce.proto",
}

// RegisterCommerceServer registers srv on s
func RegisterCommerceServer(s grpc.ServiceRegistrar, srv CommerceServer) {
	s.RegisterService(&serviceDesc, srv)
}

// MetricsInterceptor records a request count and latency for every unary call
func MetricsInterceptor(m *observability.Metrics) grpc.UnaryServerInterceptor {
	return func(ctx context.Context, req any, info *grpc.UnaryServerInfo, handler grpc.UnaryHandler) (any, error) {
		start := time.Now()
		resp, err := handler(ctx, req)
		m.Record(ctx, path.Base(info.FullMethod), status.Code(err).String(), time.Since(start))
		return resp, err
	}
}

// NewServer builds a gRPC server with tracing and metrics and registers srv
func NewServer(srv CommerceServer, metrics *observability.Metrics) *grpc.Server {
	server := grpc.NewServer(
		grpc.StatsHandler(otelgrpc.NewServerHandler()),
		grpc.ChainUnaryInterceptor(MetricsInterceptor(metrics)),
	)
	RegisterCommerceServer(server, srv)
	return server
}
