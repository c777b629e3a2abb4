package api

import (
	"context"

	"google.golang.org/grpc"
)

// Client calls the commerce RPC service using the JSON codec
type Client struct {
	conn grpc.ClientConnInterface
}

func NewClient(conn grpc.ClientConnInterface) *Client {
	return &Client{conn: conn}
}

func invoke[Resp any](ctx context.Context, c *Client, method string, req any, opts []grpc.CallOption) (*Resp, error) {
	out := new(Resp)
	opts = append([]grpc.CallOption{grpc.CallContentSubtype(codecName)}, opts...)
	if err := c.conn.Invoke(ctx, fullMethod(method), req, out, opts...); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) HealthCheck(ctx context.Context, req *HealthCheckRequest, opts ...grpc.CallOption) (*HealthCheckResponse, error) {
	return invoke[HealthCheckResponse](ctx, c, "HealthCheck", req, opts)
}

func (c *Client) CreateWishlist(ctx context.Context, req *CreateWishlistRequest, opts ...grpc.CallOption) (*WishlistResponse, error) {
	return invoke[WishlistResponse](ctx, c, "CreateWishlist", req, opts)
}

func (c *Client) GetWishlist(ctx context.Context, req *GetWishlistRequest, opts ...grpc.CallOption) (*WishlistResponse, error) {
	return invoke[WishlistResponse](ctx, c, "GetWishlist", req, opts)
}

func (c *Client) ListWishlists(ctx context.Context, req *ListWishlistsRequest, opts ...grpc.CallOption) (*ListWishlistsResponse, error) {
	return invoke[ListWishlistsResponse](ctx, c, "ListWishlists", req, opts)
}

func (c *Client) AddWishlistItem(ctx context.Context, req *AddWishlistItemRequest, opts ...grpc.CallOption) (*WishlistResponse, error) {
	return invoke[WishlistResponse](ctx, c, "AddWishlistItem", req, opts)
}

func (c *Client) ShareWishlist(ctx context.Context, req *ShareWishlistRequest, opts ...grpc.CallOption) (*WishlistResponse, error) {
	return invoke[WishlistResponse](ctx, c, "ShareWishlist", req, opts)
}

func (c *Client) UpdateWishlist(ctx context.Context, req *UpdateWishlistRequest, opts ...grpc.CallOption) (*WishlistResponse, error) {
	return invoke[WishlistResponse](ctx, c, "UpdateWishlist", req, opts)
}

func (c *Client) DeleteWishlist(ctx context.Context, req *DeleteWishlistRequest, opts ...grpc.CallOption) (*DeleteWishlistResponse, error) {
	return invoke[DeleteWishlistResponse](ctx, c, "DeleteWishlist", req, opts)
}

func (c *Client) CreatePaymentIntent(ctx context.Context, req *CreatePaymentIntentRequest, opts ...grpc.CallOption) (*PaymentIntentResponse, error) {
	return invoke[PaymentIntentResponse](ctx, c, "CreatePaymentIntent", req, opts)
}

func (c *Client) GetPaymentStatus(ctx context.Context, req *GetPaymentStatusRequest, opts ...grpc.CallOption) (*PaymentStatusResponse, error) {
	return invoke[PaymentStatusResponse](ctx, c, "GetPaymentStatus", req, opts)
}

func (c *Client) RefundPayment(ctx context.Context, req *RefundPaymentRequest, opts ...grpc.CallOption) (*PurchaseResponse, error) {
	return invoke[PurchaseResponse](ctx, c, "RefundPayment", req, opts)
}
