package api

import (
	"context"
	"errors"
	"fmt"
	"net"
	"testing"
	"time"

	"commerce-service-go/internal/database"
	"commerce-service-go/internal/models"
	"commerce-service-go/internal/observability"
	"commerce-service-go/internal/payment"
	"commerce-service-go/internal/purchase"
	"commerce-service-go/internal/wishlist"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"google.golang.org/grpc"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/credentials/insecure"
	"google.golang.org/grpc/status"
	"google.golang.org/grpc/test/bufconn"
)

type stubProcessor struct {
	seq int
}

func (s *stubProcessor) CreateIntent(_ context.Context, _ int64, _, _ string, _ bool, _ map[string]string) (*models.PaymentIntent, error) {
	s.seq++
	id := fmt.Sprintf("pi_api_%d", s.seq)
	return &models.PaymentIntent{Id: id, Status: "requires_payment_method", ClientSecret: id + "_secret"}, nil
}

func (s *stubProcessor) CreateRefund(_ context.Context, intentId, _ string) (*models.Refund, error) {
	return &models.Refund{Id: "re_api_1", PaymentIntentId: intentId, Status: "succeeded"}, nil
}

func (s *stubProcessor) GetIntent(_ context.Context, intentId string) (*models.PaymentIntent, error) {
	return &models.PaymentIntent{Id: intentId, Status: "requires_payment_method"}, nil
}

func (s *stubProcessor) VerifyEvent(_ []byte, _ string) (*models.ProcessorEvent, error) {
	return nil, models.ErrSignatureInvalid
}

type testEnv struct {
	client *Client
	db     *database.Service
	reader *sdkmetric.ManualReader
}

func setupTestEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.NewService(ctx, models.DatabaseConfig{
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
		PingTimeout:  time.Second,
	})
	require.NoError(t, err)
	t.Cleanup(db.Close)

	policy := models.DefaultPolicy()
	wishlists := wishlist.NewService(db, wishlist.LimitsFromPolicy(policy))
	payments := payment.NewService(db, &stubProcessor{}, payment.Options{
		Policy: policy,
		Retry: payment.RetryPolicy{
			MaxAttempts:     1,
			InitialInterval: time.Millisecond,
			MaxInterval:     time.Millisecond,
			AttemptTimeout:  time.Second,
		},
		Require3DS: true,
	})

	reader := sdkmetric.NewManualReader()
	metrics, err := observability.NewMetrics(sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)).Meter("test"))
	require.NoError(t, err)

	lis := bufconn.Listen(1 << 20)
	server := NewServer(NewCommerceService(db, wishlists, payments), metrics)
	go func() { _ = server.Serve(lis) }()
	t.Cleanup(server.Stop)

	conn, err := grpc.NewClient("passthrough:///bufnet",
		grpc.WithContextDialer(func(ctx context.Context, _ string) (net.Conn, error) {
			return lis.DialContext(ctx)
		}),
		grpc.WithTransportCredentials(insecure.NewCredentials()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	return &testEnv{client: NewClient(conn), db: db, reader: reader}
}

func requireCode(t *testing.T, err error, code codes.Code) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, code, status.Code(err), "error: %v", err)
}

func TestHealthCheck(t *testing.T) {
	env := setupTestEnv(t)

	resp, err := env.client.HealthCheck(context.Background(), &HealthCheckRequest{})
	require.NoError(t, err)
	assert.Equal(t, "ok", resp.Status)
}

func TestWishlistLifecycle(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()
	userId := uuid.New().String()

	created, err := env.client.CreateWishlist(ctx, &CreateWishlistRequest{UserId: userId, Name: "  Gift List  "})
	require.NoError(t, err)
	assert.Equal(t, "Gift List", created.Name)
	assert.Equal(t, "private", created.Visibility)
	assert.Equal(t, int64(1), created.Version)

	withItem, err := env.client.AddWishlistItem(ctx, &AddWishlistItemRequest{
		WishlistId:      created.Id,
		ExpectedVersion: 1,
		ProductId:       "P1",
		Name:            "Item 1",
		Price:           "10.00",
		Currency:        "usd",
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), withItem.Version)
	require.Len(t, withItem.Items, 1)
	assert.Equal(t, "USD", withItem.Items[0].Currency)

	friend := uuid.New().String()
	shared, err := env.client.ShareWishlist(ctx, &ShareWishlistRequest{
		WishlistId:      created.Id,
		ExpectedVersion: 2,
		UserIds:         []string{friend},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(3), shared.Version)
	assert.Equal(t, "shared", shared.Visibility)
	assert.Equal(t, []string{friend}, shared.SharedWith)

	got, err := env.client.GetWishlist(ctx, &GetWishlistRequest{WishlistId: created.Id})
	require.NoError(t, err)
	assert.Equal(t, int64(3), got.Version)

	listed, err := env.client.ListWishlists(ctx, &ListWishlistsRequest{UserId: userId})
	require.NoError(t, err)
	require.Len(t, listed.Wishlists, 1)

	newName := "Birthday"
	updated, err := env.client.UpdateWishlist(ctx, &UpdateWishlistRequest{
		WishlistId:      created.Id,
		ExpectedVersion: 3,
		Name:            &newName,
	})
	require.NoError(t, err)
	assert.Equal(t, "Birthday", updated.Name)
	assert.Equal(t, int64(4), updated.Version)

	deleted, err := env.client.DeleteWishlist(ctx, &DeleteWishlistRequest{WishlistId: created.Id, ExpectedVersion: 4})
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)

	_, err = env.client.GetWishlist(ctx, &GetWishlistRequest{WishlistId: created.Id})
	requireCode(t, err, codes.NotFound)
}

func TestWishlistStatusMapping(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.client.CreateWishlist(ctx, &CreateWishlistRequest{UserId: uuid.New().String(), Name: "List"})
	require.NoError(t, err)

	item := &AddWishlistItemRequest{
		WishlistId:      created.Id,
		ExpectedVersion: 1,
		ProductId:       "P1",
		Name:            "Item",
		Price:           "5",
		Currency:        "EUR",
	}
	_, err = env.client.AddWishlistItem(ctx, item)
	require.NoError(t, err)

	t.Run("stale version is aborted", func(t *testing.T) {
		_, err := env.client.AddWishlistItem(ctx, item)
		requireCode(t, err, codes.Aborted)
	})

	t.Run("duplicate item is invalid argument", func(t *testing.T) {
		dup := *item
		dup.ExpectedVersion = 2
		_, err := env.client.AddWishlistItem(ctx, &dup)
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("malformed id is invalid argument", func(t *testing.T) {
		_, err := env.client.GetWishlist(ctx, &GetWishlistRequest{WishlistId: "not-a-uuid"})
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown visibility is invalid argument", func(t *testing.T) {
		_, err := env.client.CreateWishlist(ctx, &CreateWishlistRequest{UserId: uuid.New().String(), Name: "x", Visibility: "secret"})
		requireCode(t, err, codes.InvalidArgument)
	})

	t.Run("unknown wishlist is not found", func(t *testing.T) {
		_, err := env.client.GetWishlist(ctx, &GetWishlistRequest{WishlistId: uuid.New().String()})
		requireCode(t, err, codes.NotFound)
	})
}

func TestPaymentFlow(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	created, err := env.client.CreatePaymentIntent(ctx, &CreatePaymentIntentRequest{
		UserId:   uuid.New().String(),
		Amount:   "99.99",
		Currency: "USD",
		Metadata: map[string]string{"cvv": "123", "order": "A-1"},
	})
	require.NoError(t, err)
	assert.Equal(t, "pending", created.Status)
	assert.Equal(t, "pi_api_1", created.PaymentIntentId)
	assert.Equal(t, "pi_api_1_secret", created.ClientSecret)

	st, err := env.client.GetPaymentStatus(ctx, &GetPaymentStatusRequest{PurchaseId: created.PurchaseId})
	require.NoError(t, err)
	assert.Equal(t, "pending", st.Purchase.Status)
	assert.Equal(t, "requires_payment_method", st.ProcessorStatus)
	assert.Equal(t, models.RedactedValue, st.Purchase.Metadata["cvv"])
	assert.Equal(t, "A-1", st.Purchase.Metadata["order"])

	_, err = env.client.RefundPayment(ctx, &RefundPaymentRequest{PurchaseId: created.PurchaseId})
	requireCode(t, err, codes.InvalidArgument)

	id := uuid.MustParse(created.PurchaseId)
	_, err = env.db.UpdatePurchase(ctx, id, func(p *models.Purchase) (bool, error) {
		now := time.Now().UTC()
		if err := purchase.Transition(p, models.PurchaseStatusProcessing, "Payment processing", now); err != nil {
			return false, err
		}
		return true, purchase.Transition(p, models.PurchaseStatusCompleted, "Payment succeeded", now)
	})
	require.NoError(t, err)

	refunded, err := env.client.RefundPayment(ctx, &RefundPaymentRequest{PurchaseId: created.PurchaseId})
	require.NoError(t, err)
	assert.Equal(t, "refunded", refunded.Status)
	assert.Equal(t, "Refund processed: re_api_1", refunded.StatusReason)
}

func TestPaymentStatusMapping(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.client.CreatePaymentIntent(ctx, &CreatePaymentIntentRequest{
		UserId: uuid.New().String(), Amount: "10", Currency: "XYZ",
	})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.CreatePaymentIntent(ctx, &CreatePaymentIntentRequest{
		UserId: uuid.New().String(), Amount: "ten", Currency: "USD",
	})
	requireCode(t, err, codes.InvalidArgument)

	_, err = env.client.GetPaymentStatus(ctx, &GetPaymentStatusRequest{PurchaseId: uuid.New().String()})
	requireCode(t, err, codes.NotFound)
}

func TestRequestMetrics(t *testing.T) {
	env := setupTestEnv(t)
	ctx := context.Background()

	_, err := env.client.HealthCheck(ctx, &HealthCheckRequest{})
	require.NoError(t, err)
	_, err = env.client.GetWishlist(ctx, &GetWishlistRequest{WishlistId: uuid.New().String()})
	require.Error(t, err)

	var rm metricdata.ResourceMetrics
	require.NoError(t, env.reader.Collect(ctx, &rm))

	seen := map[string]int64{}
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != "commerce_requests_total" {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok)
			for _, dp := range sum.DataPoints {
				method, _ := dp.Attributes.Value("method")
				code, _ := dp.Attributes.Value("status")
				seen[method.AsString()+"/"+code.AsString()] += dp.Value
			}
		}
	}
	assert.Equal(t, int64(1), seen["HealthCheck/OK"])
	assert.Equal(t, int64(1), seen["GetWishlist/NotFound"])
}

func TestToStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		code codes.Code
		msg  string
	}{
		{"invalid input", fmt.Errorf("%w: bad", models.ErrInvalidInput), codes.InvalidArgument, ""},
		{"invalid transition", models.ErrInvalidTransition, codes.InvalidArgument, ""},
		{"missing reason", models.ErrMissingReason, codes.InvalidArgument, ""},
		{"item limit", models.ErrItemLimitExceeded, codes.InvalidArgument, ""},
		{"share limit", models.ErrShareLimitExceeded, codes.InvalidArgument, ""},
		{"not refundable", models.ErrNotRefundable, codes.InvalidArgument, ""},
		{"not found", models.ErrNotFound, codes.NotFound, ""},
		{"version conflict", models.ErrVersionConflict, codes.Aborted, ""},
		{"persistence", fmt.Errorf("%w: disk full at /var/db", models.ErrPersistence), codes.Internal, internalErrorDetail},
		{"processor", models.ErrProcessorUnavailable, codes.Internal, internalErrorDetail},
		{"unclassified", errors.New("boom"), codes.Internal, internalErrorDetail},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st, ok := status.FromError(toStatus(tt.err))
			require.True(t, ok)
			assert.Equal(t, tt.code, st.Code())
			if tt.msg != "" {
				assert.Equal(t, tt.msg, st.Message())
			}
		})
	}

	assert.NoError(t, toStatus(nil))
}
