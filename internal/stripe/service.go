package stripe

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/payment"

	stripesdk "github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
	"github.com/stripe/stripe-go/v76/webhook"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

// Compile-time check: *Service must satisfy payment.Processor.
var _ payment.Processor = (*Service)(nil)

// Service is the Stripe implementation of payment.Processor
type Service struct {
	api              *client.API
	webhookSecret    string
	webhookTolerance time.Duration
}

func NewService(cfg models.StripeConfig) (*Service, error) {
	if cfg.ApiKey == "" {
		return nil, fmt.Errorf("stripe api key cannot be empty")
	}
	if cfg.WebhookSecret == "" {
		return nil, fmt.Errorf("stripe webhook secret cannot be empty")
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return newService(cfg, &stripesdk.BackendConfig{
		HTTPClient: httpClient,
		// Retries are owned by payment.RetryPolicy
		MaxNetworkRetries: stripesdk.Int64(0),
		LeveledLogger:     &stripesdk.LeveledLogger{Level: stripesdk.LevelError},
	}), nil
}

func newService(cfg models.StripeConfig, backendCfg *stripesdk.BackendConfig) *Service {
	backends := &stripesdk.Backends{
		API:     stripesdk.GetBackendWithConfig(stripesdk.APIBackend, backendCfg),
		Connect: stripesdk.GetBackendWithConfig(stripesdk.ConnectBackend, backendCfg),
		Uploads: stripesdk.GetBackendWithConfig(stripesdk.UploadsBackend, backendCfg),
	}

	tolerance := cfg.WebhookTolerance
	if tolerance <= 0 {
		tolerance = webhook.DefaultTolerance
	}

	return &Service{
		api:              client.New(cfg.ApiKey, backends),
		webhookSecret:    cfg.WebhookSecret,
		webhookTolerance: tolerance,
	}
}

func createCustomHttpClient(timeout time.Duration) (*http.Client, error) {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: timeout,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return nil, err
	}

	return &http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

// classify marks errors worth retrying with models.ErrProcessorUnavailable
func classify(operation string, err error) error {
	var stripeErr *stripesdk.Error
	if errors.As(err, &stripeErr) {
		if stripeErr.HTTPStatusCode >= http.StatusInternalServerError || stripeErr.HTTPStatusCode == http.StatusTooManyRequests {
			return fmt.Errorf("%w: %s: %v", models.ErrProcessorUnavailable, operation, err)
		}
		return fmt.Errorf("unable to %s: %w", operation, err)
	}
	if errors.Is(err, context.Canceled) {
		return fmt.Errorf("unable to %s: %w", operation, err)
	}
	// Network errors and timeouts never reached a decision at the processor
	return fmt.Errorf("%w: %s: %v", models.ErrProcessorUnavailable, operation, err)
}

func (s *Service) CreateIntent(ctx context.Context, amountMinor int64, currency, idempotencyKey string, require3DS bool, metadata map[string]string) (*models.PaymentIntent, error) {
	threeDS := "automatic"
	if require3DS {
		threeDS = "any"
	}

	params := &stripesdk.PaymentIntentParams{
		Amount:   stripesdk.Int64(amountMinor),
		Currency: stripesdk.String(strings.ToLower(currency)),
		AutomaticPaymentMethods: &stripesdk.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripesdk.Bool(true),
		},
		PaymentMethodOptions: &stripesdk.PaymentIntentPaymentMethodOptionsParams{
			Card: &stripesdk.PaymentIntentPaymentMethodOptionsCardParams{
				RequestThreeDSecure: stripesdk.String(threeDS),
			},
		},
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	intent, err := s.api.PaymentIntents.New(params)
	if err != nil {
		return nil, classify("create payment intent", err)
	}

	zap.L().Info("Payment intent created",
		zap.String("payment_intent_id", intent.ID),
		zap.String("status", string(intent.Status)))

	return &models.PaymentIntent{
		Id:           intent.ID,
		Status:       string(intent.Status),
		ClientSecret: intent.ClientSecret,
	}, nil
}

func (s *Service) CreateRefund(ctx context.Context, paymentIntentId, idempotencyKey string) (*models.Refund, error) {
	params := &stripesdk.RefundParams{
		PaymentIntent: stripesdk.String(paymentIntentId),
	}
	params.Context = ctx
	params.SetIdempotencyKey(idempotencyKey)

	refund, err := s.api.Refunds.New(params)
	if err != nil {
		return nil, classify("create refund", err)
	}

	zap.L().Info("Refund created",
		zap.String("refund_id", refund.ID),
		zap.String("payment_intent_id", paymentIntentId),
		zap.String("status", string(refund.Status)))

	return &models.Refund{
		Id:              refund.ID,
		PaymentIntentId: paymentIntentId,
		Status:          string(refund.Status),
	}, nil
}

func (s *Service) GetIntent(ctx context.Context, paymentIntentId string) (*models.PaymentIntent, error) {
	params := &stripesdk.PaymentIntentParams{}
	params.Context = ctx

	intent, err := s.api.PaymentIntents.Get(paymentIntentId, params)
	if err != nil {
		return nil, classify("get payment intent", err)
	}
	return &models.PaymentIntent{Id: intent.ID, Status: string(intent.Status)}, nil
}

// VerifyEvent checks the Stripe-Signature header and flattens the event
func (s *Service) VerifyEvent(payload []byte, signature string) (*models.ProcessorEvent, error) {
	event, err := webhook.ConstructEventWithOptions(payload, signature, s.webhookSecret, webhook.ConstructEventOptions{
		Tolerance:                s.webhookTolerance,
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrSignatureInvalid, err)
	}

	ev := &models.ProcessorEvent{Id: event.ID, Type: string(event.Type)}
	if event.Data != nil {
		ev.ObjectStatus = stringField(event.Data.Object, "status")
		ev.PaymentIntentId = intentReference(string(event.Type), event.Data.Object)
	}
	return ev, nil
}

// intentReference finds the payment intent an event's data object belongs to
func intentReference(eventType string, object map[string]interface{}) string {
	if strings.HasPrefix(eventType, "payment_intent.") {
		return stringField(object, "id")
	}
	switch ref := object["payment_intent"].(type) {
	case string:
		return ref
	case map[string]interface{}:
		return stringField(ref, "id")
	}
	return ""
}

func stringField(object map[string]interface{}, key string) string {
	if v, ok := object[key].(string); ok {
		return v
	}
	return ""
}
