package config

import (
	"testing"
	"time"

	"commerce-service-go/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	for _, key := range []string{"DATABASE_DRIVER", "DATABASE_PATH", "RETRY_MAX_ATTEMPTS", "ALLOWED_CURRENCIES", "STRIPE_TIMEOUT", "POLICY_FILE", "SWEEPER_ENABLED", "SWEEPER_STALE_AFTER"} {
		t.Setenv(key, "")
	}

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Database.Driver)
	assert.Equal(t, "commerce.db", cfg.Database.Path)
	assert.Equal(t, 30*time.Second, cfg.Stripe.Timeout)
	assert.Equal(t, 5*time.Minute, cfg.Stripe.WebhookTolerance)
	assert.True(t, cfg.Stripe.Require3DS)
	assert.Equal(t, 3, cfg.Retry.MaxAttempts)
	assert.Equal(t, 4*time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, 10*time.Second, cfg.Retry.MaxInterval)
	assert.Equal(t, models.DefaultPolicy(), cfg.Policy)
	assert.Empty(t, cfg.PolicyFile)
	assert.True(t, cfg.Sweeper.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Sweeper.StaleAfter)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("DATABASE_DRIVER", "Postgres")
	t.Setenv("DATABASE_URL", "postgres://localhost/commerce")
	t.Setenv("RETRY_MAX_ATTEMPTS", "5")
	t.Setenv("RETRY_INITIAL_INTERVAL", "1s")
	t.Setenv("RETRY_MAX_INTERVAL", "2s")
	t.Setenv("ALLOWED_CURRENCIES", "usd, jpy")
	t.Setenv("MAX_WISHLIST_ITEMS", "10")
	t.Setenv("OTEL_ENABLED", "true")
	t.Setenv("OTEL_SAMPLE_RATIO", "0.5")
	t.Setenv("POLICY_FILE", "policy.yaml")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Database.Driver)
	assert.Equal(t, "postgres://localhost/commerce", cfg.Database.Url)
	assert.Equal(t, 5, cfg.Retry.MaxAttempts)
	assert.Equal(t, time.Second, cfg.Retry.InitialInterval)
	assert.Equal(t, []string{"USD", "JPY"}, cfg.Policy.AllowedCurrencies)
	assert.Equal(t, 10, cfg.Policy.MaxWishlistItems)
	assert.True(t, cfg.Otel.Enabled)
	assert.Equal(t, 0.5, cfg.Otel.SampleRatio)
	assert.Equal(t, "policy.yaml", cfg.PolicyFile)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{"bad duration", map[string]string{"STRIPE_TIMEOUT": "soon"}},
		{"bad float", map[string]string{"OTEL_SAMPLE_RATIO": "half"}},
		{"unknown driver", map[string]string{"DATABASE_DRIVER": "mysql"}},
		{"postgres without url", map[string]string{"DATABASE_DRIVER": "postgres", "DATABASE_URL": ""}},
		{"zero attempts", map[string]string{"RETRY_MAX_ATTEMPTS": "0"}},
		{"inverted intervals", map[string]string{"RETRY_INITIAL_INTERVAL": "20s", "RETRY_MAX_INTERVAL": "10s"}},
		{"bad currency", map[string]string{"ALLOWED_CURRENCIES": "DOLLARS"}},
		{"zero items", map[string]string{"MAX_WISHLIST_ITEMS": "0"}},
		{"zero event ttl", map[string]string{"WEBHOOK_EVENT_TTL": "0s"}},
		{"zero sweeper batch", map[string]string{"SWEEPER_ENABLED": "true", "SWEEPER_BATCH_SIZE": "0"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestValidatePolicy(t *testing.T) {
	assert.NoError(t, ValidatePolicy(models.DefaultPolicy()))
	assert.Error(t, ValidatePolicy(models.Policy{MaxWishlistItems: 1, MaxSharedUsers: 1}))
	assert.Error(t, ValidatePolicy(models.Policy{AllowedCurrencies: []string{"usd"}, MaxWishlistItems: 1, MaxSharedUsers: 1}))
	assert.Error(t, ValidatePolicy(models.Policy{AllowedCurrencies: []string{"USD"}, MaxWishlistItems: 1}))
}
