/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"commerce-service-go/internal/models"
)

func Load() (*models.Config, error) {
	cfg := &models.Config{}

	durations := []struct {
		key        string
		defaultVal time.Duration
		dst        *time.Duration
	}{
		{"DB_CONN_MAX_LIFETIME", 5 * time.Minute, &cfg.Database.ConnMaxLifetime},
		{"DB_CONN_MAX_IDLE_TIME", 30 * time.Second, &cfg.Database.ConnMaxIdleTime},
		{"DB_PING_TIMEOUT", 5 * time.Second, &cfg.Database.PingTimeout},
		{"STRIPE_TIMEOUT", 30 * time.Second, &cfg.Stripe.Timeout},
		{"STRIPE_WEBHOOK_TOLERANCE", 5 * time.Minute, &cfg.Stripe.WebhookTolerance},
		{"RETRY_INITIAL_INTERVAL", 4 * time.Second, &cfg.Retry.InitialInterval},
		{"RETRY_MAX_INTERVAL", 10 * time.Second, &cfg.Retry.MaxInterval},
		{"SERVER_SHUTDOWN_TIMEOUT", 15 * time.Second, &cfg.Server.ShutdownTimeout},
		{"WEBHOOK_EVENT_TTL", 24 * time.Hour, &cfg.Redis.EventTTL},
		{"WEBHOOK_CLEANUP_INTERVAL", 15 * time.Minute, &cfg.Redis.CleanupInterval},
		{"SWEEPER_POLLING_INTERVAL", 5 * time.Minute, &cfg.Sweeper.PollingInterval},
		{"SWEEPER_STALE_AFTER", 15 * time.Minute, &cfg.Sweeper.StaleAfter},
	}
	for _, d := range durations {
		value, err := getEnvDuration(d.key, d.defaultVal)
		if err != nil {
			return nil, err
		}
		*d.dst = value
	}

	sampleRatio, err := getEnvFloat("OTEL_SAMPLE_RATIO", 0.1)
	if err != nil {
		return nil, err
	}

	cfg.Database.Driver = strings.ToLower(getEnvString("DATABASE_DRIVER", "sqlite"))
	cfg.Database.Path = getEnvString("DATABASE_PATH", "commerce.db")
	cfg.Database.Url = getEnvString("DATABASE_URL", "")
	cfg.Database.MaxOpenConns = getEnvInt("DB_MAX_OPEN_CONNS", 25)
	cfg.Database.MaxIdleConns = getEnvInt("DB_MAX_IDLE_CONNS", 5)

	cfg.Stripe.ApiKey = getEnvString("STRIPE_SECRET_KEY", "")
	cfg.Stripe.WebhookSecret = getEnvString("STRIPE_WEBHOOK_SECRET", "")
	cfg.Stripe.Require3DS = getEnvBool("STRIPE_REQUIRE_3DS", true)

	cfg.Retry.MaxAttempts = getEnvInt("RETRY_MAX_ATTEMPTS", 3)

	cfg.Server.GrpcAddr = getEnvString("GRPC_ADDR", ":50051")
	cfg.Server.HttpAddr = getEnvString("HTTP_ADDR", ":8080")

	cfg.Redis.Addr = getEnvString("REDIS_ADDR", "")
	cfg.Redis.Password = getEnvString("REDIS_PASSWORD", "")
	cfg.Redis.DB = getEnvInt("REDIS_DB", 0)

	cfg.Sweeper.Enabled = getEnvBool("SWEEPER_ENABLED", true)
	cfg.Sweeper.BatchSize = getEnvInt("SWEEPER_BATCH_SIZE", 100)
	cfg.Sweeper.Concurrency = getEnvInt("SWEEPER_CONCURRENCY", 4)

	cfg.Otel = models.OtelConfig{
		Enabled:     getEnvBool("OTEL_ENABLED", false),
		ServiceName: getEnvString("OTEL_SERVICE_NAME", "commerce-service"),
		Environment: getEnvString("APP_ENV", "development"),
		Endpoint:    getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", ""),
		Insecure:    getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false),
		SampleRatio: sampleRatio,
	}

	defaults := models.DefaultPolicy()
	cfg.Policy = models.Policy{
		AllowedCurrencies: getEnvList("ALLOWED_CURRENCIES", defaults.AllowedCurrencies),
		MaxWishlistItems:  getEnvInt("MAX_WISHLIST_ITEMS", defaults.MaxWishlistItems),
		MaxSharedUsers:    getEnvInt("MAX_SHARED_USERS", defaults.MaxSharedUsers),
	}
	cfg.PolicyFile = getEnvString("POLICY_FILE", "")

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks settings that have no usable fallback
func Validate(cfg *models.Config) error {
	switch cfg.Database.Driver {
	case "sqlite":
		if cfg.Database.Path == "" {
			return fmt.Errorf("DATABASE_PATH is required for the sqlite driver")
		}
	case "postgres":
		if cfg.Database.Url == "" {
			return fmt.Errorf("DATABASE_URL is required for the postgres driver")
		}
	default:
		return fmt.Errorf("unsupported DATABASE_DRIVER %q (want sqlite or postgres)", cfg.Database.Driver)
	}

	if cfg.Retry.MaxAttempts < 1 {
		return fmt.Errorf("RETRY_MAX_ATTEMPTS must be at least 1, got %d", cfg.Retry.MaxAttempts)
	}
	if cfg.Retry.MaxInterval < cfg.Retry.InitialInterval {
		return fmt.Errorf("RETRY_MAX_INTERVAL (%s) is shorter than RETRY_INITIAL_INTERVAL (%s)",
			cfg.Retry.MaxInterval, cfg.Retry.InitialInterval)
	}
	if cfg.Redis.EventTTL <= 0 || cfg.Redis.CleanupInterval <= 0 {
		return fmt.Errorf("WEBHOOK_EVENT_TTL and WEBHOOK_CLEANUP_INTERVAL must be positive")
	}
	if cfg.Sweeper.Enabled {
		if cfg.Sweeper.PollingInterval <= 0 || cfg.Sweeper.StaleAfter <= 0 {
			return fmt.Errorf("SWEEPER_POLLING_INTERVAL and SWEEPER_STALE_AFTER must be positive")
		}
		if cfg.Sweeper.BatchSize < 1 || cfg.Sweeper.Concurrency < 1 {
			return fmt.Errorf("SWEEPER_BATCH_SIZE and SWEEPER_CONCURRENCY must be at least 1")
		}
	}
	return ValidatePolicy(cfg.Policy)
}

// ValidatePolicy rejects limits the wishlist and payment services cannot enforce
func ValidatePolicy(p models.Policy) error {
	if len(p.AllowedCurrencies) == 0 {
		return fmt.Errorf("at least one allowed currency is required")
	}
	for _, c := range p.AllowedCurrencies {
		if len(c) != 3 || strings.ToUpper(c) != c {
			return fmt.Errorf("invalid currency code %q (want 3 upper-case letters)", c)
		}
	}
	if p.MaxWishlistItems < 1 {
		return fmt.Errorf("max wishlist items must be positive, got %d", p.MaxWishlistItems)
	}
	if p.MaxSharedUsers < 1 {
		return fmt.Errorf("max shared users must be positive, got %d", p.MaxSharedUsers)
	}
	return nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvFloat(key string, defaultValue float64) (float64, error) {
	if value := os.Getenv(key); value != "" {
		f, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return 0, fmt.Errorf("invalid number for %s: %q (%w)", key, value, err)
		}
		return f, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvList splits a comma separated value, upper-casing each entry
func getEnvList(key string, defaultValue []string) []string {
	value := os.Getenv(key)
	if value == "" {
		return append([]string(nil), defaultValue...)
	}
	var out []string
	for _, part := range strings.Split(value, ",") {
		if part = strings.ToUpper(strings.TrimSpace(part)); part != "" {
			out = append(out, part)
		}
	}
	return out
}
