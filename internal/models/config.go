package models

import "time"

// Config represents the application configuration
type Config struct {
	Database DatabaseConfig
	Stripe   StripeConfig
	Retry    RetryConfig
	Server   ServerConfig
	Redis    RedisConfig
	Otel     OtelConfig
	Sweeper  SweeperConfig
	Policy   Policy
	// PolicyFile, when set, names a YAML file overriding Policy
	PolicyFile string
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Driver          string // "sqlite" or "postgres"
	Path            string
	Url             string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// StripeConfig holds payment processor credentials and call settings.
// Loaded once at startup and never mutated.
type StripeConfig struct {
	ApiKey           string
	WebhookSecret    string
	Timeout          time.Duration
	WebhookTolerance time.Duration
	Require3DS       bool
}

// RetryConfig controls retries of transient processor failures
type RetryConfig struct {
	MaxAttempts     int
	InitialInterval time.Duration
	MaxInterval     time.Duration
}

// ServerConfig holds listener addresses for the RPC and webhook servers
type ServerConfig struct {
	GrpcAddr        string
	HttpAddr        string
	ShutdownTimeout time.Duration
}

// RedisConfig enables the shared webhook event deduper when Addr is set.
// Without Addr an in-memory deduper swept every CleanupInterval is used.
type RedisConfig struct {
	Addr            string
	Password        string
	DB              int
	EventTTL        time.Duration
	CleanupInterval time.Duration
}

// SweeperConfig controls the background poll that reconciles purchases whose
// webhook never arrived
type SweeperConfig struct {
	Enabled         bool
	PollingInterval time.Duration
	StaleAfter      time.Duration
	BatchSize       int
	Concurrency     int
}

// OtelConfig controls tracing and metrics export. Disabled installs nothing.
type OtelConfig struct {
	Enabled     bool
	ServiceName string
	Environment string
	Endpoint    string
	Insecure    bool
	SampleRatio float64
}

// Policy holds the static business limits
type Policy struct {
	AllowedCurrencies []string `yaml:"allowed_currencies"`
	MaxWishlistItems  int      `yaml:"max_wishlist_items"`
	MaxSharedUsers    int      `yaml:"max_shared_users"`
}

// DefaultPolicy returns the built-in limits
func DefaultPolicy() Policy {
	return Policy{
		AllowedCurrencies: []string{"USD", "EUR", "GBP"},
		MaxWishlistItems:  50,
		MaxSharedUsers:    50,
	}
}

// CurrencyAllowed reports whether code is in the allow-list. Comparison is exact;
// callers upper-case input first.
func (p Policy) CurrencyAllowed(code string) bool {
	for _, c := range p.AllowedCurrencies {
		if c == code {
			return true
		}
	}
	return false
}
