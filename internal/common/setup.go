package common

import (
	"context"
	"fmt"
	"log"
	"strings"

	"commerce-service-go/internal/database"
	"commerce-service-go/internal/models"
	"commerce-service-go/internal/payment"
	"commerce-service-go/internal/postgres"
	"commerce-service-go/internal/store"
	"commerce-service-go/internal/stripe"
	"commerce-service-go/internal/webhook"
	"commerce-service-go/internal/wishlist"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// init loads environment variables from .env file if it exists
func init() {
	// A missing .env is fine; variables may come from the shell or the container
	if err := godotenv.Load(); err != nil {
		log.Printf("Note: No .env file found or unable to load it: %v\n", err)
		log.Println("Make sure to set environment variables via export or other means")
	} else {
		log.Println("✓ Loaded environment variables from .env file")
	}
}

type Services struct {
	Store      store.CommerceStore
	Stripe     *stripe.Service
	Wishlists  *wishlist.Service
	Payments   *payment.Service
	Reconciler *webhook.Reconciler

	memoryDeduper *webhook.MemoryDeduper
	redisClient   *redis.Client
}

func InitializeLogger() (*zap.Logger, func()) {
	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	zap.ReplaceGlobals(logger)

	cleanup := func() {
		if err := logger.Sync(); err != nil {
			if !isIgnorableSyncError(err) {
				log.Printf("Failed to sync logger: %v\n", err)
			}
		}
	}

	return logger, cleanup
}

// InitializeStore opens the backend named by cfg.Database.Driver
func InitializeStore(ctx context.Context, cfg *models.Config) (store.CommerceStore, error) {
	switch cfg.Database.Driver {
	case "postgres":
		zap.L().Info("Using Postgres store")
		return postgres.NewService(ctx, cfg.Database)
	case "sqlite", "":
		zap.L().Info("Using SQLite store", zap.String("path", cfg.Database.Path))
		return database.NewService(ctx, cfg.Database)
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Database.Driver)
	}
}

// InitializeServices wires the store, the Stripe adapter and the domain services.
// The event deduper is started with ctx and stopped by Close.
func InitializeServices(ctx context.Context, cfg *models.Config) (*Services, error) {
	if err := ApplyPolicyFile(cfg); err != nil {
		return nil, err
	}

	st, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Loading Stripe credentials")
	stripeService, err := stripe.NewService(cfg.Stripe)
	if err != nil {
		st.Close()
		return nil, err
	}

	services := &Services{
		Store:     st,
		Stripe:    stripeService,
		Wishlists: wishlist.NewService(st, wishlist.LimitsFromPolicy(cfg.Policy)),
		Payments: payment.NewService(st, stripeService, payment.Options{
			Policy:     cfg.Policy,
			Retry:      payment.NewRetryPolicy(cfg.Retry, cfg.Stripe.Timeout),
			Require3DS: cfg.Stripe.Require3DS,
		}),
	}

	var deduper webhook.EventDeduper
	if cfg.Redis.Addr != "" {
		services.redisClient = webhook.NewRedisClient(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if err := services.redisClient.Ping(ctx).Err(); err != nil {
			services.Close()
			return nil, fmt.Errorf("redis ping failed: %w", err)
		}
		deduper = webhook.NewRedisDeduper(services.redisClient, cfg.Redis.EventTTL)
		zap.L().Info("Using Redis webhook event deduper", zap.String("addr", cfg.Redis.Addr))
	} else {
		services.memoryDeduper = webhook.NewMemoryDeduper(cfg.Redis.EventTTL, cfg.Redis.CleanupInterval)
		services.memoryDeduper.Start(ctx)
		deduper = services.memoryDeduper
		zap.L().Info("Using in-memory webhook event deduper")
	}
	services.Reconciler = webhook.NewReconciler(st, stripeService, deduper)

	zap.L().Info("Services initialized",
		zap.String("database_driver", cfg.Database.Driver),
		zap.Strings("allowed_currencies", cfg.Policy.AllowedCurrencies),
		zap.Int("max_wishlist_items", cfg.Policy.MaxWishlistItems))

	return services, nil
}

// InitializeWishlistsOnly opens the store and the wishlist service without Stripe.
// Useful for read-only operations like listing wishlists.
func InitializeWishlistsOnly(ctx context.Context, cfg *models.Config) (store.CommerceStore, *wishlist.Service, error) {
	if err := ApplyPolicyFile(cfg); err != nil {
		return nil, nil, err
	}
	st, err := InitializeStore(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}
	return st, wishlist.NewService(st, wishlist.LimitsFromPolicy(cfg.Policy)), nil
}

func (cs *Services) Close() {
	if cs.memoryDeduper != nil {
		cs.memoryDeduper.Stop()
	}
	if cs.redisClient != nil {
		if err := cs.redisClient.Close(); err != nil {
			zap.L().Warn("Failed to close redis client", zap.Error(err))
		}
	}
	if cs.Store != nil {
		cs.Store.Close()
	}
}

func isIgnorableSyncError(err error) bool {
	msg := err.Error()
	return strings.Contains(msg, "sync /dev/stderr: inappropriate ioctl for device") ||
		strings.Contains(msg, "sync /dev/stdout: inappropriate ioctl for device")
}
