package webhook

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"commerce-service-go/internal/models"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.uber.org/zap"
)

const (
	signatureHeader = "Stripe-Signature"
	maxPayloadBytes = 65536
)

// Pinger reports whether a dependency is reachable
type Pinger interface {
	Ping(ctx context.Context) error
}

// NewRouter serves the processor webhook endpoint and a health probe
func NewRouter(reconciler *Reconciler, health Pinger) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(otelgin.Middleware("commerce-webhook"))

	router.GET("/healthz", healthHandler(health))
	router.POST("/webhooks/stripe", webhookHandler(reconciler))
	return router
}

func healthHandler(health Pinger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 5*time.Second)
		defer cancel()

		if err := health.Ping(ctx); err != nil {
			zap.L().Warn("Health check failed", zap.Error(err))
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unhealthy"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "healthy"})
	}
}

func webhookHandler(reconciler *Reconciler) gin.HandlerFunc {
	return func(c *gin.Context) {
		payload, err := io.ReadAll(http.MaxBytesReader(c.Writer, c.Request.Body, maxPayloadBytes))
		if err != nil {
			zap.L().Warn("Unable to read webhook payload", zap.Error(err))
			c.JSON(http.StatusRequestEntityTooLarge, gin.H{"error": "payload too large"})
			return
		}

		result, err := reconciler.HandleEvent(c.Request.Context(), payload, c.GetHeader(signatureHeader))
		if err != nil {
			if errors.Is(err, models.ErrSignatureInvalid) {
				c.JSON(http.StatusBadRequest, gin.H{"error": "invalid signature"})
				return
			}
			// Non-2xx makes the processor redeliver later
			c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"received": true,
			"event_id": result.EventId,
			"outcome":  result.Outcome,
		})
	}
}
