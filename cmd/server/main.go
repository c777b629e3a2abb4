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

package main

import (
	"context"
	"errors"
	"net"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"commerce-service-go/internal/api"
	"commerce-service-go/internal/common"
	"commerce-service-go/internal/config"
	"commerce-service-go/internal/observability"
	"commerce-service-go/internal/sweeper"
	"commerce-service-go/internal/webhook"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	_, loggerCleanup := common.InitializeLogger()
	defer loggerCleanup()

	cfg, err := config.Load()
	if err != nil {
		zap.L().Fatal("Failed to load configuration", zap.Error(err))
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	zap.L().Info("Starting commerce service",
		zap.String("grpc_addr", cfg.Server.GrpcAddr),
		zap.String("http_addr", cfg.Server.HttpAddr))

	otelShutdown, err := observability.InitOTel(ctx, cfg.Otel)
	if err != nil {
		zap.L().Fatal("Failed to initialize OpenTelemetry", zap.Error(err))
	}

	metrics, err := observability.NewMetrics(nil)
	if err != nil {
		zap.L().Fatal("Failed to create metrics", zap.Error(err))
	}

	services, err := common.InitializeServices(ctx, cfg)
	if err != nil {
		zap.L().Fatal("Failed to initialize services", zap.Error(err))
	}
	defer services.Close()

	grpcServer := api.NewServer(api.NewCommerceService(services.Store, services.Wishlists, services.Payments), metrics)
	grpcListener, err := net.Listen("tcp", cfg.Server.GrpcAddr)
	if err != nil {
		zap.L().Fatal("Failed to listen for gRPC", zap.String("addr", cfg.Server.GrpcAddr), zap.Error(err))
	}

	gin.SetMode(gin.ReleaseMode)
	httpServer := &http.Server{
		Addr:              cfg.Server.HttpAddr,
		Handler:           webhook.NewRouter(services.Reconciler, services.Store),
		ReadHeaderTimeout: 10 * time.Second,
	}

	var intentSweeper *sweeper.IntentSweeper
	if cfg.Sweeper.Enabled {
		intentSweeper = sweeper.NewIntentSweeper(sweeper.Config{
			Store:           services.Store,
			Processor:       services.Stripe,
			Reconciler:      services.Reconciler,
			PollingInterval: cfg.Sweeper.PollingInterval,
			StaleAfter:      cfg.Sweeper.StaleAfter,
			BatchSize:       cfg.Sweeper.BatchSize,
			Concurrency:     cfg.Sweeper.Concurrency,
		})
		intentSweeper.Start(ctx)
	}

	errChan := make(chan error, 2)
	go func() {
		zap.L().Info("gRPC server listening", zap.String("addr", grpcListener.Addr().String()))
		if err := grpcServer.Serve(grpcListener); err != nil {
			errChan <- err
		}
	}()
	go func() {
		zap.L().Info("Webhook server listening", zap.String("addr", cfg.Server.HttpAddr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errChan <- err
		}
	}()

	zap.L().Info("Press Ctrl+C to stop")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	select {
	case <-sigChan:
		zap.L().Info("Shutdown signal received, stopping servers...")
	case err := <-errChan:
		zap.L().Error("Server failed, shutting down", zap.Error(err))
	}

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer shutdownCancel()

	done := make(chan struct{})
	go func() {
		var wg sync.WaitGroup
		if intentSweeper != nil {
			wg.Add(1)
			go func() {
				defer wg.Done()
				intentSweeper.Stop()
			}()
		}
		wg.Add(2)
		go func() {
			defer wg.Done()
			grpcServer.GracefulStop()
		}()
		go func() {
			defer wg.Done()
			if err := httpServer.Shutdown(shutdownCtx); err != nil {
				zap.L().Warn("Webhook server shutdown error", zap.Error(err))
			}
		}()
		wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		zap.L().Info("All servers stopped gracefully")
	case <-shutdownCtx.Done():
		zap.L().Warn("Forced shutdown after timeout")
		grpcServer.Stop()
	}

	cancel()
	if err := otelShutdown(shutdownCtx); err != nil {
		zap.L().Warn("OpenTelemetry shutdown error", zap.Error(err))
	}
}
