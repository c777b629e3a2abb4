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

package sweeper

import (
	"context"
	"fmt"
	"sync"
	"time"

	"commerce-service-go/internal/models"
	"commerce-service-go/internal/store"
	"commerce-service-go/internal/webhook"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// sweptStatuses are the states a missed webhook can leave a purchase stuck in
var sweptStatuses = []models.PurchaseStatus{
	models.PurchaseStatusPending,
	models.PurchaseStatusProcessing,
}

// IntentFetcher reads the live state of a payment intent
type IntentFetcher interface {
	GetIntent(ctx context.Context, paymentIntentId string) (*models.PaymentIntent, error)
}

// IntentReconciler applies a live intent status to the matching purchase
type IntentReconciler interface {
	ReconcileIntent(ctx context.Context, paymentIntentId, intentStatus string) (webhook.Result, error)
}

type Config struct {
	Store           store.CommerceStore
	Processor       IntentFetcher
	Reconciler      IntentReconciler
	PollingInterval time.Duration
	StaleAfter      time.Duration
	BatchSize       int
	Concurrency     int
}

// Summary counts the outcomes of one sweep
type Summary struct {
	Checked   int
	Applied   int
	Unchanged int
	Failed    int
}

// IntentSweeper periodically re-reads payment intents for purchases that have
// sat in PENDING or PROCESSING longer than StaleAfter
type IntentSweeper struct {
	store           store.CommerceStore
	processor       IntentFetcher
	reconciler      IntentReconciler
	pollingInterval time.Duration
	staleAfter      time.Duration
	batchSize       int
	concurrency     int
	now             func() time.Time
	stopChan        chan struct{}
	doneChan        chan struct{}
}

func NewIntentSweeper(cfg Config) *IntentSweeper {
	concurrency := cfg.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &IntentSweeper{
		store:           cfg.Store,
		processor:       cfg.Processor,
		reconciler:      cfg.Reconciler,
		pollingInterval: cfg.PollingInterval,
		staleAfter:      cfg.StaleAfter,
		batchSize:       cfg.BatchSize,
		concurrency:     concurrency,
		now:             func() time.Time { return time.Now().UTC() },
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start launches the polling loop. The first sweep runs immediately.
func (s *IntentSweeper) Start(ctx context.Context) {
	go s.pollLoop(ctx)

	zap.L().Info("Intent sweeper started",
		zap.Duration("polling_interval", s.pollingInterval),
		zap.Duration("stale_after", s.staleAfter),
		zap.Int("batch_size", s.batchSize))
}

// Stop ends the polling loop and waits for an in-flight sweep to finish
func (s *IntentSweeper) Stop() {
	zap.L().Info("Stopping intent sweeper")
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Intent sweeper stopped")
}

func (s *IntentSweeper) pollLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	s.sweepAndLog(ctx)

	for {
		select {
		case <-ticker.C:
			s.sweepAndLog(ctx)
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *IntentSweeper) sweepAndLog(ctx context.Context) {
	summary, err := s.Sweep(ctx)
	if err != nil {
		zap.L().Error("Intent sweep failed", zap.Error(err))
		return
	}
	if summary.Checked == 0 {
		zap.L().Debug("Intent sweep found no stale purchases")
		return
	}
	zap.L().Info("Intent sweep completed",
		zap.Int("checked", summary.Checked),
		zap.Int("applied", summary.Applied),
		zap.Int("unchanged", summary.Unchanged),
		zap.Int("failed", summary.Failed))
}

// Sweep checks one batch of stale purchases against the processor. Every
// checked purchase is marked swept so the next batch moves on to others.
func (s *IntentSweeper) Sweep(ctx context.Context) (Summary, error) {
	cutoff := s.now().Add(-s.staleAfter)
	stale, err := s.store.ListStalePurchases(ctx, sweptStatuses, cutoff, s.batchSize)
	if err != nil {
		return Summary{}, fmt.Errorf("failed to list stale purchases: %w", err)
	}

	var (
		summary = Summary{Checked: len(stale)}
		mu      sync.Mutex
		wg      sync.WaitGroup
		sem     = make(chan struct{}, s.concurrency)
	)

	for _, p := range stale {
		wg.Add(1)
		sem <- struct{}{}

		go func(p models.Purchase) {
			defer wg.Done()
			defer func() { <-sem }()

			applied, err := s.sweepPurchase(ctx, p)

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err != nil:
				summary.Failed++
				zap.L().Warn("Failed to sweep purchase",
					zap.String("purchase_id", p.Id.String()),
					zap.String("payment_intent_id", p.PaymentIntentId),
					zap.Error(err))
			case applied:
				summary.Applied++
			default:
				summary.Unchanged++
			}
		}(p)
	}

	wg.Wait()

	ids := make([]uuid.UUID, len(stale))
	for i, p := range stale {
		ids[i] = p.Id
	}
	if err := s.store.MarkPurchasesSwept(ctx, ids, s.now()); err != nil {
		// The batch was still checked; the next sweep may repeat it
		zap.L().Warn("Failed to record swept purchases", zap.Int("count", len(ids)), zap.Error(err))
	}
	return summary, nil
}

func (s *IntentSweeper) sweepPurchase(ctx context.Context, p models.Purchase) (bool, error) {
	intent, err := s.processor.GetIntent(ctx, p.PaymentIntentId)
	if err != nil {
		return false, fmt.Errorf("failed to fetch intent: %w", err)
	}

	result, err := s.reconciler.ReconcileIntent(ctx, p.PaymentIntentId, intent.Status)
	if err != nil {
		return false, err
	}
	return result.Outcome == webhook.OutcomeApplied, nil
}
