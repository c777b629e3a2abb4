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

package webhook

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// EventDeduper remembers processed event ids for a bounded time
type EventDeduper interface {
	Seen(ctx context.Context, eventId string) (bool, error)
	MarkProcessed(ctx context.Context, eventId string) error
}

// MemoryDeduper is a process-local EventDeduper. Start runs the cleanup loop.
type MemoryDeduper struct {
	processed       map[string]time.Time
	mutex           sync.RWMutex
	ttl             time.Duration
	cleanupInterval time.Duration
	now             func() time.Time
	stopChan        chan struct{}
	doneChan        chan struct{}
}

func NewMemoryDeduper(ttl, cleanupInterval time.Duration) *MemoryDeduper {
	return &MemoryDeduper{
		processed:       make(map[string]time.Time),
		ttl:             ttl,
		cleanupInterval: cleanupInterval,
		now:             time.Now,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

func (d *MemoryDeduper) Seen(_ context.Context, eventId string) (bool, error) {
	d.mutex.RLock()
	defer d.mutex.RUnlock()

	processedAt, exists := d.processed[eventId]
	return exists && d.now().Sub(processedAt) < d.ttl, nil
}

func (d *MemoryDeduper) MarkProcessed(_ context.Context, eventId string) error {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	d.processed[eventId] = d.now()
	return nil
}

// Start launches the background cleanup loop
func (d *MemoryDeduper) Start(ctx context.Context) {
	go d.cleanupLoop(ctx)
}

// Stop ends the cleanup loop and waits for it to exit. Start must have been called.
func (d *MemoryDeduper) Stop() {
	close(d.stopChan)
	<-d.doneChan
}

// cleanupLoop periodically drops expired event ids
func (d *MemoryDeduper) cleanupLoop(ctx context.Context) {
	defer close(d.doneChan)

	ticker := time.NewTicker(d.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			d.cleanup()
		case <-d.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanup removes expired entries from the processed map
func (d *MemoryDeduper) cleanup() {
	d.mutex.Lock()
	defer d.mutex.Unlock()

	cutoff := d.now().Add(-d.ttl)
	cleaned := 0

	for eventId, processedAt := range d.processed {
		if processedAt.Before(cutoff) {
			delete(d.processed, eventId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up processed webhook events",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(d.processed)))
	}
}

func (d *MemoryDeduper) size() int {
	d.mutex.RLock()
	defer d.mutex.RUnlock()
	return len(d.processed)
}
