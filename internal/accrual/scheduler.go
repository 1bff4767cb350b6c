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

package accrual

import (
	"context"
	"fmt"
	"sync"
	"time"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Ledger is the part of the ledger service the sweeper drives
type Ledger interface {
	ListAccounts(ctx context.Context) ([]models.Account, error)
	AccrueProfits(ctx context.Context, accountId string) (decimal.Decimal, error)
	Today() models.Date
}

// SchedulerConfig contains configuration for Scheduler
type SchedulerConfig struct {
	Ledger          Ledger
	PollingInterval time.Duration
	CleanupInterval time.Duration
	Workers         int
}

// Scheduler periodically brings every account's accrued profits up to date
type Scheduler struct {
	ledger Ledger

	// accounts already swept, keyed by id, with the day they were swept on
	swept           map[string]models.Date
	mutex           sync.RWMutex
	pollingInterval time.Duration
	cleanupInterval time.Duration
	workers         int

	stopChan chan struct{}
	doneChan chan struct{}
}

// NewScheduler creates a new accrual sweeper
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	workers := cfg.Workers
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		ledger:          cfg.Ledger,
		swept:           make(map[string]models.Date),
		pollingInterval: cfg.PollingInterval,
		cleanupInterval: cfg.CleanupInterval,
		workers:         workers,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
}

// Start runs a catch-up sweep and then keeps sweeping on the polling interval
func (s *Scheduler) Start(ctx context.Context) error {
	zap.L().Info("Starting accrual scheduler")

	if s.pollingInterval <= 0 {
		return fmt.Errorf("polling interval must be positive, got %v", s.pollingInterval)
	}
	if s.cleanupInterval <= 0 {
		return fmt.Errorf("cleanup interval must be positive, got %v", s.cleanupInterval)
	}

	// Accounts idle while the scheduler was down are caught up here; accrual covers the whole gap.
	result, err := s.Sweep(ctx)
	if err != nil {
		return fmt.Errorf("startup sweep failed: %w", err)
	}
	if result.Failed > 0 && result.Failed > result.Total()/2 {
		return fmt.Errorf("startup sweep failed for majority of accounts (%d/%d)", result.Failed, result.Total())
	}

	go s.pollLoop(ctx)
	go s.cleanupLoop(ctx)

	zap.L().Info("Accrual scheduler started",
		zap.Duration("polling_interval", s.pollingInterval),
		zap.Int("workers", s.workers))

	return nil
}

// Stop gracefully stops the scheduler
func (s *Scheduler) Stop() {
	zap.L().Info("Stopping accrual scheduler")
	close(s.stopChan)
	<-s.doneChan
	zap.L().Info("Accrual scheduler stopped")
}

func (s *Scheduler) pollLoop(ctx context.Context) {
	defer close(s.doneChan)

	ticker := time.NewTicker(s.pollingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			if _, err := s.Sweep(ctx); err != nil {
				zap.L().Error("Accrual sweep failed", zap.Error(err))
			}
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

func (s *Scheduler) isSwept(accountId string, today models.Date) bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	day, exists := s.swept[accountId]
	return exists && day.Equal(today)
}

func (s *Scheduler) markSwept(accountId string, today models.Date) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.swept[accountId] = today
}

func (s *Scheduler) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(s.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.cleanupSwept()
		case <-s.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupSwept drops entries from previous days, including accounts deleted since
func (s *Scheduler) cleanupSwept() int {
	today := s.ledger.Today()

	s.mutex.Lock()
	defer s.mutex.Unlock()

	cleaned := 0
	for accountId, day := range s.swept {
		if day.Before(today) {
			delete(s.swept, accountId)
			cleaned++
		}
	}

	if cleaned > 0 {
		zap.L().Debug("Cleaned up swept accounts",
			zap.Int("cleaned", cleaned),
			zap.Int("remaining", len(s.swept)))
	}
	return cleaned
}
