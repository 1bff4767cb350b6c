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
	"errors"
	"fmt"
	"sync"
	"time"

	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"

	"go.uber.org/zap"
)

// ANSI color helpers for console output.
const (
	colorReset = "\033[0m"
	colorRed   = "\033[31m"
	colorGreen = "\033[32m"
	colorCyan  = "\033[36m"
)

// SweepResult counts what one pass over the accounts did
type SweepResult struct {
	Accrued int
	Skipped int
	Failed  int
}

func (r SweepResult) Total() int {
	return r.Accrued + r.Skipped + r.Failed
}

// Sweep accrues every account not yet swept today, fanning the work out to the configured workers
func (s *Scheduler) Sweep(ctx context.Context) (SweepResult, error) {
	accounts, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return SweepResult{}, fmt.Errorf("failed to list accounts: %w", err)
	}

	today := s.ledger.Today()
	fmt.Printf("\n%s[%s] Sweeping %d accounts for %s%s\n",
		colorCyan, time.Now().Format("15:04:05"), len(accounts), today, colorReset)

	var (
		result SweepResult
		resMu  sync.Mutex
		wg     sync.WaitGroup
	)
	sem := make(chan struct{}, s.workers)

	for _, account := range accounts {
		if s.isSwept(account.Id, today) {
			result.Skipped++
			continue
		}

		wg.Add(1)
		sem <- struct{}{}

		go func(a models.Account) {
			defer wg.Done()
			defer func() { <-sem }()

			err := s.sweepAccount(ctx, a, today)

			resMu.Lock()
			defer resMu.Unlock()
			switch {
			case err == nil:
				result.Accrued++
			case errors.Is(err, ledger.ErrAccountNotFound):
				// deleted between listing and accrual
				result.Skipped++
			default:
				result.Failed++
			}
		}(account)
	}

	wg.Wait()

	zap.L().Info("Accrual sweep completed",
		zap.String("day", today.String()),
		zap.Int("accrued", result.Accrued),
		zap.Int("skipped", result.Skipped),
		zap.Int("failed", result.Failed))

	return result, nil
}

func (s *Scheduler) sweepAccount(ctx context.Context, account models.Account, today models.Date) error {
	profits, err := s.ledger.AccrueProfits(ctx, account.Id)
	if err != nil {
		if !errors.Is(err, ledger.ErrAccountNotFound) {
			fmt.Printf("  %s✗ %s (%s): %s%s\n", colorRed, account.Name, account.Email, err, colorReset)
			zap.L().Error("Failed to accrue account",
				zap.String("user_id", account.Id),
				zap.Error(err))
		}
		return err
	}

	s.markSwept(account.Id, today)
	fmt.Printf("  %s✓ %s (%s) profits %s%s\n", colorGreen, account.Name, account.Email, profits.StringFixed(2), colorReset)
	return nil
}
