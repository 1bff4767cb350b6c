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

package ledger

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"go.uber.org/zap"
)

// Config wires a ledger Service
type Config struct {
	Store            *store.Store
	Policy           models.Policy
	Location         *time.Location
	RejectCreditMode string
	// Clock defaults to time.Now
	Clock func() time.Time
}

// Service applies the fund-accounting rules to the persisted accounts and withdrawal requests.
//
// Every mutation holds the account's lock for its whole duration. Because collections are
// written whole, each read-modify-write of a collection is additionally serialized by that
// collection's mutex; account locks are always taken before collection mutexes, and the
// accounts mutex before the withdrawals mutex.
type Service struct {
	store      *store.Store
	policy     models.Policy
	location   *time.Location
	rejectMode string
	clock      func() time.Time

	accountLocks  *keyedMutex
	accountsMu    sync.Mutex
	withdrawalsMu sync.Mutex
}

func NewService(cfg Config) (*Service, error) {
	if cfg.Store == nil {
		return nil, fmt.Errorf("ledger store is required")
	}
	if err := cfg.Policy.Validate(); err != nil {
		return nil, fmt.Errorf("invalid ledger policy: %w", err)
	}

	mode := strings.ToLower(strings.TrimSpace(cfg.RejectCreditMode))
	switch mode {
	case "":
		mode = models.RejectCreditSplit
	case models.RejectCreditSplit, models.RejectCreditBalance:
	default:
		return nil, fmt.Errorf("unknown reject credit mode %q", cfg.RejectCreditMode)
	}

	location := cfg.Location
	if location == nil {
		location = time.UTC
	}
	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	zap.L().Info("Ledger service initialized",
		zap.String("daily_profit_rate", cfg.Policy.DailyProfitRate.String()),
		zap.Int("capital_lock_days", cfg.Policy.CapitalLockDays),
		zap.Int("default_withdrawal_period", cfg.Policy.DefaultWithdrawalPeriodDays),
		zap.String("reject_credit_mode", mode),
		zap.String("timezone", location.String()))

	return &Service{
		store:        cfg.Store,
		policy:       cfg.Policy,
		location:     location,
		rejectMode:   mode,
		clock:        clock,
		accountLocks: newKeyedMutex(),
	}, nil
}

func (s *Service) Policy() models.Policy {
	return s.policy
}

// Today is the current calendar day in the ledger's time zone.
func (s *Service) Today() models.Date {
	return s.today()
}

// today resolves the current calendar day in the configured location
func (s *Service) today() models.Date {
	return models.NewDate(s.clock().In(s.location))
}

func (s *Service) now() time.Time {
	return s.clock().UTC()
}
