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

package api

import (
	"context"
	"errors"
	"fmt"

	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"go.uber.org/zap"
)

var errForbidden = errors.New("not authorized for this account")

// LedgerService is the caller-facing API. Every call carries the caller's Session;
// business-rule failures come back in result values, never as raw errors.
type LedgerService struct {
	ledger *ledger.Service
}

func NewLedgerService(ledgerService *ledger.Service) *LedgerService {
	return &LedgerService{
		ledger: ledgerService,
	}
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	_, err := s.ledger.ListAccounts(ctx)
	if err != nil {
		return fmt.Errorf("ledger store health check failed: %w", err)
	}
	return nil
}

func authorize(session models.Session, accountId string) error {
	if !session.CanActOn(accountId) {
		zap.L().Warn("Rejected call outside session scope",
			zap.String("session_user", session.UserId),
			zap.String("account_id", accountId))
		return errForbidden
	}
	return nil
}

func authorizeAdmin(session models.Session) error {
	if !session.IsAdmin() {
		zap.L().Warn("Rejected admin call", zap.String("session_user", session.UserId))
		return fmt.Errorf("admin role required")
	}
	return nil
}

// describe turns an error into a message safe to show the caller
func describe(err error) string {
	if errors.Is(err, store.ErrPersistence) || errors.Is(err, store.ErrMalformedRecord) || errors.Is(err, store.ErrConflict) {
		return "ledger storage is unavailable, please try again later"
	}
	return err.Error()
}

func failure(err error) *models.OperationResult {
	return &models.OperationResult{Success: false, Error: describe(err)}
}

func success() *models.OperationResult {
	return &models.OperationResult{Success: true}
}
