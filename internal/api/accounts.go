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

	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccrueProfits brings the account's profits up to today and returns the total; 0 when the account is unknown.
func (s *LedgerService) AccrueProfits(ctx context.Context, session models.Session, accountId string) decimal.Decimal {
	if err := authorize(session, accountId); err != nil {
		return decimal.Zero
	}

	profits, err := s.ledger.AccrueProfits(ctx, accountId)
	if err != nil {
		return decimal.Zero
	}
	return profits
}

// GetAccountSummary accrues first so the figures shown are current.
func (s *LedgerService) GetAccountSummary(ctx context.Context, session models.Session, accountId string) (*models.AccountSummary, error) {
	if err := authorize(session, accountId); err != nil {
		return nil, err
	}

	if _, err := s.ledger.AccrueProfits(ctx, accountId); err != nil && !errors.Is(err, ledger.ErrAccountNotFound) {
		zap.L().Warn("Accrual failed before summary", zap.String("user_id", accountId), zap.Error(err))
	}

	account, err := s.ledger.GetAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}

	summary := ledger.Summarize(account, s.ledger.Policy())
	return &summary, nil
}

func (s *LedgerService) RegisterAccount(ctx context.Context, params ledger.RegisterParams) (*models.Account, *models.OperationResult) {
	account, err := s.ledger.RegisterAccount(ctx, params)
	if err != nil {
		zap.L().Info("Registration refused", zap.String("email", params.Email), zap.Error(err))
		return nil, failure(err)
	}
	return account, success()
}

func (s *LedgerService) CapitalizeProfits(ctx context.Context, session models.Session, accountId string) *models.OperationResult {
	if err := authorize(session, accountId); err != nil {
		return failure(err)
	}
	if err := s.ledger.CapitalizeProfits(ctx, accountId); err != nil {
		return failure(err)
	}
	return success()
}

// MarkPendingDeposit is called when the account holder announces a transfer.
func (s *LedgerService) MarkPendingDeposit(ctx context.Context, session models.Session, accountId string) *models.OperationResult {
	if err := authorize(session, accountId); err != nil {
		return failure(err)
	}
	if err := s.ledger.MarkPendingDeposit(ctx, accountId); err != nil {
		return failure(err)
	}
	return success()
}
