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

	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

func (s *LedgerService) EvaluateWithdrawal(ctx context.Context, session models.Session, accountId string) models.EligibilityResult {
	if err := authorize(session, accountId); err != nil {
		return models.EligibilityResult{
			Code:            models.EligibilityNotFound,
			Reason:          err.Error(),
			MaxWithdrawable: decimal.Zero,
		}
	}
	return s.ledger.EvaluateWithdrawal(ctx, accountId)
}

// SubmitWithdrawal returns the created request, or a nil Request with the reason it was refused.
func (s *LedgerService) SubmitWithdrawal(ctx context.Context, session models.Session, params ledger.SubmitWithdrawalParams) *models.WithdrawalResult {
	if err := authorize(session, params.AccountId); err != nil {
		return &models.WithdrawalResult{Success: false, Error: err.Error()}
	}

	zap.L().Info("Processing withdrawal request",
		zap.String("user_id", params.AccountId),
		zap.String("amount", params.Amount.String()),
		zap.String("network", params.Network))

	request, err := s.ledger.SubmitWithdrawal(ctx, params)
	if err != nil {
		zap.L().Info("Withdrawal request refused",
			zap.String("user_id", params.AccountId),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		return &models.WithdrawalResult{Success: false, Error: describe(err)}
	}

	return &models.WithdrawalResult{Success: true, Request: request}
}

// ListWithdrawals returns the caller's own requests, or every request for an admin.
func (s *LedgerService) ListWithdrawals(ctx context.Context, session models.Session, filter ledger.WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	if !session.IsAdmin() {
		if session.UserId == "" {
			return nil, errForbidden
		}
		filter.UserId = session.UserId
	}
	return s.ledger.ListWithdrawals(ctx, filter)
}

func (s *LedgerService) ListPendingWithdrawals(ctx context.Context, session models.Session) ([]models.WithdrawalRequest, error) {
	if err := authorizeAdmin(session); err != nil {
		return nil, err
	}
	return s.ledger.ListWithdrawals(ctx, ledger.WithdrawalFilter{Status: models.WithdrawalStatusPending})
}
