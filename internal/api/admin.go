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

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func (s *LedgerService) AdminSetBalance(ctx context.Context, session models.Session, accountId string, balance decimal.Decimal, resetDepositClock bool) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if err := s.ledger.AdminSetBalance(ctx, accountId, balance, resetDepositClock); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) AdminRecordDeposit(ctx context.Context, session models.Session, accountId string, amount decimal.Decimal) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if err := s.ledger.AdminRecordDeposit(ctx, accountId, amount); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) AdminSetWithdrawalPeriod(ctx context.Context, session models.Session, accountId string, days int) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if err := s.ledger.AdminSetWithdrawalPeriod(ctx, accountId, days); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) AdminApprove(ctx context.Context, session models.Session, requestId string) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if _, err := s.ledger.AdminApprove(ctx, requestId, session.UserId); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) AdminReject(ctx context.Context, session models.Session, requestId string) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if _, err := s.ledger.AdminReject(ctx, requestId, session.UserId); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) AdminDeleteAccount(ctx context.Context, session models.Session, accountId string) *models.OperationResult {
	if err := authorizeAdmin(session); err != nil {
		return failure(err)
	}
	if err := s.ledger.DeleteAccount(ctx, accountId); err != nil {
		return failure(err)
	}
	return success()
}

func (s *LedgerService) ListAccounts(ctx context.Context, session models.Session) ([]models.Account, error) {
	if err := authorizeAdmin(session); err != nil {
		return nil, err
	}
	return s.ledger.ListAccounts(ctx)
}
