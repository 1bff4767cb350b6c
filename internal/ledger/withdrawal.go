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
	"context"
	"fmt"
	"strings"

	"yield-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type SubmitWithdrawalParams struct {
	AccountId     string
	Amount        decimal.Decimal
	Network       string
	WalletAddress string
	WalletName    string
}

// SubmitWithdrawal debits the account profits-first and records a pending request.
// Either both the debit and the request are persisted or neither is.
func (s *Service) SubmitWithdrawal(ctx context.Context, params SubmitWithdrawalParams) (*models.WithdrawalRequest, error) {
	unlock := s.accountLocks.Lock(params.AccountId)
	defer unlock()

	today := s.today()
	walletAddress := strings.TrimSpace(params.WalletAddress)
	var network string
	var fromProfits, fromBalance decimal.Decimal

	// eligibility is judged on the same snapshot that gets debited
	account, err := s.updateAccount(ctx, params.AccountId, func(a *models.Account) (bool, error) {
		fromProfits, fromBalance = decimal.Zero, decimal.Zero

		eligibility := evaluate(a, today, s.policy)
		if !eligibility.Eligible {
			return false, fmt.Errorf("%w: %s", ErrIneligible, eligibility.Reason)
		}
		if params.Amount.GreaterThan(eligibility.MaxWithdrawable) {
			return false, fmt.Errorf("%w: amount %s exceeds the withdrawable maximum %s",
				ErrValidation, params.Amount.String(), eligibility.MaxWithdrawable.StringFixed(2))
		}
		if !params.Amount.IsPositive() {
			return false, fmt.Errorf("%w: amount must be greater than zero", ErrValidation)
		}
		if walletAddress == "" {
			return false, fmt.Errorf("%w: wallet address is required", ErrValidation)
		}
		var ok bool
		if network, ok = s.policy.SupportsNetwork(params.Network); !ok {
			return false, fmt.Errorf("%w: unsupported network %q", ErrValidation, params.Network)
		}

		fromProfits = decimal.Min(params.Amount, a.Profits)
		remaining := params.Amount.Sub(fromProfits)

		if remaining.IsPositive() {
			if !capitalUnlocked(a, today, s.policy) {
				return false, fmt.Errorf("%w: capital is locked, only %s in profits can be withdrawn",
					ErrIneligible, a.Profits.StringFixed(2))
			}
			fromBalance = remaining
		}

		a.Profits = a.Profits.Sub(fromProfits)
		a.Balance = a.Balance.Sub(fromBalance)
		return true, nil
	})
	if err != nil {
		return nil, err
	}

	request := models.WithdrawalRequest{
		Id:                uuid.New().String(),
		UserId:            account.Id,
		UserName:          account.FullName,
		Amount:            params.Amount,
		Network:           network,
		WalletAddress:     walletAddress,
		WalletName:        strings.TrimSpace(params.WalletName),
		Status:            models.WithdrawalStatusPending,
		CreatedAt:         s.now(),
		AmountFromProfits: fromProfits,
		AmountFromBalance: fromBalance,
	}

	err = s.updateWithdrawals(ctx, func(withdrawals []models.WithdrawalRequest) ([]models.WithdrawalRequest, error) {
		return append(withdrawals, request), nil
	})
	if err != nil {
		zap.L().Error("Failed to record withdrawal request, rolling back debit",
			zap.String("user_id", params.AccountId),
			zap.String("amount", params.Amount.String()),
			zap.Error(err))
		s.restoreDebit(ctx, params.AccountId, fromProfits, fromBalance)
		return nil, err
	}

	zap.L().Info("Withdrawal request submitted",
		zap.String("request_id", request.Id),
		zap.String("user_id", request.UserId),
		zap.String("amount", request.Amount.String()),
		zap.String("from_profits", fromProfits.String()),
		zap.String("from_balance", fromBalance.String()),
		zap.String("network", request.Network))

	return &request, nil
}

// restoreDebit credits back a debit whose request could not be recorded. Failure here leaves the
// ledger inconsistent; it is logged and not retried.
func (s *Service) restoreDebit(ctx context.Context, accountId string, fromProfits, fromBalance decimal.Decimal) {
	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		a.Profits = a.Profits.Add(fromProfits)
		a.Balance = a.Balance.Add(fromBalance)
		return true, nil
	})
	if err != nil {
		zap.L().Error("LEDGER INCONSISTENT: withdrawal debit could not be rolled back",
			zap.String("user_id", accountId),
			zap.String("from_profits", fromProfits.String()),
			zap.String("from_balance", fromBalance.String()),
			zap.Error(err))
		return
	}
	zap.L().Warn("Withdrawal debit rolled back", zap.String("user_id", accountId))
}
