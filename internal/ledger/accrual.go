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
	"errors"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// AccrueProfits credits simple daily profit on the current balance for every whole day since the
// last accrual and returns the resulting profits total. A second call on the same day changes nothing.
func (s *Service) AccrueProfits(ctx context.Context, accountId string) (decimal.Decimal, error) {
	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	today := s.today()
	var accrued decimal.Decimal
	var days int
	var noAnchor bool

	account, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		accrued, days, noAnchor = decimal.Zero, 0, false

		if !a.Balance.IsPositive() {
			// nothing accrues, but the accrual date still moves to today
			if a.LastProfitCalculationDate != nil && a.LastProfitCalculationDate.Equal(today) {
				return false, nil
			}
			stamp := today
			a.LastProfitCalculationDate = &stamp
			return true, nil
		}

		anchor := accrualAnchor(a)
		if anchor.IsZero() {
			noAnchor = true
			return false, nil
		}

		days = anchor.DaysUntil(today)
		if days <= 0 {
			return false, nil
		}

		accrued = a.Balance.Mul(s.policy.DailyProfitRate).Mul(decimal.NewFromInt(int64(days)))
		a.Profits = a.Profits.Add(accrued)
		stamp := today
		a.LastProfitCalculationDate = &stamp
		return true, nil
	})
	if err != nil {
		if errors.Is(err, ErrAccountNotFound) {
			zap.L().Debug("Accrual requested for unknown account", zap.String("user_id", accountId))
		} else {
			zap.L().Error("Failed to accrue profits", zap.String("user_id", accountId), zap.Error(err))
		}
		return decimal.Zero, err
	}

	if noAnchor {
		zap.L().Warn("Account has no accrual anchor date", zap.String("user_id", accountId))
		return decimal.Zero, nil
	}

	if accrued.IsPositive() {
		zap.L().Info("Profits accrued",
			zap.String("user_id", accountId),
			zap.Int("days", days),
			zap.String("accrued", accrued.String()),
			zap.String("profits", account.Profits.String()))
	}

	return account.Profits, nil
}

// accrualAnchor is the day accrual counts from; zero when the account carries no usable date.
func accrualAnchor(a *models.Account) models.Date {
	switch {
	case a.LastProfitCalculationDate != nil && !a.LastProfitCalculationDate.IsZero():
		return *a.LastProfitCalculationDate
	case a.LastDepositDate != nil && !a.LastDepositDate.IsZero():
		return *a.LastDepositDate
	default:
		return a.JoinDate
	}
}
