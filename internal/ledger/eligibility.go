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
	"fmt"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// EvaluateWithdrawal reports whether the account may withdraw today and how much. It never mutates state.
// An unknown account or a failed read yields an ineligible result.
func (s *Service) EvaluateWithdrawal(ctx context.Context, accountId string) models.EligibilityResult {
	account, err := s.findAccount(ctx, accountId)
	if err != nil {
		if !errors.Is(err, ErrAccountNotFound) {
			zap.L().Error("Failed to read account for eligibility", zap.String("user_id", accountId), zap.Error(err))
			return models.EligibilityResult{
				Code:            models.EligibilityNotFound,
				Reason:          "account could not be loaded",
				MaxWithdrawable: decimal.Zero,
			}
		}
		return models.EligibilityResult{
			Code:            models.EligibilityNotFound,
			Reason:          "account not found",
			MaxWithdrawable: decimal.Zero,
		}
	}
	return evaluate(&account, s.today(), s.policy)
}

func capitalUnlocked(a *models.Account, today models.Date, policy models.Policy) bool {
	if a.LastDepositDate == nil || a.LastDepositDate.IsZero() {
		return false
	}
	return a.LastDepositDate.DaysUntil(today) >= policy.CapitalLockDays
}

// evaluate applies the eligibility rules in order; the first failing rule decides the result.
func evaluate(a *models.Account, today models.Date, policy models.Policy) models.EligibilityResult {
	result := models.EligibilityResult{MaxWithdrawable: decimal.Zero}

	if a.PendingDeposit {
		result.Code = models.EligibilityPendingDeposit
		result.Reason = "a deposit is pending confirmation"
		return result
	}

	if a.LastDepositDate == nil || a.LastDepositDate.IsZero() {
		result.Code = models.EligibilityNoDeposit
		result.Reason = "no deposit has been made yet"
		return result
	}

	daysSinceDeposit := a.LastDepositDate.DaysUntil(today)
	result.CapitalUnlocked = daysSinceDeposit >= policy.CapitalLockDays

	if !result.CapitalUnlocked && !a.Profits.IsPositive() {
		result.Code = models.EligibilityCapitalLocked
		result.DaysRemaining = policy.CapitalLockDays - daysSinceDeposit
		result.Reason = fmt.Sprintf("capital cannot be withdrawn before %d days from the last deposit, %d days remaining; only profits are withdrawable",
			policy.CapitalLockDays, result.DaysRemaining)
		return result
	}

	period := a.EffectiveWithdrawalPeriod(policy.DefaultWithdrawalPeriodDays)
	if daysSinceDeposit < period {
		result.Code = models.EligibilityMaturity
		result.DaysRemaining = period - daysSinceDeposit
		result.Reason = fmt.Sprintf("%d days must pass since the last deposit, %d days remaining", period, result.DaysRemaining)
		return result
	}

	if !a.Balance.IsPositive() && !a.Profits.IsPositive() {
		result.Code = models.EligibilityInsufficient
		result.Reason = "insufficient balance"
		return result
	}

	result.Eligible = true
	result.Code = models.EligibilityOK
	if result.CapitalUnlocked {
		result.MaxWithdrawable = a.Balance.Add(a.Profits)
	} else {
		result.MaxWithdrawable = a.Profits
	}
	return result
}
