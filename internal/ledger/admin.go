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

// AdminSetBalance overwrites the balance. With resetDepositClock the deposit is treated as confirmed
// today: lastDepositDate moves to today and the pending flag clears.
func (s *Service) AdminSetBalance(ctx context.Context, accountId string, balance decimal.Decimal, resetDepositClock bool) error {
	if balance.IsNegative() {
		return fmt.Errorf("%w: balance cannot be negative, got %s", ErrValidation, balance.String())
	}

	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	today := s.today()
	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		a.Balance = balance
		if resetDepositClock {
			deposit := today
			a.LastDepositDate = &deposit
			a.PendingDeposit = false
		}
		return true, nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Balance set by admin",
		zap.String("user_id", accountId),
		zap.String("balance", balance.String()),
		zap.Bool("deposit_clock_reset", resetDepositClock))
	return nil
}

// AdminRecordDeposit adds a confirmed deposit to the balance and restarts the deposit clock.
func (s *Service) AdminRecordDeposit(ctx context.Context, accountId string, amount decimal.Decimal) error {
	if !amount.IsPositive() {
		return fmt.Errorf("%w: deposit amount must be greater than zero", ErrValidation)
	}

	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	today := s.today()
	account, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		a.Balance = a.Balance.Add(amount)
		deposit := today
		a.LastDepositDate = &deposit
		a.PendingDeposit = false
		return true, nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Deposit recorded",
		zap.String("user_id", accountId),
		zap.String("amount", amount.String()),
		zap.String("balance", account.Balance.String()))
	return nil
}

func (s *Service) AdminSetWithdrawalPeriod(ctx context.Context, accountId string, days int) error {
	if days < 1 {
		return fmt.Errorf("%w: withdrawal period must be at least 1 day, got %d", ErrValidation, days)
	}

	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		a.WithdrawalPeriod = days
		return true, nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Withdrawal period set", zap.String("user_id", accountId), zap.Int("days", days))
	return nil
}

// MarkPendingDeposit flags an announced deposit; withdrawals stay blocked until an admin confirms it.
func (s *Service) MarkPendingDeposit(ctx context.Context, accountId string) error {
	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		if a.PendingDeposit {
			return false, nil
		}
		a.PendingDeposit = true
		return true, nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Deposit marked pending", zap.String("user_id", accountId))
	return nil
}

// CapitalizeProfits moves all accrued profits into the balance.
func (s *Service) CapitalizeProfits(ctx context.Context, accountId string) error {
	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	today := s.today()
	var moved decimal.Decimal
	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		if !a.Profits.IsPositive() {
			return false, fmt.Errorf("%w: no profits to capitalize", ErrValidation)
		}
		moved = a.Profits
		a.Balance = a.Balance.Add(a.Profits)
		a.Profits = decimal.Zero
		stamp := today
		a.LastProfitCalculationDate = &stamp
		return true, nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Profits capitalized", zap.String("user_id", accountId), zap.String("amount", moved.String()))
	return nil
}

// AdminApprove marks a pending request approved. Funds were debited at submission.
func (s *Service) AdminApprove(ctx context.Context, requestId, adminId string) (*models.WithdrawalRequest, error) {
	request, err := s.findWithdrawal(ctx, requestId)
	if err != nil {
		return nil, err
	}

	unlock := s.accountLocks.Lock(request.UserId)
	defer unlock()

	resolved, err := s.resolveWithdrawal(ctx, requestId, models.WithdrawalStatusApproved, adminId)
	if err != nil {
		return nil, err
	}

	zap.L().Info("Withdrawal approved",
		zap.String("request_id", requestId),
		zap.String("user_id", resolved.UserId),
		zap.String("admin_id", adminId),
		zap.String("amount", resolved.Amount.String()))
	return &resolved, nil
}

// AdminReject marks a pending request rejected and credits the debited amount back to the account.
// The status change happens first so only one rejection can win. If the credit then fails the
// request is reopened; if the account no longer exists the request stays rejected and the
// uncredited refund is logged.
func (s *Service) AdminReject(ctx context.Context, requestId, adminId string) (*models.WithdrawalRequest, error) {
	request, err := s.findWithdrawal(ctx, requestId)
	if err != nil {
		return nil, err
	}

	unlock := s.accountLocks.Lock(request.UserId)
	defer unlock()

	resolved, err := s.resolveWithdrawal(ctx, requestId, models.WithdrawalStatusRejected, adminId)
	if err != nil {
		return nil, err
	}

	toProfits, toBalance := s.rejectCredit(&resolved)
	err = s.credit(ctx, resolved.UserId, toProfits, toBalance)
	switch {
	case errors.Is(err, ErrAccountNotFound):
		zap.L().Error("Rejected withdrawal refund not credited, account no longer exists",
			zap.String("request_id", requestId),
			zap.String("user_id", resolved.UserId),
			zap.String("admin_id", adminId),
			zap.String("to_profits", toProfits.String()),
			zap.String("to_balance", toBalance.String()))
		return &resolved, nil

	case err != nil:
		zap.L().Error("Failed to credit rejected withdrawal, reopening request",
			zap.String("request_id", requestId),
			zap.Error(err))
		if reopenErr := s.reopenWithdrawal(ctx, requestId); reopenErr != nil {
			zap.L().Error("LEDGER INCONSISTENT: rejected withdrawal neither credited nor reopened",
				zap.String("request_id", requestId),
				zap.String("user_id", resolved.UserId),
				zap.String("to_profits", toProfits.String()),
				zap.String("to_balance", toBalance.String()),
				zap.Error(reopenErr))
		}
		return nil, err
	}

	zap.L().Info("Withdrawal rejected",
		zap.String("request_id", requestId),
		zap.String("user_id", resolved.UserId),
		zap.String("admin_id", adminId),
		zap.String("credited_profits", toProfits.String()),
		zap.String("credited_balance", toBalance.String()))
	return &resolved, nil
}

// rejectCredit splits the refund according to the configured mode. Requests without a recorded
// allocation are refunded to the balance.
func (s *Service) rejectCredit(request *models.WithdrawalRequest) (toProfits, toBalance decimal.Decimal) {
	if s.rejectMode == models.RejectCreditSplit && request.HasAllocation() {
		return request.AmountFromProfits, request.AmountFromBalance
	}
	return decimal.Zero, request.Amount
}

func (s *Service) credit(ctx context.Context, accountId string, toProfits, toBalance decimal.Decimal) error {
	_, err := s.updateAccount(ctx, accountId, func(a *models.Account) (bool, error) {
		a.Profits = a.Profits.Add(toProfits)
		a.Balance = a.Balance.Add(toBalance)
		return true, nil
	})
	return err
}

func (s *Service) resolveWithdrawal(ctx context.Context, requestId, status, adminId string) (models.WithdrawalRequest, error) {
	var resolved models.WithdrawalRequest
	err := s.updateWithdrawals(ctx, func(withdrawals []models.WithdrawalRequest) ([]models.WithdrawalRequest, error) {
		for i := range withdrawals {
			if withdrawals[i].Id != requestId {
				continue
			}
			if withdrawals[i].Status != models.WithdrawalStatusPending {
				return nil, fmt.Errorf("%w: request %s is already %s", ErrInvalidTransition, requestId, withdrawals[i].Status)
			}
			resolvedAt := s.now()
			withdrawals[i].Status = status
			withdrawals[i].ResolvedAt = &resolvedAt
			withdrawals[i].ResolvedBy = adminId
			resolved = withdrawals[i]
			return withdrawals, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestId)
	})
	return resolved, err
}

// reopenWithdrawal returns a rejected request to pending after its refund could not be credited.
func (s *Service) reopenWithdrawal(ctx context.Context, requestId string) error {
	return s.updateWithdrawals(ctx, func(withdrawals []models.WithdrawalRequest) ([]models.WithdrawalRequest, error) {
		for i := range withdrawals {
			if withdrawals[i].Id != requestId {
				continue
			}
			if withdrawals[i].Status != models.WithdrawalStatusRejected {
				return nil, fmt.Errorf("%w: request %s is %s, not rejected", ErrInvalidTransition, requestId, withdrawals[i].Status)
			}
			withdrawals[i].Status = models.WithdrawalStatusPending
			withdrawals[i].ResolvedAt = nil
			withdrawals[i].ResolvedBy = ""
			return withdrawals, nil
		}
		return nil, fmt.Errorf("%w: %s", ErrRequestNotFound, requestId)
	})
}
