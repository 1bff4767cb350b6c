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
	"regexp"
	"sort"
	"strings"

	"yield-ledger-go/internal/models"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var emailRegex = regexp.MustCompile(`^[a-zA-Z0-9._%+\-]+@[a-zA-Z0-9.\-]+\.[a-zA-Z]{2,}$`)

type RegisterParams struct {
	FullName string
	Email    string
	Age      int
	Country  string
}

func validateRegistration(params RegisterParams) error {
	name := strings.TrimSpace(params.FullName)
	if name == "" {
		return fmt.Errorf("%w: name cannot be empty", ErrValidation)
	}
	if len(name) < 2 {
		return fmt.Errorf("%w: name must be at least 2 characters", ErrValidation)
	}
	email := strings.TrimSpace(params.Email)
	if email == "" {
		return fmt.Errorf("%w: email cannot be empty", ErrValidation)
	}
	if !emailRegex.MatchString(email) {
		return fmt.Errorf("%w: invalid email format: %s", ErrValidation, email)
	}
	if params.Age < 0 {
		return fmt.Errorf("%w: age cannot be negative", ErrValidation)
	}
	return nil
}

// RegisterAccount creates an active account with an empty ledger and the default withdrawal period.
func (s *Service) RegisterAccount(ctx context.Context, params RegisterParams) (*models.Account, error) {
	if err := validateRegistration(params); err != nil {
		return nil, err
	}

	fullName := strings.TrimSpace(params.FullName)
	account := models.Account{
		Id:               uuid.New().String(),
		Name:             strings.Fields(fullName)[0],
		FullName:         fullName,
		Email:            strings.TrimSpace(params.Email),
		Age:              params.Age,
		Country:          strings.TrimSpace(params.Country),
		Status:           models.AccountStatusActive,
		Balance:          decimal.Zero,
		Profits:          decimal.Zero,
		WithdrawalPeriod: s.policy.DefaultWithdrawalPeriodDays,
		JoinDate:         s.today(),
	}

	err := s.updateAccounts(ctx, func(accounts []models.Account) ([]models.Account, error) {
		for _, existing := range accounts {
			if strings.EqualFold(existing.Email, account.Email) {
				return nil, fmt.Errorf("%w: %s", ErrDuplicateEmail, account.Email)
			}
		}
		return append(accounts, account), nil
	})
	if err != nil {
		return nil, err
	}

	zap.L().Info("Account registered",
		zap.String("user_id", account.Id),
		zap.String("email", account.Email),
		zap.String("join_date", account.JoinDate.String()))
	return &account, nil
}

// DeleteAccount removes the account. Its withdrawal history is kept, and an account with pending
// requests cannot be deleted until they are resolved.
func (s *Service) DeleteAccount(ctx context.Context, accountId string) error {
	unlock := s.accountLocks.Lock(accountId)
	defer unlock()

	err := s.updateAccounts(ctx, func(accounts []models.Account) ([]models.Account, error) {
		idx := -1
		for i := range accounts {
			if accounts[i].Id == accountId {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, fmt.Errorf("%w: %s", ErrAccountNotFound, accountId)
		}

		withdrawals, err := s.store.ReadWithdrawals(ctx)
		if err != nil {
			return nil, err
		}
		pending := 0
		for _, w := range withdrawals {
			if w.UserId == accountId && w.Status == models.WithdrawalStatusPending {
				pending++
			}
		}
		if pending > 0 {
			return nil, fmt.Errorf("%w: account %s has %d pending withdrawal requests", ErrInvalidTransition, accountId, pending)
		}

		return append(accounts[:idx], accounts[idx+1:]...), nil
	})
	if err != nil {
		return err
	}

	zap.L().Info("Account deleted", zap.String("user_id", accountId))
	return nil
}

func (s *Service) GetAccount(ctx context.Context, accountId string) (*models.Account, error) {
	account, err := s.findAccount(ctx, accountId)
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (s *Service) GetAccountByEmail(ctx context.Context, email string) (*models.Account, error) {
	accounts, err := s.store.ReadAccounts(ctx)
	if err != nil {
		return nil, err
	}
	for _, account := range accounts {
		if strings.EqualFold(account.Email, strings.TrimSpace(email)) {
			return &account, nil
		}
	}
	return nil, fmt.Errorf("%w: no account with email %s", ErrAccountNotFound, email)
}

func (s *Service) ListAccounts(ctx context.Context) ([]models.Account, error) {
	return s.store.ReadAccounts(ctx)
}

// WithdrawalFilter narrows ListWithdrawals; empty fields match everything
type WithdrawalFilter struct {
	UserId string
	Status string
}

// ListWithdrawals returns matching requests, newest first.
func (s *Service) ListWithdrawals(ctx context.Context, filter WithdrawalFilter) ([]models.WithdrawalRequest, error) {
	withdrawals, err := s.store.ReadWithdrawals(ctx)
	if err != nil {
		return nil, err
	}

	var matched []models.WithdrawalRequest
	for _, w := range withdrawals {
		if filter.UserId != "" && w.UserId != filter.UserId {
			continue
		}
		if filter.Status != "" && w.Status != filter.Status {
			continue
		}
		matched = append(matched, w)
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].CreatedAt.After(matched[j].CreatedAt)
	})
	return matched, nil
}

// Summarize builds the read model shown after accrual
func Summarize(a *models.Account, policy models.Policy) models.AccountSummary {
	summary := models.AccountSummary{
		Id:               a.Id,
		Name:             a.FullName,
		Email:            a.Email,
		Balance:          a.Balance,
		Profits:          a.Profits,
		Total:            a.Total(),
		WithdrawalPeriod: a.EffectiveWithdrawalPeriod(policy.DefaultWithdrawalPeriodDays),
		PendingDeposit:   a.PendingDeposit,
	}
	if a.LastDepositDate != nil {
		summary.LastDepositDate = a.LastDepositDate.String()
	}
	return summary
}
