package ledger

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"time"

	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"go.uber.org/zap"
)

const (
	maxConflictAttempts = 10
	conflictBackoff     = 2 * time.Millisecond
	maxConflictBackoff  = 100 * time.Millisecond
)

func (s *Service) findAccount(ctx context.Context, accountId string) (models.Account, error) {
	accounts, err := s.store.ReadAccounts(ctx)
	if err != nil {
		return models.Account{}, err
	}
	for _, account := range accounts {
		if account.Id == accountId {
			return account, nil
		}
	}
	return models.Account{}, fmt.Errorf("%w: %s", ErrAccountNotFound, accountId)
}

func (s *Service) findWithdrawal(ctx context.Context, requestId string) (models.WithdrawalRequest, error) {
	withdrawals, err := s.store.ReadWithdrawals(ctx)
	if err != nil {
		return models.WithdrawalRequest{}, err
	}
	for _, w := range withdrawals {
		if w.Id == requestId {
			return w, nil
		}
	}
	return models.WithdrawalRequest{}, fmt.Errorf("%w: %s", ErrRequestNotFound, requestId)
}

// retryOnConflict reruns attempt while another writer keeps moving the collection underneath it.
// attempt must re-read everything it depends on.
func retryOnConflict(ctx context.Context, op string, attempt func() error) error {
	var err error
	for i := 0; i < maxConflictAttempts; i++ {
		if err = attempt(); !errors.Is(err, store.ErrConflict) {
			return err
		}

		delay := min(conflictBackoff<<i, maxConflictBackoff)
		delay += rand.N(delay)
		zap.L().Debug("Collection changed concurrently, retrying",
			zap.String("operation", op),
			zap.Int("attempt", i+1),
			zap.Duration("delay", delay))

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%w: %s after %d attempts: %w", store.ErrPersistence, op, maxConflictAttempts, err)
}

// updateAccounts runs a read-modify-write over the whole accounts collection, repeating it when
// another process wrote first. fn may run more than once.
func (s *Service) updateAccounts(ctx context.Context, fn func([]models.Account) ([]models.Account, error)) error {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	return retryOnConflict(ctx, "update accounts", func() error {
		accounts, revision, err := s.store.LoadAccounts(ctx)
		if err != nil {
			return err
		}
		updated, err := fn(accounts)
		if err != nil {
			return err
		}
		return s.store.SaveAccounts(ctx, updated, revision)
	})
}

// updateAccount applies fn to a copy of one account and writes the collection back when fn reports a change.
// Pointer fields of the copy are shared with the read snapshot: replace them, never write through them.
// fn runs again on a fresh copy if the collection moved before the write.
func (s *Service) updateAccount(ctx context.Context, accountId string, fn func(*models.Account) (bool, error)) (models.Account, error) {
	s.accountsMu.Lock()
	defer s.accountsMu.Unlock()

	var result models.Account
	err := retryOnConflict(ctx, "update account "+accountId, func() error {
		result = models.Account{}

		accounts, revision, err := s.store.LoadAccounts(ctx)
		if err != nil {
			return err
		}

		idx := -1
		for i := range accounts {
			if accounts[i].Id == accountId {
				idx = i
				break
			}
		}
		if idx == -1 {
			return fmt.Errorf("%w: %s", ErrAccountNotFound, accountId)
		}

		account := accounts[idx]
		changed, err := fn(&account)
		if err != nil {
			result = accounts[idx]
			return err
		}
		if !changed {
			result = account
			return nil
		}
		if err := account.Validate(); err != nil {
			result = accounts[idx]
			return fmt.Errorf("%w: %v", ErrValidation, err)
		}

		accounts[idx] = account
		if err := s.store.SaveAccounts(ctx, accounts, revision); err != nil {
			return err
		}
		result = account
		return nil
	})
	return result, err
}

// updateWithdrawals runs a read-modify-write over the whole withdrawals collection, repeating it
// when another process wrote first. fn may run more than once.
func (s *Service) updateWithdrawals(ctx context.Context, fn func([]models.WithdrawalRequest) ([]models.WithdrawalRequest, error)) error {
	s.withdrawalsMu.Lock()
	defer s.withdrawalsMu.Unlock()

	return retryOnConflict(ctx, "update withdrawals", func() error {
		withdrawals, revision, err := s.store.LoadWithdrawals(ctx)
		if err != nil {
			return err
		}
		updated, err := fn(withdrawals)
		if err != nil {
			return err
		}
		return s.store.SaveWithdrawals(ctx, updated, revision)
	})
}
