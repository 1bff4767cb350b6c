package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"yield-ledger-go/internal/models"

	"go.uber.org/zap"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrPersistence     = errors.New("persistence failure")
	ErrMalformedRecord = errors.New("malformed persisted record")
	// ErrConflict means the collection changed between Load and Save; the caller should re-read and retry.
	ErrConflict = errors.New("collection modified concurrently")
)

// Revisions identify one stored state of a collection. Their values are backend specific; only
// equality is meaningful.
const (
	// NoRevision is the revision of a collection that has never been written.
	NoRevision int64 = 0
	// AnyRevision makes Save unconditional.
	AnyRevision int64 = -1
)

// Collection keys. Each collection is stored whole under one key.
const (
	KeyAccounts    = "users"
	KeyWithdrawals = "withdrawals"
)

// Backend defines the contract that every persistence backend (SQLite, file, Redis, ...) must satisfy.
// Collections are read and written whole; there are no partial or indexed updates. Save is a
// compare-and-swap against the revision returned by Load, so writers in separate processes cannot
// overwrite each other's changes.
type Backend interface {
	// Load returns the raw collection document and its revision; NoRevision when never written.
	Load(ctx context.Context, key string) (data []byte, revision int64, err error)
	// Save replaces the document if its stored revision still equals expected, returning the new
	// revision. A moved revision yields ErrConflict.
	Save(ctx context.Context, key string, data []byte, expected int64) (revision int64, err error)
	Close()
}

// Store exposes typed readAll/writeAll operations over a Backend.
type Store struct {
	backend Backend
}

func New(backend Backend) *Store {
	return &Store{backend: backend}
}

func (s *Store) Close() {
	s.backend.Close()
}

func (s *Store) ReadAccounts(ctx context.Context) ([]models.Account, error) {
	accounts, _, err := s.LoadAccounts(ctx)
	return accounts, err
}

// LoadAccounts returns the accounts with the revision to hand back to SaveAccounts.
func (s *Store) LoadAccounts(ctx context.Context) ([]models.Account, int64, error) {
	var accounts []models.Account
	revision, err := s.read(ctx, KeyAccounts, &accounts)
	if err != nil {
		return nil, NoRevision, err
	}

	seen := make(map[string]bool, len(accounts))
	for i := range accounts {
		if err := accounts[i].Validate(); err != nil {
			return nil, NoRevision, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if seen[accounts[i].Id] {
			return nil, NoRevision, fmt.Errorf("%w: duplicate account id %s", ErrMalformedRecord, accounts[i].Id)
		}
		seen[accounts[i].Id] = true
	}
	return accounts, revision, nil
}

// WriteAccounts replaces the accounts unconditionally. Used for seeding and imports.
func (s *Store) WriteAccounts(ctx context.Context, accounts []models.Account) error {
	return s.SaveAccounts(ctx, accounts, AnyRevision)
}

// SaveAccounts replaces the accounts if nobody wrote them since revision was loaded.
func (s *Store) SaveAccounts(ctx context.Context, accounts []models.Account, revision int64) error {
	for i := range accounts {
		if err := accounts[i].Validate(); err != nil {
			return fmt.Errorf("refusing to persist invalid account: %w", err)
		}
	}
	return s.write(ctx, KeyAccounts, accounts, revision)
}

func (s *Store) ReadWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, error) {
	withdrawals, _, err := s.LoadWithdrawals(ctx)
	return withdrawals, err
}

// LoadWithdrawals returns the requests with the revision to hand back to SaveWithdrawals.
func (s *Store) LoadWithdrawals(ctx context.Context) ([]models.WithdrawalRequest, int64, error) {
	var withdrawals []models.WithdrawalRequest
	revision, err := s.read(ctx, KeyWithdrawals, &withdrawals)
	if err != nil {
		return nil, NoRevision, err
	}

	seen := make(map[string]bool, len(withdrawals))
	for i := range withdrawals {
		if err := withdrawals[i].Validate(); err != nil {
			return nil, NoRevision, fmt.Errorf("%w: %v", ErrMalformedRecord, err)
		}
		if seen[withdrawals[i].Id] {
			return nil, NoRevision, fmt.Errorf("%w: duplicate withdrawal id %s", ErrMalformedRecord, withdrawals[i].Id)
		}
		seen[withdrawals[i].Id] = true
	}
	return withdrawals, revision, nil
}

// WriteWithdrawals replaces the requests unconditionally. Used for seeding and imports.
func (s *Store) WriteWithdrawals(ctx context.Context, withdrawals []models.WithdrawalRequest) error {
	return s.SaveWithdrawals(ctx, withdrawals, AnyRevision)
}

// SaveWithdrawals replaces the requests if nobody wrote them since revision was loaded.
func (s *Store) SaveWithdrawals(ctx context.Context, withdrawals []models.WithdrawalRequest, revision int64) error {
	for i := range withdrawals {
		if err := withdrawals[i].Validate(); err != nil {
			return fmt.Errorf("refusing to persist invalid withdrawal: %w", err)
		}
	}
	return s.write(ctx, KeyWithdrawals, withdrawals, revision)
}

func (s *Store) read(ctx context.Context, key string, out any) (int64, error) {
	data, revision, err := s.backend.Load(ctx, key)
	if err != nil {
		zap.L().Error("Failed to load collection", zap.String("collection", key), zap.Error(err))
		return NoRevision, fmt.Errorf("%w: load %s: %v", ErrPersistence, key, err)
	}
	if revision == NoRevision || len(data) == 0 {
		return revision, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		zap.L().Error("Failed to decode collection", zap.String("collection", key), zap.Error(err))
		return NoRevision, fmt.Errorf("%w: decode %s: %v", ErrMalformedRecord, key, err)
	}
	return revision, nil
}

func (s *Store) write(ctx context.Context, key string, in any, revision int64) error {
	data, err := json.MarshalIndent(in, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode %s: %w", key, err)
	}
	if _, err := s.backend.Save(ctx, key, data, revision); err != nil {
		if errors.Is(err, ErrConflict) {
			zap.L().Debug("Collection changed since it was read", zap.String("collection", key))
			return fmt.Errorf("save %s: %w", key, err)
		}
		zap.L().Error("Failed to save collection", zap.String("collection", key), zap.Error(err))
		return fmt.Errorf("%w: save %s: %v", ErrPersistence, key, err)
	}
	return nil
}
