package ledger

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

// memBackend is an in-memory store.Backend with compare-and-swap saves whose writes can be made
// to fail per key. loadDelay widens the gap between a read and the write that follows it.
type memBackend struct {
	mu        sync.Mutex
	data      map[string][]byte
	revisions map[string]int64
	saveHook  func(key string) error
	loadDelay time.Duration
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte), revisions: make(map[string]int64)}
}

func (m *memBackend) Load(ctx context.Context, key string) ([]byte, int64, error) {
	m.mu.Lock()
	data, revision, delay := m.data[key], m.revisions[key], m.loadDelay
	m.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	return data, revision, nil
}

func (m *memBackend) Save(ctx context.Context, key string, data []byte, expected int64) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.saveHook != nil {
		if err := m.saveHook(key); err != nil {
			return store.NoRevision, err
		}
	}
	if expected != store.AnyRevision && m.revisions[key] != expected {
		return store.NoRevision, store.ErrConflict
	}
	m.data[key] = append([]byte(nil), data...)
	m.revisions[key]++
	return m.revisions[key], nil
}

func (m *memBackend) Close() {}

func (m *memBackend) failSaves(key string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.saveHook = func(k string) error {
		if k == key {
			return err
		}
		return nil
	}
}

var errDiskFull = errors.New("disk full")

// testToday is the fixed calendar day every ledger test runs on
var testToday = models.MustParseDate("2026-06-01")

func fixedClock() time.Time {
	return testToday.Time().Add(14 * time.Hour)
}

type ledgerFixture struct {
	service *Service
	store   *store.Store
	backend *memBackend
}

func setupLedger(t *testing.T, mode string, accounts ...models.Account) *ledgerFixture {
	t.Helper()

	backend := newMemBackend()
	st := store.New(backend)
	if len(accounts) > 0 {
		if err := st.WriteAccounts(context.Background(), accounts); err != nil {
			t.Fatalf("Failed to seed accounts: %v", err)
		}
	}

	return &ledgerFixture{service: newLedgerService(t, st, mode), store: st, backend: backend}
}

// newLedgerService builds a service over st; two services over one backend behave like two processes
func newLedgerService(t *testing.T, st *store.Store, mode string) *Service {
	t.Helper()
	service, err := NewService(Config{
		Store:            st,
		Policy:           models.DefaultPolicy(),
		RejectCreditMode: mode,
		Clock:            fixedClock,
	})
	if err != nil {
		t.Fatalf("NewService failed: %v", err)
	}
	return service
}

func (f *ledgerFixture) account(t *testing.T, id string) models.Account {
	t.Helper()
	account, err := f.service.GetAccount(context.Background(), id)
	if err != nil {
		t.Fatalf("GetAccount(%s) failed: %v", id, err)
	}
	return *account
}

func (f *ledgerFixture) withdrawals(t *testing.T) []models.WithdrawalRequest {
	t.Helper()
	withdrawals, err := f.store.ReadWithdrawals(context.Background())
	if err != nil {
		t.Fatalf("ReadWithdrawals failed: %v", err)
	}
	return withdrawals
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func daysAgo(n int) *models.Date {
	d := testToday.AddDays(-n)
	return &d
}

// fundedAccount has a deposit depositDays ago and the given balance and profits
func fundedAccount(id, balance, profits string, depositDays int) models.Account {
	return models.Account{
		Id:               id,
		Name:             "Test",
		FullName:         "Test User",
		Email:            id + "@example.com",
		Status:           models.AccountStatusActive,
		Balance:          dec(balance),
		Profits:          dec(profits),
		LastDepositDate:  daysAgo(depositDays),
		WithdrawalPeriod: 30,
		JoinDate:         testToday.AddDays(-depositDays - 1),
	}
}

func assertDecimal(t *testing.T, name string, want string, got decimal.Decimal) {
	t.Helper()
	if !got.Equal(dec(want)) {
		t.Errorf("Expected %s %s, got %s", name, want, got.String())
	}
}
