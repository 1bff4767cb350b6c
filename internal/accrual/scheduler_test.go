package accrual

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"yield-ledger-go/internal/filestore"
	"yield-ledger-go/internal/ledger"
	"yield-ledger-go/internal/models"
	"yield-ledger-go/internal/store"

	"github.com/shopspring/decimal"
)

var startDay = models.MustParseDate("2026-05-10")

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) advanceDays(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.AddDate(0, 0, n)
}

func setupLedger(t *testing.T, accounts []models.Account) (*ledger.Service, *testClock) {
	t.Helper()

	backend, err := filestore.NewService(models.FileConfig{DataDir: t.TempDir()})
	if err != nil {
		t.Fatalf("filestore.NewService failed: %v", err)
	}
	st := store.New(backend)
	if err := st.WriteAccounts(context.Background(), accounts); err != nil {
		t.Fatalf("Failed to seed accounts: %v", err)
	}

	clock := &testClock{now: startDay.Time().Add(6 * time.Hour)}
	service, err := ledger.NewService(ledger.Config{
		Store:  st,
		Policy: models.DefaultPolicy(),
		Clock:  clock.Now,
	})
	if err != nil {
		t.Fatalf("ledger.NewService failed: %v", err)
	}
	return service, clock
}

func account(id string, balance int64, calculatedDaysAgo int) models.Account {
	calculated := startDay.AddDays(-calculatedDaysAgo)
	return models.Account{
		Id: id, Name: id, FullName: id, Email: id + "@example.com",
		Status: models.AccountStatusActive, Balance: decimal.NewFromInt(balance), Profits: decimal.Zero,
		LastProfitCalculationDate: &calculated, WithdrawalPeriod: 30, JoinDate: startDay.AddDays(-400),
	}
}

func TestSweep_AccruesOncePerDay(t *testing.T) {
	service, clock := setupLedger(t, []models.Account{
		account("a1", 1000, 3),
		account("a2", 500, 1),
		account("a3", 0, 10),
	})
	scheduler := NewScheduler(SchedulerConfig{Ledger: service, Workers: 2})
	ctx := context.Background()

	result, err := scheduler.Sweep(ctx)
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Accrued != 3 || result.Failed != 0 {
		t.Errorf("Unexpected first sweep result: %+v", result)
	}

	a1, _ := service.GetAccount(ctx, "a1")
	if !a1.Profits.Equal(decimal.NewFromInt(30)) {
		t.Errorf("Expected a1 profits 30, got %s", a1.Profits)
	}
	a3, _ := service.GetAccount(ctx, "a3")
	if !a3.Profits.IsZero() || !a3.LastProfitCalculationDate.Equal(startDay) {
		t.Errorf("Expected zero-balance account stamped without profit, got %+v", a3)
	}

	result, err = scheduler.Sweep(ctx)
	if err != nil {
		t.Fatalf("Second sweep failed: %v", err)
	}
	if result.Skipped != 3 || result.Accrued != 0 {
		t.Errorf("Expected every account skipped on the same day, got %+v", result)
	}

	clock.advanceDays(1)
	if cleaned := scheduler.cleanupSwept(); cleaned != 3 {
		t.Errorf("Expected 3 stale entries cleaned, got %d", cleaned)
	}

	result, err = scheduler.Sweep(ctx)
	if err != nil {
		t.Fatalf("Next-day sweep failed: %v", err)
	}
	if result.Accrued != 3 {
		t.Errorf("Expected all accounts accrued on the next day, got %+v", result)
	}
	a1, _ = service.GetAccount(ctx, "a1")
	if !a1.Profits.Equal(decimal.NewFromInt(40)) {
		t.Errorf("Expected a1 profits 40 after the next day, got %s", a1.Profits)
	}
}

type fakeLedger struct {
	accounts []models.Account
	failures map[string]error
	listErr  error
}

func (f *fakeLedger) ListAccounts(context.Context) ([]models.Account, error) {
	return f.accounts, f.listErr
}

func (f *fakeLedger) AccrueProfits(_ context.Context, accountId string) (decimal.Decimal, error) {
	if err := f.failures[accountId]; err != nil {
		return decimal.Zero, err
	}
	return decimal.NewFromInt(1), nil
}

func (f *fakeLedger) Today() models.Date {
	return startDay
}

func TestSweep_CountsFailures(t *testing.T) {
	fake := &fakeLedger{
		accounts: []models.Account{account("a1", 10, 1), account("a2", 10, 1), account("gone", 10, 1)},
		failures: map[string]error{
			"a2":   errors.New("disk full"),
			"gone": ledger.ErrAccountNotFound,
		},
	}
	scheduler := NewScheduler(SchedulerConfig{Ledger: fake, Workers: 4})

	result, err := scheduler.Sweep(context.Background())
	if err != nil {
		t.Fatalf("Sweep failed: %v", err)
	}
	if result.Accrued != 1 || result.Failed != 1 || result.Skipped != 1 {
		t.Errorf("Unexpected result: %+v", result)
	}
	if scheduler.isSwept("a2", startDay) {
		t.Error("Failed account must be retried on the next sweep")
	}
}

func TestSweep_ListError(t *testing.T) {
	scheduler := NewScheduler(SchedulerConfig{Ledger: &fakeLedger{listErr: errors.New("store offline")}})
	if _, err := scheduler.Sweep(context.Background()); err == nil {
		t.Error("Expected error when accounts cannot be listed")
	}
}

func TestStart_Validation(t *testing.T) {
	fake := &fakeLedger{accounts: []models.Account{account("a1", 10, 1)}}

	scheduler := NewScheduler(SchedulerConfig{Ledger: fake, CleanupInterval: time.Hour})
	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Expected error for zero polling interval")
	}

	failing := &fakeLedger{
		accounts: []models.Account{account("a1", 10, 1), account("a2", 10, 1)},
		failures: map[string]error{"a1": errors.New("boom"), "a2": errors.New("boom")},
	}
	scheduler = NewScheduler(SchedulerConfig{Ledger: failing, PollingInterval: time.Hour, CleanupInterval: time.Hour})
	if err := scheduler.Start(context.Background()); err == nil {
		t.Error("Expected startup failure when most accounts fail")
	}
}

func TestStartStop(t *testing.T) {
	service, _ := setupLedger(t, []models.Account{account("a1", 1000, 2)})
	scheduler := NewScheduler(SchedulerConfig{
		Ledger:          service,
		PollingInterval: 10 * time.Millisecond,
		CleanupInterval: 10 * time.Millisecond,
		Workers:         1,
	})

	if err := scheduler.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	scheduler.Stop()

	a1, err := service.GetAccount(context.Background(), "a1")
	if err != nil {
		t.Fatalf("GetAccount failed: %v", err)
	}
	if !a1.Profits.Equal(decimal.NewFromInt(20)) {
		t.Errorf("Expected profits 20 after repeated sweeps on one day, got %s", a1.Profits)
	}
}
