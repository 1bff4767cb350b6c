package store

import (
	"context"
	"errors"
	"testing"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

type memBackend struct {
	data      map[string][]byte
	revisions map[string]int64
	loadErr   error
	saveErr   error
}

func newMemBackend() *memBackend {
	return &memBackend{data: make(map[string][]byte), revisions: make(map[string]int64)}
}

func (m *memBackend) put(key, doc string) {
	m.data[key] = []byte(doc)
	m.revisions[key]++
}

func (m *memBackend) Load(_ context.Context, key string) ([]byte, int64, error) {
	if m.loadErr != nil {
		return nil, NoRevision, m.loadErr
	}
	return m.data[key], m.revisions[key], nil
}

func (m *memBackend) Save(_ context.Context, key string, data []byte, expected int64) (int64, error) {
	if m.saveErr != nil {
		return NoRevision, m.saveErr
	}
	if expected != AnyRevision && expected != m.revisions[key] {
		return NoRevision, ErrConflict
	}
	m.data[key] = data
	m.revisions[key]++
	return m.revisions[key], nil
}

func (m *memBackend) Close() {}

// Compile-time check that the fake satisfies the contract.
var _ Backend = (*memBackend)(nil)

func TestReadAccounts_EmptyCollection(t *testing.T) {
	s := New(newMemBackend())

	accounts, err := s.ReadAccounts(context.Background())
	if err != nil {
		t.Fatalf("ReadAccounts failed: %v", err)
	}
	if len(accounts) != 0 {
		t.Errorf("Expected no accounts, got %d", len(accounts))
	}
}

func TestAccountsRoundTrip(t *testing.T) {
	s := New(newMemBackend())
	ctx := context.Background()
	deposit := models.MustParseDate("2026-01-10")

	in := []models.Account{{
		Id:               "u1",
		Email:            "a@example.com",
		Status:           models.AccountStatusActive,
		Balance:          decimal.RequireFromString("1000.50"),
		Profits:          decimal.RequireFromString("12.25"),
		LastDepositDate:  &deposit,
		WithdrawalPeriod: 30,
		JoinDate:         models.MustParseDate("2026-01-01"),
	}}
	if err := s.WriteAccounts(ctx, in); err != nil {
		t.Fatalf("WriteAccounts failed: %v", err)
	}

	out, err := s.ReadAccounts(ctx)
	if err != nil {
		t.Fatalf("ReadAccounts failed: %v", err)
	}
	if len(out) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(out))
	}
	if !out[0].Balance.Equal(in[0].Balance) || !out[0].Profits.Equal(in[0].Profits) {
		t.Errorf("Balances differ: got %s/%s", out[0].Balance, out[0].Profits)
	}
	if out[0].LastDepositDate == nil || !out[0].LastDepositDate.Equal(deposit) {
		t.Errorf("Expected last deposit %s, got %v", deposit, out[0].LastDepositDate)
	}
	if out[0].LastProfitCalculationDate != nil {
		t.Errorf("Expected no profit calculation date, got %s", out[0].LastProfitCalculationDate)
	}
}

func TestReadAccounts_RejectsMalformedData(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"not json", `{{`},
		{"negative balance", `[{"id":"u1","balance":"-1","profits":"0","joinDate":"2026-01-01"}]`},
		{"empty id", `[{"id":"","balance":"1","profits":"0","joinDate":"2026-01-01"}]`},
		{"bad date", `[{"id":"u1","balance":"1","profits":"0","joinDate":"yesterday"}]`},
		{"duplicate id", `[{"id":"u1","balance":"1","profits":"0"},{"id":"u1","balance":"2","profits":"0"}]`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			backend := newMemBackend()
			backend.put(KeyAccounts, tt.doc)

			_, err := New(backend).ReadAccounts(context.Background())
			if !errors.Is(err, ErrMalformedRecord) {
				t.Errorf("Expected ErrMalformedRecord, got %v", err)
			}
		})
	}
}

func TestReadAccounts_AcceptsLegacyNumbers(t *testing.T) {
	backend := newMemBackend()
	backend.put(KeyAccounts, `[{"id":"1700000000000","balance":250,"profits":2.5,"withdrawalPeriod":0,"joinDate":"2026-02-01","lastDepositDate":"2026-02-03T10:00:00.000Z"}]`)

	accounts, err := New(backend).ReadAccounts(context.Background())
	if err != nil {
		t.Fatalf("ReadAccounts failed: %v", err)
	}
	if !accounts[0].Balance.Equal(decimal.NewFromInt(250)) {
		t.Errorf("Expected balance 250, got %s", accounts[0].Balance)
	}
	if got := accounts[0].LastDepositDate.String(); got != "2026-02-03" {
		t.Errorf("Expected deposit date 2026-02-03, got %s", got)
	}
	if got := accounts[0].EffectiveWithdrawalPeriod(30); got != 30 {
		t.Errorf("Expected default withdrawal period 30, got %d", got)
	}
}

func TestBackendFailuresAreWrapped(t *testing.T) {
	backend := newMemBackend()
	backend.loadErr = errors.New("disk gone")
	backend.saveErr = errors.New("disk gone")
	s := New(backend)
	ctx := context.Background()

	if _, err := s.ReadWithdrawals(ctx); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected ErrPersistence on read, got %v", err)
	}
	if err := s.WriteAccounts(ctx, nil); !errors.Is(err, ErrPersistence) {
		t.Errorf("Expected ErrPersistence on write, got %v", err)
	}
}

func TestWriteWithdrawals_RefusesInvalidRecords(t *testing.T) {
	s := New(newMemBackend())

	err := s.WriteWithdrawals(context.Background(), []models.WithdrawalRequest{{
		Id:     "w1",
		UserId: "u1",
		Amount: decimal.Zero,
		Status: models.WithdrawalStatusPending,
	}})
	if err == nil {
		t.Fatal("Expected error for zero-amount withdrawal")
	}
}

func TestSaveAccounts_StaleRevisionConflicts(t *testing.T) {
	s := New(newMemBackend())
	ctx := context.Background()

	_, revision, err := s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("LoadAccounts failed: %v", err)
	}
	if revision != NoRevision {
		t.Errorf("Expected NoRevision for an empty collection, got %d", revision)
	}

	first := []models.Account{{Id: "u1", Status: models.AccountStatusActive}}
	if err := s.SaveAccounts(ctx, first, revision); err != nil {
		t.Fatalf("SaveAccounts failed: %v", err)
	}

	second := []models.Account{{Id: "u2", Status: models.AccountStatusActive}}
	err = s.SaveAccounts(ctx, second, revision)
	if !errors.Is(err, ErrConflict) {
		t.Fatalf("Expected ErrConflict, got %v", err)
	}
	if errors.Is(err, ErrPersistence) {
		t.Error("A conflict must not be reported as a persistence failure")
	}

	accounts, current, err := s.LoadAccounts(ctx)
	if err != nil {
		t.Fatalf("LoadAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Id != "u1" {
		t.Errorf("Expected the first write to survive, got %+v", accounts)
	}
	if err := s.SaveAccounts(ctx, second, current); err != nil {
		t.Errorf("SaveAccounts with the current revision failed: %v", err)
	}
}

func TestWriteWithdrawals_IsUnconditional(t *testing.T) {
	backend := newMemBackend()
	backend.put(KeyWithdrawals, `[]`)
	s := New(backend)

	if err := s.WriteWithdrawals(context.Background(), nil); err != nil {
		t.Errorf("WriteWithdrawals failed: %v", err)
	}
}
