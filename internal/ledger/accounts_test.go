package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"yield-ledger-go/internal/models"
)

func TestRegisterAccount(t *testing.T) {
	f := setupLedger(t, "")
	ctx := context.Background()

	account, err := f.service.RegisterAccount(ctx, RegisterParams{
		FullName: "  Amira Haddad ",
		Email:    "amira@example.com",
		Age:      31,
		Country:  "Jordan",
	})
	if err != nil {
		t.Fatalf("RegisterAccount failed: %v", err)
	}
	if account.Id == "" {
		t.Error("Expected an id to be assigned")
	}
	if account.Name != "Amira" || account.FullName != "Amira Haddad" {
		t.Errorf("Unexpected names %q / %q", account.Name, account.FullName)
	}
	if account.WithdrawalPeriod != 30 {
		t.Errorf("Expected default period 30, got %d", account.WithdrawalPeriod)
	}
	if !account.JoinDate.Equal(testToday) {
		t.Errorf("Expected join date today, got %s", account.JoinDate)
	}
	if account.LastDepositDate != nil || account.PendingDeposit {
		t.Error("Expected no deposit on a new account")
	}
	assertDecimal(t, "balance", "0", account.Balance)

	found, err := f.service.GetAccountByEmail(ctx, "AMIRA@example.com")
	if err != nil {
		t.Fatalf("GetAccountByEmail failed: %v", err)
	}
	if found.Id != account.Id {
		t.Errorf("Expected %s, got %s", account.Id, found.Id)
	}

	_, err = f.service.RegisterAccount(ctx, RegisterParams{FullName: "Someone Else", Email: "Amira@Example.com"})
	if !errors.Is(err, ErrDuplicateEmail) {
		t.Errorf("Expected ErrDuplicateEmail, got %v", err)
	}
}

func TestRegisterAccount_Validation(t *testing.T) {
	tests := []struct {
		name   string
		params RegisterParams
	}{
		{"empty name", RegisterParams{FullName: " ", Email: "a@example.com"}},
		{"short name", RegisterParams{FullName: "A", Email: "a@example.com"}},
		{"empty email", RegisterParams{FullName: "Test User", Email: ""}},
		{"bad email", RegisterParams{FullName: "Test User", Email: "not-an-email"}},
		{"negative age", RegisterParams{FullName: "Test User", Email: "a@example.com", Age: -1}},
	}

	f := setupLedger(t, "")
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.service.RegisterAccount(context.Background(), tt.params); !errors.Is(err, ErrValidation) {
				t.Errorf("Expected ErrValidation, got %v", err)
			}
		})
	}
}

func TestDeleteAccount(t *testing.T) {
	f := setupLedger(t, "", fundedAccount("u1", "1", "0", 1), fundedAccount("u2", "2", "0", 1))
	ctx := context.Background()

	if err := f.service.DeleteAccount(ctx, "u1"); err != nil {
		t.Fatalf("DeleteAccount failed: %v", err)
	}
	if _, err := f.service.GetAccount(ctx, "u1"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
	accounts, err := f.service.ListAccounts(ctx)
	if err != nil {
		t.Fatalf("ListAccounts failed: %v", err)
	}
	if len(accounts) != 1 || accounts[0].Id != "u2" {
		t.Errorf("Expected only u2 to remain, got %+v", accounts)
	}
	if err := f.service.DeleteAccount(ctx, "u1"); !errors.Is(err, ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestDeleteAccount_RefusedWhilePending(t *testing.T) {
	f := setupLedger(t, "", fundedAccount("u1", "1000", "0", 200))
	ctx := context.Background()

	request, err := f.service.SubmitWithdrawal(ctx, submitParams("u1", "100"))
	if err != nil {
		t.Fatalf("SubmitWithdrawal failed: %v", err)
	}

	if err := f.service.DeleteAccount(ctx, "u1"); !errors.Is(err, ErrInvalidTransition) {
		t.Fatalf("Expected ErrInvalidTransition, got %v", err)
	}
	if _, err := f.service.GetAccount(ctx, "u1"); err != nil {
		t.Errorf("Expected account to remain, got %v", err)
	}

	if _, err := f.service.AdminApprove(ctx, request.Id, "admin1"); err != nil {
		t.Fatalf("AdminApprove failed: %v", err)
	}
	if err := f.service.DeleteAccount(ctx, "u1"); err != nil {
		t.Errorf("Expected delete after resolution to succeed, got %v", err)
	}
}

func TestListWithdrawals_Filter(t *testing.T) {
	f := setupLedger(t, "")
	ctx := context.Background()
	base := fixedClock()

	seed := []models.WithdrawalRequest{
		{Id: "w1", UserId: "u1", Amount: dec("1"), Network: "TRC20", WalletAddress: "a", Status: models.WithdrawalStatusPending, CreatedAt: base.Add(-3 * time.Hour)},
		{Id: "w2", UserId: "u2", Amount: dec("2"), Network: "TRC20", WalletAddress: "b", Status: models.WithdrawalStatusApproved, CreatedAt: base.Add(-2 * time.Hour)},
		{Id: "w3", UserId: "u1", Amount: dec("3"), Network: "BEP20", WalletAddress: "c", Status: models.WithdrawalStatusPending, CreatedAt: base.Add(-1 * time.Hour)},
	}
	if err := f.store.WriteWithdrawals(ctx, seed); err != nil {
		t.Fatalf("Failed to seed withdrawals: %v", err)
	}

	tests := []struct {
		name   string
		filter WithdrawalFilter
		want   []string
	}{
		{"all newest first", WithdrawalFilter{}, []string{"w3", "w2", "w1"}},
		{"by user", WithdrawalFilter{UserId: "u1"}, []string{"w3", "w1"}},
		{"by status", WithdrawalFilter{Status: models.WithdrawalStatusApproved}, []string{"w2"}},
		{"no match", WithdrawalFilter{UserId: "u2", Status: models.WithdrawalStatusRejected}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := f.service.ListWithdrawals(ctx, tt.filter)
			if err != nil {
				t.Fatalf("ListWithdrawals failed: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Fatalf("Expected %d requests, got %d", len(tt.want), len(got))
			}
			for i, id := range tt.want {
				if got[i].Id != id {
					t.Errorf("Position %d: expected %s, got %s", i, id, got[i].Id)
				}
			}
		})
	}
}

func TestNewService_RejectsBadConfig(t *testing.T) {
	f := setupLedger(t, "")

	if _, err := NewService(Config{Policy: models.DefaultPolicy()}); err == nil {
		t.Error("Expected error without a store")
	}
	if _, err := NewService(Config{Store: f.store, Policy: models.DefaultPolicy(), RejectCreditMode: "refund"}); err == nil {
		t.Error("Expected error for unknown reject credit mode")
	}
	bad := models.DefaultPolicy()
	bad.Networks = nil
	if _, err := NewService(Config{Store: f.store, Policy: bad}); err == nil {
		t.Error("Expected error for invalid policy")
	}
}

func TestKeyedMutex_ReleasesEntries(t *testing.T) {
	locks := newKeyedMutex()
	unlockA := locks.Lock("a")
	unlockB := locks.Lock("b")
	if locks.size() != 2 {
		t.Errorf("Expected 2 held locks, got %d", locks.size())
	}
	unlockA()
	unlockB()
	if locks.size() != 0 {
		t.Errorf("Expected no locks left, got %d", locks.size())
	}
}
