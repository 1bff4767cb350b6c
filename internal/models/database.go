package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Account statuses
const (
	AccountStatusActive   = "active"
	AccountStatusInactive = "inactive"
)

// Withdrawal request statuses
const (
	WithdrawalStatusPending  = "pending"
	WithdrawalStatusApproved = "approved"
	WithdrawalStatusRejected = "rejected"
)

// Account is a user's financial record, persisted as one element of the accounts collection
type Account struct {
	Id                        string          `json:"id"`
	Name                      string          `json:"name"`
	FullName                  string          `json:"fullName"`
	Email                     string          `json:"email"`
	Age                       int             `json:"age,omitempty"`
	Country                   string          `json:"country,omitempty"`
	Status                    string          `json:"status"`
	Balance                   decimal.Decimal `json:"balance"`
	Profits                   decimal.Decimal `json:"profits"`
	LastDepositDate           *Date           `json:"lastDepositDate,omitempty"`
	LastProfitCalculationDate *Date           `json:"lastProfitCalculationDate,omitempty"`
	PendingDeposit            bool            `json:"pendingDeposit"`
	WithdrawalPeriod          int             `json:"withdrawalPeriod"`
	JoinDate                  Date            `json:"joinDate"`
}

// Validate rejects records that would break ledger invariants.
func (a *Account) Validate() error {
	if strings.TrimSpace(a.Id) == "" {
		return fmt.Errorf("account id is empty")
	}
	if a.Balance.IsNegative() {
		return fmt.Errorf("account %s: negative balance %s", a.Id, a.Balance.String())
	}
	if a.Profits.IsNegative() {
		return fmt.Errorf("account %s: negative profits %s", a.Id, a.Profits.String())
	}
	if a.WithdrawalPeriod < 0 {
		return fmt.Errorf("account %s: negative withdrawal period %d", a.Id, a.WithdrawalPeriod)
	}
	switch a.Status {
	case "", AccountStatusActive, AccountStatusInactive:
	default:
		return fmt.Errorf("account %s: unknown status %q", a.Id, a.Status)
	}
	return nil
}

// EffectiveWithdrawalPeriod returns the per-account maturity period, falling back to defaultDays when unset.
func (a *Account) EffectiveWithdrawalPeriod(defaultDays int) int {
	if a.WithdrawalPeriod > 0 {
		return a.WithdrawalPeriod
	}
	return defaultDays
}

// Total is balance plus accrued profits.
func (a *Account) Total() decimal.Decimal {
	return a.Balance.Add(a.Profits)
}

// WithdrawalRequest is a user-initiated payout awaiting admin review
type WithdrawalRequest struct {
	Id                string          `json:"id"`
	UserId            string          `json:"userId"`
	UserName          string          `json:"userName,omitempty"`
	Amount            decimal.Decimal `json:"amount"`
	Network           string          `json:"network"`
	WalletAddress     string          `json:"walletAddress"`
	WalletName        string          `json:"walletName,omitempty"`
	Status            string          `json:"status"`
	CreatedAt         time.Time       `json:"createdAt"`
	AmountFromProfits decimal.Decimal `json:"amountFromProfits"`
	AmountFromBalance decimal.Decimal `json:"amountFromBalance"`
	ResolvedAt        *time.Time      `json:"resolvedAt,omitempty"`
	ResolvedBy        string          `json:"resolvedBy,omitempty"`
}

func (w *WithdrawalRequest) Validate() error {
	if strings.TrimSpace(w.Id) == "" {
		return fmt.Errorf("withdrawal id is empty")
	}
	if strings.TrimSpace(w.UserId) == "" {
		return fmt.Errorf("withdrawal %s: user id is empty", w.Id)
	}
	if !w.Amount.IsPositive() {
		return fmt.Errorf("withdrawal %s: amount must be positive, got %s", w.Id, w.Amount.String())
	}
	if w.AmountFromProfits.IsNegative() || w.AmountFromBalance.IsNegative() {
		return fmt.Errorf("withdrawal %s: negative allocation", w.Id)
	}
	switch w.Status {
	case WithdrawalStatusPending, WithdrawalStatusApproved, WithdrawalStatusRejected:
	default:
		return fmt.Errorf("withdrawal %s: unknown status %q", w.Id, w.Status)
	}
	return nil
}

// HasAllocation reports whether the profits/balance split was recorded at creation.
func (w *WithdrawalRequest) HasAllocation() bool {
	return w.AmountFromProfits.Add(w.AmountFromBalance).Equal(w.Amount)
}
