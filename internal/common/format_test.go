package common

import (
	"testing"

	"yield-ledger-go/internal/models"

	"github.com/shopspring/decimal"
)

func TestFormatMoney(t *testing.T) {
	tests := map[string]string{
		"0":      "$0.00",
		"1000":   "$1000.00",
		"17.528": "$17.53",
		"0.004":  "$0.00",
		"250.4":  "$250.40",
	}
	for in, want := range tests {
		if got := FormatMoney(decimal.RequireFromString(in)); got != want {
			t.Errorf("FormatMoney(%s) = %s, want %s", in, got, want)
		}
	}
}

func TestFormatDate(t *testing.T) {
	if got := FormatDate(nil); got != "-" {
		t.Errorf("Expected - for nil, got %s", got)
	}
	d := models.MustParseDate("2026-01-09")
	if got := FormatDate(&d); got != "2026-01-09" {
		t.Errorf("Expected 2026-01-09, got %s", got)
	}
}

func TestBoxPrefix(t *testing.T) {
	if BoxPrefix(true) == BoxPrefix(false) {
		t.Error("Expected different prefixes for last and inner items")
	}
	if BoxDetailPrefix(true) != "   " {
		t.Errorf("Unexpected detail prefix %q", BoxDetailPrefix(true))
	}
}
