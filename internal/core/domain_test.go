package core

import (
	"testing"
	"time"
)

func TestDateRoundTrip(t *testing.T) {
	d, err := ParseDate("2024-06-15")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if d.String() != "2024-06-15" {
		t.Fatalf("expected 2024-06-15, got %s", d.String())
	}
	if d.MonthKey() != "2024-06" {
		t.Fatalf("expected 2024-06, got %s", d.MonthKey())
	}
}

func TestParseDateInvalid(t *testing.T) {
	for _, in := range []string{"", "not-a-date", "2024-13-01", "15/06/2024"} {
		if _, err := ParseDate(in); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestMoneyValidate(t *testing.T) {
	if err := (Money{Cents: 1}).Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}
	if err := (Money{Cents: 0}).Validate(); err == nil {
		t.Fatalf("expected error for zero")
	}
	if err := (Money{Cents: -100}).Validate(); err == nil {
		t.Fatalf("expected error for negative")
	}
}

func TestTransactionValidate(t *testing.T) {
	good := Transaction{
		ID:       "t1",
		Date:     NewDate(2024, 6, 15),
		Amount:   Money{Cents: 1250},
		Category: "Groceries",
		CardID:   "visa-debit",
	}
	if err := good.Validate(); err != nil {
		t.Fatalf("expected ok, got %v", err)
	}

	bads := []Transaction{
		{Date: Date{Time: time.Time{}}, Amount: Money{Cents: 1}, Category: "c", CardID: "x"},
		{Date: NewDate(2024, 6, 15), Amount: Money{Cents: 0}, Category: "c", CardID: "x"},
		{Date: NewDate(2024, 6, 15), Amount: Money{Cents: 1}, Category: "  ", CardID: "x"},
		{Date: NewDate(2024, 6, 15), Amount: Money{Cents: 1}, Category: "c", CardID: ""},
	}
	for i, tx := range bads {
		if err := tx.Validate(); err == nil {
			t.Fatalf("case %d expected error", i)
		}
	}
}

func TestEffectiveCleared(t *testing.T) {
	debit := Instrument{ID: "d", Settlement: Debit}
	credit := Instrument{ID: "c", Settlement: Credit}

	cases := []struct {
		stored bool
		inst   Instrument
		want   bool
	}{
		{false, debit, true}, // debit always clears
		{true, debit, true},
		{false, credit, false},
		{true, credit, true},
	}
	for i, tc := range cases {
		tx := Transaction{Cleared: tc.stored}
		if got := tx.EffectiveCleared(tc.inst); got != tc.want {
			t.Fatalf("case %d expected %v, got %v", i, tc.want, got)
		}
	}
}
