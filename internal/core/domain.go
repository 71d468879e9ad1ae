package core

import (
	"errors"
	"strings"
	"time"
)

const (
	Credit SettlementType = "credit"
	Debit  SettlementType = "debit"
)

type (
	// SettlementType classifies how an instrument settles: credit funds may be
	// pending before they clear, debit funds clear instantly.
	SettlementType string

	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Instrument is a payment method (card) with display metadata.
	// Instruments are immutable and defined at process start.
	Instrument struct {
		ID          string
		DisplayName string
		Settlement  SettlementType
		Color       string
	}

	// Transaction is a single spending record. CreatedAt is a millisecond
	// epoch timestamp assigned once at creation; edits must preserve it.
	Transaction struct {
		ID        string
		Date      Date
		Amount    Money
		Category  string
		Memo      string
		CardID    string
		Cleared   bool
		CreatedAt int64
	}
)

var (
	ErrInvalidAmount = errors.New("invalid amount")
	ErrEmptyCategory = errors.New("empty category")
	ErrInvalidDate   = errors.New("invalid date")
	ErrMissingCard   = errors.New("missing card reference")
)

// NewDate creates a Date from year, month, day. The time component is zeroed
// in UTC so equal calendar days always compare equal.
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates an instant to its calendar day.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// ParseDate parses a YYYY-MM-DD string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse("2006-01-02", strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return Date{Time: t}, nil
}

// String renders the date as YYYY-MM-DD, the persisted wire format.
func (d Date) String() string {
	return d.Format("2006-01-02")
}

// MonthKey returns the YYYY-MM grouping key. Month keys sort chronologically
// as plain strings.
func (d Date) MonthKey() string {
	return d.Format("2006-01")
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

func (t Transaction) Validate() error {
	if err := t.Date.Validate(); err != nil {
		return err
	}
	if err := t.Amount.Validate(); err != nil {
		return err
	}
	if strings.TrimSpace(t.Category) == "" {
		return ErrEmptyCategory
	}
	if strings.TrimSpace(t.CardID) == "" {
		return ErrMissingCard
	}
	return nil
}

// EffectiveCleared applies the settlement-type override: a transaction against
// a debit instrument is always cleared, regardless of the stored flag. For
// credit instruments the stored flag is authoritative.
func (t Transaction) EffectiveCleared(inst Instrument) bool {
	return t.Cleared || inst.Settlement == Debit
}
