package report

import (
	"math"
	"testing"
	"time"

	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/registry"
)

var testNow = time.Date(2024, 6, 20, 12, 0, 0, 0, time.UTC)

func tx(id string, date core.Date, cents int64, category, cardID string, cleared bool, createdAt int64) core.Transaction {
	return core.Transaction{
		ID:        id,
		Date:      date,
		Amount:    core.Money{Cents: cents},
		Category:  category,
		CardID:    cardID,
		Cleared:   cleared,
		CreatedAt: createdAt,
	}
}

func TestMonthSummaryScopesToCurrentMonth(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 15), 1250, "Groceries", "everyday-debit", false, 1),
		tx("b", core.NewDate(2024, 6, 1), 500, "Dining", "sapphire", false, 2),
		tx("c", core.NewDate(2024, 5, 31), 9999, "Travel", "sapphire", true, 3),
	}

	s := MonthSummary(txs, registry.DefaultInstruments(), testNow)
	if s.MonthKey != "2024-06" {
		t.Fatalf("unexpected month key: %s", s.MonthKey)
	}
	// May's transaction is out of scope regardless of filters.
	if s.Total.Cents != 1750 {
		t.Fatalf("expected total 1750, got %d", s.Total.Cents)
	}
	// The debit transaction is cleared despite its stored flag; the pending
	// credit one is not.
	if s.Cleared.Cents != 1250 || s.Pending.Cents != 500 {
		t.Fatalf("unexpected split: cleared=%d pending=%d", s.Cleared.Cents, s.Pending.Cents)
	}
}

func TestMonthSummaryUnknownInstrumentUsesStoredFlag(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 2), 300, "Misc", "ghost-card", false, 1),
	}
	s := MonthSummary(txs, registry.DefaultInstruments(), testNow)
	if s.Pending.Cents != 300 {
		t.Fatalf("placeholder instrument should leave flag authoritative, got pending=%d", s.Pending.Cents)
	}
}

func TestGroupedHistoryOrdering(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 15), 100, "Groceries", "cash", true, 100),
		tx("b", core.NewDate(2024, 6, 15), 200, "Groceries", "cash", true, 200),
		tx("c", core.NewDate(2024, 6, 3), 300, "Dining", "cash", true, 50),
		tx("d", core.NewDate(2024, 5, 30), 400, "Travel", "cash", true, 10),
		tx("e", core.NewDate(2023, 12, 31), 500, "Gifts", "cash", true, 5),
	}

	months := GroupedHistory(txs, AllCategories)
	wantKeys := []string{"2024-06", "2024-05", "2023-12"}
	if len(months) != len(wantKeys) {
		t.Fatalf("expected %d months, got %d", len(wantKeys), len(months))
	}
	for i, k := range wantKeys {
		if months[i].Key != k {
			t.Fatalf("month %d: expected %s, got %s", i, k, months[i].Key)
		}
	}

	june := months[0]
	if june.Total.Cents != 600 {
		t.Fatalf("expected june total 600, got %d", june.Total.Cents)
	}
	if june.Days[0].Date != "2024-06-15" || june.Days[1].Date != "2024-06-03" {
		t.Fatalf("days not descending: %+v", june.Days)
	}
	// Same-day transactions sort by CreatedAt descending: the createdAt=200
	// record lists first.
	day := june.Days[0]
	if day.Total.Cents != 300 {
		t.Fatalf("expected day total 300, got %d", day.Total.Cents)
	}
	if day.Transactions[0].ID != "b" || day.Transactions[1].ID != "a" {
		t.Fatalf("same-day ordering wrong: %+v", day.Transactions)
	}
}

func TestGroupedHistoryCategoryFilter(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 15), 100, "Groceries", "cash", true, 1),
		tx("b", core.NewDate(2024, 6, 15), 200, "Dining", "cash", true, 2),
	}

	months := GroupedHistory(txs, "Groceries")
	if len(months) != 1 || months[0].Total.Cents != 100 {
		t.Fatalf("expected only groceries, got %+v", months)
	}

	if got := GroupedHistory(txs, "Nope"); len(got) != 0 {
		t.Fatalf("expected empty history, got %+v", got)
	}
}

func TestCategoryBreakdown(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 15), 600, "Groceries", "cash", true, 1),
		tx("b", core.NewDate(2024, 6, 16), 300, "Dining", "cash", true, 2),
		tx("c", core.NewDate(2024, 6, 17), 100, "", "cash", true, 3),
		tx("d", core.NewDate(2024, 5, 1), 5000, "Travel", "cash", true, 4),
	}

	shares := CategoryBreakdown(txs, "2024-06")
	if len(shares) != 3 {
		t.Fatalf("expected 3 shares, got %+v", shares)
	}
	if shares[0].Name != "Groceries" || shares[1].Name != "Dining" || shares[2].Name != Uncategorized {
		t.Fatalf("unexpected order: %+v", shares)
	}
	if shares[0].Amount.Cents != 600 {
		t.Fatalf("expected 600 cents, got %d", shares[0].Amount.Cents)
	}

	var sum float64
	for _, s := range shares {
		sum += s.Percent
	}
	if math.Abs(sum-100.0) > 0.1 {
		t.Fatalf("percentages should sum to 100, got %f", sum)
	}
}

func TestCategoryBreakdownEmptyMonth(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 5, 1), 100, "Travel", "cash", true, 1),
	}
	if got := CategoryBreakdown(txs, "2024-06"); got != nil {
		t.Fatalf("expected empty breakdown, got %+v", got)
	}
	if got := CategoryBreakdown(nil, "2024-06"); got != nil {
		t.Fatalf("expected empty breakdown for no data, got %+v", got)
	}
}

func TestMonthOptions(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 1, 15), 100, "Groceries", "cash", true, 1),
		tx("b", core.NewDate(2023, 12, 1), 100, "Gifts", "cash", true, 2),
		tx("c", core.NewDate(2024, 1, 20), 100, "Dining", "cash", true, 3),
	}

	got := MonthOptions(txs, testNow)
	want := []string{"2024-06", "2024-01", "2023-12"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}

	// The current month is present even with no transactions at all.
	if got := MonthOptions(nil, testNow); len(got) != 1 || got[0] != "2024-06" {
		t.Fatalf("expected just current month, got %v", got)
	}
}

func TestCategoryOptions(t *testing.T) {
	txs := []core.Transaction{
		tx("a", core.NewDate(2024, 6, 15), 100, "Zeppelins", "cash", true, 1),
		tx("b", core.NewDate(2024, 6, 15), 100, "Groceries", "cash", true, 2),
	}

	got := CategoryOptions(txs, []string{"Groceries", "Dining"})
	want := []string{"all", "Dining", "Groceries", "Zeppelins"}
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("expected %v, got %v", want, got)
		}
	}
}
