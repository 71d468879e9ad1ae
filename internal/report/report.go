// Package report computes derived views over the transaction list. Every
// function is pure: (transactions, filters) in, view out. All sums stay in
// integer cents; percentage rounding happens at presentation time only.
package report

import (
	"sort"
	"time"

	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/registry"
)

// AllCategories is the pass-through category filter value.
const AllCategories = "all"

// Uncategorized buckets transactions with an empty category. The store rejects
// those at creation, but imported legacy data may still carry them.
const Uncategorized = "Uncategorized"

// MonthKey formats an instant as the YYYY-MM grouping key.
func MonthKey(t time.Time) string {
	return t.Format("2006-01")
}

type (
	// Summary is the fixed current-month hero stat: total spend plus the
	// cleared/pending split under the debit-settlement override. It always
	// covers the calendar month containing now, independent of any history
	// filter.
	Summary struct {
		MonthKey string
		Total    core.Money
		Cleared  core.Money
		Pending  core.Money
	}

	DayGroup struct {
		Date         string
		Total        core.Money
		Transactions []core.Transaction
	}

	MonthGroup struct {
		Key   string
		Total core.Money
		Days  []DayGroup
	}

	CategoryShare struct {
		Name   string
		Amount core.Money
		// Percent of the month total, unrounded. Presentation rounds to one
		// decimal place.
		Percent float64
	}
)

// MonthSummary computes the current-month totals.
func MonthSummary(txs []core.Transaction, instruments *registry.Instruments, now time.Time) Summary {
	s := Summary{MonthKey: MonthKey(now)}
	for _, tx := range txs {
		if tx.Date.MonthKey() != s.MonthKey {
			continue
		}
		s.Total.Cents += tx.Amount.Cents
		if tx.EffectiveCleared(instruments.Resolve(tx.CardID)) {
			s.Cleared.Cents += tx.Amount.Cents
		} else {
			s.Pending.Cents += tx.Amount.Cents
		}
	}
	return s
}

// GroupedHistory filters by category ("all" passes everything through) and
// groups by month, then day. Months sort descending by key, days descending by
// date, and transactions within a day descending by CreatedAt, so the most
// recently created entry lists first.
func GroupedHistory(txs []core.Transaction, categoryFilter string) []MonthGroup {
	byMonth := make(map[string]map[string][]core.Transaction)
	for _, tx := range txs {
		if categoryFilter != "" && categoryFilter != AllCategories && tx.Category != categoryFilter {
			continue
		}
		mk := tx.Date.MonthKey()
		dk := tx.Date.String()
		if byMonth[mk] == nil {
			byMonth[mk] = make(map[string][]core.Transaction)
		}
		byMonth[mk][dk] = append(byMonth[mk][dk], tx)
	}

	months := make([]MonthGroup, 0, len(byMonth))
	for mk, byDay := range byMonth {
		month := MonthGroup{Key: mk}
		for dk, dayTxs := range byDay {
			day := DayGroup{Date: dk, Transactions: dayTxs}
			sort.SliceStable(day.Transactions, func(i, j int) bool {
				return day.Transactions[i].CreatedAt > day.Transactions[j].CreatedAt
			})
			for _, tx := range dayTxs {
				day.Total.Cents += tx.Amount.Cents
			}
			month.Total.Cents += day.Total.Cents
			month.Days = append(month.Days, day)
		}
		sort.Slice(month.Days, func(i, j int) bool {
			return month.Days[i].Date > month.Days[j].Date
		})
		months = append(months, month)
	}
	sort.Slice(months, func(i, j int) bool {
		return months[i].Key > months[j].Key
	})
	return months
}

// CategoryBreakdown sums the given month's transactions per category and
// returns shares sorted descending by amount (name ascending on ties). An
// empty month yields an empty breakdown, guarding the percentage division.
func CategoryBreakdown(txs []core.Transaction, monthKey string) []CategoryShare {
	sums := make(map[string]int64)
	var total int64
	for _, tx := range txs {
		if tx.Date.MonthKey() != monthKey {
			continue
		}
		name := tx.Category
		if name == "" {
			name = Uncategorized
		}
		sums[name] += tx.Amount.Cents
		total += tx.Amount.Cents
	}
	if total == 0 {
		return nil
	}

	shares := make([]CategoryShare, 0, len(sums))
	for name, cents := range sums {
		shares = append(shares, CategoryShare{
			Name:    name,
			Amount:  core.Money{Cents: cents},
			Percent: float64(cents) * 100 / float64(total),
		})
	}
	sort.Slice(shares, func(i, j int) bool {
		if shares[i].Amount.Cents != shares[j].Amount.Cents {
			return shares[i].Amount.Cents > shares[j].Amount.Cents
		}
		return shares[i].Name < shares[j].Name
	})
	return shares
}

// MonthOptions lists every month-key present in the data plus the current
// real-world month, sorted descending.
func MonthOptions(txs []core.Transaction, now time.Time) []string {
	seen := map[string]struct{}{MonthKey(now): {}}
	for _, tx := range txs {
		seen[tx.Date.MonthKey()] = struct{}{}
	}
	keys := make([]string, 0, len(seen))
	for k := range seen {
		keys = append(keys, k)
	}
	sort.Sort(sort.Reverse(sort.StringSlice(keys)))
	return keys
}

// CategoryOptions returns "all" pinned first, then the union of the known
// category set and every category observed in the data, sorted alphabetically.
// Observed categories cover legacy or imported data outside the registry.
func CategoryOptions(txs []core.Transaction, known []string) []string {
	seen := make(map[string]struct{}, len(known))
	for _, c := range known {
		seen[c] = struct{}{}
	}
	for _, tx := range txs {
		if tx.Category != "" {
			seen[tx.Category] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for c := range seen {
		names = append(names, c)
	}
	sort.Strings(names)
	return append([]string{AllCategories}, names...)
}
