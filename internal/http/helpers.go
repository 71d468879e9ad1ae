package http

import (
	"crypto/rand"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/registry"
	"github.com/qmcao/spending-tracker/internal/report"
)

// transactionView is the API shape of a transaction, enriched with resolved
// instrument display data and the effective cleared flag.
type transactionView struct {
	ID               string `json:"id"`
	Date             string `json:"date"`
	AmountCents      int64  `json:"amountCents"`
	Amount           string `json:"amount"`
	Category         string `json:"category"`
	Memo             string `json:"memo,omitempty"`
	CardID           string `json:"cardId"`
	CardName         string `json:"cardName"`
	CardColor        string `json:"cardColor"`
	Settlement       string `json:"settlement"`
	Cleared          bool   `json:"cleared"`
	EffectiveCleared bool   `json:"effectiveCleared"`
	CreatedAt        int64  `json:"createdAt"`
}

func newTransactionView(tx core.Transaction, instruments *registry.Instruments) transactionView {
	inst := instruments.Resolve(tx.CardID)
	return transactionView{
		ID:               tx.ID,
		Date:             tx.Date.String(),
		AmountCents:      tx.Amount.Cents,
		Amount:           core.FormatCents(tx.Amount.Cents),
		Category:         tx.Category,
		Memo:             tx.Memo,
		CardID:           tx.CardID,
		CardName:         inst.DisplayName,
		CardColor:        inst.Color,
		Settlement:       string(inst.Settlement),
		Cleared:          tx.Cleared,
		EffectiveCleared: tx.EffectiveCleared(inst),
		CreatedAt:        tx.CreatedAt,
	}
}

type dayGroupView struct {
	Date         string            `json:"date"`
	TotalCents   int64             `json:"totalCents"`
	Total        string            `json:"total"`
	Transactions []transactionView `json:"transactions"`
}

type monthGroupView struct {
	Key        string         `json:"key"`
	TotalCents int64          `json:"totalCents"`
	Total      string         `json:"total"`
	Days       []dayGroupView `json:"days"`
}

func newHistoryView(months []report.MonthGroup, instruments *registry.Instruments) []monthGroupView {
	out := make([]monthGroupView, len(months))
	for i, m := range months {
		mv := monthGroupView{
			Key:        m.Key,
			TotalCents: m.Total.Cents,
			Total:      core.FormatCents(m.Total.Cents),
			Days:       make([]dayGroupView, len(m.Days)),
		}
		for j, d := range m.Days {
			dv := dayGroupView{
				Date:         d.Date,
				TotalCents:   d.Total.Cents,
				Total:        core.FormatCents(d.Total.Cents),
				Transactions: make([]transactionView, len(d.Transactions)),
			}
			for k, tx := range d.Transactions {
				dv.Transactions[k] = newTransactionView(tx, instruments)
			}
			mv.Days[j] = dv
		}
		out[i] = mv
	}
	return out
}

type categoryShareView struct {
	Name        string `json:"name"`
	AmountCents int64  `json:"amountCents"`
	Amount      string `json:"amount"`
	// Percent of the month total, rounded to one decimal place here at the
	// presentation boundary.
	Percent string `json:"percent"`
}

func newBreakdownView(shares []report.CategoryShare) []categoryShareView {
	out := make([]categoryShareView, len(shares))
	for i, s := range shares {
		out[i] = categoryShareView{
			Name:        s.Name,
			AmountCents: s.Amount.Cents,
			Amount:      core.FormatCents(s.Amount.Cents),
			Percent:     strconv.FormatFloat(s.Percent, 'f', 1, 64),
		}
	}
	return out
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Encode response failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// sanitizeInput removes potentially dangerous characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// generateRequestID creates a unique request ID for tracing.
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}
