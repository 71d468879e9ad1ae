package http

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/ledger"
	"github.com/qmcao/spending-tracker/internal/registry"
	"github.com/qmcao/spending-tracker/internal/report"
)

// transactionRequest is the create/update body. Amount is a decimal string in
// major units ("12.50"); the server stores cents. Date is optional on create
// and defaults to today. Cleared is optional: true on create, unchanged on
// update.
type transactionRequest struct {
	Date     string `json:"date"`
	Amount   string `json:"amount"`
	Category string `json:"category"`
	Memo     string `json:"memo"`
	CardID   string `json:"cardId"`
	Cleared  *bool  `json:"cleared"`
}

func (s *Server) draftFromRequest(r *http.Request) (ledger.Draft, error) {
	var req transactionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return ledger.Draft{}, errors.New("invalid request body")
	}

	cents, err := core.ParseDecimalToCents(req.Amount)
	if err != nil {
		return ledger.Draft{}, err
	}

	draft := ledger.Draft{
		Amount:   core.Money{Cents: cents},
		Category: sanitizeInput(req.Category),
		Memo:     sanitizeInput(req.Memo),
		CardID:   sanitizeInput(req.CardID),
		Cleared:  req.Cleared,
	}
	if strings.TrimSpace(req.Date) != "" {
		date, err := core.ParseDate(req.Date)
		if err != nil {
			return ledger.Draft{}, err
		}
		draft.Date = date
	}
	return draft, nil
}

func (s *Server) handleTransactions(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		txs := s.ledger.All()
		views := make([]transactionView, len(txs))
		for i, tx := range txs {
			views[i] = newTransactionView(tx, s.instruments)
		}
		writeJSON(w, http.StatusOK, views)

	case http.MethodPost:
		draft, err := s.draftFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tx, err := s.ledger.Create(r.Context(), draft)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.invalidateViews()
		writeJSON(w, http.StatusCreated, newTransactionView(tx, s.instruments))

	case http.MethodDelete:
		s.ledger.ClearAll(r.Context())
		s.invalidateViews()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "GET, POST, DELETE")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleTransactionByID(w http.ResponseWriter, r *http.Request) {
	rest := strings.TrimPrefix(r.URL.Path, "/api/transactions/")
	id, action, _ := strings.Cut(rest, "/")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing transaction id")
		return
	}

	switch {
	case action == "toggle" && r.Method == http.MethodPost:
		tx, changed := s.ledger.ToggleCleared(r.Context(), id)
		if tx.ID == "" {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if changed {
			s.invalidateViews()
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"transaction": newTransactionView(tx, s.instruments),
			"changed":     changed,
		})

	case action == "" && r.Method == http.MethodPut:
		draft, err := s.draftFromRequest(r)
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		tx, found, err := s.ledger.Update(r.Context(), id, draft)
		if !found {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		if err != nil {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		s.invalidateViews()
		writeJSON(w, http.StatusOK, newTransactionView(tx, s.instruments))

	case action == "" && r.Method == http.MethodDelete:
		if !s.ledger.Delete(r.Context(), id) {
			writeError(w, http.StatusNotFound, "transaction not found")
			return
		}
		s.invalidateViews()
		w.WriteHeader(http.StatusNoContent)

	default:
		w.Header().Set("Allow", "PUT, DELETE, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	sum := report.MonthSummary(s.ledger.All(), s.instruments, s.now())
	writeJSON(w, http.StatusOK, map[string]any{
		"month":        sum.MonthKey,
		"totalCents":   sum.Total.Cents,
		"total":        core.FormatCents(sum.Total.Cents),
		"clearedCents": sum.Cleared.Cents,
		"cleared":      core.FormatCents(sum.Cleared.Cents),
		"pendingCents": sum.Pending.Cents,
		"pending":      core.FormatCents(sum.Pending.Cents),
	})
}

func (s *Server) handleHistory(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	category := sanitizeInput(r.URL.Query().Get("category"))
	if category == "" {
		category = report.AllCategories
	}

	months, ok := s.historyCache.Get(category)
	if !ok {
		months = report.GroupedHistory(s.ledger.All(), category)
		s.historyCache.Set(category, months)
	}
	writeJSON(w, http.StatusOK, newHistoryView(months, s.instruments))
}

func (s *Server) handleBreakdown(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	month := sanitizeInput(r.URL.Query().Get("month"))
	if month == "" {
		month = report.MonthKey(s.now())
	}

	shares, ok := s.breakdownCache.Get(month)
	if !ok {
		shares = report.CategoryBreakdown(s.ledger.All(), month)
		s.breakdownCache.Set(month, shares)
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"month":     month,
		"breakdown": newBreakdownView(shares),
	})
}

func (s *Server) handleFilters(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	txs := s.ledger.All()
	writeJSON(w, http.StatusOK, map[string]any{
		"months":     report.MonthOptions(txs, s.now()),
		"categories": report.CategoryOptions(txs, s.categories.All()),
	})
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	data, err := s.ledger.Export()
	if err != nil {
		slog.ErrorContext(r.Context(), "Export failed", "error", err)
		writeError(w, http.StatusInternalServerError, "export failed")
		return
	}
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="transactions.json"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	payload, err := io.ReadAll(io.LimitReader(r.Body, 10<<20))
	if err != nil {
		writeError(w, http.StatusBadRequest, "failed to read request body")
		return
	}

	count, err := s.ledger.ReplaceAll(r.Context(), payload)
	if err != nil {
		// Import is user-supplied data: reject hard, mutate nothing.
		writeError(w, http.StatusUnprocessableEntity, "import payload must be a JSON array of transactions")
		return
	}
	s.invalidateViews()
	writeJSON(w, http.StatusOK, map[string]any{"imported": count})
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		writeJSON(w, http.StatusOK, map[string]any{
			"categories": s.categories.All(),
			"custom":     s.categories.Custom(),
		})

	case http.MethodPost:
		var req struct {
			Name string `json:"name"`
		}
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		switch err := s.categories.AddCustom(sanitizeInput(req.Name)); {
		case errors.Is(err, registry.ErrDuplicateCategory):
			writeError(w, http.StatusConflict, "category already exists")
		case errors.Is(err, registry.ErrEmptyCategoryName):
			writeError(w, http.StatusUnprocessableEntity, "category name cannot be empty")
		case err != nil:
			writeError(w, http.StatusInternalServerError, err.Error())
		default:
			writeJSON(w, http.StatusCreated, map[string]any{"categories": s.categories.All()})
		}

	default:
		w.Header().Set("Allow", "GET, POST")
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleInstruments(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	type instrumentView struct {
		ID         string `json:"id"`
		Name       string `json:"name"`
		Settlement string `json:"settlement"`
		Color      string `json:"color"`
	}
	all := s.instruments.All()
	views := make([]instrumentView, len(all))
	for i, inst := range all {
		views[i] = instrumentView{
			ID:         inst.ID,
			Name:       inst.DisplayName,
			Settlement: string(inst.Settlement),
			Color:      inst.Color,
		}
	}
	writeJSON(w, http.StatusOK, views)
}

// handleStatus exposes the persistence state so clients can show a
// non-blocking warning when the store has degraded to in-memory mode.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"backend":  s.status.Backend(),
		"degraded": s.status.Degraded(),
	})
}
