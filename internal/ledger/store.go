// Package ledger owns the authoritative in-memory transaction list. Every
// mutation persists through the storage adapter before returning, so derived
// views never observe state that is not at least queued for persistence.
package ledger

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/qmcao/spending-tracker/internal/amqp"
	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/registry"
	"github.com/qmcao/spending-tracker/internal/storage"
)

// TransactionsKey is the storage key for the persisted transaction list.
const TransactionsKey = "transactions"

var ErrInvalidImport = errors.New("import payload must be a JSON array")

// Draft carries caller-supplied fields for create and update. Cleared is a
// pointer so an unset flag can take the default (true on create, unchanged on
// update).
type Draft struct {
	Date     core.Date
	Amount   core.Money
	Category string
	Memo     string
	CardID   string
	Cleared  *bool
}

// Store serializes all mutations behind one mutex; the in-memory list stays
// authoritative for the session even when persistence degrades.
type Store struct {
	mu          sync.Mutex
	storage     *storage.Store
	instruments *registry.Instruments
	events      *amqp.Client
	txs         []core.Transaction
	now         func() time.Time
}

func New(st *storage.Store, instruments *registry.Instruments, events *amqp.Client) *Store {
	return &Store{
		storage:     st,
		instruments: instruments,
		events:      events,
		now:         time.Now,
	}
}

// Load reads the persisted list. Corrupt or missing payloads normalize to an
// empty list; load is trusted data, so this never fails.
func (s *Store) Load() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	data := s.storage.Get(TransactionsKey)
	if len(data) == 0 {
		s.txs = nil
		return 0
	}
	txs, err := decode(data)
	if err != nil {
		slog.Warn("Corrupt transaction payload, starting empty", "error", err)
		s.txs = nil
		return 0
	}
	s.txs = txs
	return len(txs)
}

// All returns a copy of the current list. Order carries no meaning; display
// ordering is computed by the report package.
func (s *Store) All() []core.Transaction {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]core.Transaction(nil), s.txs...)
}

// Create validates the draft, assigns id and creation timestamp, inserts, and
// persists. An unset date defaults to today; an unset cleared flag defaults
// to true.
func (s *Store) Create(ctx context.Context, d Draft) (core.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.fromDraft(d, uuid.NewString(), s.now().UnixMilli(), true)
	if err != nil {
		return core.Transaction{}, err
	}

	s.txs = append(s.txs, tx)
	s.persist()
	s.publish(ctx, amqp.ActionCreated, tx.ID)

	slog.InfoContext(ctx, "Transaction created",
		"id", tx.ID,
		"amount_cents", tx.Amount.Cents,
		"category", tx.Category,
		"card_id", tx.CardID)
	return tx, nil
}

// Update replaces the record wholesale, preserving the original CreatedAt.
// A missing id is a silent no-op (found=false).
func (s *Store) Update(ctx context.Context, id string, d Draft) (core.Transaction, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, false, nil
	}
	prev := s.txs[idx]

	tx, err := s.fromDraft(d, prev.ID, prev.CreatedAt, prev.Cleared)
	if err != nil {
		return core.Transaction{}, true, err
	}

	s.txs[idx] = tx
	s.persist()
	s.publish(ctx, amqp.ActionUpdated, id)
	return tx, true, nil
}

// Delete removes the matching record if present.
func (s *Store) Delete(ctx context.Context, id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return false
	}
	s.txs = append(s.txs[:idx], s.txs[idx+1:]...)
	s.persist()
	s.publish(ctx, amqp.ActionDeleted, id)
	return true
}

// ToggleCleared flips the stored cleared flag for credit-instrument
// transactions. Debit instruments always display cleared, so the toggle is a
// no-op for them; changed reports whether the flag flipped.
func (s *Store) ToggleCleared(ctx context.Context, id string) (tx core.Transaction, changed bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(id)
	if idx < 0 {
		return core.Transaction{}, false
	}
	tx = s.txs[idx]

	if s.instruments.Resolve(tx.CardID).Settlement == core.Debit {
		return tx, false
	}

	tx.Cleared = !tx.Cleared
	s.txs[idx] = tx
	s.persist()
	s.publish(ctx, amqp.ActionClearedToggle, id)
	return tx, true
}

// ReplaceAll wholesale-replaces the list from an import payload. Anything
// other than a JSON array is a hard reject with no mutation; records inside
// the array are accepted as-is after codec normalization.
func (s *Store) ReplaceAll(ctx context.Context, payload []byte) (int, error) {
	txs, err := decode(payload)
	if err != nil {
		return 0, ErrInvalidImport
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = txs
	s.persist()
	s.publish(ctx, amqp.ActionImported, "")

	slog.InfoContext(ctx, "Transaction list replaced by import", "count", len(txs))
	return len(txs), nil
}

// ClearAll empties the list and clears durable storage.
func (s *Store) ClearAll(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.txs = nil
	s.storage.Drop(TransactionsKey)
	s.publish(ctx, amqp.ActionCleared, "")
}

// Export serializes the full list as indented JSON.
func (s *Store) Export() ([]byte, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return encodeIndented(s.txs)
}

// fromDraft builds a validated transaction. Caller must hold the lock.
func (s *Store) fromDraft(d Draft, id string, createdAt int64, defaultCleared bool) (core.Transaction, error) {
	date := d.Date
	if date.IsZero() {
		date = core.DateOf(s.now())
	}
	cleared := defaultCleared
	if d.Cleared != nil {
		cleared = *d.Cleared
	}
	tx := core.Transaction{
		ID:        id,
		Date:      date,
		Amount:    d.Amount,
		Category:  trimmed(d.Category),
		Memo:      trimmed(d.Memo),
		CardID:    trimmed(d.CardID),
		Cleared:   cleared,
		CreatedAt: createdAt,
	}
	if err := tx.Validate(); err != nil {
		return core.Transaction{}, err
	}
	return tx, nil
}

func trimmed(s string) string {
	return strings.TrimSpace(s)
}

func (s *Store) indexOf(id string) int {
	for i, tx := range s.txs {
		if tx.ID == id {
			return i
		}
	}
	return -1
}

func (s *Store) persist() {
	data, err := encode(s.txs)
	if err != nil {
		slog.Error("Encode transactions failed", "error", err)
		return
	}
	s.storage.Put(TransactionsKey, data)
}

func (s *Store) publish(ctx context.Context, action, id string) {
	if err := s.events.PublishLedgerEvent(ctx, action, id, len(s.txs)); err != nil {
		// Events are best-effort; the mutation already succeeded locally.
		slog.ErrorContext(ctx, "Failed to publish ledger event",
			"action", action, "transaction_id", id, "error", err)
	}
}
