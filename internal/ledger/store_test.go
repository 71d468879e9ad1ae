package ledger

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/qmcao/spending-tracker/internal/core"
	"github.com/qmcao/spending-tracker/internal/registry"
	"github.com/qmcao/spending-tracker/internal/storage"
)

// failingAdapter rejects writes once broken is set, to exercise the
// downgrade path from the store's side.
type failingAdapter struct {
	*storage.Memory
	broken bool
}

func (f *failingAdapter) Name() string { return "failing" }

func (f *failingAdapter) Save(key string, data []byte) error {
	if f.broken {
		return errors.New("disk full")
	}
	return f.Memory.Save(key, data)
}

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s := New(storage.New(storage.NewMemory()), registry.DefaultInstruments(), nil)
	s.now = func() time.Time { return time.Date(2024, 6, 20, 10, 0, 0, 0, time.UTC) }
	return s
}

func draft(amountCents int64, category, cardID string) Draft {
	return Draft{
		Date:     core.NewDate(2024, 6, 15),
		Amount:   core.Money{Cents: amountCents},
		Category: category,
		CardID:   cardID,
	}
}

func TestCreateAndReload(t *testing.T) {
	backing := storage.New(storage.NewMemory())
	s := New(backing, registry.DefaultInstruments(), nil)

	tx, err := s.Create(context.Background(), draft(1250, "Groceries", "everyday-debit"))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.ID == "" || tx.CreatedAt == 0 {
		t.Fatalf("expected assigned id and createdAt, got %+v", tx)
	}
	if !tx.Cleared {
		t.Fatal("create should default cleared to true")
	}

	// Simulated reload through the same backing.
	reloaded := New(backing, registry.DefaultInstruments(), nil)
	if n := reloaded.Load(); n != 1 {
		t.Fatalf("expected 1 transaction after reload, got %d", n)
	}
	got := reloaded.All()[0]
	if got.ID != tx.ID || got.Amount.Cents != 1250 || got.Category != "Groceries" ||
		got.CardID != "everyday-debit" || got.Date.String() != "2024-06-15" ||
		got.CreatedAt != tx.CreatedAt {
		t.Fatalf("reloaded transaction differs: %+v vs %+v", got, tx)
	}
}

func TestCreateValidation(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Create(context.Background(), draft(0, "Groceries", "cash")); err != core.ErrInvalidAmount {
		t.Fatalf("expected ErrInvalidAmount, got %v", err)
	}
	if _, err := s.Create(context.Background(), draft(100, "   ", "cash")); err != core.ErrEmptyCategory {
		t.Fatalf("expected ErrEmptyCategory, got %v", err)
	}
	if len(s.All()) != 0 {
		t.Fatal("rejected drafts must not mutate the store")
	}
}

func TestCreateDefaultsDateToToday(t *testing.T) {
	s := newTestStore(t)

	d := draft(100, "Dining", "cash")
	d.Date = core.Date{}
	tx, err := s.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Date.String() != "2024-06-20" {
		t.Fatalf("expected creation-day default, got %s", tx.Date)
	}
}

func TestCreateHonorsExplicitCleared(t *testing.T) {
	s := newTestStore(t)

	pending := false
	d := draft(100, "Dining", "sapphire")
	d.Cleared = &pending
	tx, err := s.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if tx.Cleared {
		t.Fatal("explicit cleared=false should be honored")
	}
}

func TestUpdatePreservesCreatedAt(t *testing.T) {
	s := newTestStore(t)

	a, _ := s.Create(context.Background(), draft(100, "Groceries", "cash"))
	b, _ := s.Create(context.Background(), draft(200, "Dining", "sapphire"))

	d := draft(550, "Travel", "gold")
	d.Memo = "train tickets"
	updated, found, err := s.Update(context.Background(), a.ID, d)
	if err != nil || !found {
		t.Fatalf("unexpected result: found=%v err=%v", found, err)
	}
	if updated.CreatedAt != a.CreatedAt {
		t.Fatalf("createdAt changed: %d vs %d", updated.CreatedAt, a.CreatedAt)
	}
	if updated.Amount.Cents != 550 || updated.Category != "Travel" || updated.Memo != "train tickets" {
		t.Fatalf("unexpected updated record: %+v", updated)
	}

	// The other record is untouched.
	for _, tx := range s.All() {
		if tx.ID == b.ID && (tx.Amount.Cents != 200 || tx.Category != "Dining") {
			t.Fatalf("unrelated record mutated: %+v", tx)
		}
	}
}

func TestUpdateMissingIDIsNoOp(t *testing.T) {
	s := newTestStore(t)
	s.Create(context.Background(), draft(100, "Groceries", "cash"))

	_, found, err := s.Update(context.Background(), "no-such-id", draft(200, "Dining", "cash"))
	if err != nil || found {
		t.Fatalf("expected silent no-op, got found=%v err=%v", found, err)
	}
	if got := s.All()[0].Amount.Cents; got != 100 {
		t.Fatalf("store mutated by missing-id update: %d", got)
	}
}

func TestDeleteRemovesExactlyOne(t *testing.T) {
	s := newTestStore(t)
	a, _ := s.Create(context.Background(), draft(100, "Groceries", "cash"))
	b, _ := s.Create(context.Background(), draft(200, "Dining", "sapphire"))

	if !s.Delete(context.Background(), a.ID) {
		t.Fatal("expected delete to find the record")
	}
	if s.Delete(context.Background(), a.ID) {
		t.Fatal("second delete should be a no-op")
	}

	rest := s.All()
	if len(rest) != 1 || rest[0].ID != b.ID || rest[0].Amount.Cents != 200 {
		t.Fatalf("unexpected remaining list: %+v", rest)
	}
}

func TestToggleCleared(t *testing.T) {
	s := newTestStore(t)

	// Debit instrument: toggle is a no-op.
	debit, _ := s.Create(context.Background(), draft(100, "Groceries", "everyday-debit"))
	if _, changed := s.ToggleCleared(context.Background(), debit.ID); changed {
		t.Fatal("toggle on a debit-instrument transaction must be a no-op")
	}

	// Credit instrument: flips exactly the cleared field.
	credit, _ := s.Create(context.Background(), draft(200, "Dining", "sapphire"))
	toggled, changed := s.ToggleCleared(context.Background(), credit.ID)
	if !changed || toggled.Cleared {
		t.Fatalf("expected cleared flipped to false, got %+v", toggled)
	}
	if toggled.Amount.Cents != 200 || toggled.CreatedAt != credit.CreatedAt {
		t.Fatalf("toggle changed more than the cleared flag: %+v", toggled)
	}

	back, changed := s.ToggleCleared(context.Background(), credit.ID)
	if !changed || !back.Cleared {
		t.Fatalf("expected cleared flipped back to true, got %+v", back)
	}

	if _, changed := s.ToggleCleared(context.Background(), "no-such-id"); changed {
		t.Fatal("toggle on missing id should report no change")
	}
}

func TestExportImportRoundTrip(t *testing.T) {
	s := newTestStore(t)
	s.Create(context.Background(), draft(1250, "Groceries", "everyday-debit"))
	s.Create(context.Background(), draft(999, "Dining", "sapphire"))

	payload, err := s.Export()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	before := s.All()

	other := newTestStore(t)
	n, err := other.ReplaceAll(context.Background(), payload)
	if err != nil || n != 2 {
		t.Fatalf("unexpected import result: n=%d err=%v", n, err)
	}

	after := other.All()
	byID := make(map[string]core.Transaction, len(after))
	for _, tx := range after {
		byID[tx.ID] = tx
	}
	for _, want := range before {
		got, ok := byID[want.ID]
		if !ok || got != want {
			t.Fatalf("round-trip mismatch: want %+v got %+v", want, got)
		}
	}
}

func TestImportRejectsNonArray(t *testing.T) {
	s := newTestStore(t)
	s.Create(context.Background(), draft(100, "Groceries", "cash"))

	if _, err := s.ReplaceAll(context.Background(), []byte(`{"not": "an array"}`)); err != ErrInvalidImport {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
	if len(s.All()) != 1 {
		t.Fatal("rejected import must leave the list unchanged")
	}
}

func TestImportRejectsNullPayload(t *testing.T) {
	s := newTestStore(t)
	s.Create(context.Background(), draft(100, "Groceries", "cash"))

	// null decodes into a nil slice without error; accepting it would wipe
	// the whole ledger.
	if _, err := s.ReplaceAll(context.Background(), []byte(`null`)); err != ErrInvalidImport {
		t.Fatalf("expected ErrInvalidImport, got %v", err)
	}
	if len(s.All()) != 1 {
		t.Fatal("null import must leave the list unchanged")
	}
}

func TestClearAll(t *testing.T) {
	backing := storage.New(storage.NewMemory())
	s := New(backing, registry.DefaultInstruments(), nil)
	s.Create(context.Background(), draft(100, "Groceries", "cash"))

	s.ClearAll(context.Background())
	if len(s.All()) != 0 {
		t.Fatal("expected empty list after clear")
	}
	if backing.Get(TransactionsKey) != nil {
		t.Fatal("expected storage key cleared")
	}
}

func TestLoadCorruptPayloadNormalizesToEmpty(t *testing.T) {
	backing := storage.New(storage.NewMemory())
	backing.Put(TransactionsKey, []byte(`not json at all`))

	s := New(backing, registry.DefaultInstruments(), nil)
	if n := s.Load(); n != 0 {
		t.Fatalf("expected empty list from corrupt payload, got %d", n)
	}
}

func TestMutationsSurviveStorageDowngrade(t *testing.T) {
	// In-memory state stays authoritative for the session even when the
	// durable backend starts rejecting writes.
	flaky := &failingAdapter{Memory: storage.NewMemory()}
	backing := storage.New(flaky)
	s := New(backing, registry.DefaultInstruments(), nil)

	s.Create(context.Background(), draft(100, "Groceries", "cash"))
	flaky.broken = true
	tx, err := s.Create(context.Background(), draft(200, "Dining", "sapphire"))
	if err != nil {
		t.Fatalf("mutation should succeed despite storage failure: %v", err)
	}
	if !backing.Degraded() {
		t.Fatal("expected degraded storage")
	}
	if len(s.All()) != 2 {
		t.Fatalf("expected both transactions in memory, got %d", len(s.All()))
	}

	// The post-downgrade state is still readable through the adapter.
	reloaded := New(backing, registry.DefaultInstruments(), nil)
	if n := reloaded.Load(); n != 2 {
		t.Fatalf("expected 2 transactions after downgrade, got %d", n)
	}
	_ = tx
}
