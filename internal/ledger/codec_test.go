package ledger

import (
	"context"
	"strings"
	"testing"
)

func TestDecodeLegacyRecordDefaults(t *testing.T) {
	// Legacy records may omit cleared, id, and createdAt.
	payload := []byte(`[
		{"date": "2023-11-02", "amount": 450, "category": "Coffee", "cardId": "sapphire"}
	]`)

	txs, err := decode(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(txs) != 1 {
		t.Fatalf("expected 1 record, got %d", len(txs))
	}
	tx := txs[0]
	if !tx.Cleared {
		t.Fatal("missing cleared flag must default to true")
	}
	if tx.ID == "" {
		t.Fatal("missing id must be assigned")
	}
	if tx.Date.String() != "2023-11-02" || tx.Amount.Cents != 450 {
		t.Fatalf("unexpected decoded record: %+v", tx)
	}
}

func TestDecodeExplicitClearedFalseSurvives(t *testing.T) {
	payload := []byte(`[
		{"id": "x", "date": "2024-01-05", "amount": 100, "category": "Dining",
		 "cardId": "sapphire", "cleared": false, "createdAt": 1700000000000}
	]`)

	txs, err := decode(payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if txs[0].Cleared {
		t.Fatal("explicit cleared=false must survive decoding")
	}
	if txs[0].CreatedAt != 1700000000000 {
		t.Fatalf("unexpected createdAt: %d", txs[0].CreatedAt)
	}
}

func TestDecodeRejectsNonArray(t *testing.T) {
	// null unmarshals into a slice without error, so it needs its own reject.
	for _, in := range []string{`{"not": "an array"}`, `"text"`, `42`, `garbage`, `null`, `  null`, ``} {
		if _, err := decode([]byte(in)); err == nil {
			t.Fatalf("%q expected error", in)
		}
	}
}

func TestEncodeWireFieldNames(t *testing.T) {
	s := newTestStore(t)
	d := draft(1250, "Groceries", "everyday-debit")
	d.Memo = "weekly shop"
	tx, err := s.Create(context.Background(), d)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	_ = tx

	out, err := s.Export()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, field := range []string{`"id"`, `"date"`, `"amount"`, `"category"`, `"memo"`, `"cardId"`, `"cleared"`, `"createdAt"`} {
		if !strings.Contains(string(out), field) {
			t.Fatalf("export missing field %s:\n%s", field, out)
		}
	}
	if !strings.Contains(string(out), `"amount": 1250`) {
		t.Fatalf("amount not serialized in minor units:\n%s", out)
	}
}
