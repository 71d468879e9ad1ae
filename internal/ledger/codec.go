package ledger

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/qmcao/spending-tracker/internal/core"
)

// record is the persisted transaction shape, shared by storage and
// export/import. Legacy records may omit fields; decoding normalizes them:
// a missing cleared flag defaults to true (legacy data auto-clears), a
// missing id gets a fresh one, and an unparsable date collapses to the
// zero date rather than failing the whole list.
type record struct {
	ID        string `json:"id"`
	Date      string `json:"date"`
	Amount    int64  `json:"amount"`
	Category  string `json:"category"`
	Memo      string `json:"memo,omitempty"`
	CardID    string `json:"cardId"`
	Cleared   *bool  `json:"cleared,omitempty"`
	CreatedAt int64  `json:"createdAt"`
}

func toRecord(tx core.Transaction) record {
	cleared := tx.Cleared
	return record{
		ID:        tx.ID,
		Date:      tx.Date.String(),
		Amount:    tx.Amount.Cents,
		Category:  tx.Category,
		Memo:      tx.Memo,
		CardID:    tx.CardID,
		Cleared:   &cleared,
		CreatedAt: tx.CreatedAt,
	}
}

func fromRecord(r record) core.Transaction {
	tx := core.Transaction{
		ID:        r.ID,
		Amount:    core.Money{Cents: r.Amount},
		Category:  r.Category,
		Memo:      r.Memo,
		CardID:    r.CardID,
		Cleared:   true,
		CreatedAt: r.CreatedAt,
	}
	if tx.ID == "" {
		tx.ID = uuid.NewString()
	}
	if r.Cleared != nil {
		tx.Cleared = *r.Cleared
	}
	if d, err := core.ParseDate(r.Date); err == nil {
		tx.Date = d
	}
	return tx
}

// encode marshals the list in its compact persisted form.
func encode(txs []core.Transaction) ([]byte, error) {
	records := make([]record, len(txs))
	for i, tx := range txs {
		records[i] = toRecord(tx)
	}
	return json.Marshal(records)
}

// encodeIndented marshals the list for export.
func encodeIndented(txs []core.Transaction) ([]byte, error) {
	records := make([]record, len(txs))
	for i, tx := range txs {
		records[i] = toRecord(tx)
	}
	return json.MarshalIndent(records, "", "  ")
}

// decode parses a persisted or imported payload. Any shape other than a JSON
// array is an error; individual records are normalized, not validated.
func decode(data []byte) ([]core.Transaction, error) {
	// Unmarshal accepts the JSON value null into a slice; only a literal
	// array may pass, so check the first non-space byte.
	trimmed := bytes.TrimLeft(data, " \t\r\n")
	if len(trimmed) == 0 || trimmed[0] != '[' {
		return nil, fmt.Errorf("payload is not a transaction array")
	}
	var records []record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("payload is not a transaction array: %w", err)
	}
	txs := make([]core.Transaction, len(records))
	for i, r := range records {
		txs[i] = fromRecord(r)
	}
	return txs, nil
}
