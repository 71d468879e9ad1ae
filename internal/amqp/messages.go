package amqp

import (
	"encoding/json"
	"time"
)

// Ledger event actions.
const (
	ActionCreated       = "created"
	ActionUpdated       = "updated"
	ActionDeleted       = "deleted"
	ActionClearedToggle = "cleared_toggled"
	ActionImported      = "imported"
	ActionCleared       = "cleared_all"
)

// LedgerEventMessage describes one ledger mutation. TransactionID is empty for
// bulk actions; Count carries the list size after the mutation.
type LedgerEventMessage struct {
	Action        string    `json:"action"`
	TransactionID string    `json:"transactionId,omitempty"`
	Count         int       `json:"count"`
	Timestamp     time.Time `json:"timestamp"`
}

func NewLedgerEventMessage(action, transactionID string, count int) *LedgerEventMessage {
	return &LedgerEventMessage{
		Action:        action,
		TransactionID: transactionID,
		Count:         count,
		Timestamp:     time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *LedgerEventMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// FromJSON creates a message from JSON bytes
func LedgerEventMessageFromJSON(data []byte) (*LedgerEventMessage, error) {
	var msg LedgerEventMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
