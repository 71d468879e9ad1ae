package amqp

import (
	"context"
	"testing"
)

func TestLedgerEventMessageRoundTrip(t *testing.T) {
	msg := NewLedgerEventMessage(ActionCreated, "tx-1", 3)

	data, err := msg.ToJSON()
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	decoded, err := LedgerEventMessageFromJSON(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if decoded.Action != ActionCreated || decoded.TransactionID != "tx-1" || decoded.Count != 3 {
		t.Fatalf("unexpected decoded message: %+v", decoded)
	}
}

func TestLedgerEventMessageFromJSONInvalid(t *testing.T) {
	if _, err := LedgerEventMessageFromJSON([]byte("not json")); err == nil {
		t.Fatal("expected error for invalid JSON")
	}
}

func TestNilClientIsSafe(t *testing.T) {
	var c *Client
	if err := c.PublishLedgerEvent(context.Background(), ActionDeleted, "tx-1", 0); err != nil {
		t.Fatalf("nil client publish should be a no-op, got %v", err)
	}
	if err := c.Close(); err != nil {
		t.Fatalf("nil client close should be a no-op, got %v", err)
	}
}
