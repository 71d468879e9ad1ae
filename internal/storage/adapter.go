// Package storage provides durable key-value persistence for the ledger with
// an in-memory fallback when the durable backend is unavailable.
package storage

// Adapter is the uniform load/save/clear contract shared by every backing.
type Adapter interface {
	// Probe reports whether the backend can currently accept writes. It must
	// leave no data behind.
	Probe() bool

	// Load returns the payload stored under key, or (nil, nil) when the key
	// is absent.
	Load(key string) ([]byte, error)

	// Save stores the payload under key, replacing any previous value.
	Save(key string, data []byte) error

	// Clear removes the key and its payload.
	Clear(key string) error

	// Name identifies the backing for status reporting.
	Name() string
}
