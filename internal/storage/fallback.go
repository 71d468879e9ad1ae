package storage

import (
	"log/slog"
	"sync"
)

// Store is the persistence handle the rest of the application talks to. It is
// a two-state machine over adapters: it starts on the given adapter (Durable
// state when the adapter is durable) and transitions to InMemory when the
// durable backend proves unavailable, either at construction (probe failure)
// or reactively on a failed write.
//
// The transition carries over every payload the store has seen this session,
// so nothing already held in memory is lost; only the data of the failed
// durable write itself may be lost on disk.
//
// Failures never reach the caller: loads that fail read as "no data" and
// saves that fail are replayed against the in-memory fallback. Callers check
// Degraded to surface a non-blocking warning.
type Store struct {
	mu       sync.Mutex
	adapter  Adapter
	seen     map[string][]byte
	degraded bool
}

func New(adapter Adapter) *Store {
	s := &Store{
		adapter: adapter,
		seen:    make(map[string][]byte),
	}
	if !adapter.Probe() {
		s.downgrade("probe failed")
	}
	return s
}

// Get reads the payload under key. Missing keys and read failures both yield
// nil; failures are logged, never propagated.
func (s *Store) Get(key string) []byte {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := s.adapter.Load(key)
	if err != nil {
		slog.Warn("Storage load failed, treating as no data",
			"key", key, "backend", s.adapter.Name(), "error", err)
		return nil
	}
	if data != nil {
		s.seen[key] = append([]byte(nil), data...)
	}
	return data
}

// Put writes the payload under key. A failed durable write triggers the
// downgrade transition and the write is replayed in memory, so the operation
// that caused it still succeeds.
func (s *Store) Put(key string, data []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.seen[key] = append([]byte(nil), data...)

	if err := s.adapter.Save(key, data); err != nil {
		slog.Error("Storage save failed, downgrading to in-memory",
			"key", key, "backend", s.adapter.Name(), "error", err)
		s.downgrade("save failed")
		// Memory saves cannot fail.
		_ = s.adapter.Save(key, data)
	}
}

// Drop removes the key. Like Put, a durable failure downgrades instead of
// surfacing an error.
func (s *Store) Drop(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.seen, key)

	if err := s.adapter.Clear(key); err != nil {
		slog.Error("Storage clear failed, downgrading to in-memory",
			"key", key, "backend", s.adapter.Name(), "error", err)
		s.downgrade("clear failed")
		_ = s.adapter.Clear(key)
	}
}

// Degraded reports whether the store has fallen back to in-memory persistence.
func (s *Store) Degraded() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.degraded
}

// Backend returns the name of the currently active adapter.
func (s *Store) Backend() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.adapter.Name()
}

// MarkDegraded flags the store as degraded without a transition. Used when
// the durable backend could not even be opened and the store was constructed
// directly on the in-memory adapter.
func (s *Store) MarkDegraded() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.degraded = true
}

// downgrade transitions Durable -> InMemory, seeding the fallback with the
// session snapshot. Caller must hold the lock.
func (s *Store) downgrade(reason string) {
	if s.adapter.Name() == "memory" {
		return
	}
	slog.Warn("Falling back to in-memory storage",
		"reason", reason, "carried_keys", len(s.seen))
	s.adapter = NewMemorySeeded(s.seen)
	s.degraded = true
}
