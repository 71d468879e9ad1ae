package storage

import "sync"

// Memory holds data only for the lifetime of the process. It backs the store
// when the durable adapter is unavailable at startup or fails later.
type Memory struct {
	mu   sync.Mutex
	data map[string][]byte
}

func NewMemory() *Memory {
	return &Memory{data: make(map[string][]byte)}
}

// NewMemorySeeded creates a memory adapter pre-populated with a snapshot, so a
// downgrade from a failed durable backend loses nothing already held in memory.
func NewMemorySeeded(snapshot map[string][]byte) *Memory {
	m := NewMemory()
	for k, v := range snapshot {
		m.data[k] = append([]byte(nil), v...)
	}
	return m
}

func (m *Memory) Probe() bool { return true }

func (m *Memory) Load(key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.data[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), v...), nil
}

func (m *Memory) Save(key string, data []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = append([]byte(nil), data...)
	return nil
}

func (m *Memory) Clear(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

func (m *Memory) Name() string { return "memory" }
