package journal

import (
	"context"
	"strconv"
	"sync"
)

// DefaultMaxLen bounds a journal when no length is configured.
const DefaultMaxLen = 10000

// Memory is an in-process Journal that keeps the newest MaxLen records.
type Memory struct {
	mu      sync.Mutex
	records []Record
	start   int
	seq     uint64
	maxLen  int
}

// NewMemory creates a Memory journal holding at most maxLen records.
// maxLen <= 0 selects DefaultMaxLen.
func NewMemory(maxLen int) *Memory {
	if maxLen <= 0 {
		maxLen = DefaultMaxLen
	}
	return &Memory{maxLen: maxLen}
}

func (m *Memory) Append(_ context.Context, r Record) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.seq++
	if r.ID == "" {
		r.ID = strconv.FormatUint(m.seq, 10)
	}

	if len(m.records) < m.maxLen {
		m.records = append(m.records, r)
		return nil
	}
	m.records[m.start] = r
	m.start = (m.start + 1) % m.maxLen
	return nil
}

func (m *Memory) Recent(_ context.Context, n int) ([]Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	size := len(m.records)
	if n <= 0 || n > size {
		n = size
	}
	out := make([]Record, 0, n)
	for i := 0; i < n; i++ {
		idx := (m.start + size - 1 - i) % size
		out = append(out, m.records[idx])
	}
	return out, nil
}

// Len returns the number of retained records.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.records)
}

func (m *Memory) Sink() string { return "memory" }

func (m *Memory) Close() error { return nil }
