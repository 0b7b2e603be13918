// Package storage keeps the durable snapshot record. Every backend stores one
// opaque body per key; interpreting the body is the codec's job.
package storage

import (
	"context"
	"errors"
	"sync"

	"financeflow/internal/log"
)

// DefaultKey names the ledger's durable record.
const DefaultKey = "financeflow:v1"

var ErrNotFound = errors.New("snapshot record not found")

// logger is resolved per call so it follows log.SetDefault.
func logger() *log.Logger { return log.Default(log.ComponentStorage) }

// Memory is an in-process record store for tests and ephemeral runs.
type Memory struct {
	mu      sync.Mutex
	records map[string][]byte
	key     string
}

func NewMemory(key string) *Memory {
	if key == "" {
		key = DefaultKey
	}
	return &Memory{records: map[string][]byte{}, key: key}
}

func (m *Memory) Read(ctx context.Context) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	body, ok := m.records[m.key]
	if !ok {
		return nil, ErrNotFound
	}
	return append([]byte(nil), body...), nil
}

func (m *Memory) Write(ctx context.Context, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.records[m.key] = append([]byte(nil), body...)
	return nil
}

func (m *Memory) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.records, m.key)
	return nil
}

func (m *Memory) Close() error { return nil }
