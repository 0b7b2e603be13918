package backend

import (
	"context"

	"financeflow/internal/store"
)

// Backend is a durable snapshot record the store can run on.
type Backend interface {
	store.Persister
	Close() error
}

// CleanupFunc releases the resources behind a backend.
type CleanupFunc func() error

// BackendResult contains the backend instance and optional cleanup function
type BackendResult struct {
	Backend Backend
	Cleanup CleanupFunc
}

// Factory creates backends based on configuration
type Factory interface {
	CreateBackend(ctx context.Context, config Config) (*BackendResult, error)
}

// Config holds configuration for backend creation
type Config struct {
	Type BackendType

	// Key names the snapshot record inside the backend.
	Key string

	SQLiteDBPath string
	PostgresURL  string
}

// BackendType represents the type of backend
type BackendType string

const (
	MemoryBackend   BackendType = "memory"
	SQLiteBackend   BackendType = "sqlite"
	PostgresBackend BackendType = "postgres"
)

func (bt BackendType) String() string {
	return string(bt)
}

// IsValid returns true if the backend type is valid
func (bt BackendType) IsValid() bool {
	switch bt {
	case MemoryBackend, SQLiteBackend, PostgresBackend:
		return true
	default:
		return false
	}
}

// Shared reports whether more than one process can see the same record.
func (bt BackendType) Shared() bool {
	return bt == SQLiteBackend || bt == PostgresBackend
}
