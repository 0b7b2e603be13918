package backend

import (
	"context"
	"fmt"

	"financeflow/internal/log"
	"financeflow/internal/storage"
)

// DefaultFactory implements the Factory interface
type DefaultFactory struct {
	logger *log.Logger
}

func NewFactory(logger *log.Logger) Factory {
	if logger == nil {
		logger = log.Default(log.ComponentBackend)
	}
	return &DefaultFactory{logger: logger.WithComponent(log.ComponentBackend)}
}

// CreateBackend implements Factory.CreateBackend
func (f *DefaultFactory) CreateBackend(ctx context.Context, config Config) (*BackendResult, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}
	key := config.Key
	if key == "" {
		key = storage.DefaultKey
	}

	var (
		b   Backend
		err error
	)
	switch config.Type {
	case MemoryBackend:
		b = storage.NewMemory(key)
	case SQLiteBackend:
		b, err = storage.NewSQLite(config.SQLiteDBPath, key)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize SQLite backend: %w", err)
		}
	case PostgresBackend:
		b, err = storage.NewPostgres(ctx, config.PostgresURL, key)
		if err != nil {
			return nil, fmt.Errorf("failed to initialize Postgres backend: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", config.Type)
	}

	f.logger.InfoContext(ctx, "Initialized backend",
		log.FieldBackend, config.Type.String(),
		log.FieldKey, key)

	return &BackendResult{Backend: b, Cleanup: b.Close}, nil
}
