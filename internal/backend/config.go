package backend

import (
	"errors"
	"fmt"

	"financeflow/internal/config"
)

// BackendTypes lists every backend the factory can build.
func BackendTypes() []BackendType {
	return []BackendType{MemoryBackend, SQLiteBackend, PostgresBackend}
}

// FromAppConfig picks the durable record the application config points at.
func FromAppConfig(appConfig *config.Config) (Config, error) {
	if appConfig == nil {
		return Config{}, errors.New("app config is nil")
	}

	cfg := Config{
		Type:         BackendType(appConfig.DataBackend),
		Key:          appConfig.SnapshotKey,
		SQLiteDBPath: appConfig.SQLiteDBPath,
		PostgresURL:  appConfig.PostgresURL,
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks that the chosen backend has what it needs to open.
func (c Config) Validate() error {
	if !c.Type.IsValid() {
		return fmt.Errorf("unknown backend %q: must be one of %v", c.Type, BackendTypes())
	}
	switch c.Type {
	case SQLiteBackend:
		if c.SQLiteDBPath == "" {
			return errors.New("sqlite backend needs a database path")
		}
	case PostgresBackend:
		if c.PostgresURL == "" {
			return errors.New("postgres backend needs a connection URL")
		}
	}
	return nil
}
