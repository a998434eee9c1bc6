package store

import (
	"fmt"
	"os"
	"path/filepath"

	"uxscope/config"
)

// New creates an ExplorationStore from the storage configuration. A nil
// config falls back to memory.
func New(cfg *config.StorageConfig) (ExplorationStore, error) {
	if cfg == nil {
		return NewMemoryStore(), nil
	}

	switch cfg.Backend {
	case "sqlite":
		dir := filepath.Dir(cfg.Path)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("create storage directory %s: %w", dir, err)
		}
		return NewSQLiteStore(cfg.Path)

	case "postgres":
		if cfg.DSN == "" {
			return nil, fmt.Errorf("postgres backend requires a dsn")
		}
		return NewPostgresStore(cfg.DSN)

	case "memory", "":
		return NewMemoryStore(), nil

	default:
		return nil, fmt.Errorf("unknown storage backend: %s (expected 'memory', 'sqlite', or 'postgres')", cfg.Backend)
	}
}
