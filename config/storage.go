package config

import "fmt"

// StorageConfig defines where exploration state is persisted.
type StorageConfig struct {
	Backend string `hcl:"backend,optional"` // "memory", "sqlite", or "postgres"
	Path    string `hcl:"path,optional"`    // SQLite file path
	DSN     string `hcl:"dsn,optional"`     // Postgres connection string
}

func (s *StorageConfig) Defaults() {
	if s.Backend == "" {
		s.Backend = "sqlite"
	}
	if s.Path == "" {
		s.Path = ".uxscope/uxscope.db"
	}
}

func (s *StorageConfig) Validate() error {
	switch s.Backend {
	case "memory", "sqlite":
		return nil
	case "postgres":
		if s.DSN == "" {
			return fmt.Errorf("postgres backend requires dsn")
		}
		return nil
	default:
		return fmt.Errorf("unknown backend '%s' (expected 'memory', 'sqlite', or 'postgres')", s.Backend)
	}
}
