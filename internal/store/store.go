package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
	_ "modernc.org/sqlite"

	"github.com/helix-health/healthvault/pkg/types"
)

// Guard is consulted before every non-migration mutation. The migration
// engine installs its state machine here so ordinary writes fail with
// ErrMigrationInProgress while a migration runs.
type Guard interface {
	CheckWritable() error
}

// Store owns the single writable SQLite connection and the transaction
// boundary. Record helpers and the change-log helpers never hold their own
// connections; every multi-row mutation runs inside one transaction obtained
// from here.
type Store struct {
	mu     sync.RWMutex
	db     *sql.DB
	open   bool
	guard  Guard
	logger zerolog.Logger
}

// Open creates the data directory if needed, opens (or creates) the database,
// and applies the schema for the fixed tables and every registered record
// kind.
func Open(config types.Config, logger zerolog.Logger) (*Store, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	dataDir := config.DataDir
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data dir: %w", err)
	}

	dbPath := filepath.Join(dataDir, "healthvault.db")
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	for _, ddl := range fixedDDL {
		if _, err := db.Exec(ddl); err != nil {
			db.Close()
			return nil, fmt.Errorf("applying schema: %w", err)
		}
	}
	for _, kind := range types.AllKinds {
		h := recordHelpers[kind]
		for _, ddl := range h.createDDL() {
			if _, err := db.Exec(ddl); err != nil {
				db.Close()
				return nil, fmt.Errorf("applying %s schema: %w", kind, err)
			}
		}
	}

	logger.Debug().Str("path", dbPath).Msg("store opened")
	return &Store{db: db, open: true, logger: logger}, nil
}

// Close releases the database connection. Idempotent.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.open {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("closing database: %w", err)
	}
	s.open = false
	return nil
}

// SetGuard installs the mutation guard. A nil guard leaves the store
// unconditionally writable.
func (s *Store) SetGuard(g Guard) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.guard = g
}

// checkWritable returns a state error when the guard blocks mutations.
// The caller must hold s.mu.
func (s *Store) checkWritable() error {
	if !s.open {
		return types.ErrStoreClosed
	}
	if s.guard != nil {
		return s.guard.CheckWritable()
	}
	return nil
}

// withTx runs fn inside a single transaction, committing on nil and rolling
// back otherwise. The caller must hold s.mu for writing.
func (s *Store) withTx(fn func(tx *sql.Tx) error) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(tx); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing transaction: %w", err)
	}
	return nil
}
