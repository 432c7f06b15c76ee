package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// migrations upgrade a cart database one user_version at a time. Entry i
// moves a database from version i to i+1. schema.sql always creates the
// latest layout, so every step must be safe to run on a fresh database.
var migrations = []func(*sql.Tx) error{
	// v1: journal reads filter by cart key and order by seq.
	func(tx *sql.Tx) error {
		_, err := tx.Exec(`CREATE INDEX IF NOT EXISTS idx_journal_cart_key ON journal(cart_key, seq)`)
		return err
	},
}

// currentSchemaVersion is the user_version of a fully migrated database.
var currentSchemaVersion = len(migrations)

// cartPragmas are applied on every open. The cart payload is rewritten on
// each commit, so WAL keeps those writes from blocking journal reads.
var cartPragmas = []struct {
	name, value string
}{
	{"journal_mode", "WAL"},
	{"synchronous", "NORMAL"},
	{"busy_timeout", "5000"},
}

// Store is one SQLite cart database. It serves the durable cart payload and
// remote cart identity through Get and Put, and the commit journal through
// AppendJournal and ReadJournal.
type Store struct {
	db *sql.DB
}

// Open opens or creates the cart database at path and brings its schema to
// the current version. ":memory:" gives a private database that lives until
// Close.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open cart database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("connect to cart database %s: %w", path, err)
	}

	// A single connection serializes the engine's writes and keeps an
	// in-memory database alive.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, p := range cartPragmas {
		if _, err := db.Exec(fmt.Sprintf("PRAGMA %s = %s", p.name, p.value)); err != nil {
			db.Close()
			return nil, fmt.Errorf("set pragma %s: %w", p.name, err)
		}
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		db.Close()
		return nil, fmt.Errorf("create cart tables: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close releases the database. Closing a zero Store is a no-op.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// migrate runs every step above the database's user_version, each in its
// own transaction together with the version bump.
func migrate(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("read schema version: %w", err)
	}

	for v := version; v < currentSchemaVersion; v++ {
		tx, err := db.Begin()
		if err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if err := migrations[v](tx); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
		if _, err := tx.Exec(fmt.Sprintf("PRAGMA user_version = %d", v+1)); err != nil {
			tx.Rollback()
			return fmt.Errorf("migrate to v%d: set version: %w", v+1, err)
		}
		if err := tx.Commit(); err != nil {
			return fmt.Errorf("migrate to v%d: %w", v+1, err)
		}
	}
	return nil
}

// verifyPragma reports whether pragma name currently reads as expected.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	if err := s.db.QueryRow(fmt.Sprintf("PRAGMA %s", name)).Scan(&value); err != nil {
		return fmt.Errorf("query pragma %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("pragma %s = %q, want %q", name, value, expected)
	}
	return nil
}
