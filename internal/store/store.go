package store

import (
	"database/sql"
	_ "embed"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

//go:embed schema.sql
var schemaSQL string

// Store holds the committed auction state and the receipt journal in one
// SQLite database. Every commit writes state rows and the receipt in a
// single transaction, so a crash never leaves a journal that disagrees
// with the state it describes.
//
// Store implements engine.Store.
type Store struct {
	db *sql.DB
}

// pragma is a connection setting and the value SQLite reports once it
// is applied.
type pragma struct {
	name   string
	set    string
	report string
}

var pragmas = []pragma{
	{"journal_mode", "WAL", "wal"},
	{"synchronous", "NORMAL", "1"},
	{"busy_timeout", "5000", "5000"},
	{"foreign_keys", "ON", "1"},
}

// migration upgrades a database to version.
type migration struct {
	version int
	stmt    string
}

// Schema versions are tracked in PRAGMA user_version.
//
//	0 - tables only
//	1 - receipts.tx_id index (trace --tx)
//	2 - receipts (caller, seq) index (trace --caller)
var migrations = []migration{
	{1, `CREATE INDEX IF NOT EXISTS idx_receipts_tx_id ON receipts(tx_id)`},
	{2, `CREATE INDEX IF NOT EXISTS idx_receipts_caller ON receipts(caller, seq)`},
}

var currentSchemaVersion = migrations[len(migrations)-1].version

// Open creates or opens the database at path and brings its schema up to
// date. ":memory:" opens a private in-memory database; the pool is held
// at one connection, so it lives as long as the Store.
//
// Open is idempotent.
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite allows one writer; a single connection serializes commits
	// instead of surfacing SQLITE_BUSY.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// DB returns the underlying handle for maintenance and tests.
func (s *Store) DB() *sql.DB {
	return s.db
}

func applyPragmas(db *sql.DB) error {
	for _, p := range pragmas {
		stmt := fmt.Sprintf("PRAGMA %s = %s", p.name, p.set)
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute %q: %w", stmt, err)
		}
	}
	return nil
}

func applySchema(db *sql.DB) error {
	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if err := runMigrations(db); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}
	return nil
}

// runMigrations applies every migration newer than user_version, in order.
func runMigrations(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	for _, m := range migrations {
		if m.version <= version {
			continue
		}
		if _, err := db.Exec(m.stmt); err != nil {
			return fmt.Errorf("migrate to v%d: %w", m.version, err)
		}
		if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", m.version)); err != nil {
			return fmt.Errorf("set user_version %d: %w", m.version, err)
		}
	}
	return nil
}

// verifyPragmas checks every connection setting against what SQLite
// reports.
func (s *Store) verifyPragmas() error {
	for _, p := range pragmas {
		var value string
		if err := s.db.QueryRow("PRAGMA " + p.name).Scan(&value); err != nil {
			return fmt.Errorf("failed to query %s: %w", p.name, err)
		}
		if value != p.report {
			return fmt.Errorf("%s = %q, expected %q", p.name, value, p.report)
		}
	}
	return nil
}
