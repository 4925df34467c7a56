// Package ledger provides a SQLite-backed record of conversion outcomes,
// keyed by acquisition folder. Batch runs use it to skip folders whose
// inputs are unchanged and to report per-folder failures at the end.
package ledger

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/holotome/htconv/internal/apperr"
)

const schemaSQL = `
CREATE TABLE IF NOT EXISTS conversions (
	folder         TEXT PRIMARY KEY,
	status         TEXT NOT NULL,
	input_checksum TEXT NOT NULL DEFAULT '',
	error          TEXT NOT NULL DEFAULT '',
	updated_at     DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
);
`

// Conversion statuses.
const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Record is one conversion outcome.
type Record struct {
	Folder        string
	Status        string
	InputChecksum string
	Error         string
	UpdatedAt     time.Time
}

// DB wraps a sql.DB with ledger operations.
type DB struct {
	conn *sql.DB
}

// Open opens (or creates) the ledger database and applies the schema.
func Open(dsn string) (*DB, error) {
	conn, err := sql.Open("sqlite3", dsn+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("ledger: open db: %w", err)
	}
	if err := conn.Ping(); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: ping: %w", err)
	}
	if _, err := conn.Exec(schemaSQL); err != nil {
		conn.Close()
		return nil, fmt.Errorf("ledger: apply schema: %w", err)
	}
	return &DB{conn: conn}, nil
}

// Close closes the underlying database connection.
func (db *DB) Close() error {
	return db.conn.Close()
}

// Upsert inserts or replaces a conversion record.
func (db *DB) Upsert(r Record) error {
	if r.UpdatedAt.IsZero() {
		r.UpdatedAt = time.Now().UTC()
	}
	_, err := db.conn.Exec(`
		INSERT INTO conversions (folder, status, input_checksum, error, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(folder) DO UPDATE SET
			status         = excluded.status,
			input_checksum = excluded.input_checksum,
			error          = excluded.error,
			updated_at     = excluded.updated_at
	`, r.Folder, r.Status, r.InputChecksum, r.Error, r.UpdatedAt)
	if err != nil {
		return fmt.Errorf("ledger: upsert: %w", err)
	}
	return nil
}

// Get returns the record for a folder, or apperr.ErrNotFound.
func (db *DB) Get(folder string) (*Record, error) {
	row := db.conn.QueryRow(`
		SELECT folder, status, input_checksum, error, updated_at
		FROM conversions WHERE folder = ?
	`, folder)
	var r Record
	if err := row.Scan(&r.Folder, &r.Status, &r.InputChecksum, &r.Error, &r.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperr.ErrNotFound
		}
		return nil, fmt.Errorf("ledger: get: %w", err)
	}
	return &r, nil
}

// List returns every record ordered by folder.
func (db *DB) List() ([]Record, error) {
	return db.query(`
		SELECT folder, status, input_checksum, error, updated_at
		FROM conversions ORDER BY folder
	`)
}

// Failures returns every failed record ordered by folder.
func (db *DB) Failures() ([]Record, error) {
	return db.query(`
		SELECT folder, status, input_checksum, error, updated_at
		FROM conversions WHERE status = '`+StatusFailed+`' ORDER BY folder
	`)
}

func (db *DB) query(q string) ([]Record, error) {
	rows, err := db.conn.Query(q)
	if err != nil {
		return nil, fmt.Errorf("ledger: query: %w", err)
	}
	defer rows.Close()

	var out []Record
	for rows.Next() {
		var r Record
		if err := rows.Scan(&r.Folder, &r.Status, &r.InputChecksum, &r.Error, &r.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
