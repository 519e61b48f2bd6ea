package memory

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLiteStore keeps fingerprints in a single-table SQLite database.
// Persist runs inside one transaction with idempotent inserts, so a crash
// mid-persist leaves previously stored rows intact.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// OpenSQLiteStore opens the database at path, creating it and its schema
// when absent.
func OpenSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open fingerprint database: %w", err)
	}

	// Fingerprints are stored as the signed 64-bit image of their bits;
	// SQLite INTEGER has no unsigned form.
	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS fingerprints (
			fp INTEGER PRIMARY KEY
		)
	`); err != nil {
		db.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreadable, path, err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// Name returns the database path.
func (s *SQLiteStore) Name() string { return s.path }

// Load reads the complete fingerprint set.
func (s *SQLiteStore) Load() (map[Fingerprint]struct{}, error) {
	rows, err := s.db.Query(`SELECT fp FROM fingerprints`)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreadable, s.path, err)
	}
	defer rows.Close()

	seen := make(map[Fingerprint]struct{})
	for rows.Next() {
		var v int64
		if err := rows.Scan(&v); err != nil {
			return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreadable, s.path, err)
		}
		seen[Fingerprint(uint64(v))] = struct{}{}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrStoreUnreadable, s.path, err)
	}
	return seen, nil
}

// Persist upserts the full set inside one transaction.
func (s *SQLiteStore) Persist(fps map[Fingerprint]struct{}) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	stmt, err := tx.Prepare(`INSERT OR IGNORE INTO fingerprints (fp) VALUES (?)`)
	if err != nil {
		tx.Rollback()
		return fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	for fp := range fps {
		if _, err := stmt.Exec(int64(fp)); err != nil {
			tx.Rollback()
			return fmt.Errorf("failed to insert fingerprint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit fingerprints: %w", err)
	}
	return nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
