package session

import (
	"database/sql"
	"fmt"

	_ "modernc.org/sqlite"
)

// SQLite is a Store backed by a single-table SQLite database, for
// deployments that want the session to survive process restarts
// without managing a JSON file.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (creating if needed) the session database at path.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("session: open %s: %w", path, err)
	}
	const schema = `CREATE TABLE IF NOT EXISTS wizard_session (
		key   TEXT PRIMARY KEY,
		value TEXT NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("session: init schema: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Get(key string) (string, bool) {
	var v string
	err := s.db.QueryRow(`SELECT value FROM wizard_session WHERE key = ?`, key).Scan(&v)
	if err != nil {
		return "", false
	}
	return v, true
}

func (s *SQLite) Set(key, value string) error {
	_, err := s.db.Exec(
		`INSERT INTO wizard_session (key, value) VALUES (?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value`,
		key, value)
	if err != nil {
		return fmt.Errorf("session: set %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Delete(key string) error {
	if _, err := s.db.Exec(`DELETE FROM wizard_session WHERE key = ?`, key); err != nil {
		return fmt.Errorf("session: delete %s: %w", key, err)
	}
	return nil
}

func (s *SQLite) Clear() error {
	if _, err := s.db.Exec(`DELETE FROM wizard_session`); err != nil {
		return fmt.Errorf("session: clear: %w", err)
	}
	return nil
}

// Close releases the underlying database handle.
func (s *SQLite) Close() error {
	return s.db.Close()
}
