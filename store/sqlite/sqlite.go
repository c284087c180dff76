/*
Package sqlite provides a SQLite-backed implementation of the document store.

PURPOSE:
  Persists the jar's two JSON documents in a single-file database. The
  dataset is small enough that whole-document writes stay cheap, and one
  file keeps backup and restore a plain copy.

KEY TABLES:
  documents: key -> JSON blob, updated_at for troubleshooting

HISTORY:
  Every Put also appends the previous blob to document_history, capped per
  key. A bad merge or a fat-fingered import can be recovered by hand with
  one SELECT.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/swearjar.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

SEE ALSO:
  - jar/store.go: Interface definition
  - store/memory: In-memory implementation for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sync"

	_ "github.com/mattn/go-sqlite3"

	"github.com/warp/swearjar/jar"
)

// historyDepth caps how many prior versions of each document are kept.
const historyDepth = 20

// Store implements jar.DocumentStore on SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New opens (or creates) the database at dbPath. Use ":memory:" for an
// in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS documents (
		key TEXT PRIMARY KEY,
		body BLOB NOT NULL,
		updated_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE TABLE IF NOT EXISTS document_history (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		key TEXT NOT NULL,
		body BLOB NOT NULL,
		replaced_at TEXT NOT NULL DEFAULT (datetime('now'))
	);

	CREATE INDEX IF NOT EXISTS idx_history_key ON document_history(key, id);
	`
	_, err := s.db.Exec(schema)
	return err
}

// Get returns the document under key, or jar.ErrDocumentNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var body []byte
	err := s.db.QueryRowContext(ctx,
		`SELECT body FROM documents WHERE key = ?`, key).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, jar.ErrDocumentNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get document %q: %w", key, err)
	}
	return body, nil
}

// Put replaces the document under key, archiving the previous version.
func (s *Store) Put(ctx context.Context, key string, doc []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("put document %q: %w", key, err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO document_history (key, body)
		SELECT key, body FROM documents WHERE key = ?`, key)
	if err != nil {
		return fmt.Errorf("archive document %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO documents (key, body, updated_at)
		VALUES (?, ?, datetime('now'))
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body,
			updated_at = excluded.updated_at`, key, doc)
	if err != nil {
		return fmt.Errorf("put document %q: %w", key, err)
	}

	_, err = tx.ExecContext(ctx, `
		DELETE FROM document_history
		WHERE key = ? AND id NOT IN (
			SELECT id FROM document_history
			WHERE key = ? ORDER BY id DESC LIMIT ?
		)`, key, key, historyDepth)
	if err != nil {
		return fmt.Errorf("trim history %q: %w", key, err)
	}

	return tx.Commit()
}

// History returns up to limit prior versions of the document, newest first.
func (s *Store) History(ctx context.Context, key string, limit int) ([][]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.QueryContext(ctx, `
		SELECT body FROM document_history
		WHERE key = ? ORDER BY id DESC LIMIT ?`, key, limit)
	if err != nil {
		return nil, fmt.Errorf("history %q: %w", key, err)
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var body []byte
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		out = append(out, body)
	}
	return out, rows.Err()
}
