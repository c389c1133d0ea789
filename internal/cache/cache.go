// Package cache persists per-file extraction results keyed by content
// identity. A cache entry is fresh if and only if the file's current
// identity matches the stored one; staleness is driven entirely by
// identity, so no capacity bound is needed.
package cache

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
	_ "modernc.org/sqlite"

	"github.com/kestrelworks/codegraph/internal/extract"
)

// Store is the cache consulted by extraction workers. Reads may be
// concurrent; implementations serialize writes.
type Store interface {
	// Get returns the entry for a content identity, with ok=false on a miss.
	// A corrupted entry is reported as a miss, never as a fatal error.
	Get(ctx context.Context, identity string) (*extract.Result, bool, error)
	// Put stores the extraction result for a content identity.
	Put(ctx context.Context, identity, path string, res *extract.Result) error
	// Prune removes entries whose identity is not in keep, returning the
	// number of entries removed.
	Prune(ctx context.Context, keep map[string]struct{}) (int, error)
	Close() error
}

const schema = `
CREATE TABLE IF NOT EXISTS entries (
	identity   TEXT PRIMARY KEY,
	path       TEXT NOT NULL,
	payload    BLOB NOT NULL,
	created_at TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
);
`

// memEntries bounds the in-process read-through layer, not the database.
const memEntries = 4096

// SQLiteStore persists entries in a SQLite database, fronted by an
// in-process LRU for repeated reads within one run.
type SQLiteStore struct {
	db  *sql.DB
	mu  sync.Mutex // serializes writes; reads go through database/sql directly
	mem *lru.Cache[string, *extract.Result]
}

// Open creates or opens a cache database at path, creating parent
// directories as needed.
func Open(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("creating cache directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening cache database: %w", err)
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, fmt.Errorf("setting pragma: %w", err)
		}
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("creating cache schema: %w", err)
	}

	mem, err := lru.New[string, *extract.Result](memEntries)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &SQLiteStore{db: db, mem: mem}, nil
}

// Get implements Store. Undecodable payloads are evicted and reported as a
// miss so that a corrupted store degrades to re-extraction, never to failure.
func (s *SQLiteStore) Get(ctx context.Context, identity string) (*extract.Result, bool, error) {
	if res, ok := s.mem.Get(identity); ok {
		return res, true, nil
	}

	var payload []byte
	err := s.db.QueryRowContext(ctx, "SELECT payload FROM entries WHERE identity = ?", identity).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("reading cache entry: %w", err)
	}

	var res extract.Result
	if err := json.Unmarshal(payload, &res); err != nil {
		s.evict(ctx, identity)
		return nil, false, nil
	}

	s.mem.Add(identity, &res)
	return &res, true, nil
}

// Put implements Store.
func (s *SQLiteStore) Put(ctx context.Context, identity, path string, res *extract.Result) error {
	payload, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encoding cache entry: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO entries (identity, path, payload)
		VALUES (?, ?, ?)
		ON CONFLICT(identity) DO UPDATE SET
			path = excluded.path,
			payload = excluded.payload
	`, identity, path, payload)
	if err != nil {
		return fmt.Errorf("writing cache entry: %w", err)
	}

	s.mem.Add(identity, res)
	return nil
}

// Prune implements Store.
func (s *SQLiteStore) Prune(ctx context.Context, keep map[string]struct{}) (int, error) {
	rows, err := s.db.QueryContext(ctx, "SELECT identity FROM entries")
	if err != nil {
		return 0, fmt.Errorf("listing cache entries: %w", err)
	}
	var stale []string
	for rows.Next() {
		var identity string
		if err := rows.Scan(&identity); err != nil {
			rows.Close()
			return 0, err
		}
		if _, ok := keep[identity]; !ok {
			stale = append(stale, identity)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}
	if len(stale) == 0 {
		return 0, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(stale)), ",")
	args := make([]any, len(stale))
	for i, identity := range stale {
		args[i] = identity
		s.mem.Remove(identity)
	}
	if _, err := s.db.ExecContext(ctx, "DELETE FROM entries WHERE identity IN ("+placeholders+")", args...); err != nil {
		return 0, fmt.Errorf("pruning cache entries: %w", err)
	}
	return len(stale), nil
}

// Close implements Store.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

func (s *SQLiteStore) evict(ctx context.Context, identity string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.mem.Remove(identity)
	_, _ = s.db.ExecContext(ctx, "DELETE FROM entries WHERE identity = ?", identity)
}

// Disabled is a Store that never hits and never persists, used when caching
// is turned off or when the cache database cannot be opened.
type Disabled struct{}

func (Disabled) Get(context.Context, string) (*extract.Result, bool, error) { return nil, false, nil }
func (Disabled) Put(context.Context, string, string, *extract.Result) error { return nil }
func (Disabled) Prune(context.Context, map[string]struct{}) (int, error)    { return 0, nil }
func (Disabled) Close() error                                               { return nil }
