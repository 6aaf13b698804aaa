package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"
	_ "modernc.org/sqlite" // SQLite driver
)

// ErrLocked is returned when another process holds the cache lock.
var ErrLocked = errors.New("cache is in use by another process")

const schema = `CREATE TABLE IF NOT EXISTS metadata_cache (
	id        TEXT PRIMARY KEY,
	value     TEXT NOT NULL,
	cached_at TEXT NOT NULL
)`

// Entry is a stored cache row.
type Entry struct {
	ID       string
	Value    []byte
	CachedAt time.Time
}

// SQLiteStore persists values in a SQLite database file. An advisory lock
// file next to the database keeps concurrent exports from sharing it.
type SQLiteStore struct {
	db   *sql.DB
	path string
	lock *flock.Flock
}

// OpenSQLite opens (creating if needed) the cache database at path. Writers
// take an exclusive lock; readOnly opens take a shared lock so inspection
// can run alongside other inspections but not alongside an export.
func OpenSQLite(path string, readOnly bool) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create cache directory: %w", err)
		}
	}

	lock := flock.New(path + ".lock")
	var (
		locked bool
		err    error
	)
	if readOnly {
		locked, err = lock.TryRLock()
	} else {
		locked, err = lock.TryLock()
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock cache %s: %w", path, err)
	}
	if !locked {
		return nil, fmt.Errorf("%s: %w", path, ErrLocked)
	}

	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		_ = lock.Unlock()
		return nil, fmt.Errorf("failed to create cache schema: %w", err)
	}

	slog.Debug("Opened metadata cache", "path", path, "read_only", readOnly)

	return &SQLiteStore{db: db, path: path, lock: lock}, nil
}

// Path returns the database file path.
func (s *SQLiteStore) Path() string {
	return s.path
}

func (s *SQLiteStore) Get(ctx context.Context, key string) ([]byte, error) {
	var value string
	err := s.db.QueryRowContext(ctx, `SELECT value FROM metadata_cache WHERE id = ?`, key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read cache entry %s: %w", key, err)
	}
	return []byte(value), nil
}

func (s *SQLiteStore) Put(ctx context.Context, key string, value []byte) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO metadata_cache (id, value, cached_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET value = excluded.value, cached_at = excluded.cached_at`,
		key, string(value), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to write cache entry %s: %w", key, err)
	}
	return nil
}

// Count returns the number of cached entries.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var n int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM metadata_cache`).Scan(&n); err != nil {
		return 0, fmt.Errorf("failed to count cache entries: %w", err)
	}
	return n, nil
}

// List returns up to limit entries, newest first. A limit of 0 or less
// returns every entry.
func (s *SQLiteStore) List(ctx context.Context, limit int) ([]Entry, error) {
	query := `SELECT id, value, cached_at FROM metadata_cache ORDER BY cached_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	defer rows.Close()

	var entries []Entry
	for rows.Next() {
		var (
			e        Entry
			value    string
			cachedAt string
		)
		if err := rows.Scan(&e.ID, &value, &cachedAt); err != nil {
			return nil, fmt.Errorf("failed to scan cache entry: %w", err)
		}
		e.Value = []byte(value)
		e.CachedAt, _ = time.Parse(time.RFC3339Nano, cachedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to list cache entries: %w", err)
	}
	return entries, nil
}

// Close closes the database and releases the lock. It is safe to call more
// than once.
func (s *SQLiteStore) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	if unlockErr := s.lock.Unlock(); err == nil {
		err = unlockErr
	}
	return err
}
