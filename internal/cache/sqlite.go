package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	_ "modernc.org/sqlite"
)

// SQLiteStore persists memoized responses so they survive between runs.
type SQLiteStore struct {
	db   *sql.DB
	mu   sync.RWMutex
	path string
	ttl  time.Duration
	now  func() time.Time
}

// NewSQLiteStore opens (or creates) the cache database at dbPath.
func NewSQLiteStore(dbPath string, ttl time.Duration) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open cache database: %w", err)
	}

	// Set connection pool settings
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)

	if err := db.Ping(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to connect to cache database: %w", err), closeErr)
	}

	if _, err := db.Exec(RequestCacheSchema); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(fmt.Errorf("failed to create cache table: %w", err), closeErr)
	}

	return &SQLiteStore{
		db:   db,
		path: dbPath,
		ttl:  ttl,
		now:  time.Now,
	}, nil
}

func (s *SQLiteStore) Get(key string) (Entry, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var (
		entry    Entry
		header   string
		cachedAt int64
	)
	err := s.db.QueryRow(
		"SELECT status_code, header, body, cached_at FROM request_cache WHERE cache_key = ?",
		key,
	).Scan(&entry.StatusCode, &header, &entry.Body, &cachedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return Entry{}, false, nil
	}
	if err != nil {
		return Entry{}, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	entry.StoredAt = time.Unix(cachedAt, 0)
	if expired(entry, s.ttl, s.now()) {
		slog.Debug("Cache entry expired", "key", key, "cached_at", entry.StoredAt)
		return Entry{}, false, nil
	}

	entry.Header = http.Header{}
	if err := json.Unmarshal([]byte(header), &entry.Header); err != nil {
		return Entry{}, false, fmt.Errorf("failed to decode cached headers: %w", err)
	}
	return entry, true, nil
}

func (s *SQLiteStore) Set(key string, entry Entry) error {
	if entry.StoredAt.IsZero() {
		entry.StoredAt = s.now()
	}
	header, err := json.Marshal(entry.Header)
	if err != nil {
		return fmt.Errorf("failed to encode headers: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(
		"INSERT OR REPLACE INTO request_cache (cache_key, status_code, header, body, cached_at) VALUES (?, ?, ?, ?, ?)",
		key, entry.StatusCode, string(header), entry.Body, entry.StoredAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("failed to store cache entry: %w", err)
	}
	return nil
}

// Clear deletes every entry and returns how many were removed.
func (s *SQLiteStore) Clear() (int64, error) {
	return s.deleteWhere("DELETE FROM request_cache")
}

// ClearExpired deletes entries older than the store's TTL.
func (s *SQLiteStore) ClearExpired() (int64, error) {
	if s.ttl <= 0 {
		return 0, nil
	}
	cutoff := s.now().Add(-s.ttl).Unix()
	return s.deleteWhere("DELETE FROM request_cache WHERE cached_at < ?", cutoff)
}

func (s *SQLiteStore) deleteWhere(query string, args ...any) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	result, err := s.db.Exec(query, args...)
	if err != nil {
		return 0, fmt.Errorf("failed to delete cache entries: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	slog.Debug("Cache entries deleted", "database", s.path, "rows_deleted", rowsAffected)
	return rowsAffected, nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return s.db.Close()
	}
	return nil
}
