package auth

import (
	"database/sql"
	"fmt"
	"time"

	"go.uber.org/zap"
)

// Record is the persisted token shape: the token itself, when it was
// issued and when it stops being usable. Times are epoch milliseconds.
type Record struct {
	Token     string
	Timestamp int64
	ExpiresAt int64
}

// Expired reports whether the record is past its expiry at the given time
func (r *Record) Expired(now time.Time) bool {
	return r.ExpiresAt > 0 && now.UnixMilli() > r.ExpiresAt
}

// Store persists a single token record under a fixed key name
type Store interface {
	Load(key string) (*Record, error)
	Save(key string, rec *Record) error
	Clear(key string) error
}

// SQLiteStore keeps token records in the local sqlite database, the
// service-side analog of the browser's localStorage cache.
type SQLiteStore struct {
	db     *sql.DB
	logger *zap.Logger
}

// NewSQLiteStore creates the token store and its backing table
func NewSQLiteStore(db *sql.DB, logger *zap.Logger) (*SQLiteStore, error) {
	schema := `CREATE TABLE IF NOT EXISTS auth_tokens (
		key        TEXT PRIMARY KEY,
		token      TEXT NOT NULL,
		timestamp  INTEGER NOT NULL,
		expires_at INTEGER NOT NULL
	)`
	if _, err := db.Exec(schema); err != nil {
		return nil, fmt.Errorf("failed to create auth_tokens table: %w", err)
	}
	return &SQLiteStore{db: db, logger: logger}, nil
}

// Load returns the stored record for key, or nil when none exists
func (s *SQLiteStore) Load(key string) (*Record, error) {
	row := s.db.QueryRow(
		`SELECT token, timestamp, expires_at FROM auth_tokens WHERE key = ?`, key)

	var rec Record
	if err := row.Scan(&rec.Token, &rec.Timestamp, &rec.ExpiresAt); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to load token record: %w", err)
	}
	return &rec, nil
}

// Save upserts the record for key
func (s *SQLiteStore) Save(key string, rec *Record) error {
	_, err := s.db.Exec(
		`INSERT INTO auth_tokens (key, token, timestamp, expires_at) VALUES (?, ?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET token = excluded.token,
		 timestamp = excluded.timestamp, expires_at = excluded.expires_at`,
		key, rec.Token, rec.Timestamp, rec.ExpiresAt)
	if err != nil {
		return fmt.Errorf("failed to save token record: %w", err)
	}
	return nil
}

// Clear removes the record for key
func (s *SQLiteStore) Clear(key string) error {
	if _, err := s.db.Exec(`DELETE FROM auth_tokens WHERE key = ?`, key); err != nil {
		return fmt.Errorf("failed to clear token record: %w", err)
	}
	return nil
}

// MemoryStore is an in-process Store used in tests
type MemoryStore struct {
	records map[string]*Record
}

// NewMemoryStore creates an empty in-memory store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{records: make(map[string]*Record)}
}

func (s *MemoryStore) Load(key string) (*Record, error) {
	rec, ok := s.records[key]
	if !ok {
		return nil, nil
	}
	copied := *rec
	return &copied, nil
}

func (s *MemoryStore) Save(key string, rec *Record) error {
	copied := *rec
	s.records[key] = &copied
	return nil
}

func (s *MemoryStore) Clear(key string) error {
	delete(s.records, key)
	return nil
}
