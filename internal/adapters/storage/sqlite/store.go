// Package sqlite provides the SQLite-backed cache, exchange log and event
// sink. A single Store serves all three so one file on disk holds the
// gateway's durable state.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/chocolab/ai-gateway/internal/core/ports"
	"github.com/chocolab/ai-gateway/internal/domain"
)

// Store persists cache entries, chat exchanges and published events.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

var (
	_ ports.CacheStore    = (*Store)(nil)
	_ ports.ExchangeStore = (*Store)(nil)
)

// New opens (or creates) the database at path and initializes the schema.
func New(path string) (*Store, error) {
	db, err := sqlx.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	pragmas := []string{
		`PRAGMA journal_mode = WAL`,
		`PRAGMA busy_timeout = 5000`,
		`PRAGMA foreign_keys = ON`,
	}
	for _, stmt := range pragmas {
		if _, err := db.Exec(stmt); err != nil {
			db.Close()
			return nil, fmt.Errorf("failed to execute pragma: %w", err)
		}
	}

	s := &Store{db: db, now: time.Now}
	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return s, nil
}

func (s *Store) initSchema() error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS cache_entries (
key TEXT PRIMARY KEY,
value BLOB NOT NULL,
expires_at TIMESTAMP
)`,
		`CREATE TABLE IF NOT EXISTS exchanges (
id TEXT PRIMARY KEY,
user_id TEXT NOT NULL,
user_message TEXT NOT NULL,
ai_response TEXT NOT NULL,
created_at TIMESTAMP NOT NULL
)`,
		`CREATE TABLE IF NOT EXISTS events (
id INTEGER PRIMARY KEY AUTOINCREMENT,
topic TEXT NOT NULL,
name TEXT NOT NULL,
payload TEXT,
created_at TIMESTAMP NOT NULL
)`,
		`CREATE INDEX IF NOT EXISTS idx_cache_entries_expires ON cache_entries(expires_at)`,
		`CREATE INDEX IF NOT EXISTS idx_exchanges_user ON exchanges(user_id, created_at)`,
		`CREATE INDEX IF NOT EXISTS idx_events_topic ON events(topic, created_at)`,
	}

	for _, stmt := range statements {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("failed to execute schema statement: %w", err)
		}
	}
	return nil
}

// Get retrieves a cache value. Expired rows are deleted lazily and reported
// as a miss.
func (s *Store) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var value []byte
	var expiresAt sql.NullTime

	query := `SELECT value, expires_at FROM cache_entries WHERE key = ?`
	err := s.db.QueryRowContext(ctx, query, key).Scan(&value, &expiresAt)
	if err == sql.ErrNoRows {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("failed to read cache entry: %w", err)
	}

	if expiresAt.Valid && s.now().After(expiresAt.Time) {
		s.db.ExecContext(ctx, `DELETE FROM cache_entries WHERE key = ?`, key)
		return nil, false, nil
	}

	return value, true, nil
}

// Set upserts a cache value. A zero TTL stores the entry without expiry.
func (s *Store) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	var expiresAt any
	if ttl > 0 {
		expiresAt = s.now().Add(ttl)
	}

	query := `INSERT INTO cache_entries (key, value, expires_at) VALUES (?, ?, ?)
	          ON CONFLICT(key) DO UPDATE SET value = excluded.value, expires_at = excluded.expires_at`
	if _, err := s.db.ExecContext(ctx, query, key, value, expiresAt); err != nil {
		return fmt.Errorf("failed to write cache entry: %w", err)
	}
	return nil
}

// SaveExchange appends one immutable exchange record.
func (s *Store) SaveExchange(ctx context.Context, exchange *domain.ChatExchange) error {
	query := `INSERT INTO exchanges (id, user_id, user_message, ai_response, created_at)
	          VALUES (?, ?, ?, ?, ?)`
	_, err := s.db.ExecContext(ctx, query,
		exchange.ID, exchange.UserID, exchange.UserMessage, exchange.AIResponse, exchange.CreatedAt)
	if err != nil {
		return fmt.Errorf("failed to save exchange: %w", err)
	}
	return nil
}

// ExchangesByUser returns a user's exchanges, oldest first. The gateway never
// reads these itself; the accessor exists for operational inspection.
func (s *Store) ExchangesByUser(ctx context.Context, userID string, limit int) ([]*domain.ChatExchange, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `SELECT id, user_id, user_message, ai_response, created_at
	          FROM exchanges WHERE user_id = ?
	          ORDER BY created_at ASC
	          LIMIT ?`
	rows, err := s.db.QueryContext(ctx, query, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query exchanges: %w", err)
	}
	defer rows.Close()

	var exchanges []*domain.ChatExchange
	for rows.Next() {
		var e domain.ChatExchange
		if err := rows.Scan(&e.ID, &e.UserID, &e.UserMessage, &e.AIResponse, &e.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan exchange: %w", err)
		}
		exchanges = append(exchanges, &e)
	}
	return exchanges, rows.Err()
}

// SaveEvent appends a published event. Used by the direct event publisher.
func (s *Store) SaveEvent(ctx context.Context, event *domain.Event) error {
	payload, err := json.Marshal(event.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal event payload: %w", err)
	}

	createdAt := event.Timestamp
	if createdAt.IsZero() {
		createdAt = s.now()
	}

	query := `INSERT INTO events (topic, name, payload, created_at) VALUES (?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, event.Topic, event.Name, string(payload), createdAt); err != nil {
		return fmt.Errorf("failed to save event: %w", err)
	}
	return nil
}

// PurgeExpired removes expired cache entries eagerly. Get already treats
// expired rows as misses; this keeps the file from growing unbounded.
func (s *Store) PurgeExpired(ctx context.Context) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM cache_entries WHERE expires_at IS NOT NULL AND expires_at < ?`, s.now())
	if err != nil {
		return 0, fmt.Errorf("failed to purge cache entries: %w", err)
	}
	return result.RowsAffected()
}

// Close releases the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}
