package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"reconviewer/internal/model"
)

// CacheConfig configures the SQLite response cache.
type CacheConfig struct {
	DBPath string        // path to SQLite database file, e.g. "data/viewer-cache.db"
	TTL    time.Duration // <= 0 keeps entries forever
}

// Cache stores backend response bodies in a local SQLite file so that a
// restarted viewer can reopen recent reports without the backend.
type Cache struct {
	db  *sql.DB
	ttl time.Duration
	now func() time.Time
}

var _ model.ResponseCache = (*Cache)(nil)

// DB returns the underlying sql.DB for health checks.
func (c *Cache) DB() *sql.DB { return c.db }

// NewCache opens the database in WAL mode and creates the schema.
func NewCache(cfg CacheConfig) (*Cache, error) {
	db, err := sql.Open("sqlite3", cfg.DBPath+"?_journal_mode=WAL&_synchronous=NORMAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("sqlite open: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := createSchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlite schema: %w", err)
	}

	log.Printf("[sqlite] response cache opened at %s (ttl=%s)", cfg.DBPath, cfg.TTL)
	return &Cache{db: db, ttl: cfg.TTL, now: time.Now}, nil
}

func createSchema(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS responses (
			key        TEXT    PRIMARY KEY,
			body       BLOB    NOT NULL,
			stored_at  INTEGER NOT NULL,
			expires_at INTEGER NOT NULL
		);
		CREATE INDEX IF NOT EXISTS idx_responses_expires ON responses(expires_at);
	`)
	return err
}

// Get implements model.ResponseCache. Expired rows are misses.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, bool, error) {
	var (
		body      []byte
		expiresAt int64
	)
	err := c.db.QueryRowContext(ctx,
		`SELECT body, expires_at FROM responses WHERE key = ?`, key).Scan(&body, &expiresAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("sqlite get: %w", err)
	}
	if expiresAt != 0 && c.now().UnixMilli() >= expiresAt {
		return nil, false, nil
	}
	return body, true, nil
}

// Put implements model.ResponseCache.
func (c *Cache) Put(ctx context.Context, key string, body []byte) error {
	now := c.now()
	var expiresAt int64
	if c.ttl > 0 {
		expiresAt = now.Add(c.ttl).UnixMilli()
	}
	_, err := c.db.ExecContext(ctx, `
		INSERT INTO responses (key, body, stored_at, expires_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET
			body = excluded.body, stored_at = excluded.stored_at, expires_at = excluded.expires_at`,
		key, body, now.UnixMilli(), expiresAt)
	if err != nil {
		return fmt.Errorf("sqlite put: %w", err)
	}
	return nil
}

// Purge deletes expired rows and returns how many were removed.
func (c *Cache) Purge(ctx context.Context) (int64, error) {
	res, err := c.db.ExecContext(ctx,
		`DELETE FROM responses WHERE expires_at != 0 AND expires_at <= ?`, c.now().UnixMilli())
	if err != nil {
		return 0, fmt.Errorf("sqlite purge: %w", err)
	}
	return res.RowsAffected()
}

// RunJanitor purges expired rows every interval until ctx is cancelled.
func (c *Cache) RunJanitor(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		return
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			n, err := c.Purge(ctx)
			if err != nil {
				log.Printf("[sqlite] purge error: %v", err)
			} else if n > 0 {
				log.Printf("[sqlite] purged %d expired responses", n)
			}
		}
	}
}

// Close implements model.ResponseCache.
func (c *Cache) Close() error {
	return c.db.Close()
}
