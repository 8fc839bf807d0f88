// Package sqlkv implements store.KV on a SQL table through sqlx. It runs on
// SQLite (modernc.org/sqlite, driver "sqlite") and Postgres (lib/pq, driver
// "postgres"); placeholders are rebound for the connection's driver.
package sqlkv

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"regexp"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/goliatone/go-formwizard/pkg/store"
)

// DefaultTable holds one row per slot key.
const DefaultTable = "form_slots"

var tableName = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// Option configures the SQL slot.
type Option func(*KV)

// WithTable overrides the table name.
func WithTable(name string) Option {
	return func(kv *KV) {
		if name != "" {
			kv.table = name
		}
	}
}

// WithClock overrides the timestamp source used for updated_at.
func WithClock(now func() time.Time) Option {
	return func(kv *KV) {
		if now != nil {
			kv.now = now
		}
	}
}

// KV is a SQL backed store.KV.
type KV struct {
	db    *sqlx.DB
	table string
	now   func() time.Time
}

var _ store.KV = (*KV)(nil)

// New wraps an open connection.
func New(db *sqlx.DB, opts ...Option) (*KV, error) {
	if db == nil {
		return nil, errors.New("sqlkv: db is required")
	}
	kv := &KV{db: db, table: DefaultTable, now: time.Now}
	for _, opt := range opts {
		if opt != nil {
			opt(kv)
		}
	}
	if !tableName.MatchString(kv.table) {
		return nil, fmt.Errorf("sqlkv: invalid table name %q", kv.table)
	}
	return kv, nil
}

// Open connects with driver ("sqlite" or "postgres") and dsn and ensures the
// schema exists.
func Open(ctx context.Context, driver, dsn string, opts ...Option) (*KV, error) {
	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("sqlkv: open %s: %w", driver, err)
	}
	if driver == "sqlite" {
		// An in-memory SQLite database lives per connection.
		db.SetMaxOpenConns(1)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("sqlkv: ping %s: %w", driver, err)
	}
	kv, err := New(db, opts...)
	if err != nil {
		db.Close()
		return nil, err
	}
	if err := kv.Migrate(ctx); err != nil {
		db.Close()
		return nil, err
	}
	return kv, nil
}

// DB exposes the underlying connection.
func (kv *KV) DB() *sqlx.DB {
	return kv.db
}

// Close closes the connection.
func (kv *KV) Close() error {
	return kv.db.Close()
}

// Migrate creates the slot table when missing.
func (kv *KV) Migrate(ctx context.Context) error {
	query := fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
	slot_key TEXT PRIMARY KEY,
	payload TEXT NOT NULL,
	updated_at TIMESTAMP NOT NULL
)`, kv.table)
	if _, err := kv.db.ExecContext(ctx, query); err != nil {
		return fmt.Errorf("sqlkv: migrate: %w", err)
	}
	return nil
}

func (kv *KV) Get(ctx context.Context, key string) ([]byte, error) {
	query := kv.db.Rebind(fmt.Sprintf(`SELECT payload FROM %s WHERE slot_key = ?`, kv.table))
	var payload string
	if err := kv.db.GetContext(ctx, &payload, query, key); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("sqlkv: get %q: %w", key, err)
	}
	return []byte(payload), nil
}

func (kv *KV) Set(ctx context.Context, key string, value []byte) error {
	query := kv.db.Rebind(fmt.Sprintf(`INSERT INTO %s (slot_key, payload, updated_at) VALUES (?, ?, ?)
ON CONFLICT (slot_key) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at`, kv.table))
	if _, err := kv.db.ExecContext(ctx, query, key, string(value), kv.now().UTC()); err != nil {
		return fmt.Errorf("sqlkv: set %q: %w", key, err)
	}
	return nil
}

func (kv *KV) Delete(ctx context.Context, key string) error {
	query := kv.db.Rebind(fmt.Sprintf(`DELETE FROM %s WHERE slot_key = ?`, kv.table))
	if _, err := kv.db.ExecContext(ctx, query, key); err != nil {
		return fmt.Errorf("sqlkv: delete %q: %w", key, err)
	}
	return nil
}
