/*
Package sqlite provides a SQLite-backed implementation of the storage interfaces.

PURPOSE:
  Durable home for the tuition list and the reminder queue when the
  tracker runs as a server. The same patterns apply to PostgreSQL; only
  minor SQL dialect differences.

INTERFACES IMPLEMENTED:
  tuition.BlobStore: key -> opaque blob (the JSON tuition list)
  reminder.Queue:    scheduled reminders, survived across restarts
  reminder.Sink:     records every delivered reminder

KEY TABLES:
  blobs:      one row per storage key, replaced wholesale on Put
  reminders:  pending reminders, keyed by reminder id
  deliveries: append-only history of delivered reminders

CONCURRENCY:
  Uses sync.RWMutex for thread-safety, and a single connection so that
  ":memory:" databases are shared by every query.

WAL MODE:
  SQLite is opened with WAL (Write-Ahead Logging):
  - Readers don't block the writer
  - Better crash recovery

USAGE:
  store, err := sqlite.New("./data/tuition.db")
  if err != nil {
      log.Fatal(err)
  }
  defer store.Close()

  tr := tracker.New(store, tracker.WithNotifier(store))

MIGRATION:
  Schema is auto-migrated on New().

SEE ALSO:
  - tuition/record.go: BlobStore interface and blob format
  - reminder/queue.go: Queue interface, in-memory implementation
  - tuition/store/memory.go: in-memory BlobStore for testing
*/
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/warp/tuition-engine/reminder"
	"github.com/warp/tuition-engine/tuition"
)

// Store implements all storage interfaces using SQLite.
type Store struct {
	db *sql.DB
	mu sync.RWMutex
}

// New creates a new SQLite store with the given database path.
// Use ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(1)

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

// migrate creates the database schema.
func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS blobs (
		key TEXT PRIMARY KEY,
		value BLOB NOT NULL,
		updated_at TEXT NOT NULL
	);

	CREATE TABLE IF NOT EXISTS reminders (
		id TEXT PRIMARY KEY,
		tuition_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		fire_at TEXT NOT NULL,
		fire_at_unix INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_reminders_fire_at
		ON reminders(fire_at_unix);

	CREATE TABLE IF NOT EXISTS deliveries (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		reminder_id TEXT NOT NULL,
		tuition_id TEXT NOT NULL,
		title TEXT NOT NULL,
		body TEXT NOT NULL,
		fire_at TEXT NOT NULL,
		delivered_at TEXT NOT NULL
	);
	`

	_, err := s.db.Exec(schema)
	return err
}

// =============================================================================
// BLOB STORE
// =============================================================================

// Get returns the blob stored under key, or tuition.ErrBlobNotFound.
func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var value []byte
	err := s.db.QueryRowContext(ctx, "SELECT value FROM blobs WHERE key = ?", key).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, tuition.ErrBlobNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get blob: %w", err)
	}
	return value, nil
}

// Put replaces the blob stored under key.
func (s *Store) Put(ctx context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO blobs (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at
	`, key, value, time.Now().UTC().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to put blob: %w", err)
	}
	return nil
}

// =============================================================================
// REMINDER QUEUE
// =============================================================================

// CancelAll removes every pending reminder.
func (s *Store) CancelAll(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.db.ExecContext(ctx, "DELETE FROM reminders"); err != nil {
		return fmt.Errorf("failed to cancel reminders: %w", err)
	}
	return nil
}

// Schedule stores a reminder, replacing one with the same id.
func (s *Store) Schedule(ctx context.Context, r reminder.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT OR REPLACE INTO reminders (id, tuition_id, title, body, fire_at, fire_at_unix)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.TuitionID, r.Title, r.Body, r.FireAt.Format(time.RFC3339Nano), r.FireAt.Unix())
	if err != nil {
		return fmt.Errorf("failed to schedule reminder: %w", err)
	}
	return nil
}

// Pending returns every scheduled reminder ordered by fire time.
func (s *Store) Pending(ctx context.Context) ([]reminder.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryReminders(ctx, `
		SELECT id, tuition_id, title, body, fire_at FROM reminders
		ORDER BY fire_at_unix ASC, id ASC
	`)
}

// Due returns reminders whose fire time is not after now.
func (s *Store) Due(ctx context.Context, now time.Time) ([]reminder.Reminder, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.queryReminders(ctx, `
		SELECT id, tuition_id, title, body, fire_at FROM reminders
		WHERE fire_at_unix <= ?
		ORDER BY fire_at_unix ASC, id ASC
	`, now.Unix())
}

// Ack removes delivered reminders.
func (s *Store) Ack(ctx context.Context, ids ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer sqlTx.Rollback()

	for _, id := range ids {
		if _, err := sqlTx.ExecContext(ctx, "DELETE FROM reminders WHERE id = ?", id); err != nil {
			return fmt.Errorf("failed to ack reminder: %w", err)
		}
	}
	return sqlTx.Commit()
}

func (s *Store) queryReminders(ctx context.Context, query string, args ...any) ([]reminder.Reminder, error) {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reminders: %w", err)
	}
	defer rows.Close()

	var out []reminder.Reminder
	for rows.Next() {
		var r reminder.Reminder
		var fireAt string
		if err := rows.Scan(&r.ID, &r.TuitionID, &r.Title, &r.Body, &fireAt); err != nil {
			return nil, err
		}
		r.FireAt, err = time.Parse(time.RFC3339Nano, fireAt)
		if err != nil {
			return nil, fmt.Errorf("failed to parse fire_at %q: %w", fireAt, err)
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// =============================================================================
// DELIVERY LOG
// =============================================================================

// Delivery is one delivered reminder.
type Delivery struct {
	Reminder    reminder.Reminder
	DeliveredAt time.Time
}

// Deliver records r as delivered and logs it.
func (s *Store) Deliver(ctx context.Context, r reminder.Reminder) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO deliveries (reminder_id, tuition_id, title, body, fire_at, delivered_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, r.ID, r.TuitionID, r.Title, r.Body,
		r.FireAt.Format(time.RFC3339Nano), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to record delivery: %w", err)
	}
	log.Printf("[Reminder] %s: %s", r.Title, r.Body)
	return nil
}

// Deliveries returns the most recent deliveries, newest first.
func (s *Store) Deliveries(ctx context.Context, limit int) ([]Delivery, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT reminder_id, tuition_id, title, body, fire_at, delivered_at
		FROM deliveries ORDER BY id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query deliveries: %w", err)
	}
	defer rows.Close()

	var out []Delivery
	for rows.Next() {
		var d Delivery
		var fireAt, deliveredAt string
		if err := rows.Scan(&d.Reminder.ID, &d.Reminder.TuitionID, &d.Reminder.Title,
			&d.Reminder.Body, &fireAt, &deliveredAt); err != nil {
			return nil, err
		}
		if d.Reminder.FireAt, err = time.Parse(time.RFC3339Nano, fireAt); err != nil {
			return nil, err
		}
		if d.DeliveredAt, err = time.Parse(time.RFC3339Nano, deliveredAt); err != nil {
			return nil, err
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

// Reset deletes all data. For demos and tests.
func (s *Store) Reset(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.ExecContext(ctx, `
		DELETE FROM blobs;
		DELETE FROM reminders;
		DELETE FROM deliveries;
	`)
	return err
}

var (
	_ tuition.BlobStore = (*Store)(nil)
	_ reminder.Queue    = (*Store)(nil)
	_ reminder.Sink     = (*Store)(nil)
)
