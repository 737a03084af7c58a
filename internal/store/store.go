package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"
)

const currentVersion = 1

// Record keys. Values are JSON documents; the key names are opaque to callers.
const (
	KeySettings     = "pomodoro_settings"
	KeyTasks        = "pomodoro_tasks"
	KeySessions     = "pomodoro_sessions"
	KeyStatistics   = "pomodoro_stats"
	KeyAchievements = "pomodoro_achievements"
	KeyTimerState   = "pomodoro_timer_state"
)

var allKeys = []string{KeySettings, KeyTasks, KeySessions, KeyStatistics, KeyAchievements, KeyTimerState}

// Store is a local key/value record store. Every collection is read and
// written whole; writes never return errors past this type, they report
// success as a bool and log the cause.
type Store struct {
	db  *sqlx.DB
	log *slog.Logger
	now func() time.Time

	// mu serializes read-modify-write helpers within one process.
	mu sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger used for storage warnings.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.log = l
		}
	}
}

// WithClock replaces time.Now, mainly for tests.
func WithClock(now func() time.Time) Option {
	return func(s *Store) {
		if now != nil {
			s.now = now
		}
	}
}

// New opens (or creates) the SQLite database at dbPath, runs migrations and
// materializes default records.
func New(dbPath string, opts ...Option) (*Store, error) {
	if dbPath != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(dbPath), 0o755); err != nil {
			return nil, fmt.Errorf("create db directory: %w", err)
		}
	}

	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	db.SetMaxOpenConns(1)

	pragmas := []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, fmt.Errorf("exec pragma %q: %w", p, err)
		}
	}

	s := &Store{
		db:  db,
		log: slog.New(slog.NewTextHandler(io.Discard, nil)),
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}
	s.ensureDefaults()
	return s, nil
}

// NewMemory creates an in-memory store for testing.
func NewMemory(opts ...Option) (*Store, error) {
	return New(":memory:", opts...)
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Now returns the store's clock reading.
func (s *Store) Now() time.Time {
	return s.now()
}

func (s *Store) migrate() error {
	var version int
	if err := s.db.Get(&version, "PRAGMA user_version"); err != nil {
		return fmt.Errorf("read user_version: %w", err)
	}

	if version >= currentVersion {
		return nil
	}

	if version < 1 {
		if err := s.migrateV1(); err != nil {
			return err
		}
	}

	_, err := s.db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentVersion))
	return err
}

func (s *Store) migrateV1() error {
	const ddl = `
	CREATE TABLE IF NOT EXISTS records (
		key         TEXT PRIMARY KEY,
		value       TEXT NOT NULL,
		updated_at  TEXT NOT NULL DEFAULT (strftime('%Y-%m-%dT%H:%M:%SZ','now'))
	);
	`
	_, err := s.db.Exec(ddl)
	return err
}

// ensureDefaults writes a default record for every collection that has none.
func (s *Store) ensureDefaults() {
	if _, ok := s.getRaw(KeySettings); !ok {
		s.putJSON(KeySettings, DefaultSettings())
	}
	if _, ok := s.getRaw(KeyTasks); !ok {
		s.putJSON(KeyTasks, []Task{})
	}
	if _, ok := s.getRaw(KeySessions); !ok {
		s.putJSON(KeySessions, []Session{})
	}
	if _, ok := s.getRaw(KeyStatistics); !ok {
		s.putJSON(KeyStatistics, DefaultStatistics(s.now()))
	}
	if _, ok := s.getRaw(KeyAchievements); !ok {
		s.putJSON(KeyAchievements, DefaultAchievements())
	}
}

type record struct {
	Key       string `db:"key"`
	Value     string `db:"value"`
	UpdatedAt string `db:"updated_at"`
}

func (s *Store) getRaw(key string) ([]byte, bool) {
	var value string
	err := s.db.Get(&value, `SELECT value FROM records WHERE key = ?`, key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, false
	}
	if err != nil {
		s.log.Warn("storage read failed", "key", key, "err", err)
		return nil, false
	}
	return []byte(value), true
}

func (s *Store) putRaw(key string, value []byte) bool {
	_, err := s.db.NamedExec(
		`INSERT INTO records (key, value, updated_at) VALUES (:key, :value, :updated_at)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		record{Key: key, Value: string(value), UpdatedAt: s.now().UTC().Format(time.RFC3339)},
	)
	if err != nil {
		s.log.Warn("storage write failed", "key", key, "err", err)
		return false
	}
	return true
}

func (s *Store) deleteRaw(key string) bool {
	if _, err := s.db.Exec(`DELETE FROM records WHERE key = ?`, key); err != nil {
		s.log.Warn("storage delete failed", "key", key, "err", err)
		return false
	}
	return true
}

// getJSON decodes the record at key into dst. A missing or malformed record
// reports false and leaves dst as the caller initialized it.
func (s *Store) getJSON(key string, dst any) bool {
	raw, ok := s.getRaw(key)
	if !ok {
		return false
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		s.log.Warn("malformed record, using defaults", "key", key, "err", err)
		return false
	}
	return true
}

func (s *Store) putJSON(key string, v any) bool {
	data, err := json.Marshal(v)
	if err != nil {
		s.log.Warn("encode record failed", "key", key, "err", err)
		return false
	}
	return s.putRaw(key, data)
}

// DataSize reports the number of bytes held across all records.
func (s *Store) DataSize() int64 {
	var total sql.NullInt64
	if err := s.db.Get(&total, `SELECT COALESCE(SUM(LENGTH(value)), 0) FROM records`); err != nil {
		s.log.Warn("storage size query failed", "err", err)
		return 0
	}
	return total.Int64
}

// Checkpoint flushes the WAL into the main database file.
func (s *Store) Checkpoint() bool {
	if _, err := s.db.Exec("PRAGMA wal_checkpoint(PASSIVE)"); err != nil {
		s.log.Warn("wal checkpoint failed", "err", err)
		return false
	}
	return true
}

// ClearAll removes every record and re-creates the defaults.
func (s *Store) ClearAll() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, k := range allKeys {
		s.deleteRaw(k)
	}
	s.ensureDefaults()
}

// DefaultDBPath returns ~/.config/pomodoro/pomodoro.db
func DefaultDBPath() (string, error) {
	cfg, err := os.UserConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(cfg, "pomodoro", "pomodoro.db"), nil
}
