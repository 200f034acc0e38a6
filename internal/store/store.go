package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/jmoiron/sqlx"

	// Pure Go SQLite driver (no CGO).
	_ "modernc.org/sqlite"
)

// Store is a SQLite-backed Backend.
type Store struct {
	db  *sqlx.DB
	now func() time.Time
}

// Open creates a new Store connected to the SQLite database at dsn.
// It applies recommended pragmas and creates missing tables.
func Open(dsn string) (*Store, error) {
	db, err := sqlx.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	// One connection keeps pragmas in effect and matches SQLite's single writer.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply pragmas: %w", err)
	}

	if err := migrate(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate: %w", err)
	}

	return &Store{db: db, now: time.Now}, nil
}

// DB returns the underlying handle for raw queries.
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) Users() UserRepo      { return &userRepo{db: s.db} }
func (s *Store) Plans() PlanRepo      { return &planRepo{db: s.db} }
func (s *Store) History() HistoryRepo { return &historyRepo{db: s.db} }

func (s *Store) Pending(ttl time.Duration) PendingRepo {
	return &pendingRepo{db: s.db, ttl: ttl, now: s.now}
}

// InTx runs fn inside one SQLite transaction.
func (s *Store) InTx(ctx context.Context, fn func(Writes) error) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	if err := fn(repoWrites{
		users:   &userRepo{db: tx},
		plans:   &planRepo{db: tx},
		history: &historyRepo{db: tx},
	}); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Reset deletes every row from every table.
func (s *Store) Reset(ctx context.Context) error {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin reset: %w", err)
	}
	defer tx.Rollback()

	for _, table := range []string{"pending_assessments", "assessment_results", "learning_plans", "users"} {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return fmt.Errorf("clear %s: %w", table, err)
		}
	}
	return tx.Commit()
}

// applyPragmas configures SQLite for a small single-process service.
func applyPragmas(db *sqlx.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
		"PRAGMA synchronous = NORMAL",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			return fmt.Errorf("%s: %w", p, err)
		}
	}
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS users (
	id                TEXT PRIMARY KEY,
	email             TEXT NOT NULL,
	display_name      TEXT NOT NULL,
	created_at        INTEGER NOT NULL,
	last_active_at    INTEGER NOT NULL,
	completed_initial INTEGER NOT NULL DEFAULT 0,
	skill_ratings     TEXT NOT NULL DEFAULT '[]',
	current_plan_id   TEXT NOT NULL DEFAULT ''
);

CREATE TABLE IF NOT EXISTS learning_plans (
	id                 TEXT PRIMARY KEY,
	user_id            TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	created_at         INTEGER NOT NULL,
	updated_at         INTEGER NOT NULL,
	focus_areas        TEXT NOT NULL,
	items              TEXT NOT NULL,
	current_item_index INTEGER NOT NULL,
	is_active          INTEGER NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_learning_plans_user ON learning_plans(user_id);

CREATE TABLE IF NOT EXISTS assessment_results (
	seq           INTEGER PRIMARY KEY AUTOINCREMENT,
	id            TEXT NOT NULL UNIQUE,
	user_id       TEXT NOT NULL REFERENCES users(id) ON DELETE CASCADE,
	completed_at  INTEGER NOT NULL,
	overall_score REAL NOT NULL,
	data          TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_assessment_results_user ON assessment_results(user_id);

CREATE TABLE IF NOT EXISTS pending_assessments (
	id           TEXT PRIMARY KEY,
	user_id      TEXT NOT NULL,
	question_ids TEXT NOT NULL,
	started_at   INTEGER NOT NULL,
	expires_at   INTEGER NOT NULL
);
`

func migrate(db *sqlx.DB) error {
	_, err := db.Exec(schema)
	return err
}

// DefaultDBPath resolves the database file path in priority order:
// 1. MIXCOACH_DB environment variable
// 2. $XDG_DATA_HOME/mixcoach/mixcoach.db
// 3. ~/.local/share/mixcoach/mixcoach.db
func DefaultDBPath() (string, error) {
	if p := os.Getenv("MIXCOACH_DB"); p != "" {
		return p, EnsureDir(p)
	}

	dataHome := os.Getenv("XDG_DATA_HOME")
	if dataHome == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home dir: %w", err)
		}
		dataHome = filepath.Join(home, ".local", "share")
	}

	p := filepath.Join(dataHome, "mixcoach", "mixcoach.db")
	return p, EnsureDir(p)
}

// EnsureDir creates the parent directory of path if it doesn't exist.
func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0o755)
}

func toUnix(t time.Time) int64 {
	return t.UnixNano()
}

func fromUnix(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
