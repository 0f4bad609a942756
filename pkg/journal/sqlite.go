package journal

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // SQLite driver
)

// SQLite persists entries in a SQLite database using the pure-Go driver.
//
// Writes go through a single connection; the database runs in WAL mode so
// List does not block on a concurrent Record for long.
type SQLite struct {
	db         *sql.DB
	path       string
	maxEntries int

	closeOnce sync.Once

	insertStmt *sql.Stmt
	listStmt   *sql.Stmt
	pruneStmt  *sql.Stmt
}

// SQLiteConfig configures the SQLite journal.
type SQLiteConfig struct {
	// Path is the database file. ":memory:" keeps the database in memory.
	Path string

	// MaxEntries prunes older rows after each insert. Zero keeps everything.
	MaxEntries int

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration
}

// NewSQLite opens (or creates) the journal database.
func NewSQLite(cfg SQLiteConfig) (*SQLite, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("db path cannot be empty")
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	if cfg.Path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(cfg.Path), 0o700); err != nil {
			return nil, fmt.Errorf("failed to create journal directory: %w", err)
		}
	}

	dsn := fmt.Sprintf("%s?_pragma=journal_mode(WAL)&_pragma=busy_timeout(%d)&_pragma=synchronous(NORMAL)",
		cfg.Path, cfg.BusyTimeout.Milliseconds())

	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	// SQLite only supports a single writer; one connection also keeps a
	// ":memory:" database alive for the lifetime of the pool.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	s := &SQLite{
		db:         db,
		path:       cfg.Path,
		maxEntries: cfg.MaxEntries,
	}

	if err := s.initSchema(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	if err := s.prepareStatements(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to prepare statements: %w", err)
	}
	return s, nil
}

func (s *SQLite) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS dispatches (
		seq        INTEGER PRIMARY KEY AUTOINCREMENT,
		id         TEXT NOT NULL UNIQUE,
		task       TEXT NOT NULL,
		provider   TEXT NOT NULL,
		model      TEXT NOT NULL,
		simulated  INTEGER NOT NULL,
		fallback   INTEGER NOT NULL,
		reason     TEXT NOT NULL,
		error      TEXT NOT NULL,
		latency_ns INTEGER NOT NULL,
		created_at INTEGER NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_dispatches_created_at ON dispatches(created_at);
	`
	_, err := s.db.Exec(schema)
	return err
}

func (s *SQLite) prepareStatements() error {
	var err error

	s.insertStmt, err = s.db.Prepare(`
		INSERT INTO dispatches (id, task, provider, model, simulated, fallback, reason, error, latency_ns, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare insert statement: %w", err)
	}

	s.listStmt, err = s.db.Prepare(`
		SELECT id, task, provider, model, simulated, fallback, reason, error, latency_ns, created_at
		FROM dispatches
		ORDER BY seq DESC
		LIMIT ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare list statement: %w", err)
	}

	s.pruneStmt, err = s.db.Prepare(`
		DELETE FROM dispatches
		WHERE seq <= (SELECT MAX(seq) FROM dispatches) - ?
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare prune statement: %w", err)
	}
	return nil
}

// Record inserts entry and prunes rows beyond MaxEntries.
func (s *SQLite) Record(ctx context.Context, entry Entry) error {
	if err := entry.validate(); err != nil {
		return err
	}

	_, err := s.insertStmt.ExecContext(ctx,
		entry.ID,
		entry.Task,
		entry.Provider,
		entry.Model,
		entry.Simulated,
		entry.Fallback,
		entry.Reason,
		entry.Error,
		int64(entry.Latency),
		entry.Time.UnixNano(),
	)
	if err != nil {
		return fmt.Errorf("failed to record dispatch: %w", err)
	}

	if s.maxEntries > 0 {
		if _, err := s.pruneStmt.ExecContext(ctx, s.maxEntries); err != nil {
			return fmt.Errorf("failed to prune journal: %w", err)
		}
	}
	return nil
}

// List returns up to limit entries, newest first.
func (s *SQLite) List(ctx context.Context, limit int) ([]Entry, error) {
	if limit <= 0 {
		limit = -1 // SQLite treats a negative LIMIT as unbounded
	}

	rows, err := s.listStmt.QueryContext(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list dispatches: %w", err)
	}
	defer rows.Close()

	var out []Entry
	for rows.Next() {
		var (
			e         Entry
			latency   int64
			createdAt int64
		)
		if err := rows.Scan(&e.ID, &e.Task, &e.Provider, &e.Model, &e.Simulated, &e.Fallback,
			&e.Reason, &e.Error, &latency, &createdAt); err != nil {
			return nil, fmt.Errorf("failed to scan dispatch: %w", err)
		}
		e.Latency = time.Duration(latency)
		e.Time = time.Unix(0, createdAt)
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate dispatches: %w", err)
	}
	return out, nil
}

// Close closes the prepared statements and the database.
func (s *SQLite) Close() error {
	var err error
	s.closeOnce.Do(func() {
		for _, stmt := range []*sql.Stmt{s.insertStmt, s.listStmt, s.pruneStmt} {
			if stmt != nil {
				stmt.Close()
			}
		}
		err = s.db.Close()
	})
	return err
}
