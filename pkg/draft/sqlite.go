package draft

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	_ "modernc.org/sqlite" // registers the "sqlite" driver
)

// SQLiteConfig configures a SQLiteKV.
type SQLiteConfig struct {
	// Path is the database file path. ":memory:" keeps it in memory.
	Path string

	// Driver is "sqlite" (modernc.org/sqlite) or "sqlite3" (mattn/go-sqlite3,
	// cgo builds only).
	// Default: "sqlite"
	Driver string

	// BusyTimeout is how long to wait for locks before failing.
	// Default: 5 seconds
	BusyTimeout time.Duration

	// QuotaBytes caps the stored bytes. Zero means unlimited.
	QuotaBytes int64

	Logger *slog.Logger
}

// SQLiteKV is a KV stored in a single SQLite table.
type SQLiteKV struct {
	db     *sql.DB
	quota  int64
	logger *slog.Logger

	getStmt    *sql.Stmt
	putStmt    *sql.Stmt
	deleteStmt *sql.Stmt
	keysStmt   *sql.Stmt
	usedStmt   *sql.Stmt
}

// NewSQLiteKV opens (creating if needed) the database at cfg.Path.
func NewSQLiteKV(cfg SQLiteConfig) (*SQLiteKV, error) {
	if cfg.Path == "" {
		return nil, fmt.Errorf("sqlite path cannot be empty")
	}
	if cfg.Driver == "" {
		cfg.Driver = "sqlite"
	}
	if cfg.BusyTimeout == 0 {
		cfg.BusyTimeout = 5 * time.Second
	}
	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With("component", "draft.sqlite")

	if cfg.Path != ":memory:" {
		if dir := filepath.Dir(cfg.Path); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("failed to create database directory: %w", err)
			}
		}
	}

	db, err := sql.Open(cfg.Driver, cfg.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// One connection keeps the PRAGMAs and an in-memory database consistent.
	db.SetMaxOpenConns(1)

	kv := &SQLiteKV{db: db, quota: cfg.QuotaBytes, logger: logger}
	if err := kv.initialize(cfg); err != nil {
		kv.Close()
		return nil, err
	}

	logger.Info("SQLite draft storage initialized",
		"path", cfg.Path,
		"driver", cfg.Driver,
		"quota_bytes", cfg.QuotaBytes,
	)
	return kv, nil
}

func (s *SQLiteKV) initialize(cfg SQLiteConfig) error {
	if cfg.Path != ":memory:" {
		if _, err := s.db.Exec("PRAGMA journal_mode=WAL;"); err != nil {
			return fmt.Errorf("failed to enable WAL: %w", err)
		}
	}
	if _, err := s.db.Exec(fmt.Sprintf("PRAGMA busy_timeout=%d;", cfg.BusyTimeout.Milliseconds())); err != nil {
		return fmt.Errorf("failed to set busy timeout: %w", err)
	}
	if _, err := s.db.Exec(sqliteSchema); err != nil {
		return fmt.Errorf("failed to create schema: %w", err)
	}

	var err error
	for _, p := range []struct {
		stmt  **sql.Stmt
		query string
	}{
		{&s.getStmt, sqliteGet},
		{&s.putStmt, sqlitePut},
		{&s.deleteStmt, sqliteDelete},
		{&s.keysStmt, sqliteKeys},
		{&s.usedStmt, sqliteUsed},
	} {
		if *p.stmt, err = s.db.Prepare(p.query); err != nil {
			return fmt.Errorf("failed to prepare statement: %w", err)
		}
	}
	return nil
}

// Get implements KV.
func (s *SQLiteKV) Get(ctx context.Context, key string) (string, bool, error) {
	var v string
	err := s.getStmt.QueryRowContext(ctx, key).Scan(&v)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return v, true, nil
}

// Put implements KV.
func (s *SQLiteKV) Put(ctx context.Context, entries map[string]string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	put := tx.StmtContext(ctx, s.putStmt)
	for k, v := range entries {
		if _, err := put.ExecContext(ctx, k, v); err != nil {
			return mapSQLiteError(err)
		}
	}

	if s.quota > 0 {
		var used int64
		if err := tx.StmtContext(ctx, s.usedStmt).QueryRowContext(ctx).Scan(&used); err != nil {
			return err
		}
		if used > s.quota {
			return fmt.Errorf("%w: %d of %d bytes", ErrQuotaExceeded, used, s.quota)
		}
	}

	return mapSQLiteError(tx.Commit())
}

// Delete implements KV.
func (s *SQLiteKV) Delete(ctx context.Context, keys ...string) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	del := tx.StmtContext(ctx, s.deleteStmt)
	for _, k := range keys {
		if _, err := del.ExecContext(ctx, k); err != nil {
			return err
		}
	}
	return tx.Commit()
}

// Keys implements KV.
func (s *SQLiteKV) Keys(ctx context.Context, prefix string) ([]string, error) {
	rows, err := s.keysStmt.QueryContext(ctx, len(prefix), prefix)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var keys []string
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// Close implements KV.
func (s *SQLiteKV) Close() error {
	for _, stmt := range []*sql.Stmt{s.getStmt, s.putStmt, s.deleteStmt, s.keysStmt, s.usedStmt} {
		if stmt != nil {
			stmt.Close()
		}
	}
	return s.db.Close()
}

// mapSQLiteError turns SQLITE_FULL into ErrQuotaExceeded.
func mapSQLiteError(err error) error {
	if err == nil {
		return nil
	}
	if strings.Contains(strings.ToLower(err.Error()), "database or disk is full") {
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	}
	return err
}
