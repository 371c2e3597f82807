package ledger

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS profiles (
	actor           TEXT    PRIMARY KEY,
	total_emissions INTEGER NOT NULL DEFAULT 0,
	emission_count  INTEGER NOT NULL DEFAULT 0,
	last_tick       INTEGER NOT NULL DEFAULT 0
);

CREATE TABLE IF NOT EXISTS emissions (
	actor    TEXT    NOT NULL,
	tick     INTEGER NOT NULL,
	category INTEGER NOT NULL,
	units    INTEGER NOT NULL,
	PRIMARY KEY (actor, tick)
);
`

// SQLiteLedger persists the emissions ledger in a SQLite database file.
// It implements the Ledger interface and targets single-node deployments
// that want durability without running PostgreSQL.
type SQLiteLedger struct {
	db     *sql.DB
	logger *zap.Logger
}

// OpenSQLite opens (creating if needed) a SQLite ledger at path and applies
// the schema.
func OpenSQLite(path string, logger *zap.Logger) (*SQLiteLedger, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("sqlite path is required")
	}
	dsn := filepath.Clean(path) + "?_journal_mode=WAL&_foreign_keys=ON&_busy_timeout=5000"
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open sqlite db: %w", err)
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping sqlite db: %w", err)
	}
	if _, err := db.Exec(sqliteSchema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteLedger{db: db, logger: logger}, nil
}

// Close closes the underlying database handle.
func (l *SQLiteLedger) Close() error {
	return l.db.Close()
}

// isConstraintViolation reports whether err is a primary-key or unique
// constraint failure.
func isConstraintViolation(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	switch sqliteErr.Code() {
	case sqlite3lib.SQLITE_CONSTRAINT_PRIMARYKEY, sqlite3lib.SQLITE_CONSTRAINT_UNIQUE:
		return true
	}
	return false
}

// CreateProfile implements Ledger.
func (l *SQLiteLedger) CreateProfile(ctx context.Context, actor string) error {
	_, err := l.db.ExecContext(ctx,
		`INSERT INTO profiles (actor, total_emissions, emission_count, last_tick)
		 VALUES (?, 0, 0, 0)`, actor,
	)
	if err != nil {
		if isConstraintViolation(err) {
			return ErrDuplicateProfile
		}
		return fmt.Errorf("create profile: %w", err)
	}

	l.logger.Debug("profile created", zap.String("actor", actor))
	return nil
}

// LogEmission implements Ledger. SQLite's single-writer lock plus the
// transaction gives the same all-or-nothing transition as the Postgres
// backend's row lock.
func (l *SQLiteLedger) LogEmission(ctx context.Context, actor string, units uint64, category Category, tick uint64) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck

	var total, count, last uint64
	err = tx.QueryRowContext(ctx,
		`SELECT total_emissions, emission_count, last_tick FROM profiles WHERE actor = ?`, actor,
	).Scan(&total, &count, &last)
	if errors.Is(err, sql.ErrNoRows) {
		return ErrProfileNotFound
	}
	if err != nil {
		return fmt.Errorf("read profile: %w", err)
	}

	if err := validateEmission(units, category); err != nil {
		return err
	}
	if last == tick {
		return ErrDuplicateEntry
	}

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO emissions (actor, tick, category, units) VALUES (?, ?, ?, ?)`,
		actor, tick, int16(category), units,
	); err != nil {
		return fmt.Errorf("insert emission: %w", err)
	}

	res, err := tx.ExecContext(ctx,
		`UPDATE profiles SET total_emissions = ?, emission_count = ?, last_tick = ? WHERE actor = ?`,
		total+units, count+1, tick, actor,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrProfileNotFound
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit emission tx: %w", err)
	}

	l.logger.Debug("emission logged",
		zap.String("actor", actor),
		zap.Uint64("tick", tick),
		zap.String("category", category.String()),
		zap.Uint64("units", units),
	)
	return nil
}

// Profile implements Ledger.
func (l *SQLiteLedger) Profile(ctx context.Context, actor string) (*Profile, error) {
	p := &Profile{Actor: actor}
	err := l.db.QueryRowContext(ctx,
		`SELECT total_emissions, emission_count FROM profiles WHERE actor = ?`, actor,
	).Scan(&p.TotalEmissions, &p.EmissionCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// TotalEmissions implements Ledger.
func (l *SQLiteLedger) TotalEmissions(ctx context.Context, actor string) (uint64, error) {
	var total uint64
	err := l.db.QueryRowContext(ctx,
		`SELECT total_emissions FROM profiles WHERE actor = ?`, actor,
	).Scan(&total)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get total emissions: %w", err)
	}
	return total, nil
}

// EmissionHistory implements Ledger.
func (l *SQLiteLedger) EmissionHistory(ctx context.Context, actor string) (uint64, error) {
	return l.TotalEmissions(ctx, actor)
}

// EmissionsByCategory implements Ledger.
func (l *SQLiteLedger) EmissionsByCategory(_ context.Context, _ string, _ Category) (uint64, error) {
	return 0, nil
}
