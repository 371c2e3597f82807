package ledger

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// PostgresLedger persists the emissions ledger to a PostgreSQL database.
// It implements the Ledger interface.
//
// Every mutating operation runs in a single transaction; LogEmission locks
// the profile row so the duplicate-tick check and the aggregate update are
// serialised per actor.
type PostgresLedger struct {
	pool   *pgxpool.Pool
	logger *zap.Logger
}

// NewPostgresLedger creates a PostgresLedger backed by the given connection pool.
func NewPostgresLedger(pool *pgxpool.Pool, logger *zap.Logger) *PostgresLedger {
	return &PostgresLedger{pool: pool, logger: logger}
}

// CreateProfile implements Ledger. Insert-if-absent is delegated to the
// primary key on profiles; a unique violation maps to ErrDuplicateProfile.
func (l *PostgresLedger) CreateProfile(ctx context.Context, actor string) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO profiles (actor, total_emissions, emission_count, last_tick)
		 VALUES ($1, 0, 0, 0)`, actor,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return ErrDuplicateProfile
		}
		return fmt.Errorf("create profile: %w", err)
	}

	l.logger.Debug("profile created", zap.String("actor", actor))
	return nil
}

// LogEmission implements Ledger. The record insert, marker overwrite and
// aggregate update commit together or not at all.
func (l *PostgresLedger) LogEmission(ctx context.Context, actor string, units uint64, category Category, tick uint64) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	// Check order is load-bearing: profile existence before input validity,
	// so a profile-less caller sees ErrProfileNotFound even with bad input.
	var total, count, last uint64
	err = tx.QueryRow(ctx,
		`SELECT total_emissions, emission_count, last_tick
		 FROM profiles WHERE actor = $1 FOR UPDATE`, actor,
	).Scan(&total, &count, &last)
	if errors.Is(err, pgx.ErrNoRows) {
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

	if _, err := tx.Exec(ctx,
		`INSERT INTO emissions (actor, tick, category, units)
		 VALUES ($1, $2, $3, $4)`,
		actor, tick, int16(category), units,
	); err != nil {
		return fmt.Errorf("insert emission: %w", err)
	}

	tag, err := tx.Exec(ctx,
		`UPDATE profiles
		 SET total_emissions = $2, emission_count = $3, last_tick = $4
		 WHERE actor = $1`,
		actor, total+units, count+1, tick,
	)
	if err != nil {
		return fmt.Errorf("update profile: %w", err)
	}
	if tag.RowsAffected() == 0 {
		// Unreachable while the row lock is held; kept as a guard against
		// out-of-band deletes.
		return ErrProfileNotFound
	}

	if err := tx.Commit(ctx); err != nil {
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
func (l *PostgresLedger) Profile(ctx context.Context, actor string) (*Profile, error) {
	p := &Profile{Actor: actor}
	err := l.pool.QueryRow(ctx,
		`SELECT total_emissions, emission_count FROM profiles WHERE actor = $1`, actor,
	).Scan(&p.TotalEmissions, &p.EmissionCount)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrProfileNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get profile: %w", err)
	}
	return p, nil
}

// TotalEmissions implements Ledger.
func (l *PostgresLedger) TotalEmissions(ctx context.Context, actor string) (uint64, error) {
	var total uint64
	err := l.pool.QueryRow(ctx,
		`SELECT total_emissions FROM profiles WHERE actor = $1`, actor,
	).Scan(&total)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get total emissions: %w", err)
	}
	return total, nil
}

// EmissionHistory implements Ledger.
func (l *PostgresLedger) EmissionHistory(ctx context.Context, actor string) (uint64, error) {
	return l.TotalEmissions(ctx, actor)
}

// EmissionsByCategory implements Ledger.
func (l *PostgresLedger) EmissionsByCategory(_ context.Context, _ string, _ Category) (uint64, error) {
	return 0, nil
}
