package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobradar/internal/database"

	"github.com/jackc/pgx/v5"
)

type QuotaRepository interface {
	// ReserveCapped adds amount to the (scope, day) counter only when the
	// result stays within cap, in a single statement. Returns the counter
	// value after the reservation and granted=false when the cap would be
	// exceeded (in which case the counter is unchanged).
	ReserveCapped(ctx context.Context, scope string, day time.Time, amount, cap int64) (granted bool, used int64, err error)

	// Count adds amount unconditionally; used for observability when a cap
	// is configured as unlimited.
	Count(ctx context.Context, scope string, day time.Time, amount int64) (used int64, err error)

	Usage(ctx context.Context, scope string, day time.Time) (int64, error)
}

type PostgresQuotaRepository struct {
	db database.DB
}

func NewPostgresQuotaRepository(db database.DB) *PostgresQuotaRepository {
	return &PostgresQuotaRepository{db: db}
}

// The conditional increment runs as one round trip: the WHERE on the upsert
// rejects the update when the cap would be crossed, so concurrent runs can
// never over-reserve the way a read-compare-write sequence could.
func (r *PostgresQuotaRepository) ReserveCapped(ctx context.Context, scope string, day time.Time, amount, cap int64) (bool, int64, error) {
	if amount > cap {
		return false, 0, nil
	}

	row := r.db.QueryRow(ctx,
		`INSERT INTO quota_counters (scope, day, used)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (scope, day) DO UPDATE
		 SET used = quota_counters.used + EXCLUDED.used
		 WHERE quota_counters.used + EXCLUDED.used <= $4
		 RETURNING used`,
		scope, day.UTC().Truncate(24*time.Hour), amount, cap)

	var used int64
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return false, 0, nil
		}
		return false, 0, err
	}
	return true, used, nil
}

func (r *PostgresQuotaRepository) Count(ctx context.Context, scope string, day time.Time, amount int64) (int64, error) {
	row := r.db.QueryRow(ctx,
		`INSERT INTO quota_counters (scope, day, used)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (scope, day) DO UPDATE
		 SET used = quota_counters.used + EXCLUDED.used
		 RETURNING used`,
		scope, day.UTC().Truncate(24*time.Hour), amount)

	var used int64
	if err := row.Scan(&used); err != nil {
		return 0, err
	}
	return used, nil
}

func (r *PostgresQuotaRepository) Usage(ctx context.Context, scope string, day time.Time) (int64, error) {
	row := r.db.QueryRow(ctx,
		`SELECT used FROM quota_counters WHERE scope = $1 AND day = $2`,
		scope, day.UTC().Truncate(24*time.Hour))

	var used int64
	if err := row.Scan(&used); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return 0, nil
		}
		return 0, err
	}
	return used, nil
}
