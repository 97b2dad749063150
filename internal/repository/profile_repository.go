package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobradar/internal/database"

	"github.com/jackc/pgx/v5"
)

var ErrProfileNotFound = errors.New("profile not found")

type ProfileRecord struct {
	ProfileID   string
	CVPath      string
	Fingerprint string
	ProfileText string
	UpdatedAt   time.Time
	LastError   *string
}

type ProfileRepository interface {
	Get(ctx context.Context, profileID string) (*ProfileRecord, error)
	ListAll(ctx context.Context) ([]ProfileRecord, error)
	Upsert(ctx context.Context, p ProfileRecord) error
	SetLastError(ctx context.Context, profileID, errText string) error
}

type PostgresProfileRepository struct {
	db database.DB
}

func NewPostgresProfileRepository(db database.DB) *PostgresProfileRepository {
	return &PostgresProfileRepository{db: db}
}

func (r *PostgresProfileRepository) Get(ctx context.Context, profileID string) (*ProfileRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT profile_id, cv_path, fingerprint, COALESCE(profile_text, ''), updated_at, last_error
		 FROM profiles
		 WHERE profile_id = $1`,
		profileID)

	var p ProfileRecord
	err := row.Scan(&p.ProfileID, &p.CVPath, &p.Fingerprint, &p.ProfileText, &p.UpdatedAt, &p.LastError)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &p, nil
}

func (r *PostgresProfileRepository) ListAll(ctx context.Context) ([]ProfileRecord, error) {
	rows, err := r.db.Query(ctx,
		`SELECT profile_id, cv_path, fingerprint, COALESCE(profile_text, ''), updated_at, last_error
		 FROM profiles
		 ORDER BY profile_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ProfileRecord, 0)
	for rows.Next() {
		var p ProfileRecord
		if err := rows.Scan(&p.ProfileID, &p.CVPath, &p.Fingerprint, &p.ProfileText, &p.UpdatedAt, &p.LastError); err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresProfileRepository) Upsert(ctx context.Context, p ProfileRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO profiles (profile_id, cv_path, fingerprint, profile_text, updated_at, last_error)
		 VALUES ($1, $2, $3, $4, $5, NULL)
		 ON CONFLICT (profile_id) DO UPDATE
		 SET cv_path = EXCLUDED.cv_path,
		     fingerprint = EXCLUDED.fingerprint,
		     profile_text = EXCLUDED.profile_text,
		     updated_at = EXCLUDED.updated_at,
		     last_error = NULL`,
		p.ProfileID, p.CVPath, p.Fingerprint, p.ProfileText, p.UpdatedAt)
	return err
}

func (r *PostgresProfileRepository) SetLastError(ctx context.Context, profileID, errText string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE profiles SET last_error = $2 WHERE profile_id = $1`,
		profileID, errText)
	return err
}
