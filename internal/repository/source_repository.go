package repository

import (
	"context"
	"errors"
	"time"

	"jobradar/internal/database"

	"github.com/google/uuid"
)

var ErrSourceNotFound = errors.New("source not found")

type Source struct {
	ID           uuid.UUID
	ProviderType string
	CompanySlug  string
	CompanyName  string
	APIBase      string
	IsActive     bool
	LastError    *string
	LastOKAt     *time.Time
	LastFailAt   *time.Time
}

type SourceRepository interface {
	ListActive(ctx context.Context) ([]Source, error)
	List(ctx context.Context, limit, offset int) ([]Source, error)
	Insert(ctx context.Context, src Source) (bool, error)
	SetActive(ctx context.Context, id uuid.UUID, active bool) error
	MarkOK(ctx context.Context, id uuid.UUID, at time.Time) error
	MarkFailed(ctx context.Context, id uuid.UUID, errText string, at time.Time) error
}

type PostgresSourceRepository struct {
	db database.DB
}

func NewPostgresSourceRepository(db database.DB) *PostgresSourceRepository {
	return &PostgresSourceRepository{db: db}
}

const sourceColumns = `id, provider_type, company_slug, COALESCE(company_name, ''), api_base, is_active, last_error, last_ok_at, last_fail_at`

func (r *PostgresSourceRepository) ListActive(ctx context.Context) ([]Source, error) {
	rows, err := r.db.Query(ctx,
		`SELECT `+sourceColumns+`
		 FROM sources
		 WHERE is_active
		 ORDER BY company_slug, provider_type`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSources(rows)
}

func (r *PostgresSourceRepository) List(ctx context.Context, limit, offset int) ([]Source, error) {
	if limit <= 0 {
		limit = 50
	}
	if limit > 200 {
		limit = 200
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT `+sourceColumns+`
		 FROM sources
		 ORDER BY created_at DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanSources(rows)
}

// Insert adds a source unless the (provider, slug) pair already exists.
// Returns true when a row was created.
func (r *PostgresSourceRepository) Insert(ctx context.Context, src Source) (bool, error) {
	if src.ID == uuid.Nil {
		src.ID = uuid.New()
	}
	n, err := r.db.Exec(ctx,
		`INSERT INTO sources (id, provider_type, company_slug, company_name, api_base, is_active)
		 VALUES ($1, $2, $3, NULLIF($4, ''), $5, $6)
		 ON CONFLICT (provider_type, company_slug) DO NOTHING`,
		src.ID, src.ProviderType, src.CompanySlug, src.CompanyName, src.APIBase, src.IsActive)
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (r *PostgresSourceRepository) SetActive(ctx context.Context, id uuid.UUID, active bool) error {
	n, err := r.db.Exec(ctx, `UPDATE sources SET is_active = $2 WHERE id = $1`, id, active)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrSourceNotFound
	}
	return nil
}

func (r *PostgresSourceRepository) MarkOK(ctx context.Context, id uuid.UUID, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sources SET last_ok_at = $2, last_error = NULL WHERE id = $1`,
		id, at)
	return err
}

func (r *PostgresSourceRepository) MarkFailed(ctx context.Context, id uuid.UUID, errText string, at time.Time) error {
	_, err := r.db.Exec(ctx,
		`UPDATE sources SET last_fail_at = $2, last_error = $3 WHERE id = $1`,
		id, at, errText)
	return err
}

func scanSources(rows database.Rows) ([]Source, error) {
	out := make([]Source, 0)
	for rows.Next() {
		var s Source
		if err := rows.Scan(
			&s.ID, &s.ProviderType, &s.CompanySlug, &s.CompanyName, &s.APIBase,
			&s.IsActive, &s.LastError, &s.LastOKAt, &s.LastFailAt,
		); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
