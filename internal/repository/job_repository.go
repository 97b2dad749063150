package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobradar/internal/database"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
)

var ErrJobNotFound = errors.New("job not found")

// JobRecord mirrors one row of the jobs table. RawSalaryText and RawJSON are
// stored verbatim from the provider response.
type JobRecord struct {
	JobUID        string
	SourceID      uuid.UUID
	ProviderType  string
	CompanySlug   string
	ProviderJobID string

	Title        string
	Company      string
	URL          string
	LocationRaw  *string
	WorkplaceRaw *string
	SalaryText   *string
	PostedAt     *time.Time
	RawJSON      []byte
	RawText      *string

	ContentHash string
	IsActive    bool
	FirstSeen   time.Time
	LastSeen    time.Time
	LastChecked time.Time
}

type JobListRow struct {
	JobUID      string
	Title       string
	Company     string
	URL         string
	Location    string
	SalaryText  string
	LastChecked time.Time
}

type JobRepository interface {
	GetByUID(ctx context.Context, jobUID string) (*JobRecord, error)
	Insert(ctx context.Context, job JobRecord) error
	Touch(ctx context.Context, jobUID string, at time.Time) error
	UpdateContent(ctx context.Context, job JobRecord) error
	LastChecked(ctx context.Context, jobUID string) (time.Time, error)
	ListRecent(ctx context.Context, limit, offset int) ([]JobListRow, error)
}

type PostgresJobRepository struct {
	db database.DB
}

func NewPostgresJobRepository(db database.DB) *PostgresJobRepository {
	return &PostgresJobRepository{db: db}
}

func (r *PostgresJobRepository) GetByUID(ctx context.Context, jobUID string) (*JobRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT job_uid, source_id, provider_type, company_slug, provider_job_id,
		        title, company, url, location_raw, workplace_raw, salary_text,
		        posted_at, raw_json, raw_text, COALESCE(content_hash, ''),
		        is_active, first_seen, last_seen, last_checked
		 FROM jobs
		 WHERE job_uid = $1`,
		jobUID)

	var j JobRecord
	err := row.Scan(
		&j.JobUID, &j.SourceID, &j.ProviderType, &j.CompanySlug, &j.ProviderJobID,
		&j.Title, &j.Company, &j.URL, &j.LocationRaw, &j.WorkplaceRaw, &j.SalaryText,
		&j.PostedAt, &j.RawJSON, &j.RawText, &j.ContentHash,
		&j.IsActive, &j.FirstSeen, &j.LastSeen, &j.LastChecked,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &j, nil
}

func (r *PostgresJobRepository) Insert(ctx context.Context, job JobRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO jobs (job_uid, source_id, provider_type, company_slug, provider_job_id,
		                   title, company, url, location_raw, workplace_raw, salary_text,
		                   posted_at, raw_json, raw_text, content_hash, is_active,
		                   first_seen, last_seen, last_checked)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19)`,
		job.JobUID, job.SourceID, job.ProviderType, job.CompanySlug, job.ProviderJobID,
		job.Title, job.Company, job.URL, job.LocationRaw, job.WorkplaceRaw, job.SalaryText,
		job.PostedAt, job.RawJSON, job.RawText, job.ContentHash, job.IsActive,
		job.FirstSeen, job.LastSeen, job.LastChecked)
	return err
}

// Touch bumps the observation timestamps without rewriting content. It runs on
// every re-observation, which is what drives downstream staleness.
func (r *PostgresJobRepository) Touch(ctx context.Context, jobUID string, at time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs SET last_seen = $2, last_checked = $2, is_active = TRUE WHERE job_uid = $1`,
		jobUID, at)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

// UpdateContent rewrites the visible fields plus the content hash and bumps
// the observation timestamps in the same statement.
func (r *PostgresJobRepository) UpdateContent(ctx context.Context, job JobRecord) error {
	n, err := r.db.Exec(ctx,
		`UPDATE jobs
		 SET title = $2, company = $3, url = $4, location_raw = $5, workplace_raw = $6,
		     salary_text = $7, posted_at = $8, raw_json = $9, raw_text = $10,
		     content_hash = $11, is_active = TRUE, last_seen = $12, last_checked = $12
		 WHERE job_uid = $1`,
		job.JobUID, job.Title, job.Company, job.URL, job.LocationRaw, job.WorkplaceRaw,
		job.SalaryText, job.PostedAt, job.RawJSON, job.RawText,
		job.ContentHash, job.LastChecked)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrJobNotFound
	}
	return nil
}

func (r *PostgresJobRepository) LastChecked(ctx context.Context, jobUID string) (time.Time, error) {
	row := r.db.QueryRow(ctx, `SELECT last_checked FROM jobs WHERE job_uid = $1`, jobUID)
	var t time.Time
	if err := row.Scan(&t); err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, ErrJobNotFound
		}
		return time.Time{}, err
	}
	return t, nil
}

func (r *PostgresJobRepository) ListRecent(ctx context.Context, limit, offset int) ([]JobListRow, error) {
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := r.db.Query(ctx,
		`SELECT job_uid, title, company, url, COALESCE(location_raw, ''), COALESCE(salary_text, ''), last_checked
		 FROM jobs
		 WHERE is_active
		 ORDER BY last_seen DESC
		 LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]JobListRow, 0)
	for rows.Next() {
		var j JobListRow
		if err := rows.Scan(&j.JobUID, &j.Title, &j.Company, &j.URL, &j.Location, &j.SalaryText, &j.LastChecked); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}
