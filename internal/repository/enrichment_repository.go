package repository

import (
	"context"
	"time"

	"jobradar/internal/database"
)

type EnrichmentRecord struct {
	JobUID         string
	Summary        *string
	SkillsJSON     []byte
	Pros           *string
	Cons           *string
	OutreachTarget *string
	LLMModel       *string
	LLMTokens      *int
	EnrichedAt     *time.Time
	LastError      *string
}

// JobForEnrichment is a posting whose enrichment row is missing or older than
// the posting's last observation.
type JobForEnrichment struct {
	JobUID       string
	Title        string
	Company      string
	URL          string
	LocationRaw  string
	WorkplaceRaw string
	SalaryText   string
	RawText      string
}

type EnrichmentRepository interface {
	ListOutdated(ctx context.Context, limit int) ([]JobForEnrichment, error)
	Upsert(ctx context.Context, rec EnrichmentRecord) error
	SetError(ctx context.Context, jobUID, errText string) error
}

type PostgresEnrichmentRepository struct {
	db database.DB
}

func NewPostgresEnrichmentRepository(db database.DB) *PostgresEnrichmentRepository {
	return &PostgresEnrichmentRepository{db: db}
}

func (r *PostgresEnrichmentRepository) ListOutdated(ctx context.Context, limit int) ([]JobForEnrichment, error) {
	if limit <= 0 {
		limit = 25
	}

	rows, err := r.db.Query(ctx,
		`SELECT j.job_uid, j.title, j.company, j.url,
		        COALESCE(j.location_raw, ''), COALESCE(j.workplace_raw, ''),
		        COALESCE(j.salary_text, ''), COALESCE(j.raw_text, '')
		 FROM jobs j
		 LEFT JOIN job_enrichment e ON e.job_uid = j.job_uid
		 WHERE e.job_uid IS NULL
		    OR e.enriched_at IS NULL
		    OR j.last_checked > e.enriched_at
		 ORDER BY j.last_checked DESC
		 LIMIT $1`,
		limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]JobForEnrichment, 0)
	for rows.Next() {
		var j JobForEnrichment
		if err := rows.Scan(&j.JobUID, &j.Title, &j.Company, &j.URL, &j.LocationRaw, &j.WorkplaceRaw, &j.SalaryText, &j.RawText); err != nil {
			return nil, err
		}
		out = append(out, j)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresEnrichmentRepository) Upsert(ctx context.Context, rec EnrichmentRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_enrichment (job_uid, summary, skills_json, pros, cons, outreach_target,
		                             llm_model, llm_tokens, enriched_at, last_error)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, NULL)
		 ON CONFLICT (job_uid) DO UPDATE
		 SET summary = EXCLUDED.summary,
		     skills_json = EXCLUDED.skills_json,
		     pros = EXCLUDED.pros,
		     cons = EXCLUDED.cons,
		     outreach_target = EXCLUDED.outreach_target,
		     llm_model = EXCLUDED.llm_model,
		     llm_tokens = EXCLUDED.llm_tokens,
		     enriched_at = EXCLUDED.enriched_at,
		     last_error = NULL`,
		rec.JobUID, rec.Summary, rec.SkillsJSON, rec.Pros, rec.Cons, rec.OutreachTarget,
		rec.LLMModel, rec.LLMTokens, rec.EnrichedAt)
	return err
}

func (r *PostgresEnrichmentRepository) SetError(ctx context.Context, jobUID, errText string) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_enrichment (job_uid, last_error)
		 VALUES ($1, $2)
		 ON CONFLICT (job_uid) DO UPDATE SET last_error = EXCLUDED.last_error`,
		jobUID, errText)
	return err
}
