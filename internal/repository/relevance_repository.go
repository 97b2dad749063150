package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"jobradar/internal/database"

	"github.com/jackc/pgx/v5"
)

var ErrRelevanceNotFound = errors.New("relevance state not found")

// RelevanceRecord is one (job, profile) row of job_profile. The two fit_*
// snapshot columns hold the dependency state seen at the last computation;
// the row is fresh only while both still match their parents.
type RelevanceRecord struct {
	JobUID    string
	ProfileID string

	FitScore     int
	FitClass     string
	PenaltyFlags []byte

	FitJobLastChecked     *time.Time
	FitProfileFingerprint *string
	FitComputedAt         *time.Time

	NotionPageID    *string
	NotionLastSync  *time.Time
	NotionLastError *string
}

// StaleJob is one posting whose relevance state for a profile needs
// recomputation, together with the inputs the scorer needs.
type StaleJob struct {
	JobUID      string
	Title       string
	RawText     string
	LastChecked time.Time
	SkillsJSON  []byte
	HasState    bool
}

// ExportCandidate carries everything the export push needs for one pair.
type ExportCandidate struct {
	JobUID    string
	ProfileID string

	Title        string
	Company      string
	URL          string
	ProviderType string
	LocationRaw  string
	WorkplaceRaw string
	SalaryText   string
	FirstSeen    time.Time
	LastChecked  time.Time

	FitScore int
	FitClass string

	Summary        string
	Pros           string
	Cons           string
	OutreachTarget string
	SkillsJSON     []byte

	NotionPageID   *string
	NotionLastSync *time.Time
}

type RelevanceRepository interface {
	Get(ctx context.Context, jobUID, profileID string) (*RelevanceRecord, error)
	UpsertScore(ctx context.Context, rec RelevanceRecord) error
	ResetForProfile(ctx context.Context, profileID string) error
	ListStaleForProfile(ctx context.Context, profileID, fingerprint string, limit int) ([]StaleJob, error)
	ListExportCandidates(ctx context.Context, profileID string, minScore, limit int) ([]ExportCandidate, error)
	MarkExported(ctx context.Context, jobUID, profileID, pageID string, at time.Time) error
	MarkExportFailed(ctx context.Context, jobUID, profileID, errText string) error
}

type PostgresRelevanceRepository struct {
	db database.DB
}

func NewPostgresRelevanceRepository(db database.DB) *PostgresRelevanceRepository {
	return &PostgresRelevanceRepository{db: db}
}

func (r *PostgresRelevanceRepository) Get(ctx context.Context, jobUID, profileID string) (*RelevanceRecord, error) {
	row := r.db.QueryRow(ctx,
		`SELECT job_uid, profile_id, fit_score, fit_class, penalty_flags,
		        fit_job_last_checked, fit_profile_fingerprint, fit_computed_at,
		        notion_page_id, notion_last_sync, notion_last_error
		 FROM job_profile
		 WHERE job_uid = $1 AND profile_id = $2`,
		jobUID, profileID)

	var rec RelevanceRecord
	err := row.Scan(
		&rec.JobUID, &rec.ProfileID, &rec.FitScore, &rec.FitClass, &rec.PenaltyFlags,
		&rec.FitJobLastChecked, &rec.FitProfileFingerprint, &rec.FitComputedAt,
		&rec.NotionPageID, &rec.NotionLastSync, &rec.NotionLastError,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) || errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}

// UpsertScore overwrites score, class, flags and the dependency snapshots.
// Export bookkeeping columns are left untouched.
func (r *PostgresRelevanceRepository) UpsertScore(ctx context.Context, rec RelevanceRecord) error {
	_, err := r.db.Exec(ctx,
		`INSERT INTO job_profile (job_uid, profile_id, fit_score, fit_class, penalty_flags,
		                          fit_job_last_checked, fit_profile_fingerprint, fit_computed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 ON CONFLICT (job_uid, profile_id) DO UPDATE
		 SET fit_score = EXCLUDED.fit_score,
		     fit_class = EXCLUDED.fit_class,
		     penalty_flags = EXCLUDED.penalty_flags,
		     fit_job_last_checked = EXCLUDED.fit_job_last_checked,
		     fit_profile_fingerprint = EXCLUDED.fit_profile_fingerprint,
		     fit_computed_at = EXCLUDED.fit_computed_at`,
		rec.JobUID, rec.ProfileID, rec.FitScore, rec.FitClass, rec.PenaltyFlags,
		rec.FitJobLastChecked, rec.FitProfileFingerprint, rec.FitComputedAt)
	return err
}

// ResetForProfile clears scores and snapshots after the profile fingerprint
// changed. The notion page reference survives so a later export updates the
// existing page instead of creating a duplicate; sync markers are cleared so
// the pair becomes export-eligible again once rescored.
func (r *PostgresRelevanceRepository) ResetForProfile(ctx context.Context, profileID string) error {
	_, err := r.db.Exec(ctx,
		`UPDATE job_profile
		 SET fit_score = 0, fit_class = 'No', penalty_flags = NULL,
		     fit_job_last_checked = NULL, fit_profile_fingerprint = NULL, fit_computed_at = NULL,
		     notion_last_sync = NULL, notion_last_error = NULL
		 WHERE profile_id = $1`,
		profileID)
	return err
}

// ListStaleForProfile selects pairs violating the freshness condition:
// missing row, job observed since the snapshot, or a different profile
// fingerprint. NULL snapshots compare as stale by construction.
func (r *PostgresRelevanceRepository) ListStaleForProfile(ctx context.Context, profileID, fingerprint string, limit int) ([]StaleJob, error) {
	if limit <= 0 {
		limit = 200
	}

	rows, err := r.db.Query(ctx,
		`SELECT j.job_uid, j.title, COALESCE(j.raw_text, ''), j.last_checked,
		        e.skills_json, (jp.job_uid IS NOT NULL)
		 FROM jobs j
		 LEFT JOIN job_enrichment e ON e.job_uid = j.job_uid
		 LEFT JOIN job_profile jp ON jp.job_uid = j.job_uid AND jp.profile_id = $1
		 WHERE jp.job_uid IS NULL
		    OR jp.fit_job_last_checked IS NULL
		    OR jp.fit_job_last_checked <> j.last_checked
		    OR jp.fit_profile_fingerprint IS NULL
		    OR jp.fit_profile_fingerprint <> $2
		 ORDER BY j.last_seen DESC
		 LIMIT $3`,
		profileID, fingerprint, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]StaleJob, 0)
	for rows.Next() {
		var s StaleJob
		if err := rows.Scan(&s.JobUID, &s.Title, &s.RawText, &s.LastChecked, &s.SkillsJSON, &s.HasState); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

// ListExportCandidates returns pairs above the score floor that were never
// exported or whose job moved since the last export, newest postings first.
func (r *PostgresRelevanceRepository) ListExportCandidates(ctx context.Context, profileID string, minScore, limit int) ([]ExportCandidate, error) {
	if limit <= 0 {
		limit = 50
	}

	rows, err := r.db.Query(ctx,
		`SELECT jp.job_uid, jp.profile_id,
		        j.title, j.company, j.url, j.provider_type,
		        COALESCE(j.location_raw, ''), COALESCE(j.workplace_raw, ''), COALESCE(j.salary_text, ''),
		        j.first_seen, j.last_checked,
		        jp.fit_score, jp.fit_class,
		        COALESCE(e.summary, ''), COALESCE(e.pros, ''), COALESCE(e.cons, ''),
		        COALESCE(e.outreach_target, ''), e.skills_json,
		        jp.notion_page_id, jp.notion_last_sync
		 FROM job_profile jp
		 JOIN jobs j ON j.job_uid = jp.job_uid
		 LEFT JOIN job_enrichment e ON e.job_uid = jp.job_uid
		 WHERE jp.profile_id = $1
		   AND jp.fit_score >= $2
		   AND (jp.notion_last_sync IS NULL OR j.last_checked > jp.notion_last_sync)
		 ORDER BY j.last_seen DESC
		 LIMIT $3`,
		profileID, minScore, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]ExportCandidate, 0)
	for rows.Next() {
		var c ExportCandidate
		if err := rows.Scan(
			&c.JobUID, &c.ProfileID,
			&c.Title, &c.Company, &c.URL, &c.ProviderType,
			&c.LocationRaw, &c.WorkplaceRaw, &c.SalaryText,
			&c.FirstSeen, &c.LastChecked,
			&c.FitScore, &c.FitClass,
			&c.Summary, &c.Pros, &c.Cons,
			&c.OutreachTarget, &c.SkillsJSON,
			&c.NotionPageID, &c.NotionLastSync,
		); err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *PostgresRelevanceRepository) MarkExported(ctx context.Context, jobUID, profileID, pageID string, at time.Time) error {
	n, err := r.db.Exec(ctx,
		`UPDATE job_profile
		 SET notion_page_id = $3, notion_last_sync = $4, notion_last_error = NULL
		 WHERE job_uid = $1 AND profile_id = $2`,
		jobUID, profileID, pageID, at)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRelevanceNotFound
	}
	return nil
}

// MarkExportFailed records the error only; the pair stays export-eligible.
func (r *PostgresRelevanceRepository) MarkExportFailed(ctx context.Context, jobUID, profileID, errText string) error {
	n, err := r.db.Exec(ctx,
		`UPDATE job_profile
		 SET notion_last_error = $3
		 WHERE job_uid = $1 AND profile_id = $2`,
		jobUID, profileID, errText)
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrRelevanceNotFound
	}
	return nil
}
