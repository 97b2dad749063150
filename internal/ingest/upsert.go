// Package ingest turns provider postings into durable job rows. The upsert
// engine decides new-vs-refresh per posting; the run orchestrator walks the
// active sources under the daily budgets.
package ingest

import (
	"context"
	"fmt"
	"time"

	"jobradar/internal/identity"
	"jobradar/internal/quota"
	"jobradar/internal/repository"
	"jobradar/internal/scraper"
)

type Outcome string

const (
	// OutcomeNew means a row was inserted and one unit of the new-record
	// budget was consumed.
	OutcomeNew Outcome = "new"
	// OutcomeRefreshed means an existing row had its observation timestamps
	// bumped; content was rewritten only if it actually changed.
	OutcomeRefreshed Outcome = "refreshed"
	// OutcomeSkippedCapped means the posting was unknown but the daily
	// new-record budget was exhausted. Nothing was written.
	OutcomeSkippedCapped Outcome = "skipped_capped"
)

type Upserter struct {
	jobs             repository.JobRepository
	ledger           *quota.Ledger
	maxNewJobsPerDay int
	now              func() time.Time
}

func NewUpserter(jobs repository.JobRepository, ledger *quota.Ledger, maxNewJobsPerDay int) *Upserter {
	return &Upserter{
		jobs:             jobs,
		ledger:           ledger,
		maxNewJobsPerDay: maxNewJobsPerDay,
		now:              time.Now,
	}
}

// WithNow fixes the clock for tests.
func (u *Upserter) WithNow(now func() time.Time) *Upserter {
	u.now = now
	return u
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func contentHashOf(title, company, location, workplace, salary, rawText string) string {
	return identity.ContentHash(title, company, location, workplace, salary, rawText)
}

// Upsert applies one observed posting. Re-observations always bump last_seen
// and last_checked, even when nothing visible changed, because downstream
// staleness keys off last_checked. The new-record budget is consulted only on
// the insert path; a denial leaves the database untouched.
func (u *Upserter) Upsert(ctx context.Context, src repository.Source, p scraper.Posting) (Outcome, string, error) {
	jobUID := identity.JobUID(src.ProviderType, src.CompanySlug, p.ProviderJobID)

	existing, err := u.jobs.GetByUID(ctx, jobUID)
	if err != nil {
		return "", jobUID, fmt.Errorf("lookup %s: %w", jobUID, err)
	}

	now := u.now().UTC()
	hash := contentHashOf(p.Title, src.CompanyName, p.LocationRaw, p.WorkplaceRaw, p.SalaryText, p.RawText)

	if existing == nil {
		res, err := u.ledger.TryReserve(ctx, quota.NewJobsScope, 1, int64(u.maxNewJobsPerDay))
		if err != nil {
			return "", jobUID, fmt.Errorf("reserve new-record budget: %w", err)
		}
		if !res.Granted {
			return OutcomeSkippedCapped, jobUID, nil
		}

		rec := repository.JobRecord{
			JobUID:        jobUID,
			SourceID:      src.ID,
			ProviderType:  src.ProviderType,
			CompanySlug:   src.CompanySlug,
			ProviderJobID: p.ProviderJobID,
			Title:         p.Title,
			Company:       src.CompanyName,
			URL:           p.URL,
			LocationRaw:   optional(p.LocationRaw),
			WorkplaceRaw:  optional(p.WorkplaceRaw),
			SalaryText:    optional(p.SalaryText),
			PostedAt:      p.PostedAt,
			RawJSON:       p.RawJSON,
			RawText:       optional(p.RawText),
			ContentHash:   hash,
			IsActive:      true,
			FirstSeen:     now,
			LastSeen:      now,
			LastChecked:   now,
		}
		if err := u.jobs.Insert(ctx, rec); err != nil {
			return "", jobUID, fmt.Errorf("insert %s: %w", jobUID, err)
		}
		return OutcomeNew, jobUID, nil
	}

	if hash != existing.ContentHash {
		rec := *existing
		rec.Title = p.Title
		rec.Company = src.CompanyName
		rec.URL = p.URL
		rec.LocationRaw = optional(p.LocationRaw)
		rec.WorkplaceRaw = optional(p.WorkplaceRaw)
		rec.SalaryText = optional(p.SalaryText)
		rec.PostedAt = p.PostedAt
		rec.RawJSON = p.RawJSON
		rec.RawText = optional(p.RawText)
		rec.ContentHash = hash
		rec.LastChecked = now
		if err := u.jobs.UpdateContent(ctx, rec); err != nil {
			return "", jobUID, fmt.Errorf("update %s: %w", jobUID, err)
		}
		return OutcomeRefreshed, jobUID, nil
	}

	if err := u.jobs.Touch(ctx, jobUID, now); err != nil {
		return "", jobUID, fmt.Errorf("touch %s: %w", jobUID, err)
	}
	return OutcomeRefreshed, jobUID, nil
}
