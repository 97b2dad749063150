// Package enrich fills job_enrichment with model-extracted structure for
// postings whose enrichment is missing or older than the last observation.
package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"jobradar/internal/enrich/openai"
	"jobradar/internal/repository"
)

// Enricher is the model call surface; *openai.Client implements it.
type Enricher interface {
	EnrichJob(ctx context.Context, in openai.JobInput) (openai.Enrichment, error)
}

type Service struct {
	repo   repository.EnrichmentRepository
	client Enricher
	limit  int
	logger *log.Logger
	now    func() time.Time
}

func NewService(repo repository.EnrichmentRepository, client Enricher, limit int, logger *log.Logger) *Service {
	if limit <= 0 {
		limit = 25
	}
	return &Service{
		repo:   repo,
		client: client,
		limit:  limit,
		logger: logger,
		now:    time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// EnrichOutdated processes one batch of outdated postings. A model failure is
// recorded on the job's enrichment row and does not stop the batch; any other
// error aborts it.
func (s *Service) EnrichOutdated(ctx context.Context) (int, error) {
	jobs, err := s.repo.ListOutdated(ctx, s.limit)
	if err != nil {
		return 0, fmt.Errorf("list outdated: %w", err)
	}

	enriched := 0
	for _, job := range jobs {
		if err := ctx.Err(); err != nil {
			return enriched, err
		}

		out, err := s.client.EnrichJob(ctx, openai.JobInput{
			Title:        job.Title,
			Company:      job.Company,
			LocationRaw:  job.LocationRaw,
			WorkplaceRaw: job.WorkplaceRaw,
			URL:          job.URL,
			SalaryText:   job.SalaryText,
			RawText:      job.RawText,
		})
		if err != nil {
			var ce *openai.ClientError
			if !errors.As(err, &ce) {
				return enriched, err
			}
			s.logger.Printf("[Enrich] model call failed job=%s err=%v", job.JobUID, err)
			if serr := s.repo.SetError(ctx, job.JobUID, err.Error()); serr != nil {
				return enriched, fmt.Errorf("record enrichment error for %s: %w", job.JobUID, serr)
			}
			continue
		}

		rec, err := buildRecord(job.JobUID, out, s.now().UTC())
		if err != nil {
			return enriched, err
		}
		if err := s.repo.Upsert(ctx, rec); err != nil {
			return enriched, fmt.Errorf("store enrichment for %s: %w", job.JobUID, err)
		}
		enriched++
		s.logger.Printf("[Enrich] job enriched job=%s model=%s tokens=%d", job.JobUID, out.Model, out.TotalTokens)
	}
	return enriched, nil
}

func buildRecord(jobUID string, out openai.Enrichment, at time.Time) (repository.EnrichmentRecord, error) {
	skills, err := json.Marshal(map[string][]string{"skills": out.Skills})
	if err != nil {
		return repository.EnrichmentRecord{}, err
	}

	rec := repository.EnrichmentRecord{
		JobUID:     jobUID,
		SkillsJSON: skills,
		EnrichedAt: &at,
	}
	rec.Summary = optional(out.Summary)
	rec.Pros = optional(joinLines(out.Pros))
	rec.Cons = optional(joinLines(out.Cons))
	rec.OutreachTarget = optional(out.OutreachTarget)
	rec.LLMModel = optional(out.Model)
	if out.TotalTokens > 0 {
		tokens := out.TotalTokens
		rec.LLMTokens = &tokens
	}
	return rec, nil
}

func joinLines(items []string) string {
	cleaned := make([]string, 0, len(items))
	for _, x := range items {
		if x = strings.TrimSpace(x); x != "" {
			cleaned = append(cleaned, x)
		}
	}
	return strings.Join(cleaned, "\n")
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
