// Package usecase holds the application services behind the HTTP handlers.
package usecase

import (
	"context"
	"fmt"
	"time"

	"jobradar/internal/repository"
)

// ListCache is the read-cache surface; the redis wrapper implements it.
type ListCache interface {
	GetJSON(ctx context.Context, key string, out any) (bool, error)
	SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error
}

type JobListParams struct {
	Limit  int
	Offset int
}

type JobListItem struct {
	JobUID      string    `json:"job_uid"`
	Title       string    `json:"title"`
	Company     string    `json:"company"`
	URL         string    `json:"url"`
	Location    string    `json:"location"`
	SalaryText  string    `json:"salary_text"`
	LastChecked time.Time `json:"last_checked"`
}

type JobListUsecase interface {
	ListJobs(ctx context.Context, params JobListParams) ([]JobListItem, error)
}

type JobListService struct {
	jobs  repository.JobRepository
	cache ListCache
	ttl   time.Duration
}

func NewJobListService(jobs repository.JobRepository, cache ListCache) *JobListService {
	return &JobListService{jobs: jobs, cache: cache, ttl: 60 * time.Second}
}

func jobListCacheKey(p JobListParams) string {
	return fmt.Sprintf("jobs:list:%d:%d", p.Limit, p.Offset)
}

func (s *JobListService) ListJobs(ctx context.Context, params JobListParams) ([]JobListItem, error) {
	key := jobListCacheKey(params)

	if s.cache != nil {
		var cached []JobListItem
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.jobs.ListRecent(ctx, params.Limit, params.Offset)
	if err != nil {
		return nil, err
	}

	out := make([]JobListItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, JobListItem{
			JobUID:      r.JobUID,
			Title:       r.Title,
			Company:     r.Company,
			URL:         r.URL,
			Location:    r.Location,
			SalaryText:  r.SalaryText,
			LastChecked: r.LastChecked,
		})
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, out, s.ttl)
	}
	return out, nil
}
