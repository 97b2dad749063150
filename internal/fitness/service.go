package fitness

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobradar/internal/repository"
)

type Service struct {
	jobs      repository.JobRepository
	profiles  repository.ProfileRepository
	relevance repository.RelevanceRepository
	limit     int
	logger    *log.Logger
	now       func() time.Time
}

func NewService(
	jobs repository.JobRepository,
	profiles repository.ProfileRepository,
	relevance repository.RelevanceRepository,
	limit int,
	logger *log.Logger,
) *Service {
	if limit <= 0 {
		limit = 200
	}
	return &Service{
		jobs:      jobs,
		profiles:  profiles,
		relevance: relevance,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// IsStale reports whether the stored relevance for the pair can still be
// trusted. Freshness requires a row whose snapshots match both parents: the
// job's current last_checked and the profile's current fingerprint. Any NULL
// snapshot counts as stale; a damaged snapshot must force recomputation, never
// pass as fresh.
func (s *Service) IsStale(ctx context.Context, jobUID, profileID string) (bool, error) {
	rec, err := s.relevance.Get(ctx, jobUID, profileID)
	if err != nil {
		return false, err
	}
	if rec == nil || rec.FitJobLastChecked == nil || rec.FitProfileFingerprint == nil {
		return true, nil
	}

	lastChecked, err := s.jobs.LastChecked(ctx, jobUID)
	if err != nil {
		return false, err
	}
	if !rec.FitJobLastChecked.Equal(lastChecked) {
		return true, nil
	}

	prof, err := s.profiles.Get(ctx, profileID)
	if err != nil {
		return false, err
	}
	if prof == nil {
		return true, nil
	}
	return *rec.FitProfileFingerprint != prof.Fingerprint, nil
}

// RescoreStale recomputes every stale pair for every stored profile, in
// last_seen order up to the per-profile limit. Each write snapshots the
// dependency state the score was computed from, so a job observed mid-pass
// simply comes back stale next time.
func (s *Service) RescoreStale(ctx context.Context) (int, error) {
	profiles, err := s.profiles.ListAll(ctx)
	if err != nil {
		return 0, fmt.Errorf("list profiles: %w", err)
	}

	total := 0
	for _, p := range profiles {
		n, err := s.rescoreProfile(ctx, p)
		total += n
		if err != nil {
			return total, err
		}
	}
	return total, nil
}

func (s *Service) rescoreProfile(ctx context.Context, prof repository.ProfileRecord) (int, error) {
	stale, err := s.relevance.ListStaleForProfile(ctx, prof.ProfileID, prof.Fingerprint, s.limit)
	if err != nil {
		return 0, fmt.Errorf("list stale for %s: %w", prof.ProfileID, err)
	}
	if len(stale) == 0 {
		return 0, nil
	}

	done := 0
	for _, job := range stale {
		if err := ctx.Err(); err != nil {
			return done, err
		}

		score := ScoreJob(job.Title, job.RawText, prof.ProfileText, SkillsFromJSON(job.SkillsJSON))

		lastChecked := job.LastChecked
		fingerprint := prof.Fingerprint
		computedAt := s.now().UTC()
		rec := repository.RelevanceRecord{
			JobUID:                job.JobUID,
			ProfileID:             prof.ProfileID,
			FitScore:              score.Value,
			FitClass:              score.Class,
			PenaltyFlags:          score.Flags.MarshalOrNil(),
			FitJobLastChecked:     &lastChecked,
			FitProfileFingerprint: &fingerprint,
			FitComputedAt:         &computedAt,
		}
		if err := s.relevance.UpsertScore(ctx, rec); err != nil {
			return done, fmt.Errorf("store score %s/%s: %w", job.JobUID, prof.ProfileID, err)
		}
		done++
	}

	s.logger.Printf("[Score] profile=%s rescored=%d", prof.ProfileID, done)
	return done, nil
}
