// Package export pushes qualifying (job, profile) pairs to the external
// tracker board and records the sync outcome per pair.
package export

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobradar/internal/export/notion"
	"jobradar/internal/repository"
)

// Pusher is the board surface; *notion.Client implements it.
type Pusher interface {
	QueryPageID(ctx context.Context, jobUID, profileID string) (string, error)
	CreatePage(ctx context.Context, properties map[string]any) (string, error)
	UpdatePage(ctx context.Context, pageID string, properties map[string]any) error
}

// Reason explains why a candidate is due for export.
type Reason string

const (
	ReasonNeverExported Reason = "never_exported"
	ReasonRefreshed     Reason = "refreshed"
)

// Candidate pairs the stored export row with its selection reason.
type Candidate struct {
	repository.ExportCandidate
	Reason Reason
}

type Service struct {
	relevance repository.RelevanceRepository
	profiles  repository.ProfileRepository
	pusher    Pusher
	minScore  int
	limit     int
	logger    *log.Logger
	now       func() time.Time
}

func NewService(relevance repository.RelevanceRepository, profiles repository.ProfileRepository, pusher Pusher, minScore, limit int, logger *log.Logger) *Service {
	return &Service{
		relevance: relevance,
		profiles:  profiles,
		pusher:    pusher,
		minScore:  minScore,
		limit:     limit,
		logger:    logger,
		now:       time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// SelectForExport lists the pairs due for export for one profile: fit score
// at or above the floor, and either never synced or re-observed since the
// last sync.
func (s *Service) SelectForExport(ctx context.Context, profileID string) ([]Candidate, error) {
	rows, err := s.relevance.ListExportCandidates(ctx, profileID, s.minScore, s.limit)
	if err != nil {
		return nil, fmt.Errorf("list export candidates: %w", err)
	}

	out := make([]Candidate, 0, len(rows))
	for _, row := range rows {
		reason := ReasonRefreshed
		if row.NotionLastSync == nil {
			reason = ReasonNeverExported
		}
		out = append(out, Candidate{ExportCandidate: row, Reason: reason})
	}
	return out, nil
}

// ExportDue pushes due pairs for every stored profile.
func (s *Service) ExportDue(ctx context.Context) (attempted, failed int, err error) {
	profs, err := s.profiles.ListAll(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("list profiles: %w", err)
	}

	for _, p := range profs {
		a, f, err := s.ExportProfile(ctx, p.ProfileID)
		attempted += a
		failed += f
		if err != nil {
			return attempted, failed, err
		}
	}
	return attempted, failed, nil
}

// ExportProfile pushes every due pair for one profile. A board-side failure
// is recorded on the pair, which stays eligible for the next run; any other
// error aborts the batch.
func (s *Service) ExportProfile(ctx context.Context, profileID string) (attempted, failed int, err error) {
	candidates, err := s.SelectForExport(ctx, profileID)
	if err != nil {
		return 0, 0, err
	}

	for _, c := range candidates {
		if err := ctx.Err(); err != nil {
			return attempted, failed, err
		}
		attempted++

		if err := s.pushOne(ctx, c); err != nil {
			var apiErr *notion.APIError
			if !errors.As(err, &apiErr) {
				return attempted, failed, err
			}
			failed++
			s.logger.Printf("[Export] push failed job=%s profile=%s err=%v", c.JobUID, c.ProfileID, err)
			if mErr := s.relevance.MarkExportFailed(ctx, c.JobUID, c.ProfileID, err.Error()); mErr != nil {
				return attempted, failed, fmt.Errorf("record export failure %s/%s: %w", c.JobUID, c.ProfileID, mErr)
			}
		}
	}
	return attempted, failed, nil
}

func (s *Service) pushOne(ctx context.Context, c Candidate) error {
	pageID := ""
	if c.NotionPageID != nil {
		pageID = *c.NotionPageID
	}

	if pageID == "" {
		// Dedupe against pages created by an earlier install that lost
		// its local bookkeeping.
		existing, err := s.pusher.QueryPageID(ctx, c.JobUID, c.ProfileID)
		if err != nil {
			return err
		}
		pageID = existing
	}

	if pageID == "" {
		created, err := s.pusher.CreatePage(ctx, createProperties(c.ExportCandidate))
		if err != nil {
			return err
		}
		pageID = created
	} else {
		if err := s.pusher.UpdatePage(ctx, pageID, updateProperties(c.ExportCandidate)); err != nil {
			return err
		}
	}

	if err := s.relevance.MarkExported(ctx, c.JobUID, c.ProfileID, pageID, s.now().UTC()); err != nil {
		return fmt.Errorf("record export %s/%s: %w", c.JobUID, c.ProfileID, err)
	}
	s.logger.Printf("[Export] synced job=%s profile=%s reason=%s page=%s", c.JobUID, c.ProfileID, c.Reason, pageID)
	return nil
}
