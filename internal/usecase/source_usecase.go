package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"jobradar/internal/discovery"
	"jobradar/internal/repository"

	"github.com/google/uuid"
)

// SourceCache combines the read cache with pattern invalidation; list reads
// are cached and every mutation drops the whole sources:list keyspace.
type SourceCache interface {
	ListCache
	DeleteByPattern(ctx context.Context, pattern string) error
}

var ErrNoBoardFound = errors.New("no supported job board found")

type SourceItem struct {
	ID           uuid.UUID  `json:"id"`
	ProviderType string     `json:"provider_type"`
	CompanySlug  string     `json:"company_slug"`
	CompanyName  string     `json:"company_name"`
	IsActive     bool       `json:"is_active"`
	LastError    *string    `json:"last_error"`
	LastOKAt     *time.Time `json:"last_ok_at"`
	LastFailAt   *time.Time `json:"last_fail_at"`
}

type DiscoverResult struct {
	CareersURL   string `json:"careers_url"`
	ProviderType string `json:"provider_type"`
	CompanySlug  string `json:"company_slug"`
	Created      bool   `json:"created"`
	Verified     bool   `json:"verified"`
}

type SourceUsecase interface {
	ListSources(ctx context.Context, limit, offset int) ([]SourceItem, error)
	DiscoverSource(ctx context.Context, homepage, companyName string) (DiscoverResult, error)
	ActivateSource(ctx context.Context, id uuid.UUID, active bool) error
}

type SourceService struct {
	sources   repository.SourceRepository
	discovery *discovery.Service
	cache     SourceCache
	ttl       time.Duration
}

func NewSourceService(sources repository.SourceRepository, disc *discovery.Service, cache SourceCache) *SourceService {
	return &SourceService{sources: sources, discovery: disc, cache: cache, ttl: 60 * time.Second}
}

func (s *SourceService) ListSources(ctx context.Context, limit, offset int) ([]SourceItem, error) {
	key := fmt.Sprintf("sources:list:%d:%d", limit, offset)

	if s.cache != nil {
		var cached []SourceItem
		if hit, err := s.cache.GetJSON(ctx, key, &cached); err == nil && hit {
			return cached, nil
		}
	}

	rows, err := s.sources.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	out := make([]SourceItem, 0, len(rows))
	for _, r := range rows {
		out = append(out, SourceItem{
			ID:           r.ID,
			ProviderType: r.ProviderType,
			CompanySlug:  r.CompanySlug,
			CompanyName:  r.CompanyName,
			IsActive:     r.IsActive,
			LastError:    r.LastError,
			LastOKAt:     r.LastOKAt,
			LastFailAt:   r.LastFailAt,
		})
	}

	if s.cache != nil {
		_ = s.cache.SetJSON(ctx, key, out, s.ttl)
	}
	return out, nil
}

func (s *SourceService) DiscoverSource(ctx context.Context, homepage, companyName string) (DiscoverResult, error) {
	res, err := s.discovery.Discover(ctx, homepage, companyName)
	if err != nil {
		if errors.Is(err, discovery.ErrNoBoardFound) {
			return DiscoverResult{CareersURL: res.CareersURL}, ErrNoBoardFound
		}
		return DiscoverResult{}, err
	}

	out := DiscoverResult{
		CareersURL: res.CareersURL,
		Created:    res.Created,
		Verified:   res.Verified,
	}
	if res.Board != nil {
		out.ProviderType = res.Board.ProviderType
		out.CompanySlug = res.Board.CompanySlug
	}

	s.invalidateSourceLists(ctx)
	return out, nil
}

func (s *SourceService) ActivateSource(ctx context.Context, id uuid.UUID, active bool) error {
	if err := s.sources.SetActive(ctx, id, active); err != nil {
		return err
	}
	s.invalidateSourceLists(ctx)
	return nil
}

func (s *SourceService) invalidateSourceLists(ctx context.Context) {
	if s.cache == nil {
		return
	}
	_ = s.cache.DeleteByPattern(ctx, "sources:list:*")
}
