package discovery

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"jobradar/internal/repository"
	"jobradar/internal/scraper"
)

var ErrNoBoardFound = errors.New("no supported board found")

// PageFetcher is the static careers-page pass; *CareersFinder implements it.
type PageFetcher interface {
	FetchPage(ctx context.Context, pageURL string) (finalURL, html string, anchors []anchor, err error)
}

// RenderedFetcher is the headless fallback; *HeadlessFetcher implements it.
type RenderedFetcher interface {
	FetchHTML(ctx context.Context, pageURL string) (html string, hrefs []string, err error)
}

// Prober verifies a detected board with one cheap live call. The scraper
// clients implement the underlying fetches.
type Prober interface {
	Probe(ctx context.Context, providerType, apiBase string) error
}

type Result struct {
	CareersURL string
	Board      *DetectedBoard
	Created    bool
	Verified   bool
}

type Service struct {
	sources  repository.SourceRepository
	finder   PageFetcher
	headless RenderedFetcher
	prober   Prober
	logger   *log.Logger
	now      func() time.Time
}

func NewService(sources repository.SourceRepository, finder PageFetcher, headless RenderedFetcher, prober Prober, logger *log.Logger) *Service {
	return &Service{
		sources:  sources,
		finder:   finder,
		headless: headless,
		prober:   prober,
		logger:   logger,
		now:      time.Now,
	}
}

func (s *Service) WithNow(now func() time.Time) *Service {
	s.now = now
	return s
}

// Discover walks from a company homepage to a registered, verified source.
// The source is inserted inactive and only activated after the probe
// succeeds, so ingestion never runs against an unverified endpoint.
func (s *Service) Discover(ctx context.Context, homepage, companyName string) (Result, error) {
	careersURL, html, err := s.findCareersPage(ctx, homepage)
	if err != nil {
		return Result{}, err
	}

	board := DetectBoard(careersURL, html)
	if board == nil && s.headless != nil {
		// JS-rendered careers pages embed the board link only after
		// hydration.
		rendered, hrefs, hErr := s.headless.FetchHTML(ctx, careersURL)
		if hErr != nil {
			s.logger.Printf("[Discovery] headless pass failed url=%s err=%v", careersURL, hErr)
		} else {
			blob := rendered
			for _, h := range hrefs {
				blob += " " + h
			}
			board = DetectBoard(careersURL, blob)
		}
	}
	if board == nil {
		return Result{CareersURL: careersURL}, fmt.Errorf("%w at %s", ErrNoBoardFound, careersURL)
	}

	src := repository.Source{
		ProviderType: board.ProviderType,
		CompanySlug:  board.CompanySlug,
		CompanyName:  companyName,
		APIBase:      board.APIBase,
		IsActive:     false,
	}
	created, err := s.sources.Insert(ctx, src)
	if err != nil {
		return Result{}, fmt.Errorf("register source: %w", err)
	}
	if created {
		s.logger.Printf("[Discovery] source registered provider=%s slug=%s via=%s",
			board.ProviderType, board.CompanySlug, board.EvidenceURL)
	}

	verified, err := s.VerifyPending(ctx)
	if err != nil {
		return Result{CareersURL: careersURL, Board: board, Created: created}, err
	}
	return Result{CareersURL: careersURL, Board: board, Created: created, Verified: verified > 0}, nil
}

func (s *Service) findCareersPage(ctx context.Context, homepage string) (string, string, error) {
	finalURL, html, anchors, err := s.finder.FetchPage(ctx, homepage)
	if err != nil {
		return "", "", fmt.Errorf("fetch homepage %s: %w", homepage, err)
	}

	if best := BestCareersLink(finalURL, anchors); best != "" {
		careersURL, careersHTML, _, err := s.finder.FetchPage(ctx, best)
		if err != nil {
			s.logger.Printf("[Discovery] careers link fetch failed url=%s err=%v", best, err)
			return best, "", nil
		}
		return careersURL, careersHTML, nil
	}

	for _, candidate := range FallbackPaths(finalURL) {
		careersURL, careersHTML, _, err := s.finder.FetchPage(ctx, candidate)
		if err != nil {
			continue
		}
		return careersURL, careersHTML, nil
	}

	// The homepage itself sometimes links the board directly.
	return finalURL, html, nil
}

// VerifyPending probes every inactive source and activates the ones that
// answer. Failures are recorded and the source stays inactive.
func (s *Service) VerifyPending(ctx context.Context) (int, error) {
	all, err := s.sources.List(ctx, 200, 0)
	if err != nil {
		return 0, fmt.Errorf("list sources: %w", err)
	}

	verified := 0
	for _, src := range all {
		if src.IsActive {
			continue
		}
		if err := ctx.Err(); err != nil {
			return verified, err
		}

		if err := s.prober.Probe(ctx, src.ProviderType, src.APIBase); err != nil {
			s.logger.Printf("[Discovery] probe failed provider=%s slug=%s err=%v", src.ProviderType, src.CompanySlug, err)
			if mErr := s.sources.MarkFailed(ctx, src.ID, fmt.Sprintf("verify failed: %v", err), s.now().UTC()); mErr != nil {
				return verified, mErr
			}
			continue
		}

		if err := s.sources.SetActive(ctx, src.ID, true); err != nil {
			return verified, err
		}
		if err := s.sources.MarkOK(ctx, src.ID, s.now().UTC()); err != nil {
			return verified, err
		}
		verified++
		s.logger.Printf("[Discovery] source verified provider=%s slug=%s", src.ProviderType, src.CompanySlug)
	}
	return verified, nil
}

// ClientProber probes boards with the real provider clients.
type ClientProber struct {
	greenhouse *scraper.GreenhouseClient
	lever      *scraper.LeverClient
}

func NewClientProber(greenhouse *scraper.GreenhouseClient, lever *scraper.LeverClient) *ClientProber {
	return &ClientProber{greenhouse: greenhouse, lever: lever}
}

func (p *ClientProber) Probe(ctx context.Context, providerType, apiBase string) error {
	switch providerType {
	case scraper.ProviderGreenhouse:
		_, err := p.greenhouse.ListPage(ctx, apiBase, 1, 1)
		return err
	case scraper.ProviderLever:
		_, err := p.lever.List(ctx, apiBase)
		return err
	default:
		return fmt.Errorf("unsupported provider type %q", providerType)
	}
}
