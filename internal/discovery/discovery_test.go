package discovery

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"
	"time"

	"jobradar/internal/repository"
	"jobradar/internal/scraper"

	"github.com/google/uuid"
)

func TestDetectBoard(t *testing.T) {
	cases := []struct {
		name     string
		pageURL  string
		html     string
		provider string
		slug     string
		apiBase  string
	}{
		{
			name:     "greenhouse link in html",
			pageURL:  "https://acme.com/careers",
			html:     `<a href="https://boards.greenhouse.io/acme">Open roles</a>`,
			provider: scraper.ProviderGreenhouse,
			slug:     "acme",
			apiBase:  "https://boards-api.greenhouse.io/v1/boards/acme",
		},
		{
			name:     "lever page url",
			pageURL:  "https://jobs.lever.co/globex",
			html:     "",
			provider: scraper.ProviderLever,
			slug:     "globex",
			apiBase:  "https://api.lever.co/v0/postings/globex",
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			b := DetectBoard(c.pageURL, c.html)
			if b == nil {
				t.Fatalf("expected detection")
			}
			if b.ProviderType != c.provider || b.CompanySlug != c.slug || b.APIBase != c.apiBase {
				t.Fatalf("unexpected board %+v", b)
			}
		})
	}

	if DetectBoard("https://acme.com/about", "<p>We are hiring soon!</p>") != nil {
		t.Fatalf("plain pages must not detect a board")
	}
}

func TestDetectBoard_GreenhouseWinsOverLever(t *testing.T) {
	html := `<a href="https://jobs.lever.co/old">legacy</a>
	         <a href="https://boards.greenhouse.io/acme">current</a>`
	b := DetectBoard("https://acme.com/careers", html)
	if b == nil || b.ProviderType != scraper.ProviderGreenhouse {
		t.Fatalf("detection order is precision-first: %+v", b)
	}
}

func TestBestCareersLink(t *testing.T) {
	home := "https://acme.com/"
	anchors := []anchor{
		{href: "https://acme.com/about", text: "About"},
		{href: "https://acme.com/careers", text: "Careers"},
		{href: "https://linkedin.com/company/acme", text: "Jobs at Acme"},
		{href: "mailto:jobs@acme.com", text: "careers"},
	}
	if got := BestCareersLink(home, anchors); got != "https://acme.com/careers" {
		t.Fatalf("unexpected best link %q", got)
	}
}

func TestBestCareersLink_ATSHostOffDomainStillWins(t *testing.T) {
	home := "https://acme.com/"
	anchors := []anchor{
		{href: "https://acme.com/blog", text: "Blog"},
		{href: "https://boards.greenhouse.io/acme", text: "Open positions"},
	}
	got := BestCareersLink(home, anchors)
	if got != "https://boards.greenhouse.io/acme" {
		t.Fatalf("ATS-hosted boards must not be penalized off-domain, got %q", got)
	}
}

func TestBestCareersLink_NothingQualifies(t *testing.T) {
	if got := BestCareersLink("https://acme.com", []anchor{{href: "https://acme.com/privacy", text: "Privacy"}}); got != "" {
		t.Fatalf("expected no candidate, got %q", got)
	}
}

func TestFallbackPaths(t *testing.T) {
	paths := FallbackPaths("https://acme.com/some/page")
	if len(paths) != 2 || paths[0] != "https://acme.com/careers" || paths[1] != "https://acme.com/jobs" {
		t.Fatalf("unexpected fallbacks %v", paths)
	}
	if FallbackPaths("not a url") != nil {
		t.Fatalf("garbage input yields no fallbacks")
	}
}

type fakeFetcher struct {
	pages map[string]fetchResult
}

type fetchResult struct {
	finalURL string
	html     string
	anchors  []anchor
	err      error
}

func (f *fakeFetcher) FetchPage(_ context.Context, pageURL string) (string, string, []anchor, error) {
	r, ok := f.pages[pageURL]
	if !ok {
		return "", "", nil, errors.New("404")
	}
	if r.err != nil {
		return "", "", nil, r.err
	}
	final := r.finalURL
	if final == "" {
		final = pageURL
	}
	return final, r.html, r.anchors, nil
}

type fakeSourcesRepo struct {
	inserted []repository.Source
	actives  map[uuid.UUID]bool
	failed   map[uuid.UUID]string
}

func newFakeSourcesRepo() *fakeSourcesRepo {
	return &fakeSourcesRepo{actives: map[uuid.UUID]bool{}, failed: map[uuid.UUID]string{}}
}

func (f *fakeSourcesRepo) ListActive(_ context.Context) ([]repository.Source, error) { return nil, nil }

func (f *fakeSourcesRepo) List(_ context.Context, _, _ int) ([]repository.Source, error) {
	out := make([]repository.Source, len(f.inserted))
	copy(out, f.inserted)
	for i := range out {
		out[i].IsActive = f.actives[out[i].ID]
	}
	return out, nil
}

func (f *fakeSourcesRepo) Insert(_ context.Context, src repository.Source) (bool, error) {
	for _, existing := range f.inserted {
		if existing.ProviderType == src.ProviderType && existing.CompanySlug == src.CompanySlug {
			return false, nil
		}
	}
	src.ID = uuid.New()
	f.inserted = append(f.inserted, src)
	return true, nil
}

func (f *fakeSourcesRepo) SetActive(_ context.Context, id uuid.UUID, active bool) error {
	f.actives[id] = active
	return nil
}

func (f *fakeSourcesRepo) MarkOK(_ context.Context, _ uuid.UUID, _ time.Time) error { return nil }

func (f *fakeSourcesRepo) MarkFailed(_ context.Context, id uuid.UUID, errText string, _ time.Time) error {
	f.failed[id] = errText
	return nil
}

var _ repository.SourceRepository = (*fakeSourcesRepo)(nil)

type fakeProber struct {
	err error
}

func (f *fakeProber) Probe(_ context.Context, _, _ string) error { return f.err }

func TestDiscover_EndToEnd(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fetchResult{
		"https://acme.com": {
			anchors: []anchor{{href: "https://acme.com/careers", text: "Careers"}},
		},
		"https://acme.com/careers": {
			html: `<a href="https://boards.greenhouse.io/acme">Open roles</a>`,
		},
	}}
	sources := newFakeSourcesRepo()
	svc := NewService(sources, fetcher, nil, &fakeProber{}, log.New(io.Discard, "", 0))

	res, err := svc.Discover(context.Background(), "https://acme.com", "Acme Corp")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !res.Created || !res.Verified {
		t.Fatalf("expected created and verified: %+v", res)
	}
	if res.Board == nil || res.Board.CompanySlug != "acme" {
		t.Fatalf("unexpected board %+v", res.Board)
	}
	if len(sources.inserted) != 1 {
		t.Fatalf("expected one registered source")
	}
	if !sources.actives[sources.inserted[0].ID] {
		t.Fatalf("verified source must be activated")
	}
}

func TestDiscover_ProbeFailureKeepsSourceInactive(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fetchResult{
		"https://acme.com": {
			anchors: []anchor{{href: "https://acme.com/careers", text: "Careers"}},
		},
		"https://acme.com/careers": {
			html: `<a href="https://jobs.lever.co/acme">Roles</a>`,
		},
	}}
	sources := newFakeSourcesRepo()
	svc := NewService(sources, fetcher, nil, &fakeProber{err: errors.New("board gone")}, log.New(io.Discard, "", 0))

	res, err := svc.Discover(context.Background(), "https://acme.com", "Acme Corp")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Verified {
		t.Fatalf("failed probe must not verify")
	}
	id := sources.inserted[0].ID
	if sources.actives[id] {
		t.Fatalf("failed probe must leave the source inactive")
	}
	if sources.failed[id] == "" {
		t.Fatalf("probe failure must be recorded")
	}
}

func TestDiscover_NoBoardFound(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fetchResult{
		"https://acme.com": {
			anchors: []anchor{{href: "https://acme.com/careers", text: "Careers"}},
		},
		"https://acme.com/careers": {
			html: `<p>Email us your resume.</p>`,
		},
	}}
	svc := NewService(newFakeSourcesRepo(), fetcher, nil, &fakeProber{}, log.New(io.Discard, "", 0))

	_, err := svc.Discover(context.Background(), "https://acme.com", "Acme Corp")
	if !errors.Is(err, ErrNoBoardFound) {
		t.Fatalf("expected ErrNoBoardFound, got %v", err)
	}
}

func TestDiscover_FallbackPathUsed(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string]fetchResult{
		"https://acme.com": {
			anchors: []anchor{{href: "https://acme.com/privacy", text: "Privacy"}},
		},
		"https://acme.com/careers": {
			html: `<a href="https://boards.greenhouse.io/acme">Roles</a>`,
		},
	}}
	sources := newFakeSourcesRepo()
	svc := NewService(sources, fetcher, nil, &fakeProber{}, log.New(io.Discard, "", 0))

	res, err := svc.Discover(context.Background(), "https://acme.com", "Acme Corp")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Board == nil || res.CareersURL != "https://acme.com/careers" {
		t.Fatalf("fallback path must be tried: %+v", res)
	}
}
