// Package discovery finds ATS-backed job boards starting from a company
// homepage: locate the careers page, detect the provider, register the source
// and verify it with a live probe before activating.
package discovery

import (
	"fmt"
	"regexp"

	"jobradar/internal/scraper"
)

// DetectedBoard is a provider endpoint extracted from a careers page.
type DetectedBoard struct {
	ProviderType string
	CompanySlug  string
	APIBase      string
	EvidenceURL  string
}

var (
	greenhouseRe = regexp.MustCompile(`(?i)https?://boards\.greenhouse\.io/([a-z0-9_-]+)/?`)
	leverRe      = regexp.MustCompile(`(?i)https?://jobs\.lever\.co/([a-z0-9_-]+)/?`)
)

// DetectBoard scans a careers page URL plus its HTML for a known provider,
// precision first. Nil means nothing recognizable was found.
func DetectBoard(pageURL, html string) *DetectedBoard {
	text := pageURL + " " + html

	if m := greenhouseRe.FindStringSubmatch(text); m != nil {
		return &DetectedBoard{
			ProviderType: scraper.ProviderGreenhouse,
			CompanySlug:  m[1],
			APIBase:      fmt.Sprintf("https://boards-api.greenhouse.io/v1/boards/%s", m[1]),
			EvidenceURL:  m[0],
		}
	}
	if m := leverRe.FindStringSubmatch(text); m != nil {
		return &DetectedBoard{
			ProviderType: scraper.ProviderLever,
			CompanySlug:  m[1],
			APIBase:      fmt.Sprintf("https://api.lever.co/v0/postings/%s", m[1]),
			EvidenceURL:  m[0],
		}
	}
	return nil
}
