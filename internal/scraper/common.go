// Package scraper holds the provider API clients that turn job-board
// responses into normalized postings for the upsert engine.
package scraper

import (
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	readability "github.com/go-shiori/go-readability"
)

const (
	ProviderGreenhouse = "greenhouse"
	ProviderLever      = "lever"
)

// Posting is the normalized shape handed to ingestion. RawJSON keeps the full
// provider payload for reprocessing; SalaryText is verbatim source text.
type Posting struct {
	ProviderJobID string
	Title         string
	URL           string
	LocationRaw   string
	WorkplaceRaw  string
	SalaryText    string
	PostedAt      *time.Time
	RawJSON       []byte
	RawText       string
}

const userAgent = "jobradar/0.1"

var salaryRe = regexp.MustCompile(`(?i)([$€£])\s?\d[\d,. ]{2,}\s?(?:-\s?([$€£])?\s?\d[\d,. ]{2,})?`)

// ExtractSalaryText pulls the first salary-looking span out of free text, kept
// verbatim. Empty when nothing matches.
func ExtractSalaryText(text string) string {
	m := salaryRe.FindString(text)
	return strings.TrimSpace(m)
}

var (
	tagRe   = regexp.MustCompile(`<[^>]+>`)
	spaceRe = regexp.MustCompile(`[ \t]+`)
)

// HTMLToText reduces a job-description HTML fragment to plain text using the
// readability extractor, with a tag-strip fallback for fragments it rejects.
func HTMLToText(html string) string {
	html = strings.TrimSpace(html)
	if html == "" {
		return ""
	}

	doc := "<html><body>" + html + "</body></html>"
	article, err := readability.FromReader(strings.NewReader(doc), nil)
	if err == nil {
		txt := strings.TrimSpace(article.TextContent)
		if txt != "" {
			return txt
		}
	}

	txt := tagRe.ReplaceAllString(html, " ")
	txt = spaceRe.ReplaceAllString(txt, " ")
	lines := strings.Split(txt, "\n")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		l = strings.TrimSpace(l)
		if l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func workplaceFromLocation(location string) string {
	if strings.Contains(strings.ToLower(location), "remote") {
		return "Remote"
	}
	return ""
}

func getJSON(client *http.Client, req *http.Request) ([]byte, error) {
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 16<<20))
	if err != nil {
		return nil, err
	}

	ctype := strings.ToLower(resp.Header.Get("Content-Type"))
	trimmed := strings.TrimLeft(string(body), " \t\r\n")
	if !strings.Contains(ctype, "application/json") &&
		!strings.HasPrefix(trimmed, "{") && !strings.HasPrefix(trimmed, "[") {
		return nil, fmt.Errorf("non-JSON response (content-type=%s)", ctype)
	}
	return body, nil
}
