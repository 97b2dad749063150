package discovery

import (
	"context"
	"net/url"
	"regexp"
	"sort"
	"strings"
	"time"

	"github.com/gocolly/colly/v2"
)

var careerWordsRe = regexp.MustCompile(
	`(?i)\b(career|careers|jobs|job|join\s*us|work\s*with\s*us|lavora\s*con\s*noi|carriere|karriere|emplois)\b`)

var atsHosts = []string{
	"greenhouse.io",
	"lever.co",
	"workable.com",
	"myworkdayjobs.com",
	"successfactors",
}

type anchor struct {
	href string
	text string
}

type scoredLink struct {
	score int
	url   string
}

func scoreAnchor(absURL, text string) int {
	h := strings.ToLower(absURL)
	score := 0

	if strings.Contains(h, "career") {
		score += 100
	}
	if strings.Contains(h, "jobs") || strings.Contains(h, "/job") {
		score += 90
	}
	if strings.Contains(h, "join") || strings.Contains(h, "work-with") {
		score += 50
	}
	if careerWordsRe.MatchString(text) {
		score += 60
	}

	if strings.HasPrefix(h, "mailto:") || strings.HasPrefix(h, "tel:") {
		score -= 500
	}
	for _, dom := range []string{"facebook.com", "linkedin.com", "instagram.com"} {
		if strings.Contains(h, dom) {
			score -= 80
		}
	}
	return score
}

func sameDomain(a, b string) bool {
	pa, err := url.Parse(a)
	if err != nil {
		return false
	}
	pb, err := url.Parse(b)
	if err != nil {
		return false
	}
	if pa.Host == "" || pb.Host == "" {
		return false
	}
	return strings.EqualFold(pa.Host, pb.Host)
}

func isATSHost(absURL string) bool {
	h := strings.ToLower(absURL)
	for _, dom := range atsHosts {
		if strings.Contains(h, dom) {
			return true
		}
	}
	return false
}

// CareersFinder locates a company's careers page starting from its homepage.
// The colly pass handles server-rendered sites; JS-only homepages hand no
// anchors back and fall through to the headless pass in the service.
type CareersFinder struct {
	userAgent string
	timeout   time.Duration
}

func NewCareersFinder(userAgent string, timeout time.Duration) *CareersFinder {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &CareersFinder{userAgent: userAgent, timeout: timeout}
}

// FetchPage grabs one page's final URL, HTML and anchors.
func (f *CareersFinder) FetchPage(ctx context.Context, pageURL string) (finalURL, html string, anchors []anchor, err error) {
	c := colly.NewCollector(colly.UserAgent(f.userAgent))
	c.SetRequestTimeout(f.timeout)

	c.OnResponse(func(r *colly.Response) {
		finalURL = r.Request.URL.String()
		html = string(r.Body)
	})
	c.OnHTML("a[href]", func(e *colly.HTMLElement) {
		href := strings.TrimSpace(e.Attr("href"))
		if href == "" {
			return
		}
		abs := e.Request.AbsoluteURL(href)
		if abs == "" {
			return
		}
		anchors = append(anchors, anchor{href: abs, text: strings.TrimSpace(e.Text)})
	})

	var reqErr error
	c.OnError(func(_ *colly.Response, err error) {
		reqErr = err
	})

	if err := ctx.Err(); err != nil {
		return "", "", nil, err
	}
	if err := c.Visit(pageURL); err != nil {
		return "", "", nil, err
	}
	c.Wait()
	if reqErr != nil {
		return "", "", nil, reqErr
	}
	if finalURL == "" {
		finalURL = pageURL
	}
	return finalURL, html, anchors, nil
}

// BestCareersLink scores the homepage anchors and returns the most
// careers-looking one, empty when nothing scores above zero.
func BestCareersLink(homepageURL string, anchors []anchor) string {
	scored := make([]scoredLink, 0, len(anchors))
	for _, a := range anchors {
		score := scoreAnchor(a.href, a.text)
		if !sameDomain(homepageURL, a.href) {
			if isATSHost(a.href) {
				score += 15
			} else {
				score -= 20
			}
		}
		if score > 0 {
			scored = append(scored, scoredLink{score: score, url: a.href})
		}
	}
	if len(scored) == 0 {
		return ""
	}
	sort.SliceStable(scored, func(i, j int) bool { return scored[i].score > scored[j].score })
	return scored[0].url
}

// FallbackPaths lists the conventional careers paths tried when no anchor
// qualifies.
func FallbackPaths(homepageURL string) []string {
	parsed, err := url.Parse(homepageURL)
	if err != nil || parsed.Host == "" {
		return nil
	}
	base := parsed.Scheme + "://" + parsed.Host
	return []string{base + "/careers", base + "/jobs"}
}
