package discovery

import (
	"context"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

const headlessUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/122.0.0.0 Safari/537.36"

// HeadlessFetcher renders JS-only pages in headless Chrome and returns the
// settled DOM. Used when the static pass finds no anchors.
type HeadlessFetcher struct {
	timeout time.Duration
}

func NewHeadlessFetcher(timeout time.Duration) *HeadlessFetcher {
	if timeout <= 0 {
		timeout = 25 * time.Second
	}
	return &HeadlessFetcher{timeout: timeout}
}

// FetchHTML navigates to pageURL, waits for the body and a short settle
// period, then returns the rendered outer HTML and every anchor href.
func (h *HeadlessFetcher) FetchHTML(ctx context.Context, pageURL string) (html string, hrefs []string, err error) {
	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx,
		append(chromedp.DefaultExecAllocatorOptions[:],
			chromedp.Flag("headless", true),
			chromedp.Flag("disable-gpu", true),
			chromedp.Flag("no-sandbox", true),
			chromedp.Flag("disable-dev-shm-usage", true),
			chromedp.UserAgent(headlessUserAgent),
		)...,
	)
	defer allocCancel()

	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	reqCtx, reqCancel := context.WithTimeout(browserCtx, h.timeout)
	defer reqCancel()

	var rawHrefs []string
	err = chromedp.Run(reqCtx,
		chromedp.Navigate(pageURL),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Sleep(1500*time.Millisecond),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
		chromedp.EvaluateAsDevTools(`Array.from(document.querySelectorAll('a[href]'))
			.map(a => a.href)`, &rawHrefs),
	)
	if err != nil {
		return "", nil, err
	}

	seen := map[string]struct{}{}
	for _, href := range rawHrefs {
		href = strings.TrimSpace(href)
		if href == "" {
			continue
		}
		if _, ok := seen[href]; ok {
			continue
		}
		seen[href] = struct{}{}
		hrefs = append(hrefs, href)
	}
	return html, hrefs, nil
}
