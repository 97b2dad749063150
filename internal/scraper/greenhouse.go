package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type GreenhouseClient struct {
	client *http.Client
}

func NewGreenhouseClient(timeout time.Duration) *GreenhouseClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &GreenhouseClient{client: &http.Client{Timeout: timeout}}
}

type greenhouseJob struct {
	ID          json.Number `json:"id"`
	Title       string      `json:"title"`
	AbsoluteURL string      `json:"absolute_url"`
	UpdatedAt   string      `json:"updated_at"`
	Content     string      `json:"content"`
	Location    struct {
		Name string `json:"name"`
	} `json:"location"`
}

type greenhouseJobsPage struct {
	Jobs []json.RawMessage `json:"jobs"`
}

// ListPage fetches one page of the board's job list. The list payload has no
// description; Detail fills it in when needed.
func (c *GreenhouseClient) ListPage(ctx context.Context, apiBase string, page, perPage int) ([]Posting, error) {
	if perPage <= 0 {
		perPage = 100
	}
	url := fmt.Sprintf("%s/jobs?page=%d&per_page=%d", strings.TrimRight(apiBase, "/"), page, perPage)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	body, err := getJSON(c.client, req)
	if err != nil {
		return nil, err
	}

	var pageData greenhouseJobsPage
	if err := json.Unmarshal(body, &pageData); err != nil {
		return nil, err
	}

	out := make([]Posting, 0, len(pageData.Jobs))
	for _, raw := range pageData.Jobs {
		var j greenhouseJob
		if err := json.Unmarshal(raw, &j); err != nil {
			continue
		}
		id := strings.TrimSpace(j.ID.String())
		if id == "" {
			continue
		}

		title := strings.TrimSpace(j.Title)
		if title == "" {
			title = "Untitled"
		}

		var postedAt *time.Time
		if j.UpdatedAt != "" {
			if t, err := time.Parse(time.RFC3339, j.UpdatedAt); err == nil {
				u := t.UTC()
				postedAt = &u
			}
		}

		out = append(out, Posting{
			ProviderJobID: id,
			Title:         title,
			URL:           strings.TrimSpace(j.AbsoluteURL),
			LocationRaw:   strings.TrimSpace(j.Location.Name),
			WorkplaceRaw:  workplaceFromLocation(j.Location.Name),
			PostedAt:      postedAt,
			RawJSON:       append([]byte(nil), raw...),
		})
	}
	return out, nil
}

// Detail fetches one posting's full content and derives raw text and salary.
func (c *GreenhouseClient) Detail(ctx context.Context, apiBase, providerJobID string) (rawText, salaryText string, err error) {
	url := fmt.Sprintf("%s/jobs/%s", strings.TrimRight(apiBase, "/"), providerJobID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return "", "", err
	}
	body, err := getJSON(c.client, req)
	if err != nil {
		return "", "", err
	}

	var j greenhouseJob
	if err := json.Unmarshal(body, &j); err != nil {
		return "", "", err
	}

	rawText = HTMLToText(j.Content)
	salaryText = ExtractSalaryText(rawText)
	return rawText, salaryText, nil
}
