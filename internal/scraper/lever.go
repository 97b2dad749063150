package scraper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

type LeverClient struct {
	client *http.Client
}

func NewLeverClient(timeout time.Duration) *LeverClient {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &LeverClient{client: &http.Client{Timeout: timeout}}
}

type leverPosting struct {
	ID               string `json:"id"`
	Text             string `json:"text"`
	HostedURL        string `json:"hostedUrl"`
	CreatedAt        int64  `json:"createdAt"`
	Description      string `json:"description"`
	DescriptionPlain string `json:"descriptionPlain"`
	Categories       struct {
		Location string `json:"location"`
	} `json:"categories"`
}

// List fetches the full postings feed; Lever returns everything in one call.
func (c *LeverClient) List(ctx context.Context, apiBase string) ([]Posting, error) {
	url := apiBase
	if !strings.Contains(url, "mode=json") {
		sep := "?"
		if strings.Contains(url, "?") {
			sep = "&"
		}
		url += sep + "mode=json"
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}
	body, err := getJSON(c.client, req)
	if err != nil {
		return nil, err
	}

	var raws []json.RawMessage
	if err := json.Unmarshal(body, &raws); err != nil {
		return nil, fmt.Errorf("lever payload is not a list: %w", err)
	}

	out := make([]Posting, 0, len(raws))
	for _, raw := range raws {
		var p leverPosting
		if err := json.Unmarshal(raw, &p); err != nil {
			continue
		}
		id := strings.TrimSpace(p.ID)
		if id == "" {
			continue
		}

		title := strings.TrimSpace(p.Text)
		if title == "" {
			title = "Untitled"
		}

		var postedAt *time.Time
		if p.CreatedAt > 0 {
			t := time.UnixMilli(p.CreatedAt).UTC()
			postedAt = &t
		}

		rawText := strings.TrimSpace(p.DescriptionPlain)
		if rawText == "" {
			rawText = HTMLToText(p.Description)
		}

		out = append(out, Posting{
			ProviderJobID: id,
			Title:         title,
			URL:           strings.TrimSpace(p.HostedURL),
			LocationRaw:   strings.TrimSpace(p.Categories.Location),
			WorkplaceRaw:  workplaceFromLocation(p.Categories.Location),
			SalaryText:    ExtractSalaryText(rawText),
			PostedAt:      postedAt,
			RawJSON:       append([]byte(nil), raw...),
			RawText:       rawText,
		})
	}
	return out, nil
}
