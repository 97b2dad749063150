// Package notion is a small API wrapper covering what the export push needs:
// data-source query plus page create and update.
package notion

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.notion.com/v1"

// APIError marks a Notion-side failure (HTTP >= 400). It is recorded on the
// pair and does not abort the export batch.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("notion error %d: %s", e.StatusCode, e.Body)
}

type Client struct {
	token        string
	version      string
	dataSourceID string
	baseURL      string
	http         *http.Client
}

func NewClient(token, version, dataSourceID string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(token) == "" {
		return nil, fmt.Errorf("notion token cannot be empty")
	}
	if strings.TrimSpace(dataSourceID) == "" {
		return nil, fmt.Errorf("notion data source id cannot be empty")
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		token:        token,
		version:      version,
		dataSourceID: dataSourceID,
		baseURL:      defaultBaseURL,
		http:         &http.Client{Timeout: timeout},
	}, nil
}

// WithBaseURL points the client at a different endpoint; tests use this.
func (c *Client) WithBaseURL(baseURL string) *Client {
	c.baseURL = strings.TrimRight(baseURL, "/")
	return c
}

func (c *Client) do(ctx context.Context, method, url string, payload any) (int, []byte, error) {
	encoded, err := json.Marshal(payload)
	if err != nil {
		return 0, nil, err
	}

	req, err := http.NewRequestWithContext(ctx, method, url, bytes.NewReader(encoded))
	if err != nil {
		return 0, nil, err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Notion-Version", c.version)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return 0, nil, err
	}
	return resp.StatusCode, body, nil
}

func apiErr(status int, body []byte) error {
	text := string(body)
	if len(text) > 500 {
		text = text[:500]
	}
	return &APIError{StatusCode: status, Body: text}
}

// QueryPageID finds an existing page for the pair, matching on the Job UID
// property and, when set, the Profile property. Empty result means no page.
func (c *Client) QueryPageID(ctx context.Context, jobUID, profileID string) (string, error) {
	filters := []map[string]any{
		{"property": "Job UID", "rich_text": map[string]any{"equals": jobUID}},
	}
	if profileID != "" {
		filters = append(filters, map[string]any{
			"property": "Profile", "rich_text": map[string]any{"equals": profileID},
		})
	}
	payload := map[string]any{
		"filter":    map[string]any{"and": filters},
		"page_size": 1,
	}

	url := fmt.Sprintf("%s/data_sources/%s/query", c.baseURL, c.dataSourceID)
	status, body, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	if status >= 400 {
		return "", apiErr(status, body)
	}

	var out struct {
		Results []struct {
			ID string `json:"id"`
		} `json:"results"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if len(out.Results) == 0 {
		return "", nil
	}
	return out.Results[0].ID, nil
}

// CreatePage creates a page under the configured data source and returns its
// id. Workspaces that only accept database_id parents get a one-shot retry
// with that parent shape.
func (c *Client) CreatePage(ctx context.Context, properties map[string]any) (string, error) {
	url := c.baseURL + "/pages"
	payload := map[string]any{
		"parent":     map[string]any{"data_source_id": c.dataSourceID},
		"properties": properties,
	}

	status, body, err := c.do(ctx, http.MethodPost, url, payload)
	if err != nil {
		return "", err
	}
	if status == http.StatusBadRequest {
		payload["parent"] = map[string]any{"database_id": c.dataSourceID}
		status, body, err = c.do(ctx, http.MethodPost, url, payload)
		if err != nil {
			return "", err
		}
	}
	if status >= 400 {
		return "", apiErr(status, body)
	}

	var out struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		return "", err
	}
	if out.ID == "" {
		return "", fmt.Errorf("notion create returned no page id")
	}
	return out.ID, nil
}

// UpdatePage patches properties on an existing page.
func (c *Client) UpdatePage(ctx context.Context, pageID string, properties map[string]any) error {
	url := c.baseURL + "/pages/" + pageID
	status, body, err := c.do(ctx, http.MethodPatch, url, map[string]any{"properties": properties})
	if err != nil {
		return err
	}
	if status >= 400 {
		return apiErr(status, body)
	}
	return nil
}
