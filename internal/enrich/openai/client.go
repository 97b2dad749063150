// Package openai is a minimal Responses API client used for job enrichment.
// Structured outputs pin the model to the enrichment JSON shape.
package openai

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

const defaultBaseURL = "https://api.openai.com/v1"

// Enrichment is the structured payload extracted from one posting.
type Enrichment struct {
	Summary        string
	Skills         []string
	Pros           []string
	Cons           []string
	OutreachTarget string
	Salary         string
	Model          string
	TotalTokens    int
}

// ClientError marks failures of the model call or an unusable payload. The
// caller records it per job and moves on.
type ClientError struct {
	msg string
}

func (e *ClientError) Error() string { return e.msg }

func clientErrf(format string, args ...any) error {
	return &ClientError{msg: fmt.Sprintf(format, args...)}
}

type Client struct {
	apiKey  string
	model   string
	baseURL string
	http    *http.Client
}

func NewClient(apiKey, model, baseURL string, timeout time.Duration) (*Client, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("api key cannot be empty")
	}
	if strings.TrimSpace(model) == "" {
		return nil, fmt.Errorf("model cannot be empty")
	}
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		apiKey:  apiKey,
		model:   model,
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: timeout},
	}, nil
}

// JobInput carries the posting fields handed to the model.
type JobInput struct {
	Title        string
	Company      string
	LocationRaw  string
	WorkplaceRaw string
	URL          string
	SalaryText   string
	RawText      string
}

const maxRawTextLen = 3500

var enrichmentSchema = map[string]any{
	"type":                 "object",
	"additionalProperties": false,
	"properties": map[string]any{
		"summary":         map[string]any{"type": "string"},
		"skills":          map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"pros":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"cons":            map[string]any{"type": "array", "items": map[string]any{"type": "string"}},
		"outreach_target": map[string]any{"type": "string"},
		"salary":          map[string]any{"type": []string{"string", "null"}},
	},
	"required": []string{"summary", "skills", "pros", "cons", "outreach_target", "salary"},
}

type responsesRequest struct {
	Model string         `json:"model"`
	Input string         `json:"input"`
	Text  map[string]any `json:"text"`
}

type responsesPayload struct {
	Output []struct {
		Type    string `json:"type"`
		Content []struct {
			Type string `json:"type"`
			Text string `json:"text"`
		} `json:"content"`
	} `json:"output"`
	Usage struct {
		TotalTokens int `json:"total_tokens"`
	} `json:"usage"`
}

type enrichmentJSON struct {
	Summary        string   `json:"summary"`
	Skills         []string `json:"skills"`
	Pros           []string `json:"pros"`
	Cons           []string `json:"cons"`
	OutreachTarget string   `json:"outreach_target"`
	Salary         *string  `json:"salary"`
}

// EnrichJob asks the model for a structured read of one posting.
func (c *Client) EnrichJob(ctx context.Context, in JobInput) (Enrichment, error) {
	rawText := strings.TrimSpace(in.RawText)
	if len(rawText) > maxRawTextLen {
		rawText = rawText[:maxRawTextLen] + "…"
	}

	prompt := fmt.Sprintf(
		"You are a recruiting analyst. Enrich the following job posting.\n"+
			"Return ONLY valid JSON that matches the provided JSON Schema.\n\n"+
			"TITLE: %s\nCOMPANY: %s\nLOCATION_RAW: %s\nWORKPLACE_RAW: %s\nURL: %s\nSALARY_TEXT_FROM_ATS: %s\n\nRAW_TEXT:\n%s\n",
		in.Title, in.Company, in.LocationRaw, in.WorkplaceRaw, in.URL, in.SalaryText, rawText)

	reqBody := responsesRequest{
		Model: c.model,
		Input: prompt,
		Text: map[string]any{
			"format": map[string]any{
				"type":   "json_schema",
				"name":   "job_enrichment",
				"strict": true,
				"schema": enrichmentSchema,
			},
		},
	}

	encoded, err := json.Marshal(reqBody)
	if err != nil {
		return Enrichment{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/responses", bytes.NewReader(encoded))
	if err != nil {
		return Enrichment{}, err
	}
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return Enrichment{}, clientErrf("call model: %v", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return Enrichment{}, clientErrf("read model response: %v", err)
	}
	if resp.StatusCode >= 400 {
		return Enrichment{}, clientErrf("model request failed: %d %s", resp.StatusCode, truncate(string(body), 500))
	}

	var payload responsesPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return Enrichment{}, clientErrf("decode model response: %v", err)
	}

	text, err := outputText(payload)
	if err != nil {
		return Enrichment{}, err
	}

	var parsed enrichmentJSON
	if err := json.Unmarshal([]byte(text), &parsed); err != nil {
		return Enrichment{}, clientErrf("model returned non-JSON output: %s", truncate(text, 200))
	}

	out := Enrichment{
		Summary:        strings.TrimSpace(parsed.Summary),
		Skills:         cleanList(parsed.Skills, 30),
		Pros:           cleanList(parsed.Pros, 15),
		Cons:           cleanList(parsed.Cons, 15),
		OutreachTarget: truncate(strings.TrimSpace(parsed.OutreachTarget), 512),
		Model:          c.model,
		TotalTokens:    payload.Usage.TotalTokens,
	}
	if parsed.Salary != nil {
		out.Salary = truncate(strings.TrimSpace(*parsed.Salary), 255)
	}
	return out, nil
}

func outputText(payload responsesPayload) (string, error) {
	for _, item := range payload.Output {
		if item.Type != "message" {
			continue
		}
		for _, c := range item.Content {
			if c.Type == "output_text" || c.Type == "text" {
				if s := strings.TrimSpace(c.Text); s != "" {
					return s, nil
				}
			}
		}
	}
	return "", clientErrf("no output_text found in model response")
}

func cleanList(items []string, maxItems int) []string {
	out := make([]string, 0, len(items))
	for _, s := range items {
		if len(out) >= maxItems {
			break
		}
		s = strings.TrimSpace(s)
		if s != "" {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
