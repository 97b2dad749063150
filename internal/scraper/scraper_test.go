package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"
)

func TestExtractSalaryText(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"Compensation: $120,000 - $150,000 per year", "$120,000 - $150,000"},
		{"Salary €55.000", "€55.000"},
		{"We pay well", ""},
	}
	for _, c := range cases {
		got := ExtractSalaryText(c.in)
		if got != c.want {
			t.Fatalf("ExtractSalaryText(%q) = %q, want %q", c.in, got, c.want)
		}
	}
}

func TestHTMLToText(t *testing.T) {
	txt := HTMLToText("<p>Build <b>services</b> in Go.</p><p>Remote friendly.</p>")
	if txt == "" {
		t.Fatalf("expected extracted text")
	}
	for _, want := range []string{"Build", "services", "Remote friendly"} {
		if !contains(txt, want) {
			t.Fatalf("expected %q in %q", want, txt)
		}
	}
	if contains(txt, "<p>") {
		t.Fatalf("tags must be stripped: %q", txt)
	}
	if HTMLToText("   ") != "" {
		t.Fatalf("blank input must yield empty text")
	}
}

func TestLeverList(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("mode") != "json" {
			http.Error(w, "missing mode", http.StatusBadRequest)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"id":"abc-1","text":"Backend Engineer","hostedUrl":"https://jobs.lever.co/acme/abc-1",
			 "createdAt":1714000000000,"descriptionPlain":"Go services. $100,000 - $120,000.",
			 "categories":{"location":"Remote - EU"}},
			{"text":"no id, skipped"}
		]`))
	}))
	defer srv.Close()

	c := NewLeverClient(5 * time.Second)
	postings, err := c.List(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(postings) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(postings))
	}

	p := postings[0]
	if p.ProviderJobID != "abc-1" {
		t.Fatalf("unexpected id %q", p.ProviderJobID)
	}
	if p.WorkplaceRaw != "Remote" {
		t.Fatalf("expected remote workplace, got %q", p.WorkplaceRaw)
	}
	if p.SalaryText != "$100,000 - $120,000" {
		t.Fatalf("unexpected salary %q", p.SalaryText)
	}
	if p.PostedAt == nil {
		t.Fatalf("expected posted_at from createdAt millis")
	}
	if len(p.RawJSON) == 0 {
		t.Fatalf("raw payload must be preserved")
	}
}

func TestGreenhouseListPageAndDetail(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/jobs":
			if r.URL.Query().Get("page") == "1" {
				_, _ = w.Write([]byte(`{"jobs":[
					{"id":42,"title":"Platform Engineer","absolute_url":"https://boards.greenhouse.io/acme/jobs/42",
					 "updated_at":"2025-04-01T10:00:00Z","location":{"name":"Milan, Italy"}}
				]}`))
				return
			}
			_, _ = w.Write([]byte(`{"jobs":[]}`))
		case "/jobs/42":
			_, _ = w.Write([]byte(`{"id":42,"content":"<p>Kubernetes, Go. Salary $130,000.</p>"}`))
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	c := NewGreenhouseClient(5 * time.Second)

	page, err := c.ListPage(context.Background(), srv.URL, 1, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(page) != 1 {
		t.Fatalf("expected 1 posting, got %d", len(page))
	}
	if page[0].ProviderJobID != "42" {
		t.Fatalf("unexpected id %q", page[0].ProviderJobID)
	}
	if page[0].RawText != "" {
		t.Fatalf("list payload should carry no text")
	}

	empty, err := c.ListPage(context.Background(), srv.URL, 2, 100)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if len(empty) != 0 {
		t.Fatalf("expected empty page")
	}

	rawText, salary, err := c.Detail(context.Background(), srv.URL, "42")
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if !contains(rawText, "Kubernetes") {
		t.Fatalf("detail text missing content: %q", rawText)
	}
	if salary == "" {
		t.Fatalf("expected salary text from detail body")
	}
}

func contains(s, sub string) bool {
	return len(s) >= len(sub) && (s == sub || len(sub) == 0 || indexOf(s, sub) >= 0)
}

func indexOf(s, sub string) int {
	for i := 0; i+len(sub) <= len(s); i++ {
		if s[i:i+len(sub)] == sub {
			return i
		}
	}
	return -1
}
