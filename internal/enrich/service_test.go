package enrich

import (
	"context"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"time"

	"jobradar/internal/enrich/openai"
	"jobradar/internal/repository"
)

type fakeEnrichRepo struct {
	outdated []repository.JobForEnrichment
	upserts  []repository.EnrichmentRecord
	errs     map[string]string
}

func (f *fakeEnrichRepo) ListOutdated(_ context.Context, limit int) ([]repository.JobForEnrichment, error) {
	if len(f.outdated) > limit {
		return f.outdated[:limit], nil
	}
	return f.outdated, nil
}

func (f *fakeEnrichRepo) Upsert(_ context.Context, rec repository.EnrichmentRecord) error {
	f.upserts = append(f.upserts, rec)
	return nil
}

func (f *fakeEnrichRepo) SetError(_ context.Context, jobUID, errText string) error {
	if f.errs == nil {
		f.errs = map[string]string{}
	}
	f.errs[jobUID] = errText
	return nil
}

var _ repository.EnrichmentRepository = (*fakeEnrichRepo)(nil)

type fakeModel struct {
	results map[string]openai.Enrichment
	errs    map[string]error
	calls   int
}

func (f *fakeModel) EnrichJob(_ context.Context, in openai.JobInput) (openai.Enrichment, error) {
	f.calls++
	if err := f.errs[in.Title]; err != nil {
		return openai.Enrichment{}, err
	}
	return f.results[in.Title], nil
}

func job(uid, title string) repository.JobForEnrichment {
	return repository.JobForEnrichment{JobUID: uid, Title: title, Company: "Acme", URL: "https://x", RawText: "text"}
}

func TestEnrichOutdated_StoresStructuredResult(t *testing.T) {
	repo := &fakeEnrichRepo{outdated: []repository.JobForEnrichment{job("j1", "Go Dev")}}
	model := &fakeModel{results: map[string]openai.Enrichment{
		"Go Dev": {
			Summary:        "Backend role.",
			Skills:         []string{"Go", "Postgres"},
			Pros:           []string{"remote", "modern stack"},
			Cons:           []string{"on call"},
			OutreachTarget: "Head of Engineering",
			Model:          "gpt-test",
			TotalTokens:    321,
		},
	}}

	at := time.Date(2025, 7, 1, 9, 0, 0, 0, time.UTC)
	svc := NewService(repo, model, 0, log.New(io.Discard, "", 0)).
		WithNow(func() time.Time { return at })

	n, err := svc.EnrichOutdated(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 1 || len(repo.upserts) != 1 {
		t.Fatalf("expected one enrichment, got n=%d upserts=%d", n, len(repo.upserts))
	}

	rec := repo.upserts[0]
	if rec.JobUID != "j1" {
		t.Fatalf("wrong job uid %q", rec.JobUID)
	}
	if string(rec.SkillsJSON) != `{"skills":["Go","Postgres"]}` {
		t.Fatalf("skills payload shape: %s", rec.SkillsJSON)
	}
	if rec.Pros == nil || *rec.Pros != "remote\nmodern stack" {
		t.Fatalf("pros must be joined lines: %v", rec.Pros)
	}
	if rec.LLMTokens == nil || *rec.LLMTokens != 321 {
		t.Fatalf("token usage must be stored: %v", rec.LLMTokens)
	}
	if rec.EnrichedAt == nil || !rec.EnrichedAt.Equal(at) {
		t.Fatalf("enriched_at must come from the service clock")
	}
}

func TestEnrichOutdated_ModelFailureIsRecordedAndBatchContinues(t *testing.T) {
	repo := &fakeEnrichRepo{outdated: []repository.JobForEnrichment{
		job("j1", "Bad"), job("j2", "Good"),
	}}
	model := &fakeModel{
		errs:    map[string]error{"Bad": &openai.ClientError{}},
		results: map[string]openai.Enrichment{"Good": {Summary: "ok", Model: "gpt-test"}},
	}

	svc := NewService(repo, model, 0, log.New(io.Discard, "", 0))
	n, err := svc.EnrichOutdated(context.Background())
	if err != nil {
		t.Fatalf("a model failure must not abort the batch: %v", err)
	}
	if n != 1 {
		t.Fatalf("expected one success, got %d", n)
	}
	if _, ok := repo.errs["j1"]; !ok {
		t.Fatalf("failure must be recorded on the job row")
	}
	if len(repo.upserts) != 1 || repo.upserts[0].JobUID != "j2" {
		t.Fatalf("healthy job must still be enriched: %+v", repo.upserts)
	}
}

func TestEnrichOutdated_NonClientErrorAborts(t *testing.T) {
	repo := &fakeEnrichRepo{outdated: []repository.JobForEnrichment{
		job("j1", "Boom"), job("j2", "Never"),
	}}
	model := &fakeModel{errs: map[string]error{"Boom": errors.New("context deadline exceeded")}}

	svc := NewService(repo, model, 0, log.New(io.Discard, "", 0))
	if _, err := svc.EnrichOutdated(context.Background()); err == nil {
		t.Fatalf("infrastructure errors must abort the batch")
	}
	if model.calls != 1 {
		t.Fatalf("batch must stop at the aborting job, calls=%d", model.calls)
	}
}

func TestEnrichOutdated_HonorsLimit(t *testing.T) {
	outdated := make([]repository.JobForEnrichment, 0, 5)
	for _, uid := range []string{"a", "b", "c", "d", "e"} {
		outdated = append(outdated, job(uid, "T"+uid))
	}
	repo := &fakeEnrichRepo{outdated: outdated}
	model := &fakeModel{}

	svc := NewService(repo, model, 2, log.New(io.Discard, "", 0))
	n, err := svc.EnrichOutdated(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 2 || model.calls != 2 {
		t.Fatalf("limit must bound the batch, n=%d calls=%d", n, model.calls)
	}
}

func TestJoinLines(t *testing.T) {
	if got := joinLines([]string{" a ", "", "b"}); got != "a\nb" {
		t.Fatalf("joinLines = %q", got)
	}
	if got := joinLines(nil); got != "" {
		t.Fatalf("empty input joins to empty string, got %q", got)
	}
}

func TestBuildRecord_EmptyFieldsStayNull(t *testing.T) {
	rec, err := buildRecord("j1", openai.Enrichment{Model: "m"}, time.Now().UTC())
	if err != nil {
		t.Fatal(err)
	}
	if rec.Summary != nil || rec.Pros != nil || rec.Cons != nil || rec.OutreachTarget != nil {
		t.Fatalf("empty strings must store as NULL: %+v", rec)
	}
	if rec.LLMTokens != nil {
		t.Fatalf("zero token usage stays NULL")
	}
	if !strings.Contains(string(rec.SkillsJSON), "skills") {
		t.Fatalf("skills payload must keep its envelope: %s", rec.SkillsJSON)
	}
}
