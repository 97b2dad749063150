package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"jobradar/internal/repository"
)

type fakeJobLister struct {
	repository.JobRepository

	rows  []repository.JobListRow
	calls int
}

func (f *fakeJobLister) ListRecent(ctx context.Context, limit, offset int) ([]repository.JobListRow, error) {
	f.calls++
	return f.rows, nil
}

type memCache struct {
	data map[string][]byte
}

func newMemCache() *memCache {
	return &memCache{data: map[string][]byte{}}
}

func (c *memCache) GetJSON(ctx context.Context, key string, out any) (bool, error) {
	b, ok := c.data[key]
	if !ok {
		return false, nil
	}
	return true, json.Unmarshal(b, out)
}

func (c *memCache) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	b, err := json.Marshal(value)
	if err != nil {
		return err
	}
	c.data[key] = b
	return nil
}

func TestListJobs_CachesSecondRead(t *testing.T) {
	repo := &fakeJobLister{rows: []repository.JobListRow{
		{JobUID: "u1", Title: "Backend Engineer", Company: "Acme", LastChecked: time.Now().UTC().Truncate(time.Second)},
	}}
	cache := newMemCache()
	svc := NewJobListService(repo, cache)

	params := JobListParams{Limit: 20, Offset: 0}

	first, err := svc.ListJobs(context.Background(), params)
	if err != nil {
		t.Fatalf("ListJobs: %v", err)
	}
	if len(first) != 1 || first[0].JobUID != "u1" {
		t.Fatalf("first read = %+v", first)
	}

	second, err := svc.ListJobs(context.Background(), params)
	if err != nil {
		t.Fatalf("ListJobs (cached): %v", err)
	}
	if len(second) != 1 || second[0].Title != "Backend Engineer" {
		t.Fatalf("cached read = %+v", second)
	}
	if repo.calls != 1 {
		t.Errorf("repo calls = %d, want 1 (second read should hit cache)", repo.calls)
	}
}

func TestListJobs_DistinctPagesDistinctKeys(t *testing.T) {
	repo := &fakeJobLister{rows: nil}
	cache := newMemCache()
	svc := NewJobListService(repo, cache)

	if _, err := svc.ListJobs(context.Background(), JobListParams{Limit: 20, Offset: 0}); err != nil {
		t.Fatal(err)
	}
	if _, err := svc.ListJobs(context.Background(), JobListParams{Limit: 20, Offset: 20}); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 2 {
		t.Errorf("repo calls = %d, want 2 (different offsets must not share a key)", repo.calls)
	}
}

func TestListJobs_NoCacheConfigured(t *testing.T) {
	repo := &fakeJobLister{rows: nil}
	svc := NewJobListService(repo, nil)

	if _, err := svc.ListJobs(context.Background(), JobListParams{Limit: 10}); err != nil {
		t.Fatalf("ListJobs without cache: %v", err)
	}
	if _, err := svc.ListJobs(context.Background(), JobListParams{Limit: 10}); err != nil {
		t.Fatal(err)
	}
	if repo.calls != 2 {
		t.Errorf("repo calls = %d, want 2", repo.calls)
	}
}
