package fitness

import (
	"context"
	"io"
	"log"
	"testing"
	"time"

	"jobradar/internal/repository"
)

type memJobs struct {
	repository.JobRepository
	lastChecked map[string]time.Time
}

func (m *memJobs) LastChecked(_ context.Context, jobUID string) (time.Time, error) {
	t, ok := m.lastChecked[jobUID]
	if !ok {
		return time.Time{}, repository.ErrJobNotFound
	}
	return t, nil
}

type memProfiles struct {
	repository.ProfileRepository
	records map[string]repository.ProfileRecord
}

func (m *memProfiles) Get(_ context.Context, profileID string) (*repository.ProfileRecord, error) {
	p, ok := m.records[profileID]
	if !ok {
		return nil, nil
	}
	return &p, nil
}

func (m *memProfiles) ListAll(_ context.Context) ([]repository.ProfileRecord, error) {
	out := make([]repository.ProfileRecord, 0, len(m.records))
	for _, p := range m.records {
		out = append(out, p)
	}
	return out, nil
}

type memRelevance struct {
	repository.RelevanceRepository
	records map[string]repository.RelevanceRecord
	stale   []repository.StaleJob
	upserts int
}

func relKey(jobUID, profileID string) string { return jobUID + "|" + profileID }

func (m *memRelevance) Get(_ context.Context, jobUID, profileID string) (*repository.RelevanceRecord, error) {
	r, ok := m.records[relKey(jobUID, profileID)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (m *memRelevance) UpsertScore(_ context.Context, rec repository.RelevanceRecord) error {
	if m.records == nil {
		m.records = map[string]repository.RelevanceRecord{}
	}
	m.records[relKey(rec.JobUID, rec.ProfileID)] = rec
	m.upserts++
	return nil
}

func (m *memRelevance) ListStaleForProfile(_ context.Context, _, _ string, limit int) ([]repository.StaleJob, error) {
	if len(m.stale) > limit {
		return m.stale[:limit], nil
	}
	return m.stale, nil
}

func discard() *log.Logger { return log.New(io.Discard, "", 0) }

func TestIsStale_ThreeWayRule(t *testing.T) {
	jobChecked := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	fingerprint := "fp-1"

	jobs := &memJobs{lastChecked: map[string]time.Time{"job-1": jobChecked}}
	profiles := &memProfiles{records: map[string]repository.ProfileRecord{
		"default": {ProfileID: "default", Fingerprint: fingerprint},
	}}
	relevance := &memRelevance{records: map[string]repository.RelevanceRecord{}}

	svc := NewService(jobs, profiles, relevance, 0, discard())
	ctx := context.Background()

	// Missing row.
	stale, err := svc.IsStale(ctx, "job-1", "default")
	if err != nil || !stale {
		t.Fatalf("absent state must be stale (stale=%v err=%v)", stale, err)
	}

	fresh := repository.RelevanceRecord{
		JobUID: "job-1", ProfileID: "default",
		FitJobLastChecked:     &jobChecked,
		FitProfileFingerprint: &fingerprint,
	}
	relevance.records[relKey("job-1", "default")] = fresh

	stale, err = svc.IsStale(ctx, "job-1", "default")
	if err != nil || stale {
		t.Fatalf("matching snapshots must be fresh (stale=%v err=%v)", stale, err)
	}

	// Job re-observed after the snapshot.
	jobs.lastChecked["job-1"] = jobChecked.Add(time.Hour)
	stale, _ = svc.IsStale(ctx, "job-1", "default")
	if !stale {
		t.Fatalf("a bumped last_checked must invalidate")
	}
	jobs.lastChecked["job-1"] = jobChecked

	// Profile fingerprint moved.
	profiles.records["default"] = repository.ProfileRecord{ProfileID: "default", Fingerprint: "fp-2"}
	stale, _ = svc.IsStale(ctx, "job-1", "default")
	if !stale {
		t.Fatalf("a changed fingerprint must invalidate")
	}
	profiles.records["default"] = repository.ProfileRecord{ProfileID: "default", Fingerprint: fingerprint}

	// Damaged snapshot columns.
	broken := fresh
	broken.FitJobLastChecked = nil
	relevance.records[relKey("job-1", "default")] = broken
	stale, _ = svc.IsStale(ctx, "job-1", "default")
	if !stale {
		t.Fatalf("a NULL snapshot must never pass as fresh")
	}
}

func TestRescoreStale_SnapshotsDependencies(t *testing.T) {
	checked := time.Date(2025, 6, 2, 9, 0, 0, 0, time.UTC)
	profiles := &memProfiles{records: map[string]repository.ProfileRecord{
		"default": {ProfileID: "default", Fingerprint: "fp-9", ProfileText: "Go engineer, 8 years experience."},
	}}
	relevance := &memRelevance{stale: []repository.StaleJob{
		{JobUID: "job-1", Title: "Go Developer", RawText: "Build Go services.", LastChecked: checked,
			SkillsJSON: []byte(`{"skills":["Go"]}`)},
	}}

	computedAt := time.Date(2025, 6, 2, 10, 0, 0, 0, time.UTC)
	svc := NewService(&memJobs{}, profiles, relevance, 0, discard()).
		WithNow(func() time.Time { return computedAt })

	n, err := svc.RescoreStale(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 1 || relevance.upserts != 1 {
		t.Fatalf("expected one rescored pair, got n=%d upserts=%d", n, relevance.upserts)
	}

	rec := relevance.records[relKey("job-1", "default")]
	if rec.FitScore != 90 || rec.FitClass != ClassGood {
		t.Fatalf("unexpected score %d/%s", rec.FitScore, rec.FitClass)
	}
	if rec.FitJobLastChecked == nil || !rec.FitJobLastChecked.Equal(checked) {
		t.Fatalf("snapshot must hold the job's last_checked at scoring time")
	}
	if rec.FitProfileFingerprint == nil || *rec.FitProfileFingerprint != "fp-9" {
		t.Fatalf("snapshot must hold the profile fingerprint")
	}
	if rec.FitComputedAt == nil || !rec.FitComputedAt.Equal(computedAt) {
		t.Fatalf("computed_at must come from the service clock")
	}
}

func TestRescoreStale_NoProfilesIsNoop(t *testing.T) {
	svc := NewService(&memJobs{}, &memProfiles{}, &memRelevance{}, 0, discard())
	n, err := svc.RescoreStale(context.Background())
	if err != nil || n != 0 {
		t.Fatalf("no profiles means nothing to do (n=%d err=%v)", n, err)
	}
}

func TestRescoreStale_HonorsLimit(t *testing.T) {
	stale := make([]repository.StaleJob, 0, 5)
	for i := 0; i < 5; i++ {
		stale = append(stale, repository.StaleJob{
			JobUID: "job-" + string(rune('a'+i)), Title: "Role", LastChecked: time.Now().UTC(),
		})
	}
	profiles := &memProfiles{records: map[string]repository.ProfileRecord{
		"default": {ProfileID: "default", Fingerprint: "fp"},
	}}
	relevance := &memRelevance{stale: stale}

	svc := NewService(&memJobs{}, profiles, relevance, 3, discard())
	n, err := svc.RescoreStale(context.Background())
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if n != 3 {
		t.Fatalf("limit must bound one pass, got %d", n)
	}
}
