package ingest

import (
	"context"
	"fmt"
	"log"
	"time"

	"jobradar/internal/config"
	"jobradar/internal/quota"
	"jobradar/internal/repository"
	"jobradar/internal/scraper"

	"github.com/google/uuid"
)

// GreenhouseClient and LeverClient are the provider call surfaces the runner
// needs; the scraper package provides the real implementations.
type GreenhouseClient interface {
	ListPage(ctx context.Context, apiBase string, page, perPage int) ([]scraper.Posting, error)
	Detail(ctx context.Context, apiBase, providerJobID string) (rawText, salaryText string, err error)
}

type LeverClient interface {
	List(ctx context.Context, apiBase string) ([]scraper.Posting, error)
}

// Stages run after ingestion, in order. Each is optional; a nil stage is
// skipped.
type ProfileStage interface {
	Bootstrap(ctx context.Context) (changed bool, err error)
}

type EnrichStage interface {
	EnrichOutdated(ctx context.Context) (enriched int, err error)
}

type ScoreStage interface {
	RescoreStale(ctx context.Context) (rescored int, err error)
}

type ExportStage interface {
	ExportDue(ctx context.Context) (attempted, failed int, err error)
}

// Notifier receives run lifecycle events; the websocket hub implements it.
type Notifier interface {
	RunStarted(runID string)
	RunFinished(runID string, summary Summary)
}

type Summary struct {
	RunID            string    `json:"run_id"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	SourcesProcessed int       `json:"sources_processed"`
	SourcesFailed    int       `json:"sources_failed"`
	Fetched          int       `json:"fetched"`
	New              int       `json:"new"`
	Refreshed        int       `json:"refreshed"`
	SkippedCapped    int       `json:"skipped_capped"`
	CallsDenied      int       `json:"calls_denied"`
	ProfileChanged   bool      `json:"profile_changed"`
	Enriched         int       `json:"enriched"`
	Rescored         int       `json:"rescored"`
	ExportAttempted  int       `json:"export_attempted"`
	ExportFailed     int       `json:"export_failed"`
}

type Runner struct {
	cfg      config.IngestConfig
	sources  repository.SourceRepository
	upserter *Upserter
	ledger   *quota.Ledger

	greenhouse GreenhouseClient
	lever      LeverClient

	profile ProfileStage
	enrich  EnrichStage
	score   ScoreStage
	export  ExportStage

	notifier Notifier
	logger   *log.Logger
	now      func() time.Time
}

func NewRunner(
	cfg config.IngestConfig,
	sources repository.SourceRepository,
	upserter *Upserter,
	ledger *quota.Ledger,
	greenhouse GreenhouseClient,
	lever LeverClient,
	logger *log.Logger,
) *Runner {
	return &Runner{
		cfg:        cfg,
		sources:    sources,
		upserter:   upserter,
		ledger:     ledger,
		greenhouse: greenhouse,
		lever:      lever,
		logger:     logger,
		now:        time.Now,
	}
}

func (r *Runner) WithStages(profile ProfileStage, enrich EnrichStage, score ScoreStage, export ExportStage) *Runner {
	r.profile = profile
	r.enrich = enrich
	r.score = score
	r.export = export
	return r
}

func (r *Runner) WithNotifier(n Notifier) *Runner {
	r.notifier = n
	return r
}

func (r *Runner) WithNow(now func() time.Time) *Runner {
	r.now = now
	return r
}

// runState tracks the per-run in-memory caps. fetched counts every posting
// handed to the upsert engine; detailDenied latches after the first denied
// detail call so the rest of the run skips detail fetches instead of burning
// budget checks.
type runState struct {
	fetched      int
	detailDenied bool
}

func (s *runState) fetchBudgetLeft(maxFetch int) bool {
	return s.fetched < maxFetch
}

// Run executes one full cycle: ingest every active source under the budgets,
// then the profile, enrichment, scoring and export stages. Source failures are
// recorded and do not abort the run.
func (r *Runner) Run(ctx context.Context) (Summary, error) {
	sum := Summary{
		RunID:     uuid.NewString(),
		StartedAt: r.now().UTC(),
	}
	if r.notifier != nil {
		r.notifier.RunStarted(sum.RunID)
	}
	r.logger.Printf("[Ingest] run started run_id=%s", sum.RunID)

	srcs, err := r.sources.ListActive(ctx)
	if err != nil {
		return sum, fmt.Errorf("list active sources: %w", err)
	}

	state := &runState{}
	for _, src := range srcs {
		if err := ctx.Err(); err != nil {
			return sum, err
		}
		if !state.fetchBudgetLeft(r.cfg.MaxFetchPerRun) {
			r.logger.Printf("[Ingest] fetch cap reached run_id=%s fetched=%d", sum.RunID, state.fetched)
			break
		}

		if err := r.runSource(ctx, src, state, &sum); err != nil {
			sum.SourcesFailed++
			r.logger.Printf("[Ingest] source failed provider=%s slug=%s err=%v", src.ProviderType, src.CompanySlug, err)
			if mErr := r.sources.MarkFailed(ctx, src.ID, err.Error(), r.now().UTC()); mErr != nil {
				r.logger.Printf("[Ingest] mark failed error id=%s err=%v", src.ID, mErr)
			}
			continue
		}
		sum.SourcesProcessed++
		if mErr := r.sources.MarkOK(ctx, src.ID, r.now().UTC()); mErr != nil {
			r.logger.Printf("[Ingest] mark ok error id=%s err=%v", src.ID, mErr)
		}
	}

	r.runStages(ctx, &sum)

	sum.FinishedAt = r.now().UTC()
	r.logger.Printf("[Ingest] run finished run_id=%s sources=%d failed=%d fetched=%d new=%d refreshed=%d capped=%d",
		sum.RunID, sum.SourcesProcessed, sum.SourcesFailed, sum.Fetched, sum.New, sum.Refreshed, sum.SkippedCapped)
	if r.notifier != nil {
		r.notifier.RunFinished(sum.RunID, sum)
	}
	return sum, nil
}

func (r *Runner) runStages(ctx context.Context, sum *Summary) {
	if r.profile != nil {
		changed, err := r.profile.Bootstrap(ctx)
		if err != nil {
			r.logger.Printf("[Profile] bootstrap failed err=%v", err)
		} else {
			sum.ProfileChanged = changed
		}
	}
	if r.enrich != nil {
		n, err := r.enrich.EnrichOutdated(ctx)
		if err != nil {
			r.logger.Printf("[Enrich] stage failed err=%v", err)
		}
		sum.Enriched = n
	}
	if r.score != nil {
		n, err := r.score.RescoreStale(ctx)
		if err != nil {
			r.logger.Printf("[Score] stage failed err=%v", err)
		}
		sum.Rescored = n
	}
	if r.export != nil {
		attempted, failed, err := r.export.ExportDue(ctx)
		if err != nil {
			r.logger.Printf("[Export] stage failed err=%v", err)
		}
		sum.ExportAttempted = attempted
		sum.ExportFailed = failed
	}
}

// reserveCall consumes one unit of the provider's daily call budget. A denial
// is reported through Summary.CallsDenied and means skip, not fail.
func (r *Runner) reserveCall(ctx context.Context, providerType string, sum *Summary) (bool, error) {
	res, err := r.ledger.TryReserve(ctx, quota.CallScope(providerType), 1, int64(r.cfg.MaxCallsPerDay))
	if err != nil {
		return false, err
	}
	if !res.Granted {
		sum.CallsDenied++
	}
	return res.Granted, nil
}

func (r *Runner) runSource(ctx context.Context, src repository.Source, state *runState, sum *Summary) error {
	switch src.ProviderType {
	case scraper.ProviderGreenhouse:
		return r.runGreenhouse(ctx, src, state, sum)
	case scraper.ProviderLever:
		return r.runLever(ctx, src, state, sum)
	default:
		return fmt.Errorf("unknown provider type %q", src.ProviderType)
	}
}

func (r *Runner) runGreenhouse(ctx context.Context, src repository.Source, state *runState, sum *Summary) error {
	perSource := 0
	for page := 1; page <= r.cfg.GreenhouseMaxPages; page++ {
		if !state.fetchBudgetLeft(r.cfg.MaxFetchPerRun) {
			return nil
		}

		ok, err := r.reserveCall(ctx, src.ProviderType, sum)
		if err != nil {
			return err
		}
		if !ok {
			r.logger.Printf("[Ingest] call budget exhausted provider=%s slug=%s", src.ProviderType, src.CompanySlug)
			return nil
		}

		postings, err := r.greenhouse.ListPage(ctx, src.APIBase, page, r.cfg.GreenhousePerPage)
		if err != nil {
			return fmt.Errorf("list page %d: %w", page, err)
		}
		if len(postings) == 0 {
			return nil
		}

		for _, p := range postings {
			if !state.fetchBudgetLeft(r.cfg.MaxFetchPerRun) {
				return nil
			}
			if r.cfg.PerSourceLimit > 0 && perSource >= r.cfg.PerSourceLimit {
				return nil
			}

			r.fillGreenhouseDetail(ctx, src, &p, state, sum)

			if err := r.apply(ctx, src, p, state, sum); err != nil {
				return err
			}
			perSource++
		}
	}
	return nil
}

// fillGreenhouseDetail fetches the posting body when budget allows. The list
// payload has no description, so a skipped detail fetch means the posting is
// stored with whatever the list gave us; a later run fills it in.
func (r *Runner) fillGreenhouseDetail(ctx context.Context, src repository.Source, p *scraper.Posting, state *runState, sum *Summary) {
	if state.detailDenied {
		return
	}
	ok, err := r.reserveCall(ctx, src.ProviderType, sum)
	if err != nil || !ok {
		state.detailDenied = true
		return
	}

	rawText, salary, err := r.greenhouse.Detail(ctx, src.APIBase, p.ProviderJobID)
	if err != nil {
		r.logger.Printf("[Ingest] detail fetch failed provider=%s job=%s err=%v", src.ProviderType, p.ProviderJobID, err)
		return
	}
	p.RawText = rawText
	if salary != "" {
		p.SalaryText = salary
	}
}

func (r *Runner) runLever(ctx context.Context, src repository.Source, state *runState, sum *Summary) error {
	ok, err := r.reserveCall(ctx, src.ProviderType, sum)
	if err != nil {
		return err
	}
	if !ok {
		r.logger.Printf("[Ingest] call budget exhausted provider=%s slug=%s", src.ProviderType, src.CompanySlug)
		return nil
	}

	postings, err := r.lever.List(ctx, src.APIBase)
	if err != nil {
		return fmt.Errorf("list postings: %w", err)
	}

	perSource := 0
	for _, p := range postings {
		if !state.fetchBudgetLeft(r.cfg.MaxFetchPerRun) {
			return nil
		}
		if r.cfg.PerSourceLimit > 0 && perSource >= r.cfg.PerSourceLimit {
			return nil
		}
		if err := r.apply(ctx, src, p, state, sum); err != nil {
			return err
		}
		perSource++
	}
	return nil
}

func (r *Runner) apply(ctx context.Context, src repository.Source, p scraper.Posting, state *runState, sum *Summary) error {
	out, _, err := r.upserter.Upsert(ctx, src, p)
	if err != nil {
		return err
	}
	state.fetched++
	sum.Fetched++
	switch out {
	case OutcomeNew:
		sum.New++
	case OutcomeRefreshed:
		sum.Refreshed++
	case OutcomeSkippedCapped:
		sum.SkippedCapped++
	}
	return nil
}
