package usecase

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"

	"jobradar/internal/ingest"

	"github.com/google/uuid"
)

var ErrRunInProgress = errors.New("an ingestion run is already in progress")

// RunLock guards against overlapping runs across processes.
type RunLock interface {
	AcquireRunLock(ctx context.Context, owner string, ttl time.Duration) (bool, error)
	ReleaseRunLock(ctx context.Context, owner string) error
	InvalidateAfterRun(ctx context.Context) error
}

type IngestRunner interface {
	Run(ctx context.Context) (ingest.Summary, error)
}

type RunStatus struct {
	Running     bool            `json:"running"`
	LastSummary *ingest.Summary `json:"last_summary"`
}

type RunUsecase interface {
	TriggerRun(ctx context.Context) error
	Status() RunStatus
}

type RunService struct {
	runner  IngestRunner
	lock    RunLock
	timeout time.Duration
	logger  *log.Logger

	mu      sync.Mutex
	running bool
	last    *ingest.Summary
}

func NewRunService(runner IngestRunner, lock RunLock, timeout time.Duration, logger *log.Logger) *RunService {
	if timeout <= 0 {
		timeout = 30 * time.Minute
	}
	if logger == nil {
		logger = log.Default()
	}
	return &RunService{runner: runner, lock: lock, timeout: timeout, logger: logger}
}

// TriggerRun starts a run in the background. Only one run may be active at a
// time, enforced locally and via the shared run lock.
func (s *RunService) TriggerRun(ctx context.Context) error {
	s.mu.Lock()
	if s.running {
		s.mu.Unlock()
		return ErrRunInProgress
	}
	s.running = true
	s.mu.Unlock()

	owner := uuid.NewString()
	if s.lock != nil {
		ok, err := s.lock.AcquireRunLock(ctx, owner, s.timeout)
		if err != nil || !ok {
			s.mu.Lock()
			s.running = false
			s.mu.Unlock()
			if err != nil {
				return err
			}
			return ErrRunInProgress
		}
	}

	go s.execute(owner)
	return nil
}

func (s *RunService) Status() RunStatus {
	s.mu.Lock()
	defer s.mu.Unlock()
	return RunStatus{Running: s.running, LastSummary: s.last}
}

func (s *RunService) execute(owner string) {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	sum, err := s.runner.Run(ctx)
	if err != nil {
		s.logger.Printf("[Run] ingestion run failed: %v", err)
	}

	if s.lock != nil {
		_ = s.lock.InvalidateAfterRun(ctx)
		_ = s.lock.ReleaseRunLock(ctx, owner)
	}

	s.mu.Lock()
	s.running = false
	s.last = &sum
	s.mu.Unlock()
}
