// Package quota enforces the daily API-call and new-record budgets through
// persisted atomic counters, so caps hold across restarts and overlapping
// runs.
package quota

import (
	"context"
	"time"

	"jobradar/internal/repository"
)

// NewJobsScope is the singleton scope for the daily new-record budget.
const NewJobsScope = "new_jobs"

// CallScope names the per-provider daily call budget.
func CallScope(providerType string) string {
	return "calls:" + providerType
}

type Reservation struct {
	Granted   bool
	Remaining int64
}

type Ledger struct {
	repo repository.QuotaRepository
	now  func() time.Time
}

func NewLedger(repo repository.QuotaRepository) *Ledger {
	return &Ledger{repo: repo, now: time.Now}
}

// TryReserve consumes amount units from today's counter for scope. A cap of
// zero or below means unlimited: the reservation is always granted and the
// counter still advances for observability. A denied reservation is a signal
// to skip the unit of work, not an error.
func (l *Ledger) TryReserve(ctx context.Context, scope string, amount, cap int64) (Reservation, error) {
	if amount <= 0 {
		amount = 1
	}
	day := l.now().UTC()

	if cap <= 0 {
		if _, err := l.repo.Count(ctx, scope, day, amount); err != nil {
			return Reservation{}, err
		}
		return Reservation{Granted: true, Remaining: -1}, nil
	}

	granted, used, err := l.repo.ReserveCapped(ctx, scope, day, amount, cap)
	if err != nil {
		return Reservation{}, err
	}
	if !granted {
		return Reservation{Granted: false, Remaining: 0}, nil
	}

	remaining := cap - used
	if remaining < 0 {
		remaining = 0
	}
	return Reservation{Granted: true, Remaining: remaining}, nil
}

// Usage reports today's consumed units for scope.
func (l *Ledger) Usage(ctx context.Context, scope string) (int64, error) {
	return l.repo.Usage(ctx, scope, l.now().UTC())
}

// WithNow fixes the clock; tests use this to pin the day boundary.
func (l *Ledger) WithNow(now func() time.Time) *Ledger {
	l.now = now
	return l
}
