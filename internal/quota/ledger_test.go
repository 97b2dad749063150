package quota

import (
	"context"
	"testing"
	"time"

	"jobradar/internal/repository"
)

type fakeQuotaRepo struct {
	counters map[string]int64
}

func newFakeQuotaRepo() *fakeQuotaRepo {
	return &fakeQuotaRepo{counters: map[string]int64{}}
}

func key(scope string, day time.Time) string {
	return scope + "|" + day.UTC().Format("2006-01-02")
}

func (f *fakeQuotaRepo) ReserveCapped(_ context.Context, scope string, day time.Time, amount, cap int64) (bool, int64, error) {
	k := key(scope, day)
	if f.counters[k]+amount > cap {
		return false, 0, nil
	}
	f.counters[k] += amount
	return true, f.counters[k], nil
}

func (f *fakeQuotaRepo) Count(_ context.Context, scope string, day time.Time, amount int64) (int64, error) {
	k := key(scope, day)
	f.counters[k] += amount
	return f.counters[k], nil
}

func (f *fakeQuotaRepo) Usage(_ context.Context, scope string, day time.Time) (int64, error) {
	return f.counters[key(scope, day)], nil
}

var _ repository.QuotaRepository = (*fakeQuotaRepo)(nil)

func TestTryReserve_CapEnforced(t *testing.T) {
	repo := newFakeQuotaRepo()
	ledger := NewLedger(repo)

	ctx := context.Background()
	scope := NewJobsScope

	for i := 0; i < 2; i++ {
		res, err := ledger.TryReserve(ctx, scope, 1, 2)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !res.Granted {
			t.Fatalf("reservation %d should be granted", i+1)
		}
	}

	res, err := ledger.TryReserve(ctx, scope, 1, 2)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Granted {
		t.Fatalf("third reservation must be denied at cap=2")
	}

	used, _ := ledger.Usage(ctx, scope)
	if used != 2 {
		t.Fatalf("denied reservation must not increment: used=%d", used)
	}
}

func TestTryReserve_ZeroCapUnlimited(t *testing.T) {
	repo := newFakeQuotaRepo()
	ledger := NewLedger(repo)

	ctx := context.Background()
	for i := 0; i < 100; i++ {
		res, err := ledger.TryReserve(ctx, CallScope("greenhouse"), 1, 0)
		if err != nil {
			t.Fatalf("unexpected err: %v", err)
		}
		if !res.Granted {
			t.Fatalf("unlimited cap must always grant (attempt %d)", i+1)
		}
	}

	// Counting still happens for observability.
	used, _ := ledger.Usage(ctx, CallScope("greenhouse"))
	if used != 100 {
		t.Fatalf("expected 100 counted calls, got %d", used)
	}
}

func TestTryReserve_Remaining(t *testing.T) {
	ledger := NewLedger(newFakeQuotaRepo())

	res, err := ledger.TryReserve(context.Background(), CallScope("lever"), 1, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Remaining != 4 {
		t.Fatalf("expected remaining=4, got %d", res.Remaining)
	}
}

func TestTryReserve_NewDayResets(t *testing.T) {
	repo := newFakeQuotaRepo()

	day1 := time.Date(2025, 3, 1, 23, 50, 0, 0, time.UTC)
	day2 := time.Date(2025, 3, 2, 0, 10, 0, 0, time.UTC)

	current := day1
	ledger := NewLedger(repo).WithNow(func() time.Time { return current })

	ctx := context.Background()
	if res, _ := ledger.TryReserve(ctx, NewJobsScope, 1, 1); !res.Granted {
		t.Fatalf("day 1 reservation should pass")
	}
	if res, _ := ledger.TryReserve(ctx, NewJobsScope, 1, 1); res.Granted {
		t.Fatalf("day 1 cap exhausted, must deny")
	}

	current = day2
	if res, _ := ledger.TryReserve(ctx, NewJobsScope, 1, 1); !res.Granted {
		t.Fatalf("new day implies a fresh counter")
	}
}

func TestTryReserve_AmountAboveCapDenied(t *testing.T) {
	ledger := NewLedger(newFakeQuotaRepo())

	res, err := ledger.TryReserve(context.Background(), CallScope("greenhouse"), 10, 5)
	if err != nil {
		t.Fatalf("unexpected err: %v", err)
	}
	if res.Granted {
		t.Fatalf("amount larger than cap must be denied")
	}
}
