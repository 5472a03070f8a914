package chaos

import (
	"context"
	"errors"
	"sync/atomic"
	"time"

	"lendingregistry/internal/journal"
)

var ErrInjectedFault = errors.New("chaos: injected journal fault")

// FaultyJournal wraps a journal and injects append failures and latency.
// With no faults set it passes every call through.
type FaultyJournal struct {
	journal.Journal
	failEvery atomic.Int64
	latency   atomic.Int64
	appends   atomic.Int64
	injected  atomic.Int64
}

func NewFaultyJournal(j journal.Journal) *FaultyJournal {
	return &FaultyJournal{Journal: j}
}

// FailEvery makes every nth append fail; n <= 0 disables failures.
func (f *FaultyJournal) FailEvery(n int) {
	f.failEvery.Store(int64(n))
}

// SetLatency delays every append by d.
func (f *FaultyJournal) SetLatency(d time.Duration) {
	f.latency.Store(int64(d))
}

// Reset removes every injected fault.
func (f *FaultyJournal) Reset() {
	f.FailEvery(0)
	f.SetLatency(0)
}

// Injected reports how many appends were failed on purpose.
func (f *FaultyJournal) Injected() int64 {
	return f.injected.Load()
}

func (f *FaultyJournal) AppendEvents(ctx context.Context, aggregateID, aggregateType string, expectedVersion int, events []journal.Event) error {
	if d := time.Duration(f.latency.Load()); d > 0 {
		select {
		case <-time.After(d):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	n := f.appends.Add(1)
	if every := f.failEvery.Load(); every > 0 && n%every == 0 {
		f.injected.Add(1)
		return ErrInjectedFault
	}
	return f.Journal.AppendEvents(ctx, aggregateID, aggregateType, expectedVersion, events)
}
