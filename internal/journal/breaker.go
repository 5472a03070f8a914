package journal

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// BreakerSettings tunes BreakerJournal.
type BreakerSettings struct {
	// ConsecutiveFailures trips the breaker; it defaults to 5.
	ConsecutiveFailures uint32
	// Timeout is how long the breaker stays open before a probe; it defaults
	// to 30 seconds.
	Timeout time.Duration
	Logger  *slog.Logger
}

// BreakerJournal guards a journal with a circuit breaker so that a failing
// backend is rejected fast instead of being retried on every request.
// Version conflicts and canceled contexts do not count as failures.
type BreakerJournal struct {
	next Journal
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerJournal(next Journal, settings BreakerSettings) *BreakerJournal {
	if settings.ConsecutiveFailures == 0 {
		settings.ConsecutiveFailures = 5
	}
	if settings.Timeout <= 0 {
		settings.Timeout = 30 * time.Second
	}
	logger := settings.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &BreakerJournal{
		next: next,
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:        "journal",
			MaxRequests: 1,
			Timeout:     settings.Timeout,
			ReadyToTrip: func(counts gobreaker.Counts) bool {
				return counts.ConsecutiveFailures >= settings.ConsecutiveFailures
			},
			IsSuccessful: func(err error) bool {
				return err == nil ||
					errors.Is(err, ErrConcurrencyConflict) ||
					errors.Is(err, context.Canceled) ||
					errors.Is(err, context.DeadlineExceeded)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				logger.Warn("journal breaker state changed",
					slog.String("from", from.String()),
					slog.String("to", to.String()))
			},
		}),
	}
}

// State reports the breaker state: closed, half-open or open.
func (b *BreakerJournal) State() string {
	return b.cb.State().String()
}

func (b *BreakerJournal) AppendEvents(ctx context.Context, aggregateID, aggregateType string, expectedVersion int, events []Event) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, b.next.AppendEvents(ctx, aggregateID, aggregateType, expectedVersion, events)
	})
	return err
}

func (b *BreakerJournal) LoadEvents(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.LoadEvents(ctx, aggregateID, fromVersion)
	})
	if err != nil {
		return nil, err
	}
	return res.([]Event), nil
}

func (b *BreakerJournal) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	res, err := b.cb.Execute(func() (interface{}, error) {
		return b.next.CurrentVersion(ctx, aggregateID)
	})
	if err != nil {
		return 0, err
	}
	return res.(int), nil
}
