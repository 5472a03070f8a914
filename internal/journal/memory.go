package journal

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/google/uuid"
)

// MemoryJournal keeps events in process memory.
type MemoryJournal struct {
	mu       sync.RWMutex
	nextID   int64
	byAggr   map[string][]Event
	versions map[string]int
	now      func() time.Time
}

// NewMemoryJournal returns an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{
		byAggr:   make(map[string][]Event),
		versions: make(map[string]int),
		now:      func() time.Time { return time.Now().UTC() },
	}
}

func (j *MemoryJournal) AppendEvents(ctx context.Context, aggregateID, aggregateType string, expectedVersion int, events []Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if expectedVersion < 0 {
		return ErrInvalidVersion
	}

	j.mu.Lock()
	defer j.mu.Unlock()

	if j.versions[aggregateID] != expectedVersion {
		return ErrConcurrencyConflict
	}

	for i, event := range events {
		j.nextID++
		event.ID = j.nextID
		if event.EventID == uuid.Nil {
			event.EventID = uuid.New()
		}
		event.AggregateID = aggregateID
		event.AggregateType = aggregateType
		event.Version = expectedVersion + i + 1
		event.Metadata = maps.Clone(event.Metadata)
		event.CreatedAt = j.now()
		j.byAggr[aggregateID] = append(j.byAggr[aggregateID], event)
	}
	j.versions[aggregateID] = expectedVersion + len(events)

	return nil
}

func (j *MemoryJournal) LoadEvents(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()

	var events []Event
	for _, event := range j.byAggr[aggregateID] {
		if event.Version >= fromVersion {
			events = append(events, event)
		}
	}
	return events, nil
}

func (j *MemoryJournal) CurrentVersion(ctx context.Context, aggregateID string) (int, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}

	j.mu.RLock()
	defer j.mu.RUnlock()
	return j.versions[aggregateID], nil
}
