// Package journal records the registry's domain events as an append-only
// audit trail with per-aggregate optimistic versioning. Registry state is
// never rebuilt from it.
package journal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
)

var (
	ErrConcurrencyConflict = errors.New("concurrency conflict: version mismatch")
	ErrInvalidVersion      = errors.New("invalid version number")
)

// Aggregate types recorded by the registry.
const (
	AggregateItem   = "item"
	AggregateMember = "member"
)

// Event is a recorded domain event.
type Event struct {
	ID            int64             `json:"id"`
	EventID       uuid.UUID         `json:"event_id"`
	AggregateID   string            `json:"aggregate_id"`
	AggregateType string            `json:"aggregate_type"`
	EventType     string            `json:"event_type"`
	EventData     json.RawMessage   `json:"event_data"`
	Metadata      map[string]string `json:"metadata,omitempty"`
	Version       int               `json:"version"`
	CreatedAt     time.Time         `json:"created_at"`
}

// NewEvent encodes payload into an event of the given type with a fresh id.
func NewEvent(eventType string, payload any) (Event, error) {
	data, err := jsoniter.ConfigFastest.Marshal(payload)
	if err != nil {
		return Event{}, fmt.Errorf("marshal %s payload: %w", eventType, err)
	}

	return Event{
		EventID:   uuid.New(),
		EventType: eventType,
		EventData: data,
	}, nil
}

// Decode unmarshals the event payload into dst.
func (e Event) Decode(dst any) error {
	if err := jsoniter.ConfigFastest.Unmarshal(e.EventData, dst); err != nil {
		return fmt.Errorf("unmarshal %s payload: %w", e.EventType, err)
	}
	return nil
}

// Journal is an append-only event log.
type Journal interface {
	// AppendEvents appends events to an aggregate whose current version must
	// equal expectedVersion; otherwise ErrConcurrencyConflict is returned and
	// nothing is written.
	AppendEvents(ctx context.Context, aggregateID, aggregateType string, expectedVersion int, events []Event) error
	// LoadEvents returns the aggregate's events with version >= fromVersion,
	// oldest first.
	LoadEvents(ctx context.Context, aggregateID string, fromVersion int) ([]Event, error)
	// CurrentVersion returns the aggregate's latest version, 0 if it has none.
	CurrentVersion(ctx context.Context, aggregateID string) (int, error)
}
