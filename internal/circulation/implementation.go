// internal/circulation/implementation.go
package circulation

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/journal"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/outcome"
)

// service implements the Service interface. A single mutex makes each request
// resolve, mutate and journal as one unit.
type service struct {
	mu       sync.Mutex
	registry *Registry
	journal  journal.Journal
	auth     *membership.Authenticator
	logger   *slog.Logger
	tracer   trace.Tracer
	outcomes metric.Int64Counter
	now      func() time.Time
}

// Option configures the service.
type Option func(*service)

// WithLogger sets the service logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *service) { s.logger = logger }
}

// WithAuthenticator sets the credential store used for member passphrases.
func WithAuthenticator(auth *membership.Authenticator) Option {
	return func(s *service) { s.auth = auth }
}

// WithClock overrides the time source used for event timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *service) { s.now = now }
}

// NewService creates a circulation service over registry, recording every
// applied change in j.
func NewService(registry *Registry, j journal.Journal, opts ...Option) Service {
	s := &service{
		registry: registry,
		journal:  j,
		logger:   slog.Default(),
		tracer:   otel.Tracer("lendingregistry/circulation"),
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	if s.auth == nil {
		s.auth = membership.NewAuthenticator(5)
	}

	counter, err := otel.Meter("lendingregistry/circulation").Int64Counter("registry.outcomes",
		metric.WithDescription("Borrow and return outcomes by operation and kind"))
	if err != nil {
		s.logger.Warn("outcome counter unavailable", slog.Any("error", err))
		counter = noop.Int64Counter{}
	}
	s.outcomes = counter

	return s
}

// AddItem adds or replaces a catalog item.
func (s *service) AddItem(ctx context.Context, item catalog.Item) (catalog.View, error) {
	ctx, span := s.tracer.Start(ctx, "registry.add_item",
		trace.WithAttributes(attribute.String("item.id", item.ID)))
	defer span.End()

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.registry.FindItemByID(item.ID)
	err := s.record(ctx, item.ID, journal.AggregateItem, EventItemAdded, catalog.ItemAddedEvent{
		ID:       item.ID,
		Title:    item.Title,
		Kind:     item.Kind,
		Replaced: exists,
	})
	if err != nil {
		span.RecordError(err)
		return catalog.View{}, fmt.Errorf("failed to journal item %s: %w", item.ID, err)
	}

	added := item
	s.registry.AddItem(&added)
	s.logger.DebugContext(ctx, "item added", slog.String("item_id", item.ID), slog.Bool("replaced", exists))

	return added.View(), nil
}

// GetItem retrieves an item by id.
func (s *service) GetItem(ctx context.Context, id string) (catalog.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, ok := s.registry.FindItemByID(id)
	if !ok {
		return catalog.View{}, fmt.Errorf("%w: %s", catalog.ErrItemNotFound, id)
	}
	return item.View(), nil
}

// ListItems returns every item in catalog order.
func (s *service) ListItems(ctx context.Context) ([]catalog.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := s.registry.Items()
	views := make([]catalog.View, 0, len(items))
	for _, item := range items {
		views = append(views, item.View())
	}
	return views, nil
}

// AddMember adds or replaces a member. A non-empty passphrase is stored as
// the member's credential; an empty one leaves the member without any.
func (s *service) AddMember(ctx context.Context, id, name, passphrase string) (membership.View, error) {
	ctx, span := s.tracer.Start(ctx, "registry.add_member",
		trace.WithAttributes(attribute.String("member.id", id)))
	defer span.End()

	var credential membership.Credential
	if passphrase != "" {
		var err error
		credential, err = membership.NewCredential(id, passphrase)
		if err != nil {
			span.RecordError(err)
			return membership.View{}, fmt.Errorf("failed to hash passphrase: %w", err)
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, exists := s.registry.FindMemberByID(id)
	err := s.record(ctx, id, journal.AggregateMember, EventMemberAdded, membership.MemberAddedEvent{
		ID:       id,
		Name:     name,
		Replaced: exists,
	})
	if err != nil {
		span.RecordError(err)
		return membership.View{}, fmt.Errorf("failed to journal member %s: %w", id, err)
	}

	member := membership.NewMember(id, name)
	s.registry.AddMember(member)
	if passphrase != "" {
		s.auth.Store(credential)
	} else {
		s.auth.Forget(id)
	}
	s.logger.DebugContext(ctx, "member added", slog.String("member_id", id), slog.Bool("replaced", exists))

	return member.View(), nil
}

// GetMember retrieves a member by id.
func (s *service) GetMember(ctx context.Context, id string) (membership.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	member, ok := s.registry.FindMemberByID(id)
	if !ok {
		return membership.View{}, fmt.Errorf("%w: %s", membership.ErrMemberNotFound, id)
	}
	return member.View(), nil
}

// ListMembers returns every member in roster order.
func (s *service) ListMembers(ctx context.Context) ([]membership.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	members := s.registry.Members()
	views := make([]membership.View, 0, len(members))
	for _, m := range members {
		views = append(views, m.View())
	}
	return views, nil
}

// BorrowedItems renders the items a member currently holds.
func (s *service) BorrowedItems(ctx context.Context, id string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	listing, ok := s.registry.BorrowedItems(id)
	if !ok {
		return "", fmt.Errorf("%w: %s", membership.ErrMemberNotFound, id)
	}
	return listing, nil
}

// Authenticate verifies a member's passphrase.
func (s *service) Authenticate(ctx context.Context, id, passphrase string) error {
	s.mu.Lock()
	_, ok := s.registry.FindMemberByID(id)
	s.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", membership.ErrMemberNotFound, id)
	}

	return s.auth.Authenticate(id, passphrase)
}

// BorrowItem lends an item to a member and journals the loan. If the journal
// rejects the event the loan is undone.
func (s *service) BorrowItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "registry.borrow_item",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return outcome.Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	res := s.registry.BorrowItem(memberID, itemID)
	s.observe(ctx, span, outcome.OpBorrow, res)
	if !res.OK() {
		return res, nil
	}

	err := s.record(ctx, itemID, journal.AggregateItem, EventItemBorrowed, ItemBorrowedEvent{
		ItemID:     itemID,
		MemberID:   memberID,
		MemberName: res.MemberName,
		OccurredAt: s.now(),
	})
	if err != nil {
		undo := s.registry.ReturnItem(memberID, itemID)
		s.logger.WarnContext(ctx, "compensating borrow after journal failure",
			slog.String("member_id", memberID),
			slog.String("item_id", itemID),
			slog.String("compensation", string(undo.Kind)),
			slog.Any("error", err),
		)
		span.RecordError(err)
		return outcome.Outcome{}, fmt.Errorf("failed to journal borrow of %s: %w", itemID, err)
	}

	return res, nil
}

// ReturnItem takes an item back from a member and journals the return. If
// the journal rejects the event the loan is restored.
func (s *service) ReturnItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error) {
	ctx, span := s.tracer.Start(ctx, "registry.return_item",
		trace.WithAttributes(
			attribute.String("member.id", memberID),
			attribute.String("item.id", itemID),
		),
	)
	defer span.End()

	if err := ctx.Err(); err != nil {
		return outcome.Outcome{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	position := -1
	if member, ok := s.registry.FindMemberByID(memberID); ok {
		position = slices.Index(member.BorrowedItemIDs(), itemID)
	}

	res := s.registry.ReturnItem(memberID, itemID)
	s.observe(ctx, span, outcome.OpReturn, res)
	if !res.OK() {
		return res, nil
	}

	err := s.record(ctx, itemID, journal.AggregateItem, EventItemReturned, ItemReturnedEvent{
		ItemID:     itemID,
		MemberID:   memberID,
		OccurredAt: s.now(),
	})
	if err != nil {
		undo := s.registry.UndoReturn(memberID, itemID, position)
		s.logger.WarnContext(ctx, "compensating return after journal failure",
			slog.String("member_id", memberID),
			slog.String("item_id", itemID),
			slog.String("compensation", string(undo.Kind)),
			slog.Any("error", err),
		)
		span.RecordError(err)
		return outcome.Outcome{}, fmt.Errorf("failed to journal return of %s: %w", itemID, err)
	}

	return res, nil
}

// Summary reports the catalog and roster.
func (s *service) Summary(ctx context.Context) (Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.registry.LibrarySummary(), nil
}

// record appends one event to the aggregate's stream at its current version.
func (s *service) record(ctx context.Context, aggregateID, aggregateType, eventType string, payload any) error {
	event, err := journal.NewEvent(eventType, payload)
	if err != nil {
		return err
	}
	if sc := trace.SpanContextFromContext(ctx); sc.HasTraceID() {
		event.Metadata = map[string]string{"trace_id": sc.TraceID().String()}
	}

	version, err := s.journal.CurrentVersion(ctx, aggregateID)
	if err != nil {
		return fmt.Errorf("read version of %s %s: %w", aggregateType, aggregateID, err)
	}

	return s.journal.AppendEvents(ctx, aggregateID, aggregateType, version, []journal.Event{event})
}

func (s *service) observe(ctx context.Context, span trace.Span, op outcome.Op, res outcome.Outcome) {
	span.SetAttributes(attribute.String("outcome.kind", string(res.Kind)))
	s.outcomes.Add(ctx, 1, metric.WithAttributes(
		attribute.String("op", string(op)),
		attribute.String("kind", string(res.Kind)),
	))
}
