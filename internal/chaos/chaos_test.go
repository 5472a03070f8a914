package chaos

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/circulation"
	"lendingregistry/internal/journal"
)

func newTarget(t *testing.T) Target {
	t.Helper()
	ctx := context.Background()
	faulty := NewFaultyJournal(journal.NewMemoryJournal())
	svc := circulation.NewService(circulation.NewRegistry(), faulty,
		circulation.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))

	target := Target{Service: svc, Journal: faulty}
	for i := 0; i < 3; i++ {
		id := fmt.Sprintf("F%03d", i)
		_, err := svc.AddItem(ctx, *catalog.NewFiction(id, "title", 7))
		require.NoError(t, err)
		target.ItemIDs = append(target.ItemIDs, id)
	}
	for i := 0; i < 5; i++ {
		id := fmt.Sprintf("MEM%03d", i)
		_, err := svc.AddMember(ctx, id, id, "")
		require.NoError(t, err)
		target.MemberIDs = append(target.MemberIDs, id)
	}
	return target
}

func TestRegisteredExperimentsHold(t *testing.T) {
	target := newTarget(t)
	engine := NewEngine()
	engine.RegisterExperiments(target, 20*time.Millisecond)

	results, err := engine.RunAll(context.Background())
	require.NoError(t, err)
	require.Len(t, results, 3)

	for _, r := range results {
		assert.True(t, r.SteadyStateValid, r.ExperimentName)
		assert.True(t, r.HypothesisHeld, "%s: %v", r.ExperimentName, r.FailedAssertions)
		assert.Empty(t, r.Violations, r.ExperimentName)
		assert.NotEmpty(t, r.Observations, r.ExperimentName)
	}
	assert.Positive(t, target.Journal.Injected())
	assert.Len(t, engine.Results(), 3)
}

func TestJournalOutageLeavesEveryItemAvailable(t *testing.T) {
	target := newTarget(t)

	result, err := NewEngine().Run(context.Background(), JournalOutageExperiment(target, 10*time.Millisecond))
	require.NoError(t, err)
	assert.True(t, result.HypothesisHeld)

	items, err := target.Service.ListItems(context.Background())
	require.NoError(t, err)
	for _, item := range items {
		assert.True(t, item.Available, item.ID)
	}
}

func TestRunAbortsOnInvalidSteadyState(t *testing.T) {
	exp := Experiment{
		Name: "broken",
		SteadyState: []Metric{{
			Name:      "always_bad",
			Query:     func(context.Context) (float64, error) { return 5, nil },
			Threshold: Threshold{Operator: "<", Value: 1},
		}},
		Method: []Action{{Execute: func(context.Context) error {
			t.Fatal("method must not run")
			return nil
		}}},
		Duration: time.Millisecond,
	}

	engine := NewEngine()
	engine.Register(exp)
	result, err := engine.Run(context.Background(), exp)

	assert.ErrorIs(t, err, ErrSteadyStateInvalid)
	assert.False(t, result.SteadyStateValid)
	require.Len(t, result.Violations, 1)
	assert.Equal(t, float64(5), result.Violations[0].Actual)

	results, err := engine.RunAll(context.Background())
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestRunRecordsFailedAssertionsAndActionErrors(t *testing.T) {
	value := 0.0
	exp := Experiment{
		Name: "degrading",
		SteadyState: []Metric{{
			Name:      "errors",
			Query:     func(context.Context) (float64, error) { return value, nil },
			Threshold: Threshold{Operator: "<=", Value: 0},
		}},
		Method: []Action{
			{Target: "registry", Execute: func(context.Context) error {
				value = 3
				return errors.New("boom")
			}},
		},
		Validation: []Assertion{{
			Metric:    "errors",
			Condition: func(v float64) bool { return v == 0 },
			Message:   "no errors remain",
		}},
		Duration:    5 * time.Millisecond,
		SampleEvery: time.Millisecond,
	}

	result, err := NewEngine().Run(context.Background(), exp)
	require.NoError(t, err)

	assert.False(t, result.HypothesisHeld)
	assert.Equal(t, []string{"no errors remain"}, result.FailedAssertions)
	assert.NotEmpty(t, result.Violations)
	require.NotEmpty(t, result.ErrorEvents)
	assert.Equal(t, "registry", result.ErrorEvents[0].Component)
}

func TestEvaluateThreshold(t *testing.T) {
	tests := []struct {
		op    string
		value float64
		want  bool
	}{
		{">", 2, true},
		{"<", 2, false},
		{">=", 1, true},
		{"<=", 1, true},
		{"==", 1, true},
		{"!=", 1, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, evaluateThreshold(tt.value, Threshold{Operator: tt.op, Value: 1}), tt.op)
	}
}

func TestFaultyJournal(t *testing.T) {
	ctx := context.Background()
	faulty := NewFaultyJournal(journal.NewMemoryJournal())
	event, err := journal.NewEvent("ItemAdded", map[string]string{"id": "F001"})
	require.NoError(t, err)

	require.NoError(t, faulty.AppendEvents(ctx, "F001", journal.AggregateItem, 0, []journal.Event{event}))

	faulty.FailEvery(2)
	assert.ErrorIs(t, faulty.AppendEvents(ctx, "F001", journal.AggregateItem, 1, []journal.Event{event}), ErrInjectedFault)
	assert.NoError(t, faulty.AppendEvents(ctx, "F001", journal.AggregateItem, 1, []journal.Event{event}))
	assert.Equal(t, int64(1), faulty.Injected())

	faulty.Reset()
	faulty.SetLatency(time.Hour)
	canceled, cancel := context.WithCancel(ctx)
	cancel()
	assert.ErrorIs(t, faulty.AppendEvents(canceled, "F001", journal.AggregateItem, 2, []journal.Event{event}), context.Canceled)

	version, err := faulty.CurrentVersion(ctx, "F001")
	require.NoError(t, err)
	assert.Equal(t, 2, version)
}
