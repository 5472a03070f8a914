// internal/chaos/experiments.go
package chaos

import (
	"context"
	"fmt"
	"sync"
	"time"

	"lendingregistry/internal/circulation"
)

// Target is the registry an experiment runs against.
type Target struct {
	Service   circulation.Service
	Journal   *FaultyJournal
	MemberIDs []string
	ItemIDs   []string
}

// RegisterExperiments registers the predefined registry experiments.
func (e *Engine) RegisterExperiments(t Target, duration time.Duration) {
	e.Register(
		JournalOutageExperiment(t, duration),
		IntermittentJournalExperiment(t, duration),
		ConcurrentBorrowExperiment(t, duration),
	)
}

// LoanConsistency counts items whose availability disagrees with the
// members' borrowed lists. A lent item must be held by exactly one member
// and an available item by none.
func LoanConsistency(svc circulation.Service) Metric {
	return Metric{
		Name: "loan_inconsistencies",
		Query: func(ctx context.Context) (float64, error) {
			items, err := svc.ListItems(ctx)
			if err != nil {
				return 0, err
			}
			members, err := svc.ListMembers(ctx)
			if err != nil {
				return 0, err
			}

			holders := make(map[string]int)
			for _, m := range members {
				for _, id := range m.BorrowedItemIDs {
					holders[id]++
				}
			}

			var bad float64
			for _, item := range items {
				want := 0
				if !item.Available {
					want = 1
				}
				if holders[item.ID] != want {
					bad++
				}
			}
			return bad, nil
		},
		Threshold: Threshold{Operator: "==", Value: 0},
	}
}

// JournalOutageExperiment fails every journal append while members borrow
// and return. Every loan must be compensated.
func JournalOutageExperiment(t Target, duration time.Duration) Experiment {
	return Experiment{
		Name:        "journal-outage",
		Hypothesis:  "Loans that cannot be journaled are undone and the registry stays consistent",
		SteadyState: []Metric{LoanConsistency(t.Service)},
		Method: []Action{
			{Type: "fault", Target: "journal", Execute: func(context.Context) error {
				t.Journal.FailEvery(1)
				return nil
			}},
			{Type: "load", Target: "registry", Execute: func(ctx context.Context) error {
				return runLoad(ctx, t, 4)
			}},
		},
		Rollback: []Action{
			{Type: "recover", Target: "journal", Execute: func(context.Context) error {
				t.Journal.Reset()
				return nil
			}},
		},
		Validation: []Assertion{{
			Metric:    "loan_inconsistencies",
			Condition: func(v float64) bool { return v == 0 },
			Message:   "every lent item is held by exactly one member",
		}},
		Duration:    duration,
		SampleEvery: duration / 4,
	}
}

// IntermittentJournalExperiment fails every third append and slows the rest.
func IntermittentJournalExperiment(t Target, duration time.Duration) Experiment {
	return Experiment{
		Name:        "intermittent-journal",
		Hypothesis:  "Partial journal failures never leave an item lent without a holder",
		SteadyState: []Metric{LoanConsistency(t.Service)},
		Method: []Action{
			{Type: "fault", Target: "journal", Execute: func(context.Context) error {
				t.Journal.FailEvery(3)
				t.Journal.SetLatency(time.Millisecond)
				return nil
			}},
			{Type: "load", Target: "registry", Execute: func(ctx context.Context) error {
				return runLoad(ctx, t, 8)
			}},
		},
		Rollback: []Action{
			{Type: "recover", Target: "journal", Execute: func(context.Context) error {
				t.Journal.Reset()
				return nil
			}},
		},
		Validation: []Assertion{{
			Metric:    "loan_inconsistencies",
			Condition: func(v float64) bool { return v == 0 },
			Message:   "every lent item is held by exactly one member",
		}},
		Duration:    duration,
		SampleEvery: duration / 4,
	}
}

// ConcurrentBorrowExperiment has every member borrow the first item at once.
func ConcurrentBorrowExperiment(t Target, duration time.Duration) Experiment {
	itemID := t.ItemIDs[0]
	metric := fmt.Sprintf("holders_of_%s", itemID)

	return Experiment{
		Name:       "concurrent-borrow-race",
		Hypothesis: "An item is lent to at most one member under concurrent borrows",
		SteadyState: []Metric{{
			Name: metric,
			Query: func(ctx context.Context) (float64, error) {
				members, err := t.Service.ListMembers(ctx)
				if err != nil {
					return 0, err
				}
				var n float64
				for _, m := range members {
					for _, id := range m.BorrowedItemIDs {
						if id == itemID {
							n++
						}
					}
				}
				return n, nil
			},
			Threshold: Threshold{Operator: "<=", Value: 1},
		}},
		Method: []Action{
			{Type: "load", Target: itemID, Execute: func(ctx context.Context) error {
				var wg sync.WaitGroup
				for _, memberID := range t.MemberIDs {
					wg.Add(1)
					go func() {
						defer wg.Done()
						_, _ = t.Service.BorrowItem(ctx, memberID, itemID)
					}()
				}
				wg.Wait()
				return nil
			}},
		},
		Rollback: []Action{
			{Type: "recover", Target: itemID, Execute: func(ctx context.Context) error {
				for _, memberID := range t.MemberIDs {
					if _, err := t.Service.ReturnItem(ctx, memberID, itemID); err != nil {
						return err
					}
				}
				return nil
			}},
		},
		Validation: []Assertion{{
			Metric:    metric,
			Condition: func(v float64) bool { return v <= 1 },
			Message:   "the item has at most one holder",
		}},
		Duration:    duration,
		SampleEvery: duration / 4,
	}
}

// runLoad has every member alternate borrows and returns across the items.
// Journal failures surface as errors from the service and are expected.
func runLoad(ctx context.Context, t Target, rounds int) error {
	var wg sync.WaitGroup
	for m, memberID := range t.MemberIDs {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < rounds; i++ {
				itemID := t.ItemIDs[(m+i/2)%len(t.ItemIDs)]
				if i%2 == 0 {
					_, _ = t.Service.BorrowItem(ctx, memberID, itemID)
				} else {
					_, _ = t.Service.ReturnItem(ctx, memberID, itemID)
				}
			}
		}()
	}
	wg.Wait()
	return ctx.Err()
}
