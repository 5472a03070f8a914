// cmd/chaos/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"lendingregistry/internal/chaos"
	"lendingregistry/internal/circulation"
	"lendingregistry/internal/journal"
	"lendingregistry/internal/telemetry"
)

func main() {
	duration := flag.Duration("duration", 2*time.Second, "observation window per experiment")
	members := flag.Int("members", 8, "members borrowing concurrently")
	flag.Parse()

	logger := telemetry.NewLogger(os.Stdout, "info", "text")
	ctx := context.Background()

	faulty := chaos.NewFaultyJournal(journal.NewMemoryJournal())
	svc := circulation.NewService(circulation.NewRegistry(), faulty,
		circulation.WithLogger(telemetry.NewLogger(os.Stderr, "error", "text")))
	if err := circulation.SeedSample(ctx, svc); err != nil {
		log.Fatalf("Failed to seed registry: %v", err)
	}

	target := chaos.Target{Service: svc, Journal: faulty}
	for _, item := range circulation.SampleItems() {
		target.ItemIDs = append(target.ItemIDs, item.ID)
	}
	for i := 0; i < *members; i++ {
		id := fmt.Sprintf("CHAOS%03d", i)
		if _, err := svc.AddMember(ctx, id, id, ""); err != nil {
			log.Fatalf("Failed to add member %s: %v", id, err)
		}
		target.MemberIDs = append(target.MemberIDs, id)
	}

	engine := chaos.NewEngine()
	engine.RegisterExperiments(target, *duration)

	results, err := engine.RunAll(ctx)
	if err != nil {
		log.Fatalf("Chaos run failed: %v", err)
	}

	failed := 0
	for _, r := range results {
		level := slog.LevelInfo
		if !r.HypothesisHeld {
			level = slog.LevelError
			failed++
		}
		logger.Log(ctx, level, "experiment finished",
			slog.String("name", r.ExperimentName),
			slog.Bool("hypothesis_held", r.HypothesisHeld),
			slog.Int("violations", len(r.Violations)),
			slog.Any("failed_assertions", r.FailedAssertions),
			slog.Duration("duration", r.Duration),
		)
	}
	logger.Info("journal faults injected", slog.Int64("count", faulty.Injected()))

	if failed > 0 {
		os.Exit(1)
	}
}
