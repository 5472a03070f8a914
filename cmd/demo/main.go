// cmd/demo/main.go
package main

import (
	"context"
	"flag"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"time"

	"lendingregistry/internal/circulation"
	"lendingregistry/internal/clients"
	"lendingregistry/internal/journal"
	"lendingregistry/internal/telemetry"
)

func main() {
	addr := flag.String("addr", "", "registry base URL; empty runs an in-process registry")
	seed := flag.Bool("seed", true, "add the sample catalog before the session")
	logLevel := flag.String("log-level", "warn", "log level")
	flag.Parse()

	logger := telemetry.NewLogger(os.Stderr, *logLevel, "text")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	var svc circulation.Service
	if *addr != "" {
		svc = clients.NewRegistryClient(*addr, nil)
	} else {
		svc = circulation.NewService(circulation.NewRegistry(), journal.NewMemoryJournal(), circulation.WithLogger(logger))
	}

	if *seed {
		if err := circulation.SeedSample(ctx, svc); err != nil {
			log.Fatalf("Failed to seed registry: %v", err)
		}
	}

	if err := run(ctx, svc, os.Stdout); err != nil {
		logger.Error("demo session failed", slog.Any("error", err))
		os.Exit(1)
	}
}

// run borrows and returns L001 for MEM001, listing the member's items after
// each step, then prints the details of F001.
func run(ctx context.Context, svc circulation.Service, w io.Writer) error {
	res, err := svc.BorrowItem(ctx, "MEM001", "L001")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res)

	if err := printBorrowed(ctx, svc, w, "MEM001"); err != nil {
		return err
	}

	res, err = svc.ReturnItem(ctx, "MEM001", "L001")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, res)

	if err := printBorrowed(ctx, svc, w, "MEM001"); err != nil {
		return err
	}

	item, err := svc.GetItem(ctx, "F001")
	if err != nil {
		return err
	}
	fmt.Fprintln(w, item.Details)
	return nil
}

func printBorrowed(ctx context.Context, svc circulation.Service, w io.Writer, memberID string) error {
	listing, err := svc.BorrowedItems(ctx, memberID)
	if err != nil {
		return err
	}
	fmt.Fprintln(w, listing)
	return nil
}
