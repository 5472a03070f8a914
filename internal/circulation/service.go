// internal/circulation/service.go
package circulation

import (
	"context"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/outcome"
)

// Service is the request-level registry API: every call is one atomic unit
// against the shared Registry.
type Service interface {
	catalog.Service
	membership.Service
	BorrowItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error)
	ReturnItem(ctx context.Context, memberID, itemID string) (outcome.Outcome, error)
	Summary(ctx context.Context) (Summary, error)
}
