// internal/membership/service.go
package membership

import (
	"context"
	"errors"
)

var (
	ErrMemberNotFound     = errors.New("member not found")
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrRateLimited        = errors.New("rate limit exceeded")
)

// Service defines the membership operations exposed over the API.
type Service interface {
	AddMember(ctx context.Context, id, name, passphrase string) (View, error)
	GetMember(ctx context.Context, id string) (View, error)
	ListMembers(ctx context.Context) ([]View, error)
	BorrowedItems(ctx context.Context, id string) (string, error)
	Authenticate(ctx context.Context, id, passphrase string) error
}
