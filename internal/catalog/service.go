// internal/catalog/service.go
package catalog

import (
	"context"
	"errors"
)

// ErrItemNotFound is returned when an item id is not in the catalog.
var ErrItemNotFound = errors.New("item not found")

// Service defines the catalog operations exposed over the API.
type Service interface {
	AddItem(ctx context.Context, item Item) (View, error)
	GetItem(ctx context.Context, id string) (View, error)
	ListItems(ctx context.Context) ([]View, error)
}
