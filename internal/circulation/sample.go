// internal/circulation/sample.go
package circulation

import (
	"context"
	"fmt"

	"lendingregistry/internal/catalog"
)

// SampleItems is the starter catalog loaded by the server and the demo.
func SampleItems() []*catalog.Item {
	return []*catalog.Item{
		catalog.NewLightNovel("L001", "Secrets of the Silent Witch", "Matsuri Isora"),
		catalog.NewPeriodical("M001", "Bocchi the Rock", "2023-09"),
		catalog.NewFiction("F001", "The Last Wish", 7),
	}
}

// SeedSample adds the sample catalog and member MEM001 through svc.
func SeedSample(ctx context.Context, svc Service) error {
	for _, item := range SampleItems() {
		if _, err := svc.AddItem(ctx, *item); err != nil {
			return fmt.Errorf("seed item %s: %w", item.ID, err)
		}
	}
	if _, err := svc.AddMember(ctx, "MEM001", "SomChai", ""); err != nil {
		return fmt.Errorf("seed member MEM001: %w", err)
	}
	return nil
}
