// internal/catalog/catalog.go
package catalog

// Lookup resolves item ids to the catalog's canonical item instances.
type Lookup interface {
	Item(id string) (*Item, bool)
}

// Catalog owns every item, keyed by id and kept in insertion order.
// It is not safe for concurrent use.
type Catalog struct {
	items map[string]*Item
	order []string
}

// New returns an empty catalog.
func New() *Catalog {
	return &Catalog{items: make(map[string]*Item)}
}

// Put inserts item, or overwrites the entry with the same id in place.
// An overwritten entry that was on loan hands its loan state to the new
// record so the item stays accounted for in the borrower's list. New entries
// always start available.
func (c *Catalog) Put(item *Item) (replaced bool) {
	if prev, ok := c.items[item.ID]; ok {
		item.borrowed = prev.borrowed
		c.items[item.ID] = item
		return true
	}
	item.borrowed = false
	c.items[item.ID] = item
	c.order = append(c.order, item.ID)
	return false
}

// Item returns the item with the given id.
func (c *Catalog) Item(id string) (*Item, bool) {
	item, ok := c.items[id]
	return item, ok
}

// Items returns all items in insertion order.
func (c *Catalog) Items() []*Item {
	items := make([]*Item, 0, len(c.order))
	for _, id := range c.order {
		items = append(items, c.items[id])
	}
	return items
}

// Len returns the number of items.
func (c *Catalog) Len() int {
	return len(c.order)
}
