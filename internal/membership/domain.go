// internal/membership/domain.go
package membership

import (
	"slices"
	"strings"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/outcome"
)

// Member is a library member. A member records the ids of the items it
// currently holds, in borrow order; the items themselves live in the catalog.
type Member struct {
	ID   string `json:"id"`
	Name string `json:"name"`

	borrowed []string
}

// NewMember creates a member holding no items.
func NewMember(id, name string) *Member {
	return &Member{ID: id, Name: name}
}

// BorrowedItemIDs returns a copy of the held item ids in borrow order.
func (m *Member) BorrowedItemIDs() []string {
	return slices.Clone(m.borrowed)
}

// Holds reports whether the member currently holds itemID.
func (m *Member) Holds(itemID string) bool {
	return slices.Contains(m.borrowed, itemID)
}

// BorrowItem borrows item on behalf of the member. The list is only extended
// when the item accepts the loan. item must belong to the catalog later passed
// to ReturnItem; callers go through circulation.Registry, which resolves both
// from the same catalog.
func (m *Member) BorrowItem(item *catalog.Item) outcome.Outcome {
	if !item.IsAvailable() {
		return outcome.ItemAlreadyBorrowed(item.ID, item.Title)
	}

	res := item.Borrow(m.Name)
	if res.OK() {
		m.borrowed = append(m.borrowed, item.ID)
	}
	return res
}

// ReturnItem returns a held item. Ids the member does not hold are rejected
// without touching the item, whoever has it. A held id that no longer
// resolves is dropped from the list and reported as not found.
func (m *Member) ReturnItem(itemID string, items catalog.Lookup) outcome.Outcome {
	idx := slices.Index(m.borrowed, itemID)
	if idx == -1 {
		return outcome.NotInBorrowedList(itemID, m.ID, m.Name)
	}

	item, ok := items.Item(itemID)
	if !ok {
		m.borrowed = slices.Delete(m.borrowed, idx, idx+1)
		return outcome.ItemNotFound(itemID)
	}

	res := item.Return()
	m.borrowed = slices.Delete(m.borrowed, idx, idx+1)
	return res
}

// RestoreItem re-borrows item and puts its id back at position at, clamped to
// the list bounds. It undoes a ReturnItem without disturbing borrow order.
func (m *Member) RestoreItem(item *catalog.Item, at int) outcome.Outcome {
	if m.Holds(item.ID) || !item.IsAvailable() {
		return outcome.ItemAlreadyBorrowed(item.ID, item.Title)
	}

	res := item.Borrow(m.Name)
	if res.OK() {
		at = max(0, min(at, len(m.borrowed)))
		m.borrowed = slices.Insert(m.borrowed, at, item.ID)
	}
	return res
}

// ListBorrowedItems renders one details line per held item.
func (m *Member) ListBorrowedItems(items catalog.Lookup) string {
	lines := make([]string, 0, len(m.borrowed))
	for _, id := range m.borrowed {
		if item, ok := items.Item(id); ok {
			lines = append(lines, item.Details())
		}
	}
	if len(lines) == 0 {
		return "No items borrowed."
	}
	return strings.Join(lines, "\n")
}

// View is a read-only snapshot of a member.
type View struct {
	ID              string   `json:"id"`
	Name            string   `json:"name"`
	BorrowedItemIDs []string `json:"borrowed_item_ids"`
}

// View snapshots the member.
func (m *Member) View() View {
	ids := m.BorrowedItemIDs()
	if ids == nil {
		ids = []string{}
	}
	return View{ID: m.ID, Name: m.Name, BorrowedItemIDs: ids}
}

// Credential holds a member's hashed passphrase.
type Credential struct {
	MemberID     string `json:"member_id"`
	PasswordHash string `json:"-"`
	Salt         string `json:"-"`
}

// MemberAddedEvent is published when a member joins (or is replaced in) the roster.
type MemberAddedEvent struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Replaced bool   `json:"replaced"`
}
