// internal/circulation/registry.go
package circulation

import (
	"lendingregistry/internal/catalog"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/outcome"
)

// Registry owns the catalog and the roster and is the single entry point for
// borrow and return requests. It is single-threaded: callers that share a
// Registry across goroutines must serialize access, as Service does.
type Registry struct {
	items   *catalog.Catalog
	members *membership.Roster
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		items:   catalog.New(),
		members: membership.NewRoster(),
	}
}

// AddItem inserts item, replacing any item with the same id.
func (r *Registry) AddItem(item *catalog.Item) (replaced bool) {
	return r.items.Put(item)
}

// AddMember inserts member, replacing any member with the same id.
func (r *Registry) AddMember(member *membership.Member) (replaced bool) {
	return r.members.Put(member)
}

// FindMemberByID looks up a member. A missing member is a normal result.
func (r *Registry) FindMemberByID(id string) (*membership.Member, bool) {
	return r.members.Member(id)
}

// FindItemByID looks up an item.
func (r *Registry) FindItemByID(id string) (*catalog.Item, bool) {
	return r.items.Item(id)
}

// Items returns the catalog in insertion order.
func (r *Registry) Items() []*catalog.Item {
	return r.items.Items()
}

// Members returns the roster in insertion order.
func (r *Registry) Members() []*membership.Member {
	return r.members.Members()
}

// BorrowItem lends itemID to memberID. The member is resolved first.
func (r *Registry) BorrowItem(memberID, itemID string) outcome.Outcome {
	member, ok := r.members.Member(memberID)
	if !ok {
		return outcome.MemberNotFound(memberID)
	}
	item, ok := r.items.Item(itemID)
	if !ok {
		return outcome.ItemNotFound(itemID)
	}
	return member.BorrowItem(item)
}

// ReturnItem returns itemID on behalf of memberID. The item is resolved from
// the member's own list, so ids the member never borrowed fail there.
func (r *Registry) ReturnItem(memberID, itemID string) outcome.Outcome {
	member, ok := r.members.Member(memberID)
	if !ok {
		return outcome.MemberNotFound(memberID)
	}
	return member.ReturnItem(itemID, r.items)
}

// UndoReturn lends itemID back to memberID at position at in the member's
// borrowed list, reversing a ReturnItem.
func (r *Registry) UndoReturn(memberID, itemID string, at int) outcome.Outcome {
	member, ok := r.members.Member(memberID)
	if !ok {
		return outcome.MemberNotFound(memberID)
	}
	item, ok := r.items.Item(itemID)
	if !ok {
		return outcome.ItemNotFound(itemID)
	}
	return member.RestoreItem(item, at)
}

// BorrowedItems renders the member's held items.
func (r *Registry) BorrowedItems(memberID string) (string, bool) {
	member, ok := r.members.Member(memberID)
	if !ok {
		return "", false
	}
	return member.ListBorrowedItems(r.items), true
}

// LibrarySummary reports every item's details and every member's name.
func (r *Registry) LibrarySummary() Summary {
	s := Summary{
		Items:   make([]string, 0, r.items.Len()),
		Members: make([]string, 0, r.members.Len()),
	}
	for _, item := range r.items.Items() {
		s.Items = append(s.Items, item.Details())
	}
	for _, m := range r.members.Members() {
		s.Members = append(s.Members, m.Name)
	}
	return s
}
