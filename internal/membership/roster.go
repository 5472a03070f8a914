// internal/membership/roster.go
package membership

// Roster owns every member, keyed by id and kept in insertion order.
// It is not safe for concurrent use.
type Roster struct {
	members map[string]*Member
	order   []string
}

// NewRoster returns an empty roster.
func NewRoster() *Roster {
	return &Roster{members: make(map[string]*Member)}
}

// Put inserts member, or overwrites the entry with the same id in place.
// The replacement takes over the items the previous record held.
func (r *Roster) Put(member *Member) (replaced bool) {
	if prev, ok := r.members[member.ID]; ok {
		member.borrowed = prev.borrowed
		r.members[member.ID] = member
		return true
	}
	r.members[member.ID] = member
	r.order = append(r.order, member.ID)
	return false
}

// Member returns the member with the given id.
func (r *Roster) Member(id string) (*Member, bool) {
	m, ok := r.members[id]
	return m, ok
}

// Members returns all members in insertion order.
func (r *Roster) Members() []*Member {
	members := make([]*Member, 0, len(r.order))
	for _, id := range r.order {
		members = append(members, r.members[id])
	}
	return members
}

// Len returns the number of members.
func (r *Roster) Len() int {
	return len(r.order)
}
