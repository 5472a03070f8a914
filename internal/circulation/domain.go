// internal/circulation/domain.go
package circulation

import (
	"strings"
	"time"
)

// Journal event types.
const (
	EventItemAdded    = "ItemAdded"
	EventMemberAdded  = "MemberAdded"
	EventItemBorrowed = "ItemBorrowed"
	EventItemReturned = "ItemReturned"
)

// ItemBorrowedEvent is published when an item is lent to a member.
type ItemBorrowedEvent struct {
	ItemID     string    `json:"item_id"`
	MemberID   string    `json:"member_id"`
	MemberName string    `json:"member_name"`
	OccurredAt time.Time `json:"occurred_at"`
}

// ItemReturnedEvent is published when a member returns an item.
type ItemReturnedEvent struct {
	ItemID     string    `json:"item_id"`
	MemberID   string    `json:"member_id"`
	OccurredAt time.Time `json:"occurred_at"`
}

// Summary lists every item's details and every member's name, in the order
// they were added.
type Summary struct {
	Items   []string `json:"items"`
	Members []string `json:"members"`
}

// String renders the summary report.
func (s Summary) String() string {
	var b strings.Builder
	b.WriteString("Library Items:\n")
	b.WriteString(strings.Join(s.Items, "\n"))
	b.WriteString("\n\nMembers:\n")
	b.WriteString(strings.Join(s.Members, ", "))
	return b.String()
}
