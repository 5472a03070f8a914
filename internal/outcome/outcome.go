// Package outcome defines the closed set of results returned by every
// borrow and return operation in the registry.
package outcome

import "fmt"

// Kind classifies an Outcome.
type Kind string

const (
	Success         Kind = "success"
	NotFound        Kind = "not_found"
	AlreadyBorrowed Kind = "already_borrowed"
	NotBorrowed     Kind = "not_borrowed"
)

// Op names the transition a successful outcome applied.
type Op string

const (
	OpBorrow Op = "borrow"
	OpReturn Op = "return"
)

// Target says which entity a failure is about.
type Target string

const (
	TargetItem   Target = "item"
	TargetMember Target = "member"
)

// Outcome is the result of a borrow or return request. Failures are ordinary
// values, never errors: callers branch on Kind.
type Outcome struct {
	Kind       Kind   `json:"kind"`
	Op         Op     `json:"op,omitempty"`
	Target     Target `json:"target,omitempty"`
	ItemID     string `json:"item_id,omitempty"`
	ItemTitle  string `json:"item_title,omitempty"`
	MemberID   string `json:"member_id,omitempty"`
	MemberName string `json:"member_name,omitempty"`
}

// Borrowed reports a successful borrow of an item by borrower.
func Borrowed(itemID, title, borrower string) Outcome {
	return Outcome{Kind: Success, Op: OpBorrow, Target: TargetItem, ItemID: itemID, ItemTitle: title, MemberName: borrower}
}

// Returned reports a successful return of an item.
func Returned(itemID, title string) Outcome {
	return Outcome{Kind: Success, Op: OpReturn, Target: TargetItem, ItemID: itemID, ItemTitle: title}
}

// ItemAlreadyBorrowed reports a borrow attempt on an unavailable item.
func ItemAlreadyBorrowed(itemID, title string) Outcome {
	return Outcome{Kind: AlreadyBorrowed, Target: TargetItem, ItemID: itemID, ItemTitle: title}
}

// ItemNotBorrowed reports a return attempt on an item that is available.
func ItemNotBorrowed(itemID, title string) Outcome {
	return Outcome{Kind: NotBorrowed, Target: TargetItem, ItemID: itemID, ItemTitle: title}
}

// NotInBorrowedList reports a return attempt by a member who does not hold itemID.
func NotInBorrowedList(itemID, memberID, memberName string) Outcome {
	return Outcome{Kind: NotBorrowed, Target: TargetMember, ItemID: itemID, MemberID: memberID, MemberName: memberName}
}

// MemberNotFound reports an unknown member id.
func MemberNotFound(memberID string) Outcome {
	return Outcome{Kind: NotFound, Target: TargetMember, MemberID: memberID}
}

// ItemNotFound reports an unknown item id.
func ItemNotFound(itemID string) Outcome {
	return Outcome{Kind: NotFound, Target: TargetItem, ItemID: itemID}
}

// OK reports whether the outcome applied a transition.
func (o Outcome) OK() bool {
	return o.Kind == Success
}

// String renders the outcome as a human-readable message.
func (o Outcome) String() string {
	switch o.Kind {
	case Success:
		if o.Op == OpReturn {
			return fmt.Sprintf("Item %q returned", o.ItemTitle)
		}
		return fmt.Sprintf("Item %q borrowed by %s", o.ItemTitle, o.MemberName)
	case AlreadyBorrowed:
		return fmt.Sprintf("Item %q is already borrowed.", o.ItemTitle)
	case NotBorrowed:
		if o.Target == TargetMember {
			return fmt.Sprintf("Item with ID %s is not in %s's borrowed list.", o.ItemID, o.MemberName)
		}
		return fmt.Sprintf("Item %q was not borrowed.", o.ItemTitle)
	case NotFound:
		if o.Target == TargetMember {
			return fmt.Sprintf("Member %s not found", o.MemberID)
		}
		return fmt.Sprintf("Item %s not found", o.ItemID)
	default:
		return fmt.Sprintf("unknown outcome %q", string(o.Kind))
	}
}
