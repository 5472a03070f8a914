// internal/catalog/domain.go
package catalog

import (
	"fmt"
	"strings"

	"lendingregistry/internal/outcome"
)

// Kind tags the variant of a loanable item.
type Kind string

const (
	KindLightNovel Kind = "light_novel"
	KindPeriodical Kind = "periodical"
	KindFiction    Kind = "fiction"
)

// ParseKind maps a wire value onto a Kind.
func ParseKind(s string) (Kind, error) {
	switch k := Kind(strings.ToLower(strings.TrimSpace(s))); k {
	case KindLightNovel, KindPeriodical, KindFiction:
		return k, nil
	default:
		return "", fmt.Errorf("unknown item kind %q", s)
	}
}

// Item is a loanable item. Every kind shares the same loan behavior and only
// the metadata fields relevant to Kind are set.
type Item struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Kind         Kind   `json:"kind"`
	Author       string `json:"author,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	DurationDays int    `json:"duration_days,omitempty"`

	borrowed bool
}

// NewLightNovel creates an available light novel.
func NewLightNovel(id, title, author string) *Item {
	return &Item{ID: id, Title: title, Kind: KindLightNovel, Author: author}
}

// NewPeriodical creates an available periodical issue.
func NewPeriodical(id, title, issueDate string) *Item {
	return &Item{ID: id, Title: title, Kind: KindPeriodical, IssueDate: issueDate}
}

// NewFiction creates an available fiction title lent for durationDays.
func NewFiction(id, title string, durationDays int) *Item {
	return &Item{ID: id, Title: title, Kind: KindFiction, DurationDays: durationDays}
}

// IsAvailable reports whether the item can be borrowed.
func (i *Item) IsAvailable() bool {
	return !i.borrowed
}

// Borrow marks the item as lent to borrowerName. Borrowing an unavailable
// item leaves it untouched and reports AlreadyBorrowed.
func (i *Item) Borrow(borrowerName string) outcome.Outcome {
	if i.borrowed {
		return outcome.ItemAlreadyBorrowed(i.ID, i.Title)
	}
	i.borrowed = true
	return outcome.Borrowed(i.ID, i.Title, borrowerName)
}

// Return marks the item as available again. Returning an available item
// leaves it untouched and reports NotBorrowed.
func (i *Item) Return() outcome.Outcome {
	if !i.borrowed {
		return outcome.ItemNotBorrowed(i.ID, i.Title)
	}
	i.borrowed = false
	return outcome.Returned(i.ID, i.Title)
}

// Details renders the item's descriptive line for its kind.
func (i *Item) Details() string {
	switch i.Kind {
	case KindLightNovel:
		return fmt.Sprintf("LightNovel: %s by %s (ID: %s)", i.Title, i.Author, i.ID)
	case KindPeriodical:
		return fmt.Sprintf("Periodical: %s Issue: %s (ID: %s)", i.Title, i.IssueDate, i.ID)
	case KindFiction:
		return fmt.Sprintf("Fiction: %s Duration: %d days (ID: %s)", i.Title, i.DurationDays, i.ID)
	default:
		return fmt.Sprintf("Item: %s (ID: %s)", i.Title, i.ID)
	}
}

// View is a read-only snapshot of an item, safe to hand outside the registry.
type View struct {
	ID           string `json:"id"`
	Title        string `json:"title"`
	Kind         Kind   `json:"kind"`
	Author       string `json:"author,omitempty"`
	IssueDate    string `json:"issue_date,omitempty"`
	DurationDays int    `json:"duration_days,omitempty"`
	Available    bool   `json:"available"`
	Details      string `json:"details"`
}

// View snapshots the item.
func (i *Item) View() View {
	return View{
		ID:           i.ID,
		Title:        i.Title,
		Kind:         i.Kind,
		Author:       i.Author,
		IssueDate:    i.IssueDate,
		DurationDays: i.DurationDays,
		Available:    i.IsAvailable(),
		Details:      i.Details(),
	}
}

// ItemAddedEvent is published when an item is added to (or replaced in) the catalog.
type ItemAddedEvent struct {
	ID       string `json:"id"`
	Title    string `json:"title"`
	Kind     Kind   `json:"kind"`
	Replaced bool   `json:"replaced"`
}
