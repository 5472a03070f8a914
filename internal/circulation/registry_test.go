package circulation

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/membership"
	"lendingregistry/internal/outcome"
)

func sampleRegistry() *Registry {
	r := NewRegistry()
	r.AddItem(catalog.NewLightNovel("L001", "Secrets of the Silent Witch", "Matsuri Isora"))
	r.AddItem(catalog.NewPeriodical("M001", "Bocchi the Rock", "2023-09"))
	r.AddItem(catalog.NewFiction("F001", "The Last Wish", 7))
	r.AddMember(membership.NewMember("MEM001", "SomChai"))
	return r
}

func TestRegistryBorrowAndReturn(t *testing.T) {
	r := sampleRegistry()
	item, _ := r.FindItemByID("L001")
	member, _ := r.FindMemberByID("MEM001")

	got := r.BorrowItem("MEM001", "L001")
	assert.Equal(t, outcome.Success, got.Kind)
	assert.Equal(t, `Item "Secrets of the Silent Witch" borrowed by SomChai`, got.String())
	assert.False(t, item.IsAvailable())
	assert.Len(t, member.BorrowedItemIDs(), 1)

	got = r.ReturnItem("MEM001", "L001")
	assert.Equal(t, outcome.Success, got.Kind)
	assert.Equal(t, `Item "Secrets of the Silent Witch" returned`, got.String())
	assert.True(t, item.IsAvailable())
	assert.Empty(t, member.BorrowedItemIDs())
}

func TestRegistryBorrowUnknownMember(t *testing.T) {
	r := sampleRegistry()
	before := r.LibrarySummary()

	got := r.BorrowItem("MEM999", "L001")

	assert.Equal(t, outcome.MemberNotFound("MEM999"), got)
	assert.Equal(t, "Member MEM999 not found", got.String())
	item, _ := r.FindItemByID("L001")
	assert.True(t, item.IsAvailable())
	assert.Equal(t, before, r.LibrarySummary())
}

func TestRegistryBorrowUnknownMemberAndItemNamesMember(t *testing.T) {
	got := sampleRegistry().BorrowItem("MEM999", "X999")
	assert.Equal(t, outcome.TargetMember, got.Target)
}

func TestRegistryBorrowUnknownItem(t *testing.T) {
	r := sampleRegistry()
	member, _ := r.FindMemberByID("MEM001")

	got := r.BorrowItem("MEM001", "X999")

	assert.Equal(t, outcome.ItemNotFound("X999"), got)
	assert.Empty(t, member.BorrowedItemIDs())
}

func TestRegistryReturnNeverBorrowed(t *testing.T) {
	r := sampleRegistry()
	r.AddMember(membership.NewMember("MEM002", "Suda"))
	require.True(t, r.BorrowItem("MEM002", "F001").OK())

	got := r.ReturnItem("MEM001", "F001")

	assert.Equal(t, outcome.NotBorrowed, got.Kind)
	assert.Equal(t, "Item with ID F001 is not in SomChai's borrowed list.", got.String())
	item, _ := r.FindItemByID("F001")
	assert.False(t, item.IsAvailable())
	holder, _ := r.FindMemberByID("MEM002")
	assert.Equal(t, []string{"F001"}, holder.BorrowedItemIDs())
}

func TestRegistryReturnUnknownMember(t *testing.T) {
	got := sampleRegistry().ReturnItem("MEM999", "L001")
	assert.Equal(t, outcome.MemberNotFound("MEM999"), got)
}

func TestRegistryBorrowTwice(t *testing.T) {
	r := sampleRegistry()
	member, _ := r.FindMemberByID("MEM001")
	require.True(t, r.BorrowItem("MEM001", "M001").OK())

	got := r.BorrowItem("MEM001", "M001")

	assert.Equal(t, outcome.AlreadyBorrowed, got.Kind)
	assert.Equal(t, []string{"M001"}, member.BorrowedItemIDs())
}

func TestRegistryUndoReturnRestoresOrder(t *testing.T) {
	r := sampleRegistry()
	member, _ := r.FindMemberByID("MEM001")
	require.True(t, r.BorrowItem("MEM001", "L001").OK())
	require.True(t, r.BorrowItem("MEM001", "F001").OK())
	require.True(t, r.ReturnItem("MEM001", "L001").OK())

	got := r.UndoReturn("MEM001", "L001", 0)

	assert.True(t, got.OK())
	assert.Equal(t, []string{"L001", "F001"}, member.BorrowedItemIDs())
	assert.Equal(t, outcome.MemberNotFound("MEM999"), r.UndoReturn("MEM999", "L001", 0))
	assert.Equal(t, outcome.ItemNotFound("X999"), r.UndoReturn("MEM001", "X999", 0))
}

func TestRegistryFindMemberByID(t *testing.T) {
	r := sampleRegistry()

	m, ok := r.FindMemberByID("MEM001")
	require.True(t, ok)
	assert.Equal(t, "SomChai", m.Name)

	_, ok = r.FindMemberByID("MEM999")
	assert.False(t, ok)
}

func TestRegistryBorrowedItems(t *testing.T) {
	r := sampleRegistry()

	listing, ok := r.BorrowedItems("MEM001")
	require.True(t, ok)
	assert.Equal(t, "No items borrowed.", listing)

	r.BorrowItem("MEM001", "F001")
	listing, _ = r.BorrowedItems("MEM001")
	assert.Equal(t, "Fiction: The Last Wish Duration: 7 days (ID: F001)", listing)

	_, ok = r.BorrowedItems("MEM999")
	assert.False(t, ok)
}

func TestRegistryLibrarySummary(t *testing.T) {
	r := sampleRegistry()
	r.AddMember(membership.NewMember("MEM002", "Suda"))

	want := "Library Items:\n" +
		"LightNovel: Secrets of the Silent Witch by Matsuri Isora (ID: L001)\n" +
		"Periodical: Bocchi the Rock Issue: 2023-09 (ID: M001)\n" +
		"Fiction: The Last Wish Duration: 7 days (ID: F001)\n" +
		"\n" +
		"Members:\n" +
		"SomChai, Suda"
	assert.Equal(t, want, r.LibrarySummary().String())
}

func TestRegistryAddItemLastWriteWins(t *testing.T) {
	r := sampleRegistry()
	require.True(t, r.BorrowItem("MEM001", "F001").OK())

	assert.True(t, r.AddItem(catalog.NewFiction("F001", "Sword of Destiny", 14)))

	item, _ := r.FindItemByID("F001")
	assert.Equal(t, "Sword of Destiny", item.Title)
	assert.False(t, item.IsAvailable())
	assert.True(t, r.ReturnItem("MEM001", "F001").OK())
	assert.True(t, item.IsAvailable())
}

func TestRegistryAddMemberLastWriteWins(t *testing.T) {
	r := sampleRegistry()
	require.True(t, r.BorrowItem("MEM001", "L001").OK())

	assert.True(t, r.AddMember(membership.NewMember("MEM001", "Somchai J.")))

	assert.Equal(t, []string{"Somchai J."}, r.LibrarySummary().Members)
	assert.True(t, r.ReturnItem("MEM001", "L001").OK())
}

// Random borrow/return sequences keep every lent item in exactly one
// member's list and every available item in none.
func TestRegistryLoanInvariant(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		r := NewRegistry()
		itemIDs := make([]string, rapid.IntRange(1, 5).Draw(t, "items"))
		for i := range itemIDs {
			itemIDs[i] = fmt.Sprintf("L%03d", i)
			r.AddItem(catalog.NewLightNovel(itemIDs[i], "title", "author"))
		}
		memberIDs := make([]string, rapid.IntRange(1, 4).Draw(t, "members"))
		for i := range memberIDs {
			memberIDs[i] = fmt.Sprintf("MEM%03d", i)
			r.AddMember(membership.NewMember(memberIDs[i], memberIDs[i]))
		}
		// ids that resolve to nothing
		memberPool := append([]string{"MEM999"}, memberIDs...)
		itemPool := append([]string{"X999"}, itemIDs...)

		t.Repeat(map[string]func(*rapid.T){
			"borrow": func(t *rapid.T) {
				memberID := rapid.SampledFrom(memberPool).Draw(t, "member")
				itemID := rapid.SampledFrom(itemPool).Draw(t, "item")
				item, known := r.FindItemByID(itemID)
				wasAvailable := known && item.IsAvailable()

				got := r.BorrowItem(memberID, itemID)

				if got.OK() {
					assert.True(t, wasAvailable)
					assert.False(t, item.IsAvailable())
				}
			},
			"return": func(t *rapid.T) {
				memberID := rapid.SampledFrom(memberPool).Draw(t, "member")
				itemID := rapid.SampledFrom(itemPool).Draw(t, "item")
				member, known := r.FindMemberByID(memberID)
				held := known && member.Holds(itemID)

				got := r.ReturnItem(memberID, itemID)

				assert.Equal(t, held, got.OK())
				if got.OK() {
					item, _ := r.FindItemByID(itemID)
					assert.True(t, item.IsAvailable())
				}
			},
			"": func(t *rapid.T) {
				for _, item := range r.Items() {
					holders := 0
					for _, m := range r.Members() {
						if m.Holds(item.ID) {
							holders++
						}
					}
					if item.IsAvailable() {
						assert.Zero(t, holders, "available item %s is held", item.ID)
					} else {
						assert.Equal(t, 1, holders, "lent item %s has %d holders", item.ID, holders)
					}
				}
			},
		})
	})
}
