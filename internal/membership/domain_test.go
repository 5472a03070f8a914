package membership

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"

	"lendingregistry/internal/catalog"
	"lendingregistry/internal/outcome"
)

func sampleCatalog() *catalog.Catalog {
	c := catalog.New()
	c.Put(catalog.NewLightNovel("L001", "Secrets of the Silent Witch", "Matsuri Isora"))
	c.Put(catalog.NewPeriodical("M001", "Bocchi the Rock", "2023-09"))
	c.Put(catalog.NewFiction("F001", "The Last Wish", 7))
	return c
}

func TestMemberBorrowItem(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	item, _ := items.Item("L001")

	got := m.BorrowItem(item)

	assert.Equal(t, outcome.Borrowed("L001", "Secrets of the Silent Witch", "SomChai"), got)
	assert.Equal(t, []string{"L001"}, m.BorrowedItemIDs())
	assert.False(t, item.IsAvailable())
}

func TestMemberBorrowUnavailableItem(t *testing.T) {
	items := sampleCatalog()
	holder := NewMember("MEM001", "SomChai")
	other := NewMember("MEM002", "Suda")
	item, _ := items.Item("F001")
	require.True(t, holder.BorrowItem(item).OK())

	got := other.BorrowItem(item)

	assert.Equal(t, outcome.AlreadyBorrowed, got.Kind)
	assert.Empty(t, other.BorrowedItemIDs())
	assert.Equal(t, []string{"F001"}, holder.BorrowedItemIDs())
}

func TestMemberReturnItem(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	item, _ := items.Item("M001")
	require.True(t, m.BorrowItem(item).OK())

	got := m.ReturnItem("M001", items)

	assert.Equal(t, outcome.Returned("M001", "Bocchi the Rock"), got)
	assert.Empty(t, m.BorrowedItemIDs())
	assert.True(t, item.IsAvailable())
}

func TestMemberReturnItemHeldByAnotherMember(t *testing.T) {
	items := sampleCatalog()
	holder := NewMember("MEM001", "SomChai")
	other := NewMember("MEM002", "Suda")
	item, _ := items.Item("F001")
	require.True(t, holder.BorrowItem(item).OK())

	got := other.ReturnItem("F001", items)

	assert.Equal(t, outcome.NotInBorrowedList("F001", "MEM002", "Suda"), got)
	assert.False(t, item.IsAvailable())
	assert.Equal(t, []string{"F001"}, holder.BorrowedItemIDs())
}

func TestMemberReturnKeepsBorrowOrder(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	for _, id := range []string{"L001", "M001", "F001"} {
		item, _ := items.Item(id)
		require.True(t, m.BorrowItem(item).OK())
	}

	require.True(t, m.ReturnItem("M001", items).OK())

	assert.Equal(t, []string{"L001", "F001"}, m.BorrowedItemIDs())
}

func TestMemberReturnDropsUnresolvableItem(t *testing.T) {
	m := NewMember("MEM001", "SomChai")
	stray := catalog.NewFiction("X001", "Not Catalogued", 3)
	require.True(t, m.BorrowItem(stray).OK())

	got := m.ReturnItem("X001", sampleCatalog())

	assert.Equal(t, outcome.ItemNotFound("X001"), got)
	assert.Empty(t, m.BorrowedItemIDs())
}

func TestMemberRestoreItemKeepsPosition(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	for _, id := range []string{"L001", "M001", "F001"} {
		item, _ := items.Item(id)
		require.True(t, m.BorrowItem(item).OK())
	}
	require.True(t, m.ReturnItem("M001", items).OK())

	item, _ := items.Item("M001")
	got := m.RestoreItem(item, 1)

	assert.True(t, got.OK())
	assert.Equal(t, []string{"L001", "M001", "F001"}, m.BorrowedItemIDs())
	assert.False(t, item.IsAvailable())
}

func TestMemberRestoreItemClampsPosition(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	item, _ := items.Item("L001")

	require.True(t, m.RestoreItem(item, 5).OK())
	assert.Equal(t, []string{"L001"}, m.BorrowedItemIDs())

	again := m.RestoreItem(item, 0)
	assert.Equal(t, outcome.AlreadyBorrowed, again.Kind)
	assert.Equal(t, []string{"L001"}, m.BorrowedItemIDs())
}

func TestMemberListBorrowedItemsNothingResolves(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	item, _ := items.Item("L001")
	require.True(t, m.BorrowItem(item).OK())

	assert.Equal(t, "No items borrowed.", m.ListBorrowedItems(catalog.New()))
}

func TestMemberListBorrowedItems(t *testing.T) {
	items := sampleCatalog()
	m := NewMember("MEM001", "SomChai")
	assert.Equal(t, "No items borrowed.", m.ListBorrowedItems(items))

	for _, id := range []string{"F001", "L001"} {
		item, _ := items.Item(id)
		m.BorrowItem(item)
	}

	assert.Equal(t,
		"Fiction: The Last Wish Duration: 7 days (ID: F001)\nLightNovel: Secrets of the Silent Witch by Matsuri Isora (ID: L001)",
		m.ListBorrowedItems(items))
}

func TestMemberViewNeverNil(t *testing.T) {
	view := NewMember("MEM001", "SomChai").View()
	assert.NotNil(t, view.BorrowedItemIDs)
	assert.Empty(t, view.BorrowedItemIDs)
}

// The borrowed list grows by one on each successful borrow, shrinks by one on
// each successful return, and is unchanged by failures.
func TestMemberBorrowedListLength(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		items := catalog.New()
		n := rapid.IntRange(1, 6).Draw(t, "items")
		ids := make([]string, n)
		for i := range ids {
			ids[i] = fmt.Sprintf("F%03d", i)
			items.Put(catalog.NewFiction(ids[i], "title "+ids[i], i+1))
		}
		members := []*Member{NewMember("MEM001", "A"), NewMember("MEM002", "B")}

		t.Repeat(map[string]func(*rapid.T){
			"borrow": func(t *rapid.T) {
				m := rapid.SampledFrom(members).Draw(t, "member")
				item, _ := items.Item(rapid.SampledFrom(ids).Draw(t, "item"))
				before := len(m.BorrowedItemIDs())
				if m.BorrowItem(item).OK() {
					assert.Equal(t, before+1, len(m.BorrowedItemIDs()))
				} else {
					assert.Equal(t, before, len(m.BorrowedItemIDs()))
				}
			},
			"return": func(t *rapid.T) {
				m := rapid.SampledFrom(members).Draw(t, "member")
				id := rapid.SampledFrom(ids).Draw(t, "item")
				before := len(m.BorrowedItemIDs())
				if m.ReturnItem(id, items).OK() {
					assert.Equal(t, before-1, len(m.BorrowedItemIDs()))
				} else {
					assert.Equal(t, before, len(m.BorrowedItemIDs()))
				}
			},
			"": func(t *rapid.T) {
				for _, id := range ids {
					item, _ := items.Item(id)
					holders := 0
					for _, m := range members {
						if m.Holds(id) {
							holders++
						}
					}
					if item.IsAvailable() {
						assert.Equal(t, 0, holders, "available item %s is held", id)
					} else {
						assert.Equal(t, 1, holders, "lent item %s held by %d members", id, holders)
					}
				}
			},
		})
	})
}
