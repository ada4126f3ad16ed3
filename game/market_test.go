package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMarketBook_TakeRemovesAtZero(t *testing.T) {
	b := NewMarketBook(func() string { return "L1" })
	seller := &Player{ID: "a", Name: "Alice"}
	l := b.Add(seller, Water, 5, 3, testStart)
	assert.Equal(t, "Alice", l.SellerName)

	rem, ok := b.Take("L1", 2)
	require.True(t, ok)
	assert.Equal(t, 3, rem)

	_, ok = b.Take("L1", 4)
	assert.False(t, ok, "over-take must be refused")
	got, _ := b.Get("L1")
	assert.Equal(t, 3, got.Quantity)

	rem, ok = b.Take("L1", 3)
	require.True(t, ok)
	assert.Zero(t, rem)
	assert.Zero(t, b.Len())
}

func TestMarketBook_RemoveBySellerKeepsOthersInOrder(t *testing.T) {
	n := 0
	b := NewMarketBook(func() string { n++; return string(rune('A' + n - 1)) })
	a := &Player{ID: "a"}
	c := &Player{ID: "c"}
	b.Add(a, Water, 1, 1, testStart)
	b.Add(c, Hotdog, 2, 1, testStart)
	b.Add(a, Water, 3, 1, testStart)
	b.Add(c, Juice, 4, 1, testStart)

	removed := b.RemoveBySeller("a")
	require.Len(t, removed, 2)
	assert.Equal(t, 4, removed[0].Quantity+removed[1].Quantity)

	snap := b.Snapshot()
	require.Len(t, snap, 2)
	assert.Equal(t, "B", snap[0].ID)
	assert.Equal(t, "D", snap[1].ID)
	assert.Equal(t, 0, b.QuantityOf("a", Water))
}

func TestMarketBook_SnapshotIsACopy(t *testing.T) {
	b := NewMarketBook(nil)
	l := b.Add(&Player{ID: "a"}, Water, 2, 1, testStart)
	assert.NotEmpty(t, l.ID)

	snap := b.Snapshot()
	snap[0].Quantity = 99
	got, _ := b.Get(l.ID)
	assert.Equal(t, 2, got.Quantity)
}
