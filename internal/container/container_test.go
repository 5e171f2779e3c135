package container

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

// fakeBox is a minimal test Container standing in for a real entity
// container (e.g. a wooden storage box) before internal/entity exists.
type fakeBox struct {
	id     int64
	slots  int
	reject map[string]bool
}

func (b fakeBox) NumSlots() int { return b.slots }
func (b fakeBox) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerBox, b.id, slot)
}
func (b fakeBox) Accepts(def item.Definition) bool {
	return !b.reject[def.ID]
}
func (b fakeBox) Label() string { return "box" }

func catalog() *item.Catalog {
	return item.NewCatalog([]item.Definition{
		{ID: "wood", Category: item.CategoryMaterial, Stackable: true, StackSize: 1000},
		{ID: "stone", Category: item.CategoryMaterial, Stackable: true, StackSize: 1000},
		{ID: "hatchet", Category: item.CategoryTool, Stackable: false},
		{ID: "fertilizer", Category: item.CategoryMaterial, Stackable: true, StackSize: 100},
	})
}

func putInstance(t *testing.T, db DB, defID string, qty int, loc item.Location) string {
	t.Helper()
	id := item.NewInstanceID()
	require.NoError(t, item.Upsert(db, item.Instance{
		InstanceID: id, DefID: defID, Quantity: qty, Location: loc,
	}))
	return id
}

func TestMoveToSlotIntoEmpty(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	owner := ids.NewIdentity()
	box := fakeBox{id: 1, slots: 4}

	id := putInstance(t, s.DB, "wood", 50, item.NewInventoryLocation(owner, 0))

	require.NoError(t, MoveToSlot(s.DB, cat, id, box, 0))

	moved, err := item.GetAt(s.DB, box.SlotLocation(0))
	require.NoError(t, err)
	require.Equal(t, 50, moved.Quantity)

	_, err = item.GetAt(s.DB, item.NewInventoryLocation(owner, 0))
	require.Error(t, err)
}

func TestMoveToSlotMergesStacks(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 4}

	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: item.NewInstanceID(), DefID: "wood", Quantity: 900,
		Location: box.SlotLocation(0),
	}))
	id := putInstance(t, s.DB, "wood", 300, item.NewInventoryLocation(ids.NewIdentity(), 0))

	err := MoveToSlot(s.DB, cat, id, box, 0)
	require.NoError(t, err)

	dest, err := item.GetAt(s.DB, box.SlotLocation(0))
	require.NoError(t, err)
	require.Equal(t, 1000, dest.Quantity)

	// leftover 200 remains at source since MoveToSlot targets one fixed
	// slot with no "next candidate" to spill to (C3/C5).
	src, err := item.NewRepo(s.DB).Get(id)
	require.NoError(t, err)
	require.Equal(t, 200, src.Quantity)
}

func TestMoveToSlotRejectsByType(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	owner := ids.NewIdentity()
	box := fakeBox{id: 1, slots: 4, reject: map[string]bool{"fertilizer": true}}

	id := putInstance(t, s.DB, "fertilizer", 10, item.NewInventoryLocation(owner, 0))

	err := MoveToSlot(s.DB, cat, id, box, 0)
	require.ErrorIs(t, err, ErrRejected)

	// no writes: the item stays put (C5).
	src, err := item.NewRepo(s.DB).Get(id)
	require.NoError(t, err)
	require.Equal(t, 10, src.Quantity)
}

func TestMoveToSlotFailsWhenSlotOccupiedByDifferentDef(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 4}

	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: item.NewInstanceID(), DefID: "stone", Quantity: 5,
		Location: box.SlotLocation(0),
	}))
	id := putInstance(t, s.DB, "wood", 5, item.NewInventoryLocation(ids.NewIdentity(), 0))

	err := MoveToSlot(s.DB, cat, id, box, 0)
	require.ErrorIs(t, err, ErrRejected)
}

func TestSplitIntoSlot(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 4}
	owner := ids.NewIdentity()

	id := putInstance(t, s.DB, "wood", 100, item.NewInventoryLocation(owner, 0))

	require.NoError(t, SplitIntoSlot(s.DB, cat, id, 30, box, 0))

	split, err := item.GetAt(s.DB, box.SlotLocation(0))
	require.NoError(t, err)
	require.Equal(t, 30, split.Quantity)

	src, err := item.NewRepo(s.DB).Get(id)
	require.NoError(t, err)
	require.Equal(t, 70, src.Quantity)
}

func TestSplitAllDeletesSource(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 4}
	owner := ids.NewIdentity()

	id := putInstance(t, s.DB, "wood", 40, item.NewInventoryLocation(owner, 0))
	require.NoError(t, SplitIntoSlot(s.DB, cat, id, 40, box, 0))

	_, err := item.NewRepo(s.DB).Get(id)
	require.Error(t, err)
}

func TestQuickMoveToFindsMergeableThenEmpty(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 3}

	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: item.NewInstanceID(), DefID: "stone", Quantity: 10,
		Location: box.SlotLocation(0),
	}))
	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: item.NewInstanceID(), DefID: "wood", Quantity: 500,
		Location: box.SlotLocation(1),
	}))
	owner := ids.NewIdentity()
	id := putInstance(t, s.DB, "wood", 50, item.NewInventoryLocation(owner, 0))

	require.NoError(t, QuickMoveTo(s.DB, cat, id, box))

	dest, err := item.GetAt(s.DB, box.SlotLocation(1))
	require.NoError(t, err)
	require.Equal(t, 550, dest.Quantity)

	_, empty, err := getAt(s.DB, box.SlotLocation(2))
	require.NoError(t, err)
	require.False(t, empty)
}

func TestMoveWithinMovesIntoEmptySlot(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 4}

	id := putInstance(t, s.DB, "wood", 10, box.SlotLocation(0))

	require.NoError(t, MoveWithin(s.DB, cat, box, 0, 2))

	_, occupied, err := getAt(s.DB, box.SlotLocation(0))
	require.NoError(t, err)
	require.False(t, occupied)

	moved, err := item.GetAt(s.DB, box.SlotLocation(2))
	require.NoError(t, err)
	require.Equal(t, id, moved.InstanceID)
}

func TestDropFromSlotClearsPlacedAt(t *testing.T) {
	s := testutil.OpenStore(t)
	box := fakeBox{id: 1, slots: 4}
	ts := int64(500)

	id := item.NewInstanceID()
	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: id, DefID: "wood", Quantity: 1,
		Location: box.SlotLocation(0), Data: item.Data{PlacedAtUs: &ts},
	}))

	require.NoError(t, DropFromSlot(s.DB, box, 0, 777))

	dropped, err := item.GetAt(s.DB, item.NewDroppedLocation(777))
	require.NoError(t, err)
	require.Nil(t, dropped.Data.PlacedAtUs)
}

func TestInvalidSlotIndexRejected(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	box := fakeBox{id: 1, slots: 2}
	id := putInstance(t, s.DB, "wood", 1, item.NewInventoryLocation(ids.NewIdentity(), 0))

	err := MoveToSlot(s.DB, cat, id, box, 5)
	require.ErrorIs(t, err, ErrInvalidSlot)
}
