package inventory

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func catalog() *item.Catalog {
	chest := item.SlotChest
	return item.NewCatalog([]item.Definition{
		{ID: "wood", Category: item.CategoryMaterial, Stackable: true, StackSize: 1000},
		{ID: "leather_chest", Category: item.CategoryArmor, ArmorSlot: &chest},
	})
}

func TestSlotForArmor(t *testing.T) {
	require.Equal(t, 1, SlotForArmor(item.SlotChest))
	require.Equal(t, -1, SlotForArmor(item.ArmorSlot("Tail")))
}

func TestEquippedAcceptsOnlyArmor(t *testing.T) {
	cat := catalog()
	wood, _ := cat.Lookup("wood")
	chest, _ := cat.Lookup("leather_chest")

	eq := Equipped{Owner: ids.NewIdentity()}
	require.False(t, eq.Accepts(wood))
	require.True(t, eq.Accepts(chest))
}

func TestMoveFromInventoryToEquipped(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	owner := ids.NewIdentity()

	id := item.NewInstanceID()
	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: id, DefID: "leather_chest", Quantity: 1,
		Location: item.NewInventoryLocation(owner, 0),
	}))

	eq := Equipped{Owner: owner}
	slot := SlotForArmor(item.SlotChest)
	require.NoError(t, container.MoveToSlot(s.DB, cat, id, eq, slot))

	got, err := item.GetAt(s.DB, eq.SlotLocation(slot))
	require.NoError(t, err)
	require.Equal(t, id, got.InstanceID)
}

func TestQuickMoveOrderIsInventoryThenHotbar(t *testing.T) {
	owner := ids.NewIdentity()
	order := QuickMoveOrder(owner)
	require.Len(t, order, 2)
	require.Equal(t, "inventory", order[0].Label())
	require.Equal(t, "hotbar", order[1].Label())
}

func TestQuickMoveFromBoxFillsInventoryBeforeHotbar(t *testing.T) {
	s := testutil.OpenStore(t)
	cat := catalog()
	owner := ids.NewIdentity()

	box := testBox{id: 1, slots: 1}
	boxItem := item.NewInstanceID()
	require.NoError(t, item.Upsert(s.DB, item.Instance{
		InstanceID: boxItem, DefID: "wood", Quantity: 10, Location: box.SlotLocation(0),
	}))

	require.NoError(t, container.QuickMoveFrom(s.DB, cat, box, 0, QuickMoveOrder(owner)))

	got, err := item.GetAt(s.DB, item.NewInventoryLocation(owner, 0))
	require.NoError(t, err)
	require.Equal(t, 10, got.Quantity)
}

// testBox is a minimal container.Container stand-in for an entity
// container, used only to exercise cross-container quick-move here.
type testBox struct {
	id    int64
	slots int
}

func (b testBox) NumSlots() int { return b.slots }
func (b testBox) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerBox, b.id, slot)
}
func (b testBox) Accepts(item.Definition) bool { return true }
func (b testBox) Label() string                { return "box" }
