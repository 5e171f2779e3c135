package item

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
)

func sampleDefs() []Definition {
	return []Definition{
		{ID: "wood", Name: "Wood", Category: CategoryMaterial, Stackable: true, StackSize: 1000},
		{ID: "hatchet", Name: "Hatchet", Category: CategoryTool, Stackable: false},
	}
}

func TestCatalogLookup(t *testing.T) {
	c := NewCatalog(sampleDefs())

	d, ok := c.Lookup("wood")
	require.True(t, ok)
	require.Equal(t, "Wood", d.Name)

	_, ok = c.Lookup("does-not-exist")
	require.False(t, ok)

	require.Len(t, c.All(), 2)
}

func TestEffectiveStackSize(t *testing.T) {
	c := NewCatalog(sampleDefs())

	wood, _ := c.Lookup("wood")
	require.Equal(t, 1000, wood.EffectiveStackSize())

	hatchet, _ := c.Lookup("hatchet")
	require.Equal(t, 1, hatchet.EffectiveStackSize())
}

func TestEffectiveStackSizeDefaultsToOneWhenUnset(t *testing.T) {
	d := Definition{ID: "x", Stackable: true}
	require.Equal(t, 1, d.EffectiveStackSize())
}

func TestLocationConstructors(t *testing.T) {
	owner := ids.NewIdentity()

	inv := NewInventoryLocation(owner, 3)
	require.Equal(t, LocationInventory, inv.Kind)
	require.Equal(t, owner, inv.Owner)
	require.Equal(t, 3, inv.Slot)

	hot := NewHotbarLocation(owner, 0)
	require.Equal(t, LocationHotbar, hot.Kind)

	eq := NewEquippedLocation(owner, SlotChest)
	require.Equal(t, LocationEquipped, eq.Kind)
	require.Equal(t, SlotChest, eq.EquipSlot)

	cont := NewContainerLocation(ContainerFurnace, 42, 1)
	require.Equal(t, LocationContainer, cont.Kind)
	require.Equal(t, ContainerFurnace, cont.ContainerType)
	require.EqualValues(t, 42, cont.ContainerID)

	dropped := NewDroppedLocation(7)
	require.Equal(t, LocationDropped, dropped.Kind)
	require.EqualValues(t, 7, dropped.DroppedItemID)

	require.Equal(t, LocationUnknown, UnknownLocation().Kind)
}

func TestClearPlacedAt(t *testing.T) {
	ts := int64(12345)
	inst := Instance{InstanceID: "i1", Data: Data{PlacedAtUs: &ts}}
	inst.ClearPlacedAt()
	require.Nil(t, inst.Data.PlacedAtUs)
}
