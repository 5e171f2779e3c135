package item

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/testutil"
)

func TestRepoUpsertAndGet(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.NewIdentity()

	inst := Instance{
		InstanceID: NewInstanceID(),
		DefID:      "wood",
		Quantity:   500,
		Location:   NewInventoryLocation(owner, 0),
	}
	require.NoError(t, Upsert(s.DB, inst))

	got, err := NewRepo(s.DB).Get(inst.InstanceID)
	require.NoError(t, err)
	require.Equal(t, inst.DefID, got.DefID)
	require.Equal(t, inst.Quantity, got.Quantity)
	require.Equal(t, LocationInventory, got.Location.Kind)
	require.Equal(t, owner, got.Location.Owner)
	require.Equal(t, 0, got.Location.Slot)
}

func TestRepoUpsertUpdatesExisting(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.NewIdentity()
	id := NewInstanceID()

	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: id, DefID: "wood", Quantity: 10,
		Location: NewInventoryLocation(owner, 0),
	}))
	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: id, DefID: "wood", Quantity: 25,
		Location: NewInventoryLocation(owner, 0),
	}))

	got, err := NewRepo(s.DB).Get(id)
	require.NoError(t, err)
	require.Equal(t, 25, got.Quantity)
}

func TestListInventoryOrdersBySlot(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.NewIdentity()

	for _, slot := range []int{2, 0, 1} {
		require.NoError(t, Upsert(s.DB, Instance{
			InstanceID: NewInstanceID(), DefID: "wood", Quantity: 1,
			Location: NewInventoryLocation(owner, slot),
		}))
	}

	out, err := ListInventory(s.DB, owner, LocationInventory)
	require.NoError(t, err)
	require.Len(t, out, 3)
	require.Equal(t, 0, out[0].Location.Slot)
	require.Equal(t, 1, out[1].Location.Slot)
	require.Equal(t, 2, out[2].Location.Slot)
}

func TestListContainer(t *testing.T) {
	s := testutil.OpenStore(t)

	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: NewInstanceID(), DefID: "charcoal", Quantity: 1,
		Location: NewContainerLocation(ContainerFurnace, 1, 0),
	}))
	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: NewInstanceID(), DefID: "iron_ore", Quantity: 10,
		Location: NewContainerLocation(ContainerFurnace, 1, 1),
	}))
	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: NewInstanceID(), DefID: "wood", Quantity: 50,
		Location: NewContainerLocation(ContainerFurnace, 2, 0),
	}))

	out, err := ListContainer(s.DB, ContainerFurnace, 1)
	require.NoError(t, err)
	require.Len(t, out, 2)
}

func TestDeleteRemovesInstance(t *testing.T) {
	s := testutil.OpenStore(t)
	id := NewInstanceID()
	require.NoError(t, Upsert(s.DB, Instance{
		InstanceID: id, DefID: "wood", Quantity: 1,
		Location: NewDroppedLocation(99),
	}))

	require.NoError(t, Delete(s.DB, id))

	_, err := NewRepo(s.DB).Get(id)
	require.Error(t, err)
}
