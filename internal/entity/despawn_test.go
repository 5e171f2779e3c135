package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func TestDespawnDueDroppedItemsRemovesItemAndInstance(t *testing.T) {
	s := testutil.OpenStore(t)
	despawn := int64(1000)
	d := &DroppedItem{PosX: 5, PosY: 5, ChunkIndex: 1, CreatedAtUs: 0, DespawnAtUs: &despawn}
	require.NoError(t, InsertDroppedItem(s.DB, d))

	inst := item.Instance{InstanceID: "inst-1", DefID: "rock", Quantity: 1, Location: item.NewDroppedLocation(d.ID)}
	require.NoError(t, item.Upsert(s.DB, inst))

	tx, err := s.DB.Begin()
	require.NoError(t, err)

	n, err := DespawnDueDroppedItems(tx, 500)
	require.NoError(t, err)
	require.Equal(t, 0, n)

	n, err = DespawnDueDroppedItems(tx, 1500)
	require.NoError(t, err)
	require.Equal(t, 1, n)
	require.NoError(t, tx.Commit())

	_, err = item.GetTx(s.DB, inst.InstanceID)
	require.Error(t, err)

	due, err := DueDroppedItemDespawns(s.DB, 1500)
	require.NoError(t, err)
	require.Empty(t, due)
}
