package memorygrid

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func shardCatalog() *item.Catalog {
	return item.NewCatalog([]item.Definition{
		{ID: "memory_shard", Name: MemoryShardDefName, Category: item.CategoryMaterial, Stackable: true, StackSize: 1000},
		{ID: "wood", Name: "Wood", Category: item.CategoryMaterial, Stackable: true, StackSize: 1000},
	})
}

func giveShards(t *testing.T, db *sql.DB, identity ids.Identity, qty int) {
	t.Helper()
	inst := item.Instance{
		InstanceID: item.NewInstanceID(), DefID: "memory_shard", Quantity: qty,
		Location: item.NewInventoryLocation(identity, 0),
	}
	require.NoError(t, item.Upsert(db, inst))
}

func TestPurchaseRejectsUnknownNode(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	err = Purchase(tx, shardCatalog(), identity, "not-a-real-node", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Unknown memory grid node")
	require.NoError(t, tx.Rollback())
}

func TestPurchaseRequiresPrerequisite(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	giveShards(t, s.DB, identity, 1000)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	err = Purchase(tx, shardCatalog(), identity, "bone-arrow", 0)
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
}

func TestPurchaseSucceedsAndConsumesShards(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	giveShards(t, s.DB, identity, 150)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Initialize(tx, identity))
	require.NoError(t, Purchase(tx, shardCatalog(), identity, "crossbow", 1_000_000))
	require.NoError(t, tx.Commit())

	progress, err := GetProgress(s.DB, identity)
	require.NoError(t, err)
	require.True(t, PlayerHasNode(progress.PurchasedCSV, "crossbow"))
	require.EqualValues(t, 100, progress.TotalShardsSpent)

	insts, ierr := item.ListInventory(s.DB, identity, item.LocationInventory)
	require.NoError(t, ierr)
	require.Len(t, insts, 1)
	require.Equal(t, 50, insts[0].Quantity)

	purchases, perr := ListPurchases(s.DB, identity)
	require.NoError(t, perr)
	require.Len(t, purchases, 1)
	require.Equal(t, "crossbow", purchases[0].NodeID)
	require.EqualValues(t, 100, purchases[0].Cost)
}

func TestPurchaseInsufficientShards(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	giveShards(t, s.DB, identity, 10)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Initialize(tx, identity))
	err = Purchase(tx, shardCatalog(), identity, "crossbow", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Insufficient memory shards")
	require.NoError(t, tx.Rollback())
}

func TestPurchaseRejectsAlreadyPurchased(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	giveShards(t, s.DB, identity, 1000)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Initialize(tx, identity))
	require.NoError(t, Purchase(tx, shardCatalog(), identity, "crossbow", 0))
	require.NoError(t, tx.Commit())

	tx2, err := s.DB.Begin()
	require.NoError(t, err)
	err = Purchase(tx2, shardCatalog(), identity, "crossbow", 0)
	require.Error(t, err)
	require.NoError(t, tx2.Rollback())
}

// TestFactionUnlockGateAt8000 exercises the worked example of spec §8.6:
// a player sitting at 7999 lifetime shards spent is rejected from any
// faction unlock with an error naming the 8000 threshold; topping up to
// exactly 8000 lets the same purchase succeed; and having committed to
// one faction, a second faction's unlock is rejected.
func TestFactionUnlockGateAt8000(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	catalog := shardCatalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, insertProgress(tx, Progress{Identity: identity, PurchasedCSV: "center", TotalShardsSpent: 7999}))
	require.NoError(t, tx.Commit())

	giveShards(t, s.DB, identity, 1600)

	tx, err = s.DB.Begin()
	require.NoError(t, err)
	err = Purchase(tx, catalog, identity, "unlock-black-wolves", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "8000")
	require.NoError(t, tx.Rollback())

	tx, err = s.DB.Begin()
	require.NoError(t, err)
	progress, err2 := GetProgress(tx, identity)
	require.NoError(t, err2)
	progress.TotalShardsSpent = 8000
	require.NoError(t, saveProgress(tx, progress))
	require.NoError(t, tx.Commit())

	tx, err = s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Purchase(tx, catalog, identity, "unlock-black-wolves", 0))
	require.NoError(t, tx.Commit())

	progress, err = GetProgress(s.DB, identity)
	require.NoError(t, err)
	require.Equal(t, "black-wolves", progress.UnlockedFaction)
	require.True(t, PlayerHasNode(progress.PurchasedCSV, "unlock-black-wolves"))

	giveShards(t, s.DB, identity, 1600)
	tx, err = s.DB.Begin()
	require.NoError(t, err)
	err = Purchase(tx, catalog, identity, "unlock-hive", 0)
	require.Error(t, err)
	require.Contains(t, err.Error(), "Already have a faction")
	require.NoError(t, tx.Rollback())
}

func TestIsAvailableORLogicPrerequisites(t *testing.T) {
	require.True(t, isAvailable("center,crossbow", "bone-arrow", []string{"crossbow"}, 0))
	require.False(t, isAvailable("center", "bone-arrow", []string{"crossbow"}, 0))
	require.False(t, isAvailable("center,bone-arrow", "bone-arrow", []string{"crossbow"}, 0))
}
