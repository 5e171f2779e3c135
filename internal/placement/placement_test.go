package placement

import (
	"database/sql"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func catalog() *item.Catalog {
	return item.NewCatalog([]item.Definition{
		{ID: "campfire_kit", Category: item.CategoryPlaceable, Stackable: false},
		{ID: "wood", Category: item.CategoryMaterial, Stackable: true, StackSize: 100},
	})
}

func putInInventory(t *testing.T, db *sql.DB, owner ids.Identity, defID string, slot int) string {
	t.Helper()
	instID := item.NewInstanceID()
	require.NoError(t, item.Upsert(db, item.Instance{
		InstanceID: instID, DefID: defID, Quantity: 1,
		Location: item.NewInventoryLocation(owner, slot),
	}))
	return instID
}

type noBlock struct{}

func (noBlock) IsBlocked(x, y float32) bool { return false }

type alwaysBlock struct{}

func (alwaysBlock) IsBlocked(x, y float32) bool { return true }

func TestPlaceSucceedsAndConsumesItem(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "campfire_kit", 0)
	cat := catalog()

	var built bool
	tx, err := s.DB.Begin()
	require.NoError(t, err)

	err = Place(tx, cat, Request{
		Caller: owner, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 50, TargetY: 0,
		Terrain: noBlock{},
		Build:   func(tx *sql.Tx) error { built = true; return nil },
	})
	require.NoError(t, err)
	require.NoError(t, tx.Commit())
	require.True(t, built)

	_, err = item.GetTx(s.DB, instID)
	require.ErrorIs(t, err, sql.ErrNoRows, "the consumed item must be deleted")
}

func TestPlaceRejectsTooFar(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "campfire_kit", 0)
	cat := catalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Place(tx, cat, Request{
		Caller: owner, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 500, TargetY: 0,
		Terrain: noBlock{},
		Build:   func(tx *sql.Tx) error { return nil },
	})
	require.ErrorContains(t, err, "Too far away")
}

func TestPlaceRejectsBlockedTerrain(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "campfire_kit", 0)
	cat := catalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Place(tx, cat, Request{
		Caller: owner, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 10, TargetY: 0,
		Terrain: alwaysBlock{},
		Build:   func(tx *sql.Tx) error { return nil },
	})
	require.ErrorContains(t, err, "Cannot place on water")
}

func TestPlaceRejectsNonPlaceableItem(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "wood", 0)
	cat := catalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Place(tx, cat, Request{
		Caller: owner, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 10, TargetY: 0,
		Terrain: noBlock{},
		Build:   func(tx *sql.Tx) error { return nil },
	})
	require.ErrorContains(t, err, "Item not owned")
}

func TestPlaceRejectsItemOwnedByAnotherPlayer(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	other := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "campfire_kit", 0)
	cat := catalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Place(tx, cat, Request{
		Caller: other, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 10, TargetY: 0,
		Terrain: noBlock{},
		Build:   func(tx *sql.Tx) error { return nil },
	})
	require.ErrorContains(t, err, "Item not owned")
}

func TestPlaceRejectsOverlap(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	instID := putInInventory(t, s.DB, owner, "campfire_kit", 0)
	cat := catalog()

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Place(tx, cat, Request{
		Caller: owner, CallerX: 0, CallerY: 0,
		ItemInstanceID: instID, TargetX: 10, TargetY: 0,
		Terrain: noBlock{},
		Overlap: func(tx *sql.Tx, x, y float32) (bool, error) { return true, nil },
		Build:   func(tx *sql.Tx) error { return nil },
	})
	require.ErrorContains(t, err, "Slot occupied by incompatible item")
}
