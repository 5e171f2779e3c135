package environment

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/testutil"
	"github.com/ownworld/core/internal/weather"
)

func onlinePvpPlayer(t *testing.T, db player.DB, x, y float32) ids.Identity {
	t.Helper()
	id := ids.NewIdentity()
	p, err := player.Register(db, id, x, y, 0)
	require.NoError(t, err)
	p.Online = true
	p.IsPvPActive = true
	require.NoError(t, player.Save(db, p))
	return id
}

func TestCreateFirePatchRejectsOverlap(t *testing.T) {
	s := testutil.OpenStore(t)
	_, err := CreateFirePatch(s.DB, 100, 100, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)

	_, err = CreateFirePatch(s.DB, 110, 100, 0, ids.NewIdentity(), false, 0)
	require.ErrorContains(t, err, "already exists")
}

func TestCreateFirePatchWoodenStructureLastsLonger(t *testing.T) {
	s := testutil.OpenStore(t)
	fp, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), true, 1000)
	require.NoError(t, err)
	require.Equal(t, int64(1000+WoodDurationUs), fp.ExpiresAtUs)
}

func TestTickDamageBurnsPvPActivePlayersInRadius(t *testing.T) {
	s := testutil.OpenStore(t)
	id := onlinePvpPlayer(t, s, 10, 10)
	_, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, TickDamage(tx, 0))
	require.NoError(t, tx.Commit())

	p, err := player.Get(s.DB, id)
	require.NoError(t, err)
	require.Equal(t, 100-PlayerBurnDamagePerTick, p.Health)
}

func TestTickDamageSkipsNonPvPPlayers(t *testing.T) {
	s := testutil.OpenStore(t)
	id := ids.NewIdentity()
	p, err := player.Register(s.DB, id, 10, 10, 0)
	require.NoError(t, err)
	p.Online = true
	require.NoError(t, player.Save(s.DB, p))

	_, err = CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, TickDamage(tx, 0))
	require.NoError(t, tx.Commit())

	p, err = player.Get(s.DB, id)
	require.NoError(t, err)
	require.Equal(t, 100.0, p.Health)
}

func TestTickDamageBurnsFlammableWallsNotFoundations(t *testing.T) {
	s := testutil.OpenStore(t)
	wall := &entity.Wall{PosX: 10, PosY: 10, Health: 100, MaxHealth: 100, Kind: "wall"}
	require.NoError(t, entity.InsertWall(s.DB, wall))
	foundation := &entity.Wall{PosX: 10, PosY: 20, Health: 100, MaxHealth: 100, Kind: "foundation"}
	require.NoError(t, entity.InsertWall(s.DB, foundation))

	_, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, TickDamage(tx, 0))
	require.NoError(t, tx.Commit())

	got, err := entity.GetWall(s.DB, wall.ID)
	require.NoError(t, err)
	require.Equal(t, 100-StructureDamagePerTick, got.Health)

	gotFoundation, err := entity.GetWall(s.DB, foundation.ID)
	require.NoError(t, err)
	require.Equal(t, 100.0, gotFoundation.Health)
}

func TestPropagateSuppressedByHeavyWeather(t *testing.T) {
	s := testutil.OpenStore(t)
	require.NoError(t, weather.Set(s.DB, 0, weather.Heavy, 0))

	wall := &entity.Wall{PosX: 10, PosY: 10, Health: 100, MaxHealth: 100, Kind: "wall"}
	require.NoError(t, entity.InsertWall(s.DB, wall))
	_, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)

	rng := rand.New(rand.NewSource(1))
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Propagate(tx, rng, 0))
	require.NoError(t, tx.Commit())

	patches, err := entity.ListFirePatches(s.DB)
	require.NoError(t, err)
	require.Len(t, patches, 1, "heavy weather must block propagation onto the wall")
}

func TestCleanupDeletesExpiredPatches(t *testing.T) {
	s := testutil.OpenStore(t)
	fp, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)
	require.NoError(t, entity.InsertWaterPatch(s.DB, &entity.WaterPatch{PosX: 500, PosY: 500, ExpiresAtUs: 10}))

	require.NoError(t, Cleanup(s.DB, fp.ExpiresAtUs+1))

	patches, err := entity.ListFirePatches(s.DB)
	require.NoError(t, err)
	require.Empty(t, patches)
	waters, err := entity.ListWaterPatches(s.DB)
	require.NoError(t, err)
	require.Empty(t, waters)
}

func TestExtinguishRemovesOverlappingFirePatch(t *testing.T) {
	s := testutil.OpenStore(t)
	fp, err := CreateFirePatch(s.DB, 0, 0, 0, ids.NewIdentity(), false, 0)
	require.NoError(t, err)
	require.NoError(t, entity.InsertWaterPatch(s.DB, &entity.WaterPatch{
		PosX: fp.PosX + 5, PosY: fp.PosY, Radius: 10, ExpiresAtUs: 1_000_000,
	}))

	require.NoError(t, Extinguish(s.DB))

	patches, err := entity.ListFirePatches(s.DB)
	require.NoError(t, err)
	require.Empty(t, patches)
}

func TestTerrainQueryIsBlockedInsideWaterPatch(t *testing.T) {
	s := testutil.OpenStore(t)
	require.NoError(t, entity.InsertWaterPatch(s.DB, &entity.WaterPatch{PosX: 100, PosY: 100, Radius: 20, ExpiresAtUs: 1_000_000}))

	tq := TerrainQuery{DB: s.DB}
	require.True(t, tq.IsBlocked(105, 100))
	require.False(t, tq.IsBlocked(500, 500))
}
