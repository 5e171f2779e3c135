package entity

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/testutil"
)

func TestPlacementApplyDamageDestroysAtZero(t *testing.T) {
	p := Placement{Health: 50, MaxHealth: 100}
	attacker := ids.RandomIdentity()

	destroyed := p.ApplyDamage(30, attacker, 100)
	require.False(t, destroyed)
	require.Equal(t, 20.0, p.Health)
	require.Equal(t, attacker, p.LastDamagedBy)

	destroyed = p.ApplyDamage(999, attacker, 200)
	require.True(t, destroyed)
	require.Equal(t, 0.0, p.Health)
	require.True(t, p.IsDestroyed)
	require.EqualValues(t, 200, p.DestroyedAtUs)
}

func TestPlacementApplyDamageOnAlreadyDestroyedIsNoop(t *testing.T) {
	p := Placement{Health: 0, IsDestroyed: true, DestroyedAtUs: 50}
	destroyed := p.ApplyDamage(10, ids.RandomIdentity(), 999)
	require.True(t, destroyed)
	require.EqualValues(t, 50, p.DestroyedAtUs, "damage after destruction must not overwrite the original timestamp")
}

func TestCampfireAcceptsCookableOrFuel(t *testing.T) {
	c := &Campfire{SlotCount: 4}
	cooked := "cooked_meat"
	burn := 30.0

	require.True(t, c.Accepts(item.Definition{ID: "raw_meat", CookedIntoID: &cooked}))
	require.True(t, c.Accepts(item.Definition{ID: "wood", BurnSeconds: &burn}))
	require.True(t, c.Accepts(item.Definition{ID: "berries", Category: item.CategoryConsumable}))
	require.False(t, c.Accepts(item.Definition{ID: "rock", Category: item.CategoryMaterial}))
	require.Equal(t, 4, c.NumSlots())
}

func TestCompostBinRejectsFertilizerItself(t *testing.T) {
	bin := &CompostBin{SlotCount: 6}
	require.True(t, bin.Accepts(item.Definition{ID: "rotten_food", Category: item.CategoryMaterial}))
	require.False(t, bin.Accepts(item.Definition{ID: "fertilizer", Category: item.CategoryMaterial}))
	require.False(t, bin.Accepts(item.Definition{ID: "axe", Category: item.CategoryTool}))
}

func TestRainCollectorOnlyAcceptsWaterContainers(t *testing.T) {
	r := &RainCollector{SlotCount: 1}
	require.True(t, r.Accepts(item.Definition{ID: "reed_bottle"}))
	require.True(t, r.Accepts(item.Definition{ID: "plastic_jug"}))
	require.False(t, r.Accepts(item.Definition{ID: "wood"}))
}

func TestTurretAcceptsDependOnKind(t *testing.T) {
	standard := &Turret{SlotCount: 1, Kind: TurretKindStandard}
	steam := &Turret{SlotCount: 1, Kind: TurretKindTallowSteam}

	require.True(t, standard.Accepts(item.Definition{ID: "rifle_ammo", Category: item.CategoryAmmunition}))
	require.False(t, standard.Accepts(item.Definition{ID: "tallow"}))

	require.True(t, steam.Accepts(item.Definition{ID: "tallow"}))
	require.False(t, steam.Accepts(item.Definition{ID: "rifle_ammo", Category: item.CategoryAmmunition}))
}

func TestPlantedSeedReadyToHarvest(t *testing.T) {
	s := PlantedSeed{PlantedAtUs: 1000, GrowsInUs: 500}
	require.False(t, s.ReadyToHarvest(1400))
	require.True(t, s.ReadyToHarvest(1500))
	require.True(t, s.ReadyToHarvest(2000))

	s.Harvested = true
	require.False(t, s.ReadyToHarvest(9999), "a harvested seed is never ready again")
}

func TestResourceNodeApplyDamageDestroysAtZero(t *testing.T) {
	n := &ResourceNode{Health: 40, MaxHealth: 40}
	require.False(t, n.ApplyDamage(10))
	require.Equal(t, 30.0, n.Health)
	require.True(t, n.ApplyDamage(100))
	require.True(t, n.IsDestroyed)
	require.Equal(t, 0.0, n.Health)
}

func TestCampfireRepoRoundTrip(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	c := &Campfire{
		Placement: Placement{PosX: 10, PosY: 20, ChunkIndex: 3, Owner: owner, Health: 100, MaxHealth: 100},
		SlotCount: 4,
		IsLit:     true,
	}
	require.NoError(t, InsertCampfire(s.DB, c))
	require.NotZero(t, c.ID)

	got, err := GetCampfire(s.DB, c.ID)
	require.NoError(t, err)
	require.Equal(t, owner, got.Owner)
	require.True(t, got.IsLit)
	require.Equal(t, 4, got.SlotCount)

	attacker := ids.RandomIdentity()
	got.ApplyDamage(40, attacker, 555)
	require.NoError(t, UpdateCampfire(s.DB, got))

	reloaded, err := GetCampfire(s.DB, c.ID)
	require.NoError(t, err)
	require.Equal(t, 60.0, reloaded.Health)
	require.Equal(t, attacker, reloaded.LastDamagedBy, "last_damaged_by must round-trip through ids.Identity.Scan")
	require.EqualValues(t, 555, reloaded.LastHitTimeUs)
}

func TestResourceNodeRoundTripsKindAndDestroyedFlag(t *testing.T) {
	s := testutil.OpenStore(t)
	n := &ResourceNode{PosX: 1, PosY: 2, ChunkIndex: 0, Kind: "tree", Health: 100, MaxHealth: 100, YieldDefID: "wood", YieldQty: 5}
	require.NoError(t, InsertResourceNode(s.DB, n))

	got, err := GetResourceNode(s.DB, n.ID)
	require.NoError(t, err)
	require.Equal(t, "tree", got.Kind)
	require.False(t, got.IsDestroyed)
}

func TestBarrelRespawnSweepFindsDueBarrels(t *testing.T) {
	s := testutil.OpenStore(t)
	b := &Barrel{PosX: 0, PosY: 0, ChunkIndex: 0, Health: 0, MaxHealth: 50, LootTier: "common"}
	require.NoError(t, InsertBarrel(s.DB, b))

	attacker := ids.RandomIdentity()
	b.ApplyDamage(999, attacker, 100)
	due := int64(200)
	b.RespawnAtUs = &due
	require.NoError(t, UpdateBarrel(s.DB, b))

	notYet, err := DueBarrelRespawns(s.DB, 100)
	require.NoError(t, err)
	require.Empty(t, notYet)

	due2, err := DueBarrelRespawns(s.DB, 250)
	require.NoError(t, err)
	require.Len(t, due2, 1)
	require.Equal(t, b.ID, due2[0])
}

func TestDroppedItemDespawnSweep(t *testing.T) {
	s := testutil.OpenStore(t)
	despawn := int64(1000)
	d := &DroppedItem{PosX: 5, PosY: 5, ChunkIndex: 1, CreatedAtUs: 0, DespawnAtUs: &despawn}
	require.NoError(t, InsertDroppedItem(s.DB, d))

	due, err := DueDroppedItemDespawns(s.DB, 500)
	require.NoError(t, err)
	require.Empty(t, due)

	due, err = DueDroppedItemDespawns(s.DB, 1500)
	require.NoError(t, err)
	require.Len(t, due, 1)

	require.NoError(t, DeleteDroppedItem(s.DB, d.ID))
	due, err = DueDroppedItemDespawns(s.DB, 1500)
	require.NoError(t, err)
	require.Empty(t, due)
}

func TestPlantedSeedHarvestFlow(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	seed := &PlantedSeed{
		PosX: 1, PosY: 1, ChunkIndex: 0, Owner: owner, DefID: "pumpkin_seed",
		PlantedAtUs: 0, GrowsInUs: 1000, YieldDefID: "pumpkin", YieldQty: 3,
	}
	require.NoError(t, InsertPlantedSeed(s.DB, seed))

	unharvested, err := ListUnharvestedSeeds(s.DB)
	require.NoError(t, err)
	require.Len(t, unharvested, 1)
	require.Equal(t, owner, unharvested[0].Owner)

	require.NoError(t, MarkSeedHarvested(s.DB, seed.ID))

	unharvested, err = ListUnharvestedSeeds(s.DB)
	require.NoError(t, err)
	require.Empty(t, unharvested)
}

func TestTurretRepoRoundTripAndActiveListing(t *testing.T) {
	s := testutil.OpenStore(t)
	owner := ids.RandomIdentity()
	tr := &Turret{
		Placement: Placement{PosX: 2, PosY: 2, ChunkIndex: 0, Owner: owner, Health: 150, MaxHealth: 150},
		SlotCount: 1,
		Kind:      TurretKindStandard,
		Facing:    1.5,
	}
	require.NoError(t, InsertTurret(s.DB, tr))

	active, err := ListActiveTurrets(s.DB)
	require.NoError(t, err)
	require.Len(t, active, 1)

	tr.LastFireTimeUs = 42
	require.NoError(t, UpdateTurret(s.DB, tr))

	got, err := GetTurret(s.DB, tr.ID)
	require.NoError(t, err)
	require.EqualValues(t, 42, got.LastFireTimeUs)
	require.Equal(t, owner, got.Owner)
}
