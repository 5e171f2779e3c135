package wildlife

import (
	"math/rand"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/environment"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/testutil"
)

func TestTickTransitionsToChasingWhenPlayerInRange(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	p, err := player.Register(s.DB, identity, 50, 0, 0)
	require.NoError(t, err)
	p.Online = true
	require.NoError(t, player.Save(s.DB, p))

	wolf := &entity.WildAnimal{PosX: 0, PosY: 0, Species: "tundra_wolf", Health: 200, MaxHealth: 200, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, wolf))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	rng := rand.New(rand.NewSource(1))
	require.NoError(t, Tick(tx, wolf, 1_000_000, rng))
	require.NoError(t, tx.Commit())

	require.Equal(t, entity.AnimalChasing, wolf.State)
	require.Equal(t, identity, wolf.TargetIdentity)
}

func TestTickDoesNotChaseFarAwayPlayer(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	p, err := player.Register(s.DB, identity, 5000, 0, 0)
	require.NoError(t, err)
	p.Online = true
	require.NoError(t, player.Save(s.DB, p))

	wolf := &entity.WildAnimal{PosX: 0, PosY: 0, Species: "tundra_wolf", Health: 200, MaxHealth: 200, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, wolf))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Tick(tx, wolf, 1_000_000, rand.New(rand.NewSource(1))))
	require.NoError(t, tx.Commit())

	require.Equal(t, entity.AnimalPatrolling, wolf.State)
}

func TestHandleDamageHighHealthRetaliates(t *testing.T) {
	s := testutil.OpenStore(t)
	attacker := ids.RandomIdentity()
	wolf := &entity.WildAnimal{Species: "tundra_wolf", Health: 200, MaxHealth: 200, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, wolf))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	destroyed, err := HandleDamage(tx, wolf, 20, attacker, 0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.False(t, destroyed)
	require.Equal(t, entity.AnimalChasing, wolf.State)
	require.Equal(t, attacker, wolf.TargetIdentity)
}

func TestHandleDamageLowHealthFlees(t *testing.T) {
	s := testutil.OpenStore(t)
	attacker := ids.RandomIdentity()
	fox := &entity.WildAnimal{Species: "cinder_fox", Health: 20, MaxHealth: 60, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, fox))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	destroyed, err := HandleDamage(tx, fox, 5, attacker, 0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.False(t, destroyed)
	require.Equal(t, entity.AnimalFleeing, fox.State)
}

func TestHandleDamageLethalDestroysAnimal(t *testing.T) {
	s := testutil.OpenStore(t)
	hare := &entity.WildAnimal{Species: "hare", Health: 20, MaxHealth: 20, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, hare))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	destroyed, err := HandleDamage(tx, hare, 50, ids.RandomIdentity(), 0)
	require.NoError(t, err)
	require.NoError(t, tx.Commit())

	require.True(t, destroyed)
	require.True(t, hare.IsDestroyed)
}

func TestTickFleesNearbyFire(t *testing.T) {
	s := testutil.OpenStore(t)
	fire := &entity.FirePatch{PosX: 10, PosY: 0, Radius: 50, ExpiresAtUs: 10_000_000}
	require.NoError(t, entity.InsertFirePatch(s.DB, fire))

	wolf := &entity.WildAnimal{PosX: 0, PosY: 0, Species: "tundra_wolf", Health: 200, MaxHealth: 200, State: entity.AnimalPatrolling}
	require.NoError(t, entity.InsertWildAnimal(s.DB, wolf))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Tick(tx, wolf, 1_000_000, rand.New(rand.NewSource(1))))
	require.NoError(t, tx.Commit())

	require.Equal(t, entity.AnimalFleeing, wolf.State)
}

func TestIsHostileMatchesAggressiveSpecies(t *testing.T) {
	require.True(t, IsHostile("tundra_wolf"))
	require.False(t, IsHostile("hare"))
	require.False(t, IsHostile("unknown_species"))
}

func TestMaintainSpawnZonesToppsUpToTarget(t *testing.T) {
	s := testutil.OpenStore(t)
	zone := &entity.SpawnZone{PosX: 0, PosY: 0, Species: "tundra_wolf", TargetCount: 4, Radius: 250, AnchorKind: "den"}
	require.NoError(t, entity.InsertSpawnZone(s.DB, zone))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, MaintainSpawnZones(tx, rand.New(rand.NewSource(2))))
	require.NoError(t, tx.Commit())

	animals, err := entity.ListActiveWildAnimals(s.DB)
	require.NoError(t, err)
	require.Len(t, animals, 4)
	for _, a := range animals {
		require.Equal(t, "tundra_wolf", a.Species)
		require.NotNil(t, a.SpawnZoneID)
	}
}

func TestMaintainPopulationRespectsMaxPerCycle(t *testing.T) {
	s := testutil.OpenStore(t)
	WorldTiles = 1_000_000 // target = 250 animals, far above MaxRespawnPerCycle

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	terrain := environment.TerrainQuery{DB: tx}
	require.NoError(t, MaintainPopulation(tx, terrain, [4]float32{-1000, -1000, 1000, 1000}, rand.New(rand.NewSource(3))))
	require.NoError(t, tx.Commit())

	animals, err := entity.ListActiveWildAnimals(s.DB)
	require.NoError(t, err)
	require.LessOrEqual(t, len(animals), MaxRespawnPerCycle)
}

func TestSpawnHerdGroupGuaranteesBothSexes(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, SpawnHerdGroup(tx, "caribou", 0, 0, 0, rand.New(rand.NewSource(4))))
	require.NoError(t, tx.Commit())

	animals, err := entity.ListActiveWildAnimals(s.DB)
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(animals), 3)
	require.LessOrEqual(t, len(animals), 4)

	var males, females int
	for _, a := range animals {
		switch a.Sex {
		case "male":
			males++
		case "female":
			females++
		}
	}
	require.GreaterOrEqual(t, males, 1)
	require.GreaterOrEqual(t, females, 1)
}

func TestSpawnHerdGroupRejectsNonHerdSpecies(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	err = SpawnHerdGroup(tx, "tundra_wolf", 0, 0, 0, rand.New(rand.NewSource(5)))
	require.Error(t, err)
	require.NoError(t, tx.Rollback())
}
