package wildlife

import (
	"database/sql"
	"math"
	"math/rand"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/environment"
	"github.com/ownworld/core/internal/reducer"
)

// SpawnZoneCheckIntervalUs is the ~8 minute spawn-zone top-up cadence
// (spec §4.M, grounded on respawn.rs's SPAWN_ZONE_CHECK_INTERVAL_SECS).
const SpawnZoneCheckIntervalUs int64 = 480 * 1_000_000

// PopulationCheckIntervalUs is the global population-maintenance
// cadence; the source runs it on the same schedule bucket as world
// upkeep, not separately documented, so it is bound here to the same
// 8 minute cadence as spawn-zone maintenance.
const PopulationCheckIntervalUs int64 = SpawnZoneCheckIntervalUs

// WildAnimalDensity is the target animals-per-tile ratio driving
// global population maintenance (grounded on respawn.rs's
// WILD_ANIMAL_DENSITY = 0.00025).
const WildAnimalDensity = 0.00025

// MaxRespawnPerCycle bounds how many animals the global maintenance
// reducer inserts in a single pass (respawn.rs's MAX_RESPAWN_PER_CYCLE).
const MaxRespawnPerCycle = 3

// MaxAquaticSpawnAttempts bounds how many candidate tiles the global
// maintenance reducer tries before giving up on an aquatic species for
// this cycle (respawn.rs's MAX_AQUATIC_RESPAWN_ATTEMPTS).
const MaxAquaticSpawnAttempts = 150

// speciesWeights mirrors respawn.rs's species_weights table, used by
// the global population reducer's weighted species pick.
var speciesWeights = []struct {
	Species string
	Weight  int
}{
	{"cinder_fox", 17}, {"arctic_walrus", 10}, {"beach_crab", 13},
	{"tundra_wolf", 5}, {"cable_viper", 5}, {"tern", 10}, {"crow", 8},
	{"vole", 16}, {"wolverine", 6}, {"caribou", 10},
	{"salmon_shark", 4}, {"jellyfish", 5}, {"polar_bear", 3},
	{"hare", 10}, {"snowy_owl", 5},
}

func chooseWeightedSpecies(rng *rand.Rand) string {
	total := 0
	for _, w := range speciesWeights {
		total += w.Weight
	}
	roll := rng.Intn(total)
	cum := 0
	for _, w := range speciesWeights {
		cum += w.Weight
		if roll < cum {
			return w.Species
		}
	}
	return speciesWeights[0].Species
}

// newAnimal builds a freshly-spawned WildAnimal at full health.
func newAnimal(species string, x, y float32, chunkIndex int64, zoneID *int64) *entity.WildAnimal {
	sp := Roster[species]
	return &entity.WildAnimal{
		PosX: x, PosY: y, ChunkIndex: chunkIndex, Species: species,
		Health: sp.Stats.MaxHealth, MaxHealth: sp.Stats.MaxHealth,
		State: entity.AnimalPatrolling, StateReason: "spawned", SpawnZoneID: zoneID,
	}
}

// MaintainSpawnZones tops up each registered spawn zone (wolf dens,
// whale-bone monuments, reed marshes, tide pools) up to its
// TargetCount, placing new animals at a random offset inside the
// zone's radius (spec §4.M, grounded on respawn.rs's den/graveyard/
// marsh/tide-pool top-up loops).
func MaintainSpawnZones(tx *sql.Tx, rng *rand.Rand) error {
	zones, err := entity.ListSpawnZones(tx)
	if err != nil {
		return reducer.Internalf(err, "listing spawn zones")
	}
	zoneCounts, err := countPerZone(tx)
	if err != nil {
		return err
	}

	for _, z := range zones {
		have := zoneCounts[z.ID]
		for have < z.TargetCount {
			angle := rng.Float64() * 2 * math.Pi
			dist := float64(z.Radius) * (0.3 + rng.Float64()*0.7)
			x := z.PosX + float32(math.Cos(angle)*dist)
			y := z.PosY + float32(math.Sin(angle)*dist)
			zoneID := z.ID
			a := newAnimal(z.Species, x, y, z.ChunkIndex, &zoneID)
			if err := entity.InsertWildAnimal(tx, a); err != nil {
				return reducer.Internalf(err, "spawning %s in zone %d", z.Species, z.ID)
			}
			have++
		}
	}
	return nil
}

func countPerZone(tx *sql.Tx) (map[int64]int, error) {
	animals, err := entity.ListActiveWildAnimals(tx)
	if err != nil {
		return nil, reducer.Internalf(err, "listing wild animals for zone counts")
	}
	out := map[int64]int{}
	for _, a := range animals {
		if a.SpawnZoneID != nil {
			out[*a.SpawnZoneID]++
		}
	}
	return out, nil
}

// WorldTiles is the map's tile count used to derive the global target
// population; callers supply it since the tile grid lives outside this
// package's tables.
var WorldTiles = 1_000_000

// MaintainPopulation is the global, non-zone-anchored respawn reducer
// (spec §4.M, grounded on respawn.rs's maintain_wild_animal_population):
// while the live population sits below WorldTiles*WildAnimalDensity, it
// spawns up to MaxRespawnPerCycle new animals, picking a weighted
// random species and a suitable tile (retrying up to
// MaxAquaticSpawnAttempts times for aquatic species, which require a
// water tile), skipping herd species (those are spawned as breeding
// groups by SpawnHerdGroup instead).
func MaintainPopulation(tx *sql.Tx, terrain environment.TerrainQuery, bounds [4]float32, rng *rand.Rand) error {
	counts, err := entity.CountActiveWildAnimalsBySpecies(tx)
	if err != nil {
		return reducer.Internalf(err, "counting wild animals for population maintenance")
	}
	total := 0
	for _, n := range counts {
		total += n
	}
	target := int(float64(WorldTiles) * WildAnimalDensity)
	if total >= target {
		return nil
	}

	spawned := 0
	// Bounded by a fixed number of species picks rather than an
	// unconditional loop, since a herd pick or a water-starved bounds
	// box would otherwise retry forever without making progress.
	for attempt := 0; attempt < MaxRespawnPerCycle*10 && spawned < MaxRespawnPerCycle && total+spawned < target; attempt++ {
		species := chooseWeightedSpecies(rng)
		sp, ok := Roster[species]
		if !ok || sp.Stats.Herd {
			continue
		}
		x, y, ok := pickSpawnTile(terrain, bounds, sp.Stats.Aquatic, rng)
		if !ok {
			continue
		}
		a := newAnimal(species, x, y, 0, nil)
		if err := entity.InsertWildAnimal(tx, a); err != nil {
			return reducer.Internalf(err, "spawning %s during population maintenance", species)
		}
		spawned++
	}
	return nil
}

func pickSpawnTile(terrain environment.TerrainQuery, bounds [4]float32, aquatic bool, rng *rand.Rand) (x, y float32, ok bool) {
	attempts := 1
	if aquatic {
		attempts = MaxAquaticSpawnAttempts
	}
	for i := 0; i < attempts; i++ {
		cx := bounds[0] + rng.Float32()*(bounds[2]-bounds[0])
		cy := bounds[1] + rng.Float32()*(bounds[3]-bounds[1])
		blocked := terrain.IsBlocked(cx, cy)
		if aquatic == blocked {
			return cx, cy, true
		}
	}
	return 0, 0, false
}

// SpawnHerdGroup spawns a herd species as a breeding-viable group of
// 3-4 with at least one male and one female (spec §4.M, grounded on
// respawn.rs's spawn_herd_animal_group: "Youth should NEVER spawn
// alone - only through births from pregnant females").
func SpawnHerdGroup(tx *sql.Tx, species string, centerX, centerY float32, chunkIndex int64, rng *rand.Rand) error {
	sp, ok := Roster[species]
	if !ok || !sp.Stats.Herd {
		return reducer.Internalf(nil, "species %q is not a herd species", species)
	}
	groupSize := 3 + rng.Intn(2) // 3-4, matching respawn.rs's gen_range(3..=4)

	malesSpawned, femalesSpawned := 0, 0
	for i := 0; i < groupSize; i++ {
		angle := rng.Float64() * 2 * math.Pi
		dist := 40 + rng.Float64()*40
		x := centerX + float32(math.Cos(angle)*dist)
		y := centerY + float32(math.Sin(angle)*dist)

		var sex string
		switch {
		case malesSpawned == 0 && (i == 0 || (i == groupSize-1 && femalesSpawned > 0)):
			sex = "male"
		case femalesSpawned == 0 && (i == 1 || (i == groupSize-1 && malesSpawned > 0)):
			sex = "female"
		default:
			if rng.Intn(2) == 0 {
				sex = "male"
			} else {
				sex = "female"
			}
		}
		if sex == "male" {
			malesSpawned++
		} else {
			femalesSpawned++
		}

		a := newAnimal(species, x, y, chunkIndex, nil)
		a.Sex = sex
		if err := entity.InsertWildAnimal(tx, a); err != nil {
			return reducer.Internalf(err, "spawning herd member %d of %s group", i, species)
		}
	}
	return nil
}
