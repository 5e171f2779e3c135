package main

import (
	"database/sql"
	"math/rand"

	"github.com/ownworld/core/internal/combat"
	"github.com/ownworld/core/internal/conversion"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/environment"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/lifecycle"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/projectile"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/weather"
	"github.com/ownworld/core/internal/wildlife"
)

// worldBounds is the playable area wildlife population maintenance
// samples spawn tiles within. Without a terrain/map generation system
// (out of this module's reach; spec Non-goals exclude world
// generation) this is a placeholder square large enough to exercise
// the maintenance logic.
var worldBounds = [4]float32{-5000, -5000, 5000, 5000}

// ticks bundles every scheduled job this binary registers, each
// wrapped to the schedule.Reducer shape (spec §4.G) and sharing one
// rng, valid because the schedule registry fires jobs sequentially
// within a single Tick call (internal/schedule.Registry.Tick).
type ticks struct {
	catalog *item.Catalog
	rng     *rand.Rand
	newID   func() string
}

func newTicks(catalog *item.Catalog, newID func() string) *ticks {
	return &ticks{catalog: catalog, rng: rand.New(rand.NewSource(1)), newID: newID}
}

func (t *ticks) barrelRespawn(tx *sql.Tx, now ids.Timestamp) error {
	return combat.RespawnDueBarrels(tx, int64(now))
}

func (t *ticks) droppedItemDespawn(tx *sql.Tx, now ids.Timestamp) error {
	_, err := entity.DespawnDueDroppedItems(tx, int64(now))
	return err
}

func (t *ticks) firePatchDamage(tx *sql.Tx, now ids.Timestamp) error {
	return environment.TickDamage(tx, int64(now))
}

func (t *ticks) firePatchCleanup(tx *sql.Tx, now ids.Timestamp) error {
	if err := environment.Propagate(tx, t.rng, int64(now)); err != nil {
		return err
	}
	return environment.Cleanup(tx, int64(now))
}

func (t *ticks) compostProcessing(tx *sql.Tx, now ids.Timestamp) error {
	bins, err := entity.ListActiveCompostBins(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active compost bins")
	}
	return conversion.TickCompostBins(tx, t.catalog, bins, int64(now), t.newID)
}

func (t *ticks) fishTrapProcessing(tx *sql.Tx, now ids.Timestamp) error {
	traps, err := entity.ListActiveFishTraps(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active fish traps")
	}
	return conversion.TickFishTraps(tx, t.catalog, traps, int64(now), t.newID)
}

func (t *ticks) campfireProcessing(tx *sql.Tx, now ids.Timestamp) error {
	campfires, err := entity.ListLitCampfires(tx)
	if err != nil {
		return reducer.Internalf(err, "listing lit campfires")
	}
	return conversion.TickCampfires(tx, t.catalog, campfires, int64(now), t.newID)
}

func (t *ticks) furnaceProcessing(tx *sql.Tx, now ids.Timestamp) error {
	furnaces, err := entity.ListLitFurnaces(tx)
	if err != nil {
		return reducer.Internalf(err, "listing lit furnaces")
	}
	return conversion.TickFurnaces(tx, t.catalog, furnaces, int64(now), t.newID)
}

func (t *ticks) projectileSweep(tx *sql.Tx, now ids.Timestamp) error {
	return projectile.Sweep(tx, t.catalog, int64(now))
}

func (t *ticks) turretLogic(tx *sql.Tx, now ids.Timestamp) error {
	return projectile.ProcessTurrets(tx, t.catalog, wildlife.IsHostile, 800, int64(now), t.newID)
}

func (t *ticks) wildlifeTick(tx *sql.Tx, now ids.Timestamp) error {
	animals, err := entity.ListActiveWildAnimals(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active wild animals")
	}
	for _, a := range animals {
		if err := wildlife.Tick(tx, a, int64(now), t.rng); err != nil {
			return err
		}
	}
	return nil
}

func (t *ticks) spawnZoneMaintenance(tx *sql.Tx, now ids.Timestamp) error {
	return wildlife.MaintainSpawnZones(tx, t.rng)
}

func (t *ticks) populationMaintenance(tx *sql.Tx, now ids.Timestamp) error {
	terrain := environment.TerrainQuery{DB: tx}
	return wildlife.MaintainPopulation(tx, terrain, worldBounds, t.rng)
}

func (t *ticks) knockedOutRecovery(tx *sql.Tx, now ids.Timestamp) error {
	statuses, err := entity.ListKnockedOutStatuses(tx)
	if err != nil {
		return reducer.Internalf(err, "listing knocked out players")
	}
	for _, s := range statuses {
		if _, err := lifecycle.ProcessRecoveryTick(tx, t.catalog, s.PlayerIdentity, int64(now), t.rng, 0); err != nil {
			return err
		}
	}
	return nil
}

func (t *ticks) statDrain(tx *sql.Tx, now ids.Timestamp) error {
	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players for stat drain")
	}
	for _, p := range online {
		if p.IsDead || p.IsKnockedOut {
			continue
		}
		p.Hunger = clamp(p.Hunger-0.05, 0, 100)
		p.Thirst = clamp(p.Thirst-0.08, 0, 100)
		if err := player.Save(tx, p); err != nil {
			return reducer.Internalf(err, "saving stat drain for %s", p.Identity)
		}
	}
	return nil
}

// rainCollectorIntervalSeconds must match registerScheduledJobs's
// rain_collector_update cadence: CollectChunk needs the elapsed time
// the rate table in internal/weather is expressed per-second against.
const rainCollectorIntervalSeconds = 30

// rainCollectorUpdate applies one tick of collection to every rain
// collector sitting in an actively-raining chunk (spec §6
// "rain-collector update (driven by weather chunk update)").
func (t *ticks) rainCollectorUpdate(tx *sql.Tx, now ids.Timestamp) error {
	active, err := weather.ListActive(tx)
	if err != nil {
		return err
	}
	for chunkIndex, class := range active {
		if err := weather.CollectChunk(tx, chunkIndex, class, rainCollectorIntervalSeconds, int64(now)); err != nil {
			return err
		}
	}
	return nil
}

// sleepingBagConditionDecayPerHour is the per-tick wear the
// sleeping-bag deterioration job applies; a bag crumbles after a day
// left unused (spec names the 1 h cadence but not a numeric rate).
const sleepingBagConditionDecayPerHour = 1.0 / 24.0

// sleepingBagDeterioration wears down every active sleeping bag,
// destroying it once condition reaches zero (spec §6, 1 h cadence).
func (t *ticks) sleepingBagDeterioration(tx *sql.Tx, now ids.Timestamp) error {
	bags, err := entity.ListActiveSleepingBags(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active sleeping bags")
	}
	for _, b := range bags {
		condition := b.Condition - sleepingBagConditionDecayPerHour
		destroyed := condition <= 0
		if destroyed {
			condition = 0
		}
		if err := entity.UpdateSleepingBagCondition(tx, b.ID, condition, destroyed); err != nil {
			return reducer.Internalf(err, "deteriorating sleeping bag %d", b.ID)
		}
	}
	return nil
}

// dodgeRollCleanup clears IsDodging on every player whose roll window
// has elapsed (spec §6, 100 ms cadence).
func (t *ticks) dodgeRollCleanup(tx *sql.Tx, now ids.Timestamp) error {
	dodging, err := player.ListDodging(tx)
	if err != nil {
		return reducer.Internalf(err, "listing dodging players")
	}
	for _, p := range dodging {
		if int64(now) < p.DodgeRollEndsAtUs {
			continue
		}
		if err := player.ClearDodgeRoll(tx, p.Identity); err != nil {
			return reducer.Internalf(err, "clearing dodge roll for %s", p.Identity)
		}
	}
	return nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
