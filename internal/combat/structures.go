package combat

import (
	"database/sql"

	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// hitStructure is the shared core every Placement-embedding structure's
// Hit* wrapper funnels into (spec §4.J "Structure" policy, §6
// damage_structure): apply the hit, release slot contents on the
// killing blow for kinds that carry slots, then persist through the
// caller's own per-table save closure since each structure table has
// its own schema.
func hitStructure(tx *sql.Tx, target Target, slots container.Container, posX, posY float32, chunkIndex int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64, save func() error) (destroyed bool, err error) {
	destroyed = Attack(target, raw, dtype, resist, attacker, nowUs)
	if destroyed && slots != nil {
		if err := ReleaseContainerContents(tx, slots, posX, posY, chunkIndex, nowUs); err != nil {
			return false, err
		}
	}
	if err := save(); err != nil {
		return false, reducer.Internalf(err, "saving damaged structure")
	}
	return destroyed, nil
}

// repairStructure is the shared core every Repair* wrapper funnels
// into (spec §4.J, §6 T-REPAIR): run the formula, spend the resulting
// materials, then let the caller copy the updated Health/LastHitTimeUs
// back onto its concrete entity and persist it.
func repairStructure(tx *sql.Tx, state *RepairState, repairer ids.Identity, nowUs int64, baseCost map[string]int, save func(RepairState) error) (RepairResult, error) {
	result, err := Repair(state, repairer, nowUs, baseCost)
	if err != nil || result.Failed {
		return result, err
	}
	for defID, qty := range result.Consumed {
		if err := ConsumeMaterials(tx, repairer, defID, qty); err != nil {
			return RepairResult{}, err
		}
	}
	if err := save(*state); err != nil {
		return RepairResult{}, reducer.Internalf(err, "saving repaired structure")
	}
	return result, nil
}

// HitCampfire applies a hit to a campfire, releasing its cooking slots
// on the killing blow.
func HitCampfire(tx *sql.Tx, campfireID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	c, err := entity.GetCampfire(tx, campfireID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Campfire no longer exists")
		}
		return false, reducer.Internalf(err, "loading campfire %d", campfireID)
	}
	if c.IsDestroyed {
		return false, reducer.Statef("Campfire is destroyed")
	}
	return hitStructure(tx, c, c, c.PosX, c.PosY, c.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateCampfire(tx, c) })
}

// RepairCampfire runs the repair formula against a campfire.
func RepairCampfire(tx *sql.Tx, campfireID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	c, err := entity.GetCampfire(tx, campfireID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Campfire no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading campfire %d", campfireID)
	}
	state := RepairState{Health: c.Health, MaxHealth: c.MaxHealth, Owner: c.Owner, LastHitTimeUs: c.LastHitTimeUs, LastDamagedBy: c.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(s RepairState) error {
		c.Health, c.LastHitTimeUs = s.Health, s.LastHitTimeUs
		return entity.UpdateCampfire(tx, c)
	})
}

// HitFurnace applies a hit to a furnace, releasing its smelting slots
// on the killing blow.
func HitFurnace(tx *sql.Tx, furnaceID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	f, err := entity.GetFurnace(tx, furnaceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Furnace no longer exists")
		}
		return false, reducer.Internalf(err, "loading furnace %d", furnaceID)
	}
	if f.IsDestroyed {
		return false, reducer.Statef("Furnace is destroyed")
	}
	return hitStructure(tx, f, f, f.PosX, f.PosY, f.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateFurnace(tx, f) })
}

// RepairFurnace runs the repair formula against a furnace.
func RepairFurnace(tx *sql.Tx, furnaceID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	f, err := entity.GetFurnace(tx, furnaceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Furnace no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading furnace %d", furnaceID)
	}
	state := RepairState{Health: f.Health, MaxHealth: f.MaxHealth, Owner: f.Owner, LastHitTimeUs: f.LastHitTimeUs, LastDamagedBy: f.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(s RepairState) error {
		f.Health, f.LastHitTimeUs = s.Health, s.LastHitTimeUs
		return entity.UpdateFurnace(tx, f)
	})
}

// HitShelter applies a hit to a shelter. Shelters carry no slots, so
// destruction needs no release pass (spec §4.J).
func HitShelter(tx *sql.Tx, shelterID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	s, err := entity.GetShelter(tx, shelterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Shelter no longer exists")
		}
		return false, reducer.Internalf(err, "loading shelter %d", shelterID)
	}
	if s.IsDestroyed {
		return false, reducer.Statef("Shelter is destroyed")
	}
	return hitStructure(tx, s, nil, s.PosX, s.PosY, s.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateShelter(tx, s) })
}

// RepairShelter runs the repair formula against a shelter.
func RepairShelter(tx *sql.Tx, shelterID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	s, err := entity.GetShelter(tx, shelterID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Shelter no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading shelter %d", shelterID)
	}
	state := RepairState{Health: s.Health, MaxHealth: s.MaxHealth, Owner: s.Owner, LastHitTimeUs: s.LastHitTimeUs, LastDamagedBy: s.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(st RepairState) error {
		s.Health, s.LastHitTimeUs = st.Health, st.LastHitTimeUs
		return entity.UpdateShelter(tx, s)
	})
}

// HitLantern applies a hit to a lantern, releasing its fuel slot on
// the killing blow.
func HitLantern(tx *sql.Tx, lanternID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	l, err := entity.GetLantern(tx, lanternID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Lantern no longer exists")
		}
		return false, reducer.Internalf(err, "loading lantern %d", lanternID)
	}
	if l.IsDestroyed {
		return false, reducer.Statef("Lantern is destroyed")
	}
	return hitStructure(tx, l, l, l.PosX, l.PosY, l.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateLantern(tx, l) })
}

// RepairLantern runs the repair formula against a lantern.
func RepairLantern(tx *sql.Tx, lanternID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	l, err := entity.GetLantern(tx, lanternID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Lantern no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading lantern %d", lanternID)
	}
	state := RepairState{Health: l.Health, MaxHealth: l.MaxHealth, Owner: l.Owner, LastHitTimeUs: l.LastHitTimeUs, LastDamagedBy: l.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(s RepairState) error {
		l.Health, l.LastHitTimeUs = s.Health, s.LastHitTimeUs
		return entity.UpdateLantern(tx, l)
	})
}

// HitCollector applies a hit to a rain collector, releasing its jug
// slots on the killing blow.
func HitCollector(tx *sql.Tx, collectorID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	r, err := entity.GetRainCollector(tx, collectorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Rain collector no longer exists")
		}
		return false, reducer.Internalf(err, "loading rain collector %d", collectorID)
	}
	if r.IsDestroyed {
		return false, reducer.Statef("Rain collector is destroyed")
	}
	return hitStructure(tx, r, r, r.PosX, r.PosY, r.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateRainCollector(tx, r) })
}

// RepairCollector runs the repair formula against a rain collector.
func RepairCollector(tx *sql.Tx, collectorID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	r, err := entity.GetRainCollector(tx, collectorID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Rain collector no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading rain collector %d", collectorID)
	}
	state := RepairState{Health: r.Health, MaxHealth: r.MaxHealth, Owner: r.Owner, LastHitTimeUs: r.LastHitTimeUs, LastDamagedBy: r.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(s RepairState) error {
		r.Health, r.LastHitTimeUs = s.Health, s.LastHitTimeUs
		return entity.UpdateRainCollector(tx, r)
	})
}

// HitTurret applies a hit to a turret, releasing its ammunition slots
// on the killing blow.
func HitTurret(tx *sql.Tx, turretID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	t, err := entity.GetTurret(tx, turretID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Turret no longer exists")
		}
		return false, reducer.Internalf(err, "loading turret %d", turretID)
	}
	if t.IsDestroyed {
		return false, reducer.Statef("Turret is destroyed")
	}
	return hitStructure(tx, t, t, t.PosX, t.PosY, t.ChunkIndex, attacker, raw, dtype, resist, nowUs,
		func() error { return entity.UpdateTurret(tx, t) })
}

// RepairTurret runs the repair formula against a turret.
func RepairTurret(tx *sql.Tx, turretID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	t, err := entity.GetTurret(tx, turretID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Turret no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading turret %d", turretID)
	}
	state := RepairState{Health: t.Health, MaxHealth: t.MaxHealth, Owner: t.Owner, LastHitTimeUs: t.LastHitTimeUs, LastDamagedBy: t.LastDamagedBy}
	return repairStructure(tx, &state, repairer, nowUs, baseCost, func(s RepairState) error {
		t.Health, t.LastHitTimeUs = s.Health, s.LastHitTimeUs
		return entity.UpdateTurret(tx, t)
	})
}
