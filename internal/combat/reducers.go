package combat

import (
	"database/sql"
	"math/rand"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// HitBarrel applies a hit to a barrel, and on the killing blow rolls
// its loot table, drops every resulting stack beside it, and schedules
// the 10-minute respawn (spec §4.J). A barrel already destroyed is a
// state error, not a validation error: it existed when the attack was
// aimed, but a concurrent hit got there first.
func HitBarrel(tx *sql.Tx, catalog *item.Catalog, table []LootRow, rng *rand.Rand, barrelID int64, attacker ids.Identity, raw float64, dtype DamageType, nowUs int64, newInstanceID func() string) (destroyed bool, err error) {
	b, err := entity.GetBarrel(tx, barrelID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Barrel no longer exists")
		}
		return false, reducer.Internalf(err, "loading barrel %d", barrelID)
	}
	if b.IsDestroyed {
		return false, reducer.Statef("Barrel is destroyed")
	}

	destroyed = Attack(b, raw, dtype, nil, attacker, nowUs)
	if !destroyed {
		if err := entity.UpdateBarrel(tx, b); err != nil {
			return false, reducer.Internalf(err, "saving damaged barrel %d", barrelID)
		}
		return false, nil
	}

	for _, drop := range RollBarrelLoot(table, rng) {
		if _, ok := catalog.Lookup(drop.DefID); !ok {
			continue
		}
		d := &entity.DroppedItem{PosX: b.PosX, PosY: b.PosY, ChunkIndex: b.ChunkIndex, CreatedAtUs: nowUs}
		if err := entity.InsertDroppedItem(tx, d); err != nil {
			return false, reducer.Internalf(err, "dropping barrel loot %s", drop.DefID)
		}
		inst := item.Instance{InstanceID: newInstanceID(), DefID: drop.DefID, Quantity: drop.Qty, Location: item.NewDroppedLocation(d.ID)}
		if err := item.Upsert(tx, inst); err != nil {
			return false, reducer.Internalf(err, "writing barrel loot instance %s", drop.DefID)
		}
	}

	respawnAt := nowUs + BarrelRespawnDelayUs
	b.RespawnAtUs = &respawnAt
	if err := entity.UpdateBarrel(tx, b); err != nil {
		return false, reducer.Internalf(err, "scheduling respawn for barrel %d", barrelID)
	}
	return true, nil
}

// RespawnDueBarrels is the scheduled reducer (spec §4.J "schedule
// respawn 10 min") that restores every barrel whose RespawnAtUs has
// passed back to full health and visibility.
func RespawnDueBarrels(tx *sql.Tx, nowUs int64) error {
	due, err := entity.DueBarrelRespawns(tx, nowUs)
	if err != nil {
		return reducer.Internalf(err, "listing due barrel respawns")
	}
	for _, id := range due {
		b, err := entity.GetBarrel(tx, id)
		if err != nil {
			return reducer.Internalf(err, "loading barrel %d for respawn", id)
		}
		b.Health = b.MaxHealth
		b.IsDestroyed = false
		b.DestroyedAtUs = 0
		b.RespawnAtUs = nil
		b.LastDamagedBy = ids.Identity{}
		if err := entity.UpdateBarrel(tx, b); err != nil {
			return reducer.Internalf(err, "respawning barrel %d", id)
		}
	}
	return nil
}

// HitStorageBox applies a hit to a wooden storage box, releasing its
// contents as dropped items on the killing blow (spec §4.J "structure
// destruction releases slot contents").
func HitStorageBox(tx *sql.Tx, boxID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	box, err := entity.GetBox(tx, boxID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Storage box no longer exists")
		}
		return false, reducer.Internalf(err, "loading storage box %d", boxID)
	}
	if box.IsDestroyed {
		return false, reducer.Statef("Storage box is destroyed")
	}

	destroyed = Attack(box, raw, dtype, resist, attacker, nowUs)
	if destroyed {
		if err := ReleaseContainerContents(tx, box, box.PosX, box.PosY, box.ChunkIndex, nowUs); err != nil {
			return false, err
		}
	}
	if err := entity.UpdateBox(tx, box); err != nil {
		return false, reducer.Internalf(err, "saving storage box %d", boxID)
	}
	return destroyed, nil
}

// HitWall applies a hit to a wall (spec §4.J); walls carry no slots so
// destruction needs no release pass.
func HitWall(tx *sql.Tx, wallID int64, attacker ids.Identity, raw float64, dtype DamageType, resist *item.Resistances, nowUs int64) (destroyed bool, err error) {
	w, err := entity.GetWall(tx, wallID)
	if err != nil {
		if err == sql.ErrNoRows {
			return false, reducer.Statef("Wall no longer exists")
		}
		return false, reducer.Internalf(err, "loading wall %d", wallID)
	}
	if w.IsDestroyed {
		return false, reducer.Statef("Wall is destroyed")
	}
	destroyed = Attack(w, raw, dtype, resist, attacker, nowUs)
	if err := entity.UpdateWall(tx, w); err != nil {
		return false, reducer.Internalf(err, "saving wall %d", wallID)
	}
	return destroyed, nil
}

// ConsumeMaterials removes qty units of defID from owner's inventory
// then hotbar (the same scan order as inventory.QuickMoveOrder),
// failing without consuming anything if the total falls short. This
// is the repair reducer's only way to spend materials, since
// internal/combat has no crafting-queue dependency of its own.
func ConsumeMaterials(tx *sql.Tx, owner ids.Identity, defID string, qty int) error {
	if qty <= 0 {
		return nil
	}
	inv, err := item.ListInventory(tx, owner, item.LocationInventory)
	if err != nil {
		return reducer.Internalf(err, "listing inventory for repair cost")
	}
	hot, err := item.ListInventory(tx, owner, item.LocationHotbar)
	if err != nil {
		return reducer.Internalf(err, "listing hotbar for repair cost")
	}

	var candidates []item.Instance
	have := 0
	for _, inst := range append(inv, hot...) {
		if inst.DefID != defID {
			continue
		}
		candidates = append(candidates, inst)
		have += inst.Quantity
	}
	if have < qty {
		return reducer.Validationf("Not enough %s to repair", defID)
	}

	remaining := qty
	for _, inst := range candidates {
		if remaining <= 0 {
			break
		}
		take := inst.Quantity
		if take > remaining {
			take = remaining
		}
		remaining -= take
		inst.Quantity -= take
		if inst.Quantity <= 0 {
			if err := item.Delete(tx, inst.InstanceID); err != nil {
				return reducer.Internalf(err, "removing consumed instance %s", inst.InstanceID)
			}
			continue
		}
		if err := item.Upsert(tx, inst); err != nil {
			return reducer.Internalf(err, "decrementing consumed instance %s", inst.InstanceID)
		}
	}
	return nil
}

// RepairWall runs the repair formula against a wall and consumes the
// resulting material cost from the repairer's inventory, all inside
// the caller's transaction (spec §4.J, §6 T-REPAIR).
func RepairWall(tx *sql.Tx, wallID int64, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	w, err := entity.GetWall(tx, wallID)
	if err != nil {
		if err == sql.ErrNoRows {
			return RepairResult{}, reducer.Statef("Wall no longer exists")
		}
		return RepairResult{}, reducer.Internalf(err, "loading wall %d", wallID)
	}
	state := RepairState{Health: w.Health, MaxHealth: w.MaxHealth, Owner: w.Owner, LastHitTimeUs: w.LastHitTimeUs, LastDamagedBy: w.LastDamagedBy}
	result, err := Repair(&state, repairer, nowUs, baseCost)
	if err != nil || result.Failed {
		return result, err
	}
	for defID, qty := range result.Consumed {
		if err := ConsumeMaterials(tx, repairer, defID, qty); err != nil {
			return RepairResult{}, err
		}
	}
	w.Health = state.Health
	w.LastHitTimeUs = state.LastHitTimeUs
	if err := entity.UpdateWall(tx, w); err != nil {
		return RepairResult{}, reducer.Internalf(err, "saving repaired wall %d", wallID)
	}
	return result, nil
}
