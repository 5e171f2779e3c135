// Package combat implements the shared damage-application contract
// (spec §4.J): damage types and resistances, the barrel loot roll,
// structure destruction (slot contents released as dropped items), and
// the repair reducer's cost/cooldown formula.
package combat

import (
	"database/sql"
	"math"
	"math/rand"

	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// DamageType is one of the four types spec §4.J names.
type DamageType string

const (
	DamageSlash      DamageType = "slash"
	DamagePierce     DamageType = "pierce"
	DamageBlunt      DamageType = "blunt"
	DamageProjectile DamageType = "projectile"
)

// resistanceFor reads the per-type resistance fraction (0..1) off an
// armor definition's Resistances, or 0 if the target carries none.
func resistanceFor(r *item.Resistances, t DamageType) float64 {
	if r == nil {
		return 0
	}
	switch t {
	case DamageSlash:
		return r.Slash
	case DamagePierce:
		return r.Pierce
	case DamageBlunt:
		return r.Blunt
	case DamageProjectile:
		return r.Projectile
	}
	return 0
}

// EffectiveDamage applies a target's resistance fraction to a raw hit.
func EffectiveDamage(raw float64, t DamageType, resist *item.Resistances) float64 {
	frac := resistanceFor(resist, t)
	if frac < 0 {
		frac = 0
	}
	if frac > 1 {
		frac = 1
	}
	return raw * (1 - frac)
}

// Target is the shared contract every damageable entity implements
// (spec §4.J "apply_damage(attacker, damage, type, t)"). Every
// Placement-embedding entity type in internal/entity satisfies this
// through the embedded ApplyDamage method; Barrel and Wall (non-
// Placement types) each carry their own matching method. ResourceNode's
// ApplyDamage takes only the damage amount, so it does not satisfy
// Target.
type Target interface {
	ApplyDamage(dmg float64, attacker ids.Identity, nowUs int64) (destroyed bool)
}

// Attack resolves resistances then applies the hit, reporting whether
// the target was destroyed.
func Attack(target Target, raw float64, dtype DamageType, resist *item.Resistances, attacker ids.Identity, nowUs int64) bool {
	return target.ApplyDamage(EffectiveDamage(raw, dtype, resist), attacker, nowUs)
}

// LootRow is one line of a barrel's loot table.
type LootRow struct {
	DefID      string
	Tier       string
	DropChance float64
	MinQty     int
	MaxQty     int
}

// LootDrop is one resolved drop from RollBarrelLoot.
type LootDrop struct {
	DefID string
	Qty   int
}

// RollBarrelLoot rolls every row once, shuffles successes down to at
// most 3 drops, and guarantees one common-tier row if nothing hit
// (spec §4.J "roll full loot table ... if none rolled, guarantee one
// common tier row").
func RollBarrelLoot(table []LootRow, rng *rand.Rand) []LootDrop {
	var hits []LootDrop
	for _, row := range table {
		if rng.Float64() >= row.DropChance {
			continue
		}
		qty := row.MinQty
		if row.MaxQty > row.MinQty {
			qty += rng.Intn(row.MaxQty - row.MinQty + 1)
		}
		hits = append(hits, LootDrop{DefID: row.DefID, Qty: qty})
	}
	if len(hits) == 0 {
		for _, row := range table {
			if row.Tier == "common" {
				hits = append(hits, LootDrop{DefID: row.DefID, Qty: row.MinQty})
				break
			}
		}
		return hits
	}
	if len(hits) > 3 {
		rng.Shuffle(len(hits), func(i, j int) { hits[i], hits[j] = hits[j], hits[i] })
		hits = hits[:3]
	}
	return hits
}

// BarrelRespawnDelayUs is spec §4.J "schedule respawn 10 min".
const BarrelRespawnDelayUs int64 = 10 * 60 * 1_000_000

// ReleaseContainerContents drops every occupied slot of a destroyed
// structure as its own dropped item at the structure's position (spec
// §4.J "releases slot contents as dropped items"). The batch/
// consolidation suppression spec.md alludes to is a client-side
// presentation detail (how simultaneous drops visually merge); the
// module-side effect either way is one dropped_items row per released
// instance, which is what this produces.
func ReleaseContainerContents(tx *sql.Tx, c container.Container, posX, posY float32, chunkIndex int64, nowUs int64) error {
	for slot := 0; slot < c.NumSlots(); slot++ {
		inst, err := item.GetAt(tx, c.SlotLocation(slot))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return reducer.Internalf(err, "reading slot %d of %s for release", slot, c.Label())
		}
		d := &entity.DroppedItem{PosX: posX, PosY: posY, ChunkIndex: chunkIndex, CreatedAtUs: nowUs}
		if err := entity.InsertDroppedItem(tx, d); err != nil {
			return reducer.Internalf(err, "dropping released item from %s", c.Label())
		}
		inst.Location = item.NewDroppedLocation(d.ID)
		inst.ClearPlacedAt()
		if err := item.Upsert(tx, inst); err != nil {
			return reducer.Internalf(err, "relocating released item to dropped_items")
		}
	}
	return nil
}

// RepairAmount is spec §6's "repair amount 50" contract constant.
const RepairAmount = 50.0

// PvPRepairCooldownUs is spec §6's "PvP repair cooldown 300 s".
const PvPRepairCooldownUs int64 = 300 * 1_000_000

// RepairState is the subset of a structure's fields the repair formula
// needs; callers load their concrete entity, build one of these, call
// Repair, then copy Health/LastHitTimeUs back and persist it.
type RepairState struct {
	Health, MaxHealth float64
	Owner             ids.Identity
	LastHitTimeUs     int64
	LastDamagedBy     ids.Identity
}

// RepairResult reports what a repair attempt did, including the
// "already fine" and "on PvP cooldown" failure cases that still count
// as a hit for UI purposes (spec §4.J: "else emit fail SFX, still
// report hit so UI shows a health bar").
type RepairResult struct {
	Failed   bool
	Healed   float64
	Consumed map[string]int
}

// Repair applies spec §4.J's repair formula: target not at full health,
// repairer must own the structure, a 5-minute PvP cooldown applies if
// the last hit came from someone other than the owner, and the
// material cost scales with the deficit healed (T-REPAIR).
func Repair(s *RepairState, repairer ids.Identity, nowUs int64, baseCost map[string]int) (RepairResult, error) {
	if s.Owner != repairer {
		return RepairResult{}, reducer.Validationf("Not structure owner")
	}
	if s.Health >= s.MaxHealth {
		return RepairResult{Failed: true}, nil
	}
	if !s.LastDamagedBy.IsZero() && s.LastDamagedBy != s.Owner && nowUs-s.LastHitTimeUs < PvPRepairCooldownUs {
		return RepairResult{Failed: true}, nil
	}

	deficit := s.MaxHealth - s.Health
	heal := deficit
	if heal > RepairAmount {
		heal = RepairAmount
	}
	consumed := make(map[string]int, len(baseCost))
	for mat, cost := range baseCost {
		consumed[mat] = int(math.Ceil(float64(cost) * heal / s.MaxHealth))
	}

	s.Health += heal
	s.LastHitTimeUs = nowUs
	return RepairResult{Healed: heal, Consumed: consumed}, nil
}
