// Package lifecycle implements spec §4.L/§4.J's death, knockout
// recovery, and respawn pipelines: the 3s per-player recovery reducer
// with its piecewise recovery/death chance curves, the death pipeline
// (effect clear, weapon drop, corpse creation, death marker), and the
// two respawn entry points with their safeguard inventory clear.
package lifecycle

import (
	"database/sql"
	"math"
	"math/rand"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/inventory"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
)

// ReviveInteractionRadius is spec §4.J's revive distance.
const ReviveInteractionRadius float32 = 128

// KnockoutRecoveryIntervalUs is the 3s tick cadence (spec §4.J, §6).
const KnockoutRecoveryIntervalUs int64 = 3 * 1_000_000

// ReviveHealth is the HP a successful recovery or forced revive grants.
const ReviveHealth = 10.0

// hungerModifier, thirstModifier, staminaModifier and warmthModifier
// reproduce the four step functions original_source's
// knocked_out.rs applies to hunger/thirst/stamina/warmth before the
// recovery/death rolls.
func hungerModifier(v float64) float64 {
	switch {
	case v >= 75:
		return 1.5
	case v >= 25:
		return 1.0
	case v >= 10:
		return 0.7
	default:
		return 0.5
	}
}

func thirstModifier(v float64) float64 {
	switch {
	case v >= 75:
		return 1.4
	case v >= 25:
		return 1.0
	case v >= 10:
		return 0.6
	default:
		return 0.4
	}
}

func staminaModifier(v float64) float64 {
	switch {
	case v >= 75:
		return 1.3
	case v >= 50:
		return 1.0
	case v >= 25:
		return 0.8
	default:
		return 0.6
	}
}

func warmthModifier(v float64) float64 {
	switch {
	case v >= 75:
		return 1.3
	case v >= 25:
		return 1.0
	case v >= 10:
		return 0.7
	default:
		return 0.5
	}
}

// averageArmorResistance is the mean of every equipped armor piece's
// four resistance fractions, standing in for original_source's
// calculate_total_damage_resistance.
func averageArmorResistance(tx *sql.Tx, catalog *item.Catalog, owner ids.Identity) (float64, error) {
	equipped, err := item.ListInventory(tx, owner, item.LocationEquipped)
	if err != nil {
		return 0, reducer.Internalf(err, "listing equipped armor for %s", owner)
	}
	var total float64
	var n int
	for _, inst := range equipped {
		def, ok := catalog.Lookup(inst.DefID)
		if !ok || def.Resistances == nil {
			continue
		}
		r := def.Resistances
		total += (r.Slash + r.Pierce + r.Blunt + r.Projectile) / 4
		n++
	}
	if n == 0 {
		return 0, nil
	}
	return total / float64(n), nil
}

// StatMultiplier is spec §4.J's `stat_multiplier`.
func StatMultiplier(p player.Player, armorResistance float64) float64 {
	m := hungerModifier(p.Hunger) * thirstModifier(p.Thirst) * staminaModifier(p.Stamina) * warmthModifier(p.Warmth) * (1 + 2*armorResistance)
	return math.Min(3.0, math.Max(0.2, m))
}

// RecoveryChance is spec §4.J's `recovery_chance(dur)`, forced to 0 for
// the first 10 seconds (T-5).
func RecoveryChance(durationSec int64, statMultiplier float64) float64 {
	var base float64
	switch {
	case durationSec <= 40:
		base = 0.08 + (float64(40-durationSec)/30)*0.12
	case durationSec <= 70:
		base = 0.05 + (float64(70-durationSec)/30)*0.03
	default:
		factor := math.Min(float64(durationSec-70)/60, 1)
		base = 0.05 - factor*0.03
	}
	theoretical := math.Min(0.35, math.Max(0.02, base*statMultiplier))
	if durationSec < 10 {
		return 0
	}
	return theoretical
}

// DeathChance is spec §4.J's `death_chance(dur)`.
func DeathChance(durationSec int64, statMultiplier float64) float64 {
	switch {
	case durationSec <= 45:
		return 0
	case durationSec <= 75:
		factor := float64(durationSec-45) / 30
		return (factor * 0.15) / math.Max(statMultiplier, 0.8)
	default:
		factor := math.Min(float64(durationSec-75)/45, 1)
		base := 0.15 + factor*0.25
		return base / math.Max(1+(statMultiplier-1)*0.7, 0.9)
	}
}

// RecoveryOutcome is what ProcessRecoveryTick decided to do.
type RecoveryOutcome string

const (
	OutcomeDied        RecoveryOutcome = "died"
	OutcomeRecovered   RecoveryOutcome = "recovered"
	OutcomeRescheduled RecoveryOutcome = "rescheduled"
)

// Begin starts the knockout state machine for a player: marks them
// knocked out and inserts the KnockedOutStatus row the 3s reducer
// keys off (spec §4.J).
func Begin(tx *sql.Tx, p *player.Player, nowUs int64) error {
	p.IsKnockedOut = true
	p.KnockedOutAtUs = &nowUs
	if err := player.Save(tx, *p); err != nil {
		return reducer.Internalf(err, "marking %s knocked out", p.Identity)
	}
	return entity.InsertKnockedOutStatus(tx, &entity.KnockedOutStatus{
		PlayerIdentity: p.Identity, KnockedOutAtUs: nowUs, LastTickUs: nowUs,
	})
}

// ProcessRecoveryTick is the 3s scheduled reducer body (spec §4.J): it
// loads the player and their KnockedOutStatus row, rolls the
// death/recovery/reschedule outcome, and applies it. Returns
// OutcomeRescheduled with no error when the caller should schedule
// another tick in 3s; any other outcome means the schedule row (and
// KnockedOutStatus) has already been deleted.
func ProcessRecoveryTick(tx *sql.Tx, catalog *item.Catalog, identity ids.Identity, nowUs int64, rng *rand.Rand, corpseSlotBase int) (RecoveryOutcome, error) {
	p, err := player.Get(tx, identity)
	if err != nil {
		if err == sql.ErrNoRows {
			return OutcomeRecovered, entity.DeleteKnockedOutStatus(tx, identity)
		}
		return "", reducer.Internalf(err, "loading player %s for recovery tick", identity)
	}
	if !p.IsKnockedOut {
		return OutcomeRecovered, entity.DeleteKnockedOutStatus(tx, identity)
	}
	if p.KnockedOutAtUs == nil {
		p.IsKnockedOut = false
		if err := player.Save(tx, p); err != nil {
			return "", reducer.Internalf(err, "clearing inconsistent knockout state for %s", identity)
		}
		return OutcomeRecovered, entity.DeleteKnockedOutStatus(tx, identity)
	}

	durationSec := (nowUs - *p.KnockedOutAtUs) / 1_000_000
	armorResist, err := averageArmorResistance(tx, catalog, identity)
	if err != nil {
		return "", err
	}
	mult := StatMultiplier(p, armorResist)
	recovery := RecoveryChance(durationSec, mult)
	death := DeathChance(durationSec, mult)

	roll := rng.Float64()
	switch {
	case roll < death:
		if err := Kill(tx, catalog, &p, ids.Identity{}, "knocked out death", nowUs, corpseSlotBase); err != nil {
			return "", err
		}
		return OutcomeDied, entity.DeleteKnockedOutStatus(tx, identity)
	case roll < death+recovery:
		p.IsKnockedOut = false
		p.KnockedOutAtUs = nil
		p.Health = ReviveHealth
		if err := player.Save(tx, p); err != nil {
			return "", reducer.Internalf(err, "reviving %s", identity)
		}
		return OutcomeRecovered, entity.DeleteKnockedOutStatus(tx, identity)
	default:
		if err := entity.UpdateKnockedOutStatus(tx, &entity.KnockedOutStatus{PlayerIdentity: identity, KnockedOutAtUs: *p.KnockedOutAtUs, LastTickUs: nowUs}); err != nil {
			return "", reducer.Internalf(err, "rescheduling recovery for %s", identity)
		}
		return OutcomeRescheduled, nil
	}
}

// Revive lets any other living, non-knocked-out player within
// ReviveInteractionRadius forcibly revive a knocked-out target at 10
// HP (spec §4.J).
func Revive(tx *sql.Tx, reviver, target player.Player) (player.Player, error) {
	if reviver.IsDead {
		return player.Player{}, reducer.Validationf("Dead players cannot revive others")
	}
	if reviver.IsKnockedOut {
		return player.Player{}, reducer.Validationf("Knocked out players cannot revive others")
	}
	if !target.IsKnockedOut {
		return player.Player{}, reducer.Validationf("Target player is not knocked out")
	}
	if target.IsDead {
		return player.Player{}, reducer.Validationf("Target player is already dead")
	}
	if !spatial.WithinRadius(reviver.PosX, reviver.PosY, target.PosX, target.PosY, ReviveInteractionRadius) {
		return player.Player{}, reducer.Validationf("Too far away to revive player")
	}

	target.IsKnockedOut = false
	target.KnockedOutAtUs = nil
	target.Health = ReviveHealth
	if err := player.Save(tx, target); err != nil {
		return player.Player{}, reducer.Internalf(err, "reviving %s", target.Identity)
	}
	if err := entity.DeleteKnockedOutStatus(tx, target.Identity); err != nil {
		return player.Player{}, reducer.Internalf(err, "clearing knockout status for %s", target.Identity)
	}
	return target, nil
}

// Kill runs the full death pipeline (spec §4.L): clear effects, drop
// the active weapon with jitter, clear ActiveWeaponID, transfer every
// remaining item into a new PlayerCorpse, record the DeathMarker, and
// zero the player's health/facing. corpseSlotBase is a floor on the
// corpse's slot count (callers typically pass 0; it only matters when
// a test wants a stable minimum).
func Kill(tx *sql.Tx, catalog *item.Catalog, p *player.Player, killedBy ids.Identity, cause string, nowUs int64, corpseSlotBase int) error {
	if err := entity.ClearEffects(tx, p.Identity); err != nil {
		return reducer.Internalf(err, "clearing effects for %s", p.Identity)
	}

	if p.ActiveWeaponID != nil {
		if err := dropActiveWeapon(tx, p, nowUs); err != nil {
			return err
		}
		p.ActiveWeaponID = nil
	}

	transferred, err := transferToCorpse(tx, p, killedBy, cause, nowUs, corpseSlotBase)
	if err != nil {
		return err
	}
	_ = transferred

	if err := entity.InsertDeathMarker(tx, &entity.DeathMarker{
		PlayerIdentity: p.Identity, PosX: p.PosX, PosY: p.PosY, TsUs: nowUs, KilledBy: killedBy, Cause: cause,
	}); err != nil {
		return reducer.Internalf(err, "recording death marker for %s", p.Identity)
	}

	p.IsDead = true
	p.IsKnockedOut = false
	p.KnockedOutAtUs = nil
	p.Health = 0
	p.Facing = 0
	if err := player.Save(tx, *p); err != nil {
		return reducer.Internalf(err, "saving dead player %s", p.Identity)
	}
	return nil
}

// dropActiveWeapon moves the item pointed to by p.ActiveWeaponID to a
// fresh dropped-item row at the death position plus a [30, 60) px
// random jitter (spec §4.L step 2).
func dropActiveWeapon(tx *sql.Tx, p *player.Player, nowUs int64) error {
	inst, err := item.GetTx(tx, *p.ActiveWeaponID)
	if err == sql.ErrNoRows {
		return nil
	}
	if err != nil {
		return reducer.Internalf(err, "loading active weapon %s", *p.ActiveWeaponID)
	}

	angle := rand.Float64() * 2 * math.Pi
	dist := 30 + rand.Float64()*30
	dropX := p.PosX + float32(math.Cos(angle)*dist)
	dropY := p.PosY + float32(math.Sin(angle)*dist)

	d := &entity.DroppedItem{PosX: dropX, PosY: dropY, ChunkIndex: p.ChunkIndex, CreatedAtUs: nowUs}
	if err := entity.InsertDroppedItem(tx, d); err != nil {
		return reducer.Internalf(err, "dropping weapon for %s", p.Identity)
	}
	inst.Location = item.NewDroppedLocation(d.ID)
	inst.ClearPlacedAt()
	if err := item.Upsert(tx, inst); err != nil {
		return reducer.Internalf(err, "relocating dropped weapon instance")
	}
	return nil
}

// transferToCorpse moves every item remaining in owner's Inventory,
// Hotbar and Equipped containers into a freshly created PlayerCorpse
// placed at the player's death position (spec §4.L step 4).
func transferToCorpse(tx *sql.Tx, p *player.Player, killedBy ids.Identity, cause string, nowUs int64, slotBase int) (int, error) {
	owner := p.Identity
	var all []item.Instance
	for _, kind := range []item.LocationKind{item.LocationInventory, item.LocationHotbar, item.LocationEquipped} {
		insts, err := item.ListInventory(tx, owner, kind)
		if err != nil {
			return 0, reducer.Internalf(err, "listing %s for corpse transfer", kind)
		}
		all = append(all, insts...)
	}

	slotCount := slotBase
	if len(all) > slotCount {
		slotCount = len(all)
	}
	if slotCount == 0 {
		slotCount = 1
	}
	corpse := &entity.PlayerCorpse{
		PosX: p.PosX, PosY: p.PosY, ChunkIndex: p.ChunkIndex,
		Owner: owner, CreatedAtUs: nowUs, KilledBy: killedBy, Cause: cause, SlotCount: slotCount,
	}
	if err := entity.InsertPlayerCorpse(tx, corpse); err != nil {
		return 0, reducer.Internalf(err, "creating corpse for %s", owner)
	}

	for i, inst := range all {
		inst.Location = corpse.SlotLocation(i)
		inst.ClearPlacedAt()
		if err := item.Upsert(tx, inst); err != nil {
			return 0, reducer.Internalf(err, "transferring item %s to corpse", inst.InstanceID)
		}
	}
	return len(all), nil
}

// SafeguardClear purges any item still bound to owner's Inventory,
// Hotbar, or Equipped slots (spec §4.L: "purge any items still bound
// to the player slot"). In normal operation death already emptied
// these via transferToCorpse; this only matters for crash-recovery
// edge cases where the death pipeline aborted partway through.
func SafeguardClear(tx *sql.Tx, owner ids.Identity) error {
	for _, kind := range []item.LocationKind{item.LocationInventory, item.LocationHotbar, item.LocationEquipped} {
		insts, err := item.ListInventory(tx, owner, kind)
		if err != nil {
			return reducer.Internalf(err, "listing %s for safeguard clear", kind)
		}
		for _, inst := range insts {
			if err := item.Delete(tx, inst.InstanceID); err != nil {
				return reducer.Internalf(err, "safeguard-clearing instance %s", inst.InstanceID)
			}
		}
	}
	return nil
}

// RefundCraftingQueue is the crafting-queue half of the respawn
// safeguard (spec §4.L). This module has no internal/crafting queue
// table of its own (SPEC_FULL.md's supplemented-features review found
// none to ground one on beyond what §4.L itself calls a crash-recovery
// no-op in normal operation), so this is an explicit no-op kept as its
// own call site so a future crafting-queue package has a home to wire
// into without touching the respawn call order.
func RefundCraftingQueue(tx *sql.Tx, owner ids.Identity) error {
	return nil
}

// StarterItem is one stack of the kit granted on respawn.
type StarterItem struct {
	DefID string
	Qty   int
}

// RespawnRandomly is spec §4.L's random-respawn entry point: safeguard
// clear, reset vitals, place at (spawnX, spawnY), grant the starter
// kit. Finding "a clear point far from threats" is the caller's job
// (a world-spawn picker outside this package's scope); spawnX/spawnY
// are supplied already resolved.
func RespawnRandomly(tx *sql.Tx, owner ids.Identity, spawnX, spawnY float32, chunkIndex int64, starterKit []StarterItem, newInstanceID func() string, nowUs int64) (player.Player, error) {
	return respawn(tx, owner, spawnX, spawnY, chunkIndex, starterKit, newInstanceID, nowUs)
}

// RespawnAtSleepingBag is spec §4.L's sleeping-bag entry point: the
// caller must own the bag and it must not be destroyed.
func RespawnAtSleepingBag(tx *sql.Tx, owner ids.Identity, bag *entity.SleepingBag, starterKit []StarterItem, newInstanceID func() string, nowUs int64) (player.Player, error) {
	if bag.Owner != owner {
		return player.Player{}, reducer.Validationf("Not your sleeping bag")
	}
	if bag.IsDestroyed {
		return player.Player{}, reducer.Statef("Sleeping bag is destroyed")
	}
	return respawn(tx, owner, bag.PosX, bag.PosY, bag.ChunkIndex, starterKit, newInstanceID, nowUs)
}

func respawn(tx *sql.Tx, owner ids.Identity, x, y float32, chunkIndex int64, starterKit []StarterItem, newInstanceID func() string, nowUs int64) (player.Player, error) {
	if err := SafeguardClear(tx, owner); err != nil {
		return player.Player{}, err
	}
	if err := RefundCraftingQueue(tx, owner); err != nil {
		return player.Player{}, err
	}

	p, err := player.Get(tx, owner)
	if err != nil {
		return player.Player{}, reducer.Internalf(err, "loading %s for respawn", owner)
	}
	p.PosX, p.PosY, p.ChunkIndex = x, y, chunkIndex
	p.Facing = 0
	p.IsDead = false
	p.IsKnockedOut = false
	p.KnockedOutAtUs = nil
	p.Health, p.Hunger, p.Thirst, p.Warmth, p.Stamina = 100, 100, 100, 100, 100
	p.LastMoveSeq = 0
	p.ActiveWeaponID = nil
	if err := player.Save(tx, p); err != nil {
		return player.Player{}, reducer.Internalf(err, "saving respawned player %s", owner)
	}

	inv := inventory.Inventory{Owner: owner}
	for slot, kit := range starterKit {
		if slot >= inv.NumSlots() {
			break
		}
		if err := item.Upsert(tx, item.Instance{
			InstanceID: newInstanceID(), DefID: kit.DefID, Quantity: kit.Qty, Location: inv.SlotLocation(slot),
		}); err != nil {
			return player.Player{}, reducer.Internalf(err, "granting starter kit item %s", kit.DefID)
		}
	}
	return p, nil
}
