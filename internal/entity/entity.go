// Package entity implements the positioned/slotted world entities named
// in spec §3 ("Positioned world entity" list): campfire, furnace,
// wooden storage box, barrel, compost bin, fish trap, rain collector,
// lantern, turret, shelter, wall, sleeping bag, player corpse, dropped
// item, plus the original_source-only rune stone/planted seed/resource
// node (supplemented features not excluded by any Non-goal). Every
// slotted entity additionally satisfies container.Container so
// internal/container's move/split/quick-move/drop ops apply uniformly.
package entity

import (
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
)

// Placement is the common position/ownership/health shell most entities
// carry (spec §3's positioned-entity fields).
type Placement struct {
	ID            int64
	PosX, PosY    float32
	ChunkIndex    int64
	Owner         ids.Identity
	Health        float64
	MaxHealth     float64
	LastHitTimeUs int64
	LastDamagedBy ids.Identity
	IsDestroyed   bool
	DestroyedAtUs int64
}

// ApplyDamage subtracts dmg from Health (floored at 0), records the
// attacker, and marks the entity destroyed once Health reaches 0 —
// the common half of combat.Target (spec §4.J).
func (p *Placement) ApplyDamage(dmg float64, attacker ids.Identity, nowUs int64) (destroyed bool) {
	if p.IsDestroyed {
		return true
	}
	p.Health -= dmg
	p.LastHitTimeUs = nowUs
	p.LastDamagedBy = attacker
	if p.Health <= 0 {
		p.Health = 0
		p.IsDestroyed = true
		p.DestroyedAtUs = nowUs
		return true
	}
	return false
}

// Campfire cooks food and burns fuel (spec §4.H).
type Campfire struct {
	Placement
	SlotCount       int
	IsLit           bool
	FuelRemainingUs int64
}

func (c *Campfire) NumSlots() int { return c.SlotCount }
func (c *Campfire) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerCampfire, c.ID, slot)
}
func (c *Campfire) Accepts(def item.Definition) bool {
	return def.CookedIntoID != nil || def.BurnSeconds != nil || def.Category == item.CategoryConsumable
}
func (c *Campfire) Label() string { return "campfire" }

// Furnace smelts ore (spec §4.H).
type Furnace struct {
	Placement
	SlotCount       int
	IsLit           bool
	FuelRemainingUs int64
}

func (f *Furnace) NumSlots() int { return f.SlotCount }
func (f *Furnace) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerFurnace, f.ID, slot)
}
func (f *Furnace) Accepts(def item.Definition) bool {
	return def.SmeltSeconds != nil || def.BurnSeconds != nil || def.Category == item.CategoryMaterial
}
func (f *Furnace) Label() string { return "furnace" }

// WoodenStorageBox is unrestricted general storage.
type WoodenStorageBox struct {
	Placement
	SlotCount int
}

func (b *WoodenStorageBox) NumSlots() int { return b.SlotCount }
func (b *WoodenStorageBox) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerBox, b.ID, slot)
}
func (b *WoodenStorageBox) Accepts(item.Definition) bool { return true }
func (b *WoodenStorageBox) Label() string                { return "wooden_storage_box" }

// Barrel is lootable and respawns on a timer (spec §4.J, §6).
type Barrel struct {
	ID            int64
	PosX, PosY    float32
	ChunkIndex    int64
	Health        float64
	MaxHealth     float64
	LastHitTimeUs int64
	LastDamagedBy ids.Identity
	IsDestroyed   bool
	DestroyedAtUs int64
	LootTier      string
	RespawnAtUs   *int64
}

func (b *Barrel) ApplyDamage(dmg float64, attacker ids.Identity, nowUs int64) bool {
	if b.IsDestroyed {
		return true
	}
	b.Health -= dmg
	b.LastHitTimeUs = nowUs
	b.LastDamagedBy = attacker
	if b.Health <= 0 {
		b.Health = 0
		b.IsDestroyed = true
		b.DestroyedAtUs = nowUs
		return true
	}
	return false
}

// CompostBin converts Fertilizer-eligible waste into Fertilizer; it
// rejects Fertilizer itself as an input (spec §4.D C2).
type CompostBin struct {
	Placement
	SlotCount int
}

func (c *CompostBin) NumSlots() int { return c.SlotCount }
func (c *CompostBin) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerCompost, c.ID, slot)
}
func (c *CompostBin) Accepts(def item.Definition) bool {
	return def.Category == item.CategoryMaterial && def.ID != "fertilizer"
}
func (c *CompostBin) Label() string { return "compost_bin" }

// FishTrap converts bait into fish/crab meat; food-only input (C2).
type FishTrap struct {
	Placement
	SlotCount     int
	RequiresWater bool
}

func (f *FishTrap) NumSlots() int { return f.SlotCount }
func (f *FishTrap) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerFishTrap, f.ID, slot)
}
func (f *FishTrap) Accepts(def item.Definition) bool {
	return def.Category == item.CategoryConsumable
}
func (f *FishTrap) Label() string { return "fish_trap" }

// RainCollector only accepts water containers (C2); spec §4.I.
type RainCollector struct {
	Placement
	SlotCount   int
	WaterLiters float64
	IsSalt      bool
}

func (r *RainCollector) NumSlots() int { return r.SlotCount }
func (r *RainCollector) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerRainColl, r.ID, slot)
}
func (r *RainCollector) Accepts(def item.Definition) bool {
	return def.ID == "reed_bottle" || def.ID == "plastic_jug"
}
func (r *RainCollector) Label() string { return "rain_collector" }

// Lantern burns Tallow only (C2).
type Lantern struct {
	Placement
	SlotCount       int
	IsLit           bool
	FuelRemainingUs int64
}

func (l *Lantern) NumSlots() int { return l.SlotCount }
func (l *Lantern) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerLantern, l.ID, slot)
}
func (l *Lantern) Accepts(def item.Definition) bool { return def.ID == "tallow" }
func (l *Lantern) Label() string                    { return "lantern" }

// TurretKindStandard fires regular ammunition; TurretKindTallowSteam
// burns Tallow only (C2) and is grounded on original_source's steam
// turret variant.
const (
	TurretKindStandard   = "standard"
	TurretKindTallowSteam = "tallow_steam"
)

// Turret auto-targets hostiles/PvP-active players (spec §4.K).
type Turret struct {
	Placement
	SlotCount      int
	Kind           string
	LastFireTimeUs int64
	Facing         float32
	OwnerPvPActive bool
}

func (t *Turret) NumSlots() int { return t.SlotCount }
func (t *Turret) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerTurret, t.ID, slot)
}
func (t *Turret) Accepts(def item.Definition) bool {
	if t.Kind == TurretKindTallowSteam {
		return def.ID == "tallow"
	}
	return def.Category == item.CategoryAmmunition
}
func (t *Turret) Label() string { return "turret" }

// Shelter and Wall are unslotted structures (no container contract).
type Shelter struct {
	Placement
}

type Wall struct {
	ID            int64
	PosX, PosY    float32
	ChunkIndex    int64
	Owner         ids.Identity
	Health        float64
	MaxHealth     float64
	LastHitTimeUs int64
	LastDamagedBy ids.Identity
	IsDestroyed   bool
	DestroyedAtUs int64
	Kind          string // wall | fence | foundation
	Facing        float32
}

func (w *Wall) ApplyDamage(dmg float64, attacker ids.Identity, nowUs int64) bool {
	if w.IsDestroyed {
		return true
	}
	w.Health -= dmg
	w.LastHitTimeUs = nowUs
	w.LastDamagedBy = attacker
	if w.Health <= 0 {
		w.Health = 0
		w.IsDestroyed = true
		w.DestroyedAtUs = nowUs
		return true
	}
	return false
}

// SleepingBag is a respawn anchor that deteriorates over time (spec §6
// "sleeping-bag deterioration (1 h)").
type SleepingBag struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	Owner       ids.Identity
	IsDestroyed bool
	PlacedAtUs  int64
	Condition   float64 // 1.0 fresh, 0 crumbled
}

// PlayerCorpse holds a dead player's inventory for looting (spec §4.L).
type PlayerCorpse struct {
	ID           int64
	PosX, PosY   float32
	ChunkIndex   int64
	Owner        ids.Identity
	CreatedAtUs  int64
	DespawnAtUs  *int64
	KilledBy     ids.Identity
	Cause        string
	SlotCount    int
}

func (c *PlayerCorpse) NumSlots() int { return c.SlotCount }
func (c *PlayerCorpse) SlotLocation(slot int) item.Location {
	return item.NewContainerLocation(item.ContainerCorpse, c.ID, slot)
}
func (c *PlayerCorpse) Accepts(item.Definition) bool { return true }
func (c *PlayerCorpse) Label() string                { return "player_corpse" }

// DroppedItem is a single item_instances row's world presence; it has
// no slots of its own (Location.Kind = Dropped points straight at the
// item instance).
type DroppedItem struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	CreatedAtUs int64
	DespawnAtUs *int64
}

// RuneStone is an original_source-supplemented interactive waypoint
// with a fixed reactivation cooldown.
type RuneStone struct {
	ID              int64
	PosX, PosY      float32
	ChunkIndex      int64
	LastActivatedUs *int64
	CooldownUs      int64
}

// PlantedSeed is an original_source-supplemented farmable plant: grows
// for GrowsInUs after PlantedAtUs, then yields YieldQty of YieldDefID
// once, settable via Harvested.
type PlantedSeed struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	Owner       ids.Identity
	DefID       string
	PlantedAtUs int64
	GrowsInUs   int64
	YieldDefID  string
	YieldQty    int
	Harvested   bool
}

// ReadyToHarvest reports whether a seed has finished growing.
func (s PlantedSeed) ReadyToHarvest(nowUs int64) bool {
	return !s.Harvested && nowUs >= s.PlantedAtUs+s.GrowsInUs
}

// ResourceNode is an original_source-supplemented harvestable world
// object (tree, rock, ore vein): damage reduces Health, at 0 it yields
// once and respawns at RespawnAtUs.
type ResourceNode struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	Kind        string
	Health      float64
	MaxHealth   float64
	YieldDefID  string
	YieldQty    int
	IsDestroyed bool
	RespawnAtUs *int64
}

func (n *ResourceNode) ApplyDamage(dmg float64) (destroyed bool) {
	if n.IsDestroyed {
		return true
	}
	n.Health -= dmg
	if n.Health <= 0 {
		n.Health = 0
		n.IsDestroyed = true
		return true
	}
	return false
}

// FirePatch is a radius-based burning area created by fire arrows or
// propagation; it damages players/structures within its radius on a
// tick and expires on its own (spec §4.N).
type FirePatch struct {
	ID             int64
	PosX, PosY     float32
	ChunkIndex     int64
	Radius         float32
	CreatedAtUs    int64
	ExpiresAtUs    int64
	DamagePerTick  float64
	SourceIdentity ids.Identity
}

// Expired reports whether the patch has outlived ExpiresAtUs.
func (f FirePatch) Expired(nowUs int64) bool { return nowUs >= f.ExpiresAtUs }

// WaterPatch is a radius-based water area; it extinguishes overlapping
// fire patches and excludes placement/fire spread within its radius
// (spec §4.N).
type WaterPatch struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	Radius      float32
	CreatedAtUs int64
	ExpiresAtUs int64
}

// Expired reports whether the patch has outlived ExpiresAtUs.
func (w WaterPatch) Expired(nowUs int64) bool { return nowUs >= w.ExpiresAtUs }

// DeathMarker is the public-boundary row clients subscribe to for a
// death event (spec §4.L, §6's table stability list), distinct from
// PlayerCorpse which carries the lootable inventory.
type DeathMarker struct {
	ID             int64
	PlayerIdentity ids.Identity
	PosX, PosY     float32
	TsUs           int64
	KilledBy       ids.Identity
	Cause          string
}

// KnockedOutStatus tracks the one active knockout per player that
// drives the 3s recovery reducer (spec §4.J); it is deleted once the
// player recovers, dies, or is revived.
type KnockedOutStatus struct {
	PlayerIdentity ids.Identity
	KnockedOutAtUs int64
	LastTickUs     int64
}

// EffectKind is one of the active-effect stack's kinds (spec §3, §4.J).
type EffectKind string

const (
	EffectBleeding     EffectKind = "Bleeding"
	EffectBurning      EffectKind = "Burning"
	EffectPoisonCoating EffectKind = "PoisonCoating"
	EffectWet          EffectKind = "Wet"
	EffectExhausted    EffectKind = "Exhausted"
	EffectHealing      EffectKind = "Healing"
	EffectIntoxicated  EffectKind = "Intoxicated"
)

// ActiveEffect is one row of a player's effect stack. Re-applying the
// same Kind re-stacks Remaining and extends DurationUs rather than
// adding a second row (spec §4.J "accumulator-style").
type ActiveEffect struct {
	ID              int64
	PlayerIdentity  ids.Identity
	Kind            EffectKind
	Remaining       float64
	DurationUs      int64
	TickIntervalUs  int64
	SourceIdentity  ids.Identity
	StartedAtUs     int64
	LastTickUs      int64
}

// AnimalState is one node of the wild-animal state machine (spec §4.M).
type AnimalState string

const (
	AnimalPatrolling AnimalState = "Patrolling"
	AnimalAlert      AnimalState = "Alert"
	AnimalChasing    AnimalState = "Chasing"
	AnimalAttacking  AnimalState = "Attacking"
	AnimalFleeing    AnimalState = "Fleeing"
	AnimalHiding     AnimalState = "Hiding"
)

// WildAnimal is one spawned NPC tracked by the AI scheduler (spec
// §4.M). TargetIdentity is the player currently being chased/attacked,
// if any; StateReason is carried purely for debugging (never asserted
// on by callers).
type WildAnimal struct {
	ID             int64
	PosX, PosY     float32
	ChunkIndex     int64
	Species        string
	Health         float64
	MaxHealth      float64
	State          AnimalState
	StateReason    string
	TargetIdentity ids.Identity // Zero means no current target.
	SpawnZoneID    *int64
	Facing         float32
	Sex            string
	LastTickUs     int64
	IsDestroyed    bool
}

// ApplyDamage subtracts dmg from Health, marking the animal destroyed
// at 0 (spec §4.M "damage response").
func (a *WildAnimal) ApplyDamage(dmg float64, attacker ids.Identity, nowUs int64) (destroyed bool) {
	if a.IsDestroyed {
		return true
	}
	a.Health -= dmg
	if a.Health <= 0 {
		a.Health = 0
		a.IsDestroyed = true
		return true
	}
	return false
}

// SpawnZone anchors a species' population around a landmark (wolf den,
// whale-bone monument, reed marsh, tide pool) for the ~8 min
// spawn-zone maintenance reducer (spec §4.M).
type SpawnZone struct {
	ID          int64
	PosX, PosY  float32
	ChunkIndex  int64
	Species     string
	TargetCount int
	Radius      float32
	AnchorKind  string
}
