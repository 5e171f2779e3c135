// Package item implements the item catalog (ItemDefinition) and item
// instances, including the Location sum type that is the unifying
// contract of the whole inventory system (spec §3).
//
// The source's ItemLocation is naturally a sum type in Rust; Location
// below models it as a plain struct tagged with a Kind discriminator
// rather than a pointer graph.
package item

import "github.com/ownworld/core/internal/ids"

// Category enumerates the catalog's item categories (spec §3).
type Category string

const (
	CategoryMaterial      Category = "Material"
	CategoryConsumable    Category = "Consumable"
	CategoryWeapon        Category = "Weapon"
	CategoryRangedWeapon  Category = "RangedWeapon"
	CategoryAmmunition    Category = "Ammunition"
	CategoryPlaceable     Category = "Placeable"
	CategoryArmor         Category = "Armor"
	CategoryTool          Category = "Tool"
)

// ArmorSlot enumerates the equip slots an Armor item can occupy.
type ArmorSlot string

const (
	SlotHead  ArmorSlot = "Head"
	SlotChest ArmorSlot = "Chest"
	SlotLegs  ArmorSlot = "Legs"
	SlotFeet  ArmorSlot = "Feet"
	SlotHands ArmorSlot = "Hands"
	SlotBack  ArmorSlot = "Back"
)

// RecipeInput is one (name, qty) line of a crafting recipe.
type RecipeInput struct {
	DefID    string `json:"def_id"`
	Quantity int    `json:"quantity"`
}

// Recipe is the optional crafting recipe on a Definition.
type Recipe struct {
	Inputs      []RecipeInput `json:"inputs"`
	OutputQty   int           `json:"output_qty"`
	CraftSeconds float64      `json:"craft_seconds"`
}

// ConsumeEffect is the optional (Δhealth, Δhunger, Δthirst) a
// Consumable applies when eaten/drunk.
type ConsumeEffect struct {
	DeltaHealth float64 `json:"delta_health"`
	DeltaHunger float64 `json:"delta_hunger"`
	DeltaThirst float64 `json:"delta_thirst"`
}

// Resistances is the optional per-damage-type resistance an Armor
// piece grants (spec §4.J damage types).
type Resistances struct {
	Slash      float64 `json:"slash"`
	Pierce     float64 `json:"pierce"`
	Blunt      float64 `json:"blunt"`
	Projectile float64 `json:"projectile"`
}

// Definition is an immutable-at-runtime catalog row (spec §3
// "ItemDefinition (catalog row)").
type Definition struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Icon     string   `json:"icon"`
	Category Category `json:"category"`

	Stackable bool `json:"stackable"`
	StackSize int  `json:"stack_size"`

	MeleeMin        *float64 `json:"melee_min,omitempty"`
	MeleeMax        *float64 `json:"melee_max,omitempty"`
	MeleeCooldownUs *int64   `json:"melee_cooldown_us,omitempty"`

	AmmoDefID *string `json:"ammo_def_id,omitempty"`

	// Projectile fields apply to Ammunition definitions (spec §4.K):
	// speed in px/s, max travel range in px, and the damage a hit
	// applies, typed the way combat's DamageType enum names it but
	// kept a plain string here to avoid an item->combat import cycle.
	ProjectileSpeed      *float64 `json:"projectile_speed,omitempty"`
	ProjectileMaxRange   *float64 `json:"projectile_max_range,omitempty"`
	ProjectileDamage     *float64 `json:"projectile_damage,omitempty"`
	ProjectileDamageType string   `json:"projectile_damage_type,omitempty"`

	Recipe *Recipe `json:"recipe,omitempty"`

	Consume *ConsumeEffect `json:"consume,omitempty"`

	CookedIntoID *string  `json:"cooked_into_id,omitempty"`
	CookSeconds  *float64 `json:"cook_seconds,omitempty"`
	SmeltIntoID  *string  `json:"smelt_into_id,omitempty"`
	SmeltSeconds *float64 `json:"smelt_seconds,omitempty"`
	BurnSeconds  *float64 `json:"burn_seconds,omitempty"`

	ArmorSlot   *ArmorSlot   `json:"armor_slot,omitempty"`
	Resistances *Resistances `json:"resistances,omitempty"`

	RespawnSeconds *float64 `json:"respawn_seconds,omitempty"`

	// Preserved items never spoil (spec §3).
	Preserved    bool     `json:"preserved"`
	SpoilsIntoID *string  `json:"spoils_into_id,omitempty"`
	SpoilSeconds *float64 `json:"spoil_seconds,omitempty"`
}

// EffectiveStackSize returns 1 for non-stackable items, else StackSize.
func (d Definition) EffectiveStackSize() int {
	if !d.Stackable {
		return 1
	}
	if d.StackSize <= 0 {
		return 1
	}
	return d.StackSize
}

// Catalog is an in-memory lookup over the immutable item definitions,
// loaded once at startup from the embedded seed table.
type Catalog struct {
	byID map[string]Definition
}

// NewCatalog builds a Catalog from a slice of definitions.
func NewCatalog(defs []Definition) *Catalog {
	c := &Catalog{byID: make(map[string]Definition, len(defs))}
	for _, d := range defs {
		c.byID[d.ID] = d
	}
	return c
}

// Lookup returns the definition for id, or false if unknown. An unknown
// def_id referenced by an item_instances row is an internal error
// (spec §7 "missing item definition"), never a validation error.
func (c *Catalog) Lookup(id string) (Definition, bool) {
	d, ok := c.byID[id]
	return d, ok
}

// All returns every definition in the catalog.
func (c *Catalog) All() []Definition {
	out := make([]Definition, 0, len(c.byID))
	for _, d := range c.byID {
		out = append(out, d)
	}
	return out
}

// LocationKind discriminates the Location sum type's variants.
type LocationKind string

const (
	LocationInventory LocationKind = "inventory"
	LocationHotbar    LocationKind = "hotbar"
	LocationEquipped  LocationKind = "equipped"
	LocationContainer LocationKind = "container"
	LocationDropped   LocationKind = "dropped"
	LocationUnknown   LocationKind = "unknown"
)

// ContainerType names the concrete container kind for Container
// locations (spec §3 container type list).
type ContainerType string

const (
	ContainerCampfire   ContainerType = "campfire"
	ContainerFurnace    ContainerType = "furnace"
	ContainerBox        ContainerType = "wooden_storage_box"
	ContainerCompost    ContainerType = "compost_bin"
	ContainerFishTrap   ContainerType = "fish_trap"
	ContainerRainColl   ContainerType = "rain_collector"
	ContainerLantern    ContainerType = "lantern"
	ContainerTurret     ContainerType = "turret"
	ContainerCorpse     ContainerType = "player_corpse"
)

// Location is the tagged union naming exactly where an item instance
// lives. Exactly one field group is meaningful for a given Kind; the
// New*Location constructors below set only that group, and callers read
// the fields matching Kind directly. Nothing in the type itself stops
// other fields from being set.
type Location struct {
	Kind LocationKind

	// Inventory / Hotbar
	Owner ids.Identity
	Slot  int

	// Equipped
	EquipSlot ArmorSlot

	// Container
	ContainerType ContainerType
	ContainerID   int64

	// Dropped
	DroppedItemID int64
}

// NewInventoryLocation builds an Inventory{owner, slot} location.
func NewInventoryLocation(owner ids.Identity, slot int) Location {
	return Location{Kind: LocationInventory, Owner: owner, Slot: slot}
}

// NewHotbarLocation builds a Hotbar{owner, slot} location.
func NewHotbarLocation(owner ids.Identity, slot int) Location {
	return Location{Kind: LocationHotbar, Owner: owner, Slot: slot}
}

// NewEquippedLocation builds an Equipped{owner, slot_type} location.
func NewEquippedLocation(owner ids.Identity, slot ArmorSlot) Location {
	return Location{Kind: LocationEquipped, Owner: owner, EquipSlot: slot}
}

// NewContainerLocation builds a Container{type, container_id, slot} location.
func NewContainerLocation(ct ContainerType, containerID int64, slot int) Location {
	return Location{Kind: LocationContainer, ContainerType: ct, ContainerID: containerID, Slot: slot}
}

// NewDroppedLocation builds a Dropped{dropped_item_id} location.
func NewDroppedLocation(droppedItemID int64) Location {
	return Location{Kind: LocationDropped, DroppedItemID: droppedItemID}
}

// UnknownLocation is the transient, never-persisted placeholder variant.
func UnknownLocation() Location {
	return Location{Kind: LocationUnknown}
}

// Data is the item instance's small free-form payload (spec §3 L2:
// bounded size, absence = defaults). A typed struct rather than an
// open map, per DESIGN NOTES §9, so forward-compat is a deliberate
// field addition instead of an unbounded bag of keys.
type Data struct {
	// PlacedAtUs is the per-slot conversion timestamp carried by
	// compost/fish-trap writes (spec §4.D C6).
	PlacedAtUs *int64 `json:"placed_at_us,omitempty"`
	// WaterLiters/IsSalt apply to water-container instances (spec §4.I).
	WaterLiters float64 `json:"water_liters,omitempty"`
	IsSalt      bool    `json:"is_salt,omitempty"`
}

// Instance is a concrete occurrence of an item (spec §3 "ItemInstance").
type Instance struct {
	InstanceID string
	DefID      string
	Quantity   int
	Location   Location
	Data       Data
}

// ClearPlacedAt drops the conversion timestamp, e.g. on move to a
// player or the world (spec §4.D C6: "loses it on move to player or world").
func (i *Instance) ClearPlacedAt() {
	i.Data.PlacedAtUs = nil
}
