// Package inventory implements the three player-scoped containers
// (Inventory, Hotbar, Equipped) as container.Container, so every move/
// split/quick-move/drop operation in internal/container applies to
// them uniformly rather than through bespoke per-struct methods (spec
// §3 Location variants, §4.D).
package inventory

import (
	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
)

// InventorySlots is the player backpack's fixed slot count (spec §3).
const InventorySlots = 30

// HotbarSlots is the player hotbar's fixed slot count (spec §3).
const HotbarSlots = 6

// armorSlots is the fixed Head|Chest|Legs|Feet|Hands|Back ordering
// Equipped's integer slot indices map onto.
var armorSlots = [...]item.ArmorSlot{
	item.SlotHead, item.SlotChest, item.SlotLegs, item.SlotFeet, item.SlotHands, item.SlotBack,
}

// Inventory is a player's 30-slot backpack.
type Inventory struct {
	Owner ids.Identity
}

func (i Inventory) NumSlots() int { return InventorySlots }
func (i Inventory) SlotLocation(slot int) item.Location {
	return item.NewInventoryLocation(i.Owner, slot)
}
func (i Inventory) Accepts(def item.Definition) bool { return true }
func (i Inventory) Label() string                    { return "inventory" }

// Hotbar is a player's 6-slot quick-access bar.
type Hotbar struct {
	Owner ids.Identity
}

func (h Hotbar) NumSlots() int { return HotbarSlots }
func (h Hotbar) SlotLocation(slot int) item.Location {
	return item.NewHotbarLocation(h.Owner, slot)
}
func (h Hotbar) Accepts(def item.Definition) bool { return true }
func (h Hotbar) Label() string                    { return "hotbar" }

// Equipped is a player's 6 armor slots (spec §3 Equipped{owner,
// slot_type}). The active weapon is not part of this container: it is
// tracked directly on the player row (players.active_weapon_id), since
// spec §3 only enumerates armor slot_types for Equipped.
type Equipped struct {
	Owner ids.Identity
}

func (e Equipped) NumSlots() int { return len(armorSlots) }
func (e Equipped) SlotLocation(slot int) item.Location {
	return item.NewEquippedLocation(e.Owner, armorSlots[slot])
}

// Accepts only Armor-category items whose ArmorSlot matches some slot
// in this container; callers use SlotForArmor to find which.
func (e Equipped) Accepts(def item.Definition) bool {
	return def.Category == item.CategoryArmor && def.ArmorSlot != nil
}
func (e Equipped) Label() string { return "equipped" }

// SlotForArmor returns the Equipped slot index matching an ArmorSlot,
// or -1 if slot is not one of the six recognized armor slots.
func SlotForArmor(slot item.ArmorSlot) int {
	for i, s := range armorSlots {
		if s == slot {
			return i
		}
	}
	return -1
}

// QuickMoveOrder is the scan order quick_move_from uses when moving an
// item out of a container toward the player: inventory before hotbar
// (spec §4.D: "quick_move_from(source_slot) (same on player inventory
// then hotbar)").
func QuickMoveOrder(owner ids.Identity) []container.Container {
	return []container.Container{Inventory{Owner: owner}, Hotbar{Owner: owner}}
}
