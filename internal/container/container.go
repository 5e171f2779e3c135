// Package container implements the uniform ItemContainer contract (spec
// §4.D) shared by all twelve slotted holders (player inventory/hotbar/
// equipment and every positioned storage entity). Containers are
// modeled as an interface plus free functions operating over it,
// mirroring the teacher's lack of a class hierarchy: Go has no
// inheritance to reach for in the first place, so this is the natural
// shape rather than a deliberate design choice.
package container

import (
	"database/sql"
	"errors"
	"fmt"

	"github.com/ownworld/core/internal/item"
)

// Errors returned by the ops below. Reducers translate these into the
// validation/state error taxonomy (spec §7); container itself stays
// agnostic of that taxonomy.
var (
	ErrItemNotFound  = errors.New("container: item not found")
	ErrSlotNotFound  = errors.New("container: slot empty")
	ErrRejected      = errors.New("container: destination rejects item type")
	ErrNoSpace       = errors.New("container: no candidate slot has space")
	ErrInvalidSlot   = errors.New("container: slot index out of range")
	ErrInvalidQty    = errors.New("container: invalid split quantity")
)

// Container is the uniform interface every slotted holder satisfies:
// player Inventory/Hotbar/Equipped and every entity with slots
// (campfire, furnace, storage box, compost bin, fish trap,
// rain collector, lantern, turret, player corpse).
type Container interface {
	// NumSlots returns the fixed slot count.
	NumSlots() int
	// SlotLocation returns the item.Location value addressing slot.
	SlotLocation(slot int) item.Location
	// Accepts reports whether def may occupy any slot of this
	// container (spec §4.D C2 type discipline).
	Accepts(def item.Definition) bool
	// Label names the container for error messages/logging.
	Label() string
}

// DB is the subset of *sql.DB / *sql.Tx the container ops need. Callers
// pass a *sql.Tx so a multi-row operation (e.g. a merge that updates
// the destination and decrements the source) commits atomically (C1).
type DB interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

func lookupDef(catalog *item.Catalog, defID string) (item.Definition, error) {
	def, ok := catalog.Lookup(defID)
	if !ok {
		return item.Definition{}, fmt.Errorf("container: unknown item definition %q", defID)
	}
	return def, nil
}

func getInstance(db DB, instanceID string) (item.Instance, error) {
	inst, err := item.GetTx(db, instanceID)
	if errors.Is(err, sql.ErrNoRows) {
		return item.Instance{}, ErrItemNotFound
	}
	return inst, err
}

func getAt(db DB, loc item.Location) (item.Instance, bool, error) {
	inst, err := item.GetAt(db, loc)
	if errors.Is(err, sql.ErrNoRows) {
		return item.Instance{}, false, nil
	}
	if err != nil {
		return item.Instance{}, false, err
	}
	return inst, true, nil
}

func checkSlot(c Container, slot int) error {
	if slot < 0 || slot >= c.NumSlots() {
		return ErrInvalidSlot
	}
	return nil
}

// carryOrClearPlacedAt implements C6: the placed_at timestamp survives
// intra-container moves but is cleared on any move to a player or the
// world (dropped, inventory, hotbar, equipped).
func carryOrClearPlacedAt(inst *item.Instance, dst item.Location) {
	if dst.Kind != item.LocationContainer {
		inst.ClearPlacedAt()
	}
}

// writeInto places (or merges) src into container c's slot, per C3/C4/C5.
// On success src's remaining quantity (0 if fully merged) is the
// caller's responsibility to persist/delete; writeInto itself persists
// both the destination slot and, when a partial merge occurs, leaves
// the source instance's quantity/location untouched for the caller to
// finalize via finalizeSource.
func writeInto(db DB, catalog *item.Catalog, src item.Instance, dst item.Location) (moved int, err error) {
	existing, occupied, err := getAt(db, dst)
	if err != nil {
		return 0, err
	}
	if !occupied {
		moving := src
		moving.Quantity = src.Quantity
		moving.Location = dst
		carryOrClearPlacedAt(&moving, dst)
		if err := item.Upsert(db, moving); err != nil {
			return 0, err
		}
		return src.Quantity, nil
	}
	if existing.DefID != src.DefID {
		return 0, ErrRejected
	}
	def, err := lookupDef(catalog, src.DefID)
	if err != nil {
		return 0, err
	}
	capacity := def.EffectiveStackSize()
	space := capacity - existing.Quantity
	if space <= 0 {
		return 0, ErrNoSpace
	}
	moveQty := src.Quantity
	if moveQty > space {
		moveQty = space
	}
	existing.Quantity += moveQty
	if err := item.Upsert(db, existing); err != nil {
		return 0, err
	}
	return moveQty, nil
}

// finalizeSource decrements or deletes the source instance after moved
// units left it (C4).
func finalizeSource(db DB, src item.Instance, moved int) error {
	remaining := src.Quantity - moved
	if remaining < 0 {
		return fmt.Errorf("container: moved %d exceeds source quantity %d", moved, src.Quantity)
	}
	if remaining == 0 {
		cur, err := item.GetTx(db, src.InstanceID)
		if err != nil {
			return err
		}
		if cur.Location != src.Location {
			// writeInto relocated this very instance; nothing is left behind.
			return nil
		}
		return item.Delete(db, src.InstanceID)
	}
	src.Quantity = remaining
	return item.Upsert(db, src)
}

// MoveToSlot moves the whole of itemID into dst's slot, merging with
// whatever already occupies it (C3) or failing without writes if the
// slot can't take it (C5).
func MoveToSlot(db DB, catalog *item.Catalog, itemID string, dst Container, slot int) error {
	if err := checkSlot(dst, slot); err != nil {
		return err
	}
	src, err := getInstance(db, itemID)
	if err != nil {
		return err
	}
	def, err := lookupDef(catalog, src.DefID)
	if err != nil {
		return err
	}
	if !dst.Accepts(def) {
		return ErrRejected
	}
	dstLoc := dst.SlotLocation(slot)
	moved, err := writeInto(db, catalog, src, dstLoc)
	if err != nil {
		return err
	}
	return finalizeSource(db, src, moved)
}

// MoveFromSlot moves the whole stack at src's slot to an arbitrary
// destination location (e.g. into a player's inventory/hotbar/equip
// slot, or another container's slot addressed directly).
func MoveFromSlot(db DB, catalog *item.Catalog, src Container, slot int, dstLoc item.Location, dstAccepts func(item.Definition) bool) error {
	if err := checkSlot(src, slot); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, src.SlotLocation(slot))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	def, err := lookupDef(catalog, inst.DefID)
	if err != nil {
		return err
	}
	if dstAccepts != nil && !dstAccepts(def) {
		return ErrRejected
	}
	moved, err := writeInto(db, catalog, inst, dstLoc)
	if err != nil {
		return err
	}
	return finalizeSource(db, inst, moved)
}

// SplitIntoSlot splits qty off itemID into dst's slot (C4), failing
// without writes if dst can't accept it (C2/C3/C5).
func SplitIntoSlot(db DB, catalog *item.Catalog, itemID string, qty int, dst Container, slot int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	if err := checkSlot(dst, slot); err != nil {
		return err
	}
	src, err := getInstance(db, itemID)
	if err != nil {
		return err
	}
	if qty > src.Quantity {
		return ErrInvalidQty
	}
	def, err := lookupDef(catalog, src.DefID)
	if err != nil {
		return err
	}
	if !dst.Accepts(def) {
		return ErrRejected
	}
	split := src
	split.InstanceID = item.NewInstanceID()
	split.Quantity = qty

	moved, err := writeInto(db, catalog, split, dst.SlotLocation(slot))
	if err != nil {
		return err
	}
	if moved != qty {
		return ErrNoSpace
	}
	return finalizeSource(db, src, moved)
}

// SplitFromSlot splits qty off src's slot into an arbitrary destination.
func SplitFromSlot(db DB, catalog *item.Catalog, src Container, slot int, qty int, dstLoc item.Location, dstAccepts func(item.Definition) bool) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	if err := checkSlot(src, slot); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, src.SlotLocation(slot))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	if qty > inst.Quantity {
		return ErrInvalidQty
	}
	def, err := lookupDef(catalog, inst.DefID)
	if err != nil {
		return err
	}
	if dstAccepts != nil && !dstAccepts(def) {
		return ErrRejected
	}
	split := inst
	split.InstanceID = item.NewInstanceID()
	split.Quantity = qty

	moved, err := writeInto(db, catalog, split, dstLoc)
	if err != nil {
		return err
	}
	if moved != qty {
		return ErrNoSpace
	}
	return finalizeSource(db, inst, moved)
}

// QuickMoveTo scans dest's slots in order for the first mergeable slot,
// then the first empty one, and moves the whole of itemID there.
func QuickMoveTo(db DB, catalog *item.Catalog, itemID string, dest Container) error {
	src, err := getInstance(db, itemID)
	if err != nil {
		return err
	}
	def, err := lookupDef(catalog, src.DefID)
	if err != nil {
		return err
	}
	if !dest.Accepts(def) {
		return ErrRejected
	}
	slot, err := findCandidateSlot(db, dest, src.DefID, def.EffectiveStackSize())
	if err != nil {
		return err
	}
	moved, err := writeInto(db, catalog, src, dest.SlotLocation(slot))
	if err != nil {
		return err
	}
	return finalizeSource(db, src, moved)
}

// QuickMoveFrom moves the stack at src's slot into the first container
// in order (preferred) that has a mergeable-or-empty slot for it (spec
// §4.D: player inventory before hotbar).
func QuickMoveFrom(db DB, catalog *item.Catalog, src Container, slot int, preferred []Container) error {
	if err := checkSlot(src, slot); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, src.SlotLocation(slot))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	def, err := lookupDef(catalog, inst.DefID)
	if err != nil {
		return err
	}
	for _, dest := range preferred {
		if !dest.Accepts(def) {
			continue
		}
		candidate, err := findCandidateSlot(db, dest, inst.DefID, def.EffectiveStackSize())
		if errors.Is(err, ErrNoSpace) {
			continue
		}
		if err != nil {
			return err
		}
		moved, err := writeInto(db, catalog, inst, dest.SlotLocation(candidate))
		if err != nil {
			return err
		}
		return finalizeSource(db, inst, moved)
	}
	return ErrNoSpace
}

// PlaceProduced merges or places a freshly manufactured quantity of
// defID into c via the same merge-then-empty scan QuickMoveTo uses,
// for scheduled reducers that manufacture new item instances
// (conversion outputs) rather than relocating an existing one. It
// returns the quantity that didn't fit so the caller can drop it as a
// world item instead (spec §4.H step 5: "if neither accommodates, drop
// the overflow as a world item near the container").
func PlaceProduced(db DB, catalog *item.Catalog, c Container, defID string, qty int, newInstanceID func() string) (overflow int, err error) {
	def, err := lookupDef(catalog, defID)
	if err != nil {
		return 0, err
	}
	if !c.Accepts(def) {
		return qty, nil
	}
	remaining := qty
	for remaining > 0 {
		slot, err := findCandidateSlot(db, c, defID, def.EffectiveStackSize())
		if errors.Is(err, ErrNoSpace) {
			break
		}
		if err != nil {
			return 0, err
		}
		loc := c.SlotLocation(slot)
		existing, occupied, err := getAt(db, loc)
		if err != nil {
			return 0, err
		}
		if !occupied {
			placeQty := remaining
			if cap := def.EffectiveStackSize(); placeQty > cap {
				placeQty = cap
			}
			if err := item.Upsert(db, item.Instance{
				InstanceID: newInstanceID(), DefID: defID, Quantity: placeQty, Location: loc,
			}); err != nil {
				return 0, err
			}
			remaining -= placeQty
			continue
		}
		space := def.EffectiveStackSize() - existing.Quantity
		if space <= 0 {
			break
		}
		placeQty := remaining
		if placeQty > space {
			placeQty = space
		}
		existing.Quantity += placeQty
		if err := item.Upsert(db, existing); err != nil {
			return 0, err
		}
		remaining -= placeQty
	}
	return remaining, nil
}

// findCandidateSlot returns the first slot in c holding the same defID
// with spare capacity, else the first empty slot.
func findCandidateSlot(db DB, c Container, defID string, stackSize int) (int, error) {
	firstEmpty := -1
	for slot := 0; slot < c.NumSlots(); slot++ {
		inst, occupied, err := getAt(db, c.SlotLocation(slot))
		if err != nil {
			return 0, err
		}
		if !occupied {
			if firstEmpty == -1 {
				firstEmpty = slot
			}
			continue
		}
		if inst.DefID == defID && inst.Quantity < stackSize {
			return slot, nil
		}
	}
	if firstEmpty != -1 {
		return firstEmpty, nil
	}
	return 0, ErrNoSpace
}

// MoveWithin relocates the whole stack at src to dst within one container.
func MoveWithin(db DB, catalog *item.Catalog, c Container, src, dst int) error {
	if err := checkSlot(c, src); err != nil {
		return err
	}
	if err := checkSlot(c, dst); err != nil {
		return err
	}
	if src == dst {
		return nil
	}
	inst, occupied, err := getAt(db, c.SlotLocation(src))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	moved, err := writeInto(db, catalog, inst, c.SlotLocation(dst))
	if err != nil {
		return err
	}
	return finalizeSource(db, inst, moved)
}

// SplitWithin splits qty off src into dst within one container.
func SplitWithin(db DB, catalog *item.Catalog, c Container, src, dst int, qty int) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	if err := checkSlot(c, src); err != nil {
		return err
	}
	if err := checkSlot(c, dst); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, c.SlotLocation(src))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	if qty > inst.Quantity {
		return ErrInvalidQty
	}
	split := inst
	split.InstanceID = item.NewInstanceID()
	split.Quantity = qty

	moved, err := writeInto(db, catalog, split, c.SlotLocation(dst))
	if err != nil {
		return err
	}
	if moved != qty {
		return ErrNoSpace
	}
	return finalizeSource(db, inst, moved)
}

// DropFromSlot moves the whole stack at src's slot to the world as a
// dropped item, clearing any conversion timestamp (C6).
func DropFromSlot(db DB, src Container, slot int, droppedItemID int64) error {
	if err := checkSlot(src, slot); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, src.SlotLocation(slot))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	inst.Location = item.NewDroppedLocation(droppedItemID)
	inst.ClearPlacedAt()
	return item.Upsert(db, inst)
}

// SplitAndDropFromSlot splits qty off src's slot and drops it as a new
// world item.
func SplitAndDropFromSlot(db DB, src Container, slot int, qty int, droppedItemID int64) error {
	if qty <= 0 {
		return ErrInvalidQty
	}
	if err := checkSlot(src, slot); err != nil {
		return err
	}
	inst, occupied, err := getAt(db, src.SlotLocation(slot))
	if err != nil {
		return err
	}
	if !occupied {
		return ErrSlotNotFound
	}
	if qty > inst.Quantity {
		return ErrInvalidQty
	}
	dropped := inst
	dropped.InstanceID = item.NewInstanceID()
	dropped.Quantity = qty
	dropped.Location = item.NewDroppedLocation(droppedItemID)
	dropped.ClearPlacedAt()
	if err := item.Upsert(db, dropped); err != nil {
		return err
	}
	return finalizeSource(db, inst, qty)
}

// Clearer implements ContainerItemClearer (spec §4.D): when an item
// instance must be orphaned from wherever it sits — e.g. an equip-slot
// swap displacing whatever was already equipped — ClearInstance removes
// it. Since every instance already carries its own Location, no sweep
// over candidate containers is needed; Clearer exists so callers name
// the operation the spec names rather than calling item.Delete directly.
type Clearer struct{}

// ClearInstance deletes instanceID wherever it currently resides.
func (Clearer) ClearInstance(db DB, instanceID string) error {
	return item.Delete(db, instanceID)
}
