// Package conversion implements the conversion reducers (spec §4.H):
// campfire/barbecue cook, furnace smelt, compost and fish trap, which
// cmd/ownworldd schedules, and fuel burn, which it does not. Every
// subsystem but fuel burn shares one
// per-tick algorithm (spec §4.H "Shared per-tick algorithm"): walk a
// container's slots, stamp a placed_at timestamp on first sight of a
// valid input, and once elapsed time clears the threshold, produce one
// output unit and decrement (or clear) the consumed slot.
package conversion

import (
	"database/sql"
	"encoding/binary"

	"lukechampine.com/blake3"

	"github.com/ownworld/core/internal/container"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
)

// Eligible reports whether inst/def is a valid input for this
// subsystem and, if so, the threshold it must sit for and a resolver
// for which def_id it produces once that threshold is cleared (fish
// trap's output isn't knowable until production time, since it's a
// hash of the current timestamp — spec §4.H "Determinism note"). slot
// is the container slot inst occupies, passed through so a resolver
// can fold it into a deterministic hash.
type Eligible func(slot int, inst item.Instance, def item.Definition) (resolve func(nowUs int64) string, thresholdUs int64, ok bool)

// ProcessOneUnitPerSlot runs the shared per-tick algorithm over one
// container (spec §4.H steps 3-6; the caller supplies the "collect
// candidate containers" step by invoking this once per container).
func ProcessOneUnitPerSlot(tx *sql.Tx, catalog *item.Catalog, c container.Container, eligible Eligible, nowUs int64, newInstanceID func() string, posX, posY float32, chunkIndex int64) error {
	for slot := 0; slot < c.NumSlots(); slot++ {
		loc := c.SlotLocation(slot)
		inst, err := item.GetAt(tx, loc)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return reducer.Internalf(err, "reading %s slot %d", c.Label(), slot)
		}
		def, ok := catalog.Lookup(inst.DefID)
		if !ok {
			continue
		}
		resolve, thresholdUs, ok := eligible(slot, inst, def)
		if !ok {
			continue
		}

		if inst.Data.PlacedAtUs == nil {
			now := nowUs
			inst.Data.PlacedAtUs = &now
			if err := item.Upsert(tx, inst); err != nil {
				return reducer.Internalf(err, "stamping placed_at on %s slot %d", c.Label(), slot)
			}
			continue
		}
		if nowUs-*inst.Data.PlacedAtUs < thresholdUs {
			continue
		}

		outputDefID := resolve(nowUs)
		overflow, err := container.PlaceProduced(tx, catalog, c, outputDefID, 1, newInstanceID)
		if err != nil {
			return reducer.Internalf(err, "placing %s output in %s", outputDefID, c.Label())
		}
		if overflow > 0 {
			if err := dropOverflow(tx, outputDefID, overflow, posX, posY, chunkIndex, nowUs, newInstanceID); err != nil {
				return err
			}
		}

		if inst.Quantity > 1 {
			inst.Quantity--
			reset := nowUs
			inst.Data.PlacedAtUs = &reset
			if err := item.Upsert(tx, inst); err != nil {
				return reducer.Internalf(err, "decrementing consumed input in %s slot %d", c.Label(), slot)
			}
		} else if err := item.Delete(tx, inst.InstanceID); err != nil {
			return reducer.Internalf(err, "removing consumed input in %s slot %d", c.Label(), slot)
		}
	}
	return nil
}

func dropOverflow(tx *sql.Tx, defID string, qty int, posX, posY float32, chunkIndex int64, nowUs int64, newInstanceID func() string) error {
	d := &entity.DroppedItem{PosX: posX, PosY: posY, ChunkIndex: chunkIndex, CreatedAtUs: nowUs}
	if err := entity.InsertDroppedItem(tx, d); err != nil {
		return reducer.Internalf(err, "dropping conversion overflow")
	}
	return item.Upsert(tx, item.Instance{
		InstanceID: newInstanceID(), DefID: defID, Quantity: qty, Location: item.NewDroppedLocation(d.ID),
	})
}

// CookEligible is campfire/barbecue's per-slot rule: any item carrying
// cooked_into_id/cook_seconds.
func CookEligible(slot int, inst item.Instance, def item.Definition) (func(int64) string, int64, bool) {
	if def.CookedIntoID == nil || def.CookSeconds == nil {
		return nil, 0, false
	}
	out := *def.CookedIntoID
	return func(int64) string { return out }, int64(*def.CookSeconds * 1_000_000), true
}

// SmeltEligible is the furnace's per-slot rule: any ore carrying
// smelt_into_id/smelt_seconds.
func SmeltEligible(slot int, inst item.Instance, def item.Definition) (func(int64) string, int64, bool) {
	if def.SmeltIntoID == nil || def.SmeltSeconds == nil {
		return nil, 0, false
	}
	out := *def.SmeltIntoID
	return func(int64) string { return out }, int64(*def.SmeltSeconds * 1_000_000), true
}

// CompostOutputDefID and CompostThresholdUs are spec §4.H's compost row
// ("Fertilizer", "300 s per unit").
const (
	CompostOutputDefID          = "fertilizer"
	CompostThresholdUs    int64 = 300 * 1_000_000
)

// CompostEligible accepts any Material input except Fertilizer itself
// (CompostBin.Accepts already enforces this at write time; repeated
// here since a conversion tick must not depend on container-contract
// wiring to stay correct).
func CompostEligible(slot int, inst item.Instance, def item.Definition) (func(int64) string, int64, bool) {
	if def.Category != item.CategoryMaterial || def.ID == CompostOutputDefID {
		return nil, 0, false
	}
	return func(int64) string { return CompostOutputDefID }, CompostThresholdUs, true
}

// FishTrapThresholdUs is spec §4.H's fish trap row ("600 s per unit").
const FishTrapThresholdUs int64 = 600 * 1_000_000

const (
	rawFishDefID  = "raw_fish"
	crabMeatDefID = "crab_meat"
)

// FishTrapEligible accepts any food as bait and resolves its output via
// a deterministic hash of (container_id, slot, timestamp), not a
// shared RNG, so replaying the same tick always yields the same catch
// (spec §4.H "Determinism note").
func FishTrapEligible(containerID int64) Eligible {
	return func(slot int, inst item.Instance, def item.Definition) (func(int64) string, int64, bool) {
		if def.Category != item.CategoryConsumable {
			return nil, 0, false
		}
		resolve := func(nowUs int64) string {
			if fishTrapHash(containerID, slot, nowUs)%100 < 60 {
				return rawFishDefID
			}
			return crabMeatDefID
		}
		return resolve, FishTrapThresholdUs, true
	}
}

func fishTrapHash(containerID int64, slot int, nowUs int64) uint64 {
	var buf [24]byte
	binary.BigEndian.PutUint64(buf[0:8], uint64(containerID))
	binary.BigEndian.PutUint64(buf[8:16], uint64(int64(slot)))
	binary.BigEndian.PutUint64(buf[16:24], uint64(nowUs))
	digest := blake3.Sum256(buf[:])
	return binary.BigEndian.Uint64(digest[:8])
}

// TickFishTraps runs the fish-trap conversion tick over every active
// trap (the 60s scheduled reducer).
func TickFishTraps(tx *sql.Tx, catalog *item.Catalog, traps []*entity.FishTrap, nowUs int64, newInstanceID func() string) error {
	for _, ft := range traps {
		if err := ProcessOneUnitPerSlot(tx, catalog, ft, FishTrapEligible(ft.ID), nowUs, newInstanceID, ft.PosX, ft.PosY, ft.ChunkIndex); err != nil {
			return err
		}
	}
	return nil
}

// TickCompostBins runs the compost conversion tick over every active
// bin (the 60s scheduled reducer).
func TickCompostBins(tx *sql.Tx, catalog *item.Catalog, bins []*entity.CompostBin, nowUs int64, newInstanceID func() string) error {
	for _, b := range bins {
		if err := ProcessOneUnitPerSlot(tx, catalog, b, CompostEligible, nowUs, newInstanceID, b.PosX, b.PosY, b.ChunkIndex); err != nil {
			return err
		}
	}
	return nil
}

// TickCampfires runs the cook conversion tick over every lit campfire
// (the ~1s scheduled reducer); unlit campfires don't cook.
func TickCampfires(tx *sql.Tx, catalog *item.Catalog, campfires []*entity.Campfire, nowUs int64, newInstanceID func() string) error {
	for _, c := range campfires {
		if !c.IsLit {
			continue
		}
		if err := ProcessOneUnitPerSlot(tx, catalog, c, CookEligible, nowUs, newInstanceID, c.PosX, c.PosY, c.ChunkIndex); err != nil {
			return err
		}
	}
	return nil
}

// TickFurnaces runs the smelt conversion tick over every lit furnace
// (the ~1s scheduled reducer).
func TickFurnaces(tx *sql.Tx, catalog *item.Catalog, furnaces []*entity.Furnace, nowUs int64, newInstanceID func() string) error {
	for _, f := range furnaces {
		if !f.IsLit {
			continue
		}
		if err := ProcessOneUnitPerSlot(tx, catalog, f, SmeltEligible, nowUs, newInstanceID, f.PosX, f.PosY, f.ChunkIndex); err != nil {
			return err
		}
	}
	return nil
}

// fueled is the shared shape of campfire/furnace/lantern fuel state.
type fueled interface {
	container.Container
}

// BurnFuel applies one fuel-burn step of tickUs to a campfire, furnace
// or lantern: while lit and out of stored burn time, consume one
// fuel-eligible item from the container's own slots and credit its
// burn_seconds; otherwise drain the elapsed tick from the stored
// reserve, extinguishing once it's gone. No scheduled job in
// cmd/ownworldd calls it, so lit fires do not consume fuel on their own.
func BurnFuel(tx *sql.Tx, catalog *item.Catalog, c fueled, isLit *bool, fuelRemainingUs *int64, tickUs int64) error {
	if !*isLit {
		return nil
	}
	if *fuelRemainingUs > 0 {
		*fuelRemainingUs -= tickUs
		if *fuelRemainingUs < 0 {
			*fuelRemainingUs = 0
		}
		return nil
	}
	for slot := 0; slot < c.NumSlots(); slot++ {
		inst, err := item.GetAt(tx, c.SlotLocation(slot))
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return reducer.Internalf(err, "reading %s slot %d for fuel", c.Label(), slot)
		}
		def, ok := catalog.Lookup(inst.DefID)
		if !ok || def.BurnSeconds == nil {
			continue
		}
		*fuelRemainingUs = int64(*def.BurnSeconds * 1_000_000)
		if inst.Quantity > 1 {
			inst.Quantity--
			if err := item.Upsert(tx, inst); err != nil {
				return reducer.Internalf(err, "consuming fuel in %s slot %d", c.Label(), slot)
			}
		} else if err := item.Delete(tx, inst.InstanceID); err != nil {
			return reducer.Internalf(err, "consuming fuel in %s slot %d", c.Label(), slot)
		}
		return nil
	}
	*isLit = false
	return nil
}
