// Package placement implements the place_* reducer family (spec §6):
// barrel, campfire, lantern, turret, rain collector, wooden storage
// box, sleeping bag, shelter, wall/fence/foundation. Every concrete
// place_X reducer (built alongside the entity types they construct, in
// internal/entity's callers) funnels through Place, which owns the
// validation order spec §6 names for every one of them.
package placement

import (
	"database/sql"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
)

// MaxPlaceDistance is spec §6's "distance from caller ≤ 150 px".
const MaxPlaceDistance float32 = 150

// TerrainQuery answers whether a point falls in a placement exclusion
// zone: water, a wall's footprint, or a monument's protected radius
// (spec §6). Implemented by environment.TerrainQuery; kept as a narrow
// interface here so this package does not depend on internal/environment.
type TerrainQuery interface {
	IsBlocked(x, y float32) bool
}

// OverlapQuery reports whether another placeable already occupies the
// target point, approximated as a fixed-radius exclusion since spec.md
// names no per-shape footprint table (spec §6 "no overlap with other
// placeables of incompatible shape").
type OverlapQuery func(tx *sql.Tx, x, y float32) (bool, error)

// Build inserts the concrete entity row once validation has passed.
type Build func(tx *sql.Tx) error

// Request is everything Place needs to validate and run one placement.
type Request struct {
	Caller             ids.Identity
	CallerX, CallerY   float32
	ItemInstanceID     string
	TargetX, TargetY   float32
	Terrain            TerrainQuery
	Overlap            OverlapQuery
	Build              Build
}

// Place runs the shared validation pipeline every place_* reducer
// needs (spec §6): ownership of the source item, distance, exclusion
// zones, overlap — then runs Build and consumes the item, all inside
// the caller's transaction.
func Place(tx *sql.Tx, catalog *item.Catalog, req Request) error {
	inst, err := item.GetTx(tx, req.ItemInstanceID)
	if err != nil {
		if err == sql.ErrNoRows {
			return reducer.Validationf("Item not owned")
		}
		return reducer.Internalf(err, "loading item instance %q", req.ItemInstanceID)
	}
	if inst.Location.Kind != item.LocationInventory && inst.Location.Kind != item.LocationHotbar {
		return reducer.Validationf("Item not owned")
	}
	if inst.Location.Owner != req.Caller {
		return reducer.Validationf("Item not owned")
	}

	def, ok := catalog.Lookup(inst.DefID)
	if !ok {
		return reducer.Internalf(nil, "missing item definition %q", inst.DefID)
	}
	if def.Category != item.CategoryPlaceable {
		return reducer.Validationf("Item not owned")
	}

	if !spatial.WithinRadius(req.CallerX, req.CallerY, req.TargetX, req.TargetY, MaxPlaceDistance) {
		return reducer.Validationf("Too far away")
	}

	if req.Terrain != nil && req.Terrain.IsBlocked(req.TargetX, req.TargetY) {
		return reducer.Validationf("Cannot place on water")
	}

	if req.Overlap != nil {
		blocked, err := req.Overlap(tx, req.TargetX, req.TargetY)
		if err != nil {
			return reducer.Internalf(err, "checking placement overlap")
		}
		if blocked {
			return reducer.Validationf("Slot occupied by incompatible item")
		}
	}

	if err := req.Build(tx); err != nil {
		return err
	}

	if err := item.Delete(tx, req.ItemInstanceID); err != nil {
		return reducer.Internalf(err, "consuming placed item %q", req.ItemInstanceID)
	}
	return nil
}
