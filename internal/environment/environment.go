// Package environment implements the radius-based fire/water patch
// entities of spec §4.N: fire-patch creation, its 2s damage tick and
// 5s expiry sweep, propagation to nearby wooden structures gated on
// weather class, and the water-patch-backed terrain exclusion that
// backs internal/placement's TerrainQuery.
package environment

import (
	"database/sql"
	"errors"
	"math/rand"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/weather"
)

// Fire patch constants (spec §4.N, original_source/fire_patch.rs).
const (
	FirePatchRadius          float32 = 40
	StructureDamageRadius    float32 = 50
	BaseDurationUs           int64   = 15 * 1_000_000
	WoodDurationUs           int64   = 30 * 1_000_000
	PlayerBurnDamagePerTick  float64 = 3
	StructureDamagePerTick   float64 = 2
	PropagationChance        float64 = 0.10
)

func withinRadius(ax, ay, bx, by, r float32) bool {
	dx, dy := ax-bx, ay-by
	return dx*dx+dy*dy < r*r
}

// flammableKinds are the Wall kinds fire can spread to and burn. The
// teacher schema's Wall.Kind enum (wall/fence/foundation) has no
// separate material tier, so "foundation" stands in for the
// original's fire-resistant stone/metal tiers and is excluded.
func flammable(kind string) bool {
	return kind == "wall" || kind == "fence"
}

// CreateFirePatch places a new fire patch at (x, y), rejecting a
// location already covered by one (spec §4.N
// has_fire_patch_at_location).
func CreateFirePatch(db entity.DB, x, y float32, chunkIndex int64, source ids.Identity, onWoodenStructure bool, nowUs int64) (*entity.FirePatch, error) {
	existing, err := entity.ListFirePatches(db)
	if err != nil {
		return nil, reducer.Internalf(err, "listing fire patches")
	}
	for _, f := range existing {
		if withinRadius(f.PosX, f.PosY, x, y, FirePatchRadius) {
			return nil, reducer.Statef("Fire patch already exists at this location")
		}
	}
	duration := BaseDurationUs
	if onWoodenStructure {
		duration = WoodDurationUs
	}
	fp := &entity.FirePatch{
		PosX: x, PosY: y, ChunkIndex: chunkIndex, Radius: FirePatchRadius,
		CreatedAtUs: nowUs, ExpiresAtUs: nowUs + duration,
		DamagePerTick: StructureDamagePerTick, SourceIdentity: source,
	}
	if err := entity.InsertFirePatch(db, fp); err != nil {
		return nil, reducer.Internalf(err, "inserting fire patch")
	}
	return fp, nil
}

// TickDamage is the 2s damage reducer: every PvP-active, non-dead
// player and every active (non-destroyed) flammable wall within
// StructureDamageRadius of a fire patch takes its tick damage,
// regardless of current weather — weather gates spread, not damage
// (spec §4.N, matching original_source's comment on this exact point).
func TickDamage(tx *sql.Tx, nowUs int64) error {
	patches, err := entity.ListFirePatches(tx)
	if err != nil {
		return reducer.Internalf(err, "listing fire patches")
	}
	if len(patches) == 0 {
		return nil
	}

	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players")
	}
	walls, err := entity.ListActiveWalls(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active walls")
	}

	for _, fp := range patches {
		for i := range online {
			p := &online[i]
			if p.IsDead || !p.IsPvPActive {
				continue
			}
			if !withinRadius(fp.PosX, fp.PosY, p.PosX, p.PosY, StructureDamageRadius) {
				continue
			}
			p.Health -= PlayerBurnDamagePerTick
			if p.Health < 0 {
				p.Health = 0
			}
			if err := player.Save(tx, *p); err != nil {
				return reducer.Internalf(err, "saving burned player %s", p.Identity)
			}
		}
		for _, w := range walls {
			if w.IsDestroyed || !flammable(w.Kind) {
				continue
			}
			if !withinRadius(fp.PosX, fp.PosY, w.PosX, w.PosY, StructureDamageRadius) {
				continue
			}
			if w.ApplyDamage(StructureDamagePerTick, fp.SourceIdentity, nowUs) {
				continue
			}
			if err := entity.UpdateWall(tx, w); err != nil {
				return reducer.Internalf(err, "updating fire-damaged wall %d", w.ID)
			}
		}
	}
	return nil
}

// Propagate rolls PropagationChance for each fire patch to spread onto
// the nearest flammable wall within its radius, suppressed while the
// patch's chunk is Heavy or HeavyStorm weather (spec §4.N; the
// Moderate-suppression question is decided in DESIGN.md: only
// Heavy/HeavyStorm suppress, matching original_source exactly).
func Propagate(tx *sql.Tx, rng *rand.Rand, nowUs int64) error {
	patches, err := entity.ListFirePatches(tx)
	if err != nil {
		return reducer.Internalf(err, "listing fire patches")
	}
	if len(patches) == 0 {
		return nil
	}
	walls, err := entity.ListActiveWalls(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active walls")
	}

	for _, fp := range patches {
		class, err := weather.Get(tx, fp.ChunkIndex)
		if err != nil {
			return err
		}
		if class == weather.Heavy || class == weather.HeavyStorm {
			continue
		}
		if rng.Float64() >= PropagationChance {
			continue
		}
		for _, w := range walls {
			if w.IsDestroyed || !flammable(w.Kind) {
				continue
			}
			if !withinRadius(fp.PosX, fp.PosY, w.PosX, w.PosY, StructureDamageRadius) {
				continue
			}
			if _, err := CreateFirePatch(tx, w.PosX, w.PosY, w.ChunkIndex, fp.SourceIdentity, true, nowUs); err != nil {
				var rerr *reducer.Error
				if errors.As(err, &rerr) && rerr.Category == reducer.CategoryState {
					continue // already burning there, not a real failure
				}
				return err
			}
			break
		}
	}
	return nil
}

// Cleanup deletes every fire patch past its expiry (the 5s cleanup
// reducer).
func Cleanup(db entity.DB, nowUs int64) error {
	patches, err := entity.ListFirePatches(db)
	if err != nil {
		return reducer.Internalf(err, "listing fire patches")
	}
	for _, fp := range patches {
		if fp.Expired(nowUs) {
			if err := entity.DeleteFirePatch(db, fp.ID); err != nil {
				return reducer.Internalf(err, "deleting expired fire patch %d", fp.ID)
			}
		}
	}
	wps, err := entity.ListWaterPatches(db)
	if err != nil {
		return reducer.Internalf(err, "listing water patches")
	}
	for _, wp := range wps {
		if wp.Expired(nowUs) {
			if err := entity.DeleteWaterPatch(db, wp.ID); err != nil {
				return reducer.Internalf(err, "deleting expired water patch %d", wp.ID)
			}
		}
	}
	return nil
}

// Extinguish deletes any fire patch overlapping an active water patch
// (spec §4.N: "can be extinguished by water patches").
func Extinguish(db entity.DB) error {
	fires, err := entity.ListFirePatches(db)
	if err != nil {
		return reducer.Internalf(err, "listing fire patches")
	}
	if len(fires) == 0 {
		return nil
	}
	waters, err := entity.ListWaterPatches(db)
	if err != nil {
		return reducer.Internalf(err, "listing water patches")
	}
	for _, fp := range fires {
		for _, wp := range waters {
			if withinRadius(fp.PosX, fp.PosY, wp.PosX, wp.PosY, fp.Radius+wp.Radius) {
				if err := entity.DeleteFirePatch(db, fp.ID); err != nil {
					return reducer.Internalf(err, "extinguishing fire patch %d", fp.ID)
				}
				break
			}
		}
	}
	return nil
}

// TerrainQuery implements placement.TerrainQuery by excluding any
// point inside an active water patch (spec §6 "water/wall/monument
// exclusion"; wall/monument exclusion is handled by their own
// overlap checks in internal/placement's caller).
type TerrainQuery struct {
	DB entity.DB
}

// IsBlocked reports whether (x, y) sits inside any current water
// patch.
func (t TerrainQuery) IsBlocked(x, y float32) bool {
	patches, err := entity.ListWaterPatches(t.DB)
	if err != nil {
		return false
	}
	for _, wp := range patches {
		if withinRadius(wp.PosX, wp.PosY, x, y, wp.Radius) {
			return true
		}
	}
	return false
}
