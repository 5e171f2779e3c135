// Package projectile implements the append-only projectile trail and
// the two scheduled reducers driving it (spec §4.K): a 500ms
// turret-targeting reducer that spawns projectiles from loaded
// turrets, and a sweep reducer that prunes projectiles past their
// flight budget and resolves hits along the way.
package projectile

import (
	"database/sql"
	"math"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
)

// TurretProcessIntervalUs is the 500ms targeting cadence (spec §4.K,
// grounded on original_source's TURRET_PROCESS_INTERVAL_MS).
const TurretProcessIntervalUs int64 = 500_000

// CollisionRadius is the sparse per-tick hit-test radius around a
// projectile's current predicted position.
const CollisionRadius float32 = 20

// SourceType discriminates who fired a projectile.
type SourceType string

const (
	SourcePlayer SourceType = "player"
	SourceTurret SourceType = "turret"
)

// Projectile is one row of the append-only world table; clients
// integrate its position from (StartX, StartY, StartTimeUs, VelX, VelY).
type Projectile struct {
	ID          int64
	Owner       ids.Identity
	ItemDefID   string
	AmmoDefID   string
	SourceType  SourceType
	StartTimeUs int64
	StartX, StartY float64
	VelX, VelY  float64
	MaxRange    float64
}

// positionAt integrates the projectile's straight-line path.
func (p Projectile) positionAt(nowUs int64) (x, y float64) {
	elapsedSec := float64(nowUs-p.StartTimeUs) / 1_000_000
	return p.StartX + p.VelX*elapsedSec, p.StartY + p.VelY*elapsedSec
}

// traveled is the distance flown since launch.
func (p Projectile) traveled(nowUs int64) float64 {
	elapsedSec := float64(nowUs-p.StartTimeUs) / 1_000_000
	speed := math.Hypot(p.VelX, p.VelY)
	return speed * elapsedSec
}

// Spawn fires a new projectile from pos toward target at the ammo
// definition's projectile speed, per spec §4.K's velocity formula
// `(target - pos)·speed/|target - pos|`.
func Spawn(tx *sql.Tx, owner ids.Identity, weaponDefID string, ammo item.Definition, sourceType SourceType, pos, target [2]float32, nowUs int64) (*Projectile, error) {
	if ammo.ProjectileSpeed == nil || ammo.ProjectileMaxRange == nil {
		return nil, reducer.Validationf("Ammo %s has no projectile profile", ammo.ID)
	}
	dx := float64(target[0] - pos[0])
	dy := float64(target[1] - pos[1])
	dist := math.Hypot(dx, dy)
	if dist == 0 {
		return nil, reducer.Validationf("Cannot fire at own position")
	}
	speed := *ammo.ProjectileSpeed
	p := &Projectile{
		Owner: owner, ItemDefID: weaponDefID, AmmoDefID: ammo.ID, SourceType: sourceType,
		StartTimeUs: nowUs, StartX: float64(pos[0]), StartY: float64(pos[1]),
		VelX: dx / dist * speed, VelY: dy / dist * speed, MaxRange: *ammo.ProjectileMaxRange,
	}
	if err := Insert(tx, p); err != nil {
		return nil, reducer.Internalf(err, "spawning projectile")
	}
	return p, nil
}

// Sweep is the cleanup reducer (spec §4.K "scans each tick for
// t - start_time > max_range/|velocity|"): it deletes every projectile
// past its flight budget, and along the way resolves a sparse
// collision check against online players within CollisionRadius of
// the projectile's current predicted position. A projectile hits at
// most one target before it is removed.
func Sweep(tx *sql.Tx, catalog *item.Catalog, nowUs int64) error {
	rows, err := List(tx)
	if err != nil {
		return reducer.Internalf(err, "listing projectiles")
	}
	if len(rows) == 0 {
		return nil
	}

	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players for projectile sweep")
	}

	for _, p := range rows {
		speed := math.Hypot(p.VelX, p.VelY)
		var budgetUs int64
		if speed > 0 {
			budgetUs = int64(p.MaxRange / speed * 1_000_000)
		}
		expired := speed == 0 || nowUs-p.StartTimeUs > budgetUs

		x, y := p.positionAt(nowUs)
		hit := false
		for i := range online {
			target := &online[i]
			if target.IsDead || target.Identity == p.Owner {
				continue
			}
			if !spatial.WithinRadius(float32(x), float32(y), target.PosX, target.PosY, CollisionRadius) {
				continue
			}
			def, ok := catalog.Lookup(p.AmmoDefID)
			if !ok || def.ProjectileDamage == nil {
				continue
			}
			target.Health -= *def.ProjectileDamage
			if target.Health < 0 {
				target.Health = 0
			}
			if err := player.Save(tx, *target); err != nil {
				return reducer.Internalf(err, "applying projectile hit to %s", target.Identity)
			}
			hit = true
			break
		}

		if hit || expired {
			if err := Delete(tx, p.ID); err != nil {
				return reducer.Internalf(err, "removing spent projectile %d", p.ID)
			}
		}
	}
	return nil
}

// TargetPick is a resolved turret target: either an animal or a player.
type TargetPick struct {
	PosX, PosY float32
	Animal     *entity.WildAnimal
	Player     *player.Player
}

// pickTurretTarget implements spec §4.K's turret targeting priority:
// hostile wildlife first (never peaceful wildlife), then, only if the
// turret owner has PvP active, the nearest PvP-active non-owner
// player, always picking the single nearest candidate.
func pickTurretTarget(t *entity.Turret, animals []*entity.WildAnimal, online []player.Player, isHostile func(species string) bool, perceptionRange float32) *TargetPick {
	var best *TargetPick
	var bestDist float64
	consider := func(cand TargetPick, x, y float32) {
		d := spatial.Distance(t.PosX, t.PosY, x, y)
		if d > float64(perceptionRange) {
			return
		}
		if best == nil || d < bestDist {
			c := cand
			best, bestDist = &c, d
		}
	}

	for _, a := range animals {
		if a.IsDestroyed || !isHostile(a.Species) {
			continue
		}
		consider(TargetPick{PosX: a.PosX, PosY: a.PosY, Animal: a}, a.PosX, a.PosY)
	}
	if best != nil {
		return best
	}

	if !t.OwnerPvPActive {
		return nil
	}
	for i := range online {
		pl := &online[i]
		if pl.IsDead || pl.Identity == t.Owner || !pl.IsPvPActive {
			continue
		}
		consider(TargetPick{PosX: pl.PosX, PosY: pl.PosY, Player: pl}, pl.PosX, pl.PosY)
	}
	return best
}

// FireIntervalUs is the cooldown between shots for a standard turret
// (distinct from the 500ms targeting scan cadence: the turret scans
// every tick but only fires when due).
const FireIntervalUs int64 = 1_000_000

// ProcessTurrets is the 500ms scheduled reducer (spec §4.K). For every
// non-destroyed turret with a loaded ammo slot, it picks the nearest
// eligible target, fires if FireIntervalUs has elapsed since the last
// shot, and decrements one ammo unit (deleting the slot instance if it
// empties).
func ProcessTurrets(tx *sql.Tx, catalog *item.Catalog, isHostile func(species string) bool, perceptionRange float32, nowUs int64, newInstanceID func() string) error {
	turrets, err := entity.ListActiveTurrets(tx)
	if err != nil {
		return reducer.Internalf(err, "listing active turrets")
	}
	if len(turrets) == 0 {
		return nil
	}

	animals, err := entity.ListActiveWildAnimals(tx)
	if err != nil {
		return reducer.Internalf(err, "listing wild animals for turret targeting")
	}
	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players for turret targeting")
	}

	for _, t := range turrets {
		slots, err := item.ListContainer(tx, item.ContainerTurret, t.ID)
		if err != nil {
			return reducer.Internalf(err, "listing turret %d ammo", t.ID)
		}
		if len(slots) == 0 {
			continue
		}
		ammoInst := slots[0]
		ammoDef, ok := catalog.Lookup(ammoInst.DefID)
		if !ok || ammoDef.ProjectileSpeed == nil {
			continue
		}

		target := pickTurretTarget(t, animals, online, isHostile, perceptionRange)
		if target == nil {
			continue
		}
		if nowUs-t.LastFireTimeUs < FireIntervalUs {
			continue
		}

		weaponDefID := t.Kind
		if _, err := Spawn(tx, t.Owner, weaponDefID, ammoDef, SourceTurret,
			[2]float32{t.PosX, t.PosY}, [2]float32{target.PosX, target.PosY}, nowUs); err != nil {
			return err
		}

		t.LastFireTimeUs = nowUs
		if err := entity.UpdateTurret(tx, t); err != nil {
			return reducer.Internalf(err, "updating turret %d fire time", t.ID)
		}

		ammoInst.Quantity--
		if ammoInst.Quantity <= 0 {
			if err := item.Delete(tx, ammoInst.InstanceID); err != nil {
				return reducer.Internalf(err, "consuming last ammo in turret %d", t.ID)
			}
		} else if err := item.Upsert(tx, ammoInst); err != nil {
			return reducer.Internalf(err, "decrementing ammo in turret %d", t.ID)
		}
	}
	return nil
}
