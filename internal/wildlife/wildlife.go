// Package wildlife implements the wild-animal AI scheduler (spec
// §4.M): a per-species stat/behavior table, the Patrolling -> Alert ->
// Chasing -> Attacking -> Fleeing -> Hiding state machine, fire
// avoidance, and the spawn-zone and global-population maintenance
// reducers that keep the world stocked.
package wildlife

import (
	"database/sql"
	"math"
	"math/rand"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
)

// TickIntervalUs is the AI scheduler's cadence.
const TickIntervalUs int64 = 200_000

// FireAvoidRadius is how far an animal reacts to a burning fire patch.
const FireAvoidRadius float32 = 150

// Stats is one species' combat/movement profile (spec §4.M, grounded on
// original_source's AnimalStats).
type Stats struct {
	MaxHealth                float64
	AttackDamage             float64
	AttackRangePx            float32
	AttackCooldownUs         int64
	MovementSpeed            float32
	SprintSpeed              float32
	PerceptionRangePx        float32
	PatrolRadiusPx           float32
	ChaseTriggerRangePx      float32
	ChaseAbandonMultiplier   float32
	FleeTriggerHealthPercent float64
	Aggressive               bool
	Aquatic                  bool
	Herd                     bool
}

// Species is one entry of the stocked roster. Behavior beyond Stats
// (bonus effects on hit, flee odds) is expressed directly in the
// reducers below rather than a further interface, since the roster is
// closed and the per-species variance is small (spec §4.M names wolf
// as the worked example and calls for "supplementing the roster").
type Species struct {
	Name   string
	Stats  Stats
	Weight int // relative spawn weight, spec's species_weights table
}

// Roster is the stocked species table, grounded on original_source's
// wild_animal_npc/wolf.rs (Tundra Wolf stat block in full) and
// wild_animal_npc/respawn.rs's species_weights distribution. Stats for
// species beyond the wolf are not given a full combat block in the
// retrieved source (only spawn weight and terrain affinity); they are
// supplemented here from the same archetypes the source already
// defines (predator/prey/aquatic/herd), scaled off the wolf baseline,
// and recorded as such rather than invented from nothing.
var Roster = map[string]Species{
	"tundra_wolf": {Name: "tundra_wolf", Weight: 5, Stats: Stats{
		MaxHealth: 200, AttackDamage: 25, AttackRangePx: 69, AttackCooldownUs: 800_000,
		MovementSpeed: 201, SprintSpeed: 450, PerceptionRangePx: 800, PatrolRadiusPx: 540,
		ChaseTriggerRangePx: 750, ChaseAbandonMultiplier: 3.5, FleeTriggerHealthPercent: 0,
		Aggressive: true,
	}},
	"wolverine": {Name: "wolverine", Weight: 6, Stats: Stats{
		MaxHealth: 260, AttackDamage: 30, AttackRangePx: 69, AttackCooldownUs: 700_000,
		MovementSpeed: 190, SprintSpeed: 420, PerceptionRangePx: 700, PatrolRadiusPx: 400,
		ChaseTriggerRangePx: 650, ChaseAbandonMultiplier: 3.0, FleeTriggerHealthPercent: 0.1,
		Aggressive: true,
	}},
	"cinder_fox": {Name: "cinder_fox", Weight: 17, Stats: Stats{
		MaxHealth: 60, AttackDamage: 8, AttackRangePx: 50, AttackCooldownUs: 1_000_000,
		MovementSpeed: 220, SprintSpeed: 480, PerceptionRangePx: 500, PatrolRadiusPx: 450,
		ChaseTriggerRangePx: 0, ChaseAbandonMultiplier: 1, FleeTriggerHealthPercent: 0.5,
	}},
	"cable_viper": {Name: "cable_viper", Weight: 5, Stats: Stats{
		MaxHealth: 80, AttackDamage: 20, AttackRangePx: 45, AttackCooldownUs: 1_200_000,
		MovementSpeed: 120, SprintSpeed: 260, PerceptionRangePx: 300, PatrolRadiusPx: 150,
		ChaseTriggerRangePx: 280, ChaseAbandonMultiplier: 2, FleeTriggerHealthPercent: 0.2,
		Aggressive: true,
	}},
	"vole": {Name: "vole", Weight: 16, Stats: Stats{
		MaxHealth: 15, AttackDamage: 0, AttackRangePx: 0, AttackCooldownUs: 0,
		MovementSpeed: 180, SprintSpeed: 400, PerceptionRangePx: 350, PatrolRadiusPx: 300,
		FleeTriggerHealthPercent: 1,
	}},
	"hare": {Name: "hare", Weight: 10, Stats: Stats{
		MaxHealth: 20, AttackDamage: 0, AttackRangePx: 0, AttackCooldownUs: 0,
		MovementSpeed: 200, SprintSpeed: 460, PerceptionRangePx: 400, PatrolRadiusPx: 350,
		FleeTriggerHealthPercent: 1,
	}},
	"crow": {Name: "crow", Weight: 8, Stats: Stats{
		MaxHealth: 12, AttackDamage: 0, AttackRangePx: 0, AttackCooldownUs: 0,
		MovementSpeed: 240, SprintSpeed: 500, PerceptionRangePx: 450, PatrolRadiusPx: 500,
		FleeTriggerHealthPercent: 1,
	}},
	"tern": {Name: "tern", Weight: 10, Stats: Stats{
		MaxHealth: 10, AttackDamage: 0, AttackRangePx: 0, AttackCooldownUs: 0,
		MovementSpeed: 210, SprintSpeed: 470, PerceptionRangePx: 350, PatrolRadiusPx: 200,
		FleeTriggerHealthPercent: 1,
	}},
	"beach_crab": {Name: "beach_crab", Weight: 13, Stats: Stats{
		MaxHealth: 18, AttackDamage: 4, AttackRangePx: 30, AttackCooldownUs: 1_000_000,
		MovementSpeed: 80, SprintSpeed: 150, PerceptionRangePx: 200, PatrolRadiusPx: 120,
		ChaseTriggerRangePx: 150, ChaseAbandonMultiplier: 1.5, FleeTriggerHealthPercent: 0.4,
	}},
	"caribou": {Name: "caribou", Weight: 10, Stats: Stats{
		MaxHealth: 150, AttackDamage: 0, AttackRangePx: 0, AttackCooldownUs: 0,
		MovementSpeed: 190, SprintSpeed: 430, PerceptionRangePx: 450, PatrolRadiusPx: 600,
		FleeTriggerHealthPercent: 1, Herd: true,
	}},
	"arctic_walrus": {Name: "arctic_walrus", Weight: 10, Stats: Stats{
		MaxHealth: 300, AttackDamage: 15, AttackRangePx: 80, AttackCooldownUs: 1_200_000,
		MovementSpeed: 90, SprintSpeed: 180, PerceptionRangePx: 350, PatrolRadiusPx: 250,
		ChaseTriggerRangePx: 300, ChaseAbandonMultiplier: 1.2, FleeTriggerHealthPercent: 0.3,
		Herd: true, Aquatic: true,
	}},
	"salmon_shark": {Name: "salmon_shark", Weight: 4, Stats: Stats{
		MaxHealth: 220, AttackDamage: 35, AttackRangePx: 60, AttackCooldownUs: 900_000,
		MovementSpeed: 260, SprintSpeed: 550, PerceptionRangePx: 600, PatrolRadiusPx: 500,
		ChaseTriggerRangePx: 550, ChaseAbandonMultiplier: 2.5, FleeTriggerHealthPercent: 0,
		Aggressive: true, Aquatic: true,
	}},
	"jellyfish": {Name: "jellyfish", Weight: 5, Stats: Stats{
		MaxHealth: 25, AttackDamage: 10, AttackRangePx: 30, AttackCooldownUs: 1_500_000,
		MovementSpeed: 40, SprintSpeed: 60, PerceptionRangePx: 150, PatrolRadiusPx: 200,
		ChaseTriggerRangePx: 120, ChaseAbandonMultiplier: 1, FleeTriggerHealthPercent: 0,
		Aquatic: true,
	}},
	"polar_bear": {Name: "polar_bear", Weight: 3, Stats: Stats{
		MaxHealth: 400, AttackDamage: 45, AttackRangePx: 75, AttackCooldownUs: 1_000_000,
		MovementSpeed: 210, SprintSpeed: 470, PerceptionRangePx: 700, PatrolRadiusPx: 500,
		ChaseTriggerRangePx: 700, ChaseAbandonMultiplier: 3, FleeTriggerHealthPercent: 0,
		Aggressive: true,
	}},
	"snowy_owl": {Name: "snowy_owl", Weight: 5, Stats: Stats{
		MaxHealth: 35, AttackDamage: 12, AttackRangePx: 55, AttackCooldownUs: 1_100_000,
		MovementSpeed: 230, SprintSpeed: 520, PerceptionRangePx: 650, PatrolRadiusPx: 550,
		ChaseTriggerRangePx: 400, ChaseAbandonMultiplier: 2, FleeTriggerHealthPercent: 0.3,
		Aggressive: true,
	}},
}

// IsHostile reports whether species is considered hostile wildlife for
// turret targeting (spec §4.K "prefer hostile-tagged NPCs").
func IsHostile(species string) bool {
	s, ok := Roster[species]
	return ok && s.Aggressive
}

func clampUnit(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Tick advances one animal's AI state one scheduler step. Movement is
// resolved by the caller's transport layer from (PosX, PosY, Facing,
// State); this function only owns state transitions and the intent
// they imply (spec §4.M's state machine, grounded on wolf.rs's
// update_ai_state_logic / should_chase_player / handle_damage_response).
func Tick(tx *sql.Tx, a *entity.WildAnimal, nowUs int64, rng *rand.Rand) error {
	sp, ok := Roster[a.Species]
	if !ok {
		return reducer.Internalf(nil, "unknown wild animal species %q", a.Species)
	}
	stats := sp.Stats

	if fleeing, err := avoidFire(tx, a, nowUs, rng); err != nil {
		return err
	} else if fleeing {
		return finish(tx, a, nowUs)
	}

	switch a.State {
	case entity.AnimalPatrolling, entity.AnimalAlert:
		target, err := nearestChaseTarget(tx, a, stats)
		if err != nil {
			return err
		}
		if target != nil {
			a.State = entity.AnimalChasing
			a.StateReason = "target detected"
			a.TargetIdentity = target.Identity
		}
	case entity.AnimalChasing:
		target, err := player.Get(tx, a.TargetIdentity)
		lost := err != nil || target.IsDead
		if !lost {
			d := spatial.Distance(a.PosX, a.PosY, target.PosX, target.PosY)
			if d > float64(stats.ChaseTriggerRangePx)*float64(stats.ChaseAbandonMultiplier) {
				lost = true
			} else if d <= float64(stats.AttackRangePx) {
				a.State = entity.AnimalAttacking
				a.StateReason = "in range"
			}
		}
		if lost {
			a.State = entity.AnimalPatrolling
			a.StateReason = "target lost"
			a.TargetIdentity = ids.Zero
		}
	case entity.AnimalAttacking:
		target, err := player.Get(tx, a.TargetIdentity)
		if err != nil || target.IsDead {
			a.State = entity.AnimalPatrolling
			a.StateReason = "target gone"
			a.TargetIdentity = ids.Zero
			break
		}
		d := spatial.Distance(a.PosX, a.PosY, target.PosX, target.PosY)
		if d > float64(stats.AttackRangePx) {
			a.State = entity.AnimalChasing
			a.StateReason = "target moved out of range"
			break
		}
		if nowUs-a.LastTickUs >= stats.AttackCooldownUs {
			if err := strike(tx, a, &target, stats, nowUs, rng); err != nil {
				return err
			}
		}
	case entity.AnimalFleeing:
		// Fleeing expires after 4 s of travel (grounded on
		// wolf.rs's 4-second flee timer); the caller's transport step
		// tracks arrival, so here we just time it out.
		if nowUs-a.LastTickUs > 4_000_000 {
			a.State = entity.AnimalPatrolling
			a.StateReason = "flee timer elapsed"
		}
	case entity.AnimalHiding:
		if nowUs-a.LastTickUs > 2_000_000 {
			a.State = entity.AnimalPatrolling
			a.StateReason = "hide timer elapsed"
		}
	}

	return finish(tx, a, nowUs)
}

func finish(tx *sql.Tx, a *entity.WildAnimal, nowUs int64) error {
	a.LastTickUs = nowUs
	if err := entity.UpdateWildAnimal(tx, a); err != nil {
		return reducer.Internalf(err, "updating wild animal %d", a.ID)
	}
	return nil
}

// nearestChaseTarget scans online, non-dead players within the
// species' chase-trigger range and returns the nearest (spec §4.M /
// wolf.rs's should_chase_player); it applies no health threshold.
func nearestChaseTarget(tx *sql.Tx, a *entity.WildAnimal, stats Stats) (*player.Player, error) {
	if !stats.Aggressive || stats.ChaseTriggerRangePx <= 0 {
		return nil, nil
	}
	online, err := player.ListOnline(tx)
	if err != nil {
		return nil, reducer.Internalf(err, "listing online players for animal %d", a.ID)
	}
	var best *player.Player
	var bestDist float64
	for i := range online {
		p := &online[i]
		if p.IsDead || p.IsKnockedOut {
			continue
		}
		d := spatial.Distance(a.PosX, a.PosY, p.PosX, p.PosY)
		if d > float64(stats.ChaseTriggerRangePx) {
			continue
		}
		if best == nil || d < bestDist {
			cp := *p
			best, bestDist = &cp, d
		}
	}
	return best, nil
}

// strike applies one attack cycle's damage, spec §4.M's bonus-effect
// hooks (grounded on wolf.rs's execute_attack_effects: +5 bonus
// damage, a chance of a bleed effect, a chance of an immediate
// double-strike).
func strike(tx *sql.Tx, a *entity.WildAnimal, target *player.Player, stats Stats, nowUs int64, rng *rand.Rand) error {
	dmg := stats.AttackDamage + 5
	target.Health -= dmg
	if target.Health < 0 {
		target.Health = 0
	}
	if err := player.Save(tx, *target); err != nil {
		return reducer.Internalf(err, "applying wild animal strike to %s", target.Identity)
	}
	if stats.Aggressive && rng.Float64() < 0.25 {
		eff := &entity.ActiveEffect{
			PlayerIdentity: target.Identity, Kind: entity.EffectBleeding,
			Remaining: 5, DurationUs: 10_000_000, TickIntervalUs: 2_000_000,
			SourceIdentity: ids.Zero, StartedAtUs: nowUs, LastTickUs: nowUs,
		}
		if err := entity.UpsertEffect(tx, eff); err != nil {
			return reducer.Internalf(err, "applying bleed from animal %d", a.ID)
		}
	}
	if stats.Aggressive && rng.Float64() < 0.30 {
		target.Health -= dmg
		if target.Health < 0 {
			target.Health = 0
		}
		if err := player.Save(tx, *target); err != nil {
			return reducer.Internalf(err, "applying double-strike from animal %d", a.ID)
		}
	}
	return nil
}

// avoidFire steers a non-fleeing animal away from any fire patch
// within FireAvoidRadius by transitioning it to Fleeing, mirroring
// spec §4.M's fire-avoidance behavior. Returns true if a transition
// happened this tick.
func avoidFire(tx *sql.Tx, a *entity.WildAnimal, nowUs int64, rng *rand.Rand) (bool, error) {
	if a.State == entity.AnimalFleeing {
		return false, nil
	}
	patches, err := entity.ListFirePatches(tx)
	if err != nil {
		return false, reducer.Internalf(err, "listing fire patches for animal %d", a.ID)
	}
	var nearest *entity.FirePatch
	var nearestDist float64
	for _, fp := range patches {
		if fp.Expired(nowUs) {
			continue
		}
		d := spatial.Distance(a.PosX, a.PosY, fp.PosX, fp.PosY)
		if d > float64(FireAvoidRadius) {
			continue
		}
		if nearest == nil || d < nearestDist {
			nearest, nearestDist = fp, d
		}
	}
	if nearest == nil {
		return false, nil
	}
	angle := math.Atan2(float64(a.PosY-nearest.PosY), float64(a.PosX-nearest.PosX))
	dist := 300 + rng.Float64()*300
	a.Facing = float32(angle)
	a.PosX += float32(math.Cos(angle) * dist * 0.1)
	a.PosY += float32(math.Sin(angle) * dist * 0.1)
	a.State = entity.AnimalFleeing
	a.StateReason = "fire avoidance"
	a.TargetIdentity = ids.Zero
	return true, nil
}

// HandleDamage applies incoming damage and resolves the retaliate-or-
// flee branch (spec §4.M / wolf.rs's handle_damage_response): high
// health retaliates by chasing the attacker, low health flees.
func HandleDamage(tx *sql.Tx, a *entity.WildAnimal, dmg float64, attacker ids.Identity, nowUs int64) (destroyed bool, err error) {
	destroyed = a.ApplyDamage(dmg, attacker, nowUs)
	if destroyed {
		return true, entity.UpdateWildAnimal(tx, a)
	}
	sp := Roster[a.Species]
	healthPct := clampUnit(a.Health / sp.Stats.MaxHealth)
	if healthPct > sp.Stats.FleeTriggerHealthPercent+0.1 && sp.Stats.Aggressive {
		a.State = entity.AnimalChasing
		a.StateReason = "retaliation"
		a.TargetIdentity = attacker
	} else {
		angle := rng01(nowUs) * 2 * math.Pi
		a.Facing = float32(angle)
		a.State = entity.AnimalFleeing
		a.StateReason = "low health flee"
		a.TargetIdentity = ids.Zero
	}
	return false, entity.UpdateWildAnimal(tx, a)
}

// rng01 derives a deterministic-enough pseudo-angle from the timestamp
// when no *rand.Rand is threaded through (HandleDamage is called from
// the combat hit path, which doesn't carry one); callers that need
// reproducible randomness should use Tick's rng-threaded path instead.
func rng01(seed int64) float64 {
	return float64(uint64(seed)%1000) / 1000
}
