package main

import (
	"database/sql"
	"encoding/json"
	"math/rand"

	"github.com/ownworld/core/internal/combat"
	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/lifecycle"
	"github.com/ownworld/core/internal/memorygrid"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/transport"
)

// barrelLootTable is the default loot roll every barrel uses; spec.md
// names the roll/guarantee algorithm (internal/combat.RollBarrelLoot)
// but not a concrete table, so this one exists to exercise it.
var barrelLootTable = []combat.LootRow{
	{DefID: "wood", Tier: "common", DropChance: 0.6, MinQty: 5, MaxQty: 20},
	{DefID: "stone", Tier: "common", DropChance: 0.5, MinQty: 5, MaxQty: 15},
	{DefID: "metal_fragments", Tier: "uncommon", DropChance: 0.25, MinQty: 2, MaxQty: 10},
	{DefID: "cloth", Tier: "common", DropChance: 0.4, MinQty: 2, MaxQty: 8},
}

// repairCost is the base material cost internal/combat.Repair scales
// by health deficit; one entry per repairable structure kind.
func repairCost(kind string) map[string]int {
	switch kind {
	case "campfire":
		return map[string]int{"wood": 20}
	case "furnace":
		return map[string]int{"stone": 30, "metal_fragments": 10}
	case "rain_collector", "collector":
		return map[string]int{"wood": 15}
	case "lantern":
		return map[string]int{"metal_fragments": 10}
	case "turret":
		return map[string]int{"metal_fragments": 40}
	case "shelter":
		return map[string]int{"wood": 30, "cloth": 10}
	case "wall", "fence", "foundation":
		return map[string]int{"stone": 50}
	default:
		return nil
	}
}

// bindCombatReducers wires damage_barrel, damage_structure, and
// repair_structure (spec §6) onto the per-kind Hit*/Repair* functions
// internal/combat already provides, dispatching on a caller-supplied
// structure_kind discriminant since the HTTP body alone doesn't carry
// enough type information to pick the right one.
func bindCombatReducers(srv *transport.Server, catalog *item.Catalog, rng *rand.Rand, newInstanceID func() string) {
	srv.Bind("damage_barrel", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			BarrelID int64  `json:"barrel_id"`
			Raw      float64 `json:"raw_damage"`
			Type     string `json:"damage_type"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		destroyed, err := combat.HitBarrel(tx, catalog, barrelLootTable, rng, req.BarrelID, identity,
			req.Raw, combat.DamageType(req.Type), nowUs, newInstanceID)
		if err != nil {
			return nil, err
		}
		return map[string]bool{"destroyed": destroyed}, nil
	})

	srv.Bind("damage_structure", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			Kind string  `json:"structure_kind"`
			ID   int64   `json:"structure_id"`
			Raw  float64 `json:"raw_damage"`
			Type string  `json:"damage_type"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		dtype := combat.DamageType(req.Type)
		var destroyed bool
		var err error
		switch req.Kind {
		case "wooden_storage_box", "box":
			destroyed, err = combat.HitStorageBox(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "wall", "fence", "foundation":
			destroyed, err = combat.HitWall(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "campfire":
			destroyed, err = combat.HitCampfire(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "furnace":
			destroyed, err = combat.HitFurnace(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "shelter":
			destroyed, err = combat.HitShelter(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "lantern":
			destroyed, err = combat.HitLantern(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "rain_collector", "collector":
			destroyed, err = combat.HitCollector(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		case "turret":
			destroyed, err = combat.HitTurret(tx, req.ID, identity, req.Raw, dtype, nil, nowUs)
		default:
			return nil, reducer.Validationf("unknown structure_kind %q", req.Kind)
		}
		if err != nil {
			return nil, err
		}
		return map[string]bool{"destroyed": destroyed}, nil
	})

	srv.Bind("repair_structure", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			Kind string `json:"structure_kind"`
			ID   int64  `json:"structure_id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		cost := repairCost(req.Kind)
		if cost == nil {
			return nil, reducer.Validationf("unknown structure_kind %q", req.Kind)
		}
		var result combat.RepairResult
		var err error
		switch req.Kind {
		case "wall", "fence", "foundation":
			result, err = combat.RepairWall(tx, req.ID, identity, nowUs, cost)
		case "campfire":
			result, err = combat.RepairCampfire(tx, req.ID, identity, nowUs, cost)
		case "furnace":
			result, err = combat.RepairFurnace(tx, req.ID, identity, nowUs, cost)
		case "shelter":
			result, err = combat.RepairShelter(tx, req.ID, identity, nowUs, cost)
		case "lantern":
			result, err = combat.RepairLantern(tx, req.ID, identity, nowUs, cost)
		case "rain_collector", "collector":
			result, err = combat.RepairCollector(tx, req.ID, identity, nowUs, cost)
		case "turret":
			result, err = combat.RepairTurret(tx, req.ID, identity, nowUs, cost)
		default:
			return nil, reducer.Validationf("unknown structure_kind %q", req.Kind)
		}
		if err != nil {
			return nil, err
		}
		return result, nil
	})
}

// starterKit is granted on every respawn (spec §4.L).
var starterKit = []lifecycle.StarterItem{
	{DefID: "rock", Qty: 1},
	{DefID: "raw_meat", Qty: 2},
}

// bindLifecycleReducers wires revive/respawn (spec §6) onto
// internal/lifecycle.
func bindLifecycleReducers(srv *transport.Server, newInstanceID func() string) {
	srv.Bind("revive_knocked_out_player", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			Target string `json:"target"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		targetIdentity, err := ids.ParseIdentity(req.Target)
		if err != nil {
			return nil, reducer.Validationf("invalid target identity: %v", err)
		}
		reviver, err := player.Get(tx, identity)
		if err != nil {
			return nil, reducer.Internalf(err, "loading reviver %s", identity)
		}
		target, err := player.Get(tx, targetIdentity)
		if err != nil {
			return nil, reducer.Internalf(err, "loading revive target %s", targetIdentity)
		}
		revived, err := lifecycle.Revive(tx, reviver, target)
		if err != nil {
			return nil, err
		}
		return revived, nil
	})

	srv.Bind("respawn_randomly", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		spawnX, spawnY := worldBounds[0]+(worldBounds[2]-worldBounds[0])/2, worldBounds[1]+(worldBounds[3]-worldBounds[1])/2
		p, err := lifecycle.RespawnRandomly(tx, identity, spawnX, spawnY, 0, starterKit, newInstanceID, nowUs)
		if err != nil {
			return nil, err
		}
		return p, nil
	})

	srv.Bind("respawn_at_sleeping_bag", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			BagID int64 `json:"bag_id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		bag, err := entity.GetSleepingBag(tx, req.BagID)
		if err != nil {
			if err == sql.ErrNoRows {
				return nil, reducer.Statef("Sleeping bag no longer exists")
			}
			return nil, reducer.Internalf(err, "loading sleeping bag %d", req.BagID)
		}
		p, err := lifecycle.RespawnAtSleepingBag(tx, identity, bag, starterKit, newInstanceID, nowUs)
		if err != nil {
			return nil, err
		}
		return p, nil
	})
}

// bindMemoryGridReducers wires initialize_player_memory_grid (spec §6);
// purchase_memory_grid_node is bound separately in bindClientReducers.
func bindMemoryGridReducers(srv *transport.Server) {
	srv.Bind("initialize_player_memory_grid", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		if err := memorygrid.Initialize(tx, identity); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})
}
