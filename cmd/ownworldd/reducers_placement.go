package main

import (
	"database/sql"
	"encoding/json"

	"github.com/ownworld/core/internal/entity"
	"github.com/ownworld/core/internal/environment"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/placement"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/spatial"
	"github.com/ownworld/core/internal/transport"
)

// Starting health/slot counts for each placeable (spec.md names no
// numeric values for these; chosen to exercise the entity/container
// packages plausibly rather than derived from any source table).
const (
	campfireHealth   = 100.0
	campfireSlots    = 4
	furnaceHealth    = 150.0
	furnaceSlots     = 3
	boxHealth        = 200.0
	boxSlots         = 18
	collectorHealth  = 100.0
	collectorSlots   = 1
	lanternHealth    = 50.0
	lanternSlots     = 1
	turretHealth     = 200.0
	turretSlots      = 4
	shelterHealth    = 150.0
	wallHealth       = 250.0
	barrelHealth     = 100.0

	// wallOverlapRadius approximates every placeable's footprint as a
	// fixed circle, since spec.md names no per-shape footprint table;
	// it only checks against walls/fences/foundations, mirroring
	// internal/environment.TerrainQuery's own "wall exclusion handled
	// by the caller" comment.
	wallOverlapRadius float32 = 20
)

// wallOverlap is the Overlap query every place_* binding below shares.
func wallOverlap(tx *sql.Tx, x, y float32) (bool, error) {
	walls, err := entity.ListActiveWalls(tx)
	if err != nil {
		return false, err
	}
	for _, w := range walls {
		if spatial.WithinRadius(w.PosX, w.PosY, x, y, wallOverlapRadius) {
			return true, nil
		}
	}
	return false, nil
}

type placeRequest struct {
	ItemInstanceID string  `json:"item_instance_id"`
	CallerX        float32 `json:"caller_x"`
	CallerY        float32 `json:"caller_y"`
	TargetX        float32 `json:"target_x"`
	TargetY        float32 `json:"target_y"`
}

func decodePlaceRequest(body []byte) (placeRequest, error) {
	var req placeRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return placeRequest{}, reducer.Validationf("invalid request body: %v", err)
	}
	return req, nil
}

// baseRequest builds the shared half of a placement.Request from the
// decoded JSON body, leaving Build to the caller.
func baseRequest(caller ids.Identity, req placeRequest) placement.Request {
	return placement.Request{
		Caller:         caller,
		CallerX:        req.CallerX,
		CallerY:        req.CallerY,
		ItemInstanceID: req.ItemInstanceID,
		TargetX:        req.TargetX,
		TargetY:        req.TargetY,
		Overlap:        wallOverlap,
	}
}

// bindPlacementReducers wires every place_* reducer spec §6 names
// (barrel, campfire, lantern, turret, collector, box, sleeping bag,
// shelter, wall/fence/foundation) onto placement.Place, each supplying
// its own Build closure that inserts the concrete entity row.
func bindPlacementReducers(srv *transport.Server, catalog *item.Catalog) {
	srv.Bind("place_barrel", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			b := &entity.Barrel{
				PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
				Health: barrelHealth, MaxHealth: barrelHealth, LootTier: "common",
			}
			return entity.InsertBarrel(tx, b)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_campfire", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			c := &entity.Campfire{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: campfireHealth, MaxHealth: campfireHealth,
				},
				SlotCount: campfireSlots,
			}
			return entity.InsertCampfire(tx, c)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_furnace", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			f := &entity.Furnace{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: furnaceHealth, MaxHealth: furnaceHealth,
				},
				SlotCount: furnaceSlots,
			}
			return entity.InsertFurnace(tx, f)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_box", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			b := &entity.WoodenStorageBox{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: boxHealth, MaxHealth: boxHealth,
				},
				SlotCount: boxSlots,
			}
			return entity.InsertBox(tx, b)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_rain_collector", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Build = func(tx *sql.Tx) error {
			r := &entity.RainCollector{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: collectorHealth, MaxHealth: collectorHealth,
				},
				SlotCount: collectorSlots,
			}
			return entity.InsertRainCollector(tx, r)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_lantern", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			l := &entity.Lantern{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: lanternHealth, MaxHealth: lanternHealth,
				},
				SlotCount: lanternSlots,
			}
			return entity.InsertLantern(tx, l)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_turret", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			placeRequest
			Kind string `json:"kind"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		kind := req.Kind
		if kind == "" {
			kind = entity.TurretKindStandard
		}
		placeReq := baseRequest(identity, req.placeRequest)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			t := &entity.Turret{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: turretHealth, MaxHealth: turretHealth,
				},
				SlotCount: turretSlots,
				Kind:      kind,
			}
			return entity.InsertTurret(tx, t)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_shelter", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			s := &entity.Shelter{
				Placement: entity.Placement{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: shelterHealth, MaxHealth: shelterHealth,
				},
			}
			return entity.InsertShelter(tx, s)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("place_sleeping_bag", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		req, err := decodePlaceRequest(body)
		if err != nil {
			return nil, err
		}
		placeReq := baseRequest(identity, req)
		placeReq.Terrain = environment.TerrainQuery{DB: tx}
		placeReq.Build = func(tx *sql.Tx) error {
			s := &entity.SleepingBag{
				PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
				Owner: identity, PlacedAtUs: nowUs, Condition: 1.0,
			}
			return entity.InsertSleepingBag(tx, s)
		}
		if err := placement.Place(tx, catalog, placeReq); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	for _, kind := range []string{"wall", "fence", "foundation"} {
		kind := kind
		srv.Bind("place_"+kind, func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
			var req struct {
				placeRequest
				Facing float32 `json:"facing"`
			}
			if err := json.Unmarshal(body, &req); err != nil {
				return nil, reducer.Validationf("invalid request body: %v", err)
			}
			placeReq := baseRequest(identity, req.placeRequest)
			placeReq.Terrain = environment.TerrainQuery{DB: tx}
			placeReq.Build = func(tx *sql.Tx) error {
				w := &entity.Wall{
					PosX: req.TargetX, PosY: req.TargetY, ChunkIndex: spatial.ChunkIndex(req.TargetX, req.TargetY),
					Owner: identity, Health: wallHealth, MaxHealth: wallHealth, Kind: kind, Facing: req.Facing,
				}
				return entity.InsertWall(tx, w)
			}
			if err := placement.Place(tx, catalog, placeReq); err != nil {
				return nil, err
			}
			return map[string]bool{"ok": true}, nil
		})
	}
}
