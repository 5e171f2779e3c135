package main

import (
	"database/sql"
	"encoding/json"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/transport"
)

// bindMovementReducers wires the movement family (spec §4.B, §6) onto
// internal/player. jump carries no server-side state anywhere in this
// package — no stamina cost or animation lock is modeled — so it only
// validates the caller exists and is not knocked out, mirroring how
// other purely cosmetic client actions are acknowledged without a
// state change.
func bindMovementReducers(srv *transport.Server) {
	srv.Bind("update_player_position_simple", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			X         float32 `json:"x"`
			Y         float32 `json:"y"`
			Facing    float32 `json:"facing"`
			Seq       int64   `json:"seq"`
			Sprinting bool    `json:"sprinting"`
			Crouching bool    `json:"crouching"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		if err := player.Move(tx, identity, req.X, req.Y, req.Facing, req.Seq, req.Sprinting, req.Crouching); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("set_sprinting", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			Sprinting bool `json:"sprinting"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		if err := player.SetSprinting(tx, identity, req.Sprinting); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("toggle_crouch", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		if err := player.ToggleCrouch(tx, identity); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("jump", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		p, err := player.Get(tx, identity)
		if err != nil {
			return nil, reducer.Internalf(err, "loading player %s", identity)
		}
		if p.IsKnockedOut {
			return nil, reducer.Statef("cannot jump while knocked out")
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("dodge_roll", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			MoveX float32 `json:"move_x"`
			MoveY float32 `json:"move_y"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		p, err := player.DodgeRoll(tx, identity, req.MoveX, req.MoveY, nowUs)
		if err != nil {
			if err == player.ErrDodgeInFlight {
				return nil, reducer.Statef("dodge roll already in progress")
			}
			return nil, err
		}
		return p, nil
	})
}
