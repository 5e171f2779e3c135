// Package player implements the Player row (spec §3 "Player") and the
// vitals/movement reducers that mutate it directly, outside any of the
// more specialized subsystems (combat, conversion, chat, ...).
package player

import (
	"database/sql"
	"errors"
	"math"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/spatial"
)

// ErrDodgeInFlight is returned by DodgeRoll when the player is already
// mid-roll (spec §6 dodge_roll cooldown).
var ErrDodgeInFlight = errors.New("player: dodge roll already in progress")

// Player mirrors the players table row exactly (spec §3).
type Player struct {
	Identity        ids.Identity
	PosX, PosY      float32
	ChunkIndex      int64
	Facing          float32
	IsDead          bool
	IsKnockedOut    bool
	KnockedOutAtUs  *int64
	IsSprinting     bool
	IsCrouching     bool
	IsOnWater       bool
	IsPvPActive     bool
	Health          float64
	Hunger          float64
	Thirst          float64
	Warmth          float64
	Stamina         float64
	Insanity        float64
	LastMoveSeq     int64
	Online          bool
	IntroSeen       bool
	ActiveWeaponID  *string
	CreatedAtUs     int64
	IsDodging       bool
	DodgeRollEndsAtUs int64
}

// DodgeRollDurationUs is how long a dodge roll's invulnerability/move
// burst lasts before the dodge-roll cleanup job (spec §6, 100 ms
// cadence) clears IsDodging.
const DodgeRollDurationUs = 400_000

// DodgeRollDistance is how far move_x/move_y is normalized and scaled
// to, so a dodge roll always covers a fixed distance regardless of the
// client-supplied direction vector's magnitude.
const DodgeRollDistance float32 = 60

type execer interface {
	Exec(query string, args ...interface{}) (sql.Result, error)
}

type queryer interface {
	QueryRow(query string, args ...interface{}) *sql.Row
	Query(query string, args ...interface{}) (*sql.Rows, error)
}

// DB is the subset of *sql.DB / *sql.Tx this package needs.
type DB interface {
	execer
	queryer
}

const selectColumns = `identity, pos_x, pos_y, chunk_index, facing, is_dead, is_knocked_out,
	knocked_out_at_us, is_sprinting, is_crouching, is_on_water, is_pvp_active,
	health, hunger, thirst, warmth, stamina, insanity, last_move_seq, online,
	intro_seen, active_weapon_id, created_at_us, is_dodging, dodge_roll_ends_at_us`

func scan(row interface{ Scan(...interface{}) error }) (Player, error) {
	var p Player
	err := row.Scan(&p.Identity, &p.PosX, &p.PosY, &p.ChunkIndex, &p.Facing, &p.IsDead, &p.IsKnockedOut,
		&p.KnockedOutAtUs, &p.IsSprinting, &p.IsCrouching, &p.IsOnWater, &p.IsPvPActive,
		&p.Health, &p.Hunger, &p.Thirst, &p.Warmth, &p.Stamina, &p.Insanity, &p.LastMoveSeq, &p.Online,
		&p.IntroSeen, &p.ActiveWeaponID, &p.CreatedAtUs, &p.IsDodging, &p.DodgeRollEndsAtUs)
	return p, err
}

// Get loads a player by identity.
func Get(db DB, identity ids.Identity) (Player, error) {
	row := db.QueryRow(`SELECT `+selectColumns+` FROM players WHERE identity = ?`, identity)
	return scan(row)
}

// Register inserts a brand new player at the world spawn point, used by
// the client-connect handshake (spec §4.A "register/login").
func Register(db DB, identity ids.Identity, spawnX, spawnY float32, nowUs int64) (Player, error) {
	p := Player{
		Identity: identity, PosX: spawnX, PosY: spawnY, ChunkIndex: spatial.ChunkIndex(spawnX, spawnY),
		Health: 100, Hunger: 100, Thirst: 100, Warmth: 100, Stamina: 100, CreatedAtUs: nowUs,
	}
	_, err := db.Exec(`INSERT INTO players (identity, pos_x, pos_y, chunk_index, health, hunger, thirst,
		warmth, stamina, created_at_us) VALUES (?,?,?,?,?,?,?,?,?,?)`,
		p.Identity, p.PosX, p.PosY, p.ChunkIndex, p.Health, p.Hunger, p.Thirst, p.Warmth, p.Stamina, p.CreatedAtUs)
	if err != nil {
		return Player{}, err
	}
	return p, nil
}

// Save persists every mutable column back (spec §4.A movement/vitals reducers).
func Save(db DB, p Player) error {
	_, err := db.Exec(`UPDATE players SET pos_x=?, pos_y=?, chunk_index=?, facing=?, is_dead=?,
		is_knocked_out=?, knocked_out_at_us=?, is_sprinting=?, is_crouching=?, is_on_water=?,
		is_pvp_active=?, health=?, hunger=?, thirst=?, warmth=?, stamina=?, insanity=?,
		last_move_seq=?, online=?, intro_seen=?, active_weapon_id=?, is_dodging=?,
		dodge_roll_ends_at_us=? WHERE identity=?`,
		p.PosX, p.PosY, p.ChunkIndex, p.Facing, p.IsDead, p.IsKnockedOut, p.KnockedOutAtUs,
		p.IsSprinting, p.IsCrouching, p.IsOnWater, p.IsPvPActive, p.Health, p.Hunger, p.Thirst,
		p.Warmth, p.Stamina, p.Insanity, p.LastMoveSeq, p.Online, p.IntroSeen, p.ActiveWeaponID,
		p.IsDodging, p.DodgeRollEndsAtUs, p.Identity)
	return err
}

// Move updates position/facing/sprint/crouch state from a client input
// tick, rejecting out-of-order sequence numbers (spec §4.A "last client
// movement sequence").
func Move(db DB, identity ids.Identity, x, y, facing float32, seq int64, sprinting, crouching bool) error {
	p, err := Get(db, identity)
	if err != nil {
		return err
	}
	if seq <= p.LastMoveSeq {
		return nil
	}
	p.PosX, p.PosY = x, y
	p.ChunkIndex = spatial.ChunkIndex(x, y)
	p.Facing = facing
	p.IsSprinting = sprinting
	p.IsCrouching = crouching
	p.LastMoveSeq = seq
	return Save(db, p)
}

// SetSprinting flips the sprint flag without touching position (spec
// §6 set_sprinting), independent of the combined flag in Move.
func SetSprinting(db DB, identity ids.Identity, sprinting bool) error {
	p, err := Get(db, identity)
	if err != nil {
		return err
	}
	p.IsSprinting = sprinting
	return Save(db, p)
}

// ToggleCrouch flips the crouch flag (spec §6 toggle_crouch).
func ToggleCrouch(db DB, identity ids.Identity) error {
	p, err := Get(db, identity)
	if err != nil {
		return err
	}
	p.IsCrouching = !p.IsCrouching
	return Save(db, p)
}

// DodgeRoll displaces the player DodgeRollDistance along the
// normalized (moveX, moveY) direction and marks IsDodging until
// DodgeRollDurationUs elapses, when the dodge-roll cleanup job (spec
// §6, 100 ms) clears the flag. A dodge already in flight rejects a
// second one.
func DodgeRoll(db DB, identity ids.Identity, moveX, moveY float32, nowUs int64) (Player, error) {
	p, err := Get(db, identity)
	if err != nil {
		return Player{}, err
	}
	if p.IsDodging {
		return Player{}, ErrDodgeInFlight
	}
	mag := math.Hypot(float64(moveX), float64(moveY))
	if mag > 0 {
		p.PosX += float32(float64(moveX) / mag * float64(DodgeRollDistance))
		p.PosY += float32(float64(moveY) / mag * float64(DodgeRollDistance))
		p.ChunkIndex = spatial.ChunkIndex(p.PosX, p.PosY)
	}
	p.IsDodging = true
	p.DodgeRollEndsAtUs = nowUs + DodgeRollDurationUs
	if err := Save(db, p); err != nil {
		return Player{}, err
	}
	return p, nil
}

// ListDodging returns every player currently mid-dodge-roll, used by
// the dodge-roll cleanup job to find flags past their expiry.
func ListDodging(db DB) ([]Player, error) {
	rows, err := db.Query(`SELECT ` + selectColumns + ` FROM players WHERE is_dodging = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Player
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// ClearDodgeRoll unsets IsDodging once DodgeRollEndsAtUs has passed.
func ClearDodgeRoll(db DB, identity ids.Identity) error {
	_, err := db.Exec(`UPDATE players SET is_dodging = 0 WHERE identity = ?`, identity)
	return err
}

// SetOnline flips the connected flag (spec §4.A connect/disconnect).
func SetOnline(db DB, identity ids.Identity, online bool) error {
	_, err := db.Exec(`UPDATE players SET online = ? WHERE identity = ?`, online, identity)
	return err
}

// ListOnline returns every currently connected player, used by the
// `/players` and `/who` chat commands (spec §4.O).
func ListOnline(db DB) ([]Player, error) {
	rows, err := db.Query(`SELECT ` + selectColumns + ` FROM players WHERE online = 1`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Player
	for rows.Next() {
		p, err := scan(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, p)
	}
	return out, rows.Err()
}
