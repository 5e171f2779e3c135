// Package chat implements the send_message reducer and its command
// surface (spec §4.P / §6): plain broadcast messages, the `/kill`,
// `/respawn`, `/players`, `/who`, `/w`, `/r`, `/t` commands, and the
// private/team message tables those commands write to.
package chat

import (
	"database/sql"
	"strings"

	"github.com/ownworld/core/internal/ids"
)

// MaxMessageLen is the broadcast/command message length cap (spec §6:
// "Messages > 100 chars rejected").
const MaxMessageLen = 100

// MaxWhisperLen is the whisper/reply/team message length cap (spec
// §6: "whispers capped at 200").
const MaxWhisperLen = 200

// EnableKillCommandCooldown mirrors chat.rs's ENABLE_KILL_COMMAND_COOLDOWN,
// hard-wired off in the source. The cooldown bookkeeping below still
// runs unconditionally (chat.rs updates the cooldown record "even when
// cooldown is disabled, for consistency"); only the rejection branch is
// gated by this flag, so flipping it on needs no other code change.
const EnableKillCommandCooldown = false

// KillCommandCooldownSeconds is the source's crate::KILL_COMMAND_COOLDOWN_SECONDS,
// dormant while EnableKillCommandCooldown is false.
const KillCommandCooldownSeconds = 30

// Message mirrors the messages table row: a broadcast chat line or a
// SYSTEM-sender command response (spec §6 server->client surface).
type Message struct {
	ID     int64
	Sender ids.Identity
	Text   string
	AtUs   int64
}

// PrivateMessage mirrors the private_messages table row (whispers,
// replies, and /kill's cooldown feedback).
type PrivateMessage struct {
	ID        int64
	Sender    ids.Identity
	Recipient ids.Identity
	Text      string
	AtUs      int64
}

// TeamMessage mirrors the team_messages table row. Team is an opaque
// caller-supplied key (spec names this system "matronage" but scopes
// its mechanics out except where they intersect chat; this package
// takes a TeamOf lookup rather than modeling membership itself).
type TeamMessage struct {
	ID     int64
	Sender ids.Identity
	Team   string
	Text   string
	AtUs   int64
}

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

func insertMessage(db DB, sender ids.Identity, text string, atUs int64) error {
	_, err := db.Exec(`INSERT INTO messages (sender, text, at_us) VALUES (?,?,?)`, sender, text, atUs)
	return err
}

func insertPrivateMessage(db DB, sender, recipient ids.Identity, text string, atUs int64) error {
	_, err := db.Exec(`INSERT INTO private_messages (sender, recipient, text, at_us) VALUES (?,?,?,?)`,
		sender, recipient, text, atUs)
	return err
}

func insertTeamMessage(db DB, sender ids.Identity, team, text string, atUs int64) error {
	_, err := db.Exec(`INSERT INTO team_messages (sender, team, text, at_us) VALUES (?,?,?,?)`,
		sender, team, text, atUs)
	return err
}

// ListRecent returns the most recent broadcast messages, oldest first,
// capped at limit.
func ListRecent(db DB, limit int) ([]Message, error) {
	rows, err := db.Query(`SELECT id, sender, text, at_us FROM messages ORDER BY id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		if err := rows.Scan(&m.ID, &m.Sender, &m.Text, &m.AtUs); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, rows.Err()
}

// ListPrivate returns every private message addressed to recipient, oldest first.
func ListPrivate(db DB, recipient ids.Identity) ([]PrivateMessage, error) {
	rows, err := db.Query(`SELECT id, sender, recipient, text, at_us FROM private_messages
		WHERE recipient = ? ORDER BY id ASC`, recipient)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []PrivateMessage
	for rows.Next() {
		var m PrivateMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Recipient, &m.Text, &m.AtUs); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

// ListTeam returns every message sent to team, oldest first.
func ListTeam(db DB, team string) ([]TeamMessage, error) {
	rows, err := db.Query(`SELECT id, sender, team, text, at_us FROM team_messages
		WHERE team = ? ORDER BY id ASC`, team)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []TeamMessage
	for rows.Next() {
		var m TeamMessage
		if err := rows.Scan(&m.ID, &m.Sender, &m.Team, &m.Text, &m.AtUs); err != nil {
			return nil, err
		}
		out = append(out, m)
	}
	return out, rows.Err()
}

func getLastWhisperFrom(db DB, identity ids.Identity) (ids.Identity, bool, error) {
	var from ids.Identity
	err := db.QueryRow(`SELECT from_identity FROM last_whisper_from WHERE player_identity = ?`, identity).Scan(&from)
	if err == sql.ErrNoRows {
		return ids.Zero, false, nil
	}
	if err != nil {
		return ids.Zero, false, err
	}
	return from, true, nil
}

func setLastWhisperFrom(db DB, recipient, from ids.Identity, atUs int64) error {
	_, err := db.Exec(`INSERT INTO last_whisper_from (player_identity, from_identity, at_us)
		VALUES (?,?,?)
		ON CONFLICT(player_identity) DO UPDATE SET from_identity=excluded.from_identity, at_us=excluded.at_us`,
		recipient, from, atUs)
	return err
}

func getKillCommandCooldown(db DB, identity ids.Identity) (int64, bool, error) {
	var at int64
	err := db.QueryRow(`SELECT last_used_at_us FROM kill_command_cooldowns WHERE player_identity = ?`, identity).Scan(&at)
	if err == sql.ErrNoRows {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return at, true, nil
}

func setKillCommandCooldown(db DB, identity ids.Identity, atUs int64) error {
	_, err := db.Exec(`INSERT INTO kill_command_cooldowns (player_identity, last_used_at_us) VALUES (?,?)
		ON CONFLICT(player_identity) DO UPDATE SET last_used_at_us=excluded.last_used_at_us`, identity, atUs)
	return err
}

// matchOnlineHandle finds the online, non-dead player whose handle
// (spec's "username"; this build has no player-name table, so an
// identity's hex string stands in as its handle) case-insensitively
// starts with prefix (chat.rs's /w target lookup: "partial match").
func matchOnlineHandle(handles map[ids.Identity]bool, prefix string) (ids.Identity, bool) {
	prefix = strings.ToLower(prefix)
	for id := range handles {
		if strings.HasPrefix(strings.ToLower(id.String()), prefix) {
			return id, true
		}
	}
	return ids.Zero, false
}
