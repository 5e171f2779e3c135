package chat

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/lifecycle"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/reducer"
)

// Deps bundles the collaborators Send needs beyond the transaction
// (spec §6 send_message surface).
type Deps struct {
	Catalog        *item.Catalog
	NewInstanceID  func() string
	ModuleIdentity ids.Identity
	// TeamOf resolves a player's current team (matronage) membership,
	// if any. Matronage membership itself is out of this module's
	// scope (spec §9 glossary); callers that haven't built one can
	// pass a func that always returns ("", false).
	TeamOf func(ids.Identity) (team string, ok bool)
}

// Send parses and routes text (spec §6 send_message; spec §4.P). A
// leading "/" dispatches to a command; anything else is a plain
// broadcast message. Commands never also post the raw text to the
// broadcast log (chat.rs: "don't send original message to chat").
func Send(tx *sql.Tx, deps Deps, sender ids.Identity, text string, nowUs int64) error {
	if text == "" {
		return reducer.Validationf("Message cannot be empty.")
	}
	if !strings.HasPrefix(text, "/") {
		if len(text) > MaxMessageLen {
			return reducer.Validationf("Message too long (max %d characters).", MaxMessageLen)
		}
		return broadcast(tx, sender, text, nowUs)
	}

	parts := strings.Fields(text)
	command := strings.ToLower(parts[0])
	switch command {
	case "/kill", "/respawn":
		return handleKill(tx, deps, sender, command, nowUs)
	case "/players":
		return handlePlayers(tx, deps, nowUs)
	case "/who":
		return handleWho(tx, deps, nowUs)
	case "/w", "/whisper":
		return handleWhisper(tx, sender, parts, nowUs)
	case "/r", "/reply":
		return handleReply(tx, sender, parts, nowUs)
	case "/t", "/team":
		return handleTeam(tx, deps, sender, parts, nowUs)
	default:
		return reducer.Validationf("Unknown command: %s", command)
	}
}

func broadcast(tx *sql.Tx, sender ids.Identity, text string, nowUs int64) error {
	if err := insertMessage(tx, sender, text, nowUs); err != nil {
		return reducer.Internalf(err, "inserting broadcast message from %s", sender)
	}
	return nil
}

func systemMessage(tx *sql.Tx, deps Deps, text string, nowUs int64) error {
	if err := insertMessage(tx, deps.ModuleIdentity, text, nowUs); err != nil {
		return reducer.Internalf(err, "inserting system message")
	}
	return nil
}

// handleKill runs the /kill and /respawn command (chat.rs: /respawn is
// an alias for /kill, not the respawn_at_* reducers — both just kill
// the caller where they stand so the normal death/respawn flow picks
// them up from there).
func handleKill(tx *sql.Tx, deps Deps, sender ids.Identity, command string, nowUs int64) error {
	if EnableKillCommandCooldown {
		lastUsed, ok, err := getKillCommandCooldown(tx, sender)
		if err != nil {
			return reducer.Internalf(err, "loading kill command cooldown for %s", sender)
		}
		if ok {
			elapsedSec := (nowUs - lastUsed) / 1_000_000
			if elapsedSec < KillCommandCooldownSeconds {
				remaining := KillCommandCooldownSeconds - elapsedSec
				if err := insertPrivateMessage(tx, deps.ModuleIdentity, sender,
					fmt.Sprintf("You can use %s again in %d seconds.", command, remaining), nowUs); err != nil {
					return reducer.Internalf(err, "sending cooldown feedback to %s", sender)
				}
				return nil
			}
		}
	}

	p, err := player.Get(tx, sender)
	if err == sql.ErrNoRows {
		return reducer.Validationf("Player not found for %s command.", command)
	}
	if err != nil {
		return reducer.Internalf(err, "loading player %s", sender)
	}
	if p.IsDead {
		return reducer.Validationf("You are already dead.")
	}

	if err := lifecycle.Kill(tx, deps.Catalog, &p, ids.Zero, "Suicide", nowUs, 0); err != nil {
		return err
	}

	// Updated even when the cooldown check above is compiled out, to
	// match chat.rs's "for consistency" comment.
	if err := setKillCommandCooldown(tx, sender, nowUs); err != nil {
		return reducer.Internalf(err, "updating kill command cooldown for %s", sender)
	}
	return nil
}

func handlePlayers(tx *sql.Tx, deps Deps, nowUs int64) error {
	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players")
	}
	count := 0
	for _, p := range online {
		if !p.IsDead {
			count++
		}
	}
	return systemMessage(tx, deps, fmt.Sprintf("Players Online: %d", count), nowUs)
}

func handleWho(tx *sql.Tx, deps Deps, nowUs int64) error {
	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players")
	}
	var handles []string
	for _, p := range online {
		if !p.IsDead {
			handles = append(handles, p.Identity.String())
		}
	}
	list := "None"
	if len(handles) > 0 {
		list = strings.Join(handles, ", ")
	}
	return systemMessage(tx, deps, fmt.Sprintf("Players Online (%d): %s", len(handles), list), nowUs)
}

func handleWhisper(tx *sql.Tx, sender ids.Identity, parts []string, nowUs int64) error {
	if len(parts) < 3 {
		return reducer.Validationf("Usage: /w <playername> <message>")
	}
	targetPrefix := parts[1]
	messageText := strings.Join(parts[2:], " ")
	if messageText == "" {
		return reducer.Validationf("Whisper message cannot be empty.")
	}
	if len(messageText) > MaxWhisperLen {
		return reducer.Validationf("Whisper message too long (max %d characters).", MaxWhisperLen)
	}

	online, err := player.ListOnline(tx)
	if err != nil {
		return reducer.Internalf(err, "listing online players")
	}
	handles := make(map[ids.Identity]bool, len(online))
	for _, p := range online {
		if !p.IsDead {
			handles[p.Identity] = true
		}
	}
	target, ok := matchOnlineHandle(handles, targetPrefix)
	if !ok {
		return reducer.Validationf("Player '%s' not found or offline.", targetPrefix)
	}

	if err := insertPrivateMessage(tx, sender, target, messageText, nowUs); err != nil {
		return reducer.Internalf(err, "sending whisper from %s to %s", sender, target)
	}
	if err := setLastWhisperFrom(tx, target, sender, nowUs); err != nil {
		return reducer.Internalf(err, "recording last whisper from %s to %s", sender, target)
	}
	return nil
}

func handleReply(tx *sql.Tx, sender ids.Identity, parts []string, nowUs int64) error {
	if len(parts) < 2 {
		return reducer.Validationf("Usage: /r <message>")
	}
	messageText := strings.Join(parts[1:], " ")
	if messageText == "" {
		return reducer.Validationf("Reply message cannot be empty.")
	}
	if len(messageText) > MaxWhisperLen {
		return reducer.Validationf("Reply message too long (max %d characters).", MaxWhisperLen)
	}

	from, ok, err := getLastWhisperFrom(tx, sender)
	if err != nil {
		return reducer.Internalf(err, "loading last whisper sender for %s", sender)
	}
	if !ok {
		return reducer.Validationf("No one has whispered you yet. Use /w <player> <message> first.")
	}

	target, err := player.Get(tx, from)
	if err == sql.ErrNoRows || (err == nil && (!target.Online || target.IsDead)) {
		return reducer.Validationf("Player '%s' is no longer online.", from.String())
	}
	if err != nil {
		return reducer.Internalf(err, "loading reply target %s", from)
	}

	if err := insertPrivateMessage(tx, sender, from, messageText, nowUs); err != nil {
		return reducer.Internalf(err, "sending reply from %s to %s", sender, from)
	}
	if err := setLastWhisperFrom(tx, from, sender, nowUs); err != nil {
		return reducer.Internalf(err, "recording last whisper from %s to %s", sender, from)
	}
	return nil
}

func handleTeam(tx *sql.Tx, deps Deps, sender ids.Identity, parts []string, nowUs int64) error {
	if len(parts) < 2 {
		return reducer.Validationf("Usage: /t <message>")
	}
	messageText := strings.Join(parts[1:], " ")
	if messageText == "" {
		return reducer.Validationf("Team message cannot be empty.")
	}
	if len(messageText) > MaxWhisperLen {
		return reducer.Validationf("Team message too long (max %d characters).", MaxWhisperLen)
	}

	if deps.TeamOf == nil {
		return reducer.Validationf("You are not in a matronage. Join or create one first.")
	}
	team, ok := deps.TeamOf(sender)
	if !ok {
		return reducer.Validationf("You are not in a matronage. Join or create one first.")
	}

	if err := insertTeamMessage(tx, sender, team, messageText, nowUs); err != nil {
		return reducer.Internalf(err, "sending team message from %s", sender)
	}
	return nil
}
