package chat

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/player"
	"github.com/ownworld/core/internal/testutil"
)

func testCatalog() *item.Catalog {
	return item.NewCatalog([]item.Definition{
		{ID: "rock", Name: "Rock", Category: item.CategoryWeapon},
	})
}

func testDeps() Deps {
	return Deps{
		Catalog:        testCatalog(),
		ModuleIdentity: ids.RandomIdentity(),
	}
}

func TestSendBroadcastRejectsOverlongMessage(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), ids.RandomIdentity(), strings.Repeat("a", MaxMessageLen+1), 0)
	require.ErrorContains(t, err, "too long")
}

func TestSendBroadcastInsertsMessage(t *testing.T) {
	s := testutil.OpenStore(t)
	sender := ids.RandomIdentity()
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), sender, "hello world", 100))
	require.NoError(t, tx.Commit())

	msgs, err := ListRecent(s.DB, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello world", msgs[0].Text)
	require.Equal(t, sender, msgs[0].Sender)
}

func TestKillCommandKillsLivingPlayer(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	_, err := player.Register(s.DB, identity, 0, 0, 0)
	require.NoError(t, err)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), identity, "/kill", 1_000_000))
	require.NoError(t, tx.Commit())

	got, err := player.Get(s.DB, identity)
	require.NoError(t, err)
	require.True(t, got.IsDead)

	// /kill never echoes into the broadcast log.
	msgs, err := ListRecent(s.DB, 10)
	require.NoError(t, err)
	require.Empty(t, msgs)

	// Cooldown bookkeeping still runs even though the gate is disabled.
	_, ok, err := getKillCommandCooldown(s.DB, identity)
	require.NoError(t, err)
	require.True(t, ok)
}

func TestRespawnCommandAliasesKill(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	_, err := player.Register(s.DB, identity, 0, 0, 0)
	require.NoError(t, err)

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), identity, "/respawn", 0))
	require.NoError(t, tx.Commit())

	got, err := player.Get(s.DB, identity)
	require.NoError(t, err)
	require.True(t, got.IsDead)
}

func TestKillCommandRejectsAlreadyDead(t *testing.T) {
	s := testutil.OpenStore(t)
	identity := ids.RandomIdentity()
	p, err := player.Register(s.DB, identity, 0, 0, 0)
	require.NoError(t, err)
	p.IsDead = true
	require.NoError(t, player.Save(s.DB, p))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), identity, "/kill", 0)
	require.ErrorContains(t, err, "already dead")
}

func TestPlayersCommandReportsOnlineCount(t *testing.T) {
	s := testutil.OpenStore(t)
	a, err := player.Register(s.DB, ids.RandomIdentity(), 0, 0, 0)
	require.NoError(t, err)
	a.Online = true
	require.NoError(t, player.Save(s.DB, a))

	b, err := player.Register(s.DB, ids.RandomIdentity(), 0, 0, 0)
	require.NoError(t, err)
	b.Online = true
	b.IsDead = true
	require.NoError(t, player.Save(s.DB, b))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	deps := testDeps()
	require.NoError(t, Send(tx, deps, ids.RandomIdentity(), "/players", 0))
	require.NoError(t, tx.Commit())

	msgs, err := ListRecent(s.DB, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "Players Online: 1", msgs[0].Text)
	require.Equal(t, deps.ModuleIdentity, msgs[0].Sender)
}

func TestWhoCommandListsHandles(t *testing.T) {
	s := testutil.OpenStore(t)
	a, err := player.Register(s.DB, ids.RandomIdentity(), 0, 0, 0)
	require.NoError(t, err)
	a.Online = true
	require.NoError(t, player.Save(s.DB, a))

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), ids.RandomIdentity(), "/who", 0))
	require.NoError(t, tx.Commit())

	msgs, err := ListRecent(s.DB, 10)
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Contains(t, msgs[0].Text, a.Identity.String())
	require.Contains(t, msgs[0].Text, "Players Online (1)")
}

func TestWhisperRejectsUnknownTarget(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), ids.RandomIdentity(), "/w nobody hello there", 0)
	require.ErrorContains(t, err, "not found or offline")
}

func TestWhisperAndReplyRoundTrip(t *testing.T) {
	s := testutil.OpenStore(t)
	sender := ids.RandomIdentity()
	target, err := player.Register(s.DB, ids.RandomIdentity(), 0, 0, 0)
	require.NoError(t, err)
	target.Online = true
	require.NoError(t, player.Save(s.DB, target))

	handle := target.Identity.String()[:8]

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), sender, "/w "+handle+" hi there", 0))
	require.NoError(t, tx.Commit())

	inbox, err := ListPrivate(s.DB, target.Identity)
	require.NoError(t, err)
	require.Len(t, inbox, 1)
	require.Equal(t, "hi there", inbox[0].Text)

	tx2, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx2, testDeps(), target.Identity, "/r and you", 0))
	require.NoError(t, tx2.Commit())

	reply, err := ListPrivate(s.DB, sender)
	require.NoError(t, err)
	require.Len(t, reply, 1)
	require.Equal(t, "and you", reply[0].Text)
}

func TestReplyWithNoPriorWhisperFails(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), ids.RandomIdentity(), "/r hello", 0)
	require.ErrorContains(t, err, "No one has whispered")
}

func TestReplyToOfflineTargetFails(t *testing.T) {
	s := testutil.OpenStore(t)
	sender := ids.RandomIdentity()
	target, err := player.Register(s.DB, ids.RandomIdentity(), 0, 0, 0)
	require.NoError(t, err)
	target.Online = true
	require.NoError(t, player.Save(s.DB, target))

	handle := target.Identity.String()[:8]
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, testDeps(), sender, "/w "+handle+" hi", 0))
	require.NoError(t, tx.Commit())

	target.Online = false
	require.NoError(t, player.Save(s.DB, target))

	tx2, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx2.Rollback()
	err = Send(tx2, testDeps(), target.Identity, "/r nope", 0)
	require.ErrorContains(t, err, "no longer online")
}

func TestTeamCommandRequiresTeam(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), ids.RandomIdentity(), "/t hello squad", 0)
	require.ErrorContains(t, err, "matronage")
}

func TestTeamCommandSendsWithTeamOf(t *testing.T) {
	s := testutil.OpenStore(t)
	sender := ids.RandomIdentity()
	deps := testDeps()
	deps.TeamOf = func(id ids.Identity) (string, bool) { return "alpha", true }

	tx, err := s.DB.Begin()
	require.NoError(t, err)
	require.NoError(t, Send(tx, deps, sender, "/t hello squad", 0))
	require.NoError(t, tx.Commit())

	msgs, err := ListTeam(s.DB, "alpha")
	require.NoError(t, err)
	require.Len(t, msgs, 1)
	require.Equal(t, "hello squad", msgs[0].Text)
}

func TestUnknownCommandRejected(t *testing.T) {
	s := testutil.OpenStore(t)
	tx, err := s.DB.Begin()
	require.NoError(t, err)
	defer tx.Rollback()

	err = Send(tx, testDeps(), ids.RandomIdentity(), "/dance", 0)
	require.ErrorContains(t, err, "Unknown command")
}
