package player

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/testutil"
)

func TestRegisterThenGet(t *testing.T) {
	s := testutil.OpenStore(t)
	id := ids.RandomIdentity()

	p, err := Register(s.DB, id, 100, 200, 1000)
	require.NoError(t, err)
	require.Equal(t, 100.0, p.Health)

	got, err := Get(s.DB, id)
	require.NoError(t, err)
	require.Equal(t, id, got.Identity)
	require.Equal(t, float32(100), got.PosX)
}

func TestMoveIgnoresStaleSequence(t *testing.T) {
	s := testutil.OpenStore(t)
	id := ids.RandomIdentity()
	_, err := Register(s.DB, id, 0, 0, 0)
	require.NoError(t, err)

	require.NoError(t, Move(s.DB, id, 10, 10, 1.5, 5, true, false))
	got, err := Get(s.DB, id)
	require.NoError(t, err)
	require.Equal(t, float32(10), got.PosX)
	require.EqualValues(t, 5, got.LastMoveSeq)

	require.NoError(t, Move(s.DB, id, 999, 999, 0, 3, false, true))
	got, err = Get(s.DB, id)
	require.NoError(t, err)
	require.Equal(t, float32(10), got.PosX, "a stale sequence number must not move the player")
}

func TestListOnlineFiltersOffline(t *testing.T) {
	s := testutil.OpenStore(t)
	a := ids.RandomIdentity()
	b := ids.RandomIdentity()
	_, err := Register(s.DB, a, 0, 0, 0)
	require.NoError(t, err)
	_, err = Register(s.DB, b, 0, 0, 0)
	require.NoError(t, err)

	require.NoError(t, SetOnline(s.DB, a, true))

	online, err := ListOnline(s.DB)
	require.NoError(t, err)
	require.Len(t, online, 1)
	require.Equal(t, a, online[0].Identity)
}
