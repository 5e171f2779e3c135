package reducer

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/ids"
)

func TestLimiterAllowsBurstThenThrottles(t *testing.T) {
	l := NewLimiter(1, 2)
	identity := ids.NewIdentity()

	require.True(t, l.Allow(identity))
	require.True(t, l.Allow(identity))
	require.False(t, l.Allow(identity))
}

func TestLimiterTracksIdentitiesIndependently(t *testing.T) {
	l := NewLimiter(1, 1)
	a := ids.NewIdentity()
	b := ids.NewIdentity()

	require.True(t, l.Allow(a))
	require.False(t, l.Allow(a))
	require.True(t, l.Allow(b))
}
