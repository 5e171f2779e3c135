package telemetry

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/require"

	"github.com/ownworld/core/internal/config"
)

func TestNewLoggerFallsBackOnBadLevel(t *testing.T) {
	cfg := config.Config{LogLevel: "not-a-level"}
	log := NewLogger(cfg)
	require.Equal(t, "info", log.GetLevel().String())
}

func TestMetricsObserveReducerIncrementsCounters(t *testing.T) {
	m := NewMetrics()
	m.ObserveReducer("move_player", "validation", 10*time.Millisecond, true)

	require.Equal(t, float64(1), testutil.ToFloat64(m.ReducerCalls.WithLabelValues("move_player")))
	require.Equal(t, float64(1), testutil.ToFloat64(m.ReducerFailures.WithLabelValues("move_player", "validation")))
}

func TestMetricsOnlinePlayersGauge(t *testing.T) {
	m := NewMetrics()
	m.OnlinePlayers.Set(3)
	require.Equal(t, float64(3), testutil.ToFloat64(m.OnlinePlayers))
}
