// Package telemetry wires structured logging and metrics, the
// generalization of the teacher's raw log.Logger file handles
// (InfoLog/ErrorLog in ownworld.go) into github.com/rs/zerolog plus a
// github.com/prometheus/client_golang registry every subsystem can
// register counters/histograms against (spec §7: reducer failures
// need "enough context to identify the instance").
package telemetry

import (
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"

	"github.com/ownworld/core/internal/config"
)

// NewLogger builds the process-wide zerolog.Logger from cfg.LogLevel,
// writing human-readable console output (the teacher's InfoLog/
// ErrorLog were both just stdlib *log.Logger writing to a terminal;
// zerolog.ConsoleWriter keeps that readability while adding levels and
// structured fields).
func NewLogger(cfg config.Config) zerolog.Logger {
	level, err := zerolog.ParseLevel(cfg.LogLevel)
	if err != nil {
		level = zerolog.InfoLevel
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: time.RFC3339}).
		Level(level).
		With().Timestamp().Logger()
}

// Metrics bundles every Prometheus collector this module registers. A single instance is built at startup and
// threaded down to whatever needs to observe something, mirroring how
// a single zerolog.Logger is threaded down instead of re-created.
type Metrics struct {
	Registry *prometheus.Registry

	ReducerCalls    *prometheus.CounterVec
	ReducerFailures *prometheus.CounterVec
	ReducerDuration *prometheus.HistogramVec
	ScheduleFiring  *prometheus.CounterVec
	OnlinePlayers   prometheus.Gauge
}

// NewMetrics builds and registers the collector set.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		Registry: reg,
		ReducerCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ownworld",
			Name:      "reducer_calls_total",
			Help:      "Reducer invocations by name.",
		}, []string{"reducer"}),
		ReducerFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ownworld",
			Name:      "reducer_failures_total",
			Help:      "Reducer invocations that returned an error, by name and category.",
		}, []string{"reducer", "category"}),
		ReducerDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "ownworld",
			Name:      "reducer_duration_seconds",
			Help:      "Reducer execution latency by name.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"reducer"}),
		ScheduleFiring: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "ownworld",
			Name:      "schedule_firings_total",
			Help:      "Scheduled job firings by job id.",
		}, []string{"job_id"}),
		OnlinePlayers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ownworld",
			Name:      "online_players",
			Help:      "Currently connected players.",
		}),
	}
	reg.MustRegister(m.ReducerCalls, m.ReducerFailures, m.ReducerDuration, m.ScheduleFiring, m.OnlinePlayers)
	return m
}

// ObserveReducer records a single reducer invocation's outcome and
// duration, called from the transport layer around every client
// reducer call. The schedule registry does not call it, and nothing in
// this module updates ScheduleFiring or OnlinePlayers.
func (m *Metrics) ObserveReducer(name string, category string, took time.Duration, failed bool) {
	m.ReducerCalls.WithLabelValues(name).Inc()
	m.ReducerDuration.WithLabelValues(name).Observe(took.Seconds())
	if failed {
		m.ReducerFailures.WithLabelValues(name, category).Inc()
	}
}
