// Command ownworldd is the authoritative server process: it owns the
// single SQLite writer, the scheduled-job registry, and the HTTP/
// WebSocket surface client reducer calls arrive on (spec §2, §5, §6).
// It generalizes the teacher's single-file main.go/ownworld.go/
// start_world.go trio into config/telemetry/store/transport/schedule
// packages wired together here.
package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"math/rand"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/ownworld/core/internal/chat"
	"github.com/ownworld/core/internal/config"
	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/item"
	"github.com/ownworld/core/internal/memorygrid"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/schedule"
	"github.com/ownworld/core/internal/store"
	"github.com/ownworld/core/internal/telemetry"
	"github.com/ownworld/core/internal/transport"
)

func newInstanceID() string { return uuid.NewString() }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("loading config")
	}

	logger := telemetry.NewLogger(cfg)
	metrics := telemetry.NewMetrics()

	var st *store.Store
	if cfg.DataPath == "" {
		st, err = store.OpenMemory()
	} else {
		st, err = store.Open(cfg.DataPath)
	}
	if err != nil {
		logger.Fatal().Err(err).Msg("opening store")
	}
	defer st.DB.Close()

	catalog := item.NewCatalog(item.Seed())

	registry := schedule.NewRegistry(st.DB, logger, st.ModuleIdentity)
	bindScheduledJobs(registry, catalog)
	if err := registerScheduledJobs(registry); err != nil {
		logger.Fatal().Err(err).Msg("registering scheduled jobs")
	}

	limiter := reducer.NewLimiter(cfg.SubmissionRatePerSecond, cfg.SubmissionBurst)
	srv := transport.NewServer(st.DB, logger, metrics, limiter)
	combatRng := rand.New(rand.NewSource(time.Now().UnixNano()))
	bindClientReducers(srv, catalog, st.ModuleIdentity, combatRng)

	httpServer := &http.Server{Addr: cfg.ListenAddr, Handler: srv}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		logger.Info().Str("addr", cfg.ListenAddr).Msg("listening")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error().Err(err).Msg("http server exited")
		}
	}()

	ticker := time.NewTicker(time.Duration(cfg.TickIntervalMs) * time.Millisecond)
	defer ticker.Stop()

	logger.Info().
		Str("module_identity", st.ModuleIdentity.String()).
		Str("peering_mode", string(cfg.PeeringMode)).
		Msg("ownworldd started")

runLoop:
	for {
		select {
		case <-ctx.Done():
			break runLoop
		case <-ticker.C:
			registry.Tick(ids.NowMicros())
		}
	}

	logger.Info().Msg("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("http shutdown")
	}
}

// bindScheduledJobs wires every scheduled job's reducer function
// (spec §4.G / §5's periodic world maintenance); registerScheduledJobs
// then gives each a cadence.
func bindScheduledJobs(registry *schedule.Registry, catalog *item.Catalog) {
	t := newTicks(catalog, newInstanceID)

	registry.Bind("barrel_respawn", t.barrelRespawn)
	registry.Bind("dropped_item_despawn", t.droppedItemDespawn)
	registry.Bind("fire_patch_damage", t.firePatchDamage)
	registry.Bind("fire_patch_cleanup", t.firePatchCleanup)
	registry.Bind("compost_processing", t.compostProcessing)
	registry.Bind("fish_trap_processing", t.fishTrapProcessing)
	registry.Bind("campfire_processing", t.campfireProcessing)
	registry.Bind("furnace_processing", t.furnaceProcessing)
	registry.Bind("projectile_sweep", t.projectileSweep)
	registry.Bind("turret_logic", t.turretLogic)
	registry.Bind("wildlife_tick", t.wildlifeTick)
	registry.Bind("spawn_zone_maintenance", t.spawnZoneMaintenance)
	registry.Bind("population_maintenance", t.populationMaintenance)
	registry.Bind("knocked_out_recovery", t.knockedOutRecovery)
	registry.Bind("stat_drain", t.statDrain)
	registry.Bind("rain_collector_update", t.rainCollectorUpdate)
	registry.Bind("sleeping_bag_deterioration", t.sleepingBagDeterioration)
	registry.Bind("dodge_roll_cleanup", t.dodgeRollCleanup)
}

// registerScheduledJobs assigns each bound job a cadence matching the
// spec's per-system tick intervals. Register is idempotent, so
// restarts don't duplicate rows (internal/schedule.Registry.Register).
func registerScheduledJobs(registry *schedule.Registry) error {
	now := ids.NowMicros()
	jobs := []struct {
		id       string
		reducer  string
		interval time.Duration
	}{
		{"barrel_respawn", "barrel_respawn", 30 * time.Second},
		{"dropped_item_despawn", "dropped_item_despawn", 60 * time.Second},
		{"fire_patch_damage", "fire_patch_damage", 2 * time.Second},
		{"fire_patch_cleanup", "fire_patch_cleanup", 5 * time.Second},
		{"compost_processing", "compost_processing", 60 * time.Second},
		{"fish_trap_processing", "fish_trap_processing", 60 * time.Second},
		{"campfire_processing", "campfire_processing", time.Second},
		{"furnace_processing", "furnace_processing", time.Second},
		{"projectile_sweep", "projectile_sweep", 500 * time.Millisecond},
		{"turret_logic", "turret_logic", 500 * time.Millisecond},
		{"wildlife_tick", "wildlife_tick", 200 * time.Millisecond},
		{"spawn_zone_maintenance", "spawn_zone_maintenance", 8 * time.Minute},
		{"population_maintenance", "population_maintenance", 8 * time.Minute},
		{"knocked_out_recovery", "knocked_out_recovery", 3 * time.Second},
		{"stat_drain", "stat_drain", 10 * time.Second},
		{"rain_collector_update", "rain_collector_update", rainCollectorIntervalSeconds * time.Second},
		{"sleeping_bag_deterioration", "sleeping_bag_deterioration", time.Hour},
		{"dodge_roll_cleanup", "dodge_roll_cleanup", 100 * time.Millisecond},
	}

	for _, j := range jobs {
		if err := registry.Register(j.id, j.reducer, schedule.KindInterval, ids.FromDuration(j.interval), now); err != nil {
			return err
		}
	}
	return nil
}

// bindClientReducers exposes every client-invocable operation spec §6
// names under POST /reducer/{name}. Each binding owns its own JSON
// decoding since transport.Reducer only deals in raw bytes. It
// delegates the movement, placement, combat, lifecycle, memory grid,
// and inventory families to their own files and only binds chat and
// the memory grid purchase reducer directly.
func bindClientReducers(srv *transport.Server, catalog *item.Catalog, moduleIdentity ids.Identity, combatRng *rand.Rand) {
	bindMovementReducers(srv)
	bindPlacementReducers(srv, catalog)
	bindInventoryReducers(srv, catalog)
	bindCombatReducers(srv, catalog, combatRng, newInstanceID)
	bindLifecycleReducers(srv, newInstanceID)
	bindMemoryGridReducers(srv)

	chatDeps := chat.Deps{
		Catalog:        catalog,
		NewInstanceID:  newInstanceID,
		ModuleIdentity: moduleIdentity,
		TeamOf:         func(ids.Identity) (string, bool) { return "", false },
	}

	srv.Bind("send_message", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			Text string `json:"text"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		if err := chat.Send(tx, chatDeps, identity, req.Text, nowUs); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})

	srv.Bind("purchase_memory_grid_node", func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error) {
		var req struct {
			NodeID string `json:"node_id"`
		}
		if err := json.Unmarshal(body, &req); err != nil {
			return nil, reducer.Validationf("invalid request body: %v", err)
		}
		if err := memorygrid.Purchase(tx, catalog, identity, req.NodeID, nowUs); err != nil {
			return nil, err
		}
		return map[string]bool{"ok": true}, nil
	})
}
