// Package transport is the HTTP/WebSocket surface binding client
// reducer calls to the engine (spec §6), generalizing the teacher's
// bare http.NewServeMux plus middlewareSecurity/middlewareCORS wrapper
// (ownworld.go) into chi route groups/middleware and adding a
// gorilla/websocket push channel for the live updates spec §6 and §7
// describe clients subscribing to (chat lines, the online roster).
package transport

import (
	"database/sql"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"

	"github.com/ownworld/core/internal/ids"
	"github.com/ownworld/core/internal/reducer"
	"github.com/ownworld/core/internal/telemetry"
)

// identityHeader is where a caller's identity travels. This build has
// no login handshake of its own (spec §4.A register/login covers only
// spawning a Player row, not issuing a session token), so the
// transport layer trusts a caller-supplied identity header the way the
// teacher trusted an already-authenticated session cookie upstream of
// its reducer handlers.
const identityHeader = "X-Ownworld-Identity"

// Reducer is the shape every client-invoked operation takes: run
// inside a transaction, given the caller's identity and the current
// tick time, decoding its own arguments from the request body.
type Reducer func(tx *sql.Tx, identity ids.Identity, nowUs int64, body []byte) (interface{}, error)

// Server binds a set of named Reducers to an HTTP surface plus a
// websocket broadcast hub.
type Server struct {
	db       *sql.DB
	log      zerolog.Logger
	metrics  *telemetry.Metrics
	limiter  *reducer.Limiter
	hub      *Hub
	reducers map[string]Reducer
	mux      chi.Router
}

// NewServer builds a Server. Reducers are registered afterward via
// Bind before Start/ServeHTTP is used.
func NewServer(db *sql.DB, log zerolog.Logger, metrics *telemetry.Metrics, limiter *reducer.Limiter) *Server {
	s := &Server{
		db:       db,
		log:      log,
		metrics:  metrics,
		limiter:  limiter,
		hub:      NewHub(),
		reducers: make(map[string]Reducer),
	}
	s.mux = s.routes()
	return s
}

// Bind registers a client-invocable reducer under name (spec §6 lists
// each by name, e.g. "send_message", "purchase_memory_grid_node").
func (s *Server) Bind(name string, fn Reducer) {
	s.reducers[name] = fn
}

// Hub exposes the websocket broadcast hub so subsystems (chat, the
// online roster) can push updates without going through transport's
// own HTTP handlers.
func (s *Server) Hub() *Hub { return s.hub }

func (s *Server) routes() chi.Router {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(s.rateLimit)

	r.Get("/metrics", promhttp.HandlerFor(s.metrics.Registry, promhttp.HandlerOpts{}).ServeHTTP)
	r.Get("/ws", s.hub.ServeHTTP)
	r.Post("/reducer/{name}", s.handleReducer)

	return r
}

// ServeHTTP lets Server itself be passed to http.Server.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { s.mux.ServeHTTP(w, r) }

func (s *Server) rateLimit(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		identity, err := identityFromRequest(r)
		if err != nil || identity.IsZero() {
			next.ServeHTTP(w, r)
			return
		}
		if !s.limiter.Allow(identity) {
			http.Error(w, "rate limit exceeded", http.StatusTooManyRequests)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func identityFromRequest(r *http.Request) (ids.Identity, error) {
	raw := r.Header.Get(identityHeader)
	if raw == "" {
		return ids.Zero, nil
	}
	return ids.ParseIdentity(raw)
}

type reducerResponse struct {
	Result interface{} `json:"result,omitempty"`
	Error  string      `json:"error,omitempty"`
}

// handleReducer dispatches POST /reducer/{name} to the bound Reducer,
// running it inside one transaction per call (spec §5: one reducer
// invocation per commit).
func (s *Server) handleReducer(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	fn, bound := s.reducers[name]
	if !bound {
		http.Error(w, "unknown reducer: "+name, http.StatusNotFound)
		return
	}

	identity, err := identityFromRequest(r)
	if err != nil {
		http.Error(w, "invalid identity", http.StatusBadRequest)
		return
	}

	var body []byte
	if r.Body != nil {
		body, err = io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, "reading request body", http.StatusBadRequest)
			return
		}
	}

	started := time.Now()
	var result interface{}
	category := ""
	failed := false

	txErr := reducer.Tx(s.db, s.log, name, func(tx *sql.Tx) error {
		var innerErr error
		result, innerErr = fn(tx, identity, int64(ids.NowMicros()), body)
		return innerErr
	})

	w.Header().Set("Content-Type", "application/json")
	if txErr != nil {
		failed = true
		if rerr, ok := txErr.(*reducer.Error); ok {
			category = string(rerr.Category)
			status := http.StatusBadRequest
			if rerr.Category == reducer.CategoryInternal {
				status = http.StatusInternalServerError
			}
			w.WriteHeader(status)
		} else {
			w.WriteHeader(http.StatusInternalServerError)
		}
		_ = json.NewEncoder(w).Encode(reducerResponse{Error: txErr.Error()})
	} else {
		_ = json.NewEncoder(w).Encode(reducerResponse{Result: result})
	}

	s.metrics.ObserveReducer(name, category, time.Since(started), failed)
}
