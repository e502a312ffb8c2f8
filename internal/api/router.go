package api

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/pprof"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/emberreach/worldsim/internal/sim"
	"github.com/emberreach/worldsim/internal/sim/events"
)

// ManagerInterface defines the EngineManager methods the API layer calls.
// Keeping this minimal and interface-typed, rather than depending on
// *manager.Manager directly, lets tests substitute a fake without driving
// a real WorldLoop (mirrors the teacher's EngineInterface in router.go).
type ManagerInterface interface {
	StatusCode() int // 0=Stopped 1=Running 2=Paused, see manager.Status
	StatusString() string
	Snapshot() *sim.Snapshot
	EventsSince(tick int64) []events.Event
	Start() error
	Pause() error
	Resume() error
	Step() error
	Reset() error
	SetTPS(n int)
	ClearEvents()
	LastError() error
}

// RouterConfig bundles the dependencies the debug router needs.
type RouterConfig struct {
	Manager        ManagerInterface
	CORSOrigins    []string
	DisableLogging bool
}

// NewRouter constructs the debug/observability HTTP router. It is pure —
// it starts no goroutines and opens no listeners — so it is safe to use
// with httptest.NewServer in tests, the same contract the teacher's
// NewRouter documents.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	if !cfg.DisableLogging {
		r.Use(middleware.Logger)
	}
	r.Use(middleware.Recoverer)

	origins := cfg.CORSOrigins
	if origins == nil {
		origins = []string{"http://localhost:*", "http://127.0.0.1:*"}
	}
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: origins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"*"},
	}))

	h := &handlers{mgr: cfg.Manager}

	r.Get("/healthz", h.handleHealthz)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.Get("/snapshot", h.handleGetSnapshot)
		r.Get("/events", h.handleGetEvents)
		r.Get("/status", h.handleGetStatus)

		r.Route("/control", func(r chi.Router) {
			r.Post("/start", h.handleControl(func() error { return cfg.Manager.Start() }))
			r.Post("/pause", h.handleControl(func() error { return cfg.Manager.Pause() }))
			r.Post("/resume", h.handleControl(func() error { return cfg.Manager.Resume() }))
			r.Post("/step", h.handleControl(func() error { return cfg.Manager.Step() }))
			r.Post("/reset", h.handleControl(func() error { return cfg.Manager.Reset() }))
			r.Post("/clear-events", h.handleControl(func() error { cfg.Manager.ClearEvents(); return nil }))
		})
	})

	// Profiling endpoints for local debugging only; never exposed beyond
	// the operator's own loopback by deployment convention.
	r.HandleFunc("/debug/pprof/*", pprof.Index)
	r.HandleFunc("/debug/pprof/cmdline", pprof.Cmdline)
	r.HandleFunc("/debug/pprof/profile", pprof.Profile)
	r.HandleFunc("/debug/pprof/symbol", pprof.Symbol)
	r.HandleFunc("/debug/pprof/trace", pprof.Trace)

	return r
}

type handlers struct {
	mgr ManagerInterface
}

func (h *handlers) handleHealthz(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (h *handlers) handleGetStatus(w http.ResponseWriter, r *http.Request) {
	resp := map[string]any{"status": h.mgr.StatusString()}
	if err := h.mgr.LastError(); err != nil {
		resp["last_error"] = err.Error()
	}
	writeJSON(w, resp)
}

// snapshotDTO is the JSON-facing projection of sim.Snapshot: entities only,
// since the full Snapshot carries unexported grid internals not meant for
// wire serialization.
type snapshotDTO struct {
	Tick     int64           `json:"tick"`
	Seed     int64           `json:"seed"`
	Entities []entitySummary `json:"entities"`
}

type entitySummary struct {
	ID      int64   `json:"id"`
	Kind    string  `json:"kind"`
	Faction string  `json:"faction"`
	Pos     sim.Pos `json:"pos"`
	HP      int     `json:"hp"`
	MaxHP   int     `json:"max_hp"`
	Level   int     `json:"level"`
	AIState string  `json:"ai_state"`
	Alive   bool    `json:"alive"`
}

func (h *handlers) handleGetSnapshot(w http.ResponseWriter, r *http.Request) {
	snap := h.mgr.Snapshot()
	if snap == nil {
		http.Error(w, "no world built yet", http.StatusServiceUnavailable)
		return
	}
	dto := snapshotDTO{Tick: snap.Tick, Seed: snap.Seed, Entities: make([]entitySummary, 0, len(snap.Entities))}
	for _, e := range snap.Entities {
		dto.Entities = append(dto.Entities, entitySummary{
			ID: e.ID, Kind: e.Kind, Faction: e.Faction, Pos: e.Pos,
			HP: e.Base.HP, MaxHP: e.Base.MaxHP, Level: e.Base.Level,
			AIState: e.AIState.String(), Alive: e.Alive,
		})
	}
	writeJSON(w, dto)
}

func (h *handlers) handleGetEvents(w http.ResponseWriter, r *http.Request) {
	var since int64
	if v := r.URL.Query().Get("since"); v != "" {
		if _, err := fmt.Sscan(v, &since); err != nil {
			http.Error(w, "invalid since parameter", http.StatusBadRequest)
			return
		}
	}
	writeJSON(w, h.mgr.EventsSince(since))
}

func (h *handlers) handleControl(fn func() error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := fn(); err != nil {
			http.Error(w, err.Error(), http.StatusConflict)
			return
		}
		writeJSON(w, map[string]string{"status": h.mgr.StatusString()})
	}
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}
