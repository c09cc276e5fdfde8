package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/theorangealliance/streamline-control/internal/assets"
	"github.com/theorangealliance/streamline-control/internal/observability"
	"github.com/theorangealliance/streamline-control/internal/storage"
)

// AppPath is the canonical entry point that / redirects to.
const AppPath = "/app"

// StatusStore is the slice of the local database the status route reads.
type StatusStore interface {
	GetSchemaVersion() (uint64, error)
	InstalledAt() (time.Time, error)
	LastRun() (*storage.RunRecord, error)
}

// StatusResponse is returned by GET /api/status
type StatusResponse struct {
	Version       string    `json:"version"`
	Address       string    `json:"address"`
	SchemaVersion uint64    `json:"schema_version"`
	InstalledAt   time.Time `json:"installed_at"`
	UpgradedFrom  string    `json:"upgraded_from,omitempty"`
	RunID         string    `json:"run_id"`
	StartedAt     time.Time `json:"started_at"`
	Uptime        string    `json:"uptime"`
}

// Router holds what the route handlers need.
type Router struct {
	Logger  *zap.SugaredLogger
	Assets  assets.Provider
	Store   StatusStore
	Version string
	Metrics *observability.MetricsManager
	Health  *observability.HealthManager

	// UpgradedFrom is the version that last ran against the database, when
	// it differs from Version.
	UpgradedFrom string
}

// Handler builds the route table.
func (rt *Router) Handler() http.Handler {
	r := chi.NewRouter()

	if rt.Metrics != nil {
		r.Use(rt.Metrics.HTTPMiddleware())
	}
	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware(rt.Logger))
	r.Use(middleware.Recoverer)

	r.Get("/", func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, AppPath, http.StatusFound)
	})
	r.Get(AppPath, rt.handleIndex)
	r.Get(AppPath+"/*", rt.handleIndex)
	r.Get("/static/*", rt.handleAsset(assets.Static))
	r.Get("/dist/*", rt.handleAsset(assets.Dist))
	r.Get("/hello/{name}", handleHello)
	r.Get("/api/status", rt.handleStatus)

	if rt.Health != nil {
		r.Get("/healthz", rt.Health.HealthzHandler())
	}
	if rt.Metrics != nil {
		r.Handle("/metrics", rt.Metrics.Handler())
	}

	return r
}

func (rt *Router) handleIndex(w http.ResponseWriter, _ *http.Request) {
	data, ok := assets.Index(rt.Assets)
	if !ok {
		http.Error(w, "Not Found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", assets.ContentType(assets.IndexFile))
	w.Header().Set("Cache-Control", "no-cache")
	_, _ = w.Write(data)
}

func (rt *Router) handleAsset(ns assets.Namespace) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		name := chi.URLParam(r, "*")
		data, ok := rt.Assets.Lookup(ns, name)
		if !ok {
			GetLogger(r.Context()).Debugw("Asset not found", "namespace", ns, "path", name)
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", assets.ContentType(name))
		_, _ = w.Write(data)
	}
}

func handleHello(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	_, _ = fmt.Fprintf(w, "Hello, %s!", chi.URLParam(r, "name"))
}

func (rt *Router) handleStatus(w http.ResponseWriter, r *http.Request) {
	logger := GetLogger(r.Context())

	schema, err := rt.Store.GetSchemaVersion()
	if err != nil {
		logger.Errorw("Failed to read schema version", "error", err)
		rt.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
		return
	}

	installed, err := rt.Store.InstalledAt()
	if err != nil {
		logger.Errorw("Failed to read install time", "error", err)
		rt.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
		return
	}

	resp := StatusResponse{
		Version:       rt.Version,
		SchemaVersion: schema,
		InstalledAt:   installed,
		UpgradedFrom:  rt.UpgradedFrom,
	}
	run, err := rt.Store.LastRun()
	if err != nil {
		logger.Errorw("Failed to read last run", "error", err)
		rt.writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "database unavailable"})
		return
	}
	if run != nil {
		resp.Address = run.Address
		resp.RunID = run.ID
		resp.StartedAt = run.StartedAt
		resp.Uptime = time.Since(run.StartedAt).Truncate(time.Second).String()
	}

	rt.writeJSON(w, http.StatusOK, resp)
}

func (rt *Router) writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		rt.Logger.Errorw("Failed to encode JSON response", "error", err)
	}
}
