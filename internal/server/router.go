package server

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/invalder/OpenDGAi/internal/metrics"
)

// RouterDependencies collects handler dependencies.
type RouterDependencies struct {
	Health           HealthService
	API              *APIHandlers
	Metrics          *metrics.Metrics
	ExposeMetrics    bool
	AllowedOrigins   []string
	AllowCredentials bool
}

// NewRouter wires the HTTP routes exposed by the backend API.
func NewRouter(logger *slog.Logger, deps RouterDependencies) http.Handler {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusNotFound, "route not found")
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	})

	r.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		status := http.StatusOK
		payload := map[string]any{
			"status": "ok",
		}

		if deps.Health != nil {
			if err := deps.Health.Probe(ctx); err != nil {
				logger.Error("health probe failed", "error", err)
				status = http.StatusServiceUnavailable
				payload["status"] = "degraded"
				payload["error"] = err.Error()
			}
		}

		respondJSON(w, status, payload)
	}).Methods(http.MethodGet)

	if deps.ExposeMetrics && deps.Metrics != nil {
		r.Handle("/metrics", deps.Metrics.Handler()).Methods(http.MethodGet)
	}

	if api := deps.API; api != nil {
		r.HandleFunc("/datasets", api.listDatasets).Methods(http.MethodGet)
		r.HandleFunc("/datasets", api.createDataset).Methods(http.MethodPost)
		r.HandleFunc("/datasets/{id}", api.getDataset).Methods(http.MethodGet)
		r.HandleFunc("/datasets/{id}", api.updateDataset).Methods(http.MethodPatch)
		r.HandleFunc("/datasets/{id}", api.deleteDataset).Methods(http.MethodDelete)
		r.HandleFunc("/datasets/{id}/scans", api.triggerScan).Methods(http.MethodPost)
		r.HandleFunc("/datasets/{id}/scans/latest", api.latestScan).Methods(http.MethodGet)

		r.HandleFunc("/catalog/search", api.searchCatalog).Methods(http.MethodGet)
		r.HandleFunc("/catalog/import", api.importPackage).Methods(http.MethodPost)
		r.HandleFunc("/catalog/sync", api.syncCatalog).Methods(http.MethodPost)

		r.HandleFunc("/pdpa/score", api.scoreRecords).Methods(http.MethodPost)
		r.HandleFunc("/pdpa/national-id/{id}", api.validateNationalID).Methods(http.MethodGet)
		r.HandleFunc("/pdpa/metadata", api.suggestMetadata).Methods(http.MethodPost)
		r.HandleFunc("/pdpa/profiles", api.listProfiles).Methods(http.MethodGet)
	}

	r.Use(instrumentationMiddleware(logger, deps.Metrics))

	handler := http.Handler(r)
	if len(deps.AllowedOrigins) > 0 {
		handler = cors.New(cors.Options{
			AllowedOrigins:   deps.AllowedOrigins,
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Content-Type", "Authorization", userHeader},
			AllowCredentials: deps.AllowCredentials,
		}).Handler(handler)
	}
	return handler
}

// instrumentationMiddleware logs every matched request and records it under
// its route template so path parameters do not explode label cardinality.
func instrumentationMiddleware(logger *slog.Logger, m *metrics.Metrics) mux.MiddlewareFunc {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			rec := &responseRecorder{ResponseWriter: w, status: http.StatusOK}
			next.ServeHTTP(rec, r)

			route := r.URL.Path
			if current := mux.CurrentRoute(r); current != nil {
				if tmpl, err := current.GetPathTemplate(); err == nil {
					route = tmpl
				}
			}
			elapsed := time.Since(start)
			m.ObserveHTTPRequest(r.Method, route, rec.status, elapsed)
			logger.Info("request completed",
				"method", r.Method,
				"path", r.URL.Path,
				"route", route,
				"status", rec.status,
				"duration_ms", elapsed.Milliseconds(),
			)
		})
	}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(data)
}

type responseRecorder struct {
	http.ResponseWriter
	status int
}

func (r *responseRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}
