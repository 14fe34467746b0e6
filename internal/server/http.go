package server

import (
	"context"
	"net/http"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/config"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/logging"
	"github.com/skandaka/neuravia-adaptive-cognitive-test/internal/session"
)

// NewHTTPServer wires base routes (health, metrics) plus the session API.
func NewHTTPServer(cfg *config.App, logger zerolog.Logger, pool *pgxpool.Pool, redis *redis.Client, sessions *session.HTTPHandlers) *http.Server {
	mux := http.NewServeMux()

	mux.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	mux.Handle("/metrics", promhttp.Handler())

	mux.HandleFunc("/v1/ping", func(w http.ResponseWriter, r *http.Request) {
		ctx := logging.IntoContext(r.Context(), logger)
		if err := pingDependencies(ctx, pool, redis); err != nil {
			logger.Error().Err(err).Msg("dependency ping failed")
			http.Error(w, "upstream error", http.StatusBadGateway)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"pong":true}`))
	})

	mux.HandleFunc("POST /v1/sessions", sessions.Start)
	mux.HandleFunc("GET /v1/sessions/{id}/next", sessions.Next)
	mux.HandleFunc("POST /v1/sessions/{id}/responses", sessions.Submit)
	mux.HandleFunc("GET /v1/sessions/{id}/summary", sessions.Summary)
	mux.HandleFunc("POST /v1/sessions/{id}/finish", sessions.Finish)

	return &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: mux,
	}
}

func pingDependencies(ctx context.Context, pool *pgxpool.Pool, redis *redis.Client) error {
	if err := pool.Ping(ctx); err != nil {
		return err
	}
	if err := redis.Ping(ctx).Err(); err != nil {
		return err
	}
	return nil
}
