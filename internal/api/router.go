package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/redis/go-redis/v9"

	"github.com/hackgods/slot-scheduling-service/internal/slot"
)

type RouterConfig struct {
	Service        *slot.Service
	PgPool         *pgxpool.Pool
	Redis          *redis.Client
	Env            string
	Version        string
	RateLimitRPS   float64
	RateLimitBurst int
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(RequestIDMiddleware)
	r.Use(LoggingMiddleware)
	if cfg.RateLimitRPS > 0 {
		r.Use(RateLimitMiddleware(cfg.RateLimitRPS, cfg.RateLimitBurst))
	}

	health := NewHealthHandler(cfg.PgPool, cfg.Redis, cfg.Env, cfg.Version)
	r.Get("/health/live", health.Liveness)
	r.Get("/health/ready", health.Readiness)

	r.Post("/slots", createSlotHandler(cfg.Service))
	r.Get("/slots", listSlotsHandler(cfg.Service))
	r.Get("/slots/{id}", getSlotHandler(cfg.Service))
	r.Post("/slots/{id}/reserve", reserveSlotHandler(cfg.Service))
	r.Post("/slots/{id}/confirm", confirmSlotHandler(cfg.Service))
	r.Post("/slots/{id}/cancel", cancelSlotHandler(cfg.Service))

	r.Get("/appointments", listAppointmentsHandler(cfg.Service))
	r.Get("/appointments/{id}", getAppointmentHandler(cfg.Service))

	return r
}
