package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"rentcard_service/internal/lib/logger/sl"

	"github.com/go-chi/render"
)

type Pinger interface {
	Ping(ctx context.Context) error
}

type Response struct {
	Status   string `json:"status"`
	Postgres string `json:"postgres"`
	Redis    string `json:"redis"`
}

func New(log *slog.Logger, postgres, redis Pinger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		const op = "handlers.health.New"

		log := log.With(slog.String("op", op))

		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()

		res := Response{Status: "ok", Postgres: "ok", Redis: "ok"}

		if err := postgres.Ping(ctx); err != nil {
			log.Warn("postgres ping failed", sl.Err(err))
			res.Status, res.Postgres = "degraded", "down"
		}

		if err := redis.Ping(ctx); err != nil {
			log.Warn("redis ping failed", sl.Err(err))
			res.Status, res.Redis = "degraded", "down"
		}

		if res.Status != "ok" {
			render.Status(r, http.StatusServiceUnavailable)
		}

		render.JSON(w, r, res)
	}
}
