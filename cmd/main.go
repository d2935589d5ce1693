package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"rentcard_service/internal/communications"
	"rentcard_service/internal/config"
	"rentcard_service/internal/http_server/handlers/communication/send"
	"rentcard_service/internal/http_server/handlers/crud"
	"rentcard_service/internal/http_server/handlers/health"
	"rentcard_service/internal/http_server/handlers/verify/request"
	"rentcard_service/internal/http_server/handlers/verify/submit"
	validateToken "rentcard_service/internal/http_server/handlers/verify/validate"
	"rentcard_service/internal/lib/jwt"
	"rentcard_service/internal/lib/logger/sl"
	"rentcard_service/internal/metrics"
	"rentcard_service/internal/middleware/auth"
	rateLimit "rentcard_service/internal/middleware/ratelimit"
	"rentcard_service/internal/models"
	"rentcard_service/internal/rabbitmq"
	"rentcard_service/internal/references"
	"rentcard_service/internal/resource"
	"rentcard_service/internal/storage/postgres"
	"rentcard_service/internal/storage/redis"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"
)

const (
	envLocal = "local"
	envDev   = "dev"
	envProd  = "prod"
)

type services struct {
	references     *references.References
	communications *communications.Communications
	tenantRefs     *resource.Service[models.TenantReference]
	tenantMessages *resource.Service[models.TenantMessageTemplate]
	contacts       *resource.Service[models.RecipientContact]
	templates      *resource.Service[models.CommunicationTemplate]
	logs           *resource.Service[models.CommunicationLog]
}

func main() {
	_ = godotenv.Load()

	cfg := config.MustLoad(config.Path("./config/config.yaml"))

	log := setupLogger(cfg.Env)

	log.Info("starting rentcard service", slog.String("env", cfg.Env))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pg, err := postgres.New(ctx, cfg)
	if err != nil {
		log.Error("failed to connect postgres", sl.Err(err))
		os.Exit(1)
	}
	defer pg.Close()

	cache, err := redis.New(ctx, cfg.Redis.Address, cfg.Redis.Password, cfg.Redis.DB)
	if err != nil {
		log.Error("failed to connect redis", sl.Err(err))
		os.Exit(1)
	}
	defer cache.Close()

	msgBroker, err := rabbitmq.New(cfg.RabbitMQ.URL, cfg.RabbitMQ.QueueName)
	if err != nil {
		log.Error("failed to connect rabbitmq", sl.Err(err))
		os.Exit(1)
	}
	defer msgBroker.Close()

	contacts := resource.New[models.RecipientContact](log, postgres.NewResourceRepo[models.RecipientContact](pg))
	templates := resource.New[models.CommunicationTemplate](log, postgres.NewResourceRepo[models.CommunicationTemplate](pg))
	logs := resource.New[models.CommunicationLog](log, postgres.NewResourceRepo[models.CommunicationLog](pg))

	svc := services{
		references: references.New(
			log,
			pg,
			pg,
			cache,
			msgBroker,
			cfg.Tokens.VerificationTokenSecret,
			cfg.Tokens.VerificationTokenTTL,
			cfg.App.PublicURL,
		),
		communications: communications.New(log, contacts, templates, logs, msgBroker, cfg.SMS.Enabled),
		tenantRefs:     resource.New[models.TenantReference](log, postgres.NewResourceRepo[models.TenantReference](pg)),
		tenantMessages: resource.New[models.TenantMessageTemplate](log, postgres.NewResourceRepo[models.TenantMessageTemplate](pg)),
		contacts:       contacts,
		templates:      templates,
		logs:           logs,
	}

	router := setupRouter(log, cfg, svc, pg, cache)

	srv := &http.Server{
		Addr:         cfg.HTTPServer.Address,
		Handler:      router,
		ReadTimeout:  cfg.HTTPServer.Timeout,
		WriteTimeout: cfg.HTTPServer.Timeout,
		IdleTimeout:  cfg.HTTPServer.IdleTimeout,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("HTTP server is running", slog.String("address", cfg.HTTPServer.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		log.Info("Shutting down HTTP server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil {
		log.Error("server stopped with error", sl.Err(err))
	} else {
		log.Info("Server stopped gracefully")
	}
}

func setupRouter(
	log *slog.Logger,
	cfg *config.Config,
	svc services,
	pg *postgres.PostgresRepo,
	cache *redis.RedisRepo,
) *chi.Mux {
	validate := validator.New()

	limit := func(l func() func(http.Handler) http.Handler) func(http.Handler) http.Handler {
		if !cfg.RateLimit.Enabled {
			return rateLimit.Disabled()
		}
		return l()
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(metrics.Middleware)

	r.Get("/healthz", health.New(log, pg, cache))
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api", func(r chi.Router) {
		r.With(limit(rateLimit.ValidateToken)).
			Get("/tenant-references/verify/validate/{token}", validateToken.New(log, svc.references))
		r.With(limit(rateLimit.SubmitVerification)).
			Post("/tenant-references/verify/submit/{token}", submit.New(log, validate, svc.references))

		r.Group(func(r chi.Router) {
			r.Use(auth.New(log, cfg.Tokens.AccessTokenSecret))

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(jwt.RoleTenant))

				r.Route("/tenant-references", func(r chi.Router) {
					r.Get("/", crud.List[models.TenantReference](log, svc.tenantRefs))
					r.Post("/", crud.Create[models.TenantReference](log, validate, svc.tenantRefs))
					r.Put("/{id}", crud.Update[models.TenantReference](log, validate, svc.tenantRefs))
					r.Delete("/{id}", crud.Delete[models.TenantReference](log, svc.tenantRefs))
					r.With(limit(rateLimit.RequestVerification)).
						Post("/{id}/request-verification", request.New(log, svc.references))
				})

				r.Route("/tenant-message-templates", func(r chi.Router) {
					mountCRUD(r, log, validate, svc.tenantMessages)
					r.Post("/{id}/use", crud.Use[models.TenantMessageTemplate](log, svc.tenantMessages))
				})
			})

			r.Group(func(r chi.Router) {
				r.Use(auth.RequireRole(jwt.RoleLandlord))

				r.Route("/contacts", func(r chi.Router) {
					mountCRUD(r, log, validate, svc.contacts)
				})

				r.Route("/communication-templates", func(r chi.Router) {
					mountCRUD(r, log, validate, svc.templates)
					r.Post("/{id}/use", crud.Use[models.CommunicationTemplate](log, svc.templates))
				})

				r.Route("/communication-logs", func(r chi.Router) {
					r.Get("/", crud.List[models.CommunicationLog](log, svc.logs))
					r.Delete("/{id}", crud.Delete[models.CommunicationLog](log, svc.logs))
					r.With(limit(rateLimit.SendCommunication)).
						Post("/send", send.New(log, validate, svc.communications))
				})
			})
		})
	})

	return r
}

func mountCRUD[T models.Resource](r chi.Router, log *slog.Logger, validate *validator.Validate, svc crud.Service[T]) {
	r.Get("/", crud.List[T](log, svc))
	r.Post("/", crud.Create[T](log, validate, svc))
	r.Put("/{id}", crud.Update[T](log, validate, svc))
	r.Delete("/{id}", crud.Delete[T](log, svc))
}

func setupLogger(env string) *slog.Logger {
	var log *slog.Logger

	switch env {
	case envLocal:
		log = slog.New(
			slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envDev:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}),
		)
	case envProd:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
	default:
		log = slog.New(
			slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo}),
		)
		log.Warn("unknown env, using prod logger", slog.String("env", env))
	}

	return log
}
