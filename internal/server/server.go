package server

import (
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/api/handler"
	"github.com/SilverCrocus/slack-pr-bot/internal/logger"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
	"github.com/SilverCrocus/slack-pr-bot/internal/verify"
)

type Config struct {
	Host            string        `yaml:"host" env:"HTTP_HOST" env-default:"0.0.0.0"`
	Port            int           `yaml:"port" env:"HTTP_PORT" env-default:"5001"`
	Timeout         time.Duration `yaml:"timeout" env:"HTTP_TIMEOUT" env-default:"10s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"HTTP_SHUTDOWN_TIMEOUT" env-default:"15s"`
}

type Verifiers struct {
	Slack  verify.Verifier
	GitHub verify.Verifier
}

func NewRouter(
	svc handler.ReviewService,
	ids team.IdentityMap,
	verifiers Verifiers,
	log *zap.Logger,
	cfgLogger *logger.Config,
	srvTimeout time.Duration,
) *chi.Mux {
	router := chi.NewRouter()

	router.Use(middleware.RequestID)
	router.Use(middleware.RealIP)
	router.Use(logger.MiddlewareLogger(log, cfgLogger))
	router.Use(middleware.Recoverer)

	router.Get("/", handler.Home())
	router.Get("/healthz", handler.Health())
	router.Get("/team", handler.GetTeam(svc, log))
	router.Post("/review-requests", handler.CreateReviewRequest(svc, srvTimeout, log))

	router.With(verify.Middleware(verifiers.GitHub, log)).
		Post("/github/webhook", handler.GitHubWebhook(svc, ids, srvTimeout, log))

	router.Group(func(r chi.Router) {
		r.Use(verify.Middleware(verifiers.Slack, log))

		r.Post("/slack/events", handler.SlackEvents(svc, srvTimeout, log))
		r.Post("/slack/commands", handler.SlackCommand(svc, srvTimeout, log))
	})

	return router
}
