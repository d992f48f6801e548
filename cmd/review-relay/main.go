package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	stdlog "log"
	"net/http"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/SilverCrocus/slack-pr-bot/internal/config"
	"github.com/SilverCrocus/slack-pr-bot/internal/gateway/slack"
	"github.com/SilverCrocus/slack-pr-bot/internal/logger"
	"github.com/SilverCrocus/slack-pr-bot/internal/relay"
	"github.com/SilverCrocus/slack-pr-bot/internal/repository/memory"
	"github.com/SilverCrocus/slack-pr-bot/internal/server"
	"github.com/SilverCrocus/slack-pr-bot/internal/team"
	"github.com/SilverCrocus/slack-pr-bot/internal/verify"
)

func main() {
	ctx, cancel := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer cancel()

	// An empty path reads configuration from the environment and .env only.
	cfg, err := config.New(fetchConfigPath())
	if err != nil {
		stdlog.Fatalf("cannot initialize config: %v", err)
	}

	log, err := logger.New(&cfg.Logger)
	if err != nil {
		stdlog.Fatalf("cannot initialize logger: %v", err)
	}
	defer log.Sync()

	dir, err := team.FromConfig(&cfg.Team)
	if err != nil {
		log.Fatal("cannot initialize review team", zap.Error(err))
	}
	ids := team.NewIdentityMap(cfg.Team.IdentityMap)

	store := memory.New(log.Named("store"))
	gw := slack.New(&cfg.Slack, log.Named("slack"))
	svc := relay.New(cfg.Review, dir, gw, store, log.Named("relay"))

	verifiers := server.Verifiers{
		Slack:  verify.NewSlack(cfg.Verify.SlackSigningSecret, log),
		GitHub: verify.NewGitHub(cfg.Verify.GitHubWebhookSecret, log),
	}

	router := server.NewRouter(svc, ids, verifiers, log, &cfg.Logger, cfg.HTTP.Timeout)
	addr := fmt.Sprintf("%s:%d", cfg.HTTP.Host, cfg.HTTP.Port)

	srv := http.Server{
		Addr:    addr,
		Handler: router,
	}

	go func() {
		log.Info("starting http server",
			zap.String("addr", srv.Addr),
			zap.String("channel", cfg.Review.Channel),
			zap.Strings("team", dir.Names()))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("failed to start server", zap.Error(err))
			cancel()
		}
	}()

	<-ctx.Done()
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer shutdownCancel()

	log.Info("received shutdown signal")

	err = srv.Shutdown(shutdownCtx)
	if err != nil {
		log.Error("failed to shutdown server", zap.Error(err))
	}
	store.Close()

	log.Info("application shutdown completed successfully")
}

func fetchConfigPath() string {
	var path string

	flag.StringVar(&path, "config_path", "", "Path to the yaml config file")
	flag.Parse()

	return path
}
