// Command newsreader-server starts the newsreader JSON API.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/newsreader/internal/config"
	"github.com/and161185/newsreader/internal/limiter"
	"github.com/and161185/newsreader/internal/migrate"
	"github.com/and161185/newsreader/internal/repository/postgres"
	httpserver "github.com/and161185/newsreader/internal/server/http"
	"github.com/and161185/newsreader/internal/service"
)

var (
	version   = "dev"
	buildDate = "unknown"
)

// main loads configuration, runs migrations, and serves HTTP until SIGINT/SIGTERM.
func main() {
	cfg, err := config.Load(os.Args[1:], ".env")
	if err != nil {
		// logger depends on config; report on stderr
		_, _ = os.Stderr.WriteString("config: " + err.Error() + "\n")
		os.Exit(2)
	}

	logger := newLogger(cfg.LogLevel)
	defer func() { _ = logger.Sync() }()
	logger.Info("starting",
		zap.String("version", version),
		zap.String("buildDate", buildDate),
		zap.String("addr", cfg.Addr),
	)

	// Context with OS signals
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil {
		logger.Error("server error", zap.Error(err))
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}

func newLogger(level string) *zap.Logger {
	var (
		l   *zap.Logger
		err error
	)
	if level == "debug" {
		l, err = zap.NewDevelopment()
	} else {
		l, err = zap.NewProduction()
	}
	if err != nil {
		return zap.NewNop()
	}
	return l
}

func run(ctx context.Context, cfg *config.Config, logger *zap.Logger) error {
	if err := migrate.Up(ctx, cfg.DSN, logger); err != nil {
		return err
	}

	db, err := postgres.New(ctx, cfg.DSN)
	if err != nil {
		return err
	}
	defer db.Close()

	// Repositories
	userRepo := postgres.NewUserRepo(db)
	topicRepo := postgres.NewTopicRepo(db)
	trackingRepo := postgres.NewTrackingRepo(db)
	articleRepo := postgres.NewArticleRepo(db)

	lim := limiter.NewPG(db.Pool, cfg.AdminWindow, cfg.AdminMaxFails, cfg.AdminBlockFor)

	// Services
	svc := httpserver.Services{
		Users:    service.NewUserService(userRepo, topicRepo, trackingRepo, articleRepo, logger),
		Articles: service.NewArticleService(articleRepo, cfg.SaveRetries, logger),
		Tracking: service.NewTrackingService(trackingRepo),
		Admin:    service.NewAdminService(userRepo, topicRepo, trackingRepo, cfg.AdminKey, logger),
	}

	e := httpserver.New(svc, lim, db, logger).Echo()
	srv := &http.Server{Addr: cfg.Addr, Handler: e}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		logger.Info("listening", zap.String("addr", cfg.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		// graceful shutdown
		sctx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(sctx); err != nil {
			logger.Warn("forced shutdown", zap.Error(err))
			return srv.Close()
		}
		return nil
	})
	return g.Wait()
}
