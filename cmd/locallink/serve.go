package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"locallink/internal/db"
	"locallink/internal/identity"
	"locallink/internal/lifecycle"
	"locallink/internal/ratelimit"
	"locallink/internal/server"
	"locallink/internal/store"

	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

var serveCommand = &cli.Command{
	Name:   "serve",
	Usage:  "Start the HTTP server",
	Action: serve,
}

func serve(cCtx *cli.Context) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := logrus.New()
	logger.SetFormatter(&logrus.JSONFormatter{})

	config, err := loadConfig()
	if err != nil {
		return err
	}

	pool, err := db.Connect(ctx, config)
	if err != nil {
		return err
	}
	defer pool.Close()

	changeFeed := store.NewChangeFeed(logger)
	postsRepo := store.NewPostRepository(pool, changeFeed)
	reportsRepo := store.NewReportRepository(pool)

	engine := lifecycle.NewEngine(logger, postsRepo, reportsRepo)
	limiter := ratelimit.NewLimiter(config.RateLimitPerHour, time.Hour)

	devices, err := identity.NewProvider(config)
	if err != nil {
		return err
	}

	srv, err := server.New(
		config,
		logger,
		pool,
		postsRepo,
		changeFeed,
		engine,
		limiter,
		devices,
	)
	if err != nil {
		return err
	}

	go func() {
		logger.WithField("port", config.ServerPort).Infof("server starting http://localhost:%d", config.ServerPort)
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.WithError(err).Fatal("server failed")
		}
	}()

	<-ctx.Done()
	logger.Info("shutdown signal received")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return srv.Stop(shutdownCtx)
}
