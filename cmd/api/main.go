package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"bankroll/internal/config"
	"bankroll/internal/database"
	"bankroll/internal/events"
	"bankroll/internal/logger"
	"bankroll/internal/metrics"
	"bankroll/internal/mirror"
	"bankroll/internal/router"
	"bankroll/internal/services"
	"bankroll/internal/validator"
)

// @title           Bankroll API
// @version         1.0
// @description     Bankroll tracks poker session results for groups of players: balances, running totals, rankings and an audit history.

// @host      localhost:8080
// @BasePath  /api/v1

// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the identity token.

func main() {
	logger.Init(os.Getenv("ENV"))
	defer logger.Sync()

	if err := run(); err != nil {
		logger.Get().Fatalf("Fatal error: %v", err)
	}
}

func run() error {
	log := logger.Get()

	appConfig, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbManager, err := database.NewManager(ctx, database.NewConfig(appConfig))
	if err != nil {
		return fmt.Errorf("failed to create database manager: %w", err)
	}
	defer func() {
		if err := dbManager.Close(); err != nil {
			log.Warnf("database close error: %v", err)
		}
	}()

	if err := dbManager.RunMigrations(ctx); err != nil {
		return fmt.Errorf("failed to run database migrations: %w", err)
	}

	m := metrics.New()
	st := dbManager.Store()
	registry := mirror.NewRegistry(st, m)

	var publisher events.Publisher = events.Nop{}
	if appConfig.NATSURL != "" {
		bus, err := events.Connect(appConfig.NATSURL, appConfig.NATSToken)
		if err != nil {
			return fmt.Errorf("failed to connect to NATS: %w", err)
		}
		defer bus.Close()

		if _, err := bus.SubscribeGroupChanged(func(ev events.GroupChanged) {
			registry.Invalidate(ev.GroupID)
		}); err != nil {
			return fmt.Errorf("failed to subscribe to group changes: %w", err)
		}
		publisher = bus
		log.Infow("Group change events enabled", "url", appConfig.NATSURL, "origin", bus.Origin())
	}

	svc := services.New(services.Deps{
		Store:       st,
		Mirror:      registry,
		Events:      publisher,
		Metrics:     m,
		Location:    appConfig.Location,
		DefaultTopN: appConfig.RankingTopNDefault,
	})

	validator.Register()

	srv := &http.Server{
		Addr: ":" + appConfig.Port,
		Handler: router.New(router.Options{
			Services:    svc,
			Store:       st,
			Metrics:     m,
			CORSOrigins: appConfig.CORSOrigins,
		}),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Infof("Starting bankroll server on port %s", appConfig.Port)
		log.Infof("Swagger documentation available at http://localhost:%s/swagger/index.html", appConfig.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	log.Info("Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
