package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/caiorodrigo10/Operabase-sub001/internal/server"
	"github.com/caiorodrigo10/Operabase-sub001/modules"
	"github.com/caiorodrigo10/Operabase-sub001/modules/messaging/services"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/application"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/composables"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/configuration"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/eventbus"
	"github.com/caiorodrigo10/Operabase-sub001/pkg/metrics"
)

func main() {
	defer func() {
		if r := recover(); r != nil {
			configuration.Use().Unload()
			log.Println(r)
			debug.PrintStack()
			os.Exit(1)
		}
	}()

	conf := configuration.Use()
	logger := conf.Logger()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second*5)
	pool, err := pgxpool.New(ctx, conf.Database.Opts)
	cancel()
	if err != nil {
		panic(err)
	}
	defer pool.Close()

	app := application.New(&application.ApplicationOptions{
		Pool:     pool,
		EventBus: eventbus.NewEventPublisher(logger),
		Logger:   logger,
	})
	if err := modules.Load(app, modules.BuiltInModules...); err != nil {
		log.Fatalf("failed to load modules: %v", err)
	}
	if conf.Prometheus.Enabled {
		app.RegisterControllers(metrics.NewPrometheusController(conf.Prometheus.Path))
	}

	migrateCtx, cancelMigrate := context.WithTimeout(context.Background(), time.Minute)
	err = app.Migrations().Run(migrateCtx, conf.Database.Opts)
	cancelMigrate()
	if err != nil {
		log.Fatalf("failed to run migrations: %v", err)
	}

	// The reaper shares the process lifetime and carries the pool in its
	// context so repository calls resolve a connection.
	reaperCtx, stopReaper := context.WithCancel(composables.WithPool(context.Background(), pool))
	reaper := app.Service(&services.PauseReaper{}).(*services.PauseReaper)
	go func() {
		if err := reaper.Run(reaperCtx); err != nil && reaperCtx.Err() == nil {
			logger.WithError(err).Error("pause reaper stopped unexpectedly")
		}
	}()

	options := &server.DefaultOptions{
		Logger:        logger,
		Configuration: conf,
		Application:   app,
		Pool:          pool,
	}
	serverInstance, err := server.Default(options)
	if err != nil {
		log.Fatalf("failed to create server: %v", err)
	}

	go func() {
		log.Printf("Listening on: %s\n", conf.Origin)
		if err := serverInstance.Start(conf.SocketAddress); err != nil {
			logger.WithError(err).Info("http server stopped")
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Println("shutting down")
	shutdownCtx, cancelShutdown := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancelShutdown()

	if err := serverInstance.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("http server shutdown failed")
	}
	stopReaper()

	delivery := app.Service(&services.DeliveryService{}).(*services.DeliveryService)
	if err := delivery.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("dispatch pool shutdown failed")
	}
	enrichment := app.Service(&services.EnrichmentService{}).(*services.EnrichmentService)
	if err := enrichment.Shutdown(shutdownCtx); err != nil {
		logger.WithError(err).Warn("enrichment pool shutdown failed")
	}

	configuration.Use().Unload()
}
