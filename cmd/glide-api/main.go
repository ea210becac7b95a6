// README: Entry point; loads config, wires services, starts HTTP server and the sweeper.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"glide/internal/config"
	httptransport "glide/internal/http"
	"glide/internal/infra"
	"glide/internal/logging"
	"glide/internal/modules/driver"
	"glide/internal/modules/pairing"
	"glide/internal/modules/ride"
	"glide/internal/pricing"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		os.Exit(1)
	}
	log := logging.NewLogger(cfg.LogLevel)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	dbPool, err := infra.NewDB(ctx, cfg.DB.DSN)
	if err != nil {
		log.Error("db init failed", "error", err)
		os.Exit(1)
	}
	defer dbPool.Close()

	redisClient := infra.NewRedis(cfg.Redis.Addr)
	defer func() { _ = redisClient.Close() }()

	calc := pricing.NewCalculator(cfg.Fare.BaseFare, cfg.Fare.PerKmRate, cfg.Fare.MinFare)

	driverStore := driver.NewPGStore(dbPool, redisClient)
	driverSvc := driver.NewService(driverStore, log)

	pairingStore := pairing.NewPGStore(dbPool)
	pairingSvc := pairing.NewService(pairingStore, cfg.PairingTTL, log)

	rideStore := ride.NewPGStore(dbPool)
	rideSvc := ride.NewService(rideStore, driverSvc, pairingSvc, calc, cfg, log)

	handler := httptransport.NewRouter(httptransport.ServerDeps{
		Rides:    rideSvc,
		Drivers:  driverSvc,
		Pairings: pairingSvc,
		Dispatch: cfg.Dispatch,
		Log:      log,
	})

	server := &http.Server{Addr: cfg.HTTP.Addr, Handler: handler}

	go rideSvc.RunSweeper(ctx)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	log.Info("listening", "addr", cfg.HTTP.Addr)
	if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Error("server stopped", "error", err)
		os.Exit(1)
	}
}
