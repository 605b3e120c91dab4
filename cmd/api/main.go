package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/vistahr/stayhub/internal/config"
	"github.com/vistahr/stayhub/internal/db"
	"github.com/vistahr/stayhub/internal/geocode"
	"github.com/vistahr/stayhub/internal/geodata"
	httpx "github.com/vistahr/stayhub/internal/http"
	"github.com/vistahr/stayhub/internal/observability"
)

func main() {
	// .env is optional; real deployments set the environment directly
	_ = godotenv.Load()

	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	// tracing

	shutdownTracer, err := observability.InitTracer(context.Background(), "stayhub-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Warn("tracer init failed, continuing without traces", "err", err)
		shutdownTracer = func(context.Context) error { return nil }
	}

	// metrics registry shared by the router and the geocode client

	reg := prometheus.NewRegistry()
	prom := observability.NewProm(reg)

	// database

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("database unreachable", "err", err)
		os.Exit(1)
	}

	defer pool.Close()

	// reference data + geocode cache

	dir := geodata.New(cfg.BarangayDataPath, log)

	var store geocode.Store

	if cfg.RedisAddr != "" {
		redisStore := geocode.NewRedisStore(geocode.RedisConfig{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, cfg.GeocodeTTL, log)

		pingCtx, cancel := config.WithTimeout(2 * time.Second)
		err = redisStore.Ping(pingCtx)
		cancel()

		if err != nil {
			log.Error("redis unreachable", "err", err)
			os.Exit(1)
		}

		defer redisStore.Close()

		store = redisStore
		log.Info("geocode cache on redis", "addr", cfg.RedisAddr)
	} else {
		store = geocode.NewMemoryStore(cfg.GeocodeTTL)
	}

	geocoder := geocode.NewClient(geocode.Options{
		BaseURL:   cfg.GeocodeBaseURL,
		UserAgent: cfg.GeocodeUserAgent,
		HTTPC:     &http.Client{Timeout: cfg.GeocodeTimeout},
		Store:     store,
		Log:       log,
		Upstream:  prom.GeocodeUpstreamTotal,
	})

	router := httpx.NewRouter(log, pool, cfg, dir, geocoder, prom, reg)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      15 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port, "env", cfg.Env)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}

		_ = shutdownTracer(ctx)
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
