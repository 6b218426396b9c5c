package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/geocoder89/eventprint/internal/auth"
	"github.com/geocoder89/eventprint/internal/config"
	"github.com/geocoder89/eventprint/internal/db"
	httpx "github.com/geocoder89/eventprint/internal/http"
	"github.com/geocoder89/eventprint/internal/http/handlers"
	"github.com/geocoder89/eventprint/internal/observability"
	"github.com/geocoder89/eventprint/internal/printer"
	"github.com/geocoder89/eventprint/internal/redisclient"
	"github.com/geocoder89/eventprint/internal/render"
	"github.com/geocoder89/eventprint/internal/render/assets"
	"github.com/geocoder89/eventprint/internal/render/placeholder"
	"github.com/geocoder89/eventprint/internal/repo/cached"
	"github.com/geocoder89/eventprint/internal/repo/postgres"
)

func main() {
	// Load the config set up
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)
	slog.SetDefault(log)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracer, err := observability.InitTracer(ctx, observability.TracerConfig{
		ServiceName: "eventprint-api",
		Env:         cfg.Env,
		Endpoint:    cfg.OTelEndpoint,
		SampleRatio: cfg.OTelSampleRatio,
	})
	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	prom := observability.NewProm(reg)

	pool, err := db.NewPool(ctx, cfg.DBURL, 10)
	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.Migrate(ctx, pool); err != nil {
		log.Error("db migrate failed", "err", err)
		os.Exit(1)
	}

	checks := map[string]handlers.Pinger{"postgres": pool.Ping}

	// templates: process memory first, then redis when configured
	cacheOpts := []cached.Option{cached.WithObserver(prom.ObserveCache), cached.WithLogger(log)}
	if cfg.RedisAddr != "" {
		rdb := redisclient.New(redisclient.Config{
			Addr:     cfg.RedisAddr,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
			Prefix:   cfg.RedisPrefix,
		})
		defer rdb.Close()

		checks["redis"] = rdb.Ping
		cacheOpts = append(cacheOpts, cached.WithRemote(rdb))
	}
	templates := cached.NewTemplates(postgres.NewTemplatesRepo(pool, prom), cfg.TemplateCacheTTL, cacheOpts...)

	fetchOpts := []assets.Option{assets.WithLogger(log), assets.WithObserver(prom.ObserveAsset)}
	if cfg.S3.Enabled() {
		s3src, err := assets.NewS3Source(ctx, assets.S3Config{
			Endpoint:     cfg.S3.Endpoint,
			Region:       cfg.S3.Region,
			AccessKey:    cfg.S3.AccessKey,
			SecretKey:    cfg.S3.SecretKey,
			UsePathStyle: cfg.S3.UsePathStyle,
		}, cfg.AssetMaxBytes)
		if err != nil {
			log.Error("s3 asset source failed", "err", err)
			os.Exit(1)
		}
		fetchOpts = append(fetchOpts, assets.WithS3(s3src))
	}
	fetcher := assets.NewFetcher(assets.NewHTTPSource(nil, cfg.AssetMaxBytes), assets.Config{
		Timeout:     cfg.AssetTimeout,
		MaxBytes:    cfg.AssetMaxBytes,
		Concurrency: cfg.AssetConcurrency,
	}, fetchOpts...)

	engine := render.NewEngine(render.Deps{
		Resolver: placeholder.New(placeholder.WithVerifyBaseURL(cfg.VerifyBaseURL)),
		Fetcher:  fetcher,
		Sender:   printer.NewProtectedSender(printer.NewTransport(cfg.PrinterTimeout), printer.ProtectedSenderConfig{}),
		Metrics:  prom,
		Log:      log,
	})

	router := httpx.NewRouter(cfg, httpx.Deps{
		Events:        postgres.NewEventsRepo(pool, prom),
		Registrations: postgres.NewRegistrationsRepo(pool, prom),
		Templates:     templates,
		Stations:      postgres.NewStationsRepo(pool, prom),
		Engine:        engine,
		Tokens:        auth.NewManager(cfg.JWTSecret, cfg.AccessTTL, cfg.StationTokenTTL),
		Prom:          prom,
		Gatherer:      reg,
		Checks:        checks,
	})

	// renders can take a while when assets are slow
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      45 * time.Second,
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

	// Graceful shutdown
	<-ctx.Done()
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		sctx, cancel := config.WithTimeout(10 * time.Second)
		defer cancel()

		if err := srv.Shutdown(sctx); err != nil {
			log.Error("graceful shutdown failed", "err", err)
		}
		if err := shutdownTracer(sctx); err != nil {
			log.Error("tracer shutdown failed", "err", err)
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
