package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"pennycentral/internal/adroute"
	"pennycentral/internal/analytics"
	"pennycentral/internal/cache"
	"pennycentral/internal/config"
	"pennycentral/internal/db"
	"pennycentral/internal/events"
	"pennycentral/internal/httpserver"
	itemrepo "pennycentral/internal/repository/item"
	reportrepo "pennycentral/internal/repository/report"
	storerepo "pennycentral/internal/repository/store"
	adminsvc "pennycentral/internal/service/admin"
	itemsvc "pennycentral/internal/service/item"
	reportsvc "pennycentral/internal/service/report"
	storesvc "pennycentral/internal/service/store"
	"pennycentral/internal/sku"
)

func main() {
	logger := log.New(os.Stdout, "[api] ", log.LstdFlags|log.LUTC|log.Lshortfile)
	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("load config: %v", err)
	}

	ctx := context.Background()
	dbpool, err := db.Connect(ctx, cfg.Database)
	if err != nil {
		logger.Fatalf("connect to db: %v", err)
	}
	defer dbpool.Close()

	respCache, err := newCache(ctx, cfg)
	if err != nil {
		logger.Fatalf("init cache: %v", err)
	}
	defer respCache.Close()

	bus := events.NewBus(logger)
	if err := bus.InvalidateOnItemChange(respCache, itemsvc.ListCachePrefix); err != nil {
		logger.Fatalf("subscribe cache invalidation: %v", err)
	}

	skus := sku.NewValidator(cfg.SKU.InternetPrefixes...)
	itemService := itemsvc.New(itemrepo.NewPostgres(dbpool, logger), itemsvc.Options{
		Cache:    respCache,
		CacheTTL: cfg.Cache.TTL,
		Bus:      bus,
		SKU:      skus,
		Logger:   logger,
	})
	reportService := reportsvc.New(reportrepo.NewPostgres(dbpool, logger), itemService, skus, logger)
	storeService := storesvc.New(storerepo.NewPostgres(dbpool), respCache, 0, logger)
	adminService := adminsvc.New(cfg.Admin.PasswordHash, cfg.Admin.JWTSecret, cfg.Admin.TokenTTL)
	if !cfg.AdminEnabled() {
		logger.Printf("admin password not configured; moderation API will reject every login")
	}

	collector := analytics.NewCollector(analytics.CollectorConfig{
		Endpoint:      cfg.Analytics.Endpoint,
		MeasurementID: cfg.Analytics.MeasurementID,
		APISecret:     cfg.Analytics.APISecret,
	}, logger)

	readiness := []httpserver.ReadinessCheck{{Name: "database", Ping: dbpool.Ping}}
	if rc, ok := respCache.(*cache.RedisCache); ok {
		readiness = append(readiness, httpserver.ReadinessCheck{Name: "cache", Ping: rc.Ping})
	}

	srv, err := httpserver.New(httpserver.Options{
		Addr:         cfg.Server.Addr,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}, logger, httpserver.Deps{
		ItemSvc:   itemService,
		ReportSvc: reportService,
		StoreSvc:  storeService,
		Admin:     adminService,
		Tracker:   collector,
		Launch: adroute.LaunchConfig{
			StickyEnabled:                cfg.Ads.StickyEnabled,
			InterstitialFrequencyMinutes: cfg.Ads.InterstitialFrequencyMinutes,
			PilotRoutes:                  cfg.Ads.PilotRoutes,
		},
		AllowedOrigins: cfg.Server.AllowedOrigins,
		Submissions: httpserver.SubmissionLimit{
			PerMinute: cfg.RateLimit.SubmissionsPerMinute,
			Burst:     cfg.RateLimit.Burst,
		},
		Debug:     !cfg.Production(),
		Readiness: readiness,
	})
	if err != nil {
		logger.Fatalf("init server: %v", err)
	}

	serverErr := make(chan error, 1)
	go func() {
		logger.Printf("starting http server on %s (env=%s)", cfg.Server.Addr, cfg.Server.Environment)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-stopCh:
		logger.Printf("received signal %s, shutting down", sig)
	case err := <-serverErr:
		logger.Printf("server error: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(ctx); err != nil {
		logger.Printf("graceful shutdown failed: %v", err)
	} else {
		logger.Printf("server stopped")
	}
}

func newCache(ctx context.Context, cfg *config.Config) (cache.Cache, error) {
	if cfg.Cache.Type == "redis" {
		return cache.NewRedis(ctx, cache.RedisConfig{
			Addr: cfg.Cache.RedisAddr,
			DB:   cfg.Cache.RedisDB,
		})
	}
	return cache.NewMemoryCache(cfg.Cache.TTL), nil
}
