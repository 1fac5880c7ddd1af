package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/joho/godotenv"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/brandao-20/mcp-server-ipma/internal/cache"
	"github.com/brandao-20/mcp-server-ipma/internal/catalog"
	"github.com/brandao-20/mcp-server-ipma/internal/config"
	httphandler "github.com/brandao-20/mcp-server-ipma/internal/http"
	"github.com/brandao-20/mcp-server-ipma/internal/ipma"
	"github.com/brandao-20/mcp-server-ipma/internal/observability"
	"github.com/brandao-20/mcp-server-ipma/internal/rpc"
	"github.com/brandao-20/mcp-server-ipma/internal/service"
)

func main() {
	_ = godotenv.Load() // .env in development, absent in production

	logger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = logger.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("config", zap.Error(err))
	}

	fetcher, err := ipma.NewClient(ipma.Endpoints{
		DistrictsURL:    cfg.DistrictsURL,
		WeatherTypesURL: cfg.WeatherTypesURL,
		ForecastURL:     cfg.ForecastURL,
		WarningsURL:     cfg.WarningsURL,
		ObservationsURL: cfg.ObservationsURL,
	}, cfg.IPMATimeout)
	if err != nil {
		logger.Fatal("ipma client", zap.Error(err))
	}

	var cacheSvc cache.Cache
	var memcacheCloser *cache.MemcachedCache
	switch cfg.CacheBackend {
	case "memcached":
		mc, err := cache.NewMemcachedCache(cfg.MemcachedAddrs, cfg.MemcachedTimeout, cfg.MemcachedMaxIdleConns)
		if err != nil {
			logger.Fatal("memcached cache", zap.Error(err))
		}
		if err := mc.Ping(); err != nil {
			logger.Warn("memcached not reachable at startup", zap.Error(err))
		}
		memcacheCloser = mc
		cacheSvc = mc
		logger.Info("cache backend: memcached", zap.String("addrs", cfg.MemcachedAddrs))
	default:
		cacheSvc = cache.NewInMemoryCache(cfg.CacheCapacity)
		logger.Info("cache backend: in_memory", zap.Int("capacity", cfg.CacheCapacity))
	}

	cat := catalog.New()
	svc := service.New(fetcher, cacheSvc, cat, cfg.CacheTTL, cfg.CacheFailureTTL)
	loader := catalog.NewLoader(svc, cat, logger)

	refreshCtx, refreshCancel := context.WithCancel(context.Background())
	defer refreshCancel()

	if cfg.CIMode {
		logger.Info("CI mode: stub responses, catalog load skipped")
	} else {
		loadCtx, loadCancel := context.WithTimeout(refreshCtx, 30*time.Second)
		if err := loader.Load(loadCtx); err != nil {
			logger.Warn("initial catalog load failed", zap.Error(err))
		}
		loadCancel()

		if cfg.CatalogRefreshInterval > 0 {
			refresher := catalog.NewRefresher(loader, cfg.CatalogRefreshInterval, cfg.CatalogRefreshJitter, logger)
			go func() {
				if err := refresher.Run(refreshCtx); err != nil && err != context.Canceled {
					logger.Error("catalog refresher stopped", zap.Error(err))
				}
			}()
			logger.Info("catalog refresher started",
				zap.Duration("interval", cfg.CatalogRefreshInterval),
				zap.Duration("jitter", cfg.CatalogRefreshJitter))
		}
	}

	var limiter *rate.Limiter
	if cfg.RateLimitRPS > 0 {
		limiter = rate.NewLimiter(rate.Limit(cfg.RateLimitRPS), cfg.RateLimitBurst)
	}

	handler := httphandler.NewHandler(svc, logger, cfg.CIMode)
	rpcHandler := rpc.NewHandler(svc, logger, cfg.CIMode)

	router := mux.NewRouter()
	router.Use(httphandler.CorrelationIDMiddleware(logger))
	router.Use(httphandler.MetricsMiddleware)
	router.HandleFunc("/", handler.GetHealth).Methods("GET")
	router.Handle("/metrics", observability.MetricsHandler())

	mcpRouter := router.PathPrefix("/mcp").Subrouter()
	mcpRouter.Use(httphandler.RateLimitMiddleware(limiter))
	mcpRouter.Use(httphandler.TimeoutMiddleware(cfg.RequestTimeout))
	mcpRouter.HandleFunc("/districts", handler.GetDistricts).Methods("GET")
	mcpRouter.HandleFunc("/cities", handler.GetCities).Methods("GET")
	mcpRouter.HandleFunc("/previsao", handler.PostPrevisao).Methods("POST")
	mcpRouter.HandleFunc("/observations", handler.GetObservations).Methods("GET")
	mcpRouter.HandleFunc("/warnings", handler.GetWarnings).Methods("GET")

	rpcChain := httphandler.RateLimitMiddleware(limiter)(httphandler.TimeoutMiddleware(cfg.RequestTimeout)(rpcHandler))
	router.Handle("/rpc", rpcChain).Methods("POST")

	srv := &http.Server{
		Addr:         ":" + cfg.ServerPort,
		Handler:      httphandler.CORSMiddleware(router),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: cfg.RequestTimeout + 5*time.Second,
	}

	go func() {
		logger.Info("server starting", zap.String("addr", ":"+cfg.ServerPort), zap.Bool("ci_mode", cfg.CIMode))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal("server", zap.Error(err))
		}
	}()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	<-ctx.Done()
	stop()

	logger.Info("graceful shutdown triggered")
	httphandler.SetDraining(true)
	refreshCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", zap.Error(err))
	}

	inFlight := httphandler.InFlightCount()
	logger.Info("waiting for in-flight requests", zap.Int64("count", inFlight))
	waitCtx, waitCancel := context.WithTimeout(context.Background(), cfg.ShutdownInFlightTimeout)
	defer waitCancel()
	if err := httphandler.WaitForInFlight(waitCtx, cfg.ShutdownInFlightCheckInterval); err != nil {
		logger.Warn("in-flight requests not completed", zap.Error(err), zap.Int64("remaining", httphandler.InFlightCount()))
	}

	if err := observability.FlushTelemetry(context.Background(), logger); err != nil {
		logger.Error("telemetry flush", zap.Error(err))
	}

	if memcacheCloser != nil {
		if err := memcacheCloser.Close(); err != nil {
			logger.Error("memcached close", zap.Error(err))
		}
	}
	logger.Info("shutdown complete")
}
