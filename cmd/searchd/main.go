package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/sync/errgroup"

	"github.com/parkside-crm/searchd/pkg/config"
	"github.com/parkside-crm/searchd/pkg/middleware"
	"github.com/parkside-crm/searchd/pkg/observability"
	"github.com/parkside-crm/searchd/pkg/search"
	"github.com/parkside-crm/searchd/pkg/storage/postgres"
)

const (
	rateLimitPerMinute = 300
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		observability.NewLogger(observability.ErrorLevel, os.Stderr).
			WithError(err).Error("failed to load configuration")
		os.Exit(1)
	}

	logger := observability.NewLogger(parseLogLevel(cfg.Observability.LogLevel), os.Stdout)
	logger.Infof("starting searchd (provider=%s)", cfg.Search.Provider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logger); err != nil && !errors.Is(err, context.Canceled) {
		logger.WithError(err).Error("searchd exited with error")
		os.Exit(1)
	}

	logger.Info("searchd stopped")
}

func run(ctx context.Context, cfg *config.Config, logger *observability.Logger) error {
	shutdownTracing, err := observability.InitTracing(ctx, observability.OTelConfig{
		Enabled:        cfg.Observability.OTelEnabled,
		Endpoint:       cfg.Observability.OTelEndpoint,
		ServiceName:    cfg.Observability.OTelServiceName,
		ServiceVersion: cfg.Observability.OTelServiceVersion,
		Insecure:       cfg.Observability.OTelInsecure,
	}, logger)
	if err != nil {
		return err
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := shutdownTracing(shutdownCtx); err != nil {
			logger.WithError(err).Warn("tracing shutdown failed")
		}
	}()

	connections, err := postgres.NewConnectionManager(postgres.ConnectionConfig{
		PrimaryURL:  cfg.Database.URL,
		ReplicaURLs: cfg.Database.ReplicaURLList(),
		MaxConns:    cfg.Database.MaxConns,
		MinConns:    cfg.Database.MinConns,
		Timeout:     cfg.Database.Timeout,
		MaxLifetime: cfg.Database.MaxLifetime,
	}, logger)
	if err != nil {
		return err
	}
	defer connections.Close()

	if err := search.RunMigrations(ctx, connections.Primary(), logger); err != nil {
		return err
	}

	var redisClient *redis.Client
	if cfg.Redis.Addr != "" {
		redisClient = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err := redisClient.Ping(ctx).Err(); err != nil {
			logger.WithError(err).Warn("redis unreachable, continuing without it")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var metrics *observability.Metrics
	if cfg.Observability.MetricsEnabled {
		metrics = observability.NewMetrics(prometheus.NewRegistry())
	}

	registry := search.NewRegistry()
	service := search.NewSwappableService(newQueryService(cfg, registry, logger, metrics))

	suggestions, err := search.NewSuggestionService(connections.Primary(), redisClient, logger, metrics)
	if err != nil {
		return err
	}

	handlers := search.NewHandlers(connections.Replica(), service, suggestions, logger)

	router := mux.NewRouter()
	handlers.RegisterRoutes(router)

	router.Use(middleware.RequestIDMiddleware)
	router.Use(middleware.TenantContextMiddleware)
	if metrics != nil {
		router.Use(metrics.Middleware(routeTemplate))
	}
	if redisClient != nil {
		limiter := middleware.NewRateLimiter(redisClient, rateLimitPerMinute, time.Minute, logger)
		router.Use(limiter.Middleware)
	}

	apiServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.Port,
		Handler:      otelhttp.NewHandler(router, "searchd"),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	healthServer := &http.Server{
		Addr:         cfg.Server.Host + ":" + cfg.Server.HealthPort,
		Handler:      healthRouter(connections, metrics),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(cfg.Search.SuggestionRefreshCron, func() {
		if err := suggestions.Refresh(context.Background()); err != nil {
			logger.WithError(err).Warn("suggestion refresh failed")
		}
	}); err != nil {
		return err
	}
	if metrics != nil {
		if _, err := scheduler.AddFunc("@every 15s", func() {
			metrics.ObserveDBStats(connections.Stats())
		}); err != nil {
			return err
		}
	}
	scheduler.Start()
	defer scheduler.Stop()

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("API server listening on %s", apiServer.Addr)
		if err := apiServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	group.Go(func() error {
		logger.Infof("health server listening on %s", healthServer.Addr)
		if err := healthServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	if path := os.Getenv("SEARCHD_CONFIG_FILE"); path != "" {
		group.Go(func() error {
			err := config.Watch(groupCtx, path,
				func(next *config.Config) {
					service.Swap(newQueryService(next, registry, logger, metrics))
					logger.Infof("configuration reloaded (provider=%s)", next.Search.Provider)
				},
				func(err error) {
					logger.WithError(err).Warn("configuration reload rejected")
				},
			)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		logger.Info("shutting down")
		if err := apiServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("API server shutdown failed")
		}
		if err := healthServer.Shutdown(shutdownCtx); err != nil {
			logger.WithError(err).Warn("health server shutdown failed")
		}
		return nil
	})

	return group.Wait()
}

func newQueryService(cfg *config.Config, registry *search.Registry, logger *observability.Logger, metrics *observability.Metrics) *search.QueryService {
	return search.NewQueryService(search.Config{
		Provider:       cfg.Search.Provider,
		QueryMaxLength: cfg.Search.QueryMaxLength,
		MaxResults:     cfg.Search.MaxResults,
	}, registry, logger, metrics)
}

func healthRouter(connections *postgres.ConnectionManager, metrics *observability.Metrics) http.Handler {
	router := mux.NewRouter()

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	router.HandleFunc("/readyz", func(w http.ResponseWriter, r *http.Request) {
		if err := connections.HealthCheck(r.Context()); err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		w.WriteHeader(http.StatusOK)
	}).Methods(http.MethodGet)

	if metrics != nil {
		router.Handle("/metrics", metrics.Handler()).Methods(http.MethodGet)
	}

	return router
}

// routeTemplate extracts the mux route pattern so metric labels stay
// low-cardinality.
func routeTemplate(r *http.Request) string {
	route := mux.CurrentRoute(r)
	if route == nil {
		return "unmatched"
	}
	template, err := route.GetPathTemplate()
	if err != nil {
		return "unmatched"
	}
	return template
}

func parseLogLevel(level string) observability.LogLevel {
	switch strings.ToLower(level) {
	case "debug":
		return observability.DebugLevel
	case "warn":
		return observability.WarnLevel
	case "error":
		return observability.ErrorLevel
	default:
		return observability.InfoLevel
	}
}
