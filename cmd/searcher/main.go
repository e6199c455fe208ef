// Command searcher serves the search API over HTTP. It builds the initial
// snapshot from the content tree at startup, then answers queries against
// that immutable snapshot; POST /api/v1/reindex swaps a fresh one in.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/contentgraph/docsearch/internal/analytics"
	"github.com/contentgraph/docsearch/internal/index"
	"github.com/contentgraph/docsearch/internal/search"
	"github.com/contentgraph/docsearch/internal/search/cache"
	"github.com/contentgraph/docsearch/internal/server"
	"github.com/contentgraph/docsearch/pkg/config"
	"github.com/contentgraph/docsearch/pkg/health"
	"github.com/contentgraph/docsearch/pkg/kafka"
	"github.com/contentgraph/docsearch/pkg/logger"
	"github.com/contentgraph/docsearch/pkg/metrics"
	"github.com/contentgraph/docsearch/pkg/middleware"
	"github.com/contentgraph/docsearch/pkg/postgres"
	pkgredis "github.com/contentgraph/docsearch/pkg/redis"
)

func main() {
	configPath := flag.String("config", "configs/development.yaml", "path to config file")
	flag.Parse()

	cfg, err := config.Load(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load config: %v\n", err)
		os.Exit(1)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("starting search service", "port", cfg.Server.Port, "content_dir", cfg.Content.Dir)

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	holder := &index.Holder{}
	service := server.NewService(cfg, holder, m)
	if _, err := service.Rebuild(ctx); err != nil {
		slog.Error("initial index build failed", "error", err)
		os.Exit(1)
	}
	if err := service.Persist(); err != nil {
		slog.Warn("snapshot persist failed", "path", cfg.Index.SnapshotPath, "error", err)
	}

	var queryCache *cache.QueryCache
	var redisClient *pkgredis.Client
	redisClient, err = pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var collector *analytics.Collector
	var analyticsHandler *analytics.Handler
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.SearchEvents)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 10000)
		collector.Start(ctx)
		defer collector.Close()

		aggregator := analytics.NewAggregator()
		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.SearchEvents, analytics.HandleEvent(aggregator))
		go func() {
			if err := aggregator.Start(ctx, consumer); err != nil {
				slog.Error("analytics aggregator error", "error", err)
			}
		}()
		analyticsHandler = analytics.NewHandler(aggregator)
		slog.Info("search analytics enabled", "topic", cfg.Kafka.SearchEvents)

		if cfg.Postgres.Enabled {
			pg, err := postgres.New(cfg.Postgres)
			if err != nil {
				slog.Warn("postgres unavailable, stats persistence disabled", "error", err)
			} else {
				defer pg.Close()
				store := analytics.NewStore(pg)
				store.StartPeriodicSave(ctx, aggregator, cfg.Postgres.SaveInterval)
			}
		}
	}

	checker := health.NewChecker()
	checker.Register("snapshot", func(ctx context.Context) health.ComponentHealth {
		if snap, ok := holder.Current(); ok {
			return health.ComponentHealth{
				Status:  health.StatusUp,
				Message: fmt.Sprintf("%d documents indexed", snap.TotalDocuments()),
			}
		}
		return health.ComponentHealth{Status: health.StatusDown, Message: "no snapshot"}
	})
	checker.Register("redis", func(ctx context.Context) health.ComponentHealth {
		if redisClient == nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: "not configured"}
		}
		if err := redisClient.Ping(ctx); err != nil {
			return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
		}
		return health.ComponentHealth{Status: health.StatusUp}
	})

	engine := search.New(holder)
	h := server.NewHandler(engine, service, queryCache, collector, m, cfg.Search.DefaultLimit, cfg.Search.MaxResults)

	mux := http.NewServeMux()
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("POST /api/v1/reindex", h.Reindex)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	if analyticsHandler != nil {
		mux.HandleFunc("GET /api/v1/analytics", analyticsHandler.Stats)
	}
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	if m != nil {
		chain = middleware.Metrics(m)(chain)
	}
	chain = middleware.RequestID(chain)

	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	httpServer := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      chain,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	go func() {
		<-ctx.Done()
		slog.Info("shutdown signal received")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("search service listening", "addr", httpServer.Addr)
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("search service stopped")
}
