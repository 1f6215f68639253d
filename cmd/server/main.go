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

	"github.com/pradiptarakha/corpusindex/internal/analytics"
	"github.com/pradiptarakha/corpusindex/internal/corpus"
	"github.com/pradiptarakha/corpusindex/internal/index"
	"github.com/pradiptarakha/corpusindex/internal/search/cache"
	"github.com/pradiptarakha/corpusindex/internal/server"
	"github.com/pradiptarakha/corpusindex/internal/store"
	"github.com/pradiptarakha/corpusindex/pkg/config"
	"github.com/pradiptarakha/corpusindex/pkg/health"
	"github.com/pradiptarakha/corpusindex/pkg/kafka"
	"github.com/pradiptarakha/corpusindex/pkg/logger"
	"github.com/pradiptarakha/corpusindex/pkg/metrics"
	"github.com/pradiptarakha/corpusindex/pkg/middleware"
	pkgpostgres "github.com/pradiptarakha/corpusindex/pkg/postgres"
	pkgredis "github.com/pradiptarakha/corpusindex/pkg/redis"
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
	slog.Info("starting corpus index service", "port", cfg.Server.Port)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	m := metrics.New()
	var metricsShutdown func(context.Context) error
	if cfg.Metrics.Enabled {
		metricsShutdown = metrics.StartServer(cfg.Metrics.Port)
	}

	var queryCache *cache.QueryCache
	redisClient, err := pkgredis.NewClient(cfg.Redis)
	if err != nil {
		slog.Warn("redis unavailable, query caching disabled", "error", err)
		redisClient = nil
	} else {
		defer redisClient.Close()
		queryCache = cache.New(redisClient, cfg.Redis)
		slog.Info("query cache enabled", "addr", cfg.Redis.Addr, "ttl", cfg.Redis.CacheTTL)
	}

	var snapshots store.SnapshotStore = store.NewFileStore(cfg.Snapshot.Path)
	if redisClient != nil && cfg.Snapshot.RedisKey != "" {
		snapshots = store.NewRedisStore(redisClient, cfg.Snapshot.RedisKey)
		slog.Info("snapshot store backed by redis", "key", cfg.Snapshot.RedisKey)
	}

	var pgClient *pkgpostgres.Client
	var source server.CorpusSource
	if cfg.Postgres.Enabled {
		pgClient, err = pkgpostgres.New(cfg.Postgres)
		if err != nil {
			slog.Warn("postgres unavailable, database corpus source disabled", "error", err)
			pgClient = nil
		} else {
			defer pgClient.Close()
			source = corpus.NewPostgresSource(pgClient, cfg.Postgres)
			slog.Info("postgres corpus source enabled",
				"table", cfg.Postgres.CorpusTable,
				"column", cfg.Postgres.CorpusColumn,
			)
		}
	}

	aggregator := analytics.NewAggregator()
	analyticsH := analytics.NewHandler(aggregator)
	var collector *analytics.Collector
	if cfg.Kafka.Enabled {
		producer := kafka.NewProducer(cfg.Kafka, cfg.Kafka.AnalyticsTopic)
		defer producer.Close()
		collector = analytics.NewCollector(producer, 4096)
		collector.Start(ctx)
		defer collector.Close()

		consumer := kafka.NewConsumer(cfg.Kafka, cfg.Kafka.AnalyticsTopic, analytics.HandleEvent(aggregator))
		go func() {
			if err := consumer.Start(ctx); err != nil {
				slog.Error("analytics consumer error", "error", err)
			}
		}()
		slog.Info("query analytics enabled", "topic", cfg.Kafka.AnalyticsTopic)
	}

	state := server.NewState()
	if data, err := snapshots.Load(ctx); err == nil {
		if idx, err := index.LoadSnapshot(data); err == nil {
			state.Replace(idx, nil)
			slog.Info("index restored from snapshot",
				"documents", idx.NumDocs(),
				"terms", idx.NumTerms(),
			)
		} else {
			slog.Warn("stored snapshot is malformed, starting empty", "error", err)
		}
	}

	defaults := index.Options{
		Lowercase:         cfg.Analyzer.Lowercase,
		RemoveDigits:      cfg.Analyzer.RemoveDigits,
		RemovePunctuation: cfg.Analyzer.RemovePunctuation,
		Language:          cfg.Analyzer.Language,
		FilterStopwords:   cfg.Analyzer.FilterStopwords,
	}
	h := server.New(state, queryCache, collector, snapshots, source, m, defaults, cfg.Search)

	checker := health.NewChecker()
	checker.Register("index", func(ctx context.Context) health.ComponentHealth {
		idx, _ := state.Current()
		return health.ComponentHealth{
			Status:  health.StatusUp,
			Message: fmt.Sprintf("%d documents, %d terms", idx.NumDocs(), idx.NumTerms()),
		}
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
	if pgClient != nil {
		checker.Register("postgres", func(ctx context.Context) health.ComponentHealth {
			if err := pgClient.Ping(ctx); err != nil {
				return health.ComponentHealth{Status: health.StatusDegraded, Message: err.Error()}
			}
			return health.ComponentHealth{Status: health.StatusUp}
		})
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /api/v1/corpus", h.Rebuild)
	mux.HandleFunc("POST /api/v1/corpus/csv", h.RebuildCSV)
	mux.HandleFunc("POST /api/v1/corpus/postgres", h.RebuildPostgres)
	mux.HandleFunc("GET /api/v1/search", h.Search)
	mux.HandleFunc("GET /api/v1/terms/{term}", h.Term)
	mux.HandleFunc("GET /api/v1/vocabulary", h.Vocabulary)
	mux.HandleFunc("GET /api/v1/vocabulary/export", h.VocabularyExport)
	mux.HandleFunc("GET /api/v1/snapshot", h.SnapshotDownload)
	mux.HandleFunc("POST /api/v1/snapshot", h.SnapshotUpload)
	mux.HandleFunc("POST /api/v1/snapshot/store", h.SnapshotStore)
	mux.HandleFunc("POST /api/v1/snapshot/restore", h.SnapshotRestore)
	mux.HandleFunc("GET /api/v1/analytics", analyticsH.Stats)
	mux.HandleFunc("GET /api/v1/cache/stats", h.CacheStats)
	mux.HandleFunc("POST /api/v1/cache/invalidate", h.CacheInvalidate)
	mux.HandleFunc("GET /health/live", checker.LiveHandler())
	mux.HandleFunc("GET /health/ready", checker.ReadyHandler())

	var chain http.Handler = mux
	chain = middleware.Timeout(cfg.Server.WriteTimeout)(chain)
	chain = middleware.Metrics(m)(chain)
	chain = middleware.RequestID(chain)
	chain = http.MaxBytesHandler(chain, cfg.Server.MaxUploadBytes)

	srv := &http.Server{
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
		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
		if metricsShutdown != nil {
			if err := metricsShutdown(shutdownCtx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}
	}()

	slog.Info("corpus index service listening", "addr", srv.Addr)
	if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
	slog.Info("corpus index service stopped")
}
