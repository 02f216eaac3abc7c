// cmd/subsidy-recommender/main.go
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"subsidy-recommender/internal/api"
	"subsidy-recommender/internal/catalog"
	"subsidy-recommender/internal/common/camunda"
	"subsidy-recommender/internal/common/config"
	"subsidy-recommender/internal/common/database"
	commonerrors "subsidy-recommender/internal/common/errors"
	"subsidy-recommender/internal/common/logger"
	"subsidy-recommender/internal/common/observability"
	"subsidy-recommender/internal/judgment"
	"subsidy-recommender/internal/recommender"
	"subsidy-recommender/internal/service"
	rs "subsidy-recommender/internal/workers/recommendation/recommend-subsidies"
)

var version = "dev"

// retryWithBackoff attempts to execute a function with exponential backoff
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}

func loadConfig(path string) (*config.Config, error) {
	if path != "" {
		return config.LoadFromFile(path)
	}
	return config.Load()
}

func main() {
	configPath := flag.String("config", "", "path to a config file (defaults to configs/config.yaml)")
	flag.Parse()

	cfg, err := loadConfig(*configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load failed: %v\n", err)
		os.Exit(1)
	}

	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	defer zapLog.Sync()

	log := logger.NewZapAdapter(zapLog)

	appVersion := cfg.App.Version
	if appVersion == "" {
		appVersion = version
	}
	zapLog.Info("Starting subsidy recommender...",
		zap.String("version", appVersion),
		zap.String("judgmentProvider", cfg.Judgment.Provider),
		zap.String("catalogSource", cfg.Catalog.Source))

	obs := observability.New(cfg.App.Name)
	defer obs.Shutdown()
	if err := obs.EnableTracing(cfg.Tracing, cfg.App.Name, appVersion); err != nil {
		zapLog.Warn("tracing disabled", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// --- Redis (catalog and result caches) ---
	var rdb *database.RedisClient
	err = retryWithBackoff(func() error {
		var err error
		rdb, err = database.NewRedis(cfg.Database.Redis)
		if err != nil {
			return err
		}
		return rdb.Ping(ctx)
	}, 10, 2*time.Second, zapLog, "Redis connection")
	if err != nil {
		zapLog.Fatal("redis failed after retries", zap.Error(err))
	}
	defer rdb.Close()
	zapLog.Info("Redis connected successfully")

	// --- Catalog backend ---
	var (
		store catalog.Store
		ping  func(context.Context) error
	)
	switch cfg.Catalog.Source {
	case config.CatalogSourceElasticsearch:
		var es *database.ElasticsearchClient
		err = retryWithBackoff(func() error {
			var err error
			es, err = database.NewElasticsearch(cfg.Database.Elasticsearch)
			if err != nil {
				return err
			}
			return es.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "Elasticsearch connection")
		if err != nil {
			zapLog.Fatal("elasticsearch failed after retries", zap.Error(err))
		}
		store = catalog.NewSearchStore(es.Client, cfg.Catalog.Index, log)
		ping = es.Ping
		zapLog.Info("Elasticsearch connected successfully")

	default:
		var pg *database.PostgresClient
		err = retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 15, 2*time.Second, zapLog, "PostgreSQL connection")
		if err != nil {
			zapLog.Fatal("postgres failed after retries", zap.Error(err))
		}
		defer pg.Close()
		store = catalog.NewPostgresStore(pg.DB, log)
		ping = pg.Ping
		zapLog.Info("PostgreSQL connected successfully")
	}

	cached := catalog.NewCachedStore(store, rdb.Client, config.GetDuration(cfg.Catalog.CatalogTTL), log)

	// --- Recommendation pipeline ---
	judge, err := judgment.New(cfg.Judgment, log)
	if err != nil {
		zapLog.Fatal("judgment service init failed", zap.Error(err))
	}
	pipeline := recommender.NewPipeline(judge, log)

	svc := service.New(service.Config{
		CatalogSource: cfg.Catalog.Source,
		ResultTTL:     config.GetDuration(cfg.Catalog.ResultTTL),
	}, cached, pipeline, rdb.Client, log)

	ready := func(ctx context.Context) error {
		if err := rdb.Ping(ctx); err != nil {
			return commonerrors.NewCacheUnavailableError("redis", err)
		}
		if err := ping(ctx); err != nil {
			return commonerrors.NewCatalogLoadFailedError(cfg.Catalog.Source, err)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)

	// --- HTTP API ---
	srv := &http.Server{
		Addr:         cfg.HTTP.Address,
		Handler:      api.NewServer(svc, ready, obs, log).Handler(),
		ReadTimeout:  config.GetDuration(cfg.HTTP.ReadTimeout),
		WriteTimeout: config.GetDuration(cfg.HTTP.WriteTimeout),
	}

	g.Go(func() error {
		zapLog.Info("HTTP server listening", zap.String("address", cfg.HTTP.Address))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("http server: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), config.GetDuration(cfg.HTTP.ShutdownTimeout))
		defer cancel()
		zapLog.Info("Shutting down HTTP server...")
		return srv.Shutdown(shutdownCtx)
	})

	// --- Zeebe worker ---
	if cfg.Camunda.Enabled && config.IsWorkerEnabled(cfg, rs.TaskType) {
		var zeebe *camunda.Client
		err = retryWithBackoff(func() error {
			var err error
			zeebe, err = camunda.NewClientWithConfig(&camunda.ClientConfig{
				GatewayAddress:         cfg.Camunda.BrokerAddress,
				UsePlaintextConnection: true,
				ConnectionTimeout:      config.GetDuration(cfg.Camunda.RequestTimeout),
			})
			return err
		}, 10, 2*time.Second, zapLog, "Zeebe client initialization")
		if err != nil {
			zapLog.Fatal("zeebe client failed after retries", zap.Error(err))
		}
		defer zeebe.Close()
		zapLog.Info("Zeebe client connected successfully")

		workerCfg := rs.LoadConfig(cfg)
		handler, err := rs.NewHandler(rs.HandlerOptions{
			Config:  workerCfg,
			Service: svc,
			Obs:     obs,
			Logger:  log,
		})
		if err != nil {
			zapLog.Fatal("worker handler init failed", zap.Error(err))
		}

		w := camunda.NewWorker(zeebe.GetClient(), camunda.WorkerOptions{
			TaskType:      rs.TaskType,
			MaxJobsActive: workerCfg.MaxJobsActive,
			Timeout:       workerCfg.Timeout,
		}, handler, zapLog)

		g.Go(func() error {
			<-gctx.Done()
			w.Stop()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		zapLog.Error("shutdown with error", zap.Error(err))
		os.Exit(1)
	}
	zapLog.Info("subsidy recommender stopped")
}
