package main

import (
	"context"
	"database/sql"
	"fmt"
	"net/http"
	"time"

	"github.com/jonboulle/clockwork"
	_ "github.com/lib/pq"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/sync/errgroup"

	"synoptic/internal/config"
	"synoptic/internal/constants"
	"synoptic/internal/decode"
	"synoptic/internal/fetch"
	"synoptic/internal/ingest"
	"synoptic/internal/logger"
	"synoptic/internal/store"
	"synoptic/internal/subscriber"
	"synoptic/pkg/bootstrap"
	"synoptic/pkg/health"
	"synoptic/pkg/metrics"
	"synoptic/pkg/retry"
)

type App struct {
	cfg    *config.Config
	logger logger.Logger

	db         *sql.DB
	queue      *ingest.Queue
	scheduler  *ingest.Scheduler
	pool       *ingest.Pool
	subscriber *subscriber.Subscriber
	server     *http.Server
}

func NewApp(cfg *config.Config, log logger.Logger) *App {
	if sugaredLogger, ok := log.(*logger.SugaredLogger); ok {
		sugaredLogger.SetServiceName("ingest-service")
	}
	return &App{
		cfg:    cfg,
		logger: log,
	}
}

func (a *App) Initialize(ctx context.Context) error {
	if err := a.initDatabase(ctx); err != nil {
		return fmt.Errorf("failed to initialize database: %w", err)
	}

	metrics.RegisterIngestMetrics()

	a.initPipeline()

	if err := a.initHTTPServer(); err != nil {
		return fmt.Errorf("failed to initialize HTTP server: %w", err)
	}

	return nil
}

func (a *App) initDatabase(ctx context.Context) error {
	connector := bootstrap.NewDatabaseConnector(a.cfg, a.logger)
	db, err := connector.InitPostgreSQL(ctx)
	if err != nil {
		return err
	}

	if a.cfg.Database.RunMigrations {
		if err := store.Migrate(db); err != nil {
			db.Close()
			return err
		}
		a.logger.Info("database migrations applied")
	}

	a.db = db
	return nil
}

func (a *App) initPipeline() {
	repo := store.NewRepository(a.db, a.cfg.Decode.RequiredKeys, a.logger)

	filter := ingest.NewFilterPolicy(a.cfg.Filter.Blacklist, a.cfg.Filter.DisallowedExtensions)
	fetcher := fetch.New(a.cfg.Download.Root, a.logger)

	codec := decode.NewExecCodec(a.cfg.Decode.Command, a.cfg.Decode.Args)
	adapter := decode.NewAdapter(codec, a.cfg.Decode.RequiredKeys, a.cfg.Decode.AdditionalKeys, a.logger)

	fetchRetry := retry.Policy{
		MaxAttempts:     a.cfg.Ingest.FetchRetry.MaxAttempts,
		InitialInterval: a.cfg.Ingest.FetchRetry.InitialInterval,
		MaxInterval:     a.cfg.Ingest.FetchRetry.MaxInterval,
		Multiplier:      a.cfg.Ingest.FetchRetry.Multiplier,
	}

	worker := ingest.NewWorker(filter, fetcher, adapter, repo, fetchRetry, a.logger)

	a.queue = ingest.NewQueue()
	a.pool = ingest.NewPool(worker, a.cfg.Ingest.MaxWorkers, a.cfg.Ingest.PendingBatches, a.logger)
	a.scheduler = ingest.NewScheduler(
		a.queue,
		a.pool,
		clockwork.NewRealClock(),
		a.cfg.Ingest.BatchSize,
		a.cfg.Ingest.FlushInterval,
		a.cfg.Ingest.PollInterval,
		a.logger,
	)
	a.subscriber = subscriber.New(a.cfg.MQTT, a.queue, a.logger)
}

func (a *App) initHTTPServer() error {
	mux := http.NewServeMux()

	healthRegistry := health.NewCheckerRegistry()
	healthRegistry.Register(health.NewPostgreSQLChecker(a.db))
	healthRegistry.Register(health.NewFeedChecker(a.subscriber.Connected))

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h := healthRegistry.Check(r.Context())
		statusCode := http.StatusOK
		if h.Status == health.StatusUnhealthy {
			statusCode = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)
		fmt.Fprintf(w, `{"status":"%s","timestamp":"%s"}`, h.Status, h.Timestamp.Format(time.RFC3339))
	})

	mux.Handle("/metrics", promhttp.Handler())

	a.server = &http.Server{
		Addr:         fmt.Sprintf(":%d", a.cfg.Server.Port),
		Handler:      mux,
		ReadTimeout:  a.cfg.Server.ReadTimeoutSeconds,
		WriteTimeout: a.cfg.Server.WriteTimeoutSeconds,
	}

	return nil
}

// Run starts every pipeline task and blocks until shutdown completes.
// Shutdown order matters: the subscriber disconnects first and closes the
// queue, the scheduler drains the queue and flushes its buffer, then the
// pool finishes every accepted batch before Run returns.
func (a *App) Run(ctx context.Context) error {
	g, gCtx := errgroup.WithContext(ctx)

	g.Go(func() error {
		a.logger.Infow("HTTP server starting", "port", a.cfg.Server.Port)
		if err := a.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			return fmt.Errorf("HTTP server error: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), constants.ShutdownTimeout)
		defer cancel()
		return a.server.Shutdown(shutdownCtx)
	})

	g.Go(func() error {
		defer a.queue.Close()
		return a.subscriber.Run(gCtx)
	})

	g.Go(func() error {
		// The scheduler is not cancelled directly; it exits once the
		// queue closes, so everything queued still flushes on shutdown.
		defer a.pool.Close()
		return a.scheduler.Run(context.Background())
	})

	g.Go(func() error {
		return a.pool.Run(gCtx)
	})

	err := g.Wait()

	if a.db != nil {
		if closeErr := a.db.Close(); closeErr != nil {
			a.logger.Errorw("database close error", "error", closeErr)
		}
	}

	return err
}
