package ingest

import (
	"context"
	"time"

	"golang.org/x/sync/errgroup"

	"synoptic/internal/logger"
	apperrors "synoptic/pkg/errors"
	"synoptic/pkg/logging"
	"synoptic/pkg/metrics"
	"synoptic/pkg/models"
	"synoptic/pkg/retry"
)

// Fetcher retrieves a notification's artifact and returns the local path.
type Fetcher interface {
	Fetch(ctx context.Context, n models.Notification) (string, error)
}

// Decoder turns a downloaded artifact into its decoded records.
type Decoder interface {
	DecodeFile(ctx context.Context, path string) ([]models.DecodedRecord, error)
}

// Store persists notifications and their decoded records.
type Store interface {
	InsertNotification(ctx context.Context, n models.Notification) (int64, error)
	InsertDecodedRecords(ctx context.Context, notificationID int64, records []models.DecodedRecord) error
}

// Worker processes one batch at a time: every notification runs the full
// filter, persist, fetch, decode, enrich sequence before the next one
// starts, and a failure in one notification never aborts the batch.
type Worker struct {
	filter     *FilterPolicy
	fetcher    Fetcher
	decoder    Decoder
	store      Store
	fetchRetry retry.Policy
	logger     logger.Logger
}

func NewWorker(filter *FilterPolicy, fetcher Fetcher, decoder Decoder, store Store, fetchRetry retry.Policy, log logger.Logger) *Worker {
	return &Worker{
		filter:     filter,
		fetcher:    fetcher,
		decoder:    decoder,
		store:      store,
		fetchRetry: fetchRetry,
		logger:     log,
	}
}

func (w *Worker) ProcessBatch(ctx context.Context, batch models.Batch) {
	start := time.Now()

	for _, n := range batch {
		w.processOne(ctx, n)
	}

	metrics.BatchProcessingDuration.Observe(time.Since(start).Seconds())
	w.logger.Debugw("batch processed",
		"size", len(batch),
		"duration", time.Since(start),
	)
}

// processOne runs the per-notification pipeline. The notification row is
// inserted before the artifact is fetched, so a fetch or decode failure
// leaves a valid notification row with zero decoded records; that state is
// accepted, the artifact is a best-effort enrichment.
func (w *Worker) processOne(ctx context.Context, n models.Notification) {
	ctx = logging.WithDataID(ctx, n.DataID)
	ctx = logging.WithTopic(ctx, n.Topic)

	if ok, reason := w.filter.Admit(n); !ok {
		metrics.NotificationsFilteredTotal.WithLabelValues(reason).Inc()
		w.logger.DebugwCtx(ctx, "notification rejected by filter policy", "reason", reason)
		return
	}

	id, err := w.store.InsertNotification(ctx, n)
	if err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("insert_notification").Inc()
		w.logger.ErrorwCtx(ctx, "failed to persist notification, dropping", "error", err)
		return
	}
	metrics.NotificationsPersistedTotal.Inc()

	path, err := w.fetchWithRetry(ctx, n)
	if err != nil {
		metrics.ArtifactsFetchedTotal.WithLabelValues("error").Inc()
		w.logger.ErrorwCtx(ctx, "failed to fetch artifact, abandoning enrichment",
			"error", err,
			"url", n.CanonicalURL,
		)
		return
	}
	metrics.ArtifactsFetchedTotal.WithLabelValues("success").Inc()

	records, err := w.decoder.DecodeFile(ctx, path)
	if err != nil {
		w.logger.ErrorwCtx(ctx, "failed to decode artifact, abandoning enrichment",
			"error", err,
			"path", path,
		)
		return
	}
	metrics.DecodedMessagesTotal.Add(float64(len(records)))

	if err := w.store.InsertDecodedRecords(ctx, id, records); err != nil {
		metrics.PersistenceErrorsTotal.WithLabelValues("insert_decoded_records").Inc()
		w.logger.ErrorwCtx(ctx, "failed to persist decoded records",
			"error", err,
			"notification_id", id,
		)
		return
	}
	metrics.RecordsPersistedTotal.Add(float64(len(records)))
}

func (w *Worker) fetchWithRetry(ctx context.Context, n models.Notification) (string, error) {
	var path string
	err := retry.RetryNotify(ctx, w.fetchRetry, func() error {
		var fetchErr error
		path, fetchErr = w.fetcher.Fetch(ctx, n)
		return fetchErr
	}, func(err error, next time.Duration) {
		metrics.FetchRetriesTotal.Inc()
		w.logger.WarnwCtx(ctx, "artifact fetch failed, retrying",
			"error", err,
			"next_attempt_in", next,
		)
	})
	if err != nil {
		return "", apperrors.Wrap(err, apperrors.ErrFetch)
	}
	return path, nil
}

// Pool runs batches on a fixed number of workers. Dispatch never waits for
// processing to finish; it only blocks once every worker is busy and the
// pending-batch buffer is full.
type Pool struct {
	batches chan models.Batch
	worker  *Worker
	workers int
	logger  logger.Logger
}

func NewPool(worker *Worker, workers, pendingBatches int, log logger.Logger) *Pool {
	return &Pool{
		batches: make(chan models.Batch, pendingBatches),
		worker:  worker,
		workers: workers,
		logger:  log,
	}
}

func (p *Pool) Dispatch(batch models.Batch) {
	p.batches <- batch
}

// Run blocks until Close is called and all accepted batches have been
// processed. Cancellation of ctx does not abort in-flight batches; they
// run to completion on a detached context.
func (p *Pool) Run(ctx context.Context) error {
	workCtx := context.WithoutCancel(ctx)

	g := new(errgroup.Group)
	for i := 0; i < p.workers; i++ {
		g.Go(func() error {
			for batch := range p.batches {
				p.worker.ProcessBatch(workCtx, batch)
			}
			return nil
		})
	}

	p.logger.Infow("worker pool started", "workers", p.workers)
	err := g.Wait()
	p.logger.Info("worker pool stopped")
	return err
}

// Close stops intake. Pending batches still drain before Run returns.
func (p *Pool) Close() {
	close(p.batches)
}
