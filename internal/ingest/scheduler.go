package ingest

import (
	"context"
	"time"

	"github.com/jonboulle/clockwork"

	"synoptic/internal/logger"
	"synoptic/pkg/metrics"
	"synoptic/pkg/models"
)

// Dispatcher receives flushed batches. The scheduler never waits for a
// batch to finish processing.
type Dispatcher interface {
	Dispatch(batch models.Batch)
}

// Scheduler drains the hand-off queue into an in-memory buffer and flushes
// it when the buffer reaches the batch size or the flush interval elapses,
// whichever comes first. The interval is checked on every poll tick even
// while idle; an empty flush dispatches nothing.
type Scheduler struct {
	queue         *Queue
	dispatcher    Dispatcher
	clock         clockwork.Clock
	batchSize     int
	flushInterval time.Duration
	pollInterval  time.Duration
	logger        logger.Logger
}

func NewScheduler(queue *Queue, dispatcher Dispatcher, clock clockwork.Clock, batchSize int, flushInterval, pollInterval time.Duration, log logger.Logger) *Scheduler {
	return &Scheduler{
		queue:         queue,
		dispatcher:    dispatcher,
		clock:         clock,
		batchSize:     batchSize,
		flushInterval: flushInterval,
		pollInterval:  pollInterval,
		logger:        log,
	}
}

// Run loops until the context is cancelled or the queue is closed and
// drained. Whatever is buffered at exit is flushed so nothing queued is
// lost on shutdown.
func (s *Scheduler) Run(ctx context.Context) error {
	buf := make([]models.Notification, 0, s.batchSize)
	lastFlush := s.clock.Now()

	ticker := s.clock.NewTicker(s.pollInterval)
	defer ticker.Stop()

	s.logger.Infow("scheduler started",
		"batch_size", s.batchSize,
		"flush_interval", s.flushInterval,
	)

	for {
		select {
		case <-ctx.Done():
			s.drainPending(&buf)
			s.flush(&buf, &lastFlush)
			s.logger.Info("scheduler stopped")
			return nil

		case n, ok := <-s.queue.C():
			if !ok {
				s.flush(&buf, &lastFlush)
				s.logger.Info("scheduler stopped, queue closed")
				return nil
			}
			buf = append(buf, n)
			if len(buf) >= s.batchSize {
				s.flush(&buf, &lastFlush)
			}

		case <-ticker.Chan():
			if s.clock.Since(lastFlush) >= s.flushInterval {
				s.flush(&buf, &lastFlush)
			}
		}
	}
}

// drainPending pulls whatever is already queued without blocking.
func (s *Scheduler) drainPending(buf *[]models.Notification) {
	for {
		select {
		case n, ok := <-s.queue.C():
			if !ok {
				return
			}
			*buf = append(*buf, n)
		default:
			return
		}
	}
}

// flush snapshots the buffer, hands the copy to the dispatcher, and resets
// the buffer. The worker never sees the live slice.
func (s *Scheduler) flush(buf *[]models.Notification, lastFlush *time.Time) {
	*lastFlush = s.clock.Now()

	if len(*buf) == 0 {
		return
	}

	batch := make(models.Batch, len(*buf))
	copy(batch, *buf)
	*buf = (*buf)[:0]

	metrics.BatchSize.Observe(float64(len(batch)))
	metrics.BatchFlushesTotal.Inc()

	s.logger.Debugw("flushing batch", "size", len(batch))
	s.dispatcher.Dispatch(batch)
}
