package ingest

import (
	"sync"
	"sync/atomic"

	"synoptic/pkg/metrics"
	"synoptic/pkg/models"
)

// Queue is the hand-off between the subscriber and the scheduler. It is
// unbounded so the subscriber never blocks behind a slow consumer; bursts
// accumulate in memory instead of being dropped. Always wired explicitly
// by construction, never as shared global state.
type Queue struct {
	in    chan models.Notification
	out   chan models.Notification
	depth atomic.Int64

	mu     sync.Mutex
	closed bool
}

func NewQueue() *Queue {
	q := &Queue{
		in:  make(chan models.Notification),
		out: make(chan models.Notification),
	}
	go q.pump()
	return q
}

func (q *Queue) pump() {
	var buf []models.Notification
	in := q.in

	for {
		var out chan models.Notification
		var next models.Notification
		if len(buf) > 0 {
			out = q.out
			next = buf[0]
		} else if in == nil {
			close(q.out)
			return
		}

		select {
		case n, ok := <-in:
			if !ok {
				in = nil
				continue
			}
			buf = append(buf, n)
		case out <- next:
			buf = buf[1:]
			q.depth.Add(-1)
			metrics.QueueDepth.Dec()
		}
	}
}

// Put enqueues one notification. It only blocks for the pump's next
// select iteration, never on the consumer. A Put racing past Close, as a
// transport callback can during shutdown, drops the notification and
// counts it instead of panicking.
func (q *Queue) Put(n models.Notification) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		metrics.NotificationsDiscardedTotal.WithLabelValues("shutdown").Inc()
		return
	}

	q.depth.Add(1)
	metrics.QueueDepth.Inc()
	q.in <- n
}

// C is the receive side. It is closed once Close has been called and the
// backlog has drained.
func (q *Queue) C() <-chan models.Notification {
	return q.out
}

func (q *Queue) Len() int {
	return int(q.depth.Load())
}

// Close stops intake. Queued notifications remain receivable until empty;
// later Puts are dropped. Safe to call more than once.
func (q *Queue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}
	q.closed = true
	close(q.in)
}
