package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	NotificationsReceivedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_received_total",
			Help: "Total number of notifications taken off the feed (count)",
		},
	)

	NotificationsDiscardedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_discarded_total",
			Help: "Total number of feed messages discarded before queueing (count)",
		},
		[]string{"reason"},
	)

	NotificationsFilteredTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notifications_filtered_total",
			Help: "Total number of notifications rejected by the filter policy (count)",
		},
		[]string{"reason"},
	)

	ArtifactsFetchedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "artifacts_fetched_total",
			Help: "Total number of artifact retrieval attempts (count)",
		},
		[]string{"status"},
	)

	FetchRetriesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "fetch_retries_total",
			Help: "Total number of artifact fetch retries (count)",
		},
	)

	DecodedMessagesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "decoded_messages_total",
			Help: "Total number of sub-messages decoded from artifacts (count)",
		},
	)

	DecodeErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "decode_errors_total",
			Help: "Total number of decode failures (count)",
		},
		[]string{"stage"},
	)

	NotificationsPersistedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "notifications_persisted_total",
			Help: "Total number of notification rows inserted (count)",
		},
	)

	RecordsPersistedTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "records_persisted_total",
			Help: "Total number of decoded record rows inserted (count)",
		},
	)

	PersistenceErrorsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "persistence_errors_total",
			Help: "Total number of failed database operations (count)",
		},
		[]string{"operation"},
	)

	BatchSize = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_size",
			Help:    "Number of notifications per flushed batch (count)",
			Buckets: []float64{1, 5, 10, 25, 50, 100, 250},
		},
	)

	BatchProcessingDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "ingest_batch_processing_duration_seconds",
			Help:    "Wall time spent processing one batch (seconds)",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120},
		},
	)

	BatchFlushesTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "ingest_batch_flushes_total",
			Help: "Total number of non-empty batch flushes (count)",
		},
	)

	QueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "ingest_queue_depth",
			Help: "Notifications waiting in the hand-off queue (count)",
		},
	)

	MQTTConnected = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "mqtt_connected",
			Help: "Whether the feed connection is up (1) or down (0)",
		},
	)

	AlertsReceivedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "alerts_received_total",
			Help: "Total number of webhook alerts received (count)",
		},
		[]string{"status"},
	)

	TicketsCreatedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tickets_created_total",
			Help: "Total number of tracking ticket creation attempts (count)",
		},
		[]string{"status"},
	)

	RateLimitRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "rate_limit_requests_total",
			Help: "Total number of requests checked against rate limit (count)",
		},
		[]string{"status"},
	)

	CircuitBreakerState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0=closed, 1=half-open, 2=open) (state code)",
		},
		[]string{"name"},
	)

	CircuitBreakerRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_requests_total",
			Help: "Total number of requests through circuit breaker (count)",
		},
		[]string{"name", "state"},
	)

	CircuitBreakerFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "circuit_breaker_failures_total",
			Help: "Total number of failures through circuit breaker (count)",
		},
		[]string{"name"},
	)
)

func RegisterIngestMetrics() {
	prometheus.MustRegister(
		NotificationsReceivedTotal,
		NotificationsDiscardedTotal,
		NotificationsFilteredTotal,
		ArtifactsFetchedTotal,
		FetchRetriesTotal,
		DecodedMessagesTotal,
		DecodeErrorsTotal,
		NotificationsPersistedTotal,
		RecordsPersistedTotal,
		PersistenceErrorsTotal,
		BatchSize,
		BatchProcessingDuration,
		BatchFlushesTotal,
		QueueDepth,
		MQTTConnected,
	)
}

func RegisterAlertMetrics() {
	prometheus.MustRegister(
		AlertsReceivedTotal,
		TicketsCreatedTotal,
		RateLimitRequestsTotal,
	)
}

func RegisterCircuitBreakerMetrics() {
	prometheus.MustRegister(
		CircuitBreakerState,
		CircuitBreakerRequests,
		CircuitBreakerFailures,
	)
}
