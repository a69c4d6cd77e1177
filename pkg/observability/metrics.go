package observability

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Global collector instance for singleton pattern
	globalCollector *Collector
	collectorMutex  sync.Mutex
)

// Collector holds all Prometheus metrics for the application
type Collector struct {
	registry *prometheus.Registry

	// HTTP metrics
	HTTPRequests *prometheus.CounterVec
	HTTPDuration *prometheus.HistogramVec

	// Editor metrics
	SessionsCreated       prometheus.Counter
	RelationshipsCreated  *prometheus.CounterVec
	RelationshipsRejected *prometheus.CounterVec
	RelationshipsPruned   prometheus.Counter
	DragMoves             prometheus.Counter

	// Collaborator metrics
	CollaboratorCalls *prometheus.CounterVec
	MergeSubmissions  *prometheus.CounterVec
}

// NewCollector creates a new metrics collector with the given namespace
func NewCollector(namespace string) *Collector {
	// Singleton avoids duplicate registration across tests
	collectorMutex.Lock()
	defer collectorMutex.Unlock()

	if globalCollector != nil {
		return globalCollector
	}

	registry := prometheus.NewRegistry()

	httpRequests := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	httpDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request duration in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	sessionsCreated := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sessions_created_total",
			Help:      "Total number of editor sessions created",
		},
	)

	relationshipsCreated := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_created_total",
			Help:      "Total number of relationships added to stores",
		},
		[]string{"origin"},
	)

	relationshipsRejected := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_rejected_total",
			Help:      "Total number of relationship attempts rejected by guards",
		},
		[]string{"reason"},
	)

	relationshipsPruned := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "relationships_pruned_total",
			Help:      "Total number of dangling relationships pruned on refresh",
		},
	)

	dragMoves := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "drag_moves_total",
			Help:      "Total number of drag pointer-move updates applied",
		},
	)

	collaboratorCalls := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "collaborator_calls_total",
			Help:      "Total number of calls to the analysis backend",
		},
		[]string{"operation", "status"},
	)

	mergeSubmissions := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "merge_submissions_total",
			Help:      "Total number of merge submissions by outcome",
		},
		[]string{"outcome"},
	)

	registry.MustRegister(
		httpRequests,
		httpDuration,
		sessionsCreated,
		relationshipsCreated,
		relationshipsRejected,
		relationshipsPruned,
		dragMoves,
		collaboratorCalls,
		mergeSubmissions,
	)

	globalCollector = &Collector{
		registry:              registry,
		HTTPRequests:          httpRequests,
		HTTPDuration:          httpDuration,
		SessionsCreated:       sessionsCreated,
		RelationshipsCreated:  relationshipsCreated,
		RelationshipsRejected: relationshipsRejected,
		RelationshipsPruned:   relationshipsPruned,
		DragMoves:             dragMoves,
		CollaboratorCalls:     collaboratorCalls,
		MergeSubmissions:      mergeSubmissions,
	}
	return globalCollector
}

// Handler returns the /metrics endpoint for this collector's registry
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one completed HTTP request
func (c *Collector) ObserveHTTP(method, route, status string, duration time.Duration) {
	c.HTTPRequests.WithLabelValues(method, route, status).Inc()
	c.HTTPDuration.WithLabelValues(method, route).Observe(duration.Seconds())
}
