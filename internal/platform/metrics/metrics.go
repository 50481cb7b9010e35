// Package metrics declares the Prometheus collectors starcheck exports
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	// Pipeline

	QueueDepth = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starcheck_queue_depth",
		Help: "Items currently buffered in the ingest queue",
	})

	Pending = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starcheck_pending",
		Help: "Packages claimed by the producer and not yet finished by a worker",
	})

	ActiveWorkers = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starcheck_active_workers",
		Help: "Workers currently processing an item",
	})

	Items = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_items_total",
		Help: "Pipeline item transitions by resulting state",
	}, []string{"state"})

	AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "starcheck_analysis_duration_seconds",
		Help:    "Wall time of one repository analysis",
		Buckets: []float64{0.5, 1, 5, 15, 30, 60, 120, 300, 600, 1800},
	}, []string{"status"})

	Verdicts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_verdicts_total",
		Help: "Verdicts produced by status and suspicion",
	}, []string{"status", "suspicious"})

	// Idempotency cache

	DedupClaims = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_dedup_claims_total",
		Help: "Claim attempts by namespace and result (claimed, duplicate, error)",
	}, []string{"namespace", "result"})

	// Code host

	GitHubRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_github_requests_total",
		Help: "GitHub REST calls by endpoint and HTTP status",
	}, []string{"endpoint", "status"})

	GitHubRateRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starcheck_github_rate_remaining",
		Help: "Last observed X-RateLimit-Remaining",
	})

	GitHubBreakerState = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "starcheck_github_breaker_state",
		Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
	})

	// Registry

	RegistryReleases = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_registry_releases_total",
		Help: "Releases observed per registry source",
	}, []string{"source"})

	RegistryPollErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_registry_poll_errors_total",
		Help: "Failed registry polls per source",
	}, []string{"source"})

	// Sink

	SinkDropped = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_sink_dropped_total",
		Help: "Reports dropped because the sink buffer was full",
	}, []string{"kind"})

	SinkWriteErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "starcheck_sink_write_errors_total",
		Help: "Failed sink writes per writer",
	}, []string{"writer"})
)

// Handler serves the default registry in the exposition format
func Handler() http.Handler { return promhttp.Handler() }
