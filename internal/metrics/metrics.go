// File: internal/metrics/metrics.go
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	namespace = "propspot"

	LabelMethod     = "method"
	LabelPath       = "path"
	LabelStatus     = "status"
	LabelCollection = "collection"
	LabelOperation  = "operation"
	LabelStep       = "step"
	LabelResult     = "result"
	LabelJob        = "job"
)

// HTTP metrics
var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		},
		[]string{LabelMethod, LabelPath, LabelStatus},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{LabelMethod, LabelPath},
	)

	HTTPRequestsInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_requests_in_flight",
			Help:      "Current number of HTTP requests being served",
		},
	)
)

// Mirror metrics
var (
	MirrorSnapshotsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mirror_snapshots_total",
			Help:      "Snapshots applied to a collection mirror",
		},
		[]string{LabelCollection},
	)

	MirrorDocuments = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "mirror_documents",
			Help:      "Documents currently held in a collection mirror",
		},
		[]string{LabelCollection},
	)

	SubscriptionErrorsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "subscription_errors_total",
			Help:      "Errors reported by standing collection subscriptions",
		},
		[]string{LabelCollection},
	)
)

// Workflow metrics
var (
	AccountStepsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "account_operation_steps_total",
			Help:      "Account operation steps by outcome",
		},
		[]string{LabelOperation, LabelStep, LabelResult},
	)

	RegistrationsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Registration workflow transitions",
		},
		[]string{LabelResult},
	)

	JobRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "job_runs_total",
			Help:      "Background job runs by outcome",
		},
		[]string{LabelJob, LabelResult},
	)
)
