package monitoring

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var latencyBuckets = []float64{0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 20, 45}

var (
	// HTTP 请求指标
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"server", "method", "path", "status_class"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "essayproxy_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds",
			Buckets: latencyBuckets,
		},
		[]string{"server", "method", "path", "status_class"},
	)

	HTTPInFlight = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "essayproxy_http_inflight",
			Help: "Number of HTTP requests currently being processed",
		},
	)

	// 上游调用指标，按尝试结果分类
	UpstreamAttemptsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_upstream_attempts_total",
			Help: "Upstream generateContent attempts by outcome",
		},
		[]string{"model", "outcome"},
	)

	UpstreamAttemptDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "essayproxy_upstream_attempt_duration_seconds",
			Help:    "Latency of a single upstream attempt",
			Buckets: latencyBuckets,
		},
		[]string{"model", "outcome"},
	)

	UpstreamNetworkErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_upstream_network_errors_total",
			Help: "Upstream transport failures by reason",
		},
		[]string{"reason"},
	)

	// 轮换指标
	RotationAdvancesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "essayproxy_rotation_advances_total",
			Help: "Number of times the shared rotation index was advanced",
		},
	)

	RotationRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_rotation_runs_total",
			Help: "Engine runs by terminal state",
		},
		[]string{"result"},
	)

	RotationAttemptsPerRun = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "essayproxy_rotation_attempts_per_run",
			Help:    "Number of upstream attempts made by one engine run",
			Buckets: prometheus.LinearBuckets(1, 1, 10),
		},
	)

	// 索引存储指标
	IndexStoreOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_index_store_operations_total",
			Help: "Index store operations by backend, op and result",
		},
		[]string{"backend", "operation", "result"},
	)

	IndexStoreLatency = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "essayproxy_index_store_latency_seconds",
			Help:    "Latency of index store operations",
			Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.25, 0.5, 1, 2},
		},
		[]string{"backend", "operation"},
	)

	IndexStoreFailOpen = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "essayproxy_index_store_fail_open_total",
			Help: "Store failures absorbed by the fail-open wrapper",
		},
		[]string{"operation"},
	)

	CredentialPoolSize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "essayproxy_credential_pool_size",
			Help: "Number of API keys in the most recently used pool",
		},
	)

	RateLimitRejectedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "essayproxy_rate_limit_rejected_total",
			Help: "Inbound requests rejected by the per-client rate limiter",
		},
	)
)
