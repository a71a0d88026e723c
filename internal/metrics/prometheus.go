package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsTotal общее количество запросов
	RequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	// RequestDuration продолжительность запросов
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint"},
	)

	// AnalysesTotal запуски анализа по итоговому статусу (SUCCESS, NO_DATA, ERROR)
	AnalysesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analyses_total",
			Help: "Total number of analysis runs by outcome",
		},
		[]string{"resource_id", "status"},
	)

	// AnomaliesDetected значения, помеченные моделью как ANOMALY
	AnomaliesDetected = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "anomalies_detected_total",
			Help: "Total number of samples labeled as anomalies",
		},
		[]string{"resource_id"},
	)

	// SamplesFetched размер последнего окна из CloudWatch
	SamplesFetched = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "samples_fetched",
			Help: "Number of samples returned by the last CloudWatch query",
		},
		[]string{"resource_id"},
	)

	// FetchLatency задержка запроса к CloudWatch
	FetchLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "cloudwatch_fetch_latency_seconds",
			Help:    "CloudWatch GetMetricData latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// ScoringLatency задержка обучения и разметки
	ScoringLatency = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "scoring_latency_seconds",
			Help:    "Isolation forest fit and predict latency in seconds",
			Buckets: []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		},
	)

	// RedisOperations операции с Redis
	RedisOperations = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "redis_operations_total",
			Help: "Total number of Redis operations",
		},
		[]string{"operation", "status"},
	)
)
