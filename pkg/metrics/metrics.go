package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Downloader metrics
	TileFetches = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "tiles_fetches_total",
		Help: "Total number of tile fetches by outcome",
	}, []string{"outcome"})

	TileFetchBytes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_fetch_bytes_total",
		Help: "Total number of tile bytes written to the store",
	})

	UpstreamLatency = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "tiles_upstream_latency_seconds",
		Help:    "Latency of upstream tile fetches in seconds",
		Buckets: prometheus.DefBuckets,
	})

	InFlightFetches = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "tiles_in_flight_fetches",
		Help: "Number of tile fetches currently running",
	})

	ZoomsCompleted = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_zooms_completed_total",
		Help: "Total number of zoom levels fully drained",
	})

	// Server metrics
	TilesRequests = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_requests_total",
		Help: "Total number of tile requests",
	})

	TilesNotFound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "tiles_not_found_total",
		Help: "Total number of tile requests for tiles that are not downloaded",
	})

	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_hits_total",
		Help: "Total number of redis cache hits",
	})

	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cache_misses_total",
		Help: "Total number of redis cache misses",
	})

	RedisOperationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "redis_operation_duration_seconds",
		Help:    "Duration of Redis operations in seconds",
		Buckets: []float64{.0001, .0005, .001, .005, .01, .025, .05, .1, .25, .5, 1},
	}, []string{"operation"})

	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "redis_errors_total",
		Help: "Total number of Redis errors",
	}, []string{"operation"})
)
