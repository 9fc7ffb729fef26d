package reports

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheMetricsMu          sync.Mutex
	cacheMetricsInitialized bool

	cacheHitCounter   *prometheus.CounterVec
	cacheMissCounter  *prometheus.CounterVec
	buildHistogram    *prometheus.HistogramVec
	cacheMetricsError error
)

// SetupCacheMetrics registers the report cache collectors once; later calls
// return the first outcome.
func SetupCacheMetrics(reg prometheus.Registerer) error {
	cacheMetricsMu.Lock()
	defer cacheMetricsMu.Unlock()
	if cacheMetricsInitialized {
		return cacheMetricsError
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	hits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiv_report_cache_hits_total",
		Help: "Number of report cache hits.",
	}, []string{"report"})
	misses := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "shiv_report_cache_miss_total",
		Help: "Number of report cache misses.",
	}, []string{"report"})
	builds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "shiv_report_build_duration_seconds",
		Help:    "Time spent aggregating a report from the ledger.",
		Buckets: prometheus.DefBuckets,
	}, []string{"report"})

	cacheHitCounter, cacheMissCounter, buildHistogram = hits, misses, builds
	for _, collector := range []prometheus.Collector{hits, misses, builds} {
		if err := reg.Register(collector); err != nil {
			var already prometheus.AlreadyRegisteredError
			if errors.As(err, &already) {
				switch c := already.ExistingCollector.(type) {
				case *prometheus.CounterVec:
					if collector == prometheus.Collector(hits) {
						cacheHitCounter = c
					} else {
						cacheMissCounter = c
					}
				case *prometheus.HistogramVec:
					buildHistogram = c
				default:
					cacheMetricsError = fmt.Errorf("report cache metrics: unexpected collector type %T", c)
				}
				continue
			}
			cacheMetricsError = err
			cacheHitCounter = nil
			cacheMissCounter = nil
			buildHistogram = nil
			cacheMetricsInitialized = true
			return cacheMetricsError
		}
	}

	cacheMetricsInitialized = true
	return cacheMetricsError
}

func recordCacheResult(report string, hit bool) {
	counter := cacheMissCounter
	if hit {
		counter = cacheHitCounter
	}
	if counter == nil {
		return
	}
	counter.WithLabelValues(report).Inc()
}

func observeBuildDuration(report string, duration time.Duration) {
	if buildHistogram == nil {
		return
	}
	buildHistogram.WithLabelValues(report).Observe(duration.Seconds())
}
