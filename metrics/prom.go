package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	ProfileCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_profile_created_total",
		Help: "no. of profiles created",
	})
	PasteCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_created_total",
		Help: "no. of pastes created",
	})
	PasteUpdated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_updated_total",
		Help: "no. of paste updates",
	})
	PasteTombstoned = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_tombstoned_total",
		Help: "no. of pastes tombstoned by the expiry scheduler",
	})
	PasteRetrieved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_paste_retrieved_total",
		Help: "no. of pastes retrieved",
	})
	ShortLinkBound = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_short_link_bound_total",
		Help: "no. of short codes bound",
	})
	ShortLinkResolved = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_short_link_resolved_total",
		Help: "no. of short code resolutions",
	})
	CacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_cache_hits_total",
		Help: "no. of cache hits",
	})
	CacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "snipbin_cache_misses_total",
		Help: "no. of cache misses",
	})
	ScanDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snipbin_scan_duration_seconds",
			Help:    "linear predicate scan duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"predicate"},
	)
	RequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "snipbin_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "endpoint", "status"},
	)
	RateLimitHits = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "snipbin_rate_limit_hits_total",
			Help: "no. of rate limit violations",
		},
		[]string{"endpoint"},
	)
	ExpiryTimersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "snipbin_expiry_timers_active",
		Help: "no. of pending expiry timers",
	})
)

func Init() {
}
