package reconciler

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics
var (
	watchersActive = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reconciler_active_watchers",
		Help: "Number of watchers currently polling the transfer feed",
	})

	matchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_matched_total",
		Help: "Requests resolved by a credited transfer match",
	})

	expiredTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_expired_total",
		Help: "Requests deleted after reaching expiry without a match",
	})

	cancelledTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_cancelled_total",
		Help: "Watchers retired because their request was deleted elsewhere",
	})

	feedErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_feed_errors_total",
		Help: "Transient transfer feed fetch failures",
	})

	duplicateCreditsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_duplicate_credits_total",
		Help: "Credit attempts rejected because the transaction id was already consumed",
	})

	storageErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_storage_errors_total",
		Help: "Unexpected storage failures surfaced by watchers or sweeps",
	})

	deferredSpawnsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reconciler_deferred_spawns_total",
		Help: "Watcher spawns deferred because the pool was at capacity",
	})
)
