package tableovertwo

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/AaronRDurant/table-over-two/content"
)

var (
	// ContentFetchTotal counts content API calls by resource and outcome.
	ContentFetchTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableovertwo",
			Name:      "content_fetch_total",
			Help:      "Total number of content API fetches",
		},
		[]string{"resource", "outcome"},
	)

	// ContentFetchDuration measures content API latency.
	ContentFetchDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "tableovertwo",
			Name:      "content_fetch_duration_seconds",
			Help:      "Duration of content API fetches in seconds",
			Buckets:   prometheus.DefBuckets,
		},
		[]string{"resource"},
	)

	// PreferenceChangesTotal counts theme and team updates.
	PreferenceChangesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "tableovertwo",
			Name:      "preference_changes_total",
			Help:      "Total number of reader preference changes",
		},
		[]string{"preference", "status"},
	)
)

// FetchMetrics records content client calls. It implements content.Observer.
type FetchMetrics struct{}

func (FetchMetrics) ObserveFetch(resource content.Resource, outcome string, elapsed time.Duration) {
	ContentFetchTotal.WithLabelValues(string(resource), outcome).Inc()
	ContentFetchDuration.WithLabelValues(string(resource)).Observe(elapsed.Seconds())
}

func recordPreference(preference, status string) {
	PreferenceChangesTotal.WithLabelValues(preference, status).Inc()
}
