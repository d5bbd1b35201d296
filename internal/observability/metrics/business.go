package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// source: primary, fallback, empty, error
	PopularResolutionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popular_posts_resolutions_total",
		Help: "Popular-posts resolutions by the source that produced the answer.",
	}, []string{"source"})

	// reason: error, timeout, panic
	PopularTierFaultsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "popular_posts_tier_faults_total",
		Help: "Resolver tiers that failed to produce a result.",
	}, []string{"tier", "reason"})

	PopularResolveDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "popular_posts_resolve_duration_seconds",
		Help:    "Wall time of a full popular-posts resolution.",
		Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
	})

	// event: view, like, bookmark, unlike, unbookmark
	// result: applied, duplicate, failure
	EngagementEventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "engagement_events_total",
		Help: "View and reaction mutations by outcome.",
	}, []string{"event", "result"})

	ChatResponsesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "chat_responses_total",
		Help: "Assistant answers by the provider that produced them.",
	}, []string{"provider"})

	ChatDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "chat_duration_seconds",
		Help:    "Time to answer a chat query.",
		Buckets: prometheus.ExponentialBuckets(0.1, 2, 10),
	}, []string{"provider"})

	CatalogPostsTotal = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "catalog_posts_total",
		Help: "Published posts in the current catalog snapshot.",
	})
)

// RecordPopularResolution records the winning source of a resolution and its
// duration.
func RecordPopularResolution(source string, duration time.Duration) {
	PopularResolutionsTotal.WithLabelValues(source).Inc()
	PopularResolveDuration.Observe(duration.Seconds())
}

// RecordPopularTierFault records a tier that errored, timed out or panicked.
func RecordPopularTierFault(tier, reason string) {
	PopularTierFaultsTotal.WithLabelValues(tier, reason).Inc()
}

// RecordEngagement records a view or reaction mutation.
func RecordEngagement(event, result string) {
	EngagementEventsTotal.WithLabelValues(event, result).Inc()
}

// RecordChatResponse records which provider answered a chat query.
func RecordChatResponse(provider string, duration time.Duration) {
	ChatResponsesTotal.WithLabelValues(provider).Inc()
	ChatDuration.WithLabelValues(provider).Observe(duration.Seconds())
}

func UpdateCatalogPosts(count int) {
	CatalogPostsTotal.Set(float64(count))
}
