package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// Product searches served, by sort mode
	SearchRequests = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "myjara_search_requests_total",
		Help: "Total number of product searches by sort mode",
	}, []string{"sort"})

	SearchLatency = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "myjara_search_latency_seconds",
		Help:    "Latency of product search including ranking",
		Buckets: prometheus.DefBuckets,
	})

	ChatMessagesSent = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "myjara_chat_messages_sent_total",
		Help: "Total chat messages persisted",
	})

	ChatActiveSubscriptions = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "myjara_chat_active_subscriptions",
		Help: "Live room subscriptions currently open",
	})

	// Reads answered with an empty list because the store failed
	ChatDegradedReads = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "myjara_chat_degraded_reads_total",
		Help: "Chat reads that fell back to an empty result",
	}, []string{"operation"})

	ChatFeedDropped = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "myjara_chat_feed_dropped_total",
		Help: "Messages dropped because a subscriber buffer was full",
	})
)

func Init() {
	prometheus.MustRegister(
		SearchRequests,
		SearchLatency,
		ChatMessagesSent,
		ChatActiveSubscriptions,
		ChatDegradedReads,
		ChatFeedDropped,
	)
}
