package realtime

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// connectionsActive tracks connections registered in a delivery group.
	connectionsActive = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "agriconnect",
		Subsystem: "realtime",
		Name:      "connections_active",
		Help:      "Websocket connections currently joined to a delivery group",
	})

	// eventsTotal counts emitted events per connection.
	// Labels: event, result (delivered, dropped)
	eventsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Subsystem: "realtime",
		Name:      "events_total",
		Help:      "Events handed to websocket connections",
	}, []string{"event", "result"})

	// pushFailures counts live pushes that reached no connection.
	// Labels: event, reason (offline, closed, encode)
	pushFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "agriconnect",
		Subsystem: "realtime",
		Name:      "push_failures_total",
		Help:      "Live pushes that could not be delivered",
	}, []string{"event", "reason"})
)

// RecordPushFailure counts a push that did not reach the recipient.
func RecordPushFailure(event, reason string) {
	pushFailures.WithLabelValues(event, reason).Inc()
}
