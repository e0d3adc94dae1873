// Package metrics exposes the raid handler's counters and gauges in
// Prometheus' plain-text exposition format, per §6 of the
// specification. It wraps prometheus/client_golang's own registry
// rather than hand-rolling label escaping or the HELP/TYPE header
// convention.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Factory is the opaque metric-handle factory described in §9's
// design notes: the handler never names a concrete metrics backend,
// only inc/dec/set operations on the handles Factory hands back.
type Factory struct {
	tweetsTotal          *prometheus.CounterVec
	subscriptions        *prometheus.GaugeVec
	websocketConnections prometheus.Gauge
}

// NewFactory registers the three metric families enumerated in §6
// against registerer (typically prometheus.NewRegistry(), kept
// separate from the global DefaultRegisterer so tests can construct
// fresh, unregistered factories freely).
func NewFactory(registerer prometheus.Registerer) *Factory {
	factory := promauto.With(registerer)

	return &Factory{
		tweetsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "petronel_tweets_total",
			Help: "Total accepted raid tweets, by boss name and language.",
		}, []string{"name_ja", "name_en", "lang"}),

		subscriptions: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "petronel_subscriptions",
			Help: "Current per-boss subscriber count.",
		}, []string{"name_ja", "name_en"}),

		websocketConnections: factory.NewGauge(prometheus.GaugeOpts{
			Name: "petronel_websocket_connections",
			Help: "Current number of open websocket connections.",
		}),
	}
}

// IncTweet records one accepted raid tweet for the given boss name
// pair and language tag.
func (f *Factory) IncTweet(nameJA, nameEN, lang string) {
	f.tweetsTotal.WithLabelValues(nameJA, nameEN, lang).Inc()
}

// SetSubscriptions reports the current subscriber count for a boss.
func (f *Factory) SetSubscriptions(nameJA, nameEN string, count int) {
	f.subscriptions.WithLabelValues(nameJA, nameEN).Set(float64(count))
}

// DeleteSubscriptions removes the subscription gauge for a boss that
// no longer exists, so stale label sets don't linger after eviction.
func (f *Factory) DeleteSubscriptions(nameJA, nameEN string) {
	f.subscriptions.DeleteLabelValues(nameJA, nameEN)
}

// IncWebsocketConnections records a newly opened websocket connection.
func (f *Factory) IncWebsocketConnections() {
	f.websocketConnections.Inc()
}

// DecWebsocketConnections records a closed websocket connection.
func (f *Factory) DecWebsocketConnections() {
	f.websocketConnections.Dec()
}
