// Package metrics exposes the prometheus gauges/counters that give
// operational visibility into the subscription bus and projection engine,
// grounded in r3e-network-service_layer's use of
// github.com/prometheus/client_golang for exactly this kind of
// background-worker instrumentation.
package metrics

import "github.com/prometheus/client_golang/prometheus"

var (
	// SubscriptionDrops counts events dropped because a subscriber's queue
	// was full. The bus is at-most-once; durable consumers use the
	// projection engine instead.
	SubscriptionDrops = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: "eventstore",
		Subsystem: "subscription",
		Name:      "drops_total",
		Help:      "Events dropped because a subscriber's queue was full.",
	})

	// ProjectionCheckpointLag reports, per projection, how far the
	// checkpoint trails the latest known position, making eventual
	// completeness observable.
	ProjectionCheckpointLag = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "eventstore",
		Subsystem: "projection",
		Name:      "checkpoint_lag_position",
		Help:      "latestPosition - lastProcessedPosition for a projection/instance pair.",
	}, []string{"projection", "instance_id"})

	// ProjectionTickErrors counts failed ticks per projection; a poison
	// event blocks only its own projection.
	ProjectionTickErrors = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "eventstore",
		Subsystem: "projection",
		Name:      "tick_errors_total",
		Help:      "Failed projection ticks by projection name.",
	}, []string{"projection"})
)

func init() {
	prometheus.MustRegister(SubscriptionDrops, ProjectionCheckpointLag, ProjectionTickErrors)
}
