package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const namespace = "feuerwehr"

var (
	EventsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_published_total",
		Help:      "Messages accepted by the outbound event queue, by type.",
	}, []string{"type"})

	EventsDropped = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "events_dropped_total",
		Help:      "Messages dropped because the outbound event queue was full.",
	})

	BroadcastDeliveries = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_deliveries_total",
		Help:      "Successful deliveries to live subscribers.",
	})

	BroadcastPruned = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "broadcast_pruned_total",
		Help:      "Subscribers removed after a failed delivery.",
	})

	Subscribers = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "broadcast_subscribers",
		Help:      "Currently connected live subscribers.",
	})

	ActivationTicks = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activation_ticks_total",
		Help:      "Activation loop iterations.",
	})

	ActivationErrors = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "activation_errors_total",
		Help:      "Activation loop iterations that failed.",
	})

	IncidentsActivated = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "incidents_activated_total",
		Help:      "Incidents switched from new to active by the activation loop.",
	})

	GeocodeRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "geocode_requests_total",
		Help:      "Geocoder lookups, by result (hit, miss, error).",
	}, []string{"result"})
)
