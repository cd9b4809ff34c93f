package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeScheduled = "scheduled"
	OutcomeConflict  = "conflict"
	OutcomeError     = "error"
)

type Collector struct {
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec
	InFlightGauge   prometheus.Gauge

	BookingsTotal         *prometheus.CounterVec
	OverlapConflictsTotal prometheus.Counter
	SlotsCreatedTotal     prometheus.Counter
	CancellationsTotal    *prometheus.CounterVec
}

func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		RequestsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests by method, path, and status code.",
		}, []string{"method", "path", "status"}),

		RequestDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "appointments",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "HTTP request latency distribution.",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1.0, 2.5},
		}, []string{"method", "path", "status"}),

		InFlightGauge: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "appointments",
			Subsystem: "http",
			Name:      "in_flight_requests",
			Help:      "Current number of in-flight HTTP requests.",
		}),

		BookingsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "bookings_total",
			Help:      "Booking attempts by outcome.",
		}, []string{"outcome"}),

		OverlapConflictsTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "overlap_conflicts_total",
			Help:      "Availability writes rejected for overlapping an existing slot.",
		}),

		SlotsCreatedTotal: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "slots_created_total",
			Help:      "Availabilities created.",
		}),

		CancellationsTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "appointments",
			Subsystem: "booking",
			Name:      "cancellations_total",
			Help:      "Cancellations by entity.",
		}, []string{"entity"}),
	}
}
