package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Registration outcomes.
const (
	OutcomeCreated   = "created"
	OutcomeDuplicate = "duplicate"
	OutcomeMalformed = "malformed"
	OutcomeError     = "error"
)

// Publish results.
const (
	ResultOK     = "ok"
	ResultFailed = "failed"
)

// Metrics holds all Prometheus metrics for the service.
type Metrics struct {
	Registrations   *prometheus.CounterVec
	EventsPublished *prometheus.CounterVec
	EventsSpooled   *prometheus.CounterVec
}

// New creates the metrics and registers them with reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		Registrations: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usersvc_registrations_total",
			Help: "Registration requests by outcome",
		}, []string{"outcome"}),
		EventsPublished: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usersvc_events_published_total",
			Help: "Event publish attempts by event kind and result",
		}, []string{"event", "result"}),
		EventsSpooled: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "usersvc_events_spooled_total",
			Help: "Events written to the spool after a failed publish",
		}, []string{"event"}),
	}
}

// ObserveRegistration increments the registration counter for outcome.
func (m *Metrics) ObserveRegistration(outcome string) {
	if m == nil {
		return
	}
	m.Registrations.WithLabelValues(outcome).Inc()
}

// ObservePublish increments the publish counter for event and result.
func (m *Metrics) ObservePublish(event, result string) {
	if m == nil {
		return
	}
	m.EventsPublished.WithLabelValues(event, result).Inc()
}

// ObserveSpooled increments the spooled counter for event.
func (m *Metrics) ObserveSpooled(event string) {
	if m == nil {
		return
	}
	m.EventsSpooled.WithLabelValues(event).Inc()
}
