package metrics

import "github.com/prometheus/client_golang/prometheus"

// SeatMetrics tracks seat assignment outcomes across corporate licenses.
type SeatMetrics struct {
	assignments *prometheus.CounterVec
}

const (
	SeatResultAssigned   = "assigned"
	SeatResultUnassigned = "unassigned"
	SeatResultRejected   = "capacity_rejected"
)

// NewSeatMetrics registers the seat counters on the provided registerer.
func NewSeatMetrics(reg prometheus.Registerer) *SeatMetrics {
	if reg == nil {
		return &SeatMetrics{}
	}
	assignments := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "seat_assignments_total",
		Help: "Seat assignment attempts by outcome.",
	}, []string{"result"})
	reg.MustRegister(assignments)
	return &SeatMetrics{assignments: assignments}
}

// IncResult increments the counter for the given assignment outcome.
func (s *SeatMetrics) IncResult(result string) {
	if s == nil || s.assignments == nil {
		return
	}
	s.assignments.WithLabelValues(normalizeLabel(result)).Inc()
}

// WebhookMetrics tracks processed payment webhook deliveries.
type WebhookMetrics struct {
	events *prometheus.CounterVec
}

const (
	WebhookOutcomeProcessed = "processed"
	WebhookOutcomeDuplicate = "duplicate"
	WebhookOutcomeFailed    = "failed"
	WebhookOutcomeIgnored   = "ignored"
)

// NewWebhookMetrics registers the webhook counters on the provided registerer.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	if reg == nil {
		return &WebhookMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "webhook_events_total",
		Help: "Stripe webhook deliveries by event type and outcome.",
	}, []string{"type", "outcome"})
	reg.MustRegister(events)
	return &WebhookMetrics{events: events}
}

// IncEvent increments the counter for the given event type and outcome.
func (w *WebhookMetrics) IncEvent(eventType, outcome string) {
	if w == nil || w.events == nil {
		return
	}
	w.events.WithLabelValues(normalizeLabel(eventType), normalizeLabel(outcome)).Inc()
}
