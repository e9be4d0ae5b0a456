package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking dialogue and intent routing.
type BookingMetrics struct {
	turnsTotal    *prometheus.CounterVec
	finalizeTotal *prometheus.CounterVec
	sweptTotal    prometheus.Counter
	intentTotal   *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		turnsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "booking",
			Name:      "turns_total",
			Help:      "Booking dialogue turns by resulting state",
		}, []string{"state"}),
		finalizeTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "booking",
			Name:      "finalize_total",
			Help:      "Booking finalize attempts by outcome",
		}, []string{"outcome"}),
		sweptTotal: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "medconsult",
			Subsystem: "booking",
			Name:      "sessions_swept_total",
			Help:      "Expired booking sessions removed by the sweeper",
		}),
		intentTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "medconsult",
			Name:      "intent_total",
			Help:      "Routed chat turns by intent and classification source",
		}, []string{"intent", "source"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.turnsTotal, m.finalizeTotal, m.sweptTotal, m.intentTotal)
	return m
}

func (m *BookingMetrics) ObserveTurn(state string) {
	if m == nil {
		return
	}
	m.turnsTotal.WithLabelValues(state).Inc()
}

func (m *BookingMetrics) ObserveFinalize(outcome string) {
	if m == nil {
		return
	}
	m.finalizeTotal.WithLabelValues(outcome).Inc()
}

func (m *BookingMetrics) ObserveSwept(n int) {
	if m == nil || n <= 0 {
		return
	}
	m.sweptTotal.Add(float64(n))
}

func (m *BookingMetrics) ObserveIntent(intent, source string) {
	if m == nil {
		return
	}
	m.intentTotal.WithLabelValues(intent, source).Inc()
}
