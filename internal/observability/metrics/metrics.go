package metrics

import "github.com/prometheus/client_golang/prometheus"

// BookingMetrics exposes counters for the booking flow.
type BookingMetrics struct {
	createdTotal *prometheus.CounterVec
	failedTotal  *prometheus.CounterVec
}

func NewBookingMetrics(reg prometheus.Registerer) *BookingMetrics {
	m := &BookingMetrics{
		createdTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicportal",
			Subsystem: "booking",
			Name:      "created_total",
			Help:      "Total appointments created through the portal",
		}, []string{"type"}),
		failedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicportal",
			Subsystem: "booking",
			Name:      "failed_total",
			Help:      "Total booking attempts rejected, by classified reason",
		}, []string{"reason"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.createdTotal, m.failedTotal)
	return m
}

func (m *BookingMetrics) ObserveCreated(apptType string) {
	if m == nil {
		return
	}
	m.createdTotal.WithLabelValues(apptType).Inc()
}

func (m *BookingMetrics) ObserveFailed(reason string) {
	if m == nil {
		return
	}
	m.failedTotal.WithLabelValues(reason).Inc()
}

// NotificationMetrics exposes counters for dispatch and retry flows.
type NotificationMetrics struct {
	dispatchedTotal *prometheus.CounterVec
	sendTotal       *prometheus.CounterVec
	retryTotal      *prometheus.CounterVec
}

func NewNotificationMetrics(reg prometheus.Registerer) *NotificationMetrics {
	m := &NotificationMetrics{
		dispatchedTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicportal",
			Subsystem: "notify",
			Name:      "dispatched_total",
			Help:      "Total recipient jobs enqueued, by event and audience",
		}, []string{"event", "audience"}),
		sendTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicportal",
			Subsystem: "notify",
			Name:      "send_total",
			Help:      "Total WhatsApp send outcomes",
		}, []string{"outcome"}),
		retryTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicportal",
			Subsystem: "notify",
			Name:      "retry_total",
			Help:      "Total ledger retry outcomes",
		}, []string{"outcome", "mode"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.dispatchedTotal, m.sendTotal, m.retryTotal)
	return m
}

func (m *NotificationMetrics) ObserveDispatched(event, audience string) {
	if m == nil {
		return
	}
	m.dispatchedTotal.WithLabelValues(event, audience).Inc()
}

func (m *NotificationMetrics) ObserveSend(outcome string) {
	if m == nil {
		return
	}
	m.sendTotal.WithLabelValues(outcome).Inc()
}

func (m *NotificationMetrics) ObserveRetry(outcome, mode string) {
	if m == nil {
		return
	}
	m.retryTotal.WithLabelValues(outcome, mode).Inc()
}
