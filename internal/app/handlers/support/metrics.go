package support

// Metrics receives engine outcomes. The obs package backs it with Prometheus.
type Metrics interface {
	AvailabilityChecked(conflict bool)
	BookingCreated(outcome string)
	BookingTransition(from, to string)
	PaymentRecorded(status string)
}

type NoopMetrics struct{}

func (NoopMetrics) AvailabilityChecked(bool)         {}
func (NoopMetrics) BookingCreated(string)            {}
func (NoopMetrics) BookingTransition(string, string) {}
func (NoopMetrics) PaymentRecorded(string)           {}

// MetricsOrNoop avoids nil checks in handlers.
func MetricsOrNoop(m Metrics) Metrics {
	if m == nil {
		return NoopMetrics{}
	}
	return m
}
