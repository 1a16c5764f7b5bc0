package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// IncMessages counts one bus message for topic with the given routing outcome.
func (m *Metrics) IncMessages(topic, outcome string) {
	if m == nil {
		return
	}
	m.messagesTotal.WithLabelValues(topic, outcome).Inc()
}

// IncRejected counts a payload rejected by validation in sink.
func (m *Metrics) IncRejected(sink, reason string) {
	if m == nil {
		return
	}
	m.recordsRejected.WithLabelValues(sink, reason).Inc()
}

// IncSkippedWindows counts an empty aggregate window that was acknowledged without a write.
func (m *Metrics) IncSkippedWindows(sink string) {
	if m == nil {
		return
	}
	m.windowsSkipped.WithLabelValues(sink).Inc()
}

// ObserveSinkWrite records the outcome and duration of a sink write.
// Example: defer func() { m.ObserveSinkWrite("timeseries", start, ok) }()
func (m *Metrics) ObserveSinkWrite(sink string, start time.Time, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.sinkWrites.WithLabelValues(sink, status).Inc()
	m.sinkWriteDuration.WithLabelValues(sink).Observe(time.Since(start).Seconds())
}

// SetServiceState publishes the connection state of a backend kind.
func (m *Metrics) SetServiceState(kind string, state int) {
	if m == nil {
		return
	}
	m.serviceState.WithLabelValues(kind).Set(float64(state))
}

// IncServiceConnect counts a backend connect attempt.
func (m *Metrics) IncServiceConnect(kind string, ok bool) {
	if m == nil {
		return
	}
	status := "success"
	if !ok {
		status = "failure"
	}
	m.serviceConnectTotal.WithLabelValues(kind, status).Inc()
}

// SetSchemaFields publishes how many fields are loaded for a schema role (core, extra, tag).
func (m *Metrics) SetSchemaFields(role string, n int) {
	if m == nil {
		return
	}
	m.schemaFields.WithLabelValues(role).Set(float64(n))
}

// createCounterVec defines a new CounterVec with standard options.
func createCounterVec(name, help string, labels []string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}

// createHistogramVec defines a new HistogramVec with configurable buckets.
func createHistogramVec(name, help string, labels []string, buckets []float64) *prometheus.HistogramVec {
	return prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    name,
			Help:    help,
			Buckets: buckets,
		},
		labels,
	)
}

// createGaugeVec defines a new GaugeVec.
func createGaugeVec(name, help string, labels []string) *prometheus.GaugeVec {
	return prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: name,
			Help: help,
		},
		labels,
	)
}
