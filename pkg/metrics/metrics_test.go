package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNilMetricsIsNoop(t *testing.T) {
	var m *Metrics
	assert.NotPanics(t, func() {
		m.IncMessages("raw-data", "dispatched")
		m.IncRejected("timeseries", "missing_core_field")
		m.IncSkippedWindows("analytical")
		m.ObserveSinkWrite("timeseries", time.Now(), true)
		m.SetServiceState("analytical", 2)
		m.IncServiceConnect("analytical", false)
		m.SetSchemaFields("core", 3)
	})
}

func TestRecordingMethods(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "test"})

	m.IncMessages("raw-data", "dispatched")
	m.IncMessages("raw-data", "dispatched")
	m.IncMessages("unknown", "unknown_topic")
	m.IncRejected("timeseries", "type_mismatch")
	m.IncSkippedWindows("analytical")
	m.ObserveSinkWrite("analytical", time.Now(), false)
	m.SetServiceState("timeseries", 2)
	m.SetSchemaFields("extra", 7)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("raw-data", "dispatched")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.messagesTotal.WithLabelValues("unknown", "unknown_topic")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recordsRejected.WithLabelValues("timeseries", "type_mismatch")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.windowsSkipped.WithLabelValues("analytical")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.sinkWrites.WithLabelValues("analytical", "failure")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.serviceState.WithLabelValues("timeseries")))
	assert.Equal(t, 7.0, testutil.ToFloat64(m.schemaFields.WithLabelValues("extra")))
}

func TestMetricsEndpointCarriesServiceLabel(t *testing.T) {
	m := NewMetrics(Config{ServiceName: "ingest", Namespace: "netmon"})
	m.IncMessages("raw-data", "dispatched")

	rec := httptest.NewRecorder()
	m.Server.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)

	body := rec.Body.String()
	assert.True(t, strings.Contains(body, `netmon_ingest_messages_total{outcome="dispatched",service="ingest",topic="raw-data"} 1`), body)
}

func TestDefaultAddress(t *testing.T) {
	m := NewMetrics(Config{})
	assert.Equal(t, DefaultMetricsAddress, m.Server.Addr)
}
