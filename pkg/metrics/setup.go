package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics owns the service's Prometheus registry, the ingestion metrics and the HTTP
// server that exposes them.
//
// All recording methods are safe to call on a nil *Metrics, which turns them into
// no-ops. Components accept a nil Metrics when they are used outside the application
// graph (tests, tools).
type Metrics struct {
	// Server defines the HTTP server used to expose the /metrics endpoint.
	Server *http.Server

	// Registry is the Prometheus registry where all metrics are registered.
	Registry *prometheus.Registry

	messagesTotal       *prometheus.CounterVec
	recordsRejected     *prometheus.CounterVec
	windowsSkipped      *prometheus.CounterVec
	sinkWrites          *prometheus.CounterVec
	sinkWriteDuration   *prometheus.HistogramVec
	serviceState        *prometheus.GaugeVec
	schemaFields        *prometheus.GaugeVec
	serviceConnectTotal *prometheus.CounterVec
}

// NewMetrics initializes the registry, wraps it with the constant service label (and the
// optional namespace prefix), registers the ingestion metrics and builds the HTTP server.
//
// Example:
//
//	m := metrics.NewMetrics(metrics.Config{
//	    Address:                 ":9090",
//	    ServiceName:             "telemetry-ingest",
//	    EnableDefaultCollectors: true,
//	})
//	go m.Server.ListenAndServe()
func NewMetrics(cfg Config) *Metrics {
	registry := prometheus.NewRegistry()

	var wrappedRegistry prometheus.Registerer = prometheus.WrapRegistererWith(
		prometheus.Labels{"service": cfg.ServiceName},
		registry,
	)
	if cfg.Namespace != "" {
		wrappedRegistry = prometheus.WrapRegistererWithPrefix(cfg.Namespace+"_", wrappedRegistry)
	}

	m := &Metrics{
		Registry: registry,
	}

	m.messagesTotal = createCounterVec("ingest_messages_total",
		"Messages received from the bus by topic and routing outcome.", []string{"topic", "outcome"})
	m.recordsRejected = createCounterVec("ingest_records_rejected_total",
		"Payloads rejected by validation before reaching a backend.", []string{"sink", "reason"})
	m.windowsSkipped = createCounterVec("ingest_windows_skipped_total",
		"Aggregate windows acknowledged without a write because they hold no samples.", []string{"sink"})
	m.sinkWrites = createCounterVec("ingest_sink_writes_total",
		"Backend write attempts by sink and status.", []string{"sink", "status"})
	m.sinkWriteDuration = createHistogramVec("ingest_sink_write_duration_seconds",
		"Duration of sink writes including validation and the backend call.", []string{"sink"},
		prometheus.ExponentialBuckets(0.0005, 2, 14))
	m.serviceState = createGaugeVec("ingest_service_state",
		"Backend connection state per kind (0 uninitialized, 1 connecting, 2 ready).", []string{"kind"})
	m.schemaFields = createGaugeVec("ingest_schema_fields",
		"Number of schema fields currently loaded per role.", []string{"role"})
	m.serviceConnectTotal = createCounterVec("ingest_service_connects_total",
		"Backend connect attempts by kind and status.", []string{"kind", "status"})

	wrappedRegistry.MustRegister(
		m.messagesTotal,
		m.recordsRejected,
		m.windowsSkipped,
		m.sinkWrites,
		m.sinkWriteDuration,
		m.serviceState,
		m.schemaFields,
		m.serviceConnectTotal,
	)

	if cfg.EnableDefaultCollectors {
		wrappedRegistry.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			collectors.NewBuildInfoCollector(),
		)
	}

	address := cfg.Address
	if address == "" {
		address = DefaultMetricsAddress
	}

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{}))

	m.Server = &http.Server{
		Addr:    address,
		Handler: mux,
	}

	return m
}
