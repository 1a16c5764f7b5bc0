// Package metrics exposes the ingestion service's Prometheus metrics.
//
// NewMetrics builds an isolated registry whose metrics all carry a constant
// service="<name>" label, registers the ingestion counters and histograms used by the
// router, the sinks, the schema registry and the service registry, and prepares an HTTP
// server serving /metrics.
//
// Exposed series:
//
//	ingest_messages_total{topic,outcome}
//	ingest_records_rejected_total{sink,reason}
//	ingest_windows_skipped_total{sink}
//	ingest_sink_writes_total{sink,status}
//	ingest_sink_write_duration_seconds{sink}
//	ingest_service_state{kind}
//	ingest_service_connects_total{kind,status}
//	ingest_schema_fields{role}
//
// Recording methods are nil-safe so components can run without metrics.
package metrics
