// Package tracer wires OpenTelemetry tracing into the ingestion service.
//
// NewClient installs a global SDK TracerProvider (optionally exporting over OTLP/HTTP)
// and the W3C propagators. The router restores the producer's trace context from bus
// message headers with SetCarrierOnContext, and sinks open one span per write:
//
//	ctx = tr.SetCarrierOnContext(ctx, msg.Headers)
//	ctx, span := tr.StartSpan(ctx, "sink.analytical.write")
//	defer span.End()
//	if err != nil {
//		tr.RecordErrorOnSpan(span, err)
//	}
//
// All helpers tolerate a nil *Tracer.
package tracer
