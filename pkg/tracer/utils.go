package tracer

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	traceSpan "go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
)

// StartSpan starts a span named name as a child of any span already in ctx.
// The caller must end the returned span.
//
//	ctx, span := tr.StartSpan(ctx, "sink.timeseries.write")
//	defer span.End()
func (t *Tracer) StartSpan(ctx context.Context, name string) (context.Context, traceSpan.Span) {
	if t == nil || t.provider == nil {
		return noop.NewTracerProvider().Tracer("").Start(ctx, name)
	}
	return t.provider.Tracer(t.name).Start(ctx, name)
}

// RecordErrorOnSpan records err on span and marks the span as failed.
func (t *Tracer) RecordErrorOnSpan(span traceSpan.Span, err error) {
	if err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetAttributes converts attrs to OTel attributes by their dynamic type and attaches
// them to span. Unsupported values are stringified.
func (t *Tracer) SetAttributes(span traceSpan.Span, attrs map[string]interface{}) {
	kv := make([]attribute.KeyValue, 0, len(attrs))
	for key, value := range attrs {
		switch v := value.(type) {
		case string:
			kv = append(kv, attribute.String(key, v))
		case int:
			kv = append(kv, attribute.Int(key, v))
		case int64:
			kv = append(kv, attribute.Int64(key, v))
		case float64:
			kv = append(kv, attribute.Float64(key, v))
		case bool:
			kv = append(kv, attribute.Bool(key, v))
		case []string:
			kv = append(kv, attribute.StringSlice(key, v))
		default:
			kv = append(kv, attribute.String(key, fmt.Sprint(v)))
		}
	}
	span.SetAttributes(kv...)
}

// GetCarrier injects the trace context of ctx into a string map suitable for message
// headers.
func (t *Tracer) GetCarrier(ctx context.Context) map[string]string {
	carrier := propagation.MapCarrier{}
	propagator().Inject(ctx, carrier)
	return carrier
}

// SetCarrierOnContext extracts a trace context from carrier (typically message headers)
// and returns ctx carrying it as the remote parent.
func (t *Tracer) SetCarrierOnContext(ctx context.Context, carrier map[string]string) context.Context {
	if len(carrier) == 0 {
		return ctx
	}
	return propagator().Extract(ctx, propagation.MapCarrier(carrier))
}

func propagator() propagation.TextMapPropagator {
	return propagation.NewCompositeTextMapPropagator(propagation.TraceContext{}, propagation.Baggage{})
}
