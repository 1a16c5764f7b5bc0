// Package record validates raw telemetry payloads and renders them as time-series points.
//
//	rec, err := record.Build(payload, registry.Snapshot())
//	if err != nil {
//		// errors.Is(err, schema.ErrValidation)
//	}
//	point := record.ToPoint(rec, record.DefaultMeasurement)
package record
