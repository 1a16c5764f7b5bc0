// Package schema holds the field definitions that drive record validation.
//
// Fields have one of five semantic kinds (string, float, integer, datetime, bool) and one
// of two roles: core fields must appear in every raw record, extra fields may. A third,
// independent set marks tag fields, which are stored as categorical labels rather than
// measured values.
//
// The Registry loads the definitions from YAML files and publishes them as an immutable
// Snapshot:
//
//	reg := schema.NewRegistry(schema.Config{}, log, nil)
//	reg.Load()
//	snap := reg.Snapshot()
//	kind, ok := snap.TypeOf("rsrp")
//	v, err := kind.Cast("-85.5") // float64(-85.5)
//
// Loading is lenient. Missing files, unknown type names and core/extra overlaps are
// logged as warnings and never stop the process.
package schema
