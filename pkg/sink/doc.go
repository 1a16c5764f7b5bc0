// Package sink adapts decoded bus payloads to the backends.
//
// TimeSeriesSink turns a raw payload into a typed record and then a point.
// AnalyticalSink flattens an aggregate window against the destination table's columns.
// MLflowSink logs a payload's numbers as metrics of an MLflow run.
// Both fetch their backend handle from the service registry on every write, reject
// invalid payloads one by one, and report success as a bool so the router can carry on
// with the next message.
package sink
