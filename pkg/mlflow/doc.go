// Package mlflow logs telemetry metrics to an MLflow tracking server over its REST API.
//
// Connect resolves the configured experiment by name, creating it when it does not
// exist. Every LogRun call opens one run, logs the metrics in batches and closes the
// run as FINISHED, or FAILED when a batch is refused.
//
// The backend is optional: with an empty tracking URI no connector is contributed to
// the service registry.
package mlflow
