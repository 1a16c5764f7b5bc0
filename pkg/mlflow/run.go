package mlflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// MaxMetricsPerBatch is the tracking server's limit on metrics in one log-batch call.
const MaxMetricsPerBatch = 1000

// Run statuses.
const (
	StatusFinished = "FINISHED"
	StatusFailed   = "FAILED"
)

// Metric is one logged value. A zero Timestamp is replaced by the log time.
type Metric struct {
	Key       string  `json:"key"`
	Value     float64 `json:"value"`
	Timestamp int64   `json:"timestamp"`
	Step      int64   `json:"step"`
}

// LogRun records metrics as one run of the experiment and returns the run id.
//
// The run is marked FAILED when a batch is refused; the error of the batch is returned
// together with any error from closing the run.
func (c *Client) LogRun(ctx context.Context, metrics []Metric) (string, error) {
	if len(metrics) == 0 {
		return "", errors.New("mlflow: no metrics to log")
	}

	now := c.now().UnixMilli()
	var created struct {
		Run struct {
			Info struct {
				RunID string `json:"run_id"`
			} `json:"info"`
		} `json:"run"`
	}
	if err := c.call(ctx, http.MethodPost, "/runs/create", map[string]any{
		"experiment_id": c.experimentID,
		"start_time":    now,
	}, &created); err != nil {
		return "", fmt.Errorf("creating run: %w", err)
	}
	runID := created.Run.Info.RunID

	batch := make([]Metric, 0, min(len(metrics), MaxMetricsPerBatch))
	var logErr error
	for start := 0; start < len(metrics) && logErr == nil; start += MaxMetricsPerBatch {
		batch = batch[:0]
		for _, m := range metrics[start:min(start+MaxMetricsPerBatch, len(metrics))] {
			if m.Timestamp == 0 {
				m.Timestamp = now
			}
			batch = append(batch, m)
		}
		if err := c.call(ctx, http.MethodPost, "/runs/log-batch", map[string]any{
			"run_id":  runID,
			"metrics": batch,
		}, nil); err != nil {
			logErr = fmt.Errorf("logging metrics to run %s: %w", runID, err)
		}
	}

	status := StatusFinished
	if logErr != nil {
		status = StatusFailed
	}
	if err := c.call(ctx, http.MethodPost, "/runs/update", map[string]any{
		"run_id":   runID,
		"status":   status,
		"end_time": c.now().UnixMilli(),
	}, nil); err != nil {
		return runID, errors.Join(logErr, fmt.Errorf("closing run %s: %w", runID, err))
	}

	if logErr != nil {
		return runID, logErr
	}
	c.logger.Debug("MLflow run logged", nil, map[string]interface{}{
		"run_id":  runID,
		"metrics": len(metrics),
	})
	return runID, nil
}
