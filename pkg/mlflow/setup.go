package mlflow

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// Logger defines the logging surface of the MLflow client.
//
//go:generate mockgen -source=setup.go -destination=mock_logger.go -package=mlflow
type Logger interface {
	Info(msg string, err error, fields ...map[string]interface{})
	Debug(msg string, err error, fields ...map[string]interface{})
}

// Client talks to one experiment of a tracking server. It is safe for concurrent use.
type Client struct {
	httpClient   *http.Client
	baseURL      string
	token        string
	experimentID string
	logger       Logger
	now          func() time.Time
}

// Connect resolves cfg.ExperimentName to its id, creating the experiment if needed.
func Connect(ctx context.Context, cfg Config, logger Logger) (*Client, error) {
	if !cfg.Enabled() {
		return nil, errors.New("mlflow: tracking_uri is not set")
	}
	cfg = cfg.withDefaults()

	base, err := url.Parse(cfg.TrackingURI)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("mlflow: invalid tracking_uri %q", cfg.TrackingURI)
	}

	c := &Client{
		httpClient: &http.Client{Timeout: cfg.RequestTimeout},
		baseURL:    strings.TrimRight(cfg.TrackingURI, "/") + "/api/2.0/mlflow",
		token:      cfg.Token,
		logger:     logger,
		now:        time.Now,
	}

	id, err := c.resolveExperiment(ctx, cfg.ExperimentName)
	if err != nil {
		return nil, err
	}
	c.experimentID = id

	logger.Info("Successfully connected to MLflow", nil, map[string]interface{}{
		"tracking_uri":  cfg.TrackingURI,
		"experiment":    cfg.ExperimentName,
		"experiment_id": id,
	})
	return c, nil
}

// NewBindings registers Connect as the MLflow service connector when a tracking server
// is configured, and contributes nothing otherwise.
func NewBindings(cfg Config, logger Logger) []services.Binding {
	if !cfg.Enabled() {
		return nil
	}
	return []services.Binding{{
		Kind: services.MLflow,
		Connector: func(ctx context.Context) (services.Service, error) {
			client, err := Connect(ctx, cfg, logger)
			if err != nil {
				return nil, err
			}
			return client, nil
		},
	}}
}

// ExperimentID returns the id resolved at connect time.
func (c *Client) ExperimentID() string { return c.experimentID }

// Close releases idle HTTP connections.
func (c *Client) Close() error {
	c.httpClient.CloseIdleConnections()
	return nil
}

func (c *Client) resolveExperiment(ctx context.Context, name string) (string, error) {
	var found struct {
		Experiment struct {
			ExperimentID string `json:"experiment_id"`
		} `json:"experiment"`
	}
	err := c.call(ctx, http.MethodGet, "/experiments/get-by-name?experiment_name="+url.QueryEscape(name), nil, &found)
	if err == nil {
		return found.Experiment.ExperimentID, nil
	}
	if !IsNotFound(err) {
		return "", fmt.Errorf("looking up experiment %s: %w", name, err)
	}

	var created struct {
		ExperimentID string `json:"experiment_id"`
	}
	if err := c.call(ctx, http.MethodPost, "/experiments/create", map[string]any{"name": name}, &created); err != nil {
		return "", fmt.Errorf("creating experiment %s: %w", name, err)
	}
	c.logger.Info("created MLflow experiment", nil, map[string]interface{}{
		"experiment":    name,
		"experiment_id": created.ExperimentID,
	})
	return created.ExperimentID, nil
}
