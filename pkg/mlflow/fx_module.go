package mlflow

import (
	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// FXModule contributes the MLflow connector to the service registry when a tracking
// server is configured.
var FXModule = fx.Module("mlflow",
	fx.Provide(services.AsBindings(NewBindings)),
)
