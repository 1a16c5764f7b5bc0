package services

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/metrics"
)

// RegistryParams collects the registry's dependencies, including every Binding provided
// to the "connectors" group.
type RegistryParams struct {
	fx.In

	Config   Config
	Logger   Logger
	Metrics  *metrics.Metrics `optional:"true"`
	Bindings []Binding        `group:"connectors"`
}

// FXModule provides the *Registry populated with all contributed bindings.
var FXModule = fx.Module("services",
	fx.Provide(NewRegistryFromParams),
	fx.Invoke(RegisterServicesLifecycle),
)

// AsBinding annotates a constructor returning a Binding so it joins the "connectors" group.
func AsBinding(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"connectors"`))
}

// AsBindings is AsBinding for constructors returning zero or more bindings.
func AsBindings(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"connectors,flatten"`))
}

// NewRegistryFromParams builds the registry and registers every contributed binding.
func NewRegistryFromParams(p RegistryParams) (*Registry, error) {
	r := NewRegistry(p.Logger, p.Metrics)
	for _, b := range p.Bindings {
		if err := r.Register(b); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// RegisterServicesLifecycle starts the optional warm-up and closes every backend on stop.
func RegisterServicesLifecycle(lc fx.Lifecycle, cfg Config, r *Registry) {
	warmCtx, cancel := context.WithCancel(context.Background())

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			if cfg.WarmUp {
				r.WarmUp(warmCtx)
			}
			return nil
		},
		OnStop: func(ctx context.Context) error {
			cancel()
			return r.ShutdownAll()
		},
	})
}
