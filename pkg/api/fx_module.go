package api

import (
	"context"

	"go.uber.org/fx"

	"github.com/Aleph-Alpha/telemetry-ingest/pkg/services"
)

// FXModule provides the query Server and runs it with the application.
var FXModule = fx.Module("api",
	fx.Provide(func(cfg Config, reg *services.Registry, logger Logger) *Server {
		return NewServer(cfg, reg, logger)
	}),
	fx.Invoke(RegisterServerLifecycle),
)

// RegisterServerLifecycle starts the server on application start unless no address is
// configured, and shuts it down gracefully on stop.
func RegisterServerLifecycle(lc fx.Lifecycle, s *Server) {
	if s.cfg.Address == "" {
		s.logger.Info("query API disabled", nil)
		return
	}
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			return s.Start(ctx)
		},
		OnStop: func(ctx context.Context) error {
			return s.Shutdown(ctx)
		},
	})
}
