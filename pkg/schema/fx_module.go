package schema

import (
	"go.uber.org/fx"
)

// FXModule provides the *Registry and performs the initial load during application start.
var FXModule = fx.Module("schema",
	fx.Provide(NewRegistry),
	fx.Invoke(func(r *Registry) { r.Load() }),
)
