package bus

import (
	"go.uber.org/fx"
)

// ConsumerParams gathers every contributed Factory.
type ConsumerParams struct {
	fx.In

	Config    Config
	Logger    Logger
	Factories []Factory `group:"consumers"`
}

// FXModule provides the Consumer selected by Config.Kind.
var FXModule = fx.Module("bus",
	fx.Provide(func(p ConsumerParams) (Consumer, error) {
		return New(p.Config, p.Factories, p.Logger)
	}),
)

// AsFactory annotates a constructor returning a Factory so it joins the "consumers" group.
func AsFactory(f any) any {
	return fx.Annotate(f, fx.ResultTags(`group:"consumers"`))
}
