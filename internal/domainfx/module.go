package domainfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(NewCron),
	fx.Provide(DiscarderFactory),
	fx.Provide(RotationService),
	fx.Provide(RotationManager),
	fx.Invoke(SeedConfig),
	fx.Invoke(RunRotationManager),
)
