package sqlfx

import (
	"go.uber.org/fx"
)

var Module = fx.Options(
	fx.Provide(SqliteConfigProvider),
	fx.Provide(OpenSqliteDatabase),
	fx.Provide(ConfigRepository),
	fx.Provide(JobRepository),
	fx.Provide(BuildRepository),
	fx.Invoke(CloseSqliteDatabase),
)
