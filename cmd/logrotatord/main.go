package main

import (
	"time"

	"go.uber.org/fx"

	"github.com/buildforge/logrotator/internal/configfx"
	"github.com/buildforge/logrotator/internal/domainfx"
	"github.com/buildforge/logrotator/internal/loggerfx"
	"github.com/buildforge/logrotator/internal/serverfx"
	"github.com/buildforge/logrotator/internal/sqlfx"
)

func main() {
	logger := loggerfx.Logger()

	app := fx.New(
		fx.StartTimeout(15*time.Second),
		fx.StopTimeout(15*time.Second),

		fx.Logger(logger),

		loggerfx.Module,
		configfx.Module,
		sqlfx.Module,
		serverfx.Module,
		domainfx.Module,
	)

	app.Run()
}
