package domainfx

import (
	"context"

	"github.com/robfig/cron"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"go.uber.org/fx"

	"github.com/buildforge/logrotator/pkg/discard"
	"github.com/buildforge/logrotator/pkg/domain"
)

const (
	ConfigRotationTickSpec = "rotation.tick_spec"

	// The cron fires every minute, but only to check whether sufficient
	// time has passed to actually rotate.
	DefaultTickSpec = "@every 1m"
)

func NewCron() *cron.Cron {
	return cron.New()
}

func DiscarderFactory(logger *logrus.Logger, builds discard.BuildRepository) domain.DiscarderFactory {
	return discard.NewFactory(logger, builds)
}

func RotationService(logger *logrus.Logger, store domain.ConfigStore) *domain.RotationService {
	return domain.NewRotationService(logger, store)
}

func RotationManager(
	logger *logrus.Logger,
	v *viper.Viper,
	store domain.ConfigStore,
	jobs domain.JobRegistry,
	service *domain.RotationService,
	cron *cron.Cron,
) *domain.RotationManager {
	tickSpec := v.GetString(ConfigRotationTickSpec)
	if tickSpec == "" {
		tickSpec = DefaultTickSpec
	}

	return domain.NewRotationManager(logger, store, jobs, service, cron, tickSpec)
}

func RunRotationManager(lc fx.Lifecycle, manager *domain.RotationManager) {
	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go manager.Run()
			return nil
		},
	})
}
