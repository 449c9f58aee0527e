package domainfx

import (
	"context"

	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"

	"github.com/buildforge/logrotator/pkg/domain"
	"github.com/buildforge/logrotator/pkg/storage"
)

const (
	ConfigRotationEnabled          = "rotation.enabled"
	ConfigRotationIntervalHours    = "rotation.update_interval_hours"
	ConfigRotationPolicyWithOwn    = "rotation.policy_with_own_discarder"
	ConfigRotationPolicyWithoutOwn = "rotation.policy_without_own_discarder"
	ConfigRotationRules            = "rotation.rules"

	DefaultUpdateIntervalHours = 24
)

type ruleConfig struct {
	Pattern      string `mapstructure:"pattern"`
	DaysToKeep   int    `mapstructure:"days_to_keep"`
	BuildsToKeep int    `mapstructure:"builds_to_keep"`
}

// SeedConfig initializes the persisted rotation configuration from the
// config file on first boot. Once the settings row exists the store is
// authoritative and the file values are ignored.
func SeedConfig(logger *logrus.Logger, v *viper.Viper, repo *storage.ConfigRepository) error {
	ctx := context.Background()

	_, err := repo.Load(ctx)
	if err == nil {
		return nil
	}
	if errors.Cause(err) != domain.ErrConfigNotFound {
		return err
	}

	logger.Info("Rotation config is not initialized, seeding from config file")

	settings := storage.Settings{
		RotationEnabled:           true,
		UpdateIntervalHours:       DefaultUpdateIntervalHours,
		PolicyWithOwnDiscarder:    domain.PolicyOwn,
		PolicyWithoutOwnDiscarder: domain.PolicyNone,
	}

	if v.IsSet(ConfigRotationEnabled) {
		settings.RotationEnabled = v.GetBool(ConfigRotationEnabled)
	}
	if v.IsSet(ConfigRotationIntervalHours) {
		settings.UpdateIntervalHours = v.GetInt(ConfigRotationIntervalHours)
	}

	if s := v.GetString(ConfigRotationPolicyWithOwn); s != "" {
		mode, err := domain.ParsePolicyMode(s)
		if err != nil {
			return err
		}
		settings.PolicyWithOwnDiscarder = mode
	}

	if s := v.GetString(ConfigRotationPolicyWithoutOwn); s != "" {
		mode, err := domain.ParsePolicyMode(s)
		if err != nil {
			return err
		}
		settings.PolicyWithoutOwnDiscarder = mode
	}

	if err := repo.SaveSettings(ctx, settings); err != nil {
		return errors.Wrap(err, "unable to seed rotation settings")
	}

	var ruleConfigs []ruleConfig

	if err := v.UnmarshalKey(ConfigRotationRules, &ruleConfigs); err != nil {
		return errors.Wrap(err, "unable to unmarshal rotation rules")
	}

	if len(ruleConfigs) == 0 {
		return nil
	}

	rules := make([]storage.RuleSpec, 0, len(ruleConfigs))

	for _, rc := range ruleConfigs {
		rules = append(rules, storage.RuleSpec{
			Pattern: rc.Pattern,
			Retention: domain.RetentionSpec{
				DaysToKeep:   rc.DaysToKeep,
				BuildsToKeep: rc.BuildsToKeep,
			},
		})
	}

	if err := repo.ReplaceRules(ctx, rules); err != nil {
		return errors.Wrap(err, "unable to seed rotation rules")
	}

	logger.WithField("total_rules", len(rules)).Info("Seeded rotation config")

	return nil
}
