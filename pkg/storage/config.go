package storage

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/buildforge/logrotator/pkg/domain"
)

const (
	configSelectQuery = `
		SELECT
			rotation_enabled, update_interval_hours, last_rotated,
			policy_with_own_discarder, policy_without_own_discarder
		FROM rotation_config
		WHERE id = 1
	`

	configUpdateQuery = `
		UPDATE rotation_config SET
			rotation_enabled = ?, update_interval_hours = ?,
			policy_with_own_discarder = ?, policy_without_own_discarder = ?
		WHERE id = 1
	`

	configInsertQuery = `
		INSERT INTO rotation_config (
			id, rotation_enabled, update_interval_hours, last_rotated,
			policy_with_own_discarder, policy_without_own_discarder
		)
		VALUES (1, ?, ?, 0, ?, ?)
	`

	configTouchQuery = `
		UPDATE rotation_config SET last_rotated = ? WHERE id = 1
	`

	rulesSelectQuery = `
		SELECT position, name_pattern, days_to_keep, builds_to_keep
		FROM rotation_rules
		ORDER BY position ASC
	`

	rulesDeleteQuery = `DELETE FROM rotation_rules`

	ruleInsertQuery = `
		INSERT INTO rotation_rules (position, name_pattern, days_to_keep, builds_to_keep)
		VALUES (?, ?, ?, ?)
	`
)

type configRecord struct {
	RotationEnabled           bool
	UpdateIntervalHours       int
	LastRotated               int64
	PolicyWithOwnDiscarder    string
	PolicyWithoutOwnDiscarder string
}

type ruleRecord struct {
	Position     int
	NamePattern  string
	DaysToKeep   int
	BuildsToKeep int
}

// Settings is the editable part of the rotation configuration. The
// last-rotated timestamp is deliberately not here: only a completed pass may
// advance it, through UpdateLastRotated.
type Settings struct {
	RotationEnabled           bool
	UpdateIntervalHours       int
	PolicyWithOwnDiscarder    domain.PolicyMode
	PolicyWithoutOwnDiscarder domain.PolicyMode
}

// RuleSpec is the persisted form of a global rule.
type RuleSpec struct {
	Pattern   string
	Retention domain.RetentionSpec
}

// ConfigRepository persists the rotation configuration on behalf of the host
// platform: a single settings row plus the ordered global rule list. The
// save path validates eagerly, so a bad pattern or an out-of-range policy
// mode is rejected at edit time and normally never reaches a pass.
type ConfigRepository struct {
	db         *sqlx.DB
	discarders domain.DiscarderFactory
}

func NewConfigRepository(db *sqlx.DB, discarders domain.DiscarderFactory) *ConfigRepository {
	return &ConfigRepository{
		db:         db,
		discarders: discarders,
	}
}

// Load reads a full configuration snapshot, global rules in stored order.
// Policy modes are passed through as persisted: an out-of-range value is the
// resolver's defensive branch to report, not a reason to refuse the whole
// snapshot.
func (r *ConfigRepository) Load(ctx context.Context) (domain.Config, error) {
	var rec configRecord

	err := r.db.GetContext(ctx, &rec, configSelectQuery)
	if err == sql.ErrNoRows {
		return domain.Config{}, domain.ErrConfigNotFound
	}
	if err != nil {
		return domain.Config{}, errors.Wrap(err, "unable to query rotation config")
	}

	var ruleRecords []ruleRecord

	err = r.db.SelectContext(ctx, &ruleRecords, rulesSelectQuery)
	if err != nil {
		return domain.Config{}, errors.Wrap(err, "unable to query rotation rules")
	}

	rules := make([]domain.PatternRule, 0, len(ruleRecords))

	for _, rr := range ruleRecords {
		rule, err := domain.NewPatternRule(rr.NamePattern, r.discarders.Discarder(domain.RetentionSpec{
			DaysToKeep:   rr.DaysToKeep,
			BuildsToKeep: rr.BuildsToKeep,
		}))
		if err != nil {
			return domain.Config{}, errors.Wrapf(err, "stored rule at position %d is broken", rr.Position)
		}

		rules = append(rules, rule)
	}

	return domain.Config{
		RotationEnabled:           rec.RotationEnabled,
		UpdateIntervalHours:       rec.UpdateIntervalHours,
		LastRotated:               rec.LastRotated,
		PolicyWithOwnDiscarder:    domain.PolicyMode(rec.PolicyWithOwnDiscarder),
		PolicyWithoutOwnDiscarder: domain.PolicyMode(rec.PolicyWithoutOwnDiscarder),
		GlobalRules:               rules,
	}, nil
}

// SaveSettings upserts the settings row. Both policy modes are validated
// first, and 'own' is refused for jobs without an own discarder since there
// is nothing of their own to apply.
func (r *ConfigRepository) SaveSettings(ctx context.Context, s Settings) error {
	if _, err := domain.ParsePolicyMode(string(s.PolicyWithOwnDiscarder)); err != nil {
		return err
	}

	if _, err := domain.ParsePolicyMode(string(s.PolicyWithoutOwnDiscarder)); err != nil {
		return err
	}

	if s.PolicyWithoutOwnDiscarder == domain.PolicyOwn {
		return errors.Wrap(domain.ErrUnsupportedPolicy, "policy 'own' is meaningless for jobs without an own discarder")
	}

	res, err := r.db.ExecContext(ctx, configUpdateQuery,
		s.RotationEnabled, s.UpdateIntervalHours,
		string(s.PolicyWithOwnDiscarder), string(s.PolicyWithoutOwnDiscarder),
	)
	if err != nil {
		return errors.Wrap(err, "unable to update rotation config")
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}

	if affected == 0 {
		_, err = r.db.ExecContext(ctx, configInsertQuery,
			s.RotationEnabled, s.UpdateIntervalHours,
			string(s.PolicyWithOwnDiscarder), string(s.PolicyWithoutOwnDiscarder),
		)
		if err != nil {
			return errors.Wrap(err, "unable to insert rotation config")
		}
	}

	return nil
}

// ReplaceRules swaps the whole global rule list in one transaction,
// preserving the given order as the precedence order. Every pattern is
// compiled before anything is written.
func (r *ConfigRepository) ReplaceRules(ctx context.Context, rules []RuleSpec) error {
	for i, rule := range rules {
		if _, err := domain.NewPatternRule(rule.Pattern, nil); err != nil {
			return errors.Wrapf(err, "rule at position %d", i)
		}
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "unable to begin transaction")
	}

	if _, err := tx.ExecContext(ctx, rulesDeleteQuery); err != nil {
		_ = tx.Rollback()
		return errors.Wrap(err, "unable to clear rotation rules")
	}

	for i, rule := range rules {
		_, err := tx.ExecContext(ctx, ruleInsertQuery,
			i, rule.Pattern, rule.Retention.DaysToKeep, rule.Retention.BuildsToKeep,
		)
		if err != nil {
			_ = tx.Rollback()
			return errors.Wrapf(err, "unable to insert rule at position %d", i)
		}
	}

	return tx.Commit()
}

// UpdateLastRotated is called by the rotation service, exactly once per
// completed pass. It is not part of the editable settings on purpose.
func (r *ConfigRepository) UpdateLastRotated(ctx context.Context, millis int64) error {
	_, err := r.db.ExecContext(ctx, configTouchQuery, millis)

	return errors.Wrap(err, "unable to update last rotation time")
}
