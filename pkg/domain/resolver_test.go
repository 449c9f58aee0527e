package domain

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func mustRule(t *testing.T, pattern string) PatternRule {
	rule, err := NewPatternRule(pattern, nil)
	if err != nil {
		t.Fatalf("unable to build rule '%s': %v", pattern, err)
	}

	return rule
}

func TestResolve_DecisionTable(t *testing.T) {
	rules := []PatternRule{
		mustRule(t, "rotator-.*"),
		mustRule(t, ".*"),
	}

	tests := []struct {
		name    string
		hasOwn  bool
		mode    PolicyMode
		want    Action
		wantErr bool
	}{
		{"own discarder, policy none", true, PolicyNone, Action{Kind: ActionSkip, RuleIndex: NoRuleMatched}, false},
		{"own discarder, policy own", true, PolicyOwn, Action{Kind: ActionApplyOwn, RuleIndex: NoRuleMatched}, false},
		{"own discarder, policy global", true, PolicyGlobal, Action{Kind: ActionApplyGlobal, RuleIndex: 0}, false},
		{"own discarder, unsupported policy", true, PolicyMode("whatever"), Action{}, true},
		{"no discarder, policy none", false, PolicyNone, Action{Kind: ActionSkip, RuleIndex: NoRuleMatched}, false},
		{"no discarder, policy global", false, PolicyGlobal, Action{Kind: ActionApplyGlobal, RuleIndex: 0}, false},
		{"no discarder, policy own is unsupported", false, PolicyOwn, Action{}, true},
		{"no discarder, unsupported policy", false, PolicyMode("whatever"), Action{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			action, err := Resolve(tt.hasOwn, tt.mode, rules, "rotator-foo")

			if tt.wantErr {
				assert.NotNil(t, err)
				assert.Equal(t, ErrUnsupportedPolicy, errors.Cause(err))
				return
			}

			assert.Nil(t, err)
			assert.Equal(t, tt.want, action)
		})
	}
}

func TestResolve_FirstMatchWins(t *testing.T) {
	rules := []PatternRule{
		mustRule(t, "rotator-.*"),
		mustRule(t, ".*"),
	}

	action, err := Resolve(false, PolicyGlobal, rules, "rotator-foo")

	assert.Nil(t, err)
	assert.Equal(t, 0, action.RuleIndex)

	// a job not covered by the specific rule falls through to the catchall
	action, err = Resolve(false, PolicyGlobal, rules, "some-other-job")

	assert.Nil(t, err)
	assert.Equal(t, 1, action.RuleIndex)
}

func TestResolve_NoMatchIsNotAnError(t *testing.T) {
	rules := []PatternRule{
		mustRule(t, "rotator-.*"),
	}

	action, err := Resolve(false, PolicyGlobal, rules, "some-other-job")

	assert.Nil(t, err)
	assert.Equal(t, ActionApplyGlobal, action.Kind)
	assert.Equal(t, NoRuleMatched, action.RuleIndex)
}

func TestResolve_NoRulesConfigured(t *testing.T) {
	action, err := Resolve(true, PolicyGlobal, nil, "rotator-foo")

	assert.Nil(t, err)
	assert.Equal(t, ActionApplyGlobal, action.Kind)
	assert.Equal(t, NoRuleMatched, action.RuleIndex)
}
