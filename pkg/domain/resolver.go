package domain

import (
	"github.com/pkg/errors"
)

type ActionKind int

const (
	// Leave the job alone.
	ActionSkip ActionKind = iota

	// Apply the job's own discarder.
	ActionApplyOwn

	// Apply a global rule (or nothing, when no rule matched).
	ActionApplyGlobal
)

// NoRuleMatched is the RuleIndex of an ActionApplyGlobal that found no
// matching rule. It is a normal outcome, not an error: no configured rule
// covers the job and its builds are simply not rotated.
const NoRuleMatched = -1

type Action struct {
	Kind      ActionKind
	RuleIndex int
}

// Resolve maps a job's situation onto the action dictated by the configured
// policy mode for its category (with or without an own discarder). An
// unsupported mode, including 'own' for jobs that have nothing of their own
// to apply, yields ErrUnsupportedPolicy: the mode enum contract was violated
// by out-of-band or corrupted configuration.
func Resolve(hasOwnDiscarder bool, mode PolicyMode, rules []PatternRule, jobName string) (Action, error) {
	if hasOwnDiscarder {
		switch mode {
		case PolicyNone:
			return Action{Kind: ActionSkip, RuleIndex: NoRuleMatched}, nil
		case PolicyOwn:
			return Action{Kind: ActionApplyOwn, RuleIndex: NoRuleMatched}, nil
		case PolicyGlobal:
			return Action{Kind: ActionApplyGlobal, RuleIndex: firstMatch(rules, jobName)}, nil
		}

		return Action{}, errors.Wrapf(ErrUnsupportedPolicy, "job '%s' defined its own discarder, found policy '%s'", jobName, mode)
	}

	switch mode {
	case PolicyNone:
		return Action{Kind: ActionSkip, RuleIndex: NoRuleMatched}, nil
	case PolicyGlobal:
		return Action{Kind: ActionApplyGlobal, RuleIndex: firstMatch(rules, jobName)}, nil
	}

	return Action{}, errors.Wrapf(ErrUnsupportedPolicy, "job '%s' did not define a discarder, found policy '%s'", jobName, mode)
}

// firstMatch stops at the first matching rule, later rules are not evaluated.
func firstMatch(rules []PatternRule, name string) int {
	for i, rule := range rules {
		if rule.Matches(name) {
			return i
		}
	}

	return NoRuleMatched
}
