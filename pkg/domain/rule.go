package domain

import (
	"regexp"

	"github.com/pkg/errors"
)

// PatternRule binds a job name pattern to a discard policy. Rules live in an
// ordered list where the first matching rule wins; they are immutable once
// constructed.
type PatternRule struct {
	pattern   string
	re        *regexp.Regexp
	discarder Discarder
}

// NewPatternRule validates and compiles pattern eagerly, so a malformed
// pattern is rejected when the rule is edited and never surfaces mid-pass.
func NewPatternRule(pattern string, discarder Discarder) (PatternRule, error) {
	re, err := regexp.Compile(`\A(?:` + pattern + `)\z`)
	if err != nil {
		return PatternRule{}, errors.Wrapf(ErrInvalidPattern, "unable to compile '%s': %v", pattern, err)
	}

	return PatternRule{
		pattern:   pattern,
		re:        re,
		discarder: discarder,
	}, nil
}

func (r PatternRule) Pattern() string {
	return r.pattern
}

func (r PatternRule) Discarder() Discarder {
	return r.discarder
}

// Matches reports whether name matches the whole pattern. The pattern is
// anchored at both ends, so this is never a substring search.
func (r PatternRule) Matches(name string) bool {
	return r.re.MatchString(name)
}
