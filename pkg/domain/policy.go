package domain

import (
	"github.com/pkg/errors"
)

// PolicyMode controls whether and how the build records of a category of
// jobs are rotated.
type PolicyMode string

const (
	// PolicyNone leaves the jobs alone.
	PolicyNone PolicyMode = "none"

	// PolicyOwn applies the job's own discarder. Only meaningful for jobs
	// that define one.
	PolicyOwn PolicyMode = "own"

	// PolicyGlobal applies the first global rule matching the job's name.
	PolicyGlobal PolicyMode = "global"
)

var (
	ErrInvalidPattern    = errors.New("invalid job name pattern")
	ErrUnsupportedPolicy = errors.New("unsupported rotation policy")
	ErrConfigNotFound    = errors.New("rotation config is not initialized")
)

// ParsePolicyMode converts an external representation (config file, API,
// persisted row) into a PolicyMode, rejecting anything outside the known set.
func ParsePolicyMode(s string) (PolicyMode, error) {
	switch mode := PolicyMode(s); mode {
	case PolicyNone, PolicyOwn, PolicyGlobal:
		return mode, nil
	}

	return "", errors.Wrapf(ErrUnsupportedPolicy, "unknown policy mode '%s'", s)
}
