package domain

import "context"

// Config is an immutable snapshot of the rotation configuration. A pass
// loads it once and never sees concurrent edits; the only thing written back
// is the last-rotated timestamp, through the store.
type Config struct {
	RotationEnabled     bool
	UpdateIntervalHours int

	// LastRotated is the epoch-millisecond timestamp of the last completed
	// pass, zero when rotation never ran.
	LastRotated int64

	PolicyWithOwnDiscarder    PolicyMode
	PolicyWithoutOwnDiscarder PolicyMode

	// GlobalRules in precedence order. Duplicates are allowed.
	GlobalRules []PatternRule
}

type ConfigStore interface {
	Load(context.Context) (Config, error)
	UpdateLastRotated(ctx context.Context, millis int64) error
}
