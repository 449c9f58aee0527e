package domain

import "time"

const millisPerHour = 60 * 60 * 1000

// EpochMillis converts t to the epoch-millisecond representation used for
// the last-rotated timestamp.
func EpochMillis(t time.Time) int64 {
	return t.UnixNano() / int64(time.Millisecond)
}

// ShouldRotate reports whether enough wall-clock time has passed since the
// last completed pass to run another one. The comparison is done in
// fractional hours: 23.99 elapsed hours against a 24 hour interval does not
// fire, exactly 24.0 does. Pure function, never advances the timestamp.
func ShouldRotate(cfg Config, now time.Time) bool {
	if !cfg.RotationEnabled || cfg.UpdateIntervalHours <= 0 {
		return false
	}

	hoursSinceLastRotation := float64(EpochMillis(now)-cfg.LastRotated) / millisPerHour

	return hoursSinceLastRotation >= float64(cfg.UpdateIntervalHours)
}
