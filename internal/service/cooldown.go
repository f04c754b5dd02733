package service

import "time"

// CanStartNow decides whether a new scored attempt may begin.
//   - A passed gate is closed: review is served from stored results, never a
//     new scored session.
//   - Otherwise the attempt is allowed once cooldown_until is unset or
//     reached (boundary inclusive).
//
// unlimitedRetries waives the cooldown rule entirely (lesson quizzes only,
// per configuration).
func CanStartNow(passed bool, cooldownUntil *time.Time, now time.Time, unlimitedRetries bool) error {
	if passed {
		return ErrGateAlreadyPassed
	}
	if unlimitedRetries {
		return nil
	}
	if cooldownUntil == nil || !now.Before(*cooldownUntil) {
		return nil
	}
	return &CooldownActiveError{
		Until:     *cooldownUntil,
		Remaining: cooldownUntil.Sub(now),
	}
}

// CooldownAfterFailure computes the cooldown deadline a failed attempt sets.
// Returns nil when no cooldown applies (unlimited retries, or zero hours).
func CooldownAfterFailure(now time.Time, cooldownHours int, unlimitedRetries bool) *time.Time {
	if unlimitedRetries || cooldownHours <= 0 {
		return nil
	}
	until := now.Add(time.Duration(cooldownHours) * time.Hour)
	return &until
}
