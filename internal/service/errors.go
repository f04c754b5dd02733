package service

import (
	"errors"
	"fmt"
	"time"
)

// Domain Errors
var (
	ErrSessionConflict   = errors.New("an active session already exists for this target")
	ErrInvalidSession    = errors.New("session is unknown, foreign, or no longer active")
	ErrGateAlreadyPassed = errors.New("assessment already passed, retake is not allowed")
	ErrNoQuestions       = errors.New("target has no questions, cannot start")
)

// AccessDeniedError carries the first unmet prerequisite.
type AccessDeniedError struct {
	Reason string
}

func (e *AccessDeniedError) Error() string {
	return fmt.Sprintf("access denied: %s", e.Reason)
}

// CooldownActiveError reports how long the caller still has to wait.
type CooldownActiveError struct {
	Until     time.Time
	Remaining time.Duration
}

func (e *CooldownActiveError) Error() string {
	return fmt.Sprintf("cooldown active for another %s (until %s)", e.Remaining.Round(time.Second), e.Until.Format(time.RFC3339))
}

// ValidationError marks a malformed answer payload. The attempt is not
// consumed; the caller may fix the payload and resubmit.
type ValidationError struct {
	Detail string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid answer payload: %s", e.Detail)
}
