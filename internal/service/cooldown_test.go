package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCanStartNow_PassedGateIsClosed(t *testing.T) {
	err := CanStartNow(true, nil, time.Now(), false)
	assert.ErrorIs(t, err, ErrGateAlreadyPassed)

	// Passed wins even with unlimited retries.
	err = CanStartNow(true, nil, time.Now(), true)
	assert.ErrorIs(t, err, ErrGateAlreadyPassed)
}

func TestCanStartNow_NoCooldownAllows(t *testing.T) {
	assert.NoError(t, CanStartNow(false, nil, time.Now(), false))
}

func TestCanStartNow_CooldownWindow(t *testing.T) {
	t0 := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	until := t0.Add(3 * time.Hour)

	// Inside the window: rejected with the remaining duration.
	err := CanStartNow(false, &until, t0.Add(time.Hour), false)
	var cde *CooldownActiveError
	require.ErrorAs(t, err, &cde)
	assert.Equal(t, until, cde.Until)
	assert.Equal(t, 2*time.Hour, cde.Remaining)

	// Exactly at the deadline: allowed (boundary inclusive).
	assert.NoError(t, CanStartNow(false, &until, until, false))

	// Past the deadline: allowed.
	assert.NoError(t, CanStartNow(false, &until, until.Add(time.Second), false))
}

func TestCanStartNow_UnlimitedRetriesWaivesCooldown(t *testing.T) {
	until := time.Now().Add(time.Hour)
	assert.NoError(t, CanStartNow(false, &until, time.Now(), true))
}

func TestCooldownAfterFailure(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)

	until := CooldownAfterFailure(now, 3, false)
	require.NotNil(t, until)
	assert.Equal(t, now.Add(3*time.Hour), *until)

	assert.Nil(t, CooldownAfterFailure(now, 3, true))
	assert.Nil(t, CooldownAfterFailure(now, 0, false))
}
