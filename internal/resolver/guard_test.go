package resolver

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/opencargos/tenura/internal/storage"
)

func TestGuardPassesThroughQueryFailures(t *testing.T) {
	guard := NewGuard(time.Minute)
	boom := errors.New("connection refused")

	calls := 0
	err := guard.Do(func() error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.False(t, guard.Blocked(), "ordinary failures never trip the guard")

	err = guard.Do(func() error { calls++; return boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 2, calls)
}

func TestGuardTripsOnAccessDenial(t *testing.T) {
	guard := NewGuard(time.Minute)
	denied := errors.New("pq: permission denied for table role_observations")

	calls := 0
	err := guard.Do(func() error { calls++; return denied })
	assert.ErrorIs(t, err, denied, "the triggering call surfaces its own error")
	assert.True(t, guard.Blocked())

	err = guard.Do(func() error { calls++; return nil })
	assert.ErrorIs(t, err, storage.ErrAccessBlocked)
	assert.Equal(t, 1, calls, "lookups short-circuit while blocked")
}

func TestGuardRecoversAfterCooldown(t *testing.T) {
	guard := NewGuard(20 * time.Millisecond)

	err := guard.Do(func() error { return errors.New("read suspended during reload") })
	assert.True(t, storage.IsAccessBlocked(err))
	assert.True(t, guard.Blocked())

	time.Sleep(40 * time.Millisecond)

	calls := 0
	err = guard.Do(func() error { calls++; return nil })
	assert.NoError(t, err)
	assert.Equal(t, 1, calls, "trial lookup runs once the cooldown elapses")
	assert.False(t, guard.Blocked())
}

func TestGuardSuccessKeepsItClosed(t *testing.T) {
	guard := NewGuard(time.Minute)

	for i := 0; i < 5; i++ {
		assert.NoError(t, guard.Do(func() error { return nil }))
	}
	assert.False(t, guard.Blocked())
}
