package netguard

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestAcquire_SecondClaimRejected - concurrent claims fail fast, never queue
func TestAcquire_SecondClaimRejected(t *testing.T) {
	g := New()

	assert.NoError(t, g.Acquire())
	assert.ErrorIs(t, g.Acquire(), ErrBusy)

	g.Release()
	assert.NoError(t, g.Acquire())
}

// TestBusy_ObservesWithoutClaiming
func TestBusy_ObservesWithoutClaiming(t *testing.T) {
	g := New()

	assert.False(t, g.Busy())
	assert.NoError(t, g.Acquire())
	assert.True(t, g.Busy())
}
