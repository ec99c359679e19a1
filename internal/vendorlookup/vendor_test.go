package vendorlookup

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// TestGuess_KnownOUI - lowercase input still matches the OUI table
func TestGuess_KnownOUI(t *testing.T) {
	assert.Equal(t, "Raspberry Pi", Guess("b8:27:eb:12:34:56"))
	assert.Equal(t, "Verifone", Guess("00:09:1F:AA:BB:CC"))
}

// TestGuess_UnknownOrShort - anything unrecognized reports Unknown
func TestGuess_UnknownOrShort(t *testing.T) {
	assert.Equal(t, "Unknown", Guess("ff:ff:ff:00:00:00"))
	assert.Equal(t, "Unknown", Guess(""))
	assert.Equal(t, "Unknown", Guess("aa:bb"))
}
