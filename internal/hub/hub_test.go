package hub

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"posguard/domain/device"
)

// TestBroadcast_DeliversToAllSubscribers
func TestBroadcast_DeliversToAllSubscribers(t *testing.T) {
	h := New()
	a := make(chan Event, 4)
	b := make(chan Event, 4)
	h.Register("a", a)
	h.Register("b", b)

	h.Broadcast(NewDevice("agent-1", device.Device{MAC: "aa:bb:cc:dd:ee:ff"}))

	require.Len(t, a, 1)
	require.Len(t, b, 1)
	ev := <-a
	assert.Equal(t, KindNewDevice, ev.Type)
	assert.Equal(t, "agent-1", ev.AgentID)
}

// TestBroadcast_FullBufferDropsInsteadOfBlocking
func TestBroadcast_FullBufferDropsInsteadOfBlocking(t *testing.T) {
	h := New()
	slow := make(chan Event, 1)
	h.Register("slow", slow)

	h.Broadcast(Event{Type: KindNetworkStatus})
	h.Broadcast(Event{Type: KindNetworkStatus}) // dropped, must not hang

	assert.Len(t, slow, 1)
}

// TestUnregister_ClosesChannel
func TestUnregister_ClosesChannel(t *testing.T) {
	h := New()
	ch := make(chan Event, 1)
	h.Register("x", ch)
	h.Unregister("x")

	_, open := <-ch
	assert.False(t, open)
	assert.Equal(t, 0, h.ClientCount())
}

// TestClientCount_TracksRegistrations
func TestClientCount_TracksRegistrations(t *testing.T) {
	h := New()
	assert.Equal(t, 0, h.ClientCount())

	h.Register("a", make(chan Event, 1))
	h.Register("b", make(chan Event, 1))
	assert.Equal(t, 2, h.ClientCount())

	h.Unregister("a")
	assert.Equal(t, 1, h.ClientCount())
}

// TestIPConflictAlert_PayloadShape - the alert carries the fixed IP_STOLEN shape
func TestIPConflictAlert_PayloadShape(t *testing.T) {
	ev := IPConflictAlert("agent-1", "10.0.0.50", "aa:bb:cc:dd:ee:ff")

	payload, ok := ev.Payload.(IPConflictPayload)
	require.True(t, ok)
	assert.Equal(t, "IP_STOLEN", payload.Type)
	assert.Equal(t, "10.0.0.50", payload.StolenIP)
	assert.Equal(t, "aa:bb:cc:dd:ee:ff", payload.Thief)
}
