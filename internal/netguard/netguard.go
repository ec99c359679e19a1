// Package netguard serializes full-network operations. Discovery, the monitor
// loop's polling phase, and on-demand diagnostics must not probe the same
// interface concurrently; a second claimant is rejected immediately with
// ErrBusy rather than queued.
package netguard

import (
	"errors"
	"sync/atomic"
)

var ErrBusy = errors.New("another network operation is in progress")

// Guard is the busy flag shared by all probing components.
type Guard struct {
	busy atomic.Bool
}

func New() *Guard {
	return &Guard{}
}

// Acquire claims the network. Returns ErrBusy when something else holds it.
func (g *Guard) Acquire() error {
	if !g.busy.CompareAndSwap(false, true) {
		return ErrBusy
	}
	return nil
}

// Release frees the network for the next operation.
func (g *Guard) Release() {
	g.busy.Store(false)
}

// Busy reports the current state without claiming. The monitor pass checks
// this between devices so a pending diagnostic can preempt the remainder of
// the pass.
func (g *Guard) Busy() bool {
	return g.busy.Load()
}
