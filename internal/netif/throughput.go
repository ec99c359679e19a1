package netif

import (
	"context"
	"fmt"
	"time"

	gopsnet "github.com/shirou/gopsutil/v4/net"
)

// IOStats is one reading of the host's aggregate interface counters.
type IOStats struct {
	RecvBytes uint64
	SentBytes uint64
}

// IOCounter abstracts gopsutil's counters for tests.
type IOCounter interface {
	NetworkIO(ctx context.Context) (IOStats, error)
}

// Throughput turns successive counter readings into bytes-per-second deltas.
// The first reading only stores a baseline and reports zero.
type Throughput struct {
	counter  IOCounter
	last     *IOStats
	lastTime time.Time
}

func NewThroughput() *Throughput {
	return NewThroughputWithCounter(&gopsutilCounter{})
}

func NewThroughputWithCounter(c IOCounter) *Throughput {
	return &Throughput{counter: c}
}

// Sample returns recv/sent bytes per second since the previous sample.
// Counter errors report zero rates rather than failing the monitor pass.
func (t *Throughput) Sample(ctx context.Context) (recvPerSec, sentPerSec float64) {
	current, err := t.counter.NetworkIO(ctx)
	if err != nil {
		return 0, 0
	}

	if t.last == nil {
		t.last = &current
		t.lastTime = time.Now()
		return 0, 0
	}

	elapsed := time.Since(t.lastTime).Seconds()
	if elapsed == 0 {
		return 0, 0
	}

	recvPerSec = float64(current.RecvBytes-t.last.RecvBytes) / elapsed
	sentPerSec = float64(current.SentBytes-t.last.SentBytes) / elapsed

	t.last = &current
	t.lastTime = time.Now()
	return recvPerSec, sentPerSec
}

type gopsutilCounter struct{}

func (g *gopsutilCounter) NetworkIO(ctx context.Context) (IOStats, error) {
	counters, err := gopsnet.IOCountersWithContext(ctx, false)
	if err != nil {
		return IOStats{}, err
	}
	if len(counters) == 0 {
		return IOStats{}, fmt.Errorf("no network counters returned")
	}
	return IOStats{
		RecvBytes: counters[0].BytesRecv,
		SentBytes: counters[0].BytesSent,
	}, nil
}
