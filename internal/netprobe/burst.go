package netprobe

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// ErrBurstParse is returned when ping output carries no usable statistics.
var ErrBurstParse = errors.New("could not parse ping statistics")

// BurstResult aggregates a short tightly-spaced probe burst against one target.
type BurstResult struct {
	Target        string  `json:"target"`
	Alive         bool    `json:"alive"`
	PacketLossPct float64 `json:"packetLoss"`
	AvgLatencyMs  float64 `json:"avgLatency"`
	MinLatencyMs  float64 `json:"min"`
	MaxLatencyMs  float64 `json:"max"`
	JitterMs      float64 `json:"jitter"`
}

// PingBurst fires count tightly spaced probes at target and parses the
// aggregate rtt and loss statistics. A burst where every packet is lost is a
// valid result, not an error; errors are reserved for unusable output.
func (p *Prober) PingBurst(ctx context.Context, target string, count int) (BurstResult, error) {
	if count <= 0 {
		count = 5
	}
	out, err := p.runner.Run(ctx, "ping", "-c", fmt.Sprintf("%d", count), "-i", "0.2", target)
	if err != nil && out == "" {
		return BurstResult{}, fmt.Errorf("ping burst failed: %w", err)
	}
	return parseBurst(target, out)
}

var (
	lossPattern = regexp.MustCompile(`([\d.]+)% packet loss`)
	rttPattern  = regexp.MustCompile(`(?:rtt|round-trip) min/avg/max/(?:mdev|stddev) = ([\d.]+)/([\d.]+)/([\d.]+)/([\d.]+)`)
)

func parseBurst(target, out string) (BurstResult, error) {
	res := BurstResult{Target: target}

	m := lossPattern.FindStringSubmatch(out)
	if m == nil {
		return BurstResult{}, ErrBurstParse
	}
	loss, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return BurstResult{}, ErrBurstParse
	}
	res.PacketLossPct = loss
	res.Alive = loss < 100

	if rtt := rttPattern.FindStringSubmatch(out); rtt != nil {
		res.MinLatencyMs, _ = strconv.ParseFloat(rtt[1], 64)
		res.AvgLatencyMs, _ = strconv.ParseFloat(rtt[2], 64)
		res.MaxLatencyMs, _ = strconv.ParseFloat(rtt[3], 64)
		res.JitterMs, _ = strconv.ParseFloat(rtt[4], 64)
	} else if res.Alive {
		// replies seen but no stats line; treat as unusable output
		return BurstResult{}, ErrBurstParse
	}
	return res, nil
}

// parseReplyLatency pulls the round-trip time out of a single reply line,
// e.g. "64 bytes from 8.8.8.8: icmp_seq=1 ttl=115 time=12.3 ms".
func parseReplyLatency(out string) int {
	for _, line := range strings.Split(out, "\n") {
		if idx := strings.Index(line, "time="); idx >= 0 {
			rest := line[idx+len("time="):]
			if end := strings.Index(rest, " "); end > 0 {
				if v, err := strconv.ParseFloat(rest[:end], 64); err == nil {
					return int(v + 0.5)
				}
			}
		}
	}
	return 0
}
