// Package netprobe provides the agent's reachability primitives: ICMP ping
// with bounded retries, WAN liveness, DNS resolution timing, and ARP occupancy
// lookups. Every probe converts failure into a typed negative result; nothing
// here returns an error to its caller except for malformed input.
package netprobe

import (
	"context"
	"fmt"
	"net"
	"time"

	"posguard/internal/cmdexec"
)

const (
	pingAttempts     = 3
	pingRetrySpacing = 200 * time.Millisecond
	dnsProbeHost     = "google.com"
	dnsProbeTimeout  = 3 * time.Second
)

// WanResult is the outcome of a single WAN liveness probe.
type WanResult struct {
	Online        bool
	LatencyMs     int
	PacketLossPct int
}

// DNSResult reports whether a fixed hostname resolved, and how long the
// attempt took either way.
type DNSResult struct {
	OK         bool
	DurationMs int64
}

// Resolver matches the subset of net.Resolver the probe needs.
type Resolver interface {
	LookupHost(ctx context.Context, host string) ([]string, error)
}

// Prober issues network probes through an injected command runner so tests
// never touch the wire.
type Prober struct {
	runner    cmdexec.Runner
	wiredName string
	resolver  Resolver
	sleepFn   func(time.Duration)
}

type Config struct {
	Runner    cmdexec.Runner
	WiredName string
	Resolver  Resolver
	SleepFn   func(time.Duration)
}

func New(runner cmdexec.Runner, wiredName string) *Prober {
	return NewWithConfig(Config{Runner: runner, WiredName: wiredName})
}

func NewWithConfig(cfg Config) *Prober {
	if cfg.WiredName == "" {
		cfg.WiredName = "eth0"
	}
	if cfg.Resolver == nil {
		cfg.Resolver = net.DefaultResolver
	}
	if cfg.SleepFn == nil {
		cfg.SleepFn = time.Sleep
	}
	return &Prober{
		runner:    cfg.Runner,
		wiredName: cfg.WiredName,
		resolver:  cfg.Resolver,
		sleepFn:   cfg.SleepFn,
	}
}

// PingAlive probes ip up to 3 times, 200ms apart, and reports true on the
// first positive reply. The retries absorb transient loss on a noisy LAN; a
// device is only reported down when every attempt fails.
func (p *Prober) PingAlive(ctx context.Context, ip string, timeout time.Duration) bool {
	for attempt := 0; attempt < pingAttempts; attempt++ {
		if attempt > 0 {
			p.sleepFn(pingRetrySpacing)
		}
		if p.pingOnce(ctx, ip, timeout) {
			return true
		}
	}
	return false
}

func (p *Prober) pingOnce(ctx context.Context, ip string, timeout time.Duration) bool {
	secs := int(timeout / time.Second)
	if secs < 1 {
		secs = 1
	}
	_, err := p.runner.Run(ctx, "ping", "-c", "1", "-W", fmt.Sprintf("%d", secs), ip)
	return err == nil
}

// CheckWan probes a single external target. Any failure, including a runner
// error, maps to offline with 100% loss; the caller never sees an error.
func (p *Prober) CheckWan(ctx context.Context, target string) WanResult {
	out, err := p.runner.Run(ctx, "ping", "-c", "1", "-W", "2", target)
	if err != nil {
		return WanResult{Online: false, PacketLossPct: 100}
	}
	latency := parseReplyLatency(out)
	return WanResult{Online: true, LatencyMs: latency, PacketLossPct: 0}
}

// CheckDNS resolves a fixed hostname and records wall-clock duration for both
// outcomes.
func (p *Prober) CheckDNS(ctx context.Context) DNSResult {
	ctx, cancel := context.WithTimeout(ctx, dnsProbeTimeout)
	defer cancel()

	start := time.Now()
	_, err := p.resolver.LookupHost(ctx, dnsProbeHost)
	return DNSResult{
		OK:         err == nil,
		DurationMs: time.Since(start).Milliseconds(),
	}
}
