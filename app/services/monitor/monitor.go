// Package monitor runs the periodic health pass: refresh local link state,
// probe WAN and DNS, watch the claimed static address for squatters, and ping
// every monitored device in inventory order.
package monitor

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/domain/statuslog"
	"posguard/internal/configstore"
	"posguard/internal/controlplane"
	"posguard/internal/hub"
	"posguard/internal/netprobe"
)

type ConfigStore interface {
	Snapshot() configstore.Config
	Mutate(fn func(*configstore.Config) bool) error
}

type Prober interface {
	PingAlive(ctx context.Context, ip string, timeout time.Duration) bool
	CheckWan(ctx context.Context, target string) netprobe.WanResult
	CheckDNS(ctx context.Context) netprobe.DNSResult
	ArpOccupant(ctx context.Context, ip string) *netprobe.Occupant
}

type LinkReader interface {
	Links() (eth, wifi netstatus.LinkState)
}

type ThroughputSampler interface {
	Sample(ctx context.Context) (recvPerSec, sentPerSec float64)
}

type VitalsCollector interface {
	Collect(ctx context.Context) netstatus.Vitals
}

type Broadcaster interface {
	Broadcast(ev hub.Event)
}

// GuardChecker reports whether an exclusive network operation (scan, claim,
// diagnostics) holds the wire. Device polling yields to it between pings.
type GuardChecker interface {
	Busy() bool
}

type Service interface {
	Pass(ctx context.Context) error
	LastStatus() (netstatus.NetworkStatus, netstatus.Vitals)
}

type monitorService struct {
	store      ConfigStore
	prober     Prober
	links      LinkReader
	throughput ThroughputSampler
	vitals     VitalsCollector
	hub        Broadcaster
	journal    statuslog.Repository
	reporter   controlplane.StatusLogOperations
	guard      GuardChecker
	agentID    string

	mu          sync.Mutex
	lastStatus  netstatus.NetworkStatus
	lastVitals  netstatus.Vitals
	conflictKey string
}

func NewWithDependencies(
	store ConfigStore,
	prober Prober,
	links LinkReader,
	throughput ThroughputSampler,
	vitals VitalsCollector,
	broadcaster Broadcaster,
	journal statuslog.Repository,
	reporter controlplane.StatusLogOperations,
	guard GuardChecker,
	agentID string,
) *monitorService {
	return &monitorService{
		store:      store,
		prober:     prober,
		links:      links,
		throughput: throughput,
		vitals:     vitals,
		hub:        broadcaster,
		journal:    journal,
		reporter:   reporter,
		guard:      guard,
		agentID:    agentID,
	}
}

// Pass runs one full monitor cycle. Device polls are skipped while the WAN is
// down so a dead uplink does not mark the whole store offline, and they yield
// to any exclusive network operation.
func (s *monitorService) Pass(ctx context.Context) error {
	cfg := s.store.Snapshot()

	status := s.collectStatus(ctx, cfg)
	vit := s.vitals.Collect(ctx)

	s.mu.Lock()
	s.lastStatus = status
	s.lastVitals = vit
	s.mu.Unlock()

	s.hub.Broadcast(hub.NetworkStatus(s.agentID, status))
	s.hub.Broadcast(hub.VitalsUpdate(s.agentID, vit))

	s.checkSelfConflict(ctx, status)

	if status.Wan != netstatus.WanOnline {
		logrus.WithField("wan", status.Wan).Warn("wan offline, skipping device polls")
		return nil
	}

	if s.guard.Busy() {
		logrus.Debug("network busy, skipping device polls")
		return nil
	}

	return s.pollDevices(ctx, cfg)
}

// LastStatus returns the snapshots produced by the most recent pass.
func (s *monitorService) LastStatus() (netstatus.NetworkStatus, netstatus.Vitals) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastStatus, s.lastVitals
}

func (s *monitorService) collectStatus(ctx context.Context, cfg configstore.Config) netstatus.NetworkStatus {
	eth, wifi := s.links.Links()
	recv, sent := s.throughput.Sample(ctx)

	target := cfg.Settings.Failover.PrimaryWanIP
	if target == "" {
		target = cfg.Settings.Failover.CheckTarget
	}
	wan := s.prober.CheckWan(ctx, target)
	dns := s.prober.CheckDNS(ctx)

	status := netstatus.NetworkStatus{
		Eth:             eth,
		Wifi:            wifi,
		Wan:             netstatus.WanOffline,
		LatencyMs:       wan.LatencyMs,
		PacketLossPct:   wan.PacketLossPct,
		RecvBytesPerSec: recv,
		SentBytesPerSec: sent,
	}
	if wan.Online {
		status.Wan = netstatus.WanOnline
	}
	status.DNS = netstatus.DNSState{Status: "Error", DurationMs: dns.DurationMs}
	if dns.OK {
		status.DNS.Status = "OK"
	}
	return status
}

// checkSelfConflict verifies nobody else answers for the agent's own wired
// address. A persisting squatter raises exactly one alert; the key resets
// when the address comes back. No remediation here, the operator decides.
func (s *monitorService) checkSelfConflict(ctx context.Context, status netstatus.NetworkStatus) {
	ip := status.Eth.IP
	if !status.Eth.Connected || ip == "" {
		s.setConflictKey("")
		return
	}

	occupant := s.prober.ArpOccupant(ctx, ip)
	if occupant == nil || occupant.MAC == status.Eth.MAC {
		s.setConflictKey("")
		return
	}

	key := occupant.MAC + "@" + ip
	if !s.setConflictKey(key) {
		return
	}

	thief := fmt.Sprintf("%s (%s)", occupant.MAC, occupant.Vendor)
	logrus.WithFields(logrus.Fields{
		"ip":    ip,
		"thief": thief,
	}).Warn("own address answered by another station")

	s.hub.Broadcast(hub.IPConflictAlert(s.agentID, ip, thief))
	s.journalEvent(ctx, statuslog.EventIPConflict, map[string]string{
		"stolen_ip": ip,
		"thief":     thief,
	})
}

// setConflictKey stores the conflict identity and reports whether it changed.
func (s *monitorService) setConflictKey(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.conflictKey == key {
		return false
	}
	s.conflictKey = key
	return true
}

func (s *monitorService) pollDevices(ctx context.Context, cfg configstore.Config) error {
	timeout := time.Duration(cfg.Settings.Network.PingTimeoutMs) * time.Millisecond
	now := time.Now()

	alive := make(map[string]bool)
	for _, d := range cfg.Devices {
		if !d.IsMonitored || d.IP == "" {
			continue
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if s.guard.Busy() {
			logrus.Debug("network became busy mid-pass, stopping device polls")
			break
		}
		alive[d.MAC] = s.prober.PingAlive(ctx, d.IP, timeout)
	}

	// Only a status flip hits the disk. LastSeen and the failure counter
	// still update in memory and ride along with the next real write.
	var changed []device.Device
	err := s.store.Mutate(func(c *configstore.Config) bool {
		for mac, up := range alive {
			d := c.FindDevice(mac)
			if d == nil {
				continue
			}
			if up {
				wasOffline := d.Status == device.StatusOffline
				d.MarkOnline(now)
				if wasOffline {
					changed = append(changed, *d)
				}
			} else if d.MarkOffline() {
				changed = append(changed, *d)
			}
		}
		return len(changed) > 0
	})
	if err != nil {
		return fmt.Errorf("failed to persist poll results: %w", err)
	}

	for _, d := range changed {
		s.hub.Broadcast(hub.UpdateDevice(s.agentID, d))
		s.journalEvent(ctx, statuslog.EventStatusChange, map[string]string{
			"mac":    d.MAC,
			"ip":     d.IP,
			"name":   d.Name,
			"status": string(d.Status),
		})
	}
	return nil
}

// journalEvent records locally first, then best-effort upstream. A dead uplink
// must never block the monitor loop.
func (s *monitorService) journalEvent(ctx context.Context, eventType string, details map[string]string) {
	raw, _ := json.Marshal(details)
	if s.journal != nil {
		if err := s.journal.Append(ctx, &statuslog.Entry{EventType: eventType, Details: string(raw)}); err != nil {
			logrus.WithError(err).Warn("failed to append local status log")
		}
	}
	if s.reporter != nil {
		if err := s.reporter.AppendStatusLog(ctx, s.agentID, eventType, details); err != nil {
			logrus.WithError(err).Warn("failed to report status log upstream")
		}
	}
}
