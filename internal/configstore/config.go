package configstore

import (
	"time"

	log "github.com/sirupsen/logrus"

	"posguard/domain/device"
)

// SchemaVersion is the current config schema version.
const SchemaVersion = 1

// Meta carries schema bookkeeping.
type Meta struct {
	Version  int   `json:"version"`
	LastSync int64 `json:"last_sync"`
}

// RebootSchedule is the structured daily-reboot trigger. Time is "HH:MM" in
// the given IANA timezone.
type RebootSchedule struct {
	Enabled  bool   `json:"enabled"`
	Time     string `json:"time"`
	Timezone string `json:"timezone"`
}

// NetworkSettings tune probing and the agent's claimed address slot.
type NetworkSettings struct {
	ScanSubnet          string `json:"scan_subnet"`
	ClaimedStaticIP     string `json:"claimed_static_ip"`
	PingIntervalSeconds int    `json:"ping_interval_seconds"`
	PingTimeoutMs       int    `json:"ping_timeout_ms"`
	FailureThreshold    int    `json:"failure_threshold"`
}

// FailoverSettings configure WAN liveness checking.
type FailoverSettings struct {
	PrimaryWanIP string `json:"primary_wan_ip"`
	CheckTarget  string `json:"check_target"`
}

// Settings is the operator-tunable half of the config.
type Settings struct {
	LocationID     string           `json:"location_id"`
	TrackIPChanges bool             `json:"trackIpChanges"`
	RebootSchedule RebootSchedule   `json:"reboot_schedule"`
	Network        NetworkSettings  `json:"network"`
	Failover       FailoverSettings `json:"failover"`
}

// Config is the whole persisted agent state: settings plus device inventory.
type Config struct {
	Meta     Meta            `json:"meta"`
	Settings Settings        `json:"settings"`
	Devices  []device.Device `json:"devices"`
}

// Defaults returns a fully populated default config. Load overlays the stored
// file on top of this, so any field the file omits keeps its default.
func Defaults() Config {
	return Config{
		Meta: Meta{Version: SchemaVersion},
		Settings: Settings{
			LocationID:     "loc_default",
			TrackIPChanges: true,
			RebootSchedule: RebootSchedule{
				Enabled:  true,
				Time:     "05:00",
				Timezone: "America/New_York",
			},
			Network: NetworkSettings{
				PingIntervalSeconds: 15,
				PingTimeoutMs:       1500,
				FailureThreshold:    3,
			},
			Failover: FailoverSettings{
				CheckTarget: "8.8.8.8",
			},
		},
		Devices: []device.Device{},
	}
}

// FindDevice returns a pointer into the inventory for the given canonical MAC,
// or nil. Callers must hold the store lock (use Store.Mutate).
func (c *Config) FindDevice(mac string) *device.Device {
	for i := range c.Devices {
		if device.CanonicalMAC(c.Devices[i].MAC) == mac {
			return &c.Devices[i]
		}
	}
	return nil
}

// normalize repairs fields after load so invariants hold regardless of what
// the file contained. The failure counter is ephemeral across restarts.
func (c *Config) normalize() {
	sched := &c.Settings.RebootSchedule
	if _, err := time.Parse("15:04", sched.Time); err != nil {
		log.Warnf("invalid reboot time %q, restoring default", sched.Time)
		sched.Time = Defaults().Settings.RebootSchedule.Time
	}
	if _, err := time.LoadLocation(sched.Timezone); err != nil {
		log.Warnf("invalid reboot timezone %q, falling back to UTC", sched.Timezone)
		sched.Timezone = "UTC"
	}
	if c.Devices == nil {
		c.Devices = []device.Device{}
	}
	for i := range c.Devices {
		d := &c.Devices[i]
		d.MAC = device.CanonicalMAC(d.MAC)
		if d.Status != device.StatusOnline {
			d.Status = device.StatusOffline
		}
		d.FailureCount = 0
		if d.Iface == "" {
			d.Iface = device.IfaceUnknown
		}
		if d.Type == "" {
			d.Type = "unknown"
		}
	}
}
