// Package device holds the tracked network station model.
package device

import (
	"strings"
	"time"
)

// Status is the reachability state of a monitored device.
type Status string

const (
	StatusOnline  Status = "Online"
	StatusOffline Status = "Offline"
)

// Iface classifies which local interface's subnet a device was seen on.
type Iface string

const (
	IfaceEth     Iface = "eth"
	IfaceWifi    Iface = "wifi"
	IfaceUnknown Iface = "unknown"
)

// Device is one tracked network station. MAC is the unique key and is always
// stored lowercase.
type Device struct {
	MAC              string  `json:"mac"`
	IP               string  `json:"ip"`
	Name             string  `json:"name"`
	Type             string  `json:"type"`
	Manufacturer     string  `json:"manufacturer"`
	Iface            Iface   `json:"iface"`
	IsMonitored      bool    `json:"is_monitored"`
	IsIdentified     bool    `json:"is_identified"`
	LastSeen         int64   `json:"last_seen"`
	ParentDependency *string `json:"parent_dependency"`
	Status           Status  `json:"status"`
	FailureCount     int     `json:"failureCount"`
	Location         string  `json:"location,omitempty"`
}

// CanonicalMAC lowercases a raw MAC address for use as an inventory key.
func CanonicalMAC(raw string) string {
	return strings.ToLower(strings.TrimSpace(raw))
}

// MarkOnline records a successful probe. Coming online always clears the
// failure counter.
func (d *Device) MarkOnline(now time.Time) {
	d.Status = StatusOnline
	d.LastSeen = now.UnixMilli()
	d.FailureCount = 0
}

// MarkOffline records a missed probe. The probe itself already retries, so a
// single miss flips the device offline and starts counting consecutive
// misses. LastSeen is left untouched so it keeps pointing at the last
// successful sighting. Returns true only on the Online to Offline
// transition, so a device raises one alert per outage.
func (d *Device) MarkOffline() bool {
	d.FailureCount++
	if d.Status == StatusOnline {
		d.Status = StatusOffline
		return true
	}
	return false
}
