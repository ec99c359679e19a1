// Package netstatus holds the ephemeral network and host health snapshots
// rebuilt on every monitor pass. Nothing here is persisted.
package netstatus

// LinkState describes one local interface.
type LinkState struct {
	Connected bool   `json:"connected"`
	IP        string `json:"ip,omitempty"`
	MAC       string `json:"mac,omitempty"`
	CIDR      string `json:"cidr,omitempty"`
}

// WanState is the result of a single WAN reachability probe.
type WanState string

const (
	WanOnline  WanState = "Online"
	WanOffline WanState = "Offline"
	WanUnknown WanState = "Unknown"
)

// DNSState is the outcome of a DNS resolution probe.
type DNSState struct {
	Status     string `json:"status"` // "OK", "Error" or "Unknown"
	DurationMs int64  `json:"duration"`
}

// NetworkStatus is the current connectivity picture.
type NetworkStatus struct {
	Eth            LinkState `json:"eth"`
	Wifi           LinkState `json:"wifi"`
	Wan            WanState  `json:"wan"`
	LatencyMs      int       `json:"latency"`
	PacketLossPct  int       `json:"packetLoss"`
	DNS            DNSState  `json:"dns"`
	RecvBytesPerSec float64  `json:"recvBytesPerSec"`
	SentBytesPerSec float64  `json:"sentBytesPerSec"`
}

// CurrentIP picks the address the agent reports upstream: wired first, then
// wireless, else the zero address.
func (n NetworkStatus) CurrentIP() string {
	if n.Eth.Connected && n.Eth.IP != "" {
		return n.Eth.IP
	}
	if n.Wifi.Connected && n.Wifi.IP != "" {
		return n.Wifi.IP
	}
	return "0.0.0.0"
}

// Vitals is the host health snapshot broadcast to the dashboard.
type Vitals struct {
	CPUTemp     float64 `json:"cpuTemp"`
	CPULoad     float64 `json:"cpuLoad"`
	FreeRAM     uint64  `json:"freeRam"`
	TotalRAM    uint64  `json:"totalRam"`
	DiskFreePct float64 `json:"diskFreePct"`
}
