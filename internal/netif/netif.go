// Package netif reads local interface state: which wired/wireless links are
// up, their addresses and subnets, and which interface a foreign IP belongs
// to. Interface classification is name-prefix based (eth*/en* wired,
// wlan*/wl* wireless), the convention on the devices this agent ships on.
package netif

import (
	"net"
	"strings"

	"posguard/domain/device"
	"posguard/domain/netstatus"
)

// InterfaceLister abstracts net.Interfaces for tests.
type InterfaceLister func() ([]net.Interface, error)

type Reader struct {
	listFn InterfaceLister
}

func New() *Reader {
	return NewWithLister(net.Interfaces)
}

func NewWithLister(fn InterfaceLister) *Reader {
	return &Reader{listFn: fn}
}

func isWiredName(name string) bool {
	return strings.HasPrefix(name, "eth") || strings.HasPrefix(name, "en")
}

func isWirelessName(name string) bool {
	return strings.HasPrefix(name, "wlan") || strings.HasPrefix(name, "wl")
}

func linkState(iface net.Interface) netstatus.LinkState {
	if iface.Flags&net.FlagUp == 0 {
		return netstatus.LinkState{}
	}
	addrs, err := iface.Addrs()
	if err != nil {
		return netstatus.LinkState{}
	}
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		v4 := ipnet.IP.To4()
		if v4 == nil || v4.IsLoopback() {
			continue
		}
		return netstatus.LinkState{
			Connected: true,
			IP:        v4.String(),
			MAC:       strings.ToLower(iface.HardwareAddr.String()),
			CIDR:      ipnet.String(),
		}
	}
	return netstatus.LinkState{}
}

// Links returns the current wired and wireless link state.
func (r *Reader) Links() (eth, wifi netstatus.LinkState) {
	ifaces, err := r.listFn()
	if err != nil {
		return
	}
	for _, iface := range ifaces {
		switch {
		case !eth.Connected && isWiredName(iface.Name):
			eth = linkState(iface)
		case !wifi.Connected && isWirelessName(iface.Name):
			wifi = linkState(iface)
		}
	}
	return
}

// WiredName returns the name of the first wired interface, defaulting to
// eth0 when none is found.
func (r *Reader) WiredName() string {
	ifaces, err := r.listFn()
	if err == nil {
		for _, iface := range ifaces {
			if isWiredName(iface.Name) {
				return iface.Name
			}
		}
	}
	return "eth0"
}

// AgentMAC is the agent's own identity: the wired MAC when present, else the
// wireless one, else the first non-loopback interface's.
func (r *Reader) AgentMAC() string {
	eth, wifi := r.Links()
	if eth.MAC != "" {
		return eth.MAC
	}
	if wifi.MAC != "" {
		return wifi.MAC
	}
	ifaces, err := r.listFn()
	if err != nil {
		return ""
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 {
			continue
		}
		if mac := iface.HardwareAddr.String(); mac != "" {
			return strings.ToLower(mac)
		}
	}
	return ""
}

// LocalSubnets lists every IPv4 CIDR attached to a non-loopback interface.
func (r *Reader) LocalSubnets() []string {
	var subnets []string
	ifaces, err := r.listFn()
	if err != nil {
		return subnets
	}
	for _, iface := range ifaces {
		if iface.Flags&net.FlagLoopback != 0 || iface.Flags&net.FlagUp == 0 {
			continue
		}
		addrs, err := iface.Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
				subnets = append(subnets, ipnet.String())
			}
		}
	}
	return subnets
}

// IPInCIDR reports whether ip falls inside cidr. Malformed input is false.
func IPInCIDR(ip, cidr string) bool {
	parsed := net.ParseIP(ip)
	if parsed == nil {
		return false
	}
	_, network, err := net.ParseCIDR(cidr)
	if err != nil {
		return false
	}
	return network.Contains(parsed)
}

// Classify assigns a discovered IP to the wired or wireless subnet, else
// unknown.
func Classify(ip string, eth, wifi netstatus.LinkState) device.Iface {
	if eth.CIDR != "" && IPInCIDR(ip, eth.CIDR) {
		return device.IfaceEth
	}
	if wifi.CIDR != "" && IPInCIDR(ip, wifi.CIDR) {
		return device.IfaceWifi
	}
	return device.IfaceUnknown
}

// SubnetPrefix extracts the first three octets of an IPv4 address, e.g.
// "192.168.1.57" -> "192.168.1". Empty when the address is not IPv4.
func SubnetPrefix(ip string) string {
	parsed := net.ParseIP(ip)
	if parsed == nil || parsed.To4() == nil {
		return ""
	}
	parts := strings.Split(parsed.To4().String(), ".")
	return strings.Join(parts[:3], ".")
}
