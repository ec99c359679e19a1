package netprobe

import (
	"context"
	"regexp"

	"posguard/internal/vendorlookup"
)

// Occupant identifies which station answered an ARP probe for an address.
type Occupant struct {
	MAC    string
	Vendor string
}

// Unidentified marks a reply whose MAC could not be parsed. The address is
// occupied, just not by anyone we can name; callers must treat this
// differently from a free address.
func (o Occupant) Unidentified() bool {
	return o.MAC == "unknown"
}

var arpMACPattern = regexp.MustCompile(`\[([0-9A-Fa-f:]{17})\]`)

// ArpOccupant issues a single ARP probe on the wired interface. A nil result
// means nobody answered and the address is free. A reply with an unparsable
// payload still yields the sentinel unidentified occupant.
func (p *Prober) ArpOccupant(ctx context.Context, ip string) *Occupant {
	out, err := p.runner.Run(ctx, "sudo", "arping", "-c", "1", "-I", p.wiredName, ip)
	if err != nil {
		return nil
	}
	m := arpMACPattern.FindStringSubmatch(out)
	if m == nil {
		return &Occupant{MAC: "unknown", Vendor: "Unknown"}
	}
	return &Occupant{MAC: m[1], Vendor: vendorlookup.Guess(m[1])}
}
