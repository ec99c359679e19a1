package discovery

import (
	"bufio"
	"context"
	"fmt"
	"regexp"
	"strings"

	"posguard/internal/cmdexec"
)

var (
	reportPattern = regexp.MustCompile(`^Nmap scan report for (?:(.+) \((\d+\.\d+\.\d+\.\d+)\)|(\d+\.\d+\.\d+\.\d+))$`)
	macPattern    = regexp.MustCompile(`^MAC Address: ([0-9A-Fa-f:]{17})(?: \((.+)\))?$`)
)

// NmapScanner shells out to nmap's ping sweep. Hosts with no MAC line, which
// includes the scanning host itself, are dropped.
type NmapScanner struct {
	runner cmdexec.Runner
}

func NewNmapScanner(runner cmdexec.Runner) *NmapScanner {
	return &NmapScanner{runner: runner}
}

func (n *NmapScanner) Scan(ctx context.Context, subnet string) ([]Station, error) {
	out, err := n.runner.Run(ctx, "sudo", "nmap", "-sn", subnet)
	if err != nil {
		return nil, fmt.Errorf("nmap sweep of %s failed: %w", subnet, err)
	}
	return parseNmap(out), nil
}

func parseNmap(out string) []Station {
	var stations []Station
	var current Station

	sc := bufio.NewScanner(strings.NewReader(out))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())

		if m := reportPattern.FindStringSubmatch(line); m != nil {
			current = Station{}
			if m[3] != "" {
				current.IP = m[3]
			} else {
				current.Name = m[1]
				current.IP = m[2]
			}
			continue
		}

		if m := macPattern.FindStringSubmatch(line); m != nil && current.IP != "" {
			current.MAC = m[1]
			vendor := m[2]
			if vendor == "Unknown" {
				vendor = ""
			}
			current.Manufacturer = vendor
			stations = append(stations, current)
			current = Station{}
		}
	}
	return stations
}
