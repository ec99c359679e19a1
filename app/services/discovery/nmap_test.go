package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
)

type fakeRunner struct {
	output string
	err    error
	cmds   [][]string
}

func (f *fakeRunner) Run(ctx context.Context, name string, args ...string) (string, error) {
	f.cmds = append(f.cmds, append([]string{name}, args...))
	return f.output, f.err
}

const sweepOutput = `Starting Nmap 7.80 ( https://nmap.org ) at 2026-08-29 10:00 EDT
Nmap scan report for printer.lan (192.168.1.42)
Host is up (0.0021s latency).
MAC Address: 00:26:AB:11:22:33 (Seiko Epson)
Nmap scan report for 192.168.1.77
Host is up (0.085s latency).
MAC Address: DE:AD:BE:EF:00:01 (Unknown)
Nmap scan report for 192.168.1.10
Host is up.
Nmap done: 256 IP addresses (3 hosts up) scanned in 2.51 seconds
`

// TestNmapScanner_ParsesHostsWithMACs - named and bare report lines both parse
func TestNmapScanner_ParsesHostsWithMACs(t *testing.T) {
	runner := &fakeRunner{output: sweepOutput}
	scanner := NewNmapScanner(runner)

	stations, err := scanner.Scan(context.Background(), "192.168.1.0/24")

	assert.NoError(t, err)
	assert.Len(t, stations, 2)

	assert.Equal(t, "192.168.1.42", stations[0].IP)
	assert.Equal(t, "printer.lan", stations[0].Name)
	assert.Equal(t, "00:26:AB:11:22:33", stations[0].MAC)
	assert.Equal(t, "Seiko Epson", stations[0].Manufacturer)

	assert.Equal(t, "192.168.1.77", stations[1].IP)
	assert.Equal(t, "", stations[1].Name)
	assert.Equal(t, "", stations[1].Manufacturer)
}

// TestNmapScanner_SkipsScanningHost - the host with no MAC line is dropped
func TestNmapScanner_SkipsScanningHost(t *testing.T) {
	runner := &fakeRunner{output: sweepOutput}
	scanner := NewNmapScanner(runner)

	stations, _ := scanner.Scan(context.Background(), "192.168.1.0/24")

	for _, st := range stations {
		assert.NotEqual(t, "192.168.1.10", st.IP)
	}
}

// TestNmapScanner_RunsPrivilegedSweep - the scan shells the expected command
func TestNmapScanner_RunsPrivilegedSweep(t *testing.T) {
	runner := &fakeRunner{output: ""}
	scanner := NewNmapScanner(runner)

	_, err := scanner.Scan(context.Background(), "10.0.0.0/24")

	assert.NoError(t, err)
	assert.Equal(t, []string{"sudo", "nmap", "-sn", "10.0.0.0/24"}, runner.cmds[0])
}

// TestNmapScanner_RunnerError - a failed sweep surfaces the error
func TestNmapScanner_RunnerError(t *testing.T) {
	runner := &fakeRunner{err: assert.AnError}
	scanner := NewNmapScanner(runner)

	_, err := scanner.Scan(context.Background(), "10.0.0.0/24")

	assert.Error(t, err)
}
