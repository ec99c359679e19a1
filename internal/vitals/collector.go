// Package vitals samples host health (CPU temperature, load, memory, disk)
// for the dashboard's VITALS_UPDATE broadcast.
package vitals

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/load"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/shirou/gopsutil/v4/sensors"

	"posguard/domain/netstatus"
)

// fallbackCPUTemp is reported when no thermal sensor is readable; the
// dashboard treats it as "nominal, unmeasured".
const fallbackCPUTemp = 45.0

// SystemReader abstracts the gopsutil calls for tests.
type SystemReader interface {
	LoadAvg(ctx context.Context) (float64, error)
	Memory(ctx context.Context) (free, total uint64, err error)
	DiskFreePct(ctx context.Context) (float64, error)
	CPUTemp(ctx context.Context) (float64, error)
}

type Collector struct {
	sys SystemReader
}

func New() *Collector {
	return NewWithReader(&gopsutilReader{})
}

func NewWithReader(sys SystemReader) *Collector {
	return &Collector{sys: sys}
}

// Collect never fails; unreadable sources leave their fields at a safe value.
func (c *Collector) Collect(ctx context.Context) netstatus.Vitals {
	v := netstatus.Vitals{CPUTemp: fallbackCPUTemp}

	if loadAvg, err := c.sys.LoadAvg(ctx); err == nil {
		v.CPULoad = loadAvg
	}
	if free, total, err := c.sys.Memory(ctx); err == nil {
		v.FreeRAM = free
		v.TotalRAM = total
	}
	if pct, err := c.sys.DiskFreePct(ctx); err == nil {
		v.DiskFreePct = pct
	}
	if temp, err := c.sys.CPUTemp(ctx); err == nil && temp > 0 {
		v.CPUTemp = temp
	}
	return v
}

type gopsutilReader struct{}

func (g *gopsutilReader) LoadAvg(ctx context.Context) (float64, error) {
	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return 0, err
	}
	return avg.Load1, nil
}

func (g *gopsutilReader) Memory(ctx context.Context) (uint64, uint64, error) {
	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return 0, 0, err
	}
	return vm.Available, vm.Total, nil
}

func (g *gopsutilReader) DiskFreePct(ctx context.Context) (float64, error) {
	usage, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return 0, err
	}
	return 100 - usage.UsedPercent, nil
}

func (g *gopsutilReader) CPUTemp(ctx context.Context) (float64, error) {
	temps, err := sensors.TemperaturesWithContext(ctx)
	if err != nil {
		return 0, err
	}
	for _, t := range temps {
		key := strings.ToLower(t.SensorKey)
		if strings.Contains(key, "cpu") || strings.Contains(key, "coretemp") || strings.Contains(key, "thermal") {
			return t.Temperature, nil
		}
	}
	if len(temps) > 0 {
		return temps[0].Temperature, nil
	}
	return 0, nil
}
