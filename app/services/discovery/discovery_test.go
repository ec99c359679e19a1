package discovery

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"posguard/domain/device"
	"posguard/domain/netstatus"
	"posguard/internal/configstore"
	"posguard/internal/hub"
	"posguard/internal/netguard"
)

type MockScanner struct {
	mock.Mock
}

func (m *MockScanner) Scan(ctx context.Context, subnet string) ([]Station, error) {
	args := m.Called(ctx, subnet)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]Station), args.Error(1)
}

type fakeStore struct {
	cfg   configstore.Config
	saves int
}

func (f *fakeStore) Snapshot() configstore.Config { return f.cfg }

func (f *fakeStore) Mutate(fn func(*configstore.Config) bool) error {
	if fn(&f.cfg) {
		f.saves++
	}
	return nil
}

type fakeLinks struct {
	eth     netstatus.LinkState
	wifi    netstatus.LinkState
	subnets []string
}

func (f *fakeLinks) Links() (netstatus.LinkState, netstatus.LinkState) { return f.eth, f.wifi }
func (f *fakeLinks) LocalSubnets() []string                           { return f.subnets }

type fakeHub struct {
	events []hub.Event
}

func (f *fakeHub) Broadcast(ev hub.Event) { f.events = append(f.events, ev) }

func (f *fakeHub) byType(kind string) []hub.Event {
	var out []hub.Event
	for _, ev := range f.events {
		if ev.Type == kind {
			out = append(out, ev)
		}
	}
	return out
}

type fakePusher struct {
	calls int
}

func (f *fakePusher) Push(ctx context.Context) error {
	f.calls++
	return nil
}

type harness struct {
	service *discoveryService
	store   *fakeStore
	scanner *MockScanner
	hub     *fakeHub
	guard   *netguard.Guard
	pusher  *fakePusher
}

func setupService(cfg configstore.Config) *harness {
	store := &fakeStore{cfg: cfg}
	scanner := new(MockScanner)
	broadcaster := &fakeHub{}
	guard := netguard.New()
	pusher := &fakePusher{}
	links := &fakeLinks{
		eth:     netstatus.LinkState{Connected: true, IP: "192.168.1.10", MAC: "b8:27:eb:00:00:01", CIDR: "192.168.1.10/24"},
		wifi:    netstatus.LinkState{Connected: true, IP: "10.0.0.5", MAC: "b8:27:eb:00:00:02", CIDR: "10.0.0.5/24"},
		subnets: []string{"192.168.1.0/24"},
	}
	service := NewWithDependencies(store, scanner, links, broadcaster, guard, pusher, "b8:27:eb:00:00:01")
	return &harness{service: service, store: store, scanner: scanner, hub: broadcaster, guard: guard, pusher: pusher}
}

// TestRun_NewStation_AddedUnmonitored - unseen stations join the inventory observed-only
func TestRun_NewStation_AddedUnmonitored(t *testing.T) {
	h := setupService(configstore.Defaults())
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{
		{IP: "192.168.1.42", MAC: "00:26:AB:11:22:33", Name: "printer"},
	}, nil)

	err := h.service.Run(context.Background())

	assert.NoError(t, err)
	assert.Len(t, h.store.cfg.Devices, 1)
	d := h.store.cfg.Devices[0]
	assert.Equal(t, "00:26:ab:11:22:33", d.MAC)
	assert.Equal(t, "192.168.1.42", d.IP)
	assert.False(t, d.IsMonitored)
	assert.False(t, d.IsIdentified)
	assert.Equal(t, device.StatusOnline, d.Status)
	assert.Equal(t, device.IfaceEth, d.Iface)
	assert.Equal(t, "Epson", d.Manufacturer)
	assert.NotZero(t, d.LastSeen)
	assert.Len(t, h.hub.byType(hub.KindNewDevice), 1)
	assert.Equal(t, 1, h.pusher.calls)
}

// TestRun_Idempotent - an identical rescan writes and broadcasts nothing
func TestRun_Idempotent(t *testing.T) {
	h := setupService(configstore.Defaults())
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{
		{IP: "192.168.1.42", MAC: "00:26:ab:11:22:33"},
	}, nil)

	assert.NoError(t, h.service.Run(context.Background()))
	savesAfterFirst := h.store.saves
	assert.NoError(t, h.service.Run(context.Background()))

	assert.Equal(t, savesAfterFirst, h.store.saves)
	assert.Len(t, h.hub.byType(hub.KindNewDevice), 1)
	assert.Empty(t, h.hub.byType(hub.KindUpdateDevice))
	assert.Equal(t, 1, h.pusher.calls)
}

// TestRun_IPChange_TrackedWhenEnabled - address moves follow the policy flag
func TestRun_IPChange_TrackedWhenEnabled(t *testing.T) {
	cfg := configstore.Defaults()
	cfg.Devices = []device.Device{{
		MAC: "00:26:ab:11:22:33", IP: "192.168.1.42", Iface: device.IfaceEth,
		Manufacturer: "Epson", Status: device.StatusOnline, IsMonitored: true,
	}}
	h := setupService(cfg)
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{
		{IP: "192.168.1.99", MAC: "00:26:ab:11:22:33"},
	}, nil)

	assert.NoError(t, h.service.Run(context.Background()))

	assert.Equal(t, "192.168.1.99", h.store.cfg.Devices[0].IP)
	assert.Len(t, h.hub.byType(hub.KindUpdateDevice), 1)
}

// TestRun_IPChange_IgnoredWhenDisabled - trackIpChanges off freezes recorded addresses
func TestRun_IPChange_IgnoredWhenDisabled(t *testing.T) {
	cfg := configstore.Defaults()
	cfg.Settings.TrackIPChanges = false
	cfg.Devices = []device.Device{{
		MAC: "00:26:ab:11:22:33", IP: "192.168.1.42", Iface: device.IfaceEth,
		Manufacturer: "Epson", Status: device.StatusOnline,
	}}
	h := setupService(cfg)
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{
		{IP: "192.168.1.99", MAC: "00:26:ab:11:22:33"},
	}, nil)

	assert.NoError(t, h.service.Run(context.Background()))

	assert.Equal(t, "192.168.1.42", h.store.cfg.Devices[0].IP)
	assert.Empty(t, h.hub.byType(hub.KindUpdateDevice))
}

// TestRun_ManufacturerFilledOnlyWhenEmpty - a known vendor is never overwritten
func TestRun_ManufacturerFilledOnlyWhenEmpty(t *testing.T) {
	cfg := configstore.Defaults()
	cfg.Devices = []device.Device{{
		MAC: "00:26:ab:11:22:33", IP: "192.168.1.42", Iface: device.IfaceEth,
		Manufacturer: "Custom Label", Status: device.StatusOnline,
	}}
	h := setupService(cfg)
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{
		{IP: "192.168.1.42", MAC: "00:26:ab:11:22:33", Manufacturer: "Seiko Epson Corp."},
	}, nil)

	assert.NoError(t, h.service.Run(context.Background()))

	assert.Equal(t, "Custom Label", h.store.cfg.Devices[0].Manufacturer)
}

// TestRun_ConfiguredSubnetWins - an explicit scan subnet overrides local enumeration
func TestRun_ConfiguredSubnetWins(t *testing.T) {
	cfg := configstore.Defaults()
	cfg.Settings.Network.ScanSubnet = "172.16.5.0/24"
	h := setupService(cfg)
	h.scanner.On("Scan", mock.Anything, "172.16.5.0/24").Return([]Station{}, nil)

	assert.NoError(t, h.service.Run(context.Background()))

	h.scanner.AssertCalled(t, "Scan", mock.Anything, "172.16.5.0/24")
	h.scanner.AssertNumberOfCalls(t, "Scan", 1)
}

// TestRun_GuardHeld_ReturnsBusy - a sweep never runs under another exclusive operation
func TestRun_GuardHeld_ReturnsBusy(t *testing.T) {
	h := setupService(configstore.Defaults())
	assert.NoError(t, h.guard.Acquire())
	defer h.guard.Release()

	err := h.service.Run(context.Background())

	assert.ErrorIs(t, err, netguard.ErrBusy)
	h.scanner.AssertNotCalled(t, "Scan", mock.Anything, mock.Anything)
}

// TestRun_ReleasesGuard - the wire is free again after a sweep
func TestRun_ReleasesGuard(t *testing.T) {
	h := setupService(configstore.Defaults())
	h.scanner.On("Scan", mock.Anything, "192.168.1.0/24").Return([]Station{}, nil)

	assert.NoError(t, h.service.Run(context.Background()))

	assert.False(t, h.guard.Busy())
}
