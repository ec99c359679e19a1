package inventorysync

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"posguard/domain/device"
	"posguard/internal/configstore"
	"posguard/internal/controlplane"
)

type MockControlPlane struct {
	mock.Mock
}

func (m *MockControlPlane) FetchInventoryMetadata(ctx context.Context, agentID string) ([]controlplane.DeviceMetadata, error) {
	args := m.Called(ctx, agentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]controlplane.DeviceMetadata), args.Error(1)
}

func (m *MockControlPlane) PushInventory(ctx context.Context, agentID string, snapshots []controlplane.DeviceSnapshot) error {
	args := m.Called(ctx, agentID, snapshots)
	return args.Error(0)
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

func boolPtr(b bool) *bool { return &b }

func setupService(devices ...device.Device) (*syncService, *fakeStore, *MockControlPlane) {
	cfg := configstore.Defaults()
	cfg.Devices = devices
	store := &fakeStore{cfg: cfg}
	cp := new(MockControlPlane)
	return NewWithDependencies(store, cp, "b8:27:eb:00:00:01"), store, cp
}

// TestSync_AdoptsMetadataAndPromotes - a named device becomes identified
func TestSync_AdoptsMetadataAndPromotes(t *testing.T) {
	service, store, cp := setupService(device.Device{
		MAC: "00:26:ab:11:22:33", IP: "192.168.1.42", Status: device.StatusOnline,
	})
	cp.On("FetchInventoryMetadata", mock.Anything, "b8:27:eb:00:00:01").Return([]controlplane.DeviceMetadata{
		{MAC: "00:26:AB:11:22:33", Name: "Kitchen Printer", Location: "Kitchen", IsMonitored: boolPtr(true)},
	}, nil)
	cp.On("PushInventory", mock.Anything, "b8:27:eb:00:00:01", mock.Anything).Return(nil)

	err := service.Sync(context.Background())

	assert.NoError(t, err)
	d := store.cfg.Devices[0]
	assert.Equal(t, "Kitchen Printer", d.Name)
	assert.Equal(t, "Kitchen", d.Location)
	assert.True(t, d.IsMonitored)
	assert.True(t, d.IsIdentified)
	assert.NotZero(t, store.cfg.Meta.LastSync)
	cp.AssertExpectations(t)
}

// TestSync_IdenticalMetadata_NoWrite - a converged inventory is not rewritten
func TestSync_IdenticalMetadata_NoWrite(t *testing.T) {
	service, store, cp := setupService(device.Device{
		MAC: "00:26:ab:11:22:33", Name: "Kitchen Printer", Location: "Kitchen",
		IsMonitored: true, IsIdentified: true, Status: device.StatusOnline,
	})
	cp.On("FetchInventoryMetadata", mock.Anything, mock.Anything).Return([]controlplane.DeviceMetadata{
		{MAC: "00:26:ab:11:22:33", Name: "Kitchen Printer", Location: "Kitchen", IsMonitored: boolPtr(true)},
	}, nil)
	cp.On("PushInventory", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := service.Sync(context.Background())

	assert.NoError(t, err)
	assert.Equal(t, 0, store.saves)
}

// TestSync_UnknownMAC_Ignored - metadata for a device we have never seen is dropped
func TestSync_UnknownMAC_Ignored(t *testing.T) {
	service, store, cp := setupService()
	cp.On("FetchInventoryMetadata", mock.Anything, mock.Anything).Return([]controlplane.DeviceMetadata{
		{MAC: "ff:ff:ff:00:00:01", Name: "Ghost"},
	}, nil)
	cp.On("PushInventory", mock.Anything, mock.Anything, mock.Anything).Return(nil)

	err := service.Sync(context.Background())

	assert.NoError(t, err)
	assert.Empty(t, store.cfg.Devices)
	assert.Equal(t, 0, store.saves)
}

// TestSync_FetchFails_NothingPushed - a dead uplink aborts before any mutation
func TestSync_FetchFails_NothingPushed(t *testing.T) {
	service, store, cp := setupService()
	cp.On("FetchInventoryMetadata", mock.Anything, mock.Anything).Return(nil, errors.New("502"))

	err := service.Sync(context.Background())

	assert.Error(t, err)
	assert.Equal(t, 0, store.saves)
	cp.AssertNotCalled(t, "PushInventory", mock.Anything, mock.Anything, mock.Anything)
}

// TestPush_SendsOneSnapshotPerDevice - the upload covers the whole inventory
func TestPush_SendsOneSnapshotPerDevice(t *testing.T) {
	service, _, cp := setupService(
		device.Device{MAC: "00:26:ab:11:22:33", IP: "192.168.1.42", Status: device.StatusOnline},
		device.Device{MAC: "00:09:1f:44:55:66", IP: "192.168.1.43", Status: device.StatusOffline},
	)
	var got []controlplane.DeviceSnapshot
	cp.On("PushInventory", mock.Anything, "b8:27:eb:00:00:01", mock.Anything).
		Run(func(args mock.Arguments) {
			got = args.Get(2).([]controlplane.DeviceSnapshot)
		}).Return(nil)

	err := service.Push(context.Background())

	assert.NoError(t, err)
	assert.Len(t, got, 2)
	assert.Equal(t, "00:26:ab:11:22:33", got[0].MAC)
	assert.Equal(t, "Unknown Device", got[0].Name)
	assert.Equal(t, "Offline", got[1].Status)
}
