package device

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/iot-command-core/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeRepository serves devices from a map and counts lookups.
type fakeRepository struct {
	mu      sync.Mutex
	devices map[string]Device
	errs    map[string]error
	calls   int
}

func (f *fakeRepository) GetByID(_ context.Context, id string) (*Device, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if err := f.errs[id]; err != nil {
		return nil, err
	}
	d, ok := f.devices[id]
	if !ok {
		return nil, ErrDeviceNotFound
	}
	return &d, nil
}

func (f *fakeRepository) set(d Device) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.devices[d.DeviceID] = d
}

func newFakeRepository(devices ...Device) *fakeRepository {
	f := &fakeRepository{devices: make(map[string]Device), errs: make(map[string]error)}
	for _, d := range devices {
		f.devices[d.DeviceID] = d
	}
	return f
}

func testDevice(id string, status Status) Device {
	return Device{DeviceID: id, ProductID: "41", SerialNumber: "SN-" + id, Status: status}
}

func TestRegistry_GetDeviceAlwaysFetches(t *testing.T) {
	repo := newFakeRepository(testDevice("1", StatusOnline))
	reg := NewRegistry(repo)
	ctx := context.Background()

	d, err := reg.GetDevice(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusOnline, d.Status)

	repo.set(testDevice("1", StatusOffline))
	d, err = reg.GetDevice(ctx, "1")
	require.NoError(t, err)
	assert.Equal(t, StatusOffline, d.Status)
	assert.Equal(t, 2, repo.calls)
}

func TestRegistry_ReturnsCopies(t *testing.T) {
	reg := NewRegistry(newFakeRepository(testDevice("1", StatusOnline)))

	d, err := reg.GetDevice(context.Background(), "1")
	require.NoError(t, err)
	d.SerialNumber = "tampered"

	e, ok := reg.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, "SN-1", e.Device.SerialNumber)
}

func TestRegistry_RejectsUnaddressableDevice(t *testing.T) {
	reg := NewRegistry(newFakeRepository(Device{DeviceID: "1", Status: StatusOnline}))

	_, err := reg.GetDevice(context.Background(), "1")
	assert.ErrorIs(t, err, ErrInvalidDevice)
	_, ok := reg.Lookup("1")
	assert.False(t, ok)
}

func TestRegistry_CachedSortedAndFindBySerial(t *testing.T) {
	reg := NewRegistry(newFakeRepository(
		testDevice("2", StatusOnline),
		testDevice("1", StatusOffline),
	))
	ctx := context.Background()
	for _, id := range []string{"2", "1"} {
		_, err := reg.GetDevice(ctx, id)
		require.NoError(t, err)
	}

	entries := reg.Cached()
	require.Len(t, entries, 2)
	assert.Equal(t, "1", entries[0].Device.DeviceID)
	assert.Equal(t, "2", entries[1].Device.DeviceID)

	d, ok := reg.FindBySerial("41", "SN-2")
	require.True(t, ok)
	assert.Equal(t, "2", d.DeviceID)

	_, ok = reg.FindBySerial("41", "missing")
	assert.False(t, ok)
}

func TestRegistry_Refresh(t *testing.T) {
	repo := newFakeRepository(testDevice("1", StatusOnline), testDevice("2", StatusOnline))
	reg := NewRegistry(repo)
	ctx := context.Background()
	for _, id := range []string{"1", "2"} {
		_, err := reg.GetDevice(ctx, id)
		require.NoError(t, err)
	}

	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	reg.now = func() time.Time { return fixed }

	repo.mu.Lock()
	delete(repo.devices, "2")
	repo.mu.Unlock()
	repo.set(testDevice("1", StatusOffline))

	require.NoError(t, reg.Refresh(ctx))

	_, ok := reg.Lookup("2")
	assert.False(t, ok, "device removed from backend should be forgotten")

	e, ok := reg.Lookup("1")
	require.True(t, ok)
	assert.Equal(t, StatusOffline, e.Device.Status)
	assert.Equal(t, fixed, e.FetchedAt)
}

func TestRegistry_RefreshKeepsStaleOnFailure(t *testing.T) {
	repo := newFakeRepository(testDevice("1", StatusOnline))
	reg := NewRegistry(repo)
	ctx := context.Background()
	_, err := reg.GetDevice(ctx, "1")
	require.NoError(t, err)

	repo.errs["1"] = errors.New("backend down")
	err = reg.Refresh(ctx)
	assert.Error(t, err)

	_, ok := reg.Lookup("1")
	assert.True(t, ok)
}

func TestAPIRepository_GetByID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/iot/device/108":
			w.Write([]byte(`{"code":200,"msg":"ok","data":{"deviceId":108,"productId":41,` + //nolint:errcheck // test server
				`"serialNumber":"D1ELV3A5TOJS","status":4,"isShadow":1}}`))
		case "/iot/device/404":
			w.Write([]byte(`{"code":200,"msg":"ok","data":null}`)) //nolint:errcheck // test server
		default:
			w.WriteHeader(http.StatusInternalServerError)
		}
	}))
	defer srv.Close()

	repo := NewAPIRepository(backend.New(srv.URL, "", time.Second))
	ctx := context.Background()

	d, err := repo.GetByID(ctx, "108")
	require.NoError(t, err)
	assert.Equal(t, "D1ELV3A5TOJS", d.SerialNumber)
	assert.Equal(t, ShadowEligibleOffline, Classify(*d))

	_, err = repo.GetByID(ctx, "404")
	assert.ErrorIs(t, err, ErrDeviceNotFound)

	_, err = repo.GetByID(ctx, "500")
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, backend.ErrRequestFailed)
}
