package device

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"
)

// Logger is the logging interface used by the Registry.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Entry is a cached device snapshot and when it was fetched.
type Entry struct {
	Device    Device
	FetchedAt time.Time
}

// Registry fronts a Repository and remembers the last snapshot of every
// device it has fetched.
//
// GetDevice always goes to the repository: connectivity status changes too
// often for a cached snapshot to drive command routing. The cache exists
// for listings (the console's "devices" command) and for Lookup, which is
// explicitly stale-tolerant.
//
// All methods are safe for concurrent use.
type Registry struct {
	repo    Repository
	cache   map[string]Entry
	cacheMu sync.RWMutex
	logger  Logger
	now     func() time.Time
}

// NewRegistry creates a registry over repo.
func NewRegistry(repo Repository) *Registry {
	return &Registry{
		repo:   repo,
		cache:  make(map[string]Entry),
		logger: noopLogger{},
		now:    time.Now,
	}
}

// SetLogger sets the logger for the registry.
func (r *Registry) SetLogger(logger Logger) {
	r.logger = logger
}

// GetDevice fetches a fresh snapshot of the device and caches it. The
// returned device is a copy owned by the caller.
func (r *Registry) GetDevice(ctx context.Context, id string) (*Device, error) {
	d, err := r.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := d.Validate(); err != nil {
		return nil, err
	}

	r.cacheMu.Lock()
	prev, seen := r.cache[id]
	r.cache[id] = Entry{Device: *d, FetchedAt: r.now()}
	r.cacheMu.Unlock()

	if seen && prev.Device.Status != d.Status {
		r.logger.Info("device status changed",
			"device_id", id, "from", prev.Device.Status.String(), "to", d.Status.String())
	}

	out := *d
	return &out, nil
}

// Lookup returns the cached snapshot without contacting the backend.
func (r *Registry) Lookup(id string) (Entry, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	e, ok := r.cache[id]
	return e, ok
}

// Cached returns every cached snapshot ordered by device id.
func (r *Registry) Cached() []Entry {
	r.cacheMu.RLock()
	entries := make([]Entry, 0, len(r.cache))
	for _, e := range r.cache {
		entries = append(entries, e)
	}
	r.cacheMu.RUnlock()

	sort.Slice(entries, func(i, j int) bool {
		return entries[i].Device.DeviceID < entries[j].Device.DeviceID
	})
	return entries
}

// FindBySerial returns the cached device with the given product id and
// serial number. Telemetry arrives keyed by topic, not device id, so this is
// how it is attributed.
func (r *Registry) FindBySerial(productID, serial string) (Device, bool) {
	r.cacheMu.RLock()
	defer r.cacheMu.RUnlock()
	for _, e := range r.cache {
		if e.Device.ProductID == productID && e.Device.SerialNumber == serial {
			return e.Device, true
		}
	}
	return Device{}, false
}

// Forget drops a device from the cache.
func (r *Registry) Forget(id string) {
	r.cacheMu.Lock()
	delete(r.cache, id)
	r.cacheMu.Unlock()
}

// Refresh re-fetches every cached device. Devices the backend no longer
// knows are dropped; other failures keep the stale entry and are returned
// together.
func (r *Registry) Refresh(ctx context.Context) error {
	r.cacheMu.RLock()
	ids := make([]string, 0, len(r.cache))
	for id := range r.cache {
		ids = append(ids, id)
	}
	r.cacheMu.RUnlock()

	var failed int
	var firstErr error
	for _, id := range ids {
		if _, err := r.GetDevice(ctx, id); err != nil {
			if isNotFound(err) {
				r.Forget(id)
				r.logger.Warn("device removed from backend", "device_id", id)
				continue
			}
			failed++
			if firstErr == nil {
				firstErr = err
			}
		}
	}

	r.logger.Debug("device cache refreshed", "count", len(ids), "failed", failed)
	if firstErr != nil {
		return fmt.Errorf("refreshing %d of %d devices failed: %w", failed, len(ids), firstErr)
	}
	return nil
}
