package device

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/iot-command-core/internal/backend"
)

// Repository fetches device records.
type Repository interface {
	GetByID(ctx context.Context, id string) (*Device, error)
}

// APIRepository reads devices from the backend REST API
// (GET /iot/device/{id}).
type APIRepository struct {
	api *backend.Client
}

// NewAPIRepository creates a repository backed by api.
func NewAPIRepository(api *backend.Client) *APIRepository {
	return &APIRepository{api: api}
}

// GetByID fetches one device. A missing device yields ErrDeviceNotFound.
func (r *APIRepository) GetByID(ctx context.Context, id string) (*Device, error) {
	var d Device
	err := r.api.Get(ctx, &d, "iot", "device", id)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return nil, fmt.Errorf("%w: %s", ErrDeviceNotFound, id)
	case err != nil:
		return nil, fmt.Errorf("%w: %s: %w", ErrLookupFailed, id, err)
	}
	if d.DeviceID == "" {
		d.DeviceID = id
	}
	return &d, nil
}
