package device

import "errors"

var (
	// ErrDeviceNotFound is returned when the backend has no such device.
	ErrDeviceNotFound = errors.New("device: not found")

	// ErrLookupFailed is returned when the backend could not be queried.
	ErrLookupFailed = errors.New("device: lookup failed")

	// ErrInvalidDevice is returned when a fetched record lacks the fields
	// needed to address the device.
	ErrInvalidDevice = errors.New("device: invalid")
)

func isNotFound(err error) bool {
	return errors.Is(err, ErrDeviceNotFound)
}
