package command

import "errors"

var (
	// ErrTopicUnresolved means no topic suffix is configured for the
	// operation and reachability. Nothing is published and no notification
	// is raised; the gap is logged as a configuration warning.
	ErrTopicUnresolved = errors.New("command: no topic configured")

	// ErrUnreachable means the device cannot receive the command in its
	// current connectivity state.
	ErrUnreachable = errors.New("command: device unreachable")

	// ErrEncoding means the operation could not be turned into a payload.
	ErrEncoding = errors.New("command: encoding failed")

	// ErrTransport wraps a failed publish.
	ErrTransport = errors.New("command: publish failed")

	// ErrNoFirmwareAvailable means no firmware release exists for the device.
	ErrNoFirmwareAvailable = errors.New("command: no firmware available")

	// ErrFirmwareLookup means the firmware source could not be queried.
	ErrFirmwareLookup = errors.New("command: firmware lookup failed")
)
