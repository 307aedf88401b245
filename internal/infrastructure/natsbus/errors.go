package natsbus

import "errors"

var (
	// ErrNotConnected is returned when the NATS connection is closed or absent.
	ErrNotConnected = errors.New("natsbus: not connected")

	// ErrConnectionFailed is returned when the initial connection attempt fails.
	ErrConnectionFailed = errors.New("natsbus: connection failed")

	// ErrPublishFailed is returned when a publish or its flush fails.
	ErrPublishFailed = errors.New("natsbus: publish failed")

	// ErrInvalidSubject is returned when a topic cannot be mapped to a subject.
	ErrInvalidSubject = errors.New("natsbus: invalid subject")
)
