package command

import (
	"context"
	"time"

	"github.com/nerrad567/iot-command-core/internal/firmware"
)

// Transport publishes a payload to a topic. The returned channel yields
// exactly one value: nil once the broker acknowledged the message, or the
// failure. Implementations must buffer the channel so an abandoned result
// does not block them.
type Transport interface {
	PublishAsync(topic string, payload []byte) <-chan error
}

// FirmwareSource finds the latest firmware for a device. It returns
// (nil, nil) when no release is published.
type FirmwareSource interface {
	LatestFirmware(ctx context.Context, deviceID string) (*firmware.Firmware, error)
}

// Notifier surfaces outcomes to the operator. Implementations decide the
// presentation; they must not block for long.
type Notifier interface {
	NotifySuccess(msg string)
	NotifyError(msg string)
	AlertError(msg string)
}

// Outcome states recorded for every request.
const (
	OutcomeSent     = "sent"
	OutcomeFailed   = "failed"
	OutcomeRejected = "rejected"
	OutcomeSkipped  = "skipped"
)

// Outcome describes how a single request ended.
type Outcome struct {
	MessageID string
	DeviceID  string
	Category  Category
	Topic     string
	Label     string
	Status    string
	Err       error
	At        time.Time
	// Latency is the time from publish to broker acknowledgement. Zero for
	// requests that were never published.
	Latency time.Duration
}

// Recorder receives every Outcome, for audit trails and metrics.
type Recorder interface {
	RecordCommand(ctx context.Context, o Outcome)
}

// Logger is the logging interface used by this package.
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

type noopNotifier struct{}

func (noopNotifier) NotifySuccess(string) {}
func (noopNotifier) NotifyError(string)   {}
func (noopNotifier) AlertError(string)    {}
