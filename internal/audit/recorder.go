package audit

import (
	"context"

	"github.com/nerrad567/iot-command-core/internal/command"
)

const (
	ActionCommand    = "command"
	EntityTypeDevice = "device"
)

// Logger is the logging interface used by the Recorder.
type Logger interface {
	Warn(msg string, args ...any)
}

// Recorder writes command outcomes to the audit trail. It satisfies
// command.Recorder. Write failures are logged, never returned: a broken
// audit store must not block device commands.
type Recorder struct {
	repo   Repository
	source string
	logger Logger
}

// NewRecorder creates a recorder that tags entries with source
// (for example "console" or "commandcore").
func NewRecorder(repo Repository, source string, logger Logger) *Recorder {
	return &Recorder{repo: repo, source: source, logger: logger}
}

// RecordCommand stores o as an audit entry.
func (r *Recorder) RecordCommand(ctx context.Context, o command.Outcome) {
	details := map[string]any{
		"category": o.Category.String(),
		"label":    o.Label,
	}
	if o.Topic != "" {
		details["topic"] = o.Topic
	}
	if o.MessageID != "" {
		details["message_id"] = o.MessageID
	}
	if o.Err != nil {
		details["error"] = o.Err.Error()
	}

	log := &AuditLog{
		Action:     ActionCommand,
		EntityType: EntityTypeDevice,
		EntityID:   o.DeviceID,
		Source:     r.source,
		Outcome:    o.Status,
		Details:    details,
		CreatedAt:  o.At.UTC(),
	}
	if err := r.repo.Create(ctx, log); err != nil {
		r.logger.Warn("recording command audit failed", "device_id", o.DeviceID, "error", err)
	}
}
