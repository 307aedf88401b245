package telemetry

import (
	"context"

	"github.com/nerrad567/iot-command-core/internal/command"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/influxdb"
)

// CommandWriter stores command outcome points.
type CommandWriter interface {
	WriteCommandOutcome(p influxdb.CommandPoint)
}

// CommandMetrics records every command outcome as a point. It satisfies
// command.Recorder.
type CommandMetrics struct {
	writer CommandWriter
}

// NewCommandMetrics creates a recorder writing to w.
func NewCommandMetrics(w CommandWriter) *CommandMetrics {
	return &CommandMetrics{writer: w}
}

// RecordCommand writes o. Writes are batched and never block.
func (m *CommandMetrics) RecordCommand(_ context.Context, o command.Outcome) {
	m.writer.WriteCommandOutcome(influxdb.CommandPoint{
		DeviceID:  o.DeviceID,
		Category:  o.Category.String(),
		Outcome:   o.Status,
		Topic:     o.Topic,
		LatencyMS: o.Latency.Milliseconds(),
		At:        o.At,
	})
}
