package influxdb

import (
	"strconv"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
)

const (
	measurementCommands  = "device_commands"
	measurementTelemetry = "device_telemetry"
)

// CommandPoint describes one command request for the device_commands
// measurement.
type CommandPoint struct {
	DeviceID  string
	Category  string
	Outcome   string
	Topic     string
	LatencyMS int64
	At        time.Time
}

// WriteCommandOutcome records a command request. The outcome is a tag so
// failure rates can be grouped per device and category.
func (c *Client) WriteCommandOutcome(p CommandPoint) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]any{"count": 1}
	if p.Topic != "" {
		fields["topic"] = p.Topic
	}
	if p.LatencyMS > 0 {
		fields["latency_ms"] = p.LatencyMS
	}

	c.writer.WritePoint(write.NewPoint(measurementCommands,
		map[string]string{
			"device_id": p.DeviceID,
			"category":  p.Category,
			"outcome":   p.Outcome,
		},
		fields,
		orNow(p.At),
	))
}

// TelemetrySample is one item from a device's monitoring report.
type TelemetrySample struct {
	DeviceID     string
	ProductID    string
	SerialNumber string
	ItemID       string
	Value        string
	At           time.Time
}

// WriteTelemetry records a monitoring sample. Numeric values are stored in
// the value field as floats; anything else goes to value_text.
func (c *Client) WriteTelemetry(s TelemetrySample) {
	if !c.IsConnected() {
		return
	}

	fields := map[string]any{}
	if f, err := strconv.ParseFloat(s.Value, 64); err == nil {
		fields["value"] = f
	} else {
		fields["value_text"] = s.Value
	}

	tags := map[string]string{
		"product_id":    s.ProductID,
		"serial_number": s.SerialNumber,
		"item":          s.ItemID,
	}
	if s.DeviceID != "" {
		tags["device_id"] = s.DeviceID
	}

	c.writer.WritePoint(write.NewPoint(measurementTelemetry, tags, fields, orNow(s.At)))
}

func orNow(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
