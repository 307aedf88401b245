package telemetry

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/nerrad567/iot-command-core/internal/command"
	"github.com/nerrad567/iot-command-core/internal/device"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/iot-command-core/internal/infrastructure/mqtt"
)

// ErrInvalidReport is returned by the handler for unparseable reports.
var ErrInvalidReport = errors.New("telemetry: invalid report")

// Subscriber is implemented by the MQTT and NATS clients.
type Subscriber interface {
	Subscribe(filter string, qos byte, handler func(topic string, payload []byte) error) error
	Unsubscribe(filter string) error
}

// SampleWriter stores telemetry samples.
type SampleWriter interface {
	WriteTelemetry(s influxdb.TelemetrySample)
}

// DeviceIndex resolves a topic's product and serial to a device id.
type DeviceIndex interface {
	FindBySerial(productID, serial string) (device.Device, bool)
}

// Logger is the logging interface used by the feed.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Debug(string, ...any) {}
func (noopLogger) Info(string, ...any)  {}

// item is one entry in a monitor report. Firmware sends the same list shape
// the core sends for property writes.
type item struct {
	ID    string          `json:"id"`
	Value json.RawMessage `json:"value"`
}

// Feed writes monitor reports to a SampleWriter.
type Feed struct {
	suffix string
	writer SampleWriter
	index  DeviceIndex
	logger Logger
	now    func() time.Time
}

// NewFeed creates a feed for reports published on /<product>/<serial><suffix>.
// index may be nil, in which case samples carry no device id.
func NewFeed(suffix string, writer SampleWriter, index DeviceIndex) *Feed {
	return &Feed{suffix: suffix, writer: writer, index: index, logger: noopLogger{}, now: time.Now}
}

// SetLogger sets the logger for the feed.
func (f *Feed) SetLogger(logger Logger) {
	f.logger = logger
}

// Filter is the wildcard topic covering every device.
func (f *Feed) Filter() string {
	return mqtt.Topics{}.AllDevices(f.suffix)
}

// Start subscribes to the report topic of every device.
func (f *Feed) Start(sub Subscriber) error {
	if f.suffix == "" {
		return fmt.Errorf("%w: no monitor report topic configured", ErrInvalidReport)
	}
	if err := sub.Subscribe(f.Filter(), 0, f.Handle); err != nil {
		return fmt.Errorf("subscribing to monitor reports: %w", err)
	}
	f.logger.Info("monitor telemetry feed started", "filter", f.Filter())
	return nil
}

// Stop removes the subscription.
func (f *Feed) Stop(sub Subscriber) error {
	return sub.Unsubscribe(f.Filter())
}

// Handle parses one report and writes a sample per item.
func (f *Feed) Handle(topic string, payload []byte) error {
	product, serial, suffix, ok := mqtt.Topics{}.ParseDevice(topic)
	if !ok || suffix != f.suffix {
		return fmt.Errorf("%w: unexpected topic %q", ErrInvalidReport, topic)
	}

	var items []item
	if err := json.Unmarshal(payload, &items); err != nil {
		return fmt.Errorf("%w: %s: %w", ErrInvalidReport, topic, err)
	}

	var deviceID string
	if f.index != nil {
		if d, found := f.index.FindBySerial(product, serial); found {
			deviceID = d.DeviceID
		}
	}

	at := f.now()
	written := 0
	for _, it := range items {
		if it.ID == "" {
			continue
		}
		value, err := rawValue(it.Value)
		if err != nil {
			return fmt.Errorf("%w: item %q: %w", ErrInvalidReport, it.ID, err)
		}
		f.writer.WriteTelemetry(influxdb.TelemetrySample{
			DeviceID:     deviceID,
			ProductID:    product,
			SerialNumber: serial,
			ItemID:       it.ID,
			Value:        value,
			At:           at,
		})
		written++
	}

	f.logger.Debug("monitor report stored", "topic", topic, "items", written)
	return nil
}

// rawValue accepts a JSON string or any scalar and renders it as text.
func rawValue(raw json.RawMessage) (string, error) {
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return "", err
	}
	if v == nil {
		return "", errors.New("value is null")
	}
	if _, isObj := v.(map[string]any); isObj {
		return "", errors.New("value is an object")
	}
	if _, isArr := v.([]any); isArr {
		return "", errors.New("value is an array")
	}
	return command.Stringify(v)
}
