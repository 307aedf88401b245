package command

import (
	"context"
	"errors"
	"fmt"

	"github.com/nerrad567/iot-command-core/internal/device"
)

// Alert texts shown to the operator.
const (
	reasonUnreachable   = "device not reachable and not shadow-enabled"
	reasonNotOnline     = "device is not online; real-time monitoring needs a live connection"
	reasonNoFirmware    = "no firmware update available for this device"
	defaultMonitorEvery = 1000
)

// Config holds the deployment settings a Commander needs.
type Config struct {
	Topics TopicTable

	// MonitorIntervalMS is the push period requested when monitoring is
	// enabled. Zero selects 1000.
	MonitorIntervalMS int

	// AssetBaseURL is prepended verbatim to firmware file paths.
	AssetBaseURL string
}

// Commander is the entry point for device operations.
type Commander struct {
	topics     TopicRegistry
	dispatcher *Dispatcher
	firmware   FirmwareSource
	notifier   Notifier
	logger     Logger

	monitorIntervalMS int
	assetBaseURL      string
}

// NewCommander wires a commander. firmware may be nil when firmware updates
// are not offered; InitiateOTA then fails with ErrNoFirmwareAvailable.
func NewCommander(cfg Config, dispatcher *Dispatcher, firmware FirmwareSource) *Commander {
	interval := cfg.MonitorIntervalMS
	if interval <= 0 {
		interval = defaultMonitorEvery
	}
	return &Commander{
		topics:            NewTopicRegistry(cfg.Topics),
		dispatcher:        dispatcher,
		firmware:          firmware,
		notifier:          dispatcher.notifier,
		logger:            noopLogger{},
		monitorIntervalMS: interval,
		assetBaseURL:      cfg.AssetBaseURL,
	}
}

// SetLogger sets the logger for the commander and its dispatcher.
func (c *Commander) SetLogger(logger Logger) {
	c.logger = logger
	c.dispatcher.SetLogger(logger)
}

// SetProperty writes value to a device property.
func (c *Commander) SetProperty(ctx context.Context, d device.Device, itemID string, value any, label string) (Ack, error) {
	return c.Execute(ctx, d, PropertySet{ItemID: itemID, Value: value, Remark: label})
}

// InvokeFunction calls a device function.
func (c *Commander) InvokeFunction(ctx context.Context, d device.Device, itemID string, value any, label string) (Ack, error) {
	return c.Execute(ctx, d, FunctionInvoke{ItemID: itemID, Value: value, Remark: label})
}

// Execute submits op and waits for its result.
func (c *Commander) Execute(ctx context.Context, d device.Device, op Operation) (Ack, error) {
	return Await(ctx, c.Submit(ctx, d, op))
}

// Submit runs op against d and returns immediately. The channel receives
// exactly one Result. Rejections that happen before publishing (unreachable
// device, missing topic, bad payload) are delivered on the channel too.
func (c *Commander) Submit(ctx context.Context, d device.Device, op Operation) <-chan Result {
	out := make(chan Result, 1)

	msg, err := c.prepare(ctx, d, op)
	if err != nil {
		out <- Result{Err: err}
		return out
	}
	return c.dispatcher.Dispatch(ctx, msg)
}

// prepare classifies the device, resolves the topic and encodes the
// payload. Every failure here has already been reported.
func (c *Commander) prepare(ctx context.Context, d device.Device, op Operation) (Message, error) {
	cat := op.Category()
	reach := device.Classify(d)

	base := Outcome{DeviceID: d.DeviceID, Category: cat, Label: op.Label()}

	if err := checkReachable(cat, reach); err != nil {
		c.logger.Warn("command rejected",
			"device_id", d.DeviceID, "category", cat.String(), "status", d.Status.String(),
			"shadow", d.ShadowEnabled, "error", err)
		c.alert(ctx, base, err)
		return Message{}, err
	}

	topic, ok := c.topics.Topic(d, cat, reach)
	if !ok {
		err := fmt.Errorf("%w: %s for %s device", ErrTopicUnresolved, cat, reach)
		c.logger.Warn("no topic configured, command not sent",
			"device_id", d.DeviceID, "category", cat.String(), "reachability", reach.String())
		base.Status, base.Err = OutcomeSkipped, err
		c.dispatcher.record(ctx, base)
		return Message{}, err
	}
	base.Topic = topic

	payload, err := Encode(op)
	if err != nil {
		c.logger.Warn("command encoding failed", "device_id", d.DeviceID, "category", cat.String(), "error", err)
		c.notifier.NotifyError(fmt.Sprintf("%s failed: %v", op.Label(), err))
		base.Status, base.Err = OutcomeRejected, err
		c.dispatcher.record(ctx, base)
		return Message{}, err
	}

	return Message{
		DeviceID: d.DeviceID,
		Category: cat,
		Topic:    topic,
		Payload:  payload,
		Label:    op.Label(),
	}, nil
}

// checkReachable applies the per-category connectivity precondition.
// Firmware updates are queued by the broker for any device.
func checkReachable(cat Category, reach device.Reachability) error {
	switch cat {
	case CategoryPropertySet, CategoryFunctionInvoke:
		if reach == device.Unreachable {
			return fmt.Errorf("%w: %s", ErrUnreachable, reasonUnreachable)
		}
	case CategoryMonitorControl:
		if reach != device.Online {
			return fmt.Errorf("%w: %s", ErrUnreachable, reasonNotOnline)
		}
	}
	return nil
}

// alert raises an operator alert for a rejected request and records it.
func (c *Commander) alert(ctx context.Context, o Outcome, err error) {
	switch {
	case errors.Is(err, ErrUnreachable) && o.Category == CategoryMonitorControl:
		c.notifier.AlertError(reasonNotOnline)
	case errors.Is(err, ErrUnreachable):
		c.notifier.AlertError(reasonUnreachable)
	case errors.Is(err, ErrNoFirmwareAvailable):
		c.notifier.AlertError(reasonNoFirmware)
	default:
		c.notifier.AlertError(err.Error())
	}
	o.Status, o.Err = OutcomeRejected, err
	c.dispatcher.record(ctx, o)
}
