package command

import (
	"context"
	"fmt"

	"github.com/nerrad567/iot-command-core/internal/device"
)

// InitiateOTA looks up the newest firmware for the device and tells it to
// upgrade. The lookup completes before anything is published. There is no
// connectivity precondition: offline devices pick the command up from the
// broker when they reconnect.
func (c *Commander) InitiateOTA(ctx context.Context, d device.Device) (Ack, error) {
	return Await(ctx, c.SubmitOTA(ctx, d))
}

// SubmitOTA is the asynchronous form of InitiateOTA. The firmware lookup
// runs on the calling goroutine.
func (c *Commander) SubmitOTA(ctx context.Context, d device.Device) <-chan Result {
	op, err := c.firmwareUpdate(ctx, d)
	if err != nil {
		out := make(chan Result, 1)
		out <- Result{Err: err}
		return out
	}
	return c.Submit(ctx, d, op)
}

func (c *Commander) firmwareUpdate(ctx context.Context, d device.Device) (FirmwareUpdate, error) {
	base := Outcome{DeviceID: d.DeviceID, Category: CategoryFirmwareUpdate, Label: "firmware upgrade"}

	if c.firmware == nil {
		err := fmt.Errorf("%w: firmware source not configured", ErrNoFirmwareAvailable)
		c.alert(ctx, base, err)
		return FirmwareUpdate{}, err
	}

	fw, err := c.firmware.LatestFirmware(ctx, d.DeviceID)
	if err != nil {
		err = fmt.Errorf("%w: device %s: %w", ErrFirmwareLookup, d.DeviceID, err)
		c.logger.Error("firmware lookup failed", "device_id", d.DeviceID, "error", err)
		c.notifier.NotifyError(err.Error())
		base.Status, base.Err = OutcomeFailed, err
		c.dispatcher.record(ctx, base)
		return FirmwareUpdate{}, err
	}
	if fw == nil {
		err := fmt.Errorf("%w: device %s", ErrNoFirmwareAvailable, d.DeviceID)
		c.logger.Info("no firmware available", "device_id", d.DeviceID)
		c.alert(ctx, base, err)
		return FirmwareUpdate{}, err
	}

	if fw.FilePath == "" {
		err := fmt.Errorf("%w: firmware %s for device %s has no file path", ErrEncoding, fw.Version, d.DeviceID)
		c.logger.Warn("incomplete firmware record", "device_id", d.DeviceID, "version", fw.Version)
		c.notifier.NotifyError(fmt.Sprintf("%s failed: %v", base.Label, err))
		base.Status, base.Err = OutcomeRejected, err
		c.dispatcher.record(ctx, base)
		return FirmwareUpdate{}, err
	}

	return FirmwareUpdate{
		Version:     fw.Version,
		DownloadURL: c.assetBaseURL + fw.FilePath,
	}, nil
}
