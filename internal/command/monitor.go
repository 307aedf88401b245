package command

import (
	"context"

	"github.com/nerrad567/iot-command-core/internal/device"
)

// SetMonitoring starts or stops the device's periodic telemetry push. The
// device must be online; the shadow flag does not count.
func (c *Commander) SetMonitoring(ctx context.Context, d device.Device, enabled bool) (Ack, error) {
	interval := 0
	if enabled {
		interval = c.monitorIntervalMS
	}
	return c.Execute(ctx, d, MonitorControl{IntervalMS: interval})
}

// MonitorInterval returns the period requested when monitoring starts.
func (c *Commander) MonitorInterval() int {
	return c.monitorIntervalMS
}
