// Package influxdb writes command-core time series to InfluxDB v2.
//
// Two measurements are produced:
//   - device_commands: one point per command request, tagged by device,
//     category and outcome
//   - device_telemetry: one point per item in a device's real-time
//     monitoring report
//
// Writes go through the non-blocking batched write API; failures surface
// asynchronously through SetOnError. Connection and health check errors are
// returned directly.
//
//	client, err := influxdb.Connect(cfg.InfluxDB)
//	if errors.Is(err, influxdb.ErrDisabled) {
//	    // metrics are optional
//	}
//	defer client.Close()
package influxdb
