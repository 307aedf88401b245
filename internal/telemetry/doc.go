// Package telemetry consumes what devices report back and records command
// metrics.
//
// Feed subscribes to every device's monitor report topic (the data produced
// after a "start monitoring" command) and writes each item as a time series
// point. CommandMetrics turns command outcomes into points.
package telemetry
