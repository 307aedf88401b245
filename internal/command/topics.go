package command

import "github.com/nerrad567/iot-command-core/internal/device"

// TopicTable holds the per-deployment topic suffixes. An empty suffix means
// the deployment does not support that route.
type TopicTable struct {
	PropertyOnline  string
	PropertyOffline string
	FunctionOnline  string
	FunctionOffline string
	OTA             string
	Monitor         string
}

// DefaultTopicTable returns the suffixes the stock device firmware listens on.
func DefaultTopicTable() TopicTable {
	return TopicTable{
		PropertyOnline:  "/property-online/get",
		PropertyOffline: "/property-offline/get",
		FunctionOnline:  "/function-online/get",
		FunctionOffline: "/function-offline/get",
		OTA:             "/ota/get",
		Monitor:         "/monitor/get",
	}
}

// TopicRegistry maps an operation category and a device's reachability to a
// topic suffix. It is a value type and never changes after construction.
type TopicRegistry struct {
	table TopicTable
}

// NewTopicRegistry creates a registry over table.
func NewTopicRegistry(table TopicTable) TopicRegistry {
	return TopicRegistry{table: table}
}

// Resolve returns the suffix for a category and reachability. Property and
// function commands have online and offline variants and no route for an
// unreachable device; firmware and monitor commands have one suffix each.
func (r TopicRegistry) Resolve(cat Category, reach device.Reachability) (string, bool) {
	var suffix string
	switch cat {
	case CategoryPropertySet:
		suffix = pick(reach, r.table.PropertyOnline, r.table.PropertyOffline)
	case CategoryFunctionInvoke:
		suffix = pick(reach, r.table.FunctionOnline, r.table.FunctionOffline)
	case CategoryFirmwareUpdate:
		suffix = r.table.OTA
	case CategoryMonitorControl:
		suffix = r.table.Monitor
	}
	return suffix, suffix != ""
}

// Topic builds the full topic /<productId>/<serialNumber><suffix>.
func (r TopicRegistry) Topic(d device.Device, cat Category, reach device.Reachability) (string, bool) {
	suffix, ok := r.Resolve(cat, reach)
	if !ok {
		return "", false
	}
	return "/" + d.ProductID + "/" + d.SerialNumber + suffix, true
}

func pick(reach device.Reachability, online, offline string) string {
	switch reach {
	case device.Online:
		return online
	case device.ShadowEligibleOffline:
		return offline
	default:
		return ""
	}
}
