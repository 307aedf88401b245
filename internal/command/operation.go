package command

// Category identifies an operation variant.
type Category int

const (
	CategoryPropertySet Category = iota + 1
	CategoryFunctionInvoke
	CategoryFirmwareUpdate
	CategoryMonitorControl
)

func (c Category) String() string {
	switch c {
	case CategoryPropertySet:
		return "property_set"
	case CategoryFunctionInvoke:
		return "function_invoke"
	case CategoryFirmwareUpdate:
		return "firmware_update"
	case CategoryMonitorControl:
		return "monitor_control"
	default:
		return "unknown"
	}
}

// Operation is one of PropertySet, FunctionInvoke, FirmwareUpdate or
// MonitorControl. The set is closed.
type Operation interface {
	Category() Category

	// Label is the human-readable description used in notifications and
	// the audit trail.
	Label() string

	isOperation()
}

// PropertySet writes a value to a device property.
type PropertySet struct {
	ItemID string
	Value  any
	Remark string
}

// FunctionInvoke calls a device function with an argument.
type FunctionInvoke struct {
	ItemID string
	Value  any
	Remark string
}

// FirmwareUpdate tells a device to fetch and install a firmware image.
type FirmwareUpdate struct {
	Version     string
	DownloadURL string
}

// MonitorControl starts (IntervalMS > 0) or stops (IntervalMS == 0) the
// device's periodic telemetry push. The device runs the timer.
type MonitorControl struct {
	IntervalMS int
}

func (PropertySet) Category() Category    { return CategoryPropertySet }
func (FunctionInvoke) Category() Category { return CategoryFunctionInvoke }
func (FirmwareUpdate) Category() Category { return CategoryFirmwareUpdate }
func (MonitorControl) Category() Category { return CategoryMonitorControl }

func (op PropertySet) Label() string    { return labelOr(op.Remark, "property "+op.ItemID) }
func (op FunctionInvoke) Label() string { return labelOr(op.Remark, "function "+op.ItemID) }
func (op FirmwareUpdate) Label() string { return "firmware upgrade to " + op.Version }

func (op MonitorControl) Label() string {
	if op.IntervalMS > 0 {
		return "start real-time monitoring"
	}
	return "stop real-time monitoring"
}

func (PropertySet) isOperation()    {}
func (FunctionInvoke) isOperation() {}
func (FirmwareUpdate) isOperation() {}
func (MonitorControl) isOperation() {}

func labelOr(label, fallback string) string {
	if label != "" {
		return label
	}
	return fallback
}
