package mqtt

import (
	"fmt"
	"strings"
)

// Topic prefixes for topics owned by the command core itself.
// Device command topics are not prefixed; they follow the
// "/<productId>/<serialNumber><suffix>" scheme expected by device firmware.
const (
	// TopicPrefixService is the base for all command core topics.
	TopicPrefixService = "commandcore"

	// TopicPrefixSystem is the base for service status topics.
	TopicPrefixSystem = "commandcore/system"

	// TopicPrefixUI is the base for UI-facing topics.
	TopicPrefixUI = "commandcore/ui"
)

// Topics provides builders for MQTT topics.
// Using these helpers ensures consistent topic naming across the codebase.
//
//	topics := mqtt.Topics{}
//	topic := topics.Device("41", "D1ELV3A5TOJS", "/ota/get")
//	// Returns: "/41/D1ELV3A5TOJS/ota/get"
type Topics struct{}

// Device returns the addressed topic for a device.
// The suffix is appended verbatim and is expected to start with "/".
//
// Example: /41/D1ELV3A5TOJS/property-online/get
func (Topics) Device(productID, serialNumber, suffix string) string {
	return "/" + productID + "/" + serialNumber + suffix
}

// AllDevices returns a pattern matching suffix on every device.
//
// Pattern: /+/+/monitor/post
func (Topics) AllDevices(suffix string) string {
	return "/+/+" + suffix
}

// ParseDevice splits a device topic produced by Device back into its parts.
// ok is false if the topic does not start with "/<product>/<serial>".
func (Topics) ParseDevice(topic string) (productID, serialNumber, suffix string, ok bool) {
	if !strings.HasPrefix(topic, "/") {
		return "", "", "", false
	}
	parts := strings.SplitN(topic[1:], "/", 3)
	if len(parts) < 2 || parts[0] == "" || parts[1] == "" {
		return "", "", "", false
	}
	if len(parts) == 3 {
		suffix = "/" + parts[2]
	}
	return parts[0], parts[1], suffix, true
}

// SystemStatus returns the service status topic (LWT and online/offline).
//
// Example: commandcore/system/status
func (Topics) SystemStatus() string {
	return fmt.Sprintf("%s/status", TopicPrefixSystem)
}

// UINotification returns the notification topic for a specific UI client.
//
// Example: commandcore/ui/console-01/notification
func (Topics) UINotification(clientID string) string {
	return fmt.Sprintf("%s/%s/notification", TopicPrefixUI, clientID)
}

// AllUINotifications returns a pattern matching every UI notification topic.
//
// Pattern: commandcore/ui/+/notification
func (Topics) AllUINotifications() string {
	return fmt.Sprintf("%s/+/notification", TopicPrefixUI)
}
