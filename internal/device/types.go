package device

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Status is the connectivity state last reported for a device.
type Status int

const (
	StatusUnknown Status = iota
	StatusOnline
	StatusOffline
)

// Backend status codes. Codes 1 (inactive) and 2 (disabled) carry no
// connectivity information and decode as StatusUnknown.
const (
	statusCodeOnline  = 3
	statusCodeOffline = 4
)

func (s Status) String() string {
	switch s {
	case StatusOnline:
		return "online"
	case StatusOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// MarshalJSON writes the status name.
func (s Status) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.String())
}

// UnmarshalJSON accepts the backend's numeric codes (3 online, 4 offline)
// as numbers or strings, and the names "online" and "offline". Anything
// else decodes as StatusUnknown rather than failing the whole record.
func (s *Status) UnmarshalJSON(data []byte) error {
	*s = StatusUnknown

	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	raw := string(data)
	if data[0] == '"' {
		if err := json.Unmarshal(data, &raw); err != nil {
			return fmt.Errorf("decoding status: %w", err)
		}
	}

	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "online":
		*s = StatusOnline
		return nil
	case "offline":
		*s = StatusOffline
		return nil
	}

	if code, err := strconv.Atoi(strings.TrimSpace(raw)); err == nil {
		switch code {
		case statusCodeOnline:
			*s = StatusOnline
		case statusCodeOffline:
			*s = StatusOffline
		}
	}
	return nil
}

// Device is the subset of the backend device record needed to address and
// classify a device.
type Device struct {
	DeviceID        string `json:"deviceId"`
	DeviceName      string `json:"deviceName,omitempty"`
	ProductID       string `json:"productId"`
	ProductName     string `json:"productName,omitempty"`
	SerialNumber    string `json:"serialNumber"`
	FirmwareVersion string `json:"firmwareVersion,omitempty"`
	Status          Status `json:"status"`
	ShadowEnabled   bool   `json:"isShadow"`
}

// wireDevice mirrors the backend JSON, where ids and versions may be
// numbers and isShadow may be 0/1.
type wireDevice struct {
	DeviceID        json.RawMessage `json:"deviceId"`
	DeviceName      string          `json:"deviceName"`
	ProductID       json.RawMessage `json:"productId"`
	ProductName     string          `json:"productName"`
	SerialNumber    string          `json:"serialNumber"`
	FirmwareVersion json.RawMessage `json:"firmwareVersion"`
	Status          Status          `json:"status"`
	IsShadow        json.RawMessage `json:"isShadow"`
}

// UnmarshalJSON decodes a backend device record.
func (d *Device) UnmarshalJSON(data []byte) error {
	var w wireDevice
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	var err error
	out := Device{
		DeviceName:   w.DeviceName,
		ProductName:  w.ProductName,
		SerialNumber: w.SerialNumber,
		Status:       w.Status,
	}
	if out.DeviceID, err = scalarString(w.DeviceID); err != nil {
		return fmt.Errorf("decoding deviceId: %w", err)
	}
	if out.ProductID, err = scalarString(w.ProductID); err != nil {
		return fmt.Errorf("decoding productId: %w", err)
	}
	if out.FirmwareVersion, err = scalarString(w.FirmwareVersion); err != nil {
		return fmt.Errorf("decoding firmwareVersion: %w", err)
	}
	if out.ShadowEnabled, err = flag(w.IsShadow); err != nil {
		return fmt.Errorf("decoding isShadow: %w", err)
	}

	*d = out
	return nil
}

// Validate checks that the device can be addressed on the broker.
func (d Device) Validate() error {
	if d.ProductID == "" {
		return fmt.Errorf("%w: device %q has no product id", ErrInvalidDevice, d.DeviceID)
	}
	if d.SerialNumber == "" {
		return fmt.Errorf("%w: device %q has no serial number", ErrInvalidDevice, d.DeviceID)
	}
	return nil
}

// scalarString renders a JSON string or number as a string. null and an
// absent member give "".
func scalarString(raw json.RawMessage) (string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return "", nil
	}
	if raw[0] == '"' {
		var s string
		err := json.Unmarshal(raw, &s)
		return s, err
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err != nil {
		return "", err
	}
	return n.String(), nil
}

// flag decodes a JSON bool, a 0/1 number or a "0"/"1"/"true"/"false" string.
func flag(raw json.RawMessage) (bool, error) {
	s, err := scalarString(raw)
	if err != nil {
		var b bool
		if json.Unmarshal(raw, &b) == nil {
			return b, nil
		}
		return false, err
	}
	switch strings.ToLower(s) {
	case "", "0", "false":
		return false, nil
	case "1", "true":
		return true, nil
	}
	return false, fmt.Errorf("unexpected value %q", s)
}
