// Package firmware looks up the firmware release a device should move to.
package firmware

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/nerrad567/iot-command-core/internal/backend"
)

// ErrLookupFailed is returned when the backend could not be queried.
var ErrLookupFailed = errors.New("firmware: lookup failed")

// Firmware is the latest release available to a device.
type Firmware struct {
	FirmwareID string `json:"firmwareId"`
	Name       string `json:"firmwareName"`
	ProductID  string `json:"productId"`
	Version    string `json:"version"`

	// FilePath is relative to the asset server base URL. It is appended to
	// the base URL verbatim, so it normally starts with "/".
	FilePath string `json:"filePath"`
}

// UnmarshalJSON accepts numeric ids and versions: the backend stores
// version as a decimal (1.2) and ids as longs.
func (f *Firmware) UnmarshalJSON(data []byte) error {
	var w struct {
		FirmwareID json.Number `json:"firmwareId"`
		Name       string      `json:"firmwareName"`
		ProductID  json.Number `json:"productId"`
		Version    any         `json:"version"`
		FilePath   string      `json:"filePath"`
	}
	dec := json.NewDecoder(strings.NewReader(string(data)))
	dec.UseNumber()
	if err := dec.Decode(&w); err != nil {
		return err
	}

	version, err := versionString(w.Version)
	if err != nil {
		return err
	}
	*f = Firmware{
		FirmwareID: w.FirmwareID.String(),
		Name:       w.Name,
		ProductID:  w.ProductID.String(),
		Version:    version,
		FilePath:   w.FilePath,
	}
	return nil
}

func versionString(v any) (string, error) {
	switch val := v.(type) {
	case nil:
		return "", nil
	case string:
		return val, nil
	case json.Number:
		return val.String(), nil
	default:
		return "", fmt.Errorf("decoding version: unexpected %T", v)
	}
}

// Client queries GET /iot/firmware/getLatest/{deviceId}.
type Client struct {
	api *backend.Client
}

// NewClient creates a firmware client backed by api.
func NewClient(api *backend.Client) *Client {
	return &Client{api: api}
}

// LatestFirmware returns the newest release for the device, or nil with a
// nil error when none is published.
func (c *Client) LatestFirmware(ctx context.Context, deviceID string) (*Firmware, error) {
	var fw Firmware
	err := c.api.Get(ctx, &fw, "iot", "firmware", "getLatest", deviceID)
	switch {
	case errors.Is(err, backend.ErrNotFound):
		return nil, nil //nolint:nilnil // absence is not an error
	case err != nil:
		return nil, fmt.Errorf("%w: device %s: %w", ErrLookupFailed, deviceID, err)
	}
	if fw.Version == "" && fw.FilePath == "" {
		return nil, nil //nolint:nilnil // empty record means nothing published
	}
	return &fw, nil
}
