package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

type itemPayload struct {
	ID     string `json:"id"`
	Value  string `json:"value"`
	Remark string `json:"remark"`
}

type firmwarePayload struct {
	Version     string `json:"version"`
	DownloadURL string `json:"downloadUrl"`
}

type monitorPayload struct {
	Interval int `json:"interval"`
}

// Encode renders op as the exact bytes the device firmware parses:
//
//	property/function  [{"id":"<itemId>","value":"<value>","remark":"<label>"}]
//	firmware           [{"version":"<version>","downloadUrl":"<url>"}]
//	monitor            {"interval":<ms>}
//
// Values are always sent as strings. Errors wrap ErrEncoding and no partial
// payload is returned.
func Encode(op Operation) ([]byte, error) {
	switch o := op.(type) {
	case PropertySet:
		return encodeItem(o.ItemID, o.Value, o.Remark)
	case FunctionInvoke:
		return encodeItem(o.ItemID, o.Value, o.Remark)
	case FirmwareUpdate:
		if o.Version == "" {
			return nil, fmt.Errorf("%w: firmware version is empty", ErrEncoding)
		}
		if o.DownloadURL == "" {
			return nil, fmt.Errorf("%w: firmware download url is empty", ErrEncoding)
		}
		return marshal([]firmwarePayload{{Version: o.Version, DownloadURL: o.DownloadURL}})
	case MonitorControl:
		if o.IntervalMS < 0 {
			return nil, fmt.Errorf("%w: negative monitor interval %d", ErrEncoding, o.IntervalMS)
		}
		return marshal(monitorPayload{Interval: o.IntervalMS})
	default:
		return nil, fmt.Errorf("%w: unsupported operation %T", ErrEncoding, op)
	}
}

func encodeItem(id string, value any, remark string) ([]byte, error) {
	if id == "" {
		return nil, fmt.Errorf("%w: item id is empty", ErrEncoding)
	}
	s, err := Stringify(value)
	if err != nil {
		return nil, err
	}
	return marshal([]itemPayload{{ID: id, Value: s, Remark: remark}})
}

// Stringify renders a command value the way devices expect it: strings
// verbatim, numbers in shortest decimal form, booleans as true/false.
func Stringify(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", fmt.Errorf("%w: value is nil", ErrEncoding)
	case string:
		return v, nil
	case []byte:
		return string(v), nil
	case bool:
		return strconv.FormatBool(v), nil
	case int:
		return strconv.Itoa(v), nil
	case int8:
		return strconv.FormatInt(int64(v), 10), nil
	case int16:
		return strconv.FormatInt(int64(v), 10), nil
	case int32:
		return strconv.FormatInt(int64(v), 10), nil
	case int64:
		return strconv.FormatInt(v, 10), nil
	case uint:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint8:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint16:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint32:
		return strconv.FormatUint(uint64(v), 10), nil
	case uint64:
		return strconv.FormatUint(v, 10), nil
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32), nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case json.Number:
		return v.String(), nil
	case fmt.Stringer:
		return v.String(), nil
	default:
		return fmt.Sprint(v), nil
	}
}

// marshal encodes v without HTML escaping and without the trailing newline
// json.Encoder adds.
func marshal(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEncoding, err)
	}
	return bytes.TrimSuffix(buf.Bytes(), []byte("\n")), nil
}
