package firmware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nerrad567/iot-command-core/internal/backend"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFirmware_UnmarshalVersionForms(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{`{"version":1.2}`, "1.2"},
		{`{"version":3}`, "3"},
		{`{"version":"2.0.1-beta"}`, "2.0.1-beta"},
		{`{"version":null}`, ""},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var fw Firmware
			require.NoError(t, json.Unmarshal([]byte(tt.raw), &fw))
			assert.Equal(t, tt.want, fw.Version)
		})
	}
}

func TestFirmware_UnmarshalRejectsObjectVersion(t *testing.T) {
	var fw Firmware
	assert.Error(t, json.Unmarshal([]byte(`{"version":{"major":1}}`), &fw))
}

func newClient(t *testing.T, body string) *Client {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/iot/firmware/getLatest/108", r.URL.Path)
		w.Write([]byte(body)) //nolint:errcheck // test server
	}))
	t.Cleanup(srv.Close)
	return NewClient(backend.New(srv.URL, "", time.Second))
}

func TestLatestFirmware_Found(t *testing.T) {
	c := newClient(t, `{"code":200,"data":{"firmwareId":5,"firmwareName":"fw","productId":41,`+
		`"version":1.3,"filePath":"/profile/iot/1/fw.bin"}}`)

	fw, err := c.LatestFirmware(context.Background(), "108")
	require.NoError(t, err)
	require.NotNil(t, fw)
	assert.Equal(t, "1.3", fw.Version)
	assert.Equal(t, "/profile/iot/1/fw.bin", fw.FilePath)
	assert.Equal(t, "5", fw.FirmwareID)
	assert.Equal(t, "41", fw.ProductID)
}

func TestLatestFirmware_Absent(t *testing.T) {
	for _, body := range []string{
		`{"code":200,"msg":"ok","data":null}`,
		`{"code":200,"msg":"ok"}`,
		`{"code":200,"data":{"firmwareId":5}}`,
	} {
		c := newClient(t, body)
		fw, err := c.LatestFirmware(context.Background(), "108")
		require.NoError(t, err, body)
		assert.Nil(t, fw, body)
	}
}

func TestLatestFirmware_APIError(t *testing.T) {
	c := newClient(t, `{"code":500,"msg":"internal"}`)

	fw, err := c.LatestFirmware(context.Background(), "108")
	assert.Nil(t, fw)
	assert.ErrorIs(t, err, ErrLookupFailed)
	assert.ErrorIs(t, err, backend.ErrAPI)
}
