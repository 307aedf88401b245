package console

import (
	"bytes"
	"context"
	"io"
	"testing"
	"time"

	"github.com/nerrad567/iot-command-core/internal/audit"
	"github.com/nerrad567/iot-command-core/internal/command"
	"github.com/nerrad567/iot-command-core/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type fakeDevices struct {
	devices map[string]device.Device
}

func (f *fakeDevices) GetDevice(_ context.Context, id string) (*device.Device, error) {
	d, ok := f.devices[id]
	if !ok {
		return nil, device.ErrDeviceNotFound
	}
	return &d, nil
}

func (f *fakeDevices) Cached() []device.Entry {
	var out []device.Entry
	for _, d := range f.devices {
		out = append(out, device.Entry{Device: d, FetchedAt: time.Now()})
	}
	return out
}

type mockCommands struct {
	mock.Mock
}

func (m *mockCommands) SetProperty(ctx context.Context, d device.Device, itemID string, value any, label string) (command.Ack, error) {
	args := m.Called(d.DeviceID, itemID, value, label)
	return args.Get(0).(command.Ack), args.Error(1)
}

func (m *mockCommands) InvokeFunction(ctx context.Context, d device.Device, itemID string, value any, label string) (command.Ack, error) {
	args := m.Called(d.DeviceID, itemID, value, label)
	return args.Get(0).(command.Ack), args.Error(1)
}

func (m *mockCommands) SetMonitoring(ctx context.Context, d device.Device, enabled bool) (command.Ack, error) {
	args := m.Called(d.DeviceID, enabled)
	return args.Get(0).(command.Ack), args.Error(1)
}

func (m *mockCommands) InitiateOTA(ctx context.Context, d device.Device) (command.Ack, error) {
	args := m.Called(d.DeviceID)
	return args.Get(0).(command.Ack), args.Error(1)
}

type fakeHistory struct {
	filter audit.Filter
	logs   []audit.AuditLog
}

func (f *fakeHistory) List(_ context.Context, filter audit.Filter) (*audit.ListResult, error) {
	f.filter = filter
	return &audit.ListResult{Logs: f.logs, Total: len(f.logs), Limit: filter.Limit}, nil
}

func newTestConsole() (*Console, *mockCommands, *fakeHistory) {
	devices := &fakeDevices{devices: map[string]device.Device{
		"108": {DeviceID: "108", ProductID: "41", SerialNumber: "SN", Status: device.StatusOnline},
	}}
	cmds := &mockCommands{}
	hist := &fakeHistory{}
	return New(devices, cmds, hist), cmds, hist
}

func exec(t *testing.T, c *Console, line string) (string, bool) {
	t.Helper()
	var out bytes.Buffer
	quit := c.Exec(context.Background(), line, &out)
	return out.String(), quit
}

func TestExec_Set(t *testing.T) {
	c, cmds, _ := newTestConsole()
	ack := command.Ack{MessageID: "m-1", Topic: "/41/SN/property-online/get"}
	cmds.On("SetProperty", "108", "switch", "1", "turn on lamp").Return(ack, nil).Once()

	out, quit := exec(t, c, "set 108 switch 1 turn on lamp")
	assert.False(t, quit)
	assert.Contains(t, out, "Published m-1 to /41/SN/property-online/get")
	cmds.AssertExpectations(t)
}

func TestExec_Invoke(t *testing.T) {
	c, cmds, _ := newTestConsole()
	cmds.On("InvokeFunction", "108", "reset", "1", "").Return(command.Ack{MessageID: "m-2"}, nil).Once()

	out, _ := exec(t, c, "invoke 108 reset 1")
	assert.Contains(t, out, "Published m-2")
	cmds.AssertExpectations(t)
}

func TestExec_Monitor(t *testing.T) {
	c, cmds, _ := newTestConsole()
	cmds.On("SetMonitoring", "108", true).Return(command.Ack{MessageID: "on"}, nil).Once()
	cmds.On("SetMonitoring", "108", false).Return(command.Ack{MessageID: "off"}, nil).Once()

	out, _ := exec(t, c, "monitor 108 on")
	assert.Contains(t, out, "Published on")
	out, _ = exec(t, c, "monitor 108 off")
	assert.Contains(t, out, "Published off")

	out, _ = exec(t, c, "monitor 108 maybe")
	assert.Contains(t, out, "expected on or off")
	cmds.AssertExpectations(t)
}

func TestExec_OTAError(t *testing.T) {
	c, cmds, _ := newTestConsole()
	cmds.On("InitiateOTA", "108").Return(command.Ack{}, command.ErrNoFirmwareAvailable).Once()

	out, _ := exec(t, c, "ota 108")
	assert.Contains(t, out, "Error: command: no firmware available")
}

func TestExec_DeviceShowsReachability(t *testing.T) {
	c, _, _ := newTestConsole()

	out, _ := exec(t, c, "device 108")
	assert.Contains(t, out, "Reachability:")
	assert.Contains(t, out, "online")

	out, _ = exec(t, c, "device 999")
	assert.Contains(t, out, "device: not found")
}

func TestExec_Devices(t *testing.T) {
	c, _, _ := newTestConsole()
	out, _ := exec(t, c, "devices")
	assert.Contains(t, out, "REACHABILITY")
	assert.Contains(t, out, "108")
}

func TestExec_History(t *testing.T) {
	c, _, hist := newTestConsole()
	hist.logs = []audit.AuditLog{{
		EntityID:  "108",
		Outcome:   command.OutcomeSent,
		Details:   map[string]any{"label": "turn on"},
		CreatedAt: time.Now(),
	}}

	out, _ := exec(t, c, "history 108")
	assert.Equal(t, "108", hist.filter.EntityID)
	assert.Equal(t, audit.ActionCommand, hist.filter.Action)
	assert.Contains(t, out, "turn on")
	assert.Contains(t, out, "(1 of 1)")
}

func TestExec_HistoryUnavailable(t *testing.T) {
	c := New(&fakeDevices{}, &mockCommands{}, nil)
	out, _ := exec(t, c, "history")
	assert.Contains(t, out, "not available")
}

func TestExec_UsageAndUnknown(t *testing.T) {
	c, _, _ := newTestConsole()

	for _, line := range []string{"set 108 switch", "device", "ota", "monitor 108"} {
		out, _ := exec(t, c, line)
		assert.Contains(t, out, "usage:", line)
	}

	out, _ := exec(t, c, "reboot")
	assert.Contains(t, out, "unknown command")

	out, quit := exec(t, c, "   ")
	assert.Empty(t, out)
	assert.False(t, quit)
}

func TestExec_Quit(t *testing.T) {
	c, _, _ := newTestConsole()
	for _, line := range []string{"quit", "exit", "Q"} {
		_, quit := exec(t, c, line)
		require.True(t, quit, line)
	}
}

func TestNotifier(t *testing.T) {
	var out bytes.Buffer
	n := NewNotifier(&out)

	n.NotifySuccess("turn on sent")
	n.NotifyError("failed")
	n.AlertError("device not reachable and not shadow-enabled")

	assert.Equal(t, "[OK] turn on sent\n[ERROR] failed\n[ALERT] device not reachable and not shadow-enabled\n", out.String())
}

func TestClose_Idempotent(t *testing.T) {
	c := New(nil, nil, nil)
	require.NoError(t, c.Close())
	require.NoError(t, c.Close())
	assert.Equal(t, io.Discard, c.Stdout())
}
