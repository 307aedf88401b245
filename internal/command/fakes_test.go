package command

import (
	"context"
	"sync"

	"github.com/nerrad567/iot-command-core/internal/device"
	"github.com/nerrad567/iot-command-core/internal/firmware"
	"github.com/stretchr/testify/mock"
)

type published struct {
	Topic   string
	Payload []byte
}

// fakeTransport records every publish. When release is set, publishes
// complete only once it is closed.
type fakeTransport struct {
	mu        sync.Mutex
	published []published
	err       error
	release   chan struct{}
}

func (f *fakeTransport) PublishAsync(topic string, payload []byte) <-chan error {
	f.mu.Lock()
	f.published = append(f.published, published{Topic: topic, Payload: append([]byte(nil), payload...)})
	err := f.err
	release := f.release
	f.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		if release != nil {
			<-release
		}
		done <- err
	}()
	return done
}

func (f *fakeTransport) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.published)
}

func (f *fakeTransport) last() published {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.published[len(f.published)-1]
}

type notification struct {
	Kind string
	Msg  string
}

type recordingNotifier struct {
	mu    sync.Mutex
	calls []notification
}

func (n *recordingNotifier) NotifySuccess(msg string) { n.add("success", msg) }
func (n *recordingNotifier) NotifyError(msg string)   { n.add("error", msg) }
func (n *recordingNotifier) AlertError(msg string)    { n.add("alert", msg) }

func (n *recordingNotifier) add(kind, msg string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.calls = append(n.calls, notification{Kind: kind, Msg: msg})
}

func (n *recordingNotifier) all() []notification {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]notification(nil), n.calls...)
}

type recordingRecorder struct {
	mu       sync.Mutex
	outcomes []Outcome
}

func (r *recordingRecorder) RecordCommand(_ context.Context, o Outcome) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.outcomes = append(r.outcomes, o)
}

func (r *recordingRecorder) all() []Outcome {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Outcome(nil), r.outcomes...)
}

type mockFirmwareSource struct {
	mock.Mock
}

func (m *mockFirmwareSource) LatestFirmware(ctx context.Context, deviceID string) (*firmware.Firmware, error) {
	args := m.Called(ctx, deviceID)
	fw, _ := args.Get(0).(*firmware.Firmware)
	return fw, args.Error(1)
}

type harness struct {
	transport *fakeTransport
	notifier  *recordingNotifier
	recorder  *recordingRecorder
	firmware  *mockFirmwareSource
	commander *Commander
}

func newHarness(cfg Config) *harness {
	h := &harness{
		transport: &fakeTransport{},
		notifier:  &recordingNotifier{},
		recorder:  &recordingRecorder{},
		firmware:  &mockFirmwareSource{},
	}
	d := NewDispatcher(h.transport, h.notifier, h.recorder)
	h.commander = NewCommander(cfg, d, h.firmware)
	return h
}

func defaultConfig() Config {
	return Config{
		Topics:            DefaultTopicTable(),
		MonitorIntervalMS: 1000,
		AssetBaseURL:      "http://host",
	}
}

func onlineDevice() device.Device {
	return device.Device{DeviceID: "108", ProductID: "41", SerialNumber: "D1ELV3A5TOJS", Status: device.StatusOnline}
}

func shadowDevice() device.Device {
	d := onlineDevice()
	d.Status = device.StatusOffline
	d.ShadowEnabled = true
	return d
}

func offlineDevice() device.Device {
	d := onlineDevice()
	d.Status = device.StatusOffline
	return d
}
