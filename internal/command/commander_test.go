package command

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/nerrad567/iot-command-core/internal/device"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetProperty_OnlineUsesOnlineTopic(t *testing.T) {
	h := newHarness(defaultConfig())

	ack, err := h.commander.SetProperty(context.Background(), onlineDevice(), "temperature", 25, "set temp")
	require.NoError(t, err)

	require.Equal(t, 1, h.transport.count())
	p := h.transport.last()
	assert.Equal(t, "/41/D1ELV3A5TOJS/property-online/get", p.Topic)
	assert.Equal(t, `[{"id":"temperature","value":"25","remark":"set temp"}]`, string(p.Payload))

	assert.Equal(t, p.Topic, ack.Topic)
	assert.NotEmpty(t, ack.MessageID)
	assert.False(t, ack.PublishedAt.IsZero())

	assert.Equal(t, []notification{{Kind: "success", Msg: "set temp sent"}}, h.notifier.all())
}

func TestInvokeFunction_ShadowUsesOfflineTopic(t *testing.T) {
	h := newHarness(defaultConfig())

	_, err := h.commander.InvokeFunction(context.Background(), shadowDevice(), "reset", "1", "reboot")
	require.NoError(t, err)

	require.Equal(t, 1, h.transport.count())
	assert.Equal(t, "/41/D1ELV3A5TOJS/function-offline/get", h.transport.last().Topic)
}

func TestSetProperty_UnreachableIsRejected(t *testing.T) {
	unknown := onlineDevice()
	unknown.Status = device.StatusUnknown
	unknown.ShadowEnabled = false

	for name, d := range map[string]device.Device{
		"offline without shadow": offlineDevice(),
		"unknown status":         unknown,
	} {
		t.Run(name, func(t *testing.T) {
			h := newHarness(defaultConfig())

			_, err := h.commander.SetProperty(context.Background(), d, "switch", true, "turn on")
			assert.ErrorIs(t, err, ErrUnreachable)
			assert.Zero(t, h.transport.count())
			assert.Equal(t, []notification{{Kind: "alert", Msg: reasonUnreachable}}, h.notifier.all())

			outcomes := h.recorder.all()
			require.Len(t, outcomes, 1)
			assert.Equal(t, OutcomeRejected, outcomes[0].Status)
		})
	}
}

func TestSetProperty_UnknownStatusWithShadowUsesOfflineTopic(t *testing.T) {
	h := newHarness(defaultConfig())
	d := onlineDevice()
	d.Status = device.StatusUnknown
	d.ShadowEnabled = true

	_, err := h.commander.SetProperty(context.Background(), d, "switch", true, "turn on")
	require.NoError(t, err)

	require.Equal(t, 1, h.transport.count())
	assert.Equal(t, "/41/D1ELV3A5TOJS/property-offline/get", h.transport.last().Topic)
	assert.Equal(t, []notification{{Kind: "success", Msg: "turn on sent"}}, h.notifier.all())
}

func TestExecute_ConfigurationGapIsSilent(t *testing.T) {
	cfg := defaultConfig()
	cfg.Topics.PropertyOffline = ""
	h := newHarness(cfg)

	_, err := h.commander.SetProperty(context.Background(), shadowDevice(), "switch", true, "turn on")
	assert.ErrorIs(t, err, ErrTopicUnresolved)
	assert.Zero(t, h.transport.count())
	assert.Empty(t, h.notifier.all())

	outcomes := h.recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeSkipped, outcomes[0].Status)
}

func TestExecute_EncodingErrorPublishesNothing(t *testing.T) {
	h := newHarness(defaultConfig())

	_, err := h.commander.SetProperty(context.Background(), onlineDevice(), "", 1, "bad")
	assert.ErrorIs(t, err, ErrEncoding)
	assert.Zero(t, h.transport.count())

	calls := h.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "error", calls[0].Kind)
}

func TestExecute_TransportFailure(t *testing.T) {
	h := newHarness(defaultConfig())
	brokerErr := errors.New("not authorised")
	h.transport.err = brokerErr

	_, err := h.commander.SetProperty(context.Background(), onlineDevice(), "switch", true, "turn on")
	assert.ErrorIs(t, err, ErrTransport)
	assert.ErrorIs(t, err, brokerErr)
	assert.Equal(t, 1, h.transport.count(), "a failed publish is not retried")

	calls := h.notifier.all()
	require.Len(t, calls, 1)
	assert.Equal(t, "error", calls[0].Kind)
	assert.Contains(t, calls[0].Msg, "not authorised")

	outcomes := h.recorder.all()
	require.Len(t, outcomes, 1)
	assert.Equal(t, OutcomeFailed, outcomes[0].Status)
	assert.ErrorIs(t, outcomes[0].Err, brokerErr)
}

func TestExecute_DoesNotMutateDevice(t *testing.T) {
	h := newHarness(defaultConfig())
	d := shadowDevice()
	before := d

	_, err := h.commander.InvokeFunction(context.Background(), d, "reset", 1, "")
	require.NoError(t, err)
	assert.Equal(t, before, d)
}

func TestSubmit_DeliversExactlyOneResult(t *testing.T) {
	h := newHarness(defaultConfig())

	results := h.commander.Submit(context.Background(), onlineDevice(), PropertySet{ItemID: "a", Value: 1})
	r := <-results
	require.NoError(t, r.Err)

	select {
	case extra, ok := <-results:
		if ok {
			t.Fatalf("unexpected second result: %+v", extra)
		}
	case <-time.After(50 * time.Millisecond):
	}
}

func TestExecute_CancelStopsWaitingOnly(t *testing.T) {
	h := newHarness(defaultConfig())
	h.transport.release = make(chan struct{})

	ctx, cancel := context.WithCancel(context.Background())
	results := h.commander.Submit(ctx, onlineDevice(), PropertySet{ItemID: "a", Value: 1, Remark: "slow"})
	cancel()

	_, err := Await(ctx, results)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 1, h.transport.count(), "publish was already handed to the transport")

	close(h.transport.release)
	r := <-results
	assert.NoError(t, r.Err)
	assert.Eventually(t, func() bool { return len(h.recorder.all()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, []notification{{Kind: "success", Msg: "slow sent"}}, h.notifier.all())
}

func TestCommander_ConcurrentUse(t *testing.T) {
	h := newHarness(defaultConfig())
	ctx := context.Background()

	const n = 32
	errs := make(chan error, n)
	for i := range n {
		go func() {
			_, err := h.commander.SetProperty(ctx, onlineDevice(), "counter", i, "")
			errs <- err
		}()
	}
	for range n {
		require.NoError(t, <-errs)
	}
	assert.Equal(t, n, h.transport.count())
}
