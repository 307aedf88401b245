package notify

import (
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type logLine struct {
	level string
	msg   string
	args  []any
}

type recordingLogger struct {
	mu    sync.Mutex
	lines []logLine
}

func (r *recordingLogger) Info(msg string, args ...any)  { r.add("info", msg, args) }
func (r *recordingLogger) Warn(msg string, args ...any)  { r.add("warn", msg, args) }
func (r *recordingLogger) Error(msg string, args ...any) { r.add("error", msg, args) }

func (r *recordingLogger) add(level, msg string, args []any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.lines = append(r.lines, logLine{level, msg, args})
}

func (r *recordingLogger) snapshot() []logLine {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]logLine(nil), r.lines...)
}

func TestLog_Levels(t *testing.T) {
	logger := &recordingLogger{}
	sink := NewLog(logger)

	sink.NotifySuccess("ok")
	sink.NotifyError("failed")
	sink.AlertError("unreachable")

	lines := logger.snapshot()
	require.Len(t, lines, 3)
	assert.Equal(t, "info", lines[0].level)
	assert.Equal(t, "warn", lines[1].level)
	assert.Equal(t, "error", lines[2].level)
	assert.Equal(t, []any{"level", LevelAlert, "message", "unreachable"}, lines[2].args)
}

type message struct {
	topic    string
	payload  []byte
	qos      byte
	retained bool
}

type fakePublisher struct {
	mu   sync.Mutex
	msgs []message
	err  error
}

func (f *fakePublisher) Publish(topic string, payload []byte, qos byte, retained bool) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.msgs = append(f.msgs, message{topic, payload, qos, retained})
	return f.err
}

func (f *fakePublisher) snapshot() []message {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]message(nil), f.msgs...)
}

func TestMQTT_PublishesJSON(t *testing.T) {
	pub := &fakePublisher{}
	sink := NewMQTT(pub, "commandcore/ui/console/notification", &recordingLogger{})
	fixed := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)
	sink.now = func() time.Time { return fixed }

	sink.AlertError("device not reachable and not shadow-enabled")

	require.Eventually(t, func() bool { return len(pub.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	m := pub.snapshot()[0]
	assert.Equal(t, "commandcore/ui/console/notification", m.topic)
	assert.False(t, m.retained)

	var n Notification
	require.NoError(t, json.Unmarshal(m.payload, &n))
	assert.Equal(t, LevelAlert, n.Level)
	assert.Equal(t, "device not reachable and not shadow-enabled", n.Message)
	assert.True(t, fixed.Equal(n.Timestamp))
}

func TestMQTT_PublishFailureIsLogged(t *testing.T) {
	pub := &fakePublisher{err: errors.New("not connected")}
	logger := &recordingLogger{}
	sink := NewMQTT(pub, "t", logger)

	sink.NotifySuccess("x sent")

	require.Eventually(t, func() bool { return len(logger.snapshot()) == 1 }, time.Second, 5*time.Millisecond)
	assert.Equal(t, "warn", logger.snapshot()[0].level)
}

type countingSink struct {
	success, errors, alerts int
}

func (c *countingSink) NotifySuccess(string) { c.success++ }
func (c *countingSink) NotifyError(string)   { c.errors++ }
func (c *countingSink) AlertError(string)    { c.alerts++ }

func TestFanout(t *testing.T) {
	a, b := &countingSink{}, &countingSink{}
	f := Fanout{a, b}

	f.NotifySuccess("1")
	f.NotifyError("2")
	f.NotifyError("3")
	f.AlertError("4")

	for _, s := range []*countingSink{a, b} {
		assert.Equal(t, 1, s.success)
		assert.Equal(t, 2, s.errors)
		assert.Equal(t, 1, s.alerts)
	}
}
