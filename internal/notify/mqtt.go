package notify

import (
	"time"
)

// Publisher is the subset of the MQTT client used to publish notifications.
type Publisher interface {
	Publish(topic string, payload []byte, qos byte, retained bool) error
}

// MQTT publishes notifications as JSON to a UI client's notification topic.
// Publishing happens on a separate goroutine so a slow broker never delays
// the command path; failures are logged.
type MQTT struct {
	pub    Publisher
	topic  string
	logger Logger
	now    func() time.Time
}

// NewMQTT creates a sink publishing to topic (see mqtt.Topics.UINotification).
func NewMQTT(pub Publisher, topic string, logger Logger) *MQTT {
	return &MQTT{pub: pub, topic: topic, logger: logger, now: time.Now}
}

func (m *MQTT) NotifySuccess(msg string) { m.send(LevelSuccess, msg) }
func (m *MQTT) NotifyError(msg string)   { m.send(LevelError, msg) }
func (m *MQTT) AlertError(msg string)    { m.send(LevelAlert, msg) }

func (m *MQTT) send(level, msg string) {
	payload, err := Notification{Level: level, Message: msg, Timestamp: m.now().UTC()}.encode()
	if err != nil {
		m.logger.Error("encoding notification", "error", err)
		return
	}
	go func() {
		if err := m.pub.Publish(m.topic, payload, 1, false); err != nil {
			m.logger.Warn("publishing notification failed", "topic", m.topic, "error", err)
		}
	}()
}
