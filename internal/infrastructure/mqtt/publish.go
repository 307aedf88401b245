package mqtt

import (
	"fmt"
)

// Maximum payload size for MQTT messages (1MB).
const maxPayloadSize = 1 << 20

// Publish sends a message to the specified MQTT topic and waits for the
// broker acknowledgement (bounded by the publish timeout).
//
// QoS Levels:
//   - 0: At most once (fire and forget)
//   - 1: At least once (guaranteed delivery, may duplicate)
//   - 2: Exactly once (guaranteed, no duplicates, higher overhead)
//
// Device commands must not be retained; retained is for status topics.
//
// Parameters:
//   - topic: Full topic, e.g. /41/D1ELV3A5TOJS/property-online/get
//   - payload: Encoded message body (at most 1MB)
//   - qos: Delivery guarantee (0, 1, or 2)
//   - retained: Whether the broker keeps the last message for new subscribers
//
// Returns:
//   - error: nil once acknowledged, or wrapped error describing the failure
func (c *Client) Publish(topic string, payload []byte, qos byte, retained bool) error {
	return <-c.publishAsync(topic, payload, qos, retained)
}

// PublishAsync sends a device command with the configured QoS and returns
// immediately. The returned channel receives exactly one value: nil once
// the broker has acknowledged the message, or the failure.
//
// The publish is never cancelled once handed to paho; a caller that stops
// reading the channel does not leak anything because it is buffered.
func (c *Client) PublishAsync(topic string, payload []byte) <-chan error {
	return c.publishAsync(topic, payload, c.QoS(), false)
}

// PublishString is a convenience method that publishes a string payload.
func (c *Client) PublishString(topic string, payload string, qos byte, retained bool) error {
	return c.Publish(topic, []byte(payload), qos, retained)
}

func (c *Client) publishAsync(topic string, payload []byte, qos byte, retained bool) <-chan error {
	done := make(chan error, 1)

	if err := validatePublish(topic, payload, qos); err != nil {
		done <- err
		return done
	}
	if !c.IsConnected() {
		done <- ErrNotConnected
		return done
	}

	token := c.client.Publish(topic, qos, retained, payload)
	go func() {
		if !token.WaitTimeout(defaultPublishTimeout) {
			done <- fmt.Errorf("%w: timeout after %v", ErrPublishFailed, defaultPublishTimeout)
			return
		}
		if err := token.Error(); err != nil {
			done <- fmt.Errorf("%w: %w", ErrPublishFailed, err)
			return
		}
		done <- nil
	}()

	return done
}

// validatePublish checks publish arguments before touching the connection.
func validatePublish(topic string, payload []byte, qos byte) error {
	if topic == "" {
		return ErrInvalidTopic
	}
	if qos > maxQoS {
		return ErrInvalidQoS
	}
	if len(payload) > maxPayloadSize {
		return fmt.Errorf("%w: payload size %d exceeds maximum %d bytes", ErrPublishFailed, len(payload), maxPayloadSize)
	}
	return nil
}
