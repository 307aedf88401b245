package natsbus

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/nats-io/nats.go"

	"github.com/nerrad567/iot-command-core/internal/infrastructure/config"
)

// flushTimeout bounds how long a publish waits for the server round trip.
const flushTimeout = 5 * time.Second

// Client publishes device commands over NATS.
//
// Thread Safety:
//   - All methods are safe for concurrent use; *nats.Conn is goroutine-safe.
type Client struct {
	nc     *nats.Conn
	logger Logger

	subMu sync.Mutex
	subs  map[string]*nats.Subscription
}

// Logger is the logging interface used for subscription handler failures.
type Logger interface {
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

type noopLogger struct{}

func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}

// Connect opens a NATS connection with unlimited reconnects.
func Connect(cfg config.NATSConfig) (*Client, error) {
	wait := time.Duration(cfg.ReconnectWait) * time.Millisecond
	if wait <= 0 {
		wait = 500 * time.Millisecond
	}

	nc, err := nats.Connect(cfg.URL,
		nats.Name(cfg.Name),
		nats.MaxReconnects(-1),
		nats.ReconnectWait(wait),
	)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrConnectionFailed, err)
	}

	return &Client{nc: nc, logger: noopLogger{}, subs: make(map[string]*nats.Subscription)}, nil
}

// PublishAsync maps topic to a subject and publishes payload.
// The channel receives nil once the server has processed the message.
func (c *Client) PublishAsync(topic string, payload []byte) <-chan error {
	done := make(chan error, 1)

	subject, err := Subject(topic)
	if err != nil {
		done <- err
		return done
	}
	if !c.IsConnected() {
		done <- ErrNotConnected
		return done
	}

	if err := c.nc.Publish(subject, payload); err != nil {
		done <- fmt.Errorf("%w: %w", ErrPublishFailed, err)
		return done
	}

	go func() {
		if err := c.nc.FlushTimeout(flushTimeout); err != nil {
			done <- fmt.Errorf("%w: %w", ErrPublishFailed, err)
			return
		}
		done <- nil
	}()

	return done
}

// Publish publishes payload and waits for the flush. qos and retained have
// no NATS equivalent and are ignored; the signature matches the MQTT client
// so either can back the UI notifier.
func (c *Client) Publish(topic string, payload []byte, _ byte, _ bool) error {
	return <-c.PublishAsync(topic, payload)
}

// Subscribe registers handler for an MQTT-style topic filter ("+" and "#"
// wildcards). Handlers receive the topic in MQTT form. qos is ignored.
func (c *Client) Subscribe(filter string, _ byte, handler func(topic string, payload []byte) error) error {
	subject, err := SubjectFilter(filter)
	if err != nil {
		return err
	}
	if handler == nil {
		return fmt.Errorf("%w: handler cannot be nil", ErrInvalidSubject)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}

	sub, err := c.nc.Subscribe(subject, func(m *nats.Msg) {
		c.dispatch(handler, m.Subject, m.Data)
	})
	if err != nil {
		return fmt.Errorf("%w: subscribing %s: %w", ErrConnectionFailed, subject, err)
	}

	c.subMu.Lock()
	if old, ok := c.subs[filter]; ok {
		old.Unsubscribe() //nolint:errcheck // replaced by the new subscription
	}
	c.subs[filter] = sub
	c.subMu.Unlock()
	return nil
}

// Unsubscribe removes the subscription registered for filter.
func (c *Client) Unsubscribe(filter string) error {
	c.subMu.Lock()
	sub, ok := c.subs[filter]
	delete(c.subs, filter)
	c.subMu.Unlock()
	if !ok {
		return nil
	}
	return sub.Unsubscribe()
}

// SetLogger sets the logger for handler failures.
func (c *Client) SetLogger(logger Logger) {
	c.logger = logger
}

func (c *Client) dispatch(handler func(string, []byte) error, subject string, data []byte) {
	topic := Topic(subject)
	defer func() {
		if r := recover(); r != nil {
			c.logger.Error("nats handler panic recovered", "topic", topic, "panic", r)
		}
	}()
	if err := handler(topic, data); err != nil {
		c.logger.Warn("nats handler error", "topic", topic, "error", err)
	}
}

// IsConnected reports whether the underlying connection is usable.
func (c *Client) IsConnected() bool {
	return c != nil && c.nc != nil && c.nc.IsConnected()
}

// HealthCheck verifies the NATS connection is alive.
func (c *Client) HealthCheck(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("nats health check: %w", err)
	}
	if !c.IsConnected() {
		return ErrNotConnected
	}
	return nil
}

// Close drains pending publishes and closes the connection.
func (c *Client) Close() error {
	if c == nil || c.nc == nil {
		return nil
	}
	if err := c.nc.Drain(); err != nil {
		c.nc.Close()
		return fmt.Errorf("draining nats connection: %w", err)
	}
	return nil
}

// Subject converts a device topic to a NATS subject.
func Subject(topic string) (string, error) {
	trimmed := strings.TrimPrefix(topic, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty topic", ErrInvalidSubject)
	}
	if strings.ContainsAny(trimmed, " \t\r\n.*>") {
		return "", fmt.Errorf("%w: %q contains reserved characters", ErrInvalidSubject, topic)
	}

	tokens := strings.Split(trimmed, "/")
	for _, tok := range tokens {
		if tok == "" {
			return "", fmt.Errorf("%w: %q has an empty level", ErrInvalidSubject, topic)
		}
	}
	return strings.Join(tokens, "."), nil
}

// SubjectFilter converts an MQTT topic filter to a NATS subject, mapping
// "+" to "*" and a trailing "#" to ">".
func SubjectFilter(filter string) (string, error) {
	trimmed := strings.TrimPrefix(filter, "/")
	if trimmed == "" {
		return "", fmt.Errorf("%w: empty filter", ErrInvalidSubject)
	}

	tokens := strings.Split(trimmed, "/")
	for i, tok := range tokens {
		switch {
		case tok == "+":
			tokens[i] = "*"
		case tok == "#" && i == len(tokens)-1:
			tokens[i] = ">"
		case tok == "" || strings.ContainsAny(tok, " \t\r\n.*>#+"):
			return "", fmt.Errorf("%w: %q has an invalid level %q", ErrInvalidSubject, filter, tok)
		}
	}
	return strings.Join(tokens, "."), nil
}

// Topic converts a subject back to the device topic form.
func Topic(subject string) string {
	return "/" + strings.ReplaceAll(subject, ".", "/")
}
