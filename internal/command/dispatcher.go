package command

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Message is a fully addressed, encoded command ready to publish.
type Message struct {
	DeviceID string
	Category Category
	Topic    string
	Payload  []byte
	Label    string
}

// Ack confirms that the transport accepted a message.
type Ack struct {
	MessageID   string
	Topic       string
	PublishedAt time.Time
}

// Result is the single value delivered for each request.
type Result struct {
	Ack Ack
	Err error
}

// Dispatcher publishes messages and reports each outcome.
type Dispatcher struct {
	transport Transport
	notifier  Notifier
	recorders []Recorder
	logger    Logger
	now       func() time.Time
}

// NewDispatcher creates a dispatcher over transport. A nil notifier
// discards notifications.
func NewDispatcher(transport Transport, notifier Notifier, recorders ...Recorder) *Dispatcher {
	if notifier == nil {
		notifier = noopNotifier{}
	}
	return &Dispatcher{
		transport: transport,
		notifier:  notifier,
		recorders: recorders,
		logger:    noopLogger{},
		now:       time.Now,
	}
}

// SetLogger sets the logger for the dispatcher.
func (d *Dispatcher) SetLogger(logger Logger) {
	d.logger = logger
}

// Dispatch publishes msg exactly once. The returned channel receives one
// Result after the transport completes; a success raises "<label> sent", a
// failure raises the transport error. Cancelling ctx does not cancel the
// publish.
func (d *Dispatcher) Dispatch(ctx context.Context, msg Message) <-chan Result {
	out := make(chan Result, 1)

	id := uuid.NewString()
	start := d.now()
	done := d.transport.PublishAsync(msg.Topic, msg.Payload)

	go func() {
		err := <-done
		outcome := Outcome{
			MessageID: id,
			DeviceID:  msg.DeviceID,
			Category:  msg.Category,
			Topic:     msg.Topic,
			Label:     msg.Label,
			At:        d.now(),
		}
		outcome.Latency = outcome.At.Sub(start)

		if err != nil {
			err = fmt.Errorf("%w: %s: %w", ErrTransport, msg.Topic, err)
			outcome.Status, outcome.Err = OutcomeFailed, err
			d.logger.Error("command publish failed",
				"device_id", msg.DeviceID, "topic", msg.Topic, "label", msg.Label, "error", err)
			d.notifier.NotifyError(fmt.Sprintf("%s failed: %v", msg.Label, err))
			d.record(ctx, outcome)
			out <- Result{Err: err}
			return
		}

		outcome.Status = OutcomeSent
		d.logger.Info("command sent",
			"device_id", msg.DeviceID, "topic", msg.Topic, "label", msg.Label, "message_id", id)
		d.notifier.NotifySuccess(msg.Label + " sent")
		d.record(ctx, outcome)
		out <- Result{Ack: Ack{MessageID: id, Topic: msg.Topic, PublishedAt: outcome.At}}
	}()

	return out
}

// record fans an outcome out to every recorder. Recording outlives the
// caller's context so a cancelled wait still leaves an audit entry.
func (d *Dispatcher) record(ctx context.Context, o Outcome) {
	if o.At.IsZero() {
		o.At = d.now()
	}
	ctx = context.WithoutCancel(ctx)
	for _, r := range d.recorders {
		r.RecordCommand(ctx, o)
	}
}

// Await blocks until the result arrives or ctx is done. Giving up does not
// stop the publish.
func Await(ctx context.Context, results <-chan Result) (Ack, error) {
	select {
	case r := <-results:
		return r.Ack, r.Err
	case <-ctx.Done():
		return Ack{}, fmt.Errorf("waiting for publish result: %w", ctx.Err())
	}
}
