// Package command turns device operations into addressed messages on the
// publish/subscribe transport.
//
// A request flows through five steps:
//
//	Operation + Device
//	    │
//	    ├─ device.Classify      online / shadow-offline / unreachable
//	    ├─ TopicRegistry        /<productId>/<serialNumber><suffix>
//	    ├─ Encode               exact firmware payload bytes
//	    ├─ Dispatcher           one publish, one notification
//	    └─ Result               Ack or error, delivered on a channel
//
// The Commander is stateless apart from its collaborators and is safe for
// concurrent use. Each call publishes at most once and never retries.
//
// # Cancellation
//
// A context passed to Submit or Execute bounds the backend lookups that
// precede a publish and the caller's wait for the result. It does not
// cancel a publish that has already been handed to the transport: the
// message may still be delivered after the caller gave up.
package command
