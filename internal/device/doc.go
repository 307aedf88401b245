// Package device models the devices the command core talks to and decides
// how each one can currently be reached.
//
// A Device is a snapshot fetched from the device-management backend. The
// core never mutates it: the Registry hands out copies, and Classify reads
// a value.
//
// # Reachability
//
//	status   shadow  reachability
//	online   any     Online
//	offline  yes     ShadowEligibleOffline
//	offline  no      Unreachable
//	unknown  any     Unreachable
//
// ShadowEligibleOffline devices have a shadow on the broker side that
// queues commands until the device reconnects, so they still receive
// commands on the offline topic variants.
package device
