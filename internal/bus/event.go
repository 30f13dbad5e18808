package bus

import "time"

// Event represents a domain event published on the bus.
//
// Kinds used across the daemon:
//
//	feed.snapshot            in-memory message list replaced from a live emission
//	message.sent             outgoing message appended to the remote feed
//	message.send_failed      outgoing append rejected or failed
//	connectivity.changed     reachability flipped online/offline
//	session.status_changed   daemon state machine transition
type Event struct {
	Kind      string
	Timestamp time.Time
	Payload   any
}
