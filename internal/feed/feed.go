// Package feed defines the remote live-feed contract: a server-pushed,
// continuously updated query result for a room's message collection, plus
// append-only document creation. Update and delete are not part of the
// contract.
package feed

import "context"

// Snapshot is one emission of the live feed: the full current result set of
// raw documents for the room, newest first as ordered by the server.
type Snapshot struct {
	Docs []map[string]any
}

// Provider is the remote feed backend.
//
// Subscribe delivers snapshots in emission order on the returned channel
// until the context is cancelled or the connection drops, after which the
// channel is closed. Append creates one new document in the room's
// collection; the appended document comes back to the subscriber through the
// next snapshot, never synchronously.
type Provider interface {
	Subscribe(ctx context.Context, room string) (<-chan Snapshot, error)
	Append(ctx context.Context, room string, doc map[string]any) error
}
