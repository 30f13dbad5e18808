package message

import (
	"sort"
	"time"

	"github.com/google/uuid"
)

// Author is a snapshot of the sender's identity at creation time, not a live
// reference to a user record.
type Author struct {
	ID          string `json:"id"`
	DisplayName string `json:"displayName"`
}

// Location is a geographic coordinate pair in floating point degrees.
type Location struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Message is the unit of chat content.
//
// CreatedAt serializes as ISO-8601 (RFC 3339) and is the sole sort key,
// descending. ID is remote-assigned once synced; locally generated IDs carry a
// "local-" prefix and only ever exist on outgoing messages before the remote
// echo lands.
type Message struct {
	ID        string    `json:"id"`
	Text      string    `json:"text,omitempty"`
	CreatedAt time.Time `json:"createdAt"`
	Author    Author    `json:"author"`
	ImageURL  string    `json:"image,omitempty"`
	Location  *Location `json:"location,omitempty"`
	System    bool      `json:"isSystem,omitempty"`
}

// NewLocalID generates a temporary message ID for a not-yet-synced message.
func NewLocalID() string {
	return "local-" + uuid.NewString()
}

// SortNewestFirst orders messages by CreatedAt descending, in place.
// Equal timestamps tie-break on ID so ordering is deterministic.
func SortNewestFirst(msgs []Message) {
	sort.SliceStable(msgs, func(i, j int) bool {
		if msgs[i].CreatedAt.Equal(msgs[j].CreatedAt) {
			return msgs[i].ID > msgs[j].ID
		}
		return msgs[i].CreatedAt.After(msgs[j].CreatedAt)
	})
}
