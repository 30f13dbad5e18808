package message

import (
	"errors"
	"time"
)

// ErrUndecodable marks a remote document that cannot be normalized into a
// Message. Snapshot decoding skips such documents instead of aborting the batch.
var ErrUndecodable = errors.New("undecodable feed document")

// AnonymousAuthor is stamped onto documents that arrive without author data.
var AnonymousAuthor = Author{ID: "anonymous", DisplayName: "Anonymous"}

// DecodeDocument normalizes one raw feed document into a Message. It is total
// over well-formed documents: a missing author becomes AnonymousAuthor, a
// missing or unparseable createdAt becomes the current time, and isSystem is
// preserved only when explicitly set to boolean true. Only a document without
// a usable id fails to decode.
func DecodeDocument(doc map[string]any) (Message, error) {
	if doc == nil {
		return Message{}, ErrUndecodable
	}

	id, _ := doc["id"].(string)
	if id == "" {
		return Message{}, ErrUndecodable
	}

	m := Message{
		ID:        id,
		CreatedAt: decodeCreatedAt(doc["createdAt"]),
		Author:    decodeAuthor(doc["author"]),
	}

	if text, ok := doc["text"].(string); ok {
		m.Text = text
	}
	if img, ok := doc["image"].(string); ok {
		m.ImageURL = img
	}
	if loc, ok := doc["location"].(map[string]any); ok {
		lat, latOK := loc["latitude"].(float64)
		lng, lngOK := loc["longitude"].(float64)
		if latOK && lngOK {
			m.Location = &Location{Latitude: lat, Longitude: lng}
		}
	}
	if sys, ok := doc["isSystem"].(bool); ok && sys {
		m.System = true
	}

	return m, nil
}

// DecodeSnapshot normalizes a full feed emission, skipping documents that fail
// to decode, and returns the result ordered newest first.
func DecodeSnapshot(docs []map[string]any) []Message {
	msgs := make([]Message, 0, len(docs))
	for _, doc := range docs {
		m, err := DecodeDocument(doc)
		if err != nil {
			continue
		}
		msgs = append(msgs, m)
	}
	SortNewestFirst(msgs)
	return msgs
}

func decodeCreatedAt(v any) time.Time {
	switch ts := v.(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, ts); err == nil {
			return t
		}
	case float64:
		// Epoch milliseconds, the wire form used by the feed backend.
		return time.UnixMilli(int64(ts)).UTC()
	}
	return time.Now().UTC()
}

func decodeAuthor(v any) Author {
	raw, ok := v.(map[string]any)
	if !ok {
		return AnonymousAuthor
	}
	a := Author{}
	a.ID, _ = raw["id"].(string)
	a.DisplayName, _ = raw["displayName"].(string)
	if a.DisplayName == "" {
		// Some clients write the author name under "name".
		a.DisplayName, _ = raw["name"].(string)
	}
	if a.ID == "" && a.DisplayName == "" {
		return AnonymousAuthor
	}
	if a.ID == "" {
		a.ID = AnonymousAuthor.ID
	}
	if a.DisplayName == "" {
		a.DisplayName = AnonymousAuthor.DisplayName
	}
	return a
}
