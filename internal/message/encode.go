package message

import "time"

// EncodeDocument renders a Message as a raw feed document for append.
// CreatedAt goes over the wire as ISO-8601.
func EncodeDocument(m Message) map[string]any {
	doc := map[string]any{
		"id":        m.ID,
		"createdAt": m.CreatedAt.UTC().Format(time.RFC3339),
		"author": map[string]any{
			"id":          m.Author.ID,
			"displayName": m.Author.DisplayName,
		},
	}
	if m.Text != "" {
		doc["text"] = m.Text
	}
	if m.ImageURL != "" {
		doc["image"] = m.ImageURL
	}
	if m.Location != nil {
		doc["location"] = map[string]any{
			"latitude":  m.Location.Latitude,
			"longitude": m.Location.Longitude,
		}
	}
	if m.System {
		doc["isSystem"] = true
	}
	return doc
}
