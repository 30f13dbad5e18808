package message

import (
	"errors"
	"testing"
	"time"
)

func TestDecodeDocument(t *testing.T) {
	doc := map[string]any{
		"id":        "m1",
		"text":      "hello",
		"createdAt": "2024-01-01T00:00:00Z",
		"author":    map[string]any{"id": "u1", "displayName": "Ann"},
	}

	m, err := DecodeDocument(doc)
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}
	if m.ID != "m1" || m.Text != "hello" {
		t.Errorf("got %+v, want id=m1 text=hello", m)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !m.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, want)
	}
	if m.Author.ID != "u1" || m.Author.DisplayName != "Ann" {
		t.Errorf("Author = %+v, want u1/Ann", m.Author)
	}
	if m.System {
		t.Error("System = true, want false when isSystem absent")
	}
}

func TestDecodeDocumentDefaults(t *testing.T) {
	before := time.Now().UTC()
	m, err := DecodeDocument(map[string]any{"id": "m1"})
	if err != nil {
		t.Fatalf("DecodeDocument() error = %v", err)
	}

	if m.Author != AnonymousAuthor {
		t.Errorf("Author = %+v, want anonymous default", m.Author)
	}
	if m.CreatedAt.Before(before) || m.CreatedAt.After(time.Now().UTC().Add(time.Second)) {
		t.Errorf("CreatedAt = %v, want defaulted to roughly now", m.CreatedAt)
	}
}

func TestDecodeDocumentEpochMillis(t *testing.T) {
	m, err := DecodeDocument(map[string]any{"id": "m1", "createdAt": float64(1704067200000)})
	if err != nil {
		t.Fatal(err)
	}
	want := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	if !m.CreatedAt.Equal(want) {
		t.Errorf("CreatedAt = %v, want %v", m.CreatedAt, want)
	}
}

func TestDecodeDocumentSystemFlag(t *testing.T) {
	tests := []struct {
		name string
		val  any
		want bool
	}{
		{"explicit true", true, true},
		{"explicit false", false, false},
		{"string truthy is ignored", "true", false},
		{"number is ignored", float64(1), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m, err := DecodeDocument(map[string]any{"id": "m1", "isSystem": tt.val})
			if err != nil {
				t.Fatal(err)
			}
			if m.System != tt.want {
				t.Errorf("System = %v, want %v", m.System, tt.want)
			}
		})
	}
}

func TestDecodeDocumentMissingID(t *testing.T) {
	_, err := DecodeDocument(map[string]any{"text": "orphan"})
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("error = %v, want ErrUndecodable", err)
	}
	_, err = DecodeDocument(nil)
	if !errors.Is(err, ErrUndecodable) {
		t.Errorf("error = %v, want ErrUndecodable for nil doc", err)
	}
}

func TestDecodeSnapshotSkipsBadDocs(t *testing.T) {
	docs := []map[string]any{
		{"id": "m1", "text": "ok", "createdAt": "2024-01-01T00:00:00Z"},
		{"text": "no id"},
		nil,
		{"id": "m2", "text": "also ok", "createdAt": "2024-01-02T00:00:00Z"},
	}

	msgs := DecodeSnapshot(docs)
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2 (bad docs skipped)", len(msgs))
	}
}

func TestDecodeSnapshotOrdering(t *testing.T) {
	docs := []map[string]any{
		{"id": "old", "createdAt": "2024-01-01T00:00:00Z"},
		{"id": "new", "createdAt": "2024-06-01T00:00:00Z"},
		{"id": "mid", "createdAt": "2024-03-01T00:00:00Z"},
	}

	msgs := DecodeSnapshot(docs)
	if len(msgs) != 3 {
		t.Fatalf("got %d messages, want 3", len(msgs))
	}
	if msgs[0].ID != "new" || msgs[1].ID != "mid" || msgs[2].ID != "old" {
		t.Errorf("order = %s,%s,%s, want new,mid,old (newest first)", msgs[0].ID, msgs[1].ID, msgs[2].ID)
	}
}

func TestDecodeLocation(t *testing.T) {
	m, err := DecodeDocument(map[string]any{
		"id":       "m1",
		"location": map[string]any{"latitude": -23.55, "longitude": -46.63},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Location == nil {
		t.Fatal("Location = nil, want decoded coordinates")
	}
	if m.Location.Latitude != -23.55 || m.Location.Longitude != -46.63 {
		t.Errorf("Location = %+v, want -23.55/-46.63", m.Location)
	}

	// Partial coordinates are dropped rather than half-decoded.
	m, err = DecodeDocument(map[string]any{
		"id":       "m2",
		"location": map[string]any{"latitude": 1.0},
	})
	if err != nil {
		t.Fatal(err)
	}
	if m.Location != nil {
		t.Errorf("Location = %+v, want nil for partial coordinates", m.Location)
	}
}
