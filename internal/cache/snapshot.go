package cache

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/matheus3301/drift/internal/message"
)

// WriteSnapshot replaces the cached message list for a room wholesale.
// Last write wins; there is no merge with the previous snapshot.
func (db *DB) WriteSnapshot(room string, msgs []message.Message) error {
	payload, err := json.Marshal(msgs)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	_, err = db.Exec(`
		INSERT INTO snapshots (room, payload, updated_at)
		VALUES (?, ?, ?)
		ON CONFLICT(room) DO UPDATE SET
			payload = excluded.payload,
			updated_at = excluded.updated_at`,
		room, payload, time.Now().UnixMilli())
	if err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}
	return nil
}

// ReadSnapshot loads the cached message list for a room. A room with no
// snapshot yields an empty list and no error; a corrupt payload yields an
// error so the caller can degrade and log.
func (db *DB) ReadSnapshot(room string) ([]message.Message, error) {
	var payload []byte
	err := db.QueryRow(`SELECT payload FROM snapshots WHERE room = ?`, room).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}

	var msgs []message.Message
	if err := json.Unmarshal(payload, &msgs); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	return msgs, nil
}
