package amqp

import (
	"encoding/json"
	"time"
)

const (
	OpUpsert = "upsert"
	OpDelete = "delete"
)

// EntrySyncMessage tells the worker to mirror one daily entry. It carries
// only the ID and version, the worker fetches the full row from the
// database. Delete messages additionally carry the entry date so the row
// can still be located in the sheet.
type EntrySyncMessage struct {
	ID        int64     `json:"id"`
	Version   int64     `json:"version"`
	Op        string    `json:"op"`
	EntryDate string    `json:"entry_date,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewEntrySyncMessage(id, version int64) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Version:   version,
		Op:        OpUpsert,
		Timestamp: time.Now(),
	}
}

func NewEntryDeleteMessage(id int64, entryDate string) *EntrySyncMessage {
	return &EntrySyncMessage{
		ID:        id,
		Op:        OpDelete,
		EntryDate: entryDate,
		Timestamp: time.Now(),
	}
}

func (m *EntrySyncMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func EntrySyncMessageFromJSON(data []byte) (*EntrySyncMessage, error) {
	var msg EntrySyncMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
