package amqp

import (
	"encoding/json"
	"time"
)

// SnapshotChangedMessage announces that a new ledger snapshot was installed.
// It carries no ledger data; consumers read the snapshot from shared storage.
type SnapshotChangedMessage struct {
	Revision  uint64    `json:"revision"`
	Reason    string    `json:"reason"`
	Timestamp time.Time `json:"timestamp"`
}

func NewSnapshotChangedMessage(revision uint64, reason string, at time.Time) *SnapshotChangedMessage {
	if at.IsZero() {
		at = time.Now()
	}
	return &SnapshotChangedMessage{
		Revision:  revision,
		Reason:    reason,
		Timestamp: at,
	}
}

// ToJSON converts the message to JSON bytes
func (m *SnapshotChangedMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func SnapshotChangedMessageFromJSON(data []byte) (*SnapshotChangedMessage, error) {
	var msg SnapshotChangedMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
