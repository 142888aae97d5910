package amqp

import (
	"encoding/json"
	"time"

	"treasury/internal/core"
)

// MutationMessage tells the invalidation worker that a ledger write
// committed. It carries only the mutation kind; the coordinator knows which
// view families depend on it.
type MutationMessage struct {
	Mutation  core.Mutation `json:"mutation"`
	Timestamp time.Time     `json:"timestamp"`
}

// NewMutationMessage creates a message stamped with the current time.
func NewMutationMessage(m core.Mutation) *MutationMessage {
	return &MutationMessage{
		Mutation:  m,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *MutationMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// MutationMessageFromJSON creates a message from JSON bytes
func MutationMessageFromJSON(data []byte) (*MutationMessage, error) {
	var msg MutationMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
