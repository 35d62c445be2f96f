package amqp

import (
	"encoding/json"
	"time"
)

// RunMessage asks a worker to execute one verification run. It carries
// only the run ID plus enough context for logging; the worker loads the
// full run row from the database.
type RunMessage struct {
	RunID     string    `json:"run_id"`
	GSTIN     string    `json:"gstin,omitempty"`
	Period    string    `json:"period,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// NewRunMessage creates a run message stamped with the current time.
func NewRunMessage(runID, gstin, period string) *RunMessage {
	return &RunMessage{
		RunID:     runID,
		GSTIN:     gstin,
		Period:    period,
		Timestamp: time.Now(),
	}
}

// ToJSON converts the message to JSON bytes
func (m *RunMessage) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

// RunMessageFromJSON creates a message from JSON bytes
func RunMessageFromJSON(data []byte) (*RunMessage, error) {
	var msg RunMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	if msg.RunID == "" {
		return nil, errEmptyRunID
	}
	return &msg, nil
}
