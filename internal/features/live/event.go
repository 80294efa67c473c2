package live

import (
	"encoding/json"
	"time"
)

type EventType string

const (
	EventVoteCast        EventType = "vote_cast"
	EventSessionFinished EventType = "session_finished"
)

// Event is pushed to every subscriber of a vote session.
type Event struct {
	Type      EventType       `json:"type"`
	SessionID string          `json:"session_id"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

func NewEvent(eventType EventType, sessionID string, data any, now time.Time) (Event, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return Event{}, err
	}
	return Event{
		Type:      eventType,
		SessionID: sessionID,
		Data:      raw,
		Timestamp: now,
	}, nil
}
