package events

import "time"

type Event struct {
	Type       string         `json:"type"`
	OccurredAt time.Time      `json:"occurred_at"`
	Data       map[string]any `json:"data,omitempty"`
}

func NewEvent(typ string, data map[string]any) Event {
	return Event{Type: typ, OccurredAt: time.Now().UTC(), Data: data}
}
