package amqp

import (
	"encoding/json"
	"time"
)

// UserEvent is the wire shape of one published domain event.
type UserEvent struct {
	UserID    int64     `json:"user_id"`
	Event     string    `json:"event"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

func NewUserEvent(userID int64, event string, payload any) *UserEvent {
	return &UserEvent{
		UserID:    userID,
		Event:     event,
		Payload:   payload,
		Timestamp: time.Now(),
	}
}

func (m *UserEvent) ToJSON() ([]byte, error) {
	return json.Marshal(m)
}

func UserEventFromJSON(data []byte) (*UserEvent, error) {
	var msg UserEvent
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}
