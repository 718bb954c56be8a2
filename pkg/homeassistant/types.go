package homeassistant

import (
	"encoding/json"
	"time"
)

// State is an entity state as returned by GET /api/states/<entity_id>.
type State struct {
	EntityID    string         `json:"entity_id"`
	State       string         `json:"state"`
	Attributes  map[string]any `json:"attributes"`
	LastChanged time.Time      `json:"last_changed"`
	LastUpdated time.Time      `json:"last_updated"`
}

// Event is an event delivered by a subscribe_events subscription.
type Event struct {
	EventType string          `json:"event_type"`
	Data      json.RawMessage `json:"data"`
	Origin    string          `json:"origin,omitempty"`
	TimeFired time.Time       `json:"time_fired"`
}

// message covers every websocket message the Listener sends or receives.
type message struct {
	ID          int    `json:"id,omitempty"`
	Type        string `json:"type"`
	AccessToken string `json:"access_token,omitempty"`
	EventType   string `json:"event_type,omitempty"`
	HAVersion   string `json:"ha_version,omitempty"`
	Message     string `json:"message,omitempty"`
	Success     *bool  `json:"success,omitempty"`
	Error       *struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	} `json:"error,omitempty"`
	Event *Event `json:"event,omitempty"`
}

// DecodeData decodes the event payload into the caller-specified type T.
// If Data is empty, it returns the zero value of T with a nil error.
func DecodeData[T any](e Event) (T, error) {
	var zero T
	if len(e.Data) == 0 {
		return zero, nil
	}
	var v T
	if err := json.Unmarshal(e.Data, &v); err != nil {
		return zero, err
	}
	return v, nil
}
