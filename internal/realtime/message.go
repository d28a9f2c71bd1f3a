// Package realtime delivers live events to connected clients over websockets.
package realtime

import "encoding/json"

// Event names on the wire.
const (
	EventJoin               = "join"
	EventJoined             = "joined"
	EventError              = "error"
	EventPing               = "ping"
	EventPong               = "pong"
	EventNewNotification    = "newNotification"
	EventOrderStatusUpdated = "orderStatusUpdated"
)

// Message is the envelope for every frame in both directions.
type Message struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

func encode(event string, payload interface{}) ([]byte, error) {
	msg := Message{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		msg.Data = data
	}
	return json.Marshal(msg)
}
