package session

import (
	"context"

	"github.com/javajoker/agriconnect-backend/internal/realtime"
)

// Connection is a live channel opened for a session.
type Connection interface {
	Done() <-chan struct{}
	Close() error
}

// Connector opens the live channel and joins the user's delivery group.
type Connector interface {
	Connect(ctx context.Context, token, userID string, onEvent func(realtime.Message)) (Connection, error)
}

type dialerConnector struct {
	dialer *realtime.Dialer
}

// NewDialerConnector connects through a websocket dialer.
func NewDialerConnector(dialer *realtime.Dialer) Connector {
	return dialerConnector{dialer: dialer}
}

func (d dialerConnector) Connect(ctx context.Context, token, userID string, onEvent func(realtime.Message)) (Connection, error) {
	sub, err := d.dialer.Connect(ctx, token, userID, onEvent)
	if err != nil {
		return nil, err
	}
	return sub, nil
}
