package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Dialer opens client-side subscriptions to a server's /ws endpoint.
type Dialer struct {
	URL              string
	HandshakeTimeout time.Duration
}

// Subscription is a joined client connection. Events arrive on the handler
// passed to Connect until Close is called or the server goes away.
type Subscription struct {
	conn      *websocket.Conn
	done      chan struct{}
	closeOnce sync.Once
}

// Connect dials, joins userID's delivery group and starts delivering events
// to onEvent from a single goroutine.
func (d *Dialer) Connect(ctx context.Context, token, userID string, onEvent func(Message)) (*Subscription, error) {
	timeout := d.HandshakeTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	dialer := websocket.Dialer{HandshakeTimeout: timeout}

	header := http.Header{}
	header.Set("Authorization", "Bearer "+token)

	conn, _, err := dialer.DialContext(ctx, d.URL, header)
	if err != nil {
		return nil, fmt.Errorf("failed to dial %s: %w", d.URL, err)
	}

	join, err := encode(EventJoin, userID)
	if err != nil {
		conn.Close()
		return nil, err
	}
	conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := conn.WriteMessage(websocket.TextMessage, join); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to send join: %w", err)
	}

	conn.SetReadDeadline(time.Now().Add(timeout))
	var reply Message
	if err := conn.ReadJSON(&reply); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to read join reply: %w", err)
	}
	if reply.Event != EventJoined {
		conn.Close()
		var detail map[string]string
		json.Unmarshal(reply.Data, &detail)
		return nil, fmt.Errorf("join rejected: %s", detail["message"])
	}
	conn.SetReadDeadline(time.Time{})

	s := &Subscription{conn: conn, done: make(chan struct{})}
	go s.readLoop(onEvent)
	return s, nil
}

func (s *Subscription) readLoop(onEvent func(Message)) {
	defer close(s.done)
	for {
		var msg Message
		if err := s.conn.ReadJSON(&msg); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				logrus.WithError(err).Debug("Subscription ended")
			}
			return
		}
		if onEvent != nil {
			onEvent(msg)
		}
	}
}

// Done is closed when the subscription stops receiving.
func (s *Subscription) Done() <-chan struct{} {
	return s.done
}

func (s *Subscription) Close() error {
	var err error
	s.closeOnce.Do(func() {
		s.conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(writeWait))
		err = s.conn.Close()
		<-s.done
	})
	return err
}
