package services

import (
	"sync"
	"testing"

	"gorm.io/gorm"

	"github.com/javajoker/agriconnect-backend/internal/config"
	"github.com/javajoker/agriconnect-backend/internal/testutil"
)

type emitted struct {
	UserID  string
	Event   string
	Payload interface{}
}

// recordingPublisher stands in for the realtime hub.
type recordingPublisher struct {
	mu     sync.Mutex
	events []emitted
	err    error
}

func (p *recordingPublisher) Emit(userID, event string, payload interface{}) (int, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.err != nil {
		return 0, p.err
	}
	p.events = append(p.events, emitted{UserID: userID, Event: event, Payload: payload})
	return 1, nil
}

func (p *recordingPublisher) For(userID string) []emitted {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []emitted
	for _, e := range p.events {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	return out
}

func testConfig() *config.Config {
	return &config.Config{
		JWT: config.JWTConfig{SecretKey: "test-secret", AccessTokenTTL: 1, RefreshTokenTTL: 2},
	}
}

type fixture struct {
	db            *gorm.DB
	publisher     *recordingPublisher
	notifications *NotificationService
	orders        *OrderService
	products      *ProductService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewDB(t)
	pub := &recordingPublisher{}
	notifications := NewNotificationService(db, pub, NewMailer(testConfig()))
	return &fixture{
		db:            db,
		publisher:     pub,
		notifications: notifications,
		orders:        NewOrderService(db, notifications),
		products:      NewProductService(db),
	}
}
