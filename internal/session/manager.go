// Package session tracks the signed-in user on the client side: the
// persisted credential, the idle timeout driven by user activity and the
// single live connection that receives server pushes.
package session

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/javajoker/agriconnect-backend/internal/realtime"
)

const DefaultIdleTimeout = 15 * time.Minute

// Signal reports why a session ended without the user asking.
type Signal int

const (
	// SignalExpired fires when no activity was seen for the idle timeout.
	SignalExpired Signal = iota + 1
	// SignalUnauthorized fires when the API rejected the credential.
	SignalUnauthorized
)

func (s Signal) String() string {
	switch s {
	case SignalExpired:
		return "expired"
	case SignalUnauthorized:
		return "unauthorized"
	default:
		return "unknown"
	}
}

// Activity is a kind of user input that keeps a session alive.
type Activity string

const (
	ActivityPointer  Activity = "pointer"
	ActivityKeyboard Activity = "keyboard"
	ActivityScroll   Activity = "scroll"
	ActivityTouch    Activity = "touch"
)

func (a Activity) Valid() bool {
	switch a {
	case ActivityPointer, ActivityKeyboard, ActivityScroll, ActivityTouch:
		return true
	}
	return false
}

type Options struct {
	Store Store
	// Connector is optional; without it no live connection is opened.
	Connector   Connector
	IdleTimeout time.Duration
	// OnEvent receives pushes from the live connection. It must not call
	// back into the Manager.
	OnEvent func(realtime.Message)
}

type Manager struct {
	store     Store
	connector Connector
	idle      time.Duration
	onEvent   func(realtime.Message)
	signals   chan Signal

	mu    sync.Mutex
	state *State
	conn  Connection
	timer *time.Timer
	// generation invalidates idle timers that fire after the session changed
	generation uint64
	// session changes only when a session starts or ends; a connection dialed
	// for an older session is closed instead of installed
	session uint64
}

func NewManager(opts Options) *Manager {
	if opts.Store == nil {
		opts.Store = &MemoryStore{}
	}
	if opts.IdleTimeout <= 0 {
		opts.IdleTimeout = DefaultIdleTimeout
	}
	return &Manager{
		store:     opts.Store,
		connector: opts.Connector,
		idle:      opts.IdleTimeout,
		onEvent:   opts.OnEvent,
		signals:   make(chan Signal, 4),
	}
}

// Signals delivers session-ending signals. Slow readers miss signals rather
// than block the session.
func (m *Manager) Signals() <-chan Signal {
	return m.signals
}

// Restore rehydrates the session from the store. It reports false when no
// session was stored.
func (m *Manager) Restore(ctx context.Context) (bool, error) {
	state, err := m.store.Load()
	if err != nil {
		return false, err
	}
	if state == nil {
		return false, nil
	}
	m.start(ctx, state)
	return true, nil
}

// Login persists state and starts a session, replacing any current one.
func (m *Manager) Login(ctx context.Context, state *State) error {
	if err := m.store.Save(state); err != nil {
		return err
	}
	m.start(ctx, state)
	return nil
}

func (m *Manager) start(ctx context.Context, state *State) {
	copied := *state

	m.mu.Lock()
	m.stopLocked()
	m.generation++
	m.session++
	session := m.session
	m.state = &copied
	m.armLocked()
	m.mu.Unlock()

	if m.connector == nil {
		return
	}
	conn, err := m.connector.Connect(ctx, copied.Token, copied.User.ID, m.onEvent)
	if err != nil {
		logrus.WithError(err).WithField("user_id", copied.User.ID).Warn("Live connection unavailable")
		return
	}

	m.mu.Lock()
	if m.session != session || m.state == nil {
		m.mu.Unlock()
		if err := conn.Close(); err != nil {
			logrus.WithError(err).Debug("Failed to close stale live connection")
		}
		return
	}
	m.conn = conn
	m.mu.Unlock()
}

func (m *Manager) armLocked() {
	generation := m.generation
	m.timer = time.AfterFunc(m.idle, func() { m.expire(generation) })
}

// stopLocked releases the timer and connection of the current session.
func (m *Manager) stopLocked() {
	if m.timer != nil {
		m.timer.Stop()
		m.timer = nil
	}
	if m.conn != nil {
		if err := m.conn.Close(); err != nil {
			logrus.WithError(err).Debug("Failed to close live connection")
		}
		m.conn = nil
	}
}

// Activity resets the idle timer. Unknown kinds and calls without a session
// are ignored and report false.
func (m *Manager) Activity(kind Activity) bool {
	if !kind.Valid() {
		return false
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if m.state == nil || m.timer == nil {
		return false
	}
	m.timer.Stop()
	m.generation++
	m.armLocked()
	return true
}

func (m *Manager) expire(generation uint64) {
	m.mu.Lock()
	if m.generation != generation || m.state == nil {
		m.mu.Unlock()
		return
	}
	m.endLocked()
	m.mu.Unlock()

	logrus.Info("Session expired after inactivity")
	m.emit(SignalExpired)
}

// Logout ends the session and clears the store.
func (m *Manager) Logout() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.endLocked()
}

// HandleUnauthorized ends the session after the API rejected the credential.
func (m *Manager) HandleUnauthorized() {
	m.mu.Lock()
	if err := m.endLocked(); err != nil {
		logrus.WithError(err).Warn("Failed to clear session store")
	}
	m.mu.Unlock()

	m.emit(SignalUnauthorized)
}

func (m *Manager) endLocked() error {
	m.stopLocked()
	m.generation++
	m.session++
	m.state = nil
	return m.store.Clear()
}

// Close releases the timer and connection but keeps the stored session for
// the next run.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stopLocked()
	m.generation++
	m.session++
	m.state = nil
}

// Current returns a copy of the active session state.
func (m *Manager) Current() (State, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.state == nil {
		return State{}, false
	}
	return *m.state, true
}

// Token returns the bearer token of the active session, or "".
func (m *Manager) Token() string {
	state, _ := m.Current()
	return state.Token
}

// Live returns the open connection, or nil.
func (m *Manager) Live() Connection {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.conn
}

func (m *Manager) emit(sig Signal) {
	select {
	case m.signals <- sig:
	default:
	}
}
