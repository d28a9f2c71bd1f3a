package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/javajoker/agriconnect-backend/internal/realtime"
)

type fakeConn struct {
	userID string
	done   chan struct{}
	once   sync.Once
}

func (c *fakeConn) Done() <-chan struct{} { return c.done }

func (c *fakeConn) Close() error {
	c.once.Do(func() { close(c.done) })
	return nil
}

func (c *fakeConn) closed() bool {
	select {
	case <-c.done:
		return true
	default:
		return false
	}
}

type fakeConnector struct {
	mu    sync.Mutex
	conns []*fakeConn
	fail  bool
}

func (f *fakeConnector) Connect(_ context.Context, _, userID string, _ func(realtime.Message)) (Connection, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return nil, errors.New("dial refused")
	}
	c := &fakeConn{userID: userID, done: make(chan struct{})}
	f.conns = append(f.conns, c)
	return c, nil
}

func (f *fakeConnector) opened() []*fakeConn {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*fakeConn(nil), f.conns...)
}

func testState(id string) *State {
	return &State{Token: "tok-" + id, User: Profile{ID: id, Name: "Amina", Role: "buyer"}}
}

func waitSignal(t *testing.T, m *Manager, timeout time.Duration) (Signal, bool) {
	t.Helper()
	select {
	case sig := <-m.Signals():
		return sig, true
	case <-time.After(timeout):
		return 0, false
	}
}

func TestLoginOpensSingleConnection(t *testing.T) {
	connector := &fakeConnector{}
	m := NewManager(Options{Connector: connector, IdleTimeout: time.Minute})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), testState("u1")))
	require.NoError(t, m.Login(context.Background(), testState("u2")))

	conns := connector.opened()
	require.Len(t, conns, 2)
	assert.True(t, conns[0].closed(), "previous connection is closed first")
	assert.False(t, conns[1].closed())
	assert.Equal(t, "u2", conns[1].userID)

	state, ok := m.Current()
	require.True(t, ok)
	assert.Equal(t, "u2", state.User.ID)
	assert.Equal(t, "tok-u2", m.Token())
	assert.Equal(t, Connection(conns[1]), m.Live())
}

func TestLoginWithoutLiveChannel(t *testing.T) {
	m := NewManager(Options{Connector: &fakeConnector{fail: true}, IdleTimeout: time.Minute})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), testState("u1")))
	_, ok := m.Current()
	assert.True(t, ok)
	assert.Nil(t, m.Live())
}

func TestIdleTimeoutExpiresSession(t *testing.T) {
	connector := &fakeConnector{}
	store := &MemoryStore{}
	m := NewManager(Options{Store: store, Connector: connector, IdleTimeout: 50 * time.Millisecond})

	require.NoError(t, m.Login(context.Background(), testState("u1")))

	sig, ok := waitSignal(t, m, time.Second)
	require.True(t, ok)
	assert.Equal(t, SignalExpired, sig)

	_, active := m.Current()
	assert.False(t, active)
	assert.True(t, connector.opened()[0].closed())
	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestActivityKeepsSessionAlive(t *testing.T) {
	m := NewManager(Options{IdleTimeout: 80 * time.Millisecond})
	defer m.Close()

	require.NoError(t, m.Login(context.Background(), testState("u1")))

	for i := 0; i < 5; i++ {
		time.Sleep(30 * time.Millisecond)
		assert.True(t, m.Activity(ActivityKeyboard))
	}
	_, active := m.Current()
	assert.True(t, active)

	// Only the fixed set of activity kinds resets the timer
	assert.False(t, m.Activity(Activity("resize")))

	sig, ok := waitSignal(t, m, time.Second)
	require.True(t, ok)
	assert.Equal(t, SignalExpired, sig)
}

func TestActivityWithoutSession(t *testing.T) {
	m := NewManager(Options{})
	assert.False(t, m.Activity(ActivityPointer))
}

func TestHandleUnauthorized(t *testing.T) {
	connector := &fakeConnector{}
	store := &MemoryStore{}
	m := NewManager(Options{Store: store, Connector: connector, IdleTimeout: time.Minute})

	require.NoError(t, m.Login(context.Background(), testState("u1")))
	m.HandleUnauthorized()

	sig, ok := waitSignal(t, m, time.Second)
	require.True(t, ok)
	assert.Equal(t, SignalUnauthorized, sig)
	assert.Empty(t, m.Token())
	assert.True(t, connector.opened()[0].closed())
	stored, _ := store.Load()
	assert.Nil(t, stored)
}

func TestLogoutDoesNotSignal(t *testing.T) {
	m := NewManager(Options{IdleTimeout: 40 * time.Millisecond})
	require.NoError(t, m.Login(context.Background(), testState("u1")))
	require.NoError(t, m.Logout())

	_, ok := waitSignal(t, m, 120*time.Millisecond)
	assert.False(t, ok, "a stopped timer must not expire the session")
}

func TestRestoreFromFileStore(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "session.json")
	store := NewFileStore(path)

	restored, err := NewManager(Options{Store: store}).Restore(context.Background())
	require.NoError(t, err)
	assert.False(t, restored)

	first := NewManager(Options{Store: store, IdleTimeout: time.Minute})
	require.NoError(t, first.Login(context.Background(), testState("u1")))
	first.Close()

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())

	connector := &fakeConnector{}
	second := NewManager(Options{Store: store, Connector: connector, IdleTimeout: time.Minute})
	defer second.Close()

	restored, err = second.Restore(context.Background())
	require.NoError(t, err)
	require.True(t, restored)
	state, _ := second.Current()
	assert.Equal(t, "tok-u1", state.Token)
	require.Len(t, connector.opened(), 1)

	require.NoError(t, second.Logout())
	_, err = os.Stat(path)
	assert.True(t, os.IsNotExist(err))
}

func TestFileStoreRejectsCorruptFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	require.NoError(t, os.WriteFile(path, []byte("{"), 0o600))

	_, err := NewFileStore(path).Load()
	assert.Error(t, err)
}

type gatedConnector struct {
	dialing chan struct{}
	release chan struct{}
	conn    *fakeConn
}

func (g *gatedConnector) Connect(_ context.Context, _, userID string, _ func(realtime.Message)) (Connection, error) {
	close(g.dialing)
	<-g.release
	g.conn = &fakeConn{userID: userID, done: make(chan struct{})}
	return g.conn, nil
}

func TestSlowDialDoesNotBlockSession(t *testing.T) {
	connector := &gatedConnector{dialing: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Options{Connector: connector, IdleTimeout: time.Minute})
	defer m.Close()

	loggedIn := make(chan error, 1)
	go func() { loggedIn <- m.Login(context.Background(), testState("u1")) }()
	<-connector.dialing

	queried := make(chan bool, 1)
	go func() {
		_, ok := m.Current()
		queried <- ok && m.Activity(ActivityKeyboard)
	}()
	select {
	case ok := <-queried:
		assert.True(t, ok)
	case <-time.After(time.Second):
		t.Fatal("session calls blocked behind the live connection dial")
	}

	require.NoError(t, m.Logout())
	close(connector.release)
	require.NoError(t, <-loggedIn)

	assert.True(t, connector.conn.closed(), "connection dialed for an ended session must be closed")
	m.mu.Lock()
	assert.Nil(t, m.conn)
	m.mu.Unlock()
}

func TestActivityDuringDialKeepsConnection(t *testing.T) {
	connector := &gatedConnector{dialing: make(chan struct{}), release: make(chan struct{})}
	m := NewManager(Options{Connector: connector, IdleTimeout: time.Minute})
	defer m.Close()

	loggedIn := make(chan error, 1)
	go func() { loggedIn <- m.Login(context.Background(), testState("u1")) }()
	<-connector.dialing

	assert.True(t, m.Activity(ActivityPointer))
	close(connector.release)
	require.NoError(t, <-loggedIn)

	assert.False(t, connector.conn.closed())
	m.mu.Lock()
	assert.Same(t, connector.conn, m.conn)
	m.mu.Unlock()
}
