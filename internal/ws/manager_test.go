package ws

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/coder/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/pkg/types"
)

func staticIdentity(id string) IdentityResolver {
	return IdentityFunc(func(context.Context) (types.Identity, error) {
		return types.Identity{UserID: id}, nil
	})
}

func newTestManager(t *testing.T, ident IdentityResolver) (*Manager, *store.Store, *PipeDialer) {
	st := store.New()
	d := NewPipeDialer()
	m := NewManager(Options{BaseURL: "http://api.local:8080"}, st, ident, d, zaptest.NewLogger(t))
	t.Cleanup(func() { _ = m.Close() })
	return m, st, d
}

func connect(t *testing.T, m *Manager, d *PipeDialer) *Peer {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	require.NoError(t, m.Connect(context.Background(), "g1"))
	p, err := d.Next(ctx)
	require.NoError(t, err)
	return p
}

func TestChannelURL(t *testing.T) {
	cases := []struct {
		name    string
		base    string
		want    string
		wantErr bool
	}{
		{name: "http", base: "http://localhost:8080", want: "ws://localhost:8080/ws?game_id=g1&user_id=u1"},
		{name: "https drops path", base: "https://api.example.com/v1", want: "wss://api.example.com/ws?game_id=g1&user_id=u1"},
		{name: "bad scheme", base: "ftp://x", wantErr: true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := ChannelURL(tc.base, "g1", "u1")
			if tc.wantErr {
				assert.ErrorIs(t, err, ErrBadScheme)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestConnectSendsJoinAndAppliesState(t *testing.T) {
	m, st, d := newTestManager(t, staticIdentity("u1"))
	p := connect(t, m, d)

	assert.Equal(t, "ws://api.local:8080/ws?game_id=g1&user_id=u1", p.URL)
	assert.Equal(t, StateOpen, m.State())
	assert.True(t, st.Connected())
	id, ok := st.Identity()
	require.True(t, ok)
	assert.Equal(t, "u1", id.UserID)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f, payload, err := p.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ActJoinGame, f.Action)
	assert.JSONEq(t, `{}`, string(payload))

	require.NoError(t, p.PushState(&types.Snapshot{GameID: "g1", Status: types.StatusWaiting}))
	require.Eventually(t, func() bool {
		snap, ok := st.Read()
		return ok && snap.GameID == "g1"
	}, time.Second, 10*time.Millisecond)
}

func TestMalformedFramesAreDropped(t *testing.T) {
	m, st, d := newTestManager(t, staticIdentity("u1"))
	p := connect(t, m, d)

	require.NoError(t, p.Push([]byte("not json")))
	require.NoError(t, p.Push([]byte(`{"type":"CHAT","payload":{"text":"hola"}}`)))
	require.NoError(t, p.Push([]byte(`{"type":"GAME_STATE","payload":null}`)))
	require.NoError(t, p.Push([]byte(`{"type":"GAME_STATE","payload":{"players":"oops"}}`)))
	require.NoError(t, p.PushState(&types.Snapshot{GameID: "after"}))

	require.Eventually(t, func() bool { return st.Version() == 1 }, time.Second, 10*time.Millisecond)
	snap, _ := st.Read()
	assert.Equal(t, "after", snap.GameID)
	assert.Equal(t, StateOpen, m.State(), "bad frames must not close the channel")
}

func TestSendWhileClosed(t *testing.T) {
	m, _, _ := newTestManager(t, staticIdentity("u1"))
	err := m.Send(types.ActRollDice, nil)
	assert.ErrorIs(t, err, ErrNotOpen)
}

func TestConnectWithoutIdentity(t *testing.T) {
	m, st, _ := newTestManager(t, staticIdentity(""))
	err := m.Connect(context.Background(), "g1")
	assert.ErrorIs(t, err, ErrNoIdentity)
	assert.Equal(t, StateClosed, m.State())
	assert.False(t, st.Connected())
}

func TestConnectIdentityFailure(t *testing.T) {
	boom := errors.New("401")
	m, _, _ := newTestManager(t, IdentityFunc(func(context.Context) (types.Identity, error) {
		return types.Identity{}, boom
	}))
	err := m.Connect(context.Background(), "g1")
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, StateClosed, m.State())
}

func TestDialFailureLeavesClosed(t *testing.T) {
	m, st, d := newTestManager(t, staticIdentity("u1"))
	d.Fail = errors.New("refused")
	assert.Error(t, m.Connect(context.Background(), "g1"))
	assert.Equal(t, StateClosed, m.State())
	assert.False(t, st.Connected())
}

func TestDoubleConnect(t *testing.T) {
	m, _, d := newTestManager(t, staticIdentity("u1"))
	connect(t, m, d)
	assert.ErrorIs(t, m.Connect(context.Background(), "g1"), ErrAlreadyConnected)
}

func TestPeerCloseMarksDisconnected(t *testing.T) {
	m, st, d := newTestManager(t, staticIdentity("u1"))
	p := connect(t, m, d)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	waitErr := make(chan error, 1)
	go func() { waitErr <- m.Wait(ctx) }()

	p.Close()
	select {
	case err := <-waitErr:
		assert.ErrorIs(t, err, ErrClosed)
	case <-ctx.Done():
		t.Fatal("Wait did not return")
	}
	assert.Equal(t, StateClosed, m.State())
	assert.False(t, st.Connected())
	assert.ErrorIs(t, m.Send(types.ActEndTurn, nil), ErrNotOpen)
}

func TestCloseStopsApplyingFrames(t *testing.T) {
	m, st, d := newTestManager(t, staticIdentity("u1"))
	p := connect(t, m, d)

	require.NoError(t, p.PushState(&types.Snapshot{GameID: "first"}))
	require.Eventually(t, func() bool { return st.Version() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Close())
	assert.False(t, st.Connected())
	assert.True(t, p.Closed())

	_ = p.PushState(&types.Snapshot{GameID: "stale"})
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 1, st.Version())

	// a fresh connection works after teardown
	p2 := connect(t, m, d)
	require.NoError(t, p2.PushState(&types.Snapshot{GameID: "second"}))
	require.Eventually(t, func() bool { return st.Version() == 2 }, time.Second, 10*time.Millisecond)
}

type dialFunc func(ctx context.Context, url string) (Channel, error)

func (f dialFunc) Dial(ctx context.Context, url string) (Channel, error) { return f(ctx, url) }

// heldChannel delivers one game state right away and a second one only once
// it has been closed, like a frame already in flight during teardown.
type heldChannel struct {
	closed chan struct{}
	once   sync.Once
	reads  atomic.Int32
}

func newHeldChannel() *heldChannel { return &heldChannel{closed: make(chan struct{})} }

func stateFrame(gameID string) []byte {
	data, _ := json.Marshal(struct {
		Type    string          `json:"type"`
		Payload *types.Snapshot `json:"payload"`
	}{Type: types.FrameGameState, Payload: &types.Snapshot{GameID: gameID}})
	return data
}

func (c *heldChannel) Read(context.Context) ([]byte, error) {
	switch c.reads.Add(1) {
	case 1:
		return stateFrame("live"), nil
	case 2:
		<-c.closed
		return stateFrame("stale"), nil
	default:
		return nil, ErrClosed
	}
}

func (c *heldChannel) Write(context.Context, []byte) error { return nil }

func (c *heldChannel) Close() error {
	c.once.Do(func() { close(c.closed) })
	return nil
}

func TestFrameInFlightDuringCloseIsDropped(t *testing.T) {
	st := store.New()
	ch := newHeldChannel()
	d := dialFunc(func(context.Context, string) (Channel, error) { return ch, nil })
	m := NewManager(Options{BaseURL: "http://api.local:8080"}, st, staticIdentity("u1"), d, zaptest.NewLogger(t))

	require.NoError(t, m.Connect(context.Background(), "g1"))
	require.Eventually(t, func() bool { return st.Version() == 1 }, time.Second, 10*time.Millisecond)

	require.NoError(t, m.Close())
	assert.Equal(t, 1, st.Version())
	snap, ok := st.Read()
	require.True(t, ok)
	assert.Equal(t, "live", snap.GameID)
	assert.GreaterOrEqual(t, ch.reads.Load(), int32(2))
}

func TestCloseAbortsPendingDial(t *testing.T) {
	st := store.New()
	entered := make(chan struct{})
	d := dialFunc(func(ctx context.Context, _ string) (Channel, error) {
		close(entered)
		<-ctx.Done()
		return nil, ctx.Err()
	})
	m := NewManager(Options{BaseURL: "http://api.local:8080"}, st, staticIdentity("u1"), d, zaptest.NewLogger(t))

	errc := make(chan error, 1)
	go func() { errc <- m.Connect(context.Background(), "g1") }()
	<-entered
	assert.Equal(t, StateConnecting, m.State())

	require.NoError(t, m.Close())
	select {
	case err := <-errc:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("connect kept dialing after close")
	}
	assert.Equal(t, StateClosed, m.State())
	assert.False(t, st.Connected())
}

func TestStaleConnectDoesNotReplaceNewer(t *testing.T) {
	var calls atomic.Int32
	entered := make(chan struct{})
	release := make(chan struct{})
	ident := IdentityFunc(func(context.Context) (types.Identity, error) {
		if calls.Add(1) == 1 {
			close(entered)
			<-release
		}
		return types.Identity{UserID: "u1"}, nil
	})
	m, _, d := newTestManager(t, ident)

	first := make(chan error, 1)
	go func() { first <- m.Connect(context.Background(), "g1") }()
	<-entered

	require.NoError(t, m.Close())
	p2 := connect(t, m, d)
	close(release)

	select {
	case err := <-first:
		assert.Error(t, err)
	case <-time.After(time.Second):
		t.Fatal("stale connect did not return")
	}
	assert.Equal(t, StateOpen, m.State())

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	f, _, err := p2.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ActJoinGame, f.Action)

	require.NoError(t, m.Send(types.ActRollDice, nil))
	f, _, err = p2.Recv(ctx)
	require.NoError(t, err)
	assert.Equal(t, types.ActRollDice, f.Action)
}

func TestWebsocketRoundTrip(t *testing.T) {
	joined := make(chan types.ActionName, 1)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("user_id") != "u1" || r.URL.Query().Get("game_id") != "g7" {
			http.Error(w, "bad query", http.StatusBadRequest)
			return
		}
		conn, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusNormalClosure, "bye")

		_, data, err := conn.Read(r.Context())
		if err != nil {
			return
		}
		var f struct {
			Action types.ActionName `json:"action"`
		}
		_ = json.Unmarshal(data, &f)
		joined <- f.Action

		frame, _ := json.Marshal(map[string]any{
			"type":    types.FrameGameState,
			"payload": types.Snapshot{GameID: "g7", Status: types.StatusActive, Dice: [2]int{2, 3}},
		})
		_ = conn.Write(r.Context(), websocket.MessageText, frame)
		_, _, _ = conn.Read(r.Context())
	}))
	defer server.Close()

	st := store.New()
	m := NewManager(Options{BaseURL: server.URL}, st, staticIdentity("u1"), WebsocketDialer{ReadLimit: 1 << 20}, zaptest.NewLogger(t))
	defer m.Close()

	require.True(t, strings.HasPrefix(server.URL, "http://"))
	require.NoError(t, m.Connect(context.Background(), "g7"))

	select {
	case a := <-joined:
		assert.Equal(t, types.ActJoinGame, a)
	case <-time.After(2 * time.Second):
		t.Fatal("server never saw JOIN_GAME")
	}

	require.Eventually(t, func() bool {
		snap, ok := st.Read()
		return ok && snap.GameID == "g7" && snap.Dice == [2]int{2, 3}
	}, 2*time.Second, 10*time.Millisecond)
}
