package ws

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/pkg/types"
)

type State int32

const (
	StateClosed State = iota
	StateConnecting
	StateOpen
)

func (s State) String() string {
	switch s {
	case StateClosed:
		return "closed"
	case StateConnecting:
		return "connecting"
	case StateOpen:
		return "open"
	default:
		return fmt.Sprintf("State(%d)", int32(s))
	}
}

type Options struct {
	BaseURL      string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

// Manager owns the live channel for one game. It never reconnects on its
// own; callers watch Wait and decide.
type Manager struct {
	opts   Options
	store  *store.Store
	ident  IdentityResolver
	dialer Dialer
	log    *zap.Logger

	mu    sync.Mutex
	state State
	link  *link
	last  *link
	// gen changes on every Connect and Close; a dial that finishes under a
	// stale gen is discarded. abort cancels the dial in flight.
	gen   uint64
	abort context.CancelFunc
}

// link is one physical connection. active is cleared on teardown and is
// checked before every store mutation from the read loop.
type link struct {
	id     string
	gameID string
	ch     Channel
	ctx    context.Context
	cancel context.CancelFunc
	active atomic.Bool
	wmu    sync.Mutex
	done   chan struct{}
	err    error
}

func NewManager(opts Options, st *store.Store, ident IdentityResolver, dialer Dialer, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 3 * time.Second
	}
	if opts.DialTimeout <= 0 {
		opts.DialTimeout = 10 * time.Second
	}
	return &Manager{
		opts:   opts,
		store:  st,
		ident:  ident,
		dialer: dialer,
		log:    logger,
	}
}

func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Connect resolves identity, dials the channel and joins gameID. ctx bounds
// the lifetime of the connection, not just the dial.
func (m *Manager) Connect(ctx context.Context, gameID string) error {
	m.mu.Lock()
	if m.state != StateClosed {
		m.mu.Unlock()
		return ErrAlreadyConnected
	}
	m.state = StateConnecting
	m.gen++
	gen := m.gen
	dctx, abort := context.WithCancel(ctx)
	m.abort = abort
	m.mu.Unlock()
	defer abort()

	l, err := m.open(ctx, dctx, gameID)
	if err != nil {
		m.mu.Lock()
		if m.gen == gen {
			m.state = StateClosed
			m.abort = nil
		}
		m.mu.Unlock()
		return err
	}

	m.mu.Lock()
	if m.gen != gen || m.state != StateConnecting {
		// closed while dialing
		m.mu.Unlock()
		l.cancel()
		return multierr.Append(ErrNotOpen, l.ch.Close())
	}
	m.abort = nil
	m.link = l
	m.last = l
	m.state = StateOpen
	m.mu.Unlock()

	m.store.SetConnected(true)
	m.log.Info("channel open", zap.String("conn_id", l.id), zap.String("game_id", gameID))

	go m.readLoop(l)

	if err := m.Send(types.ActJoinGame, types.Empty{}); err != nil {
		return multierr.Append(fmt.Errorf("join game: %w", err), m.Close())
	}
	return nil
}

// open resolves identity and dials under dctx. The link itself lives under
// ctx.
func (m *Manager) open(ctx, dctx context.Context, gameID string) (*link, error) {
	id, err := m.ident.Resolve(dctx)
	if err != nil {
		return nil, fmt.Errorf("resolve identity: %w", err)
	}
	if id.UserID == "" {
		return nil, ErrNoIdentity
	}
	m.store.SetIdentity(id)

	u, err := ChannelURL(m.opts.BaseURL, gameID, id.UserID)
	if err != nil {
		return nil, err
	}

	tctx, cancel := context.WithTimeout(dctx, m.opts.DialTimeout)
	ch, err := m.dialer.Dial(tctx, u)
	cancel()
	if err != nil {
		m.log.Warn("dial failed", zap.String("game_id", gameID), zap.Error(err))
		return nil, err
	}

	lctx, lcancel := context.WithCancel(ctx)
	l := &link{
		id:     uuid.NewString(),
		gameID: gameID,
		ch:     ch,
		ctx:    lctx,
		cancel: lcancel,
		done:   make(chan struct{}),
	}
	l.active.Store(true)
	return l, nil
}

// Send writes one action frame. It fails with ErrNotOpen unless the channel
// is open; nothing is buffered or retried.
func (m *Manager) Send(action types.ActionName, payload any) error {
	m.mu.Lock()
	l, st := m.link, m.state
	m.mu.Unlock()

	if st != StateOpen || l == nil {
		m.log.Warn("send while channel not open", zap.String("action", string(action)), zap.Stringer("state", st))
		return ErrNotOpen
	}
	if payload == nil {
		payload = types.Empty{}
	}
	data, err := json.Marshal(types.OutboundFrame{Action: action, Payload: payload})
	if err != nil {
		return fmt.Errorf("encode %s: %w", action, err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), m.opts.WriteTimeout)
	defer cancel()
	l.wmu.Lock()
	err = l.ch.Write(ctx, data)
	l.wmu.Unlock()
	if err != nil {
		m.log.Warn("send failed", zap.String("conn_id", l.id), zap.String("action", string(action)), zap.Error(err))
		return fmt.Errorf("send %s: %w", action, err)
	}
	m.log.Debug("sent", zap.String("conn_id", l.id), zap.String("action", string(action)))
	return nil
}

// Close tears down the current connection, if any, and waits for its read
// loop to stop. No frame is applied to the store after Close returns. It
// must not be called from a store listener.
func (m *Manager) Close() error {
	m.mu.Lock()
	l := m.link
	m.link = nil
	m.state = StateClosed
	m.gen++
	if m.abort != nil {
		m.abort()
		m.abort = nil
	}
	m.mu.Unlock()

	if l == nil {
		return nil
	}
	l.active.Store(false)
	l.cancel()
	err := l.ch.Close()
	<-l.done
	m.store.SetConnected(false)
	m.log.Info("channel closed", zap.String("conn_id", l.id))
	return err
}

// Wait blocks until the most recent connection ends. It returns nil after a
// local Close, ErrClosed after a clean close by the peer, and the read error
// otherwise.
func (m *Manager) Wait(ctx context.Context) error {
	m.mu.Lock()
	l := m.last
	m.mu.Unlock()
	if l == nil {
		return ErrNotOpen
	}
	select {
	case <-l.done:
		return l.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// finish runs once when a link's read loop exits.
func (m *Manager) finish(l *link, err error) {
	m.mu.Lock()
	current := m.link == l
	if current {
		m.link = nil
		m.state = StateClosed
	}
	m.mu.Unlock()

	if current {
		m.store.SetConnected(false)
		if err != nil {
			m.log.Warn("channel lost", zap.String("conn_id", l.id), zap.Error(err))
		}
	}
	l.err = err
	close(l.done)
}
