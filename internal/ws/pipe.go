package ws

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// PipeDialer hands out in-memory channels. Each Dial creates a Peer that
// plays the server side, so tests can push synthetic frames.
type PipeDialer struct {
	// Fail, when set, is returned by Dial instead of a channel.
	Fail error

	peers chan *Peer
}

func NewPipeDialer() *PipeDialer {
	return &PipeDialer{peers: make(chan *Peer, 16)}
}

func (d *PipeDialer) Dial(ctx context.Context, url string) (Channel, error) {
	if d.Fail != nil {
		return nil, d.Fail
	}
	p := &Peer{
		URL:      url,
		toClient: make(chan []byte, 64),
		fromCli:  make(chan []byte, 64),
		done:     make(chan struct{}),
	}
	select {
	case d.peers <- p:
	case <-ctx.Done():
		return nil, ctx.Err()
	}
	return &pipeChannel{peer: p}, nil
}

// Next waits for the next dialed peer.
func (d *PipeDialer) Next(ctx context.Context) (*Peer, error) {
	select {
	case p := <-d.peers:
		return p, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Peer is the server end of an in-memory channel.
type Peer struct {
	URL string

	toClient chan []byte
	fromCli  chan []byte
	done     chan struct{}
	once     sync.Once
}

func (p *Peer) Push(data []byte) error {
	select {
	case <-p.done:
		return ErrClosed
	case p.toClient <- data:
		return nil
	}
}

func (p *Peer) PushJSON(v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return p.Push(data)
}

// PushState sends a GAME_STATE frame carrying snap.
func (p *Peer) PushState(snap *types.Snapshot) error {
	return p.PushJSON(struct {
		Type    string          `json:"type"`
		Payload *types.Snapshot `json:"payload"`
	}{Type: types.FrameGameState, Payload: snap})
}

// Recv returns the next frame the client wrote.
func (p *Peer) Recv(ctx context.Context) (types.OutboundFrame, json.RawMessage, error) {
	var raw []byte
	select {
	case raw = <-p.fromCli:
	case <-ctx.Done():
		return types.OutboundFrame{}, nil, ctx.Err()
	}
	var f struct {
		Action  types.ActionName `json:"action"`
		Payload json.RawMessage  `json:"payload"`
	}
	if err := json.Unmarshal(raw, &f); err != nil {
		return types.OutboundFrame{}, nil, err
	}
	return types.OutboundFrame{Action: f.Action, Payload: f.Payload}, f.Payload, nil
}

// Close ends the channel from the server side.
func (p *Peer) Close() {
	p.once.Do(func() { close(p.done) })
}

func (p *Peer) Closed() bool {
	select {
	case <-p.done:
		return true
	default:
		return false
	}
}

type pipeChannel struct {
	peer *Peer
}

func (c *pipeChannel) Read(ctx context.Context) ([]byte, error) {
	select {
	case data := <-c.peer.toClient:
		return data, nil
	case <-c.peer.done:
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *pipeChannel) Write(ctx context.Context, data []byte) error {
	select {
	case <-c.peer.done:
		return ErrClosed
	default:
	}
	select {
	case c.peer.fromCli <- data:
		return nil
	case <-c.peer.done:
		return ErrClosed
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *pipeChannel) Close() error {
	c.peer.Close()
	return nil
}
