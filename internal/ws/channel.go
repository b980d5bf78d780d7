package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"

	"github.com/coder/websocket"

	"github.com/DoyleJ11/board-client/pkg/types"
)

var (
	ErrNoIdentity       = errors.New("identity not resolved")
	ErrNotOpen          = errors.New("channel not open")
	ErrClosed           = errors.New("channel closed by peer")
	ErrAlreadyConnected = errors.New("already connected")
	ErrBadScheme        = errors.New("unsupported url scheme")
)

// Channel is one live bidirectional message stream.
type Channel interface {
	Read(ctx context.Context) ([]byte, error)
	Write(ctx context.Context, data []byte) error
	Close() error
}

type Dialer interface {
	Dial(ctx context.Context, url string) (Channel, error)
}

type IdentityResolver interface {
	Resolve(ctx context.Context) (types.Identity, error)
}

type IdentityFunc func(ctx context.Context) (types.Identity, error)

func (f IdentityFunc) Resolve(ctx context.Context) (types.Identity, error) { return f(ctx) }

// ChannelURL builds the live channel address from the API base URL. Only the
// host of the base is kept; the scheme maps http->ws and https->wss.
func ChannelURL(base, gameID, userID string) (string, error) {
	u, err := url.Parse(base)
	if err != nil {
		return "", fmt.Errorf("parse base url: %w", err)
	}
	scheme := ""
	switch u.Scheme {
	case "http", "ws":
		scheme = "ws"
	case "https", "wss":
		scheme = "wss"
	default:
		return "", fmt.Errorf("%w: %q", ErrBadScheme, u.Scheme)
	}
	q := url.Values{}
	q.Set("game_id", gameID)
	q.Set("user_id", userID)
	out := url.URL{Scheme: scheme, Host: u.Host, Path: "/ws", RawQuery: q.Encode()}
	return out.String(), nil
}

// WebsocketDialer dials real websocket connections.
type WebsocketDialer struct {
	// ReadLimit caps a single inbound message. Snapshots carry the whole
	// board and log, so the library default of 32KiB is too small.
	ReadLimit int64
	Header    map[string]string
}

func (d WebsocketDialer) Dial(ctx context.Context, u string) (Channel, error) {
	opts := &websocket.DialOptions{}
	if len(d.Header) > 0 {
		opts.HTTPHeader = http.Header{}
		for k, v := range d.Header {
			opts.HTTPHeader.Set(k, v)
		}
	}
	conn, _, err := websocket.Dial(ctx, u, opts)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", u, err)
	}
	if d.ReadLimit > 0 {
		conn.SetReadLimit(d.ReadLimit)
	}
	return &wsChannel{conn: conn}, nil
}

type wsChannel struct {
	conn *websocket.Conn
}

func (c *wsChannel) Read(ctx context.Context) ([]byte, error) {
	_, data, err := c.conn.Read(ctx)
	if err != nil {
		switch websocket.CloseStatus(err) {
		case websocket.StatusNormalClosure, websocket.StatusGoingAway:
			return nil, ErrClosed
		}
		return nil, err
	}
	return data, nil
}

func (c *wsChannel) Write(ctx context.Context, data []byte) error {
	return c.conn.Write(ctx, websocket.MessageText, data)
}

func (c *wsChannel) Close() error {
	return c.conn.Close(websocket.StatusNormalClosure, "bye")
}
