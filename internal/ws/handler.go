package ws

import (
	"bytes"
	"encoding/json"
	"errors"

	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// readLoop forwards inbound frames to the store until the link dies.
func (m *Manager) readLoop(l *link) {
	var err error
	defer func() { m.finish(l, err) }()

	for {
		var data []byte
		data, err = l.ch.Read(l.ctx)
		if err != nil {
			// a local teardown or a cancelled parent is not a failure
			if !l.active.Load() || l.ctx.Err() != nil {
				err = nil
			} else if !errors.Is(err, ErrClosed) {
				m.log.Debug("read failed", zap.String("conn_id", l.id), zap.Error(err))
			}
			return
		}
		m.handleFrame(l, data)
	}
}

// handleFrame applies a GAME_STATE frame to the store. Everything else is
// logged and dropped.
func (m *Manager) handleFrame(l *link, data []byte) {
	var f types.InboundFrame
	if err := json.Unmarshal(data, &f); err != nil {
		m.log.Warn("bad frame", zap.String("conn_id", l.id), zap.Error(err))
		return
	}
	if f.Type != types.FrameGameState {
		m.log.Warn("ignoring frame", zap.String("conn_id", l.id), zap.String("type", f.Type))
		return
	}

	payload := bytes.TrimSpace(f.Payload)
	if len(payload) == 0 || bytes.Equal(payload, []byte("null")) {
		m.log.Warn("game state without payload", zap.String("conn_id", l.id))
		return
	}
	var snap types.Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		m.log.Warn("bad game state", zap.String("conn_id", l.id), zap.Error(err))
		return
	}

	if !l.active.Load() {
		m.log.Debug("dropping frame from stale connection", zap.String("conn_id", l.id))
		return
	}
	m.store.Replace(&snap)
}
