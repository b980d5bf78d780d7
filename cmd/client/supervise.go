package main

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/internal/config"
	"github.com/DoyleJ11/board-client/internal/identity"
	"github.com/DoyleJ11/board-client/internal/ws"
)

type conn interface {
	Connect(ctx context.Context, gameID string) error
	Wait(ctx context.Context) error
}

// fatal errors are not fixed by dialing again.
func fatal(err error) bool {
	return errors.Is(err, identity.ErrUnauthorized) ||
		errors.Is(err, identity.ErrTokenExpired) ||
		errors.Is(err, ws.ErrNoIdentity) ||
		errors.Is(err, ws.ErrBadScheme)
}

// supervise keeps one game connection alive until ctx ends. The attempt
// counter resets after every successful connect.
func supervise(ctx context.Context, c conn, gameID string, policy config.ReconnectConfig, log *zap.Logger) error {
	attempts := 0
	for {
		err := c.Connect(ctx, gameID)
		if err == nil {
			attempts = 0
			err = c.Wait(ctx)
			if err == nil || ctx.Err() != nil {
				return nil
			}
			log.Warn("connection ended", zap.String("game_id", gameID), zap.Error(err))
		} else {
			if ctx.Err() != nil {
				return nil
			}
			if fatal(err) {
				return err
			}
			log.Warn("connect failed", zap.String("game_id", gameID), zap.Int("attempt", attempts+1), zap.Error(err))
		}

		if !policy.Enabled {
			return err
		}
		attempts++
		if attempts >= policy.MaxAttempts {
			return fmt.Errorf("giving up after %d attempts: %w", attempts, err)
		}

		select {
		case <-ctx.Done():
			return nil
		case <-time.After(policy.Backoff):
		}
	}
}
