package layout

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"slices"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// Client fetches the static board layout once and keeps it for the life of
// the process. Concurrent first callers share one request; failures are not
// cached.
type Client struct {
	base    string
	http    *http.Client
	log     *zap.Logger
	timeout time.Duration

	group singleflight.Group
	mu    sync.RWMutex
	tiles []types.Tile
}

func NewClient(baseURL string, hc *http.Client, logger *zap.Logger) *Client {
	if hc == nil {
		hc = &http.Client{Timeout: 10 * time.Second}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	timeout := hc.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{base: strings.TrimRight(baseURL, "/"), http: hc, log: logger, timeout: timeout}
}

// Board returns the layout ordered by tile id.
func (c *Client) Board(ctx context.Context) ([]types.Tile, error) {
	c.mu.RLock()
	cached := c.tiles
	c.mu.RUnlock()
	if cached != nil {
		return slices.Clone(cached), nil
	}

	// The shared fetch outlives any single caller; each caller only stops
	// waiting when its own ctx ends.
	ch := c.group.DoChan("board", func() (any, error) {
		fctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), c.timeout)
		defer cancel()
		tiles, err := c.fetch(fctx)
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.tiles = tiles
		c.mu.Unlock()
		return tiles, nil
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			c.log.Debug("board fetch shared")
		}
		return slices.Clone(res.Val.([]types.Tile)), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Client) fetch(ctx context.Context) ([]types.Tile, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+"/games/board", nil)
	if err != nil {
		return nil, err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get board: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get board: unexpected status %d", resp.StatusCode)
	}

	var tiles []types.Tile
	if err := json.NewDecoder(resp.Body).Decode(&tiles); err != nil {
		return nil, fmt.Errorf("decode board: %w", err)
	}
	if tiles == nil {
		tiles = []types.Tile{}
	}
	slices.SortFunc(tiles, func(a, b types.Tile) int { return cmp.Compare(a.ID, b.ID) })
	c.log.Info("board layout loaded", zap.Int("tiles", len(tiles)))
	return tiles, nil
}
