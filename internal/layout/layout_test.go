package layout

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/DoyleJ11/board-client/internal/board"
	"github.com/DoyleJ11/board-client/pkg/types"
)

func staticBoard() []types.Tile {
	tiles := make([]types.Tile, 0, board.Tiles)
	// served out of order on purpose
	for i := board.Tiles - 1; i >= 0; i-- {
		tiles = append(tiles, types.Tile{ID: i, Type: types.TileRest, Name: "t"})
	}
	tiles[board.Tiles-1-1] = types.Tile{ID: 1, Type: types.TilePropertyType, PropertyID: "p1", Name: "Mediterráneo", Price: 60}
	return tiles
}

func boardServer(t *testing.T, hits *atomic.Int32, status int) *httptest.Server {
	t.Helper()
	r := chi.NewRouter()
	r.Get("/games/board", func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		if status != http.StatusOK {
			w.WriteHeader(status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(staticBoard())
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func TestBoardIsFetchedOnce(t *testing.T) {
	var hits atomic.Int32
	srv := boardServer(t, &hits, http.StatusOK)
	c := NewClient(srv.URL, srv.Client(), zaptest.NewLogger(t))

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			tiles, err := c.Board(context.Background())
			assert.NoError(t, err)
			assert.Len(t, tiles, board.Tiles)
		}()
	}
	wg.Wait()

	tiles, err := c.Board(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, tiles[0].ID)
	assert.Equal(t, "p1", tiles[1].PropertyID)
	assert.LessOrEqual(t, hits.Load(), int32(8))

	before := hits.Load()
	_, _ = c.Board(context.Background())
	assert.Equal(t, before, hits.Load(), "cached board must not refetch")

	tiles[0].Name = "mutated"
	again, _ := c.Board(context.Background())
	assert.NotEqual(t, "mutated", again[0].Name, "callers get a copy")
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	var hits atomic.Int32
	started := make(chan struct{})
	release := make(chan struct{})
	r := chi.NewRouter()
	r.Get("/games/board", func(w http.ResponseWriter, r *http.Request) {
		if hits.Add(1) == 1 {
			close(started)
		}
		<-release
		_ = json.NewEncoder(w).Encode(staticBoard())
	})
	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	c := NewClient(srv.URL, srv.Client(), zaptest.NewLogger(t))

	ctx, cancel := context.WithCancel(context.Background())
	first := make(chan error, 1)
	go func() {
		_, err := c.Board(ctx)
		first <- err
	}()
	<-started

	second := make(chan []types.Tile, 1)
	go func() {
		tiles, err := c.Board(context.Background())
		assert.NoError(t, err)
		second <- tiles
	}()

	cancel()
	select {
	case err := <-first:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("cancelled caller did not return")
	}

	close(release)
	select {
	case tiles := <-second:
		assert.Len(t, tiles, board.Tiles)
	case <-time.After(2 * time.Second):
		t.Fatal("second caller did not get the board")
	}
	assert.Equal(t, int32(1), hits.Load())
}

func TestBoardErrorIsNotCached(t *testing.T) {
	var hits atomic.Int32
	srv := boardServer(t, &hits, http.StatusInternalServerError)
	c := NewClient(srv.URL, srv.Client(), zaptest.NewLogger(t))

	_, err := c.Board(context.Background())
	assert.Error(t, err)
	_, err = c.Board(context.Background())
	assert.Error(t, err)
	assert.Equal(t, int32(2), hits.Load())
}

func TestOverlay(t *testing.T) {
	static := []types.Tile{
		{ID: 0, Type: types.TileCorner},
		{ID: 1, Type: types.TilePropertyType, PropertyID: "p1", Price: 60},
		{ID: 17, Type: types.TileRailroad, PropertyID: "r17", Price: 200},
	}
	snap := &types.Snapshot{
		Board: []types.Tile{
			{ID: 0, Type: types.TileCorner},
			{ID: 1, Type: types.TilePropertyType, PropertyID: "p1", BuildingCount: 3},
		},
		PropertyOwnership: map[string]string{"p1": "u1", "r17": "u2"},
		Players:           []types.Player{{UserID: "u1", Position: 17}, {UserID: "u2", Position: 17}},
	}

	views := Overlay(static, snap)
	require.Len(t, views, 3)

	assert.Equal(t, board.Cell{Row: 17, Col: 17}, views[0].Cell)
	assert.True(t, views[0].Corner)
	assert.Equal(t, 3, views[1].BuildingCount)
	assert.Equal(t, 60, views[1].Price, "static pricing is kept")
	assert.Equal(t, "u1", views[1].OwnerID)
	assert.Equal(t, 1, views[2].Lane)
	assert.Equal(t, []string{"u1", "u2"}, views[2].Players)

	lane := LaneView(views, 1, false)
	require.Len(t, lane, 1)
	assert.Equal(t, 17, lane[0].ID)
}

func TestOverlayWithoutStatic(t *testing.T) {
	snap := &types.Snapshot{Board: []types.Tile{{ID: 5, Type: types.TileTax}}}
	views := Overlay(nil, snap)
	require.Len(t, views, 1)
	assert.Equal(t, board.GridOf(5), views[0].Cell)
	assert.Empty(t, Overlay(nil, nil))
}
