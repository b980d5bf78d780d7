package layout

import (
	"github.com/DoyleJ11/board-client/internal/board"
	"github.com/DoyleJ11/board-client/pkg/types"
)

// TileView is a layout tile merged with live state and placed on the grid.
type TileView struct {
	types.Tile
	OwnerID string     `json:"owner_id,omitempty"`
	Players []string   `json:"players,omitempty"`
	Cell    board.Cell `json:"cell"`
	Lane    int        `json:"lane"`
	Corner  bool       `json:"corner"`
}

// Overlay merges the static layout with the snapshot: ownership, building
// count and mortgage flags come from the snapshot. With no static layout the
// snapshot's own board is used. Tiles off the ring are skipped.
func Overlay(static []types.Tile, snap *types.Snapshot) []TileView {
	base := static
	if len(base) == 0 && snap != nil {
		base = snap.Board
	}

	occupants := map[int][]string{}
	if snap != nil {
		for _, p := range snap.Players {
			occupants[p.Position] = append(occupants[p.Position], p.UserID)
		}
	}

	out := make([]TileView, 0, len(base))
	for _, t := range base {
		if t.ID < 0 || t.ID >= board.Tiles {
			continue
		}
		if live, ok := snap.TileAt(t.ID); ok {
			t.BuildingCount = live.BuildingCount
			t.IsMortgaged = live.IsMortgaged
		}
		v := TileView{
			Tile:    t,
			Players: occupants[t.ID],
			Cell:    board.GridOf(t.ID),
			Lane:    board.Lane(t.ID),
			Corner:  board.IsCorner(t.ID),
		}
		if owner, ok := snap.OwnerOf(t.PropertyID); ok {
			v.OwnerID = owner
		}
		out = append(out, v)
	}
	return out
}

// LaneView picks the tiles of one lane in display order.
func LaneView(views []TileView, lane int, withCorner bool) []TileView {
	byID := make(map[int]TileView, len(views))
	for _, v := range views {
		byID[v.ID] = v
	}
	idx := board.LaneWindow(lane, withCorner)
	out := make([]TileView, 0, len(idx))
	for _, i := range idx {
		if v, ok := byID[i]; ok {
			out = append(out, v)
		}
	}
	return out
}
