package board

import (
	"slices"
	"testing"
)

func TestGridOfIsBijection(t *testing.T) {
	seen := map[Cell]int{}
	for i := 0; i < Tiles; i++ {
		c := GridOf(i)
		if c.Row < 1 || c.Row > Size || c.Col < 1 || c.Col > Size {
			t.Fatalf("GridOf(%d) = %+v, off the grid", i, c)
		}
		if prev, dup := seen[c]; dup {
			t.Fatalf("GridOf(%d) collides with GridOf(%d) at %+v", i, prev, c)
		}
		seen[c] = i

		back, ok := IndexOf(c)
		if !ok || back != i {
			t.Fatalf("IndexOf(GridOf(%d)) = %d, %v", i, back, ok)
		}
	}
}

func TestGridOfCorners(t *testing.T) {
	cases := []struct {
		name string
		idx  int
		want Cell
	}{
		{name: "start", idx: 0, want: Cell{Row: 17, Col: 17}},
		{name: "bottom left", idx: 16, want: Cell{Row: 17, Col: 1}},
		{name: "top left", idx: 32, want: Cell{Row: 1, Col: 1}},
		{name: "top right", idx: 48, want: Cell{Row: 1, Col: 17}},
		{name: "bottom edge", idx: 5, want: Cell{Row: 17, Col: 12}},
		{name: "left edge", idx: 20, want: Cell{Row: 13, Col: 1}},
		{name: "top edge", idx: 40, want: Cell{Row: 1, Col: 9}},
		{name: "right edge", idx: 63, want: Cell{Row: 16, Col: 17}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := GridOf(tc.idx); got != tc.want {
				t.Fatalf("GridOf(%d): got %+v, want %+v", tc.idx, got, tc.want)
			}
		})
	}
}

func TestIndexOfRejectsOffRing(t *testing.T) {
	cases := []Cell{
		{Row: 9, Col: 9},
		{Row: 2, Col: 2},
		{Row: 0, Col: 5},
		{Row: 18, Col: 1},
		{Row: 16, Col: 16},
	}
	for _, c := range cases {
		if i, ok := IndexOf(c); ok {
			t.Fatalf("IndexOf(%+v) = %d, expected rejection", c, i)
		}
	}
}

func TestLaneRanges(t *testing.T) {
	for i := 0; i < Tiles; i++ {
		want := i / 16
		if got := Lane(i); got != want {
			t.Fatalf("Lane(%d): got %d, want %d", i, got, want)
		}
	}
}

func TestLaneIndices(t *testing.T) {
	covered := map[int]bool{}
	for lane := 0; lane < Lanes; lane++ {
		idx := LaneIndices(lane)
		if len(idx) != EdgeLen {
			t.Fatalf("lane %d: got %d indices", lane, len(idx))
		}
		for _, i := range idx {
			if Lane(i) != lane {
				t.Fatalf("lane %d contains index %d from lane %d", lane, i, Lane(i))
			}
			covered[i] = true
		}
	}
	if len(covered) != Tiles {
		t.Fatalf("lanes cover %d tiles, want %d", len(covered), Tiles)
	}

	if got := LaneIndices(0); got[0] != 15 || got[15] != 0 {
		t.Fatalf("lane 0 should be reversed, got %v", got)
	}
	if got := LaneIndices(1); got[0] != 16 || got[15] != 31 {
		t.Fatalf("lane 1 should be ascending, got %v", got)
	}
	if got := LaneIndices(3); got[0] != 63 || got[15] != 48 {
		t.Fatalf("lane 3 should be reversed, got %v", got)
	}
	if LaneIndices(4) != nil || LaneIndices(-1) != nil {
		t.Fatalf("out of range lanes should be nil")
	}
}

func TestLaneWindowWithCorner(t *testing.T) {
	cases := []struct {
		name  string
		lane  int
		first int
		last  int
	}{
		{name: "lane 0 closes on 16", lane: 0, first: 16, last: 0},
		{name: "lane 1 closes on 32", lane: 1, first: 16, last: 32},
		{name: "lane 2 closes on 48", lane: 2, first: 32, last: 48},
		{name: "lane 3 wraps to 0", lane: 3, first: 0, last: 48},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := LaneWindow(tc.lane, true)
			if len(w) != EdgeLen+1 {
				t.Fatalf("len: got %d", len(w))
			}
			if w[0] != tc.first || w[len(w)-1] != tc.last {
				t.Fatalf("window %v: want first %d last %d", w, tc.first, tc.last)
			}
			corners := 0
			for _, i := range w {
				if IsCorner(i) {
					corners++
				}
			}
			if corners != 2 {
				t.Fatalf("window %v: expected 2 corners, got %d", w, corners)
			}
		})
	}

	if !slices.Equal(LaneWindow(2, false), LaneIndices(2)) {
		t.Fatalf("LaneWindow without corner should equal LaneIndices")
	}
}
