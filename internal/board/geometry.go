package board

import "slices"

// The board is a single clockwise loop of Tiles cells laid around the edge of
// a Size x Size grid. Rows and columns are 1-indexed; (Size, Size) is the
// bottom-right corner and holds index 0.
const (
	Size    = 17
	Tiles   = 64
	EdgeLen = 16
	Lanes   = 4
)

type Cell struct {
	Row int `json:"row"`
	Col int `json:"col"`
}

// GridOf maps a board index in [0, Tiles) to its grid cell. Indices outside
// the range are a caller error.
func GridOf(i int) Cell {
	switch {
	case i <= EdgeLen:
		// bottom edge, right to left
		return Cell{Row: Size, Col: Size - i}
	case i <= 2*EdgeLen:
		// left edge, bottom to top
		return Cell{Row: Size - (i - EdgeLen), Col: 1}
	case i <= 3*EdgeLen:
		// top edge, left to right
		return Cell{Row: 1, Col: 1 + (i - 2*EdgeLen)}
	default:
		// right edge, top to bottom
		return Cell{Row: 1 + (i - 3*EdgeLen), Col: Size}
	}
}

// IndexOf is the inverse of GridOf. Cells off the ring report false.
func IndexOf(c Cell) (int, bool) {
	if c.Row < 1 || c.Row > Size || c.Col < 1 || c.Col > Size {
		return 0, false
	}
	switch {
	case c.Row == Size:
		return Size - c.Col, true
	case c.Col == 1:
		return EdgeLen + (Size - c.Row), true
	case c.Row == 1:
		return 2*EdgeLen + (c.Col - 1), true
	case c.Col == Size:
		// (1, Size) is caught by the top edge above, so Row is in [2, Size-1]
		return 3*EdgeLen + (c.Row - 1), true
	}
	return 0, false
}

// Lane returns the 16-tile window an index belongs to.
func Lane(i int) int {
	return min(i/EdgeLen, Lanes-1)
}

// IsCorner reports whether i is one of the four shared corner tiles.
func IsCorner(i int) bool {
	return i%EdgeLen == 0
}

// LaneIndices returns the board indices rendered in a lane, in display
// order. Lanes 0 and 3 run in reverse index order so the view keeps a single
// clockwise direction when it jumps between lanes.
func LaneIndices(lane int) []int {
	return LaneWindow(lane, false)
}

// LaneWindow is LaneIndices, optionally extended with the corner that closes
// the lane (the first tile of the next lane, wrapping 64 to 0).
func LaneWindow(lane int, withCorner bool) []int {
	if lane < 0 || lane >= Lanes {
		return nil
	}
	n := EdgeLen
	if withCorner {
		n++
	}
	out := make([]int, 0, n)
	start := lane * EdgeLen
	for k := 0; k < n; k++ {
		out = append(out, (start+k)%Tiles)
	}
	if reversedLane(lane) {
		slices.Reverse(out)
	}
	return out
}

func reversedLane(lane int) bool {
	return lane == 0 || lane == Lanes-1
}
