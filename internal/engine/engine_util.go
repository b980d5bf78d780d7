package engine

import (
	"time"

	"github.com/DoyleJ11/board-client/pkg/types"
)

func ContainsAction(actions []Action, name types.ActionName) bool {
	for _, a := range actions {
		if a.Name == name {
			return true
		}
	}
	return false
}

// Remaining is the whole number of seconds left until end, never negative.
func Remaining(end, now time.Time) int {
	if end.IsZero() {
		return 0
	}
	d := end.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// NetWorth is balance plus the list price of every owned tile, minus the loan.
func NetWorth(s *types.Snapshot, userID string) int {
	p, ok := s.Player(userID)
	if !ok {
		return 0
	}
	worth := p.Balance - p.Loan
	for _, t := range s.Board {
		if owner, owned := s.OwnerOf(t.PropertyID); owned && owner == userID {
			worth += t.Price
		}
	}
	return worth
}

// BuildingCost is the price of the next building on t; the fifth is a hotel.
func BuildingCost(t types.Tile) int {
	if t.BuildingCount == types.HotelBuildingCount-1 && t.HotelCost > 0 {
		return t.HotelCost
	}
	return t.HouseCost
}

// UnmortgageCost falls back to the mortgage value (or half the price) plus 10%.
func UnmortgageCost(t types.Tile) int {
	if t.UnmortgageValue > 0 {
		return t.UnmortgageValue
	}
	mv := t.MortgageValue
	if mv == 0 {
		mv = t.Price / 2
	}
	return mv + mv/10
}

func groupOf(s *types.Snapshot, group string) []types.Tile {
	if group == "" {
		return nil
	}
	var out []types.Tile
	for _, t := range s.Board {
		if t.GroupIdentifier == group {
			out = append(out, t)
		}
	}
	return out
}
