package engine

import (
	"errors"
	"time"

	"github.com/DoyleJ11/board-client/pkg/types"
)

var ErrNotEligible = errors.New("action not eligible")
var ErrAmountOutOfRange = errors.New("amount out of range")
var ErrMissingProperty = errors.New("missing property id")

// Action is one thing the local player may do right now. PropertyID is set
// for property-scoped actions; amount bounds are set for amount-scoped ones
// (MaxAmount 0 means unbounded).
type Action struct {
	Name       types.ActionName `json:"action"`
	PropertyID string           `json:"property_id,omitempty"`
	TargetID   string           `json:"target_id,omitempty"`
	MinAmount  int              `json:"min_amount,omitempty"`
	MaxAmount  int              `json:"max_amount,omitempty"`
}

// Request is an action the caller wants to submit.
type Request struct {
	Name       types.ActionName
	PropertyID string
	Amount     int
}

// Resolve returns the actions available to userID without time-dependent
// rules (auction finalization is never offered).
func Resolve(s *types.Snapshot, userID string) []Action {
	return ResolveAt(s, userID, time.Time{})
}

// ResolveAt returns the ordered set of actions available to userID. A zero
// now skips time-dependent rules. It never mutates the snapshot.
func ResolveAt(s *types.Snapshot, userID string, now time.Time) []Action {
	me, ok := s.Player(userID)
	if !ok {
		return nil
	}

	var out []Action
	add := func(a Action) { out = append(out, a) }

	switch s.Status {
	case types.StatusWaiting:
		if CanStart(s, userID) {
			add(Action{Name: types.ActStartGame})
		}
		add(Action{Name: types.ActUpdatePlayerConfig})

	case types.StatusRollingOrder:
		if CanRollOrder(s, userID) {
			add(Action{Name: types.ActRollOrder})
		}

	case types.StatusActive:
		if IsMyTurn(s, userID) {
			out = append(out, turnActions(s, me)...)
		}
		out = append(out, holdingActions(s, me)...)
		add(Action{Name: types.ActTakeLoan, MinAmount: 1})
		if maxPay := min(me.Loan, me.Balance); me.Loan > 0 && maxPay > 0 {
			add(Action{Name: types.ActPayLoan, MinAmount: 1, MaxAmount: maxPay})
		}
		if me.Balance < 0 {
			add(Action{Name: types.ActDeclareBankruptcy})
		}
	}

	if r := s.PendingRent; r != nil && r.CreditorID == userID {
		add(Action{Name: types.ActCollectRent})
		if r.PropertyID != "" && r.TargetID != "" {
			add(Action{Name: types.ActPayRent, PropertyID: r.PropertyID, TargetID: r.TargetID})
		}
	}
	if CanBid(s) {
		add(Action{Name: types.ActBid, MinAmount: s.ActiveAuction.HighestBid + 1})
		if !now.IsZero() && Remaining(s.ActiveAuction.EndTime, now) == 0 {
			add(Action{Name: types.ActFinalizeAuction})
		}
	}
	if t := s.ActiveTrade; t == nil {
		add(Action{Name: types.ActInitiateTrade})
	} else if t.TargetID == userID {
		add(Action{Name: types.ActAcceptTrade})
		add(Action{Name: types.ActRejectTrade})
	}

	sortActions(out)
	return out
}

// turnActions covers the roll and the post-roll step on the local turn.
func turnActions(s *types.Snapshot, me types.Player) []Action {
	var out []Action
	if CanRoll(s, me.UserID) {
		out = append(out, Action{Name: types.ActRollDice})
	}
	if !HasRolled(s) {
		return out
	}

	tile, ok := s.TileAt(me.Position)
	switch {
	case ok && MustBuy(tile, s.PropertyOwnership):
		if me.Balance >= tile.Price {
			out = append(out, Action{Name: types.ActBuyProperty, PropertyID: tile.PropertyID})
		}
		out = append(out, Action{Name: types.ActStartAuction, PropertyID: tile.PropertyID})
	case ok && (tile.Type == types.TileChance || tile.Type == types.TileCommunity) && s.DrawnCard == nil:
		out = append(out, Action{Name: types.ActDrawCard})
	default:
		out = append(out, Action{Name: types.ActEndTurn})
	}
	return out
}

// holdingActions are the property-scoped actions over tiles the local player
// owns. Building changes need the local turn; mortgages do not.
func holdingActions(s *types.Snapshot, me types.Player) []Action {
	var out []Action
	myTurn := IsMyTurn(s, me.UserID)
	for _, t := range s.Board {
		if owner, ok := s.OwnerOf(t.PropertyID); !ok || owner != me.UserID {
			continue
		}
		if myTurn && canBuild(s, t, me) {
			out = append(out, Action{Name: types.ActBuyBuilding, PropertyID: t.PropertyID})
		}
		if myTurn && canSellBuilding(s, t) {
			out = append(out, Action{Name: types.ActSellBuilding, PropertyID: t.PropertyID})
		}
		if canMortgage(s, t, me.UserID) {
			out = append(out, Action{Name: types.ActMortgageProperty, PropertyID: t.PropertyID})
		}
		if t.IsMortgaged && me.Balance >= UnmortgageCost(t) {
			out = append(out, Action{Name: types.ActUnmortgageProperty, PropertyID: t.PropertyID})
		}
	}
	return out
}

// CanStart is true for the host (first listed player) of a waiting game with
// at least two players.
func CanStart(s *types.Snapshot, userID string) bool {
	if s == nil || s.Status != types.StatusWaiting || len(s.Players) < 2 {
		return false
	}
	return s.Players[0].UserID == userID
}

func CanRollOrder(s *types.Snapshot, userID string) bool {
	if s == nil || s.Status != types.StatusRollingOrder {
		return false
	}
	if _, rolled := s.OrderRolls[userID]; rolled {
		return false
	}
	return len(s.OrderRolls) < len(s.Players)
}

// CanRoll is true on the local turn before the first roll or after doubles.
func CanRoll(s *types.Snapshot, userID string) bool {
	if s == nil || s.Status != types.StatusActive || !IsMyTurn(s, userID) {
		return false
	}
	return !HasRolled(s) || IsDoubles(s.Dice)
}

// MustBuy reports whether a tile is purchasable and nobody owns it yet.
func MustBuy(t types.Tile, ownership map[string]string) bool {
	if !IsPurchasable(t) {
		return false
	}
	_, owned := ownership[t.PropertyID]
	return !owned
}

func IsPurchasable(t types.Tile) bool {
	return t.Type.Purchasable() && t.PropertyID != ""
}

func CanBid(s *types.Snapshot) bool {
	return s != nil && s.ActiveAuction != nil && s.ActiveAuction.IsActive
}

// Permit checks a request against a resolved action set.
func Permit(actions []Action, req Request) error {
	found := false
	for _, a := range actions {
		if a.Name != req.Name {
			continue
		}
		found = true
		if a.PropertyID != "" && a.PropertyID != req.PropertyID {
			continue
		}
		if a.MinAmount > 0 && req.Amount < a.MinAmount {
			return ErrAmountOutOfRange
		}
		if a.MaxAmount > 0 && req.Amount > a.MaxAmount {
			return ErrAmountOutOfRange
		}
		return nil
	}
	if found && req.PropertyID == "" {
		return ErrMissingProperty
	}
	return ErrNotEligible
}

func canBuild(s *types.Snapshot, t types.Tile, me types.Player) bool {
	if t.Type != types.TilePropertyType || t.GroupIdentifier == "" || t.IsMortgaged {
		return false
	}
	if t.BuildingCount >= types.HotelBuildingCount {
		return false
	}
	group := groupOf(s, t.GroupIdentifier)
	lowest := types.HotelBuildingCount
	for _, g := range group {
		if owner, ok := s.OwnerOf(g.PropertyID); !ok || owner != me.UserID || g.IsMortgaged {
			return false
		}
		lowest = min(lowest, g.BuildingCount)
	}
	if t.BuildingCount > lowest {
		return false
	}
	return me.Balance >= BuildingCost(t)
}

func canSellBuilding(s *types.Snapshot, t types.Tile) bool {
	if t.BuildingCount == 0 {
		return false
	}
	for _, g := range groupOf(s, t.GroupIdentifier) {
		if g.BuildingCount > t.BuildingCount {
			return false
		}
	}
	return true
}

func canMortgage(s *types.Snapshot, t types.Tile, userID string) bool {
	if t.IsMortgaged || t.BuildingCount > 0 {
		return false
	}
	if t.GroupIdentifier == "" {
		return true
	}
	for _, g := range groupOf(s, t.GroupIdentifier) {
		if owner, ok := s.OwnerOf(g.PropertyID); ok && owner == userID && g.BuildingCount > 0 {
			return false
		}
	}
	return true
}
