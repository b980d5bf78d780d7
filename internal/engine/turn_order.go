package engine

import (
	"slices"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// ActionOrder is the display order of resolved actions: the turn flow first,
// then property management, then sub-interactions and finance.
var ActionOrder = []types.ActionName{
	// Lobby
	types.ActStartGame,
	types.ActUpdatePlayerConfig,
	types.ActRollOrder,
	// Turn
	types.ActRollDice,
	types.ActBuyProperty,
	types.ActStartAuction,
	types.ActDrawCard,
	types.ActEndTurn,
	// Holdings
	types.ActBuyBuilding,
	types.ActSellBuilding,
	types.ActMortgageProperty,
	types.ActUnmortgageProperty,
	// Sub-interactions
	types.ActCollectRent,
	types.ActPayRent,
	types.ActBid,
	types.ActFinalizeAuction,
	types.ActAcceptTrade,
	types.ActRejectTrade,
	types.ActInitiateTrade,
	// Finance
	types.ActTakeLoan,
	types.ActPayLoan,
	types.ActDeclareBankruptcy,
}

func rank(name types.ActionName) int {
	if i := slices.Index(ActionOrder, name); i >= 0 {
		return i
	}
	return len(ActionOrder)
}

// sortActions orders by ActionOrder; property-scoped actions keep board order.
func sortActions(actions []Action) {
	slices.SortStableFunc(actions, func(a, b Action) int {
		return rank(a.Name) - rank(b.Name)
	})
}

func IsMyTurn(s *types.Snapshot, userID string) bool {
	return s != nil && userID != "" && s.CurrentTurnID == userID
}

// HasRolled treats [0,0] as the server's "not rolled yet" marker.
func HasRolled(s *types.Snapshot) bool {
	return s != nil && s.Dice != [2]int{0, 0}
}

func IsDoubles(d [2]int) bool {
	return d[0] != 0 && d[0] == d[1]
}
