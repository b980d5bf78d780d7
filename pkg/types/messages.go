package types

import "encoding/json"

// Server -> Client
//
//	{ "type": "GAME_STATE", "payload": <Snapshot> }
//
// Anything else is ignored by the client.
type InboundFrame struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload"`
}

const FrameGameState = "GAME_STATE"

// Client -> Server
//
//	{ "action": <ActionName>, "payload": <object> }
type OutboundFrame struct {
	Action  ActionName `json:"action"`
	Payload any        `json:"payload"`
}

type ActionName string

const (
	ActJoinGame           ActionName = "JOIN_GAME"
	ActRollOrder          ActionName = "ROLL_ORDER"
	ActStartGame          ActionName = "START_GAME"
	ActRollDice           ActionName = "ROLL_DICE"
	ActBuyProperty        ActionName = "BUY_PROPERTY"
	ActStartAuction       ActionName = "START_AUCTION"
	ActDrawCard           ActionName = "DRAW_CARD"
	ActEndTurn            ActionName = "END_TURN"
	ActCollectRent        ActionName = "COLLECT_RENT"
	ActPayRent            ActionName = "PAY_RENT"
	ActBid                ActionName = "BID"
	ActFinalizeAuction    ActionName = "FINALIZE_AUCTION"
	ActInitiateTrade      ActionName = "INITIATE_TRADE"
	ActAcceptTrade        ActionName = "ACCEPT_TRADE"
	ActRejectTrade        ActionName = "REJECT_TRADE"
	ActTakeLoan           ActionName = "TAKE_LOAN"
	ActPayLoan            ActionName = "PAY_LOAN"
	ActBuyBuilding        ActionName = "BUY_BUILDING"
	ActSellBuilding       ActionName = "SELL_BUILDING"
	ActMortgageProperty   ActionName = "MORTGAGE_PROPERTY"
	ActUnmortgageProperty ActionName = "UNMORTGAGE_PROPERTY"
	ActDeclareBankruptcy  ActionName = "DECLARE_BANKRUPTCY"
	ActUpdatePlayerConfig ActionName = "UPDATE_PLAYER_CONFIG"
)

// Empty is the `{}` payload.
type Empty struct{}

type PropertyPayload struct {
	PropertyID string `json:"property_id"`
}

// RentPayload charges the pending rent on a property to its debtor.
type RentPayload struct {
	PropertyID string `json:"property_id"`
	TargetID   string `json:"target_id"`
}

type AmountPayload struct {
	Amount int `json:"amount"`
}

type TradePayload struct {
	TargetID          string   `json:"target_id"`
	OfferProperties   []string `json:"offer_properties"`
	OfferCash         int      `json:"offer_cash"`
	RequestProperties []string `json:"request_properties"`
	RequestCash       int      `json:"request_cash"`
}

type PlayerConfigPayload struct {
	TokenColor string `json:"token_color"`
	TokenShape string `json:"token_shape"`
}
