package types

import "time"

// Status is the server-side phase of a game.
type Status string

const (
	StatusWaiting      Status = "WAITING"
	StatusRollingOrder Status = "ROLLING_ORDER"
	StatusActive       Status = "ACTIVE"
)

type TileType string

const (
	TilePropertyType TileType = "PROPERTY"
	TileRailroad     TileType = "RAILROAD"
	TileUtility      TileType = "UTILITY"
	TileChance       TileType = "CHANCE"
	TileCommunity    TileType = "COMMUNITY"
	TileTax          TileType = "TAX"
	TileCorner       TileType = "CORNER"
	TileJailVisit    TileType = "JAIL_VISIT"
	TileFreeParking  TileType = "FREE_PARKING"
	TileGoToJail     TileType = "GO_TO_JAIL"
	TileRest         TileType = "REST"
)

// Purchasable reports whether a tile of this type can be bought.
func (t TileType) Purchasable() bool {
	switch t {
	case TilePropertyType, TileRailroad, TileUtility:
		return true
	}
	return false
}

type LogType string

const (
	LogInfo    LogType = "INFO"
	LogAlert   LogType = "ALERT"
	LogSuccess LogType = "SUCCESS"
	LogDice    LogType = "DICE"
	LogAction  LogType = "ACTION"
)

// HotelBuildingCount is the building count that encodes a hotel.
const HotelBuildingCount = 5

// Snapshot is one complete server-authoritative description of a game.
// It is replaced wholesale on every push and must be treated as read-only
// once handed to the store.
type Snapshot struct {
	GameID            string            `json:"game_id"`
	Players           []Player          `json:"players"`
	Board             []Tile            `json:"board"`
	CurrentTurnID     string            `json:"current_turn_id"`
	Status            Status            `json:"status"`
	Dice              [2]int            `json:"dice"`
	LastAction        string            `json:"last_action,omitempty"`
	PropertyOwnership map[string]string `json:"property_ownership"` // propertyID -> userID; absent key means unowned
	Logs              []LogEntry        `json:"logs"`
	TurnOrder         []string          `json:"turn_order,omitempty"`
	OrderRolls        map[string]int    `json:"order_rolls,omitempty"`

	ActiveAuction *Auction     `json:"active_auction,omitempty"`
	ActiveTrade   *Trade       `json:"active_trade,omitempty"`
	DrawnCard     *DrawnCard   `json:"drawn_card,omitempty"`
	PendingRent   *PendingRent `json:"pending_rent,omitempty"`
}

type Player struct {
	UserID     string `json:"user_id"`
	Name       string `json:"name"`
	Balance    int    `json:"balance"`
	Position   int    `json:"position"`
	TokenColor string `json:"token_color,omitempty"`
	TokenShape string `json:"token_shape,omitempty"`
	Loan       int    `json:"loan"`
	InJail     bool   `json:"in_jail"`
	IsActive   bool   `json:"is_active"`
}

type Tile struct {
	ID              int      `json:"id"`
	Type            TileType `json:"type"`
	Name            string   `json:"name"`
	PropertyID      string   `json:"property_id,omitempty"`
	GroupIdentifier string   `json:"group_identifier,omitempty"`
	Price           int      `json:"price,omitempty"`
	RentBase        int      `json:"rent_base,omitempty"`
	Rent1House      int      `json:"rent_1_house,omitempty"`
	Rent2House      int      `json:"rent_2_house,omitempty"`
	Rent3House      int      `json:"rent_3_house,omitempty"`
	Rent4House      int      `json:"rent_4_house,omitempty"`
	RentHotel       int      `json:"rent_hotel,omitempty"`
	HouseCost       int      `json:"house_cost,omitempty"`
	HotelCost       int      `json:"hotel_cost,omitempty"`
	MortgageValue   int      `json:"mortgage_value,omitempty"`
	UnmortgageValue int      `json:"unmortgage_value,omitempty"`
	BuildingCount   int      `json:"building_count"` // 0-4 houses, 5 = hotel
	IsMortgaged     bool     `json:"is_mortgaged"`
}

// Rent returns the rent tier for the current building count.
func (t Tile) Rent() int {
	switch t.BuildingCount {
	case 1:
		return t.Rent1House
	case 2:
		return t.Rent2House
	case 3:
		return t.Rent3House
	case 4:
		return t.Rent4House
	case HotelBuildingCount:
		return t.RentHotel
	default:
		return t.RentBase
	}
}

type LogEntry struct {
	Timestamp int64   `json:"timestamp"` // unix seconds, also the dedup key
	Message   string  `json:"message"`
	Type      LogType `json:"type"`
	TileID    *int    `json:"tile_id,omitempty"`
	UserID    string  `json:"user_id,omitempty"`
}

type Auction struct {
	PropertyID string    `json:"property_id"`
	EndTime    time.Time `json:"end_time"`
	HighestBid int       `json:"highest_bid"`
	BidderID   string    `json:"bidder_id,omitempty"`
	BidderName string    `json:"bidder_name,omitempty"`
	IsActive   bool      `json:"is_active"`
}

type Trade struct {
	ID                string   `json:"id,omitempty"`
	OffererID         string   `json:"offerer_id"`
	TargetID          string   `json:"target_id"`
	OfferProperties   []string `json:"offer_properties"`
	OfferCash         int      `json:"offer_cash"`
	RequestProperties []string `json:"request_properties"`
	RequestCash       int      `json:"request_cash"`
	Status            string   `json:"status,omitempty"`
}

type DrawnCard struct {
	ID          int    `json:"id"`
	Type        string `json:"type"`
	Title       string `json:"title,omitempty"`
	Description string `json:"description"`
}

type PendingRent struct {
	CreditorID string `json:"creditor_id"`
	TargetID   string `json:"target_id,omitempty"`
	PropertyID string `json:"property_id,omitempty"`
	Amount     int    `json:"amount"`
}

// Identity is the local user as reported by the identity collaborator.
type Identity struct {
	UserID   string `json:"user_id"`
	Username string `json:"username,omitempty"`
}

// Player looks up a player by user id.
func (s *Snapshot) Player(userID string) (Player, bool) {
	if s == nil {
		return Player{}, false
	}
	for _, p := range s.Players {
		if p.UserID == userID {
			return p, true
		}
	}
	return Player{}, false
}

// TileAt returns the tile with the given board id.
func (s *Snapshot) TileAt(id int) (Tile, bool) {
	if s == nil {
		return Tile{}, false
	}
	// board is ordered by id; fall back to a scan if the server sent a sparse list
	if id >= 0 && id < len(s.Board) && s.Board[id].ID == id {
		return s.Board[id], true
	}
	for _, t := range s.Board {
		if t.ID == id {
			return t, true
		}
	}
	return Tile{}, false
}

// OwnerOf returns the owner of a property and whether it is owned at all.
func (s *Snapshot) OwnerOf(propertyID string) (string, bool) {
	if s == nil || propertyID == "" {
		return "", false
	}
	owner, ok := s.PropertyOwnership[propertyID]
	return owner, ok
}
