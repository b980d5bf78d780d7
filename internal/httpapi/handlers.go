package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/internal/board"
	"github.com/DoyleJ11/board-client/internal/engine"
	"github.com/DoyleJ11/board-client/internal/layout"
	"github.com/DoyleJ11/board-client/internal/session"
	"github.com/DoyleJ11/board-client/pkg/types"
)

type actionRequest struct {
	Action     types.ActionName `json:"action"`
	PropertyID string           `json:"property_id,omitempty"`
	Amount     int              `json:"amount,omitempty"`
	Payload    json.RawMessage  `json:"payload,omitempty"`
}

func Healthz(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
}

func GetState(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Session.View(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, v)
	}
}

func ListActions(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Session.View(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		actions := v.Actions
		if actions == nil {
			actions = []engine.Action{}
		}
		writeJSON(w, http.StatusOK, actions)
	}
}

func SubmitAction(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req actionRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Action == "" {
			http.Error(w, "bad json", http.StatusBadRequest)
			return
		}

		payload, err := decodePayload(req)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}

		err = d.Session.Act(r.Context(), engine.Request{
			Name:       req.Action,
			PropertyID: req.PropertyID,
			Amount:     req.Amount,
		}, payload)
		if err != nil {
			d.Log.Info("action rejected", zap.String("action", string(req.Action)), zap.Error(err))
			http.Error(w, err.Error(), statusFor(err))
			return
		}
		w.WriteHeader(http.StatusAccepted)
	}
}

func GetBoard(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		v, err := d.Session.View(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}

		var static []types.Tile
		if d.Board != nil {
			static, err = d.Board.Board(r.Context())
			if err != nil {
				d.Log.Warn("board layout unavailable, using snapshot board", zap.Error(err))
			}
		}
		views := layout.Overlay(static, v.Snapshot)

		if q := r.URL.Query().Get("lane"); q != "" {
			lane, err := strconv.Atoi(q)
			if err != nil || lane < 0 || lane >= board.Lanes {
				http.Error(w, "bad lane", http.StatusBadRequest)
				return
			}
			corner, _ := strconv.ParseBool(r.URL.Query().Get("corner"))
			views = layout.LaneView(views, lane, corner)
		}
		writeJSON(w, http.StatusOK, views)
	}
}

func DismissCard(d Deps) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ok, err := d.Session.DismissCard(r.Context())
		if err != nil {
			http.Error(w, err.Error(), http.StatusServiceUnavailable)
			return
		}
		writeJSON(w, http.StatusOK, struct {
			Dismissed bool `json:"dismissed"`
		}{Dismissed: ok})
	}
}

// decodePayload checks the free-form payloads; every other action builds its
// payload from property_id and amount.
func decodePayload(req actionRequest) (any, error) {
	if len(req.Payload) == 0 {
		return nil, nil
	}
	switch req.Action {
	case types.ActInitiateTrade:
		var p types.TradePayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, err
		}
		if p.TargetID == "" {
			return nil, errors.New("trade needs target_id")
		}
		if p.OfferProperties == nil {
			p.OfferProperties = []string{}
		}
		if p.RequestProperties == nil {
			p.RequestProperties = []string{}
		}
		return p, nil
	case types.ActUpdatePlayerConfig:
		var p types.PlayerConfigPayload
		if err := json.Unmarshal(req.Payload, &p); err != nil {
			return nil, err
		}
		return p, nil
	}
	return nil, nil
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, engine.ErrNotEligible), errors.Is(err, session.ErrNoSnapshot):
		return http.StatusConflict
	case errors.Is(err, engine.ErrAmountOutOfRange), errors.Is(err, engine.ErrMissingProperty),
		errors.Is(err, session.ErrMissingPayload), errors.Is(err, session.ErrSelfTrade):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrDisconnected), errors.Is(err, session.ErrStopped):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
