package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/DoyleJ11/board-client/internal/engine"
	"github.com/DoyleJ11/board-client/internal/notify"
	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/internal/ws"
	"github.com/DoyleJ11/board-client/pkg/types"
)

var (
	ErrDisconnected   = errors.New("not connected")
	ErrNoSnapshot     = errors.New("no game state yet")
	ErrMissingPayload = errors.New("action needs a payload")
	ErrStopped        = errors.New("session stopped")
	ErrSelfTrade      = errors.New("cannot trade with yourself")
)

type Msg interface{ isSessionMsg() }

// Act submits one action after checking it against the current eligible set.
type Act struct {
	Req     engine.Request
	Payload any // required for INITIATE_TRADE and UPDATE_PLAYER_CONFIG
	Reply   chan error
}

func (Act) isSessionMsg() {}

type GetView struct {
	Reply chan View
}

func (GetView) isSessionMsg() {}

type DismissCard struct {
	Reply chan bool
}

func (DismissCard) isSessionMsg() {}

// Tick recomputes clock-driven state. The loop sends itself one per
// interval; tests send them directly.
type Tick struct {
	Now time.Time
}

func (Tick) isSessionMsg() {}

type Shutdown struct{}

func (Shutdown) isSessionMsg() {}

// View is what the local control surface renders.
type View struct {
	Version   int              `json:"version"`
	Connected bool             `json:"connected"`
	Identity  *types.Identity  `json:"identity,omitempty"`
	Snapshot  *types.Snapshot  `json:"state,omitempty"`
	Actions   []engine.Action  `json:"actions"`
	Remaining int              `json:"auction_remaining"`
	NetWorth  int              `json:"net_worth"`
	Card      *types.DrawnCard `json:"card,omitempty"`
	IsMyTurn  bool             `json:"is_my_turn"`
	Order     map[string]int   `json:"order_rolls,omitempty"`
}

// Sender is the outbound half of the connection.
type Sender interface {
	Send(action types.ActionName, payload any) error
}

type Options struct {
	Tick time.Duration // <= 0 disables the internal clock
	Now  func() time.Time
}

type Session struct {
	inbox  chan Msg
	store  *store.Store
	sender Sender
	cards  *notify.CardGate
	log    *zap.Logger
	opts   Options

	finalized string // auction already finalized by this client

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

func New(parent context.Context, st *store.Store, sender Sender, cards *notify.CardGate, opts Options, logger *zap.Logger) *Session {
	ctx, cancel := context.WithCancel(parent)
	if logger == nil {
		logger = zap.NewNop()
	}
	if cards == nil {
		cards = &notify.CardGate{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}

	s := &Session{
		inbox:  make(chan Msg, 64),
		store:  st,
		sender: sender,
		cards:  cards,
		log:    logger,
		opts:   opts,
		ctx:    ctx,
		cancel: cancel,
		done:   make(chan struct{}),
	}

	go s.loop()
	return s
}

func (s *Session) loop() {
	defer close(s.done)

	var tick <-chan time.Time
	if s.opts.Tick > 0 {
		t := time.NewTicker(s.opts.Tick)
		defer t.Stop()
		tick = t.C
	}

	for {
		select {
		case <-s.ctx.Done():
			return

		case now := <-tick:
			s.onTick(now)

		case m := <-s.inbox:
			switch msg := m.(type) {
			case Act:
				msg.Reply <- s.act(msg.Req, msg.Payload)

			case GetView:
				msg.Reply <- s.view(s.opts.Now())

			case DismissCard:
				snap, _ := s.store.Read()
				msg.Reply <- s.cards.Dismiss(snap)

			case Tick:
				s.onTick(msg.Now)

			case Shutdown:
				s.cancel()
				return
			}
		}
	}
}

func (s *Session) act(req engine.Request, payload any) error {
	snap, ok := s.store.Read()
	if !ok {
		return ErrNoSnapshot
	}
	id, _ := s.store.Identity()

	actions := engine.ResolveAt(snap, id.UserID, s.opts.Now())
	if err := engine.Permit(actions, req); err != nil {
		s.log.Info("action refused", zap.String("action", string(req.Name)), zap.Error(err))
		return fmt.Errorf("%s: %w", req.Name, err)
	}

	body, err := payloadFor(snap, req, payload)
	if err != nil {
		return err
	}
	if tp, ok := body.(types.TradePayload); ok && tp.TargetID == id.UserID {
		return fmt.Errorf("%s: %w", req.Name, ErrSelfTrade)
	}
	if err := s.sender.Send(req.Name, body); err != nil {
		if errors.Is(err, ws.ErrNotOpen) {
			return ErrDisconnected
		}
		return err
	}
	return nil
}

// onTick finalizes an expired auction, at most once per auction.
func (s *Session) onTick(now time.Time) {
	snap, ok := s.store.Read()
	if !ok || !engine.CanBid(snap) {
		return
	}
	a := snap.ActiveAuction
	if engine.Remaining(a.EndTime, now) > 0 {
		return
	}
	key := a.PropertyID + "|" + a.EndTime.UTC().Format(time.RFC3339Nano)
	if key == s.finalized {
		return
	}
	if err := s.sender.Send(types.ActFinalizeAuction, types.Empty{}); err != nil {
		s.log.Warn("finalize auction failed", zap.String("property_id", a.PropertyID), zap.Error(err))
		return
	}
	s.finalized = key
	s.log.Info("auction finalized", zap.String("property_id", a.PropertyID))
}

func (s *Session) view(now time.Time) View {
	sv := s.store.View()
	v := View{
		Version:   sv.Version,
		Connected: sv.Connected,
		Identity:  sv.Identity,
		Snapshot:  sv.Snapshot,
	}
	if sv.Snapshot == nil {
		return v
	}
	userID := ""
	if sv.Identity != nil {
		userID = sv.Identity.UserID
	}
	v.Actions = engine.ResolveAt(sv.Snapshot, userID, now)
	v.NetWorth = engine.NetWorth(sv.Snapshot, userID)
	v.IsMyTurn = engine.IsMyTurn(sv.Snapshot, userID)
	v.Order = sv.Snapshot.OrderRolls
	if a := sv.Snapshot.ActiveAuction; a != nil && a.IsActive {
		v.Remaining = engine.Remaining(a.EndTime, now)
	}
	if card, ok := s.cards.Visible(sv.Snapshot); ok {
		v.Card = card
	}
	return v
}

func payloadFor(snap *types.Snapshot, req engine.Request, payload any) (any, error) {
	switch req.Name {
	case types.ActPayRent:
		// eligibility guarantees a pending rent on this property
		return types.RentPayload{PropertyID: req.PropertyID, TargetID: snap.PendingRent.TargetID}, nil
	case types.ActBid, types.ActTakeLoan, types.ActPayLoan:
		return types.AmountPayload{Amount: req.Amount}, nil
	case types.ActBuyProperty, types.ActStartAuction, types.ActBuyBuilding, types.ActSellBuilding,
		types.ActMortgageProperty, types.ActUnmortgageProperty:
		return types.PropertyPayload{PropertyID: req.PropertyID}, nil
	case types.ActInitiateTrade, types.ActUpdatePlayerConfig:
		if payload == nil {
			return nil, fmt.Errorf("%s: %w", req.Name, ErrMissingPayload)
		}
		return payload, nil
	default:
		return types.Empty{}, nil
	}
}

// Inbox exposes the loop to transports and tests.
func (s *Session) Inbox() chan<- Msg { return s.inbox }

func (s *Session) Done() <-chan struct{} { return s.done }

func (s *Session) Act(ctx context.Context, req engine.Request, payload any) error {
	reply := make(chan error, 1)
	if err := s.post(ctx, Act{Req: req, Payload: payload, Reply: reply}); err != nil {
		return err
	}
	return await(ctx, s.done, reply)
}

func (s *Session) View(ctx context.Context) (View, error) {
	reply := make(chan View, 1)
	if err := s.post(ctx, GetView{Reply: reply}); err != nil {
		return View{}, err
	}
	select {
	case v := <-reply:
		return v, nil
	case <-s.done:
		return View{}, ErrStopped
	case <-ctx.Done():
		return View{}, ctx.Err()
	}
}

func (s *Session) DismissCard(ctx context.Context) (bool, error) {
	reply := make(chan bool, 1)
	if err := s.post(ctx, DismissCard{Reply: reply}); err != nil {
		return false, err
	}
	select {
	case ok := <-reply:
		return ok, nil
	case <-s.done:
		return false, ErrStopped
	case <-ctx.Done():
		return false, ctx.Err()
	}
}

func (s *Session) Close() {
	select {
	case s.inbox <- Shutdown{}:
	case <-s.done:
	}
	<-s.done
}

func (s *Session) post(ctx context.Context, m Msg) error {
	select {
	case s.inbox <- m:
		return nil
	case <-s.done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}

func await(ctx context.Context, done <-chan struct{}, reply <-chan error) error {
	select {
	case err := <-reply:
		return err
	case <-done:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
