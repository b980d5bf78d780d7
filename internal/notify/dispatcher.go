package notify

import (
	"slices"
	"strings"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/pkg/types"
)

// Dispatch is one fired cue. Timestamp is zero for turn and trade cues.
type Dispatch struct {
	Cue       Cue    `json:"cue"`
	Rule      string `json:"rule"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Message   string `json:"message,omitempty"`
}

type Sink interface {
	Play(Dispatch)
}

type SinkFunc func(Dispatch)

func (f SinkFunc) Play(d Dispatch) { f(d) }

// LogSink writes every dispatch to the logger.
func LogSink(logger *zap.Logger) Sink {
	return SinkFunc(func(d Dispatch) {
		logger.Info("cue",
			zap.String("cue", string(d.Cue)),
			zap.String("rule", d.Rule),
			zap.Int64("timestamp", d.Timestamp),
		)
	})
}

// Dispatcher turns successive snapshots into exactly-once cues. The first
// snapshot it sees only seeds the processed set, so a rejoin never replays
// history.
type Dispatcher struct {
	mu     sync.Mutex
	sink   Sink
	log    *zap.Logger
	caser  cases.Caser
	seeded bool

	processed map[int64]struct{}
	lastTurn  string
	lastTrade *types.Trade
}

func NewDispatcher(sink Sink, logger *zap.Logger) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		sink:      sink,
		log:       logger,
		caser:     cases.Lower(language.Spanish),
		processed: make(map[int64]struct{}),
	}
}

// Listener adapts the dispatcher to store notifications.
func (d *Dispatcher) Listener() store.Listener {
	return func(v store.View) {
		if v.Snapshot == nil {
			return
		}
		var id types.Identity
		if v.Identity != nil {
			id = *v.Identity
		}
		d.Observe(v.Snapshot, id)
	}
}

// Observe diffs snap against everything seen so far, plays the resulting
// cues on the sink and returns them.
func (d *Dispatcher) Observe(snap *types.Snapshot, me types.Identity) []Dispatch {
	if snap == nil {
		return nil
	}
	d.mu.Lock()
	out := d.logDispatches(snap, me)
	if me.UserID != "" {
		out = append(out, d.turnDispatches(snap, me.UserID)...)
		out = append(out, d.tradeDispatches(snap, me.UserID)...)
	}
	d.mu.Unlock()

	for _, dp := range out {
		d.log.Debug("dispatch", zap.String("cue", string(dp.Cue)), zap.String("rule", dp.Rule))
		if d.sink != nil {
			d.sink.Play(dp)
		}
	}
	return out
}

func (d *Dispatcher) logDispatches(snap *types.Snapshot, me types.Identity) []Dispatch {
	if !d.seeded {
		for _, l := range snap.Logs {
			d.processed[l.Timestamp] = struct{}{}
		}
		d.seeded = true
		d.log.Debug("dispatcher seeded", zap.Int("logs", len(snap.Logs)))
		return nil
	}

	name := d.localName(snap, me)
	var out []Dispatch
	for _, l := range snap.Logs {
		if _, seen := d.processed[l.Timestamp]; seen {
			continue
		}
		d.processed[l.Timestamp] = struct{}{}

		e := Entry{Text: d.caser.String(l.Message), Type: l.Type}
		if r, ok := Classify(GlobalRules, e); ok {
			out = append(out, Dispatch{Cue: r.Cue, Rule: r.Name, Timestamp: l.Timestamp, Message: l.Message})
		}

		mine := me.UserID != "" && l.UserID == me.UserID
		if !mine && name != "" && strings.Contains(e.Text, name) {
			mine = true
		}
		if !mine {
			continue
		}
		if r, ok := Classify(LocalRules, e); ok {
			out = append(out, Dispatch{Cue: r.Cue, Rule: r.Name, Timestamp: l.Timestamp, Message: l.Message})
		}
	}
	return out
}

// localName is the lowercased display name of the local player, preferring
// the snapshot's roster over the identity record.
func (d *Dispatcher) localName(snap *types.Snapshot, me types.Identity) string {
	name := me.Username
	if p, ok := snap.Player(me.UserID); ok && p.Name != "" {
		name = p.Name
	}
	return d.caser.String(strings.TrimSpace(name))
}

func (d *Dispatcher) turnDispatches(snap *types.Snapshot, userID string) []Dispatch {
	cur := snap.CurrentTurnID
	if cur == d.lastTurn {
		return nil
	}
	prev := d.lastTurn
	d.lastTurn = cur

	switch {
	case cur == userID:
		return []Dispatch{{Cue: CueNotification, Rule: "your turn"}}
	case prev == userID:
		return []Dispatch{{Cue: CueFinish, Rule: "turn ended"}}
	}
	return nil
}

func (d *Dispatcher) tradeDispatches(snap *types.Snapshot, userID string) []Dispatch {
	t := snap.ActiveTrade
	if t == nil {
		d.lastTrade = nil
		return nil
	}
	if sameTrade(t, d.lastTrade) {
		return nil
	}
	cp := *t
	d.lastTrade = &cp
	if t.TargetID == userID {
		return []Dispatch{{Cue: CueDeal, Rule: "trade offer"}}
	}
	return nil
}

// sameTrade compares by id when both sides carry one, otherwise by value.
func sameTrade(a, b *types.Trade) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.ID != "" && b.ID != "" {
		return a.ID == b.ID
	}
	return a.OffererID == b.OffererID &&
		a.TargetID == b.TargetID &&
		a.OfferCash == b.OfferCash &&
		a.RequestCash == b.RequestCash &&
		slices.Equal(a.OfferProperties, b.OfferProperties) &&
		slices.Equal(a.RequestProperties, b.RequestProperties)
}
