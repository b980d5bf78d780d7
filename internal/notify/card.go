package notify

import (
	"sync"

	"github.com/DoyleJ11/board-client/internal/store"
	"github.com/DoyleJ11/board-client/pkg/types"
)

type cardKey struct {
	id   int
	desc string
}

// CardGate hides a drawn card once the local player dismisses it. The
// server owns the card; dismissal only affects local presentation and is
// forgotten when the server clears the card.
type CardGate struct {
	mu        sync.Mutex
	dismissed *cardKey
}

func (g *CardGate) Visible(snap *types.Snapshot) (*types.DrawnCard, bool) {
	if snap == nil || snap.DrawnCard == nil {
		return nil, false
	}
	g.mu.Lock()
	defer g.mu.Unlock()
	k := cardKey{id: snap.DrawnCard.ID, desc: snap.DrawnCard.Description}
	if g.dismissed != nil && *g.dismissed == k {
		return nil, false
	}
	return snap.DrawnCard, true
}

// Dismiss hides the current card. It reports false when there is none.
func (g *CardGate) Dismiss(snap *types.Snapshot) bool {
	if snap == nil || snap.DrawnCard == nil {
		return false
	}
	g.mu.Lock()
	g.dismissed = &cardKey{id: snap.DrawnCard.ID, desc: snap.DrawnCard.Description}
	g.mu.Unlock()
	return true
}

func (g *CardGate) Observe(snap *types.Snapshot) {
	if snap != nil && snap.DrawnCard != nil {
		return
	}
	g.mu.Lock()
	g.dismissed = nil
	g.mu.Unlock()
}

func (g *CardGate) Listener() store.Listener {
	return func(v store.View) { g.Observe(v.Snapshot) }
}
