package notify

import (
	"strings"

	"github.com/DoyleJ11/board-client/pkg/types"
)

// Cue is a named sound category.
type Cue string

const (
	CueBigRent      Cue = "big_rent"
	CueDeal         Cue = "deal"
	CueExplosion    Cue = "explosion"
	CueFail         Cue = "fail"
	CueGivenMoney   Cue = "given_money"
	CueMortgage     Cue = "hip"
	CueHotel        Cue = "hotel"
	CueHouse        Cue = "house"
	CueLose         Cue = "lose"
	CueNotification Cue = "notification"
	CuePolice       Cue = "police"
	CueFinish       Cue = "finish"
	CuePurchase     Cue = "purchase"
	CueAuctionWin   Cue = "subasta_win"
	CueWin          Cue = "win"
	CueWow          Cue = "wow"
)

// Entry is a log line prepared for matching; Text is already lowercased.
type Entry struct {
	Text string
	Type types.LogType
}

func (e Entry) has(subs ...string) bool {
	for _, s := range subs {
		if strings.Contains(e.Text, s) {
			return true
		}
	}
	return false
}

type Rule struct {
	Name  string
	Cue   Cue
	Match func(Entry) bool
}

// GlobalRules fire for every player's log lines. First match wins.
var GlobalRules = []Rule{
	{Name: "big rent", Cue: CueBigRent, Match: func(e Entry) bool {
		return e.has("pagó renta de hotel", "renta alta")
	}},
	{Name: "bankruptcy", Cue: CueExplosion, Match: func(e Entry) bool {
		return e.has("bancarrota")
	}},
	{Name: "mortgage", Cue: CueMortgage, Match: func(e Entry) bool {
		return e.has("hipotec")
	}},
	{Name: "hotel built", Cue: CueHotel, Match: func(e Entry) bool {
		return e.has("construyó un hotel")
	}},
	{Name: "house built", Cue: CueHouse, Match: func(e Entry) bool {
		return e.has("construyó una casa")
	}},
	{Name: "jailed", Cue: CuePolice, Match: func(e Entry) bool {
		return e.has("cárcel") && (e.Type == types.LogAlert || e.has("enviado"))
	}},
}

// LocalRules fire only for lines about the local player. First match wins.
var LocalRules = []Rule{
	{Name: "purchase", Cue: CuePurchase, Match: func(e Entry) bool {
		return e.has("compró")
	}},
	{Name: "auction won", Cue: CueAuctionWin, Match: func(e Entry) bool {
		return e.has("ganó la subasta")
	}},
	{Name: "bonus", Cue: CueWow, Match: func(e Entry) bool {
		return e.has("bonus $500")
	}},
	{Name: "won", Cue: CueWin, Match: func(e Entry) bool {
		return e.has("ganó", "recibió") && e.Type == types.LogSuccess
	}},
	{Name: "received", Cue: CueGivenMoney, Match: func(e Entry) bool {
		return e.has("ganó", "recibió")
	}},
	{Name: "lost", Cue: CueLose, Match: func(e Entry) bool {
		return (e.Type == types.LogAlert || e.has("pagó")) && e.has("no pagó", "perdió")
	}},
	{Name: "paid", Cue: CueFail, Match: func(e Entry) bool {
		return e.Type == types.LogAlert || e.has("pagó")
	}},
}

// Classify returns the first rule in rules matching e.
func Classify(rules []Rule, e Entry) (Rule, bool) {
	for _, r := range rules {
		if r.Match(e) {
			return r, true
		}
	}
	return Rule{}, false
}
