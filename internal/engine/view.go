package engine

import (
	"github.com/felthq/cardroom/internal/deck"
)

// PlayerView is a seat as shown to one viewer. HoleCards is nil unless
// the viewer owns the seat or the hand is at showdown.
type PlayerView struct {
	ID        string      `json:"id"`
	Name      string      `json:"name"`
	Seat      int         `json:"seat"`
	Chips     int         `json:"chips"`
	Bet       int         `json:"bet"`
	TotalBet  int         `json:"totalBet"`
	Folded    bool        `json:"folded"`
	AllIn     bool        `json:"allIn"`
	Connected bool        `json:"connected"`
	SitOut    bool        `json:"sitOut"`
	BuyIns    int         `json:"buyIns"`
	HoleCards []deck.Card `json:"holeCards,omitempty"`
}

// ValidAction tells the seat to act what it may legally do, with raise
// bounds, so clients need not re-derive the betting rules.
type ValidAction struct {
	Action string `json:"action"`
	Min    int    `json:"min,omitempty"`
	Max    int    `json:"max,omitempty"`
}

// GameView is the redacted per-viewer snapshot of a room's table.
type GameView struct {
	RoomID       string        `json:"roomId"`
	Phase        string        `json:"phase"`
	Pot          int           `json:"pot"`
	TotalPot     int           `json:"totalPot"`
	Community    []deck.Card   `json:"community"`
	Dealer       int           `json:"dealer"`
	Current      int           `json:"current"`
	CallAmount   int           `json:"callAmount"`
	MinRaise     int           `json:"minRaise"`
	HandNum      int           `json:"handNum"`
	Players      []PlayerView  `json:"players"`
	Events       []Event       `json:"events"`
	ValidActions []ValidAction `json:"validActions,omitempty"`
}

// StateFor builds the view of the table for one viewer. Pass an empty
// viewer ID for a spectator view with every hand hidden. Hole cards are
// revealed only to their owner, except at showdown when every live hand
// is public.
func (g *Game) StateFor(viewerID string) *GameView {
	view := &GameView{
		RoomID:     g.RoomID,
		Phase:      g.Phase.String(),
		Pot:        g.Pot,
		TotalPot:   g.TotalPot(),
		Community:  append([]deck.Card(nil), g.Community...),
		Dealer:     g.Dealer,
		Current:    g.Current,
		CallAmount: g.CallAmount,
		MinRaise:   g.MinRaise,
		HandNum:    g.HandNum,
		Events:     g.log.Events(),
	}

	for _, p := range g.Players {
		pv := PlayerView{
			ID:        p.ID,
			Name:      p.Name,
			Seat:      p.Seat,
			Chips:     p.Chips,
			Bet:       p.Bet,
			TotalBet:  p.TotalBet,
			Folded:    p.Folded,
			AllIn:     p.AllIn,
			Connected: p.Connected,
			SitOut:    p.SitOut,
			BuyIns:    p.BuyIns,
		}
		showAll := g.Phase == Showdown && p.InHand()
		if (viewerID != "" && p.ID == viewerID) || showAll {
			pv.HoleCards = append([]deck.Card(nil), p.HoleCards...)
		}
		view.Players = append(view.Players, pv)
	}

	if current := g.CurrentPlayer(); current != nil && current.ID == viewerID {
		view.ValidActions = g.validActions(current)
	}

	return view
}

// validActions enumerates what the seat to act may do right now.
func (g *Game) validActions(p *Player) []ValidAction {
	actions := []ValidAction{{Action: Fold.String()}}
	toCall := g.CallAmount - p.Bet

	if toCall <= 0 {
		actions = append(actions, ValidAction{Action: Check.String()})
	} else {
		actions = append(actions, ValidAction{Action: Call.String(), Max: min(toCall, p.Chips)})
	}

	total := p.Chips + p.Bet
	if total > g.CallAmount {
		minRaise := g.CallAmount + g.MinRaise
		if minRaise > total {
			minRaise = total
		}
		actions = append(actions, ValidAction{Action: Raise.String(), Min: minRaise, Max: total})
	}
	if p.Chips > 0 {
		actions = append(actions, ValidAction{Action: AllIn.String(), Max: total})
	}
	return actions
}
