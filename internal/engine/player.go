package engine

import (
	"github.com/felthq/cardroom/internal/deck"
)

// Player is a seat at the table. A seat is created on first join and kept
// across disconnects; the ID is the stable identity a reconnect presents.
type Player struct {
	ID        string
	Name      string
	Seat      int // Fixed at join time; determines turn order
	Chips     int
	HoleCards []deck.Card
	Bet       int // Chips committed this street
	TotalBet  int // Chips committed this hand; sizes side pots
	Folded    bool
	AllIn     bool
	Connected bool
	SitOut    bool
	BuyIns    int
}

// InHand reports whether the seat still holds live cards this hand.
func (p *Player) InHand() bool {
	return !p.Folded && len(p.HoleCards) == 2
}

// CanAct reports whether the seat can take a turn. Folded and all-in
// players never act again in a hand; disconnected seats are skipped for
// turn order but keep their live cards.
func (p *Player) CanAct() bool {
	return p.InHand() && !p.AllIn && p.Connected
}
