package engine

import (
	"github.com/felthq/cardroom/internal/deck"
)

// Settings are the per-hand overrides the host may pass to StartHand.
// Zero fields fall back to the room config.
type Settings struct {
	SmallBlind int
	BigBlind   int
}

// StartHand deals a new hand: fresh shuffled deck, button advanced, two
// hole cards per eligible seat, blinds posted and the first actor set.
// Ineligible seats (busted, disconnected or sitting out) are folded for
// the hand before the deal.
func (g *Game) StartHand(s Settings) (*Result, error) {
	if g.Phase.InHand() {
		return nil, ErrHandInProgress
	}

	count := 0
	for _, p := range g.Players {
		if eligible(p) {
			count++
		}
	}
	if count < 2 {
		return nil, ErrNotEnoughPlayers
	}

	smallBlind := s.SmallBlind
	if smallBlind <= 0 {
		smallBlind = g.cfg.SmallBlind
	}
	bigBlind := s.BigBlind
	if bigBlind <= 0 {
		bigBlind = g.cfg.BigBlind
	}

	g.HandNum++
	g.deck = deck.New(g.rng)
	g.Community = nil
	g.Pot = 0
	g.CallAmount = 0
	g.bigBlind = bigBlind
	g.acted = make(map[int]bool)

	for _, p := range g.Players {
		p.Bet = 0
		p.TotalBet = 0
		p.AllIn = false
		p.HoleCards = nil
		p.Folded = !eligible(p)
	}

	g.Dealer = g.nextSeat(g.Dealer+1, func(p *Player) bool { return !p.Folded })

	for _, p := range g.Players {
		if !p.Folded {
			p.HoleCards = g.deck.DealN(2)
		}
	}

	live := func(p *Player) bool { return !p.Folded }
	var sbSeat, bbSeat int
	if count == 2 {
		// Heads-up: the button posts the small blind and acts first.
		sbSeat = g.Dealer
		bbSeat = g.nextSeat(sbSeat+1, live)
	} else {
		sbSeat = g.nextSeat(g.Dealer+1, live)
		bbSeat = g.nextSeat(sbSeat+1, live)
	}

	g.postBlind(g.Players[sbSeat], smallBlind)
	g.postBlind(g.Players[bbSeat], bigBlind)
	g.CallAmount = bigBlind
	g.MinRaise = bigBlind

	g.Phase = Preflop
	g.log.Push(Event{Type: "hand_start", Amount: g.HandNum, Phase: g.Phase.String()})

	g.Current = g.nextSeat(bbSeat+1, func(p *Player) bool { return p.CanAct() })
	if g.Current == -1 {
		// Blinds put everyone all-in; run the board out.
		return g.advanceStreet(), nil
	}
	return &Result{Advance: AdvanceNextTurn}, nil
}

// postBlind commits a forced bet capped at the poster's stack. A partial
// post puts the seat all-in.
func (g *Game) postBlind(p *Player, amount int) {
	g.commit(p, min(amount, p.Chips))
	g.log.Push(Event{Type: "blind", Player: p.Name, Amount: p.Bet})
}

// commit moves n chips from the player's stack into their street bet.
func (g *Game) commit(p *Player, n int) {
	p.Chips -= n
	p.Bet += n
	p.TotalBet += n
	if p.Chips == 0 {
		p.AllIn = true
	}
}

// ApplyAction validates and applies one action for the seat to act, then
// reports how the hand advanced. A failed validation mutates nothing.
func (g *Game) ApplyAction(playerID string, action Action, amount int) (*Result, error) {
	p := g.CurrentPlayer()
	if p == nil || p.ID != playerID {
		return nil, ErrNotYourTurn
	}

	switch action {
	case Fold:
		p.Folded = true

	case Check:
		if p.Bet != g.CallAmount {
			return nil, ErrMustCallOrFold
		}

	case Call:
		g.commit(p, min(g.CallAmount-p.Bet, p.Chips))

	case Raise:
		// amount is the raiser's new total street bet.
		if amount <= g.CallAmount {
			return nil, ErrRaiseTooLow
		}
		if amount > p.Chips+p.Bet {
			return nil, ErrInsufficientChips
		}
		g.commit(p, amount-p.Bet)
		g.MinRaise = amount - g.CallAmount
		g.CallAmount = amount
		// Everyone gets to respond to a raise.
		g.acted = make(map[int]bool)

	case AllIn:
		target := p.Bet + p.Chips
		g.commit(p, p.Chips)
		if target > g.CallAmount {
			g.MinRaise = target - g.CallAmount
			g.CallAmount = target
			g.acted = make(map[int]bool)
		}

	default:
		return nil, ErrUnknownAction
	}

	g.acted[p.Seat] = true
	g.log.Push(Event{Type: "action", Player: p.Name, Amount: p.Bet, Phase: g.Phase.String(), Detail: action.String()})

	return g.resolve(), nil
}

// resolve decides what happens after a seat's turn ends: an uncontested
// win, the next actor, or the end of the street.
func (g *Game) resolve() *Result {
	var last *Player
	remaining := 0
	for _, p := range g.Players {
		if p.InHand() {
			last = p
			remaining++
		}
	}

	// Everyone else folded: the pot is won without a showdown and the
	// hole cards stay hidden.
	if remaining == 1 {
		g.collectBets()
		amount := g.Pot
		last.Chips += amount
		g.Pot = 0
		g.endHand()
		g.log.Push(Event{Type: "hand_over", Player: last.Name, Amount: amount})
		return &Result{
			Advance: AdvanceHandOver,
			Winners: []Winner{{PlayerID: last.ID, Name: last.Name, Seat: last.Seat, Amount: amount}},
		}
	}

	if next := g.findNextToAct(g.Current + 1); next != -1 {
		g.Current = next
		return &Result{Advance: AdvanceNextTurn}
	}

	return g.advanceStreet()
}

// advanceStreet closes the finished betting round: street bets are swept
// into the pot, the next community cards are dealt and the first eligible
// seat after the button acts. When no seat can act (everyone all-in) the
// remaining streets run out back to back; after the river the hand goes
// to showdown.
func (g *Game) advanceStreet() *Result {
	g.collectBets()

	for {
		if g.Phase == River {
			return g.showdown()
		}

		switch g.Phase {
		case Preflop:
			g.Phase = Flop
			g.Community = append(g.Community, g.deck.DealN(3)...)
		case Flop:
			g.Phase = Turn
			g.Community = append(g.Community, g.deck.DealN(1)...)
		case Turn:
			g.Phase = River
			g.Community = append(g.Community, g.deck.DealN(1)...)
		}
		g.log.Push(Event{Type: "street", Phase: g.Phase.String()})

		g.Current = g.nextSeat(g.Dealer+1, func(p *Player) bool { return p.CanAct() })
		if g.Current != -1 {
			return &Result{Advance: AdvanceNewStreet}
		}
	}
}

// collectBets sweeps all street bets into the pot and resets the street's
// betting state.
func (g *Game) collectBets() {
	for _, p := range g.Players {
		g.Pot += p.Bet
		p.Bet = 0
	}
	g.CallAmount = 0
	g.MinRaise = g.bigBlind
	g.acted = make(map[int]bool)
}

// endHand returns the table to the between-hands state.
func (g *Game) endHand() {
	g.Phase = Waiting
	g.Current = -1
	g.CallAmount = 0
	g.MinRaise = 0
}
