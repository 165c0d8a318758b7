package engine

import (
	"sort"

	"github.com/felthq/cardroom/internal/deck"
	"github.com/felthq/cardroom/internal/evaluator"
)

// showdown evaluates every live hand and pays the pot out. All-in stacks
// of different sizes split the pot into layered side pots: each layer is
// capped at one all-in level and only seats that contributed the full
// layer can win it. Ties split a layer in equal integer shares with the
// odd chips going to the earliest seats after the button.
// contender pairs a live seat with its evaluated best hand.
type contender struct {
	p    *Player
	hand evaluator.Hand
}

func (g *Game) showdown() *Result {
	g.Phase = Showdown

	var live []contender
	var revealed []RevealedHand
	for _, p := range g.Players {
		if !p.InHand() {
			continue
		}
		cards := make([]deck.Card, 0, 7)
		cards = append(cards, p.HoleCards...)
		cards = append(cards, g.Community...)
		hand := evaluator.BestOfSeven(cards)
		live = append(live, contender{p: p, hand: hand})
		revealed = append(revealed, RevealedHand{
			PlayerID:  p.ID,
			Seat:      p.Seat,
			HoleCards: p.HoleCards,
			HandDesc:  hand.String(),
		})
	}

	// Pot layers, one per distinct live commitment level.
	levelSet := make(map[int]bool)
	for _, c := range live {
		if c.p.TotalBet > 0 {
			levelSet[c.p.TotalBet] = true
		}
	}
	levels := make([]int, 0, len(levelSet))
	for level := range levelSet {
		levels = append(levels, level)
	}
	sort.Ints(levels)

	payouts := make(map[int]int)    // seat -> amount
	winDesc := make(map[int]string) // seat -> winning hand
	distributed := 0

	prev := 0
	var lastWinners []contender
	for _, level := range levels {
		amount := 0
		for _, p := range g.Players {
			amount += min(p.TotalBet, level) - min(p.TotalBet, prev)
		}
		prev = level
		if amount == 0 {
			continue
		}

		var winners []contender
		for _, c := range live {
			if c.p.TotalBet < level {
				continue
			}
			if len(winners) == 0 {
				winners = []contender{c}
				continue
			}
			switch c.hand.Compare(winners[0].hand) {
			case 1:
				winners = []contender{c}
			case 0:
				winners = append(winners, c)
			}
		}

		g.payLayer(winners, amount, payouts, winDesc)
		distributed += amount
		lastWinners = winners
	}

	// A folded seat can never have committed more than the biggest live
	// stack, but sweep any residue into the top layer to keep the chip
	// count exact.
	if leftover := g.Pot - distributed; leftover > 0 && len(lastWinners) > 0 {
		g.payLayer(lastWinners, leftover, payouts, winDesc)
	}

	g.Pot = 0
	g.endHand()

	winners := make([]Winner, 0, len(payouts))
	for _, c := range live {
		amount, ok := payouts[c.p.Seat]
		if !ok {
			continue
		}
		c.p.Chips += amount
		winners = append(winners, Winner{
			PlayerID: c.p.ID,
			Name:     c.p.Name,
			Seat:     c.p.Seat,
			Amount:   amount,
			HandDesc: winDesc[c.p.Seat],
		})
		g.log.Push(Event{Type: "win", Player: c.p.Name, Amount: amount, Detail: winDesc[c.p.Seat]})
	}
	sort.Slice(winners, func(i, j int) bool { return winners[i].Seat < winners[j].Seat })

	return &Result{Advance: AdvanceShowdown, Winners: winners, Revealed: revealed}
}

// payLayer splits one pot layer between the tied winners. The share is
// floored and the remainder chips go one each to the winners closest
// after the button, so no chip is ever lost to rounding.
func (g *Game) payLayer(winners []contender, amount int, payouts map[int]int, winDesc map[int]string) {
	if len(winners) == 0 {
		return
	}

	n := len(g.Players)
	sort.Slice(winners, func(i, j int) bool {
		di := ((winners[i].p.Seat-g.Dealer-1)%n + n) % n
		dj := ((winners[j].p.Seat-g.Dealer-1)%n + n) % n
		return di < dj
	})

	share := amount / len(winners)
	remainder := amount % len(winners)
	for i, w := range winners {
		pay := share
		if i < remainder {
			pay++
		}
		payouts[w.p.Seat] += pay
		winDesc[w.p.Seat] = w.hand.String()
	}
}
