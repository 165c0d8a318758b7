package engine

import (
	"math/rand"

	"github.com/felthq/cardroom/internal/deck"
)

// Defaults applied when the room config leaves a field unset.
const (
	DefaultSmallBlind    = 10
	DefaultBigBlind      = 20
	DefaultStartingStack = 1000
	DefaultMaxPlayers    = 9
	DefaultLogSize       = 64
)

// Config holds the per-room game parameters merged from the lobby/host.
type Config struct {
	SmallBlind    int
	BigBlind      int
	StartingStack int
	MaxPlayers    int
	MaxRebuys     int // 0 means no rebuys beyond the initial buy-in
	LogSize       int
}

func (c Config) withDefaults() Config {
	if c.SmallBlind <= 0 {
		c.SmallBlind = DefaultSmallBlind
	}
	if c.BigBlind <= 0 {
		c.BigBlind = DefaultBigBlind
	}
	if c.StartingStack <= 0 {
		c.StartingStack = DefaultStartingStack
	}
	if c.MaxPlayers <= 0 || c.MaxPlayers > DefaultMaxPlayers {
		c.MaxPlayers = DefaultMaxPlayers
	}
	if c.LogSize <= 0 {
		c.LogSize = DefaultLogSize
	}
	return c
}

// Game is the authoritative state of one room's table. It is a plain
// synchronous state machine: no goroutines, no clocks, no sockets. The
// caller must serialize mutating calls per room.
type Game struct {
	RoomID     string
	Players    []*Player // Seat order, fixed at join
	Community  []deck.Card
	Pot        int // Bets collected from completed streets
	Phase      Phase
	Dealer     int // Seat index of the button, -1 before the first hand
	Current    int // Seat to act, -1 if none
	CallAmount int // Highest total street bet
	MinRaise   int
	HandNum    int

	cfg      Config
	bigBlind int // Big blind of the hand in progress
	acted    map[int]bool
	deck     *deck.Deck
	rng      *rand.Rand
	log      *EventLog
}

// NewGame creates the game for a room. The RNG seeds every deck shuffle;
// a nil rng falls back to the shared math/rand source.
func NewGame(roomID string, cfg Config, rng *rand.Rand) *Game {
	cfg = cfg.withDefaults()
	return &Game{
		RoomID:  roomID,
		Phase:   Waiting,
		Dealer:  -1,
		Current: -1,
		cfg:     cfg,
		acted:   make(map[int]bool),
		rng:     rng,
		log:     NewEventLog(cfg.LogSize),
	}
}

// Config returns the room's game parameters.
func (g *Game) Config() Config {
	return g.cfg
}

// Events returns the retained table events, oldest first.
func (g *Game) Events() []Event {
	return g.log.Events()
}

// PlayerByID returns the seat with the given identity, or nil.
func (g *Game) PlayerByID(id string) *Player {
	for _, p := range g.Players {
		if p.ID == id {
			return p
		}
	}
	return nil
}

// CurrentPlayer returns the seat to act, or nil when no one is to act.
func (g *Game) CurrentPlayer() *Player {
	if g.Current < 0 || g.Current >= len(g.Players) {
		return nil
	}
	return g.Players[g.Current]
}

// AddPlayer seats a new player or reconnects a returning one. A returning
// identity keeps its seat, chips and cards; a connected identity cannot
// join twice.
func (g *Game) AddPlayer(id, name string, buyIn int) (*Player, error) {
	if p := g.PlayerByID(id); p != nil {
		if p.Connected {
			return nil, ErrAlreadySeated
		}
		p.Connected = true
		if name != "" {
			p.Name = name
		}
		g.log.Push(Event{Type: "reconnect", Player: p.Name})
		return p, nil
	}

	if len(g.Players) >= g.cfg.MaxPlayers {
		return nil, ErrTableFull
	}

	if buyIn <= 0 {
		buyIn = g.cfg.StartingStack
	}

	p := &Player{
		ID:        id,
		Name:      name,
		Seat:      len(g.Players),
		Chips:     buyIn,
		Connected: true,
		BuyIns:    1,
		// A mid-hand joiner has no cards, so InHand stays false until
		// the next deal.
		Folded: g.Phase.InHand(),
	}
	g.Players = append(g.Players, p)
	g.log.Push(Event{Type: "join", Player: p.Name, Amount: buyIn})
	return p, nil
}

// RemovePlayer marks the seat disconnected. The seat, its chips and its
// live cards are all retained so a reconnect can resume. If the
// disconnecting seat was due to act the turn moves on without folding
// them; an actual fold is the turn-timeout collaborator's call.
func (g *Game) RemovePlayer(id string) (*Result, error) {
	p := g.PlayerByID(id)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	p.Connected = false
	g.log.Push(Event{Type: "disconnect", Player: p.Name})

	if g.Phase.InHand() && g.Current == p.Seat {
		return g.resolve(), nil
	}
	return nil, nil
}

// ReconnectPlayer restores a disconnected seat.
func (g *Game) ReconnectPlayer(id string) (*Player, error) {
	p := g.PlayerByID(id)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	p.Connected = true
	g.log.Push(Event{Type: "reconnect", Player: p.Name})
	return p, nil
}

// SetSitOut toggles whether the seat is dealt into coming hands. It never
// affects the hand in progress.
func (g *Game) SetSitOut(id string, sitOut bool) error {
	p := g.PlayerByID(id)
	if p == nil {
		return ErrUnknownPlayer
	}
	p.SitOut = sitOut
	return nil
}

// Rebuy tops a busted stack back up to the starting stack between hands,
// bounded by the room's rebuy allowance.
func (g *Game) Rebuy(id string) (*Player, error) {
	p := g.PlayerByID(id)
	if p == nil {
		return nil, ErrUnknownPlayer
	}
	if p.InHand() && g.Phase.InHand() {
		return nil, ErrHandInProgress
	}
	if p.Chips > 0 || p.BuyIns > g.cfg.MaxRebuys {
		return nil, ErrRebuyNotAllowed
	}
	p.Chips = g.cfg.StartingStack
	p.BuyIns++
	g.log.Push(Event{Type: "rebuy", Player: p.Name, Amount: p.Chips})
	return p, nil
}

// Reset zeroes the game back to a brand-new table on an explicit new-game
// request: stacks return to the starting stack and the hand counter,
// button and log start over. Seats are kept.
func (g *Game) Reset() {
	g.Community = nil
	g.Pot = 0
	g.Phase = Waiting
	g.Dealer = -1
	g.Current = -1
	g.CallAmount = 0
	g.MinRaise = 0
	g.HandNum = 0
	g.acted = make(map[int]bool)
	g.deck = nil
	g.log = NewEventLog(g.cfg.LogSize)

	for _, p := range g.Players {
		p.Chips = g.cfg.StartingStack
		p.HoleCards = nil
		p.Bet = 0
		p.TotalBet = 0
		p.Folded = false
		p.AllIn = false
		p.BuyIns = 1
	}
}

// eligible reports whether a seat can be dealt into a new hand.
func eligible(p *Player) bool {
	return p.Chips > 0 && p.Connected && !p.SitOut
}

// nextSeat walks the seat order circularly starting at from and returns
// the first seat satisfying ok, or -1 after a full lap.
func (g *Game) nextSeat(from int, ok func(*Player) bool) int {
	n := len(g.Players)
	if n == 0 {
		return -1
	}
	for i := 0; i < n; i++ {
		seat := ((from+i)%n + n) % n
		if ok(g.Players[seat]) {
			return seat
		}
	}
	return -1
}

// findNextToAct returns the next seat from the given position that still
// owes a decision this street: it can act and either has not acted yet or
// has a street bet below the call amount. Returns -1 when the street is
// settled.
func (g *Game) findNextToAct(from int) int {
	return g.nextSeat(from, func(p *Player) bool {
		return p.CanAct() && (!g.acted[p.Seat] || p.Bet < g.CallAmount)
	})
}

// TotalPot is the collected pot plus the bets still sitting in front of
// the players this street.
func (g *Game) TotalPot() int {
	total := g.Pot
	for _, p := range g.Players {
		total += p.Bet
	}
	return total
}
