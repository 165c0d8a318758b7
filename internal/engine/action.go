package engine

import "github.com/felthq/cardroom/internal/deck"

// Phase represents the stage of the current hand. It only moves forward
// within a hand and returns to Waiting after settlement.
type Phase int

const (
	Waiting Phase = iota
	Preflop
	Flop
	Turn
	River
	Showdown
)

func (p Phase) String() string {
	return [...]string{"waiting", "preflop", "flop", "turn", "river", "showdown"}[p]
}

// InHand reports whether a hand is currently being played.
func (p Phase) InHand() bool {
	return p != Waiting
}

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Raise
	AllIn
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "raise", "allin"}[a]
}

// ParseAction maps a wire action name to an Action.
func ParseAction(s string) (Action, error) {
	switch s {
	case "fold":
		return Fold, nil
	case "check":
		return Check, nil
	case "call":
		return Call, nil
	case "raise":
		return Raise, nil
	case "allin":
		return AllIn, nil
	default:
		return 0, ErrUnknownAction
	}
}

// Advance tells the caller what a successful mutation did to the hand, so
// the transport knows whether to prompt the next seat, fan out a new
// street, or announce winners.
type Advance string

const (
	AdvanceNextTurn  Advance = "next_turn"
	AdvanceNewStreet Advance = "new_street"
	AdvanceHandOver  Advance = "hand_over"
	AdvanceShowdown  Advance = "showdown"
)

// Result describes the outcome of a successful engine call.
type Result struct {
	Advance Advance  `json:"advance"`
	Winners []Winner `json:"winners,omitempty"`
	// Revealed carries the non-folded hole cards shown at showdown.
	Revealed []RevealedHand `json:"revealed,omitempty"`
}

// Winner records a pot (or pot share) paid out at the end of a hand.
type Winner struct {
	PlayerID string `json:"playerId"`
	Name     string `json:"name"`
	Seat     int    `json:"seat"`
	Amount   int    `json:"amount"`
	HandDesc string `json:"hand,omitempty"`
}

// RevealedHand is a seat's hole cards shown to the whole table at showdown.
type RevealedHand struct {
	PlayerID  string      `json:"playerId"`
	Seat      int         `json:"seat"`
	HoleCards []deck.Card `json:"holeCards"`
	HandDesc  string      `json:"hand"`
}
