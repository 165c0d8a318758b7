package evaluator

import (
	"fmt"
	"strings"

	"github.com/felthq/cardroom/internal/deck"
)

// Category represents the ranking class of a poker hand
type Category int

const (
	HighCard Category = iota
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the string representation of a hand category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// Hand is an evaluated 5-card poker hand. Tiebreaks holds the ranks that
// decide ties within a category, most significant first (e.g. trip rank
// before kicker). The wheel straight carries a low ace (5-high tiebreak).
type Hand struct {
	Category  Category
	Tiebreaks []deck.Rank
	Cards     []deck.Card // The 5 cards that make up the hand
}

// Score collapses the hand into a single comparable value: a higher score
// always means a stronger hand. The category occupies the top bits and the
// five tie-break ranks 4 bits each below it, so comparing scores is
// identical to comparing category then tie-breaks lexicographically.
func (h Hand) Score() uint32 {
	score := uint32(h.Category) << 20
	for i := 0; i < 5; i++ {
		var r deck.Rank
		if i < len(h.Tiebreaks) {
			r = h.Tiebreaks[i]
		}
		score |= uint32(r) << (16 - 4*i)
	}
	return score
}

// Compare returns 1 if h is stronger than other, -1 if weaker, 0 on a tie.
func (h Hand) Compare(other Hand) int {
	a, b := h.Score(), other.Score()
	if a > b {
		return 1
	}
	if a < b {
		return -1
	}
	return 0
}

// String returns a string representation like "Full House [7♣ 7♠ 7♦ 2♠ 2♥]"
func (h Hand) String() string {
	cards := make([]string, len(h.Cards))
	for i, c := range h.Cards {
		cards[i] = c.String()
	}
	return fmt.Sprintf("%s [%s]", h.Category, strings.Join(cards, " "))
}
