package evaluator

import (
	"sort"

	"github.com/felthq/cardroom/internal/deck"
)

// EvaluateFive ranks exactly five cards. It panics if given any other
// count; callers deal fixed-size hands so a short slice is a logic bug.
func EvaluateFive(cards []deck.Card) Hand {
	if len(cards) != 5 {
		panic("evaluator: EvaluateFive requires exactly 5 cards")
	}

	sorted := make([]deck.Card, 5)
	copy(sorted, cards)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Rank > sorted[j].Rank })

	flush := true
	for _, c := range sorted[1:] {
		if c.Suit != sorted[0].Suit {
			flush = false
			break
		}
	}

	straightHigh, straight := straightHigh(sorted)

	switch {
	case straight && flush && straightHigh == deck.Ace:
		return Hand{Category: RoyalFlush, Tiebreaks: []deck.Rank{deck.Ace}, Cards: sorted}
	case straight && flush:
		return Hand{Category: StraightFlush, Tiebreaks: []deck.Rank{straightHigh}, Cards: sorted}
	}

	groups := rankGroups(sorted)

	switch {
	case groups[0].count == 4:
		return Hand{
			Category:  FourOfAKind,
			Tiebreaks: []deck.Rank{groups[0].rank, groups[1].rank},
			Cards:     sorted,
		}
	case groups[0].count == 3 && groups[1].count == 2:
		return Hand{
			Category:  FullHouse,
			Tiebreaks: []deck.Rank{groups[0].rank, groups[1].rank},
			Cards:     sorted,
		}
	case flush:
		return Hand{Category: Flush, Tiebreaks: ranksOf(sorted), Cards: sorted}
	case straight:
		return Hand{Category: Straight, Tiebreaks: []deck.Rank{straightHigh}, Cards: sorted}
	case groups[0].count == 3:
		return Hand{
			Category:  ThreeOfAKind,
			Tiebreaks: []deck.Rank{groups[0].rank, groups[1].rank, groups[2].rank},
			Cards:     sorted,
		}
	case groups[0].count == 2 && groups[1].count == 2:
		return Hand{
			Category:  TwoPair,
			Tiebreaks: []deck.Rank{groups[0].rank, groups[1].rank, groups[2].rank},
			Cards:     sorted,
		}
	case groups[0].count == 2:
		return Hand{
			Category:  OnePair,
			Tiebreaks: []deck.Rank{groups[0].rank, groups[1].rank, groups[2].rank, groups[3].rank},
			Cards:     sorted,
		}
	default:
		return Hand{Category: HighCard, Tiebreaks: ranksOf(sorted), Cards: sorted}
	}
}

// BestOfSeven selects the strongest 5-card hand out of seven cards (two
// hole cards plus the board) by evaluating all C(7,5)=21 subsets.
func BestOfSeven(cards []deck.Card) Hand {
	if len(cards) != 7 {
		panic("evaluator: BestOfSeven requires exactly 7 cards")
	}

	var best Hand
	var have bool
	subset := make([]deck.Card, 0, 5)

	// Choosing 5 of 7 is dropping 2 of 7.
	for skipA := 0; skipA < 7; skipA++ {
		for skipB := skipA + 1; skipB < 7; skipB++ {
			subset = subset[:0]
			for i, c := range cards {
				if i != skipA && i != skipB {
					subset = append(subset, c)
				}
			}
			hand := EvaluateFive(subset)
			if !have || hand.Compare(best) > 0 {
				best = hand
				have = true
			}
		}
	}

	return best
}

type rankGroup struct {
	rank  deck.Rank
	count int
}

// rankGroups buckets the cards by rank, ordered by count then rank
// descending, so the deciding group always comes first.
func rankGroups(sorted []deck.Card) []rankGroup {
	counts := make(map[deck.Rank]int)
	for _, c := range sorted {
		counts[c.Rank]++
	}

	groups := make([]rankGroup, 0, len(counts))
	for rank, count := range counts {
		groups = append(groups, rankGroup{rank: rank, count: count})
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].count != groups[j].count {
			return groups[i].count > groups[j].count
		}
		return groups[i].rank > groups[j].rank
	})
	return groups
}

// straightHigh reports whether the (descending-sorted) cards form a
// straight and its high rank. The wheel A-2-3-4-5 counts the ace low, so
// its high card is the five.
func straightHigh(sorted []deck.Card) (deck.Rank, bool) {
	for i := 1; i < len(sorted); i++ {
		if sorted[i].Rank == sorted[i-1].Rank {
			return 0, false
		}
	}

	// Wheel: A,5,4,3,2 once sorted descending.
	if sorted[0].Rank == deck.Ace && sorted[1].Rank == deck.Five &&
		sorted[2].Rank == deck.Four && sorted[3].Rank == deck.Three &&
		sorted[4].Rank == deck.Two {
		return deck.Five, true
	}

	for i := 1; i < len(sorted); i++ {
		if sorted[i-1].Rank-sorted[i].Rank != 1 {
			return 0, false
		}
	}
	return sorted[0].Rank, true
}

func ranksOf(cards []deck.Card) []deck.Rank {
	ranks := make([]deck.Rank, len(cards))
	for i, c := range cards {
		ranks[i] = c.Rank
	}
	return ranks
}
