package evaluator

import (
	"context"
	"math/rand"
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/felthq/cardroom/internal/deck"
)

// Equity estimates how often the hole cards win against the given number
// of random opponents, by Monte Carlo simulation over the unseen cards.
// Board may hold 0 to 5 known community cards. A tie counts as a
// fractional win split between the tied hands, so the result is the
// expected pot share in [0, 1].
func Equity(hole, board []deck.Card, opponents, samples int, rng *rand.Rand) float64 {
	if len(hole) != 2 || len(board) > 5 || opponents < 1 || samples < 1 {
		return 0
	}

	unseen := unseenCards(hole, board)
	need := opponents*2 + (5 - len(board))
	if len(unseen) < need {
		return 0
	}

	workers := runtime.NumCPU()
	if workers > 8 {
		workers = 8
	}
	if workers > samples {
		workers = samples
	}

	var mu sync.Mutex
	share := 0.0
	trials := 0

	g, _ := errgroup.WithContext(context.Background())
	for w := 0; w < workers; w++ {
		n := samples / workers
		if w < samples%workers {
			n++
		}
		// Independent RNG per worker to avoid contention.
		seed := rng.Int63()

		g.Go(func() error {
			s, count := simulate(hole, board, unseen, opponents, n, rand.New(rand.NewSource(seed)))
			mu.Lock()
			share += s
			trials += count
			mu.Unlock()
			return nil
		})
	}
	_ = g.Wait() // Workers never fail

	if trials == 0 {
		return 0
	}
	return share / float64(trials)
}

// simulate runs n random deals and returns the accumulated pot share.
func simulate(hole, board, unseen []deck.Card, opponents, n int, rng *rand.Rand) (float64, int) {
	pool := make([]deck.Card, len(unseen))
	copy(pool, unseen)

	need := opponents*2 + (5 - len(board))
	hero := make([]deck.Card, 0, 7)
	opp := make([]deck.Card, 0, 7)

	share := 0.0
	for i := 0; i < n; i++ {
		// Partial shuffle: the first `need` cards are this deal.
		for j := 0; j < need; j++ {
			k := j + rng.Intn(len(pool)-j)
			pool[j], pool[k] = pool[k], pool[j]
		}

		runout := pool[opponents*2 : need]
		hero = append(hero[:0], hole...)
		hero = append(hero, board...)
		hero = append(hero, runout...)
		heroScore := BestOfSeven(hero).Score()

		beaten := false
		tied := 0
		for o := 0; o < opponents; o++ {
			opp = append(opp[:0], pool[o*2], pool[o*2+1])
			opp = append(opp, board...)
			opp = append(opp, runout...)
			oppScore := BestOfSeven(opp).Score()
			if oppScore > heroScore {
				beaten = true
				break
			}
			if oppScore == heroScore {
				tied++
			}
		}

		if !beaten {
			share += 1.0 / float64(tied+1)
		}
	}
	return share, n
}

// unseenCards returns the full deck minus the known cards.
func unseenCards(hole, board []deck.Card) []deck.Card {
	used := make(map[deck.Card]bool, len(hole)+len(board))
	for _, c := range hole {
		used[c] = true
	}
	for _, c := range board {
		used[c] = true
	}

	unseen := make([]deck.Card, 0, 52)
	for suit := deck.Spades; suit <= deck.Clubs; suit++ {
		for rank := deck.Two; rank <= deck.Ace; rank++ {
			c := deck.Card{Suit: suit, Rank: rank}
			if !used[c] {
				unseen = append(unseen, c)
			}
		}
	}
	return unseen
}
