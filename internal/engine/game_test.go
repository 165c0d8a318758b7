package engine

import (
	"errors"
	"fmt"
	"math/rand"
	"testing"
)

func newTestGame(t *testing.T, seats int, stack int) *Game {
	t.Helper()
	g := NewGame("room-1", Config{
		SmallBlind:    25,
		BigBlind:      50,
		StartingStack: stack,
	}, rand.New(rand.NewSource(1)))
	for i := 0; i < seats; i++ {
		if _, err := g.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), stack); err != nil {
			t.Fatalf("AddPlayer: %v", err)
		}
	}
	return g
}

// totalChips is the conserved quantity within a hand: stacks plus street
// bets plus the collected pot.
func totalChips(g *Game) int {
	total := g.Pot
	for _, p := range g.Players {
		total += p.Chips + p.Bet
	}
	return total
}

func TestAddPlayerLifecycle(t *testing.T) {
	g := NewGame("room-1", Config{}, nil)

	p, err := g.AddPlayer("alice", "Alice", 500)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if p.Seat != 0 || p.Chips != 500 || !p.Connected {
		t.Errorf("unexpected seat state: %+v", p)
	}

	// Joining again while connected is rejected.
	if _, err := g.AddPlayer("alice", "Alice", 500); !errors.Is(err, ErrAlreadySeated) {
		t.Errorf("expected ErrAlreadySeated, got %v", err)
	}

	// Disconnect keeps the seat and chips.
	if _, err := g.RemovePlayer("alice"); err != nil {
		t.Fatalf("RemovePlayer: %v", err)
	}
	if p.Connected {
		t.Error("expected seat to be disconnected")
	}
	if p.Chips != 500 {
		t.Errorf("disconnect must not forfeit chips, got %d", p.Chips)
	}

	// Re-join with the same identity reconnects instead of reseating.
	p2, err := g.AddPlayer("alice", "Alice", 9999)
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if p2 != p {
		t.Error("expected the original seat back")
	}
	if p2.Chips != 500 {
		t.Errorf("reconnect must not touch chips, got %d", p2.Chips)
	}
}

func TestAddPlayerDefaultStack(t *testing.T) {
	g := NewGame("room-1", Config{StartingStack: 750}, nil)
	p, err := g.AddPlayer("bob", "Bob", 0)
	if err != nil {
		t.Fatalf("AddPlayer: %v", err)
	}
	if p.Chips != 750 {
		t.Errorf("expected configured default stack 750, got %d", p.Chips)
	}
}

func TestTableFull(t *testing.T) {
	g := newTestGame(t, 9, 1000)
	if _, err := g.AddPlayer("extra", "Extra", 1000); !errors.Is(err, ErrTableFull) {
		t.Errorf("expected ErrTableFull, got %v", err)
	}
}

func TestStartHandRequiresTwoEligible(t *testing.T) {
	g := newTestGame(t, 2, 1000)
	if _, err := g.RemovePlayer("p1"); err != nil {
		t.Fatal(err)
	}
	if _, err := g.StartHand(Settings{}); !errors.Is(err, ErrNotEnoughPlayers) {
		t.Errorf("expected ErrNotEnoughPlayers, got %v", err)
	}
}

func TestStartHandBlindsAndFirstActor(t *testing.T) {
	g := newTestGame(t, 3, 1500)

	res, err := g.StartHand(Settings{SmallBlind: 25, BigBlind: 50})
	if err != nil {
		t.Fatalf("StartHand: %v", err)
	}
	if res.Advance != AdvanceNextTurn {
		t.Errorf("expected next_turn, got %s", res.Advance)
	}
	if g.Phase != Preflop {
		t.Errorf("expected preflop, got %s", g.Phase)
	}
	if g.CallAmount != 50 {
		t.Errorf("expected call amount 50, got %d", g.CallAmount)
	}

	// Dealer 0, SB 1, BB 2, so seat 0 is first to act facing 50.
	if g.Dealer != 0 {
		t.Fatalf("expected dealer seat 0, got %d", g.Dealer)
	}
	if g.Players[1].Bet != 25 || g.Players[2].Bet != 50 {
		t.Errorf("blinds not posted: sb=%d bb=%d", g.Players[1].Bet, g.Players[2].Bet)
	}
	if g.Current != 0 {
		t.Errorf("expected seat 0 to act, got %d", g.Current)
	}

	for _, p := range g.Players {
		if len(p.HoleCards) != 2 {
			t.Errorf("seat %d: expected 2 hole cards, got %d", p.Seat, len(p.HoleCards))
		}
	}
}

func TestCallAroundReachesFlop(t *testing.T) {
	g := newTestGame(t, 3, 1500)
	if _, err := g.StartHand(Settings{SmallBlind: 25, BigBlind: 50}); err != nil {
		t.Fatal(err)
	}
	before := totalChips(g)

	res, err := g.ApplyAction("p0", Call, 0)
	if err != nil || res.Advance != AdvanceNextTurn {
		t.Fatalf("p0 call: res=%v err=%v", res, err)
	}
	res, err = g.ApplyAction("p1", Call, 0)
	if err != nil || res.Advance != AdvanceNextTurn {
		t.Fatalf("p1 call: res=%v err=%v", res, err)
	}

	// Big blind has the option even with all bets matched.
	res, err = g.ApplyAction("p2", Check, 0)
	if err != nil {
		t.Fatalf("bb check: %v", err)
	}
	if res.Advance != AdvanceNewStreet {
		t.Fatalf("expected new_street after bb check, got %s", res.Advance)
	}

	if g.Phase != Flop {
		t.Errorf("expected flop, got %s", g.Phase)
	}
	if len(g.Community) != 3 {
		t.Errorf("expected 3 community cards, got %d", len(g.Community))
	}
	if g.CallAmount != 0 {
		t.Errorf("expected call amount reset to 0, got %d", g.CallAmount)
	}
	if g.Pot != 150 {
		t.Errorf("expected pot 150, got %d", g.Pot)
	}
	// First to act postflop is the seat after the button.
	if g.Current != 1 {
		t.Errorf("expected seat 1 first postflop, got %d", g.Current)
	}
	if got := totalChips(g); got != before {
		t.Errorf("chips not conserved: %d != %d", got, before)
	}
}

func TestFoldToOneEndsHandImmediately(t *testing.T) {
	g := newTestGame(t, 2, 1000)
	if _, err := g.StartHand(Settings{SmallBlind: 25, BigBlind: 50}); err != nil {
		t.Fatal(err)
	}

	// Heads-up: the button posts the small blind and acts first.
	button := g.Dealer
	other := 1 - button
	if g.Current != button {
		t.Fatalf("expected button %d to act first, got %d", button, g.Current)
	}

	res, err := g.ApplyAction(g.Players[button].ID, Fold, 0)
	if err != nil {
		t.Fatalf("fold: %v", err)
	}
	if res.Advance != AdvanceHandOver {
		t.Fatalf("expected hand_over, got %s", res.Advance)
	}
	if len(res.Winners) != 1 || res.Winners[0].Seat != other {
		t.Fatalf("unexpected winners: %+v", res.Winners)
	}
	// Winner collects both blinds: their stack nets the folder's small blind.
	if g.Players[other].Chips != 1025 {
		t.Errorf("expected winner stack 1025, got %d", g.Players[other].Chips)
	}
	if g.Phase != Waiting {
		t.Errorf("expected waiting, got %s", g.Phase)
	}
	if g.Pot != 0 {
		t.Errorf("expected empty pot, got %d", g.Pot)
	}
}

func TestActionValidation(t *testing.T) {
	g := newTestGame(t, 3, 1500)
	if _, err := g.StartHand(Settings{SmallBlind: 25, BigBlind: 50}); err != nil {
		t.Fatal(err)
	}

	before := totalChips(g)
	chips := g.Players[0].Chips

	// Out of turn.
	if _, err := g.ApplyAction("p1", Call, 0); !errors.Is(err, ErrNotYourTurn) {
		t.Errorf("expected ErrNotYourTurn, got %v", err)
	}
	// Check while facing a bet.
	if _, err := g.ApplyAction("p0", Check, 0); !errors.Is(err, ErrMustCallOrFold) {
		t.Errorf("expected ErrMustCallOrFold, got %v", err)
	}
	// Raise not exceeding the call amount, including malformed negatives.
	if _, err := g.ApplyAction("p0", Raise, 50); !errors.Is(err, ErrRaiseTooLow) {
		t.Errorf("expected ErrRaiseTooLow, got %v", err)
	}
	if _, err := g.ApplyAction("p0", Raise, -10); !errors.Is(err, ErrRaiseTooLow) {
		t.Errorf("expected ErrRaiseTooLow for negative raise, got %v", err)
	}
	// Raise beyond the stack.
	if _, err := g.ApplyAction("p0", Raise, 2000); !errors.Is(err, ErrInsufficientChips) {
		t.Errorf("expected ErrInsufficientChips, got %v", err)
	}

	// Failed validations must leave the state untouched.
	if g.Players[0].Chips != chips || g.Current != 0 || totalChips(g) != before {
		t.Error("failed action mutated game state")
	}

	if _, err := ParseAction("splash"); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("expected ErrUnknownAction, got %v", err)
	}
}

func TestRaiseReopensAction(t *testing.T) {
	g := newTestGame(t, 3, 1500)
	if _, err := g.StartHand(Settings{SmallBlind: 25, BigBlind: 50}); err != nil {
		t.Fatal(err)
	}

	if _, err := g.ApplyAction("p0", Call, 0); err != nil {
		t.Fatal(err)
	}
	res, err := g.ApplyAction("p1", Raise, 150)
	if err != nil {
		t.Fatalf("raise: %v", err)
	}
	if res.Advance != AdvanceNextTurn {
		t.Fatalf("expected next_turn, got %s", res.Advance)
	}
	if g.CallAmount != 150 {
		t.Errorf("expected call amount 150, got %d", g.CallAmount)
	}
	if g.MinRaise != 100 {
		t.Errorf("expected min raise 100, got %d", g.MinRaise)
	}

	// p2 and p0 must both get to respond before the street ends.
	if _, err := g.ApplyAction("p2", Call, 0); err != nil {
		t.Fatal(err)
	}
	if g.Phase != Preflop {
		t.Fatalf("street ended before the original caller responded")
	}
	res, err = g.ApplyAction("p0", Call, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Advance != AdvanceNewStreet || g.Phase != Flop {
		t.Errorf("expected flop after everyone called the raise, got %s/%s", res.Advance, g.Phase)
	}
	if g.Pot != 450 {
		t.Errorf("expected pot 450, got %d", g.Pot)
	}
}

func TestShortAllInIsNotAReopen(t *testing.T) {
	g := NewGame("room-1", Config{SmallBlind: 25, BigBlind: 50}, rand.New(rand.NewSource(3)))
	for i, stack := range []int{1000, 1000, 80} {
		if _, err := g.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), stack); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.StartHand(Settings{}); err != nil {
		t.Fatal(err)
	}

	// Seat 2 posted the 50 big blind from an 80 stack; seat 0 raises to
	// 200 and seat 2 shoves for less than a full raise on top.
	if _, err := g.ApplyAction("p0", Raise, 200); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ApplyAction("p1", Call, 0); err != nil {
		t.Fatal(err)
	}
	res, err := g.ApplyAction("p2", AllIn, 0)
	if err != nil {
		t.Fatal(err)
	}
	if !g.Players[2].AllIn || g.Players[2].Chips != 0 {
		t.Fatalf("seat 2 should be all-in: %+v", g.Players[2])
	}
	// 80 total does not beat the 200 call amount, so the street closes
	// instead of reopening action.
	if g.CallAmount != 200 {
		t.Errorf("short all-in must not move the call amount, got %d", g.CallAmount)
	}
	if res.Advance != AdvanceNewStreet {
		t.Errorf("expected new_street, got %s", res.Advance)
	}
}

func TestDisconnectedSeatIsSkippedForTurnOrder(t *testing.T) {
	g := newTestGame(t, 3, 1500)
	if _, err := g.StartHand(Settings{}); err != nil {
		t.Fatal(err)
	}

	// Seat 0 is to act and drops. The turn must move on without folding
	// their hand.
	res, err := g.RemovePlayer("p0")
	if err != nil {
		t.Fatal(err)
	}
	if res == nil || res.Advance != AdvanceNextTurn {
		t.Fatalf("expected next_turn after disconnect, got %+v", res)
	}
	if g.Current != 1 {
		t.Errorf("expected seat 1 to act, got %d", g.Current)
	}
	if g.Players[0].Folded {
		t.Error("disconnect must not fold the hand")
	}
	if len(g.Players[0].HoleCards) != 2 {
		t.Error("disconnect must keep the live cards")
	}
}

func TestStartHandWhileHandInProgress(t *testing.T) {
	g := newTestGame(t, 2, 1000)
	if _, err := g.StartHand(Settings{}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.StartHand(Settings{}); !errors.Is(err, ErrHandInProgress) {
		t.Errorf("expected ErrHandInProgress, got %v", err)
	}
}

func TestPartialBlindGoesAllIn(t *testing.T) {
	g := NewGame("room-1", Config{SmallBlind: 25, BigBlind: 50}, rand.New(rand.NewSource(4)))
	for i, stack := range []int{500, 500, 30} {
		if _, err := g.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), stack); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := g.StartHand(Settings{}); err != nil {
		t.Fatal(err)
	}

	// Seat 2 posts the big blind with only 30 behind.
	bb := g.Players[2]
	if bb.Bet != 30 || !bb.AllIn || bb.Chips != 0 {
		t.Errorf("expected partial blind all-in, got %+v", bb)
	}
	// The call amount is still the full big blind.
	if g.CallAmount != 50 {
		t.Errorf("expected call amount 50, got %d", g.CallAmount)
	}
}

func TestRebuy(t *testing.T) {
	g := NewGame("room-1", Config{StartingStack: 1000, MaxRebuys: 1}, nil)
	p, err := g.AddPlayer("alice", "Alice", 1000)
	if err != nil {
		t.Fatal(err)
	}

	// Not broke yet.
	if _, err := g.Rebuy("alice"); !errors.Is(err, ErrRebuyNotAllowed) {
		t.Errorf("expected ErrRebuyNotAllowed, got %v", err)
	}

	p.Chips = 0
	if _, err := g.Rebuy("alice"); err != nil {
		t.Fatalf("rebuy: %v", err)
	}
	if p.Chips != 1000 || p.BuyIns != 2 {
		t.Errorf("unexpected stack after rebuy: %+v", p)
	}

	// Allowance exhausted.
	p.Chips = 0
	if _, err := g.Rebuy("alice"); !errors.Is(err, ErrRebuyNotAllowed) {
		t.Errorf("expected ErrRebuyNotAllowed after limit, got %v", err)
	}
}

func TestResetZeroesTable(t *testing.T) {
	g := newTestGame(t, 2, 1000)
	if _, err := g.StartHand(Settings{}); err != nil {
		t.Fatal(err)
	}
	if _, err := g.ApplyAction(g.CurrentPlayer().ID, Fold, 0); err != nil {
		t.Fatal(err)
	}

	g.Reset()

	if g.HandNum != 0 || g.Phase != Waiting || g.Pot != 0 {
		t.Errorf("table not zeroed: hand=%d phase=%s pot=%d", g.HandNum, g.Phase, g.Pot)
	}
	for _, p := range g.Players {
		if p.Chips != 1000 {
			t.Errorf("seat %d: expected restored stack, got %d", p.Seat, p.Chips)
		}
	}
	if len(g.Events()) != 0 {
		t.Error("expected a cleared event log")
	}
}

// TestRandomHandsConserveChips plays many hands with random valid actions
// and asserts the conservation invariant after every single action.
func TestRandomHandsConserveChips(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	g := NewGame("room-1", Config{SmallBlind: 5, BigBlind: 10, StartingStack: 500, MaxRebuys: 50}, rng)
	for i := 0; i < 4; i++ {
		if _, err := g.AddPlayer(fmt.Sprintf("p%d", i), fmt.Sprintf("Player%d", i), 500); err != nil {
			t.Fatal(err)
		}
	}
	grand := totalChips(g)

	for hand := 0; hand < 50; hand++ {
		// Top up busted stacks so the game keeps going.
		for _, p := range g.Players {
			if p.Chips == 0 {
				added, err := g.Rebuy(p.ID)
				if err != nil {
					t.Fatalf("rebuy: %v", err)
				}
				grand += added.Chips
			}
		}

		if _, err := g.StartHand(Settings{}); err != nil {
			t.Fatalf("hand %d: %v", hand, err)
		}

		for steps := 0; g.Phase.InHand(); steps++ {
			if steps > 200 {
				t.Fatalf("hand %d did not terminate", hand)
			}
			p := g.CurrentPlayer()
			if p == nil {
				t.Fatalf("hand %d: in-hand phase %s with no actor", hand, g.Phase)
			}

			var err error
			switch rng.Intn(6) {
			case 0:
				_, err = g.ApplyAction(p.ID, Fold, 0)
			case 1:
				if p.Bet == g.CallAmount {
					_, err = g.ApplyAction(p.ID, Check, 0)
				} else {
					_, err = g.ApplyAction(p.ID, Call, 0)
				}
			case 2, 3:
				_, err = g.ApplyAction(p.ID, Call, 0)
			case 4:
				target := g.CallAmount + g.MinRaise
				if target <= p.Chips+p.Bet && target > g.CallAmount {
					_, err = g.ApplyAction(p.ID, Raise, target)
				} else {
					_, err = g.ApplyAction(p.ID, Call, 0)
				}
			case 5:
				_, err = g.ApplyAction(p.ID, AllIn, 0)
			}
			if err != nil {
				t.Fatalf("hand %d step %d: %v", hand, steps, err)
			}
			if got := totalChips(g); got != grand {
				t.Fatalf("hand %d step %d: chips not conserved: %d != %d", hand, steps, got, grand)
			}
		}
	}
}
