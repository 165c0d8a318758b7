package server

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"github.com/felthq/cardroom/internal/engine"
)

// Notifier receives room updates that must be fanned out to the room's
// connected clients.
type Notifier interface {
	RoomChanged(roomID string, res *engine.Result)
	PlayerTimedOut(roomID, playerName, action string)
}

// Room serializes access to one table and owns its turn timer. The engine
// itself is a plain synchronous state machine; every mutation goes through
// the room mutex, including timer expiries.
type Room struct {
	ID string

	mu       sync.Mutex
	game     *engine.Game
	cfg      RoomConfig
	clock    quartz.Clock
	logger   *log.Logger
	notifier Notifier

	turnTimer *quartz.Timer
	turnSeq   int // Invalidates timers armed for earlier turns
}

// NewRoom creates a room from its config block. The clock is injected so
// tests can drive the turn timer deterministically.
func NewRoom(cfg RoomConfig, notifier Notifier, clock quartz.Clock, logger *log.Logger) *Room {
	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	return &Room{
		ID:       cfg.Name,
		game:     engine.NewGame(cfg.Name, cfg.GameConfig(), rng),
		cfg:      cfg,
		clock:    clock,
		logger:   logger.WithPrefix("room").With("room", cfg.Name),
		notifier: notifier,
	}
}

// Join seats a player or reconnects a returning one.
func (r *Room) Join(playerID, name string, buyIn int) (*engine.Player, error) {
	r.mu.Lock()
	p, err := r.game.AddPlayer(playerID, name, buyIn)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	r.notifyChanged(nil)
	return p, nil
}

// Leave marks the player's seat disconnected. If they were due to act the
// turn moves on and the timer is re-armed for the next seat.
func (r *Room) Leave(playerID string) error {
	r.mu.Lock()
	res, err := r.game.RemovePlayer(playerID)
	if err != nil {
		r.mu.Unlock()
		return err
	}
	r.scheduleTurn()
	r.mu.Unlock()
	r.notifyChanged(res)
	return nil
}

// StartHand deals the next hand and arms the first actor's timer.
func (r *Room) StartHand(settings engine.Settings) (*engine.Result, error) {
	r.mu.Lock()
	res, err := r.game.StartHand(settings)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.scheduleTurn()
	r.mu.Unlock()
	r.logger.Info("Hand started", "advance", res.Advance)
	r.notifyChanged(res)
	return res, nil
}

// Act applies one player action.
func (r *Room) Act(playerID string, action engine.Action, amount int) (*engine.Result, error) {
	r.mu.Lock()
	res, err := r.game.ApplyAction(playerID, action, amount)
	if err != nil {
		r.mu.Unlock()
		return nil, err
	}
	r.scheduleTurn()
	r.mu.Unlock()
	r.notifyChanged(res)
	return res, nil
}

// SitOut toggles whether the seat is dealt into coming hands.
func (r *Room) SitOut(playerID string, sitOut bool) error {
	r.mu.Lock()
	err := r.game.SetSitOut(playerID, sitOut)
	r.mu.Unlock()
	if err != nil {
		return err
	}
	r.notifyChanged(nil)
	return nil
}

// Rebuy tops a busted stack back up between hands.
func (r *Room) Rebuy(playerID string) (*engine.Player, error) {
	r.mu.Lock()
	p, err := r.game.Rebuy(playerID)
	r.mu.Unlock()
	if err != nil {
		return nil, err
	}
	r.notifyChanged(nil)
	return p, nil
}

// NewGame resets the table to a fresh game, keeping the seats.
func (r *Room) NewGame() {
	r.mu.Lock()
	r.cancelTurnTimer()
	r.game.Reset()
	r.mu.Unlock()
	r.logger.Info("Table reset")
	r.notifyChanged(nil)
}

// StateFor returns the redacted view of the table for one viewer.
func (r *Room) StateFor(viewerID string) *engine.GameView {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.game.StateFor(viewerID)
}

// Info summarises the room for the lobby listing.
func (r *Room) Info() RoomInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	view := r.game.StateFor("")
	return RoomInfo{
		ID:          r.ID,
		PlayerCount: len(view.Players),
		MaxPlayers:  r.game.Config().MaxPlayers,
		Stakes:      fmt.Sprintf("%d/%d", r.cfg.SmallBlind, r.cfg.BigBlind),
		Phase:       view.Phase,
	}
}

// scheduleTurn arms the turn timer for the seat to act, cancelling any
// previous timer. No timer is armed between hands or when the room has
// the timer disabled. Callers must hold the room mutex.
func (r *Room) scheduleTurn() {
	r.cancelTurnTimer()

	if r.cfg.TurnTimerSeconds <= 0 {
		return
	}
	if r.game.CurrentPlayer() == nil {
		return
	}

	r.turnSeq++
	seq := r.turnSeq
	timeout := time.Duration(r.cfg.TurnTimerSeconds) * time.Second
	r.turnTimer = r.clock.AfterFunc(timeout, func() {
		r.expireTurn(seq)
	})
}

// cancelTurnTimer stops the armed timer and invalidates late firings.
// Callers must hold the room mutex.
func (r *Room) cancelTurnTimer() {
	r.turnSeq++
	if r.turnTimer != nil {
		r.turnTimer.Stop()
		r.turnTimer = nil
	}
}

// expireTurn is the timer callback: the seat that ran out of time checks
// when that is free, otherwise folds. A stale sequence number means the
// turn already moved on and the expiry is ignored.
func (r *Room) expireTurn(seq int) {
	r.mu.Lock()
	if seq != r.turnSeq {
		r.mu.Unlock()
		return
	}

	p := r.game.CurrentPlayer()
	if p == nil {
		r.mu.Unlock()
		return
	}

	action := engine.Fold
	if p.Bet == r.game.CallAmount {
		action = engine.Check
	}

	playerName := p.Name
	res, err := r.game.ApplyAction(p.ID, action, 0)
	if err != nil {
		r.mu.Unlock()
		r.logger.Error("Timeout action failed", "player", playerName, "error", err)
		return
	}
	r.scheduleTurn()
	r.mu.Unlock()

	r.logger.Info("Player timed out", "player", playerName, "action", action)
	if r.notifier != nil {
		r.notifier.PlayerTimedOut(r.ID, playerName, action.String())
	}
	r.notifyChanged(res)
}

func (r *Room) notifyChanged(res *engine.Result) {
	if r.notifier != nil {
		r.notifier.RoomChanged(r.ID, res)
	}
}
