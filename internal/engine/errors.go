package engine

import "errors"

// Engine failures are local and recoverable: every error leaves the game
// state untouched and is reported back to the caller, which notifies only
// the originating client. Callers may match with errors.Is.
var (
	ErrNotYourTurn       = errors.New("not your turn")
	ErrMustCallOrFold    = errors.New("cannot check, must call or fold")
	ErrRaiseTooLow       = errors.New("raise too low")
	ErrInsufficientChips = errors.New("insufficient chips")
	ErrUnknownAction     = errors.New("unknown action")
	ErrNotEnoughPlayers  = errors.New("not enough players")
	ErrTableFull         = errors.New("table full")
	ErrAlreadySeated     = errors.New("already seated")
	ErrUnknownPlayer     = errors.New("unknown player")
	ErrHandInProgress    = errors.New("hand in progress")
	ErrRebuyNotAllowed   = errors.New("rebuy not allowed")
)
