package game

import "errors"

// Rejection errors. A rejected action never mutates session state; the
// diagnostic is reported to the originating seat only.
var (
	ErrWrongPhase    = errors.New("action not valid in current phase")
	ErrNotYourTurn   = errors.New("not your turn")
	ErrIllegalMove   = errors.New("illegal move")
	ErrInvalidBid    = errors.New("invalid bid")
	ErrNotInHand     = errors.New("card not in hand")
	ErrInvalidDraw   = errors.New("invalid draw")
	ErrAlreadyDrawn  = errors.New("already drawn")
	ErrUnknownSeat   = errors.New("unknown seat")
	ErrUnknownPlayer = errors.New("unknown participant")
	ErrSessionOver   = errors.New("session is over")
)
