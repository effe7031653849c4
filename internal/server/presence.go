package server

import (
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"jokerwhist/internal/game"
)

// PresenceStatus is one seat's continuity state
type PresenceStatus int

const (
	// StatusConnected means the seat's human is live (or the seat is a
	// native bot, which is always connected).
	StatusConnected PresenceStatus = iota
	// StatusDisconnected means the human dropped and the grace period
	// is running; the seat idles and no substitute plays for it.
	StatusDisconnected
	// StatusLazy means the human handed the seat to a substitute bot
	// and may reclaim it at any time.
	StatusLazy
	// StatusResigned means the seat was resigned after its grace period
	// expired; a substitute bot plays it for the rest of the game.
	StatusResigned
)

func (s PresenceStatus) String() string {
	switch s {
	case StatusDisconnected:
		return "disconnected"
	case StatusLazy:
		return "lazy"
	case StatusResigned:
		return "resigned"
	default:
		return "connected"
	}
}

// seatState tracks one seat's continuity
type seatState struct {
	status   PresenceStatus
	identity string // owning human identity, "" for native bot seats
	bot      bool   // native bot seat, never tracked for presence
	since    time.Time
	// linkDown marks a lazy seat whose human connection has dropped.
	// The substitute keeps playing, but the human no longer counts as
	// reachable.
	linkDown bool
	// resignAvailable is set once the grace period expires without a
	// reconnect. It stays set until the seat reconnects or is resigned.
	resignAvailable bool
	graceTimer      *quartz.Timer
}

// Continuity manages presence for one session: disconnect grace
// periods, lazy mode, resignation and rejoin eligibility. Humans are
// tracked from session creation; until the opening draw resolves they
// live in the pending set, and Attach moves their state (grace timer
// included) onto the assigned seat.
//
// All methods must be called from the session runner's goroutine. The
// grace timer fires on the clock's goroutine and only enqueues work
// back into the runner via the expired callback.
type Continuity struct {
	clock   quartz.Clock
	logger  *log.Logger
	grace   time.Duration
	seats   map[game.Seat]*seatState
	pending map[string]*seatState
	// expired is invoked (off the runner goroutine) when an identity's
	// grace period runs out.
	expired func(identity string)
}

// NewContinuity creates a continuity tracker for a session
func NewContinuity(clock quartz.Clock, grace time.Duration, logger *log.Logger, expired func(identity string)) *Continuity {
	return &Continuity{
		clock:   clock,
		logger:  logger.WithPrefix("presence"),
		grace:   grace,
		seats:   make(map[game.Seat]*seatState, 4),
		pending: make(map[string]*seatState, 4),
		expired: expired,
	}
}

// Track registers a human participant before the draw assigns seats
func (c *Continuity) Track(p game.Participant) {
	if !p.IsHuman() {
		return
	}
	c.pending[p.ID] = &seatState{
		status:   StatusConnected,
		identity: p.ID,
		since:    c.clock.Now(),
	}
}

// Attach binds a seat to its participant once the draw resolves. A
// tracked human carries its pending state over, so a grace period that
// started during the draw keeps running against the seat.
func (c *Continuity) Attach(seat game.Seat, p game.Participant) {
	if p.IsHuman() {
		if st, ok := c.pending[p.ID]; ok {
			delete(c.pending, p.ID)
			c.seats[seat] = st
			return
		}
		c.seats[seat] = &seatState{status: StatusConnected, identity: p.ID, since: c.clock.Now()}
		return
	}
	c.seats[seat] = &seatState{status: StatusConnected, bot: true, since: c.clock.Now()}
}

// Status returns a seat's current presence status
func (c *Continuity) Status(seat game.Seat) PresenceStatus {
	if st, ok := c.seats[seat]; ok {
		return st.status
	}
	return StatusConnected
}

// Identity returns the human identity owning a seat, if any
func (c *Continuity) Identity(seat game.Seat) (string, bool) {
	st, ok := c.seats[seat]
	if !ok || st.identity == "" {
		return "", false
	}
	return st.identity, true
}

// SeatOf finds the seat owned by a human identity
func (c *Continuity) SeatOf(identity string) (game.Seat, bool) {
	for seat, st := range c.seats {
		if st.identity == identity {
			return seat, true
		}
	}
	return 0, false
}

// IsBotControlled reports whether a bot should act for the seat right
// now. Native bot seats always are; lazy and resigned seats are played
// by their substitute. A disconnected seat inside its grace period is
// NOT bot-controlled: the game waits for it.
func (c *Continuity) IsBotControlled(seat game.Seat) bool {
	st, ok := c.seats[seat]
	if !ok {
		return false
	}
	return st.bot || st.status == StatusLazy || st.status == StatusResigned
}

// ResignationAvailable reports whether the seat's grace period has
// expired, making a forced resignation legal.
func (c *Continuity) ResignationAvailable(seat game.Seat) bool {
	st, ok := c.seats[seat]
	return ok && st.resignAvailable
}

// HumansReachable reports whether any human is still live: connected,
// or lazy with its connection up. Disconnected seats inside their
// grace period do not count; whether their absence is fatal is decided
// when the grace period expires.
func (c *Continuity) HumansReachable() bool {
	for _, st := range c.pending {
		if st.status == StatusConnected {
			return true
		}
	}
	for _, st := range c.seats {
		if st.bot || st.identity == "" {
			continue
		}
		if st.status == StatusConnected {
			return true
		}
		if st.status == StatusLazy && !st.linkDown {
			return true
		}
	}
	return false
}

// Disconnect marks a human as dropped. Connected seats (and tracked
// humans still waiting on the draw) get a grace timer. A lazy seat's
// human dropping does not interrupt play — the substitute keeps the
// seat and no timer runs — but the human stops counting as reachable.
// The returned seat is zero when the draw has not resolved yet.
func (c *Continuity) Disconnect(identity string) (game.Seat, bool) {
	seat, ok := c.SeatOf(identity)
	if !ok {
		st, tracked := c.pending[identity]
		if !tracked || st.status != StatusConnected {
			return 0, false
		}
		st.status = StatusDisconnected
		st.since = c.clock.Now()
		c.startGrace(st, identity)
		c.logger.Info("Player disconnected before the draw", "identity", identity, "grace", c.grace)
		return 0, true
	}

	st := c.seats[seat]
	switch st.status {
	case StatusLazy:
		if st.linkDown {
			return seat, false
		}
		st.linkDown = true
		c.logger.Info("Lazy seat's human dropped", "seat", seat, "identity", identity)
		return seat, true
	case StatusResigned, StatusDisconnected:
		return seat, false
	}

	st.status = StatusDisconnected
	st.since = c.clock.Now()
	c.startGrace(st, identity)
	c.logger.Info("Seat disconnected", "seat", seat, "identity", identity, "grace", c.grace)
	return seat, true
}

func (c *Continuity) startGrace(st *seatState, identity string) {
	if c.grace <= 0 {
		return
	}
	st.graceTimer = c.clock.AfterFunc(c.grace, func() {
		c.expired(identity)
	})
}

// GraceExpired finalizes a grace timeout: the seat stays idle but its
// resignation becomes available to the remaining players. Must be
// called from the runner goroutine in response to the expired callback.
func (c *Continuity) GraceExpired(seat game.Seat) bool {
	st, ok := c.seats[seat]
	if !ok || st.status != StatusDisconnected {
		// Reconnected before the expiry was processed.
		return false
	}
	st.resignAvailable = true
	st.graceTimer = nil
	c.logger.Info("Grace period expired", "seat", seat, "identity", st.identity)
	return true
}

// PendingGraceExpired finalizes a grace timeout for a human that
// dropped before the draw resolved. There is no seat to resign and the
// draw cannot complete without them, so the caller aborts the session.
func (c *Continuity) PendingGraceExpired(identity string) bool {
	st, ok := c.pending[identity]
	if !ok || st.status != StatusDisconnected {
		return false
	}
	st.graceTimer = nil
	c.logger.Info("Grace period expired before the draw", "identity", identity)
	return true
}

// Reconnect restores a disconnected human. Returns false when the
// identity owns no disconnected seat or pending slot.
func (c *Continuity) Reconnect(identity string) (game.Seat, bool) {
	seat, ok := c.SeatOf(identity)
	if !ok {
		st, tracked := c.pending[identity]
		if !tracked || st.status != StatusDisconnected {
			return 0, false
		}
		c.restore(st)
		c.logger.Info("Player reconnected before the draw", "identity", identity)
		return 0, true
	}
	st := c.seats[seat]
	if st.status != StatusDisconnected {
		return seat, false
	}
	c.restore(st)
	c.logger.Info("Seat reconnected", "seat", seat, "identity", identity)
	return seat, true
}

func (c *Continuity) restore(st *seatState) {
	if st.graceTimer != nil {
		st.graceTimer.Stop()
		st.graceTimer = nil
	}
	st.status = StatusConnected
	st.since = c.clock.Now()
	st.resignAvailable = false
}

// EnterLazy hands a connected seat to a substitute bot. The human
// stays attached and may reclaim the seat with ExitLazy.
func (c *Continuity) EnterLazy(identity string) (game.Seat, error) {
	seat, ok := c.SeatOf(identity)
	if !ok {
		return 0, fmt.Errorf("no seat for identity %s", identity)
	}
	st := c.seats[seat]
	if st.status != StatusConnected {
		return seat, fmt.Errorf("seat %s is %s, cannot go lazy", seat, st.status)
	}
	st.status = StatusLazy
	st.since = c.clock.Now()
	c.logger.Info("Seat entered lazy mode", "seat", seat, "identity", identity)
	return seat, nil
}

// ExitLazy returns a lazy seat to its human
func (c *Continuity) ExitLazy(identity string) (game.Seat, error) {
	seat, ok := c.SeatOf(identity)
	if !ok {
		return 0, fmt.Errorf("no seat for identity %s", identity)
	}
	st := c.seats[seat]
	if st.status != StatusLazy {
		return seat, fmt.Errorf("seat %s is %s, not lazy", seat, st.status)
	}
	st.status = StatusConnected
	st.linkDown = false
	st.since = c.clock.Now()
	c.logger.Info("Seat left lazy mode", "seat", seat, "identity", identity)
	return seat, nil
}

// Resign permanently hands a seat to a substitute bot. Only legal once
// the seat's grace period has expired. Irreversible: the human may
// only rejoin as a spectator afterwards.
func (c *Continuity) Resign(seat game.Seat) error {
	st, ok := c.seats[seat]
	if !ok {
		return game.ErrUnknownSeat
	}
	if !st.resignAvailable {
		return fmt.Errorf("seat %s: resignation not available", seat)
	}
	if st.graceTimer != nil {
		st.graceTimer.Stop()
		st.graceTimer = nil
	}
	st.status = StatusResigned
	st.since = c.clock.Now()
	st.resignAvailable = false
	c.logger.Warn("Seat resigned", "seat", seat, "identity", st.identity)
	return nil
}

// RejoinMode classifies what a rejoining identity gets back
type RejoinMode int

const (
	// RejoinResume restores the seat to the human
	RejoinResume RejoinMode = iota
	// RejoinSpectator admits the human as a viewer only: its seat is
	// lazy (reclaim with /active) or resigned (permanent).
	RejoinSpectator
)

// Rejoin resolves a rejoin attempt for an identity. Disconnected seats
// (and tracked humans still waiting on the draw) resume; lazy and
// resigned seats admit the human as a spectator.
func (c *Continuity) Rejoin(identity string) (game.Seat, RejoinMode, error) {
	seat, ok := c.SeatOf(identity)
	if !ok {
		st, tracked := c.pending[identity]
		if !tracked {
			return 0, 0, fmt.Errorf("identity %s has no seat in this session", identity)
		}
		c.restore(st)
		return 0, RejoinResume, nil
	}
	st := c.seats[seat]
	switch st.status {
	case StatusDisconnected, StatusConnected:
		c.Reconnect(identity)
		return seat, RejoinResume, nil
	case StatusLazy, StatusResigned:
		st.linkDown = false
		return seat, RejoinSpectator, nil
	default:
		return 0, 0, fmt.Errorf("seat %s in unexpected state", seat)
	}
}

// WirePresence builds the wire form of every seat's presence for
// snapshots.
func (c *Continuity) WirePresence(substitutes map[game.Seat]string) map[int]SeatPresence {
	out := make(map[int]SeatPresence, len(c.seats))
	for seat, st := range c.seats {
		p := SeatPresence{Status: st.status.String(), Identity: st.identity}
		if st.bot {
			p.Status = "bot"
		}
		if sub, ok := substitutes[seat]; ok {
			p.Substitute = sub
		}
		out[int(seat)] = p
	}
	return out
}

// Stop cancels any running grace timers
func (c *Continuity) Stop() {
	for _, st := range c.pending {
		if st.graceTimer != nil {
			st.graceTimer.Stop()
			st.graceTimer = nil
		}
	}
	for _, st := range c.seats {
		if st.graceTimer != nil {
			st.graceTimer.Stop()
			st.graceTimer = nil
		}
	}
}
