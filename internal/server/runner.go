package server

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"

	"jokerwhist/internal/bot"
	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// Broadcaster abstracts the transport so runners can be tested without
// websockets.
type Broadcaster interface {
	BroadcastToSession(sessionID string, msg *Message)
	SendToIdentity(identity string, msg *Message) error
}

// RunnerConfig carries the pacing knobs for a session runner
type RunnerConfig struct {
	GracePeriod   time.Duration
	BotThinkDelay time.Duration
	HandDelay     time.Duration
}

// SessionRunner drives one session. All game state access is
// serialized through a single goroutine consuming the action queue;
// transport goroutines and timer callbacks only ever enqueue closures.
//
// Every seat gets a bot engine subscribed to the event bus from the
// start. For native bot seats the engine plays; for human seats it
// shadows the game silently so that a substitute taking over a lazy or
// resigned seat has a warm card memory.
type SessionRunner struct {
	session    *game.Session
	continuity *Continuity
	transport  Broadcaster
	recorder   ResultRecorder
	clock      quartz.Clock
	cfg        RunnerConfig
	logger     *log.Logger
	rng        *rand.Rand

	// botsByID holds native bot engines keyed by participant ID until
	// the draw resolves; engines is the per-seat view afterwards.
	botsByID map[string]*bot.Bot
	engines  map[game.Seat]*bot.Bot

	queue    chan func()
	done     chan struct{}
	finished bool

	botTimers map[game.Seat]*quartz.Timer
	drawTimer *quartz.Timer
	handTimer *quartz.Timer

	// onFinished is called once, after the game-ended broadcast, so the
	// service can drop the runner from its registry.
	onFinished func(sessionID string)
}

// NewSessionRunner wires a runner around a freshly created session
func NewSessionRunner(session *game.Session, transport Broadcaster, recorder ResultRecorder, clock quartz.Clock, cfg RunnerConfig, logger *log.Logger, rng *rand.Rand, onFinished func(string)) *SessionRunner {
	r := &SessionRunner{
		session:    session,
		transport:  transport,
		recorder:   recorder,
		clock:      clock,
		cfg:        cfg,
		logger:     logger.WithPrefix("runner").With("session", session.ID()),
		rng:        rng,
		botsByID:   make(map[string]*bot.Bot, 4),
		engines:    make(map[game.Seat]*bot.Bot, 4),
		queue:      make(chan func(), 64),
		done:       make(chan struct{}),
		botTimers:  make(map[game.Seat]*quartz.Timer, 4),
		onFinished: onFinished,
	}
	r.continuity = NewContinuity(clock, cfg.GracePeriod, r.logger, func(identity string) {
		r.enqueue(func() { r.handleGraceExpired(identity) })
	})

	for _, p := range session.Participants() {
		if p.IsHuman() {
			r.continuity.Track(p)
			continue
		}
		personality, err := bot.ParsePersonality(p.Personality)
		if err != nil {
			personality = bot.Neutral
		}
		r.botsByID[p.ID] = bot.New(personality, rng, r.logger)
	}

	session.Events().Subscribe(r)
	return r
}

// Session exposes the underlying session, mainly for tests and the
// monitor.
func (r *SessionRunner) Session() *game.Session { return r.session }

// Continuity exposes the presence tracker
func (r *SessionRunner) Continuity() *Continuity { return r.continuity }

// Start launches the runner goroutine and opens the draw
func (r *SessionRunner) Start() {
	go r.run()
	r.enqueue(func() {
		if err := r.session.StartDraw(); err != nil {
			r.logger.Error("Failed to start draw", "error", err)
			return
		}
		r.broadcast(MessageTypeDrawStarted, DrawStartedData{
			SessionID: r.session.ID(),
			DeckSize:  r.session.DeckRemaining(),
		})
		if len(r.botsByID) > 0 {
			r.drawTimer = r.clock.AfterFunc(r.cfg.BotThinkDelay, func() {
				r.enqueue(r.botDraws)
			})
		}
	})
}

// Stop terminates the runner without finishing the game
func (r *SessionRunner) Stop() {
	r.enqueue(func() { r.finish() })
}

func (r *SessionRunner) run() {
	for {
		select {
		case fn := <-r.queue:
			fn()
			if !r.finished {
				r.pump()
			}
		case <-r.done:
			return
		}
	}
}

func (r *SessionRunner) enqueue(fn func()) {
	select {
	case r.queue <- fn:
	case <-r.done:
	}
}

// finish tears the runner down. Must run on the runner goroutine.
func (r *SessionRunner) finish() {
	if r.finished {
		return
	}
	r.finished = true
	r.continuity.Stop()
	for seat, t := range r.botTimers {
		t.Stop()
		delete(r.botTimers, seat)
	}
	if r.drawTimer != nil {
		r.drawTimer.Stop()
	}
	if r.handTimer != nil {
		r.handTimer.Stop()
	}
	close(r.done)
	if r.onFinished != nil {
		r.onFinished(r.session.ID())
	}
}

// ---- actions submitted by the transport layer ----

// SubmitDraw applies a human participant's opening draw
func (r *SessionRunner) SubmitDraw(identity string, cardIndex int) {
	r.enqueue(func() {
		if err := r.session.HandleDraw(identity, cardIndex); err != nil {
			r.sendError(identity, "draw_rejected", err)
		}
	})
}

// SubmitBid applies a bid for the seat owned by identity
func (r *SessionRunner) SubmitBid(identity string, rawBid string) {
	r.enqueue(func() {
		seat, ok := r.seatForActor(identity)
		if !ok {
			r.sendError(identity, "no_seat", game.ErrUnknownPlayer)
			return
		}
		b, err := game.ParseBid(rawBid)
		if err != nil {
			r.sendError(identity, "invalid_bid", err)
			return
		}
		if err := r.session.HandleBid(seat, b); err != nil {
			r.sendError(identity, "bid_rejected", err)
		}
	})
}

// SubmitPlay applies a card play for the seat owned by identity
func (r *SessionRunner) SubmitPlay(identity string, card deck.Card) {
	r.enqueue(func() {
		seat, ok := r.seatForActor(identity)
		if !ok {
			r.sendError(identity, "no_seat", game.ErrUnknownPlayer)
			return
		}
		if err := r.session.HandlePlay(seat, card); err != nil {
			r.sendError(identity, "play_rejected", err)
		}
	})
}

// seatForActor resolves which seat an identity may act for. A lazy or
// resigned seat belongs to its substitute: the human cannot act until
// it reclaims the seat.
func (r *SessionRunner) seatForActor(identity string) (game.Seat, bool) {
	seat, ok := r.session.SeatFor(identity)
	if !ok {
		return 0, false
	}
	if r.continuity.IsBotControlled(seat) {
		return 0, false
	}
	return seat, true
}

// Chat relays a chat line or applies a seat-control command
func (r *SessionRunner) Chat(identity string, text string) {
	r.enqueue(func() {
		switch text {
		case "/lazy":
			seat, err := r.continuity.EnterLazy(identity)
			if err != nil {
				r.sendError(identity, "lazy_rejected", err)
				return
			}
			r.broadcastSeatStatus(seat, "")
		case "/active":
			seat, err := r.continuity.ExitLazy(identity)
			if err != nil {
				r.sendError(identity, "active_rejected", err)
				return
			}
			r.cancelBotTimer(seat)
			r.broadcastSeatStatus(seat, "")
		case "/leave":
			r.handleDisconnect(identity)
		default:
			seat, _ := r.session.SeatFor(identity)
			r.broadcast(MessageTypeChatRelay, ChatRelayData{
				Seat: int(seat),
				From: identity,
				Text: text,
			})
		}
	})
}

// ForceResign resigns a seat whose grace period has expired
func (r *SessionRunner) ForceResign(identity string, target game.Seat) {
	r.enqueue(func() {
		if _, ok := r.session.SeatFor(identity); !ok {
			r.sendError(identity, "no_seat", game.ErrUnknownPlayer)
			return
		}
		if err := r.continuity.Resign(target); err != nil {
			r.sendError(identity, "resign_rejected", err)
			return
		}
		r.broadcastSeatStatus(target, r.substituteName(target))
	})
}

// Rejoin handles a reconnect attempt and answers the caller directly
func (r *SessionRunner) Rejoin(identity string) {
	r.enqueue(func() {
		seat, mode, err := r.continuity.Rejoin(identity)
		if err != nil {
			r.sendTo(identity, MessageTypeRejoinResponse, RejoinResponseData{
				Success: false,
				Message: err.Error(),
			})
			return
		}

		snap := r.wireSnapshot(seat)
		switch mode {
		case RejoinResume:
			if seat.Valid() {
				r.broadcastSeatStatus(seat, "")
			}
			r.sendTo(identity, MessageTypeRejoinResponse, RejoinResponseData{
				Success:  true,
				Mode:     "resume",
				Snapshot: snap,
			})
		case RejoinSpectator:
			r.sendTo(identity, MessageTypeRejoinResponse, RejoinResponseData{
				Success:  true,
				Mode:     "spectator",
				Snapshot: snap,
			})
		}
	})
}

// NotifyDisconnect is called by the transport when a connection drops
func (r *SessionRunner) NotifyDisconnect(identity string) {
	r.enqueue(func() { r.handleDisconnect(identity) })
}

func (r *SessionRunner) handleDisconnect(identity string) {
	seat, changed := r.continuity.Disconnect(identity)
	if !changed {
		return
	}
	if seat.Valid() {
		r.broadcastSeatStatus(seat, "")
	}
	// A disconnected seat keeps the session alive through its grace
	// period; whether the absence is fatal is decided at expiry. A lazy
	// seat has no grace timer — its substitute plays on — so a dead
	// link there ends the session as soon as nobody else is left.
	if seat.Valid() && r.continuity.Status(seat) == StatusLazy && !r.continuity.HumansReachable() {
		r.session.Abort("no human players reachable")
	}
}

func (r *SessionRunner) handleGraceExpired(identity string) {
	seat, seated := r.continuity.SeatOf(identity)
	if !seated {
		// The draw never resolved and cannot complete without them.
		if r.continuity.PendingGraceExpired(identity) {
			r.session.Abort("player left during the seat draw")
		}
		return
	}
	if !r.continuity.GraceExpired(seat) {
		return
	}
	msg, err := NewMessage(MessageTypeSeatStatus, SeatStatusData{
		Seat:                 int(seat),
		Status:               r.continuity.Status(seat).String(),
		Identity:             identity,
		ResignationAvailable: true,
	})
	if err == nil {
		r.transport.BroadcastToSession(r.session.ID(), msg)
	}
	if !r.continuity.HumansReachable() {
		r.session.Abort("no human players reachable")
	}
}

// ---- bot scheduling ----

// pump runs after every queued action: when the seat on turn is
// bot-controlled, schedule its engine to act after the think delay.
// The callback re-verifies turn and control before acting, so stale
// timers are harmless.
func (r *SessionRunner) pump() {
	phase := r.session.Phase()
	if phase != game.PhaseBidding && phase != game.PhasePlaying {
		return
	}
	seat := r.session.Turn()
	if !r.continuity.IsBotControlled(seat) {
		return
	}
	if _, pending := r.botTimers[seat]; pending {
		return
	}
	r.botTimers[seat] = r.clock.AfterFunc(r.cfg.BotThinkDelay, func() {
		r.enqueue(func() { r.botAct(seat) })
	})
}

func (r *SessionRunner) cancelBotTimer(seat game.Seat) {
	if t, ok := r.botTimers[seat]; ok {
		t.Stop()
		delete(r.botTimers, seat)
	}
}

// botDraws submits draws for every native bot participant
func (r *SessionRunner) botDraws() {
	r.drawTimer = nil
	for id, engine := range r.botsByID {
		if r.session.HasDrawn(id) {
			continue
		}
		idx := engine.ChooseDraw(r.session.DeckRemaining())
		if err := r.session.HandleDraw(id, idx); err != nil {
			r.logger.Error("Bot draw rejected", "bot", id, "error", err)
		}
	}
}

// botAct lets the engine for a seat take its turn. State may have
// moved since the timer was set; every precondition is re-checked.
func (r *SessionRunner) botAct(seat game.Seat) {
	delete(r.botTimers, seat)

	if r.session.Turn() != seat || !r.continuity.IsBotControlled(seat) {
		return
	}
	engine, ok := r.engines[seat]
	if !ok {
		return
	}

	switch r.session.Phase() {
	case game.PhaseBidding:
		b := engine.ChooseBid(bot.BidRequest{
			Hand:      r.session.Hand(seat),
			HandSize:  r.session.HandSize(),
			Trump:     r.session.TrumpCard(),
			TableBids: r.session.Bids(),
		})
		if err := r.session.HandleBid(seat, b); err != nil {
			r.logger.Error("Bot bid rejected", "seat", seat, "bid", b, "error", err)
		}
	case game.PhasePlaying:
		card := engine.ChooseCard(bot.PlayRequest{
			Hand:        r.session.Hand(seat),
			HandSize:    r.session.HandSize(),
			Trump:       r.session.TrumpCard(),
			TrumpBroken: r.session.TrumpBroken(),
			Trick:       r.session.Trick(),
		})
		if err := r.session.HandlePlay(seat, card); err != nil {
			r.logger.Error("Bot play rejected", "seat", seat, "card", card, "error", err)
		}
	}
}

// ---- event forwarding ----

// OnEvent implements game.EventSubscriber. It runs synchronously inside
// session calls on the runner goroutine and translates engine events
// into wire messages.
func (r *SessionRunner) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.SeatsAssignedEvent:
		r.seatEngines(e)
		seating := make(map[int]string, 4)
		for seat, p := range e.Assignments {
			seating[int(seat)] = p.ID
		}
		r.broadcast(MessageTypeSeatsAssigned, SeatsAssignedData{
			Seating:    seating,
			DrawnCards: seatCards(e.DrawnCards),
		})

	case game.HandDealtEvent:
		// Hands are private: each human seat gets only its own cards.
		for _, seat := range game.Seats {
			identity, ok := r.continuity.Identity(seat)
			if !ok {
				continue
			}
			r.sendTo(identity, MessageTypeHandDealt, HandDealtData{
				HandSize:  e.HandSize,
				Dealer:    int(e.Dealer),
				FirstTurn: int(e.FirstTurn),
				Seat:      int(seat),
				Hand:      e.Hands[seat],
			})
		}
		r.broadcast(MessageTypeTrumpRevealed, TrumpRevealedData{
			Trump:    e.Trump,
			HandSize: e.HandSize,
		})

	case game.BidRecordedEvent:
		r.broadcast(MessageTypeBidRecorded, BidRecordedData{
			Seat:     int(e.Seat),
			Bid:      e.Bid.String(),
			NextTurn: int(e.NextTurn),
		})

	case game.RedealEvent:
		r.broadcast(MessageTypeRedeal, RedealData{
			HandSize: e.HandSize,
			Dealer:   int(e.Dealer),
		})

	case game.BiddingCompleteEvent:
		r.broadcast(MessageTypeBiddingComplete, BiddingCompleteData{
			Bids:        seatBids(e.Bids),
			TeamBids:    teamInts(e.TeamBids),
			Multipliers: teamInts(e.Multipliers),
			Leader:      int(e.Leader),
		})

	case game.CardPlayedEvent:
		r.broadcast(MessageTypeCardPlayed, CardPlayedData{
			Seat:        int(e.Seat),
			Card:        e.Card,
			LeadSeat:    int(e.LeadSeat),
			TrickIndex:  e.TrickIndex,
			TrumpBroken: e.TrumpBroken,
			NextTurn:    int(e.NextTurn),
		})

	case game.TrickCompleteEvent:
		r.broadcast(MessageTypeTrickComplete, TrickCompleteData{
			Winner:     int(e.Winner),
			Cards:      seatCards(e.Cards),
			TrickIndex: e.TrickIndex,
			TricksWon:  teamInts(e.TricksWon),
		})

	case game.RainbowFlaggedEvent:
		r.broadcast(MessageTypeRainbowFlagged, RainbowFlaggedData{Seat: int(e.Seat)})

	case game.HandCompleteEvent:
		r.broadcast(MessageTypeHandComplete, HandCompleteData{
			HandSize:     e.HandSize,
			HandScores:   teamInts(e.HandScores),
			TotalScores:  teamInts(e.TotalScores),
			TricksWon:    teamInts(e.TricksWon),
			TeamBids:     teamInts(e.TeamBids),
			NextHandSize: e.NextHandSize,
			Final:        e.Final,
		})
		if !e.Final {
			r.handTimer = r.clock.AfterFunc(r.cfg.HandDelay, func() {
				r.enqueue(r.beginNextHand)
			})
		}

	case game.GameEndedEvent:
		data := GameEndedData{
			FinalScores: teamInts(e.FinalScores),
			Aborted:     e.Aborted,
			Reason:      e.Reason,
		}
		if !e.Aborted {
			data.Winner = e.Winner.String()
		}
		r.broadcast(MessageTypeGameEnded, data)
		if r.recorder != nil {
			r.recorder.Record(r.buildResult(e))
		}
		r.finish()
	}
}

// seatEngines assigns every seat an engine once the draw resolves.
// Native bots get their configured engine; human seats get a neutral
// shadow engine that observes play so it can substitute later.
func (r *SessionRunner) seatEngines(e game.SeatsAssignedEvent) {
	for seat, p := range e.Assignments {
		r.continuity.Attach(seat, p)

		engine, ok := r.botsByID[p.ID]
		if !ok {
			engine = bot.New(bot.Neutral, r.rng, r.logger)
		}
		engine.Sit(seat)
		r.engines[seat] = engine
		r.session.Events().Subscribe(engine)
	}
}

func (r *SessionRunner) beginNextHand() {
	r.handTimer = nil
	if r.session.Phase() != game.PhaseScoring {
		return
	}
	if err := r.session.BeginNextHand(); err != nil {
		r.logger.Error("Failed to deal next hand", "error", err)
	}
}

// ---- wire helpers ----

func (r *SessionRunner) broadcast(msgType MessageType, data interface{}) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		r.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	r.transport.BroadcastToSession(r.session.ID(), msg)
}

func (r *SessionRunner) sendTo(identity string, msgType MessageType, data interface{}) {
	msg, err := NewMessage(msgType, data)
	if err != nil {
		r.logger.Error("Failed to encode message", "type", msgType, "error", err)
		return
	}
	_ = r.transport.SendToIdentity(identity, msg)
}

func (r *SessionRunner) sendError(identity, code string, err error) {
	r.sendTo(identity, MessageTypeError, ErrorData{Code: code, Message: err.Error()})
}

func (r *SessionRunner) broadcastSeatStatus(seat game.Seat, substitute string) {
	identity, _ := r.continuity.Identity(seat)
	r.broadcast(MessageTypeSeatStatus, SeatStatusData{
		Seat:                 int(seat),
		Status:               r.continuity.Status(seat).String(),
		Identity:             identity,
		Substitute:           substitute,
		ResignationAvailable: r.continuity.ResignationAvailable(seat),
	})
}

// substituteName labels the engine playing a lazy or resigned seat
func (r *SessionRunner) substituteName(seat game.Seat) string {
	return fmt.Sprintf("sub-%s", seat)
}

func (r *SessionRunner) wireSnapshot(seat game.Seat) *SnapshotState {
	snap := r.session.Snapshot(seat)

	bids := make(map[int]string, len(snap.Bids))
	for s, b := range snap.Bids {
		bids[int(s)] = b.String()
	}
	seating := make(map[int]string, len(snap.Seating))
	for s, id := range snap.Seating {
		seating[int(s)] = id
	}
	subs := make(map[game.Seat]string, 4)
	for _, s := range game.Seats {
		status := r.continuity.Status(s)
		if status == StatusLazy || status == StatusResigned {
			subs[s] = r.substituteName(s)
		}
	}

	return &SnapshotState{
		SessionID:   snap.SessionID,
		Seat:        int(snap.Seat),
		Phase:       snap.Phase.String(),
		HandSize:    snap.HandSize,
		Dealer:      int(snap.Dealer),
		Turn:        int(snap.Turn),
		Trump:       snap.Trump,
		TrumpBroken: snap.TrumpBroken,
		Hand:        snap.Hand,
		Bids:        bids,
		TrickCards:  seatCards(snap.TrickCards),
		TrickLead:   int(snap.TrickLead),
		TrickIndex:  snap.TrickIndex,
		TricksWon:   teamInts(snap.TricksWon),
		Scores:      teamInts(snap.Scores),
		Seating:     seating,
		Presence:    r.continuity.WirePresence(subs),
	}
}

// buildResult assembles the game record handed to the result recorder
func (r *SessionRunner) buildResult(e game.GameEndedEvent) GameResult {
	result := GameResult{
		SessionID:   r.session.ID(),
		FinalScores: map[game.Team]int{},
		Aborted:     e.Aborted,
		Reason:      e.Reason,
	}
	for t, v := range e.FinalScores {
		result.FinalScores[t] = v
	}
	if !e.Aborted {
		result.Winner = e.Winner
	}
	for _, seat := range game.Seats {
		p, ok := r.session.ParticipantAt(seat)
		if !ok {
			continue
		}
		result.Seats = append(result.Seats, SeatResult{
			Seat:     seat,
			Identity: p.ID,
			Human:    p.IsHuman(),
			Team:     seat.Team(),
			Won:      !e.Aborted && seat.Team() == e.Winner,
			Status:   r.continuity.Status(seat).String(),
		})
	}
	return result
}
