package game

import (
	"fmt"
	rand "math/rand/v2"
	"time"

	"github.com/charmbracelet/log"

	"jokerwhist/internal/deck"
)

// Phase is the session's top-level state
type Phase int

const (
	PhaseWaiting Phase = iota
	PhaseDrawing
	PhaseBidding
	PhasePlaying
	PhaseScoring
	PhaseDone
)

func (p Phase) String() string {
	switch p {
	case PhaseWaiting:
		return "waiting"
	case PhaseDrawing:
		return "drawing"
	case PhaseBidding:
		return "bidding"
	case PhasePlaying:
		return "playing"
	case PhaseScoring:
		return "scoring"
	case PhaseDone:
		return "done"
	default:
		return "unknown"
	}
}

// Session is the per-game state machine: it owns the deck, hands,
// trump, bids, trick and scores, and enforces phase and turn order.
// All methods reject invalid actions without mutating state. The
// session knows nothing about connections or presence; callers decide
// who acts for each seat.
type Session struct {
	id     string
	logger *log.Logger
	rng    *rand.Rand
	events EventBus

	phase        Phase
	participants []Participant
	seatOf       map[string]Seat
	seated       map[Seat]Participant

	dck   *deck.Deck
	drawn map[string]deck.Card

	handSize    int
	dealer      Seat
	turn        Seat
	trumpCard   deck.Card
	trumpBroken bool
	hands       map[Seat][]deck.Card
	bids        map[Seat]Bid
	teamBids    map[Team]int
	multipliers map[Team]int
	trick       *Trick
	trickIndex  int
	cardsPlayed int
	tricksWon   map[Team]int
	rainbows    map[Team]int
	scores      map[Team]int
}

// NewSession creates a session for four participants in join order.
// The session starts in the waiting phase; call StartDraw once the
// transport layer is ready to accept draws.
func NewSession(id string, participants [4]Participant, logger *log.Logger, rng *rand.Rand) *Session {
	s := &Session{
		id:           id,
		logger:       logger.WithPrefix("session").With("session", id),
		rng:          rng,
		events:       NewEventBus(),
		phase:        PhaseWaiting,
		participants: participants[:],
		seatOf:       make(map[string]Seat, 4),
		seated:       make(map[Seat]Participant, 4),
		drawn:        make(map[string]deck.Card, 4),
		hands:        make(map[Seat][]deck.Card, 4),
		bids:         make(map[Seat]Bid, 4),
		teamBids:     make(map[Team]int, 2),
		multipliers:  make(map[Team]int, 2),
		trick:        NewTrick(),
		tricksWon:    make(map[Team]int, 2),
		rainbows:     make(map[Team]int, 2),
		scores:       map[Team]int{TeamOdd: 0, TeamEven: 0},
	}
	return s
}

// ID returns the session identifier
func (s *Session) ID() string { return s.id }

// Events returns the session's event bus
func (s *Session) Events() EventBus { return s.events }

// Phase returns the current phase
func (s *Session) Phase() Phase { return s.phase }

// Turn returns the seat currently on turn
func (s *Session) Turn() Seat { return s.turn }

// Dealer returns the current dealer seat
func (s *Session) Dealer() Seat { return s.dealer }

// HandSize returns the current hand size
func (s *Session) HandSize() int { return s.handSize }

// TrumpCard returns the revealed trump card for the current hand
func (s *Session) TrumpCard() deck.Card { return s.trumpCard }

// TrumpSuit returns the active trump suit
func (s *Session) TrumpSuit() deck.Suit { return s.trumpCard.Suit }

// TrumpBroken reports whether trump has been played this hand
func (s *Session) TrumpBroken() bool { return s.trumpBroken }

// TrickIndex returns the zero-based index of the trick in progress
func (s *Session) TrickIndex() int { return s.trickIndex }

// Hand returns a copy of a seat's current hand
func (s *Session) Hand(seat Seat) []deck.Card {
	hand := s.hands[seat]
	out := make([]deck.Card, len(hand))
	copy(out, hand)
	return out
}

// Bid returns the bid recorded for a seat this hand, if any
func (s *Session) Bid(seat Seat) (Bid, bool) {
	b, ok := s.bids[seat]
	return b, ok
}

// Bids returns a copy of all recorded bids
func (s *Session) Bids() map[Seat]Bid {
	out := make(map[Seat]Bid, len(s.bids))
	for seat, b := range s.bids {
		out[seat] = b
	}
	return out
}

// Trick returns the trick in progress
func (s *Session) Trick() *Trick { return s.trick }

// TricksWon returns a copy of the per-team trick counts for this hand
func (s *Session) TricksWon() map[Team]int {
	return map[Team]int{TeamOdd: s.tricksWon[TeamOdd], TeamEven: s.tricksWon[TeamEven]}
}

// Scores returns a copy of the running team scores
func (s *Session) Scores() map[Team]int {
	return map[Team]int{TeamOdd: s.scores[TeamOdd], TeamEven: s.scores[TeamEven]}
}

// SeatFor returns the seat assigned to a participant identity
func (s *Session) SeatFor(participantID string) (Seat, bool) {
	seat, ok := s.seatOf[participantID]
	return seat, ok
}

// ParticipantAt returns the participant originally assigned to a seat
func (s *Session) ParticipantAt(seat Seat) (Participant, bool) {
	p, ok := s.seated[seat]
	return p, ok
}

// Participants returns the participants in join order
func (s *Session) Participants() []Participant {
	out := make([]Participant, len(s.participants))
	copy(out, s.participants)
	return out
}

// DeckRemaining returns the number of undrawn cards during the opening
// draw phase
func (s *Session) DeckRemaining() int {
	if s.dck == nil {
		return 0
	}
	return s.dck.Remaining()
}

// HasDrawn reports whether a participant has already drawn
func (s *Session) HasDrawn(participantID string) bool {
	_, ok := s.drawn[participantID]
	return ok
}

// StartDraw moves the session from waiting to the opening draw
func (s *Session) StartDraw() error {
	if s.phase != PhaseWaiting {
		return fmt.Errorf("%w: phase is %s", ErrWrongPhase, s.phase)
	}
	s.dck = deck.New(s.rng)
	s.dck.Shuffle()
	s.phase = PhaseDrawing
	s.logger.Info("Opening draw started")
	return nil
}

// HandleDraw records one participant's draw from the spread deck. Once
// all four have drawn, seats are assigned via the draw ranking and the
// first hand is dealt.
func (s *Session) HandleDraw(participantID string, cardIndex int) error {
	if s.phase != PhaseDrawing {
		return fmt.Errorf("%w: phase is %s", ErrWrongPhase, s.phase)
	}
	if !s.isParticipant(participantID) {
		return ErrUnknownPlayer
	}
	if s.HasDrawn(participantID) {
		return ErrAlreadyDrawn
	}
	if cardIndex < 0 || cardIndex >= s.dck.Remaining() {
		return fmt.Errorf("%w: index %d out of range", ErrInvalidDraw, cardIndex)
	}

	card, ok := s.dck.DrawAt(cardIndex)
	if !ok {
		return ErrInvalidDraw
	}
	s.drawn[participantID] = card
	s.logger.Debug("Draw recorded", "participant", participantID, "card", card)

	if len(s.drawn) == 4 {
		s.assignSeats()
	}
	return nil
}

func (s *Session) isParticipant(id string) bool {
	for _, p := range s.participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

func (s *Session) assignSeats() {
	drawnCards := make([]deck.Card, 0, 4)
	for _, p := range s.participants {
		drawnCards = append(drawnCards, s.drawn[p.ID])
	}

	assignments := make(map[Seat]Participant, 4)
	drawnBySeat := make(map[Seat]deck.Card, 4)
	for _, p := range s.participants {
		card := s.drawn[p.ID]
		seat := DetermineDrawPosition(card, drawnCards)
		s.seatOf[p.ID] = seat
		s.seated[seat] = p
		assignments[seat] = p
		drawnBySeat[seat] = card
	}

	s.logger.Info("Seats assigned",
		"seat1", s.seated[Seat1].ID,
		"seat2", s.seated[Seat2].ID,
		"seat3", s.seated[Seat3].ID,
		"seat4", s.seated[Seat4].ID)

	s.events.Publish(SeatsAssignedEvent{
		Assignments: assignments,
		DrawnCards:  drawnBySeat,
		timestamp:   time.Now(),
	})

	s.dealer = Seat1
	s.handSize = FirstHandSize
	s.deal()
}

// deal starts a hand: fresh shuffled deck, handSize cards per seat,
// trump revealed from the remainder, bidding opens after the dealer.
func (s *Session) deal() {
	s.dck = deck.New(s.rng)
	s.dck.Shuffle()

	for _, seat := range Seats {
		s.hands[seat] = s.dck.DrawN(s.handSize)
	}
	trump, _ := s.dck.Draw()
	s.trumpCard = trump
	s.trumpBroken = false
	s.bids = make(map[Seat]Bid, 4)
	s.teamBids = make(map[Team]int, 2)
	s.multipliers = map[Team]int{TeamOdd: 1, TeamEven: 1}
	s.trick.Clear()
	s.trickIndex = 0
	s.cardsPlayed = 0
	s.tricksWon = map[Team]int{TeamOdd: 0, TeamEven: 0}
	s.rainbows = map[Team]int{TeamOdd: 0, TeamEven: 0}
	s.turn = s.dealer.Next()
	s.phase = PhaseBidding

	s.logger.Info("Hand dealt", "handSize", s.handSize, "dealer", s.dealer, "trump", trump)

	s.events.Publish(HandDealtEvent{
		HandSize:  s.handSize,
		Dealer:    s.dealer,
		FirstTurn: s.turn,
		Trump:     trump,
		Hands:     s.copyHands(),
		timestamp: time.Now(),
	})
}

func (s *Session) copyHands() map[Seat][]deck.Card {
	out := make(map[Seat][]deck.Card, 4)
	for _, seat := range Seats {
		out[seat] = s.Hand(seat)
	}
	return out
}

// HandleBid records a bid for the seat on turn. When the fourth bid
// lands, either every seat bid zero (redeal, same size and dealer) or
// play opens with the highest bidder on lead.
func (s *Session) HandleBid(seat Seat, bid Bid) error {
	if s.phase != PhaseBidding {
		return fmt.Errorf("%w: phase is %s", ErrWrongPhase, s.phase)
	}
	if !seat.Valid() {
		return ErrUnknownSeat
	}
	if seat != s.turn {
		return ErrNotYourTurn
	}
	if !bid.IsBoard() && (bid.Tricks < 0 || bid.Tricks > s.handSize) {
		return fmt.Errorf("%w: %s exceeds hand size %d", ErrInvalidBid, bid, s.handSize)
	}

	s.bids[seat] = bid
	s.turn = s.turn.Next()
	s.logger.Debug("Bid recorded", "seat", seat, "bid", bid)

	s.events.Publish(BidRecordedEvent{
		Seat:      seat,
		Bid:       bid,
		NextTurn:  s.turn,
		timestamp: time.Now(),
	})

	if len(s.bids) == 4 {
		s.finishBidding()
	}
	return nil
}

// finishBidding resolves team bids, handles the all-zero redeal, flags
// rainbow hands on size-4 deals and opens play.
func (s *Session) finishBidding() {
	allZero := true
	for _, b := range s.bids {
		if !b.IsZero() {
			allZero = false
			break
		}
	}
	if allZero {
		s.logger.Info("All seats bid zero, redealing", "handSize", s.handSize)
		s.events.Publish(RedealEvent{
			HandSize:  s.handSize,
			Dealer:    s.dealer,
			timestamp: time.Now(),
		})
		s.deal()
		return
	}

	for _, team := range Teams {
		seats := team.Seats()
		b1, b2 := s.bids[seats[0]], s.bids[seats[1]]
		s.multipliers[team] = CalculateMultiplier(b1, b2)

		total := 0
		for _, b := range []Bid{b1, b2} {
			if b.IsBoard() {
				total += s.handSize
			} else {
				total += b.Tricks
			}
		}
		// A combined bid above the hand size is a shoot: capped at the
		// hand size and scored at board odds.
		if total > s.handSize {
			total = s.handSize
			if s.multipliers[team] < Board.Multiplier() {
				s.multipliers[team] = Board.Multiplier()
			}
		}
		s.teamBids[team] = total
	}

	if s.handSize == 4 {
		for _, seat := range Seats {
			if HasRainbow(s.hands[seat], s.TrumpSuit()) {
				s.rainbows[seat.Team()]++
				s.logger.Info("Rainbow hand flagged", "seat", seat)
				s.events.Publish(RainbowFlaggedEvent{Seat: seat, timestamp: time.Now()})
			}
		}
	}

	leader := FindHighestBidder(s.dealer.Next(), s.bids)
	s.turn = leader
	s.phase = PhasePlaying

	s.logger.Info("Bidding complete",
		"teamBids", fmt.Sprintf("%d/%d", s.teamBids[TeamOdd], s.teamBids[TeamEven]),
		"leader", leader)

	s.events.Publish(BiddingCompleteEvent{
		Bids:        s.Bids(),
		TeamBids:    map[Team]int{TeamOdd: s.teamBids[TeamOdd], TeamEven: s.teamBids[TeamEven]},
		Multipliers: map[Team]int{TeamOdd: s.multipliers[TeamOdd], TeamEven: s.multipliers[TeamEven]},
		Leader:      leader,
		timestamp:   time.Now(),
	})
}

// HandlePlay validates and applies one card play. Validation happens
// before any mutation so a rejection leaves the hand and trick exactly
// as they were.
func (s *Session) HandlePlay(seat Seat, card deck.Card) error {
	if s.phase != PhasePlaying {
		return fmt.Errorf("%w: phase is %s", ErrWrongPhase, s.phase)
	}
	if !seat.Valid() {
		return ErrUnknownSeat
	}
	if seat != s.turn {
		return ErrNotYourTurn
	}

	hand := s.hands[seat]
	idx := -1
	for i, c := range hand {
		if c == card {
			idx = i
			break
		}
	}
	if idx < 0 {
		return ErrNotInHand
	}

	isLeading := s.trick.Count() == 0
	lead, _ := s.trick.LeadCard()
	if !IsLegalMove(card, hand, lead, isLeading, s.TrumpSuit(), s.trumpBroken, seat, s.trick.LeadSeat()) {
		return fmt.Errorf("%w: %s", ErrIllegalMove, card)
	}

	// Validation passed: all mutations below happen together.
	s.hands[seat] = append(hand[:idx], hand[idx+1:]...)
	if isLeading {
		s.trick.Lead(seat, card)
	} else {
		s.trick.Play(seat, card)
	}
	if IsTrumpCard(card, s.TrumpSuit()) {
		s.trumpBroken = true
	}
	s.cardsPlayed++

	trickComplete := s.trick.Complete()
	if !trickComplete {
		s.turn = s.turn.Next()
	}

	s.events.Publish(CardPlayedEvent{
		Seat:        seat,
		Card:        card,
		LeadSeat:    s.trick.LeadSeat(),
		TrickIndex:  s.trickIndex,
		TrumpBroken: s.trumpBroken,
		NextTurn:    s.turn,
		timestamp:   time.Now(),
	})

	if trickComplete {
		s.resolveTrick()
	}
	return nil
}

func (s *Session) resolveTrick() {
	winner := DetermineWinner(s.trick, s.TrumpSuit())
	s.tricksWon[winner.Team()]++
	cards := s.trick.Cards()
	s.trick.Clear()
	s.turn = winner

	s.logger.Debug("Trick complete", "winner", winner, "trick", s.trickIndex)

	s.events.Publish(TrickCompleteEvent{
		Winner:     winner,
		Cards:      cards,
		TrickIndex: s.trickIndex,
		TricksWon:  s.TricksWon(),
		timestamp:  time.Now(),
	})
	s.trickIndex++

	if s.cardsPlayed == s.handSize*4 {
		s.scoreHand()
	}
}

// scoreHand applies the scoring arithmetic, advances the dealer and
// either parks the session in the scoring phase (awaiting the next
// deal) or ends the game after the terminal 13-card hand.
func (s *Session) scoreHand() {
	handScores := make(map[Team]int, 2)
	for _, team := range Teams {
		handScores[team] = CalculateScore(
			s.teamBids[team],
			s.tricksWon[team],
			s.multipliers[team],
			s.rainbows[team],
		)
		s.scores[team] += handScores[team]
	}

	s.dealer = s.dealer.Next()
	next, ok := NextHandSize(s.handSize)

	s.logger.Info("Hand scored",
		"handSize", s.handSize,
		"scores", fmt.Sprintf("%d/%d", s.scores[TeamOdd], s.scores[TeamEven]),
		"nextHandSize", next)

	s.events.Publish(HandCompleteEvent{
		HandSize:     s.handSize,
		HandScores:   handScores,
		TotalScores:  s.Scores(),
		TricksWon:    s.TricksWon(),
		TeamBids:     map[Team]int{TeamOdd: s.teamBids[TeamOdd], TeamEven: s.teamBids[TeamEven]},
		NextHandSize: next,
		Final:        !ok,
		timestamp:    time.Now(),
	})

	if !ok {
		s.phase = PhaseDone
		winner := TeamOdd
		if s.scores[TeamEven] > s.scores[TeamOdd] {
			winner = TeamEven
		}
		s.events.Publish(GameEndedEvent{
			FinalScores: s.Scores(),
			Winner:      winner,
			timestamp:   time.Now(),
		})
		return
	}

	s.handSize = next
	s.phase = PhaseScoring
}

// BeginNextHand deals the next hand after scoring. The caller owns the
// pacing; the session just refuses to deal in any other phase.
func (s *Session) BeginNextHand() error {
	if s.phase != PhaseScoring {
		return fmt.Errorf("%w: phase is %s", ErrWrongPhase, s.phase)
	}
	s.deal()
	return nil
}

// Abort terminates the session early, e.g. when no human seat remains
// reachable.
func (s *Session) Abort(reason string) {
	if s.phase == PhaseDone {
		return
	}
	s.phase = PhaseDone
	s.logger.Warn("Session aborted", "reason", reason)
	s.events.Publish(GameEndedEvent{
		FinalScores: s.Scores(),
		Aborted:     true,
		Reason:      reason,
		timestamp:   time.Now(),
	})
}

// Snapshot captures the full state visible to one seat, used to
// rehydrate a reconnecting client.
type Snapshot struct {
	SessionID   string
	Seat        Seat
	Phase       Phase
	HandSize    int
	Dealer      Seat
	Turn        Seat
	Trump       deck.Card
	TrumpBroken bool
	Hand        []deck.Card
	Bids        map[Seat]Bid
	TrickCards  map[Seat]deck.Card
	TrickLead   Seat
	TrickIndex  int
	TricksWon   map[Team]int
	Scores      map[Team]int
	Seating     map[Seat]string
}

// Snapshot returns the state visible to the given seat
func (s *Session) Snapshot(seat Seat) Snapshot {
	seating := make(map[Seat]string, 4)
	for at, p := range s.seated {
		seating[at] = p.ID
	}
	return Snapshot{
		SessionID:   s.id,
		Seat:        seat,
		Phase:       s.phase,
		HandSize:    s.handSize,
		Dealer:      s.dealer,
		Turn:        s.turn,
		Trump:       s.trumpCard,
		TrumpBroken: s.trumpBroken,
		Hand:        s.Hand(seat),
		Bids:        s.Bids(),
		TrickCards:  s.trick.Cards(),
		TrickLead:   s.trick.LeadSeat(),
		TrickIndex:  s.trickIndex,
		TricksWon:   s.TricksWon(),
		Scores:      s.Scores(),
		Seating:     seating,
	}
}
