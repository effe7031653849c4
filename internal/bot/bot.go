package bot

import (
	"math"
	rand "math/rand/v2"

	"github.com/charmbracelet/log"

	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// adaptiveWindow is how many completed hands of partner history feed
// the adaptive personality's rolling average.
const adaptiveWindow = 5

// Bot plays one seat. It keeps a per-hand memory of observed cards and
// a cross-hand history of its partner's bidding accuracy, and never
// proposes a card that fails the legality rules.
//
// Bots learn about the game by subscribing to the session's event bus;
// the HandDealtEvent carries every seat's cards, but a bot only ever
// reads its own.
type Bot struct {
	seat        game.Seat
	personality Personality
	mem         *Memory
	rng         *rand.Rand
	logger      *log.Logger

	trump       deck.Card
	handSize    int
	curLeadSuit deck.Suit

	partnerBid      int
	partnerBidKnown bool
	partnerDiffs    []int
}

// New creates a bot. The bot has no seat until the opening draw
// resolves; call Sit once seats are assigned.
func New(personality Personality, rng *rand.Rand, logger *log.Logger) *Bot {
	return &Bot{
		personality: personality,
		mem:         NewMemory(),
		rng:         rng,
		logger:      logger.WithPrefix("bot").With("personality", personality),
	}
}

// Sit assigns the bot its seat after the opening draw
func (b *Bot) Sit(seat game.Seat) {
	b.seat = seat
	b.logger = b.logger.With("seat", seat)
}

// Seat returns the seat the bot plays
func (b *Bot) Seat() game.Seat { return b.seat }

// Memory exposes the bot's card memory, mainly for tests
func (b *Bot) Memory() *Memory { return b.mem }

// OnEvent implements game.EventSubscriber and keeps the bot's memory
// and partner history current.
func (b *Bot) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.HandDealtEvent:
		b.mem.Reset()
		b.trump = e.Trump
		b.handSize = e.HandSize
		b.partnerBidKnown = false

	case game.BidRecordedEvent:
		if e.Seat == b.seat.Partner() {
			b.partnerBidKnown = !e.Bid.IsBoard()
			b.partnerBid = e.Bid.Tricks
		}

	case game.CardPlayedEvent:
		if e.Seat == e.LeadSeat {
			b.curLeadSuit = game.EffectiveSuit(e.Card, b.trump.Suit)
		}
		b.mem.ObservePlay(e.Seat, e.Card, b.curLeadSuit, b.trump.Suit, e.TrickIndex)

	case game.TrickCompleteEvent:
		b.mem.ObserveTrickWin(e.Winner)

	case game.HandCompleteEvent:
		if b.partnerBidKnown {
			diff := b.mem.TrickWins(b.seat.Partner()) - b.partnerBid
			b.partnerDiffs = append(b.partnerDiffs, diff)
		}
	}
}

// ChooseDraw picks a card index for the opening seat draw
func (b *Bot) ChooseDraw(remaining int) int {
	if remaining <= 1 {
		return 0
	}
	return b.rng.IntN(remaining)
}

// BidRequest carries everything a bot needs to bid
type BidRequest struct {
	Hand      []deck.Card
	HandSize  int
	Trump     deck.Card
	TableBids map[game.Seat]game.Bid
}

// ChooseBid evaluates the hand and applies the bot's personality and
// partner coordination.
func (b *Bot) ChooseBid(req BidRequest) game.Bid {
	trump := req.Trump.Suit
	points := EvaluateHand(req.Hand, trump, req.HandSize)
	trumpCount := countTrump(req.Hand, trump)
	jokers := countJokers(req.Hand)
	trumpAce := !req.Trump.IsJoker() && holdsCard(req.Hand, deck.NewCard(trump, deck.Ace))

	partnerBid, partnerKnown := req.TableBids[b.seat.Partner()]

	// A monster hand bids the board outright.
	if points >= 8 && trumpCount >= 6 && jokers == 2 {
		b.logger.Debug("Bidding board", "points", points, "trump", trumpCount)
		return game.BoardBid(game.Board)
	}

	// Tiny hands: partners holding a board on the table can jointly
	// escalate when the hand has real stopping power.
	if req.HandSize <= 2 && partnerKnown && partnerBid.Tier == game.Board && (jokers > 0 || trumpAce) {
		return game.BoardBid(game.DoubleBoard)
	}

	bid := int(math.Floor(points))

	switch b.personality {
	case Conservative:
		if points >= 5 {
			bid -= 1 + b.rng.IntN(2)
		}
	case Aggressive:
		frac := points - math.Floor(points)
		if frac >= 0.75 && !(bid == 0 && req.HandSize <= 4) {
			bid++
		}
	case Overconfident:
		if b.rng.IntN(2) == 0 {
			bid++
		}
	case Adaptive:
		bid += b.adaptiveShift()
	}

	// On one and two card hands only a joker or the trump ace is a
	// trick you can count on.
	if req.HandSize <= 2 && bid > 0 && jokers == 0 && !trumpAce {
		bid = 0
	}

	// Keep the team total inside the hand size.
	if partnerKnown && !partnerBid.IsBoard() && bid+partnerBid.Tricks > req.HandSize {
		bid = req.HandSize - partnerBid.Tricks
	}

	if bid < 0 {
		bid = 0
	}
	if bid > req.HandSize {
		bid = req.HandSize
	}

	b.logger.Debug("Bid chosen", "points", points, "bid", bid)
	return game.NumericBid(bid)
}

// adaptiveShift nudges the bid by the partner's recent (tricks - bid)
// average. Needs at least two hands of history.
func (b *Bot) adaptiveShift() int {
	if len(b.partnerDiffs) < 2 {
		return 0
	}
	window := b.partnerDiffs
	if len(window) > adaptiveWindow {
		window = window[len(window)-adaptiveWindow:]
	}
	sum := 0
	for _, d := range window {
		sum += d
	}
	avg := float64(sum) / float64(len(window))
	switch {
	case avg >= 0.5:
		return 1
	case avg <= -0.5:
		return -1
	default:
		return 0
	}
}
