package bot

import (
	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// SeenCard records one observed play
type SeenCard struct {
	Card  deck.Card
	Seat  game.Seat
	Trick int
}

// Memory is a bot's private view of the hand in progress: which cards
// have been seen, which seats have shown void in a suit, and which
// aces and trump are gone. Reset at every deal.
type Memory struct {
	seen       []SeenCard
	seenSet    map[deck.Card]bool
	voids      map[game.Seat]map[deck.Suit]bool
	acesPlayed map[deck.Suit]bool
	trumpSeen  int
	trickWins  map[game.Seat]int
}

// NewMemory creates an empty memory
func NewMemory() *Memory {
	m := &Memory{}
	m.Reset()
	return m
}

// Reset clears everything for a new hand
func (m *Memory) Reset() {
	m.seen = m.seen[:0]
	m.seenSet = make(map[deck.Card]bool)
	m.voids = make(map[game.Seat]map[deck.Suit]bool)
	m.acesPlayed = make(map[deck.Suit]bool)
	m.trumpSeen = 0
	m.trickWins = make(map[game.Seat]int)
}

// ObservePlay records one card hitting the table. leadSuit is the
// effective suit of the trick's lead card; pass the card's own
// effective suit when the observed play is the lead itself.
func (m *Memory) ObservePlay(seat game.Seat, card deck.Card, leadSuit, trump deck.Suit, trickIndex int) {
	if m.seenSet[card] {
		return
	}
	m.seen = append(m.seen, SeenCard{Card: card, Seat: seat, Trick: trickIndex})
	m.seenSet[card] = true

	if card.IsAce() {
		m.acesPlayed[card.Suit] = true
	}
	if game.IsTrumpCard(card, trump) {
		m.trumpSeen++
	}

	// A seat that doesn't follow the lead suit is void in it.
	if game.EffectiveSuit(card, trump) != leadSuit {
		if m.voids[seat] == nil {
			m.voids[seat] = make(map[deck.Suit]bool)
		}
		m.voids[seat][leadSuit] = true
	}
}

// ObserveTrickWin credits a trick to a seat
func (m *Memory) ObserveTrickWin(seat game.Seat) {
	m.trickWins[seat]++
}

// Seen reports whether a card has been observed this hand
func (m *Memory) Seen(card deck.Card) bool {
	return m.seenSet[card]
}

// SeenCards returns the observed plays in order
func (m *Memory) SeenCards() []SeenCard {
	out := make([]SeenCard, len(m.seen))
	copy(out, m.seen)
	return out
}

// AcePlayed reports whether the ace of a suit has been seen
func (m *Memory) AcePlayed(suit deck.Suit) bool {
	return m.acesPlayed[suit]
}

// VoidIn reports whether a seat has shown void in a suit
func (m *Memory) VoidIn(seat game.Seat, suit deck.Suit) bool {
	return m.voids[seat][suit]
}

// TrumpSeen returns how many trump cards have been observed
func (m *Memory) TrumpSeen() int {
	return m.trumpSeen
}

// TrickWins returns the tricks a seat has taken this hand
func (m *Memory) TrickWins(seat game.Seat) int {
	return m.trickWins[seat]
}
