package game

import "jokerwhist/internal/deck"

// Trick holds the cards played to the current trick, one optional slot
// per seat. Cleared after resolution.
type Trick struct {
	cards    [4]*deck.Card
	leadSeat Seat
	leadCard *deck.Card
}

// NewTrick creates an empty trick
func NewTrick() *Trick {
	return &Trick{}
}

// Lead records the opening card of the trick
func (t *Trick) Lead(seat Seat, card deck.Card) {
	t.leadSeat = seat
	c := card
	t.leadCard = &c
	t.cards[seat.index()] = &c
}

// Play records a follow card for a seat. Returns false if the seat has
// already played to this trick or no lead has been made.
func (t *Trick) Play(seat Seat, card deck.Card) bool {
	if t.leadCard == nil || t.cards[seat.index()] != nil {
		return false
	}
	c := card
	t.cards[seat.index()] = &c
	return true
}

// Card returns the card played by a seat, if any
func (t *Trick) Card(seat Seat) (deck.Card, bool) {
	c := t.cards[seat.index()]
	if c == nil {
		return deck.Card{}, false
	}
	return *c, true
}

// LeadSeat returns the seat that led the trick
func (t *Trick) LeadSeat() Seat {
	return t.leadSeat
}

// LeadCard returns the card that led the trick, if any
func (t *Trick) LeadCard() (deck.Card, bool) {
	if t.leadCard == nil {
		return deck.Card{}, false
	}
	return *t.leadCard, true
}

// Count returns the number of cards played to the trick so far
func (t *Trick) Count() int {
	n := 0
	for _, c := range t.cards {
		if c != nil {
			n++
		}
	}
	return n
}

// Complete reports whether all four seats have played
func (t *Trick) Complete() bool {
	return t.Count() == 4
}

// Clear empties the trick for the next lead
func (t *Trick) Clear() {
	t.cards = [4]*deck.Card{}
	t.leadSeat = 0
	t.leadCard = nil
}

// Cards returns the played cards keyed by seat
func (t *Trick) Cards() map[Seat]deck.Card {
	out := make(map[Seat]deck.Card, 4)
	for _, seat := range Seats {
		if c, ok := t.Card(seat); ok {
			out[seat] = c
		}
	}
	return out
}
