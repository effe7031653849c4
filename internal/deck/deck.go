package deck

import rand "math/rand/v2"

// Size is the number of cards in a full deck: 52 standard plus the HI
// and LO jokers.
const Size = 54

// Deck represents a shuffled deck of 54 playing cards
type Deck struct {
	cards []Card
	rng   *rand.Rand
}

// New creates a full 54-card deck using the provided random source for
// shuffling. The deck is created in sorted order; call Shuffle before
// dealing.
func New(rng *rand.Rand) *Deck {
	d := &Deck{
		cards: make([]Card, 0, Size),
		rng:   rng,
	}
	d.fill()
	return d
}

func (d *Deck) fill() {
	for suit := Spades; suit <= Clubs; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.cards = append(d.cards, NewCard(suit, rank))
		}
	}
	d.cards = append(d.cards, NewCard(Jokers, JokerLo), NewCard(Jokers, JokerHi))
}

// Shuffle randomizes the order of cards in the deck
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.cards), func(i, j int) {
		d.cards[i], d.cards[j] = d.cards[j], d.cards[i]
	})
}

// Draw removes and returns the top card from the deck
func (d *Deck) Draw() (Card, bool) {
	if len(d.cards) == 0 {
		return Card{}, false
	}
	card := d.cards[0]
	d.cards = d.cards[1:]
	return card, true
}

// DrawAt removes and returns the card at the given index. Used during
// the seat draw, where each player picks a card from the spread deck.
func (d *Deck) DrawAt(i int) (Card, bool) {
	if i < 0 || i >= len(d.cards) {
		return Card{}, false
	}
	card := d.cards[i]
	d.cards = append(d.cards[:i], d.cards[i+1:]...)
	return card, true
}

// DrawN deals n cards from the deck
func (d *Deck) DrawN(n int) []Card {
	if n > len(d.cards) {
		n = len(d.cards)
	}
	cards := make([]Card, 0, n)
	for i := 0; i < n; i++ {
		card, ok := d.Draw()
		if !ok {
			break
		}
		cards = append(cards, card)
	}
	return cards
}

// Remaining returns the number of cards left in the deck
func (d *Deck) Remaining() int {
	return len(d.cards)
}

// Reset restores the deck to the full 54 cards and shuffles it
func (d *Deck) Reset() {
	d.cards = d.cards[:0]
	d.fill()
	d.Shuffle()
}
