package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

func TestChooseCardCheapestBeater(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat2)
	trump := c(deck.Spades, deck.Five)

	trick := game.NewTrick()
	trick.Lead(game.Seat1, c(deck.Hearts, deck.Queen))

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Hearts, deck.Ten),
			c(deck.Hearts, deck.King),
			c(deck.Hearts, deck.Ace),
			c(deck.Clubs, deck.Three),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    trick,
	})
	assert.Equal(t, c(deck.Hearts, deck.King), card, "beat the queen as cheaply as possible")
}

func TestChooseCardLowUnderWinningPartner(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat3)
	trump := c(deck.Spades, deck.Five)

	// Seat1 is Seat3's partner and holds the trick
	trick := game.NewTrick()
	trick.Lead(game.Seat1, c(deck.Hearts, deck.Ace))
	trick.Play(game.Seat2, c(deck.Hearts, deck.Three))

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Hearts, deck.Ten),
			c(deck.Hearts, deck.King),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    trick,
	})
	assert.Equal(t, c(deck.Hearts, deck.Ten), card)
}

func TestChooseCardTrumpsWhenVoid(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat2)
	trump := c(deck.Spades, deck.Five)

	trick := game.NewTrick()
	trick.Lead(game.Seat1, c(deck.Hearts, deck.Ace))

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Spades, deck.Three),
			c(deck.Spades, deck.Nine),
			c(deck.Clubs, deck.Four),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    trick,
	})
	assert.Equal(t, c(deck.Spades, deck.Three), card, "cheapest trump takes the trick")
}

func TestChooseCardDiscardProtectsHonours(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat2)
	trump := c(deck.Diamonds, deck.Five)

	trick := game.NewTrick()
	trick.Lead(game.Seat1, c(deck.Hearts, deck.Ace))

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Spades, deck.Ace),
			c(deck.Clubs, deck.Three),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    trick,
	})
	assert.Equal(t, c(deck.Clubs, deck.Three), card, "keep the unplayed ace")
}

func TestChooseCardLeadsHiJokerFirst(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat1)
	trump := c(deck.Hearts, deck.Five)

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Clubs, deck.Two),
			c(deck.Jokers, deck.JokerHi),
			c(deck.Hearts, deck.Ace),
		},
		HandSize:    12,
		Trump:       trump,
		TrumpBroken: true,
		Trick:       game.NewTrick(),
	})
	assert.Equal(t, c(deck.Jokers, deck.JokerHi), card)
}

func TestChooseCardLeadsShortestSuit(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat1)
	trump := c(deck.Hearts, deck.Five)

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Spades, deck.Ace),
			c(deck.Spades, deck.Four),
			c(deck.Diamonds, deck.Nine),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    game.NewTrick(),
	})
	assert.Equal(t, c(deck.Diamonds, deck.Nine), card, "lead from the shortest off-trump suit")
}

func TestChooseCardLeadsSuitAce(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat1)
	trump := c(deck.Hearts, deck.Five)

	card := b.ChooseCard(PlayRequest{
		Hand: []deck.Card{
			c(deck.Diamonds, deck.Ace),
			c(deck.Diamonds, deck.Four),
			c(deck.Spades, deck.Two),
			c(deck.Spades, deck.Six),
			c(deck.Spades, deck.Nine),
		},
		HandSize: 12,
		Trump:    trump,
		Trick:    game.NewTrick(),
	})
	assert.Equal(t, c(deck.Diamonds, deck.Ace), card, "cash the ace of the lead suit")
}

func TestChooseCardLoneKingWaitsForAce(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat1)
	trumpCard := c(deck.Diamonds, deck.Five)
	b.OnEvent(game.HandDealtEvent{HandSize: 12, Trump: trumpCard})

	hand := []deck.Card{
		c(deck.Spades, deck.King),
		c(deck.Hearts, deck.Seven),
		c(deck.Hearts, deck.Eight),
		c(deck.Hearts, deck.Nine),
	}
	req := PlayRequest{Hand: hand, HandSize: 12, Trump: trumpCard, Trick: game.NewTrick()}

	// Ace of spades still out: don't expose the lone king
	assert.Equal(t, c(deck.Hearts, deck.Seven), b.ChooseCard(req))

	// Once the ace has been seen the king is the best lead
	b.OnEvent(game.CardPlayedEvent{
		Seat:     game.Seat2,
		Card:     c(deck.Spades, deck.Ace),
		LeadSeat: game.Seat2,
	})
	assert.Equal(t, c(deck.Spades, deck.King), b.ChooseCard(req))
}

func TestChooseCardNeverIllegal(t *testing.T) {
	b := newTestBot(t, Neutral, game.Seat2)
	trump := c(deck.Spades, deck.Five)

	// Must follow hearts despite holding better cards elsewhere
	trick := game.NewTrick()
	trick.Lead(game.Seat1, c(deck.Hearts, deck.Four))

	hand := []deck.Card{
		c(deck.Hearts, deck.Two),
		c(deck.Spades, deck.Ace),
		c(deck.Jokers, deck.JokerHi),
	}
	card := b.ChooseCard(PlayRequest{
		Hand: hand, HandSize: 12, Trump: trump, Trick: trick,
	})
	assert.Equal(t, c(deck.Hearts, deck.Two), card)
}
