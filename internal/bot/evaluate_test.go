package bot

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"jokerwhist/internal/deck"
)

func c(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.NewCard(suit, rank)
}

func TestEvaluateHandJokersHoldValue(t *testing.T) {
	hand := []deck.Card{
		c(deck.Jokers, deck.JokerHi),
		c(deck.Jokers, deck.JokerLo),
	}

	// Jokers are near one trick each at any hand size
	for _, size := range []int{1, 4, 12} {
		points := EvaluateHand(hand, deck.Hearts, size)
		assert.GreaterOrEqual(t, points, 1.9, "size %d", size)
	}
}

func TestEvaluateHandOffsuitScalesWithSize(t *testing.T) {
	hand := []deck.Card{c(deck.Spades, deck.Ace)}
	trump := deck.Hearts

	big := EvaluateHand(hand, trump, 12)
	small := EvaluateHand(hand, trump, 2)
	assert.Greater(t, big, small, "offsuit aces are worth more on big hands")
	assert.InDelta(t, 0.9, big, 0.001)
}

func TestEvaluateHandTrumpHonours(t *testing.T) {
	trump := deck.Hearts
	aceHigh := EvaluateHand([]deck.Card{c(deck.Hearts, deck.Ace)}, trump, 12)
	kingHigh := EvaluateHand([]deck.Card{c(deck.Hearts, deck.King)}, trump, 12)
	low := EvaluateHand([]deck.Card{c(deck.Hearts, deck.Two)}, trump, 12)

	assert.Greater(t, aceHigh, kingHigh)
	assert.Greater(t, kingHigh, low)
}

func TestEvaluateHandVoidBonusNeedsTrump(t *testing.T) {
	trump := deck.Hearts

	// Spade void with trump to ruff
	withTrump := []deck.Card{
		c(deck.Hearts, deck.Seven),
		c(deck.Hearts, deck.Eight),
		c(deck.Hearts, deck.Nine),
		c(deck.Diamonds, deck.Three),
		c(deck.Clubs, deck.Three),
	}
	// Same shape without any trump
	without := []deck.Card{
		c(deck.Diamonds, deck.Seven),
		c(deck.Diamonds, deck.Eight),
		c(deck.Diamonds, deck.Nine),
		c(deck.Diamonds, deck.Three),
		c(deck.Clubs, deck.Three),
	}

	assert.Greater(t, EvaluateHand(withTrump, trump, 5), EvaluateHand(without, trump, 5))
}

func TestEvaluateHandLoneTrumpPenalty(t *testing.T) {
	trump := deck.Hearts
	lone := []deck.Card{
		c(deck.Hearts, deck.King),
		c(deck.Spades, deck.Four),
		c(deck.Spades, deck.Five),
		c(deck.Spades, deck.Six),
		c(deck.Diamonds, deck.Four),
		c(deck.Diamonds, deck.Five),
		c(deck.Diamonds, deck.Six),
		c(deck.Clubs, deck.Four),
	}

	// The same king among other trump keeps its full value
	supported := append([]deck.Card{c(deck.Hearts, deck.Three)}, lone...)

	lonePoints := EvaluateHand(lone, trump, 8)
	supportedPoints := EvaluateHand(supported, trump, 9)
	assert.Greater(t, supportedPoints-lonePoints, trumpCardPoints(deck.Three))
}

func TestEvaluateHandNoTrumpFlattens(t *testing.T) {
	// A joker turned as trump makes the hand no-trump
	trump := deck.Jokers
	hand := []deck.Card{
		c(deck.Spades, deck.Ace),
		c(deck.Hearts, deck.King),
		c(deck.Jokers, deck.JokerHi),
	}

	points := EvaluateHand(hand, trump, 12)
	// Joker full value plus flattened honours
	assert.Greater(t, points, 1.0)
	assert.Less(t, points, 3.0)
}

func TestEvaluateHandNeverNegative(t *testing.T) {
	hand := []deck.Card{c(deck.Hearts, deck.Two)}
	assert.GreaterOrEqual(t, EvaluateHand(hand, deck.Hearts, 8), 0.0)
}
