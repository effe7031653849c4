package bot

import (
	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// Hand evaluation assigns each card an expected-trick value. High
// off-suit cards are worth almost nothing on tiny hands (too few
// tricks for them to set up) and near full value on 12+ card hands;
// jokers and trump honours hold their value at every size.

// sizeScale maps hand size onto 0..1, saturating at 12 cards
func sizeScale(handSize int) float64 {
	s := float64(handSize) / 12.0
	if s > 1 {
		return 1
	}
	return s
}

func trumpCardPoints(rank deck.Rank) float64 {
	switch rank {
	case deck.JokerHi:
		return 1.0
	case deck.JokerLo:
		return 0.95
	case deck.Ace:
		return 0.95
	case deck.King:
		return 0.8
	case deck.Queen:
		return 0.65
	case deck.Jack:
		return 0.5
	default:
		return 0.3
	}
}

func offsuitPoints(rank deck.Rank, scale float64) float64 {
	switch rank {
	case deck.Ace:
		return 0.9 * scale
	case deck.King:
		return 0.6 * scale
	case deck.Queen:
		return 0.25 * scale
	default:
		return 0
	}
}

// noTrumpPoints is the flatter table used when the revealed trump card
// is a joker and only the jokers themselves are trump.
func noTrumpPoints(card deck.Card, handSize int) float64 {
	if card.IsJoker() {
		return trumpCardPoints(card.Rank)
	}
	scale := 0.5 + 0.5*sizeScale(handSize)
	switch card.Rank {
	case deck.Ace:
		return 0.85 * scale
	case deck.King:
		return 0.55 * scale
	case deck.Queen:
		return 0.3 * scale
	case deck.Jack:
		return 0.15 * scale
	default:
		return 0
	}
}

// EvaluateHand estimates the number of tricks a hand should take with
// the given trump. The result is fractional; bidding floors it.
func EvaluateHand(hand []deck.Card, trump deck.Suit, handSize int) float64 {
	noTrump := trump == deck.Jokers
	scale := sizeScale(handSize)

	points := 0.0
	trumpCount := 0
	var loneTrump *deck.Card
	for i, card := range hand {
		if game.IsTrumpCard(card, trump) {
			trumpCount++
			loneTrump = &hand[i]
		}
		if noTrump {
			points += noTrumpPoints(card, handSize)
		} else if game.IsTrumpCard(card, trump) {
			points += trumpCardPoints(card.Rank)
		} else {
			points += offsuitPoints(card.Rank, scale)
		}
	}

	// Voids only matter when there is trump to ruff with.
	voidBonus := 0.25 * float64(min(trumpCount, 4))
	for suit := deck.Spades; suit <= deck.Clubs; suit++ {
		if suit == trump {
			continue
		}
		if !hasSuit(hand, suit) {
			points += voidBonus
		}
	}

	// A single trump on a big hand will usually be drawn out early.
	if !noTrump && handSize >= 8 && trumpCount == 1 && !loneTrump.IsJoker() {
		points -= trumpCardPoints(loneTrump.Rank) / 2
	}

	if points < 0 {
		points = 0
	}
	return points
}

func hasSuit(hand []deck.Card, suit deck.Suit) bool {
	for _, c := range hand {
		if c.Suit == suit {
			return true
		}
	}
	return false
}

func countTrump(hand []deck.Card, trump deck.Suit) int {
	n := 0
	for _, c := range hand {
		if game.IsTrumpCard(c, trump) {
			n++
		}
	}
	return n
}

func countJokers(hand []deck.Card) int {
	n := 0
	for _, c := range hand {
		if c.IsJoker() {
			n++
		}
	}
	return n
}

func holdsCard(hand []deck.Card, card deck.Card) bool {
	for _, c := range hand {
		if c == card {
			return true
		}
	}
	return false
}
