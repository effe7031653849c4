package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jokerwhist/internal/deck"
)

func card(suit deck.Suit, rank deck.Rank) deck.Card {
	return deck.NewCard(suit, rank)
}

func TestHandSizeProgression(t *testing.T) {
	assert.Equal(t, 12, FirstHandSize)
	assert.Equal(t, 13, HandSizes[len(HandSizes)-1])

	// Every descending size pairs with the size six hands later to 13:
	// 12+1, 10+3, 8+5, 6+7, 4+9, 2+11.
	for i := 0; i < 6; i++ {
		assert.Equal(t, 13, HandSizes[i]+HandSizes[i+6])
	}

	next, ok := NextHandSize(12)
	require.True(t, ok)
	assert.Equal(t, 10, next)

	next, ok = NextHandSize(1)
	require.True(t, ok)
	assert.Equal(t, 3, next)

	_, ok = NextHandSize(13)
	assert.False(t, ok, "13 is the terminal hand")

	_, ok = NextHandSize(42)
	assert.False(t, ok)
}

func TestEffectiveSuit(t *testing.T) {
	assert.Equal(t, deck.Hearts, EffectiveSuit(card(deck.Hearts, deck.Seven), deck.Spades))
	assert.Equal(t, deck.Spades, EffectiveSuit(card(deck.Jokers, deck.JokerHi), deck.Spades))
	assert.Equal(t, deck.Spades, EffectiveSuit(card(deck.Jokers, deck.JokerLo), deck.Spades))
}

func TestIsTrumpTight(t *testing.T) {
	assert.True(t, IsTrumpTight([]deck.Card{
		card(deck.Hearts, deck.Two),
		card(deck.Jokers, deck.JokerLo),
	}, deck.Hearts))

	assert.False(t, IsTrumpTight([]deck.Card{
		card(deck.Hearts, deck.Two),
		card(deck.Clubs, deck.Ace),
	}, deck.Hearts))

	assert.False(t, IsTrumpTight(nil, deck.Hearts))
}

func TestDetermineWinner(t *testing.T) {
	trump := deck.Hearts

	tests := []struct {
		name   string
		lead   Seat
		plays  map[Seat]deck.Card
		winner Seat
	}{
		{
			name: "highest of lead suit wins without trump",
			lead: Seat1,
			plays: map[Seat]deck.Card{
				Seat1: card(deck.Spades, deck.King),
				Seat2: card(deck.Spades, deck.Ace),
				Seat3: card(deck.Spades, deck.Two),
				Seat4: card(deck.Diamonds, deck.Ace),
			},
			winner: Seat2,
		},
		{
			name: "low trump beats high lead suit",
			lead: Seat2,
			plays: map[Seat]deck.Card{
				Seat2: card(deck.Spades, deck.Ace),
				Seat3: card(deck.Hearts, deck.Two),
				Seat4: card(deck.Spades, deck.King),
				Seat1: card(deck.Spades, deck.Queen),
			},
			winner: Seat3,
		},
		{
			name: "higher trump beats lower trump",
			lead: Seat1,
			plays: map[Seat]deck.Card{
				Seat1: card(deck.Hearts, deck.Seven),
				Seat2: card(deck.Hearts, deck.Queen),
				Seat3: card(deck.Hearts, deck.Three),
				Seat4: card(deck.Clubs, deck.Ace),
			},
			winner: Seat2,
		},
		{
			name: "LO joker beats trump ace",
			lead: Seat1,
			plays: map[Seat]deck.Card{
				Seat1: card(deck.Hearts, deck.Ace),
				Seat2: card(deck.Jokers, deck.JokerLo),
				Seat3: card(deck.Hearts, deck.King),
				Seat4: card(deck.Clubs, deck.Two),
			},
			winner: Seat2,
		},
		{
			name: "HI joker beats LO joker",
			lead: Seat3,
			plays: map[Seat]deck.Card{
				Seat3: card(deck.Jokers, deck.JokerLo),
				Seat4: card(deck.Jokers, deck.JokerHi),
				Seat1: card(deck.Hearts, deck.Ace),
				Seat2: card(deck.Hearts, deck.Two),
			},
			winner: Seat4,
		},
		{
			name: "off-suit discard never wins",
			lead: Seat4,
			plays: map[Seat]deck.Card{
				Seat4: card(deck.Clubs, deck.Two),
				Seat1: card(deck.Spades, deck.Ace),
				Seat2: card(deck.Diamonds, deck.Ace),
				Seat3: card(deck.Clubs, deck.Three),
			},
			winner: Seat3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			trick := NewTrick()
			trick.Lead(tt.lead, tt.plays[tt.lead])
			seat := tt.lead
			for i := 0; i < 3; i++ {
				seat = seat.Next()
				trick.Play(seat, tt.plays[seat])
			}
			require.True(t, trick.Complete())
			assert.Equal(t, tt.winner, DetermineWinner(trick, trump))
		})
	}
}

func TestIsLegalMoveLeading(t *testing.T) {
	trump := deck.Hearts
	hand := []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Spades, deck.King),
		card(deck.Jokers, deck.JokerHi),
	}

	// Unbroken trump may not be led while off-trump cards remain
	assert.False(t, IsLegalMove(hand[0], hand, deck.Card{}, true, trump, false, Seat1, Seat1))
	assert.False(t, IsLegalMove(hand[2], hand, deck.Card{}, true, trump, false, Seat1, Seat1))
	assert.True(t, IsLegalMove(hand[1], hand, deck.Card{}, true, trump, false, Seat1, Seat1))

	// Broken trump may be led
	assert.True(t, IsLegalMove(hand[0], hand, deck.Card{}, true, trump, true, Seat1, Seat1))

	// Trump-tight hands may always lead trump
	tight := []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Jokers, deck.JokerLo),
	}
	assert.True(t, IsLegalMove(tight[0], tight, deck.Card{}, true, trump, false, Seat1, Seat1))
}

func TestIsLegalMoveFollowing(t *testing.T) {
	trump := deck.Hearts
	lead := card(deck.Spades, deck.Queen)
	hand := []deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Clubs, deck.Ace),
	}

	assert.True(t, IsLegalMove(hand[0], hand, lead, false, trump, false, Seat2, Seat1))
	assert.False(t, IsLegalMove(hand[1], hand, lead, false, trump, false, Seat2, Seat1))

	// Void in the lead suit: anything goes
	void := []deck.Card{
		card(deck.Clubs, deck.Ace),
		card(deck.Hearts, deck.Two),
	}
	assert.True(t, IsLegalMove(void[0], void, lead, false, trump, false, Seat2, Seat1))
	assert.True(t, IsLegalMove(void[1], void, lead, false, trump, false, Seat2, Seat1))

	// Jokers follow the trump suit
	trumpLead := card(deck.Hearts, deck.King)
	jokerHand := []deck.Card{
		card(deck.Jokers, deck.JokerLo),
		card(deck.Clubs, deck.Four),
	}
	assert.True(t, IsLegalMove(jokerHand[0], jokerHand, trumpLead, false, trump, true, Seat2, Seat1))
	assert.False(t, IsLegalMove(jokerHand[1], jokerHand, trumpLead, false, trump, true, Seat2, Seat1))
}

func TestHiJokerLeadForcesHighestTrump(t *testing.T) {
	trump := deck.Hearts
	lead := card(deck.Jokers, deck.JokerHi)
	hand := []deck.Card{
		card(deck.Hearts, deck.Ace),
		card(deck.Hearts, deck.Two),
		card(deck.Clubs, deck.King),
	}

	// Seat2 opposes Seat1 and must burn its highest trump
	assert.True(t, IsLegalMove(hand[0], hand, lead, false, trump, true, Seat2, Seat1))
	assert.False(t, IsLegalMove(hand[1], hand, lead, false, trump, true, Seat2, Seat1))

	// The leader's partner is free to play any trump
	assert.True(t, IsLegalMove(hand[1], hand, lead, false, trump, true, Seat3, Seat1))

	// A seat with no trump at all is exempt
	noTrump := []deck.Card{
		card(deck.Clubs, deck.King),
		card(deck.Diamonds, deck.Two),
	}
	assert.True(t, IsLegalMove(noTrump[0], noTrump, lead, false, trump, true, Seat2, Seat1))
}

func TestCalculateScore(t *testing.T) {
	tests := []struct {
		name       string
		bid        int
		tricks     int
		multiplier int
		rainbows   int
		want       int
	}{
		{"made with overtricks", 3, 5, 1, 0, 32},
		{"exact make", 4, 4, 1, 0, 40},
		{"missed doubled bid", 4, 2, 2, 0, -80},
		{"board make", 6, 6, 2, 0, 120},
		{"zero bid scores overtricks only", 0, 2, 1, 0, 2},
		{"rainbow on a make", 2, 2, 1, 1, 30},
		{"rainbow kept on a miss", 4, 2, 2, 1, -70},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, CalculateScore(tt.bid, tt.tricks, tt.multiplier, tt.rainbows))
		})
	}
}

func TestCalculateMultiplier(t *testing.T) {
	assert.Equal(t, 1, CalculateMultiplier(NumericBid(3), NumericBid(2)))
	assert.Equal(t, 2, CalculateMultiplier(BoardBid(Board), NumericBid(2)))
	assert.Equal(t, 4, CalculateMultiplier(BoardBid(Board), BoardBid(DoubleBoard)))
	assert.Equal(t, 16, CalculateMultiplier(BoardBid(QuadBoard), NumericBid(0)))
}

func TestFindHighestBidder(t *testing.T) {
	bids := map[Seat]Bid{
		Seat1: NumericBid(2),
		Seat2: NumericBid(4),
		Seat3: NumericBid(4),
		Seat4: NumericBid(1),
	}
	// Ties resolve to the seat earliest in rotation from the start
	assert.Equal(t, Seat2, FindHighestBidder(Seat2, bids))
	assert.Equal(t, Seat3, FindHighestBidder(Seat3, bids))

	bids[Seat4] = BoardBid(Board)
	assert.Equal(t, Seat4, FindHighestBidder(Seat2, bids))
}

func TestDetermineDrawPosition(t *testing.T) {
	drawn := []deck.Card{
		card(deck.Spades, deck.Ace),
		card(deck.Hearts, deck.King),
		card(deck.Diamonds, deck.Five),
		card(deck.Clubs, deck.Two),
	}

	// Highest card takes seat 1; the middle two swap
	assert.Equal(t, Seat1, DetermineDrawPosition(drawn[0], drawn))
	assert.Equal(t, Seat3, DetermineDrawPosition(drawn[1], drawn))
	assert.Equal(t, Seat2, DetermineDrawPosition(drawn[2], drawn))
	assert.Equal(t, Seat4, DetermineDrawPosition(drawn[3], drawn))
}

func TestDetermineDrawPositionSuitTieBreak(t *testing.T) {
	// Equal ranks order by suit: spades over hearts over diamonds over
	// clubs.
	drawn := []deck.Card{
		card(deck.Spades, deck.Nine),
		card(deck.Hearts, deck.Nine),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.Nine),
	}
	assert.Equal(t, Seat1, DetermineDrawPosition(drawn[0], drawn))
	assert.Equal(t, Seat3, DetermineDrawPosition(drawn[1], drawn))
	assert.Equal(t, Seat2, DetermineDrawPosition(drawn[2], drawn))
	assert.Equal(t, Seat4, DetermineDrawPosition(drawn[3], drawn))
}

func TestDetermineDrawPositionBijection(t *testing.T) {
	drawn := []deck.Card{
		card(deck.Clubs, deck.Jack),
		card(deck.Jokers, deck.JokerHi),
		card(deck.Hearts, deck.Three),
		card(deck.Spades, deck.Three),
	}
	seen := make(map[Seat]bool, 4)
	for _, c := range drawn {
		seen[DetermineDrawPosition(c, drawn)] = true
	}
	assert.Len(t, seen, 4, "every draw maps to a distinct seat")
}

func TestHasRainbow(t *testing.T) {
	trump := deck.Hearts

	assert.True(t, HasRainbow([]deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Hearts, deck.Five),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.King),
	}, trump))

	// A joker fills the trump suit slot
	assert.True(t, HasRainbow([]deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Jokers, deck.JokerLo),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.King),
	}, trump))

	assert.False(t, HasRainbow([]deck.Card{
		card(deck.Spades, deck.Two),
		card(deck.Spades, deck.Five),
		card(deck.Diamonds, deck.Nine),
		card(deck.Clubs, deck.King),
	}, trump))
}

func TestSeatRelations(t *testing.T) {
	assert.Equal(t, Seat2, Seat1.Next())
	assert.Equal(t, Seat1, Seat4.Next())
	assert.Equal(t, Seat3, Seat1.Partner())
	assert.Equal(t, Seat2, Seat4.Partner())

	assert.Equal(t, TeamOdd, Seat1.Team())
	assert.Equal(t, TeamOdd, Seat3.Team())
	assert.Equal(t, TeamEven, Seat2.Team())
	assert.Equal(t, TeamEven, Seat4.Team())

	assert.True(t, Seat1.Opposes(Seat2))
	assert.False(t, Seat1.Opposes(Seat3))

	assert.Equal(t, [2]Seat{Seat2, Seat4}, TeamEven.Seats())
	assert.Equal(t, TeamOdd, TeamEven.Other())
}
