package game

import "jokerwhist/internal/deck"

// Rules in this file are pure functions over cards, hands and tricks.
// They never mutate their inputs.

// HandSizes is the fixed hand-size progression for a full game. Each
// size before the midpoint sums to 13 with its mirror (12+1, 10+3, ...)
// and the game ends after the 13-card hand.
var HandSizes = []int{12, 10, 8, 6, 4, 2, 1, 3, 5, 7, 9, 11, 13}

// FirstHandSize is the size of the opening hand
const FirstHandSize = 12

// NextHandSize returns the hand size that follows cur in the
// progression. ok is false when cur is the terminal 13-card hand (or
// not in the table at all).
func NextHandSize(cur int) (int, bool) {
	for i, size := range HandSizes {
		if size == cur {
			if i == len(HandSizes)-1 {
				return 0, false
			}
			return HandSizes[i+1], true
		}
	}
	return 0, false
}

// EffectiveSuit returns the suit a card counts as for following and
// trick resolution: jokers always count as the trump suit.
func EffectiveSuit(card deck.Card, trump deck.Suit) deck.Suit {
	if card.IsJoker() {
		return trump
	}
	return card.Suit
}

// IsTrumpCard reports whether the card counts as trump. Jokers are
// always trump; when the revealed trump card is itself a joker the hand
// is no-trump and only the jokers count.
func IsTrumpCard(card deck.Card, trump deck.Suit) bool {
	return card.IsJoker() || card.Suit == trump
}

// IsTrumpTight reports whether a hand contains only trump and joker
// cards.
func IsTrumpTight(hand []deck.Card, trump deck.Suit) bool {
	for _, c := range hand {
		if !IsTrumpCard(c, trump) {
			return false
		}
	}
	return len(hand) > 0
}

// hasEffectiveSuit reports whether the hand holds any card of the given
// effective suit.
func hasEffectiveSuit(hand []deck.Card, suit, trump deck.Suit) bool {
	for _, c := range hand {
		if EffectiveSuit(c, trump) == suit {
			return true
		}
	}
	return false
}

// highestTrump returns the highest trump card in the hand, if any.
func highestTrump(hand []deck.Card, trump deck.Suit) (deck.Card, bool) {
	var best deck.Card
	found := false
	for _, c := range hand {
		if IsTrumpCard(c, trump) && (!found || c.Value() > best.Value()) {
			best = c
			found = true
		}
	}
	return best, found
}

// IsLegalMove decides whether seat may play card from hand. The hand
// still contains the candidate card. lead is the card that opened the
// trick and is ignored when isLeading is true.
//
// Leading: trump (jokers included) may not be led until trump has been
// broken this hand, unless the hand is trump-tight.
//
// Following: the lead's effective suit must be followed when possible.
// When the HI joker was led, opposing seats holding trump must play
// their highest remaining trump.
func IsLegalMove(card deck.Card, hand []deck.Card, lead deck.Card, isLeading bool, trump deck.Suit, trumpBroken bool, seat, leadSeat Seat) bool {
	if isLeading {
		if IsTrumpCard(card, trump) && !trumpBroken && !IsTrumpTight(hand, trump) {
			return false
		}
		return true
	}

	leadSuit := EffectiveSuit(lead, trump)
	if hasEffectiveSuit(hand, leadSuit, trump) {
		if EffectiveSuit(card, trump) != leadSuit {
			return false
		}
	} else {
		// Void in the lead suit: anything goes, and the HI joker rule
		// below cannot apply since the follower holds no trump.
		return true
	}

	// HI joker lead forces opponents to burn their highest trump.
	if lead.Suit == deck.Jokers && lead.Rank == deck.JokerHi && seat.Opposes(leadSeat) {
		if best, ok := highestTrump(hand, trump); ok && IsTrumpCard(card, trump) {
			return card == best
		}
	}

	return true
}

// DetermineWinner walks the trick in play order from the lead seat and
// returns the winning seat. A card takes the trick if it is trump over
// a non-trump, a higher trump, or a higher card of the lead suit.
// Off-suit non-trump cards never win.
func DetermineWinner(t *Trick, trump deck.Suit) Seat {
	winner := t.LeadSeat()
	winning, _ := t.Card(winner)
	lead, _ := t.LeadCard()
	leadSuit := EffectiveSuit(lead, trump)

	seat := winner
	for i := 0; i < 3; i++ {
		seat = seat.Next()
		card, ok := t.Card(seat)
		if !ok {
			continue
		}
		if Beats(card, winning, leadSuit, trump) {
			winner = seat
			winning = card
		}
	}
	return winner
}

// Beats reports whether card takes the trick from the current winning
// card given the lead's effective suit.
func Beats(card, winning deck.Card, leadSuit, trump deck.Suit) bool {
	cardTrump := IsTrumpCard(card, trump)
	winningTrump := IsTrumpCard(winning, trump)

	switch {
	case cardTrump && !winningTrump:
		return true
	case cardTrump && winningTrump:
		return card.Value() > winning.Value()
	case !cardTrump && EffectiveSuit(card, trump) == leadSuit && EffectiveSuit(winning, trump) == leadSuit:
		return card.Value() > winning.Value()
	default:
		return false
	}
}

// CalculateScore computes a team's score for one hand. A made bid is
// worth bid*10*multiplier plus one point per overtrick; a missed bid
// loses the full bid value. Rainbow flags are worth 10 points each and
// are kept even on a miss.
func CalculateScore(bid, tricksWon, multiplier, rainbowCount int) int {
	if tricksWon >= bid {
		return bid*10*multiplier + (tricksWon - bid) + rainbowCount*10
	}
	return -(bid * 10 * multiplier) + rainbowCount*10
}

// CalculateMultiplier returns the score multiplier for a partnership
// from the highest board tier present in its two bids.
func CalculateMultiplier(bid1, bid2 Bid) int {
	tier := bid1.Tier
	if bid2.Tier > tier {
		tier = bid2.Tier
	}
	return tier.Multiplier()
}

// FindHighestBidder scans seats in rotation order starting at start and
// returns the seat with the highest bid. Ties resolve to whichever seat
// comes first in the rotation.
func FindHighestBidder(start Seat, bids map[Seat]Bid) Seat {
	best := start
	bestBid := bids[start]
	seat := start
	for i := 0; i < 3; i++ {
		seat = seat.Next()
		if bid, ok := bids[seat]; ok && bid.Beats(bestBid) {
			best = seat
			bestBid = bid
		}
	}
	return best
}

// drawKey orders drawn cards by rank value, breaking ties by suit
// precedence (spades high, joker low).
func drawKey(c deck.Card) int {
	return c.Value()*8 + c.Suit.DrawOrder()
}

// DetermineDrawPosition assigns a seat from the opening draw. Cards are
// ranked low to high; position is 4 minus the rank, then seats 2 and 3
// are swapped. The swap is a fixed house rule: reproduce it exactly.
func DetermineDrawPosition(myCard deck.Card, allDrawn []deck.Card) Seat {
	rank := 0
	for _, c := range allDrawn {
		if drawKey(c) < drawKey(myCard) {
			rank++
		}
	}
	pos := 4 - rank
	switch pos {
	case 2:
		pos = 3
	case 3:
		pos = 2
	}
	return Seat(pos)
}

// HasRainbow reports whether a 4-card hand holds at least one card of
// every suit, jokers counting as the trump suit.
func HasRainbow(hand []deck.Card, trump deck.Suit) bool {
	var seen [4]bool
	for _, c := range hand {
		suit := c.Suit
		if c.IsJoker() {
			suit = trump
		}
		if suit >= deck.Spades && suit <= deck.Clubs {
			seen[suit] = true
		}
	}
	return seen[deck.Spades] && seen[deck.Hearts] && seen[deck.Diamonds] && seen[deck.Clubs]
}
