package bot

import (
	"sort"

	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// PlayRequest carries everything a bot needs to pick a card
type PlayRequest struct {
	Hand        []deck.Card
	HandSize    int
	Trump       deck.Card
	TrumpBroken bool
	Trick       *game.Trick
}

// ChooseCard selects a legal card for the current trick. Every
// candidate is filtered through the legality rules first, so the bot
// can never propose an illegal play.
func (b *Bot) ChooseCard(req PlayRequest) deck.Card {
	trump := req.Trump.Suit
	isLeading := req.Trick.Count() == 0
	lead, _ := req.Trick.LeadCard()

	legal := make([]deck.Card, 0, len(req.Hand))
	for _, c := range req.Hand {
		if game.IsLegalMove(c, req.Hand, lead, isLeading, trump, req.TrumpBroken, b.seat, req.Trick.LeadSeat()) {
			legal = append(legal, c)
		}
	}
	if len(legal) == 0 {
		// Should be unreachable: every hand has a legal play.
		b.logger.Error("No legal card found, playing first in hand")
		return req.Hand[0]
	}

	var card deck.Card
	if isLeading {
		card = b.chooseLead(legal, trump)
	} else {
		card = b.chooseFollow(legal, lead, trump, req)
	}
	b.logger.Debug("Card chosen", "card", card, "leading", isLeading)
	return card
}

// chooseLead prefers flushing trump with the HI joker, then leads from
// the shortest off-trump suit: its ace if held, otherwise its lowest
// card. A lone king stays home until its ace has been seen.
func (b *Bot) chooseLead(legal []deck.Card, trump deck.Suit) deck.Card {
	hiJoker := deck.NewCard(deck.Jokers, deck.JokerHi)
	for _, c := range legal {
		if c == hiJoker {
			return c
		}
	}

	suits := b.suitsByLength(legal, trump)
	if len(suits) == 0 {
		// Only trump left: lead the lowest.
		return lowestCard(legal)
	}

	for _, cards := range suits {
		if b.loneKingGuard(cards) {
			continue
		}
		return pickFromLeadSuit(cards)
	}
	// Every candidate suit was a guarded lone king; lead the first
	// anyway.
	return pickFromLeadSuit(suits[0])
}

// loneKingGuard reports whether leading this suit would expose a lone
// king whose ace is still out. On short hands there is no room for
// such subtlety.
func (b *Bot) loneKingGuard(cards []deck.Card) bool {
	if len(cards) != 1 || cards[0].Rank != deck.King {
		return false
	}
	if b.handSize <= 4 {
		return false
	}
	return !b.mem.AcePlayed(cards[0].Suit)
}

func pickFromLeadSuit(cards []deck.Card) deck.Card {
	for _, c := range cards {
		if c.IsAce() {
			return c
		}
	}
	return lowestCard(cards)
}

// chooseFollow plays low under a winning partner, beats the current
// winner as cheaply as possible when following, trumps in when void
// and an opponent is winning, and otherwise discards from the shortest
// suit while protecting unplayed honours.
func (b *Bot) chooseFollow(legal []deck.Card, lead deck.Card, trump deck.Suit, req PlayRequest) deck.Card {
	winnerSeat := game.DetermineWinner(req.Trick, trump)
	winnerCard, _ := req.Trick.Card(winnerSeat)
	leadSuit := game.EffectiveSuit(lead, trump)

	if winnerSeat == b.seat.Partner() {
		return lowestCard(legal)
	}

	var followers []deck.Card
	for _, c := range legal {
		if game.EffectiveSuit(c, trump) == leadSuit {
			followers = append(followers, c)
		}
	}
	if len(followers) > 0 {
		if best, ok := cheapestBeater(followers, winnerCard, leadSuit, trump); ok {
			return best
		}
		return lowestCard(followers)
	}

	// Void in the lead suit.
	var trumps []deck.Card
	for _, c := range legal {
		if game.IsTrumpCard(c, trump) {
			trumps = append(trumps, c)
		}
	}
	if len(trumps) > 0 {
		if best, ok := cheapestBeater(trumps, winnerCard, leadSuit, trump); ok {
			return best
		}
	}

	return b.discard(legal, trump)
}

// cheapestBeater returns the lowest card among candidates that takes
// the trick from the current winner.
func cheapestBeater(candidates []deck.Card, winner deck.Card, leadSuit, trump deck.Suit) (deck.Card, bool) {
	var best deck.Card
	found := false
	for _, c := range candidates {
		if !game.Beats(c, winner, leadSuit, trump) {
			continue
		}
		if !found || c.Value() < best.Value() {
			best = c
			found = true
		}
	}
	return best, found
}

// discard throws from the shortest off-trump suit, keeping unplayed
// aces and kings unless nothing lower is available.
func (b *Bot) discard(legal []deck.Card, trump deck.Suit) deck.Card {
	suits := b.suitsByLength(legal, trump)
	if len(suits) == 0 {
		return lowestCard(legal)
	}
	for _, cards := range suits {
		for _, c := range sortedByValue(cards) {
			if c.Rank == deck.Ace || (c.Rank == deck.King && !b.mem.AcePlayed(c.Suit)) {
				continue
			}
			return c
		}
	}
	// Nothing but honours: give up the lowest.
	return lowestCard(legal)
}

// suitsByLength groups the off-trump cards by suit, shortest suit
// first. Ties resolve in suit order for determinism.
func (b *Bot) suitsByLength(cards []deck.Card, trump deck.Suit) [][]deck.Card {
	bySuit := make(map[deck.Suit][]deck.Card)
	for _, c := range cards {
		if game.IsTrumpCard(c, trump) {
			continue
		}
		bySuit[c.Suit] = append(bySuit[c.Suit], c)
	}

	suits := make([]deck.Suit, 0, len(bySuit))
	for suit := range bySuit {
		suits = append(suits, suit)
	}
	sort.Slice(suits, func(i, j int) bool {
		if len(bySuit[suits[i]]) != len(bySuit[suits[j]]) {
			return len(bySuit[suits[i]]) < len(bySuit[suits[j]])
		}
		return suits[i] < suits[j]
	})

	out := make([][]deck.Card, 0, len(suits))
	for _, suit := range suits {
		out = append(out, bySuit[suit])
	}
	return out
}

func lowestCard(cards []deck.Card) deck.Card {
	best := cards[0]
	for _, c := range cards[1:] {
		if c.Value() < best.Value() {
			best = c
		}
	}
	return best
}

func sortedByValue(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	sort.Slice(out, func(i, j int) bool { return out[i].Value() < out[j].Value() })
	return out
}
