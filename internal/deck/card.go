package deck

import "fmt"

// Suit represents a card suit. Jokers live in their own suit; for play
// purposes they always count as the trump suit.
type Suit int

const (
	Spades Suit = iota
	Hearts
	Diamonds
	Clubs
	Jokers
)

// String returns the string representation of a suit
func (s Suit) String() string {
	switch s {
	case Spades:
		return "♠"
	case Hearts:
		return "♥"
	case Diamonds:
		return "♦"
	case Clubs:
		return "♣"
	case Jokers:
		return "★"
	default:
		return "?"
	}
}

// DrawOrder returns the suit precedence used to break rank ties during
// the seat draw: spades > hearts > diamonds > clubs > joker.
func (s Suit) DrawOrder() int {
	switch s {
	case Spades:
		return 4
	case Hearts:
		return 3
	case Diamonds:
		return 2
	case Clubs:
		return 1
	default:
		return 0
	}
}

// Rank represents a card rank. The two jokers rank above the ace.
type Rank int

const (
	Two Rank = iota + 2
	Three
	Four
	Five
	Six
	Seven
	Eight
	Nine
	Ten
	Jack
	Queen
	King
	Ace
	JokerLo
	JokerHi
)

// String returns the string representation of a rank
func (r Rank) String() string {
	switch r {
	case Ten:
		return "T"
	case Jack:
		return "J"
	case Queen:
		return "Q"
	case King:
		return "K"
	case Ace:
		return "A"
	case JokerLo:
		return "LO"
	case JokerHi:
		return "HI"
	default:
		if r >= Two && r <= Nine {
			return fmt.Sprintf("%d", int(r))
		}
		return "?"
	}
}

// Card represents a playing card
type Card struct {
	Suit Suit `json:"suit"`
	Rank Rank `json:"rank"`
}

// NewCard creates a new card
func NewCard(suit Suit, rank Rank) Card {
	return Card{Suit: suit, Rank: rank}
}

// String returns the string representation of a card (e.g., "A♠", "HI★")
func (c Card) String() string {
	return fmt.Sprintf("%s%s", c.Rank, c.Suit)
}

// Value returns the numeric value of the card for comparison.
// 2=2 through A=14, then LO=15 and HI=16 on top.
func (c Card) Value() int {
	return int(c.Rank)
}

// IsJoker returns true for the HI and LO jokers
func (c Card) IsJoker() bool {
	return c.Suit == Jokers
}

// IsAce returns true if the card is an Ace
func (c Card) IsAce() bool {
	return c.Rank == Ace
}

// Valid reports whether the suit/rank combination exists in the 54-card
// deck. Jokers only carry the LO/HI ranks and vice versa.
func (c Card) Valid() bool {
	if c.Suit == Jokers {
		return c.Rank == JokerLo || c.Rank == JokerHi
	}
	if c.Suit < Spades || c.Suit > Clubs {
		return false
	}
	return c.Rank >= Two && c.Rank <= Ace
}
