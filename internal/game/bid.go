package game

import (
	"fmt"
	"strconv"
)

// BoardTier is a bid level above all numeric bids. Each tier doubles
// the scoring multiplier of the one below it.
type BoardTier int

const (
	NoBoard BoardTier = iota
	Board
	DoubleBoard
	TripleBoard
	QuadBoard
)

// Multiplier returns the score multiplier for the tier: B=2, 2B=4,
// 3B=8, 4B=16, none=1.
func (t BoardTier) Multiplier() int {
	switch t {
	case Board:
		return 2
	case DoubleBoard:
		return 4
	case TripleBoard:
		return 8
	case QuadBoard:
		return 16
	default:
		return 1
	}
}

func (t BoardTier) String() string {
	switch t {
	case Board:
		return "B"
	case DoubleBoard:
		return "2B"
	case TripleBoard:
		return "3B"
	case QuadBoard:
		return "4B"
	default:
		return "-"
	}
}

// Bid is a tagged union: either a numeric trick count or a board tier.
// Board tiers rank above every numeric bid; among boards the higher
// tier wins.
type Bid struct {
	Tricks int       // numeric bid, valid when Tier == NoBoard
	Tier   BoardTier // board bid when != NoBoard
}

// NumericBid creates a numeric trick-count bid
func NumericBid(n int) Bid {
	return Bid{Tricks: n}
}

// BoardBid creates a board-tier bid
func BoardBid(tier BoardTier) Bid {
	return Bid{Tier: tier}
}

// IsBoard reports whether the bid is a board tier
func (b Bid) IsBoard() bool {
	return b.Tier != NoBoard
}

// IsZero reports whether the bid is a numeric zero
func (b Bid) IsZero() bool {
	return !b.IsBoard() && b.Tricks == 0
}

// order maps the bid onto a single total order: numerics by trick
// count, boards above all numerics by tier.
func (b Bid) order() int {
	if b.IsBoard() {
		return 100 + int(b.Tier)
	}
	return b.Tricks
}

// Beats reports whether b ranks strictly above other
func (b Bid) Beats(other Bid) bool {
	return b.order() > other.order()
}

func (b Bid) String() string {
	if b.IsBoard() {
		return b.Tier.String()
	}
	return strconv.Itoa(b.Tricks)
}

// ParseBid parses a bid value from its wire form: a numeric string
// "0".."13" or a board tier token "B", "2B", "3B", "4B".
func ParseBid(s string) (Bid, error) {
	switch s {
	case "B":
		return BoardBid(Board), nil
	case "2B":
		return BoardBid(DoubleBoard), nil
	case "3B":
		return BoardBid(TripleBoard), nil
	case "4B":
		return BoardBid(QuadBoard), nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return Bid{}, fmt.Errorf("invalid bid %q", s)
	}
	if n < 0 {
		return Bid{}, fmt.Errorf("invalid bid %d", n)
	}
	return NumericBid(n), nil
}
