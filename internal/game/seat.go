package game

import "fmt"

// Seat identifies one of the four table positions. Seats are numbered
// 1-4 and rotate clockwise; seats 1&3 and 2&4 are partners.
type Seat int

const (
	Seat1 Seat = iota + 1
	Seat2
	Seat3
	Seat4
)

// Seats lists all seats in rotation order
var Seats = [4]Seat{Seat1, Seat2, Seat3, Seat4}

// Valid reports whether the seat is one of the four table positions
func (s Seat) Valid() bool {
	return s >= Seat1 && s <= Seat4
}

// Next returns the next seat in clockwise rotation
func (s Seat) Next() Seat {
	if s == Seat4 {
		return Seat1
	}
	return s + 1
}

// Partner returns the seat sitting across the table
func (s Seat) Partner() Seat {
	p := s + 2
	if p > Seat4 {
		p -= 4
	}
	return p
}

// Team returns the partnership the seat belongs to
func (s Seat) Team() Team {
	if s == Seat1 || s == Seat3 {
		return TeamOdd
	}
	return TeamEven
}

// Opposes reports whether the two seats are on different partnerships
func (s Seat) Opposes(other Seat) bool {
	return s.Team() != other.Team()
}

// index returns the zero-based array index for the seat
func (s Seat) index() int {
	return int(s) - 1
}

func (s Seat) String() string {
	return fmt.Sprintf("seat%d", int(s))
}

// Team identifies one of the two partnerships
type Team int

const (
	TeamOdd  Team = iota // seats 1 and 3
	TeamEven             // seats 2 and 4
)

// Teams lists both partnerships
var Teams = [2]Team{TeamOdd, TeamEven}

// Seats returns the two seats belonging to the team
func (t Team) Seats() [2]Seat {
	if t == TeamOdd {
		return [2]Seat{Seat1, Seat3}
	}
	return [2]Seat{Seat2, Seat4}
}

// Other returns the opposing partnership
func (t Team) Other() Team {
	if t == TeamOdd {
		return TeamEven
	}
	return TeamOdd
}

func (t Team) String() string {
	if t == TeamOdd {
		return "team1&3"
	}
	return "team2&4"
}
