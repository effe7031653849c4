package game

import (
	"time"

	"jokerwhist/internal/deck"
)

// EventType represents a game event type with type safety
type EventType string

const (
	EventTypeSeatsAssigned   EventType = "seats_assigned"
	EventTypeHandDealt       EventType = "hand_dealt"
	EventTypeBidRecorded     EventType = "bid_recorded"
	EventTypeRedeal          EventType = "redeal"
	EventTypeBiddingComplete EventType = "bidding_complete"
	EventTypeCardPlayed      EventType = "card_played"
	EventTypeTrickComplete   EventType = "trick_complete"
	EventTypeRainbowFlagged  EventType = "rainbow_flagged"
	EventTypeHandComplete    EventType = "hand_complete"
	EventTypeGameEnded       EventType = "game_ended"
)

// String returns the string representation of the event type
func (et EventType) String() string {
	return string(et)
}

// GameEvent represents any event that occurs during a session
type GameEvent interface {
	EventType() EventType
	Timestamp() time.Time
}

// SeatsAssignedEvent is published after the opening draw resolves seats
type SeatsAssignedEvent struct {
	Assignments map[Seat]Participant
	DrawnCards  map[Seat]deck.Card
	timestamp   time.Time
}

func (e SeatsAssignedEvent) EventType() EventType { return EventTypeSeatsAssigned }
func (e SeatsAssignedEvent) Timestamp() time.Time { return e.timestamp }

// HandDealtEvent is published when a new hand is dealt. Hands are
// private: subscribers must only forward a seat its own cards.
type HandDealtEvent struct {
	HandSize  int
	Dealer    Seat
	FirstTurn Seat
	Trump     deck.Card
	Hands     map[Seat][]deck.Card
	timestamp time.Time
}

func (e HandDealtEvent) EventType() EventType { return EventTypeHandDealt }
func (e HandDealtEvent) Timestamp() time.Time { return e.timestamp }

// BidRecordedEvent is published after each accepted bid
type BidRecordedEvent struct {
	Seat      Seat
	Bid       Bid
	NextTurn  Seat
	timestamp time.Time
}

func (e BidRecordedEvent) EventType() EventType { return EventTypeBidRecorded }
func (e BidRecordedEvent) Timestamp() time.Time { return e.timestamp }

// RedealEvent is published when all four seats bid zero and the hand is
// discarded and redealt at the same size with the same dealer.
type RedealEvent struct {
	HandSize  int
	Dealer    Seat
	timestamp time.Time
}

func (e RedealEvent) EventType() EventType { return EventTypeRedeal }
func (e RedealEvent) Timestamp() time.Time { return e.timestamp }

// BiddingCompleteEvent is published once all four bids are in
type BiddingCompleteEvent struct {
	Bids        map[Seat]Bid
	TeamBids    map[Team]int
	Multipliers map[Team]int
	Leader      Seat
	timestamp   time.Time
}

func (e BiddingCompleteEvent) EventType() EventType { return EventTypeBiddingComplete }
func (e BiddingCompleteEvent) Timestamp() time.Time { return e.timestamp }

// CardPlayedEvent is published after each accepted play
type CardPlayedEvent struct {
	Seat        Seat
	Card        deck.Card
	LeadSeat    Seat
	TrickIndex  int
	TrumpBroken bool
	NextTurn    Seat
	timestamp   time.Time
}

func (e CardPlayedEvent) EventType() EventType { return EventTypeCardPlayed }
func (e CardPlayedEvent) Timestamp() time.Time { return e.timestamp }

// TrickCompleteEvent is published when the fourth card resolves a trick
type TrickCompleteEvent struct {
	Winner     Seat
	Cards      map[Seat]deck.Card
	TrickIndex int
	TricksWon  map[Team]int
	timestamp  time.Time
}

func (e TrickCompleteEvent) EventType() EventType { return EventTypeTrickComplete }
func (e TrickCompleteEvent) Timestamp() time.Time { return e.timestamp }

// RainbowFlaggedEvent is published when a 4-card hand shows all suits
type RainbowFlaggedEvent struct {
	Seat      Seat
	timestamp time.Time
}

func (e RainbowFlaggedEvent) EventType() EventType { return EventTypeRainbowFlagged }
func (e RainbowFlaggedEvent) Timestamp() time.Time { return e.timestamp }

// HandCompleteEvent is published after scoring a finished hand
type HandCompleteEvent struct {
	HandSize     int
	HandScores   map[Team]int
	TotalScores  map[Team]int
	TricksWon    map[Team]int
	TeamBids     map[Team]int
	NextHandSize int  // 0 when the game is over
	Final        bool // true after the terminal 13-card hand
	timestamp    time.Time
}

func (e HandCompleteEvent) EventType() EventType { return EventTypeHandComplete }
func (e HandCompleteEvent) Timestamp() time.Time { return e.timestamp }

// GameEndedEvent is published when the session reaches its terminal
// state, either by completing the progression or by abort.
type GameEndedEvent struct {
	FinalScores map[Team]int
	Winner      Team
	Aborted     bool
	Reason      string
	timestamp   time.Time
}

func (e GameEndedEvent) EventType() EventType { return EventTypeGameEnded }
func (e GameEndedEvent) Timestamp() time.Time { return e.timestamp }

// EventSubscriber can subscribe to game events
type EventSubscriber interface {
	OnEvent(event GameEvent)
}

// EventBus manages event publishing and subscription
type EventBus interface {
	Subscribe(subscriber EventSubscriber)
	Unsubscribe(subscriber EventSubscriber)
	Publish(event GameEvent)
}

// SimpleEventBus is a basic in-memory event bus implementation.
// Delivery is synchronous and in subscription order, which keeps event
// handling inside the session's single-threaded step.
type SimpleEventBus struct {
	subscribers []EventSubscriber
}

// NewEventBus creates a new event bus
func NewEventBus() EventBus {
	return &SimpleEventBus{subscribers: make([]EventSubscriber, 0)}
}

// Subscribe adds a subscriber to receive events
func (bus *SimpleEventBus) Subscribe(subscriber EventSubscriber) {
	bus.subscribers = append(bus.subscribers, subscriber)
}

// Unsubscribe removes a subscriber from receiving events
func (bus *SimpleEventBus) Unsubscribe(subscriber EventSubscriber) {
	for i, sub := range bus.subscribers {
		if sub == subscriber {
			bus.subscribers = append(bus.subscribers[:i], bus.subscribers[i+1:]...)
			break
		}
	}
}

// Publish sends an event to all subscribers
func (bus *SimpleEventBus) Publish(event GameEvent) {
	for _, subscriber := range bus.subscribers {
		subscriber.OnEvent(event)
	}
}
