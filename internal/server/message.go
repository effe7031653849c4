package server

import (
	"encoding/json"
	"time"

	"jokerwhist/internal/deck"
	"jokerwhist/internal/game"
)

// MessageType represents a WebSocket message type with type safety
type MessageType string

// Client -> server message types
const (
	MessageTypeAuth          MessageType = "auth"
	MessageTypeCreateSession MessageType = "create_session"
	MessageTypeRejoin        MessageType = "rejoin"
	MessageTypeDraw          MessageType = "draw"
	MessageTypeBid           MessageType = "bid"
	MessageTypePlayCard      MessageType = "play_card"
	MessageTypeChat          MessageType = "chat"
	MessageTypeForceResign   MessageType = "force_resign"
)

// Server -> client message types
const (
	MessageTypeAuthResponse    MessageType = "auth_response"
	MessageTypeSessionCreated  MessageType = "session_created"
	MessageTypeRejoinResponse  MessageType = "rejoin_response"
	MessageTypeError           MessageType = "error"
	MessageTypeDrawStarted     MessageType = "draw_started"
	MessageTypeSeatsAssigned   MessageType = "seats_assigned"
	MessageTypeHandDealt       MessageType = "hand_dealt"
	MessageTypeTrumpRevealed   MessageType = "trump_revealed"
	MessageTypeBidRecorded     MessageType = "bid_recorded"
	MessageTypeRedeal          MessageType = "redeal"
	MessageTypeBiddingComplete MessageType = "bidding_complete"
	MessageTypeCardPlayed      MessageType = "card_played"
	MessageTypeTrickComplete   MessageType = "trick_complete"
	MessageTypeRainbowFlagged  MessageType = "rainbow_flagged"
	MessageTypeHandComplete    MessageType = "hand_complete"
	MessageTypeGameEnded       MessageType = "game_ended"
	MessageTypeChatRelay       MessageType = "chat_relay"
	MessageTypeSeatStatus      MessageType = "seat_status"
)

// String returns the string representation of the message type
func (mt MessageType) String() string {
	return string(mt)
}

// Message is the envelope for all WebSocket traffic
type Message struct {
	Type      MessageType     `json:"type"`
	Data      json.RawMessage `json:"data,omitempty"`
	Timestamp time.Time       `json:"timestamp"`
}

// NewMessage creates a message with the given type and data
func NewMessage(msgType MessageType, data interface{}) (*Message, error) {
	var raw json.RawMessage
	if data != nil {
		encoded, err := json.Marshal(data)
		if err != nil {
			return nil, err
		}
		raw = encoded
	}

	return &Message{
		Type:      msgType,
		Data:      raw,
		Timestamp: time.Now(),
	}, nil
}

// AuthData is the client authentication request
type AuthData struct {
	Identity string `json:"identity"`
}

// AuthResponseData confirms authentication
type AuthResponseData struct {
	Success  bool   `json:"success"`
	Identity string `json:"identity"`
}

// SeatRequest names one seat in a create_session request. Bot seats
// carry a personality; human seats carry the identity expected to
// connect.
type SeatRequest struct {
	Identity    string `json:"identity,omitempty"`
	Bot         bool   `json:"bot"`
	Personality string `json:"personality,omitempty"`
}

// CreateSessionData asks the server to open a session for four
// participants in join order.
type CreateSessionData struct {
	Seats []SeatRequest `json:"seats"`
}

// SessionCreatedData confirms session creation
type SessionCreatedData struct {
	SessionID string `json:"session_id"`
}

// RejoinData asks to re-enter a running session by identity
type RejoinData struct {
	SessionID string `json:"session_id"`
}

// RejoinResponseData reports the outcome of a rejoin. Mode is "resume"
// when the seat is reclaimed, "spectator" when the seat stays
// bot-controlled (lazy or resigned).
type RejoinResponseData struct {
	Success  bool           `json:"success"`
	Mode     string         `json:"mode,omitempty"`
	Snapshot *SnapshotState `json:"snapshot,omitempty"`
	Message  string         `json:"message,omitempty"`
}

// SnapshotState is the wire form of a session snapshot for one seat
type SnapshotState struct {
	SessionID   string               `json:"session_id"`
	Seat        int                  `json:"seat"`
	Phase       string               `json:"phase"`
	HandSize    int                  `json:"hand_size"`
	Dealer      int                  `json:"dealer"`
	Turn        int                  `json:"turn"`
	Trump       deck.Card            `json:"trump"`
	TrumpBroken bool                 `json:"trump_broken"`
	Hand        []deck.Card          `json:"hand"`
	Bids        map[int]string       `json:"bids,omitempty"`
	TrickCards  map[int]deck.Card    `json:"trick_cards,omitempty"`
	TrickLead   int                  `json:"trick_lead,omitempty"`
	TrickIndex  int                  `json:"trick_index"`
	TricksWon   map[string]int       `json:"tricks_won"`
	Scores      map[string]int       `json:"scores"`
	Seating     map[int]string       `json:"seating"`
	Presence    map[int]SeatPresence `json:"presence"`
}

// SeatPresence is the wire form of one seat's continuity state
type SeatPresence struct {
	Status     string `json:"status"`
	Identity   string `json:"identity,omitempty"`
	Substitute string `json:"substitute,omitempty"`
}

// DrawData is one participant's pick in the opening draw
type DrawData struct {
	CardIndex int `json:"card_index"`
}

// BidData carries a bid: "0".."13" or a board tier "B", "2B", "3B",
// "4B".
type BidData struct {
	Bid string `json:"bid"`
}

// PlayCardData carries one card play
type PlayCardData struct {
	Card deck.Card `json:"card"`
}

// ChatData carries chat text. Lines starting with "/" are seat-control
// commands: /lazy, /active, /leave.
type ChatData struct {
	Text string `json:"text"`
}

// ChatRelayData is a chat line broadcast to the session
type ChatRelayData struct {
	Seat int    `json:"seat"`
	From string `json:"from"`
	Text string `json:"text"`
}

// ForceResignData asks the server to resign an unreachable seat
type ForceResignData struct {
	Seat int `json:"seat"`
}

// ErrorData carries an error response
type ErrorData struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// DrawStartedData announces the opening draw
type DrawStartedData struct {
	SessionID string `json:"session_id"`
	DeckSize  int    `json:"deck_size"`
}

// SeatsAssignedData announces the draw outcome
type SeatsAssignedData struct {
	Seating    map[int]string    `json:"seating"`
	DrawnCards map[int]deck.Card `json:"drawn_cards"`
}

// HandDealtData is sent privately to each seat with its own cards
type HandDealtData struct {
	HandSize  int         `json:"hand_size"`
	Dealer    int         `json:"dealer"`
	FirstTurn int         `json:"first_turn"`
	Seat      int         `json:"seat"`
	Hand      []deck.Card `json:"hand"`
}

// TrumpRevealedData is broadcast when the trump card is turned
type TrumpRevealedData struct {
	Trump    deck.Card `json:"trump"`
	HandSize int       `json:"hand_size"`
}

// BidRecordedData is broadcast after each accepted bid
type BidRecordedData struct {
	Seat     int    `json:"seat"`
	Bid      string `json:"bid"`
	NextTurn int    `json:"next_turn"`
}

// RedealData announces an all-zero redeal
type RedealData struct {
	HandSize int `json:"hand_size"`
	Dealer   int `json:"dealer"`
}

// BiddingCompleteData is broadcast once all four bids are in
type BiddingCompleteData struct {
	Bids        map[int]string `json:"bids"`
	TeamBids    map[string]int `json:"team_bids"`
	Multipliers map[string]int `json:"multipliers"`
	Leader      int            `json:"leader"`
}

// CardPlayedData is broadcast after each accepted play
type CardPlayedData struct {
	Seat        int       `json:"seat"`
	Card        deck.Card `json:"card"`
	LeadSeat    int       `json:"lead_seat"`
	TrickIndex  int       `json:"trick_index"`
	TrumpBroken bool      `json:"trump_broken"`
	NextTurn    int       `json:"next_turn"`
}

// TrickCompleteData is broadcast when a trick resolves
type TrickCompleteData struct {
	Winner     int               `json:"winner"`
	Cards      map[int]deck.Card `json:"cards"`
	TrickIndex int               `json:"trick_index"`
	TricksWon  map[string]int    `json:"tricks_won"`
}

// RainbowFlaggedData is broadcast when a 4-card hand shows all suits
type RainbowFlaggedData struct {
	Seat int `json:"seat"`
}

// HandCompleteData is broadcast after a hand is scored
type HandCompleteData struct {
	HandSize     int            `json:"hand_size"`
	HandScores   map[string]int `json:"hand_scores"`
	TotalScores  map[string]int `json:"total_scores"`
	TricksWon    map[string]int `json:"tricks_won"`
	TeamBids     map[string]int `json:"team_bids"`
	NextHandSize int            `json:"next_hand_size"`
	Final        bool           `json:"final"`
}

// GameEndedData is broadcast when the session terminates
type GameEndedData struct {
	FinalScores map[string]int `json:"final_scores"`
	Winner      string         `json:"winner,omitempty"`
	Aborted     bool           `json:"aborted"`
	Reason      string         `json:"reason,omitempty"`
}

// SeatStatusData is broadcast when a seat's continuity state changes:
// disconnects, reconnects, lazy transitions, resignations.
type SeatStatusData struct {
	Seat       int    `json:"seat"`
	Status     string `json:"status"`
	Identity   string `json:"identity,omitempty"`
	Substitute string `json:"substitute,omitempty"`
	// ResignationAvailable is set once the seat's grace period has
	// expired and any player may force the resignation.
	ResignationAvailable bool `json:"resignation_available,omitempty"`
}

func teamKey(t game.Team) string {
	return t.String()
}

func teamInts(m map[game.Team]int) map[string]int {
	out := make(map[string]int, len(m))
	for t, v := range m {
		out[teamKey(t)] = v
	}
	return out
}

func seatCards(m map[game.Seat]deck.Card) map[int]deck.Card {
	out := make(map[int]deck.Card, len(m))
	for s, c := range m {
		out[int(s)] = c
	}
	return out
}

func seatBids(m map[game.Seat]game.Bid) map[int]string {
	out := make(map[int]string, len(m))
	for s, b := range m {
		out[int(s)] = b.String()
	}
	return out
}
