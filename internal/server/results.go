package server

import (
	"github.com/charmbracelet/log"

	"jokerwhist/internal/game"
)

// SeatResult is one seat's line in a finished game's record
type SeatResult struct {
	Seat     game.Seat
	Identity string
	Human    bool
	Team     game.Team
	Won      bool
	// Status is the seat's final continuity state: a resigned seat
	// shows up as resigned even if its team won.
	Status string
}

// GameResult records the outcome of one session
type GameResult struct {
	SessionID   string
	FinalScores map[game.Team]int
	Winner      game.Team
	Aborted     bool
	Reason      string
	Seats       []SeatResult
}

// ResultRecorder receives the record of every finished session
type ResultRecorder interface {
	Record(result GameResult)
}

// LogResultRecorder writes game results to the server log
type LogResultRecorder struct {
	logger *log.Logger
}

// NewLogResultRecorder creates a recorder backed by the given logger
func NewLogResultRecorder(logger *log.Logger) *LogResultRecorder {
	return &LogResultRecorder{logger: logger.WithPrefix("results")}
}

// Record implements ResultRecorder
func (r *LogResultRecorder) Record(result GameResult) {
	if result.Aborted {
		r.logger.Warn("Game aborted",
			"session", result.SessionID,
			"reason", result.Reason,
			"scores", result.FinalScores)
		return
	}

	r.logger.Info("Game finished",
		"session", result.SessionID,
		"winner", result.Winner,
		"scores", result.FinalScores)
	for _, seat := range result.Seats {
		r.logger.Info("Seat result",
			"session", result.SessionID,
			"seat", seat.Seat,
			"identity", seat.Identity,
			"human", seat.Human,
			"won", seat.Won,
			"status", seat.Status)
	}
}
