package server

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"jokerwhist/internal/game"
)

var (
	monitorHeaderStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("13"))
	monitorSeatStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	monitorTrumpStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("11"))
	monitorWinStyle    = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("10"))
	monitorLossStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9"))
	monitorDimStyle    = lipgloss.NewStyle().Faint(true)
)

// SessionMonitor subscribes to a session's event bus and writes a
// styled play-by-play to its writer. Hands stay private: the monitor
// only sees what every spectator sees.
type SessionMonitor struct {
	sessionID string
	writer    io.Writer
}

// NewSessionMonitor creates a monitor writing to stdout
func NewSessionMonitor(sessionID string) *SessionMonitor {
	return NewSessionMonitorWriter(sessionID, os.Stdout)
}

// NewSessionMonitorWriter creates a monitor writing to w
func NewSessionMonitorWriter(sessionID string, w io.Writer) *SessionMonitor {
	return &SessionMonitor{sessionID: sessionID, writer: w}
}

// OnEvent implements game.EventSubscriber
func (m *SessionMonitor) OnEvent(event game.GameEvent) {
	switch e := event.(type) {
	case game.SeatsAssignedEvent:
		fmt.Fprintln(m.writer, monitorHeaderStyle.Render(fmt.Sprintf("=== Session %s ===", m.sessionID)))
		for _, seat := range game.Seats {
			p := e.Assignments[seat]
			fmt.Fprintf(m.writer, "%s  %s  drew %s\n",
				monitorSeatStyle.Render(seat.String()), p.ID, e.DrawnCards[seat])
		}

	case game.HandDealtEvent:
		fmt.Fprintln(m.writer, monitorHeaderStyle.Render(
			fmt.Sprintf("--- Hand of %d, dealer %s ---", e.HandSize, e.Dealer)))
		fmt.Fprintf(m.writer, "Trump: %s\n", monitorTrumpStyle.Render(e.Trump.String()))

	case game.BidRecordedEvent:
		fmt.Fprintf(m.writer, "%s bids %s\n", monitorSeatStyle.Render(e.Seat.String()), e.Bid)

	case game.RedealEvent:
		fmt.Fprintln(m.writer, monitorDimStyle.Render("All seats bid zero: redeal"))

	case game.BiddingCompleteEvent:
		fmt.Fprintf(m.writer, "Bidding complete: %s leads (team bids %d vs %d)\n",
			monitorSeatStyle.Render(e.Leader.String()),
			e.TeamBids[game.TeamOdd], e.TeamBids[game.TeamEven])

	case game.CardPlayedEvent:
		fmt.Fprintf(m.writer, "  %s plays %s\n", monitorSeatStyle.Render(e.Seat.String()), e.Card)

	case game.TrickCompleteEvent:
		fmt.Fprintf(m.writer, "Trick %d to %s  (%s)\n",
			e.TrickIndex+1, monitorWinStyle.Render(e.Winner.String()), teamTally(e.TricksWon))

	case game.RainbowFlaggedEvent:
		fmt.Fprintf(m.writer, "%s\n", monitorTrumpStyle.Render(fmt.Sprintf("Rainbow at %s!", e.Seat)))

	case game.HandCompleteEvent:
		fmt.Fprintf(m.writer, "Hand of %d scored: %s  totals: %s\n",
			e.HandSize, teamTally(e.HandScores), teamTally(e.TotalScores))

	case game.GameEndedEvent:
		if e.Aborted {
			fmt.Fprintln(m.writer, monitorLossStyle.Render(
				fmt.Sprintf("=== Game aborted: %s ===", e.Reason)))
			return
		}
		fmt.Fprintln(m.writer, monitorWinStyle.Render(
			fmt.Sprintf("=== %s wins  %s ===", e.Winner, teamTally(e.FinalScores))))
	}
}

// teamTally formats a per-team map as "team1&3 12 / team2&4 -8"
func teamTally(m map[game.Team]int) string {
	teams := make([]game.Team, 0, len(m))
	for t := range m {
		teams = append(teams, t)
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i] < teams[j] })

	parts := make([]string, 0, len(teams))
	for _, t := range teams {
		parts = append(parts, fmt.Sprintf("%s %d", t, m[t]))
	}
	return strings.Join(parts, " / ")
}
