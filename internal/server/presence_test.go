package server

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jokerwhist/internal/game"
)

func newTestContinuity(t *testing.T) (*Continuity, *quartz.Mock, chan string) {
	t.Helper()
	mockClock := quartz.NewMock(t)
	expired := make(chan string, 4)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	c := NewContinuity(mockClock, time.Minute, logger, func(identity string) {
		expired <- identity
	})
	c.Attach(game.Seat1, game.Human("alice"))
	c.Attach(game.Seat2, game.Bot("bot-1", "neutral"))
	c.Attach(game.Seat3, game.Human("bob"))
	c.Attach(game.Seat4, game.Bot("bot-2", "aggressive"))
	return c, mockClock, expired
}

func TestContinuityAttach(t *testing.T) {
	c, _, _ := newTestContinuity(t)

	assert.Equal(t, StatusConnected, c.Status(game.Seat1))
	assert.False(t, c.IsBotControlled(game.Seat1))
	assert.True(t, c.IsBotControlled(game.Seat2), "native bot seats are always bot-controlled")

	identity, ok := c.Identity(game.Seat3)
	require.True(t, ok)
	assert.Equal(t, "bob", identity)
	_, ok = c.Identity(game.Seat2)
	assert.False(t, ok, "bot seats have no human identity")

	seat, ok := c.SeatOf("alice")
	require.True(t, ok)
	assert.Equal(t, game.Seat1, seat)
	_, ok = c.SeatOf("eve")
	assert.False(t, ok)
}

func TestContinuityGraceExpiry(t *testing.T) {
	ctx := context.Background()
	c, mockClock, expired := newTestContinuity(t)

	seat, changed := c.Disconnect("alice")
	require.True(t, changed)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, StatusDisconnected, c.Status(game.Seat1))
	assert.False(t, c.IsBotControlled(game.Seat1), "the game waits during the grace period")
	assert.False(t, c.ResignationAvailable(game.Seat1))

	// A second drop of the same identity is a no-op
	_, changed = c.Disconnect("alice")
	assert.False(t, changed)

	mockClock.Advance(time.Minute).MustWait(ctx)
	assert.Equal(t, "alice", <-expired)
	require.True(t, c.GraceExpired(game.Seat1))

	assert.True(t, c.ResignationAvailable(game.Seat1))
	assert.Equal(t, StatusDisconnected, c.Status(game.Seat1), "expiry alone does not resign the seat")
}

func TestContinuityReconnectCancelsGrace(t *testing.T) {
	ctx := context.Background()
	c, mockClock, expired := newTestContinuity(t)

	_, changed := c.Disconnect("alice")
	require.True(t, changed)
	mockClock.Advance(30 * time.Second).MustWait(ctx)

	seat, ok := c.Reconnect("alice")
	require.True(t, ok)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, StatusConnected, c.Status(game.Seat1))

	mockClock.Advance(time.Minute).MustWait(ctx)
	select {
	case identity := <-expired:
		t.Fatalf("grace timer fired for %s after reconnect", identity)
	default:
	}
}

func TestContinuityGraceExpiredAfterReconnect(t *testing.T) {
	ctx := context.Background()
	c, mockClock, expired := newTestContinuity(t)

	c.Disconnect("alice")
	mockClock.Advance(time.Minute).MustWait(ctx)
	<-expired

	// The expiry callback lost the race against a reconnect
	c.Reconnect("alice")
	assert.False(t, c.GraceExpired(game.Seat1))
	assert.False(t, c.ResignationAvailable(game.Seat1))
}

func TestContinuityLazyMode(t *testing.T) {
	c, _, _ := newTestContinuity(t)

	seat, err := c.EnterLazy("alice")
	require.NoError(t, err)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, StatusLazy, c.Status(game.Seat1))
	assert.True(t, c.IsBotControlled(game.Seat1))

	// Already lazy
	_, err = c.EnterLazy("alice")
	assert.Error(t, err)
	_, err = c.EnterLazy("eve")
	assert.Error(t, err)

	// The substitute keeps the seat if the lazy human drops; no grace
	// timer runs, the seat just stays lazy
	_, changed := c.Disconnect("alice")
	assert.True(t, changed)
	assert.Equal(t, StatusLazy, c.Status(game.Seat1))
	_, changed = c.Disconnect("alice")
	assert.False(t, changed, "link already down")

	seat, err = c.ExitLazy("alice")
	require.NoError(t, err)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, StatusConnected, c.Status(game.Seat1))
	assert.False(t, c.IsBotControlled(game.Seat1))

	_, err = c.ExitLazy("alice")
	assert.Error(t, err, "not lazy any more")
}

func TestContinuityResign(t *testing.T) {
	ctx := context.Background()
	c, mockClock, expired := newTestContinuity(t)

	err := c.Resign(game.Seat1)
	assert.Error(t, err, "resignation needs an expired grace period")

	c.Disconnect("alice")
	mockClock.Advance(time.Minute).MustWait(ctx)
	<-expired
	require.True(t, c.GraceExpired(game.Seat1))

	require.NoError(t, c.Resign(game.Seat1))
	assert.Equal(t, StatusResigned, c.Status(game.Seat1))
	assert.True(t, c.IsBotControlled(game.Seat1))
	assert.False(t, c.ResignationAvailable(game.Seat1))

	// Resignation is permanent: the human comes back as a spectator
	seat, mode, err := c.Rejoin("alice")
	require.NoError(t, err)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, RejoinSpectator, mode)
	assert.Equal(t, StatusResigned, c.Status(game.Seat1))
}

func TestContinuityRejoin(t *testing.T) {
	c, _, _ := newTestContinuity(t)

	c.Disconnect("alice")
	seat, mode, err := c.Rejoin("alice")
	require.NoError(t, err)
	assert.Equal(t, game.Seat1, seat)
	assert.Equal(t, RejoinResume, mode)
	assert.Equal(t, StatusConnected, c.Status(game.Seat1))

	c.EnterLazy("bob")
	seat, mode, err = c.Rejoin("bob")
	require.NoError(t, err)
	assert.Equal(t, game.Seat3, seat)
	assert.Equal(t, RejoinSpectator, mode, "a lazy seat stays with its substitute")

	_, _, err = c.Rejoin("eve")
	assert.Error(t, err)
}

func TestContinuityHumansReachable(t *testing.T) {
	c, _, _ := newTestContinuity(t)
	assert.True(t, c.HumansReachable())

	c.Disconnect("alice")
	assert.True(t, c.HumansReachable(), "bob is still live")

	c.EnterLazy("bob")
	assert.True(t, c.HumansReachable(), "lazy humans are reachable")

	c.Reconnect("alice")
	c.ExitLazy("bob")
	c.Disconnect("alice")
	c.Disconnect("bob")
	assert.False(t, c.HumansReachable())
}

func TestContinuityLazySeatLinkDown(t *testing.T) {
	c, _, _ := newTestContinuity(t)

	// bob's seat goes to a substitute, then his connection dies: the
	// seat plays on but bob is no longer reachable
	c.EnterLazy("bob")
	c.Disconnect("bob")
	assert.Equal(t, StatusLazy, c.Status(game.Seat3))
	assert.True(t, c.IsBotControlled(game.Seat3))

	c.Disconnect("alice")
	assert.False(t, c.HumansReachable(), "a lazy seat with a dead link keeps nobody reachable")

	// Rejoining restores the link; the seat stays with its substitute
	seat, mode, err := c.Rejoin("bob")
	require.NoError(t, err)
	assert.Equal(t, game.Seat3, seat)
	assert.Equal(t, RejoinSpectator, mode)
	assert.True(t, c.HumansReachable())
}

func TestContinuityTracksHumansBeforeDraw(t *testing.T) {
	ctx := context.Background()
	mockClock := quartz.NewMock(t)
	expired := make(chan string, 4)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	c := NewContinuity(mockClock, time.Minute, logger, func(identity string) {
		expired <- identity
	})
	c.Track(game.Human("carol"))
	c.Track(game.Bot("bot-1", "neutral"))
	assert.True(t, c.HumansReachable())

	// Dropping before the draw starts a grace timer with no seat yet
	seat, changed := c.Disconnect("carol")
	require.True(t, changed)
	assert.False(t, seat.Valid())
	assert.False(t, c.HumansReachable())

	mockClock.Advance(time.Minute).MustWait(ctx)
	assert.Equal(t, "carol", <-expired)
	assert.True(t, c.PendingGraceExpired("carol"))
}

func TestContinuityPendingStateCarriesOntoSeat(t *testing.T) {
	mockClock := quartz.NewMock(t)
	logger := log.NewWithOptions(io.Discard, log.Options{Level: log.ErrorLevel})
	c := NewContinuity(mockClock, time.Minute, logger, func(string) {})
	c.Track(game.Human("carol"))

	_, changed := c.Disconnect("carol")
	require.True(t, changed)

	// The draw resolves while carol is still inside her grace period
	c.Attach(game.Seat2, game.Human("carol"))
	assert.Equal(t, StatusDisconnected, c.Status(game.Seat2))

	seat, ok := c.Reconnect("carol")
	require.True(t, ok)
	assert.Equal(t, game.Seat2, seat)
	assert.Equal(t, StatusConnected, c.Status(game.Seat2))
}

func TestContinuityWirePresence(t *testing.T) {
	c, _, _ := newTestContinuity(t)

	c.EnterLazy("bob")
	out := c.WirePresence(map[game.Seat]string{game.Seat3: "sub-3"})

	require.Len(t, out, 4)
	assert.Equal(t, SeatPresence{Status: "connected", Identity: "alice"}, out[1])
	assert.Equal(t, SeatPresence{Status: "bot"}, out[2])
	assert.Equal(t, SeatPresence{Status: "lazy", Identity: "bob", Substitute: "sub-3"}, out[3])
}
