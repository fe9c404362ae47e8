package game

import (
	"context"
	"testing"
	"time"

	"github.com/coder/quartz"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/randutil"
)

func newTestTable(t *testing.T, opts ...TableOption) *Table {
	t.Helper()
	opts = append([]TableOption{WithSeed(42)}, opts...)
	tbl := NewTable(6, 5, 10, opts...)
	for _, p := range []struct {
		id    string
		chips int
	}{{"alice", 100}, {"bob", 100}, {"carol", 100}} {
		_, err := tbl.Seat(p.id, p.id, p.chips)
		require.NoError(t, err)
	}
	return tbl
}

func activePlayerID(t *testing.T, tbl *Table) string {
	t.Helper()
	h := tbl.CurrentHand()
	require.NotNil(t, h)
	require.GreaterOrEqual(t, h.ActivePlayer, 0)
	return tbl.Players()[h.ActivePlayer].ID
}

func TestTableSeatingRules(t *testing.T) {
	t.Parallel()

	tbl := NewTable(2, 5, 10, WithSeed(1))
	_, err := tbl.Seat("alice", "Alice", 100)
	require.NoError(t, err)

	_, err = tbl.Seat("alice", "Alice", 100)
	assert.True(t, IsValidation(err), "duplicate ID rejected")

	_, err = tbl.Seat("bob", "Bob", 0)
	assert.True(t, IsValidation(err), "empty stack rejected")

	_, err = tbl.Seat("bob", "Bob", 100)
	require.NoError(t, err)

	_, err = tbl.Seat("carol", "Carol", 100)
	assert.True(t, IsValidation(err), "table full")

	require.NoError(t, tbl.StartHand())
	_, err = tbl.Seat("dave", "Dave", 100)
	assert.True(t, IsValidation(err), "no seating mid-hand")
}

func TestTableHandLifecycle(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	assert.Equal(t, TableLobby, tbl.State())

	require.NoError(t, tbl.StartHand())
	assert.Equal(t, TablePlaying, tbl.State())
	assert.Error(t, tbl.StartHand(), "hand already running")

	// Unknown and out-of-turn players are rejected without state change.
	err := tbl.HandleAction("mallory", Fold, 0)
	assert.True(t, IsValidation(err))

	// Fold around to a single player.
	for tbl.State() == TablePlaying {
		require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), Fold, 0))
	}
	assert.Equal(t, TableHandComplete, tbl.State())
	require.NoError(t, tbl.CurrentHand().CheckChipConservation())

	require.NoError(t, tbl.StartHand(), "next hand starts from hand-complete")
}

func TestTableButtonAdvances(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	assert.Equal(t, 0, tbl.CurrentHand().Button)

	for tbl.State() == TablePlaying {
		require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), Fold, 0))
	}
	require.NoError(t, tbl.StartHand())
	assert.Equal(t, 1, tbl.CurrentHand().Button)
}

func TestTableCompactsBustedSeats(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	for tbl.State() == TablePlaying {
		require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), Fold, 0))
	}

	// Bust carol between hands; the next deal seats only the survivors.
	players := tbl.Players()
	players[2].Chips = 0

	require.NoError(t, tbl.StartHand())
	remaining := tbl.Players()
	require.Len(t, remaining, 2)
	for i, p := range remaining {
		assert.Equal(t, i, p.Seat)
		assert.NotEqual(t, "carol", p.ID)
	}
}

func TestTableTurnTimeoutForcesFold(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	tbl := NewTable(6, 5, 10,
		WithSeed(42),
		WithClock(mock),
		WithTurnTimeout(30*time.Second),
	)
	_, err := tbl.Seat("alice", "Alice", 100)
	require.NoError(t, err)
	_, err = tbl.Seat("bob", "Bob", 100)
	require.NoError(t, err)

	require.NoError(t, tbl.StartHand())
	first := tbl.CurrentHand().ActivePlayer

	mock.Advance(30 * time.Second).MustWait(context.Background())

	// Heads-up, the timed-out opener's fold ends the hand.
	assert.Equal(t, TableHandComplete, tbl.State())
	assert.True(t, tbl.Players()[first].Folded)
	require.NoError(t, tbl.CurrentHand().CheckChipConservation())
}

func TestTableStaleTimeoutIgnored(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())

	h := tbl.CurrentHand()
	active := h.ActivePlayer
	stale := (active + 1) % 3

	// A timeout for a seat no longer on the clock must be a no-op.
	tbl.handleTimeout(stale)
	assert.Equal(t, active, h.ActivePlayer)
	assert.False(t, tbl.Players()[stale].Folded)
}

func TestTablePauseResume(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	tbl := NewTable(6, 5, 10,
		WithSeed(42),
		WithClock(mock),
		WithTurnTimeout(30*time.Second),
	)
	_, err := tbl.Seat("alice", "Alice", 100)
	require.NoError(t, err)
	_, err = tbl.Seat("bob", "Bob", 100)
	require.NoError(t, err)
	require.NoError(t, tbl.StartHand())

	require.NoError(t, tbl.Pause())
	assert.Equal(t, TablePaused, tbl.State())
	assert.Error(t, tbl.Pause(), "already paused")

	err = tbl.HandleAction(activePlayerID(t, tbl), Fold, 0)
	assert.True(t, IsValidation(err), "no actions while paused")

	// Time passing while paused must not fold anyone.
	mock.Advance(time.Hour).MustWait(context.Background())
	assert.Equal(t, TablePaused, tbl.State())

	require.NoError(t, tbl.Resume())
	assert.Equal(t, TablePlaying, tbl.State())

	// The countdown restarts from the full timeout after resume.
	mock.Advance(30 * time.Second).MustWait(context.Background())
	assert.Equal(t, TableHandComplete, tbl.State())
}

func TestTableStartHandShufflesOnce(t *testing.T) {
	t.Parallel()

	tbl := NewTable(6, 5, 10, WithSeed(11))
	_, err := tbl.Seat("alice", "Alice", 500)
	require.NoError(t, err)
	_, err = tbl.Seat("bob", "Bob", 500)
	require.NoError(t, err)
	require.NoError(t, tbl.StartHand())

	// A reference deck driven by the same seed: one shuffle at creation,
	// one on the between-hands restore. An extra shuffle in StartHand
	// would desynchronize the two streams.
	ref := deck.New(randutil.New(11))
	ref.RestoreForNewHand()
	want, err := ref.Deal(4)
	require.NoError(t, err)

	players := tbl.Players()
	assert.Equal(t, want[0:2], players[0].HoleCards)
	assert.Equal(t, want[2:4], players[1].HoleCards)
}

func TestTableActForSupersededTurn(t *testing.T) {
	t.Parallel()

	mock := quartz.NewMock(t)
	tbl := NewTable(6, 5, 10,
		WithSeed(42),
		WithClock(mock),
		WithTurnTimeout(30*time.Second),
	)
	for _, id := range []string{"alice", "bob", "carol"} {
		_, err := tbl.Seat(id, id, 100)
		require.NoError(t, err)
	}
	require.NoError(t, tbl.StartHand())

	seat, id, ok := tbl.ActiveSeat()
	require.True(t, ok)

	// The deadline fires between the actor snapshot and the action: the
	// seat is folded out and the buffered decision must be dropped.
	mock.Advance(30 * time.Second).MustWait(context.Background())
	require.True(t, tbl.Players()[seat].Folded)

	shove := AgentFunc(func(h *HandState, s int) (Action, int) { return AllIn, 0 })
	require.NoError(t, tbl.ActFor(id, shove))

	next, nextID, ok := tbl.ActiveSeat()
	require.True(t, ok)
	assert.NotEqual(t, id, nextID)
	assert.NotEqual(t, seat, next)
	assert.False(t, tbl.Players()[seat].AllIn, "stale shove was dropped")
	assert.Equal(t, 100, tbl.Players()[seat].Chips)
}

func TestTableActForDrivesHand(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())

	for steps := 0; steps < 100; steps++ {
		_, id, ok := tbl.ActiveSeat()
		if !ok {
			break
		}
		require.NoError(t, tbl.ActFor(id, CallingAgent{}))
	}

	require.Equal(t, TableHandComplete, tbl.State())
	_, _, ok := tbl.ActiveSeat()
	assert.False(t, ok, "no actor between hands")
	require.NoError(t, tbl.CurrentHand().CheckChipConservation())
}

func TestTableCallingAgentsToShowdown(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())

	agent := CallingAgent{}
	for steps := 0; tbl.State() == TablePlaying && steps < 100; steps++ {
		h := tbl.CurrentHand()
		action, amount := agent.Act(h, h.ActivePlayer)
		require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), action, amount))
	}

	require.Equal(t, TableHandComplete, tbl.State())
	h := tbl.CurrentHand()
	assert.Len(t, h.Board, 5, "callers reach a full-board showdown")
	assert.False(t, h.Result.ByFold)

	total := 0
	for _, p := range tbl.Players() {
		total += p.Chips
	}
	assert.Equal(t, 300, total)
}
