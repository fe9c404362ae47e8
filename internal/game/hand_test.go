package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/feltkit/holdem/internal/evaluator"
	"github.com/feltkit/holdem/internal/randutil"
)

func TestHandFoldWinHeadsUp(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100)
	h, err := NewHand(randutil.New(42), players, 0, 5, 10)
	require.NoError(t, err)

	// Heads-up the button posts the small blind and acts first.
	require.Equal(t, 0, h.ActivePlayer)
	require.NoError(t, h.ProcessAction(0, Fold, 0))

	require.True(t, h.IsComplete())
	require.NotNil(t, h.Result)
	assert.True(t, h.Result.ByFold)
	assert.Equal(t, map[int]int{1: 15}, h.Result.Payouts)
	assert.Equal(t, 95, players[0].Chips)
	assert.Equal(t, 105, players[1].Chips)
	require.NoError(t, h.CheckChipConservation())
}

func TestHandShowdownDeterministic(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100, 100)
	d := stackedDeck(t, "AsAhKdKh2c7d3cAcAd9s3d4h3s5h")
	h, err := NewHand(nil, players, 0, 5, 10, WithDeck(d))
	require.NoError(t, err)

	// Preflop: button acts first three-handed after the blinds.
	require.Equal(t, 0, h.ActivePlayer)
	require.NoError(t, h.ProcessAction(0, Call, 0))
	require.NoError(t, h.ProcessAction(1, Call, 0))
	require.NoError(t, h.ProcessAction(2, Check, 0))

	require.Equal(t, Flop, h.Street)
	assert.Equal(t, "Ac Ad 9s", boardString(h))

	for _, street := range []Street{Turn, River, Showdown} {
		require.NoError(t, h.ProcessAction(1, Check, 0))
		require.NoError(t, h.ProcessAction(2, Check, 0))
		require.NoError(t, h.ProcessAction(0, Check, 0))
		require.Equal(t, street, h.Street)
	}

	require.True(t, h.IsComplete())
	require.Len(t, h.Result.Winners, 1)
	w := h.Result.Winners[0]
	assert.Equal(t, 0, w.Seat)
	assert.Equal(t, 30, w.Amount)
	require.NotNil(t, w.Ranking)
	assert.Equal(t, evaluator.FourOfAKind, w.Ranking.Category)

	assert.Equal(t, 120, players[0].Chips)
	assert.Equal(t, 90, players[1].Chips)
	assert.Equal(t, 90, players[2].Chips)
}

func TestHandAllInRunout(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100)
	d := stackedDeck(t, "AsAhKdKh5c2c7d9s3d4h3s8c")
	h, err := NewHand(nil, players, 0, 5, 10, WithDeck(d))
	require.NoError(t, err)

	require.NoError(t, h.ProcessAction(0, AllIn, 0))
	require.NoError(t, h.ProcessAction(1, Call, 0))

	// Both stacks are in; the board runs out with no further actions.
	require.True(t, h.IsComplete())
	assert.Len(t, h.Board, 5)
	assert.Equal(t, 200, players[0].Chips, "pair of aces holds up")
	assert.Equal(t, 0, players[1].Chips)
	assert.Equal(t, []string{"b"}, h.Result.Eliminated)
	require.NoError(t, h.CheckChipConservation())
}

func TestHandShortCallSidePot(t *testing.T) {
	t.Parallel()

	// The covering stack loses the main pot but takes its own overage
	// back from the side pot.
	players := testPlayers(200, 50)
	d := stackedDeck(t, "KdKhAsAh5c2c7d9s3d4h3s8c")
	h, err := NewHand(nil, players, 0, 5, 10, WithDeck(d))
	require.NoError(t, err)

	require.NoError(t, h.ProcessAction(0, AllIn, 0))
	require.NoError(t, h.ProcessAction(1, Call, 0))

	require.True(t, h.IsComplete())
	pots := h.Ledger.Pots()
	require.Len(t, pots, 2)
	assert.Equal(t, 100, pots[0].Amount)
	assert.Equal(t, 150, pots[1].Amount)

	assert.Equal(t, map[int]int{0: 150, 1: 100}, h.Result.Payouts)
	assert.Equal(t, 150, players[0].Chips)
	assert.Equal(t, 100, players[1].Chips)
	require.NoError(t, h.CheckChipConservation())
}

func TestHandBigBlindOption(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100, 100)
	h, err := NewHand(randutil.New(7), players, 0, 5, 10)
	require.NoError(t, err)

	require.NoError(t, h.ProcessAction(0, Call, 0))
	require.NoError(t, h.ProcessAction(1, Call, 0))

	// Bets match but the big blind still holds the option.
	require.Equal(t, Preflop, h.Street)
	require.Equal(t, 2, h.ActivePlayer)

	require.NoError(t, h.ProcessAction(2, Raise, 30))
	require.Equal(t, Preflop, h.Street)
	assert.Equal(t, 30, h.Betting.CurrentBet)
	assert.Equal(t, 2, h.Betting.LastRaiser)

	require.NoError(t, h.ProcessAction(0, Call, 0))
	require.NoError(t, h.ProcessAction(1, Call, 0))
	assert.Equal(t, Flop, h.Street)
	assert.Equal(t, 90, h.Ledger.Total())
}

func TestHandRejectsIllegalActions(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100, 100)
	h, err := NewHand(randutil.New(3), players, 0, 5, 10)
	require.NoError(t, err)
	require.Equal(t, 0, h.ActivePlayer)

	tests := []struct {
		name   string
		seat   int
		action Action
		amount int
	}{
		{"out of turn", 1, Call, 0},
		{"check facing a bet", 0, Check, 0},
		{"bet into an open bet", 0, Bet, 50},
		{"raise below minimum", 0, Raise, 15},
		{"raise above stack", 0, Raise, 150},
		{"raise to zero", 0, Raise, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := h.ProcessAction(tt.seat, tt.action, tt.amount)
			require.Error(t, err)
			assert.True(t, IsValidation(err))
		})
	}

	// Nothing moved: the rejected actions left the hand untouched.
	assert.Equal(t, 0, h.ActivePlayer)
	assert.Equal(t, 100, players[0].Chips)
	assert.Equal(t, 10, h.Betting.CurrentBet)

	require.NoError(t, h.ProcessAction(0, Raise, 20))
	assert.Equal(t, 1, h.ActivePlayer)
}

func TestHandBelowMinRaiseAllowedAllIn(t *testing.T) {
	t.Parallel()

	// A raise below the minimum is legal only when it is the whole stack.
	players := testPlayers(100, 100, 25)
	h, err := NewHand(randutil.New(9), players, 0, 5, 10)
	require.NoError(t, err)

	require.NoError(t, h.ProcessAction(0, Raise, 20))
	require.NoError(t, h.ProcessAction(1, Call, 0))
	require.NoError(t, h.ProcessAction(2, Raise, 25))

	assert.True(t, players[2].AllIn)
	assert.Equal(t, 25, h.Betting.CurrentBet)
}

func TestHandForceFold(t *testing.T) {
	t.Parallel()

	players := testPlayers(100, 100, 100)
	h, err := NewHand(randutil.New(11), players, 0, 5, 10)
	require.NoError(t, err)

	require.Equal(t, 0, h.ActivePlayer)
	require.NoError(t, h.ForceFold(0))

	assert.True(t, players[0].Folded)
	assert.Equal(t, 1, h.ActivePlayer)
	assert.False(t, h.IsComplete())

	// Forcing an already-folded seat is a no-op.
	require.NoError(t, h.ForceFold(0))
	assert.Equal(t, 1, h.ActivePlayer)
}

func TestHandEvents(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	var types []EventType
	bus.Subscribe(SubscriberFunc(func(e Event) {
		types = append(types, e.EventType())
	}))

	players := testPlayers(100, 100)
	h, err := NewHand(randutil.New(5), players, 0, 5, 10, WithBus(bus))
	require.NoError(t, err)
	require.NoError(t, h.ProcessAction(0, Fold, 0))

	assert.Equal(t, []EventType{
		EventHandStarted,
		EventPlayerActed,
		EventRoundCompleted,
		EventPotDistributed,
		EventHandFinished,
	}, types)
}

func TestHandRandomAgentsConserveChips(t *testing.T) {
	t.Parallel()

	// Churn full hands with random legal actions; whatever happens, chips
	// are never created or destroyed and the ledger always balances.
	rng := randutil.New(1234)
	for i := 0; i < 50; i++ {
		players := testPlayers(100, 150, 75, 200)
		h, err := NewHand(rng, players, i%4, 5, 10)
		require.NoError(t, err)

		agent := RandomAgent{Rng: rng}
		for steps := 0; !h.IsComplete() && steps < 200; steps++ {
			seat := h.ActivePlayer
			action, amount := agent.Act(h, seat)
			require.NoError(t, h.ProcessAction(seat, action, amount))
		}

		require.True(t, h.IsComplete(), "hand %d did not finish", i)
		require.NoError(t, h.CheckChipConservation())
		require.NoError(t, h.Ledger.CheckInvariants())

		total := 0
		for _, p := range players {
			total += p.Chips
		}
		require.Equal(t, 525, total)
	}
}

func boardString(h *HandState) string {
	s := ""
	for i, c := range h.Board {
		if i > 0 {
			s += " "
		}
		s += c.Code()
	}
	return s
}
