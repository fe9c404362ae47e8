package game

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBlindSeats(t *testing.T) {
	t.Parallel()

	three := []*Player{{Seat: 0}, {Seat: 1}, {Seat: 2}}
	assert.Equal(t, 1, smallBlindSeat(three, 0))
	assert.Equal(t, 2, bigBlindSeat(three, 0))
	assert.Equal(t, 0, smallBlindSeat(three, 2))
	assert.Equal(t, 1, bigBlindSeat(three, 2))

	// Heads-up the button posts the small blind.
	two := []*Player{{Seat: 0}, {Seat: 1}}
	assert.Equal(t, 0, smallBlindSeat(two, 0))
	assert.Equal(t, 1, bigBlindSeat(two, 0))
	assert.Equal(t, 1, smallBlindSeat(two, 1))
	assert.Equal(t, 0, bigBlindSeat(two, 1))
}

func TestValidActionsNoBet(t *testing.T) {
	t.Parallel()

	br := NewBettingRound(2, 10)
	p := &Player{Seat: 0, Chips: 100, HoleCards: MustParseHole("AsKs")}

	actions := br.ValidActions(p)
	assert.ElementsMatch(t, []Action{Fold, Check, Bet, AllIn}, actions)
}

func TestValidActionsFacingBet(t *testing.T) {
	t.Parallel()

	br := NewBettingRound(2, 10)
	br.CurrentBet = 30
	br.MinRaise = 20

	p := &Player{Seat: 0, Chips: 100, HoleCards: MustParseHole("AsKs")}
	actions := br.ValidActions(p)
	assert.ElementsMatch(t, []Action{Fold, Call, Raise, AllIn}, actions)
}

func TestValidActionsShortStackCall(t *testing.T) {
	t.Parallel()

	// A stack shorter than the amount to call may still call; the short
	// call is an implicit all-in, so both are offered.
	br := NewBettingRound(2, 10)
	br.CurrentBet = 500

	p := &Player{Seat: 0, Chips: 120, HoleCards: MustParseHole("AsKs")}
	actions := br.ValidActions(p)
	assert.ElementsMatch(t, []Action{Fold, Call, AllIn}, actions)
}

func TestValidActionsTooShortToRaise(t *testing.T) {
	t.Parallel()

	br := NewBettingRound(2, 10)
	br.CurrentBet = 30
	br.MinRaise = 20

	// Enough to call but not to make a full raise on top.
	p := &Player{Seat: 0, Chips: 40, HoleCards: MustParseHole("AsKs")}
	actions := br.ValidActions(p)
	assert.ElementsMatch(t, []Action{Fold, Call, AllIn}, actions)
}

func TestValidActionsExactMinRaiseStack(t *testing.T) {
	t.Parallel()

	// Calling 30 plus the minimum raise of 20 lands exactly all-in. The
	// raise must still be offered, since the action handler accepts a
	// raise for the whole stack.
	br := NewBettingRound(2, 10)
	br.CurrentBet = 30
	br.MinRaise = 20

	p := &Player{Seat: 0, Chips: 50, HoleCards: MustParseHole("AsKs")}
	assert.ElementsMatch(t, []Action{Fold, Call, Raise, AllIn}, br.ValidActions(p))

	// Same boundary with nothing left to call: a matched bet and a stack
	// covering exactly the minimum raise.
	bb := &Player{Seat: 1, Chips: 20, Bet: 30, HoleCards: MustParseHole("QdQc")}
	assert.ElementsMatch(t, []Action{Fold, Check, Raise, AllIn}, br.ValidActions(bb))
}

func TestValidActionsNone(t *testing.T) {
	t.Parallel()

	br := NewBettingRound(2, 10)
	assert.Nil(t, br.ValidActions(&Player{Seat: 0, Chips: 0, AllIn: true, HoleCards: MustParseHole("AsKs")}))
	assert.Nil(t, br.ValidActions(&Player{Seat: 1, Chips: 50, Folded: true, HoleCards: MustParseHole("2c7d")}))
}

func TestIsCompleteAllMatchedAndActed(t *testing.T) {
	t.Parallel()

	players := []*Player{
		{Seat: 0, Chips: 90, Bet: 10, HoleCards: MustParseHole("AsKs")},
		{Seat: 1, Chips: 90, Bet: 10, HoleCards: MustParseHole("QdQc")},
		{Seat: 2, Chips: 90, Bet: 10, HoleCards: MustParseHole("2c7d")},
	}
	br := NewBettingRound(3, 10)
	br.CurrentBet = 10
	br.LastRaiser = 0

	assert.False(t, br.IsComplete(players, Flop, 0), "nobody has acted yet")

	for seat := range players {
		br.MarkActed(seat)
	}
	assert.True(t, br.IsComplete(players, Flop, 0))
}

func TestIsCompleteBigBlindOption(t *testing.T) {
	t.Parallel()

	// Everyone limps to the big blind: bets match but the big blind still
	// has the option to raise.
	players := []*Player{
		{Seat: 0, Chips: 90, Bet: 10, HoleCards: MustParseHole("AsKs")},
		{Seat: 1, Chips: 90, Bet: 10, HoleCards: MustParseHole("QdQc")},
		{Seat: 2, Chips: 90, Bet: 10, HoleCards: MustParseHole("2c7d")},
	}
	br := NewBettingRound(3, 10)
	br.CurrentBet = 10
	br.MarkActed(0)
	br.MarkActed(1)
	br.MarkActed(2)

	assert.False(t, br.IsComplete(players, Preflop, 0), "big blind keeps the option")

	br.BBActed = true
	assert.True(t, br.IsComplete(players, Preflop, 0))
}

func TestIsCompleteSingleActivePlayer(t *testing.T) {
	t.Parallel()

	// With the rest of the field all-in, the lone live player cannot be
	// bet into; the round closes once their bet is matched.
	players := []*Player{
		{Seat: 0, Chips: 0, Bet: 50, AllIn: true, HoleCards: MustParseHole("AsKs")},
		{Seat: 1, Chips: 200, Bet: 50, HoleCards: MustParseHole("QdQc")},
	}
	br := NewBettingRound(2, 10)
	br.CurrentBet = 50

	assert.True(t, br.IsComplete(players, Flop, 0))

	players[1].Bet = 20
	assert.False(t, br.IsComplete(players, Flop, 0), "still owes a call")
}

func TestIsCompleteEveryoneAllIn(t *testing.T) {
	t.Parallel()

	players := []*Player{
		{Seat: 0, Chips: 0, Bet: 100, AllIn: true, HoleCards: MustParseHole("AsKs")},
		{Seat: 1, Chips: 0, Bet: 60, AllIn: true, HoleCards: MustParseHole("QdQc")},
	}
	br := NewBettingRound(2, 10)
	br.CurrentBet = 100

	assert.True(t, br.IsComplete(players, Turn, 0))
}
