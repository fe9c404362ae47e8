package game

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/randutil"
)

// MustParseHole parses hole cards for test fixtures, e.g. "AsKs".
func MustParseHole(s string) []deck.Card {
	return deck.MustParseCards(s)
}

// stackedDeck builds a full deck that deals the named cards first, in
// order, with the rest of the pack behind them. Hands dealt from it are
// fully deterministic.
func stackedDeck(t *testing.T, order string) *deck.Deck {
	t.Helper()

	front := deck.MustParseCards(order)
	seen := make(map[deck.Card]bool, len(front))
	for _, c := range front {
		require.False(t, seen[c], "duplicate card %s in stacked order", c)
		seen[c] = true
	}

	cards := append([]deck.Card(nil), front...)
	for _, suit := range []deck.Suit{deck.Hearts, deck.Diamonds, deck.Clubs, deck.Spades} {
		for rank := deck.Two; rank <= deck.Ace; rank++ {
			c := deck.Card{Suit: suit, Rank: rank}
			if !seen[c] {
				cards = append(cards, c)
			}
		}
	}

	d, err := deck.Restore(deck.Snapshot{Undealt: cards}, randutil.New(1))
	require.NoError(t, err)
	return d
}

func testPlayers(chips ...int) []*Player {
	players := make([]*Player, len(chips))
	for i, c := range chips {
		players[i] = &Player{
			Seat:  i,
			ID:    string(rune('a' + i)),
			Name:  string(rune('A' + i)),
			Chips: c,
		}
	}
	return players
}
