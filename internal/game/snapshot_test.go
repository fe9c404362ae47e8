package game

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSnapshotRoundTripMidHand(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), Call, 0))

	snap := tbl.Snapshot()

	var buf bytes.Buffer
	require.NoError(t, snap.WriteSnapshot(&buf))
	decoded, err := ReadSnapshot(&buf)
	require.NoError(t, err)

	restored, err := RestoreTable(decoded, WithSeed(42))
	require.NoError(t, err)

	assert.Equal(t, tbl.ID, restored.ID)
	assert.Equal(t, TablePlaying, restored.State())

	orig, rest := tbl.CurrentHand(), restored.CurrentHand()
	require.NotNil(t, rest)
	assert.Equal(t, orig.ID, rest.ID)
	assert.Equal(t, orig.Street, rest.Street)
	assert.Equal(t, orig.ActivePlayer, rest.ActivePlayer)
	assert.Equal(t, orig.Pot(), rest.Pot())
	assert.Equal(t, orig.Deck.Remaining(), rest.Deck.Remaining())

	// Both copies must finish identically from here.
	for tbl.State() == TablePlaying {
		id := activePlayerID(t, tbl)
		require.NoError(t, tbl.HandleAction(id, Fold, 0))
		require.NoError(t, restored.HandleAction(id, Fold, 0))
	}
	require.Equal(t, TableHandComplete, restored.State())
	for i, p := range tbl.Players() {
		assert.Equal(t, p.Chips, restored.Players()[i].Chips)
	}
}

func TestSnapshotBetweenHands(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	for tbl.State() == TablePlaying {
		require.NoError(t, tbl.HandleAction(activePlayerID(t, tbl), Fold, 0))
	}

	snap := tbl.Snapshot()
	assert.Nil(t, snap.Hand, "completed hands are not snapshotted")

	restored, err := RestoreTable(snap, WithSeed(42))
	require.NoError(t, err)
	assert.Equal(t, TableHandComplete, restored.State())
	require.NoError(t, restored.StartHand())
	assert.Equal(t, snap.Button+1, restored.CurrentHand().Button)
}

func TestSnapshotRejectsTamperedLedger(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	snap := tbl.Snapshot()

	snap.Hand.Ledger.Pots[0].Amount += 5

	_, err := RestoreTable(snap)
	require.Error(t, err)
	assert.True(t, IsIntegrity(err))
}

func TestSnapshotRejectsCorruptDeck(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	snap := tbl.Snapshot()

	// Dropping a card breaks the 52-card partition.
	snap.Hand.Deck.Undealt = snap.Hand.Deck.Undealt[1:]

	_, err := RestoreTable(snap)
	require.Error(t, err)
	assert.True(t, IsIntegrity(err))
}

func TestSnapshotRejectsMissingBettingState(t *testing.T) {
	t.Parallel()

	tbl := newTestTable(t)
	require.NoError(t, tbl.StartHand())
	snap := tbl.Snapshot()
	snap.Hand.Betting = nil

	_, err := RestoreTable(snap)
	require.Error(t, err)
	assert.True(t, IsIntegrity(err))
}
