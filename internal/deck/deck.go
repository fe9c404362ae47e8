package deck

import (
	"errors"
	"fmt"
	rand "math/rand/v2"
)

// ErrInsufficientCards is returned when a deal or burn asks for more cards
// than remain undealt. The deck never reshuffles mid-hand to cover the
// shortfall, since that would leak information about cards already out.
var ErrInsufficientCards = errors.New("insufficient cards remaining in deck")

// Size is the number of cards in a standard deck.
const Size = 52

// Deck is a mutable 52-card collection. At all times the undealt, dealt and
// burned partitions together hold exactly the 52 distinct cards.
type Deck struct {
	undealt []Card
	dealt   []Card
	burned  []Card
	rng     *rand.Rand
}

// New creates a deck in canonical (suit, rank) order and shuffles it with
// the provided RNG. The RNG is required so that tests stay deterministic.
func New(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("deck: rng is required")
	}
	d := &Deck{rng: rng}
	d.Reset()
	d.Shuffle()
	return d
}

// NewUnshuffled creates a deck in canonical order without shuffling.
// Intended for tests that need known card positions.
func NewUnshuffled(rng *rand.Rand) *Deck {
	if rng == nil {
		panic("deck: rng is required")
	}
	d := &Deck{rng: rng}
	d.Reset()
	return d
}

// Reset discards all state and repopulates the deck with all 52 cards in
// canonical (suit, rank) order.
func (d *Deck) Reset() {
	d.undealt = make([]Card, 0, Size)
	d.dealt = d.dealt[:0]
	d.burned = d.burned[:0]
	for suit := Hearts; suit <= Spades; suit++ {
		for rank := Two; rank <= Ace; rank++ {
			d.undealt = append(d.undealt, NewCard(suit, rank))
		}
	}
}

// Shuffle applies a Fisher-Yates permutation to the undealt portion.
func (d *Deck) Shuffle() {
	d.rng.Shuffle(len(d.undealt), func(i, j int) {
		d.undealt[i], d.undealt[j] = d.undealt[j], d.undealt[i]
	})
}

// Deal removes and returns the top n cards, moving them to the dealt
// partition. Fails with ErrInsufficientCards when n exceeds the remaining
// cards; no cards move on failure.
func (d *Deck) Deal(n int) ([]Card, error) {
	if n < 0 {
		return nil, fmt.Errorf("deal count must be non-negative, got %d", n)
	}
	if n > len(d.undealt) {
		return nil, fmt.Errorf("deal %d: %w (%d remaining)", n, ErrInsufficientCards, len(d.undealt))
	}
	cards := make([]Card, n)
	copy(cards, d.undealt[:n])
	d.dealt = append(d.dealt, cards...)
	d.undealt = d.undealt[n:]
	return cards, nil
}

// Burn deals exactly one card into the burned partition, invisible to all
// players.
func (d *Deck) Burn() error {
	if len(d.undealt) == 0 {
		return fmt.Errorf("burn: %w", ErrInsufficientCards)
	}
	d.burned = append(d.burned, d.undealt[0])
	d.undealt = d.undealt[1:]
	return nil
}

// RestoreForNewHand reunites the dealt and burned partitions with the
// undealt cards and reshuffles. Called between hands only, never mid-hand.
func (d *Deck) RestoreForNewHand() {
	d.undealt = append(d.undealt, d.dealt...)
	d.undealt = append(d.undealt, d.burned...)
	d.dealt = d.dealt[:0]
	d.burned = d.burned[:0]
	d.Shuffle()
}

// Remaining returns the number of undealt cards.
func (d *Deck) Remaining() int {
	return len(d.undealt)
}

// Dealt returns a copy of the dealt partition.
func (d *Deck) Dealt() []Card {
	out := make([]Card, len(d.dealt))
	copy(out, d.dealt)
	return out
}

// Burned returns the number of burned cards.
func (d *Deck) Burned() int {
	return len(d.burned)
}

// Check verifies the partition invariant: the three collections hold
// exactly the 52 distinct cards with no overlap.
func (d *Deck) Check() error {
	total := len(d.undealt) + len(d.dealt) + len(d.burned)
	if total != Size {
		return fmt.Errorf("deck holds %d cards, want %d", total, Size)
	}
	seen := make(map[Card]bool, Size)
	for _, group := range [][]Card{d.undealt, d.dealt, d.burned} {
		for _, c := range group {
			if seen[c] {
				return fmt.Errorf("duplicate card %s in deck", c)
			}
			seen[c] = true
		}
	}
	return nil
}

// Snapshot captures the full deck state for persistence.
type Snapshot struct {
	Undealt []Card `json:"undealt"`
	Dealt   []Card `json:"dealt"`
	Burned  []Card `json:"burned"`
}

// Snapshot returns a copy of the deck's three partitions.
func (d *Deck) Snapshot() Snapshot {
	s := Snapshot{
		Undealt: make([]Card, len(d.undealt)),
		Dealt:   make([]Card, len(d.dealt)),
		Burned:  make([]Card, len(d.burned)),
	}
	copy(s.Undealt, d.undealt)
	copy(s.Dealt, d.dealt)
	copy(s.Burned, d.burned)
	return s
}

// Restore rebuilds a deck from a snapshot, verifying the partition
// invariant before accepting it.
func Restore(s Snapshot, rng *rand.Rand) (*Deck, error) {
	if rng == nil {
		panic("deck: rng is required")
	}
	d := &Deck{
		undealt: append([]Card(nil), s.Undealt...),
		dealt:   append([]Card(nil), s.Dealt...),
		burned:  append([]Card(nil), s.Burned...),
		rng:     rng,
	}
	if err := d.Check(); err != nil {
		return nil, fmt.Errorf("restore deck: %w", err)
	}
	return d, nil
}
