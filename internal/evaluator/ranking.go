package evaluator

import (
	"strings"

	"github.com/feltkit/holdem/internal/deck"
)

// Category classifies a 5-card hand. Higher is stronger.
type Category int

const (
	HighCard Category = iota + 1
	OnePair
	TwoPair
	ThreeOfAKind
	Straight
	Flush
	FullHouse
	FourOfAKind
	StraightFlush
	RoyalFlush
)

// String returns the display name of the category
func (c Category) String() string {
	switch c {
	case HighCard:
		return "High Card"
	case OnePair:
		return "One Pair"
	case TwoPair:
		return "Two Pair"
	case ThreeOfAKind:
		return "Three of a Kind"
	case Straight:
		return "Straight"
	case Flush:
		return "Flush"
	case FullHouse:
		return "Full House"
	case FourOfAKind:
		return "Four of a Kind"
	case StraightFlush:
		return "Straight Flush"
	case RoyalFlush:
		return "Royal Flush"
	default:
		return "Unknown"
	}
}

// tiebreakBase weights the five significant card values as digits below
// the category; no real five-card combination reaches the next category's
// floor, so category dominance survives the encoding.
const tiebreakBase = 14

// HandRanking is the evaluator's output: the best 5-card hand found, its
// category, and a single integer encoding a strict total order.
type HandRanking struct {
	Category Category
	// BestFive holds the ranked 5-card hand in significance order
	// (e.g. quads first, kicker last).
	BestFive []deck.Card
	// Tiebreak encodes category and kickers; equal values mean an exact
	// tie (split pot).
	Tiebreak int
}

// String returns e.g. "Full House (K♠ K♥ K♦ 2♣ 2♠)"
func (hr HandRanking) String() string {
	parts := make([]string, len(hr.BestFive))
	for i, c := range hr.BestFive {
		parts[i] = c.String()
	}
	return hr.Category.String() + " (" + strings.Join(parts, " ") + ")"
}

// tiebreak computes category*14^5 + Σ values[i]*14^(4-i). The values are
// the five significant card values in significance order; the wheel passes
// the ace as 1.
func tiebreak(cat Category, values [5]int) int {
	t := int(cat)
	for _, v := range values {
		t = t*tiebreakBase + v
	}
	return t
}

// Compare returns >0 if a beats b, <0 if b beats a, 0 on an exact tie.
// Category dominance is guaranteed by the tiebreak encoding: any hand of a
// higher category outranks every hand of a lower one.
func Compare(a, b HandRanking) int {
	switch {
	case a.Tiebreak > b.Tiebreak:
		return 1
	case a.Tiebreak < b.Tiebreak:
		return -1
	default:
		return 0
	}
}
