package evaluator

import (
	"errors"
	"fmt"
	"sort"

	"github.com/feltkit/holdem/internal/deck"
)

// ErrInvalidHandSize is returned when the hole/community card counts are
// outside what Texas Hold'em allows.
var ErrInvalidHandSize = errors.New("invalid hand size")

// Evaluate returns the best 5-card ranking available from two hole cards
// and up to five community cards. It is a pure function; use an Evaluator
// when repeated evaluations of the same cards should be memoized.
func Evaluate(holeCards, communityCards []deck.Card) (HandRanking, error) {
	if len(holeCards) != 2 {
		return HandRanking{}, fmt.Errorf("%w: need exactly 2 hole cards, got %d", ErrInvalidHandSize, len(holeCards))
	}
	if len(communityCards) > 5 {
		return HandRanking{}, fmt.Errorf("%w: at most 5 community cards, got %d", ErrInvalidHandSize, len(communityCards))
	}
	cards := make([]deck.Card, 0, len(holeCards)+len(communityCards))
	cards = append(cards, holeCards...)
	cards = append(cards, communityCards...)
	return evaluate(cards), nil
}

// evaluate classifies up to 7 cards, checking categories from strongest to
// weakest and short-circuiting on the first match.
func evaluate(cards []deck.Card) HandRanking {
	sorted := sortByValueDesc(cards)
	counts := countByValue(sorted)
	suits := groupBySuit(sorted)

	if hr, ok := straightFlush(suits); ok {
		return hr
	}
	if hr, ok := fourOfAKind(sorted, counts); ok {
		return hr
	}
	if hr, ok := fullHouse(sorted, counts); ok {
		return hr
	}
	if hr, ok := flush(suits); ok {
		return hr
	}
	if hr, ok := straight(sorted); ok {
		return hr
	}
	if hr, ok := threeOfAKind(sorted, counts); ok {
		return hr
	}
	if hr, ok := twoPair(sorted, counts); ok {
		return hr
	}
	if hr, ok := onePair(sorted, counts); ok {
		return hr
	}
	return highCard(sorted)
}

func sortByValueDesc(cards []deck.Card) []deck.Card {
	out := make([]deck.Card, len(cards))
	copy(out, cards)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Value() > out[j].Value()
	})
	return out
}

func countByValue(cards []deck.Card) map[int]int {
	counts := make(map[int]int, len(cards))
	for _, c := range cards {
		counts[c.Value()]++
	}
	return counts
}

func groupBySuit(cards []deck.Card) map[deck.Suit][]deck.Card {
	suits := make(map[deck.Suit][]deck.Card, 4)
	for _, c := range cards {
		suits[c.Suit] = append(suits[c.Suit], c)
	}
	return suits
}

// bestStraightHigh finds the highest top value of 5 consecutive values in
// the set, treating the ace as 1 for the wheel. Returns 0 if none.
func bestStraightHigh(values map[int]bool) int {
	for high := 14; high >= 6; high-- {
		run := true
		for v := high; v > high-5; v-- {
			if !values[v] {
				run = false
				break
			}
		}
		if run {
			return high
		}
	}
	// Wheel: A-2-3-4-5 with the ace counting as 1.
	if values[14] && values[2] && values[3] && values[4] && values[5] {
		return 5
	}
	return 0
}

// straightCards picks one card per value of the run topped by high. The
// wheel's low ace is represented by the Ace card itself.
func straightCards(cards []deck.Card, high int) []deck.Card {
	out := make([]deck.Card, 0, 5)
	for v := high; v > high-5; v-- {
		want := v
		if want == 1 {
			want = 14
		}
		for _, c := range cards {
			if c.Value() == want {
				out = append(out, c)
				break
			}
		}
	}
	return out
}

func straightValues(high int) [5]int {
	var vals [5]int
	for i := 0; i < 5; i++ {
		vals[i] = high - i
	}
	return vals
}

func straightFlush(suits map[deck.Suit][]deck.Card) (HandRanking, bool) {
	for _, suited := range suits {
		if len(suited) < 5 {
			continue
		}
		values := make(map[int]bool, len(suited))
		for _, c := range suited {
			values[c.Value()] = true
		}
		high := bestStraightHigh(values)
		if high == 0 {
			continue
		}
		best := straightCards(suited, high)
		cat := StraightFlush
		if high == 14 {
			cat = RoyalFlush
		}
		return HandRanking{
			Category: cat,
			BestFive: best,
			Tiebreak: tiebreak(cat, straightValues(high)),
		}, true
	}
	return HandRanking{}, false
}

func fourOfAKind(sorted []deck.Card, counts map[int]int) (HandRanking, bool) {
	quad := 0
	for v, n := range counts {
		if n == 4 && v > quad {
			quad = v
		}
	}
	if quad == 0 {
		return HandRanking{}, false
	}
	best := cardsOfValue(sorted, quad, 4)
	vals := [5]int{quad, quad, quad, quad, 0}
	if kickers := kickersExcluding(sorted, 1, quad); len(kickers) > 0 {
		vals[4] = kickers[0].Value()
		best = append(best, kickers[0])
	}
	return HandRanking{
		Category: FourOfAKind,
		BestFive: best,
		Tiebreak: tiebreak(FourOfAKind, vals),
	}, true
}

func fullHouse(sorted []deck.Card, counts map[int]int) (HandRanking, bool) {
	trips := 0
	for v, n := range counts {
		if n >= 3 && v > trips {
			trips = v
		}
	}
	if trips == 0 {
		return HandRanking{}, false
	}
	// The pair may come from a second set of trips, but must be a
	// different rank than the trips.
	pair := 0
	for v, n := range counts {
		if v != trips && n >= 2 && v > pair {
			pair = v
		}
	}
	if pair == 0 {
		return HandRanking{}, false
	}
	best := cardsOfValue(sorted, trips, 3)
	best = append(best, cardsOfValue(sorted, pair, 2)...)
	return HandRanking{
		Category: FullHouse,
		BestFive: best,
		Tiebreak: tiebreak(FullHouse, [5]int{trips, trips, trips, pair, pair}),
	}, true
}

func flush(suits map[deck.Suit][]deck.Card) (HandRanking, bool) {
	for _, suited := range suits {
		if len(suited) < 5 {
			continue
		}
		best := sortByValueDesc(suited)[:5]
		var vals [5]int
		for i, c := range best {
			vals[i] = c.Value()
		}
		return HandRanking{
			Category: Flush,
			BestFive: best,
			Tiebreak: tiebreak(Flush, vals),
		}, true
	}
	return HandRanking{}, false
}

func straight(sorted []deck.Card) (HandRanking, bool) {
	values := make(map[int]bool, len(sorted))
	for _, c := range sorted {
		values[c.Value()] = true
	}
	high := bestStraightHigh(values)
	if high == 0 {
		return HandRanking{}, false
	}
	return HandRanking{
		Category: Straight,
		BestFive: straightCards(sorted, high),
		Tiebreak: tiebreak(Straight, straightValues(high)),
	}, true
}

func threeOfAKind(sorted []deck.Card, counts map[int]int) (HandRanking, bool) {
	trips := 0
	for v, n := range counts {
		if n == 3 && v > trips {
			trips = v
		}
	}
	if trips == 0 {
		return HandRanking{}, false
	}
	best := cardsOfValue(sorted, trips, 3)
	kickers := kickersExcluding(sorted, 2, trips)
	vals := [5]int{trips, trips, trips}
	for i, k := range kickers {
		vals[3+i] = k.Value()
	}
	return HandRanking{
		Category: ThreeOfAKind,
		BestFive: append(best, kickers...),
		Tiebreak: tiebreak(ThreeOfAKind, vals),
	}, true
}

func twoPair(sorted []deck.Card, counts map[int]int) (HandRanking, bool) {
	pairs := pairValuesDesc(counts)
	if len(pairs) < 2 {
		return HandRanking{}, false
	}
	hi, lo := pairs[0], pairs[1]
	best := cardsOfValue(sorted, hi, 2)
	best = append(best, cardsOfValue(sorted, lo, 2)...)
	kickers := kickersExcluding(sorted, 1, hi, lo)
	vals := [5]int{hi, hi, lo, lo}
	if len(kickers) > 0 {
		vals[4] = kickers[0].Value()
	}
	return HandRanking{
		Category: TwoPair,
		BestFive: append(best, kickers...),
		Tiebreak: tiebreak(TwoPair, vals),
	}, true
}

func onePair(sorted []deck.Card, counts map[int]int) (HandRanking, bool) {
	pairs := pairValuesDesc(counts)
	if len(pairs) == 0 {
		return HandRanking{}, false
	}
	pair := pairs[0]
	best := cardsOfValue(sorted, pair, 2)
	kickers := kickersExcluding(sorted, 3, pair)
	vals := [5]int{pair, pair}
	for i, k := range kickers {
		vals[2+i] = k.Value()
	}
	return HandRanking{
		Category: OnePair,
		BestFive: append(best, kickers...),
		Tiebreak: tiebreak(OnePair, vals),
	}, true
}

func highCard(sorted []deck.Card) HandRanking {
	n := len(sorted)
	if n > 5 {
		n = 5
	}
	best := sorted[:n]
	var vals [5]int
	for i, c := range best {
		vals[i] = c.Value()
	}
	return HandRanking{
		Category: HighCard,
		BestFive: best,
		Tiebreak: tiebreak(HighCard, vals),
	}
}

func pairValuesDesc(counts map[int]int) []int {
	var pairs []int
	for v, n := range counts {
		if n >= 2 {
			pairs = append(pairs, v)
		}
	}
	sort.Sort(sort.Reverse(sort.IntSlice(pairs)))
	return pairs
}

func cardsOfValue(sorted []deck.Card, value, n int) []deck.Card {
	out := make([]deck.Card, 0, n)
	for _, c := range sorted {
		if c.Value() == value {
			out = append(out, c)
			if len(out) == n {
				break
			}
		}
	}
	return out
}

func kickersExcluding(sorted []deck.Card, n int, exclude ...int) []deck.Card {
	out := make([]deck.Card, 0, n)
	for _, c := range sorted {
		if contains(exclude, c.Value()) {
			continue
		}
		out = append(out, c)
		if len(out) == n {
			break
		}
	}
	return out
}

func contains(values []int, v int) bool {
	for _, x := range values {
		if x == v {
			return true
		}
	}
	return false
}
