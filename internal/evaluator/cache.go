package evaluator

import (
	"sort"
	"sync"

	"github.com/feltkit/holdem/internal/deck"
)

// Evaluator memoizes evaluations keyed by the canonical card set, so
// repeated showdown or equity lookups of the same 7 cards are free. Safe
// for concurrent use: the cache is read-mostly with insert-once semantics.
type Evaluator struct {
	mu    sync.RWMutex
	cache map[uint64]HandRanking
}

// New creates an Evaluator with an empty cache.
func New() *Evaluator {
	return &Evaluator{cache: make(map[uint64]HandRanking)}
}

// Evaluate behaves like the package-level Evaluate but consults the cache
// first.
func (e *Evaluator) Evaluate(holeCards, communityCards []deck.Card) (HandRanking, error) {
	if len(holeCards) != 2 || len(communityCards) > 5 {
		// Delegate so error wording lives in one place.
		return Evaluate(holeCards, communityCards)
	}

	key := cacheKey(holeCards, communityCards)

	e.mu.RLock()
	hr, ok := e.cache[key]
	e.mu.RUnlock()
	if ok {
		return hr, nil
	}

	hr, err := Evaluate(holeCards, communityCards)
	if err != nil {
		return HandRanking{}, err
	}

	e.mu.Lock()
	e.cache[key] = hr
	e.mu.Unlock()
	return hr, nil
}

// Size returns the number of cached evaluations.
func (e *Evaluator) Size() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.cache)
}

// Reset clears the cache; call between hands if memory matters.
func (e *Evaluator) Reset() {
	e.mu.Lock()
	e.cache = make(map[uint64]HandRanking)
	e.mu.Unlock()
}

// cacheKey packs the sorted card set into a uint64, 6 bits per card.
// Order-insensitive: the same 7 cards always produce the same key.
func cacheKey(holeCards, communityCards []deck.Card) uint64 {
	ids := make([]int, 0, 7)
	for _, c := range holeCards {
		ids = append(ids, cardID(c))
	}
	for _, c := range communityCards {
		ids = append(ids, cardID(c))
	}
	sort.Ints(ids)
	var key uint64
	for _, id := range ids {
		key = key<<6 | uint64(id+1)
	}
	return key
}

func cardID(c deck.Card) int {
	return int(c.Suit)*13 + int(c.Rank) - 2
}
