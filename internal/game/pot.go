package game

import (
	"fmt"
	"sort"
)

// Contribution is one seat's accumulated chips in one pot, tagged by
// street for audit.
type Contribution struct {
	Seat     int            `json:"seat"`
	Amount   int            `json:"amount"`
	ByStreet map[Street]int `json:"by_street"`
}

func (c *Contribution) add(amount int, street Street) {
	c.Amount += amount
	if c.ByStreet == nil {
		c.ByStreet = make(map[Street]int)
	}
	c.ByStreet[street] += amount
}

// remove takes amount back out, consuming the latest streets first, and
// returns the per-street breakdown removed. Used when a pot is split at an
// all-in ceiling.
func (c *Contribution) remove(amount int) map[Street]int {
	removed := make(map[Street]int)
	for street := River; street >= Preflop && amount > 0; street-- {
		have := c.ByStreet[street]
		if have == 0 {
			continue
		}
		take := min(have, amount)
		c.ByStreet[street] -= take
		if c.ByStreet[street] == 0 {
			delete(c.ByStreet, street)
		}
		c.Amount -= take
		removed[street] = take
		amount -= take
	}
	return removed
}

// Pot is the main pot (level 0) or a side pot. Amount always equals the
// sum of its contributions. Once distributed, the pot is immutable.
type Pot struct {
	Level         int                   `json:"level"`
	Cap           int                   `json:"cap"` // max per-seat contribution; 0 means uncapped
	Amount        int                   `json:"amount"`
	Contributions map[int]*Contribution `json:"contributions"`
	Eligible      map[int]bool          `json:"eligible"`
	Distributed   bool                  `json:"distributed"`
	Payouts       map[int]int           `json:"payouts,omitempty"`
}

// ID returns "main" for level 0 and "side-N" for side pots.
func (p *Pot) ID() string {
	if p.Level == 0 {
		return "main"
	}
	return fmt.Sprintf("side-%d", p.Level)
}

func (p *Pot) contribution(seat int) int {
	if c, ok := p.Contributions[seat]; ok {
		return c.Amount
	}
	return 0
}

func (p *Pot) maxContribution() int {
	maxC := 0
	for _, c := range p.Contributions {
		if c.Amount > maxC {
			maxC = c.Amount
		}
	}
	return maxC
}

func (p *Pot) addContribution(seat, amount int, street Street) {
	c, ok := p.Contributions[seat]
	if !ok {
		c = &Contribution{Seat: seat}
		p.Contributions[seat] = c
	}
	c.add(amount, street)
	p.Amount += amount
}

// PotShare reports how much of a posted contribution landed in which pot.
type PotShare struct {
	Pot    string `json:"pot"`
	Amount int    `json:"amount"`
}

// Ledger owns the main pot and its side pots, in increasing level order.
// It tracks fold and all-in status itself so that eligibility stays
// monotonic: anyone eligible for a side pot is eligible for every pot
// below it.
type Ledger struct {
	pots   []*Pot
	folded map[int]bool
	allIn  map[int]int // seat -> total-hand ceiling
	posted int
	paid   int
}

// NewLedger creates a ledger with an empty main pot covering the given
// seats.
func NewLedger(seats []int) *Ledger {
	eligible := make(map[int]bool, len(seats))
	for _, s := range seats {
		eligible[s] = true
	}
	return &Ledger{
		pots: []*Pot{{
			Contributions: make(map[int]*Contribution),
			Eligible:      eligible,
		}},
		folded: make(map[int]bool),
		allIn:  make(map[int]int),
	}
}

// Pots returns the pots in level order. Callers must not mutate them.
func (l *Ledger) Pots() []*Pot {
	return l.pots
}

// Total returns the chips currently sitting in undistributed pots.
func (l *Ledger) Total() int {
	total := 0
	for _, p := range l.pots {
		if !p.Distributed {
			total += p.Amount
		}
	}
	return total
}

// Posted returns all chips ever posted; Paid returns all chips paid out.
func (l *Ledger) Posted() int { return l.posted }
func (l *Ledger) Paid() int   { return l.paid }

// PostContribution routes amount across the pots in level order, filling
// each capped pot up to the space still available to this seat and
// creating a new side pot when every existing pot is capped. Returns the
// breakdown for audit.
func (l *Ledger) PostContribution(seat, amount int, street Street) ([]PotShare, error) {
	if amount <= 0 {
		return nil, validationErrorf("contribution must be positive, got %d", amount)
	}

	var shares []PotShare
	remaining := amount
	for _, pot := range l.pots {
		if remaining == 0 {
			break
		}
		if pot.Distributed {
			continue
		}
		take := remaining
		if pot.Cap > 0 {
			space := pot.Cap - pot.contribution(seat)
			if space <= 0 {
				continue
			}
			take = min(take, space)
		}
		pot.addContribution(seat, take, street)
		shares = append(shares, PotShare{Pot: pot.ID(), Amount: take})
		remaining -= take
	}

	if remaining > 0 {
		// Every pot is capped below this seat's contribution: open the
		// next side pot for the overage.
		pot := l.newSidePot()
		pot.addContribution(seat, remaining, street)
		shares = append(shares, PotShare{Pot: pot.ID(), Amount: remaining})
	}

	l.posted += amount
	return shares, nil
}

// newSidePot appends an uncapped pot whose eligible set is every seat that
// can still contribute: in the hand, not folded, and not capped out by an
// all-in below this level.
func (l *Ledger) newSidePot() *Pot {
	eligible := make(map[int]bool)
	for seat := range l.pots[0].Eligible {
		eligible[seat] = true
	}
	for seat := range l.allIn {
		delete(eligible, seat)
	}
	pot := &Pot{
		Level:         l.pots[len(l.pots)-1].Level + 1,
		Contributions: make(map[int]*Contribution),
		Eligible:      eligible,
	}
	l.pots = append(l.pots, pot)
	return pot
}

// MarkFolded removes the seat from every pot's eligible set. Chips already
// contributed stay where they are; folding forfeits eligibility, not money.
func (l *Ledger) MarkFolded(seat int) {
	l.folded[seat] = true
	for _, pot := range l.pots {
		delete(pot.Eligible, seat)
	}
}

// ResolveAllIn caps the seat's exposure at ceiling (their total
// contribution for the hand). Any pot holding more per-player than the
// seat's share of the ceiling is split: the excess of every deeper
// contributor moves into the next-level side pot, for which the all-in
// seat is not eligible. Guarantees that a seat is never eligible for more
// pot money than their ceiling covers.
func (l *Ledger) ResolveAllIn(seat, ceiling int) error {
	if ceiling <= 0 {
		return validationErrorf("all-in ceiling must be positive, got %d", ceiling)
	}
	l.allIn[seat] = ceiling

	base := 0 // cumulative caps of the pots below the current one
	for i := 0; i < len(l.pots); i++ {
		pot := l.pots[i]
		if pot.Distributed {
			base += pot.Cap
			continue
		}
		capInPot := ceiling - base
		if capInPot <= 0 {
			// Ceiling exhausted below this pot: the seat cannot win it.
			delete(pot.Eligible, seat)
			if pot.Cap > 0 {
				base += pot.Cap
			}
			continue
		}
		if pot.maxContribution() > capInPot {
			l.splitPot(i, capInPot)
		}
		if pot.Cap > 0 {
			base += pot.Cap
		}
	}
	return nil
}

// splitPot caps pot i at capPerSeat and pushes every contributor's excess
// into a fresh side pot inserted at level i+1.
func (l *Ledger) splitPot(i, capPerSeat int) {
	lower := l.pots[i]

	upper := &Pot{
		Cap:           0,
		Contributions: make(map[int]*Contribution),
		Eligible:      make(map[int]bool),
	}
	if lower.Cap > 0 {
		upper.Cap = lower.Cap - capPerSeat
	}
	lower.Cap = capPerSeat

	// Move each contributor's excess above the new cap.
	seats := make([]int, 0, len(lower.Contributions))
	for seat := range lower.Contributions {
		seats = append(seats, seat)
	}
	sort.Ints(seats)
	for _, seat := range seats {
		c := lower.Contributions[seat]
		excess := c.Amount - capPerSeat
		if excess <= 0 {
			continue
		}
		moved := c.remove(excess)
		lower.Amount -= excess
		for street, amt := range moved {
			upper.addContribution(seat, amt, street)
		}
	}

	// The upper pot is open to everyone still eligible below who is not
	// capped out at this level; eligibility stays monotonic.
	for seat := range lower.Eligible {
		if ceiling, ok := l.allIn[seat]; ok {
			if ceiling <= l.capThrough(i) {
				continue
			}
		}
		upper.Eligible[seat] = true
	}

	// Insert after pot i and renumber the levels above.
	l.pots = append(l.pots, nil)
	copy(l.pots[i+2:], l.pots[i+1:])
	l.pots[i+1] = upper
	for lvl, p := range l.pots {
		p.Level = lvl
	}
}

// capThrough returns the cumulative per-seat cap of pots 0..i.
func (l *Ledger) capThrough(i int) int {
	total := 0
	for j := 0; j <= i && j < len(l.pots); j++ {
		total += l.pots[j].Cap
	}
	return total
}

// DistributeAll pays out every undistributed pot, main first then side
// pots in level order. For each pot the ranked seats are filtered to the
// pot's eligible set and only the best-ranked subset is paid: different
// pots can go to different players. Ties split the pot evenly with the
// remainder chips going one at a time to the lowest-numbered tied seats.
// Distribution is idempotent: already-distributed pots contribute their
// recorded payouts and are not paid again.
//
// rankedSeats lists showdown contenders best-first; rankValue gives each
// seat's total-order ranking value (equal values tie).
func (l *Ledger) DistributeAll(rankedSeats []int, rankValue map[int]int) (map[int]int, error) {
	payouts := make(map[int]int)

	for _, pot := range l.pots {
		if pot.Amount == 0 && !pot.Distributed {
			pot.Distributed = true
			continue
		}
		if pot.Distributed {
			for seat, amt := range pot.Payouts {
				payouts[seat] += amt
			}
			continue
		}

		var candidates []int
		for _, seat := range rankedSeats {
			if pot.Eligible[seat] {
				candidates = append(candidates, seat)
			}
		}
		if len(candidates) == 0 {
			return nil, integrityWrapf(ErrNoEligibleWinner, "%s", pot.ID())
		}

		best := rankValue[candidates[0]]
		var winners []int
		for _, seat := range candidates {
			if rankValue[seat] == best {
				winners = append(winners, seat)
			}
		}
		sort.Ints(winners) // deterministic table-position order

		share := pot.Amount / len(winners)
		remainder := pot.Amount % len(winners)
		pot.Payouts = make(map[int]int, len(winners))
		for idx, seat := range winners {
			amt := share
			if idx < remainder {
				amt++
			}
			pot.Payouts[seat] = amt
			payouts[seat] += amt
		}
		pot.Distributed = true
		l.paid += pot.Amount
	}

	return payouts, nil
}

// CheckInvariants verifies the ledger's money accounting: every pot sums
// to its contributions, chips in equals chips out plus what remains, and
// side-pot eligibility is monotonic.
func (l *Ledger) CheckInvariants() error {
	contributed := 0
	for _, pot := range l.pots {
		sum := 0
		for _, c := range pot.Contributions {
			sum += c.Amount
			byStreet := 0
			for _, amt := range c.ByStreet {
				byStreet += amt
			}
			if byStreet != c.Amount {
				return integrityErrorf("%s seat %d: street audit %d != amount %d", pot.ID(), c.Seat, byStreet, c.Amount)
			}
		}
		if sum != pot.Amount {
			return integrityErrorf("%s: amount %d != contribution sum %d", pot.ID(), pot.Amount, sum)
		}
		contributed += pot.Amount
	}
	if contributed != l.posted {
		return integrityErrorf("pots hold %d, posted %d", contributed, l.posted)
	}
	if l.Total() != l.posted-l.paid {
		return integrityErrorf("undistributed %d != posted %d - paid %d", l.Total(), l.posted, l.paid)
	}
	for i := 1; i < len(l.pots); i++ {
		for seat := range l.pots[i].Eligible {
			if !l.pots[i-1].Eligible[seat] && !l.pots[i-1].Distributed {
				return integrityErrorf("seat %d eligible for %s but not %s", seat, l.pots[i].ID(), l.pots[i-1].ID())
			}
		}
	}
	return nil
}
