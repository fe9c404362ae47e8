package game

import (
	"encoding/json"
	"io"

	"github.com/feltkit/holdem/internal/deck"
)

// TableSnapshot is the JSON-serializable state of a table, including any
// hand in progress. Restoring verifies the money and deck invariants, so a
// corrupted snapshot is rejected rather than resumed.
type TableSnapshot struct {
	ID         string        `json:"id"`
	MaxSeats   int           `json:"max_seats"`
	SmallBlind int           `json:"small_blind"`
	BigBlind   int           `json:"big_blind"`
	Button     int           `json:"button"`
	HandNumber int           `json:"hand_number"`
	State      TableState    `json:"state"`
	Players    []*Player     `json:"players"`
	Hand       *HandSnapshot `json:"hand,omitempty"`
}

// HandSnapshot captures a hand mid-flight.
type HandSnapshot struct {
	ID           string          `json:"id"`
	HandNumber   int             `json:"hand_number"`
	Button       int             `json:"button"`
	Street       Street          `json:"street"`
	Board        []deck.Card     `json:"board"`
	ActivePlayer int             `json:"active_player"`
	Betting      *BettingRound   `json:"betting"`
	Ledger       *LedgerSnapshot `json:"ledger"`
	Deck         deck.Snapshot   `json:"deck"`
	Complete     bool            `json:"complete"`
}

// LedgerSnapshot captures the pot ledger.
type LedgerSnapshot struct {
	Pots   []*Pot       `json:"pots"`
	Folded map[int]bool `json:"folded"`
	AllIn  map[int]int  `json:"all_in"`
	Posted int          `json:"posted"`
	Paid   int          `json:"paid"`
}

// Snapshot captures the table's full state. Safe to call at any point; the
// snapshot is deep enough that mutating the live table afterwards does not
// corrupt it.
func (t *Table) Snapshot() *TableSnapshot {
	t.mu.Lock()
	defer t.mu.Unlock()

	s := &TableSnapshot{
		ID:         t.ID,
		MaxSeats:   t.MaxSeats,
		SmallBlind: t.SmallBlind,
		BigBlind:   t.BigBlind,
		Button:     t.button,
		HandNumber: t.handNumber,
		State:      t.state,
		Players:    make([]*Player, len(t.players)),
	}
	for i, p := range t.players {
		cp := *p
		cp.HoleCards = append([]deck.Card(nil), p.HoleCards...)
		s.Players[i] = &cp
	}

	if t.hand != nil && !t.hand.IsComplete() {
		h := t.hand
		s.Hand = &HandSnapshot{
			ID:           h.ID,
			HandNumber:   h.HandNumber,
			Button:       h.Button,
			Street:       h.Street,
			Board:        append([]deck.Card(nil), h.Board...),
			ActivePlayer: h.ActivePlayer,
			Betting:      snapshotBetting(h.Betting),
			Ledger:       h.Ledger.snapshot(),
			Deck:         h.Deck.Snapshot(),
			Complete:     h.IsComplete(),
		}
	}
	return s
}

// WriteSnapshot writes the snapshot as JSON.
func (s *TableSnapshot) WriteSnapshot(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// ReadSnapshot parses a snapshot from JSON.
func ReadSnapshot(r io.Reader) (*TableSnapshot, error) {
	var s TableSnapshot
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, err
	}
	return &s, nil
}

// RestoreTable rebuilds a table from a snapshot. The deck partition, the
// ledger's money accounting and chip conservation are all re-verified; any
// failure returns an IntegrityError and no table.
func RestoreTable(s *TableSnapshot, opts ...TableOption) (*Table, error) {
	t := NewTable(s.MaxSeats, s.SmallBlind, s.BigBlind, opts...)
	t.ID = s.ID
	t.button = s.Button
	t.handNumber = s.HandNumber
	t.state = s.State

	t.players = make([]*Player, len(s.Players))
	for i, p := range s.Players {
		cp := *p
		if cp.Seat != i {
			return nil, integrityErrorf("snapshot: player %s at index %d claims seat %d", cp.ID, i, cp.Seat)
		}
		t.players[i] = &cp
	}

	if s.Hand != nil {
		hand, err := t.restoreHand(s.Hand)
		if err != nil {
			return nil, err
		}
		t.hand = hand
		if err := hand.CheckChipConservation(); err != nil {
			return nil, err
		}
		if t.state == TablePlaying {
			t.armTimer()
		}
	}
	return t, nil
}

func (t *Table) restoreHand(s *HandSnapshot) (*HandState, error) {
	d, err := deck.Restore(s.Deck, t.rng)
	if err != nil {
		return nil, integrityErrorf("snapshot deck: %v", err)
	}

	ledger, err := restoreLedger(s.Ledger)
	if err != nil {
		return nil, err
	}

	if s.Betting == nil {
		return nil, integrityErrorf("snapshot: hand %s has no betting state", s.ID)
	}
	if len(s.Betting.ActedThisRound) != len(t.players) {
		return nil, integrityErrorf("snapshot: betting tracks %d seats, table has %d", len(s.Betting.ActedThisRound), len(t.players))
	}

	// Paid-out chips already sit in the winners' stacks, so stacks plus
	// uncollected bets plus undistributed pots is the hand's starting total.
	startingTotal := ledger.Total()
	for _, p := range t.players {
		startingTotal += p.Chips + p.Bet
	}

	h := &HandState{
		ID:            s.ID,
		HandNumber:    s.HandNumber,
		Players:       t.players,
		Button:        s.Button,
		Street:        s.Street,
		Board:         append([]deck.Card(nil), s.Board...),
		Ledger:        ledger,
		Betting:       s.Betting,
		ActivePlayer:  s.ActivePlayer,
		Deck:          d,
		eval:          t.eval,
		bus:           t.bus,
		logger:        t.logger,
		smallBlind:    t.SmallBlind,
		bigBlind:      t.BigBlind,
		startingTotal: startingTotal,
		complete:      s.Complete,
	}
	return h, nil
}

func snapshotBetting(br *BettingRound) *BettingRound {
	cp := *br
	cp.ActedThisRound = append([]bool(nil), br.ActedThisRound...)
	return &cp
}

func (l *Ledger) snapshot() *LedgerSnapshot {
	s := &LedgerSnapshot{
		Pots:   make([]*Pot, len(l.pots)),
		Folded: make(map[int]bool, len(l.folded)),
		AllIn:  make(map[int]int, len(l.allIn)),
		Posted: l.posted,
		Paid:   l.paid,
	}
	for i, pot := range l.pots {
		s.Pots[i] = clonePot(pot)
	}
	for seat := range l.folded {
		s.Folded[seat] = true
	}
	for seat, ceiling := range l.allIn {
		s.AllIn[seat] = ceiling
	}
	return s
}

func restoreLedger(s *LedgerSnapshot) (*Ledger, error) {
	if s == nil || len(s.Pots) == 0 {
		return nil, integrityErrorf("snapshot: ledger has no pots")
	}
	l := &Ledger{
		pots:   make([]*Pot, len(s.Pots)),
		folded: make(map[int]bool, len(s.Folded)),
		allIn:  make(map[int]int, len(s.AllIn)),
		posted: s.Posted,
		paid:   s.Paid,
	}
	for i, pot := range s.Pots {
		l.pots[i] = clonePot(pot)
	}
	for seat := range s.Folded {
		l.folded[seat] = true
	}
	for seat, ceiling := range s.AllIn {
		l.allIn[seat] = ceiling
	}
	if err := l.CheckInvariants(); err != nil {
		return nil, err
	}
	return l, nil
}

func clonePot(p *Pot) *Pot {
	cp := &Pot{
		Level:         p.Level,
		Cap:           p.Cap,
		Amount:        p.Amount,
		Contributions: make(map[int]*Contribution, len(p.Contributions)),
		Eligible:      make(map[int]bool, len(p.Eligible)),
		Distributed:   p.Distributed,
	}
	for seat, c := range p.Contributions {
		cc := &Contribution{Seat: c.Seat, Amount: c.Amount, ByStreet: make(map[Street]int, len(c.ByStreet))}
		for street, amt := range c.ByStreet {
			cc.ByStreet[street] = amt
		}
		cp.Contributions[seat] = cc
	}
	for seat := range p.Eligible {
		cp.Eligible[seat] = true
	}
	if p.Payouts != nil {
		cp.Payouts = make(map[int]int, len(p.Payouts))
		for seat, amt := range p.Payouts {
			cp.Payouts[seat] = amt
		}
	}
	return cp
}
