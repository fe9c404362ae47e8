package game

// Street represents the betting round
type Street int

const (
	Preflop Street = iota
	Flop
	Turn
	River
	Showdown
)

func (s Street) String() string {
	return [...]string{"preflop", "flop", "turn", "river", "showdown"}[s]
}

// Action represents a player action
type Action int

const (
	Fold Action = iota
	Check
	Call
	Bet
	Raise
	AllIn
)

func (a Action) String() string {
	return [...]string{"fold", "check", "call", "bet", "raise", "allin"}[a]
}

// BettingRound holds the transient per-street betting state. It is reset
// at every street boundary and owned exclusively by the hand.
type BettingRound struct {
	CurrentBet     int    `json:"current_bet"`      // highest per-player round bet so far
	MinRaise       int    `json:"min_raise"`        // last raise increment; the big blind before any raise
	LastRaiser     int    `json:"last_raiser"`      // seat of the last aggressor, -1 if none
	BBActed        bool   `json:"bb_acted"`         // big blind has used their preflop option
	ActedThisRound []bool `json:"acted_this_round"` // indexed by seat
	BigBlind       int    `json:"big_blind"`        // kept to reset MinRaise on new streets
}

// NewBettingRound creates the betting state for a hand's first street.
func NewBettingRound(numSeats, bigBlind int) *BettingRound {
	return &BettingRound{
		MinRaise:       bigBlind,
		LastRaiser:     -1,
		ActedThisRound: make([]bool, numSeats),
		BigBlind:       bigBlind,
	}
}

// ResetForNewRound clears per-street state. BBActed survives since it only
// matters preflop.
func (br *BettingRound) ResetForNewRound(numSeats int) {
	br.CurrentBet = 0
	br.MinRaise = br.BigBlind
	br.LastRaiser = -1
	br.ActedThisRound = make([]bool, numSeats)
}

// MarkActed marks a seat as having acted this round.
func (br *BettingRound) MarkActed(seat int) {
	if seat >= 0 && seat < len(br.ActedThisRound) {
		br.ActedThisRound[seat] = true
	}
}

// ValidActions returns the actions the player may legally take right now.
func (br *BettingRound) ValidActions(p *Player) []Action {
	if !p.CanAct() {
		return nil
	}

	actions := []Action{Fold}
	toCall := br.CurrentBet - p.Bet

	if toCall <= 0 {
		actions = append(actions, Check)
		if br.CurrentBet == 0 {
			if p.Chips >= br.BigBlind {
				actions = append(actions, Bet)
			}
		} else if p.Chips >= br.MinRaise {
			actions = append(actions, Raise)
		}
		if p.Chips > 0 {
			actions = append(actions, AllIn)
		}
		return actions
	}

	if toCall >= p.Chips {
		// A short call empties the stack and becomes an implicit all-in.
		actions = append(actions, Call, AllIn)
		return actions
	}

	actions = append(actions, Call)
	if p.Chips >= toCall+br.MinRaise {
		actions = append(actions, Raise)
	}
	actions = append(actions, AllIn)
	return actions
}

// IsComplete reports whether the betting round is finished: every player
// still in the hand has folded, is all-in, or has acted and matched the
// current bet. Preflop the big blind keeps their option even when all bets
// match.
func (br *BettingRound) IsComplete(players []*Player, street Street, button int) bool {
	active := 0
	for _, p := range players {
		if p.CanAct() {
			active++
		}
	}

	if active == 0 {
		return true
	}

	if active == 1 {
		// No betting is possible against a field that is all-in or
		// folded; the round closes as soon as the bet is matched.
		for _, p := range players {
			if p.CanAct() && p.Bet != br.CurrentBet {
				return false
			}
		}
		return true
	}

	for i, p := range players {
		if !p.CanAct() {
			continue
		}
		if p.Bet != br.CurrentBet {
			return false
		}
		if !br.ActedThisRound[i] {
			return false
		}
	}

	if street == Preflop && br.LastRaiser == -1 {
		bbSeat := bigBlindSeat(players, button)
		bb := players[bbSeat]
		if bb.CanAct() && !br.BBActed {
			return false // BB still gets the option
		}
	}

	return true
}

// smallBlindSeat returns the seat posting the small blind. Heads-up the
// button posts it.
func smallBlindSeat(players []*Player, button int) int {
	if len(players) == 2 {
		return button
	}
	return (button + 1) % len(players)
}

// bigBlindSeat returns the seat posting the big blind.
func bigBlindSeat(players []*Player, button int) int {
	if len(players) == 2 {
		return (button + 1) % len(players)
	}
	return (button + 2) % len(players)
}
