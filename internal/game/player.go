package game

import "github.com/feltkit/holdem/internal/deck"

// Player is a seat's hand context: chip stack, committed bets and status
// flags. The table owns the record across hands; the hand mutates it
// through actions.
type Player struct {
	Seat       int         `json:"seat"`
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	Chips      int         `json:"chips"`
	HoleCards  []deck.Card `json:"hole_cards,omitempty"`
	Folded     bool        `json:"folded"`
	AllIn      bool        `json:"all_in"`
	SittingOut bool        `json:"sitting_out"`
	Bet        int         `json:"bet"`       // chips committed this betting round
	TotalBet   int         `json:"total_bet"` // chips committed this hand
}

// InHand returns true if the player was dealt in and has not folded.
func (p *Player) InHand() bool {
	return len(p.HoleCards) > 0 && !p.Folded
}

// CanAct returns true if the player can still take a betting action.
func (p *Player) CanAct() bool {
	return p.InHand() && !p.AllIn && p.Chips > 0
}

func (p *Player) resetForHand() {
	p.HoleCards = nil
	p.Folded = false
	p.AllIn = false
	p.Bet = 0
	p.TotalBet = 0
}
