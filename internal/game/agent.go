package game

import "math/rand/v2"

// Agent decides an action for a seat. Agents drive simulated tables from
// the CLI and exercise full hands in tests.
type Agent interface {
	Act(h *HandState, seat int) (Action, int)
}

// AgentFunc adapts a function to the Agent interface.
type AgentFunc func(h *HandState, seat int) (Action, int)

func (f AgentFunc) Act(h *HandState, seat int) (Action, int) { return f(h, seat) }

// CallingAgent checks when it can and calls when it must. It never folds
// and never raises, which keeps every seat in to showdown.
type CallingAgent struct{}

func (CallingAgent) Act(h *HandState, seat int) (Action, int) {
	for _, a := range h.ValidActions() {
		if a == Check {
			return Check, 0
		}
	}
	for _, a := range h.ValidActions() {
		if a == Call {
			return Call, 0
		}
	}
	return Fold, 0
}

// RandomAgent picks uniformly among the legal actions, sizing bets and
// raises at the legal minimum.
type RandomAgent struct {
	Rng *rand.Rand
}

func (r RandomAgent) Act(h *HandState, seat int) (Action, int) {
	actions := h.ValidActions()
	if len(actions) == 0 {
		return Fold, 0
	}
	a := actions[r.Rng.IntN(len(actions))]
	switch a {
	case Bet:
		return Bet, h.Betting.BigBlind
	case Raise:
		return Raise, h.Betting.CurrentBet + h.Betting.MinRaise
	default:
		return a, 0
	}
}
