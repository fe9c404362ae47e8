package game

import (
	"fmt"
	"io"
	"math/rand/v2"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/evaluator"
)

// HandOption configures a new hand.
type HandOption func(*handConfig)

type handConfig struct {
	id         string
	handNumber int
	deck       *deck.Deck
	bus        *Bus
	logger     *log.Logger
	eval       *evaluator.Evaluator
}

// WithHandID overrides the generated hand identifier.
func WithHandID(id string) HandOption {
	return func(c *handConfig) { c.id = id }
}

// WithHandNumber sets the table-relative hand counter.
func WithHandNumber(n int) HandOption {
	return func(c *handConfig) { c.handNumber = n }
}

// WithDeck supplies a prepared deck, typically pre-shuffled with a known
// seed or restored from a snapshot.
func WithDeck(d *deck.Deck) HandOption {
	return func(c *handConfig) { c.deck = d }
}

// WithBus attaches an event bus for hand lifecycle events.
func WithBus(b *Bus) HandOption {
	return func(c *handConfig) { c.bus = b }
}

// WithLogger attaches a logger.
func WithLogger(l *log.Logger) HandOption {
	return func(c *handConfig) { c.logger = l }
}

// WithEvaluator shares a caching evaluator across hands.
func WithEvaluator(e *evaluator.Evaluator) HandOption {
	return func(c *handConfig) { c.eval = e }
}

// NewHand deals a fresh hand: blinds are posted, hole cards dealt and the
// first player put on the clock. The players slice is indexed by seat and
// shared with the caller; every player must start with chips.
func NewHand(rng *rand.Rand, players []*Player, button, smallBlind, bigBlind int, opts ...HandOption) (*HandState, error) {
	if len(players) < 2 {
		return nil, validationErrorf("need at least 2 players, have %d", len(players))
	}
	if button < 0 || button >= len(players) {
		return nil, validationErrorf("button seat %d out of range", button)
	}
	if smallBlind <= 0 || bigBlind < smallBlind {
		return nil, validationErrorf("invalid blinds %d/%d", smallBlind, bigBlind)
	}

	cfg := handConfig{handNumber: 1}
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.id == "" {
		cfg.id = uuid.NewString()
	}
	if cfg.deck == nil {
		if rng == nil {
			return nil, validationErrorf("nil rng and no deck supplied")
		}
		cfg.deck = deck.New(rng)
		cfg.deck.Shuffle()
	}
	if cfg.eval == nil {
		cfg.eval = evaluator.New()
	}
	if cfg.logger == nil {
		cfg.logger = log.New(io.Discard)
	}

	startingTotal := 0
	seats := make([]int, 0, len(players))
	for i, p := range players {
		if p.Chips <= 0 {
			return nil, validationErrorf("seat %d has no chips", i)
		}
		p.Seat = i
		p.resetForHand()
		seats = append(seats, i)
		startingTotal += p.Chips
	}

	h := &HandState{
		ID:            cfg.id,
		HandNumber:    cfg.handNumber,
		Players:       players,
		Button:        button,
		Street:        Preflop,
		Ledger:        NewLedger(seats),
		Betting:       NewBettingRound(len(players), bigBlind),
		Deck:          cfg.deck,
		eval:          cfg.eval,
		bus:           cfg.bus,
		logger:        cfg.logger,
		smallBlind:    smallBlind,
		bigBlind:      bigBlind,
		startingTotal: startingTotal,
	}

	h.postBlinds()
	if err := h.dealHoleCards(); err != nil {
		return nil, err
	}

	h.ActivePlayer = h.nextActivePlayer(firstToActPreflop(players, button))
	h.logger.Info("hand started",
		"hand", h.ID, "number", h.HandNumber,
		"button", button, "blinds", fmt.Sprintf("%d/%d", smallBlind, bigBlind))
	h.publish(HandStartedEvent{
		eventStamp: stamp(),
		HandID:     h.ID,
		HandNumber: h.HandNumber,
		Button:     button,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		Seats:      seats,
	})

	if h.ActivePlayer == -1 || h.Betting.IsComplete(players, Preflop, button) {
		// Blinds put everyone all-in; deal straight through.
		if err := h.advanceStreet(); err != nil {
			return nil, err
		}
	}
	return h, nil
}

// firstToActPreflop returns the seat that opens the preflop betting.
// Heads-up the button (small blind) acts first; otherwise the seat after
// the big blind.
func firstToActPreflop(players []*Player, button int) int {
	if len(players) == 2 {
		return button
	}
	return (button + 3) % len(players)
}
