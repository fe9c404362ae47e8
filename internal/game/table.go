package game

import (
	"io"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/feltkit/holdem/internal/deck"
	"github.com/feltkit/holdem/internal/evaluator"
	"github.com/feltkit/holdem/internal/randutil"
)

// TableState represents the table lifecycle.
type TableState int

const (
	TableLobby TableState = iota
	TablePlaying
	TablePaused
	TableHandComplete
)

func (s TableState) String() string {
	return [...]string{"lobby", "playing", "paused", "hand_complete"}[s]
}

// Table owns a single poker table. All entry points take the table mutex,
// so hand state is only ever mutated by one caller at a time; the turn
// timer's expiry funnels through the same lock.
type Table struct {
	ID         string
	MaxSeats   int
	SmallBlind int
	BigBlind   int

	mu         sync.Mutex
	players    []*Player
	button     int
	state      TableState
	handNumber int
	hand       *HandState
	deck       *deck.Deck

	rng     *rand.Rand
	eval    *evaluator.Evaluator
	bus     *Bus
	timer   *TurnTimer
	clock   quartz.Clock
	timeout time.Duration
	logger  *log.Logger
}

// TableOption configures a table.
type TableOption func(*Table)

// WithSeed makes the table's shuffles deterministic.
func WithSeed(seed int64) TableOption {
	return func(t *Table) { t.rng = randutil.New(seed) }
}

// WithClock injects the clock used for the turn timer. Tests pass a
// *quartz.Mock.
func WithClock(c quartz.Clock) TableOption {
	return func(t *Table) { t.clock = c }
}

// WithTurnTimeout sets the per-turn action deadline. Zero disables the
// timer entirely.
func WithTurnTimeout(d time.Duration) TableOption {
	return func(t *Table) { t.timeout = d }
}

// WithTableBus attaches an event bus shared by every hand at the table.
func WithTableBus(b *Bus) TableOption {
	return func(t *Table) { t.bus = b }
}

// WithTableLogger attaches a logger.
func WithTableLogger(l *log.Logger) TableOption {
	return func(t *Table) { t.logger = l }
}

// NewTable creates an empty table in the lobby state.
func NewTable(maxSeats, smallBlind, bigBlind int, opts ...TableOption) *Table {
	t := &Table{
		ID:         uuid.NewString(),
		MaxSeats:   maxSeats,
		SmallBlind: smallBlind,
		BigBlind:   bigBlind,
		state:      TableLobby,
		clock:      quartz.NewReal(),
		eval:       evaluator.New(),
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.rng == nil {
		t.rng = randutil.New(time.Now().UnixNano())
	}
	if t.bus == nil {
		t.bus = NewBus()
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	if t.timeout > 0 {
		t.timer = NewTurnTimer(t.clock, t.timeout)
	}
	t.deck = deck.New(t.rng)
	return t
}

// Bus returns the table's event bus.
func (t *Table) Bus() *Bus { return t.bus }

// State returns the current lifecycle state.
func (t *Table) State() TableState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.state
}

// Seat adds a player with a starting stack. Seating is only allowed in
// the lobby or between hands.
func (t *Table) Seat(id, name string, chips int) (int, error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TableLobby && t.state != TableHandComplete {
		return -1, validationErrorf("cannot seat players while a hand is in progress")
	}
	if len(t.players) >= t.MaxSeats {
		return -1, validationErrorf("table is full (%d seats)", t.MaxSeats)
	}
	if chips <= 0 {
		return -1, validationErrorf("starting stack must be positive, got %d", chips)
	}
	for _, p := range t.players {
		if p.ID == id {
			return -1, validationErrorf("player %s already seated", id)
		}
	}

	seat := len(t.players)
	t.players = append(t.players, &Player{Seat: seat, ID: id, Name: name, Chips: chips})
	t.logger.Info("player seated", "table", t.ID, "seat", seat, "player", id, "chips", chips)
	return seat, nil
}

// Players returns the seated players in seat order.
func (t *Table) Players() []*Player {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*Player, len(t.players))
	copy(out, t.players)
	return out
}

// CurrentHand returns the hand in progress, or nil.
func (t *Table) CurrentHand() *HandState {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.hand
}

// ActiveSeat snapshots the player on the clock under the table lock. ok is
// false when no hand is awaiting action.
func (t *Table) ActiveSeat() (seat int, playerID string, ok bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TablePlaying || t.hand == nil {
		return -1, "", false
	}
	seat = t.hand.ActivePlayer
	if seat < 0 || seat >= len(t.players) {
		return -1, "", false
	}
	return seat, t.players[seat].ID, true
}

// ActFor runs the agent's decision for the given player entirely under the
// table lock, so a timer expiry can never interleave with the decision. If
// the player is no longer on the clock the turn was superseded, typically
// by a timeout fold, and the call is a no-op: the caller should consult
// ActiveSeat again.
func (t *Table) ActFor(playerID string, agent Agent) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TablePlaying || t.hand == nil {
		return nil
	}
	seat := t.hand.ActivePlayer
	if seat < 0 || seat >= len(t.players) || t.players[seat].ID != playerID {
		return nil
	}

	action, amount := agent.Act(t.hand, seat)
	if err := t.hand.ProcessAction(seat, action, amount); err != nil {
		return err
	}
	t.afterAction()
	return nil
}

// StartHand compacts out busted seats, advances the button and deals the
// next hand. Fails unless at least two funded players remain.
func (t *Table) StartHand() error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TablePlaying || t.state == TablePaused {
		return validationErrorf("hand already in progress")
	}

	t.compactSeats()
	if len(t.players) < 2 {
		return validationErrorf("need at least 2 funded players, have %d", len(t.players))
	}

	if t.handNumber > 0 {
		t.button = (t.button + 1) % len(t.players)
	} else {
		t.button = 0
	}
	t.handNumber++

	t.deck.RestoreForNewHand()

	hand, err := NewHand(t.rng, t.players, t.button, t.SmallBlind, t.BigBlind,
		WithHandNumber(t.handNumber),
		WithDeck(t.deck),
		WithBus(t.bus),
		WithLogger(t.logger),
		WithEvaluator(t.eval),
	)
	if err != nil {
		return err
	}
	t.hand = hand

	if hand.IsComplete() {
		t.state = TableHandComplete
		return nil
	}
	t.state = TablePlaying
	t.armTimer()
	return nil
}

// HandleAction applies an action on behalf of a player ID. The lock makes
// this the single serialization point for player input and timer expiry.
func (t *Table) HandleAction(playerID string, action Action, amount int) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state == TablePaused {
		return validationErrorf("table is paused")
	}
	if t.state != TablePlaying || t.hand == nil {
		return validationErrorf("no hand in progress")
	}

	seat := -1
	for _, p := range t.players {
		if p.ID == playerID {
			seat = p.Seat
			break
		}
	}
	if seat == -1 {
		return validationErrorf("player %s is not seated", playerID)
	}

	if err := t.hand.ProcessAction(seat, action, amount); err != nil {
		return err
	}
	t.afterAction()
	return nil
}

// handleTimeout is the timer expiry callback. Stale expiries, where the
// player acted just before the deadline fired, are rejected by the
// current-turn check.
func (t *Table) handleTimeout(seat int) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.state != TablePlaying || t.hand == nil || t.hand.ActivePlayer != seat {
		return
	}
	t.logger.Info("turn timed out", "table", t.ID, "seat", seat)
	if err := t.hand.ForceFold(seat); err != nil {
		t.logger.Error("forced fold failed", "table", t.ID, "seat", seat, "err", err)
		return
	}
	t.afterAction()
}

func (t *Table) afterAction() {
	if t.hand.IsComplete() {
		t.state = TableHandComplete
		t.disarmTimer()
		return
	}
	t.armTimer()
}

// Pause suspends play between actions. The turn countdown restarts from
// the full timeout on Resume.
func (t *Table) Pause() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TablePlaying {
		return validationErrorf("cannot pause from state %s", t.state)
	}
	t.state = TablePaused
	if t.timer != nil {
		t.timer.Pause()
	}
	return nil
}

// Resume continues a paused table.
func (t *Table) Resume() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.state != TablePaused {
		return validationErrorf("cannot resume from state %s", t.state)
	}
	t.state = TablePlaying
	if t.timer != nil {
		t.timer.Resume()
	}
	return nil
}

func (t *Table) armTimer() {
	if t.timer == nil || t.hand == nil || t.hand.ActivePlayer < 0 {
		return
	}
	t.timer.Start(t.hand.ActivePlayer, t.handleTimeout)
}

func (t *Table) disarmTimer() {
	if t.timer != nil {
		t.timer.Stop()
	}
}

// compactSeats drops busted players and renumbers the survivors so seats
// stay dense. The button is remapped to the nearest surviving seat so it
// still advances clockwise.
func (t *Table) compactSeats() {
	survivors := make([]*Player, 0, len(t.players))
	newButton := -1
	for _, p := range t.players {
		if p.Chips > 0 {
			if p.Seat <= t.button {
				newButton = len(survivors)
			}
			p.Seat = len(survivors)
			survivors = append(survivors, p)
		}
	}
	if newButton == -1 {
		// Every seat at or before the button busted; wrap so the next
		// advance lands on the first surviving seat.
		newButton = len(survivors) - 1
	}
	t.players = survivors
	t.button = newButton
}
