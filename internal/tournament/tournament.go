package tournament

import (
	"context"
	"fmt"
	"io"
	"sync"
	"time"

	"github.com/charmbracelet/log"
	"github.com/coder/quartz"
	"github.com/google/uuid"

	"github.com/feltkit/holdem/internal/game"
)

// Level is one step of the blind schedule.
type Level struct {
	SmallBlind int           `json:"small_blind"`
	BigBlind   int           `json:"big_blind"`
	Duration   time.Duration `json:"duration"`
}

// Config describes a single-table tournament.
type Config struct {
	BuyIn         int       // per entrant; the prize pool is buy-in times entrants
	StartingChips int       // starting stack per entrant
	Levels        []Level   // blind schedule, escalated on the level clock
	Payouts       []float64 // prize fractions for 1st, 2nd, ...; must sum to 1
}

func (c Config) validate() error {
	if c.BuyIn <= 0 {
		return fmt.Errorf("buy-in must be positive, got %d", c.BuyIn)
	}
	if c.StartingChips <= 0 {
		return fmt.Errorf("starting chips must be positive, got %d", c.StartingChips)
	}
	if len(c.Levels) == 0 {
		return fmt.Errorf("blind schedule is empty")
	}
	for i, l := range c.Levels {
		if l.SmallBlind <= 0 || l.BigBlind < l.SmallBlind {
			return fmt.Errorf("level %d has invalid blinds %d/%d", i, l.SmallBlind, l.BigBlind)
		}
	}
	if len(c.Payouts) == 0 {
		return fmt.Errorf("no payout fractions")
	}
	sum := 0.0
	for _, f := range c.Payouts {
		if f < 0 {
			return fmt.Errorf("negative payout fraction %v", f)
		}
		sum += f
	}
	if sum < 0.999 || sum > 1.001 {
		return fmt.Errorf("payout fractions sum to %v, want 1", sum)
	}
	return nil
}

// Entrant is a registered player.
type Entrant struct {
	ID    string
	Name  string
	Agent game.Agent // nil defaults to a calling agent
}

// Placement is one entrant's final standing.
type Placement struct {
	Place int    `json:"place"` // 1 is the winner
	ID    string `json:"id"`
	Name  string `json:"name"`
	Prize int    `json:"prize"`
}

// Result is the final standing of a completed tournament.
type Result struct {
	TournamentID string      `json:"tournament_id"`
	PrizePool    int         `json:"prize_pool"`
	HandsPlayed  int         `json:"hands_played"`
	Placements   []Placement `json:"placements"`
}

// Tournament runs a single-table tournament: repeated hands with an
// escalating blind schedule until one entrant holds every chip. It drives
// the table and learns about eliminations only from the hand-finished
// events the table publishes.
type Tournament struct {
	ID string

	cfg       Config
	entrants  []Entrant
	agents    map[string]game.Agent
	names     map[string]string
	table     *game.Table
	tableOpts []game.TableOption
	clock     quartz.Clock
	logger    *log.Logger
	maxHands  int

	mu          sync.Mutex
	level       int
	levelTimer  *quartz.Timer
	finishOrder []string // player IDs, first busted first
	handsPlayed int
}

// Option configures a tournament.
type Option func(*Tournament)

// WithClock injects the clock driving the blind-level schedule and the
// table's turn timer.
func WithClock(c quartz.Clock) Option {
	return func(t *Tournament) { t.clock = c }
}

// WithLogger attaches a logger.
func WithLogger(l *log.Logger) Option {
	return func(t *Tournament) { t.logger = l }
}

// WithSeed makes every shuffle deterministic.
func WithSeed(seed int64) Option {
	return func(t *Tournament) { t.tableOpts = append(t.tableOpts, game.WithSeed(seed)) }
}

// WithTurnTimeout enables the per-turn deadline at the table.
func WithTurnTimeout(d time.Duration) Option {
	return func(t *Tournament) { t.tableOpts = append(t.tableOpts, game.WithTurnTimeout(d)) }
}

// WithMaxHands caps the number of hands before Run gives up. Guards
// simulations against degenerate agent loops.
func WithMaxHands(n int) Option {
	return func(t *Tournament) { t.maxHands = n }
}

// New registers the entrants and seats them at a fresh table.
func New(cfg Config, entrants []Entrant, opts ...Option) (*Tournament, error) {
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("tournament config: %w", err)
	}
	if len(entrants) < 2 {
		return nil, fmt.Errorf("need at least 2 entrants, have %d", len(entrants))
	}
	if len(cfg.Payouts) > len(entrants) {
		return nil, fmt.Errorf("%d payout places for %d entrants", len(cfg.Payouts), len(entrants))
	}

	t := &Tournament{
		ID:       uuid.NewString(),
		cfg:      cfg,
		entrants: entrants,
		agents:   make(map[string]game.Agent, len(entrants)),
		names:    make(map[string]string, len(entrants)),
		clock:    quartz.NewReal(),
		maxHands: 10000,
	}
	for _, opt := range opts {
		opt(t)
	}
	if t.logger == nil {
		t.logger = log.New(io.Discard)
	}
	t.logger = t.logger.WithPrefix("tournament")

	first := cfg.Levels[0]
	bus := game.NewBus()
	bus.Subscribe(game.SubscriberFunc(t.onEvent))

	tableOpts := append([]game.TableOption{
		game.WithClock(t.clock),
		game.WithTableBus(bus),
		game.WithTableLogger(t.logger),
	}, t.tableOpts...)
	t.table = game.NewTable(len(entrants), first.SmallBlind, first.BigBlind, tableOpts...)

	for _, e := range entrants {
		if _, err := t.table.Seat(e.ID, e.Name, cfg.StartingChips); err != nil {
			return nil, err
		}
		agent := e.Agent
		if agent == nil {
			agent = game.CallingAgent{}
		}
		t.agents[e.ID] = agent
		t.names[e.ID] = e.Name
	}
	return t, nil
}

// Table exposes the underlying table, mainly for observers.
func (t *Tournament) Table() *game.Table { return t.table }

// CurrentLevel returns the active blind level index.
func (t *Tournament) CurrentLevel() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.level
}

// PrizePool returns the total prize money.
func (t *Tournament) PrizePool() int {
	return t.cfg.BuyIn * len(t.entrants)
}

func (t *Tournament) onEvent(e game.Event) {
	fin, ok := e.(game.HandFinishedEvent)
	if !ok {
		return
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	t.finishOrder = append(t.finishOrder, fin.Eliminated...)
	for _, id := range fin.Eliminated {
		t.logger.Info("player eliminated", "player", id, "place", len(t.entrants)-len(t.finishOrder)+1)
	}
}

// Run plays hands until one entrant holds every chip, then returns the
// final standings. Blind levels escalate on the clock between hands,
// never mid-hand.
func (t *Tournament) Run(ctx context.Context) (*Result, error) {
	t.startLevelClock()
	defer t.stopLevelClock()

	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if t.survivors() <= 1 {
			break
		}
		if t.handsPlayed >= t.maxHands {
			return nil, fmt.Errorf("tournament did not finish within %d hands", t.maxHands)
		}

		t.applyLevel()
		if err := t.table.StartHand(); err != nil {
			return nil, err
		}
		t.handsPlayed++

		for {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			// The actor is snapshotted and acted on under the table lock;
			// a turn timeout firing in between simply supersedes the
			// snapshot and ActFor drops the decision.
			seat, id, ok := t.table.ActiveSeat()
			if !ok {
				break
			}
			if err := t.table.ActFor(id, t.agents[id]); err != nil {
				return nil, fmt.Errorf("hand %d, seat %d: %w", t.handsPlayed, seat, err)
			}
		}
	}

	return t.result(), nil
}

func (t *Tournament) survivors() int {
	n := 0
	for _, p := range t.table.Players() {
		if p.Chips > 0 {
			n++
		}
	}
	return n
}

// startLevelClock arms the escalation chain: each level's duration expires
// into the next level until the schedule runs out.
func (t *Tournament) startLevelClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.armLevelLocked()
}

func (t *Tournament) armLevelLocked() {
	if t.level >= len(t.cfg.Levels)-1 {
		return
	}
	d := t.cfg.Levels[t.level].Duration
	if d <= 0 {
		return
	}
	t.levelTimer = t.clock.AfterFunc(d, t.advanceLevel)
}

func (t *Tournament) advanceLevel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.level >= len(t.cfg.Levels)-1 {
		return
	}
	t.level++
	l := t.cfg.Levels[t.level]
	t.logger.Info("blind level up", "level", t.level+1, "blinds", fmt.Sprintf("%d/%d", l.SmallBlind, l.BigBlind))
	t.armLevelLocked()
}

func (t *Tournament) stopLevelClock() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.levelTimer != nil {
		t.levelTimer.Stop()
		t.levelTimer = nil
	}
}

// applyLevel pushes the active level's blinds to the table. Called between
// hands only, so a level change never disturbs a hand in flight.
func (t *Tournament) applyLevel() {
	t.mu.Lock()
	defer t.mu.Unlock()
	l := t.cfg.Levels[t.level]
	t.table.SmallBlind = l.SmallBlind
	t.table.BigBlind = l.BigBlind
}

// result builds the standings: the survivor takes first, then the
// elimination order in reverse. Prizes are floored per fraction with the
// leftover chips going to the winner, so the payouts always sum exactly to
// the pool.
func (t *Tournament) result() *Result {
	t.mu.Lock()
	defer t.mu.Unlock()

	var winner string
	for _, p := range t.table.Players() {
		if p.Chips > 0 {
			winner = p.ID
			break
		}
	}

	order := []string{winner}
	for i := len(t.finishOrder) - 1; i >= 0; i-- {
		order = append(order, t.finishOrder[i])
	}

	pool := t.cfg.BuyIn * len(t.entrants)
	prizes := make([]int, len(order))
	paid := 0
	for i := range order {
		if i < len(t.cfg.Payouts) {
			prizes[i] = int(float64(pool) * t.cfg.Payouts[i])
			paid += prizes[i]
		}
	}
	prizes[0] += pool - paid

	placements := make([]Placement, len(order))
	for i, id := range order {
		placements[i] = Placement{
			Place: i + 1,
			ID:    id,
			Name:  t.names[id],
			Prize: prizes[i],
		}
	}

	return &Result{
		TournamentID: t.ID,
		PrizePool:    pool,
		HandsPlayed:  t.handsPlayed,
		Placements:   placements,
	}
}
