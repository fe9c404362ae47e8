package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/log"

	"github.com/feltkit/holdem/internal/config"
	"github.com/feltkit/holdem/internal/game"
	"github.com/feltkit/holdem/internal/randutil"
	"github.com/feltkit/holdem/internal/tournament"
)

var cli struct {
	Config   string `short:"c" default:"tabled.hcl" help:"Path to HCL configuration file"`
	LogLevel string `short:"l" help:"Log level (overrides config)"`
	Quiet    bool   `short:"q" help:"Suppress the hand-by-hand commentary"`

	Play    PlayCmd    `cmd:"" default:"1" help:"Deal hands at a cash table"`
	Tourney TourneyCmd `cmd:"" help:"Run a single-table tournament"`
}

// PlayCmd deals a fixed number of cash-game hands between the configured
// players.
type PlayCmd struct {
	Hands int   `short:"n" default:"10" help:"Number of hands to deal"`
	Seed  int64 `help:"Shuffle seed (overrides config; 0 means time-seeded)"`
}

// TourneyCmd runs the configured players through a tournament.
type TourneyCmd struct {
	Seed int64 `help:"Shuffle seed (overrides config; 0 means time-seeded)"`
}

func main() {
	ctx := kong.Parse(&cli,
		kong.Name("tabled"),
		kong.Description("Single-table Texas hold'em engine."),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error loading config: %v\n", err)
		ctx.Exit(1)
	}
	if cli.LogLevel != "" {
		cfg.Log.Level = cli.LogLevel
	}

	logger := newLogger(cfg.Log)
	if err := ctx.Run(cfg, logger); err != nil {
		logger.Error("command failed", "err", err)
		ctx.Exit(1)
	}
}

func newLogger(settings *config.LogSettings) *log.Logger {
	w := os.Stderr
	if settings.File != "" {
		f, err := os.OpenFile(settings.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err == nil {
			w = f
		}
	}
	logger := log.New(w)
	switch settings.Level {
	case "debug":
		logger.SetLevel(log.DebugLevel)
	case "warn":
		logger.SetLevel(log.WarnLevel)
	case "error":
		logger.SetLevel(log.ErrorLevel)
	default:
		logger.SetLevel(log.InfoLevel)
	}
	return logger
}

func agentFor(strategy string, seed int64) game.Agent {
	switch strategy {
	case "rand":
		return game.RandomAgent{Rng: randutil.New(seed)}
	default:
		return game.CallingAgent{}
	}
}

// commentator prints a play-by-play line per event.
type commentator struct{}

func (commentator) OnEvent(e game.Event) {
	switch ev := e.(type) {
	case game.HandStartedEvent:
		fmt.Printf("--- hand #%d (button seat %d, blinds %d/%d)\n",
			ev.HandNumber, ev.Button, ev.SmallBlind, ev.BigBlind)
	case game.PlayerActedEvent:
		if ev.Amount > 0 {
			fmt.Printf("  %s %ss %d (pot %d)\n", ev.Name, ev.Action, ev.Amount, ev.PotTotal)
		} else {
			fmt.Printf("  %s %ss (pot %d)\n", ev.Name, ev.Action, ev.PotTotal)
		}
	case game.CommunityCardsDealtEvent:
		codes := make([]string, len(ev.Board))
		for i, c := range ev.Board {
			codes[i] = c.Code()
		}
		fmt.Printf("  %s: %s\n", ev.Street, strings.Join(codes, " "))
	case game.PotDistributedEvent:
		fmt.Printf("  %s pot of %d -> %v\n", ev.Pot, ev.Amount, ev.Payouts)
	case game.PlayerEliminatedEvent:
		fmt.Printf("  %s is eliminated\n", ev.Name)
	case game.HandFinishedEvent:
		for _, w := range ev.Winners {
			if w.Ranking != nil {
				fmt.Printf("  %s wins %d with %s\n", w.Name, w.Amount, w.Ranking.Category)
			} else {
				fmt.Printf("  %s wins %d uncontested\n", w.Name, w.Amount)
			}
		}
	}
}

// Run deals cash-game hands until the count is reached or too few funded
// players remain.
func (p *PlayCmd) Run(cfg *config.Config, logger *log.Logger) error {
	seed := p.Seed
	if seed == 0 {
		seed = cfg.Table.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	bus := game.NewBus()
	if !cli.Quiet {
		bus.Subscribe(commentator{})
	}

	tbl := game.NewTable(cfg.Table.MaxSeats, cfg.Table.SmallBlind, cfg.Table.BigBlind,
		game.WithSeed(seed),
		game.WithTableBus(bus),
		game.WithTableLogger(logger),
	)

	agents := make(map[string]game.Agent, len(cfg.Players))
	for i, pc := range cfg.Players {
		if _, err := tbl.Seat(pc.Name, pc.Name, pc.Chips); err != nil {
			return err
		}
		agents[pc.Name] = agentFor(pc.Strategy, seed+int64(i)+1)
	}

	logger.Info("starting cash session", "hands", p.Hands, "players", len(cfg.Players), "seed", seed)

	for n := 0; n < p.Hands; n++ {
		if err := tbl.StartHand(); err != nil {
			logger.Info("stopping early", "reason", err, "handsPlayed", n)
			break
		}
		for {
			_, id, ok := tbl.ActiveSeat()
			if !ok {
				break
			}
			if err := tbl.ActFor(id, agents[id]); err != nil {
				return err
			}
		}
		if err := tbl.CurrentHand().CheckChipConservation(); err != nil {
			return err
		}
	}

	for _, pl := range tbl.Players() {
		fmt.Printf("%s: %d chips\n", pl.Name, pl.Chips)
	}
	return nil
}

// Run plays the tournament to completion and prints the standings.
func (t *TourneyCmd) Run(cfg *config.Config, logger *log.Logger) error {
	if cfg.Tournament == nil {
		return fmt.Errorf("config has no tournament block")
	}

	seed := t.Seed
	if seed == 0 {
		seed = cfg.Table.Seed
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}

	levels := make([]tournament.Level, len(cfg.Tournament.Levels))
	for i, l := range cfg.Tournament.Levels {
		levels[i] = tournament.Level{
			SmallBlind: l.SmallBlind,
			BigBlind:   l.BigBlind,
			Duration:   time.Duration(l.DurationMin) * time.Minute,
		}
	}

	entrants := make([]tournament.Entrant, len(cfg.Players))
	for i, pc := range cfg.Players {
		entrants[i] = tournament.Entrant{
			ID:    pc.Name,
			Name:  pc.Name,
			Agent: agentFor(pc.Strategy, seed+int64(i)+1),
		}
	}

	tr, err := tournament.New(tournament.Config{
		BuyIn:         cfg.Tournament.BuyIn,
		StartingChips: cfg.Tournament.StartingChips,
		Levels:        levels,
		Payouts:       cfg.Tournament.Payouts,
	}, entrants,
		tournament.WithSeed(seed),
		tournament.WithLogger(logger),
	)
	if err != nil {
		return err
	}
	if !cli.Quiet {
		tr.Table().Bus().Subscribe(commentator{})
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("starting tournament", "entrants", len(entrants), "prizePool", tr.PrizePool(), "seed", seed)
	result, err := tr.Run(ctx)
	if err != nil {
		return err
	}

	fmt.Printf("tournament complete after %d hands\n", result.HandsPlayed)
	for _, pl := range result.Placements {
		fmt.Printf("%d. %s: %d\n", pl.Place, pl.Name, pl.Prize)
	}
	return nil
}
