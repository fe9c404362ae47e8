package config

import (
	"fmt"
	"os"

	"github.com/hashicorp/hcl/v2/gohcl"
	"github.com/hashicorp/hcl/v2/hclparse"
)

// Config is the complete configuration for a simulated table or
// tournament run.
type Config struct {
	Log        *LogSettings        `hcl:"log,block"`
	Table      TableSettings       `hcl:"table,block"`
	Players    []PlayerConfig      `hcl:"player,block"`
	Tournament *TournamentSettings `hcl:"tournament,block"`
}

// LogSettings controls log output.
type LogSettings struct {
	Level string `hcl:"level,optional"`
	File  string `hcl:"file,optional"`
}

// TableSettings configures the table.
type TableSettings struct {
	MaxSeats        int   `hcl:"max_seats,optional"`
	SmallBlind      int   `hcl:"small_blind"`
	BigBlind        int   `hcl:"big_blind"`
	TurnTimeoutSecs int   `hcl:"turn_timeout_seconds,optional"`
	Seed            int64 `hcl:"seed,optional"` // 0 means time-seeded
}

// PlayerConfig seats one simulated player.
type PlayerConfig struct {
	Name     string `hcl:"name,label"`
	Chips    int    `hcl:"chips,optional"`
	Strategy string `hcl:"strategy,optional"` // call or rand
}

// TournamentSettings enables tournament mode.
type TournamentSettings struct {
	BuyIn         int           `hcl:"buy_in"`
	StartingChips int           `hcl:"starting_chips,optional"`
	Payouts       []float64     `hcl:"payouts,optional"`
	Levels        []LevelConfig `hcl:"level,block"`
}

// LevelConfig is one blind level of the tournament schedule.
type LevelConfig struct {
	SmallBlind  int `hcl:"small_blind"`
	BigBlind    int `hcl:"big_blind"`
	DurationMin int `hcl:"duration_minutes,optional"`
}

// Default returns the configuration used when no file is present: a
// six-seat cash table with four calling players.
func Default() *Config {
	return &Config{
		Log: &LogSettings{Level: "info"},
		Table: TableSettings{
			MaxSeats:        6,
			SmallBlind:      5,
			BigBlind:        10,
			TurnTimeoutSecs: 30,
		},
		Players: []PlayerConfig{
			{Name: "alice", Chips: 1000, Strategy: "call"},
			{Name: "bob", Chips: 1000, Strategy: "call"},
			{Name: "carol", Chips: 1000, Strategy: "rand"},
			{Name: "dave", Chips: 1000, Strategy: "rand"},
		},
	}
}

// Load reads an HCL config file. A missing file yields the defaults.
func Load(filename string) (*Config, error) {
	src, err := os.ReadFile(filename)
	if os.IsNotExist(err) {
		return Default(), nil
	}
	if err != nil {
		return nil, err
	}
	return Parse(src, filename)
}

// Parse decodes HCL source. Missing optional values are filled with
// defaults; the result is validated.
func Parse(src []byte, filename string) (*Config, error) {
	parser := hclparse.NewParser()
	file, diags := parser.ParseHCL(src, filename)
	if diags.HasErrors() {
		return nil, fmt.Errorf("parse %s: %s", filename, diags.Error())
	}

	var cfg Config
	diags = gohcl.DecodeBody(file.Body, nil, &cfg)
	if diags.HasErrors() {
		return nil, fmt.Errorf("decode %s: %s", filename, diags.Error())
	}

	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) applyDefaults() {
	if c.Log == nil {
		c.Log = &LogSettings{}
	}
	if c.Log.Level == "" {
		c.Log.Level = "info"
	}
	if c.Table.MaxSeats == 0 {
		c.Table.MaxSeats = 6
	}
	if c.Table.TurnTimeoutSecs == 0 {
		c.Table.TurnTimeoutSecs = 30
	}
	for i := range c.Players {
		if c.Players[i].Chips == 0 {
			c.Players[i].Chips = c.Table.BigBlind * 100
		}
		if c.Players[i].Strategy == "" {
			c.Players[i].Strategy = "call"
		}
	}
	if t := c.Tournament; t != nil {
		if t.StartingChips == 0 {
			t.StartingChips = t.BuyIn * 10
		}
		if len(t.Payouts) == 0 {
			t.Payouts = []float64{0.6, 0.4}
		}
		if len(t.Levels) == 0 {
			t.Levels = []LevelConfig{
				{SmallBlind: c.Table.SmallBlind, BigBlind: c.Table.BigBlind, DurationMin: 10},
				{SmallBlind: c.Table.SmallBlind * 2, BigBlind: c.Table.BigBlind * 2},
			}
		}
	}
}

// Validate checks the configuration for values the engine would reject.
func (c *Config) Validate() error {
	if c.Table.SmallBlind <= 0 {
		return fmt.Errorf("small blind must be positive")
	}
	if c.Table.BigBlind < c.Table.SmallBlind {
		return fmt.Errorf("big blind %d below small blind %d", c.Table.BigBlind, c.Table.SmallBlind)
	}
	if c.Table.MaxSeats < 2 || c.Table.MaxSeats > 10 {
		return fmt.Errorf("max seats must be between 2 and 10, got %d", c.Table.MaxSeats)
	}
	if len(c.Players) < 2 {
		return fmt.Errorf("at least 2 players must be configured")
	}
	if len(c.Players) > c.Table.MaxSeats {
		return fmt.Errorf("%d players for %d seats", len(c.Players), c.Table.MaxSeats)
	}

	seen := make(map[string]bool)
	for _, p := range c.Players {
		if seen[p.Name] {
			return fmt.Errorf("duplicate player %q", p.Name)
		}
		seen[p.Name] = true
		if p.Chips <= 0 {
			return fmt.Errorf("player %s: chips must be positive", p.Name)
		}
		if p.Strategy != "call" && p.Strategy != "rand" {
			return fmt.Errorf("player %s: unknown strategy %q", p.Name, p.Strategy)
		}
	}

	if t := c.Tournament; t != nil {
		if t.BuyIn <= 0 {
			return fmt.Errorf("tournament buy-in must be positive")
		}
		for i, l := range t.Levels {
			if l.SmallBlind <= 0 || l.BigBlind < l.SmallBlind {
				return fmt.Errorf("tournament level %d: invalid blinds %d/%d", i, l.SmallBlind, l.BigBlind)
			}
		}
	}
	return nil
}
