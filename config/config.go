package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/rustyeddy/backsim/btcsim"
	"github.com/rustyeddy/backsim/sim"
	"github.com/rustyeddy/backsim/strategies"
)

// Config is the complete run configuration. Validation happens here, before
// an engine is ever constructed: the engines themselves only fail on
// contract violations.
type Config struct {
	Run      RunConfig      `json:"run" yaml:"run"`
	Account  AccountConfig  `json:"account" yaml:"account"`
	Fees     FeesConfig     `json:"fees" yaml:"fees"`
	Rotation RotationConfig `json:"rotation" yaml:"rotation"`
	Data     DataConfig     `json:"data" yaml:"data"`
	Journal  JournalConfig  `json:"journal" yaml:"journal"`
}

// RunConfig selects what the futures backtest replays.
type RunConfig struct {
	Symbols  []string `json:"symbols" yaml:"symbols"`
	Interval string   `json:"interval" yaml:"interval"`
	Strategy string   `json:"strategy" yaml:"strategy"`
	Days     int      `json:"days" yaml:"days"` // history window to load
}

// AccountConfig sets the futures accounting knobs.
type AccountConfig struct {
	Capital      float64 `json:"capital" yaml:"capital"`
	RiskPerTrade float64 `json:"risk_per_trade" yaml:"risk_per_trade"`
	Leverage     float64 `json:"leverage" yaml:"leverage"`
	MaxPositions int     `json:"max_positions" yaml:"max_positions"`
}

type FeesConfig struct {
	Commission float64 `json:"commission" yaml:"commission"`
	Slippage   float64 `json:"slippage" yaml:"slippage"`
}

// RotationConfig selects what the BTC rotation replays.
type RotationConfig struct {
	Alts        []string `json:"alts" yaml:"alts"`
	BTCSymbol   string   `json:"btc_symbol" yaml:"btc_symbol"`
	Interval    string   `json:"interval" yaml:"interval"`
	Strategy    string   `json:"strategy" yaml:"strategy"`
	StartingBTC float64  `json:"starting_btc" yaml:"starting_btc"`
	Leverage    float64  `json:"leverage" yaml:"leverage"`
}

type DataConfig struct {
	CacheDir string `json:"cache_dir" yaml:"cache_dir"`
}

type JournalConfig struct {
	DBPath string `json:"db_path" yaml:"db_path"`
}

var knownIntervals = map[string]bool{
	"1m": true, "5m": true, "15m": true, "30m": true,
	"1h": true, "4h": true, "1d": true,
}

// LoadFromFile loads configuration from a YAML or JSON file.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			return nil, fmt.Errorf("parse config (tried YAML and JSON): %w", err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, nil
}

// Validate checks the configuration, resolving strategy names so an unknown
// identifier fails here instead of mid-run.
func (c *Config) Validate() error {
	if len(c.Run.Symbols) == 0 {
		return fmt.Errorf("run.symbols is required")
	}
	for _, s := range c.Run.Symbols {
		if strings.TrimSpace(s) == "" {
			return fmt.Errorf("run.symbols contains an empty symbol")
		}
	}
	if !knownIntervals[c.Run.Interval] {
		return fmt.Errorf("unknown interval %q", c.Run.Interval)
	}
	if _, err := strategies.ByName(c.Run.Strategy); err != nil {
		return err
	}
	if c.Run.Days <= 0 {
		return fmt.Errorf("run.days must be positive")
	}

	if c.Account.Capital <= 0 {
		return fmt.Errorf("account.capital must be positive")
	}
	if c.Account.RiskPerTrade <= 0 || c.Account.RiskPerTrade > 1 {
		return fmt.Errorf("account.risk_per_trade must be in (0, 1]")
	}
	if c.Account.Leverage < 1 {
		return fmt.Errorf("account.leverage must be >= 1")
	}
	if c.Fees.Commission < 0 || c.Fees.Slippage < 0 {
		return fmt.Errorf("fees must be non-negative")
	}

	if len(c.Rotation.Alts) > 0 {
		if c.Rotation.BTCSymbol == "" {
			return fmt.Errorf("rotation.btc_symbol is required when alts are set")
		}
		if !knownIntervals[c.Rotation.Interval] {
			return fmt.Errorf("unknown rotation interval %q", c.Rotation.Interval)
		}
		if _, err := strategies.RotationByName(c.Rotation.Strategy); err != nil {
			return err
		}
		if c.Rotation.StartingBTC <= 0 {
			return fmt.Errorf("rotation.starting_btc must be positive")
		}
	}

	if c.Journal.DBPath == "" {
		return fmt.Errorf("journal.db_path is required")
	}
	return nil
}

// SimConfig maps the file config onto the futures engine config.
func (c *Config) SimConfig() sim.Config {
	return sim.Config{
		StartingCapital: c.Account.Capital,
		RiskPerTrade:    c.Account.RiskPerTrade,
		Leverage:        c.Account.Leverage,
		MaxPositions:    c.Account.MaxPositions,
		CommissionRate:  c.Fees.Commission,
		SlippageRate:    c.Fees.Slippage,
	}
}

// BtcConfig maps the file config onto the rotation engine config.
func (c *Config) BtcConfig() btcsim.Config {
	return btcsim.Config{
		StartingBTC:    c.Rotation.StartingBTC,
		Leverage:       c.Rotation.Leverage,
		CommissionRate: c.Fees.Commission,
	}
}

// Default returns a configuration with sensible defaults.
func Default() *Config {
	return &Config{
		Run: RunConfig{
			Symbols:  []string{"BTCUSDT", "ETHUSDT"},
			Interval: "1h",
			Strategy: "ema-cross",
			Days:     180,
		},
		Account: AccountConfig{
			Capital:      10000,
			RiskPerTrade: 0.01,
			Leverage:     3,
			MaxPositions: 3,
		},
		Fees: FeesConfig{
			Commission: 0.0004,
			Slippage:   0.0005,
		},
		Rotation: RotationConfig{
			Alts:        []string{"ETHUSDT", "SOLUSDT", "BNBUSDT"},
			BTCSymbol:   "BTCUSDT",
			Interval:    "4h",
			Strategy:    "momentum",
			StartingBTC: 1,
			Leverage:    1,
		},
		Data: DataConfig{
			CacheDir: "./cache",
		},
		Journal: JournalConfig{
			DBPath: "./backsim.db",
		},
	}
}
