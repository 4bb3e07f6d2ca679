// Package config builds the bot's one immutable configuration: YAML file,
// PULSE_* environment overrides, defaults for everything.
package config

import (
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"market-pulse-go/infrastructure/logger"
)

// AppConfig holds the main runtime configuration.
type AppConfig struct {
	Venue   VenueConfig   `yaml:"venue"`
	Maker   MakerConfig   `yaml:"maker"`
	Trades  TradesConfig  `yaml:"trades"`
	Drift   DriftConfig   `yaml:"drift"`
	Report  ReportConfig  `yaml:"report"`
	Log     logger.Config `yaml:"log"`
	Markets []int         `yaml:"markets"` // allow-list of market indexes; empty means all
	Loops   int           `yaml:"loops"`   // 0 runs forever
}

type VenueConfig struct {
	BaseURL        string  `yaml:"baseURL"`
	LoopIntervalMs int     `yaml:"loopIntervalMs"`
	MarketDelayMs  int     `yaml:"marketDelayMs"`
	RestRate       float64 `yaml:"restRate"`  // limiter tokens per second
	RestBurst      int     `yaml:"restBurst"` // limiter burst
}

type MakerConfig struct {
	OffsetBps          float64 `yaml:"offsetBps"`
	Levels             int     `yaml:"levels"`
	MinRestingPerSide  int     `yaml:"minRestingPerSide"`
	ReplenishMaxPasses int     `yaml:"replenishMaxPasses"`
}

type TradesConfig struct {
	MinPerMarket int `yaml:"minPerMarket"`
	MaxPerMarket int `yaml:"maxPerMarket"`
	PickWindow   int `yaml:"pickWindow"`
	RoleSlots    int `yaml:"roleSlots"`
}

type DriftConfig struct {
	StepBps float64 `yaml:"stepBps"`
	MaxBps  float64 `yaml:"maxBps"`
}

type ReportConfig struct {
	ChartWidth int `yaml:"chartWidth"`
}

// Default returns a configuration that runs against a local venue.
func Default() AppConfig {
	return AppConfig{
		Venue: VenueConfig{
			BaseURL:        "http://127.0.0.1:8350",
			LoopIntervalMs: 15000,
			MarketDelayMs:  400,
			RestRate:       8,
			RestBurst:      16,
		},
		Maker: MakerConfig{
			OffsetBps:          25,
			Levels:             6,
			MinRestingPerSide:  18,
			ReplenishMaxPasses: 3,
		},
		Trades: TradesConfig{
			MinPerMarket: 2,
			MaxPerMarket: 6,
			PickWindow:   5,
			RoleSlots:    4,
		},
		Drift: DriftConfig{
			StepBps: 35,
			MaxBps:  400,
		},
		Report: ReportConfig{ChartWidth: 24},
		Log:    logger.DefaultConfig(),
	}
}

// Load reads YAML config from path over the defaults. An empty path keeps
// the defaults; a named but unreadable file is an error.
func Load(path string) (AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return cfg, fmt.Errorf("parse yaml: %w", err)
	}
	return cfg, nil
}

// LoadWithEnvOverrides loads config then overrides fields from PULSE_*
// environment variables, and validates the result.
func LoadWithEnvOverrides(path string) (AppConfig, error) {
	cfg, err := Load(path)
	if err != nil {
		return cfg, err
	}
	applyEnv(&cfg)
	return cfg, Validate(cfg)
}

func applyEnv(cfg *AppConfig) {
	envString("PULSE_BASE_URL", &cfg.Venue.BaseURL)
	envInt("PULSE_LOOP_INTERVAL_MS", &cfg.Venue.LoopIntervalMs)
	envInt("PULSE_MARKET_DELAY_MS", &cfg.Venue.MarketDelayMs)
	envFloat("PULSE_REST_RATE", &cfg.Venue.RestRate)
	envInt("PULSE_REST_BURST", &cfg.Venue.RestBurst)

	envFloat("PULSE_MAKER_OFFSET_BPS", &cfg.Maker.OffsetBps)
	envInt("PULSE_MAKER_LEVELS", &cfg.Maker.Levels)
	envInt("PULSE_MIN_RESTING_PER_SIDE", &cfg.Maker.MinRestingPerSide)
	envInt("PULSE_REPLENISH_MAX_PASSES", &cfg.Maker.ReplenishMaxPasses)

	envInt("PULSE_TRADES_PER_MARKET_MIN", &cfg.Trades.MinPerMarket)
	envInt("PULSE_TRADES_PER_MARKET_MAX", &cfg.Trades.MaxPerMarket)
	envInt("PULSE_TAKE_PICK_WINDOW", &cfg.Trades.PickWindow)
	envInt("PULSE_ROLE_SLOTS", &cfg.Trades.RoleSlots)

	envFloat("PULSE_DRIFT_STEP_BPS", &cfg.Drift.StepBps)
	envFloat("PULSE_DRIFT_MAX_BPS", &cfg.Drift.MaxBps)

	envInt("PULSE_CHART_WIDTH", &cfg.Report.ChartWidth)
	envInt("PULSE_LOOPS", &cfg.Loops)
	envString("PULSE_LOG_LEVEL", &cfg.Log.Level)
	envString("PULSE_LOG_FORMAT", &cfg.Log.Format)

	if v := os.Getenv("PULSE_MARKETS"); v != "" {
		cfg.Markets = parseMarkets(v)
	}
}

// parseMarkets parses a comma-separated index allow-list, skipping junk.
func parseMarkets(raw string) []int {
	var out []int
	for _, part := range strings.Split(raw, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		idx, err := strconv.Atoi(part)
		if err != nil {
			continue
		}
		out = append(out, idx)
	}
	return out
}

func envString(key string, dst *string) {
	if v := os.Getenv(key); v != "" {
		*dst = v
	}
}

func envInt(key string, dst *int) {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func envFloat(key string, dst *float64) {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			*dst = f
		}
	}
}

// Validate ensures required fields are present and sane.
func Validate(cfg AppConfig) error {
	if cfg.Venue.BaseURL == "" {
		return errors.New("venue.baseURL is required")
	}
	if cfg.Venue.LoopIntervalMs < 0 {
		return errors.New("venue.loopIntervalMs must be >= 0")
	}
	if cfg.Venue.MarketDelayMs < 0 {
		return errors.New("venue.marketDelayMs must be >= 0")
	}
	if cfg.Maker.Levels <= 0 {
		return errors.New("maker.levels must be > 0")
	}
	if cfg.Maker.MinRestingPerSide < 0 {
		return errors.New("maker.minRestingPerSide must be >= 0")
	}
	if cfg.Maker.ReplenishMaxPasses <= 0 {
		return errors.New("maker.replenishMaxPasses must be > 0")
	}
	if cfg.Maker.OffsetBps < 0 {
		return errors.New("maker.offsetBps must be >= 0")
	}
	if cfg.Trades.MinPerMarket < 0 {
		return errors.New("trades.minPerMarket must be >= 0")
	}
	if cfg.Trades.MaxPerMarket < cfg.Trades.MinPerMarket {
		return errors.New("trades.maxPerMarket must be >= trades.minPerMarket")
	}
	if cfg.Trades.PickWindow <= 0 {
		return errors.New("trades.pickWindow must be > 0")
	}
	if cfg.Trades.RoleSlots <= 0 {
		return errors.New("trades.roleSlots must be > 0")
	}
	if cfg.Drift.StepBps <= 0 {
		return errors.New("drift.stepBps must be > 0")
	}
	if cfg.Drift.MaxBps <= 0 {
		return errors.New("drift.maxBps must be > 0")
	}
	if cfg.Report.ChartWidth <= 0 {
		return errors.New("report.chartWidth must be > 0")
	}
	if cfg.Loops < 0 {
		return errors.New("loops must be >= 0")
	}
	return nil
}
