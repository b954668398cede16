// Package config loads capplan settings from TOML with environment overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/shopspring/decimal"

	"github.com/vsinha/capplan/pkg/domain/entities"
	"github.com/vsinha/capplan/pkg/infrastructure/logging"
)

const (
	DriverMemory = "memory"
	DriverSQLite = "sqlite"
)

type Config struct {
	Planning  PlanningConfig      `toml:"planning"`
	Drift     DriftConfig         `toml:"drift"`
	Store     StoreConfig         `toml:"store"`
	Server    ServerConfig        `toml:"server"`
	Log       logging.Config      `toml:"log"`
	OrgScopes map[string][]string `toml:"org_scopes"`
}

type PlanningConfig struct {
	MaxAllocationPercent float64 `toml:"max_allocation_percent"`
	Granularity          string  `toml:"granularity"`
}

type DriftConfig struct {
	CapacityThresholdPct float64 `toml:"capacity_threshold_pct"`
	DemandThresholdPct   float64 `toml:"demand_threshold_pct"`
}

type StoreConfig struct {
	Driver string `toml:"driver"` // "sqlite" or "memory"
	Path   string `toml:"path"`
}

type ServerConfig struct {
	Addr        string `toml:"addr"`
	MetricsPush string `toml:"metrics_push"`
}

func DefaultConfig() Config {
	return Config{
		Planning: PlanningConfig{
			MaxAllocationPercent: 100,
			Granularity:          entities.Quarter.String(),
		},
		Drift: DriftConfig{
			CapacityThresholdPct: 5,
			DemandThresholdPct:   10,
		},
		Store: StoreConfig{
			Driver: DriverSQLite,
			Path:   filepath.Join("~", ".config", "capplan", "capplan.db"),
		},
		Server: ServerConfig{
			Addr: "127.0.0.1:8080",
		},
		Log: logging.Config{
			Level: "info",
		},
	}
}

func ConfigDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("finding home directory: %w", err)
	}
	return filepath.Join(home, ".config", "capplan"), nil
}

func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, "capplan.toml"), nil
}

// Load reads the file at path, or the default location when path is empty.
// A missing file yields the defaults.
func Load(path string) (*Config, error) {
	if path == "" {
		p, err := ConfigPath()
		if err != nil {
			return nil, err
		}
		path = p
	}

	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("reading config file: %w", err)
	}
	if len(data) > 0 {
		if err := toml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("parsing config file: %w", err)
		}
	}

	applyEnvOverrides(&cfg)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CAPPLAN_STORE_DRIVER"); v != "" {
		cfg.Store.Driver = v
	}
	if v := os.Getenv("CAPPLAN_STORE_PATH"); v != "" {
		cfg.Store.Path = v
	}
	if v := os.Getenv("CAPPLAN_SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := os.Getenv("CAPPLAN_METRICS_PUSH"); v != "" {
		cfg.Server.MetricsPush = v
	}
	if v := os.Getenv("CAPPLAN_LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := os.Getenv("CAPPLAN_GRANULARITY"); v != "" {
		cfg.Planning.Granularity = v
	}
}

// Validate rejects settings the planner cannot run with
func (c Config) Validate() error {
	if c.Planning.MaxAllocationPercent <= 0 || c.Planning.MaxAllocationPercent > 100 {
		return fmt.Errorf("planning.max_allocation_percent must be in (0, 100], got %v", c.Planning.MaxAllocationPercent)
	}
	if _, err := c.Granularity(); err != nil {
		return err
	}
	if err := c.Thresholds().Validate(); err != nil {
		return fmt.Errorf("drift: %w", err)
	}
	switch c.Store.Driver {
	case DriverMemory, DriverSQLite:
	default:
		return fmt.Errorf("store.driver must be %q or %q, got %q", DriverSQLite, DriverMemory, c.Store.Driver)
	}
	if _, err := logging.ParseLevel(c.Log.Level); err != nil {
		return err
	}
	return nil
}

func (c Config) Granularity() (entities.PeriodType, error) {
	t, err := entities.ParsePeriodType(c.Planning.Granularity)
	if err != nil {
		return 0, fmt.Errorf("planning.granularity: %w", err)
	}
	return t, nil
}

func (c Config) Ceiling() decimal.Decimal {
	return decimal.NewFromFloat(c.Planning.MaxAllocationPercent)
}

func (c Config) Thresholds() entities.DriftThresholds {
	return entities.DriftThresholds{
		ThresholdPair: entities.ThresholdPair{
			CapacityPct: decimal.NewFromFloat(c.Drift.CapacityThresholdPct),
			DemandPct:   decimal.NewFromFloat(c.Drift.DemandThresholdPct),
		},
	}
}

// StorePath expands a leading "~" in the configured database path
func (c Config) StorePath() (string, error) {
	p := c.Store.Path
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("finding home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}
	return p, nil
}

func EnsureDir(path string) error {
	return os.MkdirAll(filepath.Dir(path), 0755)
}
