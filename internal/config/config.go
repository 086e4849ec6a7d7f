// Package config provides configuration management functionality.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/aristath/thalia/internal/modules/optimization"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// Config holds application configuration
type Config struct {
	DataDir      string // Base directory for weights and the run database (always absolute)
	LogLevel     string
	LogPretty    bool
	ConfigPath   string // Optional YAML experiment file
	Input        string // Price CSV
	DateColumn   string
	DecimalComma bool
	WeightsPath  string // Defaults to <DataDir>/best_weights.msgpack
	DatabasePath string // Defaults to <DataDir>/runs.db
	Experiment   Experiment
}

// Experiment holds the network shape, the search settings and the split
type Experiment struct {
	Assets      int     `yaml:"n_actions"` // 0 takes the asset count from the input
	Lags        int     `yaml:"n_lags"`
	Neurons     int     `yaml:"neurons"`
	Omega       float64 `yaml:"omega"`
	ReportOmega float64 `yaml:"report_omega"`
	Strategy    string  `yaml:"strategy"`
	Preset      string  `yaml:"preset"`

	// Explicit overrides on top of the preset. Zero values keep the preset.
	Particles  int      `yaml:"particles"`
	Iterations int      `yaml:"iterations"`
	C1         *float64 `yaml:"c1"`
	C2         *float64 `yaml:"c2"`
	W          *float64 `yaml:"w"`
	Seed       int64    `yaml:"seed"`

	Workers   int    `yaml:"workers"`
	Splits    int    `yaml:"splits"`
	Benchmark string `yaml:"benchmark"`
}

// Load reads configuration from .env, the optional YAML file named by
// THALIA_CONFIG and environment variables. The environment wins over YAML.
func Load() (*Config, error) {
	// Load .env file if it exists
	_ = godotenv.Load()

	cfg := &Config{ConfigPath: getEnv("THALIA_CONFIG", "")}
	if cfg.ConfigPath != "" {
		if err := cfg.readFile(cfg.ConfigPath); err != nil {
			return nil, err
		}
	}

	cfg.applyEnv()
	cfg.applyDefaults()

	absDataDir, err := filepath.Abs(cfg.DataDir)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve data directory path: %w", err)
	}
	cfg.DataDir = absDataDir
	if cfg.WeightsPath == "" {
		cfg.WeightsPath = filepath.Join(cfg.DataDir, "best_weights.msgpack")
	}
	if cfg.DatabasePath == "" {
		cfg.DatabasePath = filepath.Join(cfg.DataDir, "runs.db")
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// fileConfig is the YAML layout: experiment keys at the top level plus an
// optional paths block
type fileConfig struct {
	Experiment `yaml:",inline"`
	Paths      struct {
		DataDir  string `yaml:"data_dir"`
		Input    string `yaml:"input"`
		Weights  string `yaml:"weights"`
		Database string `yaml:"database"`
	} `yaml:"paths"`
	LogLevel string `yaml:"log_level"`
}

func (c *Config) readFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}

	c.Experiment = fc.Experiment
	c.DataDir = fc.Paths.DataDir
	c.Input = fc.Paths.Input
	c.WeightsPath = fc.Paths.Weights
	c.DatabasePath = fc.Paths.Database
	c.LogLevel = fc.LogLevel
	return nil
}

func (c *Config) applyEnv() {
	c.DataDir = getEnv("DATA_DIR", c.DataDir)
	c.LogLevel = getEnv("LOG_LEVEL", c.LogLevel)
	c.LogPretty = getEnvAsBool("THALIA_LOG_PRETTY", c.LogPretty)
	c.Input = getEnv("THALIA_INPUT", c.Input)
	c.DateColumn = getEnv("THALIA_DATE_COLUMN", c.DateColumn)
	c.DecimalComma = getEnvAsBool("THALIA_DECIMAL_COMMA", c.DecimalComma)
	c.WeightsPath = getEnv("THALIA_WEIGHTS_PATH", c.WeightsPath)
	c.DatabasePath = getEnv("THALIA_DB_PATH", c.DatabasePath)

	e := &c.Experiment
	e.Assets = getEnvAsInt("THALIA_N_ACTIONS", e.Assets)
	e.Lags = getEnvAsInt("THALIA_N_LAGS", e.Lags)
	e.Neurons = getEnvAsInt("THALIA_NEURONS", e.Neurons)
	e.Omega = getEnvAsFloat("THALIA_OMEGA", e.Omega)
	e.ReportOmega = getEnvAsFloat("THALIA_REPORT_OMEGA", e.ReportOmega)
	e.Strategy = getEnv("THALIA_STRATEGY", e.Strategy)
	e.Preset = getEnv("THALIA_PRESET", e.Preset)
	e.Particles = getEnvAsInt("THALIA_PARTICLES", e.Particles)
	e.Iterations = getEnvAsInt("THALIA_ITERATIONS", e.Iterations)
	e.C1 = getEnvAsFloatPtr("THALIA_C1", e.C1)
	e.C2 = getEnvAsFloatPtr("THALIA_C2", e.C2)
	e.W = getEnvAsFloatPtr("THALIA_W", e.W)
	e.Seed = int64(getEnvAsInt("THALIA_SEED", int(e.Seed)))
	e.Workers = getEnvAsInt("THALIA_WORKERS", e.Workers)
	e.Splits = getEnvAsInt("THALIA_SPLITS", e.Splits)
	e.Benchmark = getEnv("THALIA_BENCHMARK", e.Benchmark)
}

func (c *Config) applyDefaults() {
	if c.DataDir == "" {
		c.DataDir = "data"
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}
	if c.Input == "" {
		c.Input = filepath.Join(c.DataDir, "prices.csv")
	}

	e := &c.Experiment
	if e.Lags == 0 {
		e.Lags = 3
	}
	if e.Neurons == 0 {
		e.Neurons = 10
	}
	if e.Omega == 0 {
		e.Omega = 2.0
	}
	if e.ReportOmega == 0 {
		e.ReportOmega = 1.0
	}
	if e.Strategy == "" {
		e.Strategy = optimization.StrategySwarm
	}
	if e.Preset == "" {
		e.Preset = "default"
	}
	if e.Splits == 0 {
		e.Splits = 3
	}
}

// Validate checks ranges and that the preset and strategy are known
func (c *Config) Validate() error {
	e := c.Experiment
	switch {
	case e.Assets < 0:
		return fmt.Errorf("n_actions must not be negative, got %d", e.Assets)
	case e.Lags < 1:
		return fmt.Errorf("n_lags must be positive, got %d", e.Lags)
	case e.Neurons < 1:
		return fmt.Errorf("neurons must be positive, got %d", e.Neurons)
	case e.Omega <= 0:
		return fmt.Errorf("omega must be positive, got %v", e.Omega)
	case e.ReportOmega <= 0:
		return fmt.Errorf("report_omega must be positive, got %v", e.ReportOmega)
	case e.Splits < 1:
		return fmt.Errorf("splits must be positive, got %d", e.Splits)
	case e.Workers < 0:
		return fmt.Errorf("workers must not be negative, got %d", e.Workers)
	case e.Particles < 0 || e.Iterations < 0:
		return fmt.Errorf("particles and iterations must not be negative")
	}
	if e.Strategy != optimization.StrategySwarm && e.Strategy != optimization.StrategyCMAES {
		return fmt.Errorf("unknown search strategy %q", e.Strategy)
	}

	swarm, err := c.SwarmConfig()
	if err != nil {
		return err
	}
	return swarm.Validate()
}

// SwarmConfig resolves the preset and then applies explicit overrides
func (c *Config) SwarmConfig() (optimization.SwarmConfig, error) {
	e := c.Experiment
	cfg, err := optimization.PresetConfig(e.Preset)
	if err != nil {
		return optimization.SwarmConfig{}, err
	}
	if e.Particles > 0 {
		cfg.ParticleCount = e.Particles
	}
	if e.Iterations > 0 {
		cfg.Iterations = e.Iterations
	}
	if e.C1 != nil {
		cfg.PersonalWeight = *e.C1
	}
	if e.C2 != nil {
		cfg.GlobalWeight = *e.C2
	}
	if e.W != nil {
		cfg.InertiaWeight = *e.W
	}
	if e.Seed != 0 {
		cfg.Seed = e.Seed
	}
	return cfg, nil
}

// Helper functions
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvAsFloat(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return floatVal
		}
	}
	return defaultValue
}

func getEnvAsFloatPtr(key string, defaultValue *float64) *float64 {
	if value := os.Getenv(key); value != "" {
		if floatVal, err := strconv.ParseFloat(value, 64); err == nil {
			return &floatVal
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
