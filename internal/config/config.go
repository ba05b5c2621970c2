// Package config loads service settings from .env, an optional YAML file and
// the environment, in that order of increasing precedence.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type Config struct {
	Port   string       `yaml:"port"`
	Solver SolverConfig `yaml:"solver"`
	DB     DBConfig     `yaml:"database"`
	Redis  RedisConfig  `yaml:"redis"`
	Map    MapConfig    `yaml:"map"`
}

type SolverConfig struct {
	URL     string        `yaml:"url"`
	Timeout time.Duration `yaml:"timeout"`
	RPS     float64       `yaml:"rps"`
	Burst   int           `yaml:"burst"`
}

type DBConfig struct {
	URL     string `yaml:"url"`
	Migrate bool   `yaml:"migrate"`
}

type RedisConfig struct {
	URL string `yaml:"url"`
}

type MapConfig struct {
	FitPadding int      `yaml:"fit_padding"`
	Palette    []string `yaml:"palette"`
}

func Default() *Config {
	return &Config{
		Port:   "8080",
		Solver: SolverConfig{URL: "http://localhost:5000/api/v1/calculate_routes", Burst: 1},
		Map:    MapConfig{FitPadding: 50},
	}
}

// Load reads .env (if present), then CONFIG_PATH (default config.yaml, which
// may be absent), then applies environment overrides.
func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := Default()
	path := os.Getenv("CONFIG_PATH")
	explicit := path != ""
	if !explicit {
		path = "config.yaml"
	}
	b, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := yaml.Unmarshal(b, cfg); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && !explicit:
	default:
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// Parse decodes YAML on top of the defaults. Environment is not consulted.
func Parse(b []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(b, cfg); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

func (c *Config) applyEnv() error {
	c.Port = getEnv("PORT", c.Port)
	c.Solver.URL = getEnv("SOLVER_URL", c.Solver.URL)
	c.DB.URL = getEnv("DATABASE_URL", c.DB.URL)
	c.Redis.URL = getEnv("REDIS_URL", c.Redis.URL)
	if v := os.Getenv("SOLVER_TIMEOUT"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("SOLVER_TIMEOUT: %w", err)
		}
		c.Solver.Timeout = d
	}
	if v := os.Getenv("SOLVER_RPS"); v != "" {
		f, err := strconv.ParseFloat(v, 64)
		if err != nil {
			return fmt.Errorf("SOLVER_RPS: %w", err)
		}
		c.Solver.RPS = f
	}
	if v := os.Getenv("SOLVER_BURST"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("SOLVER_BURST: %w", err)
		}
		c.Solver.Burst = n
	}
	if v := os.Getenv("MAP_FIT_PADDING"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("MAP_FIT_PADDING: %w", err)
		}
		c.Map.FitPadding = n
	}
	if v := os.Getenv("DB_MIGRATE"); v != "" {
		c.DB.Migrate = v == "1" || v == "true"
	}
	return nil
}

func (c *Config) Validate() error {
	if c.Solver.URL == "" {
		return errors.New("solver url is required")
	}
	if c.Solver.Timeout < 0 {
		return errors.New("solver timeout must be >= 0")
	}
	if c.Solver.RPS < 0 {
		return errors.New("solver rps must be >= 0")
	}
	if c.Map.FitPadding < 0 {
		return errors.New("map fit_padding must be >= 0")
	}
	return nil
}

func getEnv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
