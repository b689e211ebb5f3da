package config

import (
	"fmt"
	"os"
	"strconv"

	"gopkg.in/yaml.v3"

	"github.com/MikeSquared-Agency/Tally/internal/scoring"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Database DatabaseConfig `yaml:"database"`
	Events   EventsConfig   `yaml:"events"`
	Scoring  ScoringConfig  `yaml:"scoring"`
	HTTP     HTTPConfig     `yaml:"http"`
	Logging  LoggingConfig  `yaml:"logging"`
}

type ServerConfig struct {
	Port        int    `yaml:"port"`
	MetricsPort int    `yaml:"metrics_port"`
	AdminToken  string `yaml:"admin_token"`
}

type DatabaseConfig struct {
	Driver     string `yaml:"driver"`
	URL        string `yaml:"url"`
	SQLitePath string `yaml:"sqlite_path"`
}

type EventsConfig struct {
	URL string `yaml:"url"`
}

type ScoringConfig struct {
	Tolerance              float64 `yaml:"tolerance"`
	MinScore               float64 `yaml:"min_score"`
	MaxScore               float64 `yaml:"max_score"`
	ExcludeInactiveWeights bool    `yaml:"exclude_inactive_weights"`
}

type HTTPConfig struct {
	RateLimitPerSecond float64 `yaml:"rate_limit_per_second"`
	RateLimitBurst     int     `yaml:"rate_limit_burst"`
}

type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// WeightPolicy returns the weight-check policy described by the scoring section.
func (c *Config) WeightPolicy() scoring.WeightPolicy {
	return scoring.WeightPolicy{
		Tolerance:       c.Scoring.Tolerance,
		ExcludeInactive: c.Scoring.ExcludeInactiveWeights,
	}
}

// Scale returns the raw rating bounds.
func (c *Config) Scale() scoring.Scale {
	return scoring.Scale{Min: c.Scoring.MinScore, Max: c.Scoring.MaxScore}
}

// Validate rejects settings the service cannot run with.
func (c *Config) Validate() error {
	switch c.Database.Driver {
	case "postgres":
		if c.Database.URL == "" {
			return fmt.Errorf("database.url required for postgres driver")
		}
	case "sqlite":
		if c.Database.SQLitePath == "" {
			return fmt.Errorf("database.sqlite_path required for sqlite driver")
		}
	default:
		return fmt.Errorf("unknown database driver %q", c.Database.Driver)
	}
	if c.Scoring.MaxScore <= c.Scoring.MinScore {
		return fmt.Errorf("scoring.max_score (%.2f) must exceed min_score (%.2f)", c.Scoring.MaxScore, c.Scoring.MinScore)
	}
	if c.Scoring.Tolerance < 0 {
		return fmt.Errorf("scoring.tolerance must not be negative")
	}
	if c.HTTP.RateLimitPerSecond <= 0 || c.HTTP.RateLimitBurst <= 0 {
		return fmt.Errorf("http rate limit and burst must be positive")
	}
	return nil
}

func Load(path string) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			Port:        8700,
			MetricsPort: 8701,
		},
		Database: DatabaseConfig{
			Driver:     "postgres",
			SQLitePath: "tally.db",
		},
		Scoring: ScoringConfig{
			Tolerance: scoring.DefaultTolerance,
			MinScore:  scoring.DefaultScale.Min,
			MaxScore:  scoring.DefaultScale.Max,
		},
		HTTP: HTTPConfig{
			RateLimitPerSecond: 20,
			RateLimitBurst:     40,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(cfg)
	return cfg, nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("TALLY_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.Port = n
		}
	}
	if v := os.Getenv("TALLY_METRICS_PORT"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Server.MetricsPort = n
		}
	}
	if v := os.Getenv("TALLY_ADMIN_TOKEN"); v != "" {
		cfg.Server.AdminToken = v
	}
	if v := os.Getenv("TALLY_DATABASE_DRIVER"); v != "" {
		cfg.Database.Driver = v
	}
	if v := os.Getenv("TALLY_DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := os.Getenv("TALLY_SQLITE_PATH"); v != "" {
		cfg.Database.SQLitePath = v
	}
	if v := os.Getenv("TALLY_NATS_URL"); v != "" {
		cfg.Events.URL = v
	}
	if v := os.Getenv("TALLY_WEIGHT_TOLERANCE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.Tolerance = f
		}
	}
	if v := os.Getenv("TALLY_MAX_SCORE"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			cfg.Scoring.MaxScore = f
		}
	}
	if v := os.Getenv("TALLY_EXCLUDE_INACTIVE_WEIGHTS"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.Scoring.ExcludeInactiveWeights = b
		}
	}
	if v := os.Getenv("TALLY_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("TALLY_LOG_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
}
