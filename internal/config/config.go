package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/caarlos0/env/v11"
)

var ErrInvalid = errors.New("invalid config")

type Config struct {
	Server    ServerConfig    `toml:"server"`
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
	Telemetry TelemetryConfig `toml:"telemetry"`
	Tuning    TuningConfig    `toml:"tuning"`
	Actors    []ActorConfig   `toml:"actors"`
}

type ServerConfig struct {
	Name      string        `toml:"name" env:"LOCO_SERVER_NAME"`
	TickRate  time.Duration `toml:"tick_rate" env:"LOCO_TICK_RATE"`
	StartTime int64         // set at boot, not from config
}

type LoggingConfig struct {
	Level  string `toml:"level" env:"LOCO_LOG_LEVEL"`
	Format string `toml:"format" env:"LOCO_LOG_FORMAT"` // "json" or "console"
}

// DatabaseConfig is only used for telemetry. An empty DSN disables it.
type DatabaseConfig struct {
	DSN             string        `toml:"dsn" env:"LOCO_DATABASE_DSN"`
	MaxOpenConns    int           `toml:"max_open_conns" env:"LOCO_DATABASE_MAX_OPEN_CONNS"`
	MaxIdleConns    int           `toml:"max_idle_conns" env:"LOCO_DATABASE_MAX_IDLE_CONNS"`
	ConnMaxLifetime time.Duration `toml:"conn_max_lifetime" env:"LOCO_DATABASE_CONN_MAX_LIFETIME"`
}

type TelemetryConfig struct {
	Enabled            bool `toml:"enabled" env:"LOCO_TELEMETRY_ENABLED"`
	FlushIntervalTicks int  `toml:"flush_interval_ticks" env:"LOCO_TELEMETRY_FLUSH_INTERVAL_TICKS"`
	BatchSize          int  `toml:"batch_size" env:"LOCO_TELEMETRY_BATCH_SIZE"`
}

type TuningConfig struct {
	File           string `toml:"file" env:"LOCO_TUNING_FILE"`
	DefaultProfile string `toml:"default_profile" env:"LOCO_TUNING_DEFAULT_PROFILE"`
	ScriptsDir     string `toml:"scripts_dir" env:"LOCO_SCRIPTS_DIR"`
	HotReload      bool   `toml:"hot_reload" env:"LOCO_HOT_RELOAD"`
}

// ActorConfig declares one actor spawned at boot. Scenario names a YAML
// timeline that drives its input; an empty scenario leaves it idle.
type ActorConfig struct {
	Name        string  `toml:"name"`
	Profile     string  `toml:"profile"`
	Scenario    string  `toml:"scenario"`
	StartHeight float64 `toml:"start_height"`
	Loop        bool    `toml:"loop"`
}

// Load reads the TOML file at path over the defaults, then applies LOCO_*
// environment overrides.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	cfg.Server.StartTime = time.Now().Unix()
	return cfg, nil
}

func Parse(data []byte) (*Config, error) {
	cfg := defaults()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	if err := applyEnv(cfg); err != nil {
		return nil, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) Validate() error {
	if c.Server.TickRate <= 0 {
		return fmt.Errorf("%w: server.tick_rate must be positive, got %s", ErrInvalid, c.Server.TickRate)
	}
	if c.Telemetry.FlushIntervalTicks <= 0 {
		return fmt.Errorf("%w: telemetry.flush_interval_ticks must be positive", ErrInvalid)
	}
	if c.Telemetry.BatchSize <= 0 {
		return fmt.Errorf("%w: telemetry.batch_size must be positive", ErrInvalid)
	}
	if c.Tuning.File == "" {
		return fmt.Errorf("%w: tuning.file is required", ErrInvalid)
	}
	seen := make(map[string]bool, len(c.Actors))
	for i, a := range c.Actors {
		if a.Name == "" {
			return fmt.Errorf("%w: actors[%d] has no name", ErrInvalid, i)
		}
		if seen[a.Name] {
			return fmt.Errorf("%w: duplicate actor %q", ErrInvalid, a.Name)
		}
		seen[a.Name] = true
		if a.StartHeight < 0 {
			return fmt.Errorf("%w: actor %q start_height below ground", ErrInvalid, a.Name)
		}
	}
	return nil
}

// applyEnv overrides each tagged section from the environment. Actors are
// file-only.
func applyEnv(cfg *Config) error {
	for _, section := range []any{&cfg.Server, &cfg.Logging, &cfg.Database, &cfg.Telemetry, &cfg.Tuning} {
		if err := env.Parse(section); err != nil {
			return fmt.Errorf("parse env: %w", err)
		}
	}
	return nil
}

// TelemetryActive reports whether transitions should be written to the
// database.
func (c *Config) TelemetryActive() bool {
	return c.Telemetry.Enabled && c.Database.DSN != ""
}

func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			Name:     "locomotion",
			TickRate: 50 * time.Millisecond,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
		},
		Database: DatabaseConfig{
			MaxOpenConns:    4,
			MaxIdleConns:    1,
			ConnMaxLifetime: 30 * time.Minute,
		},
		Telemetry: TelemetryConfig{
			Enabled:            true,
			FlushIntervalTicks: 100,
			BatchSize:          256,
		},
		Tuning: TuningConfig{
			File:           "data/yaml/tuning.yaml",
			DefaultProfile: "default",
			ScriptsDir:     "scripts",
			HotReload:      false,
		},
	}
}
