package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"
)

const sample = `
[server]
name = "bench"
tick_rate = "250ms"

[logging]
level = "debug"

[telemetry]
enabled = true
flush_interval_ticks = 20

[tuning]
file = "tuning.yaml"
default_profile = "heavy"

[[actors]]
name = "runner"
profile = "default"
scenario = "exhaustion"
start_height = 1.5

[[actors]]
name = "walker"
`

func TestParse_FileOverDefaults(t *testing.T) {
	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.Name != "bench" || cfg.Server.TickRate != 250*time.Millisecond {
		t.Fatalf("server = %+v", cfg.Server)
	}
	if cfg.Logging.Level != "debug" || cfg.Logging.Format != "console" {
		t.Fatalf("logging = %+v, want debug/console", cfg.Logging)
	}
	if cfg.Telemetry.FlushIntervalTicks != 20 || cfg.Telemetry.BatchSize != 256 {
		t.Fatalf("telemetry = %+v", cfg.Telemetry)
	}
	if cfg.Tuning.DefaultProfile != "heavy" || cfg.Tuning.ScriptsDir != "scripts" {
		t.Fatalf("tuning = %+v", cfg.Tuning)
	}
	if len(cfg.Actors) != 2 || cfg.Actors[0].StartHeight != 1.5 || cfg.Actors[1].Scenario != "" {
		t.Fatalf("actors = %+v", cfg.Actors)
	}
	if cfg.TelemetryActive() {
		t.Fatalf("telemetry active without a DSN")
	}
}

func TestParse_EnvOverrides(t *testing.T) {
	t.Setenv("LOCO_TICK_RATE", "20ms")
	t.Setenv("LOCO_DATABASE_DSN", "postgres://u:p@localhost/loco")
	t.Setenv("LOCO_HOT_RELOAD", "true")

	cfg, err := Parse([]byte(sample))
	if err != nil {
		t.Fatalf("Parse() error = %v", err)
	}
	if cfg.Server.TickRate != 20*time.Millisecond {
		t.Fatalf("tick_rate = %s, want 20ms", cfg.Server.TickRate)
	}
	if !cfg.Tuning.HotReload {
		t.Fatalf("hot_reload not overridden")
	}
	if !cfg.TelemetryActive() {
		t.Fatalf("telemetry inactive with DSN set")
	}
	if cfg.Server.Name != "bench" {
		t.Fatalf("unset env var clobbered name: %q", cfg.Server.Name)
	}
}

func TestParse_Invalid(t *testing.T) {
	tests := []struct {
		name string
		doc  string
	}{
		{"zero tick", "[server]\ntick_rate = \"0s\""},
		{"no flush", "[telemetry]\nflush_interval_ticks = 0"},
		{"no tuning file", "[tuning]\nfile = \"\""},
		{"unnamed actor", "[[actors]]\nprofile = \"default\""},
		{"duplicate actor", "[[actors]]\nname = \"a\"\n[[actors]]\nname = \"a\""},
		{"below ground", "[[actors]]\nname = \"a\"\nstart_height = -1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Parse([]byte(tt.doc)); !errors.Is(err, ErrInvalid) {
				t.Fatalf("Parse() error = %v, want ErrInvalid", err)
			}
		})
	}
}

func TestParse_Malformed(t *testing.T) {
	if _, err := Parse([]byte("[server\nname=")); err == nil {
		t.Fatalf("Parse() accepted malformed TOML")
	}
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "server.toml")
	if err := os.WriteFile(path, []byte(sample), 0o644); err != nil {
		t.Fatal(err)
	}
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.StartTime == 0 {
		t.Fatalf("StartTime not set")
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.toml")); err == nil {
		t.Fatalf("Load() of missing file succeeded")
	}
}
