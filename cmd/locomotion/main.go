package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/config"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/input"
	"github.com/l1jgo/locomotion/internal/persist"
	"github.com/l1jgo/locomotion/internal/scripting"
	"github.com/l1jgo/locomotion/internal/system"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

// ── Startup display helpers ────────────────────────────────────────

func printBanner(name string, rate time.Duration) {
	fmt.Println()
	fmt.Println("\033[36;1m  ┌───────────────────────────────────────────┐\033[0m")
	fmt.Println("\033[36;1m  │\033[0m        locomotion + stamina  v0.1.0       \033[36;1m│\033[0m")
	fmt.Println("\033[36;1m  └───────────────────────────────────────────┘\033[0m")
	fmt.Println()
	fmt.Printf("  \033[1mworld:\033[0m %s \033[90m(tick: %s)\033[0m\n\n", name, rate)
}

func printSection(title string) {
	lineLen := 46 - len(title) - 1
	if lineLen < 3 {
		lineLen = 3
	}
	fmt.Printf("  \033[33m── %s %s\033[0m\n", title, strings.Repeat("─", lineLen))
}

func printStat(label string, count int) {
	numStr := fmt.Sprintf("%d", count)
	dotsLen := 42 - len(label) - len(numStr)
	if dotsLen < 3 {
		dotsLen = 3
	}
	fmt.Printf("  %s \033[90m%s\033[0m \033[32m%s\033[0m\n", label, strings.Repeat("·", dotsLen), numStr)
}

func printOK(msg string) {
	fmt.Printf("  \033[32m✓\033[0m %s\n", msg)
}

func printReady(msg string) {
	fmt.Printf("  \033[32m▶\033[0m %s\n", msg)
}

// ── Main loop ─────────────────────────────────────────────────────

func run() error {
	// 1. Load config
	cfgPath := "config/server.toml"
	if p := os.Getenv("LOCO_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	// 2. Init logger
	log, err := newLogger(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name, cfg.Server.TickRate)

	// 3. Tuning profiles and Lua hooks
	printSection("tuning")
	table, err := data.LoadTuningTable(cfg.Tuning.File)
	if err != nil {
		return fmt.Errorf("load tuning: %w", err)
	}
	printStat("profiles", table.Count())

	lua, err := scripting.NewEngine(cfg.Tuning.ScriptsDir, log)
	if err != nil {
		return fmt.Errorf("lua: %w", err)
	}
	defer lua.Close()
	printStat("lua scripts", lua.Scripts())

	resolver := &system.Resolver{Table: table, Lua: lua, DefaultProfile: cfg.Tuning.DefaultProfile}
	if _, err := resolver.Resolve(""); err != nil {
		return fmt.Errorf("default profile: %w", err)
	}
	fmt.Println()

	// 4. Optional telemetry store
	var writer system.TransitionWriter
	if cfg.TelemetryActive() {
		printSection("database")
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		db, err := persist.NewDB(ctx, cfg.Database, log)
		if err != nil {
			cancel()
			return fmt.Errorf("database: %w", err)
		}
		defer db.Close()
		printOK("PostgreSQL connected")

		if err := persist.RunMigrations(ctx, db.Pool); err != nil {
			cancel()
			return fmt.Errorf("migrations: %w", err)
		}
		cancel()
		printOK("migrations applied")
		fmt.Println()
		writer = persist.NewTelemetryRepo(db)
	}

	// 5. World and actors
	printSection("actors")
	bus := event.NewBus()
	ws := world.NewState(bus, log)
	if err := spawnActors(ws, cfg.Actors, resolver, log); err != nil {
		return err
	}
	printStat("spawned", ws.ActorCount())
	fmt.Println()

	// 6. Systems
	runner := coresys.NewRunner()
	var watcher *data.Watcher
	if cfg.Tuning.HotReload {
		dirs := append([]string{filepath.Dir(cfg.Tuning.File)}, lua.Dirs()...)
		watcher, err = data.NewWatcher(dirs...)
		if err != nil {
			return fmt.Errorf("watch tuning: %w", err)
		}
		defer watcher.Close()
		runner.Register(system.NewReloadSystem(watcher.Events, watcher.Errors, ws, resolver, log))
	}
	runner.Register(system.NewInputSystem(ws))
	dispatch := system.NewEventDispatchSystem(bus)
	runner.Register(dispatch)
	runner.Register(system.NewLocomotionSystem(ws, log))
	runner.Register(system.NewStaminaSystem(ws))
	runner.Register(system.NewOutputSystem(ws, log))
	var telem *system.TelemetrySystem
	if writer != nil {
		telem = system.NewTelemetrySystem(bus, writer, cfg.Telemetry.FlushIntervalTicks, cfg.Telemetry.BatchSize, log)
		runner.Register(telem)
	}
	runner.Register(system.NewCleanupSystem(ws, log))

	// 7. Start tick loop
	loop := coresys.NewLoop(runner, cfg.Server.TickRate, log)
	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	printSection("ready")
	printReady(fmt.Sprintf("tick loop started (tick: %s)", cfg.Server.TickRate))
	if watcher != nil {
		printReady("hot reload enabled")
	}
	fmt.Println()

	done := make(chan error, 1)
	go func() { done <- loop.Run(context.Background()) }()

	select {
	case sig := <-shutdownCh:
		log.Info("shutdown signal received", zap.String("signal", sig.String()))
		loop.Stop()
		if err := <-done; err != nil {
			return err
		}
	case err := <-done:
		if err != nil {
			return fmt.Errorf("tick loop: %w", err)
		}
	}

	if telem != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		telem.Flush(ctx)
		cancel()
		log.Info("telemetry flushed", zap.Uint64("written", telem.Written()), zap.Uint64("dropped", telem.Dropped()))
	}
	logSummary(ws, log)
	log.Info("stopped", zap.Uint64("events_dispatched", dispatch.Dispatched()))
	return nil
}

// spawnActors brings up the configured actors. Actors with a scenario replay
// its timeline; the rest get an input binding and stand still until driven.
// An empty list spawns a single idle "player".
func spawnActors(ws *world.State, actors []config.ActorConfig, resolver *system.Resolver, log *zap.Logger) error {
	if len(actors) == 0 {
		actors = []config.ActorConfig{{Name: "player"}}
	}
	for _, ac := range actors {
		profile := ac.Profile
		var src input.Source = input.NewBinding()
		if ac.Scenario != "" {
			sc, err := data.LoadScenario(ac.Scenario)
			if err != nil {
				return fmt.Errorf("actor %q: %w", ac.Name, err)
			}
			if profile == "" {
				profile = sc.Profile
			}
			src = input.NewTimeline(sc.Segments, ac.Loop)
		}
		tun, err := resolver.Resolve(profile)
		if err != nil {
			return fmt.Errorf("actor %q: %w", ac.Name, err)
		}
		if _, err := ws.Spawn(world.SpawnParams{
			Name:    ac.Name,
			Profile: profile,
			Tuning:  tun,
			Source:  src,
			Body:    world.NewFlatBody(ac.StartHeight),
			Sinks:   actor.Sinks{Animator: &logAnimator{log: log.With(zap.String("actor", ac.Name))}},
		}); err != nil {
			return err
		}
	}
	return nil
}

// logAnimator reports animation parameter changes at debug level in place of
// a real animation graph.
type logAnimator struct {
	log    *zap.Logger
	floats map[string]float64
	bools  map[string]bool
}

func (a *logAnimator) SetFloat(param string, v float64) {
	if a.floats == nil {
		a.floats = make(map[string]float64)
	}
	if old, ok := a.floats[param]; ok && old == v {
		return
	}
	a.floats[param] = v
	a.log.Debug("animator", zap.String("param", param), zap.Float64("value", v))
}

func (a *logAnimator) SetBool(param string, v bool) {
	if a.bools == nil {
		a.bools = make(map[string]bool)
	}
	if old, ok := a.bools[param]; ok && old == v {
		return
	}
	a.bools[param] = v
	a.log.Debug("animator", zap.String("param", param), zap.Bool("value", v))
}

func logSummary(ws *world.State, log *zap.Logger) {
	ws.AllActors(func(id ecs.EntityID, a *actor.Actor) {
		fields := []zap.Field{
			zap.String("actor", a.Name()),
			zap.String("profile", ws.Profile(id)),
			zap.Uint64("ticks", a.Ticks()),
			zap.Float64("stamina", a.Stamina().Current()),
			zap.Bool("tired", a.Stamina().IsTired()),
			zap.Uint64("invalid_deltas", a.InvalidDeltas()),
		}
		if phys, ok := ws.Bodies.Get(id); ok {
			if fb, ok := phys.Body.(*world.FlatBody); ok {
				fields = append(fields, zap.Float64("distance", fb.Distance()))
			}
		}
		log.Info("actor summary", fields...)
	})
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	var zapCfg zap.Config
	if cfg.Format == "json" {
		zapCfg = zap.NewProductionConfig()
	} else {
		zapCfg = zap.NewDevelopmentConfig()
		zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
		zapCfg.EncoderConfig.ConsoleSeparator = "  "
		zapCfg.DisableCaller = true
		zapCfg.DisableStacktrace = true
	}
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
