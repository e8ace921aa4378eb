// scenario replays YAML input timelines through the tick pipeline at a fixed
// step and checks their expectations. Exits non-zero if any check fails.
//
// Usage:
//
//	go run ./cmd/scenario [-tuning data/yaml/tuning.yaml] [-scripts scripts] data/scenarios/*.yaml
package main

import (
	"flag"
	"fmt"
	"os"

	"github.com/l1jgo/locomotion/internal/config"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/replay"
	"github.com/l1jgo/locomotion/internal/scripting"
	"github.com/l1jgo/locomotion/internal/system"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

func printUsage() {
	fmt.Println("Usage: scenario [flags] <scenario.yaml>...")
	fmt.Println()
	fmt.Println("Flags:")
	fmt.Println("  -tuning   tuning profile file (default data/yaml/tuning.yaml, built-in defaults if missing)")
	fmt.Println("  -scripts  Lua scripts root (default scripts)")
	fmt.Println("  -v        log every transition")
}

func main() {
	fs := flag.NewFlagSet("scenario", flag.ExitOnError)
	fs.Usage = printUsage
	tuningPath := fs.String("tuning", "data/yaml/tuning.yaml", "tuning profile file")
	scriptsDir := fs.String("scripts", "scripts", "Lua scripts root")
	verbose := fs.Bool("v", false, "log every transition")
	_ = fs.Parse(os.Args[1:])

	if fs.NArg() == 0 {
		printUsage()
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "debug"
	}
	log, err := newLogger(config.LoggingConfig{Level: level, Format: "console"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	table := data.NewTuningTable()
	if _, err := os.Stat(*tuningPath); err == nil {
		if table, err = data.LoadTuningTable(*tuningPath); err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			os.Exit(1)
		}
	}
	lua, err := scripting.NewEngine(*scriptsDir, log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
		os.Exit(1)
	}
	defer lua.Close()
	resolver := &system.Resolver{Table: table, Lua: lua, DefaultProfile: data.DefaultProfile}

	failed := 0
	for _, path := range fs.Args() {
		sc, err := data.LoadScenario(path)
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			failed++
			continue
		}
		rep, err := replay.Run(sc, resolver, replay.Options{Log: log})
		if err != nil {
			fmt.Fprintf(os.Stderr, "ERROR: %v\n", err)
			failed++
			continue
		}
		printReport(rep)
		if !rep.Passed() {
			failed++
		}
	}

	if failed > 0 {
		fmt.Fprintf(os.Stderr, "%d of %d scenarios failed\n", failed, fs.NArg())
		os.Exit(1)
	}
	fmt.Println("Done!")
}

func printReport(rep *replay.Report) {
	status := "\033[32mPASS\033[0m"
	if !rep.Passed() {
		status = "\033[31mFAIL\033[0m"
	}
	fmt.Printf("%s %s \033[90m(profile %s, %d ticks, %.2fm travelled)\033[0m\n",
		status, rep.Scenario, rep.Profile, rep.Ticks, rep.Distance)
	for _, tr := range rep.Transitions {
		fmt.Printf("    tick %4d  %-16s stamina %.2f\n", tr.Tick, tr.Kind, tr.Stamina)
	}
	for _, c := range rep.Failed() {
		for _, f := range c.Failures {
			fmt.Printf("    at %.2fs (tick %d): %s\n", c.At, c.Tick, f)
		}
	}
}

func newLogger(cfg config.LoggingConfig) (*zap.Logger, error) {
	var level zapcore.Level
	if err := level.UnmarshalText([]byte(cfg.Level)); err != nil {
		level = zapcore.InfoLevel
	}

	zapCfg := zap.NewDevelopmentConfig()
	zapCfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	zapCfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05")
	zapCfg.EncoderConfig.ConsoleSeparator = "  "
	zapCfg.DisableCaller = true
	zapCfg.DisableStacktrace = true
	zapCfg.Level = zap.NewAtomicLevelAt(level)

	return zapCfg.Build()
}
