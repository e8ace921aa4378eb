// Package replay runs a scenario timeline through the full tick pipeline at a
// fixed step and checks its expectations.
package replay

import (
	"fmt"
	"math"
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/input"
	"github.com/l1jgo/locomotion/internal/system"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
)

// Tolerance for float expectations.
const Tolerance = 1e-6

const actorName = "subject"

// TuningSource resolves a profile name to spawn tuning.
type TuningSource interface {
	Resolve(profile string) (actor.Tuning, error)
}

// Check is the outcome of one expectation.
type Check struct {
	At       float64
	Tick     int
	Failures []string
}

func (c Check) Passed() bool { return len(c.Failures) == 0 }

type Report struct {
	Scenario    string
	Profile     string
	Ticks       int
	Final       actor.Frame
	Position    [3]float64
	Distance    float64
	Checks      []Check
	Transitions []event.StaminaTransition
}

func (r *Report) Passed() bool {
	for _, c := range r.Checks {
		if !c.Passed() {
			return false
		}
	}
	return true
}

// Failed returns the checks that did not pass.
func (r *Report) Failed() []Check {
	var out []Check
	for _, c := range r.Checks {
		if !c.Passed() {
			out = append(out, c)
		}
	}
	return out
}

// Options carries the optional collaborators of a run.
type Options struct {
	Writer system.TransitionWriter // nil disables telemetry
	Log    *zap.Logger
}

// Run replays sc once. Expectations at 0 are checked against the spawn
// state; others against the frame of the tick ending nearest their time.
func Run(sc *data.Scenario, tunings TuningSource, opts Options) (*Report, error) {
	log := opts.Log
	if log == nil {
		log = zap.NewNop()
	}
	tun, err := tunings.Resolve(sc.Profile)
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}

	bus := event.NewBus()
	ws := world.NewState(bus, log)
	runner := coresys.NewRunner()
	runner.Register(system.NewInputSystem(ws))
	runner.Register(system.NewEventDispatchSystem(bus))
	runner.Register(system.NewLocomotionSystem(ws, log))
	runner.Register(system.NewStaminaSystem(ws))
	runner.Register(system.NewOutputSystem(ws, log))
	runner.Register(system.NewCleanupSystem(ws, log))
	var telem *system.TelemetrySystem
	if opts.Writer != nil {
		telem = system.NewTelemetrySystem(bus, opts.Writer, sc.Ticks()+1, 256, log)
		runner.Register(telem)
	}

	rep := &Report{Scenario: sc.Name, Profile: sc.Profile, Ticks: sc.Ticks()}
	event.Subscribe(bus, func(ev event.StaminaTransition) {
		rep.Transitions = append(rep.Transitions, ev)
	})

	body := world.NewFlatBody(sc.StartHeight)
	id, err := ws.Spawn(world.SpawnParams{
		Name:    actorName,
		Profile: sc.Profile,
		Tuning:  tun,
		Source:  input.NewTimeline(sc.Segments, false),
		Body:    body,
	})
	if err != nil {
		return nil, fmt.Errorf("scenario %q: %w", sc.Name, err)
	}
	a, _ := ws.Actor(id)

	byTick := make(map[int][]data.Expectation, len(sc.Expect))
	for _, e := range sc.Expect {
		n := int(math.Round(e.At / sc.Dt))
		byTick[n] = append(byTick[n], e)
	}
	check := func(n int, f actor.Frame) {
		for _, e := range byTick[n] {
			rep.Checks = append(rep.Checks, Check{At: e.At, Tick: n, Failures: evaluate(e, f)})
		}
	}

	check(0, a.Frame())
	dt := time.Duration(math.Round(sc.Dt * float64(time.Second)))
	for n := 1; n <= rep.Ticks; n++ {
		runner.Tick(dt)
		pres, _ := ws.Outputs.Get(id)
		check(n, pres.Frame)
		rep.Final = pres.Frame
	}

	// Deliver the last tick's events.
	bus.SwapBuffers()
	bus.DispatchAll()
	if telem != nil {
		telem.Update(dt)
	}

	p := body.Position()
	rep.Position = [3]float64{p.X(), p.Y(), p.Z()}
	rep.Distance = body.Distance()
	return rep, nil
}

func evaluate(e data.Expectation, f actor.Frame) []string {
	var fails []string
	num := func(name string, want *float64, got float64) {
		if want != nil && math.Abs(*want-got) > Tolerance {
			fails = append(fails, fmt.Sprintf("%s = %.6f, want %.6f", name, got, *want))
		}
	}
	flag := func(name string, want *bool, got bool) {
		if want != nil && *want != got {
			fails = append(fails, fmt.Sprintf("%s = %v, want %v", name, got, *want))
		}
	}
	num("stamina", e.Stamina, f.Stamina.Current)
	flag("tired", e.Tired, f.Stamina.Tired)
	flag("running", e.Running, f.Stamina.Running)
	flag("visible", e.Visible, f.Stamina.Visible)
	num("crouch_blend", e.CrouchBlend, f.CrouchBlend)
	num("velocity_y", e.VelocityY, f.Velocity.Y())
	if e.Tier != nil && *e.Tier != f.Tier.String() {
		fails = append(fails, fmt.Sprintf("tier = %s, want %s", f.Tier, *e.Tier))
	}
	return fails
}
