package actor

import (
	"errors"
	"math"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/locomotion/internal/locomotion"
	"github.com/l1jgo/locomotion/internal/stamina"
	"go.uber.org/zap"
)

// ErrStopped is returned when a stopped actor is asked to tick.
var ErrStopped = errors.New("actor stopped")

// Transition is a state change observed between the start and end of a tick.
type Transition uint8

const (
	SprintStarted Transition = iota + 1
	SprintStopped
	Exhausted
	Recovered
	BarShown
	BarHidden
	JumpUnsupported
)

func (t Transition) String() string {
	switch t {
	case SprintStarted:
		return "sprint_started"
	case SprintStopped:
		return "sprint_stopped"
	case Exhausted:
		return "exhausted"
	case Recovered:
		return "recovered"
	case BarShown:
		return "bar_shown"
	case BarHidden:
		return "bar_hidden"
	case JumpUnsupported:
		return "jump_unsupported"
	default:
		return "unknown"
	}
}

// Frame is everything one tick produced for the outside world.
type Frame struct {
	Tick         uint64
	Velocity     mgl64.Vec3
	Displacement mgl64.Vec3
	CrouchBlend  float64
	Tier         locomotion.Tier
	Moving       bool
	Stamina      stamina.State
	JumpPending  bool
	Transitions  []Transition
}

// Has reports whether the frame carries transition t.
func (f Frame) Has(t Transition) bool {
	for _, x := range f.Transitions {
		if x == t {
			return true
		}
	}
	return false
}

// ClampDelta maps negative, NaN and infinite frame times to 0. The bool is
// false when the input was rejected.
func ClampDelta(dt float64) (float64, bool) {
	if math.IsNaN(dt) || math.IsInf(dt, 0) || dt < 0 {
		return 0, false
	}
	return dt, true
}

// Actor composes a locomotion controller with its stamina pool and owns the
// per-tick ordering between them:
//
//	sprint gate -> locomotion (spend) -> stamina driver (regen) -> frame
//
// Locomote and DriveStamina are split so the runner can place them in
// separate phases; Tick runs the whole sequence. Single goroutine only.
type Actor struct {
	name   string
	tuning Tuning
	log    *zap.Logger

	stamina *stamina.Resource
	ctrl    *locomotion.Controller

	started bool
	tick    uint64

	before stamina.State
	out    locomotion.Output

	invalidDeltas uint64
}

func New(name string, t Tuning, log *zap.Logger) (*Actor, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	res := stamina.New(t.Stamina)
	return &Actor{
		name:    name,
		tuning:  t,
		log:     log.With(zap.String("actor", name)),
		stamina: res,
		ctrl:    locomotion.NewController(t.Locomotion, res),
	}, nil
}

func (a *Actor) Name() string                       { return a.name }
func (a *Actor) Tuning() Tuning                     { return a.tuning }
func (a *Actor) Stamina() *stamina.Resource         { return a.stamina }
func (a *Actor) Controller() *locomotion.Controller { return a.ctrl }
func (a *Actor) Started() bool                      { return a.started }
func (a *Actor) Ticks() uint64                      { return a.tick }
func (a *Actor) InvalidDeltas() uint64              { return a.invalidDeltas }

// Start enables ticking. Idempotent.
func (a *Actor) Start() {
	if a.started {
		return
	}
	a.started = true
	a.log.Debug("actor started")
}

// Stop disables ticking; state is kept so Start resumes where it left off.
func (a *Actor) Stop() {
	if !a.started {
		return
	}
	a.started = false
	a.log.Debug("actor stopped", zap.Uint64("ticks", a.tick))
}

// Respawn restores the spawn state: full pool, flags cleared, at rest.
func (a *Actor) Respawn() {
	a.stamina.Reset()
	a.ctrl.Reset()
	a.before = a.stamina.State()
	a.out = locomotion.Output{}
	a.tick = 0
	a.log.Debug("actor respawned")
}

// GateSprint applies the sprint button to the running state. A press starts a
// sprint only when the actor is moving and not tired; releasing always stops.
func (a *Actor) GateSprint(in locomotion.Intent) {
	if !in.Sprint {
		if a.stamina.IsRunning() {
			a.stamina.ChangeRunningState(false)
		}
		return
	}
	if in.SprintPressed && a.stamina.CanSprint() && a.ctrl.IsMoving(in.Direction) {
		a.stamina.ChangeRunningState(true)
	}
}

// Locomote runs the sprint gate and the controller for one tick.
func (a *Actor) Locomote(in locomotion.Intent, dt float64, grounded bool) (locomotion.Output, error) {
	if !a.started {
		return locomotion.Output{}, ErrStopped
	}
	dt = a.acceptDelta(dt)
	a.tick++
	a.before = a.stamina.State()

	a.GateSprint(in)
	a.out = a.ctrl.Tick(in, dt, grounded)

	if a.out.JumpIgnored || a.out.JumpDeferred {
		a.log.Debug("jump requested but not supported",
			zap.Uint64("tick", a.tick),
			zap.Bool("deferred", a.out.JumpDeferred),
		)
	}
	return a.out, nil
}

// DriveStamina runs the stamina driver after locomotion.
func (a *Actor) DriveStamina(dt float64) {
	if !a.started {
		return
	}
	dt, _ = ClampDelta(dt)
	a.stamina.Tick(dt)
}

// Frame snapshots the tick's outputs and the transitions since Locomote.
func (a *Actor) Frame() Frame {
	now := a.stamina.State()
	return Frame{
		Tick:         a.tick,
		Velocity:     a.out.Velocity,
		Displacement: a.out.Displacement,
		CrouchBlend:  a.out.CrouchBlend,
		Tier:         a.out.Tier,
		Moving:       a.out.Moving,
		Stamina:      now,
		JumpPending:  a.ctrl.JumpPending(),
		Transitions:  diff(a.before, now, a.out),
	}
}

// Tick runs a whole tick: gate, locomotion, stamina driver.
func (a *Actor) Tick(in locomotion.Intent, dt float64, grounded bool) (Frame, error) {
	if _, err := a.Locomote(in, dt, grounded); err != nil {
		return Frame{}, err
	}
	a.DriveStamina(dt)
	return a.Frame(), nil
}

func (a *Actor) acceptDelta(dt float64) float64 {
	clamped, ok := ClampDelta(dt)
	if !ok {
		a.invalidDeltas++
		a.log.Warn("invalid frame delta clamped to zero",
			zap.Float64("dt", dt),
			zap.Uint64("count", a.invalidDeltas),
		)
	}
	return clamped
}

func diff(before, now stamina.State, out locomotion.Output) []Transition {
	var ts []Transition
	switch {
	case !before.Running && now.Running:
		ts = append(ts, SprintStarted)
	case before.Running && !now.Running:
		ts = append(ts, SprintStopped)
	}
	switch {
	case !before.Tired && now.Tired:
		ts = append(ts, Exhausted)
	case before.Tired && !now.Tired:
		ts = append(ts, Recovered)
	}
	switch {
	case !before.Visible && now.Visible:
		ts = append(ts, BarShown)
	case before.Visible && !now.Visible:
		ts = append(ts, BarHidden)
	}
	if out.JumpIgnored || out.JumpDeferred {
		ts = append(ts, JumpUnsupported)
	}
	return ts
}
