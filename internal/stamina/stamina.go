package stamina

import (
	"errors"
	"fmt"
)

// ErrInvalidConfig is wrapped by Config.Validate.
var ErrInvalidConfig = errors.New("invalid stamina config")

// Config holds the per-actor constants. Rates are per second.
type Config struct {
	Max        float64 `yaml:"max_stamina"`
	DebuffCap  float64 `yaml:"debuff_cap"`  // tired clears once current exceeds this
	RegenDelay float64 `yaml:"regen_delay"` // seconds idle before regen starts
	SpendRate  float64 `yaml:"spend_rate"`
	RegenRate  float64 `yaml:"regen_rate"`
}

func DefaultConfig() Config {
	return Config{
		Max:        100,
		DebuffCap:  15,
		RegenDelay: 2,
		SpendRate:  10,
		RegenRate:  5,
	}
}

func (c Config) Validate() error {
	switch {
	case c.Max <= 0:
		return fmt.Errorf("%w: max_stamina %.2f must be > 0", ErrInvalidConfig, c.Max)
	case c.DebuffCap < 0 || c.DebuffCap >= c.Max:
		return fmt.Errorf("%w: debuff_cap %.2f must be in [0, %.2f)", ErrInvalidConfig, c.DebuffCap, c.Max)
	case c.RegenDelay < 0:
		return fmt.Errorf("%w: regen_delay %.2f must be >= 0", ErrInvalidConfig, c.RegenDelay)
	case c.SpendRate < 0:
		return fmt.Errorf("%w: spend_rate %.2f must be >= 0", ErrInvalidConfig, c.SpendRate)
	case c.RegenRate < 0:
		return fmt.Errorf("%w: regen_rate %.2f must be >= 0", ErrInvalidConfig, c.RegenRate)
	}
	return nil
}

// State is a read-only copy of the pool for sinks and tests.
type State struct {
	Current    float64
	Max        float64
	RegenTimer float64
	Running    bool
	Tired      bool
	Visible    bool
}

// FillRatio returns Current/Max.
func (s State) FillRatio() float64 {
	if s.Max <= 0 {
		return 0
	}
	return s.Current / s.Max
}

// Resource owns one actor's stamina pool.
//
// ChangeRunningState performs no gating: callers check IsTired before
// requesting a sprint. Spend is the only place that cancels a sprint on its own
// (exhaustion). Accessed only from the tick goroutine.
type Resource struct {
	cfg Config

	current    float64
	regenTimer float64
	running    bool
	tired      bool
	visible    bool

	// spent marks a Spend call since the last Tick; regen is skipped for that tick.
	spent bool
}

// New returns a full pool. cfg is assumed valid.
func New(cfg Config) *Resource {
	r := &Resource{cfg: cfg}
	r.Reset()
	return r
}

// Reset restores the spawn state. Used on respawn.
func (r *Resource) Reset() {
	r.current = r.cfg.Max
	r.regenTimer = 0
	r.running = false
	r.tired = false
	r.visible = false
	r.spent = false
}

func (r *Resource) Config() Config      { return r.cfg }
func (r *Resource) Current() float64    { return r.current }
func (r *Resource) Max() float64        { return r.cfg.Max }
func (r *Resource) RegenTimer() float64 { return r.regenTimer }
func (r *Resource) IsRunning() bool     { return r.running }
func (r *Resource) IsTired() bool       { return r.tired }
func (r *Resource) Visible() bool       { return r.visible }

func (r *Resource) FillRatio() float64 { return r.State().FillRatio() }

func (r *Resource) State() State {
	return State{
		Current:    r.current,
		Max:        r.cfg.Max,
		RegenTimer: r.regenTimer,
		Running:    r.running,
		Tired:      r.tired,
		Visible:    r.visible,
	}
}

// CanSprint reports whether a sprint request would be honoured by the gate.
func (r *Resource) CanSprint() bool {
	return !r.tired
}

// Spend drains stamina for dt seconds of sprinting. Reaching zero sets the
// tired debuff and cancels the sprint regardless of caller intent.
func (r *Resource) Spend(dt float64) {
	r.visible = true
	r.spent = true
	r.regenTimer = 0
	r.current -= r.cfg.SpendRate * dt
	if r.current <= 0 {
		r.current = 0
		r.tired = true
		r.running = false
	}
}

// Regenerate advances the regen delay and, once it has elapsed, refills the
// pool. Only meaningful while not running.
func (r *Resource) Regenerate(dt float64) {
	r.regenTimer += dt
	if r.regenTimer < r.cfg.RegenDelay {
		return
	}
	r.current += r.cfg.RegenRate * dt
	if r.current > r.cfg.Max {
		r.current = r.cfg.Max
	}
	if r.tired && r.current > r.cfg.DebuffCap {
		r.tired = false
	}
}

func (r *Resource) ChangeRunningState(running bool) {
	r.running = running
}

// Tick is the per-tick driver. It runs after locomotion within the same tick.
func (r *Resource) Tick(dt float64) {
	spent := r.spent
	r.spent = false

	switch {
	case r.current < r.cfg.Max && !r.running:
		if spent {
			return
		}
		r.Regenerate(dt)
		if r.current >= r.cfg.Max {
			r.visible = false
		}
	case r.current > r.cfg.Max:
		r.current = r.cfg.Max
		r.visible = false
	}
}
