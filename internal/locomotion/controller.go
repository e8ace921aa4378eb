package locomotion

import (
	"github.com/go-gl/mathgl/mgl64"
)

// Tier is the movement speed selected for a tick.
type Tier uint8

const (
	TierIdle Tier = iota
	TierWalk
	TierRun
	TierCrouch
)

func (t Tier) String() string {
	switch t {
	case TierIdle:
		return "idle"
	case TierWalk:
		return "walk"
	case TierRun:
		return "run"
	case TierCrouch:
		return "crouch"
	default:
		return "unknown"
	}
}

// Intent is one tick's polled input.
type Intent struct {
	// Direction is the planar move input: X strafes, Y moves forward.
	Direction mgl64.Vec2
	// Yaw is the facing around the up axis in radians.
	Yaw           float64
	Sprint        bool // sprint held
	SprintPressed bool // sprint went down since the previous snapshot
	Crouch        bool
	Jump          bool
}

// Stamina is what the controller needs from the stamina pool.
type Stamina interface {
	IsRunning() bool
	IsTired() bool
	Spend(dt float64)
	ChangeRunningState(running bool)
}

// State is the controller's persistent state between ticks.
type State struct {
	Velocity    mgl64.Vec3
	Grounded    bool
	CrouchBlend float64
	Tier        Tier
}

// Output is what one Tick produced for the body and animation sinks.
type Output struct {
	Velocity     mgl64.Vec3
	Displacement mgl64.Vec3
	CrouchBlend  float64
	Tier         Tier
	Moving       bool

	JumpIgnored  bool
	JumpDeferred bool
}

// Controller turns intent and ground contact into velocity and crouch blend.
// Not safe for concurrent use.
type Controller struct {
	cfg     Config
	stamina Stamina
	state   State

	jumpPending bool
}

func NewController(cfg Config, s Stamina) *Controller {
	return &Controller{cfg: cfg, stamina: s}
}

func (c *Controller) Config() Config { return c.cfg }
func (c *Controller) State() State   { return c.state }

// Reset restores the spawn state.
func (c *Controller) Reset() {
	c.state = State{}
	c.jumpPending = false
}

// IsMoving reports whether a direction clears the idle threshold.
func (c *Controller) IsMoving(direction mgl64.Vec2) bool {
	return direction.Dot(direction) > c.cfg.IdleThreshold
}

// Tick advances one frame. dt must already be validated (>= 0, finite).
func (c *Controller) Tick(in Intent, dt float64, grounded bool) Output {
	c.state.Grounded = grounded

	moving := c.IsMoving(in.Direction)
	speed, tier := c.selectSpeed(in, moving, dt)

	var horizontal mgl64.Vec3
	if moving {
		horizontal = worldDirection(in.Direction, in.Yaw).Mul(speed)
	}
	vy := c.integrateGravity(c.state.Velocity.Y(), grounded, dt)
	velocity := mgl64.Vec3{horizontal.X(), vy, horizontal.Z()}

	target := 0.0
	if in.Crouch {
		target = 1
	}
	blend := clamp01(MoveToward(c.state.CrouchBlend, target, c.cfg.CrouchSpeed*dt))

	c.state.Velocity = velocity
	c.state.CrouchBlend = blend
	c.state.Tier = tier

	out := Output{
		Velocity:     velocity,
		Displacement: velocity.Mul(dt),
		CrouchBlend:  blend,
		Tier:         tier,
		Moving:       moving,
	}
	if in.Jump {
		switch c.cfg.Jump {
		case JumpDefer:
			c.jumpPending = true
			out.JumpDeferred = true
		default:
			out.JumpIgnored = true
		}
	}
	return out
}

// JumpPending reports a latched jump request under JumpDefer.
func (c *Controller) JumpPending() bool { return c.jumpPending }

// TakeJump consumes a latched jump request.
func (c *Controller) TakeJump() bool {
	p := c.jumpPending
	c.jumpPending = false
	return p
}

// selectSpeed is the running decision. An idle actor is never running, even
// with sprint held.
func (c *Controller) selectSpeed(in Intent, moving bool, dt float64) (float64, Tier) {
	if !moving {
		c.stamina.ChangeRunningState(false)
		return c.cfg.WalkSpeed, TierIdle
	}
	if c.stamina.IsRunning() {
		c.stamina.Spend(dt)
		return c.cfg.RunSpeed, TierRun
	}
	if in.Crouch {
		return c.cfg.WalkSpeed * c.cfg.CrouchMoveFactor, TierCrouch
	}
	return c.cfg.WalkSpeed, TierWalk
}

func (c *Controller) integrateGravity(vy float64, grounded bool, dt float64) float64 {
	if grounded && vy < 0 {
		return c.cfg.GroundedVerticalVelocity
	}
	return vy - c.cfg.Gravity*dt
}

// worldDirection rotates the planar input into facing space. Inputs longer
// than 1 (diagonal keys) are normalised.
func worldDirection(dir mgl64.Vec2, yaw float64) mgl64.Vec3 {
	local := mgl64.Vec3{dir.X(), 0, dir.Y()}
	if local.Dot(local) > 1 {
		local = local.Normalize()
	}
	if yaw == 0 {
		return local
	}
	return mgl64.Rotate3DY(yaw).Mul3x1(local)
}

// MoveToward moves current toward target by at most maxDelta.
func MoveToward(current, target, maxDelta float64) float64 {
	d := target - current
	if d <= maxDelta && d >= -maxDelta {
		return target
	}
	if d > 0 {
		return current + maxDelta
	}
	return current - maxDelta
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}
