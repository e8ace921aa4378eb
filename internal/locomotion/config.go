package locomotion

import (
	"errors"
	"fmt"
)

var ErrInvalidConfig = errors.New("invalid locomotion config")

// JumpPolicy decides what happens to a jump request. Jumping has no physics
// yet; a request is either dropped or latched for a later consumer.
type JumpPolicy string

const (
	JumpIgnore JumpPolicy = "ignore"
	JumpDefer  JumpPolicy = "defer"
)

const (
	DefaultIdleThreshold            = 0.01
	DefaultGroundedVerticalVelocity = -2.0
)

// Config holds the per-actor movement constants. Speeds are units per second;
// CrouchSpeed is the crouch blend rate per second.
type Config struct {
	WalkSpeed                float64    `yaml:"walk_speed"`
	RunSpeed                 float64    `yaml:"run_speed"`
	CrouchSpeed              float64    `yaml:"crouch_speed"`
	CrouchMoveFactor         float64    `yaml:"crouch_move_factor"`
	Gravity                  float64    `yaml:"gravity"`
	GroundedVerticalVelocity float64    `yaml:"grounded_vertical_velocity"`
	IdleThreshold            float64    `yaml:"idle_threshold"` // on squared magnitude
	Jump                     JumpPolicy `yaml:"jump_policy"`
}

func DefaultConfig() Config {
	return Config{
		WalkSpeed:                3,
		RunSpeed:                 7,
		CrouchSpeed:              2,
		CrouchMoveFactor:         1,
		Gravity:                  7,
		GroundedVerticalVelocity: DefaultGroundedVerticalVelocity,
		IdleThreshold:            DefaultIdleThreshold,
		Jump:                     JumpIgnore,
	}
}

func (c Config) Validate() error {
	switch {
	case c.WalkSpeed < 0:
		return fmt.Errorf("%w: walk_speed %.2f must be >= 0", ErrInvalidConfig, c.WalkSpeed)
	case c.RunSpeed < c.WalkSpeed:
		return fmt.Errorf("%w: run_speed %.2f must be >= walk_speed %.2f", ErrInvalidConfig, c.RunSpeed, c.WalkSpeed)
	case c.CrouchSpeed <= 0:
		return fmt.Errorf("%w: crouch_speed %.2f must be > 0", ErrInvalidConfig, c.CrouchSpeed)
	case c.CrouchMoveFactor < 0:
		return fmt.Errorf("%w: crouch_move_factor %.2f must be >= 0", ErrInvalidConfig, c.CrouchMoveFactor)
	case c.Gravity < 0:
		return fmt.Errorf("%w: gravity %.2f must be >= 0", ErrInvalidConfig, c.Gravity)
	case c.GroundedVerticalVelocity >= 0:
		return fmt.Errorf("%w: grounded_vertical_velocity %.2f must be < 0", ErrInvalidConfig, c.GroundedVerticalVelocity)
	case c.IdleThreshold < 0:
		return fmt.Errorf("%w: idle_threshold %.4f must be >= 0", ErrInvalidConfig, c.IdleThreshold)
	}
	switch c.Jump {
	case JumpIgnore, JumpDefer:
	default:
		return fmt.Errorf("%w: unknown jump_policy %q", ErrInvalidConfig, c.Jump)
	}
	return nil
}
