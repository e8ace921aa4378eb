package actor

import "github.com/go-gl/mathgl/mgl64"

// Animation parameter names pushed to the Animator every tick.
const (
	ParamCrouchBlend    = "crouchBlend"
	ParamStaminaVisible = "isVisible"
	ParamTired          = "isTired"
)

// Body is the physics collaborator: it reports ground contact and applies the
// tick's displacement.
type Body interface {
	Grounded() bool
	Move(displacement mgl64.Vec3)
}

type Animator interface {
	SetFloat(param string, v float64)
	SetBool(param string, v bool)
}

// StaminaBar receives current/max.
type StaminaBar interface {
	SetFill(ratio float64)
}

// Sinks groups the optional output collaborators of one actor. Nil members are
// skipped.
type Sinks struct {
	Animator Animator
	Bar      StaminaBar
}

// Publish pushes a frame to the animation and UI collaborators.
func (s Sinks) Publish(f Frame) {
	if s.Animator != nil {
		s.Animator.SetFloat(ParamCrouchBlend, f.CrouchBlend)
		s.Animator.SetBool(ParamStaminaVisible, f.Stamina.Visible)
		s.Animator.SetBool(ParamTired, f.Stamina.Tired)
	}
	if s.Bar != nil {
		s.Bar.SetFill(f.Stamina.FillRatio())
	}
}
