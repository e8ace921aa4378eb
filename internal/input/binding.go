package input

import (
	"sync"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/locomotion/internal/locomotion"
)

// Source yields one intent per tick.
type Source interface {
	Poll(dt time.Duration) locomotion.Intent
}

// Binding collects device callbacks, which may arrive on any goroutine, and
// hands the tick a single snapshot. Edge-triggered inputs (sprint press, jump)
// are latched until the next Poll so a press shorter than a tick is not lost.
type Binding struct {
	mu sync.Mutex

	move   mgl64.Vec2
	yaw    float64
	sprint bool
	crouch bool

	sprintPressed bool
	jump          bool
}

func NewBinding() *Binding { return &Binding{} }

func (b *Binding) MovePerformed(v mgl64.Vec2) {
	b.mu.Lock()
	b.move = v
	b.mu.Unlock()
}

func (b *Binding) MoveCanceled() {
	b.mu.Lock()
	b.move = mgl64.Vec2{}
	b.mu.Unlock()
}

// Face sets the facing yaw in radians, as reported by the camera owner.
func (b *Binding) Face(yaw float64) {
	b.mu.Lock()
	b.yaw = yaw
	b.mu.Unlock()
}

func (b *Binding) SprintPerformed() {
	b.mu.Lock()
	if !b.sprint {
		b.sprintPressed = true
	}
	b.sprint = true
	b.mu.Unlock()
}

func (b *Binding) SprintCanceled() {
	b.mu.Lock()
	b.sprint = false
	b.mu.Unlock()
}

func (b *Binding) CrouchPerformed() {
	b.mu.Lock()
	b.crouch = true
	b.mu.Unlock()
}

func (b *Binding) CrouchCanceled() {
	b.mu.Lock()
	b.crouch = false
	b.mu.Unlock()
}

func (b *Binding) ToggleCrouch() {
	b.mu.Lock()
	b.crouch = !b.crouch
	b.mu.Unlock()
}

func (b *Binding) JumpPerformed() {
	b.mu.Lock()
	b.jump = true
	b.mu.Unlock()
}

// Poll returns the current snapshot and clears latched edges.
func (b *Binding) Poll(_ time.Duration) locomotion.Intent {
	b.mu.Lock()
	defer b.mu.Unlock()
	in := locomotion.Intent{
		Direction:     b.move,
		Yaw:           b.yaw,
		Sprint:        b.sprint,
		SprintPressed: b.sprintPressed,
		Crouch:        b.crouch,
		Jump:          b.jump,
	}
	b.sprintPressed = false
	b.jump = false
	return in
}
