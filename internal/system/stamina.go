package system

import (
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/world"
)

// StaminaSystem drives regeneration and the bar after locomotion has spent
// for the tick. Phase 3 (PostUpdate).
type StaminaSystem struct {
	world *world.State
}

func NewStaminaSystem(ws *world.State) *StaminaSystem {
	return &StaminaSystem{world: ws}
}

func (s *StaminaSystem) Phase() coresys.Phase { return coresys.PhasePostUpdate }

func (s *StaminaSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	s.world.AllActors(func(_ ecs.EntityID, a *actor.Actor) {
		a.DriveStamina(sec)
	})
}
