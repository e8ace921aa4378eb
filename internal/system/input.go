package system

import (
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/locomotion"
	"github.com/l1jgo/locomotion/internal/world"
)

// InputSystem polls every actor's intent source once per tick. Actors without
// a source stand still. Phase 0 (Input).
type InputSystem struct {
	world *world.State
}

func NewInputSystem(ws *world.State) *InputSystem {
	return &InputSystem{world: ws}
}

func (s *InputSystem) Phase() coresys.Phase { return coresys.PhaseInput }

func (s *InputSystem) Update(dt time.Duration) {
	s.world.AllActors(func(id ecs.EntityID, _ *actor.Actor) {
		c, ok := s.world.Controls.Get(id)
		if !ok {
			return
		}
		if c.Source == nil {
			c.Intent = locomotion.Intent{}
			return
		}
		c.Intent = c.Source.Poll(dt)
	})
}
