package system

import (
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
)

// OutputSystem snapshots each actor's frame, publishes it to the animation
// and UI sinks, and emits one StaminaTransition event per observed change.
// Phase 4 (Output).
type OutputSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewOutputSystem(ws *world.State, log *zap.Logger) *OutputSystem {
	return &OutputSystem{world: ws, log: log}
}

func (s *OutputSystem) Phase() coresys.Phase { return coresys.PhaseOutput }

func (s *OutputSystem) Update(_ time.Duration) {
	bus := s.world.Bus()
	s.world.AllActors(func(id ecs.EntityID, a *actor.Actor) {
		pres, ok := s.world.Outputs.Get(id)
		if !ok || !a.Started() {
			return
		}
		f := a.Frame()
		pres.Frame = f
		pres.Sinks.Publish(f)

		for _, tr := range f.Transitions {
			s.log.Debug("stamina transition",
				zap.String("actor", a.Name()),
				zap.Stringer("kind", tr),
				zap.Uint64("tick", f.Tick),
				zap.Float64("stamina", f.Stamina.Current),
			)
			if bus != nil {
				event.Emit(bus, event.StaminaTransition{
					EntityID: id,
					Name:     a.Name(),
					Kind:     tr.String(),
					Tick:     f.Tick,
					Stamina:  f.Stamina.Current,
				})
			}
		}
	})
}
