package system

import (
	"errors"
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
)

// LocomotionSystem runs the sprint gate and movement for every actor, then
// hands the displacement to its body. Stamina is spent here. Despawned actors
// are stopped and skip themselves until cleanup. Phase 2 (Update).
type LocomotionSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewLocomotionSystem(ws *world.State, log *zap.Logger) *LocomotionSystem {
	return &LocomotionSystem{world: ws, log: log}
}

func (s *LocomotionSystem) Phase() coresys.Phase { return coresys.PhaseUpdate }

func (s *LocomotionSystem) Update(dt time.Duration) {
	sec := dt.Seconds()
	ecs.Each2(s.world.Actors, s.world.Bodies, func(id ecs.EntityID, a *actor.Actor, phys *world.Physics) {
		ctrl, ok := s.world.Controls.Get(id)
		if !ok {
			return
		}
		out, err := a.Locomote(ctrl.Intent, sec, phys.Body.Grounded())
		if err != nil {
			if !errors.Is(err, actor.ErrStopped) {
				s.log.Error("locomotion failed", zap.String("actor", a.Name()), zap.Error(err))
			}
			return
		}
		phys.Body.Move(out.Displacement)
	})
}
