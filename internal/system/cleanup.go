package system

import (
	"time"

	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
)

// CleanupSystem flushes the deferred actor destruction queue at tick end.
// Phase 6 (Cleanup).
type CleanupSystem struct {
	world *world.State
	log   *zap.Logger
}

func NewCleanupSystem(ws *world.State, log *zap.Logger) *CleanupSystem {
	return &CleanupSystem{world: ws, log: log}
}

func (s *CleanupSystem) Phase() coresys.Phase { return coresys.PhaseCleanup }

func (s *CleanupSystem) Update(_ time.Duration) {
	if ids := s.world.FlushDestroyed(); len(ids) > 0 {
		s.log.Debug("actors destroyed", zap.Int("count", len(ids)))
	}
}
