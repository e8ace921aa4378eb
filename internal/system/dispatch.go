package system

import (
	"time"

	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
)

// EventDispatchSystem delivers the events emitted during the previous tick.
// Phase 1 (PreUpdate).
type EventDispatchSystem struct {
	bus        *event.Bus
	dispatched uint64
}

func NewEventDispatchSystem(bus *event.Bus) *EventDispatchSystem {
	return &EventDispatchSystem{bus: bus}
}

func (s *EventDispatchSystem) Phase() coresys.Phase { return coresys.PhasePreUpdate }

func (s *EventDispatchSystem) Update(_ time.Duration) {
	s.bus.SwapBuffers()
	s.dispatched += uint64(s.bus.DispatchAll())
}

// Dispatched returns the number of events delivered so far.
func (s *EventDispatchSystem) Dispatched() uint64 { return s.dispatched }
