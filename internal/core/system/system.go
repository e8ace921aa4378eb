package system

import "time"

// Phase orders systems within one tick.
type Phase int

const (
	PhaseInput      Phase = iota // 0: poll intent snapshots, apply reloads
	PhasePreUpdate               // 1: dispatch last tick's events
	PhaseUpdate                  // 2: sprint gate, locomotion, stamina spend
	PhasePostUpdate              // 3: stamina regen driver
	PhaseOutput                  // 4: push frames to body/animation/UI sinks
	PhasePersist                 // 5: telemetry flush
	PhaseCleanup                 // 6: destroy despawned actors
)

func (p Phase) String() string {
	switch p {
	case PhaseInput:
		return "input"
	case PhasePreUpdate:
		return "pre_update"
	case PhaseUpdate:
		return "update"
	case PhasePostUpdate:
		return "post_update"
	case PhaseOutput:
		return "output"
	case PhasePersist:
		return "persist"
	case PhaseCleanup:
		return "cleanup"
	default:
		return "unknown"
	}
}

// System is implemented by every per-tick system.
type System interface {
	Phase() Phase
	Update(dt time.Duration)
}
