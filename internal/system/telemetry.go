package system

import (
	"context"
	"time"

	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/persist"
	"go.uber.org/zap"
)

// TransitionWriter stores a batch of transitions. persist.TelemetryRepo is
// the production implementation.
type TransitionWriter interface {
	WriteTransitions(ctx context.Context, rows []persist.TransitionRow) error
}

// Row kinds recorded alongside the stamina transitions.
const (
	KindSpawned   = "spawned"
	KindDespawned = "despawned"
)

// TelemetrySystem buffers stamina transitions and actor lifecycle events from
// the event bus and writes
// them in batches every interval ticks, or sooner once batchSize rows are
// waiting. A failed batch is logged and dropped so the buffer stays bounded.
// Phase 5 (Persist).
type TelemetrySystem struct {
	writer    TransitionWriter
	log       *zap.Logger
	interval  int
	batchSize int
	timeout   time.Duration
	now       func() time.Time

	buf       []persist.TransitionRow
	tickCount int
	written   uint64
	dropped   uint64
}

func NewTelemetrySystem(bus *event.Bus, writer TransitionWriter, intervalTicks, batchSize int, log *zap.Logger) *TelemetrySystem {
	if intervalTicks < 1 {
		intervalTicks = 1
	}
	if batchSize < 1 {
		batchSize = 1
	}
	s := &TelemetrySystem{
		writer:    writer,
		log:       log,
		interval:  intervalTicks,
		batchSize: batchSize,
		timeout:   5 * time.Second,
		now:       time.Now,
		buf:       make([]persist.TransitionRow, 0, batchSize),
	}
	event.Subscribe(bus, s.record)
	event.Subscribe(bus, s.recordSpawn)
	event.Subscribe(bus, s.recordDespawn)
	return s
}

func (s *TelemetrySystem) Phase() coresys.Phase { return coresys.PhasePersist }

func (s *TelemetrySystem) record(ev event.StaminaTransition) {
	s.buf = append(s.buf, persist.TransitionRow{
		Actor:      ev.Name,
		EntityID:   uint64(ev.EntityID),
		Kind:       ev.Kind,
		Tick:       ev.Tick,
		Stamina:    ev.Stamina,
		RecordedAt: s.now(),
	})
}

func (s *TelemetrySystem) recordSpawn(ev event.ActorSpawned) {
	s.buf = append(s.buf, persist.TransitionRow{
		Actor:      ev.Name,
		EntityID:   uint64(ev.EntityID),
		Kind:       KindSpawned,
		Stamina:    ev.Stamina,
		RecordedAt: s.now(),
	})
}

func (s *TelemetrySystem) recordDespawn(ev event.ActorDespawned) {
	s.buf = append(s.buf, persist.TransitionRow{
		Actor:      ev.Name,
		EntityID:   uint64(ev.EntityID),
		Kind:       KindDespawned,
		Tick:       ev.Tick,
		Stamina:    ev.Stamina,
		RecordedAt: s.now(),
	})
}

func (s *TelemetrySystem) Update(_ time.Duration) {
	s.tickCount++
	if s.tickCount < s.interval && len(s.buf) < s.batchSize {
		return
	}
	s.tickCount = 0
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()
	s.Flush(ctx)
}

// Flush writes everything buffered. Called on shutdown after the last tick.
func (s *TelemetrySystem) Flush(ctx context.Context) {
	for start := 0; start < len(s.buf); start += s.batchSize {
		end := min(start+s.batchSize, len(s.buf))
		batch := s.buf[start:end]
		n := len(batch)
		if err := s.writer.WriteTransitions(ctx, batch); err != nil {
			s.dropped += uint64(n)
			s.log.Warn("telemetry batch dropped",
				zap.Int("rows", n),
				zap.Uint64("dropped_total", s.dropped),
				zap.Error(err),
			)
		} else {
			s.written += uint64(n)
		}
	}
	s.buf = s.buf[:0]
}

func (s *TelemetrySystem) Pending() int    { return len(s.buf) }
func (s *TelemetrySystem) Written() uint64 { return s.written }
func (s *TelemetrySystem) Dropped() uint64 { return s.dropped }
