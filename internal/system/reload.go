package system

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/l1jgo/locomotion/internal/actor"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/scripting"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
)

var ErrUnknownProfile = errors.New("unknown tuning profile")

// Resolver turns a profile name into spawn tuning: the YAML profile, then the
// Lua resolve_tuning hook. Lua may be nil.
type Resolver struct {
	Table          *data.TuningTable
	Lua            *scripting.Engine
	DefaultProfile string
}

func (r *Resolver) Resolve(profile string) (actor.Tuning, error) {
	if profile == "" {
		profile = r.DefaultProfile
	}
	base, ok := r.Table.Get(profile)
	if !ok {
		return actor.Tuning{}, fmt.Errorf("%w: %q", ErrUnknownProfile, profile)
	}
	return r.Lua.ResolveTuning(profile, base), nil
}

// ReloadSystem applies tuning and script edits between ticks. All pending
// file events are coalesced into one reload, after which every actor is
// respawned on its profile's new tuning. A reload that fails to parse keeps
// the previous table and scripts. Phase 0 (Input), registered before
// InputSystem so the new actors see this tick's intent.
type ReloadSystem struct {
	events   <-chan string
	errs     <-chan error
	world    *world.State
	resolver *Resolver
	log      *zap.Logger
	reloads  int
}

func NewReloadSystem(events <-chan string, errs <-chan error, ws *world.State, resolver *Resolver, log *zap.Logger) *ReloadSystem {
	return &ReloadSystem{events: events, errs: errs, world: ws, resolver: resolver, log: log}
}

func (s *ReloadSystem) Phase() coresys.Phase { return coresys.PhaseInput }

// Reloads counts reloads that led to a respawn.
func (s *ReloadSystem) Reloads() int { return s.reloads }

func (s *ReloadSystem) Update(_ time.Duration) {
	var tuningChanged, scriptsChanged bool
drain:
	for {
		select {
		case path, ok := <-s.events:
			if !ok {
				s.events = nil
				break drain
			}
			switch {
			case s.isTuningTable(path):
				tuningChanged = true
			case strings.EqualFold(filepath.Ext(path), ".lua"):
				scriptsChanged = true
			}
		case err, ok := <-s.errs:
			if !ok {
				s.errs = nil
				continue
			}
			s.log.Warn("file watcher error", zap.Error(err))
		default:
			break drain
		}
	}
	if tuningChanged || scriptsChanged {
		s.Apply(tuningChanged, scriptsChanged)
	}
}

// Apply reloads the requested sources and, if any of them loaded, respawns
// every actor.
func (s *ReloadSystem) Apply(tuning, scripts bool) {
	changed := false
	if tuning {
		table, err := data.LoadTuningTable(s.resolver.Table.Path())
		if err != nil {
			s.log.Error("tuning reload failed, keeping previous profiles", zap.Error(err))
		} else {
			s.resolver.Table = table
			changed = true
			s.log.Info("tuning reloaded", zap.Int("profiles", table.Count()))
		}
	}
	if scripts && s.resolver.Lua != nil {
		if err := s.resolver.Lua.Reload(); err != nil {
			s.log.Error("lua reload failed, keeping previous scripts", zap.Error(err))
		} else {
			changed = true
		}
	}
	if !changed {
		return
	}
	s.reloads++
	if err := s.world.RespawnAll(s.resolver.Resolve); err != nil {
		s.log.Warn("some actors kept their previous tuning", zap.Error(err))
	}
}

func (s *ReloadSystem) isTuningTable(path string) bool {
	want := s.resolver.Table.Path()
	if want == "" {
		return false
	}
	a, errA := filepath.Abs(path)
	b, errB := filepath.Abs(want)
	if errA != nil || errB != nil {
		return filepath.Clean(path) == filepath.Clean(want)
	}
	return a == b
}
