package world

import (
	"errors"
	"fmt"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/ecs"
	"github.com/l1jgo/locomotion/internal/core/event"
	"github.com/l1jgo/locomotion/internal/input"
	"github.com/l1jgo/locomotion/internal/locomotion"
	"go.uber.org/zap"
)

var (
	ErrDuplicateName = errors.New("actor name already in use")
	ErrUnknownActor  = errors.New("unknown actor")
)

// Control is the input side of an actor: where intents come from and the
// intent polled for the current tick.
type Control struct {
	Source input.Source
	Intent locomotion.Intent
}

// Physics wraps the actor's body collaborator.
type Physics struct {
	Body actor.Body
}

// Presentation holds the output collaborators and the last published frame.
type Presentation struct {
	Sinks actor.Sinks
	Frame actor.Frame
}

// Resetter is implemented by bodies that can return to their spawn point.
type Resetter interface {
	Reset()
}

// SpawnParams describes one actor to bring into the world. Source, Body and
// Sinks may be nil; a nil Body is replaced by a FlatBody at the origin.
type SpawnParams struct {
	Name    string
	Profile string
	Tuning  actor.Tuning
	Source  input.Source
	Body    actor.Body
	Sinks   actor.Sinks
}

// State is the live set of actors. Accessed only from the loop goroutine, no
// locks needed.
type State struct {
	ecs *ecs.World
	bus *event.Bus
	log *zap.Logger

	Actors   *ecs.Store[actor.Actor]
	Controls *ecs.Store[Control]
	Bodies   *ecs.Store[Physics]
	Outputs  *ecs.Store[Presentation]

	byName   map[string]ecs.EntityID
	profiles map[ecs.EntityID]string
}

func NewState(bus *event.Bus, log *zap.Logger) *State {
	s := &State{
		ecs:      ecs.NewWorld(),
		bus:      bus,
		log:      log,
		Actors:   ecs.NewStore[actor.Actor](),
		Controls: ecs.NewStore[Control](),
		Bodies:   ecs.NewStore[Physics](),
		Outputs:  ecs.NewStore[Presentation](),
		byName:   make(map[string]ecs.EntityID, 8),
		profiles: make(map[ecs.EntityID]string, 8),
	}
	s.ecs.Register(s.Actors)
	s.ecs.Register(s.Controls)
	s.ecs.Register(s.Bodies)
	s.ecs.Register(s.Outputs)
	return s
}

func (s *State) Bus() *event.Bus { return s.bus }

// Spawn creates and starts an actor. The actor takes part in the next tick.
func (s *State) Spawn(p SpawnParams) (ecs.EntityID, error) {
	if _, dup := s.byName[p.Name]; dup {
		return 0, fmt.Errorf("spawn %q: %w", p.Name, ErrDuplicateName)
	}
	a, err := actor.New(p.Name, p.Tuning, s.log)
	if err != nil {
		return 0, fmt.Errorf("spawn %q: %w", p.Name, err)
	}
	body := p.Body
	if body == nil {
		body = NewFlatBody(0)
	}

	id := s.ecs.CreateEntity()
	s.Actors.Set(id, a)
	s.Controls.Set(id, &Control{Source: p.Source})
	s.Bodies.Set(id, &Physics{Body: body})
	s.Outputs.Set(id, &Presentation{Sinks: p.Sinks})
	s.byName[p.Name] = id
	s.profiles[id] = p.Profile

	a.Start()
	if s.bus != nil {
		event.Emit(s.bus, event.ActorSpawned{
			EntityID: id,
			Name:     p.Name,
			Profile:  p.Profile,
			Stamina:  a.Stamina().Current(),
		})
	}
	s.log.Info("actor spawned",
		zap.String("actor", p.Name),
		zap.String("profile", p.Profile),
		zap.Uint64("entity", uint64(id)),
	)
	return id, nil
}

// Despawn stops the actor at once and queues its components for removal in
// the cleanup phase.
func (s *State) Despawn(id ecs.EntityID) error {
	a, ok := s.Actors.Get(id)
	if !ok || !s.ecs.Alive(id) {
		return ErrUnknownActor
	}
	if cur, ok := s.byName[a.Name()]; !ok || cur != id {
		return ErrUnknownActor
	}
	a.Stop()
	delete(s.byName, a.Name())
	delete(s.profiles, id)
	s.ecs.MarkForDestruction(id)
	if s.bus != nil {
		event.Emit(s.bus, event.ActorDespawned{
			EntityID: id,
			Name:     a.Name(),
			Tick:     a.Ticks(),
			Stamina:  a.Stamina().Current(),
		})
	}
	s.log.Info("actor despawned", zap.String("actor", a.Name()))
	return nil
}

// Respawn returns the actor to its spawn state under tuning t, keeping its
// entity, collaborators and profile. An unchanged tuning resets the existing
// actor in place; a new one builds a fresh actor. Bodies implementing
// Resetter go back to their spawn point.
func (s *State) Respawn(id ecs.EntityID, t actor.Tuning) error {
	old, ok := s.Actors.Get(id)
	if !ok {
		return ErrUnknownActor
	}
	var a *actor.Actor
	if t != old.Tuning() {
		var err error
		if a, err = actor.New(old.Name(), t, s.log); err != nil {
			return fmt.Errorf("respawn %q: %w", old.Name(), err)
		}
	}
	if phys, ok := s.Bodies.Get(id); ok {
		if r, ok := phys.Body.(Resetter); ok {
			r.Reset()
		}
	}
	if out, ok := s.Outputs.Get(id); ok {
		out.Frame = actor.Frame{}
	}
	if a == nil {
		old.Respawn()
		return nil
	}
	if old.Started() {
		a.Start()
	}
	s.Actors.Set(id, a)
	return nil
}

// RespawnAll rebuilds every live actor with the tuning returned by resolve for
// its profile. Actors whose new tuning fails validation keep running on the
// old one; the first such error is returned.
func (s *State) RespawnAll(resolve func(profile string) (actor.Tuning, error)) error {
	var first error
	s.AllActors(func(id ecs.EntityID, a *actor.Actor) {
		t, err := resolve(s.profiles[id])
		if err == nil {
			err = s.Respawn(id, t)
		}
		if err != nil {
			s.log.Warn("respawn failed, keeping previous tuning",
				zap.String("actor", a.Name()),
				zap.Error(err),
			)
			if first == nil {
				first = err
			}
		}
	})
	return first
}

// Lookup finds a live actor by name.
func (s *State) Lookup(name string) (ecs.EntityID, bool) {
	id, ok := s.byName[name]
	return id, ok
}

func (s *State) Actor(id ecs.EntityID) (*actor.Actor, bool) {
	return s.Actors.Get(id)
}

func (s *State) Profile(id ecs.EntityID) string { return s.profiles[id] }

// ActorCount counts actors that have not been despawned.
func (s *State) ActorCount() int { return len(s.byName) }

// AllActors visits live actors in spawn order. Despawned actors awaiting
// cleanup are skipped.
func (s *State) AllActors(fn func(ecs.EntityID, *actor.Actor)) {
	s.Actors.Each(func(id ecs.EntityID, a *actor.Actor) {
		if cur, ok := s.byName[a.Name()]; ok && cur == id {
			fn(id, a)
		}
	})
}

// FlushDestroyed removes despawned actors from every store.
func (s *State) FlushDestroyed() []ecs.EntityID {
	return s.ecs.FlushDestroyQueue()
}
