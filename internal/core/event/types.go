package event

import "github.com/l1jgo/locomotion/internal/core/ecs"

// ActorSpawned is emitted when an actor joins the world with a full pool.
type ActorSpawned struct {
	EntityID ecs.EntityID
	Name     string
	Profile  string
	Stamina  float64
}

// ActorDespawned carries the actor's last tick and stamina.
type ActorDespawned struct {
	EntityID ecs.EntityID
	Name     string
	Tick     uint64
	Stamina  float64
}

// StaminaTransition reports a sprint or stamina state change observed at the
// end of a tick. Kind is one of the actor.Transition names.
type StaminaTransition struct {
	EntityID ecs.EntityID
	Name     string
	Kind     string
	Tick     uint64
	Stamina  float64
}
