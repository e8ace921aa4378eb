package actor

import (
	"fmt"

	"github.com/l1jgo/locomotion/internal/locomotion"
	"github.com/l1jgo/locomotion/internal/stamina"
)

// Tuning is the full set of constants fixed when an actor spawns. Both halves
// are inlined so a profile is one flat YAML mapping.
type Tuning struct {
	Stamina    stamina.Config    `yaml:",inline"`
	Locomotion locomotion.Config `yaml:",inline"`
}

func DefaultTuning() Tuning {
	return Tuning{
		Stamina:    stamina.DefaultConfig(),
		Locomotion: locomotion.DefaultConfig(),
	}
}

func (t Tuning) Validate() error {
	if err := t.Stamina.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	if err := t.Locomotion.Validate(); err != nil {
		return fmt.Errorf("tuning: %w", err)
	}
	return nil
}
