package data

import (
	"fmt"
	"math"
	"os"

	"gopkg.in/yaml.v3"
)

// Segment holds one input state for Duration seconds.
type Segment struct {
	Duration float64    `yaml:"duration"`
	Move     [2]float64 `yaml:"move"` // strafe, forward
	Yaw      float64    `yaml:"yaw"`  // degrees
	Sprint   bool       `yaml:"sprint"`
	Crouch   bool       `yaml:"crouch"`
	Jump     bool       `yaml:"jump"`
}

// Expectation is checked against the frame of the tick ending at At seconds.
// Nil fields are not checked.
type Expectation struct {
	At          float64  `yaml:"at"`
	Stamina     *float64 `yaml:"stamina"`
	Tired       *bool    `yaml:"tired"`
	Running     *bool    `yaml:"running"`
	Visible     *bool    `yaml:"visible"`
	Tier        *string  `yaml:"tier"`
	CrouchBlend *float64 `yaml:"crouch_blend"`
	VelocityY   *float64 `yaml:"velocity_y"`
}

// Scenario is a deterministic input timeline for one actor.
type Scenario struct {
	Name        string        `yaml:"name"`
	Profile     string        `yaml:"profile"`
	Dt          float64       `yaml:"dt"`
	StartHeight float64       `yaml:"start_height"`
	Segments    []Segment     `yaml:"segments"`
	Expect      []Expectation `yaml:"expect"`
}

// Duration returns the total scripted time in seconds.
func (s *Scenario) Duration() float64 {
	var total float64
	for _, seg := range s.Segments {
		total += seg.Duration
	}
	return total
}

// Ticks returns the number of fixed-dt ticks covering the timeline.
func (s *Scenario) Ticks() int {
	return int(math.Round(s.Duration() / s.Dt))
}

func (s *Scenario) validate() error {
	if s.Dt <= 0 {
		return fmt.Errorf("dt %.4f must be > 0", s.Dt)
	}
	if len(s.Segments) == 0 {
		return fmt.Errorf("no segments")
	}
	for i, seg := range s.Segments {
		if seg.Duration <= 0 {
			return fmt.Errorf("segment #%d: duration %.4f must be > 0", i, seg.Duration)
		}
	}
	total := s.Duration()
	for i, e := range s.Expect {
		if e.At < 0 || e.At > total+s.Dt/2 {
			return fmt.Errorf("expectation #%d: at %.4f outside [0, %.4f]", i, e.At, total)
		}
	}
	return nil
}

func LoadScenario(path string) (*Scenario, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read scenario %s: %w", path, err)
	}
	s, err := ParseScenario(raw)
	if err != nil {
		return nil, fmt.Errorf("parse scenario %s: %w", path, err)
	}
	return s, nil
}

func ParseScenario(raw []byte) (*Scenario, error) {
	s := &Scenario{Profile: DefaultProfile}
	if err := yaml.Unmarshal(raw, s); err != nil {
		return nil, err
	}
	if err := s.validate(); err != nil {
		return nil, fmt.Errorf("scenario %q: %w", s.Name, err)
	}
	return s, nil
}
