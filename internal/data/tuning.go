package data

import (
	"fmt"
	"os"
	"sort"

	"github.com/l1jgo/locomotion/internal/actor"
	"gopkg.in/yaml.v3"
)

// DefaultProfile is used when an actor names no profile.
const DefaultProfile = "default"

type tuningFile struct {
	Profiles []yaml.Node `yaml:"profiles"`
}

type profileHeader struct {
	Name string `yaml:"name"`
}

// TuningTable holds named movement/stamina profiles loaded from YAML. Keys a
// profile leaves out keep the built-in defaults.
type TuningTable struct {
	path     string
	profiles map[string]actor.Tuning
}

// NewTuningTable builds a table holding only the built-in default profile.
func NewTuningTable() *TuningTable {
	return &TuningTable{profiles: map[string]actor.Tuning{DefaultProfile: actor.DefaultTuning()}}
}

func (t *TuningTable) Path() string { return t.path }

// Get returns a profile by name.
func (t *TuningTable) Get(name string) (actor.Tuning, bool) {
	if name == "" {
		name = DefaultProfile
	}
	p, ok := t.profiles[name]
	return p, ok
}

func (t *TuningTable) Count() int { return len(t.profiles) }

// Names returns the profile names in sorted order.
func (t *TuningTable) Names() []string {
	names := make([]string, 0, len(t.profiles))
	for n := range t.profiles {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

// LoadTuningTable loads tuning profiles from a YAML file. A "default" profile
// is always present, either from the file or built in.
func LoadTuningTable(path string) (*TuningTable, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read tuning %s: %w", path, err)
	}
	t, err := ParseTuningTable(raw)
	if err != nil {
		return nil, fmt.Errorf("parse tuning %s: %w", path, err)
	}
	t.path = path
	return t, nil
}

func ParseTuningTable(raw []byte) (*TuningTable, error) {
	var f tuningFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, err
	}
	t := NewTuningTable()
	seen := make(map[string]bool, len(f.Profiles))
	for i := range f.Profiles {
		node := &f.Profiles[i]
		var hdr profileHeader
		if err := node.Decode(&hdr); err != nil {
			return nil, fmt.Errorf("profile #%d: %w", i, err)
		}
		if hdr.Name == "" {
			return nil, fmt.Errorf("profile #%d (line %d): missing name", i, node.Line)
		}
		if seen[hdr.Name] {
			return nil, fmt.Errorf("profile %q (line %d): duplicate name", hdr.Name, node.Line)
		}
		seen[hdr.Name] = true

		tun := actor.DefaultTuning()
		if err := node.Decode(&tun); err != nil {
			return nil, fmt.Errorf("profile %q: %w", hdr.Name, err)
		}
		if err := tun.Validate(); err != nil {
			return nil, fmt.Errorf("profile %q: %w", hdr.Name, err)
		}
		t.profiles[hdr.Name] = tun
	}
	return t, nil
}
