package data

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/locomotion"
)

const tuningYAML = `
profiles:
  - name: scout
    run_speed: 9
    spend_rate: 12.5
    jump_policy: defer
  - name: heavy
    walk_speed: 2
    run_speed: 4
    max_stamina: 150
    debuff_cap: 30
`

func TestParseTuningTable_OverridesKeepDefaults(t *testing.T) {
	tbl, err := ParseTuningTable([]byte(tuningYAML))
	if err != nil {
		t.Fatalf("ParseTuningTable() error = %v", err)
	}
	if tbl.Count() != 3 {
		t.Fatalf("Count() = %d, want 3 (default + 2)", tbl.Count())
	}

	scout, ok := tbl.Get("scout")
	if !ok {
		t.Fatalf("scout profile missing")
	}
	def := actor.DefaultTuning()
	if scout.Locomotion.RunSpeed != 9 || scout.Stamina.SpendRate != 12.5 {
		t.Fatalf("scout overrides not applied: %+v", scout)
	}
	if scout.Locomotion.WalkSpeed != def.Locomotion.WalkSpeed || scout.Stamina.Max != def.Stamina.Max {
		t.Fatalf("scout lost defaults: %+v", scout)
	}
	if scout.Locomotion.Jump != locomotion.JumpDefer {
		t.Fatalf("scout jump policy = %q, want defer", scout.Locomotion.Jump)
	}

	heavy, _ := tbl.Get("heavy")
	if heavy.Stamina.Max != 150 || heavy.Stamina.DebuffCap != 30 {
		t.Fatalf("heavy stamina = %+v", heavy.Stamina)
	}

	if got, _ := tbl.Get(""); got != def {
		t.Fatalf("empty name did not resolve to the default profile")
	}
	names := tbl.Names()
	if strings.Join(names, ",") != "default,heavy,scout" {
		t.Fatalf("Names() = %v", names)
	}
}

func TestParseTuningTable_Errors(t *testing.T) {
	tests := map[string]string{
		"missing name": "profiles:\n  - run_speed: 9\n",
		"duplicate":    "profiles:\n  - name: a\n  - name: a\n",
		"invalid":      "profiles:\n  - name: a\n    debuff_cap: 500\n",
		"bad policy":   "profiles:\n  - name: a\n    jump_policy: moon\n",
		"bad yaml":     "profiles: [",
	}
	for name, raw := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := ParseTuningTable([]byte(raw)); err == nil {
				t.Fatalf("ParseTuningTable() accepted %q", raw)
			}
		})
	}
}

func TestLoadTuningTable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "tuning.yaml")
	if err := os.WriteFile(path, []byte(tuningYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	tbl, err := LoadTuningTable(path)
	if err != nil {
		t.Fatalf("LoadTuningTable() error = %v", err)
	}
	if tbl.Path() != path {
		t.Fatalf("Path() = %q, want %q", tbl.Path(), path)
	}
	if _, err := LoadTuningTable(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatalf("LoadTuningTable() accepted a missing file")
	}
}
