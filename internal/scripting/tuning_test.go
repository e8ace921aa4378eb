package scripting

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/locomotion"
	"go.uber.org/zap/zaptest"
)

const hardcoreScript = `
function resolve_tuning(profile, t)
  if profile == "hardcore" then
    t.spend_rate = t.spend_rate * 2
    t.regen_delay = 3
    t.jump_policy = "defer"
  end
  return t
end
`

func TestResolveTuning_AppliesHook(t *testing.T) {
	e, err := NewEngineFromSource(hardcoreScript, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewEngineFromSource() error = %v", err)
	}
	defer e.Close()

	base := actor.DefaultTuning()
	got := e.ResolveTuning("hardcore", base)
	if got.Stamina.SpendRate != 20 || got.Stamina.RegenDelay != 3 {
		t.Fatalf("stamina = %+v, want spend 20 delay 3", got.Stamina)
	}
	if got.Locomotion.Jump != locomotion.JumpDefer {
		t.Fatalf("jump = %q, want defer", got.Locomotion.Jump)
	}
	want := base.Locomotion
	want.Jump = locomotion.JumpDefer
	if got.Locomotion != want {
		t.Fatalf("untouched locomotion fields changed: %+v", got.Locomotion)
	}

	if same := e.ResolveTuning("default", base); same != base {
		t.Fatalf("default profile changed: %+v", same)
	}
}

func TestResolveTuning_FallsBackOnBadScript(t *testing.T) {
	tests := map[string]string{
		"runtime error": `function resolve_tuning(p, t) error("boom") end`,
		"non table":     `function resolve_tuning(p, t) return 5 end`,
		"invalid":       `function resolve_tuning(p, t) t.debuff_cap = 1000 return t end`,
	}
	base := actor.DefaultTuning()
	for name, src := range tests {
		t.Run(name, func(t *testing.T) {
			e, err := NewEngineFromSource(src, zaptest.NewLogger(t))
			if err != nil {
				t.Fatalf("NewEngineFromSource() error = %v", err)
			}
			defer e.Close()
			if got := e.ResolveTuning("x", base); got != base {
				t.Fatalf("ResolveTuning() = %+v, want base", got)
			}
		})
	}
}

func TestResolveTuning_NoHookOrNilEngine(t *testing.T) {
	base := actor.DefaultTuning()
	var nilEngine *Engine
	if got := nilEngine.ResolveTuning("x", base); got != base {
		t.Fatalf("nil engine changed tuning")
	}
	e, err := NewEngineFromSource(`x = 1`, zaptest.NewLogger(t))
	if err != nil {
		t.Fatal(err)
	}
	defer e.Close()
	if got := e.ResolveTuning("x", base); got != base {
		t.Fatalf("engine without hook changed tuning")
	}
}

func TestNewEngine_LoadsMovementDirAndReloads(t *testing.T) {
	root := t.TempDir()
	dir := filepath.Join(root, "movement")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	path := filepath.Join(dir, "tuning.lua")
	if err := os.WriteFile(path, []byte(`function resolve_tuning(p, t) t.run_speed = 8 return t end`), 0o644); err != nil {
		t.Fatal(err)
	}

	e, err := NewEngine(root, zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	defer e.Close()
	if e.Scripts() != 1 {
		t.Fatalf("Scripts() = %d, want 1", e.Scripts())
	}
	if got := e.ResolveTuning("any", actor.DefaultTuning()); got.Locomotion.RunSpeed != 8 {
		t.Fatalf("run speed = %.1f, want 8", got.Locomotion.RunSpeed)
	}

	if err := os.WriteFile(path, []byte(`function resolve_tuning(p, t) t.run_speed = 9 return t end`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Reload(); err != nil {
		t.Fatalf("Reload() error = %v", err)
	}
	if got := e.ResolveTuning("any", actor.DefaultTuning()); got.Locomotion.RunSpeed != 9 {
		t.Fatalf("run speed after reload = %.1f, want 9", got.Locomotion.RunSpeed)
	}

	if err := os.WriteFile(path, []byte(`function (`), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := e.Reload(); err == nil {
		t.Fatalf("Reload() accepted a syntax error")
	}
	if got := e.ResolveTuning("any", actor.DefaultTuning()); got.Locomotion.RunSpeed != 9 {
		t.Fatalf("failed reload replaced the VM")
	}
}
