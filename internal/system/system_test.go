package system

import (
	"context"
	"errors"
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/go-gl/mathgl/mgl64"
	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/core/event"
	coresys "github.com/l1jgo/locomotion/internal/core/system"
	"github.com/l1jgo/locomotion/internal/data"
	"github.com/l1jgo/locomotion/internal/input"
	"github.com/l1jgo/locomotion/internal/persist"
	"github.com/l1jgo/locomotion/internal/scripting"
	"github.com/l1jgo/locomotion/internal/world"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest"
)

const tick = 250 * time.Millisecond

type memWriter struct {
	rows  []persist.TransitionRow
	calls int
	fail  bool
}

func (w *memWriter) WriteTransitions(_ context.Context, rows []persist.TransitionRow) error {
	w.calls++
	if w.fail {
		return errors.New("db down")
	}
	w.rows = append(w.rows, rows...)
	return nil
}

func (w *memWriter) kinds() map[string]int {
	m := map[string]int{}
	for _, r := range w.rows {
		m[r.Kind]++
	}
	return m
}

type recAnimator struct {
	tiredFlips int
	tired      bool
}

func (r *recAnimator) SetFloat(string, float64) {}
func (r *recAnimator) SetBool(p string, v bool) {
	if p == actor.ParamTired && v != r.tired {
		r.tired = v
		r.tiredFlips++
	}
}

type harness struct {
	world  *world.State
	runner *coresys.Runner
	writer *memWriter
	telem  *TelemetrySystem
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	log := zaptest.NewLogger(t)
	bus := event.NewBus()
	ws := world.NewState(bus, log)
	w := &memWriter{}
	telem := NewTelemetrySystem(bus, w, 1, 64, log)

	r := coresys.NewRunner()
	r.Register(NewCleanupSystem(ws, log))
	r.Register(telem)
	r.Register(NewOutputSystem(ws, log))
	r.Register(NewStaminaSystem(ws))
	r.Register(NewLocomotionSystem(ws, log))
	r.Register(NewEventDispatchSystem(bus))
	r.Register(NewInputSystem(ws))
	return &harness{world: ws, runner: r, writer: w, telem: telem}
}

func (h *harness) run(n int) {
	for i := 0; i < n; i++ {
		h.runner.Tick(tick)
	}
}

func TestPipeline_SprintExhaustRecover(t *testing.T) {
	h := newHarness(t)
	body := world.NewFlatBody(0)
	anim := &recAnimator{}
	id, err := h.world.Spawn(world.SpawnParams{
		Name:   "runner",
		Tuning: actor.DefaultTuning(),
		Source: input.NewTimeline([]data.Segment{
			{Duration: 10, Move: [2]float64{0, 1}, Sprint: true},
			{Duration: 5},
		}, false),
		Body:  body,
		Sinks: actor.Sinks{Animator: anim},
	})
	if err != nil {
		t.Fatalf("Spawn() error = %v", err)
	}
	a, _ := h.world.Actor(id)

	h.run(40)
	st := a.Stamina().State()
	if st.Current != 0 || !st.Tired || st.Running {
		t.Fatalf("after sprint: %+v", st)
	}
	if math.Abs(body.Position().Z()-70) > 1e-9 {
		t.Fatalf("z = %.6f, want 70", body.Position().Z())
	}

	h.run(19)
	if !a.Stamina().IsTired() {
		t.Fatalf("recovered before 5s of rest: current=%.2f", a.Stamina().Current())
	}
	h.run(1)
	if a.Stamina().IsTired() {
		t.Fatalf("still tired after 5s of rest: current=%.2f", a.Stamina().Current())
	}
	if anim.tiredFlips != 2 {
		t.Fatalf("isTired flips = %d, want 2", anim.tiredFlips)
	}
	pres, _ := h.world.Outputs.Get(id)
	if pres.Frame.Tick != 60 {
		t.Fatalf("frame tick = %d, want 60", pres.Frame.Tick)
	}

	// Events from the last tick are dispatched and written one tick later.
	h.run(1)
	kinds := h.writer.kinds()
	for _, k := range []string{"sprint_started", "bar_shown", "exhausted", "sprint_stopped", "recovered"} {
		if kinds[k] != 1 {
			t.Fatalf("telemetry kinds = %v, want one %s", kinds, k)
		}
	}
	if h.telem.Pending() != 0 {
		t.Fatalf("pending = %d after flush", h.telem.Pending())
	}
}

func TestPipeline_ActorWithoutSourceRegenerates(t *testing.T) {
	h := newHarness(t)
	id, _ := h.world.Spawn(world.SpawnParams{Name: "idle", Tuning: actor.DefaultTuning()})
	a, _ := h.world.Actor(id)
	a.Stamina().ChangeRunningState(true)
	a.Stamina().Spend(1)

	h.run(1)
	if a.Stamina().IsRunning() {
		t.Fatalf("an idle tick left the actor running")
	}
	before := a.Stamina().Current()
	h.run(12)
	if a.Stamina().Current() <= before {
		t.Fatalf("no regen after 3s idle: %.2f -> %.2f", before, a.Stamina().Current())
	}
}

func TestPipeline_DespawnedActorIsCleanedUp(t *testing.T) {
	h := newHarness(t)
	id, _ := h.world.Spawn(world.SpawnParams{Name: "gone", Tuning: actor.DefaultTuning()})
	h.run(2)
	a, _ := h.world.Actor(id)
	ticks := a.Ticks()

	if err := h.world.Despawn(id); err != nil {
		t.Fatalf("Despawn() error = %v", err)
	}
	h.run(1)
	if a.Ticks() != ticks {
		t.Fatalf("despawned actor ticked")
	}
	if h.world.Actors.Has(id) {
		t.Fatalf("actor not removed in cleanup")
	}
}

func TestTelemetry_BatchingAndFailures(t *testing.T) {
	bus := event.NewBus()
	w := &memWriter{}
	s := NewTelemetrySystem(bus, w, 10, 3, zap.NewNop())

	emit := func(n int) {
		for i := 0; i < n; i++ {
			event.Emit(bus, event.StaminaTransition{Name: "a", Kind: "exhausted", Tick: uint64(i)})
		}
		bus.SwapBuffers()
		bus.DispatchAll()
	}

	emit(2)
	s.Update(tick)
	if w.calls != 0 || s.Pending() != 2 {
		t.Fatalf("flushed early: calls=%d pending=%d", w.calls, s.Pending())
	}

	emit(5)
	s.Update(tick)
	if w.calls != 3 || len(w.rows) != 7 || s.Pending() != 0 {
		t.Fatalf("batch flush: calls=%d rows=%d pending=%d", w.calls, len(w.rows), s.Pending())
	}

	w.fail = true
	emit(1)
	for i := 0; i < 10; i++ {
		s.Update(tick)
	}
	if s.Dropped() != 1 || s.Pending() != 0 {
		t.Fatalf("dropped=%d pending=%d, want 1/0", s.Dropped(), s.Pending())
	}
	if s.Written() != 7 {
		t.Fatalf("written = %d, want 7", s.Written())
	}
}

func TestTelemetry_FlushOnShutdown(t *testing.T) {
	bus := event.NewBus()
	w := &memWriter{}
	s := NewTelemetrySystem(bus, w, 1000, 1000, zap.NewNop())
	event.Emit(bus, event.StaminaTransition{Name: "a", Kind: "recovered"})
	bus.SwapBuffers()
	bus.DispatchAll()

	s.Flush(context.Background())
	if len(w.rows) != 1 || w.rows[0].Kind != "recovered" {
		t.Fatalf("rows = %+v", w.rows)
	}
}

func TestTelemetry_RecordsActorLifecycle(t *testing.T) {
	h := newHarness(t)
	id, _ := h.world.Spawn(world.SpawnParams{Name: "life", Tuning: actor.DefaultTuning()})
	h.run(2)
	a, _ := h.world.Actor(id)
	if err := h.world.Despawn(id); err != nil {
		t.Fatalf("Despawn() error = %v", err)
	}
	h.run(1)

	var spawned, despawned *persist.TransitionRow
	for i := range h.writer.rows {
		switch r := &h.writer.rows[i]; r.Kind {
		case KindSpawned:
			spawned = r
		case KindDespawned:
			despawned = r
		}
	}
	if spawned == nil || despawned == nil {
		t.Fatalf("telemetry kinds = %v, want spawned and despawned", h.writer.kinds())
	}
	if spawned.Actor != "life" || spawned.Tick != 0 || spawned.Stamina != 100 {
		t.Fatalf("spawned row = %+v", *spawned)
	}
	if despawned.Tick != 2 || despawned.Stamina != a.Stamina().Current() {
		t.Fatalf("despawned row = %+v", *despawned)
	}
}

func TestEventDispatch_CountsDelivered(t *testing.T) {
	bus := event.NewBus()
	s := NewEventDispatchSystem(bus)
	var got int
	event.Subscribe(bus, func(event.StaminaTransition) { got++ })

	event.Emit(bus, event.StaminaTransition{Kind: "exhausted"})
	event.Emit(bus, event.StaminaTransition{Kind: "recovered"})
	s.Update(tick)
	event.Emit(bus, event.ActorSpawned{Name: "a"})
	s.Update(tick)
	if got != 2 || s.Dispatched() != 3 {
		t.Fatalf("handled=%d dispatched=%d, want 2/3", got, s.Dispatched())
	}
}

const tuningV1 = `
profiles:
  - name: default
  - name: heavy
    run_speed: 5
`

const tuningV2 = `
profiles:
  - name: default
    walk_speed: 4
  - name: heavy
    run_speed: 6
`

func writeFile(t *testing.T, path, body string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestReload_RespawnsOnTuningChange(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "tuning.yaml")
	writeFile(t, path, tuningV1)
	table, err := data.LoadTuningTable(path)
	if err != nil {
		t.Fatalf("LoadTuningTable() error = %v", err)
	}
	log := zaptest.NewLogger(t)
	ws := world.NewState(event.NewBus(), log)
	res := &Resolver{Table: table, DefaultProfile: data.DefaultProfile}

	for _, p := range []struct{ name, profile string }{{"a", ""}, {"b", "heavy"}} {
		tun, err := res.Resolve(p.profile)
		if err != nil {
			t.Fatalf("Resolve(%q) error = %v", p.profile, err)
		}
		if _, err := ws.Spawn(world.SpawnParams{Name: p.name, Profile: p.profile, Tuning: tun}); err != nil {
			t.Fatal(err)
		}
	}

	events := make(chan string, 4)
	sys := NewReloadSystem(events, nil, ws, res, log)

	sys.Update(tick)
	if sys.Reloads() != 0 {
		t.Fatalf("reloaded without events")
	}

	writeFile(t, path, tuningV2)
	events <- path
	events <- path
	events <- filepath.Join(dir, "scenario.yaml")
	sys.Update(tick)
	if sys.Reloads() != 1 {
		t.Fatalf("Reloads() = %d, want one coalesced reload", sys.Reloads())
	}
	idA, _ := ws.Lookup("a")
	idB, _ := ws.Lookup("b")
	a, _ := ws.Actor(idA)
	b, _ := ws.Actor(idB)
	if a.Tuning().Locomotion.WalkSpeed != 4 || b.Tuning().Locomotion.RunSpeed != 6 {
		t.Fatalf("walk=%.1f run=%.1f after reload", a.Tuning().Locomotion.WalkSpeed, b.Tuning().Locomotion.RunSpeed)
	}

	// A broken file keeps the previous profiles.
	writeFile(t, path, "profiles: [")
	events <- path
	sys.Update(tick)
	a, _ = ws.Actor(idA)
	if a.Tuning().Locomotion.WalkSpeed != 4 {
		t.Fatalf("broken reload changed tuning: walk=%.1f", a.Tuning().Locomotion.WalkSpeed)
	}

	// Unrelated files are ignored.
	events <- filepath.Join(dir, "notes.yaml")
	sys.Update(tick)
	if sys.Reloads() != 1 {
		t.Fatalf("Reloads() = %d, want 1", sys.Reloads())
	}
}

func TestReload_ScriptChangeAppliesLuaHook(t *testing.T) {
	dir := t.TempDir()
	scripts := filepath.Join(dir, "scripts")
	movement := filepath.Join(scripts, "movement")
	if err := os.MkdirAll(movement, 0o755); err != nil {
		t.Fatal(err)
	}
	script := filepath.Join(movement, "tuning.lua")
	writeFile(t, script, "function resolve_tuning(p, t) return t end\n")

	log := zaptest.NewLogger(t)
	eng, err := scripting.NewEngine(scripts, log)
	if err != nil {
		t.Fatalf("NewEngine() error = %v", err)
	}
	defer eng.Close()

	ws := world.NewState(event.NewBus(), log)
	res := &Resolver{Table: data.NewTuningTable(), Lua: eng, DefaultProfile: data.DefaultProfile}
	tun, _ := res.Resolve("")
	id, _ := ws.Spawn(world.SpawnParams{Name: "a", Tuning: tun})

	writeFile(t, script, "function resolve_tuning(p, t) t.run_speed = 9 return t end\n")
	events := make(chan string, 1)
	events <- script
	NewReloadSystem(events, nil, ws, res, log).Update(tick)

	a, _ := ws.Actor(id)
	if a.Tuning().Locomotion.RunSpeed != 9 {
		t.Fatalf("run speed = %.1f, want 9 from the reloaded hook", a.Tuning().Locomotion.RunSpeed)
	}
}

func TestResolver_UnknownProfile(t *testing.T) {
	res := &Resolver{Table: data.NewTuningTable(), DefaultProfile: data.DefaultProfile}
	if _, err := res.Resolve("ghost"); !errors.Is(err, ErrUnknownProfile) {
		t.Fatalf("Resolve() error = %v, want ErrUnknownProfile", err)
	}
	tun, err := res.Resolve("")
	if err != nil || tun != actor.DefaultTuning() {
		t.Fatalf("Resolve(\"\") = %+v, %v", tun, err)
	}
}

func TestInputSystem_PollsSources(t *testing.T) {
	ws := world.NewState(nil, zap.NewNop())
	b := input.NewBinding()
	id, _ := ws.Spawn(world.SpawnParams{Name: "p", Tuning: actor.DefaultTuning(), Source: b})
	b.MovePerformed(mgl64.Vec2{0, 1})
	b.SprintPerformed()

	NewInputSystem(ws).Update(tick)
	c, _ := ws.Controls.Get(id)
	if !c.Intent.SprintPressed || c.Intent.Direction != (mgl64.Vec2{0, 1}) {
		t.Fatalf("intent = %+v", c.Intent)
	}
}
