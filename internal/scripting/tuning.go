package scripting

import (
	lua "github.com/yuin/gopher-lua"
	"go.uber.org/zap"

	"github.com/l1jgo/locomotion/internal/actor"
	"github.com/l1jgo/locomotion/internal/locomotion"
)

// ResolveFunc is the optional Lua hook:
//
//	function resolve_tuning(profile, t) ... return t end
//
// t carries the same snake_case keys as the YAML profile. Keys missing from
// the returned table keep their incoming value.
const ResolveFunc = "resolve_tuning"

// ResolveTuning passes a profile through the Lua hook. Without the hook, or
// when the script fails or yields an invalid tuning, base is returned.
func (e *Engine) ResolveTuning(profile string, base actor.Tuning) actor.Tuning {
	if e == nil || e.vm == nil {
		return base
	}
	fn := e.vm.GetGlobal(ResolveFunc)
	if fn == lua.LNil {
		return base
	}

	if err := e.vm.CallByParam(lua.P{
		Fn:      fn,
		NRet:    1,
		Protect: true,
	}, lua.LString(profile), tuningToTable(e.vm, base)); err != nil {
		e.log.Error("lua resolve_tuning error", zap.String("profile", profile), zap.Error(err))
		return base
	}

	result := e.vm.Get(-1)
	e.vm.Pop(1)

	rt, ok := result.(*lua.LTable)
	if !ok {
		e.log.Error("lua resolve_tuning returned non-table", zap.String("profile", profile))
		return base
	}
	out := tableToTuning(rt, base)
	if err := out.Validate(); err != nil {
		e.log.Error("lua resolve_tuning produced invalid tuning", zap.String("profile", profile), zap.Error(err))
		return base
	}
	return out
}

func tuningToTable(vm *lua.LState, t actor.Tuning) *lua.LTable {
	tbl := vm.NewTable()
	for key, p := range floatFields(&t) {
		tbl.RawSetString(key, lua.LNumber(*p))
	}
	tbl.RawSetString("jump_policy", lua.LString(t.Locomotion.Jump))
	return tbl
}

func tableToTuning(tbl *lua.LTable, base actor.Tuning) actor.Tuning {
	out := base
	for key, p := range floatFields(&out) {
		if v, ok := tbl.RawGetString(key).(lua.LNumber); ok {
			*p = float64(v)
		}
	}
	if v, ok := tbl.RawGetString("jump_policy").(lua.LString); ok {
		out.Locomotion.Jump = locomotion.JumpPolicy(v)
	}
	return out
}

// floatFields maps profile keys to the numeric fields of t.
func floatFields(t *actor.Tuning) map[string]*float64 {
	return map[string]*float64{
		"max_stamina":                &t.Stamina.Max,
		"debuff_cap":                 &t.Stamina.DebuffCap,
		"regen_delay":                &t.Stamina.RegenDelay,
		"spend_rate":                 &t.Stamina.SpendRate,
		"regen_rate":                 &t.Stamina.RegenRate,
		"walk_speed":                 &t.Locomotion.WalkSpeed,
		"run_speed":                  &t.Locomotion.RunSpeed,
		"crouch_speed":               &t.Locomotion.CrouchSpeed,
		"crouch_move_factor":         &t.Locomotion.CrouchMoveFactor,
		"gravity":                    &t.Locomotion.Gravity,
		"grounded_vertical_velocity": &t.Locomotion.GroundedVerticalVelocity,
		"idle_threshold":             &t.Locomotion.IdleThreshold,
	}
}
