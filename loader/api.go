package loader

import (
	lua "github.com/yuin/gopher-lua"
)

// typeKey tags every table a constructor builds with its variant name.
const typeKey = "type"

// registerAPI registers all Lua constructors as globals.
func registerAPI(L *lua.LState, coll *collector) {
	registerDefinitions(L, coll)
	registerEffects(L)
	registerTriggers(L)
	registerConditions(L)
	registerExpressions(L)
	registerModifiers(L)
}

func registerDefinitions(L *lua.LState, coll *collector) {
	// Battle { title = "...", player = {...}, enemy = {...} }
	L.SetGlobal("Battle", L.NewFunction(func(L *lua.LState) int {
		if coll.battle != nil {
			L.RaiseError("Battle{} defined twice")
		}
		coll.battle = L.CheckTable(1)
		return 0
	}))

	// Unit "id" { ... }, Status "id" { ... }, House "id" { ... }: curried.
	named := func(dst *[]rawDef) *lua.LFunction {
		return L.NewFunction(func(L *lua.LState) int {
			id := L.CheckString(1)
			L.Push(L.NewFunction(func(L *lua.LState) int {
				*dst = append(*dst, rawDef{id: id, table: L.CheckTable(1)})
				return 0
			}))
			return 1
		})
	}
	L.SetGlobal("Unit", named(&coll.units))
	L.SetGlobal("Status", named(&coll.statuses))
	L.SetGlobal("House", named(&coll.houses))

	// Preset "id" (effect) registers a reusable effect.
	L.SetGlobal("Preset", L.NewFunction(func(L *lua.LState) int {
		id := L.CheckString(1)
		L.Push(L.NewFunction(func(L *lua.LState) int {
			if _, dup := coll.presets[id]; dup {
				L.RaiseError("preset %q defined twice", id)
			}
			coll.presets[id] = L.CheckTable(1)
			return 0
		}))
		return 1
	}))

	// Use("id", { field = override, ... }) expands a preset at compile time.
	L.SetGlobal("Use", L.NewFunction(func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString(typeKey, lua.LString("use"))
		tbl.RawSetString("preset", lua.LString(L.CheckString(1)))
		if o := L.OptTable(2, nil); o != nil {
			tbl.RawSetString("overrides", o)
		}
		L.Push(tbl)
		return 1
	}))

	// On(trigger, effect, effect, ...)
	L.SetGlobal("On", L.NewFunction(variadic("reaction", "effects", "trigger")))
}

func registerEffects(L *lua.LState) {
	for name, kind := range map[string]string{
		"Damage":        "damage",
		"Heal":          "heal",
		"Kill":          "kill",
		"Repeat":        "repeat",
		"If":            "if",
		"List":          "list",
		"Random":        "random",
		"ChangeTarget":  "change_target",
		"ChangeContext": "change_context",
		"WithVar":       "with_var",
		"AOE":           "aoe",
		"AddVar":        "add_var",
		"AddGlobalVar":  "add_global_var",
		"ChangeStat":    "change_stat",
		"AttachStatus":  "attach_status",
		"RemoveStatus":  "remove_status",
		"Spawn":         "spawn",
		"Visual":        "visual",
		"Delayed":       "delayed",
		"TimeBomb":      "time_bomb",
	} {
		L.SetGlobal(name, L.NewFunction(tagged(kind)))
	}
	L.SetGlobal("Noop", L.NewFunction(positional("noop")))
	L.SetGlobal("Message", L.NewFunction(positional("message", "text")))
	L.SetGlobal("CustomTrigger", L.NewFunction(positional("custom_trigger", "name")))
	L.SetGlobal("Choice", L.NewFunction(positional("choice", "weight", "effect")))
}

func registerTriggers(L *lua.LState) {
	for name, kind := range map[string]string{
		"BattleStart":  "battle_start",
		"TurnStart":    "turn_start",
		"TurnEnd":      "turn_end",
		"BeforeStrike": "before_strike",
		"AfterStrike":  "after_strike",
		"DamageTaken":  "damage_taken",
		"DamageDealt":  "damage_dealt",
		"PreDeath":     "pre_death",
		"AllyDeath":    "ally_death",
		"AnyDeath":     "any_death",
		"AfterKill":    "after_kill",
		"AllySpawn":    "ally_spawn",
	} {
		L.SetGlobal(name, L.NewFunction(positional(kind)))
	}
	L.SetGlobal("StatChanged", L.NewFunction(positional("stat_changed", "stat")))
	L.SetGlobal("Custom", L.NewFunction(positional("custom", "name")))
	L.SetGlobal("Every", L.NewFunction(positional("period", "every", "trigger")))
	L.SetGlobal("OnceAfter", L.NewFunction(positional("once_after", "count", "trigger")))
	L.SetGlobal("AnyOf", L.NewFunction(variadic("any_of", "triggers")))
}

func registerConditions(L *lua.LState) {
	L.SetGlobal("Always", L.NewFunction(positional("always")))
	L.SetGlobal("Not", L.NewFunction(positional("not", "condition")))
	L.SetGlobal("All", L.NewFunction(variadic("all", "conditions")))
	L.SetGlobal("Any", L.NewFunction(variadic("any", "conditions")))
	L.SetGlobal("HasStatus", L.NewFunction(positional("has_status", "status", "who")))
	L.SetGlobal("IsInjured", L.NewFunction(positional("is_injured", "who")))
	L.SetGlobal("IsAlive", L.NewFunction(positional("is_alive", "who")))
	L.SetGlobal("Less", L.NewFunction(positional("less", "a", "b")))
	L.SetGlobal("Greater", L.NewFunction(positional("greater", "a", "b")))
	L.SetGlobal("Equal", L.NewFunction(positional("equal", "a", "b")))
	L.SetGlobal("Changed", L.NewFunction(positional("changed", "stat")))
}

func registerExpressions(L *lua.LState) {
	L.SetGlobal("Var", L.NewFunction(positional("var", "name")))
	L.SetGlobal("Global", L.NewFunction(positional("global", "name")))
	L.SetGlobal("Stat", L.NewFunction(positional("stat", "name", "who")))
	L.SetGlobal("Text", L.NewFunction(positional("text", "value")))
	L.SetGlobal("Vec", L.NewFunction(positional("vec", "x", "y")))
	for name, kind := range map[string]string{
		"Add": "add", "Sub": "sub", "Mul": "mul", "Div": "div", "Min": "min", "Max": "max",
	} {
		L.SetGlobal(name, L.NewFunction(positional(kind, "a", "b")))
	}
}

func registerModifiers(L *lua.LState) {
	L.SetGlobal("Strength", L.NewFunction(tagged("strength")))
	L.SetGlobal("Healing", L.NewFunction(tagged("healing")))
	L.SetGlobal("Crit", L.NewFunction(tagged("crit")))
}

// tagged returns a constructor over one table: Damage { value = 3 }. The
// table is copied so one literal can feed several constructors.
func tagged(kind string) lua.LGFunction {
	return func(L *lua.LState) int {
		tbl := L.NewTable()
		if src := L.OptTable(1, nil); src != nil {
			src.ForEach(func(k, v lua.LValue) { tbl.RawSet(k, v) })
		}
		tbl.RawSetString(typeKey, lua.LString(kind))
		L.Push(tbl)
		return 1
	}
}

// positional returns a constructor mapping its arguments onto named
// fields: Stat("atk", "target").
func positional(kind string, fields ...string) lua.LGFunction {
	return func(L *lua.LState) int {
		if n := L.GetTop(); n > len(fields) {
			L.ArgError(len(fields)+1, "too many arguments to "+kind)
		}
		tbl := L.NewTable()
		tbl.RawSetString(typeKey, lua.LString(kind))
		for i, f := range fields {
			if v := L.Get(i + 1); v != lua.LNil {
				tbl.RawSetString(f, v)
			}
		}
		L.Push(tbl)
		return 1
	}
}

// variadic maps its leading arguments onto lead fields and collects the
// rest into an array under field: On(trigger, effects...).
func variadic(kind, field string, lead ...string) lua.LGFunction {
	return func(L *lua.LState) int {
		tbl := L.NewTable()
		tbl.RawSetString(typeKey, lua.LString(kind))
		for i, f := range lead {
			if v := L.Get(i + 1); v != lua.LNil {
				tbl.RawSetString(f, v)
			}
		}
		rest := L.NewTable()
		for i := len(lead) + 1; i <= L.GetTop(); i++ {
			rest.Append(L.Get(i))
		}
		tbl.RawSetString(field, rest)
		L.Push(tbl)
		return 1
	}
}
