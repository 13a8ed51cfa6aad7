package loader

import (
	"fmt"
	"math"
	"sort"
	"strings"

	lua "github.com/yuin/gopher-lua"

	"github.com/nathoo/battlecore/engine"
	"github.com/nathoo/battlecore/engine/modifier"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// fields lists the keys each table kind accepts besides its type tag.
// Anything else is an error.
var fields = map[string][]string{
	// definitions
	"battle":   {"title", "player", "enemy"},
	"unit":     {"title", "hp", "stats", "houses", "attack", "reactions"},
	"status":   {"color", "reactions"},
	"house":    {"modifiers"},
	"reaction": {"trigger", "effects"},
	"use":      {"preset", "overrides"},

	// effects
	"noop":           {},
	"list":           {},
	"repeat":         {"times", "effect"},
	"if":             {"condition", "effect", "otherwise"},
	"random":         {},
	"choice":         {"weight", "effect"},
	"damage":         {"who", "value", "types", "on_injure", "on_kill"},
	"heal":           {"who", "value"},
	"kill":           {"who"},
	"change_target":  {"relation", "condition", "effect"},
	"change_context": {"owner", "caster", "target", "queue", "effect"},
	"with_var":       {"name", "value", "effect"},
	"aoe":            {"relation", "condition", "effect"},
	"add_var":        {"name", "value"},
	"add_global_var": {"name", "value"},
	"change_stat":    {"who", "stat", "value", "permanent"},
	"attach_status":  {"who", "status", "charges"},
	"remove_status":  {"who", "status"},
	"spawn":          {"unit", "anchor", "offset", "flip", "effect"},
	"message":        {"text"},
	"visual":         {"name", "duration"},
	"custom_trigger": {"name"},
	"delayed":        {"delay", "effect"},
	"time_bomb":      {"delay", "effect"},

	// triggers
	"battle_start":  {},
	"turn_start":    {},
	"turn_end":      {},
	"before_strike": {},
	"after_strike":  {},
	"damage_taken":  {},
	"damage_dealt":  {},
	"pre_death":     {},
	"ally_death":    {},
	"any_death":     {},
	"after_kill":    {},
	"ally_spawn":    {},
	"stat_changed":  {"stat"},
	"custom":        {"name"},
	"period":        {"every", "trigger"},
	"once_after":    {"count", "trigger"},
	"any_of":        {"triggers"},

	// conditions
	"always":     {},
	"not":        {"condition"},
	"all":        {"conditions"},
	"any":        {"conditions"},
	"has_status": {"status", "who"},
	"is_injured": {"who"},
	"is_alive":   {"who"},
	"less":       {"a", "b"},
	"greater":    {"a", "b"},
	"equal":      {"a", "b"},
	"changed":    {"stat"},

	// expressions
	"var":    {"name"},
	"global": {"name"},
	"stat":   {"name", "who"},
	"text":   {"value"},
	"vec":    {"x", "y"},
	"add":    {"a", "b"},
	"sub":    {"a", "b"},
	"mul":    {"a", "b"},
	"div":    {"a", "b"},
	"min":    {"a", "b"},
	"max":    {"a", "b"},

	// modifiers
	"strength": {"multiplier", "add"},
	"healing":  {"multiplier", "add"},
	"crit":     {"chance", "multiplier"},
}

// arrayKinds may carry positional entries.
var arrayKinds = map[string]bool{"list": true, "random": true}

var whoNames = map[string]types.Who{
	"target": types.WhoTarget,
	"owner":  types.WhoOwner,
	"caster": types.WhoCaster,
	// Older content names the caster by what it did.
	"creator": types.WhoCaster,
	"from":    types.WhoCaster,
}

var relationNames = map[string]types.Relation{
	"any":     types.RelationAny,
	"ally":    types.RelationAlly,
	"allies":  types.RelationAlly,
	"enemy":   types.RelationEnemy,
	"enemies": types.RelationEnemy,
}

var binaryOps = map[string]types.BinaryOp{
	"add": types.OpAdd, "sub": types.OpSub, "mul": types.OpMul,
	"div": types.OpDiv, "min": types.OpMin, "max": types.OpMax,
}

var compareOps = map[string]types.CompareOp{
	"less": types.CmpLess, "greater": types.CmpGreater, "equal": types.CmpEqual,
}

// compiler turns collected tables into definitions, recording every problem
// instead of stopping at the first.
type compiler struct {
	L         *lua.LState
	presets   map[string]*lua.LTable
	expanding []string
	depth     int
	errs      []string
}

func (c *compiler) errorf(path, format string, args ...any) {
	c.errs = append(c.errs, path+": "+fmt.Sprintf(format, args...))
}

// compile converts all collected Lua data into a Defs struct.
func compile(L *lua.LState, coll *collector) (*state.Defs, error) {
	c := &compiler{L: L, presets: coll.presets}
	defs := &state.Defs{
		Units:    map[string]types.UnitDef{},
		Statuses: map[string]types.StatusDef{},
		Houses:   map[string]types.HouseDef{},
	}

	if coll.battle == nil {
		c.errs = append(c.errs, "no Battle{} definition found")
	} else {
		defs.Battle = c.battle(coll.battle)
	}

	for _, raw := range coll.units {
		path := "unit " + raw.id
		if _, dup := defs.Units[raw.id]; dup {
			c.errorf(path, "defined twice")
			continue
		}
		defs.Units[raw.id] = c.unit(raw, path)
	}
	for _, raw := range coll.statuses {
		path := "status " + raw.id
		if _, dup := defs.Statuses[raw.id]; dup {
			c.errorf(path, "defined twice")
			continue
		}
		c.check(raw.table, "status", path)
		defs.Statuses[raw.id] = types.StatusDef{
			Name:      raw.id,
			Color:     c.str(raw.table, "color", path, false),
			Reactions: c.reactions(raw.table.RawGetString("reactions"), path+".reactions"),
		}
	}
	for _, raw := range coll.houses {
		path := "house " + raw.id
		if _, dup := defs.Houses[raw.id]; dup {
			c.errorf(path, "defined twice")
			continue
		}
		c.check(raw.table, "house", path)
		h := types.HouseDef{Name: raw.id}
		c.each(raw.table.RawGetString("modifiers"), path+".modifiers", func(v lua.LValue, p string) {
			if m := c.modifier(v, p); m != nil {
				h.Modifiers = append(h.Modifiers, m)
			}
		})
		defs.Houses[raw.id] = h
	}

	if len(c.errs) > 0 {
		return nil, &ValidationError{Errors: c.errs}
	}
	return defs, nil
}

func (c *compiler) battle(t *lua.LTable) types.BattleDef {
	c.check(t, "battle", "Battle")
	return types.BattleDef{
		Title:  c.str(t, "title", "Battle", false),
		Player: c.strings(t, "player", "Battle"),
		Enemy:  c.strings(t, "enemy", "Battle"),
	}
}

func (c *compiler) unit(raw rawDef, path string) types.UnitDef {
	t := raw.table
	c.check(t, "unit", path)
	u := types.UnitDef{
		Name:   raw.id,
		Title:  c.str(t, "title", path, false),
		Stats:  c.intMap(t, "stats", path),
		Houses: c.strings(t, "houses", path),
	}
	if hp, ok := c.num(t, "hp", path); ok {
		u.HP = int(hp)
	} else {
		c.errorf(path, "hp is required")
	}
	if v := t.RawGetString("attack"); v != lua.LNil {
		u.Attack = c.effect(v, path+".attack")
	}
	u.Reactions = c.reactions(t.RawGetString("reactions"), path+".reactions")
	return u
}

func (c *compiler) reactions(v lua.LValue, path string) []types.Reaction {
	var out []types.Reaction
	c.each(v, path, func(v lua.LValue, p string) {
		t, ok := v.(*lua.LTable)
		if !ok || kindOf(t) != "reaction" {
			c.errorf(p, "expected On(trigger, effects...)")
			return
		}
		c.check(t, "reaction", p)
		r := types.Reaction{Trigger: c.trigger(t.RawGetString("trigger"), p+".trigger")}
		c.each(t.RawGetString("effects"), p, func(v lua.LValue, p string) {
			if e := c.effect(v, p); e != nil {
				r.Effects = append(r.Effects, e)
			}
		})
		if len(r.Effects) == 0 {
			c.errorf(p, "reaction has no effects")
		}
		out = append(out, r)
	})
	return out
}

// effect compiles one effect node. Failures are recorded and yield nil.
func (c *compiler) effect(v lua.LValue, path string) types.Effect {
	c.depth++
	defer func() { c.depth-- }()
	if c.depth > maxDepth {
		c.errorf(path, "effect nests deeper than %d", maxDepth)
		return nil
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		c.errorf(path, "expected an effect, got %s", v.Type())
		return nil
	}
	kind := kindOf(t)
	if kind == "" {
		// A bare array of effects is a list.
		if t.MaxN() > 0 {
			return c.list(t, path)
		}
		c.errorf(path, "table is not an effect")
		return nil
	}
	if !c.check(t, kind, path) {
		return nil
	}

	switch kind {
	case "use":
		return c.use(t, path)
	case "noop":
		return &types.Noop{}
	case "list":
		return c.list(t, path)
	case "repeat":
		return &types.Repeat{Times: c.expr(t, "times", path, true), Effect: c.child(t, "effect", path, true)}
	case "if":
		return &types.If{
			Condition: c.condition(t.RawGetString("condition"), path+".condition"),
			Then:      c.child(t, "effect", path, true),
			Else:      c.child(t, "otherwise", path, false),
		}
	case "random":
		r := &types.Random{}
		for i := 1; i <= t.MaxN(); i++ {
			p := fmt.Sprintf("%s[%d]", path, i)
			ch, ok := t.RawGetInt(i).(*lua.LTable)
			if !ok || kindOf(ch) != "choice" {
				c.errorf(p, "expected Choice(weight, effect)")
				continue
			}
			c.check(ch, "choice", p)
			w, _ := c.num(ch, "weight", p)
			if w <= 0 {
				c.errorf(p, "weight must be positive")
			}
			r.Choices = append(r.Choices, types.Choice{Weight: int(w), Effect: c.child(ch, "effect", p, true)})
		}
		if len(r.Choices) == 0 {
			c.errorf(path, "random needs at least one choice")
		}
		return r
	case "damage":
		return &types.Damage{
			Who:      c.who(t, "who", path, types.WhoTarget),
			Value:    c.expr(t, "value", path, true),
			Types:    c.strings(t, "types", path),
			OnInjure: c.child(t, "on_injure", path, false),
			OnKill:   c.child(t, "on_kill", path, false),
		}
	case "heal":
		return &types.Heal{Who: c.who(t, "who", path, types.WhoTarget), Value: c.expr(t, "value", path, true)}
	case "kill":
		return &types.Kill{Who: c.who(t, "who", path, types.WhoTarget)}
	case "change_target":
		return &types.ChangeTarget{
			Relation:  c.relation(t, path),
			Condition: c.condition(t.RawGetString("condition"), path+".condition"),
			Effect:    c.child(t, "effect", path, true),
		}
	case "change_context":
		cc := &types.ChangeContext{
			Rebind: map[types.Who]types.Who{},
			Queue:  c.str(t, "queue", path, false),
			Effect: c.child(t, "effect", path, true),
		}
		for _, role := range []string{"owner", "caster", "target"} {
			if t.RawGetString(role) != lua.LNil {
				cc.Rebind[whoNames[role]] = c.who(t, role, path, types.WhoTarget)
			}
		}
		return cc
	case "with_var":
		return &types.WithVar{
			Name:   c.str(t, "name", path, true),
			Value:  c.expr(t, "value", path, true),
			Effect: c.child(t, "effect", path, true),
		}
	case "aoe":
		return &types.AOE{
			Relation:  c.relation(t, path),
			Condition: c.condition(t.RawGetString("condition"), path+".condition"),
			Effect:    c.child(t, "effect", path, true),
		}
	case "add_var":
		return &types.AddVar{Name: c.str(t, "name", path, true), Value: c.expr(t, "value", path, true)}
	case "add_global_var":
		return &types.AddGlobalVar{Name: c.str(t, "name", path, true), Value: c.expr(t, "value", path, true)}
	case "change_stat":
		return &types.ChangeStat{
			Who:       c.who(t, "who", path, types.WhoTarget),
			Stat:      c.str(t, "stat", path, true),
			Value:     c.expr(t, "value", path, true),
			Permanent: c.boolean(t, "permanent", path),
		}
	case "attach_status":
		return &types.AttachStatus{
			Who:     c.who(t, "who", path, types.WhoTarget),
			Status:  c.str(t, "status", path, true),
			Charges: c.expr(t, "charges", path, false),
		}
	case "remove_status":
		return &types.RemoveStatus{Who: c.who(t, "who", path, types.WhoTarget), Status: c.str(t, "status", path, true)}
	case "spawn":
		offset, _ := c.num(t, "offset", path)
		return &types.Spawn{
			Unit:   c.str(t, "unit", path, true),
			Anchor: c.who(t, "anchor", path, types.WhoOwner),
			Offset: int(offset),
			Flip:   c.boolean(t, "flip", path),
			Then:   c.child(t, "effect", path, false),
		}
	case "message":
		return &types.Message{Text: c.expr(t, "text", path, true)}
	case "visual":
		d, _ := c.num(t, "duration", path)
		return &types.Visual{Name: c.str(t, "name", path, true), Duration: d}
	case "custom_trigger":
		return &types.CustomTrigger{Name: c.str(t, "name", path, true)}
	case "delayed":
		return &types.Delayed{Delay: c.expr(t, "delay", path, true), Effect: c.child(t, "effect", path, true)}
	case "time_bomb":
		return &types.TimeBomb{Delay: c.expr(t, "delay", path, true), Effect: c.child(t, "effect", path, true)}
	}
	c.errorf(path, "%s is not an effect", kind)
	return nil
}

func (c *compiler) list(t *lua.LTable, path string) types.Effect {
	l := &types.List{}
	for i := 1; i <= t.MaxN(); i++ {
		if e := c.effect(t.RawGetInt(i), fmt.Sprintf("%s[%d]", path, i)); e != nil {
			l.Effects = append(l.Effects, e)
		}
	}
	return l
}

// use expands a preset: its fields, replaced by the overrides, compiled as
// a fresh tree.
func (c *compiler) use(t *lua.LTable, path string) types.Effect {
	name := c.str(t, "preset", path, true)
	preset, ok := c.presets[name]
	if !ok {
		c.errorf(path, "unknown preset %q", name)
		return nil
	}
	for _, n := range c.expanding {
		if n == name {
			c.errorf(path, "preset cycle: %s -> %s", strings.Join(c.expanding, " -> "), name)
			return nil
		}
	}

	merged := c.L.NewTable()
	preset.ForEach(func(k, v lua.LValue) { merged.RawSet(k, v) })
	if o := t.RawGetString("overrides"); o != lua.LNil {
		ot, ok := o.(*lua.LTable)
		if !ok {
			c.errorf(path, "overrides must be a table")
			return nil
		}
		ot.ForEach(func(k, v lua.LValue) {
			if ks, ok := k.(lua.LString); ok && string(ks) == typeKey {
				c.errorf(path, "overrides cannot change the effect type")
				return
			}
			merged.RawSet(k, v)
		})
	}

	c.expanding = append(c.expanding, name)
	defer func() { c.expanding = c.expanding[:len(c.expanding)-1] }()
	return c.effect(merged, path+"<"+name+">")
}

func (c *compiler) child(t *lua.LTable, key, path string, required bool) types.Effect {
	v := t.RawGetString(key)
	if v == lua.LNil {
		if required {
			c.errorf(path, "%s is required", key)
		}
		return nil
	}
	return c.effect(v, path+"."+key)
}

func (c *compiler) trigger(v lua.LValue, path string) types.Trigger {
	t, ok := v.(*lua.LTable)
	if !ok || kindOf(t) == "" {
		c.errorf(path, "expected a trigger")
		return nil
	}
	kind := kindOf(t)
	if !c.check(t, kind, path) {
		return nil
	}
	switch kind {
	case "battle_start":
		return &types.BattleStart{}
	case "turn_start":
		return &types.TurnStart{}
	case "turn_end":
		return &types.TurnEnd{}
	case "before_strike":
		return &types.BeforeStrike{}
	case "after_strike":
		return &types.AfterStrike{}
	case "damage_taken":
		return &types.DamageTaken{}
	case "damage_dealt":
		return &types.DamageDealt{}
	case "pre_death":
		return &types.PreDeath{}
	case "ally_death":
		return &types.AllyDeath{}
	case "any_death":
		return &types.AnyDeath{}
	case "after_kill":
		return &types.AfterKill{}
	case "ally_spawn":
		return &types.AllySpawn{}
	case "stat_changed":
		return &types.StatChanged{Stat: c.str(t, "stat", path, false)}
	case "custom":
		return &types.Custom{Name: c.str(t, "name", path, true)}
	case "period":
		every, _ := c.num(t, "every", path)
		return &types.Period{Every: int(every), Inner: c.trigger(t.RawGetString("trigger"), path+".trigger")}
	case "once_after":
		count, _ := c.num(t, "count", path)
		return &types.OnceAfter{Count: int(count), Inner: c.trigger(t.RawGetString("trigger"), path+".trigger")}
	case "any_of":
		a := &types.AnyOf{}
		c.each(t.RawGetString("triggers"), path, func(v lua.LValue, p string) {
			if tr := c.trigger(v, p); tr != nil {
				a.Triggers = append(a.Triggers, tr)
			}
		})
		return a
	}
	c.errorf(path, "%s is not a trigger", kind)
	return nil
}

// condition compiles an optional condition; nil means always.
func (c *compiler) condition(v lua.LValue, path string) types.Condition {
	switch x := v.(type) {
	case *lua.LNilType:
		return nil
	case lua.LBool:
		if x {
			return &types.Always{}
		}
		return &types.Not{Inner: &types.Always{}}
	}
	t, ok := v.(*lua.LTable)
	if !ok || kindOf(t) == "" {
		c.errorf(path, "expected a condition")
		return nil
	}
	kind := kindOf(t)
	if !c.check(t, kind, path) {
		return nil
	}
	switch kind {
	case "always":
		return &types.Always{}
	case "not":
		return &types.Not{Inner: c.condition(t.RawGetString("condition"), path+".condition")}
	case "all", "any":
		var conds []types.Condition
		c.each(t.RawGetString("conditions"), path, func(v lua.LValue, p string) {
			if cond := c.condition(v, p); cond != nil {
				conds = append(conds, cond)
			}
		})
		if kind == "all" {
			return &types.All{Conditions: conds}
		}
		return &types.Any{Conditions: conds}
	case "has_status":
		return &types.HasStatus{Who: c.who(t, "who", path, types.WhoTarget), Status: c.str(t, "status", path, true)}
	case "is_injured":
		return &types.IsInjured{Who: c.who(t, "who", path, types.WhoTarget)}
	case "is_alive":
		return &types.IsAlive{Who: c.who(t, "who", path, types.WhoTarget)}
	case "less", "greater", "equal":
		return &types.Compare{Op: compareOps[kind], A: c.expr(t, "a", path, true), B: c.expr(t, "b", path, true)}
	case "changed":
		return &types.Changed{Stat: c.str(t, "stat", path, true)}
	}
	c.errorf(path, "%s is not a condition", kind)
	return nil
}

// expr compiles the expression under key. Numbers and strings are
// constants.
func (c *compiler) expr(t *lua.LTable, key, path string, required bool) types.Expr {
	v := t.RawGetString(key)
	if v == lua.LNil {
		if required {
			c.errorf(path, "%s is required", key)
		}
		return nil
	}
	return c.exprValue(v, path+"."+key)
}

func (c *compiler) exprValue(v lua.LValue, path string) types.Expr {
	switch x := v.(type) {
	case lua.LNumber:
		return &types.Const{Value: float64(x)}
	case lua.LString:
		return &types.Text{Value: string(x)}
	}
	t, ok := v.(*lua.LTable)
	if !ok || kindOf(t) == "" {
		c.errorf(path, "expected an expression, got %s", v.Type())
		return nil
	}
	kind := kindOf(t)
	if !c.check(t, kind, path) {
		return nil
	}
	switch kind {
	case "var":
		return &types.Var{Name: c.str(t, "name", path, true)}
	case "global":
		return &types.Global{Name: c.str(t, "name", path, true)}
	case "stat":
		return &types.Stat{Who: c.who(t, "who", path, types.WhoOwner), Name: c.str(t, "name", path, true)}
	case "text":
		return &types.Text{Value: c.str(t, "value", path, true)}
	case "vec":
		return &types.VecExpr{X: c.expr(t, "x", path, true), Y: c.expr(t, "y", path, true)}
	case "add", "sub", "mul", "div", "min", "max":
		return &types.Binary{Op: binaryOps[kind], A: c.expr(t, "a", path, true), B: c.expr(t, "b", path, true)}
	}
	c.errorf(path, "%s is not an expression", kind)
	return nil
}

func (c *compiler) modifier(v lua.LValue, path string) types.Modifier {
	t, ok := v.(*lua.LTable)
	if !ok || kindOf(t) == "" {
		c.errorf(path, "expected a modifier")
		return nil
	}
	kind := kindOf(t)
	if !c.check(t, kind, path) {
		return nil
	}
	mult := func(def float64) float64 {
		if m, ok := c.num(t, "multiplier", path); ok {
			return m
		}
		return def
	}
	switch kind {
	case "strength":
		add, _ := c.num(t, "add", path)
		return &types.Strength{Multiplier: mult(1), Add: add}
	case "healing":
		add, _ := c.num(t, "add", path)
		return &types.Healing{Multiplier: mult(1), Add: add}
	case "crit":
		chance, _ := c.num(t, "chance", path)
		if chance < 0 || chance > 100 {
			c.errorf(path, "crit chance must be within 0..100, got %g", chance)
		}
		return &types.Crit{Chance: int(chance), Multiplier: mult(2)}
	}
	c.errorf(path, "%s is not a modifier", kind)
	return nil
}

// check rejects keys the kind does not declare. It reports whether the
// table is clean.
func (c *compiler) check(t *lua.LTable, kind, path string) bool {
	allowed, known := fields[kind]
	if !known {
		c.errorf(path, "unknown constructor %q", kind)
		return false
	}
	ok := true
	t.ForEach(func(k, _ lua.LValue) {
		switch key := k.(type) {
		case lua.LString:
			if string(key) == typeKey {
				return
			}
			for _, a := range allowed {
				if a == string(key) {
					return
				}
			}
			c.errorf(path, "%s has no field %q", kind, string(key))
			ok = false
		case lua.LNumber:
			if !arrayKinds[kind] {
				c.errorf(path, "%s takes no positional entries", kind)
				ok = false
			}
		default:
			c.errorf(path, "%s has a %s key", kind, k.Type())
			ok = false
		}
	})
	return ok
}

// each calls fn for every entry of an optional array.
func (c *compiler) each(v lua.LValue, path string, fn func(lua.LValue, string)) {
	if v == lua.LNil {
		return
	}
	t, ok := v.(*lua.LTable)
	if !ok {
		c.errorf(path, "expected a list, got %s", v.Type())
		return
	}
	for i := 1; i <= t.MaxN(); i++ {
		fn(t.RawGetInt(i), fmt.Sprintf("%s[%d]", path, i))
	}
}

func (c *compiler) str(t *lua.LTable, key, path string, required bool) string {
	switch v := t.RawGetString(key).(type) {
	case lua.LString:
		return string(v)
	case *lua.LNilType:
		if required {
			c.errorf(path, "%s is required", key)
		}
	default:
		c.errorf(path, "%s must be a string, got %s", key, v.Type())
	}
	return ""
}

func (c *compiler) num(t *lua.LTable, key, path string) (float64, bool) {
	switch v := t.RawGetString(key).(type) {
	case lua.LNumber:
		return float64(v), true
	case *lua.LNilType:
	default:
		c.errorf(path, "%s must be a number, got %s", key, v.Type())
	}
	return 0, false
}

func (c *compiler) boolean(t *lua.LTable, key, path string) bool {
	switch v := t.RawGetString(key).(type) {
	case lua.LBool:
		return bool(v)
	case *lua.LNilType:
	default:
		c.errorf(path, "%s must be a boolean, got %s", key, v.Type())
	}
	return false
}

func (c *compiler) who(t *lua.LTable, key, path string, def types.Who) types.Who {
	s := c.str(t, key, path, false)
	if s == "" {
		return def
	}
	w, ok := whoNames[s]
	if !ok {
		c.errorf(path, "%s: unknown role %q", key, s)
	}
	return w
}

func (c *compiler) relation(t *lua.LTable, path string) types.Relation {
	s := c.str(t, "relation", path, false)
	if s == "" {
		return types.RelationAny
	}
	r, ok := relationNames[s]
	if !ok {
		c.errorf(path, "unknown relation %q", s)
	}
	return r
}

func (c *compiler) strings(t *lua.LTable, key, path string) []string {
	var out []string
	c.each(t.RawGetString(key), path+"."+key, func(v lua.LValue, p string) {
		s, ok := v.(lua.LString)
		if !ok {
			c.errorf(p, "expected a string, got %s", v.Type())
			return
		}
		out = append(out, string(s))
	})
	return out
}

func (c *compiler) intMap(t *lua.LTable, key, path string) map[string]int {
	out := map[string]int{}
	v := t.RawGetString(key)
	if v == lua.LNil {
		return out
	}
	m, ok := v.(*lua.LTable)
	if !ok {
		c.errorf(path, "%s must be a table", key)
		return out
	}
	m.ForEach(func(k, v lua.LValue) {
		ks, okK := k.(lua.LString)
		n, okV := v.(lua.LNumber)
		if !okK || !okV {
			c.errorf(path+"."+key, "expected name = number entries")
			return
		}
		if f := float64(n); f != math.Trunc(f) {
			c.errorf(path+"."+key, "%s must be a whole number, got %g", string(ks), f)
			return
		}
		out[string(ks)] = int(n)
	})
	return out
}

// kindOf returns the constructor tag of a table, or "".
func kindOf(t *lua.LTable) string {
	if s, ok := t.RawGetString(typeKey).(lua.LString); ok {
		return string(s)
	}
	return ""
}

// applyHouses rewrites each unit's reactions and attack with the modifiers
// of its houses, in declaration order. Units in a house get an explicit
// copy of the default attack so the house can touch it.
func applyHouses(defs *state.Defs) {
	names := make([]string, 0, len(defs.Units))
	for name := range defs.Units {
		names = append(names, name)
	}
	sort.Strings(names)

	for _, name := range names {
		u := defs.Units[name]
		var mods []types.Modifier
		for _, h := range u.Houses {
			mods = append(mods, defs.Houses[h].Modifiers...)
		}
		if len(mods) == 0 {
			continue
		}
		if u.Attack == nil {
			u.Attack = engine.DefaultAttack()
		}
		modifier.ApplyAll(mods, u.Reactions, &u.Attack)
		defs.Units[name] = u
	}
}
