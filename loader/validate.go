package loader

import (
	"fmt"
	"sort"
	"strings"

	"github.com/nathoo/battlecore/engine/effects"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// maxDepth bounds how deeply effect trees may nest.
const maxDepth = 32

// ValidationError collects all validation errors and warnings.
type ValidationError struct {
	Errors   []string
	Warnings []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed with %d error(s):\n  %s",
		len(e.Errors), strings.Join(e.Errors, "\n  "))
}

// validator walks every tree once, checking references and recording which
// templates are used.
type validator struct {
	defs         *state.Defs
	ve           *ValidationError
	usedStatuses map[string]bool
	usedUnits    map[string]bool
}

func (v *validator) errorf(format string, args ...any) {
	v.ve.Errors = append(v.ve.Errors, fmt.Sprintf(format, args...))
}

// validate checks the compiled defs for referential integrity and
// consistency. Warnings are returned even when validation passes.
func validate(defs *state.Defs) ([]string, error) {
	v := &validator{
		defs:         defs,
		ve:           &ValidationError{},
		usedStatuses: map[string]bool{},
		usedUnits:    map[string]bool{},
	}

	if len(defs.Battle.Player) == 0 {
		v.errorf("Battle.player must name at least one unit")
	}
	if len(defs.Battle.Enemy) == 0 {
		v.errorf("Battle.enemy must name at least one unit")
	}
	for _, side := range [][]string{defs.Battle.Player, defs.Battle.Enemy} {
		for _, name := range side {
			v.usedUnits[name] = true
			if _, ok := defs.Units[name]; !ok {
				v.errorf("battle lineup references undefined unit %q", name)
			}
		}
	}

	for _, name := range sortedKeys(defs.Units) {
		u := defs.Units[name]
		where := "unit " + name
		if u.HP <= 0 {
			v.errorf("%s: hp must be positive, got %d", where, u.HP)
		}
		for _, h := range u.Houses {
			if _, ok := defs.Houses[h]; !ok {
				v.errorf("%s: undefined house %q", where, h)
			}
		}
		if u.Attack != nil {
			v.tree(u.Attack, where+".attack")
		}
		v.reactions(u.Reactions, where)
	}

	for _, name := range sortedKeys(defs.Statuses) {
		v.reactions(defs.Statuses[name].Reactions, "status "+name)
	}

	for _, name := range sortedKeys(defs.Statuses) {
		if !v.usedStatuses[name] {
			v.ve.Warnings = append(v.ve.Warnings, fmt.Sprintf("status %q is never attached", name))
		}
	}
	for _, name := range sortedKeys(defs.Units) {
		if !v.usedUnits[name] {
			v.ve.Warnings = append(v.ve.Warnings, fmt.Sprintf("unit %q is never placed or spawned", name))
		}
	}

	if len(v.ve.Errors) > 0 {
		return v.ve.Warnings, v.ve
	}
	return v.ve.Warnings, nil
}

func (v *validator) reactions(rs []types.Reaction, where string) {
	for i, r := range rs {
		p := fmt.Sprintf("%s reaction %d", where, i+1)
		v.trigger(r.Trigger, p)
		for _, e := range r.Effects {
			v.tree(e, p)
		}
	}
}

func (v *validator) trigger(t types.Trigger, where string) {
	switch x := t.(type) {
	case nil:
		v.errorf("%s: missing trigger", where)
	case *types.Period:
		if x.Every < 1 {
			v.errorf("%s: Every needs a period of at least 1, got %d", where, x.Every)
		}
		v.trigger(x.Inner, where)
	case *types.OnceAfter:
		if x.Count < 0 {
			v.errorf("%s: OnceAfter count must not be negative, got %d", where, x.Count)
		}
		v.trigger(x.Inner, where)
	case *types.AnyOf:
		if len(x.Triggers) == 0 {
			v.errorf("%s: AnyOf needs at least one trigger", where)
		}
		for _, inner := range x.Triggers {
			v.trigger(inner, where)
		}
	}
}

// tree checks one effect tree: its depth, then every node.
func (v *validator) tree(e types.Effect, where string) {
	if d := effects.Depth(e); d > maxDepth {
		v.errorf("%s: effect tree nests %d deep, limit is %d", where, d, maxDepth)
		return
	}
	v.effect(e, where)
}

func (v *validator) effect(e types.Effect, where string) {
	switch x := e.(type) {
	case *types.AttachStatus:
		v.status(x.Status, where)
	case *types.RemoveStatus:
		v.status(x.Status, where)
	case *types.Spawn:
		v.usedUnits[x.Unit] = true
		if _, ok := v.defs.Units[x.Unit]; !ok {
			v.errorf("%s: spawn references undefined unit %q", where, x.Unit)
		}
	case *types.If:
		v.condition(x.Condition, where)
	case *types.ChangeTarget:
		v.condition(x.Condition, where)
	case *types.AOE:
		v.condition(x.Condition, where)
	}
	effects.WalkChildren(e, func(child *types.Effect) {
		v.effect(*child, where)
	})
}

func (v *validator) condition(c types.Condition, where string) {
	switch x := c.(type) {
	case *types.HasStatus:
		if _, ok := v.defs.Statuses[x.Status]; !ok {
			v.errorf("%s: condition references undefined status %q", where, x.Status)
		}
	case *types.Not:
		v.condition(x.Inner, where)
	case *types.All:
		for _, inner := range x.Conditions {
			v.condition(inner, where)
		}
	case *types.Any:
		for _, inner := range x.Conditions {
			v.condition(inner, where)
		}
	}
}

func (v *validator) status(name, where string) {
	v.usedStatuses[name] = true
	if _, ok := v.defs.Statuses[name]; !ok {
		v.errorf("%s: undefined status %q", where, name)
	}
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
