package rules

import (
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// EvalCondition evaluates a condition. A role that does not resolve to a
// living unit makes role-based predicates false rather than an error.
func EvalCondition(cond types.Condition, c scope.Context, m state.Model) bool {
	switch x := cond.(type) {
	case nil, *types.Always:
		return true

	case *types.Not:
		return !EvalCondition(x.Inner, c, m)

	case *types.All:
		for _, inner := range x.Conditions {
			if !EvalCondition(inner, c, m) {
				return false
			}
		}
		return true

	case *types.Any:
		for _, inner := range x.Conditions {
			if EvalCondition(inner, c, m) {
				return true
			}
		}
		return false

	case *types.HasStatus:
		u, ok := unitFor(x.Who, c, m)
		if !ok {
			return false
		}
		_, ok = u.FindStatus(x.Status)
		return ok

	case *types.IsInjured:
		u, ok := unitFor(x.Who, c, m)
		return ok && u.Injured()

	case *types.IsAlive:
		u, ok := unitFor(x.Who, c, m)
		return ok && u.HP > 0

	case *types.Compare:
		a, err := EvalNumber(x.A, c, m)
		if err != nil {
			return false
		}
		b, err := EvalNumber(x.B, c, m)
		if err != nil {
			return false
		}
		switch x.Op {
		case types.CmpLess:
			return a < b
		case types.CmpGreater:
			return a > b
		case types.CmpEqual:
			return a == b
		}
		return false

	case *types.Changed:
		ev := c.Event
		return ev != nil && ev.Kind == types.EventStatChanged && (x.Stat == "" || ev.Stat == x.Stat)

	default:
		return false
	}
}

func unitFor(w types.Who, c scope.Context, m state.Model) (*state.Unit, bool) {
	id, ok := c.Resolve(w)
	if !ok {
		return nil, false
	}
	return m.Unit(id)
}
