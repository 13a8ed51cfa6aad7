package rules

import (
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// CounterKey identifies the firing counter of one stateful trigger node
// for one owner.
type CounterKey struct {
	Owner string
	Node  types.Trigger
}

// Counters holds the state of Period and OnceAfter triggers. Reactions
// themselves stay immutable.
type Counters map[CounterKey]int

// Fires reports whether trigger t fires for ev. c.Owner is the unit the
// reaction belongs to; owner keys the stateful counters.
func Fires(t types.Trigger, ev types.Event, c scope.Context, m state.Model, counters Counters, owner string) bool {
	switch x := t.(type) {
	case *types.BattleStart:
		return ev.Kind == types.EventBattleStart
	case *types.TurnStart:
		return ev.Kind == types.EventTurnStart
	case *types.TurnEnd:
		return ev.Kind == types.EventTurnEnd

	case *types.BeforeStrike:
		return ev.Kind == types.EventBeforeStrike && ev.Unit == c.Owner
	case *types.AfterStrike:
		return ev.Kind == types.EventAfterStrike && ev.Unit == c.Owner
	case *types.DamageTaken:
		return ev.Kind == types.EventDamageTaken && ev.Unit == c.Owner
	case *types.DamageDealt:
		return ev.Kind == types.EventDamageDealt && ev.Unit == c.Owner
	case *types.PreDeath:
		return ev.Kind == types.EventPreDeath && ev.Unit == c.Owner
	case *types.AfterKill:
		return ev.Kind == types.EventKill && ev.Unit == c.Owner

	case *types.StatChanged:
		return ev.Kind == types.EventStatChanged && ev.Unit == c.Owner &&
			(x.Stat == "" || x.Stat == ev.Stat)

	case *types.AnyDeath:
		return ev.Kind == types.EventDeath

	case *types.AllyDeath:
		return ev.Kind == types.EventDeath && ev.Unit != c.Owner && sameSide(ev, c, m)

	case *types.AllySpawn:
		return ev.Kind == types.EventSpawn && ev.Unit != c.Owner && sameSide(ev, c, m)

	case *types.Custom:
		return ev.Kind == types.EventCustom && ev.Name == x.Name

	case *types.Period:
		if !Fires(x.Inner, ev, c, m, counters, owner) {
			return false
		}
		if x.Every <= 1 {
			return true
		}
		k := CounterKey{Owner: owner, Node: x}
		counters[k]++
		if counters[k] >= x.Every {
			counters[k] = 0
			return true
		}
		return false

	case *types.OnceAfter:
		k := CounterKey{Owner: owner, Node: x}
		if counters[k] > x.Count {
			return false
		}
		if !Fires(x.Inner, ev, c, m, counters, owner) {
			return false
		}
		counters[k]++
		return counters[k] == x.Count+1

	case *types.AnyOf:
		// Every branch is evaluated so nested counters advance consistently.
		fired := false
		for _, inner := range x.Triggers {
			if Fires(inner, ev, c, m, counters, owner) {
				fired = true
			}
		}
		return fired
	}
	return false
}

// Kinds returns the event kinds a trigger can fire on.
func Kinds(t types.Trigger) []types.EventKind {
	switch x := t.(type) {
	case *types.BattleStart:
		return []types.EventKind{types.EventBattleStart}
	case *types.TurnStart:
		return []types.EventKind{types.EventTurnStart}
	case *types.TurnEnd:
		return []types.EventKind{types.EventTurnEnd}
	case *types.BeforeStrike:
		return []types.EventKind{types.EventBeforeStrike}
	case *types.AfterStrike:
		return []types.EventKind{types.EventAfterStrike}
	case *types.DamageTaken:
		return []types.EventKind{types.EventDamageTaken}
	case *types.DamageDealt:
		return []types.EventKind{types.EventDamageDealt}
	case *types.PreDeath:
		return []types.EventKind{types.EventPreDeath}
	case *types.AfterKill:
		return []types.EventKind{types.EventKill}
	case *types.StatChanged:
		return []types.EventKind{types.EventStatChanged}
	case *types.AnyDeath, *types.AllyDeath:
		return []types.EventKind{types.EventDeath}
	case *types.AllySpawn:
		return []types.EventKind{types.EventSpawn}
	case *types.Custom:
		return []types.EventKind{types.EventCustom}
	case *types.Period:
		return Kinds(x.Inner)
	case *types.OnceAfter:
		return Kinds(x.Inner)
	case *types.AnyOf:
		var out []types.EventKind
		seen := map[types.EventKind]bool{}
		for _, inner := range x.Triggers {
			for _, k := range Kinds(inner) {
				if !seen[k] {
					seen[k] = true
					out = append(out, k)
				}
			}
		}
		return out
	}
	return nil
}

// sameSide compares the event's recorded faction with the owner's.
func sameSide(ev types.Event, c scope.Context, m state.Model) bool {
	u, ok := m.Unit(c.Owner)
	return ok && u.Faction == ev.Faction
}
