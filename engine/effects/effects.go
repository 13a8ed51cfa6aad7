// Package effects interprets effect nodes. Process handles exactly one queued
// item: it mutates the model and queues follow-up work, but never drains the
// queue itself.
package effects

import (
	"fmt"
	"log/slog"

	"github.com/nathoo/battlecore/engine/queue"
	"github.com/nathoo/battlecore/engine/rules"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// maxRepeat bounds a single Repeat node.
const maxRepeat = 1000

// Rand is the randomness handlers draw on.
type Rand interface {
	Pick(n int) int
	WeightedSelect(weights []int) int
}

// Env is everything a handler may touch.
type Env struct {
	Model    state.Model
	Queue    *queue.Queue
	Timeline *queue.Timeline
	RNG      Rand

	// Emit offers an event to every reaction table. Matching reactions are
	// appended to the back of the queue.
	Emit func(types.Event)
	// Display records a presentation event.
	Display func(types.DisplayEvent)

	Log *slog.Logger
}

// Process executes one queued item.
func Process(it queue.Item, env *Env) {
	c := it.Context
	switch x := it.Effect.(type) {
	case *types.Noop:

	case *types.List:
		items := make([]queue.Item, 0, len(x.Effects))
		for _, e := range x.Effects {
			items = append(items, queue.Item{Effect: e, Context: c})
		}
		env.Queue.PushFrontMany(items)

	case *types.Repeat:
		n, err := rules.EvalInt(x.Times, c, env.Model)
		if err != nil {
			env.skip("repeat", c, err)
			return
		}
		if n > maxRepeat {
			env.logger().Warn("repeat count clamped", "count", n, "max", maxRepeat)
			n = maxRepeat
		}
		items := make([]queue.Item, 0, max(n, 0))
		for i := 0; i < n; i++ {
			items = append(items, queue.Item{Effect: x.Effect, Context: c})
		}
		env.Queue.PushFrontMany(items)

	case *types.If:
		branch := x.Else
		if rules.EvalCondition(x.Condition, c, env.Model) {
			branch = x.Then
		}
		if branch != nil {
			env.Queue.PushFront(queue.Item{Effect: branch, Context: c})
		}

	case *types.Random:
		random(x, c, env)

	case *types.Damage:
		damage(x, c, env)

	case *types.Heal:
		heal(x, c, env)

	case *types.Kill:
		u, ok := env.unit(x.Who, c, "kill")
		if !ok {
			return
		}
		if c.Owner != 0 && c.Owner != u.ID {
			u.LastHitBy = c.Owner
		}
		old, _, _ := env.Model.SetHP(u.ID, 0)
		if old > 0 {
			env.emitStat(u, "hp", old)
		}

	case *types.ChangeTarget:
		changeTarget(x, c, env)

	case *types.ChangeContext:
		next := c
		for dst, src := range x.Rebind {
			id, _ := c.Resolve(src)
			next = next.Rebind(dst, id)
		}
		if x.Queue != "" {
			next = next.WithQueue(x.Queue)
		}
		env.Queue.PushFront(queue.Item{Effect: x.Effect, Context: next})

	case *types.WithVar:
		v, err := rules.Evaluate(x.Value, c, env.Model)
		if err != nil {
			env.skip("with_var", c, err)
			return
		}
		env.Queue.PushFront(queue.Item{Effect: x.Effect, Context: c.WithVar(x.Name, v)})

	case *types.AOE:
		aoe(x, c, env)

	case *types.AddVar:
		s, ok := env.Model.Status(c.Status)
		if !ok {
			env.skip("add_var", c, fmt.Errorf("no status %d in context", c.Status))
			return
		}
		v, err := rules.Evaluate(x.Value, c, env.Model)
		if err != nil {
			env.skip("add_var", c, err)
			return
		}
		s.Vars[x.Name] = v

	case *types.AddGlobalVar:
		v, err := rules.Evaluate(x.Value, c, env.Model)
		if err != nil {
			env.skip("add_global_var", c, err)
			return
		}
		env.Model.SetGlobal(x.Name, v)

	case *types.ChangeStat:
		changeStat(x, c, env)

	case *types.AttachStatus:
		attachStatus(x, c, env)

	case *types.RemoveStatus:
		u, ok := env.unit(x.Who, c, "remove_status")
		if !ok {
			return
		}
		if env.Model.RemoveStatus(u.ID, x.Status) {
			env.display(types.DisplayEvent{Kind: "status", Unit: u.ID, Text: "-" + x.Status})
		}

	case *types.Spawn:
		spawn(x, c, env)

	case *types.Message:
		v, err := rules.Evaluate(x.Text, c, env.Model)
		if err != nil {
			env.skip("message", c, err)
			return
		}
		env.display(types.DisplayEvent{Kind: "text", Unit: c.Owner, Text: v.String(), Color: c.Color})

	case *types.Visual:
		env.display(types.DisplayEvent{Kind: "visual", Unit: c.Target, Text: x.Name, Color: c.Color, Duration: x.Duration})

	case *types.CustomTrigger:
		ev := types.Event{Kind: types.EventCustom, Name: x.Name, Unit: c.Owner}
		if u, ok := env.Model.Unit(c.Owner); ok {
			ev.Faction = u.Faction
		}
		env.emit(ev)

	case *types.Delayed:
		delay, err := rules.EvalNumber(x.Delay, c, env.Model)
		if err != nil {
			env.skip("delayed", c, err)
			return
		}
		env.Timeline.Schedule(delay, queue.Item{Effect: x.Effect, Context: c}, 0)

	case *types.TimeBomb:
		u, ok := env.unit(types.WhoTarget, c, "time_bomb")
		if !ok {
			return
		}
		delay, err := rules.EvalNumber(x.Delay, c, env.Model)
		if err != nil {
			env.skip("time_bomb", c, err)
			return
		}
		env.Timeline.Schedule(delay, queue.Item{Effect: x.Effect, Context: c}, u.ID)

	case *types.Reap:
		reap(x, c, env)

	default:
		env.logger().Warn("unknown effect", "type", fmt.Sprintf("%T", it.Effect))
	}
}

func random(x *types.Random, c scope.Context, env *Env) {
	var weights []int
	var choices []types.Effect
	for _, ch := range x.Choices {
		if ch.Weight > 0 && ch.Effect != nil {
			weights = append(weights, ch.Weight)
			choices = append(choices, ch.Effect)
		}
	}
	if len(choices) == 0 {
		return
	}
	pick := choices[env.RNG.WeightedSelect(weights)]
	env.Queue.PushFront(queue.Item{Effect: pick, Context: c})
}

func damage(x *types.Damage, c scope.Context, env *Env) {
	u, ok := env.unit(x.Who, c, "damage")
	if !ok {
		return
	}
	amount, err := rules.EvalInt(x.Value, c, env.Model)
	if err != nil {
		env.skip("damage", c, err)
		return
	}
	if amount <= 0 {
		return
	}
	old, hp, _ := env.Model.SetHP(u.ID, u.HP-amount)
	dealt := old - hp
	if c.Owner != 0 && c.Owner != u.ID {
		u.LastHitBy = c.Owner
	}

	env.display(types.DisplayEvent{Kind: "damage", Unit: u.ID, Text: fmt.Sprintf("-%d", amount), Color: c.Color})
	env.emit(types.Event{Kind: types.EventDamageTaken, Unit: u.ID, Other: c.Owner, Faction: u.Faction, Value: dealt})
	if src, ok := env.Model.Unit(c.Owner); ok && src.ID != u.ID {
		env.emit(types.Event{Kind: types.EventDamageDealt, Unit: src.ID, Other: u.ID, Faction: src.Faction, Value: dealt})
	}
	if dealt > 0 {
		env.emitStat(u, "hp", old)
	}

	follow := x.OnInjure
	if hp == 0 {
		follow = x.OnKill
	}
	if follow != nil {
		env.Queue.PushFront(queue.Item{Effect: follow, Context: c.Rebind(types.WhoTarget, u.ID)})
	}
}

func heal(x *types.Heal, c scope.Context, env *Env) {
	u, ok := env.unit(x.Who, c, "heal")
	if !ok {
		return
	}
	amount, err := rules.EvalInt(x.Value, c, env.Model)
	if err != nil {
		env.skip("heal", c, err)
		return
	}
	if amount <= 0 {
		return
	}
	if u.HP > u.MaxHP {
		env.logger().Warn("health above max, clamping", "unit", u.ID, "hp", u.HP, "max_hp", u.MaxHP)
	}
	old, hp, _ := env.Model.SetHP(u.ID, u.HP+amount)
	if hp == old {
		return
	}
	env.display(types.DisplayEvent{Kind: "heal", Unit: u.ID, Text: fmt.Sprintf("+%d", hp-old), Color: c.Color})
	env.emitStat(u, "hp", old)
}

func changeTarget(x *types.ChangeTarget, c scope.Context, env *Env) {
	var candidates []types.UnitID
	for _, u := range state.Related(env.Model, x.Relation, c.Owner) {
		if u.ID == c.Owner || u.ID == c.Target {
			continue
		}
		if !rules.EvalCondition(x.Condition, c.Rebind(types.WhoTarget, u.ID), env.Model) {
			continue
		}
		candidates = append(candidates, u.ID)
	}
	if len(candidates) == 0 {
		env.logger().Debug("change_target found no candidate", "owner", c.Owner)
		return
	}
	pick := candidates[env.RNG.Pick(len(candidates))]
	env.Queue.PushFront(queue.Item{Effect: x.Effect, Context: c.Rebind(types.WhoTarget, pick)})
}

func aoe(x *types.AOE, c scope.Context, env *Env) {
	var items []queue.Item
	for _, u := range state.Related(env.Model, x.Relation, c.Owner) {
		next := c.Rebind(types.WhoTarget, u.ID)
		if !rules.EvalCondition(x.Condition, next, env.Model) {
			continue
		}
		items = append(items, queue.Item{Effect: x.Effect, Context: next})
	}
	env.Queue.PushFrontMany(items)
}

func changeStat(x *types.ChangeStat, c scope.Context, env *Env) {
	u, ok := env.unit(x.Who, c, "change_stat")
	if !ok {
		return
	}
	v, err := rules.EvalInt(x.Value, c, env.Model)
	if err != nil {
		env.skip("change_stat", c, err)
		return
	}
	old, err := env.Model.SetStat(u.ID, x.Stat, v, x.Permanent)
	if err != nil {
		env.skip("change_stat", c, err)
		return
	}
	if now, _ := u.Stat(x.Stat); now != old {
		env.emitStat(u, x.Stat, old)
	}
}

func attachStatus(x *types.AttachStatus, c scope.Context, env *Env) {
	u, ok := env.unit(x.Who, c, "attach_status")
	if !ok {
		return
	}
	charges := 1
	if x.Charges != nil {
		n, err := rules.EvalInt(x.Charges, c, env.Model)
		if err != nil {
			env.skip("attach_status", c, err)
			return
		}
		charges = n
	}
	if charges <= 0 {
		return
	}
	s, err := env.Model.AttachStatus(u.ID, x.Status, c.Owner, charges)
	if err != nil {
		env.skip("attach_status", c, err)
		return
	}
	env.display(types.DisplayEvent{Kind: "status", Unit: u.ID, Text: fmt.Sprintf("+%s x%d", s.Name, charges), Color: s.Color})
}

func spawn(x *types.Spawn, c scope.Context, env *Env) {
	anchor, ok := env.unit(x.Anchor, c, "spawn")
	if !ok {
		return
	}
	faction := anchor.Faction
	if x.Flip {
		faction = faction.Opposite()
	}
	u, err := env.Model.Spawn(x.Unit, faction, anchor.Slot+x.Offset)
	if err != nil {
		env.skip("spawn", c, err)
		return
	}
	env.display(types.DisplayEvent{Kind: "spawn", Unit: u.ID, Text: u.Title, Color: c.Color})
	env.emit(types.Event{Kind: types.EventSpawn, Unit: u.ID, Other: c.Owner, Faction: u.Faction})
	if x.Then != nil {
		env.Queue.PushFront(queue.Item{Effect: x.Then, Context: c.Rebind(types.WhoTarget, u.ID)})
	}
}

func reap(x *types.Reap, c scope.Context, env *Env) {
	u, ok := env.unit(x.Who, c, "reap")
	if !ok {
		return
	}
	if u.HP > 0 {
		u.Dying = false
		return
	}
	env.Model.Remove(u.ID)
	env.display(types.DisplayEvent{Kind: "death", Unit: u.ID, Text: u.Title})
	env.emit(types.Event{Kind: types.EventDeath, Unit: u.ID, Other: u.LastHitBy, Faction: u.Faction})
	if killer, ok := env.Model.Unit(u.LastHitBy); ok {
		env.emit(types.Event{Kind: types.EventKill, Unit: killer.ID, Other: u.ID, Faction: killer.Faction})
	}
}

// unit resolves a role to a living unit, logging the miss.
func (env *Env) unit(w types.Who, c scope.Context, op string) (*state.Unit, bool) {
	id, ok := c.Resolve(w)
	if !ok {
		env.skip(op, c, fmt.Errorf("%s: %w", w, rules.ErrUnresolved))
		return nil, false
	}
	u, ok := env.Model.Unit(id)
	if !ok {
		env.skip(op, c, fmt.Errorf("%s is unit %d: %w", w, id, rules.ErrUnresolved))
		return nil, false
	}
	return u, true
}

func (env *Env) emitStat(u *state.Unit, stat string, old int) {
	env.emit(types.Event{Kind: types.EventStatChanged, Unit: u.ID, Faction: u.Faction, Stat: stat, Value: old})
}

func (env *Env) emit(ev types.Event) {
	if env.Emit != nil {
		env.Emit(ev)
	}
}

func (env *Env) display(d types.DisplayEvent) {
	if env.Display != nil {
		env.Display(d)
	}
}

func (env *Env) skip(op string, c scope.Context, err error) {
	env.logger().Debug("effect skipped", "effect", op, "owner", c.Owner, "target", c.Target, "err", err)
}

func (env *Env) logger() *slog.Logger {
	if env.Log != nil {
		return env.Log
	}
	return slog.Default()
}
