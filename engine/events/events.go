// Package events maps battle events to queued reaction effects. Dispatch
// only enqueues; the driver decides when the queue runs.
package events

import (
	"fmt"
	"strings"

	"github.com/nathoo/battlecore/engine/queue"
	"github.com/nathoo/battlecore/engine/rules"
	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

// Mode selects how many reactions of one table fire for a single event.
type Mode int

const (
	// ModeAll fires every matching reaction, in declaration order.
	ModeAll Mode = iota
	// ModeFirst fires only the first matching reaction.
	ModeFirst
)

// ParseMode converts a config string into a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(s) {
	case "", "all":
		return ModeAll, nil
	case "first":
		return ModeFirst, nil
	}
	return ModeAll, fmt.Errorf("unknown reaction mode %q", s)
}

func (m Mode) String() string {
	if m == ModeFirst {
		return "first"
	}
	return "all"
}

// Table is one owner's reactions indexed by the event kinds they listen to.
type Table struct {
	reactions []types.Reaction
	byKind    map[types.EventKind][]int
}

// NewTable indexes reactions, keeping declaration order within each kind.
func NewTable(reactions []types.Reaction) *Table {
	t := &Table{reactions: reactions, byKind: map[types.EventKind][]int{}}
	for i, r := range reactions {
		for _, k := range rules.Kinds(r.Trigger) {
			t.byKind[k] = append(t.byKind[k], i)
		}
	}
	return t
}

// Len returns the number of reactions in the table.
func (t *Table) Len() int { return len(t.reactions) }

// Match returns the reactions that fire for ev, in declaration order.
func (t *Table) Match(ev types.Event, c scope.Context, m state.Model, counters rules.Counters, owner string, mode Mode) []types.Reaction {
	var out []types.Reaction
	for _, i := range t.byKind[ev.Kind] {
		r := t.reactions[i]
		if !rules.Fires(r.Trigger, ev, c, m, counters, owner) {
			continue
		}
		out = append(out, r)
		if mode == ModeFirst {
			break
		}
	}
	return out
}

// Tables holds the reaction table of every unit and status template.
type Tables struct {
	Units    map[string]*Table
	Statuses map[string]*Table
}

// NewTables builds tables for every template in defs.
func NewTables(defs *state.Defs) *Tables {
	t := &Tables{Units: map[string]*Table{}, Statuses: map[string]*Table{}}
	for name, u := range defs.Units {
		t.Units[name] = NewTable(u.Reactions)
	}
	for name, s := range defs.Statuses {
		t.Statuses[name] = NewTable(s.Reactions)
	}
	return t
}

// Dispatch returns the items ev produces. Units are visited in model order;
// each unit's own reactions come before those of its statuses, and statuses
// are visited in attachment order.
func Dispatch(ev types.Event, m state.Model, tables *Tables, counters rules.Counters, mode Mode) []queue.Item {
	var items []queue.Item
	add := func(rs []types.Reaction, c scope.Context) {
		for _, r := range rs {
			for _, e := range r.Effects {
				items = append(items, queue.Item{Effect: e, Context: c})
			}
		}
	}

	for _, u := range m.Units() {
		base := scope.Context{Owner: u.ID, Caster: u.ID, Target: counterpart(ev, u.ID)}.WithEvent(ev)

		if t, ok := tables.Units[u.Template]; ok {
			add(t.Match(ev, base, m, counters, fmt.Sprintf("unit:%d", u.ID), mode), base)
		}

		for _, s := range u.Statuses {
			t, ok := tables.Statuses[s.Name]
			if !ok {
				continue
			}
			c := base.WithStatus(s.ID, s.Color)
			if s.Caster != 0 {
				c.Caster = s.Caster
			}
			add(t.Match(ev, c, m, counters, fmt.Sprintf("status:%d", s.ID), mode), c)
		}
	}
	return items
}

// counterpart picks the reacting unit's target: the other party of the
// event, or the unit itself when there is none.
func counterpart(ev types.Event, self types.UnitID) types.UnitID {
	switch {
	case ev.Unit == self && ev.Other != 0:
		return ev.Other
	case ev.Unit != 0 && ev.Unit != self:
		return ev.Unit
	}
	return self
}
