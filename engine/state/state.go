// Package state holds the battle model: the loaded definitions and the
// living units, statuses and globals the interpreter reads and mutates.
package state

import (
	"fmt"
	"sort"

	"github.com/nathoo/battlecore/types"
)

// Defs holds the immutable content definitions loaded from Lua.
type Defs struct {
	Battle   types.BattleDef
	Units    map[string]types.UnitDef
	Statuses map[string]types.StatusDef
	Houses   map[string]types.HouseDef
}

// Unit is one combatant in a running battle.
type Unit struct {
	ID       types.UnitID
	Template string
	Title    string
	Faction  types.Faction
	Slot     int
	HP       int
	MaxHP    int
	Stats    map[string]int
	Statuses []*Status

	// Base is the cached shop copy that permanent stat changes write
	// through to. Nil for units that have no shop copy.
	Base *Base

	LastHitBy types.UnitID
	Dying     bool
}

// Base is the between-battles copy of a unit's stats.
type Base struct {
	Template string
	MaxHP    int
	Stats    map[string]int
}

// Status is one status attachment on a unit.
type Status struct {
	ID      types.StatusID
	Name    string
	Unit    types.UnitID
	Caster  types.UnitID
	Charges int
	Color   string
	Vars    map[string]types.Value
}

// Injured reports whether the unit is below max hp.
func (u *Unit) Injured() bool { return u.HP < u.MaxHP }

// Stat returns a stat by name. hp, max_hp and slot are built in.
func (u *Unit) Stat(name string) (int, bool) {
	switch name {
	case "hp":
		return u.HP, true
	case "max_hp":
		return u.MaxHP, true
	case "slot":
		return u.Slot, true
	}
	v, ok := u.Stats[name]
	return v, ok
}

// FindStatus returns the unit's attachment of the named status.
func (u *Unit) FindStatus(name string) (*Status, bool) {
	for _, s := range u.Statuses {
		if s.Name == name {
			return s, true
		}
	}
	return nil, false
}

// Model is the interpreter's view of the battle. Every lookup that can miss
// reports it; the interpreter turns misses into no-ops.
type Model interface {
	Unit(id types.UnitID) (*Unit, bool)
	Units() []*Unit
	SetHP(id types.UnitID, hp int) (old, updated int, ok bool)
	SetStat(id types.UnitID, stat string, value int, permanent bool) (old int, err error)
	Status(id types.StatusID) (*Status, bool)
	AttachStatus(unit types.UnitID, name string, caster types.UnitID, charges int) (*Status, error)
	RemoveStatus(unit types.UnitID, name string) bool
	Global(name string) (types.Value, bool)
	SetGlobal(name string, v types.Value)
	Spawn(template string, faction types.Faction, slot int) (*Unit, error)
	Remove(id types.UnitID) (*Unit, bool)
}

// Related returns the living units standing in relation rel to ref, in
// model order. ref itself is included when it matches.
func Related(m Model, rel types.Relation, ref types.UnitID) []*Unit {
	r, ok := m.Unit(ref)
	if !ok {
		return nil
	}
	var out []*Unit
	for _, u := range m.Units() {
		switch rel {
		case types.RelationAlly:
			if u.Faction != r.Faction {
				continue
			}
		case types.RelationEnemy:
			if u.Faction == r.Faction {
				continue
			}
		}
		out = append(out, u)
	}
	return out
}

// Battle is the in-memory Model.
type Battle struct {
	defs       *Defs
	units      []*Unit
	fallen     []*Unit
	statuses   map[types.StatusID]*Status
	globals    map[string]types.Value
	nextUnit   types.UnitID
	nextStatus types.StatusID
}

// NewBattle places the lineup from defs. Player units get a shop copy.
func NewBattle(defs *Defs) (*Battle, error) {
	b := &Battle{
		defs:     defs,
		statuses: map[types.StatusID]*Status{},
		globals:  map[string]types.Value{},
	}
	for i, name := range defs.Battle.Player {
		u, err := b.Spawn(name, types.FactionPlayer, i)
		if err != nil {
			return nil, err
		}
		u.Base = &Base{Template: name, MaxHP: u.MaxHP, Stats: copyStats(u.Stats)}
	}
	for i, name := range defs.Battle.Enemy {
		if _, err := b.Spawn(name, types.FactionEnemy, i); err != nil {
			return nil, err
		}
	}
	return b, nil
}

// Unit returns a living unit.
func (b *Battle) Unit(id types.UnitID) (*Unit, bool) {
	for _, u := range b.units {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Units returns the living units, player side first, each side by slot.
func (b *Battle) Units() []*Unit {
	out := make([]*Unit, len(b.units))
	copy(out, b.units)
	return out
}

// Fallen returns removed units in the order they died.
func (b *Battle) Fallen() []*Unit { return b.fallen }

// Lookup finds a unit whether or not it is still alive.
func (b *Battle) Lookup(id types.UnitID) (*Unit, bool) {
	if u, ok := b.Unit(id); ok {
		return u, true
	}
	for _, u := range b.fallen {
		if u.ID == id {
			return u, true
		}
	}
	return nil, false
}

// Front returns the lowest-slot living unit of a faction.
func (b *Battle) Front(f types.Faction) (*Unit, bool) {
	for _, u := range b.units {
		if u.Faction == f {
			return u, true
		}
	}
	return nil, false
}

// Count returns the number of living units in a faction.
func (b *Battle) Count(f types.Faction) int {
	n := 0
	for _, u := range b.units {
		if u.Faction == f {
			n++
		}
	}
	return n
}

// SetHP sets a unit's health clamped to [0, max_hp].
func (b *Battle) SetHP(id types.UnitID, hp int) (int, int, bool) {
	u, ok := b.Unit(id)
	if !ok {
		return 0, 0, false
	}
	old := u.HP
	u.HP = clamp(hp, 0, u.MaxHP)
	return old, u.HP, true
}

// SetStat writes a stat. max_hp changes re-clamp hp. Permanent changes are
// mirrored onto the unit's shop copy when it has one.
func (b *Battle) SetStat(id types.UnitID, stat string, value int, permanent bool) (int, error) {
	u, ok := b.Unit(id)
	if !ok {
		return 0, fmt.Errorf("unit %d not found", id)
	}
	old, _ := u.Stat(stat)
	switch stat {
	case "hp":
		u.HP = clamp(value, 0, u.MaxHP)
	case "max_hp":
		if value < 1 {
			value = 1
		}
		u.MaxHP = value
		u.HP = clamp(u.HP, 0, u.MaxHP)
	case "slot":
		return old, fmt.Errorf("stat %q is read-only", stat)
	default:
		if u.Stats == nil {
			u.Stats = map[string]int{}
		}
		u.Stats[stat] = value
	}
	if permanent && u.Base != nil {
		switch stat {
		case "hp":
			// Health is never carried between battles.
		case "max_hp":
			u.Base.MaxHP = u.MaxHP
		default:
			if u.Base.Stats == nil {
				u.Base.Stats = map[string]int{}
			}
			u.Base.Stats[stat] = value
		}
	}
	return old, nil
}

// Status returns a live status attachment.
func (b *Battle) Status(id types.StatusID) (*Status, bool) {
	s, ok := b.statuses[id]
	return s, ok
}

// AttachStatus attaches a status or adds charges to an existing attachment.
func (b *Battle) AttachStatus(unit types.UnitID, name string, caster types.UnitID, charges int) (*Status, error) {
	u, ok := b.Unit(unit)
	if !ok {
		return nil, fmt.Errorf("unit %d not found", unit)
	}
	def, ok := b.defs.Statuses[name]
	if !ok {
		return nil, fmt.Errorf("unknown status %q", name)
	}
	if s, ok := u.FindStatus(name); ok {
		s.Charges += charges
		return s, nil
	}
	b.nextStatus++
	s := &Status{
		ID:      b.nextStatus,
		Name:    name,
		Unit:    unit,
		Caster:  caster,
		Charges: charges,
		Color:   def.Color,
		Vars:    map[string]types.Value{},
	}
	u.Statuses = append(u.Statuses, s)
	b.statuses[s.ID] = s
	return s, nil
}

// RemoveStatus detaches a status from a unit.
func (b *Battle) RemoveStatus(unit types.UnitID, name string) bool {
	u, ok := b.Unit(unit)
	if !ok {
		return false
	}
	for i, s := range u.Statuses {
		if s.Name == name {
			u.Statuses = append(u.Statuses[:i], u.Statuses[i+1:]...)
			delete(b.statuses, s.ID)
			return true
		}
	}
	return false
}

// Global reads a battle-wide variable.
func (b *Battle) Global(name string) (types.Value, bool) {
	v, ok := b.globals[name]
	return v, ok
}

// SetGlobal writes a battle-wide variable.
func (b *Battle) SetGlobal(name string, v types.Value) {
	b.globals[name] = v
}

// Globals returns a copy of every battle-wide variable.
func (b *Battle) Globals() map[string]types.Value {
	out := make(map[string]types.Value, len(b.globals))
	for k, v := range b.globals {
		out[k] = v
	}
	return out
}

// Spawn creates a unit from a template at the given slot of a faction.
// Units at or behind that slot move back one place.
func (b *Battle) Spawn(template string, faction types.Faction, slot int) (*Unit, error) {
	def, ok := b.defs.Units[template]
	if !ok {
		return nil, fmt.Errorf("unknown unit template %q", template)
	}
	if slot < 0 {
		slot = 0
	}
	if n := b.Count(faction); slot > n {
		slot = n
	}
	for _, u := range b.units {
		if u.Faction == faction && u.Slot >= slot {
			u.Slot++
		}
	}
	b.nextUnit++
	title := def.Title
	if title == "" {
		title = def.Name
	}
	u := &Unit{
		ID:       b.nextUnit,
		Template: def.Name,
		Title:    title,
		Faction:  faction,
		Slot:     slot,
		HP:       def.HP,
		MaxHP:    def.HP,
		Stats:    copyStats(def.Stats),
	}
	b.units = append(b.units, u)
	b.sortUnits()
	return u, nil
}

// Remove takes a unit out of the battle. Its statuses go with it and the
// remaining units of its faction close ranks.
func (b *Battle) Remove(id types.UnitID) (*Unit, bool) {
	for i, u := range b.units {
		if u.ID != id {
			continue
		}
		b.units = append(b.units[:i], b.units[i+1:]...)
		for _, s := range u.Statuses {
			delete(b.statuses, s.ID)
		}
		b.fallen = append(b.fallen, u)
		slot := 0
		for _, o := range b.units {
			if o.Faction == u.Faction {
				o.Slot = slot
				slot++
			}
		}
		return u, true
	}
	return nil, false
}

func (b *Battle) sortUnits() {
	sort.SliceStable(b.units, func(i, j int) bool {
		if b.units[i].Faction != b.units[j].Faction {
			return b.units[i].Faction < b.units[j].Faction
		}
		return b.units[i].Slot < b.units[j].Slot
	})
}

func copyStats(in map[string]int) map[string]int {
	out := make(map[string]int, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

func clamp(v, lo, hi int) int {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
