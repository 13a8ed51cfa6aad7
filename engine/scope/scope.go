// Package scope provides the effect Context: the immutable bundle of role
// bindings and variables an effect runs under.
package scope

import "github.com/nathoo/battlecore/types"

// Context is a value type. Every derivation returns a new Context and leaves
// the receiver untouched, so sibling queue items never see each other's
// rebinds. Vars is copy-on-write: it is never mutated after construction.
type Context struct {
	Owner  types.UnitID
	Caster types.UnitID
	Target types.UnitID

	Vars   map[string]types.Value
	Status types.StatusID
	Color  string
	Queue  string

	// Event is the event whose reaction produced this context, if any.
	Event *types.Event
}

// ForUnit returns a context with every role bound to id.
func ForUnit(id types.UnitID) Context {
	return Context{Owner: id, Caster: id, Target: id}
}

// Resolve returns the unit bound to a role.
func (c Context) Resolve(w types.Who) (types.UnitID, bool) {
	var id types.UnitID
	switch w {
	case types.WhoOwner:
		id = c.Owner
	case types.WhoCaster:
		id = c.Caster
	case types.WhoTarget:
		id = c.Target
	}
	return id, id != 0
}

// Rebind returns a copy with role w bound to id. A zero id unbinds the role.
func (c Context) Rebind(w types.Who, id types.UnitID) Context {
	switch w {
	case types.WhoOwner:
		c.Owner = id
	case types.WhoCaster:
		c.Caster = id
	case types.WhoTarget:
		c.Target = id
	}
	return c
}

// Var looks up a variable in the overlay.
func (c Context) Var(name string) (types.Value, bool) {
	v, ok := c.Vars[name]
	return v, ok
}

// WithVar returns a copy with name bound to v.
func (c Context) WithVar(name string, v types.Value) Context {
	vars := make(map[string]types.Value, len(c.Vars)+1)
	for k, old := range c.Vars {
		vars[k] = old
	}
	vars[name] = v
	c.Vars = vars
	return c
}

// WithStatus returns a copy running on behalf of a status attachment.
func (c Context) WithStatus(id types.StatusID, color string) Context {
	c.Status = id
	c.Color = color
	return c
}

// WithQueue returns a copy whose delayed effects serialize on partition q.
func (c Context) WithQueue(q string) Context {
	c.Queue = q
	return c
}

// WithEvent returns a copy remembering the event that produced it.
func (c Context) WithEvent(ev types.Event) Context {
	c.Event = &ev
	return c
}
