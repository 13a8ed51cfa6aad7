package types

// Effect is one node of an effect tree. Nodes are immutable once a template
// has been assembled; the interpreter never writes to them.
type Effect interface{ effectNode() }

// Noop does nothing.
type Noop struct{}

// List runs its effects in declared order.
type List struct{ Effects []Effect }

// Repeat runs Effect Times times. Times is evaluated once.
type Repeat struct {
	Times  Expr
	Effect Effect
}

// If runs Then or Else depending on Condition at the moment it executes.
type If struct {
	Condition Condition
	Then      Effect
	Else      Effect // may be nil
}

// Choice is one weighted branch of a Random effect.
type Choice struct {
	Weight int
	Effect Effect
}

// Random runs exactly one of its choices, picked by weight.
type Random struct{ Choices []Choice }

// Damage lowers the health of the unit bound to Who.
type Damage struct {
	Who      Who
	Value    Expr
	Types    []string
	OnInjure Effect // runs when the unit survives the hit
	OnKill   Effect // runs when the hit leaves the unit at zero health
}

// Heal raises the health of the unit bound to Who, capped at max hp.
type Heal struct {
	Who   Who
	Value Expr
}

// Kill drops the unit bound to Who to zero health.
type Kill struct{ Who Who }

// ChangeTarget rebinds Target to a random unit matching Relation (relative to
// the owner) and Condition, excluding the owner and the current target.
type ChangeTarget struct {
	Relation  Relation
	Condition Condition // nil means always
	Effect    Effect
}

// ChangeContext rebinds roles before running Effect. Rebind maps each
// destination role to the role whose current binding it takes.
type ChangeContext struct {
	Rebind map[Who]Who
	Queue  string // non-empty replaces the queue partition
	Effect Effect
}

// WithVar binds a context variable for Effect and its descendants.
type WithVar struct {
	Name   string
	Value  Expr
	Effect Effect
}

// AOE runs Effect once per living unit matching Relation and Condition,
// each time with that unit as Target.
type AOE struct {
	Relation  Relation
	Condition Condition
	Effect    Effect
}

// AddVar writes into the variable bag of the context's status.
type AddVar struct {
	Name  string
	Value Expr
}

// AddGlobalVar writes a battle-wide variable.
type AddGlobalVar struct {
	Name  string
	Value Expr
}

// ChangeStat sets a stat on the unit bound to Who. Permanent changes are
// mirrored onto the unit's base copy when it has one.
type ChangeStat struct {
	Who       Who
	Stat      string
	Value     Expr
	Permanent bool
}

// AttachStatus attaches a status, stacking charges onto an existing one.
type AttachStatus struct {
	Who     Who
	Status  string
	Charges Expr // nil means 1
}

// RemoveStatus detaches a status.
type RemoveStatus struct {
	Who    Who
	Status string
}

// Spawn creates a unit from a template next to the unit bound to Anchor,
// then runs Then with the new unit as Target.
type Spawn struct {
	Unit   string
	Anchor Who
	Offset int
	Flip   bool // spawn on the anchor's opposing side
	Then   Effect
}

// Message shows text to the player.
type Message struct{ Text Expr }

// Visual asks the front end to play a named visual.
type Visual struct {
	Name     string
	Duration float64
}

// CustomTrigger raises a named event that Custom triggers listen to.
type CustomTrigger struct{ Name string }

// Delayed schedules Effect after Delay seconds.
type Delayed struct {
	Delay  Expr
	Effect Effect
}

// TimeBomb schedules Effect after Delay seconds, anchored to the target.
// It is dropped if the target is gone when it goes off.
type TimeBomb struct {
	Delay  Expr
	Effect Effect
}

// Reap removes the unit bound to Who if its health is depleted.
type Reap struct{ Who Who }

func (*Noop) effectNode()          {}
func (*List) effectNode()          {}
func (*Repeat) effectNode()        {}
func (*If) effectNode()            {}
func (*Random) effectNode()        {}
func (*Damage) effectNode()        {}
func (*Heal) effectNode()          {}
func (*Kill) effectNode()          {}
func (*ChangeTarget) effectNode()  {}
func (*ChangeContext) effectNode() {}
func (*WithVar) effectNode()       {}
func (*AOE) effectNode()           {}
func (*AddVar) effectNode()        {}
func (*AddGlobalVar) effectNode()  {}
func (*ChangeStat) effectNode()    {}
func (*AttachStatus) effectNode()  {}
func (*RemoveStatus) effectNode()  {}
func (*Spawn) effectNode()         {}
func (*Message) effectNode()       {}
func (*Visual) effectNode()        {}
func (*CustomTrigger) effectNode() {}
func (*Delayed) effectNode()       {}
func (*TimeBomb) effectNode()      {}
func (*Reap) effectNode()          {}
