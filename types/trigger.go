package types

// Trigger decides whether a reaction fires for an event.
type Trigger interface{ triggerNode() }

type (
	BattleStart  struct{}
	TurnStart    struct{}
	TurnEnd      struct{}
	BeforeStrike struct{}
	AfterStrike  struct{}
	DamageTaken  struct{}
	DamageDealt  struct{}
	PreDeath     struct{}
	AllyDeath    struct{}
	AnyDeath     struct{}
	AfterKill    struct{}
	AllySpawn    struct{}
)

// StatChanged fires when the owner's stat changes. Empty Stat matches any.
type StatChanged struct{ Stat string }

// Custom fires on a named event raised by a CustomTrigger effect.
type Custom struct{ Name string }

// Period fires on every Every-th firing of Inner.
type Period struct {
	Every int
	Inner Trigger
}

// OnceAfter skips Count firings of Inner, fires once, then never again.
type OnceAfter struct {
	Count int
	Inner Trigger
}

// AnyOf fires when any of its triggers fires.
type AnyOf struct{ Triggers []Trigger }

func (*BattleStart) triggerNode()  {}
func (*TurnStart) triggerNode()    {}
func (*TurnEnd) triggerNode()      {}
func (*BeforeStrike) triggerNode() {}
func (*AfterStrike) triggerNode()  {}
func (*DamageTaken) triggerNode()  {}
func (*DamageDealt) triggerNode()  {}
func (*PreDeath) triggerNode()     {}
func (*AllyDeath) triggerNode()    {}
func (*AnyDeath) triggerNode()     {}
func (*AfterKill) triggerNode()    {}
func (*AllySpawn) triggerNode()    {}
func (*StatChanged) triggerNode()  {}
func (*Custom) triggerNode()       {}
func (*Period) triggerNode()       {}
func (*OnceAfter) triggerNode()    {}
func (*AnyOf) triggerNode()        {}

// Modifier rewrites effect trees when a template is assembled.
type Modifier interface{ modifierNode() }

// Strength turns every Damage magnitude m into m*Multiplier + Add.
type Strength struct{ Multiplier, Add float64 }

// Healing turns every Heal magnitude m into m*Multiplier + Add.
type Healing struct{ Multiplier, Add float64 }

// Crit replaces every Damage with a weighted choice between the original
// and a copy whose magnitude is multiplied. Chance is a percentage.
type Crit struct {
	Chance     int
	Multiplier float64
}

func (*Strength) modifierNode() {}
func (*Healing) modifierNode()  {}
func (*Crit) modifierNode()     {}
