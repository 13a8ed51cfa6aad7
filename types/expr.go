package types

// Expr is a pure, side-effect-free computation over the context and model.
type Expr interface{ exprNode() }

// Const is a numeric literal.
type Const struct{ Value float64 }

// Text is a string literal.
type Text struct{ Value string }

// VecExpr builds a vector from two numeric expressions.
type VecExpr struct{ X, Y Expr }

// Var reads a variable: context overlay, then the context's status bag,
// then the owner's stats.
type Var struct{ Name string }

// Global reads a battle-wide variable.
type Global struct{ Name string }

// Stat reads a stat ("hp", "max_hp", "slot" or a custom stat) of a role.
type Stat struct {
	Who  Who
	Name string
}

// BinaryOp is an arithmetic operator.
type BinaryOp int

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDiv
	OpMin
	OpMax
)

// Binary combines two numeric (or vector, for + and -) operands.
type Binary struct {
	Op   BinaryOp
	A, B Expr
}

func (*Const) exprNode()   {}
func (*Text) exprNode()    {}
func (*VecExpr) exprNode() {}
func (*Var) exprNode()     {}
func (*Global) exprNode()  {}
func (*Stat) exprNode()    {}
func (*Binary) exprNode()  {}

// Condition is a pure boolean predicate. Unresolved roles make it false.
type Condition interface{ conditionNode() }

// Always is true.
type Always struct{}

// Not negates its inner condition.
type Not struct{ Inner Condition }

// All is true when every inner condition is true.
type All struct{ Conditions []Condition }

// Any is true when at least one inner condition is true.
type Any struct{ Conditions []Condition }

// HasStatus is true when the unit bound to Who carries the named status.
type HasStatus struct {
	Who    Who
	Status string
}

// IsInjured is true when the unit bound to Who is below max hp.
type IsInjured struct{ Who Who }

// IsAlive is true when the unit bound to Who is still in the battle.
type IsAlive struct{ Who Who }

// CompareOp is a numeric comparison.
type CompareOp int

const (
	CmpLess CompareOp = iota
	CmpGreater
	CmpEqual
)

// Compare evaluates two numeric expressions and compares them.
type Compare struct {
	Op   CompareOp
	A, B Expr
}

// Changed is true when the triggering event is a StatChanged for Stat.
type Changed struct{ Stat string }

func (*Always) conditionNode()    {}
func (*Not) conditionNode()       {}
func (*All) conditionNode()       {}
func (*Any) conditionNode()       {}
func (*HasStatus) conditionNode() {}
func (*IsInjured) conditionNode() {}
func (*IsAlive) conditionNode()   {}
func (*Compare) conditionNode()   {}
func (*Changed) conditionNode()   {}
