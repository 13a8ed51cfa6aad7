package types

import (
	"fmt"
	"strconv"
)

// ValueKind tags the payload of a Value.
type ValueKind int

const (
	KindNumber ValueKind = iota
	KindVec
	KindString
)

// Value is the result of evaluating an expression.
type Value struct {
	Kind ValueKind
	Num  float64
	X, Y float64
	Str  string
}

// Num returns a numeric value.
func Num(f float64) Value { return Value{Kind: KindNumber, Num: f} }

// Vec returns a two-component vector value.
func Vec(x, y float64) Value { return Value{Kind: KindVec, X: x, Y: y} }

// Str returns a string value.
func Str(s string) Value { return Value{Kind: KindString, Str: s} }

func (v Value) String() string {
	switch v.Kind {
	case KindVec:
		return fmt.Sprintf("(%g, %g)", v.X, v.Y)
	case KindString:
		return v.Str
	}
	return strconv.FormatFloat(v.Num, 'f', -1, 64)
}
