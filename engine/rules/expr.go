// Package rules evaluates the pure parts of effect content: expressions,
// conditions, and trigger matching.
package rules

import (
	"errors"
	"fmt"
	"log/slog"
	"math"

	"github.com/nathoo/battlecore/engine/scope"
	"github.com/nathoo/battlecore/engine/state"
	"github.com/nathoo/battlecore/types"
)

var (
	// ErrUnbound means a variable or stat has no value.
	ErrUnbound = errors.New("unbound variable")
	// ErrUnresolved means a role is not bound to a living unit.
	ErrUnresolved = errors.New("unresolved role")
	// ErrType means an operand has the wrong kind.
	ErrType = errors.New("type mismatch")
	// ErrDivideByZero means a division had a zero divisor.
	ErrDivideByZero = errors.New("division by zero")
)

// Evaluate computes an expression. It never mutates the context or model.
func Evaluate(e types.Expr, c scope.Context, m state.Model) (types.Value, error) {
	switch x := e.(type) {
	case *types.Const:
		return types.Num(x.Value), nil

	case *types.Text:
		return types.Str(x.Value), nil

	case *types.VecExpr:
		vx, err := EvalNumber(x.X, c, m)
		if err != nil {
			return types.Value{}, err
		}
		vy, err := EvalNumber(x.Y, c, m)
		if err != nil {
			return types.Value{}, err
		}
		return types.Vec(vx, vy), nil

	case *types.Var:
		return lookupVar(x.Name, c, m)

	case *types.Global:
		if v, ok := m.Global(x.Name); ok {
			return v, nil
		}
		return types.Value{}, fmt.Errorf("global %q: %w", x.Name, ErrUnbound)

	case *types.Stat:
		id, ok := c.Resolve(x.Who)
		if !ok {
			return types.Value{}, fmt.Errorf("stat %s of %s: %w", x.Name, x.Who, ErrUnresolved)
		}
		u, ok := m.Unit(id)
		if !ok {
			return types.Value{}, fmt.Errorf("stat %s of unit %d: %w", x.Name, id, ErrUnresolved)
		}
		v, ok := u.Stat(x.Name)
		if !ok {
			return types.Value{}, fmt.Errorf("stat %s of unit %d: %w", x.Name, id, ErrUnbound)
		}
		return types.Num(float64(v)), nil

	case *types.Binary:
		a, err := Evaluate(x.A, c, m)
		if err != nil {
			return types.Value{}, err
		}
		b, err := Evaluate(x.B, c, m)
		if err != nil {
			return types.Value{}, err
		}
		return binary(x.Op, a, b)

	case nil:
		return types.Value{}, fmt.Errorf("nil expression: %w", ErrType)
	}
	return types.Value{}, fmt.Errorf("unknown expression %T: %w", e, ErrType)
}

// EvalNumber evaluates an expression that must produce a number.
func EvalNumber(e types.Expr, c scope.Context, m state.Model) (float64, error) {
	v, err := Evaluate(e, c, m)
	if err != nil {
		return 0, err
	}
	if v.Kind != types.KindNumber {
		return 0, fmt.Errorf("expected number, got %s: %w", v, ErrType)
	}
	return v.Num, nil
}

// MaxInt bounds the magnitude of integer results; larger values are clamped.
const MaxInt = math.MaxInt32

// EvalInt evaluates a numeric expression and rounds it to the nearest int.
// NaN is a type error. Infinite or out-of-range results are clamped to
// ±MaxInt with a warning.
func EvalInt(e types.Expr, c scope.Context, m state.Model) (int, error) {
	f, err := EvalNumber(e, c, m)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(f) {
		return 0, fmt.Errorf("NaN is not an integer: %w", ErrType)
	}
	f = math.Round(f)
	if f > MaxInt || f < -MaxInt {
		clamped := math.Copysign(MaxInt, f)
		slog.Warn("integer out of range, clamping", "value", f, "clamped", clamped)
		f = clamped
	}
	return int(f), nil
}

// lookupVar checks the context overlay, then the status bag, then the owner.
func lookupVar(name string, c scope.Context, m state.Model) (types.Value, error) {
	if v, ok := c.Var(name); ok {
		return v, nil
	}
	if c.Status != 0 {
		if s, ok := m.Status(c.Status); ok {
			if v, ok := s.Vars[name]; ok {
				return v, nil
			}
			if name == "charges" {
				return types.Num(float64(s.Charges)), nil
			}
		}
	}
	if c.Owner != 0 {
		if u, ok := m.Unit(c.Owner); ok {
			if v, ok := u.Stat(name); ok {
				return types.Num(float64(v)), nil
			}
		}
	}
	return types.Value{}, fmt.Errorf("var %q: %w", name, ErrUnbound)
}

func binary(op types.BinaryOp, a, b types.Value) (types.Value, error) {
	if a.Kind == types.KindVec && b.Kind == types.KindVec {
		switch op {
		case types.OpAdd:
			return types.Vec(a.X+b.X, a.Y+b.Y), nil
		case types.OpSub:
			return types.Vec(a.X-b.X, a.Y-b.Y), nil
		}
		return types.Value{}, fmt.Errorf("operator %d on vectors: %w", op, ErrType)
	}
	if a.Kind == types.KindVec && b.Kind == types.KindNumber {
		switch op {
		case types.OpMul:
			return types.Vec(a.X*b.Num, a.Y*b.Num), nil
		case types.OpDiv:
			if b.Num == 0 {
				return types.Value{}, ErrDivideByZero
			}
			return types.Vec(a.X/b.Num, a.Y/b.Num), nil
		}
	}
	if a.Kind != types.KindNumber || b.Kind != types.KindNumber {
		return types.Value{}, fmt.Errorf("operator %d on %s and %s: %w", op, a, b, ErrType)
	}
	switch op {
	case types.OpAdd:
		return types.Num(a.Num + b.Num), nil
	case types.OpSub:
		return types.Num(a.Num - b.Num), nil
	case types.OpMul:
		return types.Num(a.Num * b.Num), nil
	case types.OpDiv:
		if b.Num == 0 {
			return types.Value{}, ErrDivideByZero
		}
		return types.Num(a.Num / b.Num), nil
	case types.OpMin:
		return types.Num(math.Min(a.Num, b.Num)), nil
	case types.OpMax:
		return types.Num(math.Max(a.Num, b.Num)), nil
	}
	return types.Value{}, fmt.Errorf("unknown operator %d: %w", op, ErrType)
}
